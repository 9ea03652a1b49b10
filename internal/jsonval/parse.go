package jsonval

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseError reports that content could not be parsed as JSON, even after
// repair. It is scoped to one file; other files are unaffected.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jsonval: malformed content: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes src as JSON, preserving object key order and raw number
// text. Near-JSON input (comments, trailing commas, single quotes) is run
// through jsonrepair before giving up, so config files that are not strictly
// JSON still parse.
func Parse(src string) (*Value, error) {
	v, err := decode(src)
	if err == nil {
		return v, nil
	}

	repaired, rerr := jsonrepair.JSONRepair(src)
	if rerr != nil {
		return nil, &ParseError{Err: err}
	}
	v, derr := decode(repaired)
	if derr != nil {
		return nil, &ParseError{Err: derr}
	}
	return v, nil
}

func decode(src string) (*Value, error) {
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %v, not a string", keyTok)
				}
				member, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, member)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := NewArray()
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case nil:
		return Null(), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		return NewNumber(t), nil
	case string:
		return NewString(t), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
