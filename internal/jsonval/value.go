// Package jsonval holds a tagged representation of JSON values that keeps
// object keys in document order, plus RFC 6901 pointer resolution over it.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind discriminates the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is one node of a JSON document. Exactly the fields implied by Kind
// are meaningful; the zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []*Value
	keys []string
	obj  map[string]*Value
}

// Null returns the null value.
func Null() *Value { return &Value{kind: KindNull} }

// NewBool returns a boolean value.
func NewBool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// NewNumber returns a numeric value carrying its original JSON text.
func NewNumber(n json.Number) *Value { return &Value{kind: KindNumber, num: n} }

// NewString returns a string value.
func NewString(s string) *Value { return &Value{kind: KindString, str: s} }

// NewArray returns an array value over the given items.
func NewArray(items ...*Value) *Value { return &Value{kind: KindArray, arr: items} }

// NewObject returns an empty object value. Keys keep insertion order.
func NewObject() *Value {
	return &Value{kind: KindObject, obj: map[string]*Value{}}
}

// Kind returns the value's shape tag. A nil receiver is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// Bool returns the boolean payload.
func (v *Value) Bool() bool { return v.b }

// Number returns the numeric payload.
func (v *Value) Number() json.Number { return v.num }

// Str returns the string payload.
func (v *Value) Str() string { return v.str }

// Items returns the array elements.
func (v *Value) Items() []*Value { return v.arr }

// Append adds an element to an array value.
func (v *Value) Append(item *Value) {
	v.arr = append(v.arr, item)
}

// Keys returns object keys in document order.
func (v *Value) Keys() []string { return v.keys }

// Field returns the object member for key.
func (v *Value) Field(key string) (*Value, bool) {
	m, ok := v.obj[key]
	return m, ok
}

// Set writes an object member. A new key is appended to the key order; an
// existing key keeps its position.
func (v *Value) Set(key string, member *Value) {
	if _, ok := v.obj[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = member
}

// Len returns the element count for arrays and the member count for objects.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	}
	return 0
}

// IsFalsy reports whether the value is null, false, zero or the empty
// string. Arrays and objects are never falsy, even when empty.
func (v *Value) IsFalsy() bool {
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return !v.b
	case KindNumber:
		f, err := v.num.Float64()
		return err == nil && f == 0
	case KindString:
		return v.str == ""
	}
	return false
}

// Equal reports deep structural equality. Numbers compare by numeric value,
// object member order is ignored.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if a.num == b.num {
			return true
		}
		af, aerr := a.num.Float64()
		bf, berr := b.num.Float64()
		return aerr == nil && berr == nil && af == bf
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for _, k := range a.keys {
			bm, ok := b.obj[k]
			if !ok || !Equal(a.obj[k], bm) {
				return false
			}
		}
		return true
	}
	return false
}

// FromInterface converts a generic decoded JSON tree (as produced by
// encoding/json) into a Value. Map keys are sorted so the result is
// deterministic; document order is only available through Parse.
func FromInterface(x interface{}) *Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return NewBool(t)
	case json.Number:
		return NewNumber(t)
	case float64:
		return NewNumber(floatToNumber(t))
	case int:
		return NewNumber(json.Number(fmt.Sprintf("%d", t)))
	case int64:
		return NewNumber(json.Number(fmt.Sprintf("%d", t)))
	case string:
		return NewString(t)
	case []interface{}:
		arr := NewArray()
		for _, item := range t {
			arr.Append(FromInterface(item))
		}
		return arr
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, FromInterface(t[k]))
		}
		return obj
	case *Value:
		return t
	}
	return Null()
}

func floatToNumber(f float64) json.Number {
	b, _ := json.Marshal(f)
	return json.Number(b)
}

// Interface converts the value back into the generic encoding/json shape.
// Object key order is lost; numbers stay json.Number.
func (v *Value) Interface() interface{} {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.obj[k].Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON renders the value preserving object key order and the
// original number text.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			mb, err := v.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(mb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("jsonval: cannot marshal kind %s", v.Kind())
}

// String returns the compact JSON rendering, for logs and test output.
func (v *Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return string(b)
}
