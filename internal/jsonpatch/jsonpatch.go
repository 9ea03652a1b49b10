// Package jsonpatch computes RFC 6902 patches between two parsed JSON
// documents.
package jsonpatch

import (
	"fmt"

	"github.com/wI2L/jsondiff"

	"github.com/sebinsua/diffscope/internal/jsonval"
)

// Operation is one atomic edit transforming the before-tree toward the
// after-tree. Order within a patch is significant.
type Operation struct {
	Op    string         `json:"op"` // add, remove, replace, move, copy, test
	Path  string         `json:"path"`
	From  string         `json:"from,omitempty"`
	Value *jsonval.Value `json:"value,omitempty"`
}

// FilePatch is the JSON-level diff of one file between two revisions.
// Before and After are nil when the file had no content at that revision,
// so callers can tell a missing file from an empty object; the patch itself
// is computed against {} on the missing side.
type FilePatch struct {
	Before *jsonval.Value `json:"before"`
	After  *jsonval.Value `json:"after"`
	Patch  []Operation    `json:"diff"`
}

// Compute returns the ordered minimal patch transforming before into after.
// A nil side stands in for the empty object.
func Compute(before, after *jsonval.Value) ([]Operation, error) {
	patch, err := jsondiff.Compare(orEmptyObject(before).Interface(), orEmptyObject(after).Interface())
	if err != nil {
		return nil, fmt.Errorf("jsonpatch: comparing documents: %w", err)
	}

	ops := make([]Operation, len(patch))
	for i, op := range patch {
		ops[i] = Operation{
			Op:    op.Type,
			Path:  op.Path,
			From:  op.From,
			Value: jsonval.FromInterface(op.Value),
		}
		if op.Type == jsondiff.OperationRemove || op.Type == jsondiff.OperationMove || op.Type == jsondiff.OperationCopy {
			ops[i].Value = nil
		}
	}
	return ops, nil
}

func orEmptyObject(v *jsonval.Value) *jsonval.Value {
	if v == nil {
		return jsonval.NewObject()
	}
	return v
}
