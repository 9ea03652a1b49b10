// Package difftree flattens a JSON patch into a nested tree of
// before/after nodes keyed by pointer path. It performs no I/O: the result
// is a pure function of the patch and the two document trees.
package difftree

import (
	"github.com/sebinsua/diffscope/internal/jsonpatch"
	"github.com/sebinsua/diffscope/internal/jsonval"
)

// Node describes one changed subtree. Added and Removed are set only when
// both sides share a container shape: element values for arrays, key names
// (as string values) for objects.
type Node struct {
	Before  *jsonval.Value   `json:"before"`
	After   *jsonval.Value   `json:"after"`
	Added   []*jsonval.Value `json:"added,omitempty"`
	Removed []*jsonval.Value `json:"removed,omitempty"`
}

// Tree mirrors the pointer hierarchy of the diffed documents. Branches are
// nested Trees; leaves are *Node.
type Tree map[string]interface{}

// Flatten applies each patch operation in order, resolving its parent
// pointer in both documents and writing a Node at that path. A later
// operation under the same parent pointer replaces the earlier node
// entirely.
func Flatten(patch []jsonpatch.Operation, before, after *jsonval.Value) Tree {
	out := Tree{}
	if before == nil {
		before = jsonval.NewObject()
	}
	if after == nil {
		after = jsonval.NewObject()
	}

	for _, op := range patch {
		pp := jsonval.ParentPointer(op.Path)
		node := buildNode(effective(before.Resolve(pp)), effective(after.Resolve(pp)))

		segments := jsonval.SplitPointer(pp)
		if len(segments) == 0 {
			// an operation on the document root
			segments = []string{""}
		}
		write(out, segments, node)
	}
	return out
}

// effective maps absent and falsy values to nil so both get the same filler
// treatment below.
func effective(v *jsonval.Value) *jsonval.Value {
	if v == nil || v.IsFalsy() {
		return nil
	}
	return v
}

func buildNode(before, after *jsonval.Value) *Node {
	if before == nil {
		before = fillerFor(after)
	}
	if after == nil {
		after = fillerFor(before)
	}

	node := &Node{Before: before, After: after}

	switch {
	case before.Kind() == jsonval.KindArray && after.Kind() == jsonval.KindArray:
		node.Added = missingFrom(after.Items(), before.Items())
		node.Removed = missingFrom(before.Items(), after.Items())
	case before.Kind() == jsonval.KindObject && after.Kind() == jsonval.KindObject:
		node.Added = missingKeys(after, before)
		node.Removed = missingKeys(before, after)
	}
	return node
}

// fillerFor picks the stand-in for a missing side: an empty container when
// the other side is a container, null otherwise.
func fillerFor(other *jsonval.Value) *jsonval.Value {
	switch other.Kind() {
	case jsonval.KindArray:
		return jsonval.NewArray()
	case jsonval.KindObject:
		return jsonval.NewObject()
	}
	return jsonval.Null()
}

// missingFrom returns the elements of items with no deep-equal counterpart
// in others, in items order.
func missingFrom(items, others []*jsonval.Value) []*jsonval.Value {
	var out []*jsonval.Value
	for _, item := range items {
		found := false
		for _, other := range others {
			if jsonval.Equal(item, other) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, item)
		}
	}
	return out
}

// missingKeys returns the keys of obj absent from other, in obj's document
// order, as string values.
func missingKeys(obj, other *jsonval.Value) []*jsonval.Value {
	var out []*jsonval.Value
	for _, k := range obj.Keys() {
		if _, ok := other.Field(k); !ok {
			out = append(out, jsonval.NewString(k))
		}
	}
	return out
}

// write places node at the segment path, creating intermediate branches as
// needed. Anything already occupying an intermediate slot that is not a
// branch is replaced by one.
func write(t Tree, segments []string, node *Node) {
	cur := t
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg].(Tree)
		if !ok {
			next = Tree{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segments[len(segments)-1]] = node
}
