package jsonval

import (
	"strconv"
	"strings"
)

// SplitPointer breaks an RFC 6901 pointer into its unescaped segments.
// The empty pointer addresses the document root and yields no segments.
func SplitPointer(ptr string) []string {
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")[1:]
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

// ParentPointer returns the pointer of the segment's container. A pointer
// with at most one segment is its own parent, so a change to a top-level
// member still surfaces on a structure the consumer can inspect.
func ParentPointer(ptr string) string {
	if strings.Count(ptr, "/") <= 1 {
		return ptr
	}
	return ptr[:strings.LastIndex(ptr, "/")]
}

// Resolve walks the pointer through the value. It returns nil when any
// segment is missing, out of range, or applied to a scalar; callers treat
// that as null rather than an error.
func (v *Value) Resolve(ptr string) *Value {
	cur := v
	for _, seg := range SplitPointer(ptr) {
		if cur == nil {
			return nil
		}
		switch cur.Kind() {
		case KindObject:
			member, ok := cur.Field(seg)
			if !ok {
				return nil
			}
			cur = member
		case KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.arr) {
				return nil
			}
			cur = cur.arr[idx]
		default:
			return nil
		}
	}
	return cur
}
