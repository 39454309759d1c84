// Package jsonvalue models the JSON-like trees that flow through the compiler.
// Values are plain Go values (string, json.Number, float64, int64, bool, nil,
// []any) plus *Object, an insertion-ordered mapping. Preserving key order
// matters: block templates are synthesized in document order and resolved
// schema documents are written back in the order they were authored.
package jsonvalue

import (
	"sort"
	"strconv"
)

// RootPath is the path reported for the document root.
const RootPath = "$"

// Object is an insertion-ordered string-keyed mapping. The zero value is not
// usable; construct objects with NewObject.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object with room for size entries.
func NewObject(size ...int) *Object {
	n := 0
	if len(size) > 0 && size[0] > 0 {
		n = size[0]
	}
	return &Object{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set assigns value to key. New keys are appended; existing keys keep their
// position and receive the new value.
func (o *Object) Set(key string, value any) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	value, ok := o.values[key]
	return value, ok
}

// String returns the value under key when it is a string.
func (o *Object) String(key string) (string, bool) {
	value, ok := o.Get(key)
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Len reports the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, value any) bool) {
	if o == nil {
		return
	}
	for _, key := range o.keys {
		if !fn(key, o.values[key]) {
			return
		}
	}
}

// Equal reports whether both objects hold the same keys, in the same order,
// with equal values.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o.Len() == other.Len()
	}
	if len(o.keys) != len(other.keys) {
		return false
	}
	for i, key := range o.keys {
		if other.keys[i] != key {
			return false
		}
		if !Equal(o.values[key], other.values[key]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the object preserving key order. Undefined values are
// omitted.
func (o *Object) MarshalJSON() ([]byte, error) {
	return Marshal(o)
}

type undefined struct{}

// Undefined stands in for a value that is absent, such as an unresolved
// constant in permissive mode. It keeps the key in its object so resolution
// never changes key sets; encoders drop it from objects and write null inside
// arrays.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Clone deep-copies a value tree so callers can splice shared subtrees
// without aliasing.
func Clone(v any) any {
	switch typed := v.(type) {
	case *Object:
		if typed == nil {
			return typed
		}
		out := NewObject(len(typed.keys))
		for _, key := range typed.keys {
			out.Set(key, Clone(typed.values[key]))
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Equal compares two value trees structurally. Numbers compare by their
// canonical decimal form so json.Number("1") equals float64(1).
func Equal(a, b any) bool {
	switch left := a.(type) {
	case *Object:
		right, ok := b.(*Object)
		return ok && left.Equal(right)
	case []any:
		right, ok := b.([]any)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !Equal(left[i], right[i]) {
				return false
			}
		}
		return true
	case undefined:
		return IsUndefined(b)
	}
	if ln, ok := numberString(a); ok {
		rn, ok := numberString(b)
		return ok && ln == rn
	}
	return a == b
}

// FromGo converts plain Go values (map[string]any, []any, ints, floats) into
// the canonical model. Map keys are sorted because Go maps carry no order.
func FromGo(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := NewObject(len(keys))
		for _, key := range keys {
			out.Set(key, FromGo(typed[key]))
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = FromGo(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = FromGo(item)
		}
		return out
	case int:
		return int64(typed)
	case int32:
		return int64(typed)
	case float32:
		return float64(typed)
	default:
		return v
	}
}

// JoinKey extends a JSON path with an object key.
func JoinKey(path, key string) string {
	if path == "" {
		path = RootPath
	}
	return path + "." + key
}

// JoinIndex extends a JSON path with an array index.
func JoinIndex(path string, index int) string {
	if path == "" {
		path = RootPath
	}
	return path + "[" + strconv.Itoa(index) + "]"
}
