// Package bag provides the ordered, open-ended key-value bags used for session
// context and capability parameters. Keys are conventional, not enforced.
package bag

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Bag is an insertion ordered string-keyed map. It marshals to a JSON object
// with keys in insertion order.
type Bag = orderedmap.OrderedMap[string, any]

// Pair is a single key-value entry of a Bag.
type Pair = orderedmap.Pair[string, any]

// New creates a bag holding pairs in the given order.
func New(pairs ...Pair) *Bag {
	b := orderedmap.New[string, any]()
	for _, p := range pairs {
		b.Set(p.Key, p.Value)
	}
	return b
}

// KV is shorthand for building a Pair.
func KV(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// FromMap builds a bag from a plain map. Go maps are unordered, so the
// resulting key order is unspecified.
func FromMap(m map[string]any) *Bag {
	b := orderedmap.New[string, any]()
	for k, v := range m {
		b.Set(k, v)
	}
	return b
}

// Clone returns a shallow copy of b. A nil bag clones to an empty bag.
func Clone(b *Bag) *Bag {
	out := orderedmap.New[string, any]()
	if b == nil {
		return out
	}
	for p := b.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, p.Value)
	}
	return out
}

// Merge shallow-merges patch into dst. Existing keys keep their position and
// take the patch value; new keys are appended in patch order.
func Merge(dst, patch *Bag) {
	if dst == nil || patch == nil {
		return
	}
	for p := patch.Oldest(); p != nil; p = p.Next() {
		dst.Set(p.Key, p.Value)
	}
}

// Keys returns the keys of b in order.
func Keys(b *Bag) []string {
	if b == nil {
		return nil
	}
	keys := make([]string, 0, b.Len())
	for p := b.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// ToMap flattens b into a plain map.
func ToMap(b *Bag) map[string]any {
	out := make(map[string]any)
	if b == nil {
		return out
	}
	for p := b.Oldest(); p != nil; p = p.Next() {
		out[p.Key] = p.Value
	}
	return out
}

// String returns the value at key formatted as a string, or "" when absent.
func String(b *Bag, key string) string {
	if b == nil {
		return ""
	}
	v, ok := b.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Strings returns the value at key as a string slice. Both []string and the
// []any produced by JSON decoding are accepted; non-string elements are
// formatted with fmt.
func Strings(b *Bag, key string) []string {
	if b == nil {
		return nil
	}
	v, ok := b.Get(key)
	if !ok {
		return nil
	}
	switch vals := v.(type) {
	case []string:
		out := make([]string, len(vals))
		copy(out, vals)
		return out
	case []any:
		out := make([]string, 0, len(vals))
		for _, e := range vals {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case string:
		return []string{vals}
	}
	return nil
}
