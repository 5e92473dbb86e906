package argv

import (
	"fmt"
	"math/big"
	"sort"
)

// Result holds the positional tokens and one value per canonical key that
// matched at least once. It is read-only once returned by Parse.
type Result struct {
	positionals []string
	values      map[string]any
}

func newResult() Result {
	return Result{positionals: []string{}, values: make(map[string]any)}
}

// Positionals returns a copy of the bare tokens, in order.
func (r Result) Positionals() []string {
	out := make([]string, len(r.positionals))
	copy(out, r.positionals)
	return out
}

// Arg returns the i-th positional token, or "" when out of range.
func (r Result) Arg(i int) string {
	if i < 0 || i >= len(r.positionals) {
		return ""
	}
	return r.positionals[i]
}

// NArg is the number of positional tokens.
func (r Result) NArg() int { return len(r.positionals) }

// Keys returns the set keys in sorted order.
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key was set. A handler returning nil still counts.
func (r Result) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Get returns the raw stored value.
func (r Result) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Values returns a shallow copy of every stored value.
func (r Result) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Bool is true when key holds true.
func (r Result) Bool(key string) bool {
	b, _ := r.values[key].(bool)
	return b
}

// String returns the value of key when it is a string.
func (r Result) String(key string) (string, bool) {
	s, ok := r.values[key].(string)
	return s, ok
}

// Float returns the value of key when it is a number.
func (r Result) Float(key string) (float64, bool) {
	f, ok := r.values[key].(float64)
	return f, ok
}

// BigInt returns the value of key when it is a big integer.
func (r Result) BigInt(key string) (*big.Int, bool) {
	n, ok := r.values[key].(*big.Int)
	return n, ok && n != nil
}

// Strings returns a sequence value as strings. Non-string items are formatted
// with %v and nil items are skipped.
func (r Result) Strings(key string) []string {
	items, ok := r.values[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// Map returns a copy of a key=value mapping value.
func (r Result) Map(key string) map[string]string {
	m, ok := r.values[key].(map[string]string)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
