// Package argv turns a raw argument vector into a typed Result according to a
// declarative Spec.
//
// A Spec maps flag keys ("-h", "--help") to one of three entry kinds: an alias
// of another key, a scalar handler, or an array handler whose values
// accumulate across repeated occurrences. Flags absent from the Spec are never
// an error; they fall through to a permissive default handler so options
// destined for a wrapped tool pass straight through.
package argv

import (
	"sort"
	"strings"
)

// Kind is the closed set of entry kinds a Spec may hold.
type Kind int

const (
	// KindAlias redirects a key to its canonical key.
	KindAlias Kind = iota
	// KindScalar stores the latest handler result.
	KindScalar
	// KindArray appends every handler result to an ordered sequence.
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindAlias:
		return "alias"
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Entry is a single Spec value. Build entries with Alias, Scalar or Array.
type Entry struct {
	kind    Kind
	target  string
	handler Handler
}

// Alias returns an entry resolving to target, e.g. Alias("--help") for "-h".
func Alias(target string) Entry {
	return Entry{kind: KindAlias, target: target}
}

// Scalar returns an entry whose value is the result of the last invocation of h.
func Scalar(h Handler) Entry {
	return Entry{kind: KindScalar, handler: h}
}

// Array returns an entry collecting every invocation of h, first to last.
func Array(h Handler) Entry {
	return Entry{kind: KindArray, handler: h}
}

// Kind reports the entry kind.
func (e Entry) Kind() Kind { return e.kind }

// Target is the canonical key of an alias entry.
func (e Entry) Target() string { return e.target }

// Handler is the coercion of a scalar or array entry.
func (e Entry) Handler() Handler { return e.handler }

// boolean reports whether the entry never consumes a value.
func (e Entry) boolean() bool {
	return e.kind != KindAlias && e.handler.tag == TagBoolean
}

// Spec maps flag keys to entries. Every key must start with '-'.
type Spec map[string]Entry

// Keys returns the spec keys in sorted order.
func (s Spec) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the spec without parsing anything.
func (s Spec) Validate() error {
	for _, key := range s.Keys() {
		if !strings.HasPrefix(key, "-") {
			return newMalformedSpec(key, "argument key must start with '-': "+key)
		}
		e := s[key]
		if e.kind != KindAlias && e.handler.fn == nil {
			return newMalformedSpec(key, "argument handler is missing: "+key)
		}
	}
	return nil
}

// Merge returns a new spec holding the entries of s overridden by other.
func (s Spec) Merge(other Spec) Spec {
	out := make(Spec, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
