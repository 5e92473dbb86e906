package argv

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Tag identifies a built-in handler. Dispatch decisions (boolean presence,
// negative number lookahead) read the tag, never the function value.
type Tag int

const (
	TagCustom Tag = iota
	TagBoolean
	TagString
	TagNumber
	TagBigInt
)

// Raw is the textual value handed to a handler.
//
// Whole is set when the value came from "--name:rest" without '=' and must
// be treated as a single item rather than a key=value pair.
type Raw struct {
	Text  string
	Whole bool
}

// CoerceFunc converts a raw value for the canonical flag name. prev is the
// value currently stored for that name, or nil on first occurrence.
type CoerceFunc func(raw Raw, name string, prev any) any

// Handler is a tagged coercion.
type Handler struct {
	tag Tag
	fn  CoerceFunc
}

// Func wraps fn as a custom handler. Custom handlers always consume a value.
func Func(fn CoerceFunc) Handler {
	return Handler{tag: TagCustom, fn: fn}
}

// Tag reports the handler tag.
func (h Handler) Tag() Tag { return h.tag }

// Coerce invokes the handler.
func (h Handler) Coerce(raw Raw, name string, prev any) any {
	return h.fn(raw, name, prev)
}

// numeric reports whether a leading-dash numeric token may be consumed as a value.
func (h Handler) numeric() bool {
	return h.tag == TagNumber || h.tag == TagBigInt
}

var (
	// Boolean marks a presence flag; it never consumes the following token.
	Boolean = Handler{tag: TagBoolean, fn: func(Raw, string, any) any { return true }}

	// String stores the raw text.
	String = Handler{tag: TagString, fn: func(raw Raw, _ string, _ any) any { return raw.Text }}

	// Number stores a float64. Text that is not a number yields NaN, empty text yields 0.
	Number = Handler{tag: TagNumber, fn: coerceNumber}

	// BigInt stores a *big.Int, or nil when the text is not an integer.
	BigInt = Handler{tag: TagBigInt, fn: coerceBigInt}
)

// decimalNumber is the decimal literal syntax of a command line number:
// no digit separators, no inf or nan spellings.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func coerceNumber(raw Raw, _ string, _ any) any {
	text := strings.TrimSpace(raw.Text)
	switch text {
	case "":
		return float64(0)
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	// hex, octal and binary literals, unsigned only
	if len(text) > 2 && text[0] == '0' && strings.ContainsRune("xXoObB", rune(text[1])) {
		if strings.ContainsRune(text, '_') {
			return math.NaN()
		}
		if u, err := strconv.ParseUint(text, 0, 64); err == nil {
			return float64(u)
		}
		return math.NaN()
	}
	if !decimalNumber.MatchString(text) {
		return math.NaN()
	}
	// out of range literals come back as +-Inf or 0
	f, _ := strconv.ParseFloat(text, 64)
	return f
}

func coerceBigInt(raw Raw, _ string, _ any) any {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return new(big.Int)
	}
	n, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return nil
	}
	return n
}

// OneOf returns a custom handler storing the raw text when it is one of
// allowed, and nil otherwise.
func OneOf(allowed ...string) Handler {
	return Func(func(raw Raw, _ string, _ any) any {
		for _, a := range allowed {
			if raw.Text == a {
				return raw.Text
			}
		}
		return nil
	})
}

// passThrough handles flags that are not in the spec.
//
//	--inject:./a.ts --inject:./b.ts  -> [./a.ts ./b.ts]
//	--loader:.css=text               -> {.css: text}
//	--name=value                     -> value
func passThrough(raw Raw, _ string, prev any) any {
	if raw.Whole {
		items, _ := prev.([]any)
		out := make([]any, 0, len(items)+1)
		out = append(out, items...)
		return append(out, raw.Text)
	}
	if key, val, ok := strings.Cut(raw.Text, "="); ok {
		old, _ := prev.(map[string]string)
		out := make(map[string]string, len(old)+1)
		for k, v := range old {
			out[k] = v
		}
		out[key] = val
		return out
	}
	return raw.Text
}

var defaultHandler = Handler{tag: TagCustom, fn: passThrough}
