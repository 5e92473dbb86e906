package argv

import (
	"regexp"
	"strings"
)

// negativeNumber is the shape a leading-dash token must have to be taken as
// the value of a Number or BigInt flag: optional sign, digits, optional
// fraction with at least one digit.
var negativeNumber = regexp.MustCompile(`^-?\d*(\.\d+)?$`)

// route is the indexed form of a non-alias spec entry.
type route struct {
	handler Handler
	array   bool
	boolean bool
}

// Parse parses args against spec. The returned Result is built fresh for each
// call; Parse keeps no state between calls and is safe for concurrent use.
//
// Errors are always *ParseError, matching ErrMalformedSpec or
// ErrOptionRequiresArgument.
func Parse(args []string, spec Spec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	aliases := make(map[string]string)
	routes := make(map[string]route, len(spec))
	for key, e := range spec {
		if e.kind == KindAlias {
			aliases[key] = e.target
			continue
		}
		routes[key] = route{handler: e.handler, array: e.kind == KindArray, boolean: e.boolean()}
	}

	p := &parser{
		args:    args,
		aliases: aliases,
		routes:  routes,
		result:  newResult(),
	}
	for p.pos < len(args) {
		if err := p.parseArgument(args[p.pos]); err != nil {
			return Result{}, err
		}
		p.pos++
	}
	return p.result, nil
}

type parser struct {
	args    []string
	pos     int
	aliases map[string]string
	routes  map[string]route
	result  Result
}

func (p *parser) parseArgument(arg string) error {
	if len(arg) < 2 || arg[0] != '-' {
		p.result.positionals = append(p.result.positionals, arg)
		return nil
	}

	// "-rf" -> "-r", "-f"
	group := []string{arg}
	if !strings.HasPrefix(arg, "--") && len(arg) > 2 {
		group = group[:0]
		for _, ch := range arg[1:] {
			group = append(group, "-"+string(ch))
		}
	}

	for j, flag := range group {
		if err := p.parseFlag(flag, j == len(group)-1); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseFlag(flag string, lastInGroup bool) error {
	name, value, hasValue := splitFlag(flag)
	canonical := name
	if target, ok := p.aliases[name]; ok {
		canonical = target
	}

	r, known := p.routes[canonical]
	if !known {
		r = route{handler: defaultHandler, boolean: !hasValue}
	}

	if !r.boolean && !lastInGroup {
		return newBundledValue(name, canonical)
	}

	switch {
	case r.boolean:
		p.store(canonical, r, Raw{Text: "true"})
	case hasValue:
		p.store(canonical, r, value)
	default:
		next, ok := p.peek()
		if !ok || (len(next) > 1 && next[0] == '-' && !(r.handler.numeric() && negativeNumber.MatchString(next))) {
			return newMissingValue(name, canonical)
		}
		p.pos++
		p.store(canonical, r, Raw{Text: next})
	}
	return nil
}

func (p *parser) peek() (string, bool) {
	if p.pos+1 >= len(p.args) {
		return "", false
	}
	return p.args[p.pos+1], true
}

// store folds the handler result into the value held for key.
func (p *parser) store(key string, r route, raw Raw) {
	prev := p.result.values[key]
	v := r.handler.Coerce(raw, key, prev)
	if r.array {
		items, _ := prev.([]any)
		next := make([]any, len(items), len(items)+1)
		copy(next, items)
		v = append(next, v)
	}
	p.result.values[key] = v
}

// splitFlag separates a flag token into its name and inline value.
//
//	--loader:.css=text  -> "--loader", ".css=text"
//	--inject:./a.ts     -> "--inject", whole "./a.ts"
//	--name=value        -> "--name", "value"
//	-n                  -> "-n", none
func splitFlag(flag string) (string, Raw, bool) {
	if !strings.HasPrefix(flag, "--") {
		return flag, Raw{}, false
	}
	if name, rest, ok := strings.Cut(flag, ":"); ok {
		return name, Raw{Text: rest, Whole: !strings.Contains(rest, "=")}, true
	}
	if name, rest, ok := strings.Cut(flag, "="); ok {
		return name, Raw{Text: rest}, true
	}
	return flag, Raw{}, false
}
