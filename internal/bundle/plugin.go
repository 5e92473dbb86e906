package bundle

import (
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const externalPluginName = "esw-external-mark"

// externalMatcher matches import paths naming one of the packages or a file
// inside it: "react", "react/jsx-runtime", but not "react-dom".
type externalMatcher struct {
	re *regexp.Regexp
}

func newExternalMatcher(names []string) *externalMatcher {
	if len(names) == 0 {
		return nil
	}
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	return &externalMatcher{
		re: regexp.MustCompile(`^(?:` + strings.Join(quoted, "|") + `)(?:$|/|\\)`),
	}
}

func (m *externalMatcher) Match(path string) bool {
	return m != nil && m.re.MatchString(path)
}

// ExternalPlugin marks imports of the named packages as external so they are
// left to the runtime module resolver.
func ExternalPlugin(names []string) api.Plugin {
	matcher := newExternalMatcher(names)
	return api.Plugin{
		Name: externalPluginName,
		Setup: func(build api.PluginBuild) {
			if matcher == nil {
				return
			}
			build.OnResolve(api.OnResolveOptions{Filter: ".*"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if matcher.Match(args.Path) {
						return api.OnResolveResult{Path: args.Path, External: true}, nil
					}
					// empty result hands the path to the next resolver
					return api.OnResolveResult{}, nil
				})
		},
	}
}
