package preview

import (
	"regexp"
	"strings"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

var (
	// import x from 'a' / import 'a' / export { y } from 'a'
	staticImport = regexp.MustCompile(`(?m)(?:^|[^\w$.])(?:import|export)\s*(?:[\w$*{}\s,]+?\s*from\s*)?['"]([^'"\n]+)['"]`)
	// require('a') / import('a')
	dynamicImport = regexp.MustCompile(`(?:^|[^\w$.])(?:require|import)\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)
)

// HostProvided names are supplied by the host page and never fetched
var HostProvided = map[string]bool{
	"react":            true,
	"react-dom":        true,
	"react-dom/client": true,
}

// Scan returns the unique bare specifiers referenced by script files, in
// order of first occurrence
func Scan(files []types.ProjectFile) []string {
	seen := make(map[string]bool)
	var out []string

	for _, f := range files {
		if types.KindOf(f.Path) != types.KindScript {
			continue
		}
		for _, spec := range specifiers(f.Content) {
			if !IsBare(spec) || HostProvided[spec] || seen[spec] {
				continue
			}
			seen[spec] = true
			out = append(out, spec)
		}
	}
	return out
}

// specifiers returns every quoted specifier in source order
func specifiers(src string) []string {
	type hit struct {
		at   int
		spec string
	}
	var hits []hit
	for _, re := range []*regexp.Regexp{staticImport, dynamicImport} {
		for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
			hits = append(hits, hit{at: m[2], spec: src[m[2]:m[3]]})
		}
	}
	// merge the two streams by position so discovery order follows the source
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].at < hits[j-1].at; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.spec
	}
	return out
}

// IsBare reports whether spec names a package rather than a file
func IsBare(spec string) bool {
	if spec == "" || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return false
	}
	return !strings.Contains(spec, "://")
}
