package preview

import (
	"sort"
	"strings"
	"time"

	"github.com/GriffinCanCode/playground/internal/registry"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/paths"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// Options configures an Assembler
type Options struct {
	// HostLibraries are script URLs loaded before any package or module,
	// normally the React and ReactDOM UMD builds
	HostLibraries []string
}

// DefaultHostLibraries are the React 18 UMD builds the loader maps react
// and react-dom to
var DefaultHostLibraries = []string{
	"https://unpkg.com/react@18/umd/react.development.js",
	"https://unpkg.com/react-dom@18/umd/react-dom.development.js",
}

// Input is one build's worth of material
type Input struct {
	Files     []types.ProjectFile
	Modules   map[string]types.CompiledModule
	Externals []registry.Package
	// RelayURL, when set, is where an unframed document beacons console
	// messages
	RelayURL string
}

// Assembler composes PreviewDocuments
type Assembler struct {
	opts   Options
	hasher *utils.Hasher
}

// NewAssembler creates an assembler
func NewAssembler(opts Options) *Assembler {
	if opts.HostLibraries == nil {
		opts.HostLibraries = DefaultHostLibraries
	}
	return &Assembler{opts: opts, hasher: utils.DefaultHasher()}
}

// Assemble builds the document for one snapshot
func (a *Assembler) Assemble(in Input) (*types.PreviewDocument, error) {
	entryPath, markup := markupEntry(in.Files)
	stripped, refs := stripLocalRefs(markup)

	entries := scriptEntries(entryPath, refs, in.Modules)
	if len(entries) == 0 {
		if e := SelectEntry(in.Modules); e != "" {
			entries = []string{e}
		}
	}

	var loaded []string
	for _, pkg := range in.Externals {
		if pkg.OK() {
			loaded = append(loaded, pkg.Name)
		}
	}

	var first strings.Builder
	first.WriteString("\n<script>\n")
	if in.RelayURL != "" {
		first.WriteString("window." + RelayGlobal + " = " + jsString(in.RelayURL) + ";\n")
	}
	first.WriteString(consoleShim)
	first.WriteString("</script>\n")

	var head strings.Builder
	head.WriteString("<script>\n" + safetyShim + "</script>\n")
	if css := styles(in.Files); css != "" {
		head.WriteString("<style>\n" + escapeStyle(css) + "\n</style>\n")
	}

	var body strings.Builder
	for _, src := range a.opts.HostLibraries {
		body.WriteString(`<script crossorigin src=` + attrQuote(src) + `></script>` + "\n")
	}
	for _, pkg := range in.Externals {
		if pkg.OK() {
			body.WriteString("<script>\n" + packageShim(pkg) + "</script>\n")
		}
	}
	body.WriteString("<script>\n")
	body.WriteString(GenerateLoader(LoaderInput{
		Modules:   in.Modules,
		Entries:   entries,
		Externals: loaded,
	}))
	body.WriteString("</script>\n")

	out := inject(stripped, first.String(), head.String(), body.String())

	return &types.PreviewDocument{
		BuildID:   id.NewBuildID().String(),
		HTML:      out,
		Entry:     entryPath,
		Scripts:   entries,
		Packages:  loaded,
		Title:     titleOf(markup),
		Hash:      a.hasher.HashString(out),
		CreatedAt: time.Now(),
	}, nil
}

// markupEntry returns index.html, else the first markup file by path, else
// the generated skeleton with an empty path
func markupEntry(files []types.ProjectFile) (string, string) {
	var markup []types.ProjectFile
	for _, f := range files {
		if f.Path == "index.html" {
			return f.Path, f.Content
		}
		if types.KindOf(f.Path) == types.KindMarkup {
			markup = append(markup, f)
		}
	}
	if len(markup) == 0 {
		return "", skeleton
	}
	sort.Slice(markup, func(i, j int) bool { return markup[i].Path < markup[j].Path })
	return markup[0].Path, markup[0].Content
}

// scriptEntries maps the markup's own script references onto compiled
// modules, relative to the markup file
func scriptEntries(markupPath string, refs []string, modules map[string]types.CompiledModule) []string {
	var out []string
	seen := map[string]bool{}
	base := paths.Dir(markupPath)
	for _, ref := range refs {
		if i := strings.IndexAny(ref, "?#"); i >= 0 {
			ref = ref[:i]
		}
		target := ref
		if !strings.HasPrefix(ref, "/") && base != "" {
			target = base + "/" + ref
		}
		norm, err := paths.Normalize(target)
		if err != nil {
			continue
		}
		if _, ok := modules[norm]; ok && !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	return out
}

// styles concatenates every .css file in path order
func styles(files []types.ProjectFile) string {
	css := types.FilterKind(files, types.KindStyle)
	sort.SliceStable(css, func(i, j int) bool { return css[i].Path < css[j].Path })
	parts := make([]string, 0, len(css))
	for _, f := range css {
		parts = append(parts, f.Content)
	}
	return strings.Join(parts, "\n\n")
}

// escapeStyle keeps a style sheet from closing its <style> element
func escapeStyle(css string) string {
	return styleClose.ReplaceAllString(css, `<\/$1`)
}

func attrQuote(s string) string {
	return `"` + strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;").Replace(s) + `"`
}
