package preview

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/registry"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func assemble(t *testing.T, in Input) *types.PreviewDocument {
	t.Helper()
	doc, err := NewAssembler(Options{HostLibraries: []string{}}).Assemble(in)
	require.NoError(t, err)
	return doc
}

func TestAssembleDefaultProject(t *testing.T) {
	files := []types.ProjectFile{
		file("index.html", `<!DOCTYPE html>
<html>
  <head>
    <title>My Page</title>
    <link rel="stylesheet" href="style.css" />
    <link rel="stylesheet" href="https://cdn.example.com/remote.css" />
  </head>
  <body>
    <button id="b">Click</button>
    <script type="module" src="script.js"></script>
    <script src="https://cdn.example.com/lib.js"></script>
  </body>
</html>`),
		file("style.css", "button { color: red; }"),
		file("script.js", "console.log('hi')"),
	}
	doc := assemble(t, Input{
		Files:   files,
		Modules: modulesOf(map[string]string{"script.js": "console.log('hi')"}),
		Externals: []registry.Package{
			{Name: "left-pad", Code: "module.exports = 1;"},
			{Name: "broken", Err: errors.New("404")},
		},
	})

	html := doc.HTML
	assert.Equal(t, "index.html", doc.Entry)
	assert.Equal(t, "My Page", doc.Title)
	assert.Equal(t, []string{"script.js"}, doc.Scripts)
	assert.Equal(t, []string{"left-pad"}, doc.Packages)
	assert.Len(t, doc.Hash, 64)
	assert.True(t, strings.HasPrefix(doc.BuildID, "build_"))

	// own references are gone, remote ones stay
	assert.NotContains(t, html, `href="style.css"`)
	assert.NotContains(t, html, `src="script.js"`)
	assert.Contains(t, html, `href="https://cdn.example.com/remote.css"`)
	assert.Contains(t, html, `src="https://cdn.example.com/lib.js"`)

	// console shim is first in head, then safety and styles; loader at the end of body
	headOpen := strings.Index(html, "<head>")
	console := strings.Index(html, ConsoleTag)
	safety := strings.Index(html, "Links are disabled in preview mode")
	style := strings.Index(html, "button { color: red; }")
	title := strings.Index(html, "<title>")
	headClose := strings.Index(html, "</head>")
	pkg := strings.Index(html, `slot["left-pad"] = module.exports`)
	loader := strings.Index(html, RuntimeGlobal)
	bodyClose := strings.LastIndex(html, "</body>")

	assert.True(t, headOpen < console && console < title, "console shim first in head")
	assert.True(t, title < safety && safety < style && style < headClose)
	assert.True(t, headClose < pkg && pkg < loader && loader < bodyClose)
	assert.NotContains(t, html, `"broken"`)
	assert.Contains(t, html, `var entries = ["script.js"];`)
}

func TestAssembleSkeletonFallback(t *testing.T) {
	doc := assemble(t, Input{
		Files:   []types.ProjectFile{file("src/index.jsx", ""), file("src/App.jsx", "")},
		Modules: modulesOf(map[string]string{"src/index.jsx": "", "src/App.jsx": ""}),
	})

	assert.Empty(t, doc.Entry)
	assert.Equal(t, "Preview", doc.Title)
	assert.Contains(t, doc.HTML, `<div id="root"></div>`)
	assert.Equal(t, []string{"src/index.jsx"}, doc.Scripts)
}

func TestAssembleFirstMarkupByPath(t *testing.T) {
	doc := assemble(t, Input{Files: []types.ProjectFile{
		file("pages/z.html", "<title>Z</title>"),
		file("pages/a.htm", "<title>A</title>"),
	}})
	assert.Equal(t, "pages/a.htm", doc.Entry)
	assert.Equal(t, "A", doc.Title)
}

func TestAssembleResolvesScriptsRelativeToMarkup(t *testing.T) {
	doc := assemble(t, Input{
		Files: []types.ProjectFile{
			file("site/page.html", `<html><head></head><body><script src="js/app.js?v=2"></script><script src="../shared.js"></script></body></html>`),
		},
		Modules: modulesOf(map[string]string{"site/js/app.js": "", "shared.js": "", "index.js": ""}),
	})
	assert.Equal(t, []string{"site/js/app.js", "shared.js"}, doc.Scripts)
}

func TestAssembleConcatenatesStylesInPathOrder(t *testing.T) {
	doc := assemble(t, Input{Files: []types.ProjectFile{
		file("index.html", "<html><head></head><body></body></html>"),
		file("z.css", ".z{}"),
		file("a/b.css", ".ab{}"),
		file("theme.scss", ".scss{}"),
		file("a.css", ".a{} </style><script>alert(1)</script>"),
	}})

	a := strings.Index(doc.HTML, ".a{}")
	ab := strings.Index(doc.HTML, ".ab{}")
	z := strings.Index(doc.HTML, ".z{}")
	assert.True(t, a < ab && ab < z)
	assert.NotContains(t, doc.HTML, ".scss{}")
	assert.Equal(t, 1, strings.Count(strings.ToLower(doc.HTML), "</style>"))
}

func TestAssembleSynthesizesMissingTags(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"fragment", `<h1>Hello</h1>`},
		{"html without head or body", `<html lang="en"><h1>Hello</h1></html>`},
		{"doctype only", "<!DOCTYPE html>\n<h1>Hello</h1>"},
		{"upper case tags", `<HTML><HEAD><TITLE>T</TITLE></HEAD><BODY><h1>Hello</h1></BODY></HTML>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := assemble(t, Input{
				Files:   []types.ProjectFile{file("index.html", tt.markup)},
				Modules: modulesOf(map[string]string{"index.js": ""}),
			})
			html := doc.HTML
			lower := strings.ToLower(html)

			assert.Contains(t, html, "<h1>Hello</h1>")
			assert.Equal(t, 1, strings.Count(lower, "</head>"))
			console := strings.Index(html, ConsoleTag)
			loader := strings.Index(html, RuntimeGlobal)
			assert.True(t, console >= 0 && console < strings.Index(lower, "</head>"))
			assert.True(t, loader > strings.Index(lower, "</head>"))
			if i := strings.LastIndex(lower, "</html>"); i >= 0 {
				assert.Less(t, loader, i)
			}
		})
	}
}

func TestAssembleInjectsAtLastBoundary(t *testing.T) {
	markup := `<html><head></head><body><pre>&lt;/body&gt; </body> inside text</pre></body></html>`
	doc := assemble(t, Input{Files: []types.ProjectFile{file("index.html", markup)}})
	loader := strings.Index(doc.HTML, RuntimeGlobal)
	assert.Greater(t, loader, strings.Index(doc.HTML, "inside text"))
}

func TestAssembleRelayAndHostLibraries(t *testing.T) {
	doc, err := NewAssembler(Options{}).Assemble(Input{
		Files:    []types.ProjectFile{file("index.html", "<html><head></head><body></body></html>")},
		RelayURL: "/projects/p/console",
	})
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, `window.`+RelayGlobal+` = "/projects/p/console";`)
	for _, lib := range DefaultHostLibraries {
		assert.Contains(t, doc.HTML, `src="`+lib+`"`)
	}
}

func TestAssembleHashIsStableForSameMarkup(t *testing.T) {
	in := Input{Files: []types.ProjectFile{file("index.html", "<p>x</p>")}}
	a := assemble(t, in)
	b := assemble(t, in)
	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.BuildID, b.BuildID)
}

func TestStripLocalRefsPreservesBytes(t *testing.T) {
	markup := "<!-- keep -->\n<DIV Class=x   data-a='1'>text &amp; more</DIV>\n<link rel=\"icon\" href=\"fav.ico\">\n<script>var a = '<b>';</script>"
	out, refs := stripLocalRefs(markup)
	assert.Equal(t, markup, out)
	assert.Empty(t, refs)
}
