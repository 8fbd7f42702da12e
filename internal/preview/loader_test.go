package preview

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

type loaderRun struct {
	vm     *goja.Runtime
	errors []string
}

func (r *loaderRun) get(name string) interface{} {
	v := r.vm.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return nil
	}
	return v.Export()
}

func modulesOf(src map[string]string) map[string]types.CompiledModule {
	out := make(map[string]types.CompiledModule, len(src))
	for p, code := range src {
		out[p] = types.CompiledModule{Path: p, Code: code}
	}
	return out
}

// runLoader executes a generated loader in a bare goja runtime whose global
// object doubles as window
func runLoader(t *testing.T, in LoaderInput, setup string) *loaderRun {
	t.Helper()
	run := &loaderRun{vm: goja.New()}

	console := run.vm.NewObject()
	require.NoError(t, console.Set("error", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		run.errors = append(run.errors, strings.Join(parts, " "))
		return goja.Undefined()
	}))
	require.NoError(t, run.vm.Set("console", console))
	require.NoError(t, run.vm.Set("window", run.vm.GlobalObject()))

	if setup != "" {
		_, err := run.vm.RunString(setup)
		require.NoError(t, err)
	}
	_, err := run.vm.RunString(GenerateLoader(in))
	require.NoError(t, err)
	return run
}

func TestResolve(t *testing.T) {
	run := runLoader(t, LoaderInput{Modules: modulesOf(map[string]string{
		"a/b/c.js":     "",
		"a/x.js":       "",
		"a/b/y.js":     "",
		"lib/index.ts": "",
		"both.js":      "",
		"both.ts":      "",
		"x.jsx":        "",
		"x.ts":         "",
	})}, "")

	tests := []struct {
		from, spec string
		want       interface{}
	}{
		{"a/b/c.js", "../x", "a/x.js"},
		{"a/b/c.js", "./y", "a/b/y.js"},
		{"a/b/c.js", "./y.js", "a/b/y.js"},
		{"a/b/c.js", "../../lib", "lib/index.ts"},
		{"a/b/c.js", "/both", "both.js"},
		{"a/b/c.js", "/x", "x.ts"},
		{"a/b/c.js", ".//./y", "a/b/y.js"},
		{"a/b/c.js", "./missing", nil},
	}
	for _, tt := range tests {
		v, err := run.vm.RunString(`__playgroundRuntime.resolve(` + jsString(tt.from) + `, ` + jsString(tt.spec) + `)`)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.Export(), "%s from %s", tt.spec, tt.from)
	}
}

func TestRequireCachesAndSurvivesCycles(t *testing.T) {
	run := runLoader(t, LoaderInput{
		Modules: modulesOf(map[string]string{
			"index.js": `
var a = require('./a');
window.same = a === require('./a.js');
window.aDone = a.done;
window.bSawPartialA = require('./b').sawPartialA;`,
			"a.js": `
window.aRuns = (window.aRuns || 0) + 1;
exports.early = true;
require('./b');
exports.done = true;`,
			"b.js": `
window.bRuns = (window.bRuns || 0) + 1;
var a = require('./a');
exports.sawPartialA = a.early === true && a.done === undefined;`,
		}),
		Entries: []string{"index.js"},
	}, "")

	assert.Empty(t, run.errors)
	assert.Equal(t, int64(1), run.get("aRuns"))
	assert.Equal(t, int64(1), run.get("bRuns"))
	assert.Equal(t, true, run.get("same"))
	assert.Equal(t, true, run.get("aDone"))
	assert.Equal(t, true, run.get("bSawPartialA"))
}

func TestRequireExternals(t *testing.T) {
	run := runLoader(t, LoaderInput{
		Modules: modulesOf(map[string]string{
			"index.js": `
window.lp = require('left-pad').v;
try { require('unlisted'); } catch (e) { window.unlisted = e.name; }
window.css = JSON.stringify(require('./style.css'));
window.scss = JSON.stringify(require('../theme.SCSS'));
window.react = require('react') === window.React;`,
		}),
		Entries:   []string{"index.js"},
		Externals: []string{"left-pad"},
	}, `
window.React = { createElement: function () {} };
window.__PLAYGROUND_EXTERNALS__ = { "left-pad": { v: 1 }, "unlisted": { v: 2 } };`)

	assert.Empty(t, run.errors)
	assert.Equal(t, int64(1), run.get("lp"))
	assert.Equal(t, "ModuleNotFoundError", run.get("unlisted"))
	assert.Equal(t, "{}", run.get("css"))
	assert.Equal(t, "{}", run.get("scss"))
	assert.Equal(t, true, run.get("react"))
}

func TestModuleNotFoundIsLogged(t *testing.T) {
	run := runLoader(t, LoaderInput{
		Modules: modulesOf(map[string]string{
			"index.js": "window.before = true; require('./nope'); window.after = true;",
		}),
		Entries: []string{"index.js"},
	}, "")

	require.Len(t, run.errors, 1)
	assert.Contains(t, run.errors[0], "Cannot find module './nope' from 'index.js'")
	assert.Equal(t, true, run.get("before"))
	assert.Nil(t, run.get("after"))
}

func TestEntriesRunOnceEach(t *testing.T) {
	run := runLoader(t, LoaderInput{
		Modules: modulesOf(map[string]string{
			"a.js": "window.order = (window.order || '') + 'a'; throw new Error('a failed');",
			"b.js": "window.order = (window.order || '') + 'b'; window.partial = require('./a');",
		}),
		Entries: []string{"a.js", "b.js", "missing.js"},
	}, "")

	assert.Equal(t, "ab", run.get("order"))
	assert.NotNil(t, run.get("partial"))
	require.Len(t, run.errors, 2)
	assert.Contains(t, run.errors[0], "a failed")
	assert.Contains(t, run.errors[1], "Cannot find module 'missing.js'")
}

func TestThrowingModuleRunsOnce(t *testing.T) {
	run := runLoader(t, LoaderInput{
		Modules: modulesOf(map[string]string{
			"bad.js": "window.badRuns = (window.badRuns || 0) + 1; throw new Error('bad');",
			"one.js": "require('./bad');",
			"two.js": "require('./bad'); window.twoDone = true;",
		}),
		Entries: []string{"one.js", "two.js"},
	}, "")

	assert.Equal(t, int64(1), run.get("badRuns"))
	assert.Equal(t, true, run.get("twoDone"))
	require.Len(t, run.errors, 1)
	assert.Contains(t, run.errors[0], "bad")
}

func TestNoEntriesRegistersOnly(t *testing.T) {
	run := runLoader(t, LoaderInput{
		Modules: modulesOf(map[string]string{"index.js": "window.ran = true;"}),
	}, "")
	assert.Nil(t, run.get("ran"))

	_, err := run.vm.RunString(`__playgroundRuntime.require('./index.js')`)
	require.NoError(t, err)
	assert.Equal(t, true, run.get("ran"))
}

func TestLoaderEscapesScriptClose(t *testing.T) {
	in := LoaderInput{
		Modules: modulesOf(map[string]string{
			"index.js":     `window.s = "</script><!-- x"; window.r = /<!--/u.test("a <!-- b");`,
			"</SCRIPT>.js": "",
		}),
		Entries: []string{"index.js"},
	}
	out := GenerateLoader(in)
	assert.NotContains(t, strings.ToLower(out), "</script")
	assert.Contains(t, out, "/<!--/u")

	run := runLoader(t, in, "")
	assert.Equal(t, "</script><!-- x", run.get("s"))
	assert.Equal(t, true, run.get("r"))
}

func TestSelectEntry(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"index wins", []string{"src/App.jsx", "index.js", "main.ts"}, "index.js"},
		{"extension order", []string{"index.tsx", "index.jsx"}, "index.jsx"},
		{"ts before jsx", []string{"index.jsx", "index.ts"}, "index.ts"},
		{"src index", []string{"src/App.tsx", "src/index.tsx"}, "src/index.tsx"},
		{"plain script", []string{"script.js", "util.js"}, "script.js"},
		{"app fallback", []string{"src/App.jsx", "src/util.js"}, "src/App.jsx"},
		{"first by path", []string{"z.js", "b/c.js"}, "b/c.js"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := map[string]string{}
			for _, p := range tt.paths {
				m[p] = ""
			}
			assert.Equal(t, tt.want, SelectEntry(modulesOf(m)))
		})
	}
}
