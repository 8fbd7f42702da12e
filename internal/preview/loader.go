package preview

import (
	"sort"
	"strings"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// ExternalsSlot is the window property preloaded packages are stashed on
const ExternalsSlot = "__PLAYGROUND_EXTERNALS__"

// RuntimeGlobal exposes the loader internals for diagnostics
const RuntimeGlobal = "__playgroundRuntime"

// builtinExternals are always available from the host page
var builtinExternals = [][2]string{
	{"react", "window.React"},
	{"react-dom", "window.ReactDOM"},
	{"react-dom/client", "window.ReactDOM"},
}

// LoaderInput is everything the loader program is generated from
type LoaderInput struct {
	Modules map[string]types.CompiledModule
	// Entries are invoked once each, in order, after registration; none
	// registers modules without running anything
	Entries []string
	// Externals lists the preloaded package names to read from the
	// externals slot
	Externals []string
}

// GenerateLoader emits the module runtime as one self-contained program
func GenerateLoader(in LoaderInput) string {
	var b strings.Builder

	b.WriteString("(function () {\n")

	b.WriteString("var modules = {\n")
	keys := make([]string, 0, len(in.Modules))
	for k := range in.Modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		b.WriteString(jsString(k))
		b.WriteString(": function (require, module, exports) {\n")
		b.WriteString(escapeScript(in.Modules[k].Code))
		b.WriteString("\n}")
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("};\n")

	b.WriteString("var externals = {};\n")
	for _, e := range builtinExternals {
		b.WriteString("externals[" + jsString(e[0]) + "] = " + e[1] + ";\n")
	}
	b.WriteString("var preloaded = window." + ExternalsSlot + " || {};\n")
	b.WriteString("var preloadedNames = [")
	for i, name := range in.Externals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(jsString(name))
	}
	b.WriteString("];\n")
	b.WriteString("var styleLike = " + styleRegexp() + ";\n")
	b.WriteString("var extensions = [")
	for i, ext := range types.ScriptExtensions {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(jsString(ext))
	}
	b.WriteString("];\n")

	b.WriteString(runtimeBody)

	b.WriteString("var entries = [")
	for i, e := range in.Entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(jsString(e))
	}
	b.WriteString("];\n")
	b.WriteString(entryBody)
	b.WriteString("})();\n")
	return b.String()
}

// styleRegexp matches specifiers the loader resolves to an empty module
func styleRegexp() string {
	exts := make([]string, len(types.StyleExtensions))
	for i, e := range types.StyleExtensions {
		exts[i] = strings.TrimPrefix(e, ".")
	}
	return `/\.(` + strings.Join(exts, "|") + `)$/i`
}

const runtimeBody = `var hasOwn = function (o, k) { return Object.prototype.hasOwnProperty.call(o, k); };
for (var i = 0; i < preloadedNames.length; i++) {
  if (hasOwn(preloaded, preloadedNames[i])) externals[preloadedNames[i]] = preloaded[preloadedNames[i]];
}
var cache = {};

function ModuleNotFoundError(spec, from) {
  var err = new Error("Cannot find module '" + spec + "' from '" + (from || "<entry>") + "'");
  err.name = "ModuleNotFoundError";
  err.code = "MODULE_NOT_FOUND";
  err.specifier = spec;
  err.from = from;
  return err;
}

function resolve(currentPath, requirePath) {
  var stack = requirePath.charAt(0) === "/" ? [] : (currentPath || "").split("/").slice(0, -1);
  var parts = requirePath.split("/");
  for (var i = 0; i < parts.length; i++) {
    var part = parts[i];
    if (part === "..") { stack.pop(); }
    else if (part !== "." && part !== "") { stack.push(part); }
  }
  var base = stack.join("/");
  if (hasOwn(modules, base)) return base;
  for (var j = 0; j < extensions.length; j++) {
    if (hasOwn(modules, base + extensions[j])) return base + extensions[j];
  }
  for (var k = 0; k < extensions.length; k++) {
    var idx = (base ? base + "/" : "") + "index" + extensions[k];
    if (hasOwn(modules, idx)) return idx;
  }
  return null;
}

function instantiate(path) {
  if (hasOwn(cache, path)) return cache[path].exports;
  var module = { id: path, exports: {} };
  cache[path] = module;
  modules[path].call(module.exports, function (spec) { return require(spec, path); }, module, module.exports);
  return module.exports;
}

function require(spec, from) {
  if (styleLike.test(spec)) return {};
  if (hasOwn(externals, spec)) return externals[spec];
  var relative = spec.charAt(0) === "." || spec.charAt(0) === "/";
  var resolved = relative ? resolve(from, spec) : null;
  if (resolved === null) throw ModuleNotFoundError(spec, from);
  return instantiate(resolved);
}

window.` + RuntimeGlobal + ` = {
  resolve: resolve,
  require: function (spec, from) { return require(spec, from || ""); },
  cache: cache,
  modules: modules,
  externals: externals
};
`

const entryBody = `for (var e = 0; e < entries.length; e++) {
  try {
    if (!hasOwn(modules, entries[e])) throw ModuleNotFoundError(entries[e], "");
    instantiate(entries[e]);
  } catch (err) {
    console.error(err);
  }
}
`

// entryCandidates are tried in order before falling back to the first
// script by path
var entryCandidates = []string{"index", "src/index", "main", "src/main", "script", "src/script", "src/App", "App"}

// SelectEntry picks the module the loader runs first
func SelectEntry(modules map[string]types.CompiledModule) string {
	for _, base := range entryCandidates {
		for _, ext := range types.ScriptExtensions {
			if _, ok := modules[base+ext]; ok {
				return base + ext
			}
		}
	}
	keys := make([]string, 0, len(modules))
	for k := range modules {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}
