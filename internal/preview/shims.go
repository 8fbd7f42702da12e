package preview

import (
	"strings"

	"github.com/GriffinCanCode/playground/internal/registry"
)

// ConsoleTag marks console messages posted by a preview document
const ConsoleTag = "__playground_console__"

// Unserializable replaces console arguments that cannot be rendered
const Unserializable = "[Unserializable]"

// RelayGlobal optionally names a URL console messages are also beaconed to
// when the document is not framed
const RelayGlobal = "__PLAYGROUND_RELAY__"

// consoleShim overrides the four console entry points and the global error
// handlers. It must run before any user code.
const consoleShim = `(function () {
  var TAG = "` + ConsoleTag + `";
  var SENTINEL = "` + Unserializable + `";
  function isNode(v) {
    return !!v && typeof v === "object" && typeof v.nodeType === "number" && typeof v.nodeName === "string";
  }
  function describeError(e) {
    var stack = e && e.stack ? String(e.stack) : "";
    var message = e && e.message !== undefined ? String(e.message) : String(e);
    return stack.indexOf(message) === -1 || !message ? message + (stack ? "\n" + stack : "") : stack;
  }
  function serialize(arg) {
    try {
      if (arg instanceof Error) return describeError(arg);
      if (arg === undefined) return "undefined";
      if (arg === null) return "null";
      switch (typeof arg) {
        case "string": return arg;
        case "function": return "function " + (arg.name || "anonymous");
        case "symbol": return arg.toString();
        case "bigint": return arg.toString() + "n";
        case "object": break;
        default: return String(arg);
      }
      if (isNode(arg)) return "[DOM Element]";
      var seen = [];
      var out = JSON.stringify(arg, function (key, value) {
        if (value instanceof Error) return { message: value.message, stack: value.stack };
        if (typeof value === "function") return "function " + (value.name || "anonymous");
        if (typeof value === "bigint") return value.toString() + "n";
        if (value && typeof value === "object") {
          if (isNode(value)) return "[DOM Element]";
          if (seen.indexOf(value) !== -1) return "[Circular]";
          seen.push(value);
        }
        return value;
      }, 2);
      return out === undefined ? SENTINEL : out;
    } catch (e) {
      return SENTINEL;
    }
  }
  function post(level, args) {
    var payload = [];
    for (var i = 0; i < args.length; i++) payload.push(serialize(args[i]));
    var msg = { type: TAG, level: level, payload: payload };
    try { window.parent.postMessage(msg, "*"); } catch (e) {}
    var relay = window.` + RelayGlobal + `;
    if (relay && window.parent === window && typeof navigator !== "undefined" && navigator.sendBeacon) {
      try { navigator.sendBeacon(relay, JSON.stringify(msg)); } catch (e) {}
    }
  }
  ["log", "warn", "error", "info"].forEach(function (level) {
    var original = console[level];
    console[level] = function () {
      var args = Array.prototype.slice.call(arguments);
      if (typeof original === "function") {
        try { original.apply(console, args); } catch (e) {}
      }
      post(level, args);
    };
  });
  window.addEventListener("error", function (event) {
    var err = event && event.error;
    post("error", [err ? describeError(err) : (event && event.message) || "Script error"]);
  });
  window.addEventListener("unhandledrejection", function (event) {
    post("error", ["Unhandled promise rejection:", event && event.reason]);
  });
})();
`

// safetyShim cancels navigation out of the preview
const safetyShim = `(function () {
  document.addEventListener("click", function (e) {
    var el = e.target;
    if (el && el.nodeType !== 1) el = el.parentElement || el.parentNode;
    var link = el && el.closest ? el.closest("a[href]") : null;
    if (!link) return;
    e.preventDefault();
    e.stopPropagation();
    var href = link.getAttribute("href");
    if (!href) return;
    console.log("Link clicked:", href, "- Links are disabled in preview mode");
    if (link.__playgroundDisabled) return;
    link.__playgroundDisabled = true;
    var originalText = link.textContent;
    link.textContent = "Link (disabled in preview)";
    link.style.color = "#999";
    link.style.textDecoration = "line-through";
    setTimeout(function () {
      link.textContent = originalText;
      link.style.color = "";
      link.style.textDecoration = "";
      link.__playgroundDisabled = false;
    }, 2000);
  }, true);
  document.addEventListener("submit", function (e) {
    e.preventDefault();
    e.stopPropagation();
    console.log("Form submission prevented in preview mode");
  }, true);
  window.open = function (url) {
    console.log("window.open prevented in preview mode:", url);
    return null;
  };
})();
`

// packageShim evaluates one fetched package as CommonJS and stashes its
// exports on the externals slot
func packageShim(pkg registry.Package) string {
	name := jsString(pkg.Name)
	var b strings.Builder
	b.WriteString("(function () {\n")
	b.WriteString("var slot = window." + ExternalsSlot + " = window." + ExternalsSlot + " || {};\n")
	b.WriteString("var module = { exports: {} };\n")
	b.WriteString(`var require = function (spec) {
  if (spec === "react") return window.React;
  if (spec === "react-dom" || spec === "react-dom/client") return window.ReactDOM;
  if (Object.prototype.hasOwnProperty.call(slot, spec)) return slot[spec];
  throw new Error("Cannot find module '" + spec + "' from '" + ` + name + ` + "'");
};
var process = { env: { NODE_ENV: "production" } };
try {
  (function (module, exports, require, process, define) {
`)
	b.WriteString(escapeScript(pkg.Code))
	b.WriteString(`
  }).call(module.exports, module, module.exports, require, process, undefined);
  slot[` + name + `] = module.exports;
} catch (err) {
  console.warn("Failed to load package " + ` + name + ` + ":", err);
}
})();
`)
	return b.String()
}
