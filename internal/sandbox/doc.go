/*
Package sandbox renders PreviewDocuments inside isolated goja JavaScript
contexts.

# Isolation

Every build gets a brand-new Context: a fresh goja runtime, a fresh DOM
parsed from the document, and its own event loop goroutine. Nothing is
shared between contexts and the host never touches a context's runtime
directly; work is queued onto the loop and results come back as messages.

	Host.Render(doc)
	  ├── detach + interrupt previous Context
	  └── new Context ──loop──> parse DOM, run inline scripts,
	                            DOMContentLoaded, load, timers ...
	        window.parent.postMessage(msg)
	          └── cloned (sonic) ──chan──> Host pump ──> DecodeConsole ──> sink

# DOM

The DOM is a small shim over golang.org/x/net/html nodes queried with
goquery: element proxies with identity, attributes, textContent/innerHTML,
style, classList, closest/matches/querySelector(All), appendChild and
event listeners with capture and bubble phases. It exists so the injected
console proxy, the safety interceptors and ordinary DOM-scripting code run
as they would in a browser frame; it is not a layout engine.

# Navigation

Nothing in a context can navigate the host. Un-prevented link clicks, form
submissions, window.open and location changes are recorded as Navigation
attempts on the context and otherwise ignored.

# Liveness

By default sandboxed code has no time limit; a runaway loop blocks only its
own context. Config.Timeout bounds every task (script, timer callback,
event dispatch) when set.
*/
package sandbox
