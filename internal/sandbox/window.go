package sandbox

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

const (
	documentURL = "about:srcdoc"
	userAgent   = "Mozilla/5.0 (compatible; PlaygroundSandbox/1.0)"
)

// installGlobals turns the runtime's global object into a window
func (c *Context) installGlobals() {
	vm := c.vm
	d := c.dom
	g := vm.GlobalObject()
	d.window = g
	set := func(name string, v interface{}) { _ = g.Set(name, v) }

	// the CommonJS surface is the loader's business, not the page's
	set("require", goja.Undefined())
	set("module", goja.Undefined())
	set("exports", goja.Undefined())

	set("window", g)
	set("self", g)
	set("frames", g)
	set("innerWidth", 1024)
	set("innerHeight", 768)
	set("devicePixelRatio", 1)

	document := d.wrap(d.root)
	set("document", document)

	parent := vm.NewObject()
	_ = parent.Set("postMessage", c.postMessage)
	set("parent", parent)
	set("top", parent)

	location := c.newLocation()
	set("location", location)
	if doc, ok := document.(*goja.Object); ok {
		_ = doc.Set("location", location)
	}

	navigator := vm.NewObject()
	_ = navigator.Set("userAgent", userAgent)
	_ = navigator.Set("language", "en-US")
	_ = navigator.Set("languages", vm.NewArray("en-US", "en"))
	_ = navigator.Set("onLine", true)
	set("navigator", navigator)

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug", "trace"} {
		_ = console.Set(level, c.makeConsoleFunc(level))
	}
	set("console", console)

	set("setTimeout", func(call goja.FunctionCall) goja.Value { return c.setTimer(call, false) })
	set("setInterval", func(call goja.FunctionCall) goja.Value { return c.setTimer(call, true) })
	set("clearTimeout", c.clearTimer)
	set("clearInterval", c.clearTimer)

	set("open", func(call goja.FunctionCall) goja.Value {
		c.navigate(NavWindowOpen, call.Argument(0).String())
		return goja.Null()
	})
	set("alert", func(call goja.FunctionCall) goja.Value {
		c.logger.Debug("alert", zap.String("message", call.Argument(0).String()))
		return goja.Undefined()
	})
	set("confirm", func(goja.FunctionCall) goja.Value { return vm.ToValue(false) })
	set("prompt", func(goja.FunctionCall) goja.Value { return goja.Null() })
	set("postMessage", c.selfMessage)

	d.targetMembers(g, windowKey{})
}

// makeConsoleFunc is the native console underneath the injected proxy. It
// only feeds the server log; the proxy is what reaches the host.
func (c *Context) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		c.logger.Debug("Sandbox console",
			zap.String("level", level),
			zap.String("message", strings.Join(parts, " ")))
		return goja.Undefined()
	}
}

// clone approximates structured cloning: export, then JSON-encode. Values
// JSON cannot carry, such as functions, fail the clone.
func (c *Context) clone(v goja.Value) ([]byte, error) {
	return sonic.Marshal(v.Export())
}

// postMessage is window.parent.postMessage, the only way out of a context
func (c *Context) postMessage(call goja.FunctionCall) goja.Value {
	data, err := c.clone(call.Argument(0))
	if err != nil {
		panic(c.vm.NewTypeError("Failed to execute 'postMessage': message could not be cloned: %v", err))
	}
	c.post(data)
	return goja.Undefined()
}

// selfMessage is window.postMessage: the clone comes back as a message
// event on a later task
func (c *Context) selfMessage(call goja.FunctionCall) goja.Value {
	data, err := c.clone(call.Argument(0))
	if err != nil {
		panic(c.vm.NewTypeError("Failed to execute 'postMessage': message could not be cloned: %v", err))
	}
	go c.enqueue(func() {
		c.run("message", func() error {
			var decoded interface{}
			if err := sonic.Unmarshal(data, &decoded); err != nil {
				return err
			}
			evt := c.dom.newEvent("Event", "message", false, false)
			_ = evt.Set("data", c.vm.ToValue(decoded))
			_ = evt.Set("origin", "null")
			_, err := c.dom.dispatch(windowKey{}, evt)
			return err
		})
	})
	return goja.Undefined()
}

func (c *Context) newLocation() *goja.Object {
	vm := c.vm
	loc := vm.NewObject()
	accessor(vm, loc, "href", func() goja.Value {
		return vm.ToValue(documentURL)
	}, func(v goja.Value) {
		c.navigate(NavLocation, v.String())
	})
	for k, v := range map[string]string{
		"protocol": "about:",
		"pathname": "srcdoc",
		"origin":   "null",
		"host":     "",
		"hostname": "",
		"port":     "",
		"hash":     "",
		"search":   "",
	} {
		_ = loc.Set(k, v)
	}
	leave := func(call goja.FunctionCall) goja.Value {
		c.navigate(NavLocation, call.Argument(0).String())
		return goja.Undefined()
	}
	_ = loc.Set("assign", leave)
	_ = loc.Set("replace", leave)
	_ = loc.Set("reload", func(goja.FunctionCall) goja.Value {
		c.navigate(NavLocation, documentURL)
		return goja.Undefined()
	})
	_ = loc.Set("toString", func(goja.FunctionCall) goja.Value { return vm.ToValue(documentURL) })
	return loc
}
