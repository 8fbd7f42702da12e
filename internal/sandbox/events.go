package sandbox

import (
	"errors"
	"strings"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

const (
	phaseCapturing = 1
	phaseAtTarget  = 2
	phaseBubbling  = 3
)

// windowKey is the listener key of the global object
type windowKey struct{}

type listener struct {
	typ     string
	val     goja.Value
	fn      goja.Callable
	capture bool
	once    bool
	removed bool
}

type target struct {
	key any
	val goja.Value
}

func (d *dom) targetMembers(o *goja.Object, key any) {
	_ = o.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		d.addListener(key, call)
		return goja.Undefined()
	})
	_ = o.Set("removeEventListener", func(call goja.FunctionCall) goja.Value {
		d.removeListener(key, call)
		return goja.Undefined()
	})
	_ = o.Set("dispatchEvent", func(call goja.FunctionCall) goja.Value {
		evt, ok := call.Argument(0).(*goja.Object)
		if !ok {
			panic(d.vm.NewTypeError("Failed to execute 'dispatchEvent': parameter 1 is not of type 'Event'"))
		}
		notCanceled, _ := d.dispatch(key, evt)
		return d.vm.ToValue(notCanceled)
	})
}

func listenerOptions(v goja.Value) (capture, once bool) {
	if obj, ok := v.(*goja.Object); ok {
		return truthy(obj.Get("capture")), truthy(obj.Get("once"))
	}
	return truthy(v), false
}

func (d *dom) addListener(key any, call goja.FunctionCall) {
	typ := call.Argument(0).String()
	cb := call.Argument(1)
	if goja.IsNull(cb) || goja.IsUndefined(cb) {
		return
	}
	fn, ok := goja.AssertFunction(cb)
	if !ok {
		obj, isObj := cb.(*goja.Object)
		if !isObj {
			return
		}
		fn = func(_ goja.Value, args ...goja.Value) (goja.Value, error) {
			handle, ok := goja.AssertFunction(obj.Get("handleEvent"))
			if !ok {
				return goja.Undefined(), nil
			}
			return handle(obj, args...)
		}
	}
	capture, once := listenerOptions(call.Argument(2))
	for _, l := range d.listeners[key] {
		if l.typ == typ && l.capture == capture && l.val.SameAs(cb) {
			return
		}
	}
	d.listeners[key] = append(d.listeners[key], &listener{
		typ:     typ,
		val:     cb,
		fn:      fn,
		capture: capture,
		once:    once,
	})
}

func (d *dom) removeListener(key any, call goja.FunctionCall) {
	typ := call.Argument(0).String()
	cb := call.Argument(1)
	capture, _ := listenerOptions(call.Argument(2))
	for _, l := range d.listeners[key] {
		if l.typ == typ && l.capture == capture && l.val.SameAs(cb) {
			d.drop(key, l)
			return
		}
	}
}

func (d *dom) drop(key any, l *listener) {
	l.removed = true
	list := d.listeners[key]
	for i, x := range list {
		if x == l {
			d.listeners[key] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// path lists the propagation path from the target outwards
func (d *dom) path(key any) []target {
	n, ok := key.(*html.Node)
	if !ok {
		return []target{{key: windowKey{}, val: d.window}}
	}
	var out []target
	for p := n; p != nil; p = p.Parent {
		out = append(out, target{key: p, val: d.wrap(p)})
	}
	if out[len(out)-1].key == any(d.root) {
		out = append(out, target{key: windowKey{}, val: d.window})
	}
	return out
}

// dispatch runs the capture, target and bubble phases for evt. It reports
// whether the event was not canceled; the error is non-nil only when the
// runtime was interrupted.
func (d *dom) dispatch(key any, evt *goja.Object) (bool, error) {
	path := d.path(key)
	typ := evt.Get("type").String()
	bubbles := truthy(evt.Get("bubbles"))
	_ = evt.Set("target", path[0].val)
	defer func() {
		_ = evt.Set("currentTarget", goja.Null())
		_ = evt.Set("eventPhase", 0)
		_ = evt.Set("__stop", false)
		_ = evt.Set("__stopNow", false)
	}()

	stopped := false
	var err error
	for i := len(path) - 1; i > 0 && !stopped; i-- {
		if stopped, err = d.invoke(path[i], evt, typ, phaseCapturing); err != nil {
			return false, err
		}
	}
	if !stopped {
		if stopped, err = d.invoke(path[0], evt, typ, phaseAtTarget); err != nil {
			return false, err
		}
	}
	if bubbles {
		for i := 1; i < len(path) && !stopped; i++ {
			if stopped, err = d.invoke(path[i], evt, typ, phaseBubbling); err != nil {
				return false, err
			}
		}
	}
	return !truthy(evt.Get("defaultPrevented")), nil
}

func (d *dom) invoke(t target, evt *goja.Object, typ string, phase int) (bool, error) {
	_ = evt.Set("currentTarget", t.val)
	_ = evt.Set("eventPhase", phase)

	for _, l := range append([]*listener(nil), d.listeners[t.key]...) {
		if l.removed || l.typ != typ {
			continue
		}
		if (phase == phaseCapturing && !l.capture) || (phase == phaseBubbling && l.capture) {
			continue
		}
		if l.once {
			d.drop(t.key, l)
		}
		if err := d.call(l.fn, t.val, evt); err != nil {
			return true, err
		}
		if truthy(evt.Get("__stopNow")) {
			break
		}
	}
	if phase != phaseCapturing {
		if err := d.handlerProperty(t, evt, typ); err != nil {
			return true, err
		}
	}
	return truthy(evt.Get("__stop")), nil
}

// handlerProperty runs an on<type> property or inline attribute handler
func (d *dom) handlerProperty(t target, evt *goja.Object, typ string) error {
	obj, ok := t.val.(*goja.Object)
	if !ok {
		return nil
	}
	fn, ok := goja.AssertFunction(obj.Get("on" + typ))
	if !ok {
		n, isNode := t.key.(*html.Node)
		if !isNode || n.Type != html.ElementNode {
			return nil
		}
		code, has := attrValue(n, "on"+typ)
		if !has || strings.TrimSpace(code) == "" {
			return nil
		}
		compiled, err := d.vm.RunString("(function (event) {\n" + code + "\n})")
		if err != nil {
			return d.report(err)
		}
		if fn, ok = goja.AssertFunction(compiled); !ok {
			return nil
		}
	}
	ret, err := fn(obj, evt)
	if err != nil {
		return d.report(err)
	}
	if ret != nil && ret.StrictEquals(d.vm.ToValue(false)) && truthy(evt.Get("cancelable")) {
		_ = evt.Set("defaultPrevented", true)
	}
	return nil
}

func (d *dom) call(fn goja.Callable, this goja.Value, evt *goja.Object) error {
	_, err := fn(this, evt)
	if err == nil {
		return nil
	}
	return d.report(err)
}

// report turns a listener exception into an error event and passes
// interrupts through
func (d *dom) report(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return err
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		d.c.reportException(ex)
		return nil
	}
	return err
}

// newEvent constructs an event with one of the bootstrap constructors
func (d *dom) newEvent(ctor, typ string, bubbles, cancelable bool) *goja.Object {
	init := d.vm.NewObject()
	_ = init.Set("bubbles", bubbles)
	_ = init.Set("cancelable", cancelable)
	if evt, err := d.vm.New(d.vm.Get(ctor), d.vm.ToValue(typ), init); err == nil {
		return evt
	}
	evt := d.vm.NewObject()
	_ = evt.Set("type", typ)
	_ = evt.Set("bubbles", bubbles)
	_ = evt.Set("cancelable", cancelable)
	_ = evt.Set("defaultPrevented", false)
	return evt
}

// activate performs a user click on n followed by its default action
func (d *dom) activate(n *html.Node) error {
	notCanceled, err := d.dispatch(n, d.newEvent("MouseEvent", "click", true, true))
	if err != nil || !notCanceled {
		return err
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "a", "area":
			if href, ok := attrValue(p, "href"); ok {
				d.c.navigate(NavLink, href)
				return nil
			}
		case "button":
			if t := strings.ToLower(attrOf(p, "type")); t == "" || t == "submit" {
				if form := formOf(p); form != nil {
					return d.submit(form)
				}
			}
			return nil
		case "input":
			if t := strings.ToLower(attrOf(p, "type")); t == "submit" || t == "image" {
				if form := formOf(p); form != nil {
					return d.submit(form)
				}
			}
			return nil
		}
	}
	return nil
}

// submit fires a submit event and records the navigation unless canceled
func (d *dom) submit(form *html.Node) error {
	notCanceled, err := d.dispatch(form, d.newEvent("Event", "submit", true, true))
	if err != nil || !notCanceled {
		return err
	}
	d.c.navigate(NavForm, attrOf(form, "action"))
	return nil
}

func formOf(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "form" {
			return p
		}
	}
	return nil
}
