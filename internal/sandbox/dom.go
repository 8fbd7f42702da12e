package sandbox

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// dom is the document shim. It is owned by the context's loop goroutine.
type dom struct {
	c    *Context
	vm   *goja.Runtime
	doc  *goquery.Document
	root *html.Node

	proxies   map[*html.Node]*goja.Object
	nodes     map[*goja.Object]*html.Node
	listeners map[any][]*listener

	window     *goja.Object
	readyState string
	cookie     string
}

func newDOM(c *Context, doc *goquery.Document) *dom {
	return &dom{
		c:          c,
		vm:         c.vm,
		doc:        doc,
		root:       doc.Nodes[0],
		proxies:    make(map[*html.Node]*goja.Object),
		nodes:      make(map[*goja.Object]*html.Node),
		listeners:  make(map[any][]*listener),
		readyState: "loading",
	}
}

// selection roots a goquery selection at n
func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

func accessor(vm *goja.Runtime, o *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	getter := vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	var setter goja.Value
	if set != nil {
		setter = vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	_ = o.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

func truthy(v goja.Value) bool {
	return v != nil && v.ToBoolean()
}

// wrap returns the proxy for n, creating it once so identity holds
func (d *dom) wrap(n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if o, ok := d.proxies[n]; ok {
		return o
	}
	o := d.vm.NewObject()
	d.proxies[n] = o
	d.nodes[o] = n

	d.nodeMembers(o, n)
	switch n.Type {
	case html.ElementNode:
		d.elementMembers(o, n)
		d.queryMembers(o, n)
	case html.DocumentNode:
		d.documentMembers(o, n)
		d.queryMembers(o, n)
	}
	d.targetMembers(o, n)
	return o
}

func (d *dom) wrapAll(nodes []*html.Node) *goja.Object {
	vals := make([]interface{}, len(nodes))
	for i, n := range nodes {
		vals[i] = d.wrap(n)
	}
	return d.vm.NewArray(vals...)
}

func (d *dom) unwrap(v goja.Value) *html.Node {
	if o, ok := v.(*goja.Object); ok {
		return d.nodes[o]
	}
	return nil
}

func (d *dom) mustNode(v goja.Value, method string) *html.Node {
	n := d.unwrap(v)
	if n == nil {
		panic(d.vm.NewTypeError("Failed to execute '%s': parameter is not of type 'Node'", method))
	}
	return n
}

// adopt prepares child for insertion under parent
func (d *dom) adopt(parent, child *html.Node, method string) {
	if contains(child, parent) {
		panic(d.vm.NewTypeError("Failed to execute '%s': the new child contains the parent", method))
	}
	detach(child)
}

// toNode turns an append() argument into a node
func (d *dom) toNode(v goja.Value) *html.Node {
	if n := d.unwrap(v); n != nil {
		return n
	}
	return &html.Node{Type: html.TextNode, Data: v.String()}
}

func (d *dom) nodeMembers(o *goja.Object, n *html.Node) {
	vm := d.vm
	_ = o.Set("nodeType", nodeType(n))
	_ = o.Set("nodeName", nodeName(n))

	accessor(vm, o, "parentNode", func() goja.Value { return d.wrap(n.Parent) }, nil)
	accessor(vm, o, "parentElement", func() goja.Value {
		if n.Parent != nil && n.Parent.Type == html.ElementNode {
			return d.wrap(n.Parent)
		}
		return goja.Null()
	}, nil)
	accessor(vm, o, "childNodes", func() goja.Value {
		var all []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			all = append(all, c)
		}
		return d.wrapAll(all)
	}, nil)
	accessor(vm, o, "firstChild", func() goja.Value { return d.wrap(n.FirstChild) }, nil)
	accessor(vm, o, "lastChild", func() goja.Value { return d.wrap(n.LastChild) }, nil)
	accessor(vm, o, "nextSibling", func() goja.Value { return d.wrap(n.NextSibling) }, nil)
	accessor(vm, o, "previousSibling", func() goja.Value { return d.wrap(n.PrevSibling) }, nil)
	accessor(vm, o, "ownerDocument", func() goja.Value { return d.wrap(d.root) }, nil)
	accessor(vm, o, "isConnected", func() goja.Value { return vm.ToValue(contains(d.root, n)) }, nil)

	accessor(vm, o, "textContent", func() goja.Value {
		switch n.Type {
		case html.DocumentNode, html.DoctypeNode:
			return goja.Null()
		case html.ElementNode:
			return vm.ToValue(selection(n).Text())
		}
		return vm.ToValue(n.Data)
	}, func(v goja.Value) {
		s := ""
		if !goja.IsNull(v) && !goja.IsUndefined(v) {
			s = v.String()
		}
		switch n.Type {
		case html.ElementNode:
			clearChildren(n)
			if s != "" {
				n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
			}
		case html.TextNode, html.CommentNode:
			n.Data = s
		}
	})
	if n.Type == html.TextNode || n.Type == html.CommentNode {
		get := func() goja.Value { return vm.ToValue(n.Data) }
		set := func(v goja.Value) { n.Data = v.String() }
		accessor(vm, o, "data", get, set)
		accessor(vm, o, "nodeValue", get, set)
		accessor(vm, o, "length", func() goja.Value { return vm.ToValue(len([]rune(n.Data))) }, nil)
	}

	_ = o.Set("hasChildNodes", func(goja.FunctionCall) goja.Value { return vm.ToValue(n.FirstChild != nil) })
	_ = o.Set("contains", func(call goja.FunctionCall) goja.Value {
		other := d.unwrap(call.Argument(0))
		return vm.ToValue(other != nil && contains(n, other))
	})
	_ = o.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child := d.mustNode(call.Argument(0), "appendChild")
		d.adopt(n, child, "appendChild")
		n.AppendChild(child)
		return call.Argument(0)
	})
	_ = o.Set("insertBefore", func(call goja.FunctionCall) goja.Value {
		child := d.mustNode(call.Argument(0), "insertBefore")
		ref := d.unwrap(call.Argument(1))
		if ref != nil && ref.Parent != n {
			panic(vm.NewTypeError("Failed to execute 'insertBefore': the reference node is not a child of this node"))
		}
		d.adopt(n, child, "insertBefore")
		if ref == nil {
			n.AppendChild(child)
		} else {
			n.InsertBefore(child, ref)
		}
		return call.Argument(0)
	})
	_ = o.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		child := d.mustNode(call.Argument(0), "removeChild")
		if child.Parent != n {
			panic(vm.NewTypeError("Failed to execute 'removeChild': the node to be removed is not a child of this node"))
		}
		n.RemoveChild(child)
		return call.Argument(0)
	})
	_ = o.Set("replaceChild", func(call goja.FunctionCall) goja.Value {
		child := d.mustNode(call.Argument(0), "replaceChild")
		old := d.mustNode(call.Argument(1), "replaceChild")
		if old.Parent != n {
			panic(vm.NewTypeError("Failed to execute 'replaceChild': the node to be replaced is not a child of this node"))
		}
		if child == old {
			return call.Argument(1)
		}
		d.adopt(n, child, "replaceChild")
		n.InsertBefore(child, old)
		n.RemoveChild(old)
		return call.Argument(1)
	})
	_ = o.Set("cloneNode", func(call goja.FunctionCall) goja.Value {
		return d.wrap(cloneNode(n, call.Argument(0).ToBoolean()))
	})
	if n.Type != html.DocumentNode {
		_ = o.Set("remove", func(goja.FunctionCall) goja.Value {
			detach(n)
			return goja.Undefined()
		})
	}
}

// reflected string attributes exposed as properties
var reflected = map[string]string{
	"id":          "id",
	"className":   "class",
	"href":        "href",
	"src":         "src",
	"type":        "type",
	"name":        "name",
	"title":       "title",
	"alt":         "alt",
	"placeholder": "placeholder",
	"htmlFor":     "for",
	"action":      "action",
	"method":      "method",
	"rel":         "rel",
	"target":      "target",
	"lang":        "lang",
	"role":        "role",
}

var booleanAttrs = []string{"checked", "disabled", "hidden", "selected", "readOnly", "required", "multiple"}

func (d *dom) elementMembers(o *goja.Object, n *html.Node) {
	vm := d.vm
	_ = o.Set("tagName", strings.ToUpper(n.Data))
	_ = o.Set("localName", n.Data)

	for prop, attr := range reflected {
		attr := attr
		accessor(vm, o, prop, func() goja.Value {
			return vm.ToValue(attrOf(n, attr))
		}, func(v goja.Value) {
			setAttr(n, attr, v.String())
		})
	}
	for _, prop := range booleanAttrs {
		attr := strings.ToLower(prop)
		accessor(vm, o, prop, func() goja.Value {
			_, ok := attrValue(n, attr)
			return vm.ToValue(ok)
		}, func(v goja.Value) {
			if v.ToBoolean() {
				setAttr(n, attr, "")
			} else {
				removeAttr(n, attr)
			}
		})
	}
	accessor(vm, o, "value", func() goja.Value {
		if n.Data == "textarea" {
			return vm.ToValue(rawText(n))
		}
		return vm.ToValue(attrOf(n, "value"))
	}, func(v goja.Value) {
		if n.Data == "textarea" {
			clearChildren(n)
			n.AppendChild(&html.Node{Type: html.TextNode, Data: v.String()})
			return
		}
		setAttr(n, "value", v.String())
	})

	accessor(vm, o, "innerHTML", func() goja.Value {
		s, _ := selection(n).Html()
		return vm.ToValue(s)
	}, func(v goja.Value) {
		nodes, err := html.ParseFragment(strings.NewReader(v.String()), n)
		if err != nil {
			panic(vm.NewTypeError("Failed to set 'innerHTML': %v", err))
		}
		clearChildren(n)
		for _, c := range nodes {
			n.AppendChild(c)
		}
	})
	accessor(vm, o, "outerHTML", func() goja.Value {
		s, _ := goquery.OuterHtml(selection(n))
		return vm.ToValue(s)
	}, nil)
	accessor(vm, o, "innerText", func() goja.Value {
		return vm.ToValue(selection(n).Text())
	}, func(v goja.Value) {
		clearChildren(n)
		n.AppendChild(&html.Node{Type: html.TextNode, Data: v.String()})
	})

	accessor(vm, o, "children", func() goja.Value { return d.wrapAll(elementChildren(n)) }, nil)
	accessor(vm, o, "childElementCount", func() goja.Value { return vm.ToValue(len(elementChildren(n))) }, nil)
	accessor(vm, o, "firstElementChild", func() goja.Value {
		if kids := elementChildren(n); len(kids) > 0 {
			return d.wrap(kids[0])
		}
		return goja.Null()
	}, nil)
	accessor(vm, o, "lastElementChild", func() goja.Value {
		if kids := elementChildren(n); len(kids) > 0 {
			return d.wrap(kids[len(kids)-1])
		}
		return goja.Null()
	}, nil)
	accessor(vm, o, "nextElementSibling", func() goja.Value {
		for s := n.NextSibling; s != nil; s = s.NextSibling {
			if s.Type == html.ElementNode {
				return d.wrap(s)
			}
		}
		return goja.Null()
	}, nil)
	accessor(vm, o, "previousElementSibling", func() goja.Value {
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				return d.wrap(s)
			}
		}
		return goja.Null()
	}, nil)

	_ = o.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := attrValue(n, call.Argument(0).String()); ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = o.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		setAttr(n, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	_ = o.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		removeAttr(n, call.Argument(0).String())
		return goja.Undefined()
	})
	_ = o.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		_, ok := attrValue(n, call.Argument(0).String())
		return vm.ToValue(ok)
	})

	_ = o.Set("style", d.styleObject(n))
	_ = o.Set("classList", d.classList(n))
	_ = o.Set("dataset", d.dataset(n))

	_ = o.Set("closest", func(call goja.FunctionCall) goja.Value {
		found := selection(n).Closest(call.Argument(0).String())
		if found.Length() == 0 {
			return goja.Null()
		}
		return d.wrap(found.Nodes[0])
	})
	_ = o.Set("matches", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(selection(n).Is(call.Argument(0).String()))
	})
	_ = o.Set("append", func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			child := d.toNode(arg)
			d.adopt(n, child, "append")
			n.AppendChild(child)
		}
		return goja.Undefined()
	})
	_ = o.Set("prepend", func(call goja.FunctionCall) goja.Value {
		first := n.FirstChild
		for _, arg := range call.Arguments {
			child := d.toNode(arg)
			d.adopt(n, child, "prepend")
			if first == nil {
				n.AppendChild(child)
			} else {
				n.InsertBefore(child, first)
			}
		}
		return goja.Undefined()
	})
	_ = o.Set("click", func(goja.FunctionCall) goja.Value {
		// an interrupt stays pending and stops the caller on return
		_ = d.activate(n)
		return goja.Undefined()
	})
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	_ = o.Set("focus", noop)
	_ = o.Set("blur", noop)
	_ = o.Set("scrollIntoView", noop)
	_ = o.Set("getBoundingClientRect", func(goja.FunctionCall) goja.Value {
		rect := vm.NewObject()
		for _, k := range []string{"x", "y", "top", "left", "right", "bottom", "width", "height"} {
			_ = rect.Set(k, 0)
		}
		return rect
	})

	if n.Data == "form" {
		_ = o.Set("submit", func(goja.FunctionCall) goja.Value {
			d.c.navigate(NavForm, attrOf(n, "action"))
			return goja.Undefined()
		})
		_ = o.Set("requestSubmit", func(goja.FunctionCall) goja.Value {
			_ = d.submit(n)
			return goja.Undefined()
		})
		_ = o.Set("reset", noop)
	}
}

func (d *dom) queryMembers(o *goja.Object, n *html.Node) {
	_ = o.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		found := selection(n).Find(call.Argument(0).String())
		if found.Length() == 0 {
			return goja.Null()
		}
		return d.wrap(found.Nodes[0])
	})
	_ = o.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return d.wrapAll(selection(n).Find(call.Argument(0).String()).Nodes)
	})
	_ = o.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return d.wrapAll(selection(n).Find(strings.ToLower(call.Argument(0).String())).Nodes)
	})
	_ = o.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		var sel strings.Builder
		for _, cls := range strings.Fields(call.Argument(0).String()) {
			sel.WriteString("." + cls)
		}
		if sel.Len() == 0 {
			return d.vm.NewArray()
		}
		return d.wrapAll(selection(n).Find(sel.String()).Nodes)
	})
}

func (d *dom) documentMembers(o *goja.Object, n *html.Node) {
	vm := d.vm
	accessor(vm, o, "documentElement", func() goja.Value {
		return d.wrap(findElement(n, byTag("html")))
	}, nil)
	accessor(vm, o, "head", func() goja.Value { return d.wrap(findElement(n, byTag("head"))) }, nil)
	accessor(vm, o, "body", func() goja.Value { return d.wrap(findElement(n, byTag("body"))) }, nil)
	accessor(vm, o, "activeElement", func() goja.Value { return d.wrap(findElement(n, byTag("body"))) }, nil)
	accessor(vm, o, "readyState", func() goja.Value { return vm.ToValue(d.readyState) }, nil)
	accessor(vm, o, "currentScript", func() goja.Value { return goja.Null() }, nil)
	accessor(vm, o, "defaultView", func() goja.Value { return d.window }, nil)
	accessor(vm, o, "cookie", func() goja.Value {
		return vm.ToValue(d.cookie)
	}, func(v goja.Value) {
		pair, _, _ := strings.Cut(v.String(), ";")
		if d.cookie == "" {
			d.cookie = pair
		} else {
			d.cookie += "; " + pair
		}
	})
	accessor(vm, o, "title", func() goja.Value {
		if t := findElement(n, byTag("title")); t != nil {
			return vm.ToValue(strings.Join(strings.Fields(rawText(t)), " "))
		}
		return vm.ToValue("")
	}, func(v goja.Value) {
		t := findElement(n, byTag("title"))
		if t == nil {
			head := findElement(n, byTag("head"))
			if head == nil {
				return
			}
			t = newElement("title")
			head.AppendChild(t)
		}
		clearChildren(t)
		t.AppendChild(&html.Node{Type: html.TextNode, Data: v.String()})
	})

	_ = o.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).String()
		return d.wrap(findElement(n, func(e *html.Node) bool {
			v, ok := attrValue(e, "id")
			return ok && v == id
		}))
	})
	_ = o.Set("createElement", func(call goja.FunctionCall) goja.Value {
		return d.wrap(newElement(call.Argument(0).String()))
	})
	_ = o.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		return d.wrap(&html.Node{Type: html.TextNode, Data: call.Argument(0).String()})
	})
	_ = o.Set("createComment", func(call goja.FunctionCall) goja.Value {
		return d.wrap(&html.Node{Type: html.CommentNode, Data: call.Argument(0).String()})
	})
}

// styleObject exposes the inline style as a plain object seeded from the
// style attribute
func (d *dom) styleObject(n *html.Node) *goja.Object {
	style := d.vm.NewObject()
	for k, v := range parseStyle(attrOf(n, "style")) {
		_ = style.Set(k, v)
	}
	setProperty := func(call goja.FunctionCall) goja.Value {
		_ = style.Set(camelCase(call.Argument(0).String()), call.Argument(1).String())
		return goja.Undefined()
	}
	_ = style.DefineDataProperty("setProperty", d.vm.ToValue(setProperty), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	_ = style.DefineDataProperty("getPropertyValue", d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		v := style.Get(camelCase(call.Argument(0).String()))
		if v == nil || goja.IsUndefined(v) {
			return d.vm.ToValue("")
		}
		return v
	}), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	return style
}

func (d *dom) classList(n *html.Node) *goja.Object {
	vm := d.vm
	list := vm.NewObject()
	classes := func() []string { return strings.Fields(attrOf(n, "class")) }
	store := func(cs []string) { setAttr(n, "class", strings.Join(cs, " ")) }
	has := func(cs []string, name string) int {
		for i, c := range cs {
			if c == name {
				return i
			}
		}
		return -1
	}

	_ = list.Set("add", func(call goja.FunctionCall) goja.Value {
		cs := classes()
		for _, arg := range call.Arguments {
			if name := arg.String(); has(cs, name) < 0 {
				cs = append(cs, name)
			}
		}
		store(cs)
		return goja.Undefined()
	})
	_ = list.Set("remove", func(call goja.FunctionCall) goja.Value {
		cs := classes()
		for _, arg := range call.Arguments {
			if i := has(cs, arg.String()); i >= 0 {
				cs = append(cs[:i], cs[i+1:]...)
			}
		}
		store(cs)
		return goja.Undefined()
	})
	_ = list.Set("contains", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(has(classes(), call.Argument(0).String()) >= 0)
	})
	_ = list.Set("toggle", func(call goja.FunctionCall) goja.Value {
		cs := classes()
		name := call.Argument(0).String()
		i := has(cs, name)
		want := i < 0
		if len(call.Arguments) > 1 {
			want = call.Argument(1).ToBoolean()
		}
		switch {
		case want && i < 0:
			cs = append(cs, name)
		case !want && i >= 0:
			cs = append(cs[:i], cs[i+1:]...)
		}
		store(cs)
		return vm.ToValue(want)
	})
	accessor(vm, list, "length", func() goja.Value { return vm.ToValue(len(classes())) }, nil)
	accessor(vm, list, "value", func() goja.Value { return vm.ToValue(attrOf(n, "class")) }, nil)
	return list
}

// dataset is a snapshot of data-* attributes; writes go back to attributes
func (d *dom) dataset(n *html.Node) *goja.Object {
	ds := d.vm.NewObject()
	for _, a := range n.Attr {
		if name, ok := strings.CutPrefix(a.Key, "data-"); ok {
			attr := a.Key
			accessor(d.vm, ds, camelCase(name), func() goja.Value {
				return d.vm.ToValue(attrOf(n, attr))
			}, func(v goja.Value) {
				setAttr(n, attr, v.String())
			})
		}
	}
	return ds
}
