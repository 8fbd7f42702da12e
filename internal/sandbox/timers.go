package sandbox

import (
	"time"

	"github.com/dop251/goja"
)

// minInterval matches the clamp browsers apply to repeating timers
const minInterval = 4 * time.Millisecond

type timer struct {
	id      int64
	fn      goja.Callable
	code    string
	args    []goja.Value
	delay   time.Duration
	repeat  bool
	cleared bool
	t       *time.Timer
}

func (c *Context) setTimer(call goja.FunctionCall, repeat bool) goja.Value {
	c.nextTimer++
	tm := &timer{id: c.nextTimer, repeat: repeat}

	cb := call.Argument(0)
	if fn, ok := goja.AssertFunction(cb); ok {
		tm.fn = fn
	} else {
		tm.code = cb.String()
	}
	delay := call.Argument(1).ToInteger()
	if delay < 0 {
		delay = 0
	}
	tm.delay = time.Duration(delay) * time.Millisecond
	if repeat && tm.delay < minInterval {
		tm.delay = minInterval
	}
	if len(call.Arguments) > 2 {
		tm.args = append([]goja.Value(nil), call.Arguments[2:]...)
	}

	c.timers[tm.id] = tm
	c.arm(tm)
	return c.vm.ToValue(tm.id)
}

func (c *Context) clearTimer(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).ToInteger()
	if tm, ok := c.timers[id]; ok {
		tm.cleared = true
		tm.t.Stop()
		delete(c.timers, id)
	}
	return goja.Undefined()
}

func (c *Context) arm(tm *timer) {
	tm.t = time.AfterFunc(tm.delay, func() {
		c.enqueue(func() { c.fire(tm) })
	})
}

func (c *Context) fire(tm *timer) {
	if tm.cleared {
		return
	}
	if !tm.repeat {
		delete(c.timers, tm.id)
	}
	c.run("timer", func() error {
		if tm.fn != nil {
			_, err := tm.fn(goja.Undefined(), tm.args...)
			return err
		}
		_, err := c.vm.RunString(tm.code)
		return err
	})
	if tm.repeat && !tm.cleared && !c.closed() {
		c.arm(tm)
	}
}
