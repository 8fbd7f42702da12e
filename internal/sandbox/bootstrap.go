package sandbox

// bootstrap defines the browser globals that are simplest to express in
// JavaScript. It runs before any document script.
const bootstrap = `(function (g) {
  function Event(type, init) {
    init = init || {};
    this.type = String(type);
    this.bubbles = !!init.bubbles;
    this.cancelable = !!init.cancelable;
    this.defaultPrevented = false;
    this.target = null;
    this.currentTarget = null;
    this.eventPhase = 0;
    this.isTrusted = false;
    this.timeStamp = Date.now();
    this.__stop = false;
    this.__stopNow = false;
  }
  Event.prototype.preventDefault = function () {
    if (this.cancelable) this.defaultPrevented = true;
  };
  Event.prototype.stopPropagation = function () { this.__stop = true; };
  Event.prototype.stopImmediatePropagation = function () {
    this.__stop = true;
    this.__stopNow = true;
  };
  function extend(name, setup) {
    var Ctor = function (type, init) {
      Event.call(this, type, init);
      if (setup) setup.call(this, init || {});
    };
    Ctor.prototype = Object.create(Event.prototype);
    Ctor.prototype.constructor = Ctor;
    g[name] = Ctor;
  }
  g.Event = Event;
  extend("CustomEvent", function (init) { this.detail = init.detail === undefined ? null : init.detail; });
  extend("MouseEvent", function (init) {
    this.button = init.button || 0;
    this.clientX = init.clientX || 0;
    this.clientY = init.clientY || 0;
  });
  extend("KeyboardEvent", function (init) {
    this.key = init.key || "";
    this.code = init.code || "";
  });
  extend("ErrorEvent", function (init) {
    this.message = init.message || "";
    this.error = init.error;
    this.filename = init.filename || "";
    this.lineno = init.lineno || 0;
    this.colno = init.colno || 0;
  });

  g.queueMicrotask = function (fn) { Promise.resolve().then(fn); };

  var start = Date.now();
  g.performance = {
    timeOrigin: start,
    now: function () { return Date.now() - start; }
  };
  g.requestAnimationFrame = function (fn) {
    return g.setTimeout(function () { fn(g.performance.now()); }, 16);
  };
  g.cancelAnimationFrame = function (id) { g.clearTimeout(id); };

  function Storage() {
    Object.defineProperty(this, "_items", { value: {}, enumerable: false });
  }
  Storage.prototype.getItem = function (k) {
    k = String(k);
    return Object.prototype.hasOwnProperty.call(this._items, k) ? this._items[k] : null;
  };
  Storage.prototype.setItem = function (k, v) { this._items[String(k)] = String(v); };
  Storage.prototype.removeItem = function (k) { delete this._items[String(k)]; };
  Storage.prototype.clear = function () {
    for (var k in this._items) delete this._items[k];
  };
  Storage.prototype.key = function (i) {
    var keys = Object.keys(this._items);
    return i < keys.length ? keys[i] : null;
  };
  Object.defineProperty(Storage.prototype, "length", {
    get: function () { return Object.keys(this._items).length; }
  });
  g.localStorage = new Storage();
  g.sessionStorage = new Storage();

  g.matchMedia = function (query) {
    var noop = function () {};
    return {
      matches: false,
      media: String(query),
      onchange: null,
      addListener: noop,
      removeListener: noop,
      addEventListener: noop,
      removeEventListener: noop
    };
  };
  g.getComputedStyle = function (el) { return el && el.style ? el.style : {}; };
  g.Node = { ELEMENT_NODE: 1, TEXT_NODE: 3, COMMENT_NODE: 8, DOCUMENT_NODE: 9 };
})(this);
`
