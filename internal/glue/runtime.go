package glue

import "strings"

// Runtime snippet names (spec.md §4.3). Exported as constants so callers
// and tests can refer to them without typos.
const (
	SnipSlab              = "slab"
	SnipSlabNext          = "slab_next"
	SnipStack             = "stack"
	SnipMemory            = "memory"
	SnipWasmExports       = "wasm_exports"
	SnipCheckToken        = "check_token"
	SnipAssertNum         = "assert_num"
	SnipAssertBool        = "assert_bool"
	SnipAssertClass       = "assert_class"
	SnipPassStringToWasm  = "pass_string_to_wasm"
	SnipGetStringFromWasm = "get_string_from_wasm"
	SnipAddHeapObject     = "add_heap_object"
	SnipAddBorrowedObject = "add_borrowed_object"
	SnipGetObject         = "get_object"
	SnipDropRef           = "drop_ref"
	SnipTakeObject        = "take_object"
)

// RuntimeLibrary is an append-only collection of named runtime snippets.
// Each installer is idempotent; dependencies are requested transitively
// and always emitted before the snippet that depends on them (spec.md §4.3).
type RuntimeLibrary struct {
	installed map[string]bool
	order     []string
}

// NewRuntimeLibrary returns an empty library with nothing installed.
func NewRuntimeLibrary() *RuntimeLibrary {
	return &RuntimeLibrary{installed: map[string]bool{}}
}

// Installed reports whether name has been requested at least once. Used by
// the Assembler to decide which runtime slots (the memory and wasm_exports
// snippets) the post-instantiation hook must fill in.
func (rt *RuntimeLibrary) Installed(name string) bool {
	return rt.installed[name]
}

// require marks name installed (recording its first-requested order) unless
// it already is. It is the single idempotency gate every Expose* method
// goes through.
func (rt *RuntimeLibrary) require(name string, deps ...string) {
	if rt.installed[name] {
		return
	}
	for _, d := range deps {
		rt.require(d)
	}
	rt.installed[name] = true
	rt.order = append(rt.order, name)
}

// Expose* methods request a snippet and its transitive dependencies. Each
// returns the snippet's name for convenience when composing call sites.

func (rt *RuntimeLibrary) ExposeSlab() string { rt.require(SnipSlab); return SnipSlab }

func (rt *RuntimeLibrary) ExposeSlabNext() string { rt.require(SnipSlabNext); return SnipSlabNext }

func (rt *RuntimeLibrary) ExposeStack() string { rt.require(SnipStack); return SnipStack }

func (rt *RuntimeLibrary) ExposeMemory() string { rt.require(SnipMemory); return SnipMemory }

func (rt *RuntimeLibrary) ExposeWasmExports() string {
	rt.require(SnipWasmExports)
	return SnipWasmExports
}

func (rt *RuntimeLibrary) ExposeCheckToken() string {
	rt.require(SnipCheckToken)
	return SnipCheckToken
}

func (rt *RuntimeLibrary) ExposeAssertNum() string { rt.require(SnipAssertNum); return SnipAssertNum }

func (rt *RuntimeLibrary) ExposeAssertBool() string {
	rt.require(SnipAssertBool)
	return SnipAssertBool
}

func (rt *RuntimeLibrary) ExposeAssertClass() string {
	rt.require(SnipAssertClass)
	return SnipAssertClass
}

func (rt *RuntimeLibrary) ExposePassStringToWasm() string {
	rt.require(SnipPassStringToWasm, SnipWasmExports, SnipMemory)
	return SnipPassStringToWasm
}

func (rt *RuntimeLibrary) ExposeGetStringFromWasm() string {
	rt.require(SnipGetStringFromWasm, SnipMemory)
	return SnipGetStringFromWasm
}

func (rt *RuntimeLibrary) ExposeAddHeapObject() string {
	rt.require(SnipAddHeapObject, SnipSlab, SnipSlabNext)
	return SnipAddHeapObject
}

func (rt *RuntimeLibrary) ExposeAddBorrowedObject() string {
	rt.require(SnipAddBorrowedObject, SnipStack)
	return SnipAddBorrowedObject
}

func (rt *RuntimeLibrary) ExposeGetObject() string {
	rt.require(SnipGetObject, SnipStack, SnipSlab)
	return SnipGetObject
}

func (rt *RuntimeLibrary) ExposeDropRef() string {
	rt.require(SnipDropRef, SnipSlab, SnipSlabNext)
	return SnipDropRef
}

func (rt *RuntimeLibrary) ExposeTakeObject() string {
	rt.ExposeGetObject()
	rt.ExposeDropRef()
	rt.require(SnipTakeObject)
	return SnipTakeObject
}

// Render produces the runtime globals region: every installed snippet's
// body, in first-requested order, compiled with the given flags (spec.md
// §9: "snippet bodies are produced by pure functions of the flags").
func (rt *RuntimeLibrary) Render(debug, nodejs bool) string {
	var b strings.Builder
	for _, name := range rt.order {
		b.WriteString(snippetBody(name, debug, nodejs))
		b.WriteString("\n")
	}
	return b.String()
}

func snippetBody(name string, debug, nodejs bool) string {
	switch name {
	case SnipSlab:
		return `let heap_slab = [];`
	case SnipSlabNext:
		return `let heap_next = 0;`
	case SnipStack:
		return `let borrowed_stack = [];`
	case SnipMemory:
		return `let cachedMemory = null;
function getMemory() {
    if (cachedMemory === null || cachedMemory.buffer.byteLength === 0) {
        cachedMemory = wasm_exports.memory;
    }
    return cachedMemory;
}`
	case SnipWasmExports:
		return `let wasm_exports;`
	case SnipCheckToken:
		return `const __wbg_construct_token = Symbol('wbg_construct_token');
function _checkToken(sym) {
    if (sym !== __wbg_construct_token) throw new Error('cannot invoke new directly');
}`
	case SnipAssertNum:
		if !debug {
			return `function _assertNum(n) {}`
		}
		return `function _assertNum(n) {
    if (typeof(n) !== 'number') throw new Error('expected a number argument');
}`
	case SnipAssertBool:
		if !debug {
			return `function _assertBoolean(n) {}`
		}
		return `function _assertBoolean(n) {
    if (typeof(n) !== 'boolean') throw new Error('expected a boolean argument');
}`
	case SnipAssertClass:
		if !debug {
			return `function _assertClass(instance, klass) {}`
		}
		return `function _assertClass(instance, klass) {
    if (!(instance instanceof klass)) throw new Error('expected instance of ' + klass.name);
}`
	case SnipPassStringToWasm:
		if nodejs {
			return `const lTextEncoder = require('util').TextEncoder;
let cachedTextEncoder = new lTextEncoder('utf-8');
function passStringToWasm(arg) {
    const buf = cachedTextEncoder.encode(arg);
    const ptr = wasm_exports.__wbindgen_malloc(buf.length);
    new Uint8Array(getMemory().buffer).subarray(ptr, ptr + buf.length).set(buf);
    return [ptr, buf.length];
}`
		}
		return `let cachedTextEncoder = new TextEncoder('utf-8');
function passStringToWasm(arg) {
    const buf = cachedTextEncoder.encode(arg);
    const ptr = wasm_exports.__wbindgen_malloc(buf.length);
    new Uint8Array(getMemory().buffer).subarray(ptr, ptr + buf.length).set(buf);
    return [ptr, buf.length];
}`
	case SnipGetStringFromWasm:
		return `let cachedTextDecoder = new TextDecoder('utf-8');
function getStringFromWasm(ptr, len) {
    return cachedTextDecoder.decode(new Uint8Array(getMemory().buffer).subarray(ptr, ptr + len));
}`
	case SnipAddHeapObject:
		body := `function addHeapObject(obj) {
    if (heap_next === heap_slab.length) {
        heap_slab.push({obj, cnt: 1});
        heap_next = heap_slab.length;
        return heap_slab.length - 1 << 1;
    }
    const idx = heap_next;
`
		if debug {
			body += `    if (typeof(heap_slab[idx]) !== 'number') throw new Error('corrupt slab');
`
		}
		body += `    heap_next = heap_slab[idx];
    heap_slab[idx] = {obj, cnt: 1};
    return idx << 1;
}`
		return body
	case SnipAddBorrowedObject:
		return `function addBorrowedObject(obj) {
    borrowed_stack.push(obj);
    return ((borrowed_stack.length - 1) << 1) | 1;
}`
	case SnipGetObject:
		body := `function getObject(idx) {
    if ((idx & 1) === 1) {
        return borrowed_stack[idx >> 1];
    }
    const val = heap_slab[idx >> 1];
`
		if debug {
			body += `    if (typeof(val) === 'number') throw new Error('corrupt slab');
`
		}
		body += `    return val.obj;
}`
		return body
	case SnipDropRef:
		body := `function dropRef(idx) {
`
		if debug {
			body += `    if ((idx & 1) === 1) throw new Error('cannot drop ref of stack objects');
`
		}
		body += `    idx = idx >> 1;
`
		if debug {
			body += `    const cell = heap_slab[idx];
    if (typeof cell !== 'object' || cell === null) throw new Error('corrupt slab');
    if (--cell.cnt > 0) return;
`
		} else {
			body += `    if (--heap_slab[idx].cnt > 0) return;
`
		}
		body += `    heap_slab[idx] = heap_next;
    heap_next = idx;
}`
		return body
	case SnipTakeObject:
		return `function takeObject(idx) {
    const ret = getObject(idx);
    dropRef(idx);
    return ret;
}`
	}
	return ""
}
