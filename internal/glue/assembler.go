package glue

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero-bindgen/api"
)

// EmitMode selects whether the stitched output carries TypeScript type
// interfaces (SPEC_FULL.md "SUPPLEMENTED FEATURES": the original's
// --typescript/--no-typescript switch).
type EmitMode int

const (
	EmitTypeScript EmitMode = iota
	EmitJavaScript
)

const internalPrefix = "__wbindgen"

// exportEntry is one generated high-level export: its original name, its
// body expression, and its typed interface line. shorthand marks entries
// whose body is already a valid ES6 object-literal member on its own
// (a "name(args) {...}" method definition, or a bare identifier for a
// class binding) so the stitcher must not also prefix "name: ".
type exportEntry struct {
	name      string
	body      string
	tsExport  string
	shorthand bool
}

// Assembler is the top-level orchestrator (spec.md §4.7): it walks a
// Program, invokes ClassEmitter and SignatureCompiler for each declared
// item, binds required well-known intrinsics, passes through any
// un-declared exports/imports as untyped extras, and assembles the
// runtime, classes, typed interfaces, and an instantiate() entry point
// into a single output source string.
type Assembler struct {
	Logger *logrus.Logger // nil is valid: logging is then a no-op
	Debug  bool
	NodeJS bool
	Emit   EmitMode
}

func (a *Assembler) logf(level logrus.Level, fields logrus.Fields, format string, args ...interface{}) {
	if a.Logger == nil {
		return
	}
	a.Logger.WithFields(fields).Logf(level, format, args...)
}

// Assemble produces the final glue source text (spec.md §6).
func (a *Assembler) Assemble(program Program, mv *ModuleView, mapper *NameMapper) (string, error) {
	rt := NewRuntimeLibrary()
	sig := NewSignatureCompiler(rt, a.Debug)
	class := NewClassEmitter(rt, sig, a.Debug)

	var exports []exportEntry
	var classBodies []string

	if a.Debug {
		rt.ExposeSlab()
		rt.ExposeStack()
		exports = append(exports, exportEntry{
			name: "assertHeapAndStackEmpty",
			body: `function() {
    if (borrowed_stack.length > 0) throw new Error('stack is not empty');
    for (let i = 0; i < heap_slab.length; i++) {
        if (typeof(heap_slab[i]) !== 'number') throw new Error('slab is not empty');
    }
}`,
			tsExport: "assertHeapAndStackEmpty(): void;",
		})
	}

	for _, fn := range program.Functions {
		fn.WasmName = mapper.ExportName(fn.WasmName)
		body, tsSig, err := sig.Compile(fn)
		if err != nil {
			return "", fmt.Errorf("glue: function %s: %w", fn.HostName, err)
		}
		a.logf(logrus.DebugLevel, logrus.Fields{"kind": "function", "host": fn.HostName, "wasm": fn.WasmName}, "compiled signature")
		exports = append(exports, exportEntry{name: fn.HostName, body: body, tsExport: tsSig, shorthand: true})
	}

	for _, decl := range program.Structs {
		body, err := class.Emit(decl, mapper)
		if err != nil {
			return "", fmt.Errorf("glue: struct %s: %w", decl.Name, err)
		}
		a.logf(logrus.DebugLevel, logrus.Fields{"kind": "class", "name": decl.Name}, "compiled class")
		classBodies = append(classBodies, body)
		exports = append(exports, exportEntry{
			name:      decl.Name,
			body:      decl.Name,
			tsExport:  fmt.Sprintf("%s: typeof %s;", decl.Name, decl.Name),
			shorthand: true,
		})
	}

	// extras: exports the module has but the descriptor didn't declare.
	var extraExportsInterface strings.Builder
	var extraExportsBody strings.Builder
	hasExtraExports := false
	for _, fn := range mv.Exports() {
		names := fn.ExportNames()
		if len(names) == 0 {
			continue
		}
		name := names[0]
		if strings.HasPrefix(mapper.OrigExportName(name), internalPrefix) {
			continue
		}
		if sig.Bound[name] {
			continue
		}
		if !hasExtraExports {
			extraExportsInterface.WriteString("export interface ExtraExports {\n")
			hasExtraExports = true
		}
		paramCount, hasResult := mv.FunctionType(fn)
		extraExportsBody.WriteString(name)
		extraExportsBody.WriteString(": exports.")
		extraExportsBody.WriteString(name)
		extraExportsBody.WriteString(",\n")
		extraExportsInterface.WriteString(extraFunctionTS(name, paramCount, hasResult))
		extraExportsInterface.WriteString("\n")
		a.logf(logrus.WarnLevel, logrus.Fields{"export": name}, "untyped export passed through as extra")
	}
	if hasExtraExports {
		extraExportsInterface.WriteString("}\n")
	}

	// descriptor-declared imports, bound only if the wasm module still
	// imports them (spec.md §4.7 step 4: "was not optimized away").
	shim := NewImportShimCompiler(rt, a.Debug)
	var importsObject strings.Builder
	var importsInterface strings.Builder
	importsBound := map[string]bool{}
	for _, imp := range program.Imports {
		wasmName := mapper.ImportName(imp.WasmName)
		if _, ok := mv.ImportByWasmName(imp.WasmModule, wasmName); !ok {
			continue
		}
		importsBound[wasmName] = true
		body, tsSig, err := shim.Compile(imp)
		if err != nil {
			return "", fmt.Errorf("glue: import %s: %w", imp.HostName, err)
		}
		a.logf(logrus.DebugLevel, logrus.Fields{"kind": "import", "host": imp.HostName, "wasm": wasmName}, "compiled import shim")
		fmt.Fprintf(&importsObject, "%s: %s,\n", wasmName, body)
		importsInterface.WriteString(tsSig)
		importsInterface.WriteString("\n")
	}

	// extra (non-intrinsic, non-descriptor) env imports the module wants.
	var extraImportsInterface strings.Builder
	hasExtraImports := false
	for _, fn := range mv.Imports() {
		modName, name, isImport := fn.Import()
		if !isImport || modName != "env" {
			continue
		}
		orig := mapper.OrigImportName(name)
		if strings.HasPrefix(orig, internalPrefix) {
			continue
		}
		if importsBound[name] {
			continue
		}
		if !hasExtraImports {
			extraImportsInterface.WriteString("export interface ExtraImports {\n")
			hasExtraImports = true
		}
		paramCount, hasResult := mv.FunctionType(fn)
		fmt.Fprintf(&importsObject, "%s: _imports.env.%s,\n", name, name)
		extraImportsInterface.WriteString(extraFunctionTS(name, paramCount, hasResult))
		extraImportsInterface.WriteString("\n")
		a.logf(logrus.WarnLevel, logrus.Fields{"import": name}, "untyped import passed through as env passthrough")
	}
	if hasExtraImports {
		extraImportsInterface.WriteString("}\n")
	}

	// well-known intrinsics (spec.md §4.7 step 5): bind only those the
	// module actually imports.
	for _, name := range intrinsicNames() {
		wasmName := mapper.ImportName(name)
		if _, ok := mv.ImportByWasmName("env", wasmName); !ok {
			continue
		}
		body := intrinsicBody(name, rt, a.Debug)
		fmt.Fprintf(&importsObject, "%s: %s,\n", wasmName, body)
		a.logf(logrus.DebugLevel, logrus.Fields{"intrinsic": name}, "bound well-known intrinsic")
		if name == "__wbindgen_symbol_new" && a.Debug {
			a.logf(logrus.DebugLevel, logrus.Fields{"intrinsic": name}, "symbol_new trace: source's console.log(ptr, len) is surfaced through this logger instead of a generated host console.log call")
		}
	}

	var writes strings.Builder
	if rt.Installed(SnipMemory) {
		writes.WriteString("cachedMemory = exports.memory;\n")
	}
	if rt.Installed(SnipWasmExports) {
		writes.WriteString("wasm_exports = exports;\n")
	}

	var out strings.Builder
	out.WriteString("/* tslint:disable */\n\n")
	out.WriteString(rt.Render(a.Debug, a.NodeJS))
	out.WriteString("\n")
	for _, c := range classBodies {
		out.WriteString(c)
		out.WriteString("\n")
	}

	if a.Emit == EmitTypeScript {
		out.WriteString("export interface Imports {\n")
		out.WriteString(importsInterface.String())
		out.WriteString("}\n\n")
		out.WriteString(extraImportsInterface.String())
		out.WriteString("\n")
		out.WriteString("export interface Exports {\n")
		out.WriteString("module: WebAssembly.Module;\n")
		out.WriteString("instance: WebAssembly.Instance;\n")
		for _, e := range exports {
			out.WriteString(e.tsExport)
			out.WriteString("\n")
		}
		if hasExtraExports {
			out.WriteString("extra: ExtraExports;\n")
		}
		out.WriteString("}\n\n")
		out.WriteString(extraExportsInterface.String())
		out.WriteString("\n")
	}

	out.WriteString("function xform(obj) {\n")
	out.WriteString("let { module, instance } = obj;\n")
	out.WriteString("let exports = instance.exports;\n")
	out.WriteString(writes.String())
	out.WriteString("return {\nmodule,\ninstance,\n")
	for _, e := range exports {
		if e.shorthand {
			fmt.Fprintf(&out, "%s,\n", e.body)
		} else {
			fmt.Fprintf(&out, "%s: %s,\n", e.name, e.body)
		}
	}
	if hasExtraExports {
		out.WriteString("extra: {\n")
		out.WriteString(extraExportsBody.String())
		out.WriteString("},\n")
	}
	out.WriteString("};\n}\n\n")

	out.WriteString("export function instantiate(bytes, _imports) {\n")
	out.WriteString("let wasm_imports = {\nenv: {\n")
	out.WriteString(importsObject.String())
	out.WriteString("},\n};\n")
	out.WriteString("return WebAssembly.instantiate(bytes, wasm_imports).then(xform);\n")
	out.WriteString("}\n")

	return out.String(), nil
}

func extraFunctionTS(name string, paramCount int, hasResult bool) string {
	args := make([]string, paramCount)
	for i := range args {
		args[i] = fmt.Sprintf("arg%d: number", i)
	}
	ret := "void"
	if hasResult {
		ret = "number"
	}
	return fmt.Sprintf("%s(%s): %s;", name, strings.Join(args, ", "), ret)
}

// intrinsicNames returns the fixed, well-known intrinsic set in a stable
// order (spec.md §4.7 step 5).
func intrinsicNames() []string {
	names := []string{
		"__wbindgen_object_clone_ref",
		"__wbindgen_object_drop_ref",
		"__wbindgen_string_new",
		"__wbindgen_number_new",
		"__wbindgen_number_get",
		"__wbindgen_undefined_new",
		"__wbindgen_null_new",
		"__wbindgen_is_null",
		"__wbindgen_is_undefined",
		"__wbindgen_boolean_new",
		"__wbindgen_boolean_get",
		"__wbindgen_symbol_new",
		"__wbindgen_is_symbol",
		"__wbindgen_throw",
		"__wbindgen_string_get",
	}
	return names
}

// intrinsicBody returns the fixed implementation of a well-known intrinsic
// (spec.md §4.7 step 5), requesting whatever runtime snippets it needs.
func intrinsicBody(name string, rt *RuntimeLibrary, debug bool) string {
	switch name {
	case "__wbindgen_object_clone_ref":
		rt.ExposeAddHeapObject()
		rt.ExposeGetObject()
		bump := "heap_slab[idx >> 1].cnt += 1;"
		if debug {
			bump = `if (typeof(heap_slab[idx >> 1]) === 'number') throw new Error('corrupt slab');
    heap_slab[idx >> 1].cnt += 1;`
		}
		return fmt.Sprintf(`function(idx) {
    if ((idx & 1) === 1) return addHeapObject(getObject(idx));
    %s
    return idx;
}`, bump)

	case "__wbindgen_object_drop_ref":
		rt.ExposeDropRef()
		return "dropRef"

	case "__wbindgen_string_new":
		rt.ExposeAddHeapObject()
		rt.ExposeGetStringFromWasm()
		return "(p, l) => addHeapObject(getStringFromWasm(p, l))"

	case "__wbindgen_number_new":
		rt.ExposeAddHeapObject()
		return "addHeapObject"

	case "__wbindgen_number_get":
		rt.ExposeMemory()
		rt.ExposeGetObject()
		return `function(n, invalid) {
    const obj = getObject(n);
    if (typeof(obj) === 'number') return obj;
    (new Uint8Array(getMemory().buffer))[invalid] = 1;
    return 0;
}`

	case "__wbindgen_undefined_new":
		rt.ExposeAddHeapObject()
		return "() => addHeapObject(undefined)"

	case "__wbindgen_null_new":
		rt.ExposeAddHeapObject()
		return "() => addHeapObject(null)"

	case "__wbindgen_is_null":
		rt.ExposeGetObject()
		return "(idx) => getObject(idx) === null ? 1 : 0"

	case "__wbindgen_is_undefined":
		rt.ExposeGetObject()
		return "(idx) => getObject(idx) === undefined ? 1 : 0"

	case "__wbindgen_boolean_new":
		rt.ExposeAddHeapObject()
		return "(v) => addHeapObject(v === 1)"

	case "__wbindgen_boolean_get":
		rt.ExposeGetObject()
		return `(i) => {
    const v = getObject(i);
    if (typeof(v) === 'boolean') return v ? 1 : 0;
    return 2;
}`

	case "__wbindgen_symbol_new":
		rt.ExposeGetStringFromWasm()
		rt.ExposeAddHeapObject()
		return `(ptr, len) => {
    let a;
    if (ptr === 0) {
        a = Symbol();
    } else {
        a = Symbol(getStringFromWasm(ptr, len));
    }
    return addHeapObject(a);
}`

	case "__wbindgen_is_symbol":
		rt.ExposeGetObject()
		return "(i) => typeof(getObject(i)) === 'symbol' ? 1 : 0"

	case "__wbindgen_throw":
		rt.ExposeGetStringFromWasm()
		return `function(ptr, len) {
    throw new Error(getStringFromWasm(ptr, len));
}`

	case "__wbindgen_string_get":
		rt.ExposePassStringToWasm()
		rt.ExposeGetObject()
		rt.ExposeMemory()
		return `(i, len_ptr) => {
    const obj = getObject(i);
    if (typeof(obj) !== 'string') return 0;
    const [ptr, len] = passStringToWasm(obj);
    (new Uint32Array(getMemory().buffer))[len_ptr / 4] = len;
    return ptr;
}`
	}
	return ""
}
