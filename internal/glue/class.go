package glue

import (
	"fmt"
	"strings"
)

// ClassEmitter emits a host-language class per opaque struct: constructor,
// explicit destructor (free), static functions, and instance methods
// (spec.md §4.6). Each function body is delegated to SignatureCompiler.
type ClassEmitter struct {
	Runtime *RuntimeLibrary
	Sig     *SignatureCompiler
	Debug   bool
}

func NewClassEmitter(rt *RuntimeLibrary, sig *SignatureCompiler, debug bool) *ClassEmitter {
	return &ClassEmitter{Runtime: rt, Sig: sig, Debug: debug}
}

// freeExportName derives the struct's implicit free-export wasm name
// (spec.md §3: "Has an implicit `free` export whose name is derived from
// the struct's name").
func freeExportName(structName string) string {
	return fmt.Sprintf("__wbg_%s_free", strings.ToLower(structName))
}

// Emit produces the class body for decl, mapping the free export's
// original name through mapper (spec.md §4.6).
func (e *ClassEmitter) Emit(decl StructDecl, mapper *NameMapper) (string, error) {
	e.Runtime.ExposeWasmExports()

	var b strings.Builder
	fmt.Fprintf(&b, "export class %s {\n", decl.Name)

	if e.Debug {
		e.Runtime.ExposeCheckToken()
		b.WriteString("constructor(public ptr, sym) {\n_checkToken(sym);\n}\n")
	} else {
		b.WriteString("constructor(public ptr) {}\n")
	}

	wasmFree := mapper.ExportName(freeExportName(decl.Name))
	e.Sig.bind(wasmFree)
	fmt.Fprintf(&b, "free() {\nconst ptr = this.ptr;\nthis.ptr = 0;\nwasm_exports.%s(ptr);\n}\n", wasmFree)

	for _, fn := range decl.Statics {
		fn.Role = Static
		fn.Class = decl.Name
		body, _, err := e.Sig.Compile(fn)
		if err != nil {
			return "", fmt.Errorf("glue: static %s.%s: %w", decl.Name, fn.HostName, err)
		}
		b.WriteString("static ")
		b.WriteString(body)
		b.WriteString("\n")
	}
	for _, fn := range decl.Methods {
		fn.Role = Method
		fn.Class = decl.Name
		body, _, err := e.Sig.Compile(fn)
		if err != nil {
			return "", fmt.Errorf("glue: method %s.%s: %w", decl.Name, fn.HostName, err)
		}
		b.WriteString(body)
		b.WriteString("\n")
	}

	b.WriteString("}\n")
	return b.String(), nil
}
