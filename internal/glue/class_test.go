package glue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassEmitter_EmitsConstructorFreeAndMembers(t *testing.T) {
	rt := NewRuntimeLibrary()
	sig := NewSignatureCompiler(rt, false)
	ce := NewClassEmitter(rt, sig, false)
	mapper := NewNameMapper(nil, nil)

	ctorRet := TByValue("Counter")
	addRet := TNumber()
	decl := StructDecl{
		Name: "Counter",
		Statics: []Signature{
			{HostName: "new", WasmName: "counter_new", Result: &ctorRet},
		},
		Methods: []Signature{
			{HostName: "add", WasmName: "counter_add", Params: []HighLevelType{TNumber()}, Result: &addRet},
		},
	}

	body, err := ce.Emit(decl, mapper)
	require.NoError(t, err)
	require.Contains(t, body, "export class Counter {")
	require.Contains(t, body, "constructor(public ptr) {}")
	require.Contains(t, body, "free() {")
	require.Contains(t, body, "const ptr = this.ptr;")
	require.Contains(t, body, "this.ptr = 0;")
	require.Contains(t, body, "wasm_exports.__wbg_counter_free(ptr);")
	require.Contains(t, body, "wasm_exports.counter_new(")
	require.Contains(t, body, "wasm_exports.counter_add(this.ptr, arg0)")
	require.True(t, sig.Bound["__wbg_counter_free"])
}

func TestClassEmitter_DebugConstructorGate(t *testing.T) {
	rt := NewRuntimeLibrary()
	sig := NewSignatureCompiler(rt, true)
	ce := NewClassEmitter(rt, sig, true)
	mapper := NewNameMapper(nil, nil)

	body, err := ce.Emit(StructDecl{Name: "Widget"}, mapper)
	require.NoError(t, err)
	require.Contains(t, body, "_checkToken(sym);")
	require.True(t, rt.Installed(SnipCheckToken))
}

func TestClassEmitter_FreeExportNameHonorsRenames(t *testing.T) {
	rt := NewRuntimeLibrary()
	sig := NewSignatureCompiler(rt, false)
	ce := NewClassEmitter(rt, sig, false)
	mapper := NewNameMapper(map[string]string{"__wbg_widget_free": "a"}, nil)

	body, err := ce.Emit(StructDecl{Name: "Widget"}, mapper)
	require.NoError(t, err)
	require.Contains(t, body, "wasm_exports.a(ptr);")
}
