package glue

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/wazero-bindgen/api"
)

func TestAssembler_EndToEndGreet(t *testing.T) {
	result := TOwnedStr()
	prog := Program{
		Functions: []Signature{
			{Role: FreeFunction, HostName: "greet", WasmName: "greet", Params: []HighLevelType{TBorrowedStr()}, Result: &result},
		},
	}

	exports := []api.FunctionDefinition{
		&stubFunc{name: "greet", exports: []string{"greet"}, params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, results: []api.ValueType{api.ValueTypeI32}},
		&stubFunc{name: "__wbindgen_free", exports: []string{"__wbindgen_free"}},
		&stubFunc{name: "__wbindgen_boxed_str_ptr", exports: []string{"__wbindgen_boxed_str_ptr"}},
		&stubFunc{name: "__wbindgen_boxed_str_len", exports: []string{"__wbindgen_boxed_str_len"}},
		&stubFunc{name: "__wbindgen_boxed_str_free", exports: []string{"__wbindgen_boxed_str_free"}},
		&stubFunc{name: "side_helper", exports: []string{"side_helper"}, params: []api.ValueType{api.ValueTypeI32}},
	}
	mv := NewModuleView(nil, exports, &api.MemoryDefinition{ExportName: "memory"})
	mapper := NewNameMapper(nil, nil)

	asm := &Assembler{Debug: false, NodeJS: false, Emit: EmitTypeScript}
	out, err := asm.Assemble(prog, mv, mapper)
	require.NoError(t, err)

	require.Contains(t, out, "export function instantiate(bytes, _imports) {")
	require.Contains(t, out, "greet(arg0) {")
	require.NotContains(t, out, "greet: greet(arg0)")
	require.Contains(t, out, "module,\ninstance,")
	require.Contains(t, out, "instance: WebAssembly.Instance;")
	require.Contains(t, out, "export interface ExtraExports {")
	require.Contains(t, out, "side_helper(arg0: number): void;")
	require.Contains(t, out, "extra: {\nside_helper: exports.side_helper,")
	require.NotContains(t, out, "__wbindgen_free(arg0: number): void;") // internal exports never surfaced as extras
}

func TestAssembler_DebugExposesAssertHeapAndStackEmpty(t *testing.T) {
	prog := Program{}
	mv := NewModuleView(nil, nil, nil)
	mapper := NewNameMapper(nil, nil)

	asm := &Assembler{Debug: true, Emit: EmitTypeScript}
	out, err := asm.Assemble(prog, mv, mapper)
	require.NoError(t, err)
	require.Contains(t, out, "assertHeapAndStackEmpty(): void;")
	require.Contains(t, out, "assertHeapAndStackEmpty: function() {")
	require.Contains(t, out, "stack is not empty")
}

func TestAssembler_BindsIntrinsicOnlyWhenModuleImportsIt(t *testing.T) {
	prog := Program{}
	imports := []api.FunctionDefinition{
		&stubFunc{name: "__wbindgen_throw", modName: "env", importName: "__wbindgen_throw", isImport: true, params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}},
	}
	mv := NewModuleView(imports, nil, nil)
	mapper := NewNameMapper(nil, nil)

	asm := &Assembler{Emit: EmitTypeScript}
	out, err := asm.Assemble(prog, mv, mapper)
	require.NoError(t, err)
	require.Contains(t, out, "__wbindgen_throw: function(ptr, len) {")
	require.NotContains(t, out, "__wbindgen_object_clone_ref:")
}

func TestAssembler_DebugSymbolNewTracesThroughLogger(t *testing.T) {
	prog := Program{}
	imports := []api.FunctionDefinition{
		&stubFunc{name: "__wbindgen_symbol_new", modName: "env", importName: "__wbindgen_symbol_new", isImport: true, params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, results: []api.ValueType{api.ValueTypeI32}},
	}
	mv := NewModuleView(imports, nil, nil)
	mapper := NewNameMapper(nil, nil)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	asm := &Assembler{Logger: logger, Debug: true, Emit: EmitTypeScript}
	out, err := asm.Assemble(prog, mv, mapper)
	require.NoError(t, err)
	require.Contains(t, out, "__wbindgen_symbol_new: (ptr, len) => {")
	require.NotContains(t, out, "console.log")

	found := false
	for _, e := range hook.AllEntries() {
		if e.Data["intrinsic"] == "__wbindgen_symbol_new" && e.Level == logrus.DebugLevel {
			found = true
		}
	}
	require.True(t, found, "expected the symbol_new trace to surface through the ambient logger")
}

func TestAssembler_JavaScriptModeOmitsTypeInterfaces(t *testing.T) {
	prog := Program{}
	mv := NewModuleView(nil, nil, nil)
	mapper := NewNameMapper(nil, nil)

	asm := &Assembler{Emit: EmitJavaScript}
	out, err := asm.Assemble(prog, mv, mapper)
	require.NoError(t, err)
	require.NotContains(t, out, "export interface Exports")
	require.Contains(t, out, "export function instantiate(bytes, _imports) {")
}
