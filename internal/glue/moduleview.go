package glue

import "github.com/tetratelabs/wazero-bindgen/api"

// ModuleView is a read-only accessor over a compiled wasm module's
// imports, exports, function types, and memory descriptor (spec.md §4.1).
// Parsing the wasm binary itself is out of scope (§1); callers build a
// ModuleView from metadata already produced by a wasm module parser.
type ModuleView struct {
	imports []api.FunctionDefinition
	exports []api.FunctionDefinition
	memory  *api.MemoryDefinition
}

// NewModuleView builds a view over already-parsed module metadata, in the
// order the parser produced it (tie-break: spec.md §4.1 preserves module
// order for exports).
func NewModuleView(imports, exports []api.FunctionDefinition, memory *api.MemoryDefinition) *ModuleView {
	return &ModuleView{imports: imports, exports: exports, memory: memory}
}

// Imports returns every function this module imports, in module order.
func (m *ModuleView) Imports() []api.FunctionDefinition { return m.imports }

// Exports returns every function this module exports, in module order.
func (m *ModuleView) Exports() []api.FunctionDefinition { return m.exports }

// FunctionType returns (paramCount, hasResult) for fn
// (spec.md §4.1: "a pair (param count, returns value?)").
func (m *ModuleView) FunctionType(fn api.FunctionDefinition) (paramCount int, hasResult bool) {
	return len(fn.ParamTypes()), len(fn.ResultTypes()) > 0
}

// HasMemoryExport reports whether the module exports a linear memory.
func (m *ModuleView) HasMemoryExport() bool { return m.memory != nil }

// MemoryExportName surfaces the single memory export's name, if present.
// The Assembler does not call it and emits no typed memory field; the
// generated glue always reads the memory from the export named "memory".
func (m *ModuleView) MemoryExportName() (string, bool) {
	if m.memory == nil {
		return "", false
	}
	return m.memory.ExportName, true
}

// ImportByWasmName finds an imported function by its (module, name) pair,
// used by the Assembler to check whether a descriptor-declared import
// actually survived in the wasm binary (spec.md §4.7 step 4).
func (m *ModuleView) ImportByWasmName(moduleName, name string) (api.FunctionDefinition, bool) {
	for _, f := range m.imports {
		mod, n, isImport := f.Import()
		if isImport && mod == moduleName && n == name {
			return f, true
		}
	}
	return nil, false
}

// ExportByWasmName finds an exported function by its wasm export name.
func (m *ModuleView) ExportByWasmName(name string) (api.FunctionDefinition, bool) {
	for _, f := range m.exports {
		for _, en := range f.ExportNames() {
			if en == name {
				return f, true
			}
		}
	}
	return nil, false
}
