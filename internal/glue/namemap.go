package glue

// NameMapper is a bidirectional mapping between descriptor-side (original)
// symbol names and wasm-side (possibly renamed/minified) symbol names
// (spec.md §4.2). With no renames registered it behaves as the identity.
type NameMapper struct {
	exportToWasm map[string]string
	wasmToExport map[string]string
	importToWasm map[string]string
	wasmToImport map[string]string
}

// NewNameMapper builds a mapper from explicit rename tables. A nil or
// missing entry is treated as an identity mapping for that name.
func NewNameMapper(exportRenames, importRenames map[string]string) *NameMapper {
	m := &NameMapper{
		exportToWasm: map[string]string{},
		wasmToExport: map[string]string{},
		importToWasm: map[string]string{},
		wasmToImport: map[string]string{},
	}
	for orig, wasm := range exportRenames {
		m.exportToWasm[orig] = wasm
		m.wasmToExport[wasm] = orig
	}
	for orig, wasm := range importRenames {
		m.importToWasm[orig] = wasm
		m.wasmToImport[wasm] = orig
	}
	return m
}

// ExportName returns the wasm-side export symbol for an original name.
func (m *NameMapper) ExportName(original string) string {
	if w, ok := m.exportToWasm[original]; ok {
		return w
	}
	return original
}

// ImportName returns the wasm-side import symbol for an original name.
func (m *NameMapper) ImportName(original string) string {
	if w, ok := m.importToWasm[original]; ok {
		return w
	}
	return original
}

// OrigExportName reverse-looks-up a wasm export symbol.
func (m *NameMapper) OrigExportName(wasm string) string {
	if o, ok := m.wasmToExport[wasm]; ok {
		return o
	}
	return wasm
}

// OrigImportName reverse-looks-up a wasm import symbol.
func (m *NameMapper) OrigImportName(wasm string) string {
	if o, ok := m.wasmToImport[wasm]; ok {
		return o
	}
	return wasm
}
