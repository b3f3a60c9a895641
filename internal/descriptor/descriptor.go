// Package descriptor loads the generator's two external inputs — the
// typed signature descriptor and the already-parsed wasm module metadata
// (spec.md §1 treats both the descriptor producer and the wasm module
// parser as external collaborators) — from a single YAML config file, and
// builds the glue package's Program/ModuleView/NameMapper from it.
package descriptor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tetratelabs/wazero-bindgen/api"
	"github.com/tetratelabs/wazero-bindgen/internal/glue"
)

// TypeSpec is the YAML-facing representation of a glue.HighLevelType.
type TypeSpec struct {
	Kind  string `yaml:"kind"`
	Class string `yaml:"class,omitempty"`
}

func (t TypeSpec) resolve() (glue.HighLevelType, error) {
	switch t.Kind {
	case "Number":
		return glue.TNumber(), nil
	case "Boolean":
		return glue.TBoolean(), nil
	case "BorrowedStr":
		return glue.TBorrowedStr(), nil
	case "OwnedStr":
		return glue.TOwnedStr(), nil
	case "JsObject":
		return glue.TJsObject(), nil
	case "JsObjectRef":
		return glue.TJsObjectRef(), nil
	case "ByRef":
		return glue.TByRef(t.Class), nil
	case "ByMutRef":
		return glue.TByMutRef(t.Class), nil
	case "ByValue":
		return glue.TByValue(t.Class), nil
	default:
		return glue.HighLevelType{}, fmt.Errorf("descriptor: unknown type kind %q", t.Kind)
	}
}

// FunctionSpec is the YAML-facing representation of a glue.Signature.
type FunctionSpec struct {
	Host   string     `yaml:"host"`
	Wasm   string     `yaml:"wasm"`
	Params []TypeSpec `yaml:"params,omitempty"`
	Result *TypeSpec  `yaml:"result,omitempty"`
}

func (f FunctionSpec) resolve(role glue.CallRole, class string) (glue.Signature, error) {
	params := make([]glue.HighLevelType, len(f.Params))
	for i, p := range f.Params {
		t, err := p.resolve()
		if err != nil {
			return glue.Signature{}, err
		}
		params[i] = t
	}
	var result *glue.HighLevelType
	if f.Result != nil {
		t, err := f.Result.resolve()
		if err != nil {
			return glue.Signature{}, err
		}
		result = &t
	}
	return glue.Signature{
		Role: role, Class: class,
		Params: params, Result: result,
		HostName: f.Host, WasmName: f.Wasm,
	}, nil
}

// StructSpec is the YAML-facing representation of a glue.StructDecl.
type StructSpec struct {
	Name    string         `yaml:"name"`
	Statics []FunctionSpec `yaml:"statics,omitempty"`
	Methods []FunctionSpec `yaml:"methods,omitempty"`
}

// ImportSpec is the YAML-facing representation of a glue.Import.
type ImportSpec struct {
	Host       string     `yaml:"host"`
	WasmModule string     `yaml:"wasmModule"`
	WasmName   string     `yaml:"wasmName"`
	Params     []TypeSpec `yaml:"params,omitempty"`
	Result     *TypeSpec  `yaml:"result,omitempty"`
}

// ModuleFunctionSpec is already-parsed metadata about one wasm import or
// export: enough for ModuleView without decoding the binary (spec.md §1
// treats the wasm module parser as an external, opaque accessor).
type ModuleFunctionSpec struct {
	Module    string `yaml:"module,omitempty"` // set for imports
	Name      string `yaml:"name"`
	Params    int    `yaml:"params"`
	HasResult bool   `yaml:"hasResult"`
}

// ModuleSpec is the already-parsed module metadata section.
type ModuleSpec struct {
	Exports []ModuleFunctionSpec `yaml:"exports,omitempty"`
	Imports []ModuleFunctionSpec `yaml:"imports,omitempty"`
	Memory  string                `yaml:"memory,omitempty"`
}

// Config is the full YAML config file consumed by cmd/wasmglue.
type Config struct {
	Debug     bool              `yaml:"debug"`
	NodeJS    bool              `yaml:"nodejs"`
	Out       string            `yaml:"out"`
	Wasm      string            `yaml:"wasm"`
	Functions []FunctionSpec    `yaml:"functions,omitempty"`
	Structs   []StructSpec      `yaml:"structs,omitempty"`
	Imports   []ImportSpec      `yaml:"imports,omitempty"`
	Module    ModuleSpec        `yaml:"module"`
	Renames   RenameSpec        `yaml:"renames,omitempty"`
}

// RenameSpec carries descriptor-name -> wasm-name overrides for NameMapper.
type RenameSpec struct {
	Exports map[string]string `yaml:"exports,omitempty"`
	Imports map[string]string `yaml:"imports,omitempty"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("descriptor: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Program resolves the typed descriptor section into a glue.Program.
func (c *Config) Program() (glue.Program, error) {
	var prog glue.Program
	for _, f := range c.Functions {
		sig, err := f.resolve(glue.FreeFunction, "")
		if err != nil {
			return prog, err
		}
		prog.Functions = append(prog.Functions, sig)
	}
	for _, s := range c.Structs {
		decl := glue.StructDecl{Name: s.Name}
		for _, f := range s.Statics {
			sig, err := f.resolve(glue.Static, s.Name)
			if err != nil {
				return prog, err
			}
			decl.Statics = append(decl.Statics, sig)
		}
		for _, f := range s.Methods {
			sig, err := f.resolve(glue.Method, s.Name)
			if err != nil {
				return prog, err
			}
			decl.Methods = append(decl.Methods, sig)
		}
		prog.Structs = append(prog.Structs, decl)
	}
	for _, imp := range c.Imports {
		params := make([]glue.HighLevelType, len(imp.Params))
		for i, p := range imp.Params {
			t, err := p.resolve()
			if err != nil {
				return prog, err
			}
			params[i] = t
		}
		var result *glue.HighLevelType
		if imp.Result != nil {
			t, err := imp.Result.resolve()
			if err != nil {
				return prog, err
			}
			result = &t
		}
		prog.Imports = append(prog.Imports, glue.Import{
			HostName: imp.Host, WasmModule: imp.WasmModule, WasmName: imp.WasmName,
			Params: params, Result: result,
		})
	}
	return prog, nil
}

// funcDef is a minimal api.FunctionDefinition backed by already-parsed
// metadata, not a live module.
type funcDef struct {
	name       string
	modName    string
	importName string
	isImport   bool
	exports    []string
	params     []api.ValueType
	results    []api.ValueType
}

func (f *funcDef) Name() string         { return f.name }
func (f *funcDef) ExportNames() []string { return f.exports }
func (f *funcDef) ParamTypes() []api.ValueType  { return f.params }
func (f *funcDef) ResultTypes() []api.ValueType { return f.results }
func (f *funcDef) Import() (string, string, bool) {
	return f.modName, f.importName, f.isImport
}

func paramTypes(n int) []api.ValueType {
	types := make([]api.ValueType, n)
	for i := range types {
		types[i] = api.ValueTypeI32
	}
	return types
}

func resultTypes(hasResult bool) []api.ValueType {
	if hasResult {
		return []api.ValueType{api.ValueTypeI32}
	}
	return nil
}

// ModuleView builds a glue.ModuleView from the already-parsed metadata
// section of the config.
func (c *Config) ModuleView() *glue.ModuleView {
	exports := make([]api.FunctionDefinition, len(c.Module.Exports))
	for i, e := range c.Module.Exports {
		exports[i] = &funcDef{
			name:    e.Name,
			exports: []string{e.Name},
			params:  paramTypes(e.Params),
			results: resultTypes(e.HasResult),
		}
	}
	imports := make([]api.FunctionDefinition, len(c.Module.Imports))
	for i, im := range c.Module.Imports {
		imports[i] = &funcDef{
			name:       im.Name,
			modName:    im.Module,
			importName: im.Name,
			isImport:   true,
			params:     paramTypes(im.Params),
			results:    resultTypes(im.HasResult),
		}
	}
	var mem *api.MemoryDefinition
	if c.Module.Memory != "" {
		mem = &api.MemoryDefinition{ExportName: c.Module.Memory}
	}
	return glue.NewModuleView(imports, exports, mem)
}

// NameMapper builds a glue.NameMapper from the config's rename tables.
func (c *Config) NameMapper() *glue.NameMapper {
	return glue.NewNameMapper(c.Renames.Exports, c.Renames.Imports)
}
