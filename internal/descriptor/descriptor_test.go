package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/wazero-bindgen/internal/glue"
)

const sampleYAML = `
debug: true
nodejs: false
wasm: testdata/greet.wasm
functions:
  - host: greet
    wasm: greet
    params:
      - kind: BorrowedStr
    result:
      kind: OwnedStr
structs:
  - name: Counter
    statics:
      - host: new
        wasm: counter_new
        result:
          kind: ByValue
          class: Counter
    methods:
      - host: add
        wasm: counter_add
        params:
          - kind: Number
        result:
          kind: Number
imports:
  - host: log
    wasmModule: env
    wasmName: log
    params:
      - kind: BorrowedStr
module:
  memory: memory
  exports:
    - name: greet
      params: 2
      hasResult: true
    - name: counter_new
      params: 0
      hasResult: true
    - name: counter_add
      params: 1
      hasResult: true
  imports:
    - module: env
      name: log
      params: 2
renames:
  exports:
    greet: __greet_renamed
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_ParsesConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.True(t, cfg.Debug)
	require.Equal(t, "testdata/greet.wasm", cfg.Wasm)
	require.Len(t, cfg.Functions, 1)
	require.Len(t, cfg.Structs, 1)
	require.Len(t, cfg.Imports, 1)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfig_ProgramResolvesTypedSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	prog, err := cfg.Program()
	require.NoError(t, err)

	require.Len(t, prog.Functions, 1)
	greet := prog.Functions[0]
	require.Equal(t, glue.FreeFunction, greet.Role)
	require.Equal(t, "greet", greet.HostName)
	require.Equal(t, glue.BorrowedStr, greet.Params[0].Kind)
	require.Equal(t, glue.OwnedStr, greet.Result.Kind)

	require.Len(t, prog.Structs, 1)
	counter := prog.Structs[0]
	require.Equal(t, "Counter", counter.Name)
	require.Len(t, counter.Statics, 1)
	require.Equal(t, glue.Static, counter.Statics[0].Role)
	require.Equal(t, glue.ByValue, counter.Statics[0].Result.Kind)
	require.Len(t, counter.Methods, 1)
	require.Equal(t, glue.Method, counter.Methods[0].Role)
	require.Equal(t, "Counter", counter.Methods[0].Class)

	require.Len(t, prog.Imports, 1)
	require.Equal(t, "log", prog.Imports[0].HostName)
	require.Equal(t, "env", prog.Imports[0].WasmModule)
}

func TestConfig_ProgramRejectsUnknownTypeKind(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
functions:
  - host: f
    wasm: f
    params:
      - kind: NotAType
`))
	require.NoError(t, err)
	_, err = cfg.Program()
	require.Error(t, err)
}

func TestConfig_ModuleViewBuildsExportsImportsAndMemory(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	mv := cfg.ModuleView()
	require.True(t, mv.HasMemoryExport())
	name, ok := mv.MemoryExportName()
	require.True(t, ok)
	require.Equal(t, "memory", name)

	fn, ok := mv.ExportByWasmName("greet")
	require.True(t, ok)
	paramCount, hasResult := mv.FunctionType(fn)
	require.Equal(t, 2, paramCount)
	require.True(t, hasResult)

	_, ok = mv.ImportByWasmName("env", "log")
	require.True(t, ok)
}

func TestConfig_NameMapperAppliesRenames(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	mapper := cfg.NameMapper()
	require.Equal(t, "__greet_renamed", mapper.ExportName("greet"))
	require.Equal(t, "greet", mapper.OrigExportName("__greet_renamed"))
	require.Equal(t, "other", mapper.ExportName("other"))
}
