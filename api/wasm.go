// Package api contains the small vocabulary shared by the glue generator
// and its callers: wasm value types and read-only metadata about a
// compiled wasm module's functions and memory.
//
// This is a trimmed, renamed copy of wazero's api.ValueType /
// api.FunctionDefinition surface. The module decoder/interpreter that
// produces values satisfying these interfaces is out of scope for this
// repository (see spec.md §1) — callers supply already-parsed metadata.
package api

import "fmt"

// ValueType describes a numeric type used on the wasm side of the ABI.
// Every high-level marshalling protocol bottoms out in these.
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the wasm text-format name of a ValueType.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return fmt.Sprintf("%#x", t)
}

// FunctionDefinition is a wasm function imported or exported by a module.
//
// Note: this is metadata only. Invocation is out of scope (§1) — the
// generator never calls the function it describes, it only emits code
// that a host runtime will later use to call it.
type FunctionDefinition interface {
	// Name is the function's name in the module's function index namespace.
	Name() string

	// Import returns the (moduleName, name) this function is imported under,
	// and whether it is an import at all.
	Import() (moduleName, name string, isImport bool)

	// ExportNames are the names under which this function is exported. Empty
	// if the function is not exported.
	ExportNames() []string

	// ParamTypes are the wasm-level parameter types, imports and exports
	// alike always integer/float — never a rich type.
	ParamTypes() []ValueType

	// ResultTypes are the wasm-level result types. At most one per the wasm
	// MVP this generator targets (spec.md §4.1).
	ResultTypes() []ValueType
}

// MemoryDefinition describes a module's exported linear memory, if any.
type MemoryDefinition struct {
	// ExportName is the name the memory is exported under, e.g. "memory".
	ExportName string
	MinPages   uint32
	MaxPages   uint32
	HasMax     bool
}
