package glue

import (
	"fmt"
	"strings"
)

// ImportShimCompiler wraps a user-supplied host callback so it can be
// invoked from wasm with integer arguments (spec.md §4.5). It is the
// contravariant mirror of SignatureCompiler: rich values flow in from the
// wasm-integer side instead of out to it.
type ImportShimCompiler struct {
	Runtime *RuntimeLibrary
	Debug   bool
}

func NewImportShimCompiler(rt *RuntimeLibrary, debug bool) *ImportShimCompiler {
	return &ImportShimCompiler{Runtime: rt, Debug: debug}
}

// Compile produces (shimBody, typeSignature, err) for imp (spec.md §4.5).
// shimBody is a wasm-callable function named "<hostName>_shim" that decodes
// its integer arguments and forwards to `_imports.<hostName>(...)`.
func (c *ImportShimCompiler) Compile(imp Import) (string, string, error) {
	var shim strings.Builder
	var typeSig strings.Builder
	var invocation []string
	var shimParams []string

	fmt.Fprintf(&shim, "function %s_shim(", imp.HostName)
	fmt.Fprintf(&typeSig, "%s(", imp.HostName)

	for i, arg := range imp.Params {
		if i > 0 {
			typeSig.WriteString(", ")
		}
		fmt.Fprintf(&typeSig, "arg%d: ", i)

		switch arg.Kind {
		case Number:
			typeSig.WriteString("number")
			invocation = append(invocation, fmt.Sprintf("arg%d", i))
			shimParams = append(shimParams, fmt.Sprintf("arg%d: number", i))

		case Boolean:
			typeSig.WriteString("boolean")
			invocation = append(invocation, fmt.Sprintf("arg%d != 0", i))
			shimParams = append(shimParams, fmt.Sprintf("arg%d: number", i))

		case BorrowedStr:
			typeSig.WriteString("string")
			c.Runtime.ExposeGetStringFromWasm()
			invocation = append(invocation, fmt.Sprintf("getStringFromWasm(ptr%d, len%d)", i, i))
			shimParams = append(shimParams, fmt.Sprintf("ptr%d: number, len%d: number", i, i))

		case JsObject:
			typeSig.WriteString("any")
			c.Runtime.ExposeTakeObject()
			invocation = append(invocation, fmt.Sprintf("takeObject(arg%d)", i))
			shimParams = append(shimParams, fmt.Sprintf("arg%d: number", i))

		case JsObjectRef:
			typeSig.WriteString("any")
			c.Runtime.ExposeGetObject()
			invocation = append(invocation, fmt.Sprintf("getObject(arg%d)", i))
			shimParams = append(shimParams, fmt.Sprintf("arg%d: number", i))

		default:
			return "", "", fmt.Errorf("glue: %s is not supported in an import", arg)
		}
	}
	shim.WriteString(strings.Join(shimParams, ", "))
	shim.WriteString("): ")
	typeSig.WriteString("): ")

	invoc := fmt.Sprintf("_imports.%s(%s)", imp.HostName, strings.Join(invocation, ", "))

	switch {
	case imp.Result == nil:
		typeSig.WriteString("void")
		shim.WriteString("void")
	case imp.Result.Kind == Number:
		typeSig.WriteString("number")
		shim.WriteString("number")
	case imp.Result.Kind == Boolean:
		typeSig.WriteString("boolean")
		shim.WriteString("number")
		invoc = fmt.Sprintf("%s ? 1 : 0", invoc)
	case imp.Result.Kind == JsObject:
		typeSig.WriteString("any")
		shim.WriteString("number")
		c.Runtime.ExposeAddHeapObject()
		invoc = fmt.Sprintf("addHeapObject(%s)", invoc)
	default:
		return "", "", fmt.Errorf("glue: %s is not a supported import return type", *imp.Result)
	}
	typeSig.WriteString(";")

	fmt.Fprintf(&shim, " {\nreturn %s;\n}", invoc)

	return shim.String(), typeSig.String(), nil
}
