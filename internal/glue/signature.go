package glue

import (
	"fmt"
	"strings"
)

// Well-known wasm intrinsic names used by generated call sites (spec.md §4.7).
const (
	wbindgenFree         = "__wbindgen_free"
	wbindgenBoxedStrPtr  = "__wbindgen_boxed_str_ptr"
	wbindgenBoxedStrLen  = "__wbindgen_boxed_str_len"
	wbindgenBoxedStrFree = "__wbindgen_boxed_str_free"
)

// SignatureCompiler compiles a high-level Signature into a host-language
// function body plus its type annotation (spec.md §4.4). It is stateful
// only in that it tracks which wasm exports it has emitted calls to, so
// the Assembler can omit them from the "extras" passthrough.
type SignatureCompiler struct {
	Runtime *RuntimeLibrary
	Debug   bool
	Bound   map[string]bool
}

// NewSignatureCompiler returns a compiler sharing rt for snippet requests.
func NewSignatureCompiler(rt *RuntimeLibrary, debug bool) *SignatureCompiler {
	return &SignatureCompiler{Runtime: rt, Debug: debug, Bound: map[string]bool{}}
}

func (c *SignatureCompiler) bind(wasmExport string) {
	c.Bound[wasmExport] = true
}

// Compile produces (body, typeSignature, err) for sig (spec.md §4.4).
func (c *SignatureCompiler) Compile(sig Signature) (string, string, error) {
	var typeSig strings.Builder
	var argConversions strings.Builder
	var destructors strings.Builder
	var passedArgs []string

	typeSig.WriteString(sig.HostName)
	typeSig.WriteString("(")

	if sig.Role == Method {
		passedArgs = append(passedArgs, "this.ptr")
	}

	for i, arg := range sig.Params {
		name := fmt.Sprintf("arg%d", i)
		if i > 0 {
			typeSig.WriteString(", ")
		}
		typeSig.WriteString(name)
		typeSig.WriteString(": ")

		pass := func(expr string) { passedArgs = append(passedArgs, expr) }

		switch arg.Kind {
		case Number:
			typeSig.WriteString("number")
			if c.Debug {
				c.Runtime.ExposeAssertNum()
				fmt.Fprintf(&argConversions, "_assertNum(%s);\n", name)
			}
			pass(name)

		case Boolean:
			typeSig.WriteString("boolean")
			if c.Debug {
				c.Runtime.ExposeAssertBool()
				fmt.Fprintf(&argConversions, "_assertBoolean(%s);\n", name)
			}
			pass(fmt.Sprintf("%s ? 1 : 0", name))

		case BorrowedStr, OwnedStr:
			typeSig.WriteString("string")
			c.Runtime.ExposePassStringToWasm()
			fmt.Fprintf(&argConversions, "const [ptr%d, len%d] = passStringToWasm(%s);\n", i, i, name)
			pass(fmt.Sprintf("ptr%d", i))
			pass(fmt.Sprintf("len%d", i))
			if arg.Kind == BorrowedStr {
				c.Runtime.ExposeWasmExports()
				c.bind(wbindgenFree)
				fmt.Fprintf(&destructors, "\nwasm_exports.%s(ptr%d, len%d);\n", wbindgenFree, i, i)
			}

		case ByRef, ByMutRef:
			typeSig.WriteString(arg.Class)
			if c.Debug {
				c.Runtime.ExposeAssertClass()
				fmt.Fprintf(&argConversions, "_assertClass(%s, %s);\n", name, arg.Class)
			}
			pass(fmt.Sprintf("%s.ptr", name))

		case ByValue:
			typeSig.WriteString(arg.Class)
			if c.Debug {
				c.Runtime.ExposeAssertClass()
				fmt.Fprintf(&argConversions, "_assertClass(%s, %s);\n", name, arg.Class)
			}
			fmt.Fprintf(&argConversions, "const ptr%d = %s.ptr;\n%s.ptr = 0;\n", i, name, name)
			pass(fmt.Sprintf("ptr%d", i))

		case JsObject:
			typeSig.WriteString("any")
			c.Runtime.ExposeAddHeapObject()
			fmt.Fprintf(&argConversions, "const idx%d = addHeapObject(%s);\n", i, name)
			pass(fmt.Sprintf("idx%d", i))

		case JsObjectRef:
			typeSig.WriteString("any")
			c.Runtime.ExposeAddBorrowedObject()
			fmt.Fprintf(&argConversions, "const idx%d = addBorrowedObject(%s);\n", i, name)
			destructors.WriteString("borrowed_stack.pop();\n")
			pass(fmt.Sprintf("idx%d", i))

		default:
			return "", "", fmt.Errorf("glue: %s is not valid as a parameter type", arg)
		}
	}
	typeSig.WriteString("): ")

	convertRet, err := c.compileReturn(sig.Result, &typeSig)
	if err != nil {
		return "", "", err
	}
	typeSig.WriteString(";")

	var body strings.Builder
	body.WriteString(sig.HostName)
	body.WriteString("(")
	for i := range sig.Params {
		if i > 0 {
			body.WriteString(", ")
		}
		fmt.Fprintf(&body, "arg%d", i)
	}
	body.WriteString(") {\n")
	body.WriteString(argConversions.String())

	c.Runtime.ExposeWasmExports()
	c.bind(sig.WasmName)
	passed := strings.Join(passedArgs, ", ")

	if destructors.Len() == 0 {
		fmt.Fprintf(&body, "const ret = wasm_exports.%s(%s);\n%s\n", sig.WasmName, passed, convertRet)
	} else {
		fmt.Fprintf(&body, "try {\nconst ret = wasm_exports.%s(%s);\n%s\n} finally {\n%s\n}\n", sig.WasmName, passed, convertRet, destructors.String())
	}
	body.WriteString("}")

	return body.String(), typeSig.String(), nil
}

// compileReturn writes the return type annotation into typeSig and returns
// the conversion statement that follows the `const ret = ...` call
// (spec.md §4.4 Return processing).
func (c *SignatureCompiler) compileReturn(ret *HighLevelType, typeSig *strings.Builder) (string, error) {
	if ret == nil {
		typeSig.WriteString("void")
		return "return;", nil
	}
	if !ret.validAsReturn() {
		return "", fmt.Errorf("glue: %s is not valid as a return type", *ret)
	}
	switch ret.Kind {
	case Number:
		typeSig.WriteString("number")
		return "return ret;", nil
	case Boolean:
		typeSig.WriteString("boolean")
		return "return ret !== 0;", nil
	case JsObject:
		typeSig.WriteString("any")
		c.Runtime.ExposeTakeObject()
		return "return takeObject(ret);", nil
	case ByValue:
		typeSig.WriteString(ret.Class)
		if c.Debug {
			return fmt.Sprintf("return new %s(ret, __wbg_construct_token);", ret.Class), nil
		}
		return fmt.Sprintf("return new %s(ret);", ret.Class), nil
	case OwnedStr:
		typeSig.WriteString("string")
		c.Runtime.ExposeGetStringFromWasm()
		c.Runtime.ExposeWasmExports()
		c.bind(wbindgenBoxedStrPtr)
		c.bind(wbindgenBoxedStrLen)
		c.bind(wbindgenBoxedStrFree)
		return fmt.Sprintf(`const ptr = wasm_exports.%s(ret);
const len = wasm_exports.%s(ret);
const realRet = getStringFromWasm(ptr, len);
wasm_exports.%s(ret);
return realRet;`, wbindgenBoxedStrPtr, wbindgenBoxedStrLen, wbindgenBoxedStrFree), nil
	default:
		return "", fmt.Errorf("glue: %s is not valid as a return type", *ret)
	}
}
