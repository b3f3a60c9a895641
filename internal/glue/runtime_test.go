package glue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuntimeLibrary_IdempotentInstall(t *testing.T) {
	rt := NewRuntimeLibrary()
	rt.ExposeSlab()
	rt.ExposeSlab()
	rt.ExposeSlab()

	rendered := rt.Render(false, false)
	require.Equal(t, 1, strings.Count(rendered, "heap_slab = []"))
}

func TestRuntimeLibrary_DependenciesInstallBeforeDependent(t *testing.T) {
	rt := NewRuntimeLibrary()
	rt.ExposeTakeObject()

	require.True(t, rt.Installed(SnipTakeObject))
	require.True(t, rt.Installed(SnipGetObject))
	require.True(t, rt.Installed(SnipDropRef))
	require.True(t, rt.Installed(SnipSlab))
	require.True(t, rt.Installed(SnipStack))

	rendered := rt.Render(false, false)
	getObjIdx := strings.Index(rendered, "function getObject")
	dropRefIdx := strings.Index(rendered, "function dropRef")
	takeObjIdx := strings.Index(rendered, "function takeObject")
	require.Greater(t, takeObjIdx, getObjIdx)
	require.Greater(t, takeObjIdx, dropRefIdx)
}

func TestRuntimeLibrary_DebugAddsAssertions(t *testing.T) {
	rt := NewRuntimeLibrary()
	rt.ExposeAssertNum()
	require.Contains(t, rt.Render(true, false), "expected a number argument")
	require.NotContains(t, rt.Render(false, false), "expected a number argument")
}

func TestRuntimeLibrary_PassStringToWasmVariesByNodeJS(t *testing.T) {
	rt := NewRuntimeLibrary()
	rt.ExposePassStringToWasm()

	require.Contains(t, rt.Render(false, true), "require('util')")
	require.NotContains(t, rt.Render(false, false), "require('util')")
}

func TestRuntimeLibrary_DropRefDebugRejectsStackHandle(t *testing.T) {
	rt := NewRuntimeLibrary()
	rt.ExposeDropRef()
	require.Contains(t, rt.Render(true, false), "cannot drop ref of stack objects")
}

func TestRuntimeLibrary_GetObjectDebugDetectsCorruptSlab(t *testing.T) {
	rt := NewRuntimeLibrary()
	rt.ExposeGetObject()
	require.Contains(t, rt.Render(true, false), "corrupt slab")
	require.NotContains(t, rt.Render(false, false), "corrupt slab")
}

func TestRuntimeLibrary_AddHeapObjectDebugDetectsCorruptFreelist(t *testing.T) {
	rt := NewRuntimeLibrary()
	rt.ExposeAddHeapObject()
	require.Contains(t, rt.Render(true, false), "corrupt slab")
	require.NotContains(t, rt.Render(false, false), "corrupt slab")
}
