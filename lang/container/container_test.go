package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironplc/ironplc-go/lang/container"
)

// steelThreadBytes builds the S1 scenario's container image: two i32
// constants, one function, one freewheeling task running one program.
// Grounded on
// original_source/compiler/container/src/container_ref.rs's
// steel_thread_bytes test fixture.
func steelThreadBytes(t *testing.T) []byte {
	t.Helper()
	bytecode := []byte{
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (10)
		0x18, 0x00, 0x00, // STORE_VAR_I32 var[0]
		0x10, 0x00, 0x00, // LOAD_VAR_I32 var[0]
		0x01, 0x01, 0x00, // LOAD_CONST_I32 pool[1] (32)
		0x30,             // ADD_I32
		0x18, 0x01, 0x00, // STORE_VAR_I32 var[1]
		0xB5, // RET_VOID
	}

	b := container.NewContainerBuilder().NumVariables(2)
	b.AddI32Constant(10)
	b.AddI32Constant(32)
	b.AddFunction(container.BuiltFunction{
		ID: 0, Bytecode: bytecode, MaxStackDepth: 2, NumLocals: 2,
	})
	b.AddTask(container.TaskEntry{
		TaskID: 0, Priority: 0, Type: container.TaskFreewheeling, Flags: container.TaskEnabled,
	})
	b.AddProgram(container.ProgramEntry{
		InstanceID: 0, TaskID: 0, EntryFunctionID: 0, VarTableCount: 2,
	})
	return b.Build()
}

func TestContainerRefFromSliceValidBytes(t *testing.T) {
	data := steelThreadBytes(t)
	count, err := container.ConstCount(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), count)

	offsets := make([]uint32, count)
	ref, err := container.FromSlice(data, offsets)
	require.NoError(t, err)

	assert.Equal(t, uint16(2), ref.Header().NumVariables)
	assert.Equal(t, uint16(1), ref.Header().NumFunctions)
	assert.Equal(t, uint16(2), ref.Header().MaxStackDepth)
}

func TestContainerRefFromSliceInvalidMagic(t *testing.T) {
	data := steelThreadBytes(t)
	data[0], data[1], data[2], data[3] = 0xFF, 0xFF, 0xFF, 0xFF

	offsets := make([]uint32, 16)
	_, err := container.FromSlice(data, offsets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P0027")
}

func TestContainerRefFromSliceTruncated(t *testing.T) {
	data := make([]byte, 100)
	offsets := make([]uint32, 16)
	_, err := container.FromSlice(data, offsets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P0028")
}

func TestContainerRefGetI32ConstantValidIndex(t *testing.T) {
	data := steelThreadBytes(t)
	count, err := container.ConstCount(data)
	require.NoError(t, err)
	offsets := make([]uint32, count)
	ref, err := container.FromSlice(data, offsets)
	require.NoError(t, err)

	v0, err := ref.GetI32Constant(0)
	require.NoError(t, err)
	assert.Equal(t, int32(10), v0)

	v1, err := ref.GetI32Constant(1)
	require.NoError(t, err)
	assert.Equal(t, int32(32), v1)
}

func TestContainerRefGetI32ConstantOutOfBounds(t *testing.T) {
	data := steelThreadBytes(t)
	count, err := container.ConstCount(data)
	require.NoError(t, err)
	offsets := make([]uint32, count)
	ref, err := container.FromSlice(data, offsets)
	require.NoError(t, err)

	_, err = ref.GetI32Constant(99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P0029")
}

func TestContainerRefGetFunctionBytecode(t *testing.T) {
	data := steelThreadBytes(t)
	count, err := container.ConstCount(data)
	require.NoError(t, err)
	offsets := make([]uint32, count)
	ref, err := container.FromSlice(data, offsets)
	require.NoError(t, err)

	bytecode, ok := ref.GetFunctionBytecode(0)
	require.True(t, ok)
	assert.Equal(t, byte(0x01), bytecode[0])
	assert.Equal(t, byte(0xB5), bytecode[len(bytecode)-1])
}

func TestContainerRefTaskEntry(t *testing.T) {
	data := steelThreadBytes(t)
	count, err := container.ConstCount(data)
	require.NoError(t, err)
	offsets := make([]uint32, count)
	ref, err := container.FromSlice(data, offsets)
	require.NoError(t, err)

	task, err := ref.TaskEntry(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), task.TaskID)
	assert.Equal(t, container.TaskFreewheeling, task.Type)
	assert.Equal(t, container.TaskEnabled, task.Flags)
}

func TestContainerRefProgramEntry(t *testing.T) {
	data := steelThreadBytes(t)
	count, err := container.ConstCount(data)
	require.NoError(t, err)
	offsets := make([]uint32, count)
	ref, err := container.FromSlice(data, offsets)
	require.NoError(t, err)

	prog, err := ref.ProgramEntry(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), prog.InstanceID)
	assert.Equal(t, uint16(0), prog.TaskID)
	assert.Equal(t, uint16(2), prog.VarTableCount)
}

// Heap reader parity with the zero-copy reader (spec §4.4 "Invariants":
// write → read → write is byte-identical).
func TestHeapContainerRoundTrip(t *testing.T) {
	data := steelThreadBytes(t)
	c, err := container.ParseContainer(data)
	require.NoError(t, err)

	assert.Equal(t, data, c.Bytes())
	v, err := c.I32Constant(1)
	require.NoError(t, err)
	assert.Equal(t, int32(32), v)

	bytecode, ok := c.FunctionBytecode(0)
	require.True(t, ok)
	assert.Len(t, bytecode, 17)
}

func TestConstantPoolDeduplicationAcrossBuilds(t *testing.T) {
	b := container.NewContainerBuilder()
	a := b.AddI32Constant(5)
	d := b.AddI32Constant(5)
	e := b.AddI32Constant(6)
	assert.Equal(t, a, d)
	assert.NotEqual(t, a, e)
}
