package container

// Container is the heap-allocated reader: it owns a copy of the image and
// a fully-scanned constant offset table, trading the zero-copy reader's
// allocation-free guarantee for a simpler API, for use by the compiler and
// tooling rather than the embedded VM (spec §4.4 "Heap reader").
type Container struct {
	data []byte
	ref  *ContainerRef
}

// ParseContainer copies data and parses it into an owned Container.
func ParseContainer(data []byte) (*Container, error) {
	count, err := ConstCount(data)
	if err != nil {
		return nil, err
	}
	owned := make([]byte, len(data))
	copy(owned, data)

	offsets := make([]uint32, count)
	ref, err := FromSlice(owned, offsets)
	if err != nil {
		return nil, err
	}
	return &Container{data: owned, ref: ref}, nil
}

// Header returns the parsed file header.
func (c *Container) Header() *FileHeader { return c.ref.Header() }

// I32Constant returns the i32 constant at index.
func (c *Container) I32Constant(index uint16) (int32, error) { return c.ref.GetI32Constant(index) }

// FunctionBytecode returns the bytecode slice for the given function id.
func (c *Container) FunctionBytecode(id uint16) ([]byte, bool) { return c.ref.GetFunctionBytecode(id) }

// NumTasks returns the number of tasks in the task table.
func (c *Container) NumTasks() uint16 { return c.ref.NumTasks() }

// NumPrograms returns the number of program instances in the task table.
func (c *Container) NumPrograms() uint16 { return c.ref.NumPrograms() }

// TaskEntry parses and returns the task entry at index.
func (c *Container) TaskEntry(index uint16) (TaskEntryRef, error) { return c.ref.TaskEntry(index) }

// ProgramEntry parses and returns the program instance entry at index.
func (c *Container) ProgramEntry(index uint16) (ProgramEntryRef, error) {
	return c.ref.ProgramEntry(index)
}

// Bytes returns the owned serialized image, for write → read → write
// round-trip checks (spec §4.4 "Invariants").
func (c *Container) Bytes() []byte { return c.data }
