package container

import "encoding/binary"

// FuncEntrySize is the size in bytes of one function directory entry
// (spec §4.4 "Function directory entry").
const FuncEntrySize = 14

// TaskTableHeaderSize is the size in bytes of the task table's header
// (num_tasks + num_programs + shared_globals_size).
const TaskTableHeaderSize = 6

// TaskEntrySize is the size in bytes of one task entry (spec §4.4 "Task
// entry").
const TaskEntrySize = 32

// ProgramEntrySize is the size in bytes of one program instance entry
// (spec §4.4 "Program entry").
const ProgramEntrySize = 16

type constant struct {
	kind  ConstType
	value []byte // little-endian encoded payload, length is the entry's value_size
}

// BuiltFunction is one compiled function awaiting assembly into a
// container's code section.
type BuiltFunction struct {
	ID            uint16
	Bytecode      []byte
	MaxStackDepth uint16
	NumLocals     uint16
}

// TaskEntry is one schedulable task awaiting assembly into a container's
// task table (spec §4.4 "Task entry").
type TaskEntry struct {
	TaskID           uint16
	Priority         uint16
	Type             TaskType
	Flags            uint8
	IntervalUs       uint64
	SingleVarIndex   uint16
	WatchdogUs       uint64
	InputImageOffset uint16
	OutputImageOffset uint16
}

// TaskEnabled is bit 0 of TaskEntry.Flags.
const TaskEnabled uint8 = 1 << 0

// ProgramEntry is one program instance binding awaiting assembly into a
// container's task table (spec §4.4 "Program entry").
type ProgramEntry struct {
	InstanceID       uint16
	TaskID           uint16
	EntryFunctionID  uint16
	VarTableOffset   uint16
	VarTableCount    uint16
	FBInstanceOffset uint16
	FBInstanceCount  uint16
}

// ContainerBuilder accumulates constants (via dedup), functions, tasks and
// program instances, then assembles them into a serialized container at
// Build() (spec §4.4 "Write path"). Grounded on
// original_source/compiler/container/src/container_ref.rs's test fixture
// (ContainerBuilder::new().num_variables(..).add_i32_constant(..)
// .add_function(..).build()), since the write path itself has no filtered
// original_source file — only its read-back shape is pinned by that file's
// tests.
type ContainerBuilder struct {
	numVariables   uint16
	maxStackDepth  uint16
	maxCallDepth   uint16
	numFBInstances uint16
	fbInstanceBytes uint32

	constants []constant
	functions []BuiltFunction
	tasks     []TaskEntry
	programs  []ProgramEntry
}

// NewContainerBuilder returns an empty builder.
func NewContainerBuilder() *ContainerBuilder { return &ContainerBuilder{} }

// NumVariables sets the global variable count recorded in the header.
func (b *ContainerBuilder) NumVariables(n uint16) *ContainerBuilder { b.numVariables = n; return b }

// MaxCallDepth sets the header's max_call_depth field.
func (b *ContainerBuilder) MaxCallDepth(n uint16) *ContainerBuilder { b.maxCallDepth = n; return b }

// FBInstances sets the header's num_fb_instances/total_fb_instance_bytes
// fields.
func (b *ContainerBuilder) FBInstances(count uint16, totalBytes uint32) *ContainerBuilder {
	b.numFBInstances = count
	b.fbInstanceBytes = totalBytes
	return b
}

func (b *ContainerBuilder) addConstant(kind ConstType, value []byte) uint16 {
	for i, c := range b.constants {
		if c.kind == kind && string(c.value) == string(value) {
			return uint16(i)
		}
	}
	b.constants = append(b.constants, constant{kind: kind, value: value})
	return uint16(len(b.constants) - 1)
}

// AddI32Constant deduplicates v and returns its pool index.
func (b *ContainerBuilder) AddI32Constant(v int32) uint16 {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return b.addConstant(ConstI32, buf)
}

// AddU32Constant deduplicates v and returns its pool index.
func (b *ContainerBuilder) AddU32Constant(v uint32) uint16 {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return b.addConstant(ConstU32, buf)
}

// AddI64Constant deduplicates v and returns its pool index.
func (b *ContainerBuilder) AddI64Constant(v int64) uint16 {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return b.addConstant(ConstI64, buf)
}

// AddU64Constant deduplicates v and returns its pool index.
func (b *ContainerBuilder) AddU64Constant(v uint64) uint16 {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return b.addConstant(ConstU64, buf)
}

// AddFunction appends a compiled function to the code section and folds
// its max stack depth into the header's global max_stack_depth.
func (b *ContainerBuilder) AddFunction(fn BuiltFunction) *ContainerBuilder {
	b.functions = append(b.functions, fn)
	if fn.MaxStackDepth > b.maxStackDepth {
		b.maxStackDepth = fn.MaxStackDepth
	}
	return b
}

// AddTask appends a task entry to the task table.
func (b *ContainerBuilder) AddTask(t TaskEntry) *ContainerBuilder {
	b.tasks = append(b.tasks, t)
	return b
}

// AddProgram appends a program instance entry to the task table.
func (b *ContainerBuilder) AddProgram(p ProgramEntry) *ContainerBuilder {
	b.programs = append(b.programs, p)
	return b
}

func encodeConstPool(constants []constant) []byte {
	var buf []byte
	count := make([]byte, 2)
	binary.LittleEndian.PutUint16(count, uint16(len(constants)))
	buf = append(buf, count...)
	for _, c := range constants {
		entry := make([]byte, 4)
		entry[0] = byte(c.kind)
		entry[1] = 0 // reserved
		binary.LittleEndian.PutUint16(entry[2:], uint16(len(c.value)))
		buf = append(buf, entry...)
		buf = append(buf, c.value...)
	}
	return buf
}

func encodeCodeSection(functions []BuiltFunction) []byte {
	dirSize := len(functions) * FuncEntrySize
	dir := make([]byte, dirSize)
	var bytecodes []byte
	for i, fn := range functions {
		entry := dir[i*FuncEntrySize : (i+1)*FuncEntrySize]
		binary.LittleEndian.PutUint16(entry[0:], fn.ID)
		binary.LittleEndian.PutUint32(entry[2:], uint32(len(bytecodes)))
		binary.LittleEndian.PutUint32(entry[6:], uint32(len(fn.Bytecode)))
		binary.LittleEndian.PutUint16(entry[10:], fn.MaxStackDepth)
		binary.LittleEndian.PutUint16(entry[12:], fn.NumLocals)
		bytecodes = append(bytecodes, fn.Bytecode...)
	}
	return append(dir, bytecodes...)
}

func encodeTaskTable(tasks []TaskEntry, programs []ProgramEntry) []byte {
	header := make([]byte, TaskTableHeaderSize)
	binary.LittleEndian.PutUint16(header[0:], uint16(len(tasks)))
	binary.LittleEndian.PutUint16(header[2:], uint16(len(programs)))
	binary.LittleEndian.PutUint16(header[4:], 0) // shared_globals_size: unused by this implementation

	buf := header
	for _, t := range tasks {
		entry := make([]byte, TaskEntrySize)
		binary.LittleEndian.PutUint16(entry[0:], t.TaskID)
		binary.LittleEndian.PutUint16(entry[2:], t.Priority)
		entry[4] = byte(t.Type)
		entry[5] = t.Flags
		binary.LittleEndian.PutUint64(entry[6:], t.IntervalUs)
		binary.LittleEndian.PutUint16(entry[14:], t.SingleVarIndex)
		binary.LittleEndian.PutUint64(entry[16:], t.WatchdogUs)
		binary.LittleEndian.PutUint16(entry[24:], t.InputImageOffset)
		binary.LittleEndian.PutUint16(entry[26:], t.OutputImageOffset)
		// bytes [28:32] reserved, left zero
		buf = append(buf, entry...)
	}
	for _, p := range programs {
		entry := make([]byte, ProgramEntrySize)
		binary.LittleEndian.PutUint16(entry[0:], p.InstanceID)
		binary.LittleEndian.PutUint16(entry[2:], p.TaskID)
		binary.LittleEndian.PutUint16(entry[4:], p.EntryFunctionID)
		binary.LittleEndian.PutUint16(entry[6:], p.VarTableOffset)
		binary.LittleEndian.PutUint16(entry[8:], p.VarTableCount)
		binary.LittleEndian.PutUint16(entry[10:], p.FBInstanceOffset)
		binary.LittleEndian.PutUint16(entry[12:], p.FBInstanceCount)
		// bytes [14:16] reserved, left zero
		buf = append(buf, entry...)
	}
	return buf
}

// Build assembles the accumulated sections into a serialized container
// image. Section order is ConstantPool, CodeSection, TaskTable, matching
// spec §4.4's "Write path"; the 256-byte header is written first in the
// returned image once every offset is known.
func (b *ContainerBuilder) Build() []byte {
	constPool := encodeConstPool(b.constants)
	code := encodeCodeSection(b.functions)
	taskTable := encodeTaskTable(b.tasks, b.programs)

	constOffset := uint32(HeaderSize)
	codeOffset := constOffset + uint32(len(constPool))
	taskOffset := codeOffset + uint32(len(code))

	h := &FileHeader{
		FormatVersion:        1,
		MaxStackDepth:        b.maxStackDepth,
		MaxCallDepth:         b.maxCallDepth,
		NumVariables:         b.numVariables,
		NumFBInstances:       b.numFBInstances,
		TotalFBInstanceBytes: b.fbInstanceBytes,
		ConstSectionOffset:   constOffset,
		ConstSectionSize:     uint32(len(constPool)),
		CodeSectionOffset:    codeOffset,
		CodeSectionSize:      uint32(len(code)),
		TaskSectionOffset:    taskOffset,
		TaskSectionSize:      uint32(len(taskTable)),
		NumFunctions:         uint16(len(b.functions)),
		NumTasks:             uint16(len(b.tasks)),
		NumPrograms:          uint16(len(b.programs)),
	}

	out := make([]byte, 0, taskOffset+uint32(len(taskTable)))
	out = append(out, h.Bytes()...)
	out = append(out, constPool...)
	out = append(out, code...)
	out = append(out, taskTable...)
	return out
}
