package container

import "encoding/binary"

// TaskEntryRef is a task entry parsed from a container's task table.
// Mirrors original_source/compiler/container/src/container_ref.rs's
// TaskEntryRef field-for-field.
type TaskEntryRef struct {
	TaskID            uint16
	Priority          uint16
	Type              TaskType
	Flags             uint8
	IntervalUs        uint64
	SingleVarIndex    uint16
	WatchdogUs        uint64
	InputImageOffset  uint16
	OutputImageOffset uint16
	Reserved          [4]byte
}

// ProgramEntryRef is a program instance entry parsed from a container's
// task table. Mirrors container_ref.rs's ProgramEntryRef field-for-field.
type ProgramEntryRef struct {
	InstanceID       uint16
	TaskID           uint16
	EntryFunctionID  uint16
	VarTableOffset   uint16
	VarTableCount    uint16
	FBInstanceOffset uint16
	FBInstanceCount  uint16
	Reserved         uint16
}

func readU16(data []byte, offset int) (uint16, error) {
	if offset+2 > len(data) {
		return 0, newSectionSizeMismatchError("u16 field")
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2]), nil
}

// ContainerRef is a zero-copy, allocation-free view over a serialized
// container: every accessor reads directly from the borrowed byte slice
// (spec §4.4 "Zero-copy reader"). Grounded directly on
// original_source/compiler/container/src/container_ref.rs.
type ContainerRef struct {
	header        *FileHeader
	constPoolBytes []byte
	constOffsets  []uint32
	codeBytes     []byte
	funcDir       []byte
	taskTableBytes []byte
}

// ConstCount returns the number of constants in data's constant pool
// without fully parsing the container, so a caller can size the offset
// buffer passed to FromSlice.
func ConstCount(data []byte) (uint16, error) {
	if len(data) < HeaderSize {
		return 0, newSectionSizeMismatchError("header")
	}
	h, err := ParseHeader(data)
	if err != nil {
		return 0, err
	}
	if h.ConstSectionSize == 0 {
		return 0, nil
	}
	return readU16(data, int(h.ConstSectionOffset))
}

// FromSlice parses a serialized container from data, filling constOffsetBuf
// with the byte offsets (relative to the constant pool's entry region) of
// each constant pool entry. constOffsetBuf must have at least ConstCount
// elements.
func FromSlice(data []byte, constOffsetBuf []uint32) (*ContainerRef, error) {
	if len(data) < HeaderSize {
		return nil, newSectionSizeMismatchError("header")
	}
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	constStart := int(h.ConstSectionOffset)
	constEnd := constStart + int(h.ConstSectionSize)
	if constEnd > len(data) {
		return nil, newSectionSizeMismatchError("const")
	}
	constSection := data[constStart:constEnd]

	var constPoolBytes []byte
	var numConsts uint16
	if h.ConstSectionSize == 0 {
		constPoolBytes = data[0:0]
	} else {
		if len(constSection) < 2 {
			return nil, newSectionSizeMismatchError("const")
		}
		numConsts = binary.LittleEndian.Uint16(constSection[0:2])
		constPoolBytes = constSection[2:]
	}

	if int(numConsts) > len(constOffsetBuf) {
		return nil, newSectionSizeMismatchError("const")
	}
	pos := 0
	for i := 0; i < int(numConsts); i++ {
		constOffsetBuf[i] = uint32(pos)
		if pos+4 > len(constPoolBytes) {
			return nil, newSectionSizeMismatchError("const")
		}
		valueSize := int(binary.LittleEndian.Uint16(constPoolBytes[pos+2 : pos+4]))
		pos += 4 + valueSize
		if pos > len(constPoolBytes) {
			return nil, newSectionSizeMismatchError("const")
		}
	}
	constOffsets := constOffsetBuf[:numConsts]

	codeStart := int(h.CodeSectionOffset)
	codeEnd := codeStart + int(h.CodeSectionSize)
	if codeEnd > len(data) {
		return nil, newSectionSizeMismatchError("code")
	}
	codeSection := data[codeStart:codeEnd]

	funcDirSize := int(h.NumFunctions) * FuncEntrySize
	if funcDirSize > len(codeSection) {
		return nil, newSectionSizeMismatchError("code")
	}
	funcDir := codeSection[:funcDirSize]
	codeBytes := codeSection[funcDirSize:]

	taskStart := int(h.TaskSectionOffset)
	taskEnd := taskStart + int(h.TaskSectionSize)
	if taskEnd > len(data) {
		return nil, newSectionSizeMismatchError("task")
	}
	taskTableBytes := data[taskStart:taskEnd]
	if h.TaskSectionSize > 0 && len(taskTableBytes) < TaskTableHeaderSize {
		return nil, newSectionSizeMismatchError("task")
	}

	return &ContainerRef{
		header:         h,
		constPoolBytes: constPoolBytes,
		constOffsets:   constOffsets,
		codeBytes:      codeBytes,
		funcDir:        funcDir,
		taskTableBytes: taskTableBytes,
	}, nil
}

// Header returns the parsed file header.
func (c *ContainerRef) Header() *FileHeader { return c.header }

// GetI32Constant returns the i32 constant at index, validating that the
// entry's type tag is ConstI32.
func (c *ContainerRef) GetI32Constant(index uint16) (int32, error) {
	idx := int(index)
	if idx >= len(c.constOffsets) {
		return 0, newInvalidConstantIndexError(index)
	}
	offset := int(c.constOffsets[idx])

	if offset+4 > len(c.constPoolBytes) {
		return 0, newSectionSizeMismatchError("const")
	}
	typeTag := c.constPoolBytes[offset]
	ct, err := constTypeFromByte(typeTag)
	if err != nil {
		return 0, err
	}
	if ct != ConstI32 {
		return 0, newInvalidConstantTypeError(typeTag)
	}

	valueOffset := offset + 4
	if valueOffset+4 > len(c.constPoolBytes) {
		return 0, newSectionSizeMismatchError("const")
	}
	return int32(binary.LittleEndian.Uint32(c.constPoolBytes[valueOffset : valueOffset+4])), nil
}

// GetFunctionBytecode returns the bytecode slice for the function with the
// given id, looked up by reading the function directory entry at
// id*FuncEntrySize.
func (c *ContainerRef) GetFunctionBytecode(id uint16) ([]byte, bool) {
	entryOffset := int(id) * FuncEntrySize
	if entryOffset+FuncEntrySize > len(c.funcDir) {
		return nil, false
	}
	entry := c.funcDir[entryOffset : entryOffset+FuncEntrySize]

	bytecodeOffset := int(binary.LittleEndian.Uint32(entry[2:6]))
	bytecodeLength := int(binary.LittleEndian.Uint32(entry[6:10]))

	end := bytecodeOffset + bytecodeLength
	if end > len(c.codeBytes) {
		return nil, false
	}
	return c.codeBytes[bytecodeOffset:end], true
}

// NumTasks returns the number of tasks in the task table.
func (c *ContainerRef) NumTasks() uint16 {
	if len(c.taskTableBytes) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(c.taskTableBytes[0:2])
}

// NumPrograms returns the number of program instances in the task table.
func (c *ContainerRef) NumPrograms() uint16 {
	if len(c.taskTableBytes) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint16(c.taskTableBytes[2:4])
}

// SharedGlobalsSize returns the shared globals size from the task table
// header.
func (c *ContainerRef) SharedGlobalsSize() uint16 {
	if len(c.taskTableBytes) < 6 {
		return 0
	}
	return binary.LittleEndian.Uint16(c.taskTableBytes[4:6])
}

// TaskEntry parses and returns the task entry at index.
func (c *ContainerRef) TaskEntry(index uint16) (TaskEntryRef, error) {
	start := TaskTableHeaderSize + int(index)*TaskEntrySize
	end := start + TaskEntrySize
	if end > len(c.taskTableBytes) {
		return TaskEntryRef{}, newSectionSizeMismatchError("task")
	}
	buf := c.taskTableBytes[start:end]

	return TaskEntryRef{
		TaskID:            binary.LittleEndian.Uint16(buf[0:2]),
		Priority:          binary.LittleEndian.Uint16(buf[2:4]),
		Type:              TaskType(buf[4]),
		Flags:             buf[5],
		IntervalUs:        binary.LittleEndian.Uint64(buf[6:14]),
		SingleVarIndex:    binary.LittleEndian.Uint16(buf[14:16]),
		WatchdogUs:        binary.LittleEndian.Uint64(buf[16:24]),
		InputImageOffset:  binary.LittleEndian.Uint16(buf[24:26]),
		OutputImageOffset: binary.LittleEndian.Uint16(buf[26:28]),
		Reserved:          [4]byte{buf[28], buf[29], buf[30], buf[31]},
	}, nil
}

// ProgramEntry parses and returns the program instance entry at index.
func (c *ContainerRef) ProgramEntry(index uint16) (ProgramEntryRef, error) {
	tasksEnd := TaskTableHeaderSize + int(c.NumTasks())*TaskEntrySize
	start := tasksEnd + int(index)*ProgramEntrySize
	end := start + ProgramEntrySize
	if end > len(c.taskTableBytes) {
		return ProgramEntryRef{}, newSectionSizeMismatchError("task")
	}
	buf := c.taskTableBytes[start:end]

	return ProgramEntryRef{
		InstanceID:       binary.LittleEndian.Uint16(buf[0:2]),
		TaskID:           binary.LittleEndian.Uint16(buf[2:4]),
		EntryFunctionID:  binary.LittleEndian.Uint16(buf[4:6]),
		VarTableOffset:   binary.LittleEndian.Uint16(buf[6:8]),
		VarTableCount:    binary.LittleEndian.Uint16(buf[8:10]),
		FBInstanceOffset: binary.LittleEndian.Uint16(buf[10:12]),
		FBInstanceCount:  binary.LittleEndian.Uint16(buf[12:14]),
		Reserved:         binary.LittleEndian.Uint16(buf[14:16]),
	}, nil
}
