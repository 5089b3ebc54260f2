// Package container implements Component D: serializing one or more
// compiled programs to a self-describing, endian-fixed byte image
// (spec §4.4), plus a heap reader and a zero-copy reader for the embedded
// VM. Grounded directly on
// original_source/compiler/container/src/container_ref.rs for the
// zero-copy reader's section-slicing algorithm and error taxonomy, and on
// saferwall-pe's header-parsing idiom (bounds-checked field reads from a
// fixed-offset byte layout) for the overall style.
package container

import "encoding/binary"

// HeaderSize is the fixed, bit-exact size of the file header in bytes
// (spec §6.1).
const HeaderSize = 256

// Magic is the four-byte signature every container begins with.
var Magic = [4]byte{'I', 'P', 'L', 'C'}

// Flag bits within FileHeader.Flags (spec §6.1).
const (
	FlagContentSignature uint32 = 1 << 0
	FlagDebugSection     uint32 = 1 << 1
	FlagTypeSection      uint32 = 1 << 2
)

// Byte offsets of every FileHeader field within the 256-byte header,
// matching spec §6.1's table exactly.
const (
	offMagic                = 0
	offFormatVersion         = 4
	offProfile               = 6
	offFlags                 = 8
	offContentHash           = 12
	offSourceHash            = 44
	offDebugHash             = 76
	offLayoutHash            = 108
	offMaxStackDepth         = 140
	offMaxCallDepth          = 142
	offNumVariables          = 144
	offNumFBInstances        = 146
	offTotalFBInstanceBytes  = 148
	offSigSectionOffset      = 152
	offSigSectionSize        = 156
	offDebugSigSectionOffset = 160
	offDebugSigSectionSize   = 164
	offTypeSectionOffset     = 168
	offTypeSectionSize       = 172
	offConstSectionOffset    = 176
	offConstSectionSize      = 180
	offCodeSectionOffset     = 184
	offCodeSectionSize       = 188
	offDebugSectionOffset    = 192
	offDebugSectionSize      = 196
	offTaskSectionOffset     = 200
	offTaskSectionSize       = 204
	offNumFunctions          = 208
	offNumTasks              = 210
	offNumPrograms           = 212
)

// FileHeader is the 256-byte fixed header every container begins with
// (spec §6.1). Every multi-byte field is little-endian.
type FileHeader struct {
	FormatVersion uint16
	Profile       uint16
	Flags         uint32

	ContentHash [32]byte
	SourceHash  [32]byte
	DebugHash   [32]byte
	LayoutHash  [32]byte

	MaxStackDepth        uint16
	MaxCallDepth         uint16
	NumVariables         uint16
	NumFBInstances       uint16
	TotalFBInstanceBytes uint32

	SigSectionOffset      uint32
	SigSectionSize        uint32
	DebugSigSectionOffset uint32
	DebugSigSectionSize   uint32
	TypeSectionOffset     uint32
	TypeSectionSize       uint32
	ConstSectionOffset    uint32
	ConstSectionSize      uint32
	CodeSectionOffset     uint32
	CodeSectionSize       uint32
	DebugSectionOffset    uint32
	DebugSectionSize      uint32
	TaskSectionOffset     uint32
	TaskSectionSize       uint32

	NumFunctions uint16
	NumTasks     uint16
	NumPrograms  uint16
}

// Bytes serializes h to a fresh 256-byte, zero-padded buffer.
func (h *FileHeader) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[offMagic:], Magic[:])
	binary.LittleEndian.PutUint16(buf[offFormatVersion:], h.FormatVersion)
	binary.LittleEndian.PutUint16(buf[offProfile:], h.Profile)
	binary.LittleEndian.PutUint32(buf[offFlags:], h.Flags)

	copy(buf[offContentHash:], h.ContentHash[:])
	copy(buf[offSourceHash:], h.SourceHash[:])
	copy(buf[offDebugHash:], h.DebugHash[:])
	copy(buf[offLayoutHash:], h.LayoutHash[:])

	binary.LittleEndian.PutUint16(buf[offMaxStackDepth:], h.MaxStackDepth)
	binary.LittleEndian.PutUint16(buf[offMaxCallDepth:], h.MaxCallDepth)
	binary.LittleEndian.PutUint16(buf[offNumVariables:], h.NumVariables)
	binary.LittleEndian.PutUint16(buf[offNumFBInstances:], h.NumFBInstances)
	binary.LittleEndian.PutUint32(buf[offTotalFBInstanceBytes:], h.TotalFBInstanceBytes)

	binary.LittleEndian.PutUint32(buf[offSigSectionOffset:], h.SigSectionOffset)
	binary.LittleEndian.PutUint32(buf[offSigSectionSize:], h.SigSectionSize)
	binary.LittleEndian.PutUint32(buf[offDebugSigSectionOffset:], h.DebugSigSectionOffset)
	binary.LittleEndian.PutUint32(buf[offDebugSigSectionSize:], h.DebugSigSectionSize)
	binary.LittleEndian.PutUint32(buf[offTypeSectionOffset:], h.TypeSectionOffset)
	binary.LittleEndian.PutUint32(buf[offTypeSectionSize:], h.TypeSectionSize)
	binary.LittleEndian.PutUint32(buf[offConstSectionOffset:], h.ConstSectionOffset)
	binary.LittleEndian.PutUint32(buf[offConstSectionSize:], h.ConstSectionSize)
	binary.LittleEndian.PutUint32(buf[offCodeSectionOffset:], h.CodeSectionOffset)
	binary.LittleEndian.PutUint32(buf[offCodeSectionSize:], h.CodeSectionSize)
	binary.LittleEndian.PutUint32(buf[offDebugSectionOffset:], h.DebugSectionOffset)
	binary.LittleEndian.PutUint32(buf[offDebugSectionSize:], h.DebugSectionSize)
	binary.LittleEndian.PutUint32(buf[offTaskSectionOffset:], h.TaskSectionOffset)
	binary.LittleEndian.PutUint32(buf[offTaskSectionSize:], h.TaskSectionSize)

	binary.LittleEndian.PutUint16(buf[offNumFunctions:], h.NumFunctions)
	binary.LittleEndian.PutUint16(buf[offNumTasks:], h.NumTasks)
	binary.LittleEndian.PutUint16(buf[offNumPrograms:], h.NumPrograms)
	return buf
}

// ParseHeader reads a FileHeader from the first HeaderSize bytes of data.
func ParseHeader(data []byte) (*FileHeader, error) {
	if len(data) < HeaderSize {
		return nil, newSectionSizeMismatchError("header")
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return nil, newInvalidMagicError()
	}

	h := &FileHeader{}
	h.FormatVersion = binary.LittleEndian.Uint16(data[offFormatVersion:])
	h.Profile = binary.LittleEndian.Uint16(data[offProfile:])
	h.Flags = binary.LittleEndian.Uint32(data[offFlags:])

	copy(h.ContentHash[:], data[offContentHash:offContentHash+32])
	copy(h.SourceHash[:], data[offSourceHash:offSourceHash+32])
	copy(h.DebugHash[:], data[offDebugHash:offDebugHash+32])
	copy(h.LayoutHash[:], data[offLayoutHash:offLayoutHash+32])

	h.MaxStackDepth = binary.LittleEndian.Uint16(data[offMaxStackDepth:])
	h.MaxCallDepth = binary.LittleEndian.Uint16(data[offMaxCallDepth:])
	h.NumVariables = binary.LittleEndian.Uint16(data[offNumVariables:])
	h.NumFBInstances = binary.LittleEndian.Uint16(data[offNumFBInstances:])
	h.TotalFBInstanceBytes = binary.LittleEndian.Uint32(data[offTotalFBInstanceBytes:])

	h.SigSectionOffset = binary.LittleEndian.Uint32(data[offSigSectionOffset:])
	h.SigSectionSize = binary.LittleEndian.Uint32(data[offSigSectionSize:])
	h.DebugSigSectionOffset = binary.LittleEndian.Uint32(data[offDebugSigSectionOffset:])
	h.DebugSigSectionSize = binary.LittleEndian.Uint32(data[offDebugSigSectionSize:])
	h.TypeSectionOffset = binary.LittleEndian.Uint32(data[offTypeSectionOffset:])
	h.TypeSectionSize = binary.LittleEndian.Uint32(data[offTypeSectionSize:])
	h.ConstSectionOffset = binary.LittleEndian.Uint32(data[offConstSectionOffset:])
	h.ConstSectionSize = binary.LittleEndian.Uint32(data[offConstSectionSize:])
	h.CodeSectionOffset = binary.LittleEndian.Uint32(data[offCodeSectionOffset:])
	h.CodeSectionSize = binary.LittleEndian.Uint32(data[offCodeSectionSize:])
	h.DebugSectionOffset = binary.LittleEndian.Uint32(data[offDebugSectionOffset:])
	h.DebugSectionSize = binary.LittleEndian.Uint32(data[offDebugSectionSize:])
	h.TaskSectionOffset = binary.LittleEndian.Uint32(data[offTaskSectionOffset:])
	h.TaskSectionSize = binary.LittleEndian.Uint32(data[offTaskSectionSize:])

	h.NumFunctions = binary.LittleEndian.Uint16(data[offNumFunctions:])
	h.NumTasks = binary.LittleEndian.Uint16(data[offNumTasks:])
	h.NumPrograms = binary.LittleEndian.Uint16(data[offNumPrograms:])
	return h, nil
}
