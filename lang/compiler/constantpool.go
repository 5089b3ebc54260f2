package compiler

// poolEntry is one value in a ConstantPool, tagged by its encoded kind.
type poolEntry struct {
	kind  PoolEntryKind
	ival  int64
	fval  float64
}

// PoolEntryKind is the constant pool's type tag (spec §4.4 "Constant pool
// entry layout").
type PoolEntryKind uint8

const (
	PoolI32 PoolEntryKind = iota
	PoolI64
	PoolU32
	PoolU64
	PoolF32
	PoolF64
)

// ConstantPool deduplicates constants by value: add_i32_constant(v) scans
// already-added constants for equality and returns the existing index on a
// hit (spec §4.3 "Constant pool deduplication"). This makes pool indices
// value-identifying.
type ConstantPool struct {
	entries []poolEntry
}

// NewConstantPool returns an empty pool.
func NewConstantPool() *ConstantPool { return &ConstantPool{} }

// AddI32 returns the index of v in the pool, appending a new entry only if
// v is not already present.
func (p *ConstantPool) AddI32(v int32) uint16 {
	return p.add(poolEntry{kind: PoolI32, ival: int64(v)})
}

// AddI64 returns the index of v in the pool, appending a new entry only if
// v is not already present.
func (p *ConstantPool) AddI64(v int64) uint16 {
	return p.add(poolEntry{kind: PoolI64, ival: v})
}

// AddU32 returns the index of v in the pool, appending a new entry only if
// v is not already present.
func (p *ConstantPool) AddU32(v uint32) uint16 {
	return p.add(poolEntry{kind: PoolU32, ival: int64(v)})
}

// AddU64 returns the index of v in the pool, appending a new entry only if
// v is not already present.
func (p *ConstantPool) AddU64(v uint64) uint16 {
	return p.add(poolEntry{kind: PoolU64, ival: int64(v)})
}

func (p *ConstantPool) add(e poolEntry) uint16 {
	for i, existing := range p.entries {
		if existing == e {
			return uint16(i)
		}
	}
	p.entries = append(p.entries, e)
	return uint16(len(p.entries) - 1)
}

// Len returns the number of distinct constants in the pool.
func (p *ConstantPool) Len() int { return len(p.entries) }

// Kind returns the type tag of the entry at idx.
func (p *ConstantPool) Kind(idx uint16) PoolEntryKind { return p.entries[idx].kind }

// I32 returns the entry at idx reinterpreted as an int32.
func (p *ConstantPool) I32(idx uint16) int32 { return int32(p.entries[idx].ival) }

// I64 returns the entry at idx as an int64.
func (p *ConstantPool) I64(idx uint16) int64 { return p.entries[idx].ival }
