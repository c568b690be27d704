package od

// ReadKind tags the shape of the value a DataLink.Read call returned.
type ReadKind uint8

const (
	// ReadInline holds the value little-endian encoded in Inline[:Len].
	ReadInline ReadKind = iota
	// ReadBytes holds the value as a borrowed byte slice.
	ReadBytes
)

// ReadData is a tagged view returned by DataLink.Read: either an inline
// 1/2/4-byte primitive value or a borrowed byte slice (e.g. a string or an
// array element group), mirroring the Rust original's ReadData enum.
type ReadData struct {
	Kind   ReadKind
	Inline [4]byte
	Len    int
	Bytes  []byte
}

// InlineReadData builds a ReadData wrapping a little-endian-encoded
// primitive value of width len(b) (1, 2 or 4).
func InlineReadData(b []byte) ReadData {
	rd := ReadData{Kind: ReadInline, Len: len(b)}
	copy(rd.Inline[:], b)
	return rd
}

// BytesReadData builds a ReadData wrapping a borrowed byte slice.
func BytesReadData(b []byte) ReadData {
	return ReadData{Kind: ReadBytes, Bytes: b, Len: len(b)}
}

// AsBytes returns the read value as a plain byte slice regardless of Kind.
func (r ReadData) AsBytes() []byte {
	if r.Kind == ReadBytes {
		return r.Bytes
	}
	return r.Inline[:r.Len]
}

// WriteData describes one write into a slot. Offset 0 together with
// IsLastSegment=true denotes an expedited (single-shot) write; otherwise
// it is one segment of a multi-part SDO download.
type WriteData struct {
	Index         uint16
	Subindex      uint8
	NewData       []byte
	Offset        int
	PromisedSize  *int
	IsLastSegment bool
}

// DataLink is the capability a slot's storage exposes to the rest of the
// stack: bounded, synchronous read/write with no notion of a connection.
// Write additionally receives an Info view over the owning Dictionary, per
// spec.md §4.2's write(index, subindex, flags, info) contract, for the
// handlers (e.g. TPDO mapping-word writes) that must look up *other*
// entries while handling one.
type DataLink interface {
	Read(index uint16, subindex uint8) (ReadData, error)
	Write(w WriteData, flags Flags, info Info) error
}

// Lockable is implemented by DataLink values backed by an OdCell: the SDO
// server uses it to enforce the segmented-transfer locking invariant of
// spec.md §4.4.7.
type Lockable interface {
	IsLocked() bool
	SetLocked(bool)
}
