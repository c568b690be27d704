package od

// Bytes is a fixed-length byte-array slot. Its length is fixed at
// construction (the backing array's len); writes must match it exactly,
// same as the primitive adapters.
type Bytes struct {
	data []byte
}

// NewBytes wraps an existing, already correctly sized backing slice.
func NewBytes(backing []byte) *Bytes {
	return &Bytes{data: backing}
}

func (b *Bytes) Read(uint16, uint8) (ReadData, error) {
	return BytesReadData(b.data), nil
}

// Write accepts both an expedited single-shot write and a segmented
// download, unlike the primitive adapters: a Bytes slot is exactly the
// >4-byte string/array case spec.md's segmented-transfer scenarios
// exercise. Each segment is copied at its own Offset; only once
// IsLastSegment is true is the accumulated length checked against
// len(b.data).
func (b *Bytes) Write(w WriteData, _ Flags, _ Info) error {
	end := w.Offset + len(w.NewData)
	if w.Offset < 0 || end > len(b.data) {
		return Error{ErrTooLong}
	}
	copy(b.data[w.Offset:end], w.NewData)
	if w.IsLastSegment && end < len(b.data) {
		return Error{ErrTooShort}
	}
	return nil
}

// ReadOnlyBytes is a read-only slot over an arbitrary byte slice or string
// (e.g. the device name at 0x1008), always returned whole in one
// ReadData::Bytes - per spec.md §4.3 it never supports writes.
type ReadOnlyBytes struct {
	data []byte
}

// NewReadOnlyBytes wraps a byte slice for read-only exposure.
func NewReadOnlyBytes(data []byte) *ReadOnlyBytes {
	return &ReadOnlyBytes{data: data}
}

// NewReadOnlyString wraps a string for read-only exposure.
func NewReadOnlyString(s string) *ReadOnlyBytes {
	return &ReadOnlyBytes{data: []byte(s)}
}

func (r *ReadOnlyBytes) Read(uint16, uint8) (ReadData, error) {
	return BytesReadData(r.data), nil
}

func (r *ReadOnlyBytes) Write(WriteData, Flags, Info) error {
	return Error{ErrReadOnlyError}
}

// Primitive is the constraint OdArray accepts for its element type: any of
// the fixed-width primitive adapters, addressed by pointer.
type Primitive interface {
	Bool | U8 | I8 | U16 | I16 | U32 | I32 | F32
}

// primitiveDataLink is satisfied by *T for any Primitive T.
type primitiveDataLink interface {
	DataLink
}

// OdArray exposes subindex 0 as a read-only element count and subindices
// 1..=N as the N elements of backing, per spec.md §4.3.
type OdArray[T Primitive] struct {
	backing []T
}

// NewOdArray wraps an existing slice of primitive elements.
func NewOdArray[T Primitive](backing []T) *OdArray[T] {
	return &OdArray[T]{backing: backing}
}

func (a *OdArray[T]) elementLink(i int) primitiveDataLink {
	switch v := any(&a.backing[i]).(type) {
	case *Bool:
		return v
	case *U8:
		return v
	case *I8:
		return v
	case *U16:
		return v
	case *I16:
		return v
	case *U32:
		return v
	case *I32:
		return v
	case *F32:
		return v
	default:
		panic("od: unreachable primitive type")
	}
}

func (a *OdArray[T]) Read(index uint16, subindex uint8) (ReadData, error) {
	if subindex == 0 {
		if len(a.backing) > 255 {
			return ReadData{}, Error{ErrGeneralError}
		}
		return InlineReadData([]byte{byte(len(a.backing))}), nil
	}
	i := int(subindex) - 1
	if i < 0 || i >= len(a.backing) {
		return ReadData{}, Error{ErrSubindexDoesNotExist}
	}
	return a.elementLink(i).Read(index, subindex)
}

func (a *OdArray[T]) Write(w WriteData, flags Flags, info Info) error {
	if w.Subindex == 0 {
		return Error{ErrReadOnlyError}
	}
	i := int(w.Subindex) - 1
	if i < 0 || i >= len(a.backing) {
		return Error{ErrSubindexDoesNotExist}
	}
	return a.elementLink(i).Write(w, flags, info)
}
