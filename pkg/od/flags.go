package od

// PdoSize declares the exact byte width a slot may be mapped into a PDO
// with. A zero value means "not mappable".
type PdoSize uint8

// Valid PdoSize values, per CiA 301 the only widths a single mapping entry
// may occupy.
const (
	PdoSizeNone PdoSize = 0
	PdoSizeOne  PdoSize = 1
	PdoSizeTwo  PdoSize = 2
	PdoSizeFour PdoSize = 4
)

// Flags is the per-slot access bitfield: read-only/write-only (mutually
// exclusive) plus the PDO mapping width.
type Flags struct {
	readOnly  bool
	writeOnly bool
	pdoSize   PdoSize
}

// NewFlags builds a Flags value, rejecting a slot marked both read-only and
// write-only.
func NewFlags(readOnly, writeOnly bool, pdoSize PdoSize) (Flags, error) {
	if readOnly && writeOnly {
		return Flags{}, Error{ErrGeneralError}
	}
	switch pdoSize {
	case PdoSizeNone, PdoSizeOne, PdoSizeTwo, PdoSizeFour:
	default:
		return Flags{}, Error{ErrGeneralError}
	}
	return Flags{readOnly: readOnly, writeOnly: writeOnly, pdoSize: pdoSize}, nil
}

// ReadWrite is the common case: neither read-only nor write-only, not
// mappable into a PDO.
func ReadWrite() Flags { return Flags{} }

// ReadOnly returns a read-only, non-mappable Flags value.
func ReadOnly() Flags { return Flags{readOnly: true} }

// WriteOnly returns a write-only, non-mappable Flags value.
func WriteOnly() Flags { return Flags{writeOnly: true} }

// WithPdoSize returns a copy of f mappable into a PDO at the given width.
func (f Flags) WithPdoSize(size PdoSize) Flags {
	f.pdoSize = size
	return f
}

func (f Flags) IsReadOnly() bool   { return f.readOnly }
func (f Flags) IsWriteOnly() bool  { return f.writeOnly }
func (f Flags) PdoSize() PdoSize   { return f.pdoSize }
func (f Flags) IsMappable() bool   { return f.pdoSize != PdoSizeNone }
