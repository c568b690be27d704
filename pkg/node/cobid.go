package node

import "fmt"

// ErrInvalidCanId is returned when a CanId value exceeds its declared width.
var ErrInvalidCanId = fmt.Errorf("node: identifier out of range")

// CanId is either an 11-bit standard identifier or a 29-bit extended one.
type CanId struct {
	value    uint32
	extended bool
}

// NewStandardCanId validates id <= 0x7FF.
func NewStandardCanId(id uint32) (CanId, error) {
	if id > 0x7FF {
		return CanId{}, ErrInvalidCanId
	}
	return CanId{value: id}, nil
}

// NewExtendedCanId validates id <= 0x1FFFFFFF.
func NewExtendedCanId(id uint32) (CanId, error) {
	if id > 0x1FFFFFFF {
		return CanId{}, ErrInvalidCanId
	}
	return CanId{value: id, extended: true}, nil
}

// Value returns the raw identifier bits.
func (c CanId) Value() uint32 { return c.value }

// Extended reports whether this is a 29-bit identifier.
func (c CanId) Extended() bool { return c.extended }

// CobId is a CiA 301 Communication Object Identifier: a flagged, possibly
// remote-request, CanId. On the wire (the packed uint32 form used in OD
// entries such as 0x1800 sub 1), bit 31 is the *inverted* valid flag (set
// means "not valid"), bit 30 is the RTR flag, bit 29 marks an extended
// identifier, and the low bits carry the identifier itself.
type CobId struct {
	Valid bool
	Rtr   bool
	Id    CanId
}

const (
	cobIdNotValidBit = 1 << 31
	cobIdRtrBit      = 1 << 30
	cobIdExtendedBit = 1 << 29
	cobIdStdMask     = 0x7FF
	cobIdExtMask     = 0x1FFFFFFF
)

// Pack encodes the CobId into its 32-bit wire representation.
func (c CobId) Pack() uint32 {
	var packed uint32
	if !c.Valid {
		packed |= cobIdNotValidBit
	}
	if c.Rtr {
		packed |= cobIdRtrBit
	}
	if c.Id.extended {
		packed |= cobIdExtendedBit
		packed |= c.Id.value & cobIdExtMask
	} else {
		packed |= c.Id.value & cobIdStdMask
	}
	return packed
}

// UnpackCobId decodes the 32-bit wire representation produced by Pack.
func UnpackCobId(raw uint32) CobId {
	extended := raw&cobIdExtendedBit != 0
	var id CanId
	if extended {
		id = CanId{value: raw & cobIdExtMask, extended: true}
	} else {
		id = CanId{value: raw & cobIdStdMask}
	}
	return CobId{
		Valid: raw&cobIdNotValidBit == 0,
		Rtr:   raw&cobIdRtrBit != 0,
		Id:    id,
	}
}
