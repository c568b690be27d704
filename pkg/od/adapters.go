package od

import (
	"encoding/binary"
	"math"
)

// Bool is a DataLink-capable boolean slot: true/false, no Lockable
// semantics (expedited only).
type Bool bool

func (v *Bool) Read(uint16, uint8) (ReadData, error) {
	var b byte
	if *v {
		b = 1
	}
	return InlineReadData([]byte{b}), nil
}

func (v *Bool) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 1); err != nil {
		return err
	}
	if w.NewData[0] > 1 {
		return Error{ErrInvalidValue}
	}
	*v = w.NewData[0] != 0
	return nil
}

// U8 is an unsigned 8-bit integer slot.
type U8 uint8

func (v *U8) Read(uint16, uint8) (ReadData, error) {
	return InlineReadData([]byte{byte(*v)}), nil
}

func (v *U8) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 1); err != nil {
		return err
	}
	*v = U8(w.NewData[0])
	return nil
}

// I8 is a signed 8-bit integer slot.
type I8 int8

func (v *I8) Read(uint16, uint8) (ReadData, error) {
	return InlineReadData([]byte{byte(*v)}), nil
}

func (v *I8) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 1); err != nil {
		return err
	}
	*v = I8(int8(w.NewData[0]))
	return nil
}

// U16 is an unsigned 16-bit little-endian integer slot.
type U16 uint16

func (v *U16) Read(uint16, uint8) (ReadData, error) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(*v))
	return InlineReadData(b), nil
}

func (v *U16) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 2); err != nil {
		return err
	}
	*v = U16(binary.LittleEndian.Uint16(w.NewData))
	return nil
}

// I16 is a signed 16-bit little-endian integer slot.
type I16 int16

func (v *I16) Read(uint16, uint8) (ReadData, error) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(*v))
	return InlineReadData(b), nil
}

func (v *I16) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 2); err != nil {
		return err
	}
	*v = I16(int16(binary.LittleEndian.Uint16(w.NewData)))
	return nil
}

// U32 is an unsigned 32-bit little-endian integer slot.
type U32 uint32

func (v *U32) Read(uint16, uint8) (ReadData, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(*v))
	return InlineReadData(b), nil
}

func (v *U32) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 4); err != nil {
		return err
	}
	*v = U32(binary.LittleEndian.Uint32(w.NewData))
	return nil
}

// I32 is a signed 32-bit little-endian integer slot.
type I32 int32

func (v *I32) Read(uint16, uint8) (ReadData, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(*v))
	return InlineReadData(b), nil
}

func (v *I32) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 4); err != nil {
		return err
	}
	*v = I32(int32(binary.LittleEndian.Uint32(w.NewData)))
	return nil
}

// F32 is an IEEE-754 32-bit little-endian float slot.
type F32 float32

func (v *F32) Read(uint16, uint8) (ReadData, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(*v)))
	return InlineReadData(b), nil
}

func (v *F32) Write(w WriteData, _ Flags, _ Info) error {
	if err := checkExpedited(w, 4); err != nil {
		return err
	}
	*v = F32(math.Float32frombits(binary.LittleEndian.Uint32(w.NewData)))
	return nil
}

// checkExpedited validates that w is a single-shot expedited write of
// exactly width bytes, per spec.md §4.3: offset==0, is_last_segment==true,
// len(new_data)==width, and (if promised) promised_size==width too.
func checkExpedited(w WriteData, width int) error {
	if w.Offset != 0 || !w.IsLastSegment {
		return Error{ErrGeneralError}
	}
	if w.PromisedSize != nil && *w.PromisedSize != width {
		if *w.PromisedSize > width {
			return Error{ErrTooLong}
		}
		return Error{ErrTooShort}
	}
	if len(w.NewData) > width {
		return Error{ErrTooLong}
	}
	if len(w.NewData) < width {
		return Error{ErrTooShort}
	}
	return nil
}
