package pdo

import (
	"encoding/binary"

	"github.com/cia301/slavecore/pkg/node"
	"github.com/cia301/slavecore/pkg/od"
)

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// checkWidth validates a single-shot expedited write of exactly width
// bytes into a communication- or mapping-record subindex; comm/mapping
// records have no segmented form.
func checkWidth(w od.WriteData, width int) error {
	if w.Offset != 0 || !w.IsLastSegment {
		return od.ErrGeneral
	}
	if len(w.NewData) != width {
		if len(w.NewData) > width {
			return od.ErrTooLongData
		}
		return od.ErrTooShortData
	}
	return nil
}

// commLink is a *TPDO viewed as the DataLink for its communication
// parameter record (0x1800+k): subindices 1=cob_id, 2=transmission_type,
// 3=inhibit_time, 5=event_timer, 6=sync_start_value, per spec.md §4.5.
type commLink TPDO

func (c *commLink) tpdo() *TPDO { return (*TPDO)(c) }

func (c *commLink) Read(_ uint16, subindex uint8) (od.ReadData, error) {
	t := c.tpdo()
	switch subindex {
	case 1:
		return od.InlineReadData(le32(t.cobId.Pack())), nil
	case 2:
		return od.InlineReadData([]byte{t.transmissionType}), nil
	case 3:
		return od.InlineReadData(le16(t.inhibitTime)), nil
	case 5:
		return od.InlineReadData(le16(t.eventTimer)), nil
	case 6:
		return od.InlineReadData([]byte{t.syncStartValue}), nil
	default:
		return od.ReadData{}, od.ErrNoSubindex
	}
}

func (c *commLink) Write(w od.WriteData, _ od.Flags, _ od.Info) error {
	t := c.tpdo()
	if t.cobId.Valid && w.Subindex != 1 {
		return od.ErrDeviceState
	}
	switch w.Subindex {
	case 1:
		if err := checkWidth(w, 4); err != nil {
			return err
		}
		raw := binary.LittleEndian.Uint32(w.NewData)
		newCobId := node.UnpackCobId(raw)
		if t.updateCobId != nil {
			updated, err := t.updateCobId(t.cobId, newCobId)
			if err != nil {
				return od.ErrBadValue
			}
			newCobId = updated
		}
		t.cobId = newCobId
	case 2:
		if err := checkWidth(w, 1); err != nil {
			return err
		}
		t.transmissionType = w.NewData[0]
	case 3:
		if err := checkWidth(w, 2); err != nil {
			return err
		}
		t.inhibitTime = binary.LittleEndian.Uint16(w.NewData)
	case 5:
		if err := checkWidth(w, 2); err != nil {
			return err
		}
		t.eventTimer = binary.LittleEndian.Uint16(w.NewData)
	case 6:
		if err := checkWidth(w, 1); err != nil {
			return err
		}
		t.syncStartValue = w.NewData[0]
	default:
		return od.ErrNoSubindex
	}
	return nil
}

// mappingLink is a *TPDO viewed as the DataLink for its mapping parameter
// record (0x1A00+k): subindex 0=num_mapped, subindices 1..8=mapping words.
type mappingLink TPDO

func (m *mappingLink) tpdo() *TPDO { return (*TPDO)(m) }

func (m *mappingLink) Read(_ uint16, subindex uint8) (od.ReadData, error) {
	t := m.tpdo()
	if subindex == 0 {
		return od.InlineReadData([]byte{t.numMapped}), nil
	}
	i := int(subindex) - 1
	if i < 0 || i >= 8 {
		return od.ReadData{}, od.ErrNoSubindex
	}
	obj := t.mapping[i]
	word := uint32(obj.index)<<16 | uint32(obj.subindex)<<8 | uint32(obj.numBits)
	return od.InlineReadData(le32(word)), nil
}

func (m *mappingLink) Write(w od.WriteData, _ od.Flags, info od.Info) error {
	t := m.tpdo()
	if t.cobId.Valid {
		return od.ErrDeviceState
	}
	if w.Subindex == 0 {
		if err := checkWidth(w, 1); err != nil {
			return err
		}
		n := w.NewData[0]
		if n > 8 {
			return od.ErrBadValue
		}
		t.numMapped = n
		return nil
	}
	i := int(w.Subindex) - 1
	if i < 0 || i >= 8 {
		return od.ErrNoSubindex
	}
	if t.numMapped != 0 {
		return od.ErrDeviceState
	}
	if err := checkWidth(w, 4); err != nil {
		return err
	}
	word := binary.LittleEndian.Uint32(w.NewData)
	index := uint16(word >> 16)
	subindex := uint8(word >> 8)
	numBits := uint8(word)
	if numBits == 0 || numBits%8 != 0 {
		return od.ErrBadValue
	}
	pos, err := info.Search(index, subindex)
	if err != nil {
		return err
	}
	targetFlags := info.FlagsAt(pos)
	if targetFlags.PdoSize() == od.PdoSizeNone || uint8(targetFlags.PdoSize()) != numBits/8 {
		return od.ErrCannotMap
	}
	t.mapping[i] = mappedObject{index: index, subindex: subindex, numBits: numBits, position: pos}
	return nil
}
