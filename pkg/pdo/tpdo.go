// Package pdo implements the TPDO engine (C6): a Transmit Process Data
// Object producer whose communication and mapping parameters are
// themselves addressable through the Object Dictionary, per spec.md §4.5.
package pdo

import (
	"log/slog"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/node"
	"github.com/cia301/slavecore/pkg/od"
)

// UpdateCobIdFunc validates a proposed COB-ID transition for a TPDO's
// communication record. Returning an error rejects the write with
// InvalidValue, letting the host veto bitrate- or bus-topology-unsafe
// reassignments.
type UpdateCobIdFunc func(old, new node.CobId) (node.CobId, error)

// mappedObject is one resolved entry of a TPDO's mapping table: the OD
// address a mapping word named, plus the Position it resolved to so
// create_frame never re-searches the dictionary.
type mappedObject struct {
	index    uint16
	subindex uint8
	numBits  uint8
	position od.Position
}

// TPDO is one Transmit Process Data Object producer. It owns no goroutine
// or timer of its own: CreateFrame is called synchronously by the host
// (directly, or from Tick once inhibit/event timing call for it), matching
// the single-threaded, tick-driven model of spec.md §5.
type TPDO struct {
	logger *slog.Logger
	od     *od.Dictionary

	cobId            node.CobId
	updateCobId      UpdateCobIdFunc
	transmissionType uint8
	inhibitTime      uint16 // x100us
	eventTimer       uint16 // x1ms
	syncStartValue   uint8

	numMapped uint8
	mapping   [8]mappedObject

	inhibitRemainingUs uint32
	eventElapsedMs      uint32
}

// DefaultTPDO constructs TPDO number k (1..4) for id, with its default
// COB-ID, valid=false, rtr=false, and no mapped objects, per spec.md
// §4.5.3. updateCobId may be nil, in which case any COB-ID write succeeds.
func DefaultTPDO(logger *slog.Logger, dict *od.Dictionary, id node.Id, k int, updateCobId UpdateCobIdFunc) (*TPDO, error) {
	raw, err := id.DefaultTPDOCobId(k)
	if err != nil {
		return nil, err
	}
	canId, err := node.NewStandardCanId(raw)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TPDO{
		logger:           logger.With("service", "[TPDO]", "num", k),
		od:               dict,
		cobId:            node.CobId{Valid: false, Rtr: false, Id: canId},
		updateCobId:      updateCobId,
		transmissionType: 255,
	}, nil
}

// CommRecord returns a DataLink exposing this TPDO's communication
// parameter record (subindices 1,2,3,5,6), suitable for Builder.Add at
// 0x1800+(k-1) for TPDO number k.
func (t *TPDO) CommRecord() od.DataLink { return (*commLink)(t) }

// MappingRecord returns a DataLink exposing this TPDO's mapping parameter
// record (subindex 0 plus 1..8), suitable for Builder.Add at
// 0x1A00+(k-1) for TPDO number k.
func (t *TPDO) MappingRecord() od.DataLink { return (*mappingLink)(t) }

// IsActive reports whether this TPDO is currently valid (transmission
// enabled).
func (t *TPDO) IsActive() bool { return t.cobId.Valid }

// CreateFrame serializes the currently mapped objects into a single
// outbound frame, per spec.md §4.5.2. Returns ok=false if the TPDO has no
// valid COB-ID to transmit on.
func (t *TPDO) CreateFrame() (frame.Frame, error, bool) {
	if !t.cobId.Valid {
		return frame.Frame{}, nil, false
	}
	var buf [8]byte
	cursor := 0
	for i := 0; i < int(t.numMapped); i++ {
		m := t.mapping[i]
		link := t.od.Get(m.position)
		rd, err := link.Read(m.index, m.subindex)
		if err != nil {
			return frame.Frame{}, err, false
		}
		b := rd.AsBytes()
		copy(buf[cursor:], b)
		cursor += len(b)
	}
	f, err := frame.New(t.cobId.Id.Value(), buf[:cursor])
	if err != nil {
		return frame.Frame{}, err, false
	}
	return f, nil, true
}

// Tick advances the inhibit and event timers by elapsedUs microseconds,
// host-driven per spec.md §5 ("any timing behaviour ... is driven by the
// host scheduler calling explicit tick methods not part of this core's
// hard path"). It returns a frame to transmit if the event timer elapsed
// and the inhibit window has passed.
func (t *TPDO) Tick(elapsedUs uint32) (frame.Frame, bool) {
	if t.inhibitRemainingUs > 0 {
		if elapsedUs >= t.inhibitRemainingUs {
			t.inhibitRemainingUs = 0
		} else {
			t.inhibitRemainingUs -= elapsedUs
		}
	}
	if t.eventTimer == 0 || !t.cobId.Valid {
		return frame.Frame{}, false
	}
	t.eventElapsedMs += elapsedUs / 1000
	eventMs := uint32(t.eventTimer)
	if t.eventElapsedMs < eventMs || t.inhibitRemainingUs > 0 {
		return frame.Frame{}, false
	}
	f, err, ok := t.CreateFrame()
	if err != nil || !ok {
		return frame.Frame{}, false
	}
	t.eventElapsedMs = 0
	t.inhibitRemainingUs = uint32(t.inhibitTime) * 100
	return f, true
}
