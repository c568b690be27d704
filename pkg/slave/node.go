// Package slave wires the SDO server, TPDO producers, NMT slave and LSS
// slave of one node behind a single synchronous frame-dispatch entry
// point, per spec.md §4.8.
package slave

import (
	"log/slog"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/lss"
	"github.com/cia301/slavecore/pkg/nmt"
	"github.com/cia301/slavecore/pkg/node"
	"github.com/cia301/slavecore/pkg/od"
	"github.com/cia301/slavecore/pkg/pdo"
	"github.com/cia301/slavecore/pkg/sdo"
)

// Node is the supplemented convenience type SPEC_FULL.md §4 calls for: one
// Object Dictionary plus the services addressed through it, reachable
// through a single HandleFrame call.
type Node struct {
	logger *slog.Logger
	id     node.Id

	Dictionary *od.Dictionary
	SDO        *sdo.Server
	NMT        *nmt.Slave
	LSS        *lss.Slave
	TPDOs      []*pdo.TPDO
}

// New assembles a Node around an already-built Object Dictionary. LSS may
// be nil if the node doesn't implement LSS.
func New(logger *slog.Logger, id node.Id, dict *od.Dictionary, lssSlave *lss.Slave, nmtOnRequest nmt.RequestFunc) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		logger:     logger.With("service", "[NODE]"),
		id:         id,
		Dictionary: dict,
		SDO:        sdo.NewServer(logger, dict, id),
		NMT:        nmt.NewSlave(logger, id, nmtOnRequest),
		LSS:        lssSlave,
	}
}

// AddTPDO appends an already-constructed TPDO to the node (its comm and
// mapping records must already have been added to the Dictionary).
func (n *Node) AddTPDO(tp *pdo.TPDO) {
	n.TPDOs = append(n.TPDOs, tp)
}

// HandleFrame classifies an inbound frame by COB-ID and forwards it to the
// owning service, per spec.md §4.8. Extended-id frames are always ignored.
// Returns the response frame, if the service produced one.
func (n *Node) HandleFrame(f frame.Frame) (frame.Frame, bool) {
	if f.Extended() {
		return frame.Frame{}, false
	}

	switch {
	case f.ID() == node.NmtRequestCobId && len(f.Data()) == 2:
		n.NMT.Handle(f)
		return frame.Frame{}, false
	case f.ID() == n.SDO.RxCobId():
		return n.SDO.Handle(f)
	case n.LSS != nil && f.ID() == node.LssRequestCobId:
		return n.LSS.Handle(f)
	default:
		return frame.Frame{}, false
	}
}

// Tick advances every TPDO's inhibit/event timers by elapsedUs
// microseconds and returns the frames, if any, that became due. This is
// the host-driven timing hook of spec.md §5; it is never called from
// HandleFrame.
func (n *Node) Tick(elapsedUs uint32) []frame.Frame {
	var due []frame.Frame
	for _, tp := range n.TPDOs {
		if f, ok := tp.Tick(elapsedUs); ok {
			due = append(due, f)
		}
	}
	return due
}
