// Package nmt implements the Network Management slave (C7): the
// broadcast/targeted state-transition protocol on COB-ID 0x000, per
// spec.md §4.6.
package nmt

import (
	"log/slog"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/node"
)

// State is one of the four CANopen NMT states a slave can be commanded
// into.
type State uint8

const (
	Initialisation State = iota
	Stopped
	Operational
	PreOperational
)

func (s State) String() string {
	switch s {
	case Initialisation:
		return "Initialisation"
	case Stopped:
		return "Stopped"
	case Operational:
		return "Operational"
	case PreOperational:
		return "PreOperational"
	default:
		return "Unknown"
	}
}

// Command codes, CiA 301 §7.2.8.3.1.
const (
	cmdStart             = 0x01
	cmdStop              = 0x02
	cmdEnterPreOperational = 0x80
	cmdResetNode         = 0x81
	cmdResetComm         = 0x82
)

var nextState = map[byte]State{
	cmdStart:               Operational,
	cmdStop:                Stopped,
	cmdEnterPreOperational: PreOperational,
	cmdResetNode:           Initialisation,
	cmdResetComm:           Initialisation,
}

// RequestFunc is invoked for every accepted command; the default behaviour
// (used when nil) just looks the command up in the CiA 301 table.
type RequestFunc func(cmd byte) State

// Slave is the NMT slave for one node: it tracks the current state and
// reacts synchronously to inbound command frames, with no response frame
// ever emitted (boot-up announcements are a separate, on-demand method).
type Slave struct {
	logger     *slog.Logger
	id         node.Id
	state      State
	onRequest  RequestFunc
}

// NewSlave builds an NMT slave for id, starting in Initialisation.
func NewSlave(logger *slog.Logger, id node.Id, onRequest RequestFunc) *Slave {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slave{
		logger:    logger.With("service", "[NMT]"),
		id:        id,
		state:     Initialisation,
		onRequest: onRequest,
	}
}

// State returns the slave's current NMT state.
func (s *Slave) State() State { return s.state }

// Handle processes one inbound NMT request frame. Broadcast frames (target
// 0) and frames targeted at this node's own id are applied; frames
// targeted at any other id are ignored. Never produces a response frame.
func (s *Slave) Handle(req frame.Frame) {
	data := req.Data()
	if len(data) != 2 {
		return
	}
	cmd, target := data[0], data[1]
	if target != 0 && target != s.id.Raw() {
		return
	}

	next, known := nextState[cmd]
	if !known {
		s.logger.Warn("unknown nmt command", "cmd", cmd)
		return
	}
	if s.onRequest != nil {
		next = s.onRequest(cmd)
	}
	s.logger.Info("nmt transition", "cmd", cmd, "state", next.String())
	s.state = next
}

// BootUp builds the boot-up announcement frame CiA 301 requires a slave to
// emit once, after initialisation completes: COB-ID 0x700+id, payload
// [0x00].
func (s *Slave) BootUp() frame.Frame {
	f, _ := frame.New(s.id.BootUpCobId(), []byte{0x00})
	return f
}
