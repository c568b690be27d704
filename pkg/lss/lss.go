// Package lss implements the Layer Setting Services slave (C8): the
// stateful node-ID and bit-rate configuration protocol of CiA 305, per
// spec.md §4.7.
package lss

import (
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/node"
)

// Command specifiers, CiA 305 §4.3.
const (
	cmdSwitchGlobal  = 0x04
	cmdConfigureNodeId = 0x11
	cmdConfigureBitTiming = 0x13
	cmdActivateBitTiming  = 0x15
	cmdStoreConfiguration = 0x17

	cmdSwitchSelectiveVendor   = 0x40
	cmdSwitchSelectiveProduct  = 0x41
	cmdSwitchSelectiveRevision = 0x42
	cmdSwitchSelectiveSerial   = 0x43
	cmdSwitchSelectiveResponse = 0x44

	cmdIdentifyVendor        = 0x46
	cmdIdentifyProduct       = 0x47
	cmdIdentifyRevisionLow   = 0x48
	cmdIdentifyRevisionHigh  = 0x49
	cmdIdentifySerialLow     = 0x4A
	cmdIdentifySerialHigh    = 0x4B
	cmdIdentifyResponse      = 0x4F

	cmdFastScan = 0x51

	cmdInquireVendor   = 0x5A
	cmdInquireProduct  = 0x5B
	cmdInquireRevision = 0x5C
	cmdInquireSerial   = 0x5D
	cmdInquireNodeId   = 0x5E

	statusOk           = 0x00
	statusGenericError = 0x01
	statusStoreFailed  = 0x02
)

// Mode is the LSS slave's coarse operating mode: only SwitchGlobal,
// SwitchSelective, Identify and FastScan are processed in Wait; every
// other service requires Configuration.
type Mode uint8

const (
	Wait Mode = iota
	Configuration
)

// partialState tracks progress through the multi-message SwitchSelective
// and Identify sequences. Any message that doesn't extend the current
// sequence resets it to Init.
type partialState uint8

const (
	psInit partialState = iota
	psIdentifyVendorMatched
	psIdentifyProductMatched
	psIdentifyRevisionLowMatched
	psIdentifyRevisionHighMatched
	psIdentifySerialLowMatched
	psSwitchVendorMatched
	psSwitchProductMatched
	psSwitchRevisionMatched
)

// StoreResult is the outcome of a StoreConfiguration callback.
type StoreResult uint8

const (
	StoreOK StoreResult = iota
	StoreNotSupported
	StoreFailed
)

// Callbacks lets the host react to node-ID persistence requests. Either
// field may be nil.
type Callbacks struct {
	// StoreConfiguration is invoked on the Store Configuration service.
	StoreConfiguration func(id node.Id) StoreResult
	// OnNewNodeId is invoked when switching Configuration -> Wait with a
	// pending node-ID change, giving the host a chance to reset.
	OnNewNodeId func(id node.Id)
}

// Address is the four 32-bit identity fields CiA 305 Switch-Selective and
// Identify match against.
type Address struct {
	VendorId       uint32
	ProductCode    uint32
	RevisionNumber uint32
	SerialNumber   uint32
}

func (a Address) component(i int) uint32 {
	switch i {
	case 0:
		return a.VendorId
	case 1:
		return a.ProductCode
	case 2:
		return a.RevisionNumber
	default:
		return a.SerialNumber
	}
}

// Slave is the LSS slave for one node.
type Slave struct {
	logger    *slog.Logger
	callbacks Callbacks

	nodeId        *node.Id
	address       Address
	mode          Mode
	partial       partialState
	expectedScanSub uint8
	nodeIdChanged bool
}

// NewSlave builds an LSS slave starting in Wait mode with the given
// identity address. nodeId may be nil to represent an unconfigured device
// (CiA 305: reported as node-ID 0xFF).
func NewSlave(logger *slog.Logger, nodeId *node.Id, address Address, callbacks Callbacks) *Slave {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slave{
		logger:    logger.With("service", "[LSS]"),
		callbacks: callbacks,
		nodeId:    nodeId,
		address:   address,
		mode:      Wait,
	}
}

// NodeId returns the slave's currently configured node-ID, or nil if
// unconfigured.
func (s *Slave) NodeId() *node.Id { return s.nodeId }

// Mode returns the slave's current LSS mode.
func (s *Slave) Mode() Mode { return s.mode }

// Handle processes one inbound LSS request frame and returns the response
// frame, if any. Most services emit no response.
func (s *Slave) Handle(req frame.Frame) (frame.Frame, bool) {
	data := req.Data()
	if len(data) != 8 {
		return frame.Frame{}, false
	}
	cs := data[0]

	switch cs {
	case cmdSwitchGlobal:
		s.partial = psInit
		s.switchGlobal(data[1])
		return frame.Frame{}, false
	case cmdSwitchSelectiveVendor, cmdSwitchSelectiveProduct, cmdSwitchSelectiveRevision, cmdSwitchSelectiveSerial:
		return s.respond(s.switchSelective(cs, data))
	case cmdIdentifyVendor, cmdIdentifyProduct, cmdIdentifyRevisionLow, cmdIdentifyRevisionHigh, cmdIdentifySerialLow, cmdIdentifySerialHigh:
		return s.respond(s.identify(cs, data))
	case cmdFastScan:
		return s.respond(s.fastScan(data))
	default:
		s.partial = psInit
	}

	if s.mode == Wait {
		return frame.Frame{}, false
	}

	switch cs {
	case cmdConfigureNodeId:
		return s.respond(s.configureNodeId(data[1]))
	case cmdConfigureBitTiming:
		return s.respond(s.configureBitTiming(data[1], data[2]))
	case cmdActivateBitTiming:
		return s.respond(s.activateBitTiming())
	case cmdStoreConfiguration:
		return s.respond(s.storeConfiguration())
	case cmdInquireVendor, cmdInquireProduct, cmdInquireRevision, cmdInquireSerial:
		return s.respond(s.inquire(cs))
	case cmdInquireNodeId:
		return s.respond(s.inquireNodeId())
	default:
		return frame.Frame{}, false
	}
}

func (s *Slave) respond(body *[8]byte) (frame.Frame, bool) {
	if body == nil {
		return frame.Frame{}, false
	}
	f, _ := frame.New(node.LssResponseId, body[:])
	return f, true
}

func (s *Slave) switchGlobal(modeByte byte) {
	switch modeByte {
	case 0x00:
		s.mode = Wait
		if s.callbacks.OnNewNodeId != nil && s.nodeId != nil && s.nodeIdChanged {
			s.callbacks.OnNewNodeId(*s.nodeId)
		}
		s.nodeIdChanged = false
	case 0x01:
		s.mode = Configuration
	}
}

func (s *Slave) switchSelective(cs byte, req []byte) *[8]byte {
	addr := binary.LittleEndian.Uint32(req[1:5])

	switch {
	case cs == cmdSwitchSelectiveVendor:
		if addr == s.address.VendorId {
			s.partial = psSwitchVendorMatched
			return nil
		}
	case cs == cmdSwitchSelectiveProduct && s.partial == psSwitchVendorMatched:
		if addr == s.address.ProductCode {
			s.partial = psSwitchProductMatched
			return nil
		}
	case cs == cmdSwitchSelectiveRevision && s.partial == psSwitchProductMatched:
		if addr == s.address.RevisionNumber {
			s.partial = psSwitchRevisionMatched
			return nil
		}
	case cs == cmdSwitchSelectiveSerial && s.partial == psSwitchRevisionMatched:
		if addr == s.address.SerialNumber {
			s.partial = psInit
			s.mode = Configuration
			return &[8]byte{cmdSwitchSelectiveResponse}
		}
	}
	s.partial = psInit
	return nil
}

func (s *Slave) identify(cs byte, req []byte) *[8]byte {
	addr := binary.LittleEndian.Uint32(req[1:5])

	switch {
	case cs == cmdIdentifyVendor:
		if addr == s.address.VendorId {
			s.partial = psIdentifyVendorMatched
			return nil
		}
	case cs == cmdIdentifyProduct && s.partial == psIdentifyVendorMatched:
		if addr == s.address.ProductCode {
			s.partial = psIdentifyProductMatched
			return nil
		}
	case cs == cmdIdentifyRevisionLow && s.partial == psIdentifyProductMatched:
		if addr <= s.address.RevisionNumber {
			s.partial = psIdentifyRevisionLowMatched
			return nil
		}
	case cs == cmdIdentifyRevisionHigh && s.partial == psIdentifyRevisionLowMatched:
		if addr >= s.address.RevisionNumber {
			s.partial = psIdentifyRevisionHighMatched
			return nil
		}
	case cs == cmdIdentifySerialLow && s.partial == psIdentifyRevisionHighMatched:
		if addr <= s.address.SerialNumber {
			s.partial = psIdentifySerialLowMatched
			return nil
		}
	case cs == cmdIdentifySerialHigh && s.partial == psIdentifySerialLowMatched:
		if addr >= s.address.SerialNumber {
			s.partial = psInit
			return &[8]byte{cmdIdentifyResponse}
		}
	}
	s.partial = psInit
	return nil
}

func (s *Slave) fastScan(req []byte) *[8]byte {
	if s.mode == Configuration {
		return nil
	}
	idNumber := binary.LittleEndian.Uint32(req[1:5])
	bitChecked := req[5]
	lssSub := req[6]
	lssNext := req[7]

	if bitChecked == 128 {
		s.expectedScanSub = 0
		return &[8]byte{cmdIdentifyResponse}
	}
	if lssSub != s.expectedScanSub || lssSub >= 4 || bitChecked >= 32 {
		return nil
	}
	mask := uint32(math.MaxUint32) << bitChecked
	if (s.address.component(int(lssSub))^idNumber)&mask != 0 {
		return nil
	}
	s.expectedScanSub = lssNext
	if bitChecked == 0 && lssNext < lssSub {
		s.mode = Configuration
	}
	return &[8]byte{cmdIdentifyResponse}
}

func (s *Slave) configureNodeId(candidate byte) *[8]byte {
	id, err := node.New(candidate)
	if err != nil {
		return &[8]byte{cmdConfigureNodeId, statusGenericError}
	}
	if s.nodeId == nil || s.nodeId.Raw() != id.Raw() {
		s.nodeIdChanged = true
	}
	s.nodeId = &id
	return &[8]byte{cmdConfigureNodeId, statusOk}
}

func (s *Slave) storeConfiguration() *[8]byte {
	status := byte(statusGenericError)
	if s.callbacks.StoreConfiguration != nil && s.nodeId != nil {
		switch s.callbacks.StoreConfiguration(*s.nodeId) {
		case StoreOK:
			status = statusOk
		case StoreNotSupported:
			status = statusGenericError
		case StoreFailed:
			status = statusStoreFailed
		}
	}
	return &[8]byte{cmdStoreConfiguration, status}
}

// configureBitTiming parses but never applies bit-timing parameters:
// CiA 301 bit-timing activation is out of scope (spec.md Non-goals), and a
// slave that can't actually switch bitrate MUST NOT silently claim success.
func (s *Slave) configureBitTiming(tableSelector, tableIndex byte) *[8]byte {
	s.logger.Warn("bit timing configuration requested but not supported", "table_selector", tableSelector, "table_index", tableIndex)
	return &[8]byte{cmdConfigureBitTiming, statusGenericError}
}

func (s *Slave) activateBitTiming() *[8]byte {
	return &[8]byte{cmdActivateBitTiming, statusGenericError}
}

func (s *Slave) inquire(cs byte) *[8]byte {
	var value uint32
	switch cs {
	case cmdInquireVendor:
		value = s.address.VendorId
	case cmdInquireProduct:
		value = s.address.ProductCode
	case cmdInquireRevision:
		value = s.address.RevisionNumber
	case cmdInquireSerial:
		value = s.address.SerialNumber
	}
	resp := [8]byte{cs}
	binary.LittleEndian.PutUint32(resp[1:5], value)
	return &resp
}

func (s *Slave) inquireNodeId() *[8]byte {
	raw := byte(0xFF)
	if s.nodeId != nil {
		raw = s.nodeId.Raw()
	}
	return &[8]byte{cmdInquireNodeId, raw}
}
