package lss_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/lss"
	"github.com/cia301/slavecore/pkg/node"
)

var testAddress = lss.Address{
	VendorId:       0x11,
	ProductCode:    0x22,
	RevisionNumber: 0x33,
	SerialNumber:   0x44,
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func identifyFrame(cs byte, v uint32) frame.Frame {
	data := append([]byte{cs}, le32(v)...)
	data = append(data, 0, 0, 0)
	f, _ := frame.New(node.LssRequestCobId, data)
	return f
}

func TestIdentifyFullMatchWithRevisionAndSerialRange(t *testing.T) {
	s := lss.NewSlave(nil, nil, testAddress, lss.Callbacks{})

	_, ok := s.Handle(identifyFrame(0x46, testAddress.VendorId))
	assert.False(t, ok)
	_, ok = s.Handle(identifyFrame(0x47, testAddress.ProductCode))
	assert.False(t, ok)
	_, ok = s.Handle(identifyFrame(0x48, testAddress.RevisionNumber-1)) // low <= mine
	assert.False(t, ok)
	_, ok = s.Handle(identifyFrame(0x49, testAddress.RevisionNumber+1)) // high >= mine
	assert.False(t, ok)
	_, ok = s.Handle(identifyFrame(0x4A, testAddress.SerialNumber-1))
	assert.False(t, ok)
	resp, ok := s.Handle(identifyFrame(0x4B, testAddress.SerialNumber+1))
	require.True(t, ok)
	assert.Equal(t, byte(0x4F), resp.Data()[0])
}

func TestIdentifyRevisionBoundsAreInclusiveNotReversed(t *testing.T) {
	s := lss.NewSlave(nil, nil, testAddress, lss.Callbacks{})
	_, _ = s.Handle(identifyFrame(0x46, testAddress.VendorId))
	_, _ = s.Handle(identifyFrame(0x47, testAddress.ProductCode))

	// revision_low > mine must fail the bound check and reset the sequence.
	_, ok := s.Handle(identifyFrame(0x48, testAddress.RevisionNumber+1))
	assert.False(t, ok)

	// Sequence was reset: continuing with revision_high now is out of
	// order and must not advance either.
	_, ok = s.Handle(identifyFrame(0x49, testAddress.RevisionNumber))
	assert.False(t, ok)
}

func TestSwitchSelectiveSequence(t *testing.T) {
	s := lss.NewSlave(nil, nil, testAddress, lss.Callbacks{})
	assert.Equal(t, lss.Wait, s.Mode())

	_, ok := s.Handle(identifyFrame(0x40, testAddress.VendorId))
	assert.False(t, ok)
	_, ok = s.Handle(identifyFrame(0x41, testAddress.ProductCode))
	assert.False(t, ok)
	_, ok = s.Handle(identifyFrame(0x42, testAddress.RevisionNumber))
	assert.False(t, ok)
	resp, ok := s.Handle(identifyFrame(0x43, testAddress.SerialNumber))
	require.True(t, ok)
	assert.Equal(t, byte(0x44), resp.Data()[0])
	assert.Equal(t, lss.Configuration, s.Mode())
}

func TestConfigureNodeId(t *testing.T) {
	s := lss.NewSlave(nil, nil, testAddress, lss.Callbacks{})
	// ConfigureNodeId is only processed in Configuration mode.
	globalOn, _ := frame.New(node.LssRequestCobId, []byte{0x04, 0x01, 0, 0, 0, 0, 0, 0})
	_, ok := s.Handle(globalOn)
	assert.False(t, ok)
	assert.Equal(t, lss.Configuration, s.Mode())

	req, _ := frame.New(node.LssRequestCobId, []byte{0x11, 42, 0, 0, 0, 0, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x11, 0x00, 0, 0, 0, 0, 0, 0}, resp.Data())
	require.NotNil(t, s.NodeId())
	assert.Equal(t, uint8(42), s.NodeId().Raw())

	bad, _ := frame.New(node.LssRequestCobId, []byte{0x11, 0, 0, 0, 0, 0, 0, 0})
	resp, ok = s.Handle(bad)
	require.True(t, ok)
	assert.Equal(t, byte(0x01), resp.Data()[1])
}

func TestBitTimingNeverSilentlySucceeds(t *testing.T) {
	s := lss.NewSlave(nil, nil, testAddress, lss.Callbacks{})
	globalOn, _ := frame.New(node.LssRequestCobId, []byte{0x04, 0x01, 0, 0, 0, 0, 0, 0})
	_, _ = s.Handle(globalOn)

	req, _ := frame.New(node.LssRequestCobId, []byte{0x13, 0, 0, 0, 0, 0, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, byte(0x01), resp.Data()[1])

	req, _ = frame.New(node.LssRequestCobId, []byte{0x15, 0, 0, 0, 0, 0, 0, 0})
	resp, ok = s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, byte(0x01), resp.Data()[1])
}

func TestFastScanInitialProbe(t *testing.T) {
	s := lss.NewSlave(nil, nil, testAddress, lss.Callbacks{})
	req, _ := frame.New(node.LssRequestCobId, []byte{0x51, 0, 0, 0, 0, 128, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, byte(0x4F), resp.Data()[0])
}

func TestInquireNodeIdUnconfigured(t *testing.T) {
	s := lss.NewSlave(nil, nil, testAddress, lss.Callbacks{})
	globalOn, _ := frame.New(node.LssRequestCobId, []byte{0x04, 0x01, 0, 0, 0, 0, 0, 0})
	_, _ = s.Handle(globalOn)

	req, _ := frame.New(node.LssRequestCobId, []byte{0x5E, 0, 0, 0, 0, 0, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, byte(0xFF), resp.Data()[1])
}
