package node_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cia301/slavecore/pkg/node"
)

func TestNewRejectsOutOfRange(t *testing.T) {
	_, err := node.New(0)
	assert.ErrorIs(t, err, node.ErrInvalidNodeId)

	_, err = node.New(128)
	assert.ErrorIs(t, err, node.ErrInvalidNodeId)

	id, err := node.New(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), id.Raw())
}

func TestDerivedCobIds(t *testing.T) {
	id, err := node.New(0x05)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x605), id.SdoRxCobId())
	assert.Equal(t, uint32(0x585), id.SdoTxCobId())
	assert.Equal(t, uint32(0x705), id.BootUpCobId())
	assert.Equal(t, uint32(0x085), id.EmergencyCobId())

	cobId, err := id.DefaultTPDOCobId(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x185), cobId)

	cobId, err = id.DefaultTPDOCobId(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x485), cobId)

	_, err = id.DefaultTPDOCobId(5)
	assert.Error(t, err)
	_, err = id.DefaultTPDOCobId(0)
	assert.Error(t, err)
}

func TestCobIdPackUnpackRoundTrip(t *testing.T) {
	std, err := node.NewStandardCanId(0x185)
	require.NoError(t, err)
	c := node.CobId{Valid: true, Rtr: false, Id: std}
	packed := c.Pack()
	assert.Equal(t, uint32(0x185), packed)

	back := node.UnpackCobId(packed)
	assert.True(t, back.Valid)
	assert.False(t, back.Rtr)
	assert.Equal(t, uint32(0x185), back.Id.Value())

	inactive := node.CobId{Valid: false, Id: std}
	packed = inactive.Pack()
	assert.Equal(t, uint32(0x80000185), packed)
	back = node.UnpackCobId(packed)
	assert.False(t, back.Valid)
}

func TestExtendedCanId(t *testing.T) {
	ext, err := node.NewExtendedCanId(0x1FFFFFFF)
	require.NoError(t, err)
	assert.True(t, ext.Extended())

	_, err = node.NewExtendedCanId(0x20000000)
	assert.ErrorIs(t, err, node.ErrInvalidCanId)

	_, err = node.NewStandardCanId(0x800)
	assert.ErrorIs(t, err, node.ErrInvalidCanId)
}
