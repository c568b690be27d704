package slave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/lss"
	"github.com/cia301/slavecore/pkg/node"
	"github.com/cia301/slavecore/pkg/od"
	"github.com/cia301/slavecore/pkg/slave"
)

func TestDispatchIgnoresUnrelatedCobIds(t *testing.T) {
	id, err := node.New(5)
	require.NoError(t, err)
	dict, err := od.NewBuilder().Build()
	require.NoError(t, err)
	n := slave.New(nil, id, dict, nil, nil)

	f, _ := frame.New(0x123, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	_, ok := n.HandleFrame(f)
	assert.False(t, ok)
}

func TestDispatchRoutesToSdo(t *testing.T) {
	id, err := node.New(5)
	require.NoError(t, err)
	var v od.U8
	b := od.NewBuilder()
	b.Add(0x2000, 0, &v, od.ReadOnly())
	dict, err := b.Build()
	require.NoError(t, err)
	n := slave.New(nil, id, dict, nil, nil)

	req, _ := frame.New(id.SdoRxCobId(), []byte{0x40, 0x00, 0x20, 0x00, 0, 0, 0, 0})
	resp, ok := n.HandleFrame(req)
	require.True(t, ok)
	assert.Equal(t, id.SdoTxCobId(), resp.ID())
}

func TestDispatchRoutesToLss(t *testing.T) {
	id, err := node.New(5)
	require.NoError(t, err)
	dict, err := od.NewBuilder().Build()
	require.NoError(t, err)
	lssSlave := lss.NewSlave(nil, nil, lss.Address{}, lss.Callbacks{})
	n := slave.New(nil, id, dict, lssSlave, nil)

	req, _ := frame.New(node.LssRequestCobId, []byte{0x5E, 0, 0, 0, 0, 0, 0, 0})
	_, ok := n.HandleFrame(req)
	// 0x5E is only processed in Configuration mode, so no response.
	assert.False(t, ok)
}

func TestDispatchIgnoresExtendedFrames(t *testing.T) {
	id, err := node.New(5)
	require.NoError(t, err)
	dict, err := od.NewBuilder().Build()
	require.NoError(t, err)
	n := slave.New(nil, id, dict, nil, nil)

	f, _ := frame.NewExtended(id.SdoRxCobId(), []byte{0x40, 0x00, 0x20, 0x00, 0, 0, 0, 0})
	_, ok := n.HandleFrame(f)
	assert.False(t, ok)
}
