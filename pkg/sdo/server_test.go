package sdo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/node"
	"github.com/cia301/slavecore/pkg/od"
	"github.com/cia301/slavecore/pkg/sdo"
)

func newTestServer(t *testing.T, build func(b *od.Builder)) *sdo.Server {
	t.Helper()
	id, err := node.New(5)
	require.NoError(t, err)
	b := od.NewBuilder()
	build(b)
	dict, err := b.Build()
	require.NoError(t, err)
	return sdo.NewServer(nil, dict, id)
}

func TestExpeditedDownloadThenUpload(t *testing.T) {
	var v od.U32
	s := newTestServer(t, func(b *od.Builder) {
		b.Add(0x2000, 0, &v, od.ReadWrite())
	})

	req, err := frame.New(s.RxCobId(), []byte{0x23, 0x00, 0x20, 0x00, 0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x60, 0x00, 0x20, 0x00, 0, 0, 0, 0}, resp.Data())
	assert.Equal(t, od.U32(0x04030201), v)

	req, err = frame.New(s.RxCobId(), []byte{0x40, 0x00, 0x20, 0x00, 0, 0, 0, 0})
	require.NoError(t, err)
	resp, ok = s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x43, 0x00, 0x20, 0x00, 0x01, 0x02, 0x03, 0x04}, resp.Data())
}

func TestSegmentedDownload(t *testing.T) {
	backing := make([]byte, 13)
	s := newTestServer(t, func(b *od.Builder) {
		b.Add(0x2001, 0, od.NewBytes(backing), od.ReadWrite())
	})

	req, _ := frame.New(s.RxCobId(), []byte{0x21, 0x01, 0x20, 0x00, 0x0D, 0x00, 0x00, 0x00})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x60, 0x01, 0x20, 0x00, 0, 0, 0, 0}, resp.Data())

	req, _ = frame.New(s.RxCobId(), []byte{0x00, 0x41, 0x20, 0x6C, 0x6F, 0x6E, 0x67, 0x20})
	resp, ok = s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x20, 0, 0, 0, 0, 0, 0, 0}, resp.Data())

	req, _ = frame.New(s.RxCobId(), []byte{0x13, 0x73, 0x74, 0x72, 0x69, 0x6E, 0x67, 0x00})
	resp, ok = s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x30, 0, 0, 0, 0, 0, 0, 0}, resp.Data())

	assert.Equal(t, "A long string", string(backing))
}

func TestSegmentedUpload(t *testing.T) {
	backing := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	s := newTestServer(t, func(b *od.Builder) {
		b.Add(0x2002, 0, od.NewBytes(backing), od.ReadOnly())
	})

	req, _ := frame.New(s.RxCobId(), []byte{0x40, 0x02, 0x20, 0x00, 0, 0, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x41, 0x02, 0x20, 0x00, 0x09, 0x00, 0x00, 0x00}, resp.Data())

	req, _ = frame.New(s.RxCobId(), []byte{0x60, 0, 0, 0, 0, 0, 0, 0})
	resp, ok = s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 1, 2, 3, 4, 5, 6, 7}, resp.Data())

	req, _ = frame.New(s.RxCobId(), []byte{0x70, 0, 0, 0, 0, 0, 0, 0})
	resp, ok = s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x1B, 8, 9, 0, 0, 0, 0, 0}, resp.Data())
}

func TestAbortUnknownObject(t *testing.T) {
	s := newTestServer(t, func(b *od.Builder) {})

	req, _ := frame.New(s.RxCobId(), []byte{0x40, 0, 0, 0, 0, 0, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x80, 0, 0, 0, 0x00, 0x00, 0x02, 0x06}, resp.Data())
}

func TestAbortUnknownCommandSpecifier(t *testing.T) {
	s := newTestServer(t, func(b *od.Builder) {})

	req, _ := frame.New(s.RxCobId(), []byte{0xE0, 0, 0, 0, 0, 0, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x80, 0, 0, 0, 0x01, 0x00, 0x04, 0x05}, resp.Data())
}

func TestAbortReadOnlyWrite(t *testing.T) {
	var v od.U8
	s := newTestServer(t, func(b *od.Builder) {
		b.Add(0x2003, 0, &v, od.ReadOnly())
	})

	req, _ := frame.New(s.RxCobId(), []byte{0x2F, 0x03, 0x20, 0x00, 0x01, 0, 0, 0})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x80, 0x03, 0x20, 0x00, 0x01, 0x00, 0x01, 0x06}, resp.Data())
}

func TestToggleMismatchAborts(t *testing.T) {
	backing := make([]byte, 13)
	s := newTestServer(t, func(b *od.Builder) {
		b.Add(0x2004, 0, od.NewBytes(backing), od.ReadWrite())
	})

	req, _ := frame.New(s.RxCobId(), []byte{0x21, 0x04, 0x20, 0x00, 0x0D, 0x00, 0x00, 0x00})
	_, _ = s.Handle(req)

	// Toggle bit should be 0 for the first segment; send it set instead.
	req, _ = frame.New(s.RxCobId(), []byte{0x10, 0x41, 0x20, 0x6C, 0x6F, 0x6E, 0x67, 0x20})
	resp, ok := s.Handle(req)
	require.True(t, ok)
	assert.Equal(t, []byte{0x80, 0x04, 0x20, 0x00, 0x00, 0x00, 0x03, 0x05}, resp.Data())
}

func TestShortFrameIgnored(t *testing.T) {
	s := newTestServer(t, func(b *od.Builder) {})
	req, _ := frame.New(s.RxCobId(), []byte{0x40, 0, 0})
	_, ok := s.Handle(req)
	assert.False(t, ok)
}
