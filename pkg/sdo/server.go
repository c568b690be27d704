package sdo

import (
	"encoding/binary"
	"log/slog"

	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/node"
	"github.com/cia301/slavecore/pkg/od"
)

type transferState uint8

const (
	stateIdle transferState = iota
	stateSegmentedDownload
	stateSegmentedUpload
)

// Server is the SDO server side of one node: a single synchronous state
// machine bound to one rx/tx COB-ID pair, with no goroutines, channels or
// timers on the frame-processing path (spec.md §5). Call Handle once per
// inbound frame addressed to RxCobId(); it returns the frame to transmit,
// if any.
type Server struct {
	logger *slog.Logger
	od     *od.Dictionary

	rxCobId uint32
	txCobId uint32

	state        transferState
	toggle       bool
	position     od.Position
	lastIndex    uint16
	lastSubindex uint8

	transferred  int
	promised     *int
	uploadBuf    []byte
}

// NewServer builds an SDO server for id, backed by dict.
func NewServer(logger *slog.Logger, dict *od.Dictionary, id node.Id) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:  logger.With("service", "[SDO]"),
		od:      dict,
		rxCobId: id.SdoRxCobId(),
		txCobId: id.SdoTxCobId(),
	}
}

// RxCobId returns the COB-ID this server expects client requests on.
func (s *Server) RxCobId() uint32 { return s.rxCobId }

// TxCobId returns the COB-ID this server transmits responses on.
func (s *Server) TxCobId() uint32 { return s.txCobId }

// Handle processes one SDO client request and returns the response frame
// to send, if any. req must carry exactly 8 data bytes; shorter frames are
// silently ignored, matching CiA 301's requirement that SDO frames always
// have DLC 8.
func (s *Server) Handle(req frame.Frame) (frame.Frame, bool) {
	data := req.Data()
	if len(data) != 8 {
		return frame.Frame{}, false
	}

	cs := data[0]
	var resp frame.Frame
	var err error

	switch cs & ccsMask {
	case reqDownloadInit:
		s.state = stateIdle
		resp, err = s.initDownload(data)
	case reqDownloadSeg:
		resp, err = s.segmentDownload(data)
	case reqUploadInit:
		s.state = stateIdle
		resp, err = s.initUpload(data)
	case reqUploadSeg:
		resp, err = s.segmentUpload(data)
	case reqAbort:
		s.logger.Debug("transfer aborted by client", "index", s.lastIndex, "subindex", s.lastSubindex)
		s.state = stateIdle
		return frame.Frame{}, false
	default:
		err = od.ErrBadCommand
	}

	if err != nil {
		s.state = stateIdle
		s.logger.Warn("aborting transfer", "index", s.lastIndex, "subindex", s.lastSubindex, "error", err)
		return s.abortFrame(err), true
	}
	return resp, true
}

func (s *Server) initDownload(req []byte) (frame.Frame, error) {
	index := uint16(req[1]) | uint16(req[2])<<8
	subindex := req[3]
	s.lastIndex, s.lastSubindex = index, subindex

	pos, err := s.od.Search(index, subindex)
	if err != nil {
		return frame.Frame{}, err
	}
	flags := s.od.Flags(pos)
	if flags.IsReadOnly() {
		return frame.Frame{}, od.ErrReadOnly
	}
	link, info := s.od.GetPlus(pos)

	cs := req[0]
	if cs&expeditedBit != 0 {
		unused := int((cs >> 2) & 0x3)
		n := 4 - unused
		promised := n
		w := od.WriteData{
			Index: index, Subindex: subindex,
			NewData: req[4 : 4+n], Offset: 0,
			PromisedSize: &promised, IsLastSegment: true,
		}
		if err := link.Write(w, flags, info); err != nil {
			return frame.Frame{}, err
		}
	} else {
		s.state = stateSegmentedDownload
		s.toggle = false
		s.transferred = 0
		s.position = pos
		s.promised = nil
		if cs&sizeSpecifiedBit != 0 {
			size := int(binary.LittleEndian.Uint32(req[4:8]))
			s.promised = &size
		}
	}

	return s.buildResponse(respDownloadInit, index, subindex, nil)
}

func (s *Server) segmentDownload(req []byte) (frame.Frame, error) {
	if s.state != stateSegmentedDownload {
		return frame.Frame{}, od.ErrBadCommand
	}
	cs := req[0]
	if (cs&toggleBit != 0) != s.toggle {
		return frame.Frame{}, od.ErrToggle
	}

	link, info := s.od.GetPlus(s.position)
	flags := s.od.Flags(s.position)

	if s.transferred > 0 {
		if lockable, ok := link.(od.Lockable); ok && !lockable.IsLocked() {
			return frame.Frame{}, od.ErrLocalControl
		}
	}

	unused := int((cs >> 1) & 0x7)
	n := 7 - unused
	isLast := cs&noMoreDataBit != 0

	w := od.WriteData{
		Index: s.lastIndex, Subindex: s.lastSubindex,
		NewData: req[1 : 1+n], Offset: s.transferred,
		IsLastSegment: isLast,
	}
	if err := link.Write(w, flags, info); err != nil {
		return frame.Frame{}, err
	}
	s.transferred += n

	if isLast && s.promised != nil && s.transferred != *s.promised {
		if s.transferred < *s.promised {
			return frame.Frame{}, od.ErrTooShortData
		}
		return frame.Frame{}, od.ErrTooLongData
	}

	if lockable, ok := link.(od.Lockable); ok {
		lockable.SetLocked(!isLast)
	}

	prevToggle := s.toggle
	s.toggle = !s.toggle
	if isLast {
		s.state = stateIdle
	}

	var tb byte
	if prevToggle {
		tb = toggleBit
	}
	resp := [8]byte{respDownloadSeg | tb}
	f, _ := frame.New(s.txCobId, resp[:])
	return f, nil
}

func (s *Server) initUpload(req []byte) (frame.Frame, error) {
	index := uint16(req[1]) | uint16(req[2])<<8
	subindex := req[3]
	s.lastIndex, s.lastSubindex = index, subindex

	pos, err := s.od.Search(index, subindex)
	if err != nil {
		return frame.Frame{}, err
	}
	flags := s.od.Flags(pos)
	if flags.IsWriteOnly() {
		return frame.Frame{}, od.ErrWriteOnly
	}
	link := s.od.Get(pos)

	rd, err := link.Read(index, subindex)
	if err != nil {
		return frame.Frame{}, err
	}
	payload := rd.AsBytes()
	n := len(payload)

	var resp [8]byte
	resp[1] = byte(index)
	resp[2] = byte(index >> 8)
	resp[3] = subindex

	if n <= 4 {
		unused := 4 - n
		resp[0] = respUploadInit | sizeSpecifiedBit | expeditedBit | byte(unused<<2)
		copy(resp[4:4+n], payload)
	} else {
		resp[0] = respUploadInit | sizeSpecifiedBit
		binary.LittleEndian.PutUint32(resp[4:8], uint32(n))

		s.state = stateSegmentedUpload
		s.toggle = false
		s.transferred = 0
		s.position = pos
		s.uploadBuf = payload
		if lockable, ok := link.(od.Lockable); ok {
			lockable.SetLocked(true)
		}
	}

	f, _ := frame.New(s.txCobId, resp[:])
	return f, nil
}

func (s *Server) segmentUpload(req []byte) (frame.Frame, error) {
	if s.state != stateSegmentedUpload {
		return frame.Frame{}, od.ErrBadCommand
	}
	cs := req[0]
	if (cs&toggleBit != 0) != s.toggle {
		return frame.Frame{}, od.ErrToggle
	}

	link := s.od.Get(s.position)
	if lockable, ok := link.(od.Lockable); ok && !lockable.IsLocked() {
		return frame.Frame{}, od.ErrLocalControl
	}

	remaining := len(s.uploadBuf) - s.transferred
	n := remaining
	if n > 7 {
		n = 7
	}
	isLast := remaining <= 7

	var resp [8]byte
	copy(resp[1:1+n], s.uploadBuf[s.transferred:s.transferred+n])

	respCs := byte(respUploadSeg)
	if s.toggle {
		respCs |= toggleBit
	}
	respCs |= byte(7-n) << 1
	if isLast {
		respCs |= noMoreDataBit
	}
	resp[0] = respCs

	s.transferred += n
	s.toggle = !s.toggle

	if isLast {
		s.state = stateIdle
		s.uploadBuf = nil
		if lockable, ok := link.(od.Lockable); ok {
			lockable.SetLocked(false)
		}
	}

	f, _ := frame.New(s.txCobId, resp[:])
	return f, nil
}

func (s *Server) buildResponse(cs byte, index uint16, subindex uint8, body []byte) (frame.Frame, error) {
	resp := [8]byte{cs, byte(index), byte(index >> 8), subindex}
	copy(resp[4:], body)
	f, err := frame.New(s.txCobId, resp[:])
	return f, err
}

func (s *Server) abortFrame(err error) frame.Frame {
	code := uint32(od.ErrGeneralError)
	if oe, ok := err.(od.Error); ok {
		code = uint32(oe.Code)
	}
	resp := [8]byte{respAbort, byte(s.lastIndex), byte(s.lastIndex >> 8), s.lastSubindex}
	binary.LittleEndian.PutUint32(resp[4:8], code)
	f, _ := frame.New(s.txCobId, resp[:])
	return f
}
