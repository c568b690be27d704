// Package canbus adapts a real SocketCAN interface to pkg/frame.Frame,
// the minimal wire type the rest of the stack depends on. It is pure
// transport glue: no service logic lives here, and nothing in this
// package runs on the frame-processing hot path of spec.md §5 - Bus.Run
// is meant to be launched in its own goroutine by the host binary, which
// then calls Node.HandleFrame synchronously for each frame it receives.
package canbus

import (
	sockcan "github.com/brutella/can"
	"golang.org/x/sys/unix"

	"github.com/cia301/slavecore/pkg/frame"
)

// canEffFlag marks an extended (29-bit) identifier in a raw SocketCAN ID
// word, mirroring the teacher's own CAN_EFF_FLAG constant (golang.org/x/sys/unix
// does not export this bit under a name the teacher uses directly).
const canEffFlag uint32 = 0x80000000

// Bus wraps a brutella/can SocketCAN bus.
type Bus struct {
	bus     *sockcan.Bus
	onFrame func(frame.Frame)
}

// Open binds a SocketCAN interface by name, e.g. "can0".
func Open(iface string) (*Bus, error) {
	raw, err := sockcan.NewBusForInterfaceWithName(iface)
	if err != nil {
		return nil, err
	}
	return &Bus{bus: raw}, nil
}

// Subscribe registers onFrame to be invoked for every inbound standard
// frame. Extended-identifier frames are dropped here, matching spec.md
// §4.8 ("extended-id frames are always ignored").
func (b *Bus) Subscribe(onFrame func(frame.Frame)) {
	b.onFrame = onFrame
	b.bus.Subscribe(b)
}

// Handle implements brutella/can's frame-handler interface.
func (b *Bus) Handle(raw sockcan.Frame) {
	if raw.ID&canEffFlag != 0 {
		return
	}
	id := raw.ID & unix.CAN_SFF_MASK
	f, err := frame.New(id, raw.Data[:raw.Length])
	if err != nil {
		return
	}
	if b.onFrame != nil {
		b.onFrame(f)
	}
}

// Send transmits f as a standard-frame-format SocketCAN frame.
func (b *Bus) Send(f frame.Frame) error {
	var data [8]byte
	copy(data[:], f.Data())
	return b.bus.Publish(sockcan.Frame{
		ID:     f.ID(),
		Length: uint8(len(f.Data())),
		Data:   data,
	})
}

// Run blocks, receiving frames and delivering them to Subscribe's
// callback, until Close is called.
func (b *Bus) Run() error {
	return b.bus.ConnectAndPublish()
}

// Close disconnects the underlying SocketCAN bus.
func (b *Bus) Close() error {
	return b.bus.Disconnect()
}
