// Package can provides the CAN bus capability adapter. The real
// implementation binds SocketCAN through go.einride.tech/can; the mock
// simulates a bus that echoes every transmitted frame back as a response.
package can

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/golang/glog"
	einride "go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Kind is the capability name this package registers under.
const Kind = "can"

func init() {
	hal.Register(Kind, hal.Factory{
		New:     func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return New(cfg), nil },
		NewMock: func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return NewMock(cfg), nil },
	})
}

// Message is one CAN frame as seen by test code.
type Message struct {
	ID        uint32    `json:"id"`
	Data      []byte    `json:"data"`
	Extended  bool      `json:"extended,omitempty"`
	FD        bool      `json:"fd,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus is the operation contract shared by the real and mock CAN adapters.
type Bus interface {
	hal.Adapter

	SendMessage(id uint32, data []byte) hal.Result
	// ReceiveMessage returns the next frame. timeout semantics: 0 is a
	// non-blocking poll (no frame available is not an error: nil message,
	// successful Result), negative blocks indefinitely.
	ReceiveMessage(timeout time.Duration) (*Message, hal.Result)
	AddFilter(id uint32) hal.Result
	ClearFilters() hal.Result
	Filters() []uint32
	FlushRX() int
}

// Adapter drives a SocketCAN interface.
type Adapter struct {
	cfg     platform.InterfaceConfig
	channel string
	bitrate int

	conn    net.Conn
	tx      *socketcan.Transmitter
	rx      *socketcan.Receiver
	filters []uint32
	ready   bool
}

var _ Bus = (*Adapter)(nil)

// New constructs an uninitialized SocketCAN adapter from its interface
// configuration.
func New(cfg platform.InterfaceConfig) *Adapter {
	return &Adapter{
		cfg:     cfg,
		channel: cfg.String("channel", "can0"),
		bitrate: cfg.Int("bitrate", 500000),
	}
}

// Name implements hal.Adapter.
func (a *Adapter) Name() string { return Kind }

// Initialize opens the SocketCAN interface. Bitrate is assumed to be set on
// the interface by the host (ip link); SocketCAN does not expose it per
// socket.
func (a *Adapter) Initialize() hal.Result {
	if a.ready {
		return hal.OK("CAN already initialized on %s", a.channel)
	}
	conn, err := socketcan.Dial("can", a.channel)
	if err != nil {
		glog.Errorf("CAN initialization failed on %s: %v", a.channel, err)
		return hal.Fail("opening %s: %v", a.channel, err)
	}
	a.conn = conn
	a.tx = socketcan.NewTransmitter(conn)
	a.rx = socketcan.NewReceiver(conn)
	a.ready = true
	return hal.OK("CAN initialized: %s @ %d bps", a.channel, a.bitrate)
}

// SendMessage transmits one frame.
func (a *Adapter) SendMessage(id uint32, data []byte) hal.Result {
	if !a.ready {
		return hal.NotInitialized(Kind)
	}
	if len(data) > 8 {
		return hal.Fail("CAN frame data exceeds 8 bytes (%d)", len(data))
	}
	frame := einride.Frame{
		ID:         id,
		Length:     uint8(len(data)),
		IsExtended: id > 0x7FF,
	}
	copy(frame.Data[:], data)
	if err := a.tx.TransmitFrame(context.Background(), frame); err != nil {
		return hal.Fail("transmit 0x%X: %v", id, err)
	}
	return hal.OK("sent ID 0x%X (%d bytes)", id, len(data))
}

// ReceiveMessage reads the next frame matching the active filters.
func (a *Adapter) ReceiveMessage(timeout time.Duration) (*Message, hal.Result) {
	if !a.ready {
		return nil, hal.NotInitialized(Kind)
	}
	deadline := time.Time{}
	if timeout == 0 {
		// Non-blocking poll: give the socket a minimal deadline.
		deadline = time.Now().Add(time.Millisecond)
	} else if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := a.conn.SetReadDeadline(deadline); err != nil {
		return nil, hal.Fail("setting read deadline: %v", err)
	}

	for a.rx.Receive() {
		frame := a.rx.Frame()
		if !a.matchesFilters(frame.ID) {
			continue
		}
		msg := &Message{
			ID:        frame.ID,
			Data:      frame.Data[:frame.Length],
			Extended:  frame.IsExtended,
			Timestamp: time.Now(),
		}
		return msg, hal.OK("received ID 0x%X", frame.ID)
	}
	// Timeout without a frame is an empty read, not a failure.
	return nil, hal.OK("no message within timeout")
}

// AddFilter restricts reception to the given arbitration ID. Filtering is
// applied in software on the receive path.
func (a *Adapter) AddFilter(id uint32) hal.Result {
	a.filters = append(a.filters, id)
	return hal.OK("filter added: 0x%X", id)
}

// ClearFilters removes all receive filters.
func (a *Adapter) ClearFilters() hal.Result {
	a.filters = nil
	return hal.OK("filters cleared")
}

// Filters returns the active filter IDs.
func (a *Adapter) Filters() []uint32 {
	out := make([]uint32, len(a.filters))
	copy(out, a.filters)
	return out
}

// FlushRX drains pending frames and returns how many were discarded.
func (a *Adapter) FlushRX() int {
	if !a.ready {
		return 0
	}
	count := 0
	_ = a.conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	for a.rx.Receive() {
		count++
	}
	return count
}

// Cleanup closes the socket. Idempotent.
func (a *Adapter) Cleanup() hal.Result {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.conn = nil
			a.ready = false
			return hal.Fail("closing %s: %v", a.channel, err)
		}
		a.conn = nil
	}
	a.ready = false
	return hal.OK("CAN cleaned up")
}

// Ready implements hal.Adapter.
func (a *Adapter) Ready() bool { return a.ready }

// Status implements hal.Adapter.
func (a *Adapter) Status() string {
	if a.ready {
		return fmt.Sprintf("active on %s", a.channel)
	}
	return "not_initialized"
}

func (a *Adapter) matchesFilters(id uint32) bool {
	if len(a.filters) == 0 {
		return true
	}
	for _, f := range a.filters {
		if f == id {
			return true
		}
	}
	return false
}
