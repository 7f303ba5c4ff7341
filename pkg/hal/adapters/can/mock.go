package can

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Mock simulates a CAN bus without touching hardware. Every sent frame is
// answered with an echo response queued for reception: the response carries
// the request ID plus 0x08 and each data byte incremented by one.
type Mock struct {
	cfg     platform.InterfaceConfig
	channel string

	ready     bool
	queue     []Message
	filters   []uint32
	sendCount int
	recvCount int
	errCount  int
}

var _ Bus = (*Mock)(nil)

// NewMock constructs the simulated CAN adapter.
func NewMock(cfg platform.InterfaceConfig) *Mock {
	return &Mock{cfg: cfg, channel: cfg.String("channel", "vcan0")}
}

// Name implements hal.Adapter.
func (m *Mock) Name() string { return Kind }

// Initialize marks the simulated bus ready.
func (m *Mock) Initialize() hal.Result {
	m.ready = true
	glog.V(1).Infof("mock CAN initialized: %s", m.channel)
	return hal.OK("mock CAN interface initialized")
}

// SendMessage records the frame and queues the simulated response.
func (m *Mock) SendMessage(id uint32, data []byte) hal.Result {
	if !m.ready {
		return hal.NotInitialized(Kind)
	}
	m.sendCount++
	response := Message{
		ID:        id + 0x08,
		Data:      make([]byte, len(data)),
		Extended:  id > 0x7FF,
		Timestamp: time.Now(),
	}
	for i, b := range data {
		response.Data[i] = b + 1
	}
	m.queue = append(m.queue, response)
	return hal.OK("mock sent ID 0x%X", id)
}

// ReceiveMessage pops the next queued frame. An empty queue on a
// non-blocking poll yields no message and a successful Result.
func (m *Mock) ReceiveMessage(timeout time.Duration) (*Message, hal.Result) {
	if !m.ready {
		return nil, hal.NotInitialized(Kind)
	}
	for {
		if msg := m.popMatching(); msg != nil {
			m.recvCount++
			return msg, hal.OK("mock received ID 0x%X", msg.ID)
		}
		if timeout == 0 {
			return nil, hal.OK("no message queued")
		}
		// Simulate the bus going quiet for the duration of a blocking read.
		wait := timeout
		if wait < 0 || wait > 10*time.Millisecond {
			wait = 10 * time.Millisecond
		}
		time.Sleep(wait)
		if timeout > 0 {
			return nil, hal.OK("no message within timeout")
		}
	}
}

// AddFilter restricts reception to the given arbitration ID.
func (m *Mock) AddFilter(id uint32) hal.Result {
	m.filters = append(m.filters, id)
	return hal.OK("mock filter added: 0x%X", id)
}

// ClearFilters removes all filters.
func (m *Mock) ClearFilters() hal.Result {
	m.filters = nil
	return hal.OK("mock filters cleared")
}

// Filters returns the active filter IDs.
func (m *Mock) Filters() []uint32 {
	out := make([]uint32, len(m.filters))
	copy(out, m.filters)
	return out
}

// FlushRX clears the simulated receive queue.
func (m *Mock) FlushRX() int {
	n := len(m.queue)
	m.queue = nil
	return n
}

// InjectError bumps the simulated error counter.
func (m *Mock) InjectError() { m.errCount++ }

// ErrorCount returns the simulated error count.
func (m *Mock) ErrorCount() int { return m.errCount }

// Counts returns how many frames were sent and received this session.
func (m *Mock) Counts() (sent, received int) { return m.sendCount, m.recvCount }

// Cleanup resets the simulated bus. Idempotent.
func (m *Mock) Cleanup() hal.Result {
	m.ready = false
	m.queue = nil
	return hal.OK("mock CAN cleaned up")
}

// Ready implements hal.Adapter.
func (m *Mock) Ready() bool { return m.ready }

// Status implements hal.Adapter.
func (m *Mock) Status() string {
	if m.ready {
		return fmt.Sprintf("active on %s (mock)", m.channel)
	}
	return "not_initialized"
}

func (m *Mock) popMatching() *Message {
	for i, msg := range m.queue {
		if m.matches(msg.ID) {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			out := msg
			return &out
		}
	}
	return nil
}

func (m *Mock) matches(id uint32) bool {
	if len(m.filters) == 0 {
		return true
	}
	for _, f := range m.filters {
		if f == id {
			return true
		}
	}
	return false
}
