package serial

import (
	"fmt"
	"strings"
	"time"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Mock simulates a serial port by looping every write back into its own
// read buffer.
type Mock struct {
	cfg      platform.InterfaceConfig
	portName string

	ready    bool
	buffer   []byte
	lineResp string
}

var _ Port = (*Mock)(nil)

// NewMock constructs the simulated serial adapter.
func NewMock(cfg platform.InterfaceConfig) *Mock {
	return &Mock{
		cfg:      cfg,
		portName: cfg.String("port", "mock"),
		lineResp: cfg.String("mock_line_response", "OK"),
	}
}

// Name implements hal.Adapter.
func (m *Mock) Name() string { return Kind }

// Initialize marks the simulated port open.
func (m *Mock) Initialize() hal.Result {
	m.ready = true
	return hal.OK("mock serial initialized on %s", m.portName)
}

// Write appends data to the loopback buffer.
func (m *Mock) Write(data []byte) hal.Result {
	if !m.ready {
		return hal.NotInitialized(Kind)
	}
	m.buffer = append(m.buffer, data...)
	return hal.OKData(len(data), "mock wrote %d bytes", len(data))
}

// Read pops up to n bytes from the loopback buffer.
func (m *Mock) Read(n int) ([]byte, hal.Result) {
	if !m.ready {
		return nil, hal.NotInitialized(Kind)
	}
	if n > len(m.buffer) {
		n = len(m.buffer)
	}
	data := m.buffer[:n]
	m.buffer = m.buffer[n:]
	return data, hal.OK("mock read %d bytes", n)
}

// ReadLine returns a buffered line if one is present, else the canned
// response configured via mock_line_response.
func (m *Mock) ReadLine(_ time.Duration) (string, hal.Result) {
	if !m.ready {
		return "", hal.NotInitialized(Kind)
	}
	if i := indexByte(m.buffer, '\n'); i >= 0 {
		line := strings.TrimRight(string(m.buffer[:i]), "\r")
		m.buffer = m.buffer[i+1:]
		return line, hal.OK("mock read line")
	}
	return m.lineResp, hal.OK("mock canned line")
}

// Flush clears the loopback buffer.
func (m *Mock) Flush() hal.Result {
	if !m.ready {
		return hal.NotInitialized(Kind)
	}
	m.buffer = nil
	return hal.OK("mock buffers flushed")
}

// Cleanup resets the simulated port. Idempotent.
func (m *Mock) Cleanup() hal.Result {
	m.ready = false
	m.buffer = nil
	return hal.OK("mock serial cleaned up")
}

// Ready implements hal.Adapter.
func (m *Mock) Ready() bool { return m.ready }

// Status implements hal.Adapter.
func (m *Mock) Status() string {
	if m.ready {
		return fmt.Sprintf("open on %s (mock)", m.portName)
	}
	return "not_initialized"
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
