package cli

import (
	"fmt"
	"time"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Mock simulates a device CLI with a canned response map. Commands without
// a canned entry get a generic echo response. Every executed command is
// kept in the history.
type Mock struct {
	cfg platform.InterfaceConfig

	ready      bool
	responses  map[string]string
	history    []string
	lastOutput string
}

var _ Console = (*Mock)(nil)

// NewMock constructs the simulated CLI adapter. Canned responses come from
// the mock_responses config section (command -> output).
func NewMock(cfg platform.InterfaceConfig) *Mock {
	m := &Mock{cfg: cfg, responses: map[string]string{}}
	if raw, ok := cfg["mock_responses"].(map[string]any); ok {
		for cmd, out := range raw {
			if s, ok := out.(string); ok {
				m.responses[cmd] = s
			}
		}
	}
	return m
}

// Name implements hal.Adapter.
func (m *Mock) Name() string { return Kind }

// Initialize marks the simulated console connected.
func (m *Mock) Initialize() hal.Result {
	m.ready = true
	return hal.OK("mock CLI initialized")
}

// ExecuteCommand records the command and returns its canned response, or a
// generic echo when none is configured.
func (m *Mock) ExecuteCommand(command string, _ time.Duration) hal.Result {
	if !m.ready {
		return hal.NotInitialized(Kind)
	}
	m.history = append(m.history, command)
	out, ok := m.responses[command]
	if !ok {
		out = fmt.Sprintf("mock response to: %s", command)
	}
	m.lastOutput = out
	return hal.OKData(out, "mock executed %q", command)
}

// CaptureOutput returns the last response again; the mock has no
// asynchronous console chatter.
func (m *Mock) CaptureOutput(_ time.Duration) hal.Result {
	if !m.ready {
		return hal.NotInitialized(Kind)
	}
	return hal.OKData(m.lastOutput, "mock captured %d bytes", len(m.lastOutput))
}

// CompareOutput checks expected against actual under the given mode.
func (m *Mock) CompareOutput(expected, actual string, mode CompareMode) hal.Result {
	if actual == "" {
		actual = m.lastOutput
	}
	return compare(expected, actual, mode)
}

// LastOutput returns the most recent response.
func (m *Mock) LastOutput() string { return m.lastOutput }

// ClearOutputBuffer discards the stored response.
func (m *Mock) ClearOutputBuffer() hal.Result {
	if !m.ready {
		return hal.NotInitialized(Kind)
	}
	m.lastOutput = ""
	return hal.OK("mock output buffer cleared")
}

// History returns the commands executed so far, oldest first.
func (m *Mock) History() []string {
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// Cleanup resets the simulated console. Idempotent.
func (m *Mock) Cleanup() hal.Result {
	m.ready = false
	m.history = nil
	m.lastOutput = ""
	return hal.OK("mock CLI cleaned up")
}

// Ready implements hal.Adapter.
func (m *Mock) Ready() bool { return m.ready }

// Status implements hal.Adapter.
func (m *Mock) Status() string {
	if m.ready {
		return "connected (mock)"
	}
	return "not_initialized"
}
