package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

func newReadyConsole(t *testing.T, cfg platform.InterfaceConfig) *Mock {
	t.Helper()
	if cfg == nil {
		cfg = platform.InterfaceConfig{"type": "mock"}
	}
	m := NewMock(cfg)
	require.True(t, m.Initialize().OK)
	return m
}

func TestMock_CannedResponses(t *testing.T) {
	m := newReadyConsole(t, platform.InterfaceConfig{
		"type": "mock",
		"mock_responses": map[string]any{
			"uname -a": "Linux ecu 5.10.0 armv7l GNU/Linux",
			"uptime":   "up 3 days",
		},
	})

	res := m.ExecuteCommand("uname -a", time.Second)
	require.True(t, res.OK)
	assert.Equal(t, "Linux ecu 5.10.0 armv7l GNU/Linux", res.Data)

	res = m.ExecuteCommand("unknown command", time.Second)
	require.True(t, res.OK)
	assert.Contains(t, res.Data.(string), "unknown command")
}

func TestMock_History(t *testing.T) {
	m := newReadyConsole(t, nil)

	m.ExecuteCommand("reboot", 0)
	m.ExecuteCommand("status", 0)
	assert.Equal(t, []string{"reboot", "status"}, m.History())

	require.True(t, m.Cleanup().OK)
	assert.Empty(t, m.History())
}

func TestMock_CompareOutput(t *testing.T) {
	m := newReadyConsole(t, platform.InterfaceConfig{
		"type": "mock",
		"mock_responses": map[string]any{
			"version": "firmware v2.4.1-rc3",
		},
	})
	m.ExecuteCommand("version", 0)

	// Empty actual falls back to the last captured output.
	assert.True(t, m.CompareOutput("firmware v2.4.1-rc3", "", CompareExact).OK)
	assert.True(t, m.CompareOutput("v2.4.1", "", CompareContains).OK)
	assert.True(t, m.CompareOutput(`v\d+\.\d+\.\d+`, "", CompareRegex).OK)

	assert.False(t, m.CompareOutput("firmware v9.9.9", "", CompareExact).OK)
	assert.False(t, m.CompareOutput("missing", "", CompareContains).OK)
	assert.False(t, m.CompareOutput(`v9\.\d+`, "", CompareRegex).OK)

	res := m.CompareOutput("[invalid", "", CompareRegex)
	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "invalid comparison pattern")
}

func TestMock_LastOutputAndClear(t *testing.T) {
	m := newReadyConsole(t, nil)

	m.ExecuteCommand("ping", 0)
	assert.NotEmpty(t, m.LastOutput())

	require.True(t, m.ClearOutputBuffer().OK)
	assert.Empty(t, m.LastOutput())

	res := m.CaptureOutput(time.Second)
	require.True(t, res.OK)
	assert.Equal(t, "", res.Data)
}

func TestMock_NotInitializedGuards(t *testing.T) {
	m := NewMock(platform.InterfaceConfig{"type": "mock"})

	assert.False(t, m.ExecuteCommand("x", 0).OK)
	assert.False(t, m.CaptureOutput(0).OK)
	assert.False(t, m.ClearOutputBuffer().OK)
}

func TestCompareModes_ExactTrimsWhitespace(t *testing.T) {
	res := compare("OK", "  OK\r\n", CompareExact)
	assert.True(t, res.OK)
}

func TestAdapter_RejectsBadPromptPattern(t *testing.T) {
	_, err := New(platform.InterfaceConfig{
		"type":           "uart",
		"prompt_pattern": "[unclosed",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt_pattern")
}
