package spi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

func TestMock_TransferComplements(t *testing.T) {
	m := NewMock(platform.InterfaceConfig{"type": "mock"})
	require.True(t, m.Initialize().OK)

	rx, res := m.Transfer([]byte{0x00, 0xFF, 0xA5})
	require.True(t, res.OK)
	assert.Equal(t, []byte{0xFF, 0x00, 0x5A}, rx)
	assert.Equal(t, 1, m.TransferCount())
}

func TestMock_TransferGuard(t *testing.T) {
	m := NewMock(platform.InterfaceConfig{"type": "mock"})

	_, res := m.Transfer([]byte{0x01})
	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "not initialized")
}

func TestMock_CleanupIdempotent(t *testing.T) {
	m := NewMock(platform.InterfaceConfig{"type": "mock"})
	require.True(t, m.Initialize().OK)
	require.True(t, m.Cleanup().OK)
	require.True(t, m.Cleanup().OK)
	assert.False(t, m.Ready())
}

func TestSPIMode(t *testing.T) {
	// Out-of-range modes fall back to mode 0.
	assert.Equal(t, spiMode(0), spiMode(7))
	assert.NotEqual(t, spiMode(0), spiMode(3))
}
