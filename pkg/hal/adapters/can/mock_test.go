package can

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

func newReadyMock(t *testing.T) *Mock {
	t.Helper()
	m := NewMock(platform.InterfaceConfig{"type": "mock", "channel": "vcan0"})
	require.True(t, m.Initialize().OK)
	return m
}

func TestMock_SendQueuesEchoResponse(t *testing.T) {
	m := newReadyMock(t)

	res := m.SendMessage(0x123, []byte{0x01, 0x02, 0x03})
	require.True(t, res.OK)

	msg, res := m.ReceiveMessage(0)
	require.True(t, res.OK)
	require.NotNil(t, msg)
	assert.Equal(t, uint32(0x12B), msg.ID)
	assert.Equal(t, []byte{0x02, 0x03, 0x04}, msg.Data)
}

func TestMock_ReceiveEmptyQueuePoll(t *testing.T) {
	m := newReadyMock(t)

	// A non-blocking poll on an empty queue is not a failure.
	msg, res := m.ReceiveMessage(0)
	assert.True(t, res.OK)
	assert.Nil(t, msg)
}

func TestMock_ReceiveTimeout(t *testing.T) {
	m := newReadyMock(t)

	start := time.Now()
	msg, res := m.ReceiveMessage(20 * time.Millisecond)
	assert.True(t, res.OK)
	assert.Nil(t, msg)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMock_Filters(t *testing.T) {
	m := newReadyMock(t)

	m.SendMessage(0x100, []byte{0xAA}) // queues response 0x108
	m.SendMessage(0x200, []byte{0xBB}) // queues response 0x208

	require.True(t, m.AddFilter(0x208).OK)
	msg, res := m.ReceiveMessage(0)
	require.True(t, res.OK)
	require.NotNil(t, msg)
	assert.Equal(t, uint32(0x208), msg.ID)

	// The non-matching frame stays queued until filters are cleared.
	msg, res = m.ReceiveMessage(0)
	assert.True(t, res.OK)
	assert.Nil(t, msg)

	require.True(t, m.ClearFilters().OK)
	msg, res = m.ReceiveMessage(0)
	require.True(t, res.OK)
	require.NotNil(t, msg)
	assert.Equal(t, uint32(0x108), msg.ID)
}

func TestMock_NotInitializedGuards(t *testing.T) {
	m := NewMock(platform.InterfaceConfig{"type": "mock"})

	res := m.SendMessage(0x123, []byte{0x01})
	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "not initialized")

	_, res = m.ReceiveMessage(0)
	assert.False(t, res.OK)
}

func TestMock_CleanupIdempotent(t *testing.T) {
	m := newReadyMock(t)
	m.SendMessage(0x123, []byte{0x01})

	require.True(t, m.Cleanup().OK)
	assert.False(t, m.Ready())
	// Cleaning an already clean adapter succeeds trivially.
	require.True(t, m.Cleanup().OK)

	// Reinitialization starts from an empty queue.
	require.True(t, m.Initialize().OK)
	msg, res := m.ReceiveMessage(0)
	assert.True(t, res.OK)
	assert.Nil(t, msg)
}

func TestMock_Counts(t *testing.T) {
	m := newReadyMock(t)

	m.SendMessage(0x100, []byte{0x01})
	m.SendMessage(0x101, []byte{0x02})
	m.ReceiveMessage(0)

	sent, received := m.Counts()
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, received)

	assert.Equal(t, 1, m.FlushRX())
}

func TestMock_ExtendedID(t *testing.T) {
	m := newReadyMock(t)

	m.SendMessage(0x18DAF110, []byte{0x02, 0x3E, 0x00})
	msg, res := m.ReceiveMessage(0)
	require.True(t, res.OK)
	require.NotNil(t, msg)
	assert.True(t, msg.Extended)
	assert.Equal(t, uint32(0x18DAF118), msg.ID)
}
