package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockPlatformYAML = `platform:
  name: bench_sim
  version: "1.0"
  vendor: vortex
  description: Fully simulated bench

interfaces:
  can0:
    type: mock
    channel: vcan0
    bitrate: 500000
  serial_console:
    type: mock
    port: /dev/null
  debug_uart:
    type: mock

test_parameters:
  default_timeout: 5.0
  long_timeout: 30.0
  retry_count: 3
  retry_delay: 0.5
  log_level: INFO
`

const realPlatformYAML = `platform:
  name: ecu_bench_b
  version: "2.1"
  vendor: vortex

interfaces:
  can0:
    type: socketcan
    channel: can0
    bitrate: 500000
  serial_console:
    type: uart
    port: /dev/ttyUSB0
    baudrate: 115200

test_parameters:
  default_timeout: 10.0
  retry_count: 2
`

func writePlatform(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writePlatform(t, dir, "bench_sim", mockPlatformYAML)

	loader := NewLoader(dir)
	cfg, err := loader.Load("bench_sim")
	require.NoError(t, err)

	assert.Equal(t, "bench_sim", cfg.Platform.Name)
	assert.Equal(t, "vortex", cfg.Platform.Vendor)
	assert.True(t, cfg.HasInterface("can0"))
	assert.True(t, cfg.HasInterface("serial_console"))
	assert.Equal(t, 5.0, cfg.TestParameters.DefaultTimeout)
	assert.Equal(t, 3, cfg.TestParameters.RetryCount)

	name, err := loader.PlatformName()
	require.NoError(t, err)
	assert.Equal(t, "bench_sim", name)
}

func TestLoader_Load_NotFoundListsAlternatives(t *testing.T) {
	dir := t.TempDir()
	writePlatform(t, dir, "bench_sim", mockPlatformYAML)
	writePlatform(t, dir, "ecu_bench_b", realPlatformYAML)

	loader := NewLoader(dir)
	_, err := loader.Load("no_such_platform")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.Contains(t, err.Error(), "no_such_platform")
	assert.Contains(t, err.Error(), "bench_sim")
	assert.Contains(t, err.Error(), "ecu_bench_b")
}

func TestLoader_Load_EnvSelector(t *testing.T) {
	dir := t.TempDir()
	writePlatform(t, dir, "ecu_bench_b", realPlatformYAML)
	t.Setenv(EnvPlatform, "ecu_bench_b")

	loader := NewLoader(dir)
	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "ecu_bench_b", cfg.Platform.Name)
}

func TestLoader_Load_ExplicitNameBeatsEnv(t *testing.T) {
	dir := t.TempDir()
	writePlatform(t, dir, "bench_sim", mockPlatformYAML)
	writePlatform(t, dir, "ecu_bench_b", realPlatformYAML)
	t.Setenv(EnvPlatform, "ecu_bench_b")

	loader := NewLoader(dir)
	cfg, err := loader.Load("bench_sim")
	require.NoError(t, err)
	assert.Equal(t, "bench_sim", cfg.Platform.Name)
}

func TestParse_MissingSections(t *testing.T) {
	_, err := Parse([]byte("platform:\n  name: x\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, err.Error(), "interfaces")
}

func TestParse_MissingTypeDiscriminator(t *testing.T) {
	_, err := Parse([]byte(`platform:
  name: x
interfaces:
  can0:
    channel: can0
test_parameters:
  default_timeout: 1.0
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, err.Error(), "can0")
}

func TestLoader_InterfaceConfig(t *testing.T) {
	dir := t.TempDir()
	writePlatform(t, dir, "bench_sim", mockPlatformYAML)

	loader := NewLoader(dir)
	_, err := loader.Load("bench_sim")
	require.NoError(t, err)

	cfg, err := loader.InterfaceConfig("can0")
	require.NoError(t, err)
	assert.True(t, cfg.IsMock())
	assert.Equal(t, "vcan0", cfg.String("channel", ""))
	assert.Equal(t, 500000, cfg.Int("bitrate", 0))

	_, err = loader.InterfaceConfig("ethernet")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterfaceNotFound)
	assert.Contains(t, err.Error(), "can0")
	assert.Contains(t, err.Error(), "serial_console")
}

func TestLoader_IsMockPlatform(t *testing.T) {
	dir := t.TempDir()
	writePlatform(t, dir, "bench_sim", mockPlatformYAML)
	writePlatform(t, dir, "ecu_bench_b", realPlatformYAML)

	loader := NewLoader(dir)
	_, err := loader.Load("bench_sim")
	require.NoError(t, err)
	assert.True(t, loader.IsMockPlatform())

	_, err = loader.Load("ecu_bench_b")
	require.NoError(t, err)
	assert.False(t, loader.IsMockPlatform())
}

func TestLoader_ListAvailablePlatforms(t *testing.T) {
	dir := t.TempDir()
	writePlatform(t, dir, "bench_sim", mockPlatformYAML)
	writePlatform(t, dir, "ecu_bench_b", realPlatformYAML)

	loader := NewLoader(dir)
	assert.Equal(t, []string{"bench_sim", "ecu_bench_b"}, loader.ListAvailablePlatforms())

	empty := NewLoader(t.TempDir())
	assert.Empty(t, empty.ListAvailablePlatforms())
}

func TestLoader_Current_NothingLoaded(t *testing.T) {
	loader := NewLoader(t.TempDir())
	_, err := loader.Current()
	assert.ErrorIs(t, err, ErrNoConfigLoaded)
}

func TestLoader_Watch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writePlatform(t, dir, "bench_sim", mockPlatformYAML)

	loader := NewLoader(dir)
	_, err := loader.Load("bench_sim")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := loader.Watch(ctx)
	require.NoError(t, err)

	updated := []byte(mockPlatformYAML + "\nnotes: updated\n")
	require.NoError(t, os.WriteFile(path, updated, 0644))

	select {
	case ev := <-events:
		require.NoError(t, ev.Err)
		assert.Equal(t, "bench_sim", ev.Platform)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event received")
	}

	cfg, err := loader.Current()
	require.NoError(t, err)
	assert.Equal(t, "updated", cfg.Notes)
}
