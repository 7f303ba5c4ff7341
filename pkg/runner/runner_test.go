package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/can"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/results"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/testreg"

	_ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/serial"
)

const runnerPlatformYAML = `platform:
  name: ecu_bench_a
  version: "1.0"
  vendor: vortex

interfaces:
  can:
    type: mock
    channel: vcan0
  serial:
    type: mock

test_parameters:
  default_timeout: 5.0
  retry_count: 1
`

const runnerSuiteYAML = `suite_info:
  description: runner exercise suite

tests:
  - name: test_can_roundtrip
    category: functional
    priority: high
    description: CAN round trip
    platforms: ["ecu_bench_a"]
  - name: test_failing
    category: functional
    priority: medium
    description: always fails
    platforms: ["all"]
  - name: test_other_bench_only
    category: functional
    priority: low
    description: does not apply here
    platforms: ["ecu_bench_b"]
`

func newTestRunner(t *testing.T) (*Runner, *hal.Registry) {
	t.Helper()

	platformDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(platformDir, "ecu_bench_a.yaml"), []byte(runnerPlatformYAML), 0644))
	loader := platform.NewLoader(platformDir)
	_, err := loader.Load("ecu_bench_a")
	require.NoError(t, err)

	registryDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(registryDir, "suites"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(registryDir, "suites", "runner_suite.yaml"), []byte(runnerSuiteYAML), 0644))

	store, err := results.Open(":memory:")
	require.NoError(t, err)

	registry := hal.NewRegistry(loader)
	return New(testreg.NewResolver(registryDir), loader, registry, store), registry
}

func TestRunner_Plan(t *testing.T) {
	r, _ := newTestRunner(t)

	plan, err := r.Plan("", Filters{})
	require.NoError(t, err)
	assert.Equal(t, "ecu_bench_a", plan.Platform)
	require.Len(t, plan.Tests, 3)
	assert.Equal(t, "test_can_roundtrip", plan.Tests[0].Name)

	filtered, err := r.Plan("", Filters{Priority: "high"})
	require.NoError(t, err)
	require.Len(t, filtered.Tests, 1)
	assert.Equal(t, "test_can_roundtrip", filtered.Tests[0].Name)
}

func TestRunner_Run(t *testing.T) {
	r, registry := newTestRunner(t)

	plan, err := r.Plan("", Filters{})
	require.NoError(t, err)

	funcs := map[string]Func{
		"test_can_roundtrip": func(ctx context.Context, reg *hal.Registry) error {
			adapter, err := reg.Get("can")
			if err != nil {
				return err
			}
			bus := adapter.(can.Bus)
			if res := bus.Initialize(); !res.OK {
				return errors.New(res.Err)
			}
			if res := bus.SendMessage(0x123, []byte{0x01}); !res.OK {
				return errors.New(res.Err)
			}
			msg, res := bus.ReceiveMessage(0)
			if !res.OK {
				return errors.New(res.Err)
			}
			if msg == nil || msg.ID != 0x12B {
				return errors.New("unexpected echo response")
			}
			return nil
		},
		"test_failing": func(ctx context.Context, reg *hal.Registry) error {
			return errors.New("deliberate failure")
		},
		// test_other_bench_only is registered but must be skipped before
		// it runs.
		"test_other_bench_only": func(ctx context.Context, reg *hal.Registry) error {
			t.Fatal("platform-incompatible test executed")
			return nil
		},
	}

	summary, err := r.Run(context.Background(), plan, funcs)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 3, summary.Total())

	// Adapters constructed during the run were cleaned up.
	assert.False(t, registry.Describe("can").Loaded)

	// Everything was persisted.
	require.NotEmpty(t, summary.RunID)
	run, err := r.store.GetRun(summary.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, results.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 1, run.Skipped)

	failures, err := r.store.FailuresForRun(summary.RunID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "test_failing", failures[0].TestName)
	assert.Equal(t, "deliberate failure", failures[0].Message)
}

func TestRunner_Run_MissingFuncSkips(t *testing.T) {
	r, _ := newTestRunner(t)

	plan, err := r.Plan("", Filters{Names: []string{"test_can_roundtrip"}})
	require.NoError(t, err)
	require.Len(t, plan.Tests, 1)

	summary, err := r.Run(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Passed)
}

func TestRunner_Run_ContextCancel(t *testing.T) {
	r, _ := newTestRunner(t)

	plan, err := r.Plan("", Filters{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, plan, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Total())
}
