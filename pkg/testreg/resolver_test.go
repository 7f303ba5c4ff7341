package testreg

import (
	"os"
	"path/filepath"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const globalsYAML = `categories:
  functional:
    description: Functional behavior checks
  diagnostic:
    description: Diagnostic protocol checks

priorities:
  critical: {}
  high: {}
  medium: {}
  low: {}

defaults:
  platforms: ["all"]
  category: functional
  priority: medium
  requirements_hardware: false
`

const canSuiteYAML = `suite_info:
  description: CAN bus communication tests
  default_platforms: ["ecu_bench_a", "ecu_bench_b"]

tests:
  - name: test_can_send_receive
    category: functional
    priority: high
    description: Round-trip a frame over the bus
  - name: test_can_error_frames
    category: diagnostic
    priority: medium
    description: Error frame handling
    platforms: ["ecu_bench_a"]
    requirements_hardware: true
    max_duration: 30s
`

const serialSuiteYAML = `suite_info:
  description: Serial console tests

tests:
  - name: test_serial_echo
    priority: low
    description: Echo over the console
`

const smokeProfileYAML = `execution_profile:
  name: smoke
  description: Quick confidence run
  timeout: 300

include:
  - suite: can_bus
    tests: [test_can_send_receive]
    overrides:
      priority: critical
  - suite: serial_console
`

func writeRegistry(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "suites"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "execution"), 0755))
	writeFile(t, filepath.Join(dir, "_globals.yaml"), globalsYAML)
	writeFile(t, filepath.Join(dir, "suites", "can_bus.yaml"), canSuiteYAML)
	writeFile(t, filepath.Join(dir, "suites", "serial_console.yaml"), serialSuiteYAML)
	writeFile(t, filepath.Join(dir, "execution", "smoke.yaml"), smokeProfileYAML)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadBase_FillDown(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	base, err := resolver.LoadBase()
	require.NoError(t, err)
	require.Len(t, base, 3)

	// Test declares no platforms: the suite's default_platforms win.
	sendRecv := base["test_can_send_receive"]
	assert.Equal(t, "can_bus", sendRecv.Suite)
	assert.Equal(t, "high", sendRecv.Priority)
	assert.True(t, sendRecv.Platforms.Equal(mapset.NewSet("ecu_bench_a", "ecu_bench_b")))
	assert.False(t, sendRecv.RequiresHardware)

	// Explicit test-level platforms beat the suite defaults.
	errFrames := base["test_can_error_frames"]
	assert.True(t, errFrames.Platforms.Equal(mapset.NewSet("ecu_bench_a")))
	assert.True(t, errFrames.RequiresHardware)
	assert.Equal(t, "30s", errFrames.MaxDuration)

	// No suite defaults either: the global default fills platforms, and
	// the global category fills the missing field.
	echo := base["test_serial_echo"]
	assert.True(t, echo.Platforms.Equal(mapset.NewSet(PlatformAll)))
	assert.Equal(t, "functional", echo.Category)
	assert.Equal(t, "low", echo.Priority)
}

func TestLoadBase_PlatformsNeverEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "suites"), 0755))
	// No globals file at all.
	writeFile(t, filepath.Join(dir, "suites", "bare.yaml"), `tests:
  - name: test_bare
    category: functional
    priority: low
    description: bare
`)
	base, err := NewResolver(dir).LoadBase()
	require.NoError(t, err)
	assert.True(t, base["test_bare"].Platforms.Equal(mapset.NewSet(PlatformAll)))
}

func TestLoadBase_DuplicateTestName(t *testing.T) {
	dir := writeRegistry(t)
	writeFile(t, filepath.Join(dir, "suites", "zz_dup.yaml"), `tests:
  - name: test_can_send_receive
    category: functional
    priority: low
    description: duplicate declaration
`)
	_, err := NewResolver(dir).LoadBase()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTestName)
	assert.Contains(t, err.Error(), "test_can_send_receive")
	assert.Contains(t, err.Error(), "can_bus")
	assert.Contains(t, err.Error(), "zz_dup")
}

func TestResolveProfile_EmptyNameIsBase(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	base, err := resolver.LoadBase()
	require.NoError(t, err)
	resolved, err := resolver.ResolveProfile("")
	require.NoError(t, err)
	assert.Equal(t, len(base), len(resolved))
}

func TestResolveProfile_NotFoundListsAvailable(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	_, err := resolver.ResolveProfile("nightly")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Contains(t, err.Error(), "nightly")
	assert.Contains(t, err.Error(), "smoke")
}

func TestResolveProfile_OverridesApplyAfterFillDown(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	resolved, err := resolver.ResolveProfile("smoke")
	require.NoError(t, err)

	// Explicit inclusion with a priority override: only the priority
	// changes, everything else keeps its base value.
	md, ok := resolved["test_can_send_receive"]
	require.True(t, ok)
	assert.Equal(t, "critical", md.Priority)
	assert.Equal(t, "functional", md.Category)
	assert.True(t, md.Platforms.Equal(mapset.NewSet("ecu_bench_a", "ecu_bench_b")))

	// The other CAN test was not listed and is absent.
	_, ok = resolved["test_can_error_frames"]
	assert.False(t, ok)

	// Whole-suite inclusion without overrides keeps base values.
	echo, ok := resolved["test_serial_echo"]
	require.True(t, ok)
	assert.Equal(t, "low", echo.Priority)
}

func TestResolveProfile_OverrideDoesNotMutateBase(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	_, err := resolver.ResolveProfile("smoke")
	require.NoError(t, err)

	base, err := resolver.LoadBase()
	require.NoError(t, err)
	assert.Equal(t, "high", base["test_can_send_receive"].Priority)
}

func TestResolveProfile_LiveSuiteReference(t *testing.T) {
	dir := writeRegistry(t)
	resolver := NewResolver(dir)

	resolved, err := resolver.ResolveProfile("smoke")
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	// The serial suite gains a test after the profile was written; the
	// whole-suite inclusion picks it up on the next resolution.
	writeFile(t, filepath.Join(dir, "suites", "serial_console.yaml"), serialSuiteYAML+`  - name: test_serial_break
    priority: medium
    description: Break signal handling
`)
	resolved, err = resolver.ResolveProfile("smoke")
	require.NoError(t, err)
	assert.Contains(t, resolved, "test_serial_break")
}

func TestResolveProfile_LaterEntriesOverwriteEarlier(t *testing.T) {
	dir := writeRegistry(t)
	writeFile(t, filepath.Join(dir, "execution", "layered.yaml"), `execution_profile:
  name: layered
  description: entry order tie-break

include:
  - suite: can_bus
    overrides:
      priority: low
  - suite: can_bus
    tests: [test_can_send_receive]
    overrides:
      priority: critical
`)
	resolved, err := NewResolver(dir).ResolveProfile("layered")
	require.NoError(t, err)

	assert.Equal(t, "critical", resolved["test_can_send_receive"].Priority)
	assert.Equal(t, "low", resolved["test_can_error_frames"].Priority)
}

func TestResolveProfile_TimeoutAliasAndPlatformOverride(t *testing.T) {
	dir := writeRegistry(t)
	writeFile(t, filepath.Join(dir, "execution", "bench_only.yaml"), `execution_profile:
  name: bench_only
  description: pin everything to one bench

include:
  - suite: can_bus
    overrides:
      platforms: ["ecu_bench_b"]
      timeout: 120s
`)
	resolved, err := NewResolver(dir).ResolveProfile("bench_only")
	require.NoError(t, err)

	md := resolved["test_can_send_receive"]
	assert.True(t, md.Platforms.Equal(mapset.NewSet("ecu_bench_b")))
	assert.Equal(t, "120s", md.MaxDuration)
}

func TestFilterByPriority_EffectivePriority(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	resolved, err := resolver.ResolveProfile("smoke")
	require.NoError(t, err)

	critical := FilterByPriority(resolved, "critical")
	require.Len(t, critical, 1)
	assert.Equal(t, "test_can_send_receive", critical[0].Name)

	// The base priority "high" no longer matches after the override.
	assert.Empty(t, FilterByPriority(resolved, "high"))
}

func TestFilters(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	base, err := resolver.LoadBase()
	require.NoError(t, err)

	byName := FilterByNames(base, []string{"test_serial_echo", "no_such_test"})
	require.Len(t, byName, 1)
	assert.Equal(t, "test_serial_echo", byName[0].Name)

	bySuite := FilterBySuites(base, []string{"can_bus"})
	require.Len(t, bySuite, 2)
	assert.Equal(t, "test_can_error_frames", bySuite[0].Name)
	assert.Equal(t, "test_can_send_receive", bySuite[1].Name)

	byCategory := FilterByCategory(base, "diagnostic")
	require.Len(t, byCategory, 1)

	assert.Empty(t, FilterByCategory(base, "nonexistent"))
}

func TestTags(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	base, err := resolver.LoadBase()
	require.NoError(t, err)

	tags := Tags(base["test_can_error_frames"])
	expected := mapset.NewSet(
		"diagnostic", "can_bus", "medium",
		"platform_ecu_bench_a", "requires_hardware",
	)
	assert.True(t, tags.Equal(expected), "got %v", tags)

	// "all" sentinel collapses to a single tag.
	echoTags := Tags(base["test_serial_echo"])
	assert.True(t, echoTags.Contains("all_platforms"))
	assert.False(t, echoTags.Contains("platform_all"))

	// Stable projection.
	assert.True(t, tags.Equal(Tags(base["test_can_error_frames"])))
}

func TestReportLabels(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))
	base, err := resolver.LoadBase()
	require.NoError(t, err)

	labels := ReportLabels(base["test_can_send_receive"])
	assert.Equal(t, "Can Bus", labels["feature"])
	assert.Equal(t, "Round-trip a frame over the bus", labels["story"])
	assert.Equal(t, "critical", labels["severity"]) // high -> critical
	assert.Equal(t, "functional", labels["tag"])
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "blocker", Severity("critical"))
	assert.Equal(t, "critical", Severity("high"))
	assert.Equal(t, "normal", Severity("medium"))
	assert.Equal(t, "minor", Severity("low"))
	assert.Equal(t, "normal", Severity("unheard_of"))
}

func TestSuitesAndProfiles(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))

	suites, err := resolver.Suites()
	require.NoError(t, err)
	assert.Equal(t, []string{"can_bus", "serial_console"}, suites)

	profiles, err := resolver.Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"smoke"}, profiles)

	info, err := resolver.ProfileInfo("smoke")
	require.NoError(t, err)
	assert.Equal(t, "smoke", info.Name)
	assert.Equal(t, 300, info.Timeout)
	assert.Len(t, info.Include, 2)

	_, err = resolver.ProfileInfo("nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestMetadataLookup(t *testing.T) {
	resolver := NewResolver(writeRegistry(t))

	md, err := resolver.Metadata("test_can_send_receive", "smoke")
	require.NoError(t, err)
	assert.Equal(t, "critical", md.Priority)

	md, err = resolver.Metadata("test_can_send_receive", "")
	require.NoError(t, err)
	assert.Equal(t, "high", md.Priority)

	_, err = resolver.Metadata("ghost", "")
	assert.Error(t, err)
}

func TestCompatibleWith(t *testing.T) {
	md := TestMetadata{Platforms: mapset.NewSet("ecu_bench_a")}
	assert.True(t, CompatibleWith(md, "ecu_bench_a"))
	assert.False(t, CompatibleWith(md, "ecu_bench_b"))

	anyMD := TestMetadata{Platforms: mapset.NewSet(PlatformAll)}
	assert.True(t, CompatibleWith(anyMD, "whatever"))
}
