package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPlatform is the environment variable that selects the platform when
	// no explicit name is given.
	EnvPlatform = "VORTEX_PLATFORM"

	// DefaultPlatform is used when neither an argument nor the environment
	// selects a platform.
	DefaultPlatform = "ecu_platform_a"

	// maxConfigFileSize caps a platform file at 1 MiB; anything larger is a
	// broken file, not a platform description.
	maxConfigFileSize = 1 << 20
)

// ErrConfigNotFound is returned when no configuration file exists for the
// requested platform.
var ErrConfigNotFound = errors.New("platform configuration not found")

// ErrConfigInvalid is returned when a configuration file is malformed, empty
// or missing a required section.
var ErrConfigInvalid = errors.New("platform configuration invalid")

// ErrInterfaceNotFound is returned when the loaded platform does not declare
// the requested interface.
var ErrInterfaceNotFound = errors.New("interface not found in platform configuration")

// ErrNoConfigLoaded is returned by accessors used before a successful Load.
var ErrNoConfigLoaded = errors.New("no platform configuration loaded")

// requiredSections are the top-level keys every platform file must carry.
var requiredSections = []string{"platform", "interfaces", "test_parameters"}

// Loader reads platform configuration files from a directory and holds the
// currently loaded platform. It is safe for concurrent use. Construct one
// per process at the entry point and inject it; tests build isolated
// instances over temp directories.
type Loader struct {
	dir string

	mu       sync.RWMutex
	current  *Config
	platform string
}

// NewLoader creates a Loader over the given platform configuration
// directory (one YAML file per platform).
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the platform configuration directory.
func (l *Loader) Dir() string { return l.dir }

// Load reads, validates and caches the configuration for the named platform.
// Name resolution: explicit argument, else the VORTEX_PLATFORM environment
// variable, else DefaultPlatform. On success the loaded config becomes the
// loader's current platform for all subsequent lookups.
func (l *Loader) Load(name string) (*Config, error) {
	if name == "" {
		name = os.Getenv(EnvPlatform)
	}
	if name == "" {
		name = DefaultPlatform
	}

	path := filepath.Join(l.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q (available: %s)",
				ErrConfigNotFound, name, availableOrNone(l.ListAvailablePlatforms()))
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%w: %s exceeds maximum allowed size", ErrConfigInvalid, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.mu.Lock()
	l.current = cfg
	l.platform = name
	l.mu.Unlock()

	glog.Infof("loaded platform %q (%s %s) with %d interfaces",
		name, cfg.Platform.Vendor, cfg.Platform.Version, len(cfg.Interfaces))
	return cfg, nil
}

// Parse decodes and validates raw platform configuration bytes.
func Parse(data []byte) (*Config, error) {
	// Decode to a raw map first so missing required sections are
	// distinguishable from zero values.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: file is empty or contains only comments", ErrConfigInvalid)
	}
	for _, key := range requiredSections {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing required section %q", ErrConfigInvalid, key)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Current returns the currently loaded configuration.
func (l *Loader) Current() (*Config, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil, ErrNoConfigLoaded
	}
	return l.current, nil
}

// PlatformName returns the name of the currently loaded platform.
func (l *Loader) PlatformName() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return "", ErrNoConfigLoaded
	}
	return l.platform, nil
}

// InterfaceConfig returns the configuration block for the named interface of
// the current platform.
func (l *Loader) InterfaceConfig(name string) (InterfaceConfig, error) {
	cfg, err := l.Current()
	if err != nil {
		return nil, err
	}
	ifc, ok := cfg.Interfaces[name]
	if !ok {
		names := make([]string, 0, len(cfg.Interfaces))
		for n := range cfg.Interfaces {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %q (available: %s)",
			ErrInterfaceNotFound, name, availableOrNone(names))
	}
	return ifc, nil
}

// SensorConfig returns the configuration block for the named sensor.
func (l *Loader) SensorConfig(name string) (map[string]any, error) {
	cfg, err := l.Current()
	if err != nil {
		return nil, err
	}
	sensor, ok := cfg.Sensors[name]
	if !ok {
		return nil, fmt.Errorf("sensor %q not found in platform configuration", name)
	}
	return sensor, nil
}

// TestParameters returns the execution parameters of the current platform.
func (l *Loader) TestParameters() (TestParameters, error) {
	cfg, err := l.Current()
	if err != nil {
		return TestParameters{}, err
	}
	return cfg.TestParameters, nil
}

// IsMockPlatform reports whether the current platform is a fully simulated
// target (every declared interface is of the mock type).
func (l *Loader) IsMockPlatform() bool {
	cfg, err := l.Current()
	if err != nil || len(cfg.Interfaces) == 0 {
		return false
	}
	for _, ifc := range cfg.Interfaces {
		if !ifc.IsMock() {
			return false
		}
	}
	return true
}

// ListAvailablePlatforms scans the configuration directory and returns the
// sorted platform names found. It never fails; a missing directory yields an
// empty list.
func (l *Loader) ListAvailablePlatforms() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func availableOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
