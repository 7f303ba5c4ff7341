package hal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// ErrAdapterNotFound is returned when no implementation is registered for
// the requested interface kind.
var ErrAdapterNotFound = errors.New("no adapter implementation registered")

// ErrAdapterConfigMissing is returned when an implementation exists but the
// loaded platform declares no configuration for the interface.
var ErrAdapterConfigMissing = errors.New("interface not configured for platform")

// Constructor builds an adapter from its interface configuration.
type Constructor func(cfg platform.InterfaceConfig) (Adapter, error)

// Factory pairs the real and mock constructors of one capability kind.
// Selection between the two is strictly config-driven: the mock constructor
// is used iff the interface's type discriminator equals platform.TypeMock.
type Factory struct {
	New     Constructor
	NewMock Constructor
}

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register installs the factory for a capability kind. Called from adapter
// package init(); panics on duplicate or incomplete registration to catch
// wiring mistakes at start-up.
func Register(kind string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if kind == "" {
		panic("hal: empty adapter kind")
	}
	if f.New == nil || f.NewMock == nil {
		panic(fmt.Sprintf("hal: factory for %q must provide both real and mock constructors", kind))
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("hal: adapter already registered for kind %q", kind))
	}
	factories[kind] = f
}

// RegisteredKinds returns the sorted set of capability kinds with a
// registered implementation.
func RegisteredKinds() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func lookupFactory(kind string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[kind]
	return f, ok
}

// Description is the non-failing introspection record for one interface name.
type Description struct {
	Name       string                   `json:"name"`
	Configured bool                     `json:"configured"`
	Loaded     bool                     `json:"loaded"`
	Available  bool                     `json:"available"`
	Config     platform.InterfaceConfig `json:"config,omitempty"`
}

// Registry resolves interface names to adapter instances for one harness
// session. Instances are constructed lazily on first Get and cached until
// CleanupAll. Safe for concurrent use; construct-if-absent is atomic.
type Registry struct {
	loader  *platform.Loader
	session string

	mu        sync.Mutex
	instances map[string]Adapter
}

// NewRegistry creates a Registry over the given configuration loader.
func NewRegistry(loader *platform.Loader) *Registry {
	return &Registry{
		loader:    loader,
		session:   uuid.NewString(),
		instances: make(map[string]Adapter),
	}
}

// SessionID identifies this registry's adapter cache lifetime.
func (r *Registry) SessionID() string { return r.session }

// Get returns the adapter for the named interface, constructing and caching
// it on first access. The mock implementation is selected iff the
// interface's configured type equals platform.TypeMock; otherwise the real
// implementation is constructed with the interface configuration.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.instances[name]; ok {
		return a, nil
	}

	f, ok := lookupFactory(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)",
			ErrAdapterNotFound, name, joinOrNone(RegisteredKinds()))
	}

	cfg, err := r.loader.InterfaceConfig(name)
	if err != nil {
		if errors.Is(err, platform.ErrInterfaceNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrAdapterConfigMissing, err)
		}
		return nil, err
	}

	ctor := f.New
	if cfg.IsMock() {
		glog.V(1).Infof("using mock adapter for %q", name)
		ctor = f.NewMock
	}
	a, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing %q adapter: %w", name, err)
	}

	r.instances[name] = a
	glog.Infof("constructed %s adapter %q (session %s)", implKind(cfg), name, r.session)
	return a, nil
}

// ListAvailable returns the union of interface names configured on the
// current platform and capability kinds with a registered implementation,
// sorted.
func (r *Registry) ListAvailable() []string {
	seen := map[string]bool{}
	if cfg, err := r.loader.Current(); err == nil {
		for name := range cfg.Interfaces {
			seen[name] = true
		}
	}
	for _, kind := range RegisteredKinds() {
		seen[kind] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Describe reports the configuration and cache state of one interface name.
// It never fails; unknown names yield a Description with all flags false.
func (r *Registry) Describe(name string) Description {
	d := Description{Name: name}
	if cfg, err := r.loader.Current(); err == nil {
		if ifc, ok := cfg.Interfaces[name]; ok {
			d.Configured = true
			d.Config = ifc
		}
	}
	r.mu.Lock()
	_, d.Loaded = r.instances[name]
	r.mu.Unlock()
	_, d.Available = lookupFactory(name)
	return d
}

// CleanupAll invokes Cleanup on every adapter constructed this session,
// collecting rather than short-circuiting on failures, and clears the
// instance cache afterwards even on partial failure. Safe to call at any
// time, including after partial initialization failures.
func (r *Registry) CleanupAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs *multierror.Error
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if res := r.instances[name].Cleanup(); !res.OK {
			errs = multierror.Append(errs, fmt.Errorf("%s cleanup: %s", name, res.Err))
		}
	}
	r.instances = make(map[string]Adapter)
	return errs.ErrorOrNil()
}

func implKind(cfg platform.InterfaceConfig) string {
	if cfg.IsMock() {
		return "mock"
	}
	return "real"
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
