// Package hal is the hardware abstraction layer of the framework. It defines
// the uniform adapter contract every capability implements and the registry
// that resolves a symbolic interface name ("can", "serial", ...) to a real
// or mock adapter instance based on the loaded platform configuration.
//
// Capability packages register themselves via init():
//
//	import _ "github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal/adapters/can"
//
// and test code obtains instances through a Registry:
//
//	bus, err := reg.Get("can")
package hal

import (
	"fmt"
)

// Result is the outcome of a hardware operation. Data-plane failures are
// reported as values, not errors, so test code can assert on them without
// control-flow scaffolding.
type Result struct {
	OK   bool   `json:"ok"`
	Err  string `json:"error,omitempty"`
	Data any    `json:"data,omitempty"`
	Log  string `json:"log,omitempty"`
}

// OK builds a successful Result with an optional log line.
func OK(format string, args ...any) Result {
	return Result{OK: true, Log: fmt.Sprintf(format, args...)}
}

// OKData builds a successful Result carrying a payload.
func OKData(data any, format string, args ...any) Result {
	return Result{OK: true, Data: data, Log: fmt.Sprintf(format, args...)}
}

// Fail builds a failed Result.
func Fail(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// NotInitialized is the guard Result returned by data-plane operations
// invoked outside the Initialized state.
func NotInitialized(kind string) Result {
	return Result{Err: kind + " adapter not initialized"}
}

// Adapter is the uniform capability contract. Lifecycle per instance:
//
//	Constructed -> Initialize() -> ready -> Cleanup() -> not ready
//
// A failed Initialize leaves the adapter constructed and retryable. Cleanup
// is idempotent: calling it on a never-initialized or already cleaned-up
// adapter succeeds trivially. All data-plane methods of concrete adapters
// must fail fast with NotInitialized when the adapter is not ready.
type Adapter interface {
	// Name returns the capability kind ("can", "serial", ...).
	Name() string

	// Initialize opens the underlying transport.
	Initialize() Result

	// Cleanup releases the transport. Idempotent.
	Cleanup() Result

	// Ready reports whether the adapter is in the Initialized state.
	Ready() bool

	// Status is a short human-readable state description.
	Status() string
}
