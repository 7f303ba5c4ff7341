// Package platform loads and validates the declarative hardware platform
// configuration used by the rest of the framework. A platform file describes
// one physical or simulated test target: its metadata, the communication
// interfaces it exposes, and the default test execution parameters.
package platform

import (
	"fmt"
)

// TypeMock is the reserved interface type discriminator that selects the
// mock implementation of an adapter instead of the real transport binding.
const TypeMock = "mock"

// Meta holds the identifying metadata of a hardware platform.
type Meta struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Vendor      string `yaml:"vendor" json:"vendor"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// TestParameters are the platform-wide execution defaults.
type TestParameters struct {
	DefaultTimeout float64 `yaml:"default_timeout" json:"defaultTimeout"`
	LongTimeout    float64 `yaml:"long_timeout,omitempty" json:"longTimeout,omitempty"`
	RetryCount     int     `yaml:"retry_count" json:"retryCount"`
	RetryDelay     float64 `yaml:"retry_delay,omitempty" json:"retryDelay,omitempty"`
	LogLevel       string  `yaml:"log_level,omitempty" json:"logLevel,omitempty"`
}

// InterfaceConfig is the free-form configuration block of one hardware
// interface. Every block must carry a "type" discriminator which is either a
// transport kind (e.g. "socketcan") or the sentinel TypeMock.
type InterfaceConfig map[string]any

// Type returns the interface type discriminator, or "" if absent.
func (c InterfaceConfig) Type() string {
	return c.String("type", "")
}

// IsMock reports whether the interface is configured to use the mock adapter.
func (c InterfaceConfig) IsMock() bool {
	return c.Type() == TypeMock
}

// String returns the named value as a string, or def if absent or of
// another type.
func (c InterfaceConfig) String(key, def string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return def
}

// Int returns the named value as an int, tolerating the numeric types the
// YAML decoder may produce.
func (c InterfaceConfig) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Float returns the named value as a float64.
func (c InterfaceConfig) Float(key string, def float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Bool returns the named value as a bool.
func (c InterfaceConfig) Bool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

// Config is the complete validated configuration of one hardware platform.
// It is immutable after load; Loader replaces, never mutates, the current
// Config on reload.
type Config struct {
	Platform       Meta                       `yaml:"platform" json:"platform"`
	Interfaces     map[string]InterfaceConfig `yaml:"interfaces" json:"interfaces"`
	TestParameters TestParameters             `yaml:"test_parameters" json:"testParameters"`

	// Optional sections; tolerated but not interpreted by the core.
	Sensors     map[string]map[string]any `yaml:"sensors,omitempty" json:"sensors,omitempty"`
	Diagnostics map[string]any            `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
	Power       map[string]any            `yaml:"power,omitempty" json:"power,omitempty"`
	Calibration map[string]any            `yaml:"calibration,omitempty" json:"calibration,omitempty"`
	Environment map[string]any            `yaml:"environment,omitempty" json:"environment,omitempty"`
	Notes       string                    `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// validate checks the structural invariants that yaml decoding alone does
// not enforce.
func (c *Config) validate() error {
	if c.Platform.Name == "" {
		return fmt.Errorf("%w: missing platform.name", ErrConfigInvalid)
	}
	for name, ifc := range c.Interfaces {
		if ifc.Type() == "" {
			return fmt.Errorf("%w: interface %q has no type discriminator", ErrConfigInvalid, name)
		}
	}
	return nil
}

// HasInterface reports whether the platform declares the named interface.
func (c *Config) HasInterface(name string) bool {
	_, ok := c.Interfaces[name]
	return ok
}
