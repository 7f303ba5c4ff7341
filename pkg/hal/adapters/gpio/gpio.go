// Package gpio provides the GPIO capability adapter over periph.io. The
// mock keeps pin states in memory.
package gpio

import (
	"fmt"

	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Kind is the capability name this package registers under.
const Kind = "gpio"

func init() {
	hal.Register(Kind, hal.Factory{
		New:     func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return New(cfg), nil },
		NewMock: func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return NewMock(cfg), nil },
	})
}

// Controller is the operation contract shared by the real and mock GPIO
// adapters.
type Controller interface {
	hal.Adapter

	SetPin(pin int, value bool) hal.Result
	GetPin(pin int) (bool, hal.Result)
	TogglePin(pin int) hal.Result
}

// Adapter drives host GPIO lines through periph.io.
type Adapter struct {
	cfg   platform.InterfaceConfig
	ready bool
	pins  map[int]periphgpio.PinIO
}

var _ Controller = (*Adapter)(nil)

// New constructs an uninitialized GPIO adapter from its interface
// configuration.
func New(cfg platform.InterfaceConfig) *Adapter {
	return &Adapter{cfg: cfg, pins: map[int]periphgpio.PinIO{}}
}

// Name implements hal.Adapter.
func (a *Adapter) Name() string { return Kind }

// Initialize loads the periph host drivers.
func (a *Adapter) Initialize() hal.Result {
	if a.ready {
		return hal.OK("GPIO already initialized")
	}
	if _, err := host.Init(); err != nil {
		return hal.Fail("initializing periph host: %v", err)
	}
	a.ready = true
	return hal.OK("GPIO initialized")
}

// SetPin drives the numbered pin as an output.
func (a *Adapter) SetPin(pin int, value bool) hal.Result {
	if !a.ready {
		return hal.NotInitialized(Kind)
	}
	p, res := a.pin(pin)
	if !res.OK {
		return res
	}
	if err := p.Out(periphgpio.Level(value)); err != nil {
		return hal.Fail("pin %d: %v", pin, err)
	}
	return hal.OK("pin %d = %v", pin, value)
}

// GetPin reads the numbered pin.
func (a *Adapter) GetPin(pin int) (bool, hal.Result) {
	if !a.ready {
		return false, hal.NotInitialized(Kind)
	}
	p, res := a.pin(pin)
	if !res.OK {
		return false, res
	}
	return bool(p.Read()), hal.OK("pin %d read", pin)
}

// TogglePin inverts the numbered pin.
func (a *Adapter) TogglePin(pin int) hal.Result {
	current, res := a.GetPin(pin)
	if !res.OK {
		return res
	}
	return a.SetPin(pin, !current)
}

// Cleanup releases pin handles. Idempotent.
func (a *Adapter) Cleanup() hal.Result {
	a.pins = map[int]periphgpio.PinIO{}
	a.ready = false
	return hal.OK("GPIO cleaned up")
}

// Ready implements hal.Adapter.
func (a *Adapter) Ready() bool { return a.ready }

// Status implements hal.Adapter.
func (a *Adapter) Status() string {
	if a.ready {
		return "active"
	}
	return "not_initialized"
}

func (a *Adapter) pin(n int) (periphgpio.PinIO, hal.Result) {
	if p, ok := a.pins[n]; ok {
		return p, hal.OK("")
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, hal.Fail("pin GPIO%d not present on this host", n)
	}
	a.pins[n] = p
	return p, hal.OK("")
}

// Mock simulates GPIO with an in-memory pin-state map. Pins named in the
// "pins" config section start low.
type Mock struct {
	cfg    platform.InterfaceConfig
	ready  bool
	states map[int]bool
}

var _ Controller = (*Mock)(nil)

// NewMock constructs the simulated GPIO adapter.
func NewMock(cfg platform.InterfaceConfig) *Mock {
	return &Mock{cfg: cfg, states: map[int]bool{}}
}

// Name implements hal.Adapter.
func (m *Mock) Name() string { return Kind }

// Initialize marks the controller ready and zeroes all configured pins.
func (m *Mock) Initialize() hal.Result {
	m.ready = true
	if pins, ok := m.cfg["pins"].(map[string]any); ok {
		for _, v := range pins {
			switch n := v.(type) {
			case int:
				m.states[n] = false
			case float64:
				m.states[int(n)] = false
			}
		}
	}
	return hal.OK("mock GPIO initialized")
}

// SetPin stores the pin state.
func (m *Mock) SetPin(pin int, value bool) hal.Result {
	if !m.ready {
		return hal.NotInitialized(Kind)
	}
	m.states[pin] = value
	return hal.OK("mock pin %d = %v", pin, value)
}

// GetPin reads the stored pin state; unknown pins read low.
func (m *Mock) GetPin(pin int) (bool, hal.Result) {
	if !m.ready {
		return false, hal.NotInitialized(Kind)
	}
	return m.states[pin], hal.OK("mock pin %d read", pin)
}

// TogglePin inverts the stored pin state.
func (m *Mock) TogglePin(pin int) hal.Result {
	current, res := m.GetPin(pin)
	if !res.OK {
		return res
	}
	return m.SetPin(pin, !current)
}

// Cleanup resets all pin state. Idempotent.
func (m *Mock) Cleanup() hal.Result {
	m.ready = false
	m.states = map[int]bool{}
	return hal.OK("mock GPIO cleaned up")
}

// Ready implements hal.Adapter.
func (m *Mock) Ready() bool { return m.ready }

// Status implements hal.Adapter.
func (m *Mock) Status() string {
	if m.ready {
		return "active (mock)"
	}
	return "not_initialized"
}
