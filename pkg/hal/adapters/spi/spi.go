// Package spi provides the SPI capability adapter over periph.io. The mock
// answers every transfer with the bitwise complement of the written bytes.
package spi

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	periphspi "periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Kind is the capability name this package registers under.
const Kind = "spi"

func init() {
	hal.Register(Kind, hal.Factory{
		New:     func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return New(cfg), nil },
		NewMock: func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return NewMock(cfg), nil },
	})
}

// Device is the operation contract shared by the real and mock SPI adapters.
type Device interface {
	hal.Adapter

	// Transfer performs a full-duplex exchange: len(tx) bytes are clocked
	// out and the same number clocked in.
	Transfer(tx []byte) ([]byte, hal.Result)
}

// Adapter drives a spidev device through periph.io.
type Adapter struct {
	cfg        platform.InterfaceConfig
	devicePath string
	speedHz    int
	mode       int

	port  periphspi.PortCloser
	conn  periphspi.Conn
	ready bool
}

var _ Device = (*Adapter)(nil)

// New constructs an uninitialized SPI adapter from its interface
// configuration.
func New(cfg platform.InterfaceConfig) *Adapter {
	return &Adapter{
		cfg:        cfg,
		devicePath: cfg.String("device_path", "/dev/spidev0.0"),
		speedHz:    cfg.Int("speed", 1000000),
		mode:       cfg.Int("mode", 0),
	}
}

// Name implements hal.Adapter.
func (a *Adapter) Name() string { return Kind }

// Initialize loads the host drivers and opens the device.
func (a *Adapter) Initialize() hal.Result {
	if a.ready {
		return hal.OK("SPI already open on %s", a.devicePath)
	}
	if _, err := host.Init(); err != nil {
		return hal.Fail("initializing periph host: %v", err)
	}
	port, err := spireg.Open(a.devicePath)
	if err != nil {
		return hal.Fail("opening %s: %v", a.devicePath, err)
	}
	conn, err := port.Connect(physic.Frequency(a.speedHz)*physic.Hertz, spiMode(a.mode), 8)
	if err != nil {
		port.Close()
		return hal.Fail("connecting %s: %v", a.devicePath, err)
	}
	a.port = port
	a.conn = conn
	a.ready = true
	return hal.OK("SPI initialized on %s at %d Hz", a.devicePath, a.speedHz)
}

// Transfer performs a full-duplex exchange.
func (a *Adapter) Transfer(tx []byte) ([]byte, hal.Result) {
	if !a.ready {
		return nil, hal.NotInitialized(Kind)
	}
	rx := make([]byte, len(tx))
	if err := a.conn.Tx(tx, rx); err != nil {
		return nil, hal.Fail("transfer: %v", err)
	}
	return rx, hal.OK("transferred %d bytes", len(tx))
}

// Cleanup closes the device. Idempotent.
func (a *Adapter) Cleanup() hal.Result {
	if a.port != nil {
		if err := a.port.Close(); err != nil {
			a.port = nil
			a.ready = false
			return hal.Fail("closing %s: %v", a.devicePath, err)
		}
		a.port = nil
	}
	a.conn = nil
	a.ready = false
	return hal.OK("SPI cleaned up")
}

// Ready implements hal.Adapter.
func (a *Adapter) Ready() bool { return a.ready }

// Status implements hal.Adapter.
func (a *Adapter) Status() string {
	if a.ready {
		return fmt.Sprintf("open on %s", a.devicePath)
	}
	return "not_initialized"
}

func spiMode(mode int) periphspi.Mode {
	switch mode {
	case 1:
		return periphspi.Mode1
	case 2:
		return periphspi.Mode2
	case 3:
		return periphspi.Mode3
	default:
		return periphspi.Mode0
	}
}

// Mock simulates an SPI device that answers with the bitwise complement of
// whatever is clocked out.
type Mock struct {
	cfg        platform.InterfaceConfig
	devicePath string
	ready      bool
	transfers  int
}

var _ Device = (*Mock)(nil)

// NewMock constructs the simulated SPI adapter.
func NewMock(cfg platform.InterfaceConfig) *Mock {
	return &Mock{cfg: cfg, devicePath: cfg.String("device_path", "mock")}
}

// Name implements hal.Adapter.
func (m *Mock) Name() string { return Kind }

// Initialize marks the simulated device ready.
func (m *Mock) Initialize() hal.Result {
	m.ready = true
	return hal.OK("mock SPI initialized on %s", m.devicePath)
}

// Transfer returns the complement of tx.
func (m *Mock) Transfer(tx []byte) ([]byte, hal.Result) {
	if !m.ready {
		return nil, hal.NotInitialized(Kind)
	}
	m.transfers++
	rx := make([]byte, len(tx))
	for i, b := range tx {
		rx[i] = ^b
	}
	return rx, hal.OK("mock transferred %d bytes", len(tx))
}

// TransferCount returns how many exchanges were simulated.
func (m *Mock) TransferCount() int { return m.transfers }

// Cleanup resets the simulated device. Idempotent.
func (m *Mock) Cleanup() hal.Result {
	m.ready = false
	return hal.OK("mock SPI cleaned up")
}

// Ready implements hal.Adapter.
func (m *Mock) Ready() bool { return m.ready }

// Status implements hal.Adapter.
func (m *Mock) Status() string {
	if m.ready {
		return fmt.Sprintf("open on %s (mock)", m.devicePath)
	}
	return "not_initialized"
}
