// Package serial provides the serial/UART capability adapter over
// go.bug.st/serial. The mock loops written bytes back into the read buffer.
package serial

import (
	"fmt"
	"strings"
	"time"

	bugst "go.bug.st/serial"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Kind is the capability name this package registers under.
const Kind = "serial"

func init() {
	hal.Register(Kind, hal.Factory{
		New:     func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return New(cfg), nil },
		NewMock: func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return NewMock(cfg), nil },
	})
}

// Port is the operation contract shared by the real and mock serial adapters.
type Port interface {
	hal.Adapter

	Write(data []byte) hal.Result
	// Read returns up to n bytes. A short or empty read is not a failure.
	Read(n int) ([]byte, hal.Result)
	// ReadLine reads until LF or timeout and returns the line without the
	// trailing CR/LF.
	ReadLine(timeout time.Duration) (string, hal.Result)
	Flush() hal.Result
}

// devicePort is the slice of go.bug.st/serial.Port the adapter actually
// touches. The narrow interface keeps the real adapter testable with an
// injected fake.
type devicePort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// openPort is swapped in tests; the factory-function indirection keeps the
// real adapter testable without a physical port.
var openPort = func(name string, mode *bugst.Mode) (devicePort, error) {
	return bugst.Open(name, mode)
}

// Adapter drives a physical serial port.
type Adapter struct {
	cfg      platform.InterfaceConfig
	portName string
	baudrate int
	timeout  time.Duration

	port  devicePort
	ready bool
}

var _ Port = (*Adapter)(nil)

// New constructs an uninitialized serial adapter from its interface
// configuration.
func New(cfg platform.InterfaceConfig) *Adapter {
	return &Adapter{
		cfg:      cfg,
		portName: cfg.String("port", "/dev/ttyUSB0"),
		baudrate: cfg.Int("baudrate", 115200),
		timeout:  time.Duration(cfg.Float("timeout", 1.0) * float64(time.Second)),
	}
}

// Name implements hal.Adapter.
func (a *Adapter) Name() string { return Kind }

// Initialize opens the port.
func (a *Adapter) Initialize() hal.Result {
	if a.ready {
		return hal.OK("serial already open on %s", a.portName)
	}
	mode := &bugst.Mode{
		BaudRate: a.baudrate,
		DataBits: a.cfg.Int("bytesize", 8),
		Parity:   parityFromConfig(a.cfg.String("parity", "N")),
		StopBits: bugst.OneStopBit,
	}
	port, err := openPort(a.portName, mode)
	if err != nil {
		return hal.Fail("opening %s: %v", a.portName, err)
	}
	if err := port.SetReadTimeout(a.timeout); err != nil {
		port.Close()
		return hal.Fail("setting read timeout: %v", err)
	}
	a.port = port
	a.ready = true
	return hal.OK("serial initialized: %s @ %d", a.portName, a.baudrate)
}

// Write sends data over the port; the written byte count is in Result.Data.
func (a *Adapter) Write(data []byte) hal.Result {
	if !a.ready {
		return hal.NotInitialized(Kind)
	}
	n, err := a.port.Write(data)
	if err != nil {
		return hal.Fail("write: %v", err)
	}
	return hal.OKData(n, "wrote %d bytes", n)
}

// Read returns up to n bytes from the port.
func (a *Adapter) Read(n int) ([]byte, hal.Result) {
	if !a.ready {
		return nil, hal.NotInitialized(Kind)
	}
	buf := make([]byte, n)
	read, err := a.port.Read(buf)
	if err != nil {
		return nil, hal.Fail("read: %v", err)
	}
	return buf[:read], hal.OK("read %d bytes", read)
}

// ReadLine reads bytes until LF or the timeout elapses.
func (a *Adapter) ReadLine(timeout time.Duration) (string, hal.Result) {
	if !a.ready {
		return "", hal.NotInitialized(Kind)
	}
	if timeout <= 0 {
		timeout = a.timeout
	}
	deadline := time.Now().Add(timeout)
	var line []byte
	buf := make([]byte, 1)
	for time.Now().Before(deadline) {
		n, err := a.port.Read(buf)
		if err != nil {
			return "", hal.Fail("read: %v", err)
		}
		if n == 0 {
			continue
		}
		if buf[0] == '\n' {
			return strings.TrimRight(string(line), "\r"), hal.OK("read line")
		}
		line = append(line, buf[0])
	}
	return strings.TrimRight(string(line), "\r"), hal.OK("read line (timeout)")
}

// Flush discards buffered input and output.
func (a *Adapter) Flush() hal.Result {
	if !a.ready {
		return hal.NotInitialized(Kind)
	}
	if err := a.port.ResetInputBuffer(); err != nil {
		return hal.Fail("flushing input: %v", err)
	}
	if err := a.port.ResetOutputBuffer(); err != nil {
		return hal.Fail("flushing output: %v", err)
	}
	return hal.OK("buffers flushed")
}

// Cleanup closes the port. Idempotent.
func (a *Adapter) Cleanup() hal.Result {
	if a.port != nil {
		if err := a.port.Close(); err != nil {
			a.port = nil
			a.ready = false
			return hal.Fail("closing %s: %v", a.portName, err)
		}
		a.port = nil
	}
	a.ready = false
	return hal.OK("serial cleaned up")
}

// Ready implements hal.Adapter.
func (a *Adapter) Ready() bool { return a.ready }

// Status implements hal.Adapter.
func (a *Adapter) Status() string {
	if a.ready {
		return fmt.Sprintf("open on %s", a.portName)
	}
	return "not_initialized"
}

func parityFromConfig(p string) bugst.Parity {
	switch strings.ToUpper(p) {
	case "E":
		return bugst.EvenParity
	case "O":
		return bugst.OddParity
	default:
		return bugst.NoParity
	}
}
