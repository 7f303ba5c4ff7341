// Package cli provides the CLI capability adapter: command execution over a
// serial console or an SSH session, with response capture and comparison.
// It targets interactive CLIs on embedded systems, routers and switches.
package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/shlex"
	bugst "go.bug.st/serial"
	"golang.org/x/crypto/ssh"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
)

// Kind is the capability name this package registers under.
const Kind = "cli"

func init() {
	hal.Register(Kind, hal.Factory{
		New:     func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return New(cfg) },
		NewMock: func(cfg platform.InterfaceConfig) (hal.Adapter, error) { return NewMock(cfg), nil },
	})
}

// CompareMode selects how CompareOutput matches expected against actual.
type CompareMode string

const (
	CompareExact    CompareMode = "exact"
	CompareContains CompareMode = "contains"
	CompareRegex    CompareMode = "regex"
)

// Console is the operation contract shared by the real and mock CLI
// adapters.
type Console interface {
	hal.Adapter

	// ExecuteCommand runs one command and captures its output in
	// Result.Data (string).
	ExecuteCommand(command string, timeout time.Duration) hal.Result

	// CaptureOutput reads whatever the console produces until the timeout.
	CaptureOutput(timeout time.Duration) hal.Result

	// CompareOutput matches expected against actual (or the last captured
	// output when actual is ""). The match verdict is Result.OK.
	CompareOutput(expected, actual string, mode CompareMode) hal.Result

	// LastOutput returns the output of the most recent command or capture.
	LastOutput() string

	// ClearOutputBuffer discards the stored output.
	ClearOutputBuffer() hal.Result
}

// Adapter executes CLI commands over serial or SSH, selected by the
// connection_type config key.
type Adapter struct {
	cfg platform.InterfaceConfig

	connectionType string
	devicePath     string
	baudrate       int
	timeout        time.Duration
	commandTimeout time.Duration
	promptPattern  *regexp.Regexp

	sshAddr   string
	sshConfig *ssh.ClientConfig

	port      bugst.Port
	sshClient *ssh.Client

	ready      bool
	lastOutput string
}

var _ Console = (*Adapter)(nil)

// New constructs an uninitialized CLI adapter from its interface
// configuration.
func New(cfg platform.InterfaceConfig) (*Adapter, error) {
	prompt, err := regexp.Compile(cfg.String("prompt_pattern", `[\$#>]\s*$`))
	if err != nil {
		return nil, fmt.Errorf("invalid prompt_pattern: %w", err)
	}
	a := &Adapter{
		cfg:            cfg,
		connectionType: cfg.String("connection_type", "serial"),
		devicePath:     cfg.String("device_path", "/dev/ttyUSB0"),
		baudrate:       cfg.Int("baudrate", 115200),
		timeout:        time.Duration(cfg.Float("timeout", 5.0) * float64(time.Second)),
		commandTimeout: time.Duration(cfg.Float("command_timeout", 10.0) * float64(time.Second)),
		promptPattern:  prompt,
	}
	if a.connectionType == "ssh" {
		a.sshAddr = fmt.Sprintf("%s:%d", cfg.String("ssh_host", "localhost"), cfg.Int("ssh_port", 22))
		a.sshConfig = &ssh.ClientConfig{
			User:            cfg.String("ssh_username", "root"),
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.String("ssh_password", ""))},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         a.timeout,
		}
	}
	return a, nil
}

// Name implements hal.Adapter.
func (a *Adapter) Name() string { return Kind }

// Initialize opens the configured transport.
func (a *Adapter) Initialize() hal.Result {
	if a.ready {
		return hal.OK("CLI already connected")
	}
	switch a.connectionType {
	case "serial":
		port, err := bugst.Open(a.devicePath, &bugst.Mode{BaudRate: a.baudrate})
		if err != nil {
			return hal.Fail("opening %s: %v", a.devicePath, err)
		}
		if err := port.SetReadTimeout(a.timeout); err != nil {
			port.Close()
			return hal.Fail("setting read timeout: %v", err)
		}
		_ = port.ResetInputBuffer()
		_ = port.ResetOutputBuffer()
		a.port = port
		a.ready = true
		return hal.OK("serial CLI initialized on %s @ %d", a.devicePath, a.baudrate)
	case "ssh":
		client, err := ssh.Dial("tcp", a.sshAddr, a.sshConfig)
		if err != nil {
			return hal.Fail("connecting to %s: %v", a.sshAddr, err)
		}
		a.sshClient = client
		a.ready = true
		return hal.OK("SSH CLI connected to %s", a.sshAddr)
	default:
		return hal.Fail("unsupported connection type: %s", a.connectionType)
	}
}

// ExecuteCommand runs one command and captures the response.
func (a *Adapter) ExecuteCommand(command string, timeout time.Duration) hal.Result {
	if !a.ready {
		return hal.NotInitialized(Kind)
	}
	// Tokenize up front so malformed quoting fails before touching the
	// device.
	if _, err := shlex.Split(command); err != nil {
		return hal.Fail("malformed command %q: %v", command, err)
	}
	if timeout <= 0 {
		timeout = a.commandTimeout
	}
	switch a.connectionType {
	case "ssh":
		return a.executeSSH(command)
	default:
		return a.executeSerial(command, timeout)
	}
}

func (a *Adapter) executeSSH(command string) hal.Result {
	session, err := a.sshClient.NewSession()
	if err != nil {
		return hal.Fail("opening SSH session: %v", err)
	}
	defer session.Close()
	out, err := session.CombinedOutput(command)
	a.lastOutput = string(out)
	if err != nil {
		return hal.Fail("command %q failed: %v (output: %s)", command, err, strings.TrimSpace(a.lastOutput))
	}
	return hal.OKData(a.lastOutput, "executed %q", command)
}

func (a *Adapter) executeSerial(command string, timeout time.Duration) hal.Result {
	if _, err := a.port.Write([]byte(command + "\r\n")); err != nil {
		return hal.Fail("sending command: %v", err)
	}
	out, err := a.readUntilPrompt(timeout)
	a.lastOutput = out
	if err != nil {
		return hal.Fail("reading response: %v", err)
	}
	return hal.OKData(out, "executed %q", command)
}

// readUntilPrompt accumulates serial output until the prompt pattern
// matches or the timeout elapses. A timeout is not an error; whatever was
// read is returned.
func (a *Adapter) readUntilPrompt(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	var out strings.Builder
	buf := make([]byte, 256)
	for time.Now().Before(deadline) {
		n, err := a.port.Read(buf)
		if err != nil {
			return out.String(), err
		}
		if n == 0 {
			continue
		}
		out.Write(buf[:n])
		if a.promptPattern.MatchString(out.String()) {
			break
		}
	}
	return out.String(), nil
}

// CaptureOutput reads console output until the timeout.
func (a *Adapter) CaptureOutput(timeout time.Duration) hal.Result {
	if !a.ready {
		return hal.NotInitialized(Kind)
	}
	if a.connectionType == "ssh" {
		return hal.Fail("capture_output is only supported on serial consoles")
	}
	if timeout <= 0 {
		timeout = a.timeout
	}
	out, err := a.readUntilPrompt(timeout)
	a.lastOutput = out
	if err != nil {
		return hal.Fail("capturing output: %v", err)
	}
	return hal.OKData(out, "captured %d bytes", len(out))
}

// CompareOutput checks expected against actual under the given mode.
func (a *Adapter) CompareOutput(expected, actual string, mode CompareMode) hal.Result {
	if actual == "" {
		actual = a.lastOutput
	}
	return compare(expected, actual, mode)
}

// LastOutput returns the most recent captured output.
func (a *Adapter) LastOutput() string { return a.lastOutput }

// ClearOutputBuffer discards stored and pending output.
func (a *Adapter) ClearOutputBuffer() hal.Result {
	if !a.ready {
		return hal.NotInitialized(Kind)
	}
	a.lastOutput = ""
	if a.port != nil {
		_ = a.port.ResetInputBuffer()
	}
	return hal.OK("output buffer cleared")
}

// Cleanup closes whichever transport is open. Idempotent.
func (a *Adapter) Cleanup() hal.Result {
	var firstErr error
	if a.port != nil {
		firstErr = a.port.Close()
		a.port = nil
	}
	if a.sshClient != nil {
		if err := a.sshClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.sshClient = nil
	}
	a.ready = false
	if firstErr != nil {
		return hal.Fail("closing CLI transport: %v", firstErr)
	}
	return hal.OK("CLI cleaned up")
}

// Ready implements hal.Adapter.
func (a *Adapter) Ready() bool { return a.ready }

// Status implements hal.Adapter.
func (a *Adapter) Status() string {
	if !a.ready {
		return "not_initialized"
	}
	if a.connectionType == "ssh" {
		return fmt.Sprintf("connected to %s", a.sshAddr)
	}
	return fmt.Sprintf("connected on %s", a.devicePath)
}

func compare(expected, actual string, mode CompareMode) hal.Result {
	switch mode {
	case CompareContains:
		if strings.Contains(actual, expected) {
			return hal.OK("output contains %q", expected)
		}
		return hal.Fail("output does not contain %q", expected)
	case CompareRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			return hal.Fail("invalid comparison pattern: %v", err)
		}
		if re.MatchString(actual) {
			return hal.OK("output matches /%s/", expected)
		}
		return hal.Fail("output does not match /%s/", expected)
	default:
		if strings.TrimSpace(actual) == strings.TrimSpace(expected) {
			return hal.OK("output matches exactly")
		}
		return hal.Fail("output mismatch: expected %q, got %q",
			strings.TrimSpace(expected), strings.TrimSpace(actual))
	}
}
