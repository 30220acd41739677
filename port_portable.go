package callerid

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// portablePort implements Port on top of go.bug.st/serial
type portablePort struct {
	mu     sync.RWMutex
	writes sync.WaitGroup
	port   serial.Port
	device string
	closed bool
}

var _ Port = (*portablePort)(nil)

// allow tests to substitute the library
var bugstOpen = serial.Open

func toBugstMode(config Config) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if config.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch config.Parity {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	}
	return mode
}

// openPortable opens device through go.bug.st/serial, the only driver that
// understands Windows COM port names
func openPortable(device string, config Config) (Port, error) {
	p, err := bugstOpen(device, toBugstMode(config))
	if err != nil {
		return nil, classifyPortError(device, err)
	}

	if err := p.SetReadTimeout(config.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %v", device, err)
	}

	return &portablePort{port: p, device: device}, nil
}

// classifyPortError maps serial.PortError codes onto the package errors
func classifyPortError(device string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound:
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
		case serial.PermissionDenied:
			return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
		case serial.PortBusy:
			return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
		case serial.InvalidSpeed:
			return ErrInvalidBaudRate
		case serial.InvalidDataBits, serial.InvalidParity, serial.InvalidStopBits:
			return ErrInvalidConfig
		case serial.PortClosed:
			return ErrPortClosed
		}
	}
	return fmt.Errorf("failed to open %s: %v", device, err)
}

func (p *portablePort) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	n, err := p.port.Read(buf)
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
			return 0, ErrPortClosed
		}
		return 0, err
	}
	return n, nil
}

func (p *portablePort) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	return p.port.Write(data)
}

func (p *portablePort) WriteContext(ctx context.Context, data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrPortClosed
	}

	return writeWithContext(ctx, &p.writes, p.port.Write, data)
}

func (p *portablePort) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPortClosed
	}

	return p.port.ResetInputBuffer()
}

func (p *portablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	_ = p.port.ResetOutputBuffer()
	p.writes.Wait()

	p.closed = true
	return p.port.Close()
}
