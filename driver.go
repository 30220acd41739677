package callerid

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Port is an open serial device as seen by the connection manager
type Port interface {
	// Read returns 0, nil when the configured read timeout expires without data.
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	WriteContext(ctx context.Context, data []byte) (int, error)
	FlushInput() error
	Close() error
}

// OpenFunc opens device with the given configuration
type OpenFunc func(device string, config Config) (Port, error)

// Driver selects the serial implementation used to open devices
type Driver int

const (
	DriverAuto     Driver = iota // native on Linux, portable elsewhere
	DriverNative                 // termios via golang.org/x/sys/unix (Linux)
	DriverPortable               // go.bug.st/serial
)

func (d Driver) String() string {
	switch d {
	case DriverAuto:
		return "auto"
	case DriverNative:
		return "native"
	case DriverPortable:
		return "portable"
	default:
		return "unknown"
	}
}

// ParseDriver converts a driver name as used in configuration files
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return DriverAuto, nil
	case "native", "termios":
		return DriverNative, nil
	case "portable", "bugst":
		return DriverPortable, nil
	default:
		return DriverAuto, fmt.Errorf("%w: %q", ErrInvalidDriver, name)
	}
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// ParseParity accepts the usual single letter or word forms
func ParseParity(name string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	case "m", "mark":
		return ParityMark, nil
	case "s", "space":
		return ParitySpace, nil
	default:
		return ParityNone, fmt.Errorf("%w: parity %q", ErrInvalidConfig, name)
	}
}

// Open opens a serial port with the given device path and options
func Open(device string, opts ...Option) (Port, error) {
	config, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return openPort(device, config)
}

// openPort dispatches to the driver selected in config
func openPort(device string, config Config) (Port, error) {
	switch config.Driver {
	case DriverNative:
		return openNative(device, config)
	case DriverPortable:
		return openPortable(device, config)
	case DriverAuto:
		if nativeSupported {
			return openNative(device, config)
		}
		return openPortable(device, config)
	default:
		return nil, ErrInvalidDriver
	}
}

type writeResult struct {
	n   int
	err error
}

// writeWithContext runs write in a goroutine so ctx can bound it. The
// goroutine outlives a timeout; pending tracks it until write returns so
// Close can wait before releasing the device.
func writeWithContext(ctx context.Context, pending *sync.WaitGroup, write func([]byte) (int, error), data []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	resultCh := make(chan writeResult, 1)
	pending.Add(1)
	go func() {
		defer pending.Done()
		n, err := write(data)
		resultCh <- writeResult{n: n, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return 0, ErrWriteTimeout
		}
		return 0, ctx.Err()
	}
}
