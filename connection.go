package callerid

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/allbin/go-callerid/logger"
)

// OpenResult carries the advisory outcome of a successful Open
type OpenResult struct {
	Device string
	// InitErr is the error from writing the caller-ID enable command, if any.
	// The device is open regardless.
	InitErr error
}

// Connection owns at most one open serial device. All methods are safe for
// concurrent use; the lock is held for a single open, close or read.
type Connection struct {
	mu     sync.Mutex
	port   Port
	device string

	config Config
	open   OpenFunc
	log    logger.Logger
}

// ConnectionOption customises a Connection
type ConnectionOption func(*Connection)

// WithOpenFunc replaces the function used to open devices
func WithOpenFunc(open OpenFunc) ConnectionOption {
	return func(c *Connection) {
		c.open = open
	}
}

// NewConnection creates a Connection with no device attached
func NewConnection(config Config, l logger.Logger, opts ...ConnectionOption) *Connection {
	if l == nil {
		l = logger.GetLogger()
	}
	c := &Connection{
		config: config.withDefaults(),
		open:   openPort,
		log:    l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open attaches the named device, closing any device already attached.
// Failure to open is reported as ErrConnection; failure to send the init
// command is only reported in the result.
func (c *Connection) Open(name string) (*OpenResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		c.closeLocked()
	}

	p, err := c.open(name, c.config)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrConnection, name, err)
	}
	c.port = p
	c.device = name

	// Stale bytes from before the open would start a bogus first line
	if err := p.FlushInput(); err != nil {
		c.log.Debug("flush input failed", "device", name, "error", err)
	}

	return &OpenResult{Device: name, InitErr: c.sendInit(p)}, nil
}

// sendInit writes the configured init command within the write timeout
func (c *Connection) sendInit(p Port) error {
	if c.config.InitCommand == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.WriteTimeout)
	defer cancel()

	n, err := p.WriteContext(ctx, []byte(c.config.InitCommand))
	if err != nil {
		return fmt.Errorf("send %q: %w", c.config.InitCommand, err)
	}
	if n != len(c.config.InitCommand) {
		return fmt.Errorf("send %q: short write (%d of %d bytes)", c.config.InitCommand, n, len(c.config.InitCommand))
	}
	return nil
}

// Close releases the attached device. Closing with nothing attached is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeLocked()
}

func (c *Connection) closeLocked() error {
	if c.port == nil {
		return nil
	}

	err := c.port.Close()
	if errors.Is(err, ErrPortClosed) {
		err = nil
	}
	if err != nil {
		c.log.Warn("closing serial device failed", "device", c.device, "error", err)
	}

	c.port = nil
	c.device = ""
	return err
}

// ReadInto performs one bounded read. A timeout returns 0, nil; no attached
// device returns ErrNotConnected; any other fault is wrapped in ErrReadFailure.
func (c *Connection) ReadInto(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		return 0, ErrNotConnected
	}

	n, err := c.port.Read(buf)
	if err != nil {
		return n, fmt.Errorf("%w: %s: %w", ErrReadFailure, c.device, err)
	}
	return n, nil
}

// IsConnected reports whether a device is attached
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.port != nil
}

// Device returns the name of the attached device, or "" when none is attached
func (c *Connection) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.device
}
