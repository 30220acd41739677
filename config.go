package callerid

import "time"

// Config holds the configuration for a caller-ID device and its listener
type Config struct {
	// Serial line settings
	BaudRate     int
	DataBits     int
	StopBits     int
	Parity       Parity
	Driver       Driver
	ReadTimeout  time.Duration // bounded read; a timeout yields zero bytes
	WriteTimeout time.Duration

	// InitCommand is written once after open to enable caller-ID reporting.
	// An empty command disables the write.
	InitCommand string

	// Listener settings
	ReadBufferSize      int
	MaxLineLength       int
	IdleDelay           time.Duration // after a read that returned no data
	NotConnectedBackoff time.Duration
	ReadFailureBackoff  time.Duration
}

// Option is a functional option for configuring a caller-ID session
type Option func(*Config) error

// DefaultInitCommand enables caller-ID reporting on Hayes compatible modems.
const DefaultInitCommand = "AT+VCID=1\r"

// maxReadTimeout is the largest VTIME the termios driver can express.
const maxReadTimeout = 255 * 100 * time.Millisecond

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:            9600,
		DataBits:            8,
		StopBits:            1,
		Parity:              ParityNone,
		Driver:              DriverAuto,
		ReadTimeout:         200 * time.Millisecond,
		WriteTimeout:        time.Second,
		InitCommand:         DefaultInitCommand,
		ReadBufferSize:      1024,
		MaxLineLength:       4096,
		IdleDelay:           20 * time.Millisecond,
		NotConnectedBackoff: 500 * time.Millisecond,
		ReadFailureBackoff:  100 * time.Millisecond,
	}
}

// withDefaults fills the fields a zero Config leaves unusable. Zero stays
// meaningful where it has a meaning: no line cap, no init command, and a
// zero idle delay behind a blocking read.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaudRate <= 0 {
		c.BaudRate = d.BaudRate
	}
	if c.DataBits <= 0 {
		c.DataBits = d.DataBits
	}
	if c.StopBits <= 0 {
		c.StopBits = d.StopBits
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.MaxLineLength < 0 {
		c.MaxLineLength = 0
	}
	// A non-blocking read with no idle delay would spin
	if c.IdleDelay < 0 || (c.IdleDelay == 0 && c.ReadTimeout == 0) {
		c.IdleDelay = d.IdleDelay
	}
	if c.NotConnectedBackoff <= 0 {
		c.NotConnectedBackoff = d.NotConnectedBackoff
	}
	if c.ReadFailureBackoff <= 0 {
		c.ReadFailureBackoff = d.ReadFailureBackoff
	}
	return c
}

// NewConfig applies opts on top of DefaultConfig.
func NewConfig(opts ...Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithDriver selects the serial driver
func WithDriver(driver Driver) Option {
	return func(c *Config) error {
		if driver < DriverAuto || driver > DriverPortable {
			return ErrInvalidDriver
		}
		c.Driver = driver
		return nil
	}
}

// WithReadTimeout sets the read timeout. The native driver expresses it in
// tenths of a second, so it must be a multiple of 100ms between 0 and 25.5s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > maxReadTimeout || timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithWriteTimeout bounds the init command write
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return ErrInvalidConfig
		}
		c.WriteTimeout = timeout
		return nil
	}
}

// WithInitCommand replaces the command written after open. Pass "" to skip it.
func WithInitCommand(cmd string) Option {
	return func(c *Config) error {
		c.InitCommand = cmd
		return nil
	}
}

// WithReadBufferSize sets the size of the per-read buffer
func WithReadBufferSize(size int) Option {
	return func(c *Config) error {
		if size <= 0 {
			return ErrInvalidConfig
		}
		c.ReadBufferSize = size
		return nil
	}
}

// WithMaxLineLength caps the bytes buffered for a single line. Zero
// disables the cap.
func WithMaxLineLength(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return ErrInvalidConfig
		}
		c.MaxLineLength = n
		return nil
	}
}

// WithBackoff sets the listener delays: after an empty read, after a read
// without a connected device and after a failed read. A zero backoff falls
// back to the default when the listener is built.
func WithBackoff(idle, notConnected, readFailure time.Duration) Option {
	return func(c *Config) error {
		if idle < 0 || notConnected < 0 || readFailure < 0 {
			return ErrInvalidConfig
		}
		c.IdleDelay = idle
		c.NotConnectedBackoff = notConnected
		c.ReadFailureBackoff = readFailure
		return nil
	}
}
