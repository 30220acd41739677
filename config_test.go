package callerid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 9600, config.BaudRate)
	assert.Equal(t, 8, config.DataBits)
	assert.Equal(t, 1, config.StopBits)
	assert.Equal(t, ParityNone, config.Parity)
	assert.Equal(t, DriverAuto, config.Driver)
	assert.Equal(t, 200*time.Millisecond, config.ReadTimeout)
	assert.Equal(t, "AT+VCID=1\r", config.InitCommand)
	assert.Equal(t, 20*time.Millisecond, config.IdleDelay)
	assert.Equal(t, 500*time.Millisecond, config.NotConnectedBackoff)
	assert.Equal(t, 100*time.Millisecond, config.ReadFailureBackoff)
}

func TestFunctionalOptions(t *testing.T) {
	config, err := NewConfig(
		WithBaudRate(115200),
		WithDataBits(7),
		WithStopBits(2),
		WithParity(ParityEven),
		WithDriver(DriverPortable),
		WithWriteTimeout(3*time.Second),
		WithInitCommand("AT#CID=1\r"),
		WithReadBufferSize(256),
		WithMaxLineLength(512),
		WithBackoff(10*time.Millisecond, time.Second, 250*time.Millisecond),
	)
	require.NoError(t, err)

	assert.Equal(t, 115200, config.BaudRate)
	assert.Equal(t, 7, config.DataBits)
	assert.Equal(t, 2, config.StopBits)
	assert.Equal(t, ParityEven, config.Parity)
	assert.Equal(t, DriverPortable, config.Driver)
	assert.Equal(t, 3*time.Second, config.WriteTimeout)
	assert.Equal(t, "AT#CID=1\r", config.InitCommand)
	assert.Equal(t, 256, config.ReadBufferSize)
	assert.Equal(t, 512, config.MaxLineLength)
	assert.Equal(t, 10*time.Millisecond, config.IdleDelay)
	assert.Equal(t, time.Second, config.NotConnectedBackoff)
	assert.Equal(t, 250*time.Millisecond, config.ReadFailureBackoff)
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{"baud rate", WithBaudRate(123456), ErrInvalidBaudRate},
		{"data bits", WithDataBits(9), ErrInvalidConfig},
		{"stop bits", WithStopBits(3), ErrInvalidConfig},
		{"parity", WithParity(Parity(9)), ErrInvalidConfig},
		{"driver", WithDriver(Driver(7)), ErrInvalidDriver},
		{"write timeout", WithWriteTimeout(0), ErrInvalidConfig},
		{"read buffer", WithReadBufferSize(0), ErrInvalidConfig},
		{"max line", WithMaxLineLength(-1), ErrInvalidConfig},
		{"backoff", WithBackoff(0, -time.Second, 0), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWithMaxLineLengthZero(t *testing.T) {
	config, err := NewConfig(WithMaxLineLength(0))
	require.NoError(t, err)
	assert.Zero(t, config.MaxLineLength)
}

func TestConfigWithDefaults(t *testing.T) {
	d := DefaultConfig()

	config := Config{}.withDefaults()
	assert.Equal(t, d.BaudRate, config.BaudRate)
	assert.Equal(t, d.DataBits, config.DataBits)
	assert.Equal(t, d.StopBits, config.StopBits)
	assert.Equal(t, d.WriteTimeout, config.WriteTimeout)
	assert.Equal(t, d.ReadBufferSize, config.ReadBufferSize)
	assert.Equal(t, d.IdleDelay, config.IdleDelay)
	assert.Equal(t, d.NotConnectedBackoff, config.NotConnectedBackoff)
	assert.Equal(t, d.ReadFailureBackoff, config.ReadFailureBackoff)
	assert.Zero(t, config.ReadTimeout)
	assert.Zero(t, config.MaxLineLength)
	assert.Empty(t, config.InitCommand)

	// a blocking read needs no idle delay
	config = Config{ReadTimeout: 100 * time.Millisecond}.withDefaults()
	assert.Zero(t, config.IdleDelay)

	// explicit values survive
	config = Config{ReadBufferSize: 64, MaxLineLength: 128, NotConnectedBackoff: time.Hour}.withDefaults()
	assert.Equal(t, 64, config.ReadBufferSize)
	assert.Equal(t, 128, config.MaxLineLength)
	assert.Equal(t, time.Hour, config.NotConnectedBackoff)
}

func TestWithReadTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"0ms (non-blocking)", 0, false},
		{"100ms (valid)", 100 * time.Millisecond, false},
		{"500ms (valid)", 500 * time.Millisecond, false},
		{"2500ms (valid)", 2500 * time.Millisecond, false},
		{"25500ms (max)", 25500 * time.Millisecond, false},
		{"150ms (not multiple of 100ms)", 150 * time.Millisecond, true},
		{"250ns (not multiple of 100ms)", 250 * time.Nanosecond, true},
		{"25600ms (exceeds max)", 25600 * time.Millisecond, true},
		{"-100ms (negative)", -100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			opt := WithReadTimeout(tt.timeout)
			err := opt(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithReadTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err == nil && config.ReadTimeout != tt.timeout {
				t.Errorf("ReadTimeout = %v, want %v", config.ReadTimeout, tt.timeout)
			}
		})
	}
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		input string
		want  Driver
	}{
		{"", DriverAuto},
		{"auto", DriverAuto},
		{"Native", DriverNative},
		{"termios", DriverNative},
		{" portable ", DriverPortable},
		{"bugst", DriverPortable},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.NotEqual(t, "unknown", got.String())
	}

	_, err := ParseDriver("usb")
	assert.ErrorIs(t, err, ErrInvalidDriver)
}

func TestParseParity(t *testing.T) {
	for input, want := range map[string]Parity{
		"":      ParityNone,
		"N":     ParityNone,
		"odd":   ParityOdd,
		"E":     ParityEven,
		"mark":  ParityMark,
		"space": ParitySpace,
	} {
		got, err := ParseParity(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, err := ParseParity("x")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
