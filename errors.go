package callerid

import "errors"

// Predefined error types for robust error handling
var (
	ErrEnumeration      = errors.New("failed to enumerate serial ports")
	ErrConnection       = errors.New("failed to open serial device")
	ErrAlreadyListening = errors.New("listener already running")
	ErrNotConnected     = errors.New("no serial device connected")
	ErrReadFailure      = errors.New("serial read failed")

	// Driver errors
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrInvalidDriver    = errors.New("unknown serial driver")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrWriteTimeout     = errors.New("write operation timed out")

	// USB errors
	ErrUSBInfoNotAvailable  = errors.New("USB bus/device number not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not found in PATH")
)
