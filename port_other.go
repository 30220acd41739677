//go:build !linux

package callerid

const nativeSupported = false

// standardBaudRates are the rates accepted when the termios driver is unavailable
var standardBaudRates = map[int]struct{}{
	300: {}, 600: {}, 1200: {}, 1800: {}, 2400: {}, 4800: {}, 9600: {},
	19200: {}, 38400: {}, 57600: {}, 115200: {}, 230400: {}, 460800: {}, 921600: {},
}

func getBaudRate(rate int) (uint32, error) {
	if _, ok := standardBaudRates[rate]; !ok {
		return 0, ErrInvalidBaudRate
	}
	return uint32(rate), nil
}

// openNative falls back to the portable driver outside Linux
func openNative(device string, config Config) (Port, error) {
	return openPortable(device, config)
}
