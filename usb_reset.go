package callerid

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// usbSettleTime is how long a reset device takes to re-enumerate
const usbSettleTime = 2 * time.Second

// allow tests to substitute the usbreset invocation
var (
	lookPath       = exec.LookPath
	usbSettleDelay = usbSettleTime
)

var runUSBReset = func(ctx context.Context, busDev string) ([]byte, error) {
	return exec.CommandContext(ctx, "usbreset", busDev).CombinedOutput()
}

// ResetUSBDevice performs a USB-level reset of the device behind portPath.
// This can recover a modem that stopped answering.
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
//
// Returns ErrUSBInfoNotAvailable if the port is not a USB device or its bus
// and device numbers are unknown, and ErrUSBResetNotAvailable if usbreset is
// not installed.
func ResetUSBDevice(ctx context.Context, portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	usbPath, err := formatUSBPath(info.BusNumber, info.DeviceNumber)
	if err != nil {
		return err
	}
	if output, err := runUSBReset(ctx, usbPath); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	sleepContext(ctx, usbSettleDelay)
	return ctx.Err()
}

// ResetUSBDeviceBySerial resets the USB device with the given serial number.
// Useful when device paths change after a reset or reboot.
func ResetUSBDeviceBySerial(ctx context.Context, serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}

		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(ctx, portPath)
		}
	}

	return fmt.Errorf("%w: serial %s", ErrDeviceNotFound, serialNumber)
}

// formatUSBPath renders bus and device numbers as the zero-padded BBB/DDD
// argument usbreset expects
func formatUSBPath(bus, device string) (string, error) {
	b, err := strconv.Atoi(bus)
	if err != nil {
		return "", fmt.Errorf("%w: bus %q", ErrUSBInfoNotAvailable, bus)
	}
	d, err := strconv.Atoi(device)
	if err != nil {
		return "", fmt.Errorf("%w: device %q", ErrUSBInfoNotAvailable, device)
	}
	return fmt.Sprintf("%03d/%03d", b, d), nil
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := lookPath("usbreset")
	return err == nil
}
