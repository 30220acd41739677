//go:build linux

package callerid

import (
	"os"
	"path/filepath"
	"strings"
)

// sysfsRoot is replaced in tests with a fake tree
var sysfsRoot = "/sys"

// readSysfsFile returns the trimmed contents of a sysfs attribute, or "" if
// it cannot be read
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// enrichSysfsInfo walks from /sys/class/tty/<name>/device up to the USB
// interface and device directories. Non-USB ports have no idVendor there and
// are left untouched.
func enrichSysfsInfo(info *PortInfo) {
	devicePath := filepath.Join(sysfsRoot, "class", "tty", info.Name, "device")
	resolvedPath, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return
	}

	// ttyUSB devices sit one level below the interface, ttyACM devices are
	// the interface itself
	interfacePath := resolvedPath
	if readSysfsFile(filepath.Join(interfacePath, "bInterfaceNumber")) == "" {
		interfacePath = filepath.Dir(resolvedPath)
	}
	usbDevicePath := filepath.Dir(interfacePath)

	vendor := readSysfsFile(filepath.Join(usbDevicePath, "idVendor"))
	if vendor == "" {
		return
	}

	info.IsUSB = true
	setIfEmpty(&info.VendorID, vendor)
	setIfEmpty(&info.ProductID, readSysfsFile(filepath.Join(usbDevicePath, "idProduct")))
	setIfEmpty(&info.SerialNumber, readSysfsFile(filepath.Join(usbDevicePath, "serial")))
	setIfEmpty(&info.Product, readSysfsFile(filepath.Join(usbDevicePath, "product")))
	info.Manufacturer = readSysfsFile(filepath.Join(usbDevicePath, "manufacturer"))
	info.InterfaceNumber = readSysfsFile(filepath.Join(interfacePath, "bInterfaceNumber"))
	info.BusNumber = readSysfsFile(filepath.Join(usbDevicePath, "busnum"))
	info.DeviceNumber = readSysfsFile(filepath.Join(usbDevicePath, "devnum"))
}
