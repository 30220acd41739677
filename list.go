package callerid

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Regular expressions for different types of serial devices
var devicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices, most USB modems
	regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
	regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
	regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
	regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
	regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
	regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
}

// allow tests to substitute the device directory and library enumerators
var (
	devDir            = "/dev"
	portsList         = serial.GetPortsList
	detailedPortsList = enumerator.GetDetailedPortsList
)

// ListPorts returns the available serial ports in a stable order.
// On Linux /dev is scanned directly; elsewhere go.bug.st/serial enumerates them.
func ListPorts() ([]string, error) {
	var (
		ports []string
		err   error
	)
	if nativeSupported {
		ports, err = scanDevDir(devDir)
	} else {
		ports, err = portsList()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumeration, err)
	}

	sort.Strings(ports)
	return ports, nil
}

// scanDevDir lists character devices in dir whose names look like serial ports
func scanDevDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		name := entry.Name()
		if !matchesSerialName(name) {
			continue
		}

		fullPath := filepath.Join(dir, name)
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}
	return ports, nil
}

func matchesSerialName(name string) bool {
	for _, pattern := range devicePatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// PortInfo describes a serial port
type PortInfo struct {
	Name         string `json:"name" yaml:"name"`
	Path         string `json:"path" yaml:"path"`
	Description  string `json:"description" yaml:"description"`
	IsUSB        bool   `json:"usb" yaml:"usb"`
	VendorID     string `json:"vendorId,omitempty" yaml:"vendorId,omitempty"`
	ProductID    string `json:"productId,omitempty" yaml:"productId,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty"`
	Product      string `json:"product,omitempty" yaml:"product,omitempty"`

	// Linux only, read from sysfs
	Manufacturer    string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	InterfaceNumber string `json:"interface,omitempty" yaml:"interface,omitempty"`
	BusNumber       string `json:"bus,omitempty" yaml:"bus,omitempty"`
	DeviceNumber    string `json:"device,omitempty" yaml:"device,omitempty"`
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	if nativeSupported && !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
	}

	enrichUSBInfo(info)
	return info, nil
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	case strings.HasPrefix(strings.ToUpper(name), "COM"):
		return "COM Port"
	default:
		return "Serial Port"
	}
}

// enrichUSBInfo fills USB metadata from the enumerator and, on Linux, sysfs.
// Lookup failures leave the fields empty.
func enrichUSBInfo(info *PortInfo) {
	if details, err := detailedPortsList(); err == nil {
		for _, d := range details {
			if d.Name != info.Path && filepath.Base(d.Name) != info.Name {
				continue
			}
			info.IsUSB = d.IsUSB
			info.VendorID = d.VID
			info.ProductID = d.PID
			info.SerialNumber = d.SerialNumber
			info.Product = d.Product
			break
		}
	}

	enrichSysfsInfo(info)

	if info.Product != "" {
		info.Description = info.Product
	}
}

// setIfEmpty stores value in *field unless the field already has one
func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
