//go:build !linux

package callerid

// sysfsRoot is unused without sysfs
var sysfsRoot = ""

// enrichSysfsInfo is a no-op without sysfs
func enrichSysfsInfo(*PortInfo) {}
