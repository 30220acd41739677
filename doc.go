// Package callerid listens to a caller-ID capable modem on a serial port and
// publishes the phone number of every incoming call.
//
// A Session ties the pieces together: a Connection that owns the serial
// device, a Listener that reads, reassembles and parses modem output on its
// own goroutine, and a Broker that fans events out to subscribers.
//
// # Basic Usage
//
//	session := callerid.NewSession(callerid.DefaultConfig(), nil)
//	defer session.Close()
//
//	events, cancel := session.Subscribe()
//	defer cancel()
//
//	if err := session.Connect("/dev/ttyACM0"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
//	for ev := range events {
//	    switch ev := ev.(type) {
//	    case callerid.CallerEvent:
//	        fmt.Println("incoming call from", ev.PhoneNumber)
//	    case callerid.ErrorNotice:
//	        fmt.Println("notice:", ev.Kind, ev.Message)
//	    }
//	}
//
// Connect writes the caller-ID enable command (AT+VCID=1 by default) after
// opening the device. A modem that rejects it is logged, not treated as a
// failed connect. Connecting again replaces the open device.
//
// The listener keeps running without a device: it publishes an ErrorNotice
// of kind NoticeNotConnected and backs off until Connect succeeds. Read
// failures are reported the same way with NoticeReadFailure.
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	config, err := callerid.NewConfig(
//	    callerid.WithBaudRate(1200),
//	    callerid.WithInitCommand("AT#CID=1\r"),
//	    callerid.WithDriver(callerid.DriverPortable),
//	)
//
// # Parsing
//
// ParseLine and LineBuffer are usable on their own, for example on a capture
// of modem output:
//
//	lines := callerid.NewLineBuffer(4096)
//	for line := range lines.Feed(data) {
//	    if number, ok := callerid.ParseLine(line); ok {
//	        fmt.Println(number)
//	    }
//	}
//
// # Port Discovery
//
// List available serial ports and get USB device metadata:
//
//	ports, err := callerid.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := callerid.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # USB Device Management (Linux)
//
// Reset a hung USB modem programmatically:
//
//	err := callerid.ResetUSBDevice(ctx, "/dev/ttyACM0")
//	err = callerid.ResetUSBDeviceBySerial(ctx, "12345678")
//
// Requires usbreset utility from usbutils package and root/sudo permissions.
//
// # Error Handling
//
// Use errors.Is() with the exported sentinel errors:
//
//	if errors.Is(err, callerid.ErrConnection) {
//	    // device could not be opened
//	}
//
// # Platform Support
//
// On Linux devices are opened with termios directly (DriverNative). Other
// platforms, or DriverPortable, use go.bug.st/serial. USB metadata from sysfs
// and USB reset are Linux-only.
package callerid
