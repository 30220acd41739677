package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlEscapes(t *testing.T) {
	assert.Equal(t, "AT+VCID=1\r", expandControl(`AT+VCID=1\r`))
	assert.Equal(t, `AT+VCID=1\r`, escapeControl("AT+VCID=1\r"))
	assert.Equal(t, "AT#CID=1\r\n", expandControl(escapeControl("AT#CID=1\r\n")))
}

func TestRootHelpParseRules(t *testing.T) {
	for _, rule := range []string{"NMBR=", "NUMBER=", "10 to 15"} {
		assert.Contains(t, rootCmd.Long, rule)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, callerid.DefaultConfig(), config)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Cleanup(func() {
		for _, k := range []string{"baud", "parity", "driver", "init-command", "read-failure-backoff"} {
			viper.Set(k, nil)
		}
	})

	viper.Set("baud", 1200)
	viper.Set("parity", "even")
	viper.Set("driver", "portable")
	viper.Set("init-command", `AT#CID=1\r`)
	viper.Set("read-failure-backoff", "2s")

	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1200, config.BaudRate)
	assert.Equal(t, callerid.ParityEven, config.Parity)
	assert.Equal(t, callerid.DriverPortable, config.Driver)
	assert.Equal(t, "AT#CID=1\r", config.InitCommand)
	assert.Equal(t, 2*time.Second, config.ReadFailureBackoff)
}

func TestLoadConfigNoLineLimit(t *testing.T) {
	t.Cleanup(func() { viper.Set("max-line-length", nil) })

	viper.Set("max-line-length", 0)
	config, err := loadConfig()
	require.NoError(t, err)
	assert.Zero(t, config.MaxLineLength)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Cleanup(func() { viper.Set("driver", nil) })

	viper.Set("driver", "usb")
	_, err := loadConfig()
	assert.ErrorIs(t, err, callerid.ErrInvalidDriver)
}

func TestDeviceArg(t *testing.T) {
	t.Cleanup(func() { viper.Set("device", nil) })

	_, err := requireDevice(nil)
	assert.Error(t, err)

	viper.Set("device", "/dev/ttyACM0")
	assert.Equal(t, "/dev/ttyACM0", deviceArg(nil))
	assert.Equal(t, "/dev/ttyUSB0", deviceArg([]string{"/dev/ttyUSB0"}))
}

func TestGetPortType(t *testing.T) {
	tests := map[string]string{
		"ttyUSB0": "USB Serial",
		"ttyACM0": "USB CDC/ACM",
		"ttyS0":   "Standard Serial",
		"ttyAMA0": "ARM Serial",
		"COM3":    "COM Port",
		"rfcomm0": "Serial Port",
	}
	for name, want := range tests {
		assert.Equal(t, want, getPortType(name), "name %s", name)
	}
}

func TestPrintPortInfo(t *testing.T) {
	var out bytes.Buffer
	err := printPortInfo(&out, &callerid.PortInfo{
		Name:         "ttyACM0",
		Path:         "/dev/ttyACM0",
		Description:  "USB Modem",
		IsUSB:        true,
		VendorID:     "0572",
		ProductID:    "1329",
		SerialNumber: "CX93010",
		BusNumber:    "5",
		DeviceNumber: "7",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Port Information: /dev/ttyACM0")
	assert.Contains(t, out.String(), "USB Device Information:")
	assert.Contains(t, out.String(), "Vendor ID:    0572")
	assert.Contains(t, out.String(), "Bus:          5")
	assert.NotContains(t, out.String(), "Manufacturer")
}

func TestUSBIDs(t *testing.T) {
	assert.Equal(t, "-", usbIDs(&callerid.PortInfo{}))
	assert.Equal(t, "0572:1329", usbIDs(&callerid.PortInfo{VendorID: "0572", ProductID: "1329"}))
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "A1", orDash("A1"))
}
