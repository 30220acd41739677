/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/allbin/go-callerid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [port]",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata.

Examples:
  callerid info /dev/ttyACM0
  callerid info --device /dev/ttyUSB0 --yaml

For USB modems, this displays vendor/product IDs, serial numbers, interface
numbers, and the bus/device numbers used by 'callerid reset'.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath, err := requireDevice(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		info, err := callerid.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}

		asYAML, _ := cmd.Flags().GetBool("yaml")
		if asYAML {
			err = yaml.NewEncoder(os.Stdout).Encode(info)
		} else {
			err = printPortInfo(os.Stdout, info)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("yaml", false, "Print the information as YAML")
}

func printPortInfo(w io.Writer, info *callerid.PortInfo) error {
	fields := []struct {
		label string
		value string
	}{
		{"Vendor ID", info.VendorID},
		{"Product ID", info.ProductID},
		{"Serial", info.SerialNumber},
		{"Interface", info.InterfaceNumber},
		{"Bus", info.BusNumber},
		{"Device", info.DeviceNumber},
		{"Manufacturer", info.Manufacturer},
		{"Product", info.Product},
	}

	if _, err := fmt.Fprintf(w, "Port Information: %s\n\n", info.Path); err != nil {
		return err
	}
	fmt.Fprintf(w, "  Name:        %s\n", info.Name)
	fmt.Fprintf(w, "  Description: %s\n", info.Description)

	if !info.IsUSB {
		return nil
	}
	fmt.Fprintln(w, "\nUSB Device Information:")
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(w, "  %-13s %s\n", f.label+":", f.value)
		}
	}
	return nil
}
