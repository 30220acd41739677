/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/logger"
	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file> [port]",
	Short: "Capture raw modem output to a file",
	Long: `Capture the raw output of a caller-ID modem to a file for later parsing.

The modem is opened and sent the init command exactly like 'watch' and
'listen' do, then every byte it sends is appended to the output file until
interrupted (Ctrl+C). Feed the file to 'callerid parse' to check what the
line parser makes of it.

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  callerid capture ring.log /dev/ttyACM0
  callerid capture ring.log --device /dev/ttyACM0 --console`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		outputPath := args[0]
		portPath, err := requireDevice(args[1:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		config, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		showConsole, _ := cmd.Flags().GetBool("console")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runCapture(ctx, portPath, outputPath, config, showConsole); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

func runCapture(ctx context.Context, portPath, outputPath string, config callerid.Config, showConsole bool) error {
	conn := callerid.NewConnection(config, logger.With("component", "connection"))

	res, err := conn.Open(portPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	if res.InitErr != nil {
		logger.Warn("caller-ID enable command failed", "device", portPath, "error", res.InitErr)
	}

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	var out io.Writer = file
	if showConsole {
		out = io.MultiWriter(file, os.Stdout)
	}

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", portPath, outputPath)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	n, err := copyUntilDone(ctx, out, conn, config)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written\n", n)
	return nil
}

// copyUntilDone copies from src until ctx is done. Reads time out on their
// own, so cancellation is noticed within one read timeout.
func copyUntilDone(ctx context.Context, dst io.Writer, src callerid.Source, config callerid.Config) (int64, error) {
	buffer := make([]byte, config.ReadBufferSize)
	var written int64
	startTime := time.Now()

	for ctx.Err() == nil {
		n, err := src.ReadInto(buffer)
		if err != nil {
			if errors.Is(err, callerid.ErrNotConnected) {
				return written, err
			}
			logger.Debug("capture read failed", "error", err)
			time.Sleep(config.ReadFailureBackoff)
			continue
		}
		if n == 0 {
			time.Sleep(config.IdleDelay)
			continue
		}
		w, err := dst.Write(buffer[:n])
		written += int64(w)
		if err != nil {
			return written, fmt.Errorf("write error: %w", err)
		}
	}

	logger.Debug("capture stopped", "bytes", written, "duration", time.Since(startTime).Round(time.Millisecond))
	return written, nil
}
