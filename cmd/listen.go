/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/internal/tui/models"
	"github.com/allbin/go-callerid/logger"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen [port]",
	Short: "Watch incoming calls in a terminal UI",
	Long: `Listen for incoming calls on a caller-ID modem with a real-time TUI.

The call log shows every detected number, newest first, together with
connection and read notices. Keys:
  s/space  start or stop listening
  r        reconnect the modem
  d        disconnect the modem
  R        USB reset the modem, then reconnect (needs usbreset)
  c        clear the call log
  ?        toggle help
  q        quit

Logs are written to --log-file, since the terminal belongs to the UI.

Example usage:
  callerid listen /dev/ttyACM0
  callerid listen /dev/ttyUSB0 --baud 1200 --init-command 'AT#CID=1\r'`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		logFile, _ := cmd.Flags().GetString("log-file")
		hideNotices, _ := cmd.Flags().GetBool("hide-notices")

		if err := runListenTUI(deviceArg(args), config, logFile, !hideNotices); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().String("log-file", "", "Write logs to this file instead of discarding them")
	listenCmd.Flags().Bool("hide-notices", false, "Only show calls in the log, not connection notices")
}

func runListenTUI(device string, config callerid.Config, logFile string, showNotices bool) error {
	log, closeLog, err := tuiLogger(logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	session := callerid.NewSession(config, log)
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("closing session failed", "error", err)
		}
	}()

	opts := []models.ListenOption{models.WithNotices(showNotices)}
	if callerid.IsUSBResetAvailable() {
		opts = append(opts, models.WithReset(callerid.ResetUSBDevice))
	}

	m := models.NewListenModel(session, device, config, opts...)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// tuiLogger keeps log output off the terminal the UI draws on
func tuiLogger(path string) (logger.Logger, func(), error) {
	level, err := logger.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = io.Discard
	closeFn := func() {}
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
		closeFn = func() { file.Close() }
	}

	format := viper.GetString("log-format")
	if format == logger.FormatConsole {
		format = logger.FormatText
	}
	l, err := logger.NewSlog(logger.Options{Level: level, Format: format, Output: out})
	if err != nil {
		return nil, nil, err
	}
	return l, closeFn, nil
}
