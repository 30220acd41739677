/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/internal/feed"
	"github.com/allbin/go-callerid/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the watch command
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [port]",
	Short: "Print incoming calls without a UI",
	Long: `Connect to the modem, listen for calls and print every caller to
standard output until interrupted. Diagnostics go to standard error.

Formats:
  text  one line per event: time, kind and number or message
  json  one JSON object per line: {"type":"caller","data":{...}}
  yaml  one YAML document per event

Examples:
  callerid watch /dev/ttyACM0
  callerid watch -o json --notices | jq .
  CALLERID_DEVICE=/dev/ttyACM0 callerid watch --count 1`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device, err := requireDevice(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		format, _ := cmd.Flags().GetString("output")
		notices, _ := cmd.Flags().GetBool("notices")
		count, _ := cmd.Flags().GetInt("count")

		enc, err := newEventEncoder(os.Stdout, format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		config, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runWatch(ctx, device, config, enc, notices, count); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("output", "o", formatText, "Output format: text, json, yaml")
	watchCmd.Flags().Bool("notices", false, "Also print connection and read notices")
	watchCmd.Flags().IntP("count", "n", 0, "Exit after this many calls, 0 to run until interrupted")
}

func runWatch(ctx context.Context, device string, config callerid.Config, enc eventEncoder, notices bool, count int) error {
	session := callerid.NewSession(config, logger.GetLogger())
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing session failed", "error", err)
		}
	}()

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	if err := session.Connect(device); err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}

	return printEvents(ctx, events, enc, notices, count)
}

// printEvents writes events until ctx is done, events is closed or count
// callers have been printed
func printEvents(ctx context.Context, events <-chan callerid.Event, enc eventEncoder, notices bool, count int) error {
	calls := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			_, isCaller := ev.(callerid.CallerEvent)
			if !isCaller && !notices {
				continue
			}
			if err := enc(ev); err != nil {
				return err
			}
			if isCaller {
				calls++
				if count > 0 && calls >= count {
					return nil
				}
			}
		}
	}
}

type eventEncoder func(ev callerid.Event) error

func newEventEncoder(w io.Writer, format string) (eventEncoder, error) {
	switch format {
	case formatText:
		return func(ev callerid.Event) error {
			return writeEventText(w, ev, time.Now())
		}, nil

	case formatJSON:
		enc := json.NewEncoder(w)
		return func(ev callerid.Event) error {
			env, err := feed.Wrap(ev)
			if err != nil {
				return err
			}
			return enc.Encode(env)
		}, nil

	case formatYAML:
		enc := yaml.NewEncoder(w)
		return func(ev callerid.Event) error {
			env, err := feed.Wrap(ev)
			if err != nil {
				return err
			}
			return enc.Encode(env)
		}, nil

	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func writeEventText(w io.Writer, ev callerid.Event, now time.Time) error {
	var err error
	switch ev := ev.(type) {
	case callerid.CallerEvent:
		_, err = fmt.Fprintf(w, "%s  caller  %s\n", ev.Timestamp.Local().Format(time.DateTime), ev.PhoneNumber)
	case callerid.ErrorNotice:
		_, err = fmt.Fprintf(w, "%s  notice  %s: %s\n", now.Local().Format(time.DateTime), ev.Kind, ev.Message)
	default:
		err = fmt.Errorf("unknown event type %T", ev)
	}
	return err
}
