/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/allbin/go-callerid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extract caller numbers from captured modem output",
	Long: `Run the line parser over captured modem output and print every phone
number found, one per line. Reads standard input when no file is given
or the file is "-".

Lines are split and decoded exactly as the listener does it, so a
capture made with 'callerid capture' shows what a live session would
have reported.

Examples:
  callerid parse ring.log
  printf 'RING\r\nNMBR=5551234567\r\n' | callerid parse
  callerid parse ring.log --all`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer file.Close()
			in = file
		}

		all, _ := cmd.Flags().GetBool("all")

		found, err := parseStream(in, os.Stdout, viper.GetInt("max-line-length"), all)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if found == 0 {
			fmt.Fprintln(os.Stderr, "No caller numbers found")
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolP("all", "a", false, "Print every line with its parse result")
}

// parseStream feeds r through a line buffer and the parser and reports the
// number of caller numbers written to w. A trailing line without a newline
// is parsed too.
func parseStream(r io.Reader, w io.Writer, maxLine int, all bool) (int, error) {
	lines := callerid.NewLineBuffer(maxLine)
	buf := make([]byte, 4096)
	found := 0

	emit := func(chunk []byte) error {
		for line := range lines.Feed(chunk) {
			number, ok := callerid.ParseLine(line)
			var err error
			switch {
			case ok && all:
				_, err = fmt.Fprintf(w, "%-20s %q\n", number, line)
			case ok:
				_, err = fmt.Fprintln(w, number)
			case all:
				_, err = fmt.Fprintf(w, "%-20s %q\n", "-", line)
			}
			if err != nil {
				return err
			}
			if ok {
				found++
			}
		}
		return nil
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := emit(buf[:n]); werr != nil {
				return found, werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return found, err
		}
	}

	if lines.Pending() > 0 {
		if err := emit([]byte("\n")); err != nil {
			return found, err
		}
	}
	return found, nil
}
