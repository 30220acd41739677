/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "callerid",
	Short: "Caller-ID listener for serial modems",
	Long: `callerid reads caller-ID reports from a modem on a serial port and
publishes the phone number of every incoming call.

The modem is put into caller-ID mode on connect (AT+VCID=1 by default).
Each line it sends is matched against these rules, first match wins:

  1. NMBR= followed by at least 10 digits
  2. NUMBER= followed by at least 10 digits
  3. a line whose digits, taken together, number 10 to 15

Every flag of the form --name can also be set with a CALLERID_NAME
environment variable or a "name:" key in the config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := callerid.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.callerid.yaml)")
	flags.StringP("device", "d", "", "Serial device of the modem, e.g. /dev/ttyACM0")
	flags.IntP("baud", "b", defaults.BaudRate, "Baud rate")
	flags.Int("data-bits", defaults.DataBits, "Data bits: 5, 6, 7, 8")
	flags.Int("stop-bits", defaults.StopBits, "Stop bits: 1, 2")
	flags.String("parity", "none", "Parity: none, odd, even, mark, space")
	flags.String("driver", defaults.Driver.String(), "Serial driver: auto, native, portable")
	flags.Duration("read-timeout", defaults.ReadTimeout, "Read timeout, a multiple of 100ms")
	flags.Duration("write-timeout", defaults.WriteTimeout, "Write timeout for the init command")
	flags.String("init-command", escapeControl(defaults.InitCommand), `Command that enables caller-ID, "" to skip (\r and \n are expanded)`)
	flags.Int("max-line-length", defaults.MaxLineLength, "Longest line kept while waiting for a newline, 0 for no limit")
	flags.Duration("idle-delay", defaults.IdleDelay, "Pause after a read that returned nothing")
	flags.Duration("not-connected-backoff", defaults.NotConnectedBackoff, "Pause while no device is connected")
	flags.Duration("read-failure-backoff", defaults.ReadFailureBackoff, "Pause after a failed read")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", logger.FormatConsole, "Log format: console, json, text")

	cobra.CheckErr(viper.BindPFlags(flags))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".callerid" (without extension).
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigName(".callerid")
	}

	viper.SetEnvPrefix("CALLERID")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error: reading config file: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() error {
	level, err := logger.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	l, err := logger.NewSlog(logger.Options{
		Level:  level,
		Format: viper.GetString("log-format"),
	})
	if err != nil {
		return err
	}
	logger.SetDefault(l)
	return nil
}

// loadConfig builds the serial configuration from flags, environment and config file
func loadConfig() (callerid.Config, error) {
	driver, err := callerid.ParseDriver(viper.GetString("driver"))
	if err != nil {
		return callerid.Config{}, err
	}
	parity, err := callerid.ParseParity(viper.GetString("parity"))
	if err != nil {
		return callerid.Config{}, err
	}

	return callerid.NewConfig(
		callerid.WithBaudRate(viper.GetInt("baud")),
		callerid.WithDataBits(viper.GetInt("data-bits")),
		callerid.WithStopBits(viper.GetInt("stop-bits")),
		callerid.WithParity(parity),
		callerid.WithDriver(driver),
		callerid.WithReadTimeout(viper.GetDuration("read-timeout")),
		callerid.WithWriteTimeout(viper.GetDuration("write-timeout")),
		callerid.WithInitCommand(expandControl(viper.GetString("init-command"))),
		callerid.WithMaxLineLength(viper.GetInt("max-line-length")),
		callerid.WithBackoff(
			viper.GetDuration("idle-delay"),
			viper.GetDuration("not-connected-backoff"),
			viper.GetDuration("read-failure-backoff"),
		),
	)
}

// deviceArg prefers a positional device over --device
func deviceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return viper.GetString("device")
}

func requireDevice(args []string) (string, error) {
	device := deviceArg(args)
	if device == "" {
		return "", fmt.Errorf("no device given; pass one as argument or use --device (see 'callerid list')")
	}
	return device, nil
}

var (
	controlExpander = strings.NewReplacer(`\r`, "\r", `\n`, "\n")
	controlEscaper  = strings.NewReplacer("\r", `\r`, "\n", `\n`)
)

func expandControl(s string) string {
	return controlExpander.Replace(s)
}

func escapeControl(s string) string {
	return controlEscaper.Replace(s)
}

// shutdownGrace bounds how long commands wait for the listener on exit
const shutdownGrace = 5 * time.Second
