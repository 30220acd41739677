/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/internal/feed"
	"github.com/allbin/go-callerid/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [port]",
	Short: "Publish incoming calls over a websocket",
	Long: `Connect to the modem and publish every event to websocket clients.

Endpoints:
  GET /events  websocket, one JSON message per event:
               {"type":"caller","data":{"phoneNumber":"...","timestamp":"..."}}
               {"type":"notice","data":{"kind":"not_connected","message":"..."}}
  GET /status  JSON snapshot: {"device":"...","connected":true,"listening":true}

The server keeps running when the modem cannot be opened; clients then
receive not_connected notices until it is restarted.

Examples:
  callerid serve /dev/ttyACM0
  callerid serve --addr 127.0.0.1:9000 --origin app.example.com`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runServe(ctx, deviceArg(args), config); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringSlice("origin", nil, "Origins allowed to open a websocket, e.g. app.example.com")
	serveCmd.Flags().Bool("notices", true, "Forward connection and read notices to clients")
	serveCmd.Flags().Duration("ping-interval", 30*time.Second, "How often idle clients are pinged")

	cobra.CheckErr(viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr")))
	cobra.CheckErr(viper.BindPFlag("serve.origin", serveCmd.Flags().Lookup("origin")))
	cobra.CheckErr(viper.BindPFlag("serve.notices", serveCmd.Flags().Lookup("notices")))
	cobra.CheckErr(viper.BindPFlag("serve.ping-interval", serveCmd.Flags().Lookup("ping-interval")))
}

func runServe(ctx context.Context, device string, config callerid.Config) error {
	log := logger.GetLogger()

	session := callerid.NewSession(config, log)
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("closing session failed", "error", err)
		}
	}()

	if device != "" {
		if err := session.Connect(device); err != nil {
			log.Error("connecting to modem failed", "device", device, "error", err)
		}
	} else {
		log.Warn("no device given, serving without a modem")
	}
	if err := session.Start(); err != nil {
		return err
	}

	server := feed.New(session, log.With("component", "feed"),
		feed.WithOriginPatterns(viper.GetStringSlice("serve.origin")...),
		feed.WithNotices(viper.GetBool("serve.notices")),
		feed.WithPingInterval(viper.GetDuration("serve.ping-interval")),
	)

	ln, err := net.Listen("tcp", viper.GetString("serve.addr"))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving events", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; closing
	// the session ends their subscriptions and so their write pumps
	session.Stop()
	session.Broker().Close()
	return httpServer.Shutdown(shutdownCtx)
}
