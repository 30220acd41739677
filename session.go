package callerid

import (
	"context"
	"errors"
	"time"

	"github.com/allbin/go-callerid/logger"
)

// Session ties one Connection, one Listener and one Broker together. It is
// the value an application holds instead of process-wide state.
type Session struct {
	config   Config
	log      logger.Logger
	conn     *Connection
	broker   *Broker
	listener *Listener
}

// Status is a snapshot of a session's state
type Status struct {
	Device    string `json:"device" yaml:"device"`
	Connected bool   `json:"connected" yaml:"connected"`
	Listening bool   `json:"listening" yaml:"listening"`
}

// NewSession creates a disconnected, idle session
func NewSession(config Config, l logger.Logger, opts ...ConnectionOption) *Session {
	if l == nil {
		l = logger.GetLogger()
	}
	config = config.withDefaults()
	conn := NewConnection(config, l.With("component", "connection"), opts...)
	broker := NewBroker(0, l.With("component", "broker"))

	return &Session{
		config:   config,
		log:      l,
		conn:     conn,
		broker:   broker,
		listener: NewListener(conn, broker, config, l.With("component", "listener")),
	}
}

// ListPorts returns the available serial ports
func (s *Session) ListPorts() ([]string, error) {
	return ListPorts()
}

// Connect opens device, replacing any device already open. A failed
// caller-ID enable command is logged and does not fail the connect.
func (s *Session) Connect(device string) error {
	res, err := s.conn.Open(device)
	if err != nil {
		return err
	}

	if res.InitErr != nil {
		s.log.Warn("caller-ID enable command failed", "device", res.Device, "error", res.InitErr)
	} else {
		s.log.Info("connected", "device", res.Device, "baud", s.config.BaudRate)
	}
	return nil
}

// Disconnect closes the open device, if any
func (s *Session) Disconnect() error {
	device := s.conn.Device()
	if err := s.conn.Close(); err != nil {
		return err
	}
	if device != "" {
		s.log.Info("disconnected", "device", device)
	}
	return nil
}

// Start starts listening. The listener runs whether or not a device is
// connected and reports the missing device through the event stream.
func (s *Session) Start() error {
	return s.listener.Start()
}

// Stop asks the listener to stop without waiting for it
func (s *Session) Stop() {
	s.listener.Stop()
}

// Wait blocks until the listener has exited or ctx is done
func (s *Session) Wait(ctx context.Context) error {
	return s.listener.Wait(ctx)
}

// IsListening reports whether the listener is running
func (s *Session) IsListening() bool {
	return s.listener.Listening()
}

// IsConnected reports whether a device is open
func (s *Session) IsConnected() bool {
	return s.conn.IsConnected()
}

// Device returns the open device, or "" if none
func (s *Session) Device() string {
	return s.conn.Device()
}

// Status returns the current device and flags
func (s *Session) Status() Status {
	return Status{
		Device:    s.conn.Device(),
		Connected: s.conn.IsConnected(),
		Listening: s.listener.Listening(),
	}
}

// Subscribe returns a channel receiving every published event and a function
// that unsubscribes it
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.broker.Subscribe()
}

// Broker exposes the session's event broker
func (s *Session) Broker() *Broker {
	return s.broker
}

// Close stops the listener, waits a bounded time for it to exit, closes the
// device and closes every subscriber channel.
func (s *Session) Close() error {
	s.listener.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	var errs []error
	if err := s.listener.Wait(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	s.broker.Close()
	return errors.Join(errs...)
}

// shutdownTimeout is the worst case for a run to notice Stop: one read plus margin
func (s *Session) shutdownTimeout() time.Duration {
	return s.config.ReadTimeout + s.config.WriteTimeout + time.Second
}
