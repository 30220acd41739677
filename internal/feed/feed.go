// Package feed serves listener events to websocket clients and session
// status over plain HTTP.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/logger"
	"nhooyr.io/websocket"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

// Message types on the wire
const (
	TypeCaller = "caller"
	TypeNotice = "notice"
)

// Source is what the server needs from a session
type Source interface {
	Subscribe() (<-chan callerid.Event, func())
	Status() callerid.Status
}

// Envelope wraps every event sent to a client
type Envelope struct {
	Type string `json:"type" yaml:"type"`
	Data any    `json:"data" yaml:"data"`
}

// Wrap puts ev in its envelope
func Wrap(ev callerid.Event) (Envelope, error) {
	switch ev := ev.(type) {
	case callerid.CallerEvent:
		return Envelope{Type: TypeCaller, Data: ev}, nil
	case callerid.ErrorNotice:
		return Envelope{Type: TypeNotice, Data: ev}, nil
	default:
		return Envelope{}, fmt.Errorf("unknown event type %T", ev)
	}
}

// Encode renders ev as a single JSON message
func Encode(ev callerid.Event) ([]byte, error) {
	env, err := Wrap(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Server fans events out to websocket clients
type Server struct {
	src            Source
	log            logger.Logger
	originPatterns []string
	pingInterval   time.Duration
	writeTimeout   time.Duration
	notices        bool

	clients atomic.Int64
}

// Option customises a Server
type Option func(*Server)

// WithOriginPatterns sets the origins allowed to open a websocket
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.originPatterns = patterns
	}
}

// WithPingInterval sets how often idle clients are pinged
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		s.pingInterval = d
	}
}

// WithNotices controls whether error notices are forwarded; callers always are
func WithNotices(enabled bool) Option {
	return func(s *Server) {
		s.notices = enabled
	}
}

// New creates a server reading from src
func New(src Source, l logger.Logger, opts ...Option) *Server {
	if l == nil {
		l = logger.GetLogger()
	}
	s := &Server{
		src:          src,
		log:          l,
		pingInterval: defaultPingInterval,
		writeTimeout: defaultWriteTimeout,
		notices:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes /events to the websocket feed and /status to the status endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.HandleEvents)
	mux.HandleFunc("GET /status", s.HandleStatus)
	return mux
}

// Clients returns the number of connected websocket clients
func (s *Server) Clients() int {
	return int(s.clients.Load())
}

// HandleStatus writes the session status as JSON
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.src.Status()); err != nil {
		s.log.Warn("writing status failed", "error", err)
	}
}

// HandleEvents upgrades the request and streams events until the client
// goes away or the session closes its subscription
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	events, cancel := s.src.Subscribe()
	defer cancel()

	n := s.clients.Add(1)
	defer s.clients.Add(-1)
	s.log.Info("client connected", "remote", r.RemoteAddr, "clients", n)

	// Clients only listen; CloseRead handles control frames and cancels
	// ctx when the client disconnects
	ctx := conn.CloseRead(r.Context())

	err = s.writePump(ctx, conn, events)
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		err = nil
	}
	if err != nil && ctx.Err() == nil {
		s.log.Debug("client write failed", "remote", r.RemoteAddr, "error", err)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	s.log.Info("client disconnected", "remote", r.RemoteAddr, "clients", s.clients.Load()-1)
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, events <-chan callerid.Event) error {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := s.ping(ctx, conn); err != nil {
				return err
			}

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, isNotice := ev.(callerid.ErrorNotice); isNotice && !s.notices {
				continue
			}

			data, err := Encode(ev)
			if err != nil {
				s.log.Error("encoding event failed", "error", err)
				continue
			}
			if err := s.write(ctx, conn, data); err != nil {
				return err
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, data)
}

func (s *Server) ping(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	return conn.Ping(ctx)
}
