package callerid

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allbin/go-callerid/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// Event is published by the listener: either a CallerEvent or an ErrorNotice
type Event interface {
	isEvent()
}

// CallerEvent reports a phone number detected on the line
type CallerEvent struct {
	PhoneNumber string    `json:"phoneNumber" yaml:"phoneNumber"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

func (CallerEvent) isEvent() {}

// NoticeKind classifies a recoverable listener fault
type NoticeKind int

const (
	NoticeNotConnected NoticeKind = iota
	NoticeReadFailure
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeNotConnected:
		return "not_connected"
	case NoticeReadFailure:
		return "read_failure"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name in JSON and YAML
func (k NoticeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (k *NoticeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "not_connected":
		*k = NoticeNotConnected
	case "read_failure":
		*k = NoticeReadFailure
	default:
		return fmt.Errorf("unknown notice kind %q", text)
	}
	return nil
}

// ErrorNotice is an advisory about a fault the listener recovered from
type ErrorNotice struct {
	Kind    NoticeKind `json:"kind" yaml:"kind"`
	Message string     `json:"message" yaml:"message"`
}

func (ErrorNotice) isEvent() {}

// Sink receives listener output. Publish must not block for long; it runs on
// the listener goroutine.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

const defaultSubscriberBuffer = 64

// Broker fans events out to any number of subscribers. Each subscriber has
// its own buffered channel; when it is full the event is dropped for that
// subscriber only.
type Broker struct {
	subs    *xsync.MapOf[uint64, *subscriber]
	nextID  atomic.Uint64
	buffer  int
	dropped atomic.Uint64
	log     logger.Logger
}

var _ Sink = (*Broker)(nil)

// subscriber guards its channel so a concurrent cancel never races a send
type subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *subscriber) offer(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// NewBroker creates a broker whose subscriber channels hold buffer events
func NewBroker(buffer int, l logger.Logger) *Broker {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if l == nil {
		l = logger.GetLogger()
	}
	return &Broker{
		subs:   xsync.NewMapOf[uint64, *subscriber](),
		buffer: buffer,
		log:    l,
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	id := b.nextID.Add(1)
	sub := &subscriber{ch: make(chan Event, b.buffer)}
	b.subs.Store(id, sub)

	cancel := func() {
		if s, ok := b.subs.LoadAndDelete(id); ok {
			s.close()
		}
	}
	return sub.ch, cancel
}

// Publish delivers ev to every subscriber without blocking
func (b *Broker) Publish(ev Event) {
	b.subs.Range(func(id uint64, sub *subscriber) bool {
		if !sub.offer(ev) {
			b.dropped.Add(1)
			b.log.Warn("subscriber buffer full, dropping event", "subscriber", id)
		}
		return true
	})
}

// Subscribers returns the number of registered subscribers
func (b *Broker) Subscribers() int {
	return b.subs.Size()
}

// Dropped returns the number of deliveries skipped because a subscriber was full
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// Close unregisters every subscriber and closes their channels
func (b *Broker) Close() {
	b.subs.Range(func(id uint64, _ *subscriber) bool {
		if s, ok := b.subs.LoadAndDelete(id); ok {
			s.close()
		}
		return true
	})
}
