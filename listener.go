package callerid

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allbin/go-callerid/logger"
)

// Source is where the listener pulls bytes from. *Connection implements it.
type Source interface {
	// ReadInto returns 0, nil on a read timeout and ErrNotConnected when
	// there is no device to read from.
	ReadInto(buf []byte) (int, error)
}

// Listener drives the read, reassemble, parse and publish cycle on its own
// goroutine. At most one run is active at a time.
type Listener struct {
	source Source
	sink   Sink
	config Config
	log    logger.Logger
	now    func() time.Time

	listening atomic.Bool

	// startMu serialises Start; mu guards the current run's cancel and done
	startMu sync.Mutex
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewListener creates an idle listener reading from source and publishing to sink
func NewListener(source Source, sink Sink, config Config, l logger.Logger) *Listener {
	if l == nil {
		l = logger.GetLogger()
	}
	return &Listener{
		source: source,
		sink:   sink,
		config: config.withDefaults(),
		log:    l,
		now:    time.Now,
	}
}

// Start launches the loop and returns immediately. It fails with
// ErrAlreadyListening while a run is active. A previous run that was stopped
// but has not yet finished its last pass is waited for first.
func (l *Listener) Start() error {
	l.startMu.Lock()
	defer l.startMu.Unlock()

	if !l.listening.CompareAndSwap(false, true) {
		return ErrAlreadyListening
	}

	l.mu.Lock()
	prev := l.done
	l.mu.Unlock()
	if prev != nil {
		<-prev
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	l.log.Debug("listener starting")
	go l.run(ctx, cancel, done)
	return nil
}

// Stop clears the listening flag and cancels the current run. It does not
// wait for the loop to exit; use Wait for that.
func (l *Listener) Stop() {
	l.listening.Store(false)

	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Listening reports the listening flag. It says nothing about whether a
// device is connected.
func (l *Listener) Listening() bool {
	return l.listening.Load()
}

// Wait blocks until the current run has exited or ctx is done.
// It returns nil immediately if the listener was never started.
func (l *Listener) Wait(ctx context.Context) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Listener) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("listener panicked, stopping", "panic", r)
			// A cancelled run no longer owns the flag
			if ctx.Err() == nil {
				l.listening.Store(false)
			}
		}
	}()

	buf := make([]byte, l.config.ReadBufferSize)
	lines := NewLineBuffer(l.config.MaxLineLength)

	for l.listening.Load() && ctx.Err() == nil {
		if delay := l.pass(buf, lines); delay > 0 {
			sleepContext(ctx, delay)
		}
	}
	l.log.Debug("listener stopped")
}

// pass performs one read and handles its outcome. It returns how long to
// wait before the next read.
func (l *Listener) pass(buf []byte, lines *LineBuffer) time.Duration {
	n, err := l.source.ReadInto(buf)
	switch {
	case errors.Is(err, ErrNotConnected):
		// A partial line cannot be completed by a different connection
		lines.Reset()
		l.sink.Publish(ErrorNotice{Kind: NoticeNotConnected, Message: err.Error()})
		return l.config.NotConnectedBackoff
	case err != nil:
		l.log.Debug("read failed", "error", err)
		l.sink.Publish(ErrorNotice{Kind: NoticeReadFailure, Message: err.Error()})
		return l.config.ReadFailureBackoff
	case n == 0:
		return l.config.IdleDelay
	}

	dropped := lines.Dropped()
	for line := range lines.Feed(buf[:n]) {
		number, ok := ParseLine(line)
		if !ok {
			l.log.Debug("no caller id in line", "line", line)
			continue
		}
		l.log.Info("caller detected", "number", number)
		l.sink.Publish(CallerEvent{PhoneNumber: number, Timestamp: l.now().UTC()})
	}
	if d := lines.Dropped() - dropped; d > 0 {
		l.log.Warn("discarded overlong lines", "count", d, "limit", l.config.MaxLineLength)
	}
	return 0
}

// sleepContext sleeps for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
