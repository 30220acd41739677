package callerid

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/allbin/go-callerid/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker(4, logger.NewNop())

	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()
	assert.Equal(t, 2, b.Subscribers())

	ev := CallerEvent{PhoneNumber: "5551234567", Timestamp: time.Now().UTC()}
	b.Publish(ev)

	assert.Equal(t, Event(ev), <-ch1)
	assert.Equal(t, Event(ev), <-ch2)
}

func TestBrokerPreservesOrder(t *testing.T) {
	b := NewBroker(16, logger.NewNop())
	ch, cancel := b.Subscribe()
	defer cancel()

	numbers := []string{"0700000001", "0700000002", "0700000003"}
	for _, n := range numbers {
		b.Publish(CallerEvent{PhoneNumber: n})
	}
	for _, n := range numbers {
		ev := <-ch
		assert.Equal(t, n, ev.(CallerEvent).PhoneNumber)
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker(1, logger.NewNop())

	slow, cancelSlow := b.Subscribe()
	defer cancelSlow()

	b.Publish(ErrorNotice{Kind: NoticeNotConnected})
	b.Publish(ErrorNotice{Kind: NoticeReadFailure})

	assert.Equal(t, uint64(1), b.Dropped())
	assert.Equal(t, Event(ErrorNotice{Kind: NoticeNotConnected}), <-slow)
}

func TestBrokerCancel(t *testing.T) {
	b := NewBroker(1, logger.NewNop())

	ch, cancel := b.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, b.Subscribers())

	// publishing with no subscribers is fine
	b.Publish(CallerEvent{PhoneNumber: "5551234567"})
}

func TestBrokerConcurrentCancel(t *testing.T) {
	b := NewBroker(1, logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		_, cancel := b.Subscribe()
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(CallerEvent{PhoneNumber: "5551234567"})
			}
		}()
		go func() {
			defer wg.Done()
			cancel()
		}()
	}
	wg.Wait()
	b.Close()

	assert.Zero(t, b.Subscribers())
}

func TestSinkFunc(t *testing.T) {
	var got []Event
	var sink Sink = SinkFunc(func(ev Event) { got = append(got, ev) })

	sink.Publish(CallerEvent{PhoneNumber: "5551234567"})
	assert.Len(t, got, 1)
}

func TestCallerEventEncoding(t *testing.T) {
	ev := CallerEvent{
		PhoneNumber: "5551234567",
		Timestamp:   time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phoneNumber":"5551234567","timestamp":"2026-10-19T07:30:00Z"}`, string(data))

	out, err := yaml.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(out), "phoneNumber: \"5551234567\"")
}

func TestNoticeKindText(t *testing.T) {
	data, err := json.Marshal(ErrorNotice{Kind: NoticeReadFailure, Message: "input/output error"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"read_failure","message":"input/output error"}`, string(data))

	var notice ErrorNotice
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"not_connected","message":"x"}`), &notice))
	assert.Equal(t, NoticeNotConnected, notice.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"bogus"}`), &notice))
	assert.Equal(t, "unknown", NoticeKind(42).String())
}
