package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEventEncoders(t *testing.T) {
	ts := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	caller := callerid.CallerEvent{PhoneNumber: "5551234567", Timestamp: ts}
	notice := callerid.ErrorNotice{Kind: callerid.NoticeNotConnected, Message: "no serial device connected"}

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		enc, err := newEventEncoder(&out, formatJSON)
		require.NoError(t, err)
		require.NoError(t, enc(caller))
		require.NoError(t, enc(notice))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.JSONEq(t, `{"type":"caller","data":{"phoneNumber":"5551234567","timestamp":"2026-10-19T07:30:00Z"}}`, lines[0])
		assert.JSONEq(t, `{"type":"notice","data":{"kind":"not_connected","message":"no serial device connected"}}`, lines[1])
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		enc, err := newEventEncoder(&out, formatYAML)
		require.NoError(t, err)
		require.NoError(t, enc(caller))
		require.NoError(t, enc(notice))

		dec := yaml.NewDecoder(&out)
		var first, second struct {
			Type string         `yaml:"type"`
			Data map[string]any `yaml:"data"`
		}
		require.NoError(t, dec.Decode(&first))
		require.NoError(t, dec.Decode(&second))
		assert.Equal(t, "caller", first.Type)
		assert.Equal(t, "5551234567", first.Data["phoneNumber"])
		assert.Equal(t, "notice", second.Type)
		assert.Equal(t, "not_connected", second.Data["kind"])
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		enc, err := newEventEncoder(&out, formatText)
		require.NoError(t, err)
		require.NoError(t, enc(caller))
		require.NoError(t, enc(notice))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasSuffix(lines[0], "caller  5551234567"))
		assert.True(t, strings.HasSuffix(lines[1], "notice  not_connected: no serial device connected"))
	})

	_, err := newEventEncoder(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}

func TestPrintEventsStopsAfterCount(t *testing.T) {
	events := make(chan callerid.Event, 4)
	events <- callerid.ErrorNotice{Kind: callerid.NoticeReadFailure}
	events <- callerid.CallerEvent{PhoneNumber: "0700000001"}
	events <- callerid.CallerEvent{PhoneNumber: "0700000002"}
	events <- callerid.CallerEvent{PhoneNumber: "0700000003"}

	var got []callerid.Event
	enc := func(ev callerid.Event) error {
		got = append(got, ev)
		return nil
	}

	require.NoError(t, printEvents(context.Background(), events, enc, false, 2))
	assert.Equal(t, []callerid.Event{
		callerid.CallerEvent{PhoneNumber: "0700000001"},
		callerid.CallerEvent{PhoneNumber: "0700000002"},
	}, got)
}

func TestPrintEventsWithNotices(t *testing.T) {
	events := make(chan callerid.Event, 2)
	events <- callerid.ErrorNotice{Kind: callerid.NoticeReadFailure}
	events <- callerid.CallerEvent{PhoneNumber: "0700000001"}
	close(events)

	var got []callerid.Event
	enc := func(ev callerid.Event) error {
		got = append(got, ev)
		return nil
	}

	require.NoError(t, printEvents(context.Background(), events, enc, true, 0))
	assert.Len(t, got, 2)
}

func TestPrintEventsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := printEvents(ctx, make(chan callerid.Event), func(callerid.Event) error { return nil }, false, 0)
	assert.NoError(t, err)
}

func TestPrintEventsEncoderError(t *testing.T) {
	events := make(chan callerid.Event, 1)
	events <- callerid.CallerEvent{PhoneNumber: "0700000001"}

	err := printEvents(context.Background(), events, func(callerid.Event) error { return assert.AnError }, false, 0)
	assert.ErrorIs(t, err, assert.AnError)
}
