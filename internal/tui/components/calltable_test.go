package components

import (
	"fmt"
	"testing"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFromEvent(t *testing.T) {
	ts := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	received := ts.Add(time.Second)

	e, ok := EntryFromEvent(callerid.CallerEvent{PhoneNumber: "5551234567", Timestamp: ts}, received)
	require.True(t, ok)
	assert.Equal(t, Entry{Time: ts, Caller: true, Detail: "5551234567"}, e)

	e, ok = EntryFromEvent(callerid.ErrorNotice{Kind: callerid.NoticeReadFailure, Message: "input/output error"}, received)
	require.True(t, ok)
	assert.Equal(t, Entry{Time: received, Detail: "read_failure: input/output error"}, e)

	_, ok = EntryFromEvent(nil, received)
	assert.False(t, ok)
}

func TestCallTableKeepsNewestEntries(t *testing.T) {
	ct := NewCallTable(80, 20)
	ct.maxEntries = 3

	for i := range 5 {
		ct.Add(Entry{Time: time.Now(), Caller: true, Detail: fmt.Sprintf("070000000%d", i)})
	}

	require.Len(t, ct.Entries(), 3)
	assert.Equal(t, "0700000002", ct.Entries()[0].Detail)
	assert.Equal(t, 5, ct.Calls())

	last, ok := ct.LastCaller()
	require.True(t, ok)
	assert.Equal(t, "0700000004", last.Detail)
}

func TestCallTableView(t *testing.T) {
	ct := NewCallTable(80, 20)
	assert.Contains(t, ct.View(), "Waiting for calls")

	ct.Add(Entry{Time: time.Now(), Caller: true, Detail: "5551234567"})
	assert.Contains(t, ct.View(), "5551234567")

	ct.Clear()
	_, ok := ct.LastCaller()
	assert.False(t, ok)
	assert.Zero(t, ct.Calls())
}

func TestModeText(t *testing.T) {
	tests := []struct {
		status callerid.Status
		want   string
	}{
		{callerid.Status{Connected: true, Listening: true}, "LISTENING"},
		{callerid.Status{Listening: true}, "WAITING"},
		{callerid.Status{Connected: true}, "IDLE"},
		{callerid.Status{}, "OFFLINE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModeText(tt.status))
	}
}

func TestStatusBarRender(t *testing.T) {
	sb := NewStatusBar("/dev/ttyACM0")
	sb.SetWidth(160)
	sb.SetConnectionInfo(NewConnectionInfo(callerid.DefaultConfig()))
	sb.SetMessage("Listening", nil)

	out := sb.Render(callerid.Status{Device: "/dev/ttyACM0", Connected: true, Listening: true}, 3, "07:30:00")
	assert.Contains(t, out, "LISTENING")
	assert.Contains(t, out, "/dev/ttyACM0")
	assert.Contains(t, out, "9600 baud 8N1 auto")
	assert.Contains(t, out, "3 calls")
}
