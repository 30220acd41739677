package models

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/allbin/go-callerid"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu        sync.Mutex
	calls     []string
	status    callerid.Status
	connErr   error
	startErr  error
	events    chan callerid.Event
	cancelled bool
}

func newFakeController() *fakeController {
	return &fakeController{events: make(chan callerid.Event, 8)}
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Connect(device string) error {
	f.record("connect " + device)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connErr != nil {
		return f.connErr
	}
	f.status.Device = device
	f.status.Connected = true
	return nil
}

func (f *fakeController) Disconnect() error {
	f.record("disconnect")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Device = ""
	f.status.Connected = false
	return nil
}

func (f *fakeController) Start() error {
	f.record("start")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.status.Listening = true
	return nil
}

func (f *fakeController) Stop() {
	f.record("stop")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Listening = false
}

func (f *fakeController) Status() callerid.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) Subscribe() (<-chan callerid.Event, func()) {
	return f.events, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled = true
	}
}

func (f *fakeController) history() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestModel(t *testing.T, ctrl *fakeController, opts ...ListenOption) *ListenModel {
	t.Helper()
	m := NewListenModel(ctrl, "/dev/ttyACM0", callerid.DefaultConfig(), opts...)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// runAction executes cmd and feeds its result back into the model
func runAction(t *testing.T, m *ListenModel, cmd tea.Cmd) ActionMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(ActionMsg)
	require.True(t, ok)
	m.Update(msg)
	return msg
}

func TestConnectStartsListening(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	msg := runAction(t, m, m.connectCmd("connect"))
	require.NoError(t, msg.Err)

	assert.Equal(t, []string{"connect /dev/ttyACM0", "start"}, ctrl.history())
	assert.True(t, m.status.Listening)
	assert.True(t, m.status.Connected)
	assert.Equal(t, "Connected - waiting for calls...", m.StatusBar().Message())
	assert.Contains(t, m.View(), "LISTENING")
}

func TestConnectFailureShownInStatusBar(t *testing.T) {
	ctrl := newFakeController()
	ctrl.connErr = callerid.ErrConnection
	m := newTestModel(t, ctrl)

	msg := runAction(t, m, m.connectCmd("connect"))
	assert.ErrorIs(t, msg.Err, callerid.ErrConnection)
	assert.ErrorIs(t, m.StatusBar().Err(), callerid.ErrConnection)
	assert.Equal(t, []string{"connect /dev/ttyACM0"}, ctrl.history())
}

func TestConnectToleratesRunningListener(t *testing.T) {
	ctrl := newFakeController()
	ctrl.startErr = callerid.ErrAlreadyListening
	m := newTestModel(t, ctrl)

	msg := runAction(t, m, m.connectCmd("reconnect"))
	assert.NoError(t, msg.Err)
	assert.Equal(t, "Reconnected", m.StatusBar().Message())
}

func TestCallerEventAddsEntry(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	ts := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	_, cmd := m.Update(EventMsg{
		Event:    callerid.CallerEvent{PhoneNumber: "0701234567", Timestamp: ts},
		Received: ts,
	})
	assert.NotNil(t, cmd, "keeps waiting for events")

	_, _ = m.Update(EventMsg{
		Event:    callerid.ErrorNotice{Kind: callerid.NoticeNotConnected, Message: "no serial device connected"},
		Received: ts,
	})

	assert.Equal(t, 1, m.Calls().Calls())
	require.Len(t, m.Calls().Entries(), 2)

	last, ok := m.Calls().LastCaller()
	require.True(t, ok)
	assert.Equal(t, "0701234567", last.Detail)
	assert.Equal(t, "Incoming call: 0701234567", m.StatusBar().Message())
}

func TestWaitForEvent(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	ctrl.events <- callerid.CallerEvent{PhoneNumber: "5551234567"}
	msg := m.waitForEvent()()
	ev, ok := msg.(EventMsg)
	require.True(t, ok)
	assert.Equal(t, callerid.Event(callerid.CallerEvent{PhoneNumber: "5551234567"}), ev.Event)

	close(ctrl.events)
	assert.IsType(t, eventsClosedMsg{}, m.waitForEvent()())
}

func TestToggleListen(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)
	runAction(t, m, m.connectCmd("connect"))

	_, cmd := m.Update(keyMsg('s'))
	runAction(t, m, cmd)
	assert.False(t, m.status.Listening)
	assert.Equal(t, "Stopped", m.StatusBar().Message())

	_, cmd = m.Update(keyMsg('s'))
	runAction(t, m, cmd)
	assert.True(t, m.status.Listening)
	assert.Equal(t, []string{"connect /dev/ttyACM0", "start", "stop", "start"}, ctrl.history())
}

func TestActionsDoNotOverlap(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	_, first := m.Update(keyMsg('r'))
	require.NotNil(t, first)

	_, second := m.Update(keyMsg('d'))
	assert.Nil(t, second, "ignored while reconnect is in flight")

	runAction(t, m, first)
	_, second = m.Update(keyMsg('d'))
	runAction(t, m, second)
	assert.False(t, m.status.Connected)
}

func TestResetWithoutResetFunc(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	_, cmd := m.Update(keyMsg('R'))
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.StatusBar().Err(), callerid.ErrUSBResetNotAvailable)
	assert.Empty(t, ctrl.history())
}

func TestResetReconnects(t *testing.T) {
	ctrl := newFakeController()
	var resetDevice string
	m := newTestModel(t, ctrl, WithReset(func(ctx context.Context, device string) error {
		resetDevice = device
		return nil
	}))

	_, cmd := m.Update(keyMsg('R'))
	msg := runAction(t, m, cmd)
	require.NoError(t, msg.Err)

	assert.Equal(t, "/dev/ttyACM0", resetDevice)
	assert.Equal(t, []string{"disconnect", "connect /dev/ttyACM0", "start"}, ctrl.history())
	assert.Equal(t, "USB device reset and reconnected", m.StatusBar().Message())
}

func TestResetFailureLeavesDisconnected(t *testing.T) {
	ctrl := newFakeController()
	resetErr := errors.New("usbreset: permission denied")
	m := newTestModel(t, ctrl, WithReset(func(ctx context.Context, device string) error {
		return resetErr
	}))

	_, cmd := m.Update(keyMsg('R'))
	msg := runAction(t, m, cmd)
	assert.ErrorIs(t, msg.Err, resetErr)
	assert.Equal(t, []string{"disconnect"}, ctrl.history())
	assert.False(t, m.status.Connected)
}

func TestClearAndHideNotices(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl, WithNotices(false))

	m.Update(EventMsg{Event: callerid.ErrorNotice{Kind: callerid.NoticeReadFailure}, Received: time.Now()})
	m.Update(EventMsg{Event: callerid.CallerEvent{PhoneNumber: "5551234567", Timestamp: time.Now()}})
	assert.Len(t, m.Calls().Entries(), 2)

	m.Update(keyMsg('c'))
	assert.Empty(t, m.Calls().Entries())
	assert.Zero(t, m.Calls().Calls())
}

func TestQuitUnsubscribes(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl)

	_, cmd := m.Update(keyMsg('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	assert.True(t, ctrl.cancelled)
}
