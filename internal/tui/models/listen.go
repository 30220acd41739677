package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/internal/tui/components"
	"github.com/allbin/go-callerid/internal/tui/keys"
	"github.com/allbin/go-callerid/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	resetTimeout = 30 * time.Second
	tickInterval = time.Second
)

// Controller is the part of a session the monitor drives
type Controller interface {
	Connect(device string) error
	Disconnect() error
	Start() error
	Stop()
	Status() callerid.Status
	Subscribe() (<-chan callerid.Event, func())
}

// ResetFunc power cycles the USB device behind a port
type ResetFunc func(ctx context.Context, device string) error

// EventMsg carries one listener event into the program
type EventMsg struct {
	Event    callerid.Event
	Received time.Time
}

// ActionMsg reports the outcome of a connect, disconnect or reset
type ActionMsg struct {
	Action string
	Err    error
}

type eventsClosedMsg struct{}

type tickMsg time.Time

// ListenModel is the caller-ID monitor
type ListenModel struct {
	ctrl        Controller
	device      string
	reset       ResetFunc
	events      <-chan callerid.Event
	unsubscribe func()

	calls     *components.CallTable
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.ListenKeys

	status callerid.Status
	busy   bool
	ready  bool
	now    func() time.Time
}

type ListenOption func(*ListenModel)

// WithReset enables the USB reset key
func WithReset(fn ResetFunc) ListenOption {
	return func(m *ListenModel) {
		m.reset = fn
	}
}

// WithNotices controls whether notices are listed in the call log
func WithNotices(show bool) ListenOption {
	return func(m *ListenModel) {
		m.calls.SetShowNotices(show)
	}
}

// NewListenModel subscribes to ctrl right away so that no event published
// after construction is missed
func NewListenModel(ctrl Controller, device string, config callerid.Config, opts ...ListenOption) *ListenModel {
	events, unsubscribe := ctrl.Subscribe()

	m := &ListenModel{
		ctrl:        ctrl,
		device:      device,
		events:      events,
		unsubscribe: unsubscribe,
		calls:       components.NewCallTable(80, 20),
		statusBar:   components.NewStatusBar(device),
		help:        help.New(),
		keys:        keys.NewListenKeys(),
		status:      ctrl.Status(),
		now:         time.Now,
	}
	m.statusBar.SetConnectionInfo(components.NewConnectionInfo(config))
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ListenModel) Init() tea.Cmd {
	m.busy = true
	m.statusBar.SetMessage("Connecting...", nil)
	return tea.Batch(m.waitForEvent(), m.connectCmd("connect"), tick())
}

func (m *ListenModel) Calls() *components.CallTable {
	return m.calls
}

func (m *ListenModel) StatusBar() *components.StatusBar {
	return m.statusBar
}

// Close releases the event subscription
func (m *ListenModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *ListenModel) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: ev, Received: time.Now()}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// connectCmd opens the device and starts listening. With no device the
// listener still runs and reports that nothing is connected.
func (m *ListenModel) connectCmd(action string) tea.Cmd {
	ctrl, device := m.ctrl, m.device
	return func() tea.Msg {
		if device != "" {
			if err := ctrl.Connect(device); err != nil {
				return ActionMsg{Action: action, Err: err}
			}
		}
		if err := ctrl.Start(); err != nil && !errors.Is(err, callerid.ErrAlreadyListening) {
			return ActionMsg{Action: action, Err: err}
		}
		return ActionMsg{Action: action}
	}
}

func (m *ListenModel) disconnectCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return ActionMsg{Action: "disconnect", Err: ctrl.Disconnect()}
	}
}

func (m *ListenModel) toggleCmd() tea.Cmd {
	ctrl := m.ctrl
	if m.status.Listening {
		return func() tea.Msg {
			ctrl.Stop()
			return ActionMsg{Action: "stop"}
		}
	}
	return func() tea.Msg {
		return ActionMsg{Action: "start", Err: ctrl.Start()}
	}
}

func (m *ListenModel) resetCmd() tea.Cmd {
	ctrl, device, reset := m.ctrl, m.device, m.reset
	return func() tea.Msg {
		if err := ctrl.Disconnect(); err != nil {
			return ActionMsg{Action: "reset", Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()
		if err := reset(ctx, device); err != nil {
			return ActionMsg{Action: "reset", Err: err}
		}

		if err := ctrl.Connect(device); err != nil {
			return ActionMsg{Action: "reset", Err: err}
		}
		if err := ctrl.Start(); err != nil && !errors.Is(err, callerid.ErrAlreadyListening) {
			return ActionMsg{Action: "reset", Err: err}
		}
		return ActionMsg{Action: "reset"}
	}
}

func actionDoneMessage(action string) string {
	switch action {
	case "connect":
		return "Connected - waiting for calls..."
	case "reconnect":
		return "Reconnected"
	case "disconnect":
		return "Disconnected"
	case "start":
		return "Listening"
	case "stop":
		return "Stopped"
	case "reset":
		return "USB device reset and reconnected"
	default:
		return action
	}
}

func (m *ListenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// border, status bar and short help
		m.calls.SetSize(msg.Width, msg.Height-3)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.ready = true

	case tickMsg:
		m.status = m.ctrl.Status()
		return m, tick()

	case ActionMsg:
		m.busy = false
		m.status = m.ctrl.Status()
		if msg.Err != nil {
			m.statusBar.SetMessage(fmt.Sprintf("%s failed: %v", msg.Action, msg.Err), msg.Err)
		} else {
			m.statusBar.SetMessage(actionDoneMessage(msg.Action), nil)
		}

	case EventMsg:
		if entry, ok := components.EntryFromEvent(msg.Event, msg.Received); ok {
			m.calls.Add(entry)
			if entry.Caller {
				m.statusBar.SetMessage("Incoming call: "+entry.Detail, nil)
			}
		}
		m.status = m.ctrl.Status()
		return m, m.waitForEvent()

	case eventsClosedMsg:
		m.statusBar.SetMessage("Event stream closed", nil)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Clear):
			m.calls.Clear()

		case key.Matches(msg, m.keys.ToggleListen):
			return m, m.action(m.toggleCmd())

		case key.Matches(msg, m.keys.Reconnect):
			if m.device == "" {
				m.statusBar.SetMessage("No device to reconnect", nil)
				return m, nil
			}
			m.statusBar.SetMessage("Reconnecting...", nil)
			return m, m.action(m.connectCmd("reconnect"))

		case key.Matches(msg, m.keys.Disconnect):
			return m, m.action(m.disconnectCmd())

		case key.Matches(msg, m.keys.ResetUSB):
			if m.reset == nil || m.device == "" {
				m.statusBar.SetMessage("USB reset not available", callerid.ErrUSBResetNotAvailable)
				return m, nil
			}
			m.statusBar.SetMessage("Resetting USB device...", nil)
			return m, m.action(m.resetCmd())

		default:
			return m, m.calls.Update(msg)
		}
	}

	return m, nil
}

// action runs cmd unless another action is still in flight
func (m *ListenModel) action(cmd tea.Cmd) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	return cmd
}

func (m *ListenModel) View() string {
	content := "Initializing..."
	if m.ready {
		content = m.calls.View()
	}
	contentWithBorder := styles.ContentBorderStyle.Render(content)

	statusBar := m.statusBar.Render(m.status, m.calls.Calls(), m.now().Format(time.TimeOnly))

	if m.help.ShowAll {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			contentWithBorder,
			styles.HelpStyle.Render(m.help.View(m.keys)),
			statusBar,
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		statusBar,
		m.help.View(m.keys),
	)
}
