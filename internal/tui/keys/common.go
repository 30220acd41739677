package keys

import "github.com/charmbracelet/bubbles/key"

// Common key bindings used across TUI commands
type CommonKeys struct {
	Quit key.Binding
	Help key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ListenKeys are the bindings of the caller-ID monitor
type ListenKeys struct {
	CommonKeys
	ToggleListen key.Binding
	Reconnect    key.Binding
	Disconnect   key.Binding
	ResetUSB     key.Binding
	Clear        key.Binding
	Up           key.Binding
	Down         key.Binding
}

func NewListenKeys() ListenKeys {
	return ListenKeys{
		CommonKeys: NewCommonKeys(),
		ToggleListen: key.NewBinding(
			key.WithKeys("s", " "),
			key.WithHelp("s/space", "start/stop listening"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "disconnect"),
		),
		ResetUSB: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "USB reset + reconnect"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear call log"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

func (k ListenKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ToggleListen, k.Reconnect, k.Quit}
}

func (k ListenKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleListen, k.Reconnect, k.Disconnect, k.ResetUSB},
		{k.Up, k.Down, k.Clear},
		{k.Help, k.Quit},
	}
}
