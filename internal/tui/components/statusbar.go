package components

import (
	"fmt"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is the line configuration shown on the right of the bar
type ConnectionInfo struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   callerid.Parity
	Driver   callerid.Driver
}

func NewConnectionInfo(config callerid.Config) *ConnectionInfo {
	return &ConnectionInfo{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: config.StopBits,
		Parity:   config.Parity,
		Driver:   config.Driver,
	}
}

type StatusBar struct {
	portPath       string
	message        string
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(portPath string) *StatusBar {
	return &StatusBar{
		portPath: portPath,
		message:  "Initializing...",
	}
}

func (sb *StatusBar) SetMessage(message string, err error) {
	sb.message = message
	sb.err = err
}

func (sb *StatusBar) Message() string {
	return sb.message
}

func (sb *StatusBar) Err() error {
	return sb.err
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetPortPath(path string) {
	sb.portPath = path
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func parityToString(p callerid.Parity) string {
	switch p {
	case callerid.ParityEven:
		return "E"
	case callerid.ParityOdd:
		return "O"
	case callerid.ParityMark:
		return "M"
	case callerid.ParitySpace:
		return "S"
	default:
		return "N"
	}
}

// ModeText names the listener state the way the first section shows it
func ModeText(status callerid.Status) string {
	switch {
	case status.Listening && status.Connected:
		return "LISTENING"
	case status.Listening:
		return "WAITING"
	case status.Connected:
		return "IDLE"
	default:
		return "OFFLINE"
	}
}

// Render draws the bar across the full terminal width
func (sb *StatusBar) Render(status callerid.Status, calls int, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Section 1: listener mode
	modeBackground := colors.Red
	switch ModeText(status) {
	case "LISTENING":
		modeBackground = colors.Green
	case "WAITING", "IDLE":
		modeBackground = colors.Yellow
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeBackground).
		Bold(true).
		Padding(0, 1).
		Render(ModeText(status))

	// Section 2: port path
	portPath := sb.portPath
	if status.Device != "" {
		portPath = status.Device
	}
	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(portPath)

	// Section 3: connection indicator
	connStyle := lipgloss.NewStyle().Foreground(colors.Red)
	connIndicator := "○"
	switch {
	case sb.err != nil:
		connIndicator = "✗"
	case status.Connected:
		connStyle = lipgloss.NewStyle().Foreground(colors.Green)
		connIndicator = "●"
	}
	connectionIndicator := connStyle.Render(connIndicator)

	// Section 4: last message
	messageStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1)
	if sb.err != nil {
		messageStyle = messageStyle.Foreground(colors.Red)
	}
	message := messageStyle.Render(sb.message)

	// Section 5: line settings and call count
	connInfo := "☎ serial"
	if sb.connectionInfo != nil {
		connInfo = fmt.Sprintf("☎ %d baud %d%s%d %s",
			sb.connectionInfo.BaudRate,
			sb.connectionInfo.DataBits,
			parityToString(sb.connectionInfo.Parity),
			sb.connectionInfo.StopBits,
			sb.connectionInfo.Driver)
	}
	connectionDetails := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(connInfo)

	callCount := lipgloss.NewStyle().
		Foreground(colors.Peach).
		Padding(0, 1).
		Render(fmt.Sprintf("%d calls", calls))

	// Section 6: clock
	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, connectionIndicator, divider, message)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, connectionDetails, divider, callCount, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	statusBarStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth)

	content := lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide)
	return statusBarStyle.Render(content)
}
