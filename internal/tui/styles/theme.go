package styles

import (
	"github.com/allbin/go-callerid/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Call log styles
	CallKindStyle = lipgloss.NewStyle().
			Foreground(colors.Green)

	CallerNumberStyle = lipgloss.NewStyle().
				Foreground(colors.Peach).
				Bold(true)

	NoticeKindStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay1).
			Italic(true)

	// Help box
	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(1, 2).
			Margin(1, 0)
)
