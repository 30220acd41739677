package components

import (
	"time"

	"github.com/allbin/go-callerid"
	"github.com/allbin/go-callerid/internal/tui/colors"
	"github.com/allbin/go-callerid/internal/tui/styles"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyTime   = "time"
	columnKeyKind   = "kind"
	columnKeyDetail = "detail"

	defaultMaxEntries = 500
)

// Entry is one line of the call log
type Entry struct {
	Time   time.Time
	Caller bool
	Detail string
}

// EntryFromEvent converts a listener event into a log entry. Notices carry
// no timestamp of their own, so received is used.
func EntryFromEvent(ev callerid.Event, received time.Time) (Entry, bool) {
	switch ev := ev.(type) {
	case callerid.CallerEvent:
		return Entry{Time: ev.Timestamp, Caller: true, Detail: ev.PhoneNumber}, true
	case callerid.ErrorNotice:
		return Entry{Time: received, Detail: ev.Kind.String() + ": " + ev.Message}, true
	default:
		return Entry{}, false
	}
}

// CallTable shows the newest entries first
type CallTable struct {
	table      table.Model
	entries    []Entry
	maxEntries int
	calls      int
	width      int
	height     int
	notices    bool
}

func NewCallTable(width, height int) *CallTable {
	ct := &CallTable{
		maxEntries: defaultMaxEntries,
		notices:    true,
	}
	ct.table = table.New([]table.Column{
		table.NewColumn(columnKeyTime, "Time", 10),
		table.NewColumn(columnKeyKind, "Kind", 8),
		table.NewFlexColumn(columnKeyDetail, "Number / Message", 1),
	}).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(colors.Text).
			BorderForeground(colors.Surface1).
			Align(lipgloss.Left)).
		HeaderStyle(lipgloss.NewStyle().
			Foreground(colors.Mauve).
			Bold(true)).
		Focused(true)
	ct.SetSize(width, height)
	return ct
}

// SetShowNotices controls whether notices are listed; callers always are
func (ct *CallTable) SetShowNotices(show bool) {
	ct.notices = show
	ct.refresh()
}

func (ct *CallTable) SetSize(width, height int) {
	if width < 40 {
		width = 40
	}
	// header, borders and page footer
	pageSize := height - 6
	if pageSize < 1 {
		pageSize = 1
	}
	ct.width, ct.height = width, height
	ct.table = ct.table.WithTargetWidth(width).WithPageSize(pageSize)
}

func (ct *CallTable) Add(e Entry) {
	if e.Caller {
		ct.calls++
	}
	ct.entries = append(ct.entries, e)
	if len(ct.entries) > ct.maxEntries {
		ct.entries = ct.entries[len(ct.entries)-ct.maxEntries:]
	}
	ct.refresh()
}

func (ct *CallTable) Clear() {
	ct.entries = nil
	ct.calls = 0
	ct.refresh()
}

// Calls counts caller entries since the last Clear
func (ct *CallTable) Calls() int {
	return ct.calls
}

func (ct *CallTable) Entries() []Entry {
	return ct.entries
}

// LastCaller returns the most recent caller entry
func (ct *CallTable) LastCaller() (Entry, bool) {
	for i := len(ct.entries) - 1; i >= 0; i-- {
		if ct.entries[i].Caller {
			return ct.entries[i], true
		}
	}
	return Entry{}, false
}

func (ct *CallTable) refresh() {
	rows := make([]table.Row, 0, len(ct.entries))
	for i := len(ct.entries) - 1; i >= 0; i-- {
		e := ct.entries[i]
		if !e.Caller && !ct.notices {
			continue
		}
		rows = append(rows, formatEntryAsRow(e))
	}
	ct.table = ct.table.WithRows(rows)
}

func formatEntryAsRow(e Entry) table.Row {
	kind := table.NewStyledCell("notice", styles.NoticeKindStyle)
	detail := table.NewStyledCell(e.Detail, styles.NoticeStyle)
	if e.Caller {
		kind = table.NewStyledCell("call", styles.CallKindStyle)
		detail = table.NewStyledCell(e.Detail, styles.CallerNumberStyle)
	}

	return table.NewRow(table.RowData{
		columnKeyTime:   e.Time.Local().Format(time.TimeOnly),
		columnKeyKind:   kind,
		columnKeyDetail: detail,
	})
}

// Update handles row and page navigation
func (ct *CallTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	ct.table, cmd = ct.table.Update(msg)
	return cmd
}

func (ct *CallTable) View() string {
	if len(ct.entries) == 0 {
		return lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Italic(true).
			Padding(1, 2).
			Render("Waiting for calls...")
	}
	return ct.table.View()
}
