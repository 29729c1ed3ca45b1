// Package tui is the terminal front end of the dashboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agozel5/Honeypot/internal/query"
	"github.com/agozel5/Honeypot/internal/render"
)

// Controller is a view whose rows the model displays.
type Controller interface {
	Table() *render.Table
}

// LogsController is the log view: filters, pager and refresh on top of a table.
type LogsController interface {
	Controller
	SetFilter(f query.Filter, value string)
	SetPerPageInput(raw string)
	NextPage()
	PrevPage()
	Refresh()
	SetRefreshInterval(d time.Duration)
}

type Options struct {
	Title string
	// RefreshOptions are the selectable auto-refresh periods; 0 means off.
	RefreshOptions []time.Duration
	Refresh        time.Duration
	Filters        map[query.Filter]string
	PerPage        int
}

type field struct {
	label  string
	filter query.Filter // empty for the per-page field
	input  textinput.Model
}

type modalKind int

const (
	modalConfirm modalKind = iota
	modalNotice
)

type modal struct {
	kind    modalKind
	text    string
	confirm chan bool
	ack     chan struct{}
}

type Model struct {
	ctl  Controller
	logs LogsController

	title  string
	tbl    table.Model
	snap   render.Snapshot
	fields []field
	// focus is the focused field; -1 is the table.
	focus int

	refreshOptions []time.Duration
	refreshIdx     int

	modals []modal
	width  int
	height int
	styles styles
}

// NewLogsModel builds the model for the paginated click log.
func NewLogsModel(ctl LogsController, opts Options) *Model {
	m := newModel(ctl, opts)
	m.logs = ctl

	for _, f := range query.Filters {
		m.fields = append(m.fields, newField(string(f), f, opts.Filters[f]))
	}
	perPage := ""
	if opts.PerPage > 0 {
		perPage = fmt.Sprint(opts.PerPage)
	}
	m.fields = append(m.fields, newField("per_page", "", perPage))

	m.refreshOptions = opts.RefreshOptions
	if len(m.refreshOptions) == 0 {
		m.refreshOptions = []time.Duration{0}
	}
	m.refreshIdx = m.refreshIndex(opts.Refresh)
	return m
}

// NewIndexModel builds the model for the static link list.
func NewIndexModel(ctl Controller, opts Options) *Model {
	return newModel(ctl, opts)
}

func newModel(ctl Controller, opts Options) *Model {
	m := &Model{
		ctl:    ctl,
		title:  opts.Title,
		focus:  -1,
		styles: defaultStyles(),
	}
	m.tbl = table.New(table.WithFocused(true), table.WithHeight(15))
	ts := table.DefaultStyles()
	ts.Header = m.styles.Header
	ts.Selected = m.styles.Selected
	m.tbl.SetStyles(ts)
	m.apply(ctl.Table().Snapshot())
	return m
}

func newField(label string, f query.Filter, value string) field {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = label
	ti.CharLimit = 128
	ti.Width = 14
	ti.SetValue(value)
	return field{label: label, filter: f, input: ti}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := msg.Height - 8
		if h < 3 {
			h = 3
		}
		m.tbl.SetHeight(h)
		m.tbl.SetWidth(msg.Width)
		m.apply(m.snap)
		return m, nil

	case snapshotMsg:
		m.apply(render.Snapshot(msg))
		return m, nil

	case confirmMsg:
		m.modals = append(m.modals, modal{kind: modalConfirm, text: msg.prompt, confirm: msg.reply})
		return m, nil

	case noticeMsg:
		m.modals = append(m.modals, modal{kind: modalNotice, text: msg.text, ack: msg.reply})
		return m, nil

	case RefreshIntervalMsg:
		m.refreshIdx = m.refreshIndex(time.Duration(msg))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.closeModals()
			return m, tea.Quit
		}
		if len(m.modals) > 0 {
			m.updateModal(msg)
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateModal(msg tea.KeyMsg) {
	top := m.modals[0]
	switch top.kind {
	case modalConfirm:
		switch msg.String() {
		case "y", "o", "enter":
			top.confirm <- true
		case "n", "esc":
			top.confirm <- false
		default:
			return
		}
	case modalNotice:
		switch msg.String() {
		case "enter", "esc", " ":
		default:
			return
		}
		close(top.ack)
	}
	m.modals = m.modals[1:]
}

func (m *Model) closeModals() {
	for _, md := range m.modals {
		if md.kind == modalConfirm {
			md.confirm <- false
		} else {
			close(md.ack)
		}
	}
	m.modals = nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return m, m.cycleFocus(1)
	case "shift+tab":
		return m, m.cycleFocus(-1)
	case "ctrl+r":
		if m.logs != nil {
			m.logs.Refresh()
		}
		return m, nil
	}

	if m.focus >= 0 {
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			return m, m.setFocus(-1)
		}
		return m, m.updateField(msg)
	}

	switch msg.String() {
	case "q":
		m.closeModals()
		return m, tea.Quit
	case "left", "p":
		if m.logs != nil && !m.snap.PrevDisabled {
			m.logs.PrevPage()
		}
		return m, nil
	case "right", "n":
		if m.logs != nil && !m.snap.NextDisabled {
			m.logs.NextPage()
		}
		return m, nil
	case "r":
		if m.logs != nil && len(m.refreshOptions) > 0 {
			m.refreshIdx = (m.refreshIdx + 1) % len(m.refreshOptions)
			m.logs.SetRefreshInterval(m.refreshOptions[m.refreshIdx])
		}
		return m, nil
	case "d", "delete":
		if row, ok := m.selectedRow(); ok {
			row.Delete()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

// updateField feeds msg to the focused input and applies the new value
// whenever it changed, the way the browser form reacts to each keystroke.
func (m *Model) updateField(msg tea.KeyMsg) tea.Cmd {
	f := &m.fields[m.focus]
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if after := f.input.Value(); after != before && m.logs != nil {
		if f.filter == "" {
			m.logs.SetPerPageInput(after)
		} else {
			m.logs.SetFilter(f.filter, after)
		}
	}
	return cmd
}

func (m *Model) cycleFocus(step int) tea.Cmd {
	n := len(m.fields) + 1
	next := (m.focus + 1 + step + n) % n
	return m.setFocus(next - 1)
}

func (m *Model) setFocus(i int) tea.Cmd {
	if m.focus >= 0 {
		m.fields[m.focus].input.Blur()
	}
	m.focus = i
	if i < 0 {
		m.tbl.Focus()
		return nil
	}
	m.tbl.Blur()
	return m.fields[i].input.Focus()
}

func (m *Model) selectedRow() (render.Row, bool) {
	i := m.tbl.Cursor()
	if i < 0 || i >= len(m.snap.Rows) {
		return render.Row{}, false
	}
	return m.snap.Rows[i], true
}

func (m *Model) refreshIndex(d time.Duration) int {
	for i, opt := range m.refreshOptions {
		if opt == d {
			return i
		}
	}
	return 0
}

func (m *Model) apply(s render.Snapshot) {
	m.snap = s
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(columns(s.Columns, m.width))

	rows := make([]table.Row, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, table.Row(r.Cells))
	}
	m.tbl.SetRows(rows)
	if c := m.tbl.Cursor(); c >= len(rows) {
		m.tbl.SetCursor(max(len(rows)-1, 0))
	}
}

var columnWidths = map[string]int{
	"Date":       19,
	"IP":         15,
	"Lieu":       18,
	"User-Agent": 32,
	"Fichier":    18,
	"Campagne":   12,
	"Actions":    24,
	"ID":         36,
	"Créé le":    19,
}

func columns(titles []string, width int) []table.Column {
	cols := make([]table.Column, 0, len(titles))
	total := 0
	for _, t := range titles {
		w, ok := columnWidths[t]
		if !ok {
			w = 16
		}
		cols = append(cols, table.Column{Title: t, Width: w})
		total += w + 2
	}
	// Give the user agent whatever room is left on wide terminals.
	if width > total {
		for i := range cols {
			if cols[i].Title == "User-Agent" {
				cols[i].Width += width - total
			}
		}
	}
	return cols
}

func (m *Model) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.Title.Render(m.title))
		b.WriteString("\n")
	}
	if len(m.fields) > 0 {
		b.WriteString(m.viewFields())
		b.WriteString("\n")
	}
	b.WriteString(m.tbl.View())
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.helpLine()))

	if len(m.modals) > 0 {
		return m.viewModal(b.String())
	}
	return b.String()
}

func (m *Model) viewFields() string {
	parts := make([]string, 0, len(m.fields))
	for i, f := range m.fields {
		label := m.styles.Label.Render(f.label + ":")
		if i == m.focus {
			label = m.styles.Focused.Render(f.label + ":")
		}
		parts = append(parts, label+" "+f.input.View())
	}
	return strings.Join(parts, "  ")
}

func (m *Model) viewStatus() string {
	pager := func(label string, disabled bool) string {
		if disabled {
			return m.styles.Disabled.Render(label)
		}
		return m.styles.Enabled.Render(label)
	}
	line := m.styles.Status.Render(m.snap.Status)
	if m.logs == nil {
		return line
	}
	return fmt.Sprintf("%s  %s %s  %s",
		pager("◀ préc.", m.snap.PrevDisabled),
		line,
		pager("suiv. ▶", m.snap.NextDisabled),
		m.styles.Label.Render("auto: "+refreshLabel(m.currentRefresh())),
	)
}

func (m *Model) currentRefresh() time.Duration {
	if len(m.refreshOptions) == 0 {
		return 0
	}
	return m.refreshOptions[m.refreshIdx]
}

func refreshLabel(d time.Duration) string {
	if d <= 0 {
		return "off"
	}
	return d.String()
}

func (m *Model) helpLine() string {
	if m.logs == nil {
		return "↑/↓ select • d delete • q quit"
	}
	return "tab filters • ←/→ page • r auto-refresh • ctrl+r refresh • d delete • q quit"
}

func (m *Model) viewModal(background string) string {
	top := m.modals[0]
	text := render.Plain(top.text)
	body := text
	if top.kind == modalConfirm {
		body = m.styles.Danger.Render(text) + "\n\n" + m.styles.Help.Render("[o/y] oui   [n/esc] non")
	} else {
		body += "\n\n" + m.styles.Help.Render("[enter] OK")
	}
	box := m.styles.Modal.Render(body)
	if m.width == 0 || m.height == 0 {
		return background + "\n\n" + box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SelectedLinkID is the data-id of the highlighted row, if any.
func (m *Model) SelectedLinkID() string {
	if row, ok := m.selectedRow(); ok {
		return row.ID
	}
	return ""
}
