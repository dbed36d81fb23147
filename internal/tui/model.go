// Package tui implements the full-screen spreadsheet browser: a file list on
// the left and the selected file's data or chart on the right.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klytics/sheetkit/internal/chart"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/importer"
	"github.com/klytics/sheetkit/internal/output"
)

type state int

const (
	stateBrowse state = iota
	statePicker
)

// Tab is the view shown for the selected file.
type Tab int

const (
	TabData Tab = iota
	TabChart
)

func (t Tab) String() string {
	if t == TabChart {
		return "Chart"
	}
	return "Data"
}

const listWidth = 28

type importedMsg struct {
	rec history.FileRecord
	err error
}

// Model is the bubbletea model of the browser.
type Model struct {
	store *history.Store
	im    *importer.Importer

	state  state
	tab    Tab
	files  []history.FileRecord
	cursor int

	table      table.Model
	picker     filepicker.Model
	chartValue string
	chartView  string
	maxCol     int

	status string
	err    error
	width  int
	height int
}

// New builds a browser over store. Files picked with "i" are imported with im.
func New(store *history.Store, im *importer.Importer) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx"}
	fp.CurrentDirectory = im.Dir
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory, _ = os.Getwd()
	}
	fp.Styles.Cursor = fp.Styles.Cursor.Foreground(accent)
	fp.Styles.Selected = fp.Styles.Selected.Foreground(accent).Bold(true)
	fp.Styles.Directory = fp.Styles.Directory.Foreground(warm)

	t := table.New(table.WithFocused(true))
	ts := table.DefaultStyles()
	ts.Header = ts.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(muted).BorderBottom(true).Bold(true)
	ts.Selected = ts.Selected.Foreground(lipgloss.Color("#000000")).Background(warm)
	t.SetStyles(ts)

	m := Model{
		store:  store,
		im:     im,
		table:  t,
		picker: fp,
		maxCol: output.DefaultMaxColWidth,
		width:  100,
		height: 30,
	}
	m.reload()
	return m
}

// SetMaxColWidth caps the width of data columns.
func (m *Model) SetMaxColWidth(n int) {
	if n > 0 {
		m.maxCol = n
		m.refresh()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.Height = max(msg.Height-8, 5)
		m.refresh()
		return m, nil

	case importedMsg:
		m.state = stateBrowse
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Imported %s (%d rows)", msg.rec.Name, len(msg.rec.Rows))
		m.reload()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == statePicker {
			return m.updatePicker(msg)
		}
		return m.updateBrowse(msg)
	}

	if m.state == statePicker {
		return m.updatePicker(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.selectCursor()
		}
	case "down", "j":
		if m.cursor < len(m.files)-1 {
			m.cursor++
			m.selectCursor()
		}
	case "tab":
		if m.tab == TabData {
			m.tab = TabChart
		} else {
			m.tab = TabData
		}
		m.refresh()
	case "1":
		m.tab = TabData
		m.refresh()
	case "2":
		m.tab = TabChart
		m.refresh()
	case "v":
		m.cycleChartValue()
	case "d":
		m.removeCursor()
	case "i":
		m.state = statePicker
		m.err = nil
		m.status = ""
		return m, m.picker.Init()
	case "pgup", "pgdown", "home", "end", "b", "f":
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.state = stateBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		return m, m.importFile(path)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.err = fmt.Errorf("%s is not an .xlsx file", path)
		m.state = stateBrowse
		return m, nil
	}
	return m, cmd
}

func (m Model) importFile(path string) tea.Cmd {
	store, im := m.store, m.im
	return func() tea.Msg {
		recs, err := im.Import(context.Background(), store, path)
		if err != nil {
			return importedMsg{err: err}
		}
		return importedMsg{rec: recs[0]}
	}
}

// reload re-reads the file list and moves the cursor to the selection.
func (m *Model) reload() {
	m.files = m.store.Files()
	m.cursor = 0
	if sel, ok := m.store.Selected(); ok {
		for i, f := range m.files {
			if f.ID == sel.ID {
				m.cursor = i
				break
			}
		}
	}
	m.chartValue = ""
	m.refresh()
}

func (m *Model) selectCursor() {
	if m.cursor >= len(m.files) {
		return
	}
	if err := m.store.SelectByID(m.files[m.cursor].ID); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = ""
	m.chartValue = ""
	m.refresh()
}

func (m *Model) removeCursor() {
	if m.cursor >= len(m.files) {
		return
	}
	f := m.files[m.cursor]
	if err := m.store.RemoveFile(f.ID); err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("Removed %s", f.Name)
	m.reload()
}

func (m *Model) cycleChartValue() {
	sel, ok := m.store.Selected()
	if !ok {
		return
	}
	columns, rows, err := m.im.Rows(sel)
	if err != nil {
		m.err = err
		return
	}
	numeric := chart.NumericColumns(columns, rows)
	if len(numeric) == 0 {
		return
	}
	next := numeric[0]
	for i, col := range numeric {
		if col == m.chartValue && i+1 < len(numeric) {
			next = numeric[i+1]
		}
	}
	m.chartValue = next
	m.tab = TabChart
	m.refresh()
}

// refresh rebuilds the data table and chart for the selected file.
func (m *Model) refresh() {
	m.table.SetRows(nil)
	m.table.SetColumns(nil)
	m.chartView = ""

	sel, ok := m.store.Selected()
	if !ok {
		return
	}
	columns, rows, err := m.im.Rows(sel)
	if err != nil {
		m.err = err
		return
	}

	paneWidth := max(m.width-listWidth-8, 20)

	if m.tab == TabChart {
		series, err := chart.Build(columns, rows, "", m.chartValue)
		if err != nil {
			m.chartView = ErrorStyle.Render(err.Error())
			return
		}
		m.chartValue = series.ValueColumn
		m.chartView = chart.Render(series, paneWidth)
		if sum, err := series.Summary(); err == nil {
			m.chartView += chart.RenderSummary(sum)
		}
		return
	}

	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c, Width: len([]rune(c))}
	}
	trows := make([]table.Row, len(rows))
	for r, row := range rows {
		cells := make(table.Row, len(columns))
		for i, c := range columns {
			v := row.Get(c).String()
			cells[i] = v
			if w := len([]rune(v)); w > cols[i].Width {
				cols[i].Width = w
			}
		}
		trows[r] = cells
	}
	for i := range cols {
		cols[i].Width = min(cols[i].Width, m.maxCol)
	}

	m.table.SetColumns(cols)
	m.table.SetRows(trows)
	m.table.SetWidth(paneWidth)
	m.table.SetHeight(max(m.height-10, 3))
	m.table.GotoTop()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("sheetkit"))
	b.WriteString("  ")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("%d file(s) in history", len(m.files))))
	b.WriteString("\n\n")

	if m.state == statePicker {
		b.WriteString(SubtitleStyle.Render("Pick a spreadsheet to import (" + m.picker.CurrentDirectory + ")"))
		b.WriteString("\n\n")
		b.WriteString(m.picker.View())
		b.WriteString(HelpStyle.Render("enter: import • esc: back"))
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), " ", m.paneView()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(SuccessStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("↑/↓: select • tab: data/chart • v: chart column • i: import • d: remove • q: quit"))
	return b.String()
}

func (m Model) listView() string {
	var b strings.Builder
	if len(m.files) == 0 {
		b.WriteString(SubtitleStyle.Render("No files yet.\nPress i to import."))
	}
	for i, f := range m.files {
		name := f.Name
		if len([]rune(name)) > listWidth-2 {
			name = string([]rune(name)[:listWidth-3]) + "~"
		}
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> " + name))
		} else {
			b.WriteString(UnselectedStyle.Render("  " + name))
		}
		if i < len(m.files)-1 {
			b.WriteString("\n")
		}
	}
	return ListStyle.Width(listWidth).Render(b.String())
}

func (m Model) paneView() string {
	var tabs []string
	for _, t := range []Tab{TabData, TabChart} {
		if t == m.tab {
			tabs = append(tabs, ActiveTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(t.String()))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var body string
	switch {
	case len(m.files) == 0:
		body = SubtitleStyle.Render("Nothing selected.")
	case m.tab == TabChart:
		body = m.chartView
	default:
		body = m.table.View()
	}
	return PaneStyle.Render(header + "\n\n" + body)
}

// Run starts the browser full screen and blocks until it exits.
func Run(store *history.Store, im *importer.Importer, maxColWidth int) error {
	m := New(store, im)
	m.SetMaxColWidth(maxColWidth)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("could not run browser: %w", err)
	}
	return nil
}
