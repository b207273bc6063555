package tui

import (
	"net/url"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/calendar"
	"taskflow/internal/controller"
	"taskflow/internal/dom"
)

var arrowKeys = map[string]string{
	"left":  dom.KeyArrowLeft,
	"right": dom.KeyArrowRight,
	"up":    dom.KeyArrowUp,
	"down":  dom.KeyArrowDown,
	"h":     dom.KeyArrowLeft,
	"l":     dom.KeyArrowRight,
	"k":     dom.KeyArrowUp,
	"j":     dom.KeyArrowDown,
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.Close()
		return tea.Quit
	}
	if m.editing != nil {
		return m.handleEditKey(msg)
	}
	switch m.view {
	case viewDay:
		return m.handleDayKey(msg)
	case viewMonth:
		return m.handleMonthKey(msg)
	case viewProfile:
		return m.handleProfileKey(msg)
	}
	switch msg.String() {
	case "q":
		return tea.Quit
	case "r":
		return m.loadDay(m.day)
	}
	return nil
}

// handleCommonKey handles the keys every page shares. ok is false when key
// is not one of them.
func (m *Model) handleCommonKey(key string) (cmd tea.Cmd, ok bool) {
	switch key {
	case "q":
		m.Close()
		return tea.Quit, true
	case "?":
		m.doc.KeyDown("/", true, false)
	case "esc":
		if m.doc.OpenModal() != nil {
			m.doc.KeyDown(dom.KeyEscape, false, false)
		} else {
			m.alerts = nil
		}
	case "X":
		m.handle.ExportTasks()
	default:
		return nil, false
	}
	return nil, true
}

func (m *Model) handleDayKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if cmd, ok := m.handleCommonKey(key); ok {
		return cmd
	}
	var current row
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor]
	}
	switch key {
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(max(0, len(m.rows)-1), m.cursor+1)
	case "left", "h":
		return m.loadDay(m.linkedDay("prev-day", -1))
	case "right", "l":
		return m.loadDay(m.linkedDay("next-day", 1))
	case "t":
		now := time.Now()
		return m.loadDay(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local))
	case "r":
		return m.loadDay(m.day)
	case "c":
		year, month := m.day.Year(), m.day.Month()
		if l := m.doc.Link("calendar"); l != nil {
			year, month = monthFromHref(l.Href, year, month)
		}
		return m.loadMonth(year, month)
	case "P":
		return m.loadProfile()
	case " ", "x":
		if current.isTask() {
			current.checkbox.Toggle()
		}
	case "enter", "e":
		switch {
		case current.title != nil:
			return m.startEdit(current.title)
		case current.newTask != nil:
			return m.startEdit(current.newTask)
		}
	case "d":
		if current.desc != nil {
			return m.startEdit(current.desc)
		}
	}
	return nil
}

// linkedDay returns the day a navigation link points to, or the day delta
// days away when the page has no such link.
func (m *Model) linkedDay(name string, delta int) time.Time {
	if l := m.doc.Link(name); l != nil {
		if d, err := calendar.ParseDayPath(l.Href); err == nil {
			return d
		}
	}
	return m.day.AddDate(0, 0, delta)
}

// startEdit focuses in, which captures its baseline, and opens the editor
// on its value.
func (m *Model) startEdit(in *dom.Input) tea.Cmd {
	m.editing = in
	m.editOriginal = in.Value
	in.Focus()
	m.editor.SetValue(in.Value)
	m.editor.Placeholder = in.Placeholder
	m.editor.CursorEnd()
	return m.editor.Focus()
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	in := m.editing
	switch msg.String() {
	case "enter":
		m.editing = nil
		m.editor.Blur()
		in.Value = m.editor.Value()
		in.Press(dom.KeyEnter)
		in.Blur()
		return nil
	case "esc":
		m.editing = nil
		m.editor.Blur()
		in.Value = m.editOriginal
		in.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return cmd
}

func (m *Model) handleMonthKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if cmd, ok := m.handleCommonKey(key); ok {
		return cmd
	}
	if arrow, ok := arrowKeys[key]; ok {
		m.doc.KeyDown(arrow, false, false)
		return nil
	}
	switch key {
	case "enter":
		m.doc.KeyDown(dom.KeyEnter, false, false)
	case "n", "]":
		return m.loadMonth(m.linkedMonth("next-month", calendar.Next))
	case "p", "[":
		return m.loadMonth(m.linkedMonth("prev-month", calendar.Prev))
	case "d", "backspace":
		return m.loadDay(m.day)
	case "r":
		return m.loadMonth(m.year, m.month)
	}
	return nil
}

func (m *Model) linkedMonth(name string, fallback func(int, time.Month) (int, time.Month)) (int, time.Month) {
	year, month := fallback(m.year, m.month)
	if l := m.doc.Link(name); l != nil {
		return monthFromHref(l.Href, year, month)
	}
	return year, month
}

// monthFromHref reads the year and month of a calendar link, falling back
// to year and month.
func monthFromHref(href string, year int, month time.Month) (int, time.Month) {
	u, err := url.Parse(href)
	if err != nil {
		return year, month
	}
	y, yerr := strconv.Atoi(u.Query().Get("year"))
	mo, merr := strconv.Atoi(u.Query().Get("month"))
	if yerr != nil || merr != nil || mo < 1 || mo > 12 {
		return year, month
	}
	return y, time.Month(mo)
}

func (m *Model) handleProfileKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.doc.KeyDown(dom.KeyEscape, false, false)
		return nil
	case "tab", "shift+tab", "up", "down":
		m.password[m.passwordFocus].Blur()
		m.passwordFocus = 1 - m.passwordFocus
		return m.password[m.passwordFocus].Focus()
	case "enter":
		return m.submitPassword()
	}
	var cmd tea.Cmd
	m.password[m.passwordFocus], cmd = m.password[m.passwordFocus].Update(msg)
	return cmd
}

// submitPassword copies the fields into the page's form and submits it
// unless the form's gate blocks it.
func (m *Model) submitPassword() tea.Cmd {
	f := m.doc.PasswordForm
	if f == nil {
		return nil
	}
	if in := f.Field(controller.FieldNewPassword); in != nil {
		in.Value = m.password[0].Value()
	}
	if in := f.Field(controller.FieldConfirmPassword); in != nil {
		in.Value = m.password[1].Value()
	}
	if !f.Submit() {
		return nil
	}
	return m.submit(controller.FormFromDOM(f, m.doc.URL), viewProfile)
}
