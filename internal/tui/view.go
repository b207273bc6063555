package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskflow/internal/calendar"
	"taskflow/internal/controller"
	"taskflow/internal/output"
)

var (
	colorMuted   = lipgloss.AdaptiveColor{Light: "240", Dark: "243"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "27", Dark: "62"}
	colorDanger  = lipgloss.Color("160")
	colorSuccess = lipgloss.Color("28")
	colorInfo    = lipgloss.Color("33")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	completedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(colorMuted)
	fadingStyle    = lipgloss.NewStyle().Faint(true)
	flashStyle     = lipgloss.NewStyle().Background(lipgloss.Color(controller.SuccessColor)).Foreground(lipgloss.Color("22"))
	selectedStyle  = lipgloss.NewStyle().Bold(true)
	todayStyle     = lipgloss.NewStyle().Underline(true).Bold(true)
	focusDayStyle  = lipgloss.NewStyle().Reverse(true)
	modalStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1)

	alertStyles = map[controller.Kind]lipgloss.Style{
		controller.KindDanger:  lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
		controller.KindSuccess: lipgloss.NewStyle().Foreground(colorSuccess),
		controller.KindInfo:    lipgloss.NewStyle().Foreground(colorInfo),
	}
)

// View renders the current page.
func (m *Model) View() string {
	var b strings.Builder
	for _, a := range m.alerts {
		st, ok := alertStyles[a.Kind]
		if !ok {
			st = alertStyles[controller.KindInfo]
		}
		b.WriteString(st.Render("● "+a.Message) + "\n")
	}
	if len(m.alerts) > 0 {
		b.WriteString("\n")
	}

	switch m.view {
	case viewDay:
		m.renderDay(&b)
	case viewMonth:
		m.renderMonth(&b)
	case viewProfile:
		m.renderProfile(&b)
	default:
		b.WriteString(mutedStyle.Render("Loading… (r to retry, q to quit)") + "\n")
	}
	return b.String()
}

const dayHelp = "↑/↓ move · space done · enter edit · d notes · ←/→ day · t today · c calendar · P password · ? keys · q quit"

func (m *Model) renderDay(b *strings.Builder) {
	b.WriteString(titleStyle.Render(m.doc.Title) + "\n\n")
	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render("No tasks.") + "\n")
	}
	cards := m.doc.Cards
	for i, r := range m.rows {
		line := m.renderRow(r)
		if i == m.cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		// Cards fade in one after another, in row order.
		if len(cards) == len(m.rows) && !cards[i].HasClass(controller.ClassFadeIn) {
			line = fadingStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if i := m.cursor; i < len(m.rows) && m.rows[i].tip != "" && m.editing == nil {
		b.WriteString("\n" + mutedStyle.Render(m.rows[i].tip) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render(dayHelp) + "\n")
}

func (m *Model) renderRow(r row) string {
	label := fmt.Sprintf("%-8s  ", output.SlotLabel(r.slot))
	if !r.isTask() {
		if m.editing != nil && m.editing == r.newTask {
			return label + m.editor.View()
		}
		return label + mutedStyle.Render("+ "+r.newTask.Placeholder)
	}

	mark := "[ ]"
	if r.checkbox.Checked {
		mark = "[x]"
	}
	title := ""
	if r.title != nil {
		title = m.renderField(r.title.Value, r.title == m.editing, r.title.Style(controller.StyleBackground))
	}
	if r.checkbox.Item != nil && r.checkbox.Item.HasClass(controller.ClassCompleted) && r.title != m.editing {
		title = completedStyle.Render(title)
	}
	line := label + mark + " " + title
	if r.desc != nil && (r.desc.Value != "" || r.desc == m.editing) {
		line += "  " + mutedStyle.Render("· ") + m.renderField(r.desc.Value, r.desc == m.editing, r.desc.Style(controller.StyleBackground))
	}
	return line
}

func (m *Model) renderField(value string, editing bool, background string) string {
	if editing {
		return m.editor.View()
	}
	if background == controller.SuccessColor {
		return flashStyle.Render(value)
	}
	return value
}

const monthHelp = "arrows move · enter open · n/p month · d back · q quit"

func (m *Model) renderMonth(b *strings.Builder) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %d", m.month, m.year)) + "\n\n")
	b.WriteString(mutedStyle.Render(" Su  Mo  Tu  We  Th  Fr  Sa") + "\n")
	days := m.doc.CalendarDays
	today := m.doc.TodayIndex()
	for _, week := range calendar.Month(m.year, m.month) {
		var line strings.Builder
		for _, d := range week {
			if d == 0 || d > len(days) {
				line.WriteString("    ")
				continue
			}
			cell := fmt.Sprintf("%2d", d)
			switch {
			case days[d-1].Focused():
				cell = focusDayStyle.Render(cell)
			case d-1 == today:
				cell = todayStyle.Render(cell)
			}
			line.WriteString(" " + cell + " ")
		}
		b.WriteString(line.String() + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render(monthHelp) + "\n")
}

func (m *Model) renderProfile(b *strings.Builder) {
	b.WriteString(titleStyle.Render(m.doc.Title) + "\n\n")
	var body strings.Builder
	body.WriteString(selectedStyle.Render("Change password") + "\n\n")
	for _, ti := range m.password {
		body.WriteString(ti.View() + "\n")
	}
	status := "enter save · tab switch · esc close"
	if f := m.doc.PasswordForm; f != nil && f.Button != nil && f.Button.HasClass(controller.ClassLoading) {
		status = "Saving…"
	}
	body.WriteString("\n" + mutedStyle.Render(status))
	b.WriteString(modalStyle.Render(body.String()) + "\n")
}
