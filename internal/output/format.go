// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskflow/internal/calendar"
	"taskflow/internal/dom"
	"taskflow/internal/service"
)

const (
	// Separator is printed under page headings.
	Separator = "------------"

	// AnyTime labels tasks without a time slot.
	AnyTime = "any time"
)

// Task is one task as shown on a day page.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    string
	TimeSlot    string
	Completed   bool
}

// Tasks reads the tasks of a day page in page order.
func Tasks(doc *dom.Document) []Task {
	tasks := make([]Task, 0, len(doc.Checkboxes))
	for _, cb := range doc.Checkboxes {
		t := Task{ID: cb.Data("task-id"), Completed: cb.Checked}
		if cb.Item != nil {
			t.Priority = cb.Item.Data("priority")
			t.TimeSlot = cb.Item.Data("time-slot")
		}
		for _, in := range doc.TitleInputs {
			if in.Data("task-id") != t.ID {
				continue
			}
			switch in.Data("field") {
			case service.FieldTitle:
				t.Title = in.Value
			case service.FieldDescription:
				t.Description = in.Value
			}
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// FreeSlots returns the slots of a day page that can still take a task.
func FreeSlots(doc *dom.Document) []string {
	var slots []string
	for _, in := range doc.NewTaskInputs {
		slots = append(slots, in.Data("time-slot"))
	}
	return slots
}

// FormatDay prints a day page.
// Format: "{ID:>4}  [x] {SLOT:<8}  {TITLE}[ ({PRIORITY})]\n", with the
// description, if any, on the following line.
func FormatDay(w io.Writer, doc *dom.Document) {
	fmt.Fprintln(w, doc.Title)
	fmt.Fprintln(w, Separator)
	tasks := Tasks(doc)
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, t := range tasks {
		FormatTask(w, t)
	}
}

// FormatTask prints one task line.
func FormatTask(w io.Writer, t Task) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("%4s  [%s] %-8s  %s", t.ID, mark, SlotLabel(t.TimeSlot), normalizeTitle(t.Title))
	if t.Priority != "" && t.Priority != service.PriorityMedium {
		line += " (" + t.Priority + ")"
	}
	fmt.Fprintln(w, line)
	if d := strings.TrimSpace(t.Description); d != "" {
		fmt.Fprintf(w, "%20s%s\n", "", normalizeTitle(d))
	}
}

// SlotLabel returns the display label of a slot value.
func SlotLabel(slot string) string {
	if slot == "" {
		return AnyTime
	}
	t, err := calendar.ParseSlot(slot)
	if err != nil {
		return slot
	}
	return t.Format("03:04 PM")
}

// FormatMonth prints a month calendar, Sunday first. Today is bracketed.
func FormatMonth(w io.Writer, year int, month time.Month, doc *dom.Document) {
	today := doc.TodayIndex() + 1
	fmt.Fprintf(w, "%s %d\n", month, year)
	fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa")
	for _, week := range calendar.Month(year, month) {
		var b strings.Builder
		for _, d := range week {
			switch {
			case d == 0:
				b.WriteString("    ")
			case d == today:
				fmt.Fprintf(&b, "[%2d]", d)
			default:
				fmt.Fprintf(&b, " %2d ", d)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// FormatMessages prints the notices a page carried, one per line.
func FormatMessages(w io.Writer, msgs []dom.Message) {
	for _, m := range msgs {
		fmt.Fprintln(w, m.Text)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
