package tui

import (
	"slices"
	"strings"

	"taskflow/internal/controller"
	"taskflow/internal/dom"
	"taskflow/internal/service"
)

// navigator loads the page a submitted form lands on.
type navigator struct{ m *Model }

func (n navigator) Submit(form service.Form) {
	n.m.queue(n.m.submit(form, viewDay))
}

// notifier stacks alerts above the page.
type notifier struct{ m *Model }

func (n notifier) Alert(a controller.Alert) { n.m.alert(a) }

// toolkit keeps tooltip texts for the rows and closes modals directly.
type toolkit struct{ m *Model }

func (t toolkit) EnableTooltips(targets []*dom.Element) {
	t.m.tooltips = t.m.tooltips[:0]
	for _, el := range targets {
		t.m.tooltips = append(t.m.tooltips, el.Data("title"))
	}
}

func (t toolkit) HideModal(modal *dom.Modal) bool {
	return controller.BasicToolkit{}.HideModal(modal)
}

// row is one line of the day view: a task, or a free slot's quick-add
// input.
type row struct {
	checkbox *dom.Checkbox
	title    *dom.Input
	desc     *dom.Input
	newTask  *dom.Input
	slot     string
	tip      string
}

func (r row) isTask() bool { return r.checkbox != nil }

// buildRows orders the tasks and free slots of a day page by slot, with
// untimed tasks first. That is the order the page lays out its cards.
func buildRows(doc *dom.Document, tips []string) []row {
	rows := make([]row, 0, len(doc.Checkboxes)+len(doc.NewTaskInputs))
	for i, cb := range doc.Checkboxes {
		r := row{checkbox: cb}
		if cb.Item != nil {
			r.slot = cb.Item.Data("time-slot")
		}
		id := cb.Data("task-id")
		for _, in := range doc.TitleInputs {
			if in.Data("task-id") != id {
				continue
			}
			switch in.Data("field") {
			case service.FieldTitle:
				r.title = in
			case service.FieldDescription:
				r.desc = in
			}
		}
		if len(tips) == len(doc.Checkboxes) {
			r.tip = tips[i]
		}
		rows = append(rows, r)
	}
	for _, in := range doc.NewTaskInputs {
		rows = append(rows, row{newTask: in, slot: in.Data("time-slot")})
	}
	slices.SortStableFunc(rows, func(a, b row) int { return strings.Compare(a.slot, b.slot) })
	return rows
}
