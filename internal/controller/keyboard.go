package controller

import (
	"taskflow/internal/calendar"
	"taskflow/internal/dom"
)

// initCalendar lets the arrow keys walk the calendar grid and Enter open
// the current day. The cursor starts on today when the month shows it.
func (h *Handle) initCalendar() {
	days := h.doc.CalendarDays
	if !h.doc.CalendarTable || len(days) == 0 {
		return
	}
	current := h.doc.TodayIndex()

	h.listen(h.doc.Element, dom.EventKeyDown, func(ev *dom.Event) {
		if !h.doc.CalendarTable {
			return
		}
		switch ev.Key {
		case dom.KeyArrowLeft, dom.KeyArrowRight, dom.KeyArrowUp, dom.KeyArrowDown:
			ev.PreventDefault()
			current, _ = calendar.Move(current, len(days), ev.Key)
			focusCalendarDay(days, current)
		case dom.KeyEnter:
			if current >= 0 && current < len(days) {
				ev.PreventDefault()
				days[current].Click()
			}
		}
	})
}

func focusCalendarDay(days []*dom.Link, index int) {
	if index >= 0 && index < len(days) {
		days[index].Focus()
	}
}

// initKeyboardShortcuts binds Ctrl+/ (help) and Escape (close modal).
func (h *Handle) initKeyboardShortcuts() {
	h.listen(h.doc.Element, dom.EventKeyDown, func(ev *dom.Event) {
		if (ev.Ctrl || ev.Meta) && ev.Key == "/" {
			ev.PreventDefault()
			h.ShowInfo(MsgKeyboardHelp)
		}
		if ev.Key == dom.KeyEscape {
			if m := h.doc.OpenModal(); m != nil {
				h.opts.Toolkit.HideModal(m)
			}
		}
	})
}
