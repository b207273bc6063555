package controller

import (
	"strings"
	"time"

	"taskflow/internal/dom"
	"taskflow/internal/service"
)

// Class and style names applied to elements.
const (
	ClassCompleted = "task-completed"
	ClassFadeIn    = "fade-in"
	ClassLoading   = "loading"

	StyleBackground = "background-color"
	SuccessColor    = "#d4edda"
)

func (h *Handle) initTaskManagement() {
	for _, cb := range h.doc.Checkboxes {
		h.bindCheckbox(cb)
	}
	for _, in := range h.doc.TitleInputs {
		h.bindTitleInput(in)
	}
	for _, in := range h.doc.NewTaskInputs {
		h.bindNewTaskInput(in)
	}
}

func (h *Handle) bindCheckbox(cb *dom.Checkbox) {
	h.listen(cb.Element, dom.EventChange, func(*dom.Event) {
		h.handleCompletion(cb)
	})
}

// handleCompletion sends the new checked state. The checkbox already shows
// it; a failed update puts back the state the server holds.
func (h *Handle) handleCompletion(cb *dom.Checkbox) {
	completed := cb.Checked
	h.async(cb.Data("task-id"), service.FieldCompleted, completed, !completed, func(s settled) {
		if v, ok := s.value.(bool); ok {
			cb.Checked = v
		}
		if !s.accepted || cb.Item == nil {
			return
		}
		if cb.Checked {
			cb.Item.AddClass(ClassCompleted)
		} else {
			cb.Item.RemoveClass(ClassCompleted)
		}
	})
}

func (h *Handle) bindTitleInput(in *dom.Input) {
	baseline := in.Value
	h.listen(in.Element, dom.EventFocus, func(*dom.Event) {
		baseline = in.Value
	})
	h.listen(in.Element, dom.EventBlur, func(*dom.Event) {
		h.handleTitleUpdate(in, baseline)
	})
	h.listen(in.Element, dom.EventKeyPress, func(ev *dom.Event) {
		if ev.Key == dom.KeyEnter {
			in.Blur()
		}
	})
}

// handleTitleUpdate commits an inline edit on blur. Blank input goes back
// to the baseline without contacting the server. A failed update shows the
// value the server holds.
func (h *Handle) handleTitleUpdate(in *dom.Input, baseline string) {
	value := strings.TrimSpace(in.Value)
	if value == "" {
		in.Value = baseline
		return
	}
	if in.Value == baseline {
		return
	}
	h.async(in.Data("task-id"), in.Data("field"), value, baseline, func(s settled) {
		if s.ok {
			h.showFieldSuccess(in.Element)
			return
		}
		if v, ok := s.value.(string); ok {
			in.Value = v
		}
	})
}

func (h *Handle) showFieldSuccess(el *dom.Element) {
	el.SetStyle(StyleBackground, SuccessColor)
	h.after(h.opts.FlashDuration, func() {
		el.SetStyle(StyleBackground, "")
	})
}

func (h *Handle) bindNewTaskInput(in *dom.Input) {
	h.listen(in.Element, dom.EventKeyPress, func(ev *dom.Event) {
		if ev.Key == dom.KeyEnter && strings.TrimSpace(in.Value) != "" {
			h.createNewTask(in)
		}
	})
}

// createNewTask submits a hidden form and lets the host navigate. The page
// is reloaded rather than patched in place.
func (h *Handle) createNewTask(in *dom.Input) {
	token, err := h.Token()
	if err != nil {
		h.log.Warn("creating task without security token", "error", err)
	}
	form := BuildTaskForm(token, strings.TrimSpace(in.Value), in.Data("time-slot"))
	form.Action = h.doc.URL
	h.opts.Navigator.Submit(form)
}

func (h *Handle) initUI() {
	h.initAnimations()
	if len(h.doc.Tooltips) > 0 {
		h.opts.Toolkit.EnableTooltips(h.doc.Tooltips)
	}
	h.initModals()
}

// initAnimations fades cards in one after another.
func (h *Handle) initAnimations() {
	for i, card := range h.doc.Cards {
		h.after(h.opts.FadeStep*time.Duration(i), func() {
			card.AddClass(ClassFadeIn)
		})
	}
}

// initModals focuses a modal's first text input once it is shown.
func (h *Handle) initModals() {
	for _, m := range h.doc.Modals {
		h.listen(m.Element, dom.EventShown, func(*dom.Event) {
			if len(m.Inputs) > 0 {
				m.Inputs[0].Focus()
			}
		})
	}
}

// initForms marks a submitted form's button as loading and re-enables it
// after FormResetDelay in case no navigation follows.
func (h *Handle) initForms() {
	for _, f := range h.doc.Forms {
		if f.Button == nil {
			continue
		}
		h.listen(f.Element, dom.EventSubmit, func(ev *dom.Event) {
			if ev.DefaultPrevented() {
				return
			}
			btn := f.Button
			btn.AddClass(ClassLoading)
			btn.Disabled = true
			h.after(h.opts.FormResetDelay, func() {
				btn.RemoveClass(ClassLoading)
				btn.Disabled = false
			})
		})
	}
}
