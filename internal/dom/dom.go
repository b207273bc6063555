// Package dom is a small element tree shared by UI hosts and the update
// controller. Hosts build a Document (usually through package page),
// render it and feed user input into it as events; the controller listens
// to those events and mutates the elements.
//
// Nothing here is safe for concurrent use. The host owns the UI goroutine
// and every read or write of an element happens there.
package dom

import (
	"net/url"
	"slices"
)

// EventType names an event, using the browser's event names.
type EventType string

const (
	EventChange   EventType = "change"
	EventFocus    EventType = "focus"
	EventBlur     EventType = "blur"
	EventKeyPress EventType = "keypress"
	EventKeyDown  EventType = "keydown"
	EventSubmit   EventType = "submit"
	EventClick    EventType = "click"
	EventShown    EventType = "shown"
	EventHidden   EventType = "hidden"
)

// Key values carried by key events.
const (
	KeyEnter      = "Enter"
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
)

// Event is dispatched to listeners registered on an Element.
type Event struct {
	Type EventType
	Key  string
	Ctrl bool
	Meta bool

	prevented bool
}

// PreventDefault suppresses the host's default action for the event.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.prevented }

type listener struct {
	fn      func(*Event)
	removed bool
}

// Element is the common part of every node: classes, data attributes,
// inline style, focus state and listeners.
type Element struct {
	ID       string
	Disabled bool

	doc       *Document
	classes   []string
	data      map[string]string
	style     map[string]string
	focused   bool
	listeners map[EventType][]*listener
}

func newElement(doc *Document, id string, classes []string) *Element {
	return &Element{
		ID:      id,
		doc:     doc,
		classes: slices.Clone(classes),
		data:    make(map[string]string),
		style:   make(map[string]string),
	}
}

// HasClass reports whether c is in the class list.
func (e *Element) HasClass(c string) bool { return slices.Contains(e.classes, c) }

// AddClass adds c to the class list if missing.
func (e *Element) AddClass(c string) {
	if !e.HasClass(c) {
		e.classes = append(e.classes, c)
	}
}

// RemoveClass removes c from the class list.
func (e *Element) RemoveClass(c string) {
	e.classes = slices.DeleteFunc(e.classes, func(s string) bool { return s == c })
}

// Classes returns a copy of the class list.
func (e *Element) Classes() []string { return slices.Clone(e.classes) }

// Data returns the data-<key> attribute, or "".
func (e *Element) Data(key string) string { return e.data[key] }

// SetData sets the data-<key> attribute.
func (e *Element) SetData(key, value string) { e.data[key] = value }

// Style returns an inline style property, or "".
func (e *Element) Style(prop string) string { return e.style[prop] }

// SetStyle sets an inline style property. An empty value removes it.
func (e *Element) SetStyle(prop, value string) {
	if value == "" {
		delete(e.style, prop)
		return
	}
	e.style[prop] = value
}

// AddEventListener registers fn for events of type t and returns a
// function that removes the registration.
func (e *Element) AddEventListener(t EventType, fn func(*Event)) (remove func()) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]*listener)
	}
	l := &listener{fn: fn}
	e.listeners[t] = append(e.listeners[t], l)
	return func() {
		l.removed = true
		e.listeners[t] = slices.DeleteFunc(e.listeners[t], func(x *listener) bool { return x == l })
	}
}

// ListenerCount returns how many listeners are registered for t.
func (e *Element) ListenerCount(t EventType) int { return len(e.listeners[t]) }

// Dispatch delivers ev to the listeners registered for its type, in
// registration order. It reports whether the default action may proceed.
func (e *Element) Dispatch(ev *Event) bool {
	for _, l := range slices.Clone(e.listeners[ev.Type]) {
		if l.removed {
			continue
		}
		l.fn(ev)
	}
	return !ev.prevented
}

// Focused reports whether the element has focus.
func (e *Element) Focused() bool { return e.focused }

// Focus moves document focus to the element, blurring the previous one.
func (e *Element) Focus() {
	if e.focused {
		return
	}
	if e.doc != nil {
		if prev := e.doc.active; prev != nil && prev != e {
			prev.Blur()
		}
		e.doc.active = e
	}
	e.focused = true
	e.Dispatch(&Event{Type: EventFocus})
}

// Blur removes focus from the element.
func (e *Element) Blur() {
	if !e.focused {
		return
	}
	e.focused = false
	if e.doc != nil && e.doc.active == e {
		e.doc.active = nil
	}
	e.Dispatch(&Event{Type: EventBlur})
}

// Checkbox is an `input[type=checkbox]`. Item is the task item that owns it.
type Checkbox struct {
	*Element
	Checked bool
	Item    *Element
}

// Toggle flips the checked state the way a click does, then dispatches change.
func (c *Checkbox) Toggle() {
	c.Checked = !c.Checked
	c.Dispatch(&Event{Type: EventChange})
}

// Input is a text-like input. Item is the owning task item, if any.
type Input struct {
	*Element
	Name        string
	Type        string
	Value       string
	Placeholder string
	Item        *Element
}

// Press dispatches a keypress for key.
func (in *Input) Press(key string) {
	in.Dispatch(&Event{Type: EventKeyPress, Key: key})
}

// Link is an anchor.
type Link struct {
	*Element
	Text string
	Href string
}

// Click dispatches a click.
func (l *Link) Click() bool {
	return l.Dispatch(&Event{Type: EventClick})
}

// Form is a form with its inputs and optional submit button.
type Form struct {
	*Element
	Action string
	Method string
	Inputs []*Input
	Button *Element
}

// Field returns the input whose ID is id, or nil.
func (f *Form) Field(id string) *Input {
	for _, in := range f.Inputs {
		if in.ID == id {
			return in
		}
	}
	return nil
}

// AddHidden appends a hidden input.
func (f *Form) AddHidden(name, value string) *Input {
	in := &Input{Element: newElement(f.doc, "", nil), Name: name, Type: "hidden", Value: value}
	f.Inputs = append(f.Inputs, in)
	return in
}

// Values returns the named inputs as form values, in input order.
func (f *Form) Values() url.Values {
	v := url.Values{}
	for _, in := range f.Inputs {
		if in.Name == "" {
			continue
		}
		v.Add(in.Name, in.Value)
	}
	return v
}

// Submit dispatches submit and reports whether the submission may proceed.
func (f *Form) Submit() bool {
	return f.Dispatch(&Event{Type: EventSubmit})
}

// Modal is a dialog that may be shown or hidden.
type Modal struct {
	*Element
	Open   bool
	Inputs []*Input
	Form   *Form
}

// Show opens the modal and dispatches shown.
func (m *Modal) Show() {
	if m.Open {
		return
	}
	m.Open = true
	m.Dispatch(&Event{Type: EventShown})
}

// Hide closes the modal and dispatches hidden.
func (m *Modal) Hide() {
	if !m.Open {
		return
	}
	m.Open = false
	m.Dispatch(&Event{Type: EventHidden})
}
