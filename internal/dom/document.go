package dom

// Message is a one-time notice the server rendered into the page.
type Message struct {
	Level string
	Text  string
}

// Document is the root of a page. Its embedded Element receives
// document-level events such as keydown.
type Document struct {
	*Element

	// URL is the path the page was loaded from. Forms without an action
	// post back to it.
	URL string

	// Title is the page heading.
	Title string

	// Token is the value of the page's hidden anti-forgery field, or "".
	Token string

	Checkboxes    []*Checkbox
	TitleInputs   []*Input
	NewTaskInputs []*Input
	Cards         []*Element
	Tooltips      []*Element
	Modals        []*Modal
	Forms         []*Form

	// CalendarTable is set when the page shows a month calendar.
	CalendarTable bool
	CalendarDays  []*Link

	// PasswordForm is the change-password form, or nil.
	PasswordForm *Form

	// Links are navigation anchors keyed by their rel-like class name,
	// such as prev-day or next-month.
	Links map[string]*Link

	Messages []Message

	active *Element
}

// New returns an empty document.
func New() *Document {
	d := &Document{}
	d.Element = newElement(d, "", nil)
	d.Links = make(map[string]*Link)
	return d
}

// ActiveElement returns the focused element, or nil.
func (d *Document) ActiveElement() *Element { return d.active }

// KeyDown dispatches a document-level keydown and reports whether the
// default action may proceed.
func (d *Document) KeyDown(key string, ctrl, meta bool) bool {
	return d.Dispatch(&Event{Type: EventKeyDown, Key: key, Ctrl: ctrl, Meta: meta})
}

// NewElement creates an element owned by d.
func (d *Document) NewElement(id string, classes ...string) *Element {
	return newElement(d, id, classes)
}

// NewInput creates an input owned by d.
func (d *Document) NewInput(id, name, typ, value string, classes ...string) *Input {
	return &Input{Element: newElement(d, id, classes), Name: name, Type: typ, Value: value}
}

// AddCard registers a card element.
func (d *Document) AddCard(e *Element) { d.Cards = append(d.Cards, e) }

// AddCheckbox creates a task checkbox inside item.
func (d *Document) AddCheckbox(taskID string, checked bool, item *Element) *Checkbox {
	cb := &Checkbox{Element: newElement(d, "", []string{"task-checkbox"}), Checked: checked, Item: item}
	cb.SetData("task-id", taskID)
	d.Checkboxes = append(d.Checkboxes, cb)
	return cb
}

// AddTitleInput creates an inline-editable task field inside item.
func (d *Document) AddTitleInput(taskID, field, value string, item *Element) *Input {
	in := d.NewInput("", "", "text", value, "task-title-input")
	in.Item = item
	in.SetData("task-id", taskID)
	in.SetData("field", field)
	d.TitleInputs = append(d.TitleInputs, in)
	return in
}

// AddNewTaskInput creates the quick-add input for a time slot.
func (d *Document) AddNewTaskInput(timeSlot string) *Input {
	in := d.NewInput("", "", "text", "", "new-task-input")
	in.SetData("time-slot", timeSlot)
	d.NewTaskInputs = append(d.NewTaskInputs, in)
	return in
}

// AddCalendarDay appends a `.calendar-day a` link.
func (d *Document) AddCalendarDay(text, href string, today bool) *Link {
	l := &Link{Element: newElement(d, "", nil), Text: text, Href: href}
	if today {
		l.SetData("today", "true")
	}
	d.CalendarDays = append(d.CalendarDays, l)
	return l
}

// AddModal creates a modal.
func (d *Document) AddModal(id string) *Modal {
	m := &Modal{Element: newElement(d, id, []string{"modal"})}
	d.Modals = append(d.Modals, m)
	return m
}

// AddForm creates a form.
func (d *Document) AddForm(id, method, action string) *Form {
	f := &Form{Element: newElement(d, id, nil), Method: method, Action: action}
	d.Forms = append(d.Forms, f)
	return f
}

// Modal returns the modal whose ID is id, or nil.
func (d *Document) Modal(id string) *Modal {
	for _, m := range d.Modals {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// OpenModal returns the first open modal, or nil.
func (d *Document) OpenModal() *Modal {
	for _, m := range d.Modals {
		if m.Open {
			return m
		}
	}
	return nil
}

// TodayIndex returns the index of the calendar day marked as today, or -1.
func (d *Document) TodayIndex() int {
	idx := -1
	for i, l := range d.CalendarDays {
		if l.Data("today") == "true" {
			idx = i
		}
	}
	return idx
}

// AddLink registers a navigation link under name.
func (d *Document) AddLink(name, text, href string) *Link {
	l := &Link{Element: newElement(d, "", []string{name}), Text: text, Href: href}
	d.Links[name] = l
	return l
}

// Link returns the navigation link registered under name, or nil.
func (d *Document) Link(name string) *Link { return d.Links[name] }

// Form returns the form whose ID is id, or nil.
func (d *Document) Form(id string) *Form {
	for _, f := range d.Forms {
		if f.ID == id {
			return f
		}
	}
	return nil
}
