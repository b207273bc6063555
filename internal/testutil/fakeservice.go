// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskflow/internal/calendar"
	"taskflow/internal/dom"
	"taskflow/internal/service"
)

// FakeToken is the anti-forgery token the fake hands out.
const FakeToken = "fake-token"

// Messages the fake answers form submissions with.
const (
	MsgSaved           = "Task saved successfully!"
	MsgTitleRequired   = "Task title is required."
	MsgPasswordChanged = "Password changed successfully."
)

// PasswordAction is where the fake's profile form posts.
const PasswordAction = "/profile/password/"

// Task is a task held by the fake.
type Task struct {
	ID          int
	Day         time.Time
	TimeSlot    string
	Title       string
	Description string
	Priority    string
	Completed   bool
}

// FakeService is an in-memory implementation of service.Service for testing.
// Its pages are built the way the real server renders them.
type FakeService struct {
	mu       sync.Mutex
	tasks    []*Task
	nextID   int
	password string

	// Today marks the current day on month pages.
	Today time.Time

	// Updates and Submits record what was sent, in order.
	Updates []service.UpdateRequest
	Submits []service.Form

	// OmitToken builds pages without the hidden token field.
	OmitToken bool

	// Error injection for testing
	DayPageErr     error
	MonthPageErr   error
	ProfilePageErr error
	TokenErr       error
	UpdateErr      error
	SubmitErr      error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{nextID: 1}
}

// AddTask stores a task and returns its ID.
func (f *FakeService) AddTask(day time.Time, slot, title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(day, slot, title, "", service.PriorityMedium).ID
}

func (f *FakeService) addLocked(day time.Time, slot, title, desc, priority string) *Task {
	t := &Task{
		ID:          f.nextID,
		Day:         dayOf(day),
		TimeSlot:    slot,
		Title:       title,
		Description: desc,
		Priority:    priority,
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

// Task returns a copy of the task with id.
func (f *FakeService) Task(id int) (Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t := f.findLocked(id); t != nil {
		return *t, true
	}
	return Task{}, false
}

// Tasks returns copies of every task, in insertion order.
func (f *FakeService) Tasks() []Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out
}

// Password returns the last password set through the profile form.
func (f *FakeService) Password() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.password
}

func (f *FakeService) findLocked(id int) *Task {
	for _, t := range f.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// DayPage implements service.Service.
func (f *FakeService) DayPage(ctx context.Context, day time.Time) (*dom.Document, error) {
	if f.DayPageErr != nil {
		return nil, f.DayPageErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dayLocked(day, nil), nil
}

// MonthPage implements service.Service.
func (f *FakeService) MonthPage(ctx context.Context, year int, month time.Month) (*dom.Document, error) {
	if f.MonthPageErr != nil {
		return nil, f.MonthPageErr
	}
	doc := f.newDoc(calendar.MonthPath(year, month))
	doc.Title = fmt.Sprintf("%s %d", month, year)
	doc.CalendarTable = true
	for d := 1; d <= calendar.DaysIn(year, month); d++ {
		day := time.Date(year, month, d, 0, 0, 0, 0, time.Local)
		today := !f.Today.IsZero() && dayOf(f.Today).Equal(day)
		doc.AddCalendarDay(strconv.Itoa(d), calendar.DayPath(day), today)
	}
	py, pm := calendar.Prev(year, month)
	ny, nm := calendar.Next(year, month)
	doc.AddLink("prev-month", "«", calendar.MonthPath(py, pm))
	doc.AddLink("next-month", "»", calendar.MonthPath(ny, nm))
	return doc, nil
}

// ProfilePage implements service.Service.
func (f *FakeService) ProfilePage(ctx context.Context) (*dom.Document, error) {
	if f.ProfilePageErr != nil {
		return nil, f.ProfilePageErr
	}
	return f.profile(nil), nil
}

// Token implements service.Service.
func (f *FakeService) Token(ctx context.Context) (string, error) {
	if f.TokenErr != nil {
		return "", f.TokenErr
	}
	return FakeToken, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, token string, req service.UpdateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates = append(f.Updates, req)
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if token != FakeToken {
		return service.ErrNoToken
	}
	id, err := strconv.Atoi(req.TaskID)
	if err != nil {
		return &service.RejectedError{Message: fmt.Sprintf("invalid task id: %s", req.TaskID)}
	}
	t := f.findLocked(id)
	if t == nil {
		return &service.RejectedError{Message: "Task not found"}
	}
	switch req.Field {
	case service.FieldTitle:
		t.Title = fmt.Sprint(req.Value)
	case service.FieldDescription:
		t.Description = fmt.Sprint(req.Value)
	case service.FieldPriority:
		p := fmt.Sprint(req.Value)
		if p != service.PriorityLow && p != service.PriorityMedium && p != service.PriorityHigh {
			return &service.RejectedError{Message: "invalid priority: " + p}
		}
		t.Priority = p
	case service.FieldCompleted:
		b, _ := req.Value.(bool)
		t.Completed = b
	default:
		return &service.RejectedError{Message: "unknown field: " + req.Field}
	}
	return nil
}

// SubmitForm implements service.Service. It understands the task form of
// a day page and the password form.
func (f *FakeService) SubmitForm(ctx context.Context, form service.Form) (*dom.Document, error) {
	f.mu.Lock()
	f.Submits = append(f.Submits, form)
	f.mu.Unlock()
	if f.SubmitErr != nil {
		return nil, f.SubmitErr
	}
	if form.Fields.Get("csrfmiddlewaretoken") != FakeToken {
		return nil, fmt.Errorf("%w: server rejected the security token", service.ErrNoToken)
	}

	if form.Action == PasswordAction {
		newPassword := form.Fields.Get("new_password")
		if newPassword != form.Fields.Get("confirm_password") || len(newPassword) < 8 {
			return f.profile(&dom.Message{Level: "danger", Text: "Invalid password."}), nil
		}
		f.mu.Lock()
		f.password = newPassword
		f.mu.Unlock()
		return f.profile(&dom.Message{Level: "success", Text: MsgPasswordChanged}), nil
	}

	day, err := calendar.ParseDayPath(form.Action)
	if err != nil || !strings.EqualFold(form.Method, http.MethodPost) {
		return nil, errors.New("not found (404)")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	title := strings.TrimSpace(form.Fields.Get("task_title"))
	if title == "" {
		return f.dayLocked(day, &dom.Message{Level: "danger", Text: MsgTitleRequired}), nil
	}
	slot := form.Fields.Get("time_slot")
	priority := form.Fields.Get("task_priority")
	if priority == "" {
		priority = service.PriorityMedium
	}
	desc := form.Fields.Get("task_description")
	if t := f.slotLocked(day, slot); t != nil {
		t.Title, t.Description, t.Priority = title, desc, priority
	} else {
		f.addLocked(day, slot, title, desc, priority)
	}
	return f.dayLocked(day, &dom.Message{Level: "success", Text: MsgSaved}), nil
}

func (f *FakeService) slotLocked(day time.Time, slot string) *Task {
	for _, t := range f.tasks {
		if t.Day.Equal(dayOf(day)) && t.TimeSlot == slot {
			return t
		}
	}
	return nil
}

func (f *FakeService) newDoc(url string) *dom.Document {
	doc := dom.New()
	doc.URL = url
	if !f.OmitToken {
		doc.Token = FakeToken
	}
	return doc
}

// dayLocked builds a day page: untimed tasks first, then one card per slot
// holding its task or a quick-add input.
func (f *FakeService) dayLocked(day time.Time, msg *dom.Message) *dom.Document {
	day = dayOf(day)
	doc := f.newDoc(calendar.DayPath(day))
	doc.Title = day.Format("Monday, January 02, 2006")
	if msg != nil {
		doc.Messages = append(doc.Messages, *msg)
	}
	doc.AddLink("prev-day", "« Previous", calendar.DayPath(day.AddDate(0, 0, -1)))
	doc.AddLink("next-day", "Next »", calendar.DayPath(day.AddDate(0, 0, 1)))
	doc.AddLink("calendar", "Calendar", calendar.MonthPath(day.Year(), day.Month()))

	for _, t := range f.tasks {
		if t.Day.Equal(day) && t.TimeSlot == "" {
			card := doc.NewElement("", "card", "general-task")
			doc.AddCard(card)
			f.addTaskItem(doc, t)
		}
	}
	for _, s := range calendar.Slots() {
		card := doc.NewElement("", "card", "time-slot")
		card.SetData("time-slot", s.Value)
		card.SetData("label", s.Label)
		doc.AddCard(card)
		if t := f.slotLocked(day, s.Value); t != nil {
			f.addTaskItem(doc, t)
		} else {
			doc.AddNewTaskInput(s.Value)
		}
	}

	m := doc.AddModal("addTaskModal")
	form := doc.AddForm("addTaskForm", http.MethodPost, doc.URL)
	form.AddHidden("csrfmiddlewaretoken", doc.Token)
	for _, in := range []*dom.Input{
		doc.NewInput("task_title", "task_title", "text", ""),
		doc.NewInput("task_description", "task_description", "textarea", ""),
		doc.NewInput("task_priority", "task_priority", "select", service.PriorityMedium),
		doc.NewInput("time_slot", "time_slot", "select", ""),
	} {
		form.Inputs = append(form.Inputs, in)
		if in.Type == "text" || in.Type == "textarea" {
			m.Inputs = append(m.Inputs, in)
		}
	}
	form.Button = doc.NewElement("", "btn", "btn-primary")
	m.Form = form
	return doc
}

func (f *FakeService) addTaskItem(doc *dom.Document, t *Task) {
	item := doc.NewElement("", "task-item")
	if t.Completed {
		item.AddClass("task-completed")
	}
	item.SetData("priority", t.Priority)
	item.SetData("time-slot", t.TimeSlot)
	id := strconv.Itoa(t.ID)
	doc.AddCheckbox(id, t.Completed, item)
	doc.AddTitleInput(id, service.FieldTitle, t.Title, item)
	doc.AddTitleInput(id, service.FieldDescription, t.Description, item)
	badge := doc.NewElement("", "badge")
	badge.SetData("title", "Priority: "+t.Priority)
	doc.Tooltips = append(doc.Tooltips, badge)
}

func (f *FakeService) profile(msg *dom.Message) *dom.Document {
	doc := f.newDoc("/profile/")
	doc.Title = "Profile"
	if msg != nil {
		doc.Messages = append(doc.Messages, *msg)
	}
	m := doc.AddModal("changePasswordForm")
	form := doc.AddForm("", http.MethodPost, PasswordAction)
	form.AddHidden("csrfmiddlewaretoken", doc.Token)
	form.Inputs = append(form.Inputs,
		doc.NewInput("new_password", "new_password", "password", ""),
		doc.NewInput("confirm_password", "confirm_password", "password", ""),
	)
	form.Button = doc.NewElement("", "btn", "btn-primary")
	m.Form = form
	doc.PasswordForm = form
	return doc
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
