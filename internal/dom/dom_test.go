package dom

import "testing"

func TestDispatch_ListenersRunInOrder(t *testing.T) {
	doc := New()
	el := doc.NewElement("x")

	var got []int
	el.AddEventListener(EventClick, func(*Event) { got = append(got, 1) })
	el.AddEventListener(EventClick, func(*Event) { got = append(got, 2) })

	if !el.Dispatch(&Event{Type: EventClick}) {
		t.Fatal("expected default action to proceed")
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestDispatch_PreventDefault(t *testing.T) {
	doc := New()
	f := doc.AddForm("f", "POST", "/x/")
	f.AddEventListener(EventSubmit, func(ev *Event) { ev.PreventDefault() })

	if f.Submit() {
		t.Error("expected submit to be blocked")
	}
}

func TestAddEventListener_Remove(t *testing.T) {
	doc := New()
	el := doc.NewElement("x")

	calls := 0
	remove := el.AddEventListener(EventClick, func(*Event) { calls++ })
	remove()
	el.Dispatch(&Event{Type: EventClick})

	if calls != 0 {
		t.Errorf("expected removed listener not to run, ran %d times", calls)
	}
	if el.ListenerCount(EventClick) != 0 {
		t.Errorf("expected 0 listeners, got %d", el.ListenerCount(EventClick))
	}
}

func TestAddEventListener_RemoveDuringDispatch(t *testing.T) {
	doc := New()
	el := doc.NewElement("x")

	second := 0
	var removeSecond func()
	el.AddEventListener(EventClick, func(*Event) { removeSecond() })
	removeSecond = el.AddEventListener(EventClick, func(*Event) { second++ })

	el.Dispatch(&Event{Type: EventClick})
	if second != 0 {
		t.Errorf("expected listener removed mid-dispatch to be skipped, ran %d times", second)
	}
}

func TestFocus_MovesBetweenElements(t *testing.T) {
	doc := New()
	a := doc.NewInput("a", "a", "text", "")
	b := doc.NewInput("b", "b", "text", "")

	var events []string
	a.AddEventListener(EventBlur, func(*Event) { events = append(events, "a:blur") })
	b.AddEventListener(EventFocus, func(*Event) { events = append(events, "b:focus") })

	a.Focus()
	b.Focus()

	if doc.ActiveElement() != b.Element {
		t.Fatal("expected b to be active")
	}
	if a.Focused() {
		t.Error("expected a to lose focus")
	}
	if len(events) != 2 || events[0] != "a:blur" || events[1] != "b:focus" {
		t.Errorf("unexpected event order: %v", events)
	}
}

func TestBlur_NotFocusedIsNoop(t *testing.T) {
	doc := New()
	in := doc.NewInput("a", "a", "text", "")
	blurs := 0
	in.AddEventListener(EventBlur, func(*Event) { blurs++ })

	in.Blur()
	if blurs != 0 {
		t.Errorf("expected no blur event, got %d", blurs)
	}
}

func TestClassList(t *testing.T) {
	doc := New()
	el := doc.NewElement("", "task-item")

	el.AddClass("task-completed")
	el.AddClass("task-completed")
	if got := el.Classes(); len(got) != 2 {
		t.Errorf("expected 2 classes, got %v", got)
	}
	el.RemoveClass("task-completed")
	if el.HasClass("task-completed") {
		t.Error("expected class to be removed")
	}
}

func TestSetStyle_EmptyRemoves(t *testing.T) {
	doc := New()
	el := doc.NewElement("")
	el.SetStyle("background-color", "#d4edda")
	el.SetStyle("background-color", "")
	if el.Style("background-color") != "" {
		t.Error("expected style to be cleared")
	}
}

func TestForm_Values(t *testing.T) {
	doc := New()
	f := doc.AddForm("", "POST", "/tasks/2025/1/2/")
	f.AddHidden("csrfmiddlewaretoken", "tok")
	f.AddHidden("task_title", "Buy milk")

	v := f.Values()
	if v.Get("csrfmiddlewaretoken") != "tok" || v.Get("task_title") != "Buy milk" {
		t.Errorf("unexpected values: %v", v)
	}
}

func TestTodayIndex(t *testing.T) {
	doc := New()
	doc.AddCalendarDay("1", "/tasks/2025/1/1/", false)
	doc.AddCalendarDay("2", "/tasks/2025/1/2/", true)

	if got := doc.TodayIndex(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := New().TodayIndex(); got != -1 {
		t.Errorf("expected -1 for empty calendar, got %d", got)
	}
}

func TestModal_ShowHide(t *testing.T) {
	doc := New()
	m := doc.AddModal("changePasswordForm")

	shown := 0
	m.AddEventListener(EventShown, func(*Event) { shown++ })
	m.Show()
	m.Show()

	if shown != 1 {
		t.Errorf("expected one shown event, got %d", shown)
	}
	if doc.OpenModal() != m {
		t.Error("expected modal to be open")
	}
	m.Hide()
	if doc.OpenModal() != nil {
		t.Error("expected no open modal")
	}
}
