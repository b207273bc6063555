package controller_test

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/controller"
	"taskflow/internal/dom"
	"taskflow/internal/service"
)

// heldCall is an update waiting for the test to answer it.
type heldCall struct {
	req   service.UpdateRequest
	reply chan error
}

// holdingUpdater hands every update to the test and blocks until it is
// answered.
type holdingUpdater struct {
	calls chan heldCall
}

func (u *holdingUpdater) UpdateTask(ctx context.Context, _ string, req service.UpdateRequest) error {
	c := heldCall{req: req, reply: make(chan error)}
	select {
	case u.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// uiHarness runs updates on real goroutines and queues posts for the test
// goroutine, which plays the UI goroutine.
type uiHarness struct {
	updater  *holdingUpdater
	posts    chan func()
	finished chan struct{}
	alerts   []controller.Alert
}

func newUIHarness(t *testing.T, doc *dom.Document) *uiHarness {
	t.Helper()
	u := &uiHarness{
		updater:  &holdingUpdater{calls: make(chan heldCall)},
		posts:    make(chan func(), 16),
		finished: make(chan struct{}, 16),
	}
	handle, err := controller.Init(doc, controller.Options{
		Updater:  u.updater,
		Notifier: controller.NotifierFunc(func(a controller.Alert) { u.alerts = append(u.alerts, a) }),
		Post:     func(fn func()) { u.posts <- fn },
		Go: func(fn func()) {
			go func() {
				fn()
				u.finished <- struct{}{}
			}()
		},
		AfterFunc: (&fakeClock{}).AfterFunc,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(handle.Close)
	return u
}

// next returns the update the controller just sent.
func (u *uiHarness) next(t *testing.T) heldCall {
	t.Helper()
	select {
	case c := <-u.updater.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an update")
		return heldCall{}
	}
}

// answer replies to c and runs whatever the controller posts in response.
func (u *uiHarness) answer(t *testing.T, c heldCall, err error) {
	t.Helper()
	c.reply <- err
	select {
	case <-u.finished:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the update to finish")
	}
	for {
		select {
		case fn := <-u.posts:
			fn()
		default:
			return
		}
	}
}

func TestCheckboxDoubleToggleEndsOnServerValue(t *testing.T) {
	rejected := &service.RejectedError{Message: "Task not found"}
	tests := []struct {
		name      string
		first     bool // answer the older toggle first
		olderErr  error
		newerErr  error
		checked   bool
		completed bool
		alerts    int
	}{
		{"older then newer accepted", true, nil, nil, false, false, 0},
		{"newer accepted then older accepted", false, nil, nil, false, false, 0},
		{"older rejected then newer accepted", true, rejected, nil, false, false, 0},
		{"both rejected", false, rejected, rejected, false, false, 1},
		{"older accepted then newer rejected", true, nil, rejected, true, true, 1},
		{"newer rejected then older accepted", false, nil, rejected, true, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, item := taskDoc()
			cb := doc.AddCheckbox("42", false, item)
			u := newUIHarness(t, doc)

			cb.Toggle()
			older := u.next(t)
			cb.Toggle()
			newer := u.next(t)

			if older.req.Value != true || newer.req.Value != false {
				t.Fatalf("expected true then false, got %v then %v", older.req.Value, newer.req.Value)
			}

			if tt.first {
				u.answer(t, older, tt.olderErr)
				u.answer(t, newer, tt.newerErr)
			} else {
				u.answer(t, newer, tt.newerErr)
				u.answer(t, older, tt.olderErr)
			}

			if cb.Checked != tt.checked {
				t.Errorf("expected checked=%v, got %v", tt.checked, cb.Checked)
			}
			if got := item.HasClass(controller.ClassCompleted); got != tt.completed {
				t.Errorf("expected completed class %v, got %v", tt.completed, got)
			}
			if len(u.alerts) != tt.alerts {
				t.Errorf("expected %d alerts, got %v", tt.alerts, u.alerts)
			}
		})
	}
}

func TestTitleDoubleEditEndsOnServerValue(t *testing.T) {
	rejected := &service.RejectedError{Message: "Invalid field"}
	tests := []struct {
		name     string
		first    bool // answer the older edit first
		olderErr error
		newerErr error
		value    string
		flashed  bool
		alerts   int
	}{
		{"older then newer accepted", true, nil, nil, "C", true, 0},
		{"newer accepted then older accepted", false, nil, nil, "C", true, 0},
		{"both rejected", true, rejected, rejected, "A", false, 1},
		{"newer rejected while older pending", false, rejected, rejected, "A", false, 1},
		{"older accepted then newer rejected", true, nil, rejected, "B", false, 1},
		{"newer rejected then older accepted", false, nil, rejected, "B", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, item := taskDoc()
			in := doc.AddTitleInput("9", service.FieldTitle, "A", item)
			u := newUIHarness(t, doc)

			in.Focus()
			in.Value = "B"
			in.Blur()
			older := u.next(t)
			in.Focus()
			in.Value = "C"
			in.Blur()
			newer := u.next(t)

			if older.req.Value != "B" || newer.req.Value != "C" {
				t.Fatalf("expected B then C, got %v then %v", older.req.Value, newer.req.Value)
			}

			if tt.first {
				u.answer(t, older, tt.olderErr)
				u.answer(t, newer, tt.newerErr)
			} else {
				u.answer(t, newer, tt.newerErr)
				u.answer(t, older, tt.olderErr)
			}

			if in.Value != tt.value {
				t.Errorf("expected %q, got %q", tt.value, in.Value)
			}
			flashed := in.Style(controller.StyleBackground) == controller.SuccessColor
			if flashed != tt.flashed {
				t.Errorf("expected flash %v, got %v", tt.flashed, flashed)
			}
			if len(u.alerts) != tt.alerts {
				t.Errorf("expected %d alerts, got %v", tt.alerts, u.alerts)
			}
		})
	}
}

func TestSupersededUpdateIsNotCancelled(t *testing.T) {
	doc, item := taskDoc()
	cb := doc.AddCheckbox("42", false, item)
	u := newUIHarness(t, doc)

	cb.Toggle()
	older := u.next(t)
	cb.Toggle()
	newer := u.next(t)
	u.answer(t, newer, nil)

	select {
	case older.reply <- nil:
	case <-time.After(time.Second):
		t.Fatal("expected the older request to still be waiting for its answer")
	}
	select {
	case <-u.finished:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the older update")
	}
	if cb.Checked {
		t.Error("expected the newer state to stay")
	}
}
