package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskflow/internal/service"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tasks.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var day = time.Date(2025, time.March, 7, 0, 0, 0, 0, time.Local)

func TestSaveTask_GetOrCreate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, created, err := s.SaveTask(ctx, day, "09:00", "Buy milk", "", "")
	if err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
	if !created {
		t.Error("expected first save to create")
	}
	if first.Priority != service.PriorityMedium {
		t.Errorf("expected default priority medium, got %q", first.Priority)
	}
	if first.TimeSlot != "09:00" || !first.Date.Equal(day) {
		t.Errorf("unexpected slot/date: %q %v", first.TimeSlot, first.Date)
	}

	second, created, err := s.SaveTask(ctx, day, "09:00", "Buy oat milk", "two cartons", service.PriorityHigh)
	if err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
	if created {
		t.Error("expected second save to update")
	}
	if second.ID != first.ID {
		t.Errorf("expected same task %d, got %d", first.ID, second.ID)
	}
	if second.Title != "Buy oat milk" || second.Description != "two cartons" || second.Priority != service.PriorityHigh {
		t.Errorf("unexpected updated task: %+v", second)
	}
}

func TestSaveTask_UntimedAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, _, err := s.SaveTask(ctx, day, "14:00", "Afternoon", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SaveTask(ctx, day, "", "Whenever", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SaveTask(ctx, day, "05:00", "Early", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SaveTask(ctx, day.AddDate(0, 0, 1), "05:00", "Tomorrow", "", ""); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.TasksOn(ctx, day)
	if err != nil {
		t.Fatalf("TasksOn: %v", err)
	}
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	want := []string{"Whenever", "Early", "Afternoon"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("expected %v, got %v", want, titles)
			break
		}
	}
}

func TestSaveTask_RejectsBadPriority(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.SaveTask(context.Background(), day, "09:00", "x", "", "urgent")
	if !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestUpdateField(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	task, _, err := s.SaveTask(ctx, day, "09:00", "Buy milk", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateField(ctx, task.ID, service.FieldCompleted, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.UpdateField(ctx, task.ID, service.FieldTitle, "Buy bread"); err != nil {
		t.Fatalf("title: %v", err)
	}
	if err := s.UpdateField(ctx, task.ID, service.FieldDescription, "wholegrain"); err != nil {
		t.Fatalf("description: %v", err)
	}
	if err := s.UpdateField(ctx, task.ID, service.FieldPriority, service.PriorityLow); err != nil {
		t.Fatalf("priority: %v", err)
	}

	got, err := s.Task(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed || got.Title != "Buy bread" || got.Description != "wholegrain" || got.Priority != service.PriorityLow {
		t.Errorf("unexpected task after updates: %+v", got)
	}

	if err := s.UpdateField(ctx, task.ID, service.FieldCompleted, "false"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Task(ctx, task.ID); got.Completed {
		t.Error("expected \"false\" to uncomplete the task")
	}
}

func TestUpdateField_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	task, _, err := s.SaveTask(ctx, day, "09:00", "Buy milk", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateField(ctx, task.ID+100, service.FieldTitle, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateField(ctx, task.ID, "owner", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if err := s.UpdateField(ctx, task.ID, service.FieldPriority, "urgent"); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("expected ErrInvalidPriority, got %v", err)
	}
	if _, err := s.Task(ctx, task.ID+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	h, err := s.PasswordHash(ctx)
	if err != nil || h != "" {
		t.Fatalf("expected no hash, got %q, %v", h, err)
	}
	for _, want := range []string{"hash-1", "hash-2"} {
		if err := s.SetPasswordHash(ctx, want); err != nil {
			t.Fatal(err)
		}
		got, err := s.PasswordHash(ctx)
		if err != nil || got != want {
			t.Errorf("expected %q, got %q, %v", want, got, err)
		}
	}
}

func TestTruthy(t *testing.T) {
	cases := map[any]bool{
		true: true, false: false, "true": true, "false": false, "0": false,
		"yes": true, "": false, float64(1): true, float64(0): false,
	}
	for in, want := range cases {
		if got := truthy(in); got != want {
			t.Errorf("truthy(%#v): expected %v, got %v", in, want, got)
		}
	}
	if truthy(nil) {
		t.Error("expected nil to be false")
	}
}
