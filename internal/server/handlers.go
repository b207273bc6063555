package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/calendar"
	"taskflow/internal/controller"
	"taskflow/internal/service"
	"taskflow/internal/store"
)

// Messages shown after form submissions.
const (
	MsgTaskSaved       = "Task saved successfully!"
	MsgTitleRequired   = "Task title is required."
	MsgInvalidDate     = "Invalid date selected."
	MsgInvalidPriority = "Invalid priority."
	MsgPasswordChanged = "Password changed successfully."
)

// maxUpdateBody bounds the JSON accepted by the update endpoint.
const maxUpdateBody = 64 << 10

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	today := s.now()
	year, month := today.Year(), today.Month()
	q := r.URL.Query()
	y, errY := strconv.Atoi(q.Get("year"))
	m, errM := strconv.Atoi(q.Get("month"))
	if q.Has("year") || q.Has("month") {
		// Unparsable or out-of-range values fall back to the current month.
		if errY == nil && errM == nil && m >= 1 && m <= 12 && y >= 1 {
			year, month = y, time.Month(m)
		}
	}

	var weeks [][]calendarCell
	for _, week := range calendar.Month(year, month) {
		row := make([]calendarCell, len(week))
		for i, d := range week {
			if d == 0 {
				continue
			}
			date := time.Date(year, month, d, 0, 0, 0, 0, time.Local)
			row[i] = calendarCell{
				Day:   d,
				Href:  calendar.DayPath(date),
				Today: year == today.Year() && month == today.Month() && d == today.Day(),
			}
		}
		weeks = append(weeks, row)
	}
	py, pm := calendar.Prev(year, month)
	ny, nm := calendar.Next(year, month)

	s.render(w, "home", homeData{
		layoutData: layoutData{
			Title:    fmt.Sprintf("%s %d", month, year),
			Token:    csrfToken(r),
			Messages: takeFlash(w, r),
		},
		Weeks:    weeks,
		PrevHref: calendar.MonthPath(py, pm),
		NextHref: calendar.MonthPath(ny, nm),
	})
}

// dayParam reads the date from the route. ok is false when the path names a
// date that does not exist; the client has then been redirected home.
func (s *Server) dayParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	y, _ := strconv.Atoi(chi.URLParam(r, "year"))
	m, _ := strconv.Atoi(chi.URLParam(r, "month"))
	d, _ := strconv.Atoi(chi.URLParam(r, "day"))
	day, err := calendar.Day(y, m, d)
	if err != nil {
		flash(w, LevelError, MsgInvalidDate)
		http.Redirect(w, r, "/", http.StatusFound)
		return time.Time{}, false
	}
	return day, true
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}
	tasks, err := s.store.TasksOn(r.Context(), day)
	if err != nil {
		s.internalError(w, err)
		return
	}

	bySlot := make(map[string]*taskView)
	var general []*taskView
	for _, t := range tasks {
		if t.TimeSlot == "" {
			general = append(general, newTaskView(t))
			continue
		}
		bySlot[t.TimeSlot] = newTaskView(t)
	}
	var slots []slotView
	for _, sl := range calendar.Slots() {
		slots = append(slots, slotView{Slot: sl, Task: bySlot[sl.Value]})
	}

	s.render(w, "day", dayData{
		layoutData: layoutData{
			Title:    day.Format("Monday, January 02, 2006"),
			Token:    csrfToken(r),
			Messages: takeFlash(w, r),
		},
		Action:    calendar.DayPath(day),
		PrevHref:  calendar.DayPath(day.AddDate(0, 0, -1)),
		NextHref:  calendar.DayPath(day.AddDate(0, 0, 1)),
		MonthHref: calendar.MonthPath(day.Year(), day.Month()),
		Slots:     slots,
		General:   general,
	})
}

// handleSaveTask creates the task of a slot or overwrites the one there,
// then sends the client back to the day.
func (s *Server) handleSaveTask(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayParam(w, r)
	if !ok {
		return
	}
	back := calendar.DayPath(day)

	title := strings.TrimSpace(r.PostFormValue("task_title"))
	if title == "" {
		flash(w, LevelError, MsgTitleRequired)
		http.Redirect(w, r, back, http.StatusFound)
		return
	}
	// An unparsable slot files the task under the day as a whole.
	slot := ""
	if v := r.PostFormValue("time_slot"); v != "" {
		if t, err := calendar.ParseSlot(v); err == nil {
			slot = t.Format(store.SlotLayout)
		}
	}
	priority := r.PostFormValue("task_priority")
	if priority == "" {
		priority = service.PriorityMedium
	}

	t, created, err := s.store.SaveTask(r.Context(), day, slot, title, r.PostFormValue("task_description"), priority)
	switch {
	case errors.Is(err, store.ErrInvalidPriority):
		flash(w, LevelError, MsgInvalidPriority)
	case err != nil:
		s.internalError(w, err)
		return
	default:
		s.log.Info("task saved", "task_id", t.ID, "created", created, "date", t.Date.Format(store.DateLayout), "slot", t.TimeSlot)
		flash(w, LevelSuccess, MsgTaskSaved)
	}
	http.Redirect(w, r, back, http.StatusFound)
}

type updateBody struct {
	TaskID any    `json:"task_id"`
	Field  string `json:"field"`
	Value  any    `json:"value"`
}

// handleUpdateTask applies one field update. Failures are answered with
// success false and a 200, the way the client expects them.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeResult(w, service.UpdateResult{Error: "Invalid request"})
		return
	}

	var body updateBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBody)).Decode(&body); err != nil {
		writeResult(w, service.UpdateResult{Error: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}
	id, err := taskID(body.TaskID)
	if err != nil {
		writeResult(w, service.UpdateResult{Error: err.Error()})
		return
	}

	err = s.store.UpdateField(r.Context(), id, body.Field, body.Value)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeResult(w, service.UpdateResult{Error: "Task not found"})
	case errors.Is(err, store.ErrUnknownField), errors.Is(err, store.ErrInvalidPriority):
		writeResult(w, service.UpdateResult{Error: err.Error()})
	case err != nil:
		s.log.Error("update task", "task_id", id, "field", body.Field, "error", err)
		writeResult(w, service.UpdateResult{Error: "internal error"})
	default:
		s.log.Debug("task updated", "task_id", id, "field", body.Field)
		writeResult(w, service.UpdateResult{Success: true})
	}
}

// taskID accepts the id as a JSON string or number.
func taskID(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return int64(x), nil
		}
	case string:
		if id, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("invalid task id: %v", v)
}

func writeResult(w http.ResponseWriter, res service.UpdateResult) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	hash, err := s.store.PasswordHash(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.render(w, "profile", profileData{
		layoutData: layoutData{
			Title:    "Profile",
			Token:    csrfToken(r),
			Messages: takeFlash(w, r),
		},
		HasPassword: hash != "",
	})
}

// handleChangePassword checks the same rules as the client before storing
// the new password's hash.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	newPassword := r.PostFormValue(controller.FieldNewPassword)
	confirm := r.PostFormValue(controller.FieldConfirmPassword)
	if err := controller.ValidatePassword(newPassword, confirm); err != nil {
		flash(w, LevelError, controller.PasswordMessage(err))
		http.Redirect(w, r, "/profile/", http.StatusFound)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		s.internalError(w, fmt.Errorf("hash password: %w", err))
		return
	}
	if err := s.store.SetPasswordHash(r.Context(), string(hash)); err != nil {
		s.internalError(w, err)
		return
	}
	s.log.Info("password changed")
	flash(w, LevelSuccess, MsgPasswordChanged)
	http.Redirect(w, r, "/profile/", http.StatusFound)
}

// checkPassword reports whether password matches the stored hash. Nothing
// gates on it until there is a login page.
func (s *Server) checkPassword(ctx context.Context, password string) (bool, error) {
	hash, err := s.store.PasswordHash(ctx)
	if err != nil || hash == "" {
		return false, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return err == nil, err
}
