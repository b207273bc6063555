package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"taskflow/internal/calendar"
	"taskflow/internal/dom"
	"taskflow/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds one template set per page, each joined with the layout.
type pages struct {
	sets map[string]*template.Template
}

func loadPages() (*pages, error) {
	p := &pages{sets: make(map[string]*template.Template)}
	for _, name := range []string{"home", "day", "profile"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.sets[name] = t
	}
	return p, nil
}

// render executes a page into a buffer first so a template error still
// yields a clean 500.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.sets[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type layoutData struct {
	Title    string
	Token    string
	Messages []dom.Message
}

type calendarCell struct {
	Day   int
	Href  string
	Today bool
}

type homeData struct {
	layoutData
	Weeks    [][]calendarCell
	PrevHref string
	NextHref string
}

type taskView struct {
	ID          int64
	Title       string
	Description string
	Priority    string
	TimeSlot    string
	Completed   bool
}

func newTaskView(t store.Task) *taskView {
	return &taskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		TimeSlot:    t.TimeSlot,
		Completed:   t.Completed,
	}
}

type slotView struct {
	calendar.Slot
	Task *taskView
}

type dayData struct {
	layoutData
	Action    string
	PrevHref  string
	NextHref  string
	MonthHref string
	Slots     []slotView
	General   []*taskView
}

type profileData struct {
	layoutData
	HasPassword bool
}
