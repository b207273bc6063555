// Package tui hosts task pages in the terminal. It renders a dom.Document
// with bubbletea and feeds key presses into it as events; the update
// controller does the rest.
//
// Update runs on bubbletea's event loop, which is the UI goroutine the
// controller expects. Work the controller finishes elsewhere comes back
// through the posts channel, drained by a command that is re-armed after
// every delivery.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/calendar"
	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/dom"
	"taskflow/internal/service"
)

// postBuffer bounds callbacks queued while Update is busy.
const postBuffer = 256

// Run opens the page of day and blocks until the user quits. Logs go to
// the config directory's log file for as long as the screen is taken.
func Run(ctx context.Context, cfg *config.Config, svc service.Service, day time.Time) error {
	if err := os.MkdirAll(cfg.LogsDir(), 0700); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	prev := slog.Default()
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	defer slog.SetDefault(prev)

	m := New(ctx, cfg, svc, day)
	m.log = logger
	defer m.Close()
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

type view int

const (
	viewLoading view = iota
	viewDay
	viewMonth
	viewProfile
)

type pageMsg struct {
	doc   *dom.Document
	view  view
	day   time.Time
	year  int
	month time.Month
	err   error
}

type postMsg struct{ fn func() }

type alertExpiredMsg struct{ id int }

type alertItem struct {
	id int
	controller.Alert
}

// Model is the bubbletea model of the terminal UI.
type Model struct {
	ctx context.Context
	cfg *config.Config
	svc service.Service
	log *slog.Logger

	view  view
	day   time.Time
	year  int
	month time.Month

	doc      *dom.Document
	handle   *controller.Handle
	rows     []row
	cursor   int
	tooltips []string

	editing      *dom.Input
	editOriginal string
	editor       textinput.Model

	password      [2]textinput.Model
	passwordFocus int

	alerts    []alertItem
	nextAlert int

	posts   chan func()
	pending []tea.Cmd

	// goFn, postFn and afterFn are handed to the controller.
	goFn    func(fn func())
	postFn  func(fn func())
	afterFn func(d time.Duration, fn func()) controller.Timer

	width int
}

// New returns a model that starts on the page of day.
func New(ctx context.Context, cfg *config.Config, svc service.Service, day time.Time) *Model {
	m := &Model{
		ctx:   ctx,
		cfg:   cfg,
		svc:   svc,
		log:   slog.Default(),
		day:   day,
		year:  day.Year(),
		month: day.Month(),
		posts: make(chan func(), postBuffer),
		goFn:  func(fn func()) { go fn() },
	}
	m.postFn = m.post
	m.editor = textinput.New()
	m.editor.CharLimit = 200
	for i, label := range []string{"New password", "Confirm password"} {
		ti := textinput.New()
		ti.Placeholder = label
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		m.password[i] = ti
	}
	return m
}

// Init loads the first page and starts draining posted callbacks.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForPost(), m.loadDay(m.day))
}

// Close releases the bound page.
func (m *Model) Close() {
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case postMsg:
		msg.fn()
		cmd = m.waitForPost()
	case pageMsg:
		m.openPage(msg)
	case alertExpiredMsg:
		m.dismissAlert(msg.id)
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}
	return m, m.flush(cmd)
}

// flush returns cmd together with the commands queued by event listeners.
func (m *Model) flush(cmd tea.Cmd) tea.Cmd {
	cmds := append(m.pending, cmd)
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) queue(cmd tea.Cmd) { m.pending = append(m.pending, cmd) }

// post hands fn to the event loop.
func (m *Model) post(fn func()) {
	select {
	case m.posts <- fn:
	case <-m.ctx.Done():
	}
}

func (m *Model) waitForPost() tea.Cmd {
	return func() tea.Msg {
		select {
		case fn := <-m.posts:
			return postMsg{fn: fn}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) loadDay(day time.Time) tea.Cmd {
	return func() tea.Msg {
		doc, err := m.svc.DayPage(m.ctx, day)
		return pageMsg{doc: doc, view: viewDay, day: day, err: err}
	}
}

func (m *Model) loadMonth(year int, month time.Month) tea.Cmd {
	return func() tea.Msg {
		doc, err := m.svc.MonthPage(m.ctx, year, month)
		return pageMsg{doc: doc, view: viewMonth, year: year, month: month, err: err}
	}
}

func (m *Model) loadProfile() tea.Cmd {
	return func() tea.Msg {
		doc, err := m.svc.ProfilePage(m.ctx)
		return pageMsg{doc: doc, view: viewProfile, err: err}
	}
}

// submit sends a form and lands on the page the server answers with.
func (m *Model) submit(form service.Form, landing view) tea.Cmd {
	day := m.day
	return func() tea.Msg {
		doc, err := m.svc.SubmitForm(m.ctx, form)
		if err == nil && landing == viewDay {
			if d, perr := calendar.ParseDayPath(doc.URL); perr == nil {
				day = d
			}
		}
		return pageMsg{doc: doc, view: landing, day: day, err: err}
	}
}

// openPage binds a freshly loaded page and switches to it.
func (m *Model) openPage(msg pageMsg) {
	if msg.err != nil {
		m.log.Warn("load page failed", "error", msg.err)
		m.alert(controller.Alert{Kind: controller.KindDanger, Message: msg.err.Error()})
		return
	}
	m.Close()
	m.editing = nil
	m.tooltips = nil

	doc := msg.doc
	if m.cfg.CSRFToken != "" {
		doc.Token = m.cfg.CSRFToken
	}
	h, err := controller.Init(doc, controller.Options{
		Updater:   m.svc,
		Navigator: navigator{m},
		Notifier:  notifier{m},
		Toolkit:   toolkit{m},
		LiveToken: service.TokenSource(m.ctx, m.svc),
		Post:      m.postFn,
		Go:        m.goFn,
		AfterFunc: m.afterFn,
		Logger:    m.log,
	})
	if err != nil {
		m.alert(controller.Alert{Kind: controller.KindDanger, Message: err.Error()})
		return
	}
	m.doc, m.handle, m.view = doc, h, msg.view

	succeeded := false
	for _, note := range doc.Messages {
		kind := controller.Kind(note.Level)
		succeeded = succeeded || kind == controller.KindSuccess
		m.alert(controller.Alert{Kind: kind, Message: note.Text})
	}

	switch msg.view {
	case viewDay:
		m.day, m.year, m.month = msg.day, msg.day.Year(), msg.day.Month()
		m.rows = buildRows(doc, m.tooltips)
		m.cursor = min(m.cursor, max(0, len(m.rows)-1))
	case viewMonth:
		m.year, m.month = msg.year, msg.month
		for _, l := range doc.CalendarDays {
			l.AddEventListener(dom.EventClick, func(*dom.Event) {
				if d, err := calendar.ParseDayPath(l.Href); err == nil {
					m.queue(m.loadDay(d))
				}
			})
		}
		if i := doc.TodayIndex(); i >= 0 {
			doc.CalendarDays[i].Focus()
		}
	case viewProfile:
		if succeeded {
			m.queue(m.loadDay(m.day))
			return
		}
		m.openPasswordModal()
	}
}

func (m *Model) openPasswordModal() {
	modal := m.doc.Modal("changePasswordForm")
	if modal == nil || m.doc.PasswordForm == nil {
		m.alert(controller.Alert{Kind: controller.KindDanger, Message: "profile page has no password form"})
		m.queue(m.loadDay(m.day))
		return
	}
	modal.AddEventListener(dom.EventHidden, func(*dom.Event) {
		m.queue(m.loadDay(m.day))
	})
	for i := range m.password {
		m.password[i].SetValue("")
		m.password[i].Blur()
	}
	m.passwordFocus = 0
	m.queue(m.password[0].Focus())
	modal.Show()
}

// alert shows a until AlertTTL passes or the user dismisses it.
func (m *Model) alert(a controller.Alert) {
	id := m.nextAlert
	m.nextAlert++
	m.alerts = append(m.alerts, alertItem{id: id, Alert: a})
	m.queue(tea.Tick(controller.AlertTTL, func(time.Time) tea.Msg {
		return alertExpiredMsg{id: id}
	}))
}

func (m *Model) dismissAlert(id int) {
	for i, a := range m.alerts {
		if a.id == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return
		}
	}
}
