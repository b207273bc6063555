// Package controller binds a dom.Document to the task server. Committed
// edits are sent as single-field updates, applied optimistically and
// reverted when the update fails. Nothing is retried.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"taskflow/internal/dom"
	"taskflow/internal/service"
)

// Default timings.
const (
	DefaultFlashDuration  = time.Second
	DefaultFadeStep       = 100 * time.Millisecond
	DefaultFormResetDelay = 3 * time.Second
)

// Messages shown to the user.
const (
	MsgUpdateFailed  = "Failed to update task"
	MsgNetworkError  = "Network error while updating task"
	MsgKeyboardHelp  = "Keyboard shortcuts: Escape - Close modals, Enter - Save task edits"
	MsgExportPending = "Export functionality coming soon! This will allow you to download your tasks as CSV or PDF."
)

// Updater sends one field update. service.Service satisfies it.
type Updater interface {
	UpdateTask(ctx context.Context, token string, req service.UpdateRequest) error
}

// Navigator performs full page navigations.
type Navigator interface {
	Submit(form service.Form)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(service.Form)

func (f NavigatorFunc) Submit(form service.Form) { f(form) }

// Timer is a pending timed callback.
type Timer interface {
	Stop() bool
}

// Options configures Init. Only Updater is required.
type Options struct {
	Updater   Updater
	Navigator Navigator
	Notifier  Notifier
	Toolkit   Toolkit

	// LiveToken is queried when the page carries no token.
	LiveToken oauth2.TokenSource

	// Post runs fn on the host's UI goroutine. Defaults to running fn inline.
	Post func(fn func())

	// Go starts background work. Defaults to a new goroutine.
	Go func(fn func())

	// AfterFunc schedules fn after d. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, fn func()) Timer

	Logger *slog.Logger

	FlashDuration  time.Duration
	FadeStep       time.Duration
	FormResetDelay time.Duration
}

func (o *Options) setDefaults() {
	if o.Navigator == nil {
		o.Navigator = NavigatorFunc(func(service.Form) {})
	}
	if o.Notifier == nil {
		o.Notifier = LogNotifier{Logger: o.Logger}
	}
	if o.Toolkit == nil {
		o.Toolkit = BasicToolkit{}
	}
	if o.Post == nil {
		o.Post = func(fn func()) { fn() }
	}
	if o.Go == nil {
		o.Go = func(fn func()) { go fn() }
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.FlashDuration <= 0 {
		o.FlashDuration = DefaultFlashDuration
	}
	if o.FadeStep <= 0 {
		o.FadeStep = DefaultFadeStep
	}
	if o.FormResetDelay <= 0 {
		o.FormResetDelay = DefaultFormResetDelay
	}
}

type flightKey struct {
	taskID string
	field  string
}

// fieldState follows the updates of one task field. confirmed is the value
// the server is known to hold: the element's value before the first pending
// update, replaced by each accepted update newer than the one it came from.
type fieldState struct {
	pending      int
	latest       uint64
	failed       bool
	confirmed    any
	confirmedSeq uint64
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeFailed
	outcomeSuperseded
)

// settled is what an element learns once its field has an answer.
type settled struct {
	// ok reports whether the newest update was accepted.
	ok bool
	// value is what the server holds.
	value any
	// accepted reports whether value came from an accepted update rather
	// than from the page.
	accepted bool
}

type answer struct {
	out       outcome
	reconcile bool
	latest    uint64
	settled
}

// Handle is a document bound to the server. Close releases it.
type Handle struct {
	doc    *dom.Document
	opts   Options
	log    *slog.Logger
	tokens oauth2.TokenSource

	ctx    context.Context
	cancel context.CancelFunc

	// removers is only touched on the UI goroutine.
	removers []func()

	mu       sync.Mutex
	closed   bool
	seq      uint64
	fields   map[flightKey]*fieldState
	timerSeq uint64
	timers   map[uint64]Timer
}

// Init binds doc and returns the handle. It must be called on the UI
// goroutine.
func Init(doc *dom.Document, opts Options) (*Handle, error) {
	if doc == nil {
		return nil, errors.New("controller: nil document")
	}
	if opts.Updater == nil {
		return nil, errors.New("controller: updater required")
	}
	opts.setDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		doc:      doc,
		opts:     opts,
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
		fields:   make(map[flightKey]*fieldState),
		timers:   make(map[uint64]Timer),
	}
	h.tokens = newTokenSource(doc.Token, opts.LiveToken)

	h.initTaskManagement()
	h.initUI()
	h.initProfile()
	h.initCalendar()
	h.initForms()
	h.initKeyboardShortcuts()
	return h, nil
}

// Document returns the bound document.
func (h *Handle) Document() *dom.Document { return h.doc }

// Token returns the page's anti-forgery token, falling back to a live
// lookup when the page had none.
func (h *Handle) Token() (string, error) {
	t, err := h.tokens.Token()
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// SubmitFieldUpdate sends one field update and reports whether the server
// accepted it. Failures are logged and shown as an alert. A newer update
// of the same task field supersedes this one, which then reports false;
// the superseded request still runs to completion.
func (h *Handle) SubmitFieldUpdate(ctx context.Context, taskID, field string, value any) bool {
	key := flightKey{taskID: taskID, field: field}
	ctx, seq, done := h.begin(ctx, key, nil)
	defer done()
	return h.exchange(ctx, key, seq, value).out == outcomeOK
}

// Close removes every listener, cancels in-flight updates and stops
// pending timers. Results that arrive afterwards are dropped. Close must be
// called on the UI goroutine.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for _, t := range h.timers {
		t.Stop()
	}
	clear(h.timers)
	h.mu.Unlock()

	h.cancel()
	for _, remove := range h.removers {
		remove()
	}
	h.removers = nil
}

func (h *Handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// begin registers a new update of key. prior is the element's value
// before this update and becomes the confirmed value when no other update
// of key is pending. Superseded requests are left to finish; only Close
// cancels them. done releases the request context.
func (h *Handle) begin(parent context.Context, key flightKey, prior any) (ctx context.Context, seq uint64, done func()) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(h.ctx, cancel)

	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.fields[key]
	if st == nil {
		st = &fieldState{}
		h.fields[key] = st
	}
	if st.pending == 0 {
		st.confirmed = prior
		st.confirmedSeq = 0
	}
	h.seq++
	st.pending++
	st.latest = h.seq
	st.failed = false
	return ctx, h.seq, func() {
		stop()
		cancel()
	}
}

// finish records the answer to update seq of key and reports whether the
// element must be brought in line with the server.
func (h *Handle) finish(key flightKey, seq uint64, value any, err error) answer {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.fields[key]
	st.pending--
	if err == nil && seq > st.confirmedSeq {
		st.confirmed = value
		st.confirmedSeq = seq
	}
	a := answer{
		out:    outcomeSuperseded,
		latest: st.latest,
		settled: settled{
			ok:       err == nil,
			value:    st.confirmed,
			accepted: st.confirmedSeq > 0,
		},
	}
	if h.closed {
		return a
	}
	if seq == st.latest {
		st.failed = err != nil
		a.out = outcomeOK
		if err != nil {
			a.out = outcomeFailed
		}
		a.reconcile = true
		return a
	}
	// An older update landed after the newest one failed.
	if st.failed && err == nil && st.confirmedSeq == seq {
		a.ok = false
		a.reconcile = true
	}
	return a
}

func (h *Handle) isLatest(key flightKey, seq uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.fields[key]
	return !h.closed && st != nil && st.latest == seq
}

// exchange sends update seq of key and records the answer.
func (h *Handle) exchange(ctx context.Context, key flightKey, seq uint64, value any) answer {
	err := h.send(ctx, key.taskID, key.field, value)
	a := h.finish(key, seq, value, err)
	switch a.out {
	case outcomeFailed:
		h.reportFailure(key.taskID, key.field, err)
	case outcomeSuperseded:
		h.log.Debug("update superseded", "task_id", key.taskID, "field", key.field, "error", err)
	}
	return a
}

func (h *Handle) send(ctx context.Context, taskID, field string, value any) error {
	token, err := h.Token()
	if err != nil {
		return err
	}
	return h.opts.Updater.UpdateTask(ctx, token, service.UpdateRequest{
		TaskID: taskID,
		Field:  field,
		Value:  value,
	})
}

func (h *Handle) reportFailure(taskID, field string, err error) {
	if service.IsRejected(err) || errors.Is(err, service.ErrNoToken) {
		h.log.Warn("failed to update task", "task_id", taskID, "field", field, "error", err)
		h.notify(KindDanger, MsgUpdateFailed)
		return
	}
	h.log.Warn("error updating task", "task_id", taskID, "field", field, "error", err)
	h.notify(KindDanger, MsgNetworkError)
}

// async sends an update in the background. Once the field has an answer,
// apply runs on the UI goroutine with the server's value, unless a newer
// update of the same field has started in the meantime. It must be called
// on the UI goroutine.
func (h *Handle) async(taskID, field string, value, prior any, apply func(settled)) {
	key := flightKey{taskID: taskID, field: field}
	ctx, seq, done := h.begin(h.ctx, key, prior)
	h.opts.Go(func() {
		defer done()
		a := h.exchange(ctx, key, seq, value)
		if !a.reconcile {
			return
		}
		h.opts.Post(func() {
			if !h.isLatest(key, a.latest) {
				return
			}
			apply(a.settled)
		})
	})
}

// after runs fn on the UI goroutine once d has elapsed, unless the handle
// is closed first.
func (h *Handle) after(d time.Duration, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.timerSeq++
	id := h.timerSeq
	h.timers[id] = h.opts.AfterFunc(d, func() {
		h.mu.Lock()
		_, live := h.timers[id]
		delete(h.timers, id)
		h.mu.Unlock()
		if !live {
			return
		}
		h.opts.Post(func() {
			if h.isClosed() {
				return
			}
			fn()
		})
	})
}

func (h *Handle) listen(el *dom.Element, t dom.EventType, fn func(*dom.Event)) {
	h.removers = append(h.removers, el.AddEventListener(t, fn))
}

func (h *Handle) notify(kind Kind, msg string) {
	h.opts.Post(func() {
		h.opts.Notifier.Alert(Alert{Kind: kind, Message: msg})
	})
}

// ShowError, ShowSuccess and ShowInfo display an alert.
func (h *Handle) ShowError(msg string)   { h.notify(KindDanger, msg) }
func (h *Handle) ShowSuccess(msg string) { h.notify(KindSuccess, msg) }
func (h *Handle) ShowInfo(msg string)    { h.notify(KindInfo, msg) }

// ExportTasks is a placeholder until export lands.
func (h *Handle) ExportTasks() { h.ShowInfo(MsgExportPending) }

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

// newTokenSource serves the page token while there is one and otherwise
// asks live, caching the first live answer.
func newTokenSource(pageToken string, live oauth2.TokenSource) oauth2.TokenSource {
	var initial *oauth2.Token
	if pageToken != "" {
		initial = &oauth2.Token{AccessToken: pageToken}
	}
	return oauth2.ReuseTokenSource(initial, tokenSourceFunc(func() (*oauth2.Token, error) {
		if live == nil {
			return nil, service.ErrNoToken
		}
		t, err := live.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", service.ErrNoToken, err)
		}
		if t == nil || t.AccessToken == "" {
			return nil, service.ErrNoToken
		}
		return t, nil
	}))
}
