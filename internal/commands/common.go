package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskflow/internal/calendar"
	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/dom"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

// DateLayout is the format of --date values.
const DateLayout = "2006-01-02"

// ParseDate resolves a --date value relative to now. Empty means today.
func ParseDate(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	var y, m, d int
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s (want %s)", s, DateLayout)
	}
	return calendar.Day(y, m, d)
}

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrNoToken):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case service.IsRejected(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// printMessages prints the notices of a page and reports whether any of
// them is an error.
func printMessages(cfg *config.Config, doc *dom.Document, out, errOut io.Writer) (failed bool) {
	for _, m := range doc.Messages {
		if m.Level == string(controller.KindDanger) || m.Level == "error" {
			fmt.Fprintf(errOut, "error: %s\n", m.Text)
			failed = true
			continue
		}
		if !cfg.Quiet {
			fmt.Fprintln(out, m.Text)
		}
	}
	return failed
}

// terminalNotifier prints controller alerts. Errors go to errOut; the rest
// go to out unless quiet.
type terminalNotifier struct {
	quiet  bool
	out    io.Writer
	errOut io.Writer
}

func (n terminalNotifier) Alert(a controller.Alert) {
	if a.Kind == controller.KindDanger {
		fmt.Fprintf(n.errOut, "error: %s\n", a.Message)
		return
	}
	if !n.quiet {
		fmt.Fprintln(n.out, a.Message)
	}
}

// recordingUpdater remembers the outcome of the last update it sent.
type recordingUpdater struct {
	svc service.Service

	mu     sync.Mutex
	called bool
	err    error
}

func (u *recordingUpdater) UpdateTask(ctx context.Context, token string, req service.UpdateRequest) error {
	err := u.svc.UpdateTask(ctx, token, req)
	u.mu.Lock()
	u.called, u.err = true, err
	u.mu.Unlock()
	return err
}

// failure returns the exit code and error of a failed update. An update
// that never reached the server failed for want of a token.
func (u *recordingUpdater) failure() (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	err := u.err
	if !u.called || err == nil {
		err = service.ErrNoToken
	}
	switch {
	case errors.Is(err, service.ErrNoToken):
		return exitcode.AuthError, err
	case service.IsRejected(err):
		return exitcode.UserError, err
	default:
		return exitcode.BackendError, err
	}
}

// session is a document bound to the server for the length of one command.
// Updates run inline, so every event has finished when it returns.
type session struct {
	*controller.Handle
	updater *recordingUpdater
}

func bind(ctx context.Context, cfg *config.Config, svc service.Service, doc *dom.Document, nav controller.Navigator, out, errOut io.Writer) (*session, error) {
	if cfg.CSRFToken != "" {
		doc.Token = cfg.CSRFToken
	}
	u := &recordingUpdater{svc: svc}
	h, err := controller.Init(doc, controller.Options{
		Updater:   u,
		Navigator: nav,
		Notifier:  terminalNotifier{quiet: cfg.Quiet, out: out, errOut: errOut},
		LiveToken: service.TokenSource(ctx, svc),
		Go:        func(fn func()) { fn() },
		Logger:    slog.Default(),
	})
	if err != nil {
		return nil, err
	}
	return &session{Handle: h, updater: u}, nil
}

// formNavigator submits forms through the service and keeps the page it
// lands on.
type formNavigator struct {
	ctx context.Context
	svc service.Service

	submitted bool
	doc       *dom.Document
	err       error
}

func (n *formNavigator) Submit(form service.Form) {
	n.submitted = true
	n.doc, n.err = n.svc.SubmitForm(n.ctx, form)
}
