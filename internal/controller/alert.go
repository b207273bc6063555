package controller

import (
	"log/slog"
	"time"
)

// Kind is the style of an alert.
type Kind string

const (
	KindDanger  Kind = "danger"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
)

// AlertTTL is how long a host shows an alert before removing it.
const AlertTTL = 5 * time.Second

// Alert is a transient, dismissible message for the user.
type Alert struct {
	Kind    Kind
	Message string
}

// Notifier displays alerts. Hosts remove each alert after AlertTTL unless
// the user dismisses it first.
type Notifier interface {
	Alert(a Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Alert)

func (f NotifierFunc) Alert(a Alert) { f(a) }

// LogNotifier writes alerts to a logger. It is the default when the host
// has nowhere to show them.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Alert(a Alert) {
	l := n.Logger
	if l == nil {
		l = slog.Default()
	}
	switch a.Kind {
	case KindDanger:
		l.Error(a.Message)
	default:
		l.Info(a.Message)
	}
}
