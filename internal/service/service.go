// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"time"

	"taskflow/internal/dom"
)

// Service defines the interface to the task server.
// Commands and the terminal UI never speak HTTP directly.
type Service interface {
	// DayPage fetches and parses the page of one day.
	DayPage(ctx context.Context, day time.Time) (*dom.Document, error)

	// MonthPage fetches and parses the calendar of a month.
	MonthPage(ctx context.Context, year int, month time.Month) (*dom.Document, error)

	// ProfilePage fetches and parses the page holding the password form.
	ProfilePage(ctx context.Context) (*dom.Document, error)

	// Token performs a live lookup of the anti-forgery token.
	Token(ctx context.Context) (string, error)

	// UpdateTask sends one field update with token attached.
	// A success:false answer is returned as *RejectedError.
	UpdateTask(ctx context.Context, token string, req UpdateRequest) error

	// SubmitForm posts a form and returns the page the server navigates to.
	SubmitForm(ctx context.Context, form Form) (*dom.Document, error)
}
