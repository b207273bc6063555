package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"unicode/utf8"

	"taskflow/internal/dom"
	"taskflow/internal/page"
	"taskflow/internal/service"
)

// DefaultPriority is given to tasks created from the quick-add input.
const DefaultPriority = service.PriorityMedium

// Form field names understood by the server.
const (
	FieldTaskTitle    = "task_title"
	FieldTimeSlot     = "time_slot"
	FieldTaskPriority = "task_priority"

	FieldNewPassword     = "new_password"
	FieldConfirmPassword = "confirm_password"
)

// BuildTaskForm returns the hidden form that creates a task in a time slot.
func BuildTaskForm(token, title, timeSlot string) service.Form {
	fields := url.Values{}
	fields.Set(page.TokenField, token)
	fields.Set(FieldTaskTitle, title)
	fields.Set(FieldTimeSlot, timeSlot)
	fields.Set(FieldTaskPriority, DefaultPriority)
	return service.Form{Method: http.MethodPost, Fields: fields}
}

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

// Password validation errors.
var (
	ErrPasswordMismatch = errors.New("new passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
)

// ValidatePassword checks a new password and its confirmation.
func ValidatePassword(newPassword, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// PasswordMessage returns the alert text for a validation error.
func PasswordMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		return "New passwords do not match."
	case errors.Is(err, ErrPasswordTooShort):
		return fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength)
	default:
		return err.Error()
	}
}

func (h *Handle) initProfile() {
	if f := h.doc.PasswordForm; f != nil {
		h.bindPasswordForm(f)
	}
}

// bindPasswordForm blocks the native submission when the new password is
// invalid. A valid form submits as usual.
func (h *Handle) bindPasswordForm(f *dom.Form) {
	h.listen(f.Element, dom.EventSubmit, func(ev *dom.Event) {
		var newPassword, confirm string
		if in := f.Field(FieldNewPassword); in != nil {
			newPassword = in.Value
		}
		if in := f.Field(FieldConfirmPassword); in != nil {
			confirm = in.Value
		}
		if err := ValidatePassword(newPassword, confirm); err != nil {
			ev.PreventDefault()
			h.ShowError(PasswordMessage(err))
		}
	})
}

// FormFromDOM converts a dom form into a submission.
func FormFromDOM(f *dom.Form, pageURL string) service.Form {
	action := f.Action
	if action == "" {
		action = pageURL
	}
	method := f.Method
	if method == "" {
		method = http.MethodGet
	}
	return service.Form{Method: method, Action: action, Fields: f.Values()}
}
