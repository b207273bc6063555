package server

import (
	"net/http"
	"net/url"
	"strings"

	"taskflow/internal/dom"
)

const flashCookie = "flash"

// Message levels.
const (
	LevelSuccess = "success"
	LevelError   = "danger"
)

// flash stores a message for the next page the client loads.
func flash(w http.ResponseWriter, level, text string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(level + "|" + text),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash returns the pending messages and clears them.
func takeFlash(w http.ResponseWriter, r *http.Request) []dom.Message {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, text, ok := strings.Cut(raw, "|")
	if !ok || text == "" {
		return nil
	}
	return []dom.Message{{Level: level, Text: text}}
}
