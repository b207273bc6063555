// Package httpapi implements the service.Service interface over the task
// server's HTML pages and JSON update endpoint.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"taskflow/internal/calendar"
	"taskflow/internal/config"
	"taskflow/internal/dom"
	"taskflow/internal/page"
	"taskflow/internal/service"
)

const (
	// APITimeout is the default timeout for each request.
	APITimeout = 5 * time.Second

	// TokenHeader carries the anti-forgery token on update requests.
	TokenHeader = "X-CSRFToken"

	// ProfilePath is the page holding the password form.
	ProfilePath = "/profile/"

	// maxPageSize bounds how much of a page is read.
	maxPageSize = 4 << 20
)

var _ service.Service = (*Client)(nil)

// Client implements service.Service against a task server.
type Client struct {
	http    *http.Client
	base    *url.URL
	update  *url.URL
	timeout time.Duration
	log     *slog.Logger
}

// New creates a client for the server configured in cfg. Cookies are kept
// for the life of the client, so the server's token cookie and the token
// in its pages stay paired.
func New(cfg *config.Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c, err := NewWithHTTPClient(cfg.BaseURL, cfg.UpdateURL, &http.Client{Jar: jar})
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		c.timeout = cfg.Timeout
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// updatePath is resolved against baseURL.
func NewWithHTTPClient(baseURL, updatePath string, hc *http.Client) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server url: %q", baseURL)
	}
	if updatePath == "" {
		updatePath = config.DefaultUpdateURL
	}
	update, err := base.Parse(updatePath)
	if err != nil {
		return nil, fmt.Errorf("invalid update url: %q", updatePath)
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}
	return &Client{
		http:    hc,
		base:    base,
		update:  update,
		timeout: APITimeout,
		log:     slog.Default(),
	}, nil
}

// DayPage fetches and parses the page of one day.
func (c *Client) DayPage(ctx context.Context, day time.Time) (*dom.Document, error) {
	return c.fetch(ctx, calendar.DayPath(day))
}

// MonthPage fetches and parses the calendar of a month.
func (c *Client) MonthPage(ctx context.Context, year int, month time.Month) (*dom.Document, error) {
	return c.fetch(ctx, calendar.MonthPath(year, month))
}

// ProfilePage fetches and parses the profile page.
func (c *Client) ProfilePage(ctx context.Context) (*dom.Document, error) {
	return c.fetch(ctx, ProfilePath)
}

// Token loads the home page and reads the anti-forgery token from it.
func (c *Client) Token(ctx context.Context) (string, error) {
	doc, err := c.fetch(ctx, "/")
	if err != nil {
		return "", err
	}
	if doc.Token == "" {
		return "", service.ErrNoToken
	}
	return doc.Token, nil
}

// UpdateTask posts one field update. A success:false answer is returned as
// *service.RejectedError.
func (c *Client) UpdateTask(ctx context.Context, token string, req service.UpdateRequest) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.update.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set(TokenHeader, token)

	resp, err := c.http.Do(hreq)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		return wrapError(err)
	}

	var res service.UpdateResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageSize)).Decode(&res); err != nil {
		return fmt.Errorf("decode update response: %w", err)
	}
	if !res.Success {
		return &service.RejectedError{Message: res.Error}
	}
	c.log.Debug("task updated", "task_id", req.TaskID, "field", req.Field)
	return nil
}

// SubmitForm sends a form the way a browser does and returns the page the
// server navigates to, following redirects.
func (c *Client) SubmitForm(ctx context.Context, form service.Form) (*dom.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target, err := c.base.Parse(form.Action)
	if err != nil {
		return nil, fmt.Errorf("invalid form action %q: %w", form.Action, err)
	}

	var hreq *http.Request
	switch strings.ToUpper(form.Method) {
	case "", http.MethodGet:
		target.RawQuery = form.Fields.Encode()
		hreq, err = http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	case http.MethodPost:
		hreq, err = http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(form.Fields.Encode()))
		if hreq != nil {
			hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		return nil, fmt.Errorf("unsupported form method %q", form.Method)
	}
	if err != nil {
		return nil, err
	}
	return c.do(hreq)
}

func (c *Client) fetch(ctx context.Context, path string) (*dom.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target, err := c.base.Parse(path)
	if err != nil {
		return nil, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(hreq)
}

// do sends hreq and parses the HTML it ends up at. The document's URL is
// the final request's path and query.
func (c *Client) do(hreq *http.Request) (*dom.Document, error) {
	hreq.Header.Set("Accept", "text/html")
	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, wrapError(err)
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, wrapError(err)
	}

	doc, err := page.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, err
	}
	doc.URL = resp.Request.URL.RequestURI()
	return doc, nil
}

// wrapError turns transport and HTTP errors into user-facing ones.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusForbidden:
			return fmt.Errorf("%w: server rejected the security token", service.ErrNoToken)
		case http.StatusNotFound:
			return fmt.Errorf("not found (%d)", gerr.Code)
		default:
			return fmt.Errorf("server error: %d %s", gerr.Code, http.StatusText(gerr.Code))
		}
	}
	return err
}
