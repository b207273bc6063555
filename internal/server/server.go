// Package server is the reference task server. It renders the pages the
// client binds to and answers the single-field update endpoint.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/store"
)

// Default listen address.
const DefaultAddr = "127.0.0.1:8000"

// Options configures a Server.
type Options struct {
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Server serves the task pages and the update endpoint.
type Server struct {
	store  *store.Store
	router chi.Router
	pages  *pages
	log    *slog.Logger
	now    func() time.Time
	cost   int
}

// New creates a server over st.
func New(st *store.Store, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store: st,
		pages: p,
		log:   opts.Logger,
		now:   opts.Now,
		cost:  opts.BcryptCost,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(csrfProtect)

	r.Get("/", s.handleHome)
	r.Get("/tasks/{year:[0-9]+}/{month:[0-9]+}/{day:[0-9]+}/", s.handleDay)
	r.Post("/tasks/{year:[0-9]+}/{month:[0-9]+}/{day:[0-9]+}/", s.handleSaveTask)
	r.HandleFunc("/update-task/", s.handleUpdateTask)
	r.Get("/profile/", s.handleProfile)
	r.Post("/profile/password/", s.handleChangePassword)

	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("taskflow server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// internalError logs err and answers with a generic 500.
func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("internal error", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
