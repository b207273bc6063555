package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/server"
	"taskflow/internal/service"
	"taskflow/internal/store"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	addr string
	db   string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Run the task server" }
func (c *ServeCmd) Usage() string      { return "taskflow serve [--addr <host:port>] [--db <path>]" }
func (c *ServeCmd) NeedsService() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", server.DefaultAddr, "")
	fs.StringVar(&c.db, "db", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	path := c.db
	if path == "" {
		path = cfg.DBPath()
	}

	st, err := store.Open(ctx, path)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer st.Close()

	srv, err := server.New(st, server.Options{Logger: slog.Default()})
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "serving %s on %s\n", path, c.addr)
	}
	if err := srv.Run(ctx, c.addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
