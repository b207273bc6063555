package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/dom"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd implements the export command. Export is not available yet.
type ExportCmd struct{}

func (c *ExportCmd) Name() string       { return "export" }
func (c *ExportCmd) Aliases() []string  { return nil }
func (c *ExportCmd) Synopsis() string   { return "Export tasks (not yet available)" }
func (c *ExportCmd) Usage() string      { return "taskflow export" }
func (c *ExportCmd) NeedsService() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	s, err := bind(ctx, cfg, svc, dom.New(), nil, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer s.Close()
	s.ExportTasks()
	return exitcode.Success
}
