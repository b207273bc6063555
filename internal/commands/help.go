package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry lists the commands to describe. Defaults to DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "taskflow help" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  taskflow                 Same as: taskflow %s\n", DefaultCommand)
	for _, cmd := range reg.All() {
		fmt.Fprintf(out, "  %s\n      %s\n", cmd.Usage(), cmd.Synopsis())
	}
	fmt.Fprint(out, commonFlags)
	return exitcode.Success
}

const commonFlags = `
Dates are yyyy-mm-dd, today, tomorrow or yesterday.

Common flags:
  --config <dir>   Override config directory
  --url <url>      Override the server URL
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
