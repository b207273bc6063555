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
	Register(&ConfigCmd{})
}

// ConfigCmd implements the config command.
type ConfigCmd struct {
	save bool
}

// SetSave sets the --save flag (for testing).
func (c *ConfigCmd) SetSave(save bool) { c.save = save }

func (c *ConfigCmd) Name() string       { return "config" }
func (c *ConfigCmd) Aliases() []string  { return nil }
func (c *ConfigCmd) Synopsis() string   { return "Show the settings, or save them with --save" }
func (c *ConfigCmd) Usage() string      { return "taskflow config [--url <server>] [--save]" }
func (c *ConfigCmd) NeedsService() bool { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.save, "save", false, "")
}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.save {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if !cfg.Quiet {
			fmt.Fprintf(out, "saved %s\n", cfg.Path())
		}
		return exitcode.Success
	}

	token := "(from pages)"
	if cfg.CSRFToken != "" {
		token = "(set)"
	}
	fmt.Fprintf(out, "config:     %s\n", cfg.Path())
	fmt.Fprintf(out, "base_url:   %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "update_url: %s\n", cfg.UpdateURL)
	fmt.Fprintf(out, "timeout:    %s\n", cfg.Timeout)
	fmt.Fprintf(out, "csrf_token: %s\n", token)
	return exitcode.Success
}
