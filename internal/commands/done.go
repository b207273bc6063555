package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/dom"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string   { return "Mark a task completed" }
func (c *DoneCmd) Usage() string      { return "taskflow done <task-id>" }
func (c *DoneCmd) NeedsService() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, cfg, svc, true, args, out, errOut)
}

// UndoCmd implements the undo command.
type UndoCmd struct{}

func (c *UndoCmd) Name() string       { return "undo" }
func (c *UndoCmd) Aliases() []string  { return []string{"reopen"} }
func (c *UndoCmd) Synopsis() string   { return "Mark a task not completed" }
func (c *UndoCmd) Usage() string      { return "taskflow undo <task-id>" }
func (c *UndoCmd) NeedsService() bool { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, cfg, svc, false, args, out, errOut)
}

// runCompletion clicks the checkbox of a task into the completed state
// and reports whether it stayed there.
func runCompletion(ctx context.Context, cfg *config.Config, svc service.Service, completed bool, args []string, out, errOut io.Writer) int {
	id, code := taskIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}

	doc := dom.New()
	item := doc.NewElement("", "task-item")
	cb := doc.AddCheckbox(id, !completed, item)

	s, err := bind(ctx, cfg, svc, doc, nil, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer s.Close()

	cb.Toggle()
	if cb.Checked != completed {
		code, err := s.updater.failure()
		fmt.Fprintf(errOut, "error: %v\n", err)
		return code
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// taskIDArg reads the single task id argument.
func taskIDArg(args []string, errOut io.Writer) (string, int) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: task id required")
		return "", exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return "", exitcode.UserError
	}
	return strings.TrimSpace(args[0]), exitcode.Success
}
