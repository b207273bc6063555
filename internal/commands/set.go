package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/dom"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&SetCmd{})
}

// SetCmd implements the set command.
type SetCmd struct{}

func (c *SetCmd) Name() string       { return "set" }
func (c *SetCmd) Aliases() []string  { return []string{"edit"} }
func (c *SetCmd) Synopsis() string   { return "Change the title, description or priority of a task" }
func (c *SetCmd) Usage() string      { return "taskflow set <task-id> title|description|priority <value...>" }
func (c *SetCmd) NeedsService() bool { return true }

func (c *SetCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SetCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: task id and field required")
		return exitcode.UserError
	}
	id, field := strings.TrimSpace(args[0]), args[1]
	switch field {
	case service.FieldTitle, service.FieldDescription, service.FieldPriority:
	default:
		fmt.Fprintf(errOut, "error: unknown field: %s\n", field)
		return exitcode.UserError
	}
	value := strings.TrimSpace(strings.Join(args[2:], " "))
	if value == "" {
		fmt.Fprintln(errOut, "error: value required")
		return exitcode.UserError
	}
	if field == service.FieldPriority {
		value = strings.ToLower(value)
		if value != service.PriorityLow && value != service.PriorityMedium && value != service.PriorityHigh {
			fmt.Fprintf(errOut, "error: invalid priority: %s (want low, medium or high)\n", value)
			return exitcode.UserError
		}
	}

	doc := dom.New()
	item := doc.NewElement("", "task-item")
	in := doc.AddTitleInput(id, field, "", item)

	s, err := bind(ctx, cfg, svc, doc, nil, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer s.Close()

	// Type the value into the inline editor and commit it with Enter.
	in.Focus()
	in.Value = value
	in.Press(dom.KeyEnter)

	if in.Style(controller.StyleBackground) != controller.SuccessColor {
		code, err := s.updater.failure()
		fmt.Fprintf(errOut, "error: %v\n", err)
		return code
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
