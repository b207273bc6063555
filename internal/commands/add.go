package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskflow/internal/calendar"
	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/dom"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

// AddFormID is the day page's form for tasks with details.
const AddFormID = "addTaskForm"

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	date        string
	slot        string
	priority    string
	description string
}

// SetDate sets the --date value (for testing).
func (c *AddCmd) SetDate(date string) { c.date = date }

// SetSlot sets the --slot value (for testing).
func (c *AddCmd) SetSlot(slot string) { c.slot = slot }

// SetDetails sets --priority and --description (for testing).
func (c *AddCmd) SetDetails(priority, description string) {
	c.priority, c.description = priority, description
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task, or replace the one in its slot" }
func (c *AddCmd) Usage() string {
	return "taskflow add [--date <date>] [--slot <hh:mm>] [--priority <p>] [--description <text>] <title...>"
}
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.date, "date", "", "")
	fs.StringVar(&c.date, "d", "", "")
	fs.StringVar(&c.slot, "slot", "", "")
	fs.StringVar(&c.slot, "s", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.description, "description", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	day, err := ParseDate(c.date, time.Now())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	slot := ""
	if c.slot != "" {
		t, err := calendar.ParseSlot(c.slot)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		slot = t.Format("15:04")
	}
	priority := strings.ToLower(strings.TrimSpace(c.priority))
	switch priority {
	case "", service.PriorityLow, service.PriorityMedium, service.PriorityHigh:
	default:
		fmt.Fprintf(errOut, "error: invalid priority: %s (want low, medium or high)\n", c.priority)
		return exitcode.UserError
	}

	doc, err := svc.DayPage(ctx, day)
	if err != nil {
		return reportError(errOut, err)
	}
	nav := &formNavigator{ctx: ctx, svc: svc}
	s, err := bind(ctx, cfg, svc, doc, nav, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer s.Close()

	quick := priority == "" && c.description == ""
	if in := quickAddInput(doc, slot); quick && in != nil {
		in.Value = title
		in.Press(dom.KeyEnter)
	} else if code := c.submitDetails(doc, nav, title, slot, priority, errOut); code != exitcode.Success {
		return code
	}

	if nav.err != nil {
		return reportError(errOut, nav.err)
	}
	if !nav.submitted || nav.doc == nil {
		fmt.Fprintln(errOut, "error: task form was not submitted")
		return exitcode.UserError
	}
	if printMessages(cfg, nav.doc, out, errOut) {
		return exitcode.UserError
	}
	return exitcode.Success
}

// submitDetails fills in the page's task form and submits it.
func (c *AddCmd) submitDetails(doc *dom.Document, nav *formNavigator, title, slot, priority string, errOut io.Writer) int {
	f := doc.Form(AddFormID)
	if f == nil {
		fmt.Fprintln(errOut, "error: backend error: day page has no task form")
		return exitcode.BackendError
	}
	if priority == "" {
		priority = controller.DefaultPriority
	}
	for name, value := range map[string]string{
		controller.FieldTaskTitle:    title,
		controller.FieldTimeSlot:     slot,
		controller.FieldTaskPriority: priority,
		"task_description":           c.description,
	} {
		if in := f.Field(name); in != nil {
			in.Value = value
		}
	}
	if f.Submit() {
		nav.Submit(controller.FormFromDOM(f, doc.URL))
	}
	return exitcode.Success
}

// quickAddInput returns the quick-add input of a free timed slot, or nil.
func quickAddInput(doc *dom.Document, slot string) *dom.Input {
	if slot == "" {
		return nil
	}
	for _, in := range doc.NewTaskInputs {
		if in.Data("time-slot") == slot {
			return in
		}
	}
	return nil
}
