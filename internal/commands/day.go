package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/output"
	"taskflow/internal/service"
)

func init() {
	Register(&DayCmd{})
	Register(&MonthCmd{})
}

// DayCmd implements the day command.
type DayCmd struct {
	date string
}

// SetDate sets the --date value (for testing).
func (c *DayCmd) SetDate(date string) { c.date = date }

func (c *DayCmd) Name() string       { return "day" }
func (c *DayCmd) Aliases() []string  { return []string{"list", "ls"} }
func (c *DayCmd) Synopsis() string   { return "Show the tasks of a day" }
func (c *DayCmd) Usage() string      { return "taskflow day [--date <date>]" }
func (c *DayCmd) NeedsService() bool { return true }

func (c *DayCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.date, "date", "", "")
	fs.StringVar(&c.date, "d", "", "")
}

func (c *DayCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	day, err := ParseDate(c.date, time.Now())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	doc, err := svc.DayPage(ctx, day)
	if err != nil {
		return reportError(errOut, err)
	}
	printMessages(cfg, doc, out, errOut)
	output.FormatDay(out, doc)
	return exitcode.Success
}

// MonthLayout is the format of --month values.
const MonthLayout = "2006-01"

// MonthCmd implements the month command.
type MonthCmd struct {
	month string
}

// SetMonth sets the --month value (for testing).
func (c *MonthCmd) SetMonth(month string) { c.month = month }

func (c *MonthCmd) Name() string       { return "month" }
func (c *MonthCmd) Aliases() []string  { return []string{"cal"} }
func (c *MonthCmd) Synopsis() string   { return "Show a month calendar" }
func (c *MonthCmd) Usage() string      { return "taskflow month [--month <yyyy-mm>]" }
func (c *MonthCmd) NeedsService() bool { return true }

func (c *MonthCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.month, "month", "", "")
	fs.StringVar(&c.month, "m", "", "")
}

func (c *MonthCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	now := time.Now()
	year, month := now.Year(), now.Month()
	if c.month != "" {
		t, err := time.Parse(MonthLayout, c.month)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid month: %s (want %s)\n", c.month, MonthLayout)
			return exitcode.UserError
		}
		year, month = t.Year(), t.Month()
	}

	doc, err := svc.MonthPage(ctx, year, month)
	if err != nil {
		return reportError(errOut, err)
	}
	output.FormatMonth(out, year, month, doc)
	return exitcode.Success
}
