package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/testutil"
)

var testDay = time.Date(2025, time.March, 7, 0, 0, 0, 0, time.Local)

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	ctx := context.Background()
	var s service.Service
	if svc != nil {
		s = svc
	}
	code = cmd.Run(ctx, cfg, s, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func expectCode(t *testing.T, got, want int, stderr string) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d (stderr %q)", want, got, stderr)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	expectCode(t, code, exitcode.Success, stderr)
	if stdout != "taskflow 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{Registry: commands.DefaultRegistry}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	expectCode(t, code, exitcode.Success, stderr)
	for _, want := range []string{"Usage:", "taskflow day", "taskflow add", "taskflow passwd", "--url"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for day command
func TestDayCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	milk := svc.AddTask(testDay, "09:00", "Buy milk")
	mom := svc.AddTask(testDay, "", "Call mom")
	svc.AddTask(testDay.AddDate(0, 0, 1), "", "Not today")

	ctx := context.Background()
	for _, req := range []service.UpdateRequest{
		{TaskID: "1", Field: service.FieldCompleted, Value: true},
		{TaskID: "1", Field: service.FieldDescription, Value: "Two litres"},
		{TaskID: "2", Field: service.FieldPriority, Value: service.PriorityHigh},
	} {
		if err := svc.UpdateTask(ctx, testutil.FakeToken, req); err != nil {
			t.Fatalf("seeding %+v: %v", req, err)
		}
	}
	if milk != 1 || mom != 2 {
		t.Fatalf("unexpected ids %d, %d", milk, mom)
	}

	cmd := &commands.DayCmd{}
	cmd.SetDate("2025-03-07")
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	expectCode(t, code, exitcode.Success, stderr)
	testutil.GoldenString(t, "day", stdout)
}

func TestDayCommand_Empty(t *testing.T) {
	cmd := &commands.DayCmd{}
	cmd.SetDate("2025-03-07")
	stdout, stderr, code := runCommand(t, cmd, testutil.NewFakeService(), nil, false)

	expectCode(t, code, exitcode.Success, stderr)
	expected := "Friday, March 07, 2025\n------------\nNo tasks.\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestDayCommand_InvalidDate(t *testing.T) {
	cmd := &commands.DayCmd{}
	cmd.SetDate("07/03/2025")
	_, stderr, code := runCommand(t, cmd, testutil.NewFakeService(), nil, false)

	expectCode(t, code, exitcode.UserError, stderr)
	if !strings.Contains(stderr, "invalid date") {
		t.Errorf("expected invalid date error, got %q", stderr)
	}
}

func TestDayCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.DayPageErr = errors.New("connection refused")
	_, stderr, code := runCommand(t, &commands.DayCmd{}, svc, nil, false)

	expectCode(t, code, exitcode.BackendError, stderr)
	if stderr != "error: backend error: connection refused\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for month command
func TestMonthCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Today = testDay

	cmd := &commands.MonthCmd{}
	cmd.SetMonth("2025-03")
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	expectCode(t, code, exitcode.Success, stderr)
	if !strings.HasPrefix(stdout, "March 2025\n") {
		t.Errorf("expected month heading, got %q", stdout)
	}
	if !strings.Contains(stdout, "[ 7]") {
		t.Errorf("expected today marked, got %q", stdout)
	}
}

func TestMonthCommand_InvalidMonth(t *testing.T) {
	cmd := &commands.MonthCmd{}
	cmd.SetMonth("2025-13")
	_, stderr, code := runCommand(t, cmd, testutil.NewFakeService(), nil, false)

	expectCode(t, code, exitcode.UserError, stderr)
}

// Tests for done and undo commands
func TestDoneCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask(testDay, "", "Buy milk")

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1"}, false)

	expectCode(t, code, exitcode.Success, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}
	task, _ := svc.Task(id)
	if !task.Completed {
		t.Error("expected task completed")
	}
}

func TestUndoCommand_Quiet(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask(testDay, "", "Buy milk")

	runCommand(t, &commands.DoneCmd{}, svc, []string{"1"}, true)
	stdout, stderr, code := runCommand(t, &commands.UndoCmd{}, svc, []string{"1"}, true)

	expectCode(t, code, exitcode.Success, stderr)
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
	task, _ := svc.Task(id)
	if task.Completed {
		t.Error("expected task reopened")
	}
	last := svc.Updates[len(svc.Updates)-1]
	if last.Field != service.FieldCompleted || last.Value != false {
		t.Errorf("unexpected update %+v", last)
	}
}

func TestDoneCommand_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*testutil.FakeService)
		args   []string
		code   int
		stderr string
	}{
		{
			name:   "missing id",
			setup:  func(*testutil.FakeService) {},
			code:   exitcode.UserError,
			stderr: "error: task id required\n",
		},
		{
			name:   "unknown task",
			setup:  func(*testutil.FakeService) {},
			args:   []string{"42"},
			code:   exitcode.UserError,
			stderr: "error: " + controller.MsgUpdateFailed + "\nerror: update rejected: Task not found\n",
		},
		{
			name: "network error",
			setup: func(svc *testutil.FakeService) {
				svc.UpdateErr = errors.New("connection reset")
			},
			args:   []string{"1"},
			code:   exitcode.BackendError,
			stderr: "error: " + controller.MsgNetworkError + "\nerror: connection reset\n",
		},
		{
			name: "no token",
			setup: func(svc *testutil.FakeService) {
				svc.OmitToken = true
				svc.TokenErr = service.ErrNoToken
			},
			args: []string{"1"},
			code: exitcode.AuthError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddTask(testDay, "", "Buy milk")
			tt.setup(svc)

			stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, tt.args, false)

			expectCode(t, code, tt.code, stderr)
			if stdout != "" {
				t.Errorf("expected no stdout, got %q", stdout)
			}
			if tt.stderr != "" && stderr != tt.stderr {
				t.Errorf("expected stderr %q, got %q", tt.stderr, stderr)
			}
			if task, _ := svc.Task(1); task.Completed {
				t.Error("expected task left open")
			}
		})
	}
}

// Tests for set command
func TestSetCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask(testDay, "", "Buy milk")

	stdout, stderr, code := runCommand(t, &commands.SetCmd{}, svc, []string{"1", "title", "Buy", "oat", "milk"}, false)

	expectCode(t, code, exitcode.Success, stderr)
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}
	task, _ := svc.Task(id)
	if task.Title != "Buy oat milk" {
		t.Errorf("expected title updated, got %q", task.Title)
	}
}

func TestSetCommand_Priority(t *testing.T) {
	svc := testutil.NewFakeService()
	id := svc.AddTask(testDay, "", "Buy milk")

	_, stderr, code := runCommand(t, &commands.SetCmd{}, svc, []string{"1", "priority", "HIGH"}, true)

	expectCode(t, code, exitcode.Success, stderr)
	task, _ := svc.Task(id)
	if task.Priority != service.PriorityHigh {
		t.Errorf("expected high priority, got %q", task.Priority)
	}
}

func TestSetCommand_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing field", []string{"1"}},
		{"unknown field", []string{"1", "color", "red"}},
		{"empty value", []string{"1", "title", "  "}},
		{"invalid priority", []string{"1", "priority", "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddTask(testDay, "", "Buy milk")

			_, stderr, code := runCommand(t, &commands.SetCmd{}, svc, tt.args, false)

			expectCode(t, code, exitcode.UserError, stderr)
			if len(svc.Updates) != 0 {
				t.Errorf("expected no update, got %+v", svc.Updates)
			}
		})
	}
}

// Tests for add command
func TestAddCommand_QuickAdd(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetDate("2025-03-07")
	cmd.SetSlot("10:00")
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Write", "report"}, false)

	expectCode(t, code, exitcode.Success, stderr)
	if stdout != testutil.MsgSaved+"\n" {
		t.Errorf("expected saved message, got %q", stdout)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Write report" || got.TimeSlot != "10:00" || got.Priority != service.PriorityMedium || !got.Day.Equal(testDay) {
		t.Errorf("unexpected task %+v", got)
	}
}

func TestAddCommand_WithDetails(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetDate("2025-03-07")
	cmd.SetDetails("high", "Two litres")
	_, stderr, code := runCommand(t, cmd, svc, []string{"Buy milk"}, true)

	expectCode(t, code, exitcode.Success, stderr)
	if len(svc.Submits) != 1 || svc.Submits[0].Fields.Get("task_priority") != service.PriorityHigh {
		t.Fatalf("unexpected submissions %+v", svc.Submits)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].TimeSlot != "" || tasks[0].Description != "Two litres" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestAddCommand_ReplacesSlot(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(testDay, "10:00", "Old")

	cmd := &commands.AddCmd{}
	cmd.SetDate("2025-03-07")
	cmd.SetSlot("10:00")
	_, stderr, code := runCommand(t, cmd, svc, []string{"New"}, true)

	expectCode(t, code, exitcode.Success, stderr)
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "New" {
		t.Errorf("expected the slot's task replaced, got %+v", tasks)
	}
}

func TestAddCommand_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		cmd  func() *commands.AddCmd
		args []string
	}{
		{"no title", func() *commands.AddCmd { return &commands.AddCmd{} }, nil},
		{"bad slot", func() *commands.AddCmd {
			c := &commands.AddCmd{}
			c.SetSlot("25:00")
			return c
		}, []string{"x"}},
		{"bad priority", func() *commands.AddCmd {
			c := &commands.AddCmd{}
			c.SetDetails("urgent", "")
			return c
		}, []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			_, stderr, code := runCommand(t, tt.cmd(), svc, tt.args, false)

			expectCode(t, code, exitcode.UserError, stderr)
			if len(svc.Submits) != 0 {
				t.Error("expected nothing submitted")
			}
		})
	}
}

func TestAddCommand_TokenRejected(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.OmitToken = true
	svc.TokenErr = service.ErrNoToken

	cmd := &commands.AddCmd{}
	cmd.SetSlot("10:00")
	_, stderr, code := runCommand(t, cmd, svc, []string{"Write report"}, false)

	expectCode(t, code, exitcode.AuthError, stderr)
	if len(svc.Tasks()) != 0 {
		t.Error("expected no task created")
	}
}

// Tests for passwd command
func TestPasswdCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.PasswdCmd{In: strings.NewReader("correct horse\ncorrect horse\n")}

	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	expectCode(t, code, exitcode.Success, stderr)
	if stdout != testutil.MsgPasswordChanged+"\n" {
		t.Errorf("expected success message, got %q", stdout)
	}
	if svc.Password() != "correct horse" {
		t.Errorf("expected password stored, got %q", svc.Password())
	}
}

func TestPasswdCommand_Blocked(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		stderr string
	}{
		{"mismatch", "longenough\ndifferent!\n", "error: New passwords do not match.\n"},
		{"too short", "short\nshort\n", "error: Password must be at least 8 characters long.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			cmd := &commands.PasswdCmd{In: strings.NewReader(tt.input)}

			_, stderr, code := runCommand(t, cmd, svc, nil, false)

			expectCode(t, code, exitcode.UserError, stderr)
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
			if len(svc.Submits) != 0 {
				t.Error("expected the form not submitted")
			}
		})
	}
}

func TestPasswdCommand_NoInput(t *testing.T) {
	cmd := &commands.PasswdCmd{In: strings.NewReader("")}
	_, stderr, code := runCommand(t, cmd, testutil.NewFakeService(), nil, false)

	expectCode(t, code, exitcode.UserError, stderr)
}

// Tests for export command
func TestExportCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ExportCmd{}, testutil.NewFakeService(), nil, false)

	expectCode(t, code, exitcode.Success, stderr)
	if stdout != controller.MsgExportPending+"\n" {
		t.Errorf("expected export notice, got %q", stdout)
	}
}

// Tests for config command
func TestConfigCommand(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir(), BaseURL: "http://tasks.local", Timeout: 5 * time.Second}
	var out bytes.Buffer

	code := (&commands.ConfigCmd{}).Run(context.Background(), cfg, nil, nil, &out, io.Discard)

	expectCode(t, code, exitcode.Success, "")
	for _, want := range []string{"base_url:   http://tasks.local\n", "timeout:    5s\n", "csrf_token: (from pages)\n"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in %q", want, out.String())
		}
	}
}

func TestConfigCommand_Save(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir(), BaseURL: "http://tasks.local"}
	cmd := &commands.ConfigCmd{}
	cmd.SetSave(true)

	code := cmd.Run(context.Background(), cfg, nil, nil, io.Discard, io.Discard)

	expectCode(t, code, exitcode.Success, "")
	data, err := os.ReadFile(cfg.Path())
	if err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if !strings.Contains(string(data), "http://tasks.local") {
		t.Errorf("expected base url saved, got %q", data)
	}
}

// Tests for the registry
type stubCmd struct {
	name    string
	aliases []string
}

func (c stubCmd) Name() string                 { return c.name }
func (c stubCmd) Aliases() []string            { return c.aliases }
func (c stubCmd) Synopsis() string             { return "" }
func (c stubCmd) Usage() string                { return "" }
func (c stubCmd) NeedsService() bool           { return false }
func (c stubCmd) RegisterFlags(*flag.FlagSet)  {}
func (c stubCmd) Run(context.Context, *config.Config, service.Service, []string, io.Writer, io.Writer) int {
	return exitcode.Success
}

func TestRegistry(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(stubCmd{name: "day", aliases: []string{"ls"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(stubCmd{name: "add"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(stubCmd{name: "day"}); err == nil {
		t.Error("expected duplicate name rejected")
	}
	if err := r.Register(stubCmd{name: "list", aliases: []string{"ls"}}); err == nil {
		t.Error("expected duplicate alias rejected")
	}
	if _, ok := r.Find("list"); ok {
		t.Error("a rejected command must not be registered")
	}

	if c, ok := r.Find("ls"); !ok || c.Name() != "day" {
		t.Error("expected alias lookup")
	}
	all := r.All()
	if len(all) != 2 || all[0].Name() != "add" || all[1].Name() != "day" {
		t.Errorf("expected sorted unique commands, got %d", len(all))
	}
}

func TestDefaultRegistry(t *testing.T) {
	for _, name := range []string{commands.DefaultCommand, "month", "add", "done", "undo", "set", "passwd", "export", "serve", "ui", "config", "version", "help"} {
		if _, ok := commands.DefaultRegistry.Find(name); !ok {
			t.Errorf("expected %s registered", name)
		}
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, time.March, 7, 15, 30, 0, 0, time.Local)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", testDay},
		{"today", testDay},
		{"Tomorrow", testDay.AddDate(0, 0, 1)},
		{"yesterday", testDay.AddDate(0, 0, -1)},
		{"2024-02-29", time.Date(2024, time.February, 29, 0, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		got, err := commands.ParseDate(tt.in, now)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"next week", "2025-02-30"} {
		if _, err := commands.ParseDate(in, now); err == nil {
			t.Errorf("ParseDate(%q): expected error", in)
		}
	}
}
