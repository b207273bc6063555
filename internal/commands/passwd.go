package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"taskflow/internal/config"
	"taskflow/internal/controller"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&PasswdCmd{})
}

// PasswdCmd implements the passwd command.
type PasswdCmd struct {
	// In supplies the passwords. Defaults to os.Stdin; a terminal is read
	// without echo.
	In io.Reader
}

func (c *PasswdCmd) Name() string       { return "passwd" }
func (c *PasswdCmd) Aliases() []string  { return []string{"password"} }
func (c *PasswdCmd) Synopsis() string   { return "Change the account password" }
func (c *PasswdCmd) Usage() string      { return "taskflow passwd" }
func (c *PasswdCmd) NeedsService() bool { return true }

func (c *PasswdCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *PasswdCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	prompt := newPrompter(in, errOut)
	newPassword, err := prompt.secret("New password: ")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	confirm, err := prompt.secret("Confirm password: ")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	doc, err := svc.ProfilePage(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	f := doc.PasswordForm
	if f == nil {
		fmt.Fprintln(errOut, "error: backend error: profile page has no password form")
		return exitcode.BackendError
	}
	s, err := bind(ctx, cfg, svc, doc, nil, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer s.Close()

	if field := f.Field(controller.FieldNewPassword); field != nil {
		field.Value = newPassword
	}
	if field := f.Field(controller.FieldConfirmPassword); field != nil {
		field.Value = confirm
	}
	// A blocked submission has already shown why.
	if !f.Submit() {
		return exitcode.UserError
	}

	next, err := svc.SubmitForm(ctx, controller.FormFromDOM(f, doc.URL))
	if err != nil {
		return reportError(errOut, err)
	}
	if printMessages(cfg, next, out, errOut) {
		return exitcode.UserError
	}
	return exitcode.Success
}

type prompter struct {
	in     io.Reader
	lines  *bufio.Reader
	errOut io.Writer
}

func newPrompter(in io.Reader, errOut io.Writer) *prompter {
	return &prompter{in: in, lines: bufio.NewReader(in), errOut: errOut}
}

// secret reads one line, without echo when in is a terminal.
func (p *prompter) secret(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.errOut, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.errOut)
		return string(b), err
	}
	line, err := p.lines.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
