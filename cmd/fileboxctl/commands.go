package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"filebox-backend/internal/models"
	"filebox-backend/internal/service"

	"golang.org/x/term"
)

var errUsage = errors.New("usage: fileboxctl create-user|set-role|list-users [flags]")

// passwordPrompt reads a password for username.
type passwordPrompt func(in io.Reader, out io.Writer, username string) (string, error)

type app struct {
	users  *service.UserService
	stdin  io.Reader
	stdout io.Writer
	prompt passwordPrompt
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "create-user":
		return a.createUser(ctx, args[1:])
	case "set-role":
		return a.setRole(ctx, args[1:])
	case "list-users":
		return a.listUsers(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	username := fs.String("username", "", "account name")
	role := fs.String("role", models.RoleUser, "role to store (user or admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("create-user: -username is required")
	}

	password, err := a.prompt(a.stdin, a.stdout, *username)
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}

	user, err := a.users.Register(ctx, *username, password, *role)
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}
	fmt.Fprintf(a.stdout, "created %s (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func (a *app) setRole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	username := fs.String("username", "", "account name")
	role := fs.String("role", "", "new role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *role == "" {
		return errors.New("set-role: -username and -role are required")
	}

	if err := a.users.SetRole(ctx, *username, *role); err != nil {
		return fmt.Errorf("set-role: %w", err)
	}
	fmt.Fprintf(a.stdout, "%s is now %s\n", *username, *role)
	return nil
}

func (a *app) listUsers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list-users: %w", err)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// terminalPrompt reads the password without echo when stdin is a terminal,
// and a single line otherwise (for scripts piping the password in).
func terminalPrompt(in io.Reader, out io.Writer, username string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Password for %s: ", username)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return readLinePassword(in)
}

func readLinePassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
