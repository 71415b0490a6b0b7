package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
)

type API interface {
	Signup(ctx context.Context, name, email, password string) (int64, error)
	Login(ctx context.Context, email, password string) (*client.TokenPair, error)
	Profile(ctx context.Context, accessToken string) (*client.User, error)
	Refresh(ctx context.Context, refreshToken string) (*client.TokenPair, error)
}

type App struct {
	api      API
	sessions *client.SessionStore
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		api:      client.NewAPIClient(c.ServerURL, c.RequestTimeout),
		sessions: client.NewSessionStore(c.SessionFile),
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

const usage = `usage: sessionctl [-a url] [-session file] [-t seconds] [-c config.json] <command> [args]

commands:
  signup [name] [email]   register a new account
  login [email]           log in and store the token pair
  profile                 show the current user
  refresh                 rotate the stored token pair
  logout                  forget the stored token pair`

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return errors.New("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "signup", "register":
		return a.signup(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "profile", "me":
		return a.profile(ctx)
	case "refresh":
		return a.refresh(ctx)
	case "logout":
		if err := a.sessions.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// arg returns args[i] or asks for it.
func (a *App) arg(args []string, i int, prompt string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}
