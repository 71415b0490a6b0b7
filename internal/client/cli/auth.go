package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
)

func (a *App) signup(ctx context.Context, args []string) error {
	name, err := a.arg(args, 0, "Name")
	if err != nil {
		return err
	}
	email, err := a.arg(args, 1, "Email")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	id, err := a.api.Signup(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered, user id %d.\n", id)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email, err := a.arg(args, 0, "Email")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	pair, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.save(pair); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged in.")
	return nil
}

// profile retries once through a rotation when the access token is refused.
func (a *App) profile(ctx context.Context) error {
	sess, err := a.sessions.Load()
	if err != nil {
		return err
	}

	user, err := a.api.Profile(ctx, sess.AccessToken)
	if errors.Is(err, client.ErrUnauthorized) {
		var pair *client.TokenPair
		if pair, err = a.rotate(ctx, sess); err != nil {
			return err
		}
		user, err = a.api.Profile(ctx, pair.AccessToken)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:    %d\nname:  %s\nemail: %s\n", user.ID, user.Name, user.Email)
	return nil
}

func (a *App) refresh(ctx context.Context) error {
	sess, err := a.sessions.Load()
	if err != nil {
		return err
	}
	if _, err := a.rotate(ctx, sess); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Tokens refreshed.")
	return nil
}

// rotate exchanges the stored refresh token. A refused refresh token is
// single-use and gone, so the session is dropped.
func (a *App) rotate(ctx context.Context, sess *client.Session) (*client.TokenPair, error) {
	pair, err := a.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.sessions.Clear()
			return nil, fmt.Errorf("session expired, log in again: %w", err)
		}
		return nil, err
	}
	if err := a.save(pair); err != nil {
		return nil, err
	}
	return pair, nil
}

func (a *App) save(pair *client.TokenPair) error {
	return a.sessions.Save(&client.Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
