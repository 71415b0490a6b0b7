package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
)

type fakeAPI struct {
	signupArgs []string
	loginArgs  []string

	pair        *client.TokenPair
	refreshPair *client.TokenPair
	refreshErr  error
	refreshed   []string

	// access tokens the profile endpoint accepts
	validAccess map[string]bool
	profileErr  error
}

func (f *fakeAPI) Signup(_ context.Context, name, email, password string) (int64, error) {
	f.signupArgs = []string{name, email, password}
	return 42, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*client.TokenPair, error) {
	f.loginArgs = []string{email, password}
	if password != "password123" {
		return nil, &client.APIError{Status: 422, Message: "Invalid email or password."}
	}
	return f.pair, nil
}

func (f *fakeAPI) Profile(_ context.Context, accessToken string) (*client.User, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if !f.validAccess[accessToken] {
		return nil, &client.APIError{Status: 401, Message: "Unauthorized: expired"}
	}
	return &client.User{ID: 42, Name: "Alice Liddell", Email: "alice@example.com"}, nil
}

func (f *fakeAPI) Refresh(_ context.Context, refreshToken string) (*client.TokenPair, error) {
	f.refreshed = append(f.refreshed, refreshToken)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshPair, nil
}

func newTestApp(t *testing.T, api *fakeAPI, input string) (*App, *bytes.Buffer) {
	t.Helper()

	old := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = old })

	out := &bytes.Buffer{}
	return &App{
		api:      api,
		sessions: client.NewSessionStore(filepath.Join(t.TempDir(), "session.json")),
		reader:   bufio.NewReader(strings.NewReader(input)),
		out:      out,
	}, out
}

func TestRun_NoCommand(t *testing.T) {
	a, out := newTestApp(t, &fakeAPI{}, "")
	require.Error(t, a.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "")
	err := a.Run(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestRun_Help(t *testing.T) {
	a, out := newTestApp(t, &fakeAPI{}, "")
	require.NoError(t, a.Run(context.Background(), []string{"help"}))
	assert.Contains(t, out.String(), "logout")
}

func TestSignup_PromptsForMissingArgs(t *testing.T) {
	api := &fakeAPI{}
	a, out := newTestApp(t, api, "alice@example.com\npassword123\n")

	require.NoError(t, a.Run(context.Background(), []string{"signup", "Alice Liddell"}))

	assert.Equal(t, []string{"Alice Liddell", "alice@example.com", "password123"}, api.signupArgs)
	assert.Contains(t, out.String(), "Email: ")
	assert.Contains(t, out.String(), "user id 42")
}

func TestLogin_SavesSession(t *testing.T) {
	api := &fakeAPI{pair: &client.TokenPair{AccessToken: "a1", RefreshToken: "r1"}}
	a, out := newTestApp(t, api, "password123\n")

	require.NoError(t, a.Run(context.Background(), []string{"login", "alice@example.com"}))
	assert.Contains(t, out.String(), "Logged in.")

	got, err := a.sessions.Load()
	require.NoError(t, err)
	want := &client.Session{AccessToken: "a1", RefreshToken: "r1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	api := &fakeAPI{pair: &client.TokenPair{AccessToken: "a1", RefreshToken: "r1"}}
	a, _ := newTestApp(t, api, "nope\n")

	err := a.Run(context.Background(), []string{"login", "alice@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password.")

	_, err = a.sessions.Load()
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestProfile_NotLoggedIn(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "")
	err := a.Run(context.Background(), []string{"profile"})
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestProfile_ValidAccess(t *testing.T) {
	api := &fakeAPI{validAccess: map[string]bool{"a1": true}}
	a, out := newTestApp(t, api, "")
	require.NoError(t, a.sessions.Save(&client.Session{AccessToken: "a1", RefreshToken: "r1"}))

	require.NoError(t, a.Run(context.Background(), []string{"profile"}))
	assert.Contains(t, out.String(), "alice@example.com")
	assert.Empty(t, api.refreshed)
}

func TestProfile_RefreshesOnExpiredAccess(t *testing.T) {
	api := &fakeAPI{
		validAccess: map[string]bool{"a2": true},
		refreshPair: &client.TokenPair{AccessToken: "a2", RefreshToken: "r2"},
	}
	a, out := newTestApp(t, api, "")
	require.NoError(t, a.sessions.Save(&client.Session{AccessToken: "a1", RefreshToken: "r1"}))

	require.NoError(t, a.Run(context.Background(), []string{"profile"}))
	assert.Contains(t, out.String(), "Alice Liddell")
	assert.Equal(t, []string{"r1"}, api.refreshed)

	got, err := a.sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "r2", got.RefreshToken)
}

func TestProfile_OtherErrorIsReturned(t *testing.T) {
	api := &fakeAPI{profileErr: client.ErrUnavailable}
	a, _ := newTestApp(t, api, "")
	require.NoError(t, a.sessions.Save(&client.Session{AccessToken: "a1", RefreshToken: "r1"}))

	err := a.Run(context.Background(), []string{"profile"})
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.Empty(t, api.refreshed)
}

func TestRefresh_RotatesStoredPair(t *testing.T) {
	api := &fakeAPI{refreshPair: &client.TokenPair{AccessToken: "a2", RefreshToken: "r2"}}
	a, out := newTestApp(t, api, "")
	require.NoError(t, a.sessions.Save(&client.Session{AccessToken: "a1", RefreshToken: "r1"}))

	require.NoError(t, a.Run(context.Background(), []string{"refresh"}))
	assert.Contains(t, out.String(), "Tokens refreshed.")

	got, err := a.sessions.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(&client.Session{AccessToken: "a2", RefreshToken: "r2"}, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestRefresh_RejectedClearsSession(t *testing.T) {
	api := &fakeAPI{refreshErr: &client.APIError{Status: 401, Message: "Unauthorized: reused or unknown refresh token"}}
	a, _ := newTestApp(t, api, "")
	require.NoError(t, a.sessions.Save(&client.Session{AccessToken: "a1", RefreshToken: "r1"}))

	err := a.Run(context.Background(), []string{"refresh"})
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = a.sessions.Load()
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestRefresh_TransportErrorKeepsSession(t *testing.T) {
	api := &fakeAPI{refreshErr: client.ErrUnavailable}
	a, _ := newTestApp(t, api, "")
	require.NoError(t, a.sessions.Save(&client.Session{AccessToken: "a1", RefreshToken: "r1"}))

	err := a.Run(context.Background(), []string{"refresh"})
	assert.ErrorIs(t, err, client.ErrUnavailable)

	_, err = a.sessions.Load()
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	a, out := newTestApp(t, &fakeAPI{}, "")
	require.NoError(t, a.sessions.Save(&client.Session{AccessToken: "a1", RefreshToken: "r1"}))

	require.NoError(t, a.Run(context.Background(), []string{"logout"}))
	assert.Contains(t, out.String(), "Logged out.")

	_, err := a.sessions.Load()
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestRun_PropagatesPromptError(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "")
	err := a.Run(context.Background(), []string{"login"})
	assert.ErrorIs(t, err, io.EOF)
}
