package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

type fakeUsers struct {
	signupUser *models.User
	signupErr  error
	gotName    string

	loginPair *services.TokenPair
	loginErr  error

	profile    *models.PublicUser
	profileErr error
	profileFor int64
}

func (f *fakeUsers) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	f.gotName = name
	return f.signupUser, f.signupErr
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.loginPair, f.loginErr
}

func (f *fakeUsers) Profile(ctx context.Context, userID int64) (*models.PublicUser, error) {
	f.profileFor = userID
	return f.profile, f.profileErr
}

type fakeRotation struct {
	pair *services.TokenPair
	err  error
	got  auth.RefreshToken
}

func (f *fakeRotation) Refresh(ctx context.Context, token auth.RefreshToken) (*services.TokenPair, error) {
	f.got = token
	return f.pair, f.err
}

type testEnv struct {
	users    *fakeUsers
	rotation *fakeRotation
	tokens   *auth.TokenManager
	router   *gin.Engine
}

func newTestEnv(t *testing.T, limiter *RateLimiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tm, err := auth.NewTokenManager(secret, time.Minute, time.Hour)
	require.NoError(t, err)

	e := &testEnv{users: &fakeUsers{}, rotation: &fakeRotation{}, tokens: tm}
	h := NewHandler(e.users, e.rotation, auth.NewAuthenticator(tm), logging.Nop{})
	e.router = NewRouter(h, logging.Nop{}, limiter)
	return e
}

func (e *testEnv) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body %s", w.Body.String())
	return out
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

const validSignup = `{"name":"Alice Smith","email":"a@x.com","password":"password1"}`

func TestSignup_Created(t *testing.T) {
	e := newTestEnv(t, nil)
	e.users.signupUser = &models.User{ID: 7}

	w := e.do(http.MethodPost, "/signup", validSignup, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(201), body["status"])
	assert.Equal(t, float64(7), body["user_id"])
	assert.Equal(t, "Alice Smith", e.users.gotName)
}

func TestSignup_InvalidPayload(t *testing.T) {
	e := newTestEnv(t, nil)
	e.users.signupUser = &models.User{ID: 7}

	for name, body := range map[string]string{
		"short name":     `{"name":"Al","email":"a@x.com","password":"password1"}`,
		"bad email":      `{"name":"Alice Smith","email":"not-an-email","password":"password1"}`,
		"short password": `{"name":"Alice Smith","email":"a@x.com","password":"short"}`,
		"missing field":  `{"email":"a@x.com","password":"password1"}`,
		"not json":       `{`,
	} {
		w := e.do(http.MethodPost, "/signup", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	assert.Empty(t, e.users.gotName)
}

func TestSignup_Duplicate(t *testing.T) {
	e := newTestEnv(t, nil)
	e.users.signupErr = common.ErrorAlreadyExists

	w := e.do(http.MethodPost, "/signup", validSignup, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Email is already registered.", decode(t, w)["message"])
}

func TestSignup_InternalErrorIsNotLeaked(t *testing.T) {
	e := newTestEnv(t, nil)
	e.users.signupErr = errors.New("db error: password authentication failed for user postgres")

	w := e.do(http.MethodPost, "/signup", validSignup, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "postgres")
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t, nil)
	e.users.loginPair = &services.TokenPair{AccessToken: "a", RefreshToken: "r"}

	w := e.do(http.MethodPost, "/login", `{"email":"a@x.com","password":"password1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "a", body["access_token"])
	assert.Equal(t, "r", body["refresh_token"])

	e.users.loginErr = common.ErrorInvalidCredentials
	w = e.do(http.MethodPost, "/login", `{"email":"a@x.com","password":"password1"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Invalid email or password.", decode(t, w)["message"])

	w = e.do(http.MethodPost, "/login", `{"email":"a@x.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t, nil)
	e.users.profile = &models.PublicUser{ID: 3, Name: "Alice Smith", Email: "a@x.com"}

	tok, err := e.tokens.Issue(3, auth.KindAccess)
	require.NoError(t, err)

	w := e.do(http.MethodGet, "/profile", "", bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), e.users.profileFor)

	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "Alice Smith", user["name"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, float64(3), user["id"])
}

func TestProfile_MissingHeader(t *testing.T) {
	e := newTestEnv(t, nil)

	w := e.do(http.MethodGet, "/profile", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Authorization header is missing", decode(t, w)["message"])

	w = e.do(http.MethodGet, "/profile", "", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_ExpiredToken(t *testing.T) {
	e := newTestEnv(t, nil)

	past, err := auth.NewTokenManager(secret, time.Minute, time.Hour,
		auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)
	tok, err := past.Issue(3, auth.KindAccess)
	require.NoError(t, err)

	w := e.do(http.MethodGet, "/profile", "", bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile_RefreshTokenRejected(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, err := e.tokens.Issue(3, auth.KindRefresh)
	require.NoError(t, err)

	w := e.do(http.MethodGet, "/profile", "", bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile_UserVanished(t *testing.T) {
	e := newTestEnv(t, nil)
	e.users.profileErr = common.ErrorNotFound
	tok, err := e.tokens.Issue(3, auth.KindAccess)
	require.NoError(t, err)

	w := e.do(http.MethodGet, "/profile", "", bearer(tok))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefresh(t *testing.T) {
	e := newTestEnv(t, nil)
	e.rotation.pair = &services.TokenPair{AccessToken: "a2", RefreshToken: "r2"}
	tok, err := e.tokens.Issue(3, auth.KindRefresh)
	require.NoError(t, err)

	w := e.do(http.MethodGet, "/refresh", "", bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r2", decode(t, w)["refresh_token"])
	assert.Equal(t, tok, e.rotation.got.Raw)
	assert.Equal(t, int64(3), e.rotation.got.UserID)
}

func TestRefresh_Failures(t *testing.T) {
	e := newTestEnv(t, nil)

	w := e.do(http.MethodGet, "/refresh", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	access, err := e.tokens.Issue(3, auth.KindAccess)
	require.NoError(t, err)
	w = e.do(http.MethodGet, "/refresh", "", bearer(access))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/refresh", "", bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	refresh, err := e.tokens.Issue(3, auth.KindRefresh)
	require.NoError(t, err)
	e.rotation.err = auth.ErrRefreshReused
	w = e.do(http.MethodGet, "/refresh", "", bearer(refresh))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized: reused or unknown refresh token", decode(t, w)["message"])

	e.rotation.err = errors.New("db error: timeout")
	w = e.do(http.MethodGet, "/refresh", "", bearer(refresh))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit(t *testing.T) {
	e := newTestEnv(t, NewRateLimiter(1))
	e.users.loginErr = common.ErrorInvalidCredentials

	body := `{"email":"a@x.com","password":"password1"}`
	w := e.do(http.MethodPost, "/login", body, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodPost, "/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// protected routes are not throttled
	w = e.do(http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0))
	assert.NotNil(t, (*RateLimiter)(nil).Handler())
}

func TestRequestID(t *testing.T) {
	e := newTestEnv(t, nil)

	w := e.do(http.MethodGet, "/profile", "", map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	w = e.do(http.MethodGet, "/profile", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t, nil)
	e.do(http.MethodGet, "/profile", "", nil)

	w := e.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sessionkeeper_auth_failures_total")
}
