package account_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/otherus/otherus/handler"
	"github.com/otherus/otherus/modules/account"
	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/httpserver"
	"github.com/otherus/otherus/pkg/jwt"
	"github.com/otherus/otherus/pkg/redis"
	"github.com/otherus/otherus/pkg/userstore"
	"github.com/otherus/otherus/svc/profile"
)

// fakeProvider stands in for an OAuth provider; codes map to identities.
type fakeProvider struct {
	id         string
	identities map[string]auth.Identity
}

func (p *fakeProvider) ProviderID() string { return p.id }

func (p *fakeProvider) AuthURL(state string) string {
	return "https://" + p.id + ".test/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) ExchangeIdentity(_ context.Context, code string) (auth.Identity, error) {
	id, ok := p.identities[code]
	if !ok {
		return auth.Identity{}, auth.ErrProviderExchangeFailed
	}
	return id, nil
}

type testApp struct {
	router http.Handler
	mr     *miniredis.Miniredis
	store  *userstore.RedisStore
	tokens *jwt.Service
	now    time.Time
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	app := &testApp{now: time.Now()}
	app.mr = miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: app.mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	app.store = userstore.NewRedisStore(client)

	tokens, err := jwt.New([]byte("test-secret-key-with-enough-bytes"),
		jwt.WithTTL(time.Hour),
		jwt.WithClock(func() time.Time { return app.now }),
	)
	require.NoError(t, err)
	app.tokens = tokens

	github := &fakeProvider{id: auth.ProviderGitHub, identities: map[string]auth.Identity{
		"gh-code": {
			OAuthID: "583231", Email: "Octo@Example.com", EmailVerified: true,
			DisplayName: "Octo", AvatarURL: "https://avatars.test/octo", Bio: "meow",
		},
	}}
	google := &fakeProvider{id: auth.ProviderGoogle, identities: map[string]auth.Identity{}}

	authSvc := auth.NewService(app.store, app.store, tokens, auth.NewProviders(github, google),
		auth.WithPasswordHasher(auth.NewPasswordHasher(auth.WithBcryptCost(bcrypt.MinCost))),
	)
	errHandler := handler.NewErrorHandler(nil, account.ClassifyError)
	guard := auth.NewGuard(tokens, app.store, auth.WithGuardErrorHandler(handler.HTTPErrorHandler(errHandler)))

	app.router = account.Router(account.RouterOptions{
		Password: account.NewPasswordService(authSvc, errHandler),
		OAuth:    account.NewOAuthService(authSvc, "http://localhost:8550/", errHandler),
		Profile:  account.NewProfileService(profile.NewService(app.store), guard, errHandler),
		Health:   httpserver.HealthHandler("Other Us API", nil, redis.Healthcheck(client)),
	})
	return app
}

func (a *testApp) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) register(t *testing.T, email, password, name string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password, "display_name": name})
	require.NoError(t, err)
	return a.do(t, http.MethodPost, "/auth/register", "", strings.NewReader(string(body)), "application/json")
}

func (a *testApp) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	return a.do(t, http.MethodPost, "/auth/token", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func signUp(t *testing.T, a *testApp, email, name string) account.TokenResponse {
	t.Helper()
	rec := a.register(t, email, "correct horse", name)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[account.TokenResponse](t, rec)
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.register(t, "  Alice@Example.com", "correct horse", "Alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reg := decode[account.TokenResponse](t, rec)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "bearer", reg.TokenType)
	assert.Equal(t, "alice@example.com", reg.Email)
	assert.Equal(t, "Alice", reg.DisplayName)

	rec = app.login(t, "ALICE@example.com", "correct horse")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, reg.UserID, decode[account.TokenResponse](t, rec).UserID)

	rec = app.login(t, "alice@example.com", "wrong horse")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Incorrect email or password", decode[handler.ErrorBody](t, rec).Detail)

	rec = app.login(t, "nobody@example.com", "correct horse")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	signUp(t, app, "dup@example.com", "First")
	rec := app.register(t, "DUP@example.com", "another pw", "Second")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[handler.ErrorBody](t, rec)
	assert.Equal(t, "Email already registered", body.Detail)
	assert.Equal(t, "email_taken", body.Code)

	members, err := app.mr.Members("users:all")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRegister_MissingFields(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", "", strings.NewReader(`{"email":"x@example.com"}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[handler.ErrorBody](t, rec)
	assert.Contains(t, body.Fields, "password")
	assert.Contains(t, body.Fields, "display_name")

	rec = app.do(t, http.MethodPost, "/auth/register", "", strings.NewReader(`not json`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = app.do(t, http.MethodPost, "/auth/token", "", strings.NewReader("username=x@example.com"), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProfileEndpoints_NeverExposePasswordHash(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	me := signUp(t, app, "me@example.com", "Me")
	other := signUp(t, app, "other@example.com", "Other Person")

	responses := []*httptest.ResponseRecorder{
		app.do(t, http.MethodGet, "/users/me", me.AccessToken, nil, ""),
		app.do(t, http.MethodPut, "/users/me", me.AccessToken, strings.NewReader(`{"bio":"hello"}`), "application/json"),
		app.do(t, http.MethodGet, "/users/"+other.UserID, me.AccessToken, nil, ""),
		app.do(t, http.MethodGet, "/users/search/query?q=other", me.AccessToken, nil, ""),
	}
	for _, rec := range responses {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "password_hash")
		assert.NotContains(t, rec.Body.String(), "$2a$")
	}

	public := decode[map[string]any](t, responses[2])
	assert.NotContains(t, public, "email")
	assert.NotContains(t, public, "oauth_id")
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	me := signUp(t, app, "me@example.com", "Me")

	rec := app.do(t, http.MethodPut, "/users/me", me.AccessToken,
		strings.NewReader(`{"bio":"rock climber","location":"Oslo","email":"ignored@example.com","provider":"github"}`),
		"application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[auth.Profile](t, rec)
	assert.Equal(t, "rock climber", got.Bio)
	assert.Equal(t, "Oslo", got.Location)
	assert.Equal(t, "Me", got.DisplayName)
	assert.Equal(t, "me@example.com", got.Email)
	assert.Equal(t, auth.ProviderEmail, got.Provider)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	rec = app.do(t, http.MethodGet, "/users/me", me.AccessToken, nil, "")
	assert.Equal(t, "rock climber", decode[auth.Profile](t, rec).Bio)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	me := signUp(t, app, "climber@example.com", "Climber Me")
	signUp(t, app, "ann@example.com", "Ann Climber")
	signUp(t, app, "bob@example.com", "Bob")

	rec := app.do(t, http.MethodGet, "/users/search/query?q=+CLIMBER+", me.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[account.SearchResponse](t, rec)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "Ann Climber", res.Results[0].DisplayName)

	rec = app.do(t, http.MethodGet, "/users/search/query?q=x", me.AccessToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Query must be at least 2 characters", decode[handler.ErrorBody](t, rec).Detail)

	rec = app.do(t, http.MethodGet, "/users/search/query?q=zzz", me.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[],"count":0}`, rec.Body.String())
}

func TestGetUser_NotFound(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	me := signUp(t, app, "me@example.com", "Me")

	rec := app.do(t, http.MethodGet, "/users/does-not-exist", me.AccessToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode[handler.ErrorBody](t, rec).Detail)
}

func TestGuard(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	me := signUp(t, app, "me@example.com", "Me")

	t.Run("missing token", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/users/me", "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Invalid or expired token", decode[handler.ErrorBody](t, rec).Detail)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		forger, err := jwt.New([]byte("some-other-secret"))
		require.NoError(t, err)
		forged, err := forger.Issue(me.UserID)
		require.NoError(t, err)

		rec := app.do(t, http.MethodGet, "/users/me", forged, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/users/me", "not-a-jwt", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGuard_ExpiredToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	me := signUp(t, app, "me@example.com", "Me")

	app.now = app.now.Add(59 * time.Minute)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/users/me", me.AccessToken, nil, "").Code)

	app.now = app.now.Add(time.Minute)
	rec := app.do(t, http.MethodGet, "/users/me", me.AccessToken, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	me := signUp(t, app, "gone@example.com", "Gone")
	viewer := signUp(t, app, "viewer@example.com", "Viewer")

	rec := app.do(t, http.MethodDelete, "/users/me", me.AccessToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Account deleted successfully"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/users/me", me.AccessToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "token for a deleted user is not an auth failure")
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))

	rec = app.do(t, http.MethodGet, "/users/"+me.UserID, viewer.AccessToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/users/search/query?q=gone", viewer.AccessToken, nil, "")
	assert.Equal(t, 0, decode[account.SearchResponse](t, rec).Count)

	again := signUp(t, app, "gone@example.com", "Back Again")
	assert.NotEqual(t, me.UserID, again.UserID)
}

func TestOAuthFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/auth/github/login", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	start := decode[auth.OAuthStart](t, rec)
	require.NotEmpty(t, start.State)
	assert.Contains(t, start.AuthURL, url.QueryEscape(start.State))
	assert.Equal(t, 10*time.Minute, app.mr.TTL("oauth_state:"+start.State))

	callback := "/auth/github/callback?code=gh-code&state=" + url.QueryEscape(start.State)
	rec = app.do(t, http.MethodGet, callback, "", nil, "")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8550", loc.Host)
	assert.Equal(t, "/oauth_callback", loc.Path)
	assert.Equal(t, "github", loc.Query().Get("provider"))

	token := loc.Query().Get("token")
	rec = app.do(t, http.MethodGet, "/users/me", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[auth.Profile](t, rec)
	assert.Equal(t, "octo@example.com", me.Email)
	assert.Equal(t, auth.ProviderGitHub, me.Provider)
	assert.Equal(t, "583231", me.OAuthID)
	assert.Equal(t, "meow", me.Bio)

	t.Run("state cannot be replayed", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, callback, "", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid OAuth state", decode[handler.ErrorBody](t, rec).Detail)
	})
}

func TestOAuthFlow_MergesIntoPasswordAccount(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	existing := signUp(t, app, "octo@example.com", "Original Name")

	start := decode[auth.OAuthStart](t, app.do(t, http.MethodGet, "/auth/github/login", "", nil, ""))
	rec := app.do(t, http.MethodGet, "/auth/github/callback?code=gh-code&state="+url.QueryEscape(start.State), "", nil, "")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	me := decode[auth.Profile](t, app.do(t, http.MethodGet, "/users/me", loc.Query().Get("token"), nil, ""))
	assert.Equal(t, existing.UserID, me.ID)
	assert.Equal(t, auth.ProviderEmail, me.Provider)
	assert.Equal(t, "Original Name", me.DisplayName)
	assert.Equal(t, "https://avatars.test/octo", me.AvatarURL)

	assert.Equal(t, http.StatusOK, app.login(t, "octo@example.com", "correct horse").Code, "password still works")
}

func TestOAuthFlow_Errors(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/auth/gitlab/login", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/auth/github/callback?code=gh-code&state=forged", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_state", decode[handler.ErrorBody](t, rec).Code)

	// A state issued for Google cannot finish a GitHub callback.
	start := decode[auth.OAuthStart](t, app.do(t, http.MethodGet, "/auth/google/login", "", nil, ""))
	rec = app.do(t, http.MethodGet, "/auth/github/callback?code=gh-code&state="+url.QueryEscape(start.State), "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	start = decode[auth.OAuthStart](t, app.do(t, http.MethodGet, "/auth/github/login", "", nil, ""))
	rec = app.do(t, http.MethodGet, "/auth/github/callback?code=bogus&state="+url.QueryEscape(start.State), "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "provider_exchange_failed", decode[handler.ErrorBody](t, rec).Code)
}

func TestOAuthState_ExpiresAfterTenMinutes(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	start := decode[auth.OAuthStart](t, app.do(t, http.MethodGet, "/auth/github/login", "", nil, ""))
	app.mr.FastForward(10 * time.Minute)

	rec := app.do(t, http.MethodGet, "/auth/github/callback?code=gh-code&state="+url.QueryEscape(start.State), "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"Other Us API"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	app.mr.Close()
	rec = app.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/users/me", nil)
	req.Header.Set("Origin", "http://localhost:8550")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
