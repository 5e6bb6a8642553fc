package adapthttp_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapthttp "identity/internal/adapter/http"
	"identity/internal/adapter/memory"
	"identity/internal/app"
)

// client drives the handler directly, carrying the session cookie between
// requests the way a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()

	db := memory.New()
	sessions := app.NewSessionManager(memory.NewSessionStore(db), 0)
	auth := app.NewAuthService(db, sessions)
	users := app.NewUserService(db)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := adapthttp.New(auth, users, sessions.TTL(), log)

	return &client{t: t, handler: srv.Handler()}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sid" {
			if ck.MaxAge < 0 {
				c.cookie = nil
			} else {
				c.cookie = ck
			}
		}
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func credentials(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func TestHealth(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["ok"])
}

func TestAuthLifecycle(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodPost, "/auth/register", credentials("alice@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, c.cookie, "register should open a session")

	rec = c.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, c.cookie, "logout should clear the cookie")

	rec = c.do(http.MethodPost, "/auth/login", credentials("alice@x.com", "wrong"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decode(t, rec)["error"])

	rec = c.do(http.MethodPost, "/auth/login", credentials("alice@x.com", "secret1"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c.cookie)

	rec = c.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, true, me["authenticated"])
	user, ok := me["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", user["email"])
	assert.NotContains(t, user, "passwordHash")

	rec = c.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["authenticated"])
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodPost, "/auth/register", credentials("alice@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do(http.MethodPost, "/auth/register", credentials("Alice@X.com", "other12"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUsersRoutesRequireSession(t *testing.T) {
	c := newClient(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/stats"},
		{http.MethodPost, "/users/one"},
		{http.MethodDelete, "/users/many"},
	} {
		rec := c.do(route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func (c *client) login(t *testing.T) {
	t.Helper()

	rec := c.do(http.MethodPost, "/auth/register", credentials("admin@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateOne(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodPost, "/users/one", credentials("bob@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User created", body["message"])

	rec = c.do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])
}

func TestCreateManyReportsPartialSuccess(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodPost, "/users/many", map[string]any{
		"users": []map[string]string{
			{"email": "bob@x.com", "password": "secret1"},
			{"email": "admin@x.com", "password": "secret1"}, // already registered
			{"email": "carol@x.com", "password": "secret1"},
		},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "duplicate email detected", body["error"])
	assert.EqualValues(t, 2, body["insertedCount"])
}

func TestCursorPagination(t *testing.T) {
	c := newClient(t)
	c.login(t)

	for i := 0; i < 4; i++ {
		rec := c.do(http.MethodPost, "/users/one", credentials(fmt.Sprintf("u%d@x.com", i), "secret1"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var seen int
	cursor := ""
	for {
		path := "/users/cursor?pageSize=2"
		if cursor != "" {
			path += "&after=" + cursor
		}
		rec := c.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		seen += len(body["users"].([]any))
		next, ok := body["nextCursor"].(string)
		if !ok {
			break
		}
		cursor = next
	}
	assert.Equal(t, 5, seen, "admin plus the four created users")
}

func TestCursorRejectsBadCursor(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodGet, "/users/cursor?after=not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchByEmail(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodGet, "/users/search?email=admin@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])

	rec = c.do(http.MethodGet, "/users/search?email=nobody@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])
}

func TestUpdateOneRejectsMalformedID(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodPatch, "/users/one/nope", map[string]any{"email": "new@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOneAbsentIDMatchesNothing(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodPatch, "/users/one/ffffffffffffffffffffffff", map[string]any{"email": "new@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 0, body["matched"])
	assert.EqualValues(t, 0, body["modified"])
}

func TestUpdateManyRequiresFilterAndUpdate(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodPatch, "/users/many", map[string]any{"update": map[string]any{"email": "x@x.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteManyWithEmptyBody(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodPost, "/users/one", credentials("bob@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do(http.MethodDelete, "/users/many", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["deletedCount"])
}

func TestDeleteOneAbsentIDIsZeroCountSuccess(t *testing.T) {
	c := newClient(t)
	c.login(t)

	rec := c.do(http.MethodDelete, "/users/one/ffffffffffffffffffffffff", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["deletedCount"])
}

func TestStats(t *testing.T) {
	c := newClient(t)
	c.login(t)

	for _, e := range []string{"a@one.com", "b@one.com", "c@two.com"} {
		rec := c.do(http.MethodPost, "/users/one", credentials(e, "secret1"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := c.do(http.MethodGet, "/users/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 4, body["totalUsers"])
	assert.EqualValues(t, 3, body["uniqueDomainCount"])
	top := body["topDomains"].([]any)
	require.NotEmpty(t, top)
	first := top[0].(map[string]any)
	assert.Equal(t, "one.com", first["domain"])
	assert.EqualValues(t, 2, first["count"])
}

func TestInvalidJSONIsBadRequest(t *testing.T) {
	c := newClient(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
