package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	u, _ := newTestUsers(t)
	s := &Server{Log: zap.NewNop(), Users: u, JWT: NewTokenMaker("test"), TokenTTL: time.Minute}
	return s, s.Routes()
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHTTP_RegisterLoginWhoAmI(t *testing.T) {
	s, h := newTestServer(t)

	rr := post(h, "/register", `{"username":"maria","password":"secreto1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = post(h, "/register", `{"username":"MARIA","password":"secreto1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = post(h, "/register", `{"username":"ma","password":"secreto1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = post(h, "/login", `{"username":"maria","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = post(h, "/login", `{"username":"maria","password":"secreto1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var lr loginResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lr))
	require.NotEmpty(t, lr.AccessToken)
	assert.Equal(t, "maria", s.Users.CurrentUser(t.Context()))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+lr.AccessToken)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var who map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &who))
	assert.Equal(t, "maria", who["username"])

	rr = post(h, "/logout", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, s.Users.CurrentUser(t.Context()))
}

func TestHTTP_WhoAmIRequiresToken(t *testing.T) {
	_, h := newTestServer(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHTTP_LoginRateLimited(t *testing.T) {
	_, h := newTestServer(t)

	for i := 0; i < loginLimitPerMin; i++ {
		rr := post(h, "/login", `{"username":"admin","password":"bad-pass"}`)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := post(h, "/login", `{"username":"admin","password":"admin123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}
