package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			DatabaseURL: filepath.Join(t.TempDir(), "taskboard.sqlite"),
			JWTSecret:   "test-secret",
			CORSOrigins: []string{"http://localhost:5173"},
		},
	}

	srv, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

// call sends a JSON request and decodes the JSON response into out
func call(t *testing.T, srv *Server, method, path, token string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type message struct {
	Message string `json:"message"`
}

// signUp registers and logs in a user, returning the token and user ID
func signUp(t *testing.T, srv *Server, name, email string) (string, string) {
	t.Helper()

	code := call(t, srv, http.MethodPost, "/api/auth/register", "",
		RegisterRequest{Name: name, Email: email, Password: "secret1"}, nil)
	require.Equal(t, http.StatusCreated, code)

	var resp LoginResponse
	code = call(t, srv, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Email: email, Password: "secret1"}, &resp)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, resp.TokenDetails.Token)
	return resp.TokenDetails.Token, resp.Data.ID
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]any
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "online", body["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	var created struct {
		Data UserDetail `json:"data"`
	}
	code := call(t, srv, http.MethodPost, "/api/auth/register", "",
		RegisterRequest{Name: "Ada", Email: "Ada@Example.com", Password: "secret1"}, &created)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "ada@example.com", created.Data.Email)
	assert.Len(t, created.Data.ID, 26, "IDs are ULIDs")

	var msg message
	code = call(t, srv, http.MethodPost, "/api/auth/register", "",
		RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}, &msg)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email already registered", msg.Message)

	var resp LoginResponse
	code = call(t, srv, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Email: "ada@example.com", Password: "secret1"}, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.Data, resp.Data)
	assert.NotEmpty(t, resp.TokenDetails.Token)

	code = call(t, srv, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Email: "ada@example.com", Password: "wrong"}, &msg)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", msg.Message)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	var msg message
	code := call(t, srv, http.MethodPost, "/api/auth/register", "",
		RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "abc"}, &msg)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, msg.Message, "email must be a valid email address")
	assert.Contains(t, msg.Message, "password must be at least 6 characters")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	var msg message
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/project", "", nil, &msg))
	assert.Equal(t, "Missing authorization header", msg.Message)

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/task", "garbage", nil, &msg))
	assert.Equal(t, "Invalid or expired token", msg.Message)
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCurrentUser(t *testing.T) {
	srv := newTestServer(t)
	token, userID := signUp(t, srv, "Ada", "ada@example.com")

	var resp struct {
		Data UserDetail `json:"data"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/auth/me", token, nil, &resp))
	assert.Equal(t, UserDetail{ID: userID, Name: "Ada", Email: "ada@example.com"}, resp.Data)
}

func TestNewWithoutCORSOrigins(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			DatabaseURL: filepath.Join(t.TempDir(), "taskboard.sqlite"),
			JWTSecret:   "test-secret",
		},
	}

	var srv *Server
	require.NotPanics(t, func() {
		var err error
		srv, err = New(cfg, zerolog.Nop())
		require.NoError(t, err)
	})
	t.Cleanup(func() { srv.Close() })

	req := httptest.NewRequest(http.MethodOptions, "/api/project", nil)
	req.Header.Set("Origin", config.DefaultCORSOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, config.DefaultCORSOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestJWTSecretPersisted(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "taskboard.sqlite")
	cfg := &config.Config{Server: config.ServerConfig{DatabaseURL: dbPath}}

	first, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	token, _ := signUp(t, first, "Ada", "ada@example.com")
	require.NoError(t, first.Close())

	// A restarted server accepts tokens issued before the restart
	second, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	assert.Equal(t, http.StatusOK, call(t, second, http.MethodGet, "/api/project", token, nil, nil))
}
