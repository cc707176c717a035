package httpx

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	"github.com/dmitrijs2005/accounts/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

const testOrigin = "http://localhost:3000"

type fakeImages struct {
	upload *models.ImageUpload
	err    error
}

func (f *fakeImages) PresignUpload(ctx context.Context, claims *auth.Claims, username string) (*models.ImageUpload, error) {
	if err := auth.Authorize(claims, username); err != nil {
		return nil, err
	}
	return f.upload, f.err
}

type env struct {
	router *Router
	tokens *auth.TokenService
	health error
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	tokens, err := auth.NewTokenService([]byte("test-secret"), "HS256", time.Hour)
	require.NoError(t, err)

	us := services.NewUserService(db, repomanager.NewInMemoryRepositoryManager(), auth.NewHasher(bcrypt.MinCost), tokens, logging.Nop())
	images := &fakeImages{upload: &models.ImageUpload{
		UploadURL: "http://s3/avatars/avatars/test/1?X-Amz-Signature=x",
		ImageURL:  "http://s3/avatars/avatars/test/1",
	}}

	e := &env{tokens: tokens}
	e.router = NewRouter(logging.Nop(), us, images, []string{testOrigin}, func(context.Context) error { return e.health })
	return e
}

func (e *env) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) registerAndLogin(t *testing.T, username, email, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{"username": username, "email": email, "password": password}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["detail"]
}

func tokenHeader(tok string) map[string]string {
	return map[string]string{common.TokenHeaderName: tok}
}

func TestRegister_ReturnsPublicProfile(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{"username": "test", "email": "test@example.com", "password": "pw"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "test", body["username"])
	for _, secret := range []string{"password", "hashed_password", "password_salt", "email"} {
		assert.NotContains(t, body, secret)
	}
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestRegister_Errors(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "test", "test@example.com", "pw")

	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{"username": "test", "email": "test@example.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "test@example.com already exist in the database.", detail(t, rec))

	rec = e.do(t, http.MethodPost, "/auth/register", map[string]string{"username": "test", "email": "new@example.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "test is already taken.", detail(t, rec))

	rec = e.do(t, http.MethodPost, "/auth/register", map[string]string{"username": "x", "email": "x@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username, email and password are required", detail(t, rec))

	rec = e.do(t, http.MethodPost, "/auth/register", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", detail(t, rec))
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	tok := e.registerAndLogin(t, "test", "test@example.com", "pw")

	claims, err := e.tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "test", claims.Username)

	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "test@example.com", "password": "pw"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var res models.LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "test@example.com", res.User.Email)
	assert.NotZero(t, res.User.ID)

	wrong := e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "test", "password": "nope"}, nil)
	unknown := e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "ghost", "password": "pw"}, nil)
	assert.Equal(t, http.StatusForbidden, wrong.Code)
	assert.Equal(t, http.StatusForbidden, unknown.Code)
	assert.Equal(t, "Invalid credentials.", detail(t, wrong))
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestGetUser(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "test", "test@example.com", "pw")

	rec := e.do(t, http.MethodGet, "/users/test", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var u models.PublicUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "test", u.Username)

	rec = e.do(t, http.MethodGet, "/users/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "There is no record for: ghost", detail(t, rec))
}

type brokenStore struct{ users.Repository }

func (brokenStore) FindBy(context.Context, users.Field, any) (*models.User, error) {
	return nil, errors.New("connection reset by peer")
}

type brokenStoreManager struct{}

func (brokenStoreManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (brokenStoreManager) Users(dbx.DBTX) users.Repository              { return brokenStore{} }

func TestGetUser_StoreFailure(t *testing.T) {
	tokens, err := auth.NewTokenService([]byte("test-secret"), "HS256", time.Hour)
	require.NoError(t, err)
	us := services.NewUserService(nil, brokenStoreManager{}, auth.NewHasher(bcrypt.MinCost), tokens, logging.Nop())
	r := NewRouter(logging.Nop(), us, nil, nil, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/test", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Unable to look up user: storage failure", detail(t, rec))
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestUpdateUser(t *testing.T) {
	e := newEnv(t)
	tok := e.registerAndLogin(t, "test", "test@example.com", "pw")

	rec := e.do(t, http.MethodPatch, "/users/test", map[string]string{"bio": "hello", "email": ""}, tokenHeader(tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var u models.PrivateUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	require.NotNil(t, u.Bio)
	assert.Equal(t, "hello", *u.Bio)
	assert.Equal(t, "test@example.com", u.Email)
}

func TestUpdateUser_ForeignToken(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "test", "test@example.com", "pw")
	other := e.registerAndLogin(t, "other", "other@example.com", "pw")

	rec := e.do(t, http.MethodPatch, "/users/test", map[string]string{"bio": "pwned"}, tokenHeader(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to perform requested action.", detail(t, rec))

	rec = e.do(t, http.MethodDelete, "/users/test", nil, tokenHeader(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to perform requested action.", detail(t, rec))
}

func TestProtectedRoutes_TokenProblems(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "test", "test@example.com", "pw")

	rec := e.do(t, http.MethodPatch, "/users/test", map[string]string{"bio": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unable to decode JWT token.", detail(t, rec))

	rec = e.do(t, http.MethodPatch, "/users/test", map[string]string{"bio": "x"}, tokenHeader("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unable to decode JWT token.", detail(t, rec))

	expired, err := e.tokens.IssueWithTTL("test", -time.Minute)
	require.NoError(t, err)
	rec = e.do(t, http.MethodDelete, "/users/test", nil, tokenHeader(expired))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Your token has expired.", detail(t, rec))
}

func TestDeleteUser(t *testing.T) {
	e := newEnv(t)
	tok := e.registerAndLogin(t, "test", "test@example.com", "pw")

	rec := e.do(t, http.MethodDelete, "/users/test", nil, tokenHeader(tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body models.DeletedUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "test", body.DeletedUser.Username)

	rec = e.do(t, http.MethodGet, "/users/test", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImageUpload(t *testing.T) {
	e := newEnv(t)
	tok := e.registerAndLogin(t, "test", "test@example.com", "pw")
	other := e.registerAndLogin(t, "other", "other@example.com", "pw")

	rec := e.do(t, http.MethodPost, "/users/test/image", nil, tokenHeader(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	var up models.ImageUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Contains(t, up.UploadURL, "X-Amz-Signature")

	rec = e.do(t, http.MethodPost, "/users/test/image", nil, tokenHeader(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	e.health = errors.New("db down")
	rec = e.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodGet, "/users/ghost", nil, nil)

	rec := e.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `accounts_api_http_requests_total{method="GET",route="GET /users/{username}",status="404"} 1`)
}

func TestCORS(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodOptions, "/users/test", nil, map[string]string{
		"Origin":                        testOrigin,
		"Access-Control-Request-Method": http.MethodPatch,
	})
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = e.do(t, http.MethodGet, "/healthz", nil, map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", nil, map[string]string{requestIDHeader: "abc"})
	assert.Equal(t, "abc", rec.Header().Get(requestIDHeader))

	rec = e.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

type panickyUsers struct{ UserService }

func (panickyUsers) GetByUsername(context.Context, string) (*models.User, error) {
	panic("boom")
}

func TestRecoverer(t *testing.T) {
	r := NewRouter(logging.Nop(), panickyUsers{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", detail(t, rec))
}
