package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kanban-auth/internal/bootstrap"
	"kanban-auth/internal/config"
	"kanban-auth/internal/logging"
	"kanban-auth/internal/model"
	"kanban-auth/internal/pkg/jwtutil"
)

const testSecret = "router-test-secret"

type testServer struct {
	t      *testing.T
	app    *bootstrap.App
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.App.GinMode = gin.TestMode
	cfg.Auth.JWTSecret = testSecret
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Database = config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Name:   ":memory:",
		Params: "_pragma=foreign_keys(1)",
	}

	app, err := bootstrap.NewWithConfig(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{t: t, app: app, router: NewRouter(app)}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		payload, err := json.Marshal(v)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) registerAndLogin(email, password string) string {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(s.t, out.AccessToken)
	return out.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["msg"]
}

func TestRegisterLoginListBoards(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, msgOf(t, rec))

	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[map[string]string](t, rec)["access_token"]

	claims, err := jwtutil.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.NotZero(t, claims.UserID)

	rec = s.do(http.MethodGet, "/auth/boards", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	boards := decode[[]model.Board](t, rec)
	require.Len(t, boards, 1)
	assert.Equal(t, model.DefaultBoardName, boards[0].Name)
	require.Len(t, boards[0].Columns, 3)
	assert.Equal(t, []string{"todo", "in-progress", "done"},
		[]string{boards[0].Columns[0].ID, boards[0].Columns[1].ID, boards[0].Columns[2].ID})
	assert.Len(t, boards[0].Columns[0].Tasks, 1)

	rec = s.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "a@x.com", me["email"])
	assert.EqualValues(t, claims.UserID, me["id"])
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, msgOf(t, rec))

	rec = s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "   ", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.registerAndLogin("a@x.com", "secret1")
	rec = s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "a@x.com", "password": "other12"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin("a@x.com", "secret1")

	rec := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/auth/boards"},
		{http.MethodPost, "/auth/boards"},
		{http.MethodGet, "/auth/boards/1"},
		{http.MethodPut, "/auth/boards/1"},
		{http.MethodPut, "/auth/boards/1/columns"},
		{http.MethodDelete, "/auth/boards/1"},
		{http.MethodPut, "/auth/change-password"},
		{http.MethodDelete, "/auth/delete-account"},
	} {
		rec := s.do(tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		assert.NotEmpty(t, msgOf(t, rec))

		rec = s.do(tc.method, tc.path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	forged, err := jwtutil.GenerateToken("another-secret", 0, 1)
	require.NoError(t, err)
	rec := s.do(http.MethodGet, "/auth/me", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBoardLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin("a@x.com", "secret1")

	rec := s.do(http.MethodPost, "/auth/boards", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Board](t, rec)
	assert.Equal(t, "New Board", created.Name)
	assert.Empty(t, created.Columns)
	assert.Contains(t, rec.Body.String(), `"columns":[]`)

	columns := model.Columns{{ID: "c1", Title: "Backlog", Tasks: []model.Task{{ID: "t1", Text: "write tests"}}}}
	rec = s.do(http.MethodPut, "/auth/boards/"+itoa(created.ID), token, gin.H{"name": "Sprint 1", "columns": columns})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Board](t, rec)
	assert.Equal(t, "Sprint 1", updated.Name)
	assert.Equal(t, columns, updated.Columns)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	rec = s.do(http.MethodPut, "/auth/boards/"+itoa(created.ID), token, gin.H{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	reordered := model.Columns{{ID: "c2", Title: "Done", Tasks: []model.Task{}}, columns[0]}
	rec = s.do(http.MethodPut, "/auth/boards/"+itoa(created.ID)+"/columns", token, gin.H{"columns": reordered})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/auth/boards/"+itoa(created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[model.Board](t, rec)
	assert.Equal(t, "Sprint 1", fetched.Name)
	assert.Equal(t, reordered, fetched.Columns)

	rec = s.do(http.MethodPut, "/auth/boards/"+itoa(created.ID)+"/columns", token, gin.H{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/auth/boards", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	boards := decode[[]model.Board](t, rec)
	require.Len(t, boards, 2)
	assert.Less(t, boards[0].ID, boards[1].ID)

	rec = s.do(http.MethodDelete, "/auth/boards/"+itoa(created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/auth/boards/"+itoa(created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodDelete, "/auth/boards/"+itoa(created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBoards_OwnershipAndBadIDs(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin("alice@x.com", "secret1")
	bob := s.registerAndLogin("bob@x.com", "secret2")

	rec := s.do(http.MethodGet, "/auth/boards", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	aliceBoard := decode[[]model.Board](t, rec)[0]
	path := "/auth/boards/" + itoa(aliceBoard.ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, path, bob, gin.H{"name": "stolen"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, path+"/columns", bob, gin.H{"columns": []any{}}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, bob, nil).Code)

	rec = s.do(http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.DefaultBoardName, decode[model.Board](t, rec).Name)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/auth/boards/abc", alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/auth/boards/-1", alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/auth/boards/999999", alice, nil).Code)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin("a@x.com", "secret1")

	rec := s.do(http.MethodPut, "/auth/change-password", token, gin.H{"new_password": "newpass1", "confirm_password": "different"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/auth/change-password", token, gin.H{"new_password": "abc", "confirm_password": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/auth/change-password", token, gin.H{"new_password": "ñññ", "confirm_password": "ñññ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/auth/change-password", token, gin.H{"new_password": "newpass1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/auth/change-password", token, gin.H{"new_password": "newpass1", "confirm_password": "newpass1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t)
	token := s.registerAndLogin("a@x.com", "secret1")

	rec := s.do(http.MethodDelete, "/auth/delete-account", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A wrong email is a 400 here even though a wrong login credential is a 401.
	rec = s.do(http.MethodDelete, "/auth/delete-account", token, gin.H{"email": "other@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodDelete, "/auth/delete-account", token, gin.H{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The token is still well formed but its user is gone.
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/auth/me", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/auth/boards", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/auth/boards", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/auth/delete-account", token, gin.H{"email": "a@x.com"}).Code)

	rec = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The email is free again.
	s.registerAndLogin("a@x.com", "secret1")
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "/auth", health["mount_prefix"])
	components := health["components"].(map[string]any)
	assert.Equal(t, true, components["database"].(map[string]any)["ok"])
	assert.Equal(t, "sqlite", components["database"].(map[string]any)["detail"])
	assert.Equal(t, true, components["schema"].(map[string]any)["ok"])
	assert.Equal(t, "disabled", components["board_cache"].(map[string]any)["detail"])
	assert.Equal(t, "disabled", components["account_events"].(map[string]any)["detail"])

	s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@x.com", "password": "secret1"})

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "kanban_http_requests_total")
	assert.True(t, strings.Contains(body, `route="/auth/login"`), body)

	rec = s.do(http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthz_MissingSchema(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.app.DB.Migrator().DropTable(&model.Board{}))

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	components := decode[map[string]any](t, rec)["components"].(map[string]any)
	assert.Equal(t, false, components["schema"].(map[string]any)["ok"])
	assert.Equal(t, "boards table missing", components["schema"].(map[string]any)["detail"])
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
