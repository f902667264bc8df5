package permission_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate/agentgate/internal/permission"
	"github.com/agentgate/agentgate/internal/permission/repositoryimpl"
	"github.com/agentgate/agentgate/pkg/cerr"
	"github.com/agentgate/agentgate/pkg/storage"
)

type envelope struct {
	Status  string         `json:"status"`
	Data    map[string]any `json:"data"`
	Message string         `json:"message"`
	Error   map[string]any `json:"error"`
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := repositoryimpl.NewJSONRepository(s, "permissions.json")
	srv := permission.NewServer(repo)

	r := chi.NewRouter()
	r.Use(cerr.NewEnvelopeChiMiddleware())
	srv.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, r chi.Router, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if body == "" {
		body = "{}"
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func TestCreateUserHandler(t *testing.T) {
	r := newTestRouter(t)

	rec, env := doRequest(t, r, http.MethodPost, "/users", `{"user_id":"User_123"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "user_123", env.Data["user_id"])
	assert.Equal(t, "User created successfully", env.Message)

	rec, env = doRequest(t, r, http.MethodPost, "/users", `{"user_id":"user_123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "USER_ALREADY_EXISTS", env.Error["code"])
	assert.Equal(t, "user_123", env.Error["user_id"])
}

func TestCreateUserHandlerInvalidRequests(t *testing.T) {
	r := newTestRouter(t)

	rec, env := doRequest(t, r, http.MethodPost, "/users", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error["code"])
	assert.Equal(t, "user_id is required", env.Error["message"])

	rec, env = doRequest(t, r, http.MethodPost, "/users", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error["code"])
}

func TestUserExistsHandler(t *testing.T) {
	r := newTestRouter(t)

	rec, env := doRequest(t, r, http.MethodGet, "/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error["code"])
	assert.Equal(t, "ghost", env.Error["user_id"])

	_, _ = doRequest(t, r, http.MethodPost, "/users", `{"user_id":"ghost"}`)

	rec, env = doRequest(t, r, http.MethodGet, "/users/GHOST", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, true, env.Data["exists"])
	assert.Equal(t, "ghost", env.Data["user_id"])
}

func TestAddAgentHandlerMessages(t *testing.T) {
	r := newTestRouter(t)

	rec, env := doRequest(t, r, http.MethodPost, "/permissions/alice/agents", `{"agent_name":"image-generator"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User created and permission added successfully", env.Message)
	assert.Equal(t, "image-generator", env.Data["agent_added"])

	rec, env = doRequest(t, r, http.MethodPost, "/permissions/alice/agents", `{"agent_name":"code-reviewer"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Permission added successfully", env.Message)

	rec, env = doRequest(t, r, http.MethodPost, "/permissions/alice/agents", `{"agent_name":"image-generator"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Permission already exists", env.Message)
	assert.Equal(t, []any{"image-generator", "code-reviewer"}, env.Data["permitted_agents"])
}

func TestAddAgentHandlerInvalidRequests(t *testing.T) {
	r := newTestRouter(t)

	rec, env := doRequest(t, r, http.MethodPost, "/permissions/alice/agents", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error["code"])
	assert.Equal(t, "agent_name is required", env.Error["message"])

	// A whitespace-only path param normalizes to the empty user id; it must
	// be rejected, not stored under the key "".
	rec, env = doRequest(t, r, http.MethodPost, "/permissions/%20/agents", `{"agent_name":"image-generator"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error["code"])
	assert.Equal(t, "user_id is required", env.Error["message"])
}

func TestListPermissionsHandler(t *testing.T) {
	r := newTestRouter(t)

	rec, env := doRequest(t, r, http.MethodGet, "/permissions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error["code"])

	_, _ = doRequest(t, r, http.MethodPost, "/permissions/bob/agents", `{"agent_name":"data-analyst"}`)

	rec, env = doRequest(t, r, http.MethodGet, "/permissions/bob", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"data-analyst"}, env.Data["permitted_agents"])
}
