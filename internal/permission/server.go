package permission

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentgate/agentgate/pkg/cerr"
)

// Server translates the user and permission HTTP routes into repository
// calls. Input validation and error-to-envelope mapping happen here; the
// repository only ever sees normalized, non-empty ids.
type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/users", s.handleCreateUser)
	r.Get("/users/{user_id}", s.handleUserExists)
	r.Get("/permissions/{user_id}", s.handleListPermissions)
	r.Post("/permissions/{user_id}/agents", s.handleAddAgent)
}

type createUserRequest struct {
	UserID string `json:"user_id"`
}

type createUserResponse struct {
	UserID          string    `json:"user_id"`
	PermittedAgents []string  `json:"permitted_agents"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid JSON in request body", err)
		return
	}
	userID := NormalizeUserID(req.UserID)
	if userID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "user_id is required", nil)
		return
	}

	created, err := s.repo.CreateUser(ctx, userID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !created {
		cerr.SetJSONError(ctx, cerr.NewAPIError(cerr.AlreadyExists, "USER_ALREADY_EXISTS",
			"User already exists in the system", nil).WithContext("user_id", userID))
		return
	}
	cerr.SetJSONCreated(ctx, createUserResponse{
		UserID:          userID,
		PermittedAgents: []string{},
		CreatedAt:       time.Now().UTC(),
	}, "User created successfully")
}

type userExistsResponse struct {
	UserID string `json:"user_id"`
	Exists bool   `json:"exists"`
}

func (s *Server) handleUserExists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := NormalizeUserID(chi.URLParam(r, "user_id"))

	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !exists {
		cerr.SetJSONError(ctx, cerr.NewAPIError(cerr.NotFound, "USER_NOT_FOUND",
			"User was not found in the system", nil).WithContext("user_id", userID))
		return
	}
	cerr.SetJSONResponse(ctx, userExistsResponse{
		UserID: userID,
		Exists: true,
	}, "User exists in the system")
}

type listPermissionsResponse struct {
	UserID          string   `json:"user_id"`
	PermittedAgents []string `json:"permitted_agents"`
}

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := NormalizeUserID(chi.URLParam(r, "user_id"))

	agents, err := s.repo.List(ctx, userID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listPermissionsResponse{
		UserID:          userID,
		PermittedAgents: agents,
	}, "")
}

type addAgentRequest struct {
	AgentName string `json:"agent_name"`
}

type addAgentResponse struct {
	UserID          string   `json:"user_id"`
	AgentAdded      string   `json:"agent_added"`
	PermittedAgents []string `json:"permitted_agents"`
}

func (s *Server) handleAddAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := NormalizeUserID(chi.URLParam(r, "user_id"))
	if userID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "user_id is required", nil)
		return
	}

	var req addAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid JSON in request body", err)
		return
	}
	if req.AgentName == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "agent_name is required", nil)
		return
	}

	result, err := s.repo.AddAgent(ctx, userID, req.AgentName)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var message string
	switch {
	case result.Created:
		message = "User created and permission added successfully"
	case result.AlreadyPresent:
		message = "Permission already exists"
	default:
		message = "Permission added successfully"
	}
	cerr.SetJSONResponse(ctx, addAgentResponse{
		UserID:          result.UserID,
		AgentAdded:      result.AgentName,
		PermittedAgents: result.PermittedAgents,
	}, message)
}
