package profile

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentgate/agentgate/pkg/cerr"
)

// Server translates the profile HTTP routes into repository calls.
type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", s.handleListProfiles)
	r.Post("/profiles", s.handleCreateProfile)
	r.Get("/profiles/{user_id}", s.handleGetProfile)
	r.Put("/profiles/{user_id}", s.handleUpdateProfile)
	r.Delete("/profiles/{user_id}", s.handleDeleteProfile)
}

// Summary is the trimmed per-profile shape of the list endpoint.
type Summary struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Company   string    `json:"company"`
	CreatedAt time.Time `json:"created_at"`
}

type listProfilesResponse struct {
	Profiles   []Summary `json:"profiles"`
	TotalCount int       `json:"total_count"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profiles, err := s.repo.ListAll(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	summaries := make([]Summary, 0, len(profiles))
	for userID, p := range profiles {
		summaries = append(summaries, Summary{
			UserID:    userID,
			Email:     p.Email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Company:   p.Company,
			CreatedAt: p.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].UserID < summaries[j].UserID })
	cerr.SetJSONResponse(ctx, listProfilesResponse{
		Profiles:   summaries,
		TotalCount: len(summaries),
	}, "")
}

type profileResponse struct {
	UserID  string   `json:"user_id"`
	Profile *Profile `json:"profile"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var fields Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid JSON in request body", err)
		return
	}
	userID, p, err := s.repo.Create(ctx, fields)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONCreated(ctx, profileResponse{
		UserID:  userID,
		Profile: p,
	}, "Profile created successfully")
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := DeriveUserID(chi.URLParam(r, "user_id"))

	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, profileResponse{
		UserID:  userID,
		Profile: p,
	}, "")
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := DeriveUserID(chi.URLParam(r, "user_id"))

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Invalid JSON in request body", err)
		return
	}
	p, err := s.repo.Update(ctx, userID, update)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, profileResponse{
		UserID:  userID,
		Profile: p,
	}, "Profile updated successfully")
}

type deleteProfileResponse struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := DeriveUserID(chi.URLParam(r, "user_id"))

	if err := s.repo.Delete(ctx, userID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, deleteProfileResponse{
		UserID: userID,
	}, "Profile deleted successfully")
}
