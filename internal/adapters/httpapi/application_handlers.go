package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/commonsclub/groups-api/internal/app/applications"
	"github.com/commonsclub/groups-api/internal/domain"
)

type applyRequest struct {
	ClerkUserID string  `json:"clerk_user_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    *string `json:"image_url"`
}

type applicationJSON struct {
	ID            string     `json:"id"`
	ApplicantID   string     `json:"applicant_id"`
	ApplicantName string     `json:"applicant_name,omitempty"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	ImageURL      *string    `json:"image_url,omitempty"`
	Status        string     `json:"status"`
	ReviewerID    *string    `json:"reviewer_id,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ClerkUserID == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields",
			map[string]any{"clerk_user_id": "must be non-empty"})
		return
	}

	a, err := s.Applications.Apply(r.Context(), domain.ExternalID(req.ClerkUserID), applications.ApplyInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "application submitted",
		"application": toApplicationJSON(a),
	})
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	as, err := s.Applications.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]applicationJSON, 0, len(as))
	for _, a := range as {
		out = append(out, applicationJSON{
			ID:            string(a.ID),
			ApplicantID:   string(a.ApplicantID),
			ApplicantName: a.ApplicantName,
			Name:          a.Name,
			Description:   a.Description,
			ImageURL:      a.ImageURL,
			Status:        string(a.Status),
			CreatedAt:     a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": out})
}

func (s *Server) handleApplicationDetail(w http.ResponseWriter, r *http.Request) {
	a, err := s.Applications.Get(r.Context(), domain.ApplicationID(chi.URLParam(r, "applicationID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationJSON(a))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req identifiedRequest
	if !requireIdentity(w, r, &req) {
		return
	}

	groupID, err := s.Applications.Approve(r.Context(),
		domain.ApplicationID(chi.URLParam(r, "applicationID")),
		domain.ExternalID(req.ClerkUserID),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "application approved",
		"group_id": string(groupID),
	})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req identifiedRequest
	if !requireIdentity(w, r, &req) {
		return
	}

	appID := domain.ApplicationID(chi.URLParam(r, "applicationID"))
	if err := s.Applications.Reject(r.Context(), appID, domain.ExternalID(req.ClerkUserID)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "application rejected",
		"application_id": string(appID),
	})
}

func toApplicationJSON(a domain.Application) applicationJSON {
	out := applicationJSON{
		ID:          string(a.ID),
		ApplicantID: string(a.ApplicantID),
		Name:        a.Name,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Status:      string(a.Status),
		ReviewedAt:  a.ReviewedAt,
		CreatedAt:   a.CreatedAt,
	}
	if a.ReviewerID != nil {
		id := string(*a.ReviewerID)
		out.ReviewerID = &id
	}
	return out
}
