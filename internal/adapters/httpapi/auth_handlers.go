package httpapi

import (
	"net/http"

	"github.com/commonsclub/groups-api/internal/app/directory"
	"github.com/commonsclub/groups-api/internal/domain"
)

type onboardRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
}

type onboardResponse struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	ClerkUserID string `json:"clerk_user_id"`
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, created, err := s.Directory.Onboard(r.Context(), directory.OnboardInput{
		ExternalID:  domain.ExternalID(req.ClerkUserID),
		DisplayName: req.Name,
		Phone:       req.Phone,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := onboardResponse{
		UserID:      string(u.ID),
		ClerkUserID: string(u.ExternalID),
	}
	if created {
		resp.Message = "User successfully onboarded"
		writeJSON(w, http.StatusCreated, resp)
		return
	}
	resp.Message = "User already exists"
	writeJSON(w, http.StatusOK, resp)
}

type isAdminRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
}

func (s *Server) handleIsAdmin(w http.ResponseWriter, r *http.Request) {
	var req isAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ClerkUserID == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields",
			map[string]any{"clerk_user_id": "must be non-empty"})
		return
	}

	isAdmin, err := s.Directory.IsAdmin(r.Context(), domain.ExternalID(req.ClerkUserID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_admin": isAdmin})
}
