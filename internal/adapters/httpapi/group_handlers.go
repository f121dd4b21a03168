package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/commonsclub/groups-api/internal/app/groups"
	"github.com/commonsclub/groups-api/internal/domain"
)

type groupSummaryJSON struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    *string `json:"image_url,omitempty"`
	CreatorID   string  `json:"creator_id"`
	CreatorName string  `json:"creator_name"`
}

type groupDetailJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatorID   string    `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type memberJSON struct {
	UserID      string    `json:"user_id"`
	ClerkUserID string    `json:"clerk_user_id"`
	Name        string    `json:"name"`
	MemberRole  string    `json:"member_role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// identifiedRequest is the body shape for operations whose only input is the
// caller's external identity.
type identifiedRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	gs, err := s.Groups.ListGroups(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]groupSummaryJSON, 0, len(gs))
	for _, g := range gs {
		out = append(out, groupSummaryJSON{
			ID:          string(g.ID),
			Name:        g.Name,
			Description: g.Description,
			ImageURL:    g.ImageURL,
			CreatorID:   string(g.CreatorID),
			CreatorName: g.CreatorName,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (s *Server) handleGroupDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.Groups.GetGroup(r.Context(), domain.GroupID(chi.URLParam(r, "groupID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailJSON(d))
}

func (s *Server) handleGetCreator(w http.ResponseWriter, r *http.Request) {
	creator, err := s.Groups.GetCreator(r.Context(), domain.GroupID(chi.URLParam(r, "groupID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"creator": map[string]any{
			"user_id":       string(creator.ID),
			"clerk_user_id": string(creator.ExternalID),
			"name":          creator.DisplayName,
		},
	})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Groups.Members(r.Context(), domain.GroupID(chi.URLParam(r, "groupID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]memberJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMemberJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req identifiedRequest
	if !requireIdentity(w, r, &req) {
		return
	}

	m, err := s.Groups.Join(r.Context(), domain.GroupID(chi.URLParam(r, "groupID")), domain.ExternalID(req.ClerkUserID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "joined group",
		"member":  toMemberJSON(m),
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req identifiedRequest
	if !requireIdentity(w, r, &req) {
		return
	}

	if err := s.Groups.Leave(r.Context(), domain.GroupID(chi.URLParam(r, "groupID")), domain.ExternalID(req.ClerkUserID)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "left group"})
}

type transferOwnerRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
	NewOwnerID  string `json:"new_owner_id"`
}

func (s *Server) handleTransferOwner(w http.ResponseWriter, r *http.Request) {
	var req transferOwnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	details := map[string]any{}
	if req.ClerkUserID == "" {
		details["clerk_user_id"] = "must be non-empty"
	}
	if req.NewOwnerID == "" {
		details["new_owner_id"] = "must be non-empty"
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields", details)
		return
	}

	d, err := s.Groups.TransferOwner(r.Context(),
		domain.GroupID(chi.URLParam(r, "groupID")),
		domain.ExternalID(req.ClerkUserID),
		domain.UserID(req.NewOwnerID),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailJSON(d))
}

type editGroupRequest struct {
	ClerkUserID string `json:"clerk_user_id"`

	Name        nullable.Nullable[string] `json:"name"`
	Description nullable.Nullable[string] `json:"description"`
	ImageURL    nullable.Nullable[string] `json:"image_url"`

	NewOwnerID     *string `json:"new_owner_id"`
	RemoveMemberID *string `json:"remove_member_id"`
}

func (s *Server) handleEditGroup(w http.ResponseWriter, r *http.Request) {
	var req editGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ClerkUserID == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields",
			map[string]any{"clerk_user_id": "must be non-empty"})
		return
	}

	in := groups.EditInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.NewOwnerID != nil {
		id := domain.UserID(*req.NewOwnerID)
		in.NewOwnerID = &id
	}
	if req.RemoveMemberID != nil {
		id := domain.UserID(*req.RemoveMemberID)
		in.RemoveMemberID = &id
	}

	d, err := s.Groups.Edit(r.Context(), domain.GroupID(chi.URLParam(r, "groupID")), domain.ExternalID(req.ClerkUserID), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailJSON(d))
}

// --- helpers ---

func requireIdentity(w http.ResponseWriter, r *http.Request, req *identifiedRequest) bool {
	if !decodeJSON(w, r, req) {
		return false
	}
	if req.ClerkUserID == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields",
			map[string]any{"clerk_user_id": "must be non-empty"})
		return false
	}
	return true
}

func toDetailJSON(d groups.Detail) groupDetailJSON {
	return groupDetailJSON{
		ID:          string(d.ID),
		Name:        d.Name,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		CreatorID:   string(d.CreatorID),
		CreatorName: d.CreatorName,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toMemberJSON(m domain.GroupMember) memberJSON {
	return memberJSON{
		UserID:      string(m.UserID),
		ClerkUserID: string(m.ExternalID),
		Name:        m.DisplayName,
		MemberRole:  m.MemberRole,
		JoinedAt:    m.JoinedAt,
	}
}
