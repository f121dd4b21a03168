package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/commonsclub/groups-api/internal/app/applications"
	"github.com/commonsclub/groups-api/internal/app/directory"
	"github.com/commonsclub/groups-api/internal/app/groups"
)

type errorBody struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	body := errorBody{
		Error:   message,
		Code:    code,
		Details: details,
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		body.RequestID = rid
	}
	writeJSON(w, status, body)
}

// writeServiceError maps an application-layer error onto the response.
// Anything that is not a service *Error is a persistence or programming
// failure and is reported as a generic 500 with no internal detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		de *directory.Error
		ge *groups.Error
		ae *applications.Error
	)
	switch {
	case errors.As(err, &de):
		writeError(w, r, de.Status, de.Code, de.Message, de.Details)
	case errors.As(err, &ge):
		writeError(w, r, ge.Status, ge.Code, ge.Message, ge.Details)
	case errors.As(err, &ae):
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "an internal server error occurred", nil)
	}
}
