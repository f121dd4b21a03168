package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/commonsclub/groups-api/internal/app/applications"
	"github.com/commonsclub/groups-api/internal/app/directory"
	"github.com/commonsclub/groups-api/internal/app/groups"
)

// Server is the HTTP adapter over the application services.
type Server struct {
	Directory    *directory.Service
	Groups       *groups.Service
	Applications *applications.Service
}

func NewServer(dir *directory.Service, grp *groups.Service, apps *applications.Service) *Server {
	return &Server{
		Directory:    dir,
		Groups:       grp,
		Applications: apps,
	}
}

// decodeJSON reads the request body into dst. Malformed JSON and mistyped
// fields are rejected as validation errors before any datastore work; on
// failure the response has been written and the caller must return.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request body is required", nil)
		case errors.As(err, &typeErr):
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid field type",
				map[string]any{typeErr.Field: fmt.Sprintf("must be of type %s", typeErr.Type)})
		default:
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body", nil)
		}
		return false
	}
	return true
}
