package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterOptions configures cross-cutting middleware.
type RouterOptions struct {
	// Logger enables per-request structured logging when set.
	Logger *zap.Logger
	// AllowedOrigins enables the CORS allow-list when non-empty.
	AllowedOrigins []string
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: handlers decode/validate the JSON
// bodies and delegate to the application services.
func NewRouter(api *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Logger != nil {
		r.Use(RequestLogger(opts.Logger))
	}
	if len(opts.AllowedOrigins) > 0 {
		r.Use(CORS(opts.AllowedOrigins))
	}

	// Liveness probe for load balancers and deploy checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/auth", api.handleOnboard)
	r.Post("/auth/isAdmin", api.handleIsAdmin)

	r.Get("/info/all", api.handleListGroups)
	r.Get("/info/{groupID}", api.handleGroupDetail)
	r.Get("/creator/{groupID}", api.handleGetCreator)
	r.Get("/members/{groupID}", api.handleListMembers)
	r.Post("/join/{groupID}", api.handleJoin)
	r.Post("/leave/{groupID}", api.handleLeave)
	r.Post("/transfer_owner/{groupID}", api.handleTransferOwner)
	r.Patch("/edit/{groupID}", api.handleEditGroup)

	r.Post("/apply", api.handleApply)
	r.Get("/applications", api.handleListApplications)
	r.Get("/application/{applicationID}", api.handleApplicationDetail)
	r.Post("/application/{applicationID}/approve", api.handleApprove)
	r.Post("/application/{applicationID}/reject", api.handleReject)

	return r
}
