package rest

import (
	"net/http"

	"github.com/trekkr-app/trekkr-backend/internal/transport/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Location     *LocationHandler
	Achievements *AchievementHandler
	Stats        *StatsHandler
	Health       *HealthHandler
}

// NewRouter mounts all routes. Identity resolution (the Auth middleware) is
// expected to wrap the returned handler; routes here only gate on the
// resolved identity. ingestLimit is applied to the batch endpoint alone so
// one chatty uploader cannot starve reads.
func NewRouter(h Handlers, ingestLimit middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Health)
	mux.HandleFunc("GET /health/live", h.Health.Live)
	mux.HandleFunc("GET /health/ready", h.Health.Ready)

	mux.HandleFunc("POST /api/v1/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/v1/auth/logout", protected(h.Auth.Logout))

	mux.Handle("POST /api/v1/location/ingest/batch",
		middleware.Chain(middleware.RequireAuth, ingestLimit)(http.HandlerFunc(h.Location.IngestBatch)))

	mux.Handle("GET /api/v1/achievements", protected(h.Achievements.List))
	mux.Handle("GET /api/v1/achievements/unlocked", protected(h.Achievements.ListUnlocked))

	mux.Handle("GET /api/v1/stats/overview", protected(h.Stats.Overview))
	mux.Handle("GET /api/v1/stats/countries", protected(h.Stats.Countries))
	mux.Handle("GET /api/v1/stats/regions", protected(h.Stats.Regions))

	return mux
}

func protected(fn http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(fn)
}
