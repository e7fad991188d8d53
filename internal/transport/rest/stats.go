package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// statsService defines the minimal interface needed by StatsHandler.
type statsService interface {
	Overview(ctx context.Context, userID uuid.UUID) (domain.OverviewStats, error)
	Countries(ctx context.Context, userID uuid.UUID) ([]domain.CountryCoverage, error)
	Regions(ctx context.Context, userID uuid.UUID, countryISO2 string) ([]domain.RegionCoverage, error)
}

// StatsHandler serves travel statistics REST endpoints.
type StatsHandler struct {
	svc statsService
	log *slog.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(svc statsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, log: logger.With("handler", "stats")}
}

type overviewResponse struct {
	CellsTotal       int64   `json:"cells_total"`
	CountriesVisited int64   `json:"countries_visited"`
	RegionsVisited   int64   `json:"regions_visited"`
	Achievements     int64   `json:"achievements"`
	FirstActivityDay *string `json:"first_activity_day,omitempty"`
	ActiveDays       int64   `json:"active_days"`
}

type countryCoverageResponse struct {
	ISO2           string  `json:"iso2"`
	Name           string  `json:"name"`
	VisitedCells   int64   `json:"visited_cells"`
	CoveragePct    float64 `json:"coverage_pct"`
	RegionsVisited int64   `json:"regions_visited"`
}

type regionCoverageResponse struct {
	Name         string  `json:"name"`
	Code         *string `json:"code,omitempty"`
	VisitedCells int64   `json:"visited_cells"`
	CoveragePct  float64 `json:"coverage_pct"`
}

// Overview handles GET /api/v1/stats/overview.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	overview, err := h.svc.Overview(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{
		CellsTotal:       overview.CellsTotal,
		CountriesVisited: overview.CountriesVisited,
		RegionsVisited:   overview.RegionsVisited,
		Achievements:     overview.Achievements,
		FirstActivityDay: overview.FirstActivityDay,
		ActiveDays:       overview.ActiveDays,
	})
}

// Countries handles GET /api/v1/stats/countries.
func (h *StatsHandler) Countries(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	countries, err := h.svc.Countries(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]countryCoverageResponse, 0, len(countries))
	for _, c := range countries {
		out = append(out, countryCoverageResponse{
			ISO2:           c.ISO2,
			Name:           c.Name,
			VisitedCells:   c.VisitedCells,
			CoveragePct:    c.CoveragePct,
			RegionsVisited: c.RegionsVisited,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// Regions handles GET /api/v1/stats/regions?country=XX.
func (h *StatsHandler) Regions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	regions, err := h.svc.Regions(r.Context(), userID, r.URL.Query().Get("country"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]regionCoverageResponse, 0, len(regions))
	for _, reg := range regions {
		out = append(out, regionCoverageResponse{
			Name:         reg.Name,
			Code:         reg.Code,
			VisitedCells: reg.VisitedCells,
			CoveragePct:  reg.CoveragePct,
		})
	}

	writeJSON(w, http.StatusOK, out)
}
