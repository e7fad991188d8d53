package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
	"github.com/trekkr-app/trekkr-backend/internal/service/ingest"
)

// ingestService defines the minimal interface needed by LocationHandler.
type ingestService interface {
	IngestBatch(ctx context.Context, userID uuid.UUID, input ingest.BatchInput) (*domain.BatchResult, error)
}

// LocationHandler serves the location ingestion endpoint.
type LocationHandler struct {
	svc ingestService
	log *slog.Logger
}

// NewLocationHandler creates a LocationHandler.
func NewLocationHandler(svc ingestService, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{svc: svc, log: logger.With("handler", "location")}
}

type locationSample struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	CellRes8  string     `json:"cell_res8"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type deviceInfo struct {
	UUID     *string `json:"uuid,omitempty"`
	Name     *string `json:"name,omitempty"`
	Platform *string `json:"platform,omitempty"`
}

type ingestBatchRequest struct {
	Locations []locationSample `json:"locations"`
	Device    *deviceInfo      `json:"device,omitempty"`
}

type skippedSampleResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type countryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	ISO2 string `json:"iso2"`
}

type regionResponse struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Code *string `json:"code,omitempty"`
}

type discoveriesResponse struct {
	NewCountries []countryResponse `json:"new_countries"`
	NewRegions   []regionResponse  `json:"new_regions"`
	NewCellsRes6 int               `json:"new_cells_res6"`
	NewCellsRes8 int               `json:"new_cells_res8"`
}

type achievementUnlockedResponse struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type ingestBatchResponse struct {
	Processed            int                           `json:"processed"`
	Skipped              int                           `json:"skipped"`
	SkippedReasons       []skippedSampleResponse       `json:"skipped_reasons"`
	Discoveries          discoveriesResponse           `json:"discoveries"`
	AchievementsUnlocked []achievementUnlockedResponse `json:"achievements_unlocked"`
}

// IngestBatch handles POST /api/v1/location/ingest/batch.
func (h *LocationHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req ingestBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.IngestBatch(r.Context(), userID, toBatchInput(req))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toIngestBatchResponse(result))
}

func toBatchInput(req ingestBatchRequest) ingest.BatchInput {
	samples := make([]ingest.Sample, len(req.Locations))
	for i, loc := range req.Locations {
		samples[i] = ingest.Sample{
			Lat:       loc.Latitude,
			Lng:       loc.Longitude,
			CellIndex: loc.CellRes8,
			Timestamp: loc.Timestamp,
		}
	}

	input := ingest.BatchInput{Samples: samples}
	if req.Device != nil {
		input.Device = &domain.DeviceMeta{
			UUID:     req.Device.UUID,
			Name:     req.Device.Name,
			Platform: req.Device.Platform,
		}
	}
	return input
}

func toIngestBatchResponse(result *domain.BatchResult) ingestBatchResponse {
	// Empty slices serialize as [] rather than null.
	resp := ingestBatchResponse{
		Processed:      result.Processed,
		Skipped:        result.Skipped,
		SkippedReasons: make([]skippedSampleResponse, 0, len(result.SkippedReasons)),
		Discoveries: discoveriesResponse{
			NewCountries: make([]countryResponse, 0, len(result.Discoveries.NewCountries)),
			NewRegions:   make([]regionResponse, 0, len(result.Discoveries.NewRegions)),
			NewCellsRes6: result.Discoveries.NewCellsCoarse,
			NewCellsRes8: result.Discoveries.NewCellsFine,
		},
		AchievementsUnlocked: make([]achievementUnlockedResponse, 0, len(result.AchievementsUnlocked)),
	}

	for _, s := range result.SkippedReasons {
		resp.SkippedReasons = append(resp.SkippedReasons, skippedSampleResponse{
			Index:  s.Index,
			Reason: string(s.Reason),
		})
	}
	for _, c := range result.Discoveries.NewCountries {
		resp.Discoveries.NewCountries = append(resp.Discoveries.NewCountries, countryResponse{
			ID:   c.ID,
			Name: c.Name,
			ISO2: c.ISO2,
		})
	}
	for _, reg := range result.Discoveries.NewRegions {
		resp.Discoveries.NewRegions = append(resp.Discoveries.NewRegions, regionResponse{
			ID:   reg.ID,
			Name: reg.Name,
			Code: reg.Code,
		})
	}
	for _, a := range result.AchievementsUnlocked {
		resp.AchievementsUnlocked = append(resp.AchievementsUnlocked, achievementUnlockedResponse{
			Code:        a.Code,
			Name:        a.Name,
			Description: a.Description,
		})
	}

	return resp
}
