package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/service/achievement"
)

// achievementService defines the minimal interface needed by
// AchievementHandler.
type achievementService interface {
	List(ctx context.Context, userID uuid.UUID) ([]achievement.AchievementStatus, error)
	ListUnlocked(ctx context.Context, userID uuid.UUID) ([]achievement.AchievementStatus, error)
}

// AchievementHandler serves achievement REST endpoints.
type AchievementHandler struct {
	svc achievementService
	log *slog.Logger
}

// NewAchievementHandler creates an AchievementHandler.
func NewAchievementHandler(svc achievementService, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{svc: svc, log: logger.With("handler", "achievements")}
}

type achievementStatusResponse struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// List handles GET /api/v1/achievements.
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	statuses, err := h.svc.List(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAchievementResponses(statuses))
}

// ListUnlocked handles GET /api/v1/achievements/unlocked.
func (h *AchievementHandler) ListUnlocked(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	statuses, err := h.svc.ListUnlocked(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAchievementResponses(statuses))
}

func toAchievementResponses(statuses []achievement.AchievementStatus) []achievementStatusResponse {
	out := make([]achievementStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, achievementStatusResponse{
			Code:        st.Achievement.Code,
			Name:        st.Achievement.Name,
			Description: st.Achievement.Description,
			Unlocked:    st.Unlocked,
			UnlockedAt:  st.UnlockedAt,
		})
	}
	return out
}
