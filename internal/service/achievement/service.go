// Package achievement implements the rule-based achievement evaluator and
// the achievement listing operations.
package achievement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/adapter/postgres/achievement"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// achievementRepo defines the achievement repository interface needed by the service.
type achievementRepo interface {
	ListAll(ctx context.Context) ([]domain.Achievement, error)
	ListUnlockedIDs(ctx context.Context, userID uuid.UUID) (map[int64]struct{}, error)
	InsertUnlocks(ctx context.Context, userID uuid.UUID, achievementIDs []int64) error
	ListWithStatus(ctx context.Context, userID uuid.UUID) ([]achievement.UserAchievementStatus, error)
}

// statsRepo defines the aggregate stats interface needed by the evaluator.
type statsRepo interface {
	TravelStats(ctx context.Context, userID uuid.UUID) (domain.TravelStats, error)
}

// Service implements achievement operations.
type Service struct {
	log          *slog.Logger
	achievements achievementRepo
	stats        statsRepo
}

// NewService creates a new achievement service instance.
func NewService(logger *slog.Logger, achievements achievementRepo, stats statsRepo) *Service {
	return &Service{
		log:          logger.With("service", "achievement"),
		achievements: achievements,
		stats:        stats,
	}
}

// AchievementStatus is one achievement with the caller's unlock state.
type AchievementStatus struct {
	Achievement domain.Achievement
	Unlocked    bool
	UnlockedAt  *time.Time
}

// List returns every achievement annotated with the user's unlock state.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	statuses, err := s.achievements.ListWithStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]AchievementStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, AchievementStatus{
			Achievement: st.Achievement,
			Unlocked:    st.UnlockedAt != nil,
			UnlockedAt:  st.UnlockedAt,
		})
	}
	return out, nil
}

// ListUnlocked returns only the achievements the user holds.
func (s *Service) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	statuses, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]AchievementStatus, 0, len(statuses))
	for _, st := range statuses {
		if st.Unlocked {
			out = append(out, st)
		}
	}
	return out, nil
}
