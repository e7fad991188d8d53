package achievement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// EvaluateUnlocks judges every locked achievement against the user's current
// travel stats, persists any new unlocks, and returns them. Called once per
// ingested batch, inside the batch transaction, so unlocks commit together
// with the visits that earned them.
func (s *Service) EvaluateUnlocks(ctx context.Context, userID uuid.UUID) ([]domain.Achievement, error) {
	all, err := s.achievements.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	held, err := s.achievements.ListUnlockedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked: %w", err)
	}

	stats, err := s.stats.TravelStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("gather travel stats: %w", err)
	}

	var unlocked []domain.Achievement
	var unlockedIDs []int64
	for _, a := range all {
		if _, ok := held[a.ID]; ok {
			continue
		}
		if criteriaMet(a.Criteria, stats) {
			unlocked = append(unlocked, a)
			unlockedIDs = append(unlockedIDs, a.ID)
		}
	}

	if len(unlockedIDs) == 0 {
		return nil, nil
	}

	if err := s.achievements.InsertUnlocks(ctx, userID, unlockedIDs); err != nil {
		return nil, fmt.Errorf("insert unlocks: %w", err)
	}

	s.log.InfoContext(ctx, "achievements unlocked",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(unlocked)))

	return unlocked, nil
}

// criteriaMet judges one criteria object against the gathered stats.
// Unknown criteria types never unlock; a typo in seed data must not hand out
// badges.
func criteriaMet(c domain.AchievementCriteria, stats domain.TravelStats) bool {
	switch c.Type {
	case domain.CriteriaCellsTotal:
		return float64(stats.CellsTotal) >= c.Threshold
	case domain.CriteriaCountries:
		return float64(stats.Countries) >= c.Threshold
	case domain.CriteriaRegions:
		return float64(stats.Regions) >= c.Threshold
	case domain.CriteriaRegionsInCountry:
		return float64(stats.MaxRegionsInCountry) >= c.Threshold
	case domain.CriteriaHemispheres:
		return stats.Hemispheres >= int64(c.Count)
	case domain.CriteriaUniqueDays:
		return float64(stats.UniqueDays) >= c.Threshold
	case domain.CriteriaCountryCoveragePct:
		return c.Threshold > 0 && stats.MaxCountryCoverage >= c.Threshold
	case domain.CriteriaRegionCoveragePct:
		return c.Threshold > 0 && stats.MaxRegionCoverage >= c.Threshold
	default:
		return false
	}
}
