// Package achievement implements the achievement repository using PostgreSQL.
package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/trekkr-app/trekkr-backend/internal/adapter/postgres"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Repo provides achievement persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new achievement repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const listAllSQL = `
SELECT id, code, name, description, criteria, created_at
FROM achievements
ORDER BY id`

const listUnlockedIDsSQL = `
SELECT achievement_id
FROM user_achievements
WHERE user_id = $1`

// ON CONFLICT DO NOTHING keeps unlocks idempotent under concurrent batches
// from the same user.
const insertUnlocksSQL = `
INSERT INTO user_achievements (user_id, achievement_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT (user_id, achievement_id) DO NOTHING`

const listWithStatusSQL = `
SELECT a.id, a.code, a.name, a.description, a.criteria, a.created_at, ua.unlocked_at
FROM achievements a
LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = $1
ORDER BY a.id`

// ListAll returns every seeded achievement in definition order.
func (r *Repo) ListAll(ctx context.Context) ([]domain.Achievement, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listAllSQL)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Description, &a.Criteria, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return out, nil
}

// ListUnlockedIDs returns the set of achievement ids the user holds.
func (r *Repo) ListUnlockedIDs(ctx context.Context, userID uuid.UUID) (map[int64]struct{}, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listUnlockedIDsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unlocked achievement: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unlocked achievements: %w", err)
	}
	return out, nil
}

// InsertUnlocks records new unlocks for the user. Already held achievements
// are silently skipped.
func (r *Repo) InsertUnlocks(ctx context.Context, userID uuid.UUID, achievementIDs []int64) error {
	if len(achievementIDs) == 0 {
		return nil
	}
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, insertUnlocksSQL, userID, achievementIDs); err != nil {
		return postgres.MapError(err, "achievement unlocks", userID)
	}
	return nil
}

// UserAchievementStatus is one achievement together with the user's unlock
// time, nil while still locked.
type UserAchievementStatus struct {
	Achievement domain.Achievement
	UnlockedAt  *time.Time
}

// ListWithStatus returns every achievement annotated with the user's unlock
// state.
func (r *Repo) ListWithStatus(ctx context.Context, userID uuid.UUID) ([]UserAchievementStatus, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listWithStatusSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements with status: %w", err)
	}
	defer rows.Close()

	var out []UserAchievementStatus
	for rows.Next() {
		var s UserAchievementStatus
		if err := rows.Scan(&s.Achievement.ID, &s.Achievement.Code, &s.Achievement.Name,
			&s.Achievement.Description, &s.Achievement.Criteria, &s.Achievement.CreatedAt,
			&s.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan achievement status: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievement statuses: %w", err)
	}
	return out, nil
}
