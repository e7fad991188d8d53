package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with generated email/username. Returns a filled
// domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.New(),
		Email:        "testuser-" + suffix + "@example.com",
		Username:     "testuser-" + suffix,
		PasswordHash: "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtesth",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedDevice creates a device row for the user.
func SeedDevice(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) domain.Device {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	deviceUUID := "device-" + suffix
	d := domain.Device{
		ID:         uuid.New(),
		UserID:     userID,
		DeviceUUID: &deviceUUID,
		Name:       "Test Phone " + suffix,
		Platform:   "ios",
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO devices (id, user_id, device_uuid, name, platform)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.UserID, d.DeviceUUID, d.Name, d.Platform,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDevice insert device: %v", err)
	}

	return d
}

// SeedCountry creates a country whose geometry is the axis-aligned box
// (minLng, minLat)–(maxLng, maxLat), so tests can place points inside or
// outside it deterministically.
func SeedCountry(t *testing.T, pool *pgxpool.Pool, iso2 string, minLng, minLat, maxLng, maxLat float64, landCellsTotalRes8 int64) domain.Country {
	t.Helper()
	ctx := context.Background()

	c := domain.Country{
		ISO2:               iso2,
		ISO3:               iso2 + "X",
		Name:               "Testland " + iso2,
		LandCellsTotalRes8: &landCellsTotalRes8,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO regions_country (iso2, iso3, name, geom, land_cells_total_res8)
		 VALUES ($1, $2, $3,
		         ST_Multi(ST_MakeEnvelope($4, $5, $6, $7, 4326)),
		         $8)
		 RETURNING id`,
		c.ISO2, c.ISO3, c.Name, minLng, minLat, maxLng, maxLat, landCellsTotalRes8,
	).Scan(&c.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedCountry insert country: %v", err)
	}

	return c
}

// SeedRegion creates a region of the country with a box geometry, analogous
// to SeedCountry.
func SeedRegion(t *testing.T, pool *pgxpool.Pool, countryID int64, code string, minLng, minLat, maxLng, maxLat float64, landCellsTotalRes8 int64) domain.Region {
	t.Helper()
	ctx := context.Background()

	r := domain.Region{
		CountryID:          countryID,
		Code:               &code,
		Name:               "Test Region " + code,
		LandCellsTotalRes8: &landCellsTotalRes8,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO regions_state (country_id, code, name, geom, land_cells_total_res8)
		 VALUES ($1, $2, $3,
		         ST_Multi(ST_MakeEnvelope($4, $5, $6, $7, 4326)),
		         $8)
		 RETURNING id`,
		r.CountryID, r.Code, r.Name, minLng, minLat, maxLng, maxLat, landCellsTotalRes8,
	).Scan(&r.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedRegion insert region: %v", err)
	}

	return r
}

// SeedAchievement creates an achievement with the given criteria.
func SeedAchievement(t *testing.T, pool *pgxpool.Pool, code string, criteria domain.AchievementCriteria) domain.Achievement {
	t.Helper()
	ctx := context.Background()

	raw, err := json.Marshal(criteria)
	if err != nil {
		t.Fatalf("testhelper: SeedAchievement marshal criteria: %v", err)
	}

	a := domain.Achievement{
		Code:     code,
		Name:     "Test " + code,
		Criteria: criteria,
	}

	err = pool.QueryRow(ctx,
		`INSERT INTO achievements (code, name, criteria) VALUES ($1, $2, $3) RETURNING id`,
		a.Code, a.Name, raw,
	).Scan(&a.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedAchievement insert achievement: %v", err)
	}

	return a
}
