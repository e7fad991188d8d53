package domain

import (
	"time"

	"github.com/google/uuid"
)

// AchievementCriteria is the decoded criteria_json of an achievement.
// Type selects the rule; Threshold carries the numeric bar. Coverage types
// compare against a fraction in [0,1].
type AchievementCriteria struct {
	Type      string  `json:"type"`
	Threshold float64 `json:"threshold,omitempty"`
	Count     int     `json:"count,omitempty"`
}

// Criteria types understood by the evaluator.
const (
	CriteriaCellsTotal         = "cells_total"
	CriteriaCountries          = "countries"
	CriteriaRegions            = "regions"
	CriteriaRegionsInCountry   = "regions_in_country"
	CriteriaHemispheres        = "hemispheres"
	CriteriaUniqueDays         = "unique_days"
	CriteriaCountryCoveragePct = "country_coverage_pct"
	CriteriaRegionCoveragePct  = "region_coverage_pct"
)

// Achievement is a seeded, unlockable badge.
type Achievement struct {
	ID          int64
	Code        string
	Name        string
	Description *string
	Criteria    AchievementCriteria
	CreatedAt   time.Time
}

// UserAchievement is an append-only unlock record, unique per
// (user, achievement).
type UserAchievement struct {
	UserID        uuid.UUID
	AchievementID int64
	UnlockedAt    time.Time
}

// TravelStats are the aggregate figures the achievement evaluator judges
// criteria against. Coverage fields are fractions in [0,1].
type TravelStats struct {
	CellsTotal          int64
	Countries           int64
	Regions             int64
	MaxRegionsInCountry int64
	Hemispheres         int64
	UniqueDays          int64
	MaxCountryCoverage  float64
	MaxRegionCoverage   float64
}
