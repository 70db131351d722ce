package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchScore is the externally computed compatibility of a building with a
// user's preferences. Every component is in [0, 1].
type MatchScore struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	BuildingID string    `json:"building_id" db:"building_id"`
	Overall    float64   `json:"overall" db:"overall_score"`
	Location   float64   `json:"location" db:"location_score"`
	Budget     float64   `json:"budget" db:"budget_score"`
	Lifestyle  float64   `json:"lifestyle" db:"lifestyle_score"`
}

// ScoreComponent is one rendered score dimension
type ScoreComponent struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent int     `json:"percent"`
	Level   string  `json:"level"`
	Color   string  `json:"color"`
}

// ScorePresentation is what the building card renders for a MatchScore
type ScorePresentation struct {
	Overall   ScoreComponent `json:"overall"`
	Location  ScoreComponent `json:"location"`
	Budget    ScoreComponent `json:"budget"`
	Lifestyle ScoreComponent `json:"lifestyle"`
	Reasons   []string       `json:"reasons,omitempty"`
}

// ShortlistEntry is the persisted shortlist flag for a (user, building) pair
type ShortlistEntry struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	BuildingID  string    `json:"building_id" db:"building_id"`
	Shortlisted bool      `json:"shortlisted" db:"shortlisted"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
