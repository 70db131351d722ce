package score

import (
	"math"
	"sort"

	"propnest/internal/model"
)

// Indicator levels
const (
	LevelExcellent = "excellent"
	LevelGood      = "good"
	LevelFair      = "fair"
	LevelLow       = "low"
)

// Match reason constants
const (
	ReasonLocationMatch  = "Great location match"
	ReasonBudgetMatch    = "Fits your budget"
	ReasonLifestyleMatch = "Suits your lifestyle"
	ReasonStrongOverall  = "Strong overall match"
)

const reasonThreshold = 0.8

var levelColors = map[string]string{
	LevelExcellent: "green",
	LevelGood:      "teal",
	LevelFair:      "amber",
	LevelLow:       "red",
}

// Present renders a match score for display. Values outside [0, 1] are
// clamped; nothing is recomputed.
func Present(s model.MatchScore) model.ScorePresentation {
	p := model.ScorePresentation{
		Overall:   component("Overall match", s.Overall),
		Location:  component("Location", s.Location),
		Budget:    component("Budget", s.Budget),
		Lifestyle: component("Lifestyle", s.Lifestyle),
	}
	p.Reasons = reasons(p)
	return p
}

// Percent converts a 0..1 score to a rounded whole percentage
func Percent(v float64) int {
	return int(math.Round(clamp(v) * 100))
}

// Level buckets a 0..1 score into an indicator level
func Level(v float64) string {
	v = clamp(v)
	switch {
	case v >= 0.8:
		return LevelExcellent
	case v >= 0.6:
		return LevelGood
	case v >= 0.4:
		return LevelFair
	default:
		return LevelLow
	}
}

func component(label string, v float64) model.ScoreComponent {
	level := Level(v)
	return model.ScoreComponent{
		Label:   label,
		Value:   clamp(v),
		Percent: Percent(v),
		Level:   level,
		Color:   levelColors[level],
	}
}

// reasons generates human-readable reasons for why this building matched
func reasons(p model.ScorePresentation) []string {
	var out []string
	if p.Location.Value >= reasonThreshold {
		out = append(out, ReasonLocationMatch)
	}
	if p.Budget.Value >= reasonThreshold {
		out = append(out, ReasonBudgetMatch)
	}
	if p.Lifestyle.Value >= reasonThreshold {
		out = append(out, ReasonLifestyleMatch)
	}
	if len(out) == 0 && p.Overall.Value >= reasonThreshold {
		out = append(out, ReasonStrongOverall)
	}
	return out
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rank orders results by overall score descending. Unscored results keep
// their relative order after every scored one.
func Rank(results []model.BuildingResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Score, results[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Overall.Value > b.Overall.Value
		}
	})
}
