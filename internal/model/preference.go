package model

import "propnest/internal/currency"

// Lifestyle is the single lifestyle choice made during onboarding
type Lifestyle string

const (
	LifestyleFamily       Lifestyle = "family"
	LifestyleProfessional Lifestyle = "professional"
	LifestyleInvestor     Lifestyle = "investor"
	LifestyleRetired      Lifestyle = "retired"
)

// PreferenceSet holds a user's onboarding answers
type PreferenceSet struct {
	BHK          []int     `json:"bhk"`
	BudgetLakh   float64   `json:"budget_lakh"`
	Localities   []string  `json:"localities"`
	Lifestyle    Lifestyle `json:"lifestyle,omitempty"`
	Features     []string  `json:"features,omitempty"`
	DealBreakers []string  `json:"deal_breakers,omitempty"`
}

// Budget returns the ceiling as a typed amount; the form collects it in lakh
func (p PreferenceSet) Budget() currency.Amount {
	return currency.Lakhs(p.BudgetLakh)
}

// SEOSummary is the search-engine view of a preference set
type SEOSummary struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Keywords       []string       `json:"keywords"`
	StructuredData map[string]any `json:"structured_data"`
}
