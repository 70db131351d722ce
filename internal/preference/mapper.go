package preference

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"propnest/internal/catalog"
	"propnest/internal/currency"
	"propnest/internal/filter"
	"propnest/internal/model"
	"propnest/internal/utils"
)

// ErrInvalidPreferences is returned for answers the onboarding form cannot produce
var ErrInvalidPreferences = errors.New("invalid preferences")

// Mapper turns onboarding answers into filters and an SEO summary
type Mapper struct {
	catalog *catalog.Catalog
}

// NewMapper creates a mapper resolving localities and brackets via c
func NewMapper(c *catalog.Catalog) *Mapper {
	return &Mapper{catalog: c}
}

// Validate rejects negative budgets, non-positive BHK counts and unknown lifestyles
func (m *Mapper) Validate(p model.PreferenceSet) error {
	if p.BudgetLakh < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidPreferences)
	}
	for _, n := range p.BHK {
		if n <= 0 {
			return fmt.Errorf("%w: bhk %d", ErrInvalidPreferences, n)
		}
	}
	if p.Lifestyle != "" {
		known := false
		for _, l := range m.catalog.Lifestyles {
			if l.Key == string(p.Lifestyle) {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: lifestyle %q", ErrInvalidPreferences, p.Lifestyle)
		}
	}
	return nil
}

// ToFilters builds the filter set for a preference set. Each answered
// question yields one filter; unanswered questions yield none. Features turn
// into an AMENITIES filter only when strictFeatures is set, otherwise they
// only feed the description.
func (m *Mapper) ToFilters(p model.PreferenceSet, strictFeatures bool) []model.Filter {
	var filters []model.Filter

	if names := m.localityNames(p.Localities); len(names) > 0 {
		filters = append(filters, model.Filter{Type: model.FilterLocality, Value: names})
	}

	if counts := bhkCounts(p.BHK); len(counts) > 0 {
		values := make([]string, 0, len(counts))
		for _, n := range counts {
			values = append(values, filter.FormatBHK(n))
		}
		filters = append(filters, model.Filter{Type: model.FilterBHK, Value: values})
	}

	if p.BudgetLakh > 0 {
		brackets := m.catalog.Brackets().Below(p.Budget())
		if len(brackets) > 0 {
			labels := make([]string, 0, len(brackets))
			for _, b := range brackets {
				labels = append(labels, b.Label)
			}
			filters = append(filters, model.Filter{Type: model.FilterBudget, Value: labels})
		}
	}

	if strictFeatures {
		if features := utils.NormalizeAmenities(p.Features); len(features) > 0 {
			filters = append(filters, model.Filter{Type: model.FilterAmenities, Value: features})
		}
	}

	return filters
}

// Describe renders the personalised results page summary
func (m *Mapper) Describe(p model.PreferenceSet) model.SEOSummary {
	localities := m.localityNames(p.Localities)
	counts := bhkCounts(p.BHK)
	features := utils.NormalizeAmenities(p.Features)
	dealBreakers := utils.NormalizeAmenities(p.DealBreakers)
	city := m.catalog.Site.City

	place := city
	if len(localities) > 0 {
		place = joinAnd(localities)
	}

	homes := "Homes"
	if len(counts) > 0 {
		bhk := make([]string, 0, len(counts))
		for _, n := range counts {
			bhk = append(bhk, fmt.Sprintf("%d", n))
		}
		homes = joinAnd(bhk) + " BHK homes"
	}

	budget := ""
	if p.BudgetLakh > 0 {
		budget = " under " + currency.FormatShort(p.Budget().Rupees())
	}

	title := fmt.Sprintf("%s in %s%s | %s", homes, place, budget, m.catalog.Site.Name)

	var desc strings.Builder
	fmt.Fprintf(&desc, "%s in %s%s", homes, place, budget)
	if p.Lifestyle != "" {
		fmt.Fprintf(&desc, " for %s", strings.ToLower(m.catalog.LifestyleLabel(string(p.Lifestyle))))
	}
	if len(features) > 0 {
		fmt.Fprintf(&desc, ", with %s", strings.ToLower(joinAnd(features)))
	}
	if len(dealBreakers) > 0 {
		fmt.Fprintf(&desc, ", without %s", strings.ToLower(joinAnd(dealBreakers)))
	}
	desc.WriteString(".")

	return model.SEOSummary{
		Title:          title,
		Description:    desc.String(),
		Keywords:       keywords(counts, localities, city, p, features, m.catalog.LifestyleLabel(string(p.Lifestyle))),
		StructuredData: m.structuredData(title, desc.String(), counts, localities, p, features),
	}
}

func (m *Mapper) structuredData(title, description string, counts []int, localities []string, p model.PreferenceSet, features []string) map[string]any {
	residence := map[string]any{
		"@type": "Apartment",
	}
	if len(counts) > 0 {
		residence["numberOfRooms"] = counts
	}
	if len(localities) > 0 {
		places := make([]map[string]any, 0, len(localities))
		for _, name := range localities {
			places = append(places, map[string]any{
				"@type":           "PostalAddress",
				"addressLocality": name,
				"addressRegion":   m.catalog.Site.City,
				"addressCountry":  "IN",
			})
		}
		residence["address"] = places
	}
	if len(features) > 0 {
		amenities := make([]map[string]any, 0, len(features))
		for _, f := range features {
			amenities = append(amenities, map[string]any{
				"@type": "LocationFeatureSpecification",
				"name":  f,
				"value": true,
			})
		}
		residence["amenityFeature"] = amenities
	}

	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "SearchAction",
		"name":        title,
		"description": description,
		"object":      residence,
	}
	if p.BudgetLakh > 0 {
		data["priceSpecification"] = map[string]any{
			"@type":         "PriceSpecification",
			"maxPrice":      p.Budget().Rupees(),
			"priceCurrency": "INR",
		}
	}
	return data
}

func keywords(counts []int, localities []string, city string, p model.PreferenceSet, features []string, lifestyle string) []string {
	places := localities
	if len(places) == 0 && city != "" {
		places = []string{city}
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(k string) {
		k = strings.ToLower(strings.Join(strings.Fields(k), " "))
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	for _, place := range places {
		add("flats in " + place)
		for _, n := range counts {
			add(fmt.Sprintf("%d bhk in %s", n, place))
		}
	}
	for _, n := range counts {
		add(fmt.Sprintf("%d bhk apartments", n))
	}
	if p.BudgetLakh > 0 {
		add("homes under " + strings.TrimPrefix(currency.FormatShort(p.Budget().Rupees()), "₹"))
	}
	if p.Lifestyle != "" {
		add("homes for " + lifestyle)
	}
	for _, f := range features {
		add("apartments with " + f)
	}
	return out
}

func (m *Mapper) localityNames(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		name := m.catalog.LocalityName(k)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// bhkCounts returns the positive counts, de-duplicated and ascending
func bhkCounts(bhk []int) []int {
	seen := make(map[int]struct{}, len(bhk))
	out := make([]int, 0, len(bhk))
	for _, n := range bhk {
		if n <= 0 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// joinAnd renders ["a", "b", "c"] as "a, b and c"
func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
