package preference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propnest/internal/catalog"
	"propnest/internal/filter"
	"propnest/internal/model"
)

func newMapper(t *testing.T) *Mapper {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewMapper(c)
}

func samplePreferences() model.PreferenceSet {
	return model.PreferenceSet{
		BHK:          []int{3, 2, 2},
		BudgetLakh:   120,
		Localities:   []string{"indiranagar", "koramangala", "Indiranagar"},
		Lifestyle:    model.LifestyleFamily,
		Features:     []string{"gym", "pool"},
		DealBreakers: []string{"main road noise"},
	}
}

func TestToFilters(t *testing.T) {
	m := newMapper(t)

	got := m.ToFilters(samplePreferences(), false)
	assert.Equal(t, []model.Filter{
		{Type: model.FilterLocality, Value: []string{"Indiranagar", "Koramangala"}},
		{Type: model.FilterBHK, Value: []string{"2 BHK", "3 BHK"}},
		{Type: model.FilterBudget, Value: []string{"Under 50L", "50L - 1Cr", "1Cr - 1.5Cr"}},
	}, got)

	strict := m.ToFilters(samplePreferences(), true)
	require.Len(t, strict, 4)
	assert.Equal(t, model.Filter{Type: model.FilterAmenities, Value: []string{"Gym", "Swimming pool"}}, strict[3])
}

func TestToFilters_BudgetUsesLakhUnits(t *testing.T) {
	m := newMapper(t)

	// 50 lakh ceiling: only the bracket starting below 5,000,000 rupees
	got := m.ToFilters(model.PreferenceSet{BudgetLakh: 50}, false)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Under 50L"}, got[0].Value)

	// 350 lakh = 3.5 crore reaches the open-ended bracket
	got = m.ToFilters(model.PreferenceSet{BudgetLakh: 350}, false)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Value, 6)
}

func TestToFilters_Empty(t *testing.T) {
	m := newMapper(t)
	assert.Empty(t, m.ToFilters(model.PreferenceSet{}, true))
}

func TestToFilters_FeedsEvaluator(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	m := NewMapper(c)
	e := filter.NewEvaluator(filter.WithBrackets(c.Brackets()))

	buildings := []model.Building{
		{ID: "A", Locality: "Indiranagar", BHK: []int64{2, 3}, MinPrice: 6_000_000},
		{ID: "B", Locality: "Koramangala", BHK: []int64{4}, MinPrice: 22_000_000},
		{ID: "C", Locality: "Koramangala", BHK: []int64{3}, MinPrice: 13_000_000},
		{ID: "D", Locality: "Whitefield", BHK: []int64{2}, MinPrice: 6_000_000},
	}

	out, err := e.Apply(buildings, m.ToFilters(samplePreferences(), false))
	require.NoError(t, err)

	var ids []string
	for _, b := range out {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"A", "C"}, ids)
}

func TestDescribe(t *testing.T) {
	m := newMapper(t)
	seo := m.Describe(samplePreferences())

	assert.Equal(t, "2 and 3 BHK homes in Indiranagar and Koramangala under ₹1.2 Cr | PropNest", seo.Title)
	assert.Equal(t,
		"2 and 3 BHK homes in Indiranagar and Koramangala under ₹1.2 Cr for growing family, with gym and swimming pool, without main road noise.",
		seo.Description)
	assert.Contains(t, seo.Keywords, "3 bhk in koramangala")
	assert.Contains(t, seo.Keywords, "homes under 1.2 cr")
	assert.Contains(t, seo.Keywords, "apartments with swimming pool")

	assert.Equal(t, "https://schema.org", seo.StructuredData["@context"])
	assert.Equal(t, "SearchAction", seo.StructuredData["@type"])
	price, ok := seo.StructuredData["priceSpecification"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(12_000_000), price["maxPrice"])
	object, ok := seo.StructuredData["object"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, object["numberOfRooms"])
}

func TestDescribe_NoAnswers(t *testing.T) {
	m := newMapper(t)
	seo := m.Describe(model.PreferenceSet{})

	assert.Equal(t, "Homes in Bengaluru | PropNest", seo.Title)
	assert.Equal(t, "Homes in Bengaluru.", seo.Description)
	assert.Equal(t, []string{"flats in bengaluru"}, seo.Keywords)
	_, hasPrice := seo.StructuredData["priceSpecification"]
	assert.False(t, hasPrice)
}

func TestValidate(t *testing.T) {
	m := newMapper(t)

	assert.NoError(t, m.Validate(samplePreferences()))

	tests := []model.PreferenceSet{
		{BudgetLakh: -1},
		{BHK: []int{0}},
		{Lifestyle: "nomad"},
	}
	for _, p := range tests {
		err := m.Validate(p)
		assert.True(t, errors.Is(err, ErrInvalidPreferences), "%+v", p)
	}
}
