package model

// FilterType names the attribute a Filter constrains
type FilterType string

const (
	FilterLocality  FilterType = "LOCALITY"
	FilterBHK       FilterType = "BHK"
	FilterBudget    FilterType = "BUDGET"
	FilterAmenities FilterType = "AMENITIES"
)

// Filter is one active criterion. Values are the options selected for the
// type, e.g. {BHK, ["2 BHK", "3 BHK"]}.
type Filter struct {
	Type  FilterType `json:"type" binding:"required"`
	Value []string   `json:"value"`
}
