package model

// BuildingSearchRequest represents a building search request
type BuildingSearchRequest struct {
	Search      string         `json:"search"`
	Collections []string       `json:"collections,omitempty"`
	Filters     []Filter       `json:"filters,omitempty" binding:"dive"`
	Options     *SearchOptions `json:"options,omitempty"`
}

// SearchOptions represents paging and ordering options
type SearchOptions struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy string `json:"sort_by,omitempty"` // match, price_asc, price_desc, name
}

// Sort orders accepted in SearchOptions.SortBy
const (
	SortByMatch     = "match"
	SortByPriceAsc  = "price_asc"
	SortByPriceDesc = "price_desc"
	SortByName      = "name"
)

// BuildingResult is a building card in a result page
type BuildingResult struct {
	Building
	PriceLabel  string             `json:"price_label"`
	Score       *ScorePresentation `json:"score,omitempty"`
	Shortlisted bool               `json:"shortlisted"`
}

// SearchResponse represents a paginated search response
type SearchResponse struct {
	Results    []BuildingResult `json:"results"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	HasMore    bool             `json:"has_more"`
	Took       int64            `json:"took_ms"`
}

// BuildingDetail is the payload of the building page
type BuildingDetail struct {
	BuildingResult
	Listings []Listing `json:"listings"`
}

// PreferenceRequest carries onboarding answers to the mapper
type PreferenceRequest struct {
	Preferences    PreferenceSet  `json:"preferences" binding:"required"`
	StrictFeatures bool           `json:"strict_features,omitempty"`
	Options        *SearchOptions `json:"options,omitempty"`
}

// PreferenceFiltersResponse is the mapper output
type PreferenceFiltersResponse struct {
	Filters []Filter   `json:"filters"`
	SEO     SEOSummary `json:"seo"`
}

// PreferenceResultsResponse is the mapper output applied to the catalogue
type PreferenceResultsResponse struct {
	PreferenceFiltersResponse
	Search *SearchResponse `json:"search"`
}

// Notification is a transient user-facing message
type Notification struct {
	Kind    string `json:"kind"` // success, error, auth_required
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// ToggleShortlistResponse represents the outcome of a shortlist toggle
type ToggleShortlistResponse struct {
	BuildingID    string         `json:"building_id"`
	Shortlisted   bool           `json:"shortlisted"`
	AuthRequired  bool           `json:"auth_required"`
	Shortlist     []string       `json:"shortlist,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
}

// MapCluster groups nearby buildings for the map view
type MapCluster struct {
	Geohash     string   `json:"geohash"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Count       int      `json:"count"`
	BuildingIDs []string `json:"building_ids"`
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single embedding with building info
type EmbeddingItem struct {
	BuildingID string    `json:"building_id" binding:"required"`
	Embedding  []float32 `json:"embedding" binding:"required"`
	Text       string    `json:"text,omitempty"` // The text used to generate embedding
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
