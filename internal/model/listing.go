package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Building represents a residential project shown on the discovery pages.
// Rows are maintained by the content pipeline and are read-only here.
type Building struct {
	ID          string         `json:"id" db:"id"`
	Slug        string         `json:"slug" db:"slug"`
	Name        string         `json:"name" db:"name"`
	Locality    string         `json:"locality" db:"locality"`
	BHK         pq.Int64Array  `json:"bhk" db:"bhk"`
	MinPrice    int64          `json:"min_price" db:"min_price"`
	MaxPrice    int64          `json:"max_price" db:"max_price"`
	Collections pq.StringArray `json:"collections" db:"collections"`
	Amenities   JSONArray      `json:"amenities,omitempty" db:"amenities"`
	Latitude    *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64       `json:"longitude,omitempty" db:"longitude"`
	ImageURL    *string        `json:"image_url,omitempty" db:"image_url"`
	Description *string        `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// HasBHK reports whether the building offers an n-bedroom configuration
func (b Building) HasBHK(n int64) bool {
	for _, v := range b.BHK {
		if v == n {
			return true
		}
	}
	return false
}

// HasCoordinates reports whether the building can be placed on a map
func (b Building) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// Listing represents a single unit for sale inside a building
type Listing struct {
	ID         string     `json:"id" db:"id"`
	BuildingID string     `json:"building_id" db:"building_id"`
	Title      *string    `json:"title,omitempty" db:"title"`
	BHK        int        `json:"bhk" db:"bhk"`
	Price      int64      `json:"price" db:"price"`
	AreaSqft   *float64   `json:"area_sqft,omitempty" db:"area_sqft"`
	Floor      *int       `json:"floor,omitempty" db:"floor"`
	Facing     *string    `json:"facing,omitempty" db:"facing"`
	Status     string     `json:"status" db:"status"`
	URL        *string    `json:"url,omitempty" db:"url"`
	ListedAt   *time.Time `json:"listed_at,omitempty" db:"listed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
