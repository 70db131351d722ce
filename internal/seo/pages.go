package seo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"propnest/internal/catalog"
	"propnest/internal/currency"
	"propnest/internal/model"
)

// ErrUnknownPage is returned for paths no resolver knows
var ErrUnknownPage = errors.New("unknown page")

// BuildingLookup finds a building by id or slug
type BuildingLookup interface {
	GetBuilding(ctx context.Context, idOrSlug string) (*model.Building, error)
}

// Pages maps frontend routes to their head metadata
type Pages struct {
	catalog   *catalog.Catalog
	baseURL   string
	buildings BuildingLookup
}

// NewPages creates a resolver. baseURL makes structured-data links absolute.
// buildings may be nil, in which case building paths are unknown pages.
func NewPages(c *catalog.Catalog, baseURL string, buildings BuildingLookup) *Pages {
	return &Pages{catalog: c, baseURL: strings.TrimRight(baseURL, "/"), buildings: buildings}
}

// Resolve returns the head of the page served at path
func (p *Pages) Resolve(ctx context.Context, path string) (PageMeta, error) {
	path = "/" + strings.Trim(path, "/")

	for _, page := range p.catalog.Pages {
		if page.Path == path {
			return PageMeta{
				Title:         page.Title,
				Description:   page.Description,
				CanonicalPath: page.Path,
				NoIndex:       page.Path == "/shortlist",
				JSONLD:        p.websiteJSONLD(page.Path),
			}, nil
		}
	}

	switch {
	case strings.HasPrefix(path, "/buildings/"):
		slug := strings.TrimPrefix(path, "/buildings/")
		if p.buildings != nil {
			b, err := p.buildings.GetBuilding(ctx, slug)
			if err != nil {
				return PageMeta{}, err
			}
			return p.Building(*b), nil
		}
	case strings.HasPrefix(path, "/localities/"):
		key := strings.TrimPrefix(path, "/localities/")
		if l, ok := p.catalog.Locality(key); ok {
			return p.Locality(l), nil
		}
	}

	return PageMeta{}, fmt.Errorf("%w: %s", ErrUnknownPage, path)
}

// Building is the head of a building detail page
func (p *Pages) Building(b model.Building) PageMeta {
	site := p.catalog.Site
	price := currency.FormatRange(b.MinPrice, b.MaxPrice)

	var bhk []string
	for _, n := range b.BHK {
		bhk = append(bhk, fmt.Sprintf("%d", n))
	}
	config := "Apartments"
	if len(bhk) > 0 {
		config = strings.Join(bhk, ", ") + " BHK apartments"
	}

	desc := fmt.Sprintf("%s in %s, %s. %s, priced %s.", b.Name, b.Locality, site.City, config, price)
	if b.Description != nil && *b.Description != "" {
		desc = truncate(*b.Description, 160)
	}

	path := "/buildings/" + b.Slug
	if b.Slug == "" {
		path = "/buildings/" + b.ID
	}

	image := ""
	if b.ImageURL != nil {
		image = *b.ImageURL
	}

	ld := map[string]any{
		"@context": "https://schema.org",
		"@type":    "ApartmentComplex",
		"name":     b.Name,
		"url":      p.baseURL + path,
		"address": map[string]any{
			"@type":           "PostalAddress",
			"addressLocality": b.Locality,
			"addressRegion":   site.City,
			"addressCountry":  "IN",
		},
		"offers": map[string]any{
			"@type":         "AggregateOffer",
			"lowPrice":      b.MinPrice,
			"highPrice":     maxPrice(b),
			"priceCurrency": "INR",
		},
	}
	if b.HasCoordinates() {
		ld["geo"] = map[string]any{
			"@type":     "GeoCoordinates",
			"latitude":  *b.Latitude,
			"longitude": *b.Longitude,
		}
	}
	if len(b.Amenities) > 0 {
		ld["amenityFeature"] = amenityFeatures(b.Amenities)
	}

	return PageMeta{
		Title:         fmt.Sprintf("%s, %s | %s", b.Name, b.Locality, site.Name),
		Description:   desc,
		CanonicalPath: path,
		Image:         image,
		Type:          "place",
		Keywords:      []string{strings.ToLower(b.Name), "flats in " + strings.ToLower(b.Locality)},
		JSONLD:        ld,
	}
}

// Locality is the head of a locality landing page
func (p *Pages) Locality(l catalog.Locality) PageMeta {
	site := p.catalog.Site
	return PageMeta{
		Title:         fmt.Sprintf("Apartments in %s, %s | %s", l.Name, site.City, site.Name),
		Description:   fmt.Sprintf("Compare apartments and gated communities in %s by price, BHK and amenities.", l.Name),
		CanonicalPath: "/localities/" + l.Key,
		Keywords:      []string{"flats in " + strings.ToLower(l.Name), "apartments in " + strings.ToLower(l.Name)},
		JSONLD: map[string]any{
			"@context": "https://schema.org",
			"@type":    "Place",
			"name":     l.Name,
			"geo": map[string]any{
				"@type":     "GeoCoordinates",
				"latitude":  l.Latitude,
				"longitude": l.Longitude,
			},
		},
	}
}

// Preferences is the head of a personalised results page
func (p *Pages) Preferences(summary model.SEOSummary) PageMeta {
	return PageMeta{
		Title:         summary.Title,
		Description:   summary.Description,
		CanonicalPath: "/buildings",
		Keywords:      summary.Keywords,
		JSONLD:        summary.StructuredData,
		NoIndex:       true,
	}
}

func (p *Pages) websiteJSONLD(path string) map[string]any {
	if path != "/" {
		return nil
	}
	return map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        p.catalog.Site.Name,
		"description": p.catalog.Site.Tagline,
		"url":         p.baseURL + "/",
	}
}

func maxPrice(b model.Building) int64 {
	if b.MaxPrice > b.MinPrice {
		return b.MaxPrice
	}
	return b.MinPrice
}

func amenityFeatures(amenities []string) []map[string]any {
	out := make([]map[string]any, 0, len(amenities))
	for _, a := range amenities {
		out = append(out, map[string]any{
			"@type": "LocationFeatureSpecification",
			"name":  a,
			"value": true,
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;") + "…"
}
