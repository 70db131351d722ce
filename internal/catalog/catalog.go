package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"propnest/internal/currency"
	"propnest/internal/filter"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Site holds the branding used in page heads and structured data
type Site struct {
	Name         string `yaml:"name" json:"name"`
	Tagline      string `yaml:"tagline" json:"tagline"`
	City         string `yaml:"city" json:"city"`
	DefaultImage string `yaml:"default_image" json:"default_image"`
}

// Locality is a neighbourhood users can pick during onboarding
type Locality struct {
	Key       string  `yaml:"key" json:"key"`
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// Collection is a curated building tag
type Collection struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// BudgetBracket is a bracket as written in the catalog file
type BudgetBracket struct {
	Label string `yaml:"label" json:"label"`
	Min   string `yaml:"min" json:"min"`
	Max   string `yaml:"max,omitempty" json:"max,omitempty"`
}

// Lifestyle is one onboarding lifestyle option
type Lifestyle struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// Page is a static route listed in the sitemap
type Page struct {
	Path        string  `yaml:"path" json:"path"`
	ChangeFreq  string  `yaml:"changefreq" json:"changefreq"`
	Priority    float64 `yaml:"priority" json:"priority"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description" json:"description"`
}

// Catalog is the static reference data of the site
type Catalog struct {
	Site           Site            `yaml:"site" json:"site"`
	Localities     []Locality      `yaml:"localities" json:"localities"`
	Collections    []Collection    `yaml:"collections" json:"collections"`
	BudgetBrackets []BudgetBracket `yaml:"budget_brackets" json:"budget_brackets"`
	Lifestyles     []Lifestyle     `yaml:"lifestyles" json:"lifestyles"`
	Pages          []Page          `yaml:"pages" json:"pages"`

	brackets *filter.BracketTable
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file; an empty path means the default
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks keys are unique and builds the budget table
func (c *Catalog) Validate() error {
	if c.Site.Name == "" {
		return fmt.Errorf("catalog: site.name is required")
	}

	seen := make(map[string]struct{}, len(c.Localities))
	for _, l := range c.Localities {
		if l.Key == "" || l.Name == "" {
			return fmt.Errorf("catalog: locality needs key and name")
		}
		if _, dup := seen[l.Key]; dup {
			return fmt.Errorf("catalog: duplicate locality %q", l.Key)
		}
		seen[l.Key] = struct{}{}
	}

	seen = make(map[string]struct{}, len(c.Collections))
	for _, col := range c.Collections {
		if _, dup := seen[col.Key]; dup || col.Key == "" {
			return fmt.Errorf("catalog: invalid or duplicate collection %q", col.Key)
		}
		seen[col.Key] = struct{}{}
	}

	brackets := make([]filter.Bracket, 0, len(c.BudgetBrackets))
	for _, b := range c.BudgetBrackets {
		lo, err := currency.Parse(b.Min)
		if err != nil {
			return fmt.Errorf("catalog: bracket %q min: %w", b.Label, err)
		}
		fb := filter.Bracket{Label: b.Label, Min: lo.Rupees(), Unbounded: b.Max == ""}
		if !fb.Unbounded {
			hi, err := currency.Parse(b.Max)
			if err != nil {
				return fmt.Errorf("catalog: bracket %q max: %w", b.Label, err)
			}
			fb.Max = hi.Rupees()
		}
		brackets = append(brackets, fb)
	}

	table, err := filter.NewBracketTable(brackets)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	c.brackets = table
	return nil
}

// Brackets returns the validated budget table
func (c *Catalog) Brackets() *filter.BracketTable {
	return c.brackets
}

// Locality finds a locality by key or by display name (case-insensitive)
func (c *Catalog) Locality(keyOrName string) (Locality, bool) {
	needle := strings.TrimSpace(keyOrName)
	for _, l := range c.Localities {
		if l.Key == needle || strings.EqualFold(l.Name, needle) {
			return l, true
		}
	}
	return Locality{}, false
}

// LocalityName resolves a key to its display name, falling back to the input
func (c *Catalog) LocalityName(keyOrName string) string {
	if l, ok := c.Locality(keyOrName); ok {
		return l.Name
	}
	return strings.TrimSpace(keyOrName)
}

// LifestyleLabel returns the label for a lifestyle key
func (c *Catalog) LifestyleLabel(key string) string {
	for _, l := range c.Lifestyles {
		if l.Key == key {
			return l.Label
		}
	}
	return key
}
