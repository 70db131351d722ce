package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"propnest/internal/model"
	"propnest/internal/utils"
)

var (
	// ErrUnknownFilterType is returned for a filter type the evaluator does not know
	ErrUnknownFilterType = errors.New("unknown filter type")
	// ErrInvalidBHK is returned for a BHK value without a leading bedroom count
	ErrInvalidBHK = errors.New("invalid BHK value")
)

// IsValidationError reports whether err comes from a malformed filter set
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownFilterType) ||
		errors.Is(err, ErrUnknownBudgetBracket) ||
		errors.Is(err, ErrInvalidBHK)
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithBrackets replaces the default budget table
func WithBrackets(t *BracketTable) Option {
	return func(e *Evaluator) {
		if t != nil {
			e.brackets = t
		}
	}
}

// WithPermissiveUnknownTypes lets filters of unknown type match every
// building instead of failing validation.
func WithPermissiveUnknownTypes() Option {
	return func(e *Evaluator) {
		e.permissive = true
	}
}

// Evaluator decides whether a building satisfies a set of filters.
// Filters are ANDed; the values inside one filter are ORed.
// A filter with no values is inactive and matches every building.
type Evaluator struct {
	brackets   *BracketTable
	permissive bool
}

// NewEvaluator creates an evaluator using the default budget table
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{brackets: mustDefaultTable()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Brackets exposes the budget table the evaluator resolves labels against
func (e *Evaluator) Brackets() *BracketTable {
	return e.brackets
}

// Validate checks every filter without looking at any building
func (e *Evaluator) Validate(filters []model.Filter) error {
	for _, f := range filters {
		switch f.Type {
		case model.FilterLocality, model.FilterAmenities:
		case model.FilterBHK:
			for _, v := range f.Value {
				if _, err := ParseBHK(v); err != nil {
					return err
				}
			}
		case model.FilterBudget:
			for _, v := range f.Value {
				if _, err := e.brackets.Lookup(v); err != nil {
					return err
				}
			}
		default:
			if !e.permissive {
				return fmt.Errorf("%w: %q", ErrUnknownFilterType, f.Type)
			}
		}
	}
	return nil
}

// Matches reports whether b satisfies every filter
func (e *Evaluator) Matches(b model.Building, filters []model.Filter) (bool, error) {
	if err := e.Validate(filters); err != nil {
		return false, err
	}
	return e.matches(b, filters), nil
}

// Apply returns the buildings matching every filter, keeping their order
func (e *Evaluator) Apply(buildings []model.Building, filters []model.Filter) ([]model.Building, error) {
	if err := e.Validate(filters); err != nil {
		return nil, err
	}

	out := make([]model.Building, 0, len(buildings))
	for _, b := range buildings {
		if e.matches(b, filters) {
			out = append(out, b)
		}
	}
	return out, nil
}

// matches assumes filters were validated
func (e *Evaluator) matches(b model.Building, filters []model.Filter) bool {
	for _, f := range filters {
		if len(f.Value) == 0 {
			continue
		}
		if !e.matchOne(b, f) {
			return false
		}
	}
	return true
}

func (e *Evaluator) matchOne(b model.Building, f model.Filter) bool {
	switch f.Type {
	case model.FilterLocality:
		for _, v := range f.Value {
			if b.Locality == v {
				return true
			}
		}
		return false

	case model.FilterBHK:
		for _, v := range f.Value {
			n, _ := ParseBHK(v)
			if b.HasBHK(n) {
				return true
			}
		}
		return false

	case model.FilterBudget:
		for _, v := range f.Value {
			bracket, _ := e.brackets.Lookup(v)
			if bracket.Contains(b.MinPrice) {
				return true
			}
		}
		return false

	case model.FilterAmenities:
		for _, v := range f.Value {
			for _, amenity := range b.Amenities {
				if utils.FuzzyMatchAmenity(v, amenity) {
					return true
				}
			}
		}
		return false

	default:
		// only reachable in permissive mode
		return true
	}
}

// ParseBHK extracts the bedroom count from a value such as "3 BHK"
func ParseBHK(value string) (int64, error) {
	s := strings.TrimSpace(value)
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBHK, value)
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBHK, value)
	}
	return n, nil
}

// FormatBHK renders a bedroom count the way the filter bar labels it
func FormatBHK(n int) string {
	return strconv.Itoa(n) + " BHK"
}
