package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"propnest/internal/currency"
)

// ErrUnknownBudgetBracket is returned for a budget label missing from the table
var ErrUnknownBudgetBracket = errors.New("unknown budget bracket")

// Bracket is a half-open [Min, Max) price range in rupees.
// An Unbounded bracket has no upper limit.
type Bracket struct {
	Label     string `json:"label"`
	Min       int64  `json:"min"`
	Max       int64  `json:"max,omitempty"`
	Unbounded bool   `json:"unbounded,omitempty"`
}

// Contains reports whether price falls inside the bracket
func (b Bracket) Contains(price int64) bool {
	if price < b.Min {
		return false
	}
	return b.Unbounded || price < b.Max
}

// DefaultBrackets is the budget table shown in the filter bar
func DefaultBrackets() []Bracket {
	lakh, crore := currency.RupeesPerLakh, currency.RupeesPerCrore
	return []Bracket{
		{Label: "Under 50L", Min: 0, Max: 50 * lakh},
		{Label: "50L - 1Cr", Min: 50 * lakh, Max: crore},
		{Label: "1Cr - 1.5Cr", Min: crore, Max: crore + crore/2},
		{Label: "1.5Cr - 2Cr", Min: crore + crore/2, Max: 2 * crore},
		{Label: "2Cr - 3Cr", Min: 2 * crore, Max: 3 * crore},
		{Label: "Above 3Cr", Min: 3 * crore, Unbounded: true},
	}
}

// BracketTable resolves budget labels to price ranges
type BracketTable struct {
	ordered []Bracket
	byLabel map[string]Bracket
}

// NewBracketTable validates and indexes brackets. Labels must be unique and
// every bounded bracket must have Min < Max.
func NewBracketTable(brackets []Bracket) (*BracketTable, error) {
	if len(brackets) == 0 {
		return nil, fmt.Errorf("budget table is empty")
	}

	t := &BracketTable{
		ordered: make([]Bracket, 0, len(brackets)),
		byLabel: make(map[string]Bracket, len(brackets)),
	}
	for _, b := range brackets {
		key := labelKey(b.Label)
		if key == "" {
			return nil, fmt.Errorf("budget bracket without label")
		}
		if _, dup := t.byLabel[key]; dup {
			return nil, fmt.Errorf("duplicate budget bracket %q", b.Label)
		}
		if b.Min < 0 {
			return nil, fmt.Errorf("budget bracket %q has negative minimum", b.Label)
		}
		if !b.Unbounded && b.Max <= b.Min {
			return nil, fmt.Errorf("budget bracket %q: max %d must exceed min %d", b.Label, b.Max, b.Min)
		}
		t.byLabel[key] = b
		t.ordered = append(t.ordered, b)
	}

	sort.SliceStable(t.ordered, func(i, j int) bool {
		return t.ordered[i].Min < t.ordered[j].Min
	})
	return t, nil
}

func mustDefaultTable() *BracketTable {
	t, err := NewBracketTable(DefaultBrackets())
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the bracket for a label
func (t *BracketTable) Lookup(label string) (Bracket, error) {
	b, ok := t.byLabel[labelKey(label)]
	if !ok {
		return Bracket{}, fmt.Errorf("%w: %q", ErrUnknownBudgetBracket, label)
	}
	return b, nil
}

// Brackets returns the table ordered by lower bound
func (t *BracketTable) Brackets() []Bracket {
	out := make([]Bracket, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Below returns the brackets whose lower bound is under ceiling, i.e. the
// ones that can hold a building a buyer with that budget can afford.
func (t *BracketTable) Below(ceiling currency.Amount) []Bracket {
	limit := ceiling.Rupees()
	var out []Bracket
	for _, b := range t.ordered {
		if b.Min < limit {
			out = append(out, b)
		}
	}
	return out
}

func labelKey(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}
