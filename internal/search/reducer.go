package search

import (
	"strings"

	"golang.org/x/text/cases"

	"propnest/internal/model"
)

// Reduce narrows buildings by a free-text term matched against the name and
// by collection membership. A blank term and an empty collection list both
// match everything. The relative order of the input is kept.
func Reduce(buildings []model.Building, term string, collections []string) []model.Building {
	needle := fold(strings.TrimSpace(term))
	wanted := collectionSet(collections)

	out := make([]model.Building, 0, len(buildings))
	for _, b := range buildings {
		if needle != "" && !strings.Contains(fold(b.Name), needle) {
			continue
		}
		if len(wanted) > 0 && !inCollections(b, wanted) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ByName keeps buildings whose name contains term, ignoring case
func ByName(buildings []model.Building, term string) []model.Building {
	return Reduce(buildings, term, nil)
}

// ByCollections keeps buildings tagged with at least one of collections
func ByCollections(buildings []model.Building, collections []string) []model.Building {
	return Reduce(buildings, "", collections)
}

func fold(s string) string {
	if s == "" {
		return s
	}
	return cases.Fold().String(s)
}

func collectionSet(collections []string) map[string]struct{} {
	set := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		c = strings.TrimSpace(c)
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

func inCollections(b model.Building, wanted map[string]struct{}) bool {
	for _, tag := range b.Collections {
		if _, ok := wanted[tag]; ok {
			return true
		}
	}
	return false
}
