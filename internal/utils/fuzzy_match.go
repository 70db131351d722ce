package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// amenityAliases maps a short search key to the spellings builders use
var amenityAliases = map[string][]string{
	"pool":       {"swimming pool", "pool", "infinity pool", "kids pool"},
	"gym":        {"gym", "gymnasium", "fitness", "fitness centre", "fitness center"},
	"club":       {"clubhouse", "club house", "club"},
	"power":      {"power backup", "dg backup", "100% power backup", "generator"},
	"lift":       {"lift", "elevator"},
	"parking":    {"parking", "car park", "covered parking", "basement parking"},
	"security":   {"security", "24x7 security", "24-hour security", "cctv"},
	"playground": {"playground", "children's play area", "kids play area", "play area"},
	"garden":     {"garden", "landscaped garden", "park", "green area"},
	"ev":         {"ev charging", "ev charger", "electric vehicle charging"},
	"jogging":    {"jogging track", "walking track", "running track"},
	"vastu":      {"vastu", "vastu compliant"},
	"pet":        {"pet park", "pet friendly", "pets allowed"},
	"school":     {"school", "near school"},
	"metro":      {"metro", "near metro", "metro station"},
}

// amenityNames maps any known spelling to the label shown on building pages
var amenityNames = map[string]string{
	"pool":              "Swimming pool",
	"swimming pool":     "Swimming pool",
	"infinity pool":     "Swimming pool",
	"gym":               "Gym",
	"gymnasium":         "Gym",
	"fitness":           "Gym",
	"fitness centre":    "Gym",
	"fitness center":    "Gym",
	"club":              "Clubhouse",
	"clubhouse":         "Clubhouse",
	"club house":        "Clubhouse",
	"power backup":      "Power backup",
	"dg backup":         "Power backup",
	"generator":         "Power backup",
	"lift":              "Lift",
	"elevator":          "Lift",
	"parking":           "Covered parking",
	"car park":          "Covered parking",
	"covered parking":   "Covered parking",
	"security":          "24x7 security",
	"24x7 security":     "24x7 security",
	"24-hour security":  "24x7 security",
	"cctv":              "24x7 security",
	"playground":        "Play area",
	"kids play area":    "Play area",
	"play area":         "Play area",
	"garden":            "Landscaped garden",
	"landscaped garden": "Landscaped garden",
	"ev charging":       "EV charging",
	"ev charger":        "EV charging",
	"jogging track":     "Jogging track",
	"walking track":     "Jogging track",
	"vastu":             "Vastu compliant",
	"vastu compliant":   "Vastu compliant",
	"pet friendly":      "Pet friendly",
	"pets allowed":      "Pet friendly",
}

// FuzzyMatchAmenity performs fuzzy matching for amenity names
// Returns true if the search term fuzzy matches the amenity
func FuzzyMatchAmenity(searchTerm, amenity string) bool {
	searchLower := strings.ToLower(strings.TrimSpace(searchTerm))
	amenityLower := strings.ToLower(strings.TrimSpace(amenity))
	if searchLower == "" || amenityLower == "" {
		return false
	}

	if searchLower == amenityLower {
		return true
	}

	// very short terms like "ev" only match through their alias group
	if len(searchLower) >= 3 && strings.Contains(amenityLower, searchLower) {
		return true
	}

	// search term names an alias group, amenity is one of its spellings
	for key, values := range amenityAliases {
		if !hasWord(searchLower, key) {
			continue
		}
		for _, alias := range values {
			if strings.Contains(amenityLower, alias) {
				return true
			}
		}
	}

	// search term is itself a spelling of a group the amenity belongs to
	for key, values := range amenityAliases {
		if !hasWord(amenityLower, key) {
			continue
		}
		for _, alias := range values {
			if searchLower == alias {
				return true
			}
		}
	}

	return false
}

// hasWord reports whether any word of s is key, or starts with key when key
// is long enough to be unambiguous ("pools", "clubhouse").
func hasWord(s, key string) bool {
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '/' || r == ','
	}) {
		if field == key || (len(key) > 3 && strings.HasPrefix(field, key)) {
			return true
		}
	}
	return false
}

// NormalizeAmenity normalizes amenity names to standard form
func NormalizeAmenity(amenity string) string {
	amenityLower := strings.ToLower(strings.Join(strings.Fields(amenity), " "))
	if amenityLower == "" {
		return ""
	}

	if normalized, ok := amenityNames[amenityLower]; ok {
		return normalized
	}

	// free-text additions keep their wording, title cased
	return cases.Title(language.English).String(amenityLower)
}

// NormalizeAmenities normalizes and de-duplicates a list, keeping first-seen order
func NormalizeAmenities(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		n := NormalizeAmenity(item)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
