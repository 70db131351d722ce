package currency

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is the scale an Amount is denominated in
type Unit int

const (
	Rupee Unit = iota
	Lakh
	Crore
)

const (
	RupeesPerLakh  int64 = 100_000
	RupeesPerCrore int64 = 10_000_000
)

// ErrInvalidAmount is returned when a price string cannot be parsed
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a price together with the unit it was expressed in.
// Preference budgets arrive in lakh while building prices are stored in
// rupees; Rupees() is the only place the two meet.
type Amount struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func Rupees(v int64) Amount { return Amount{Value: float64(v), Unit: Rupee} }
func Lakhs(v float64) Amount { return Amount{Value: v, Unit: Lakh} }
func Crores(v float64) Amount { return Amount{Value: v, Unit: Crore} }

// Rupees converts the amount to whole rupees
func (a Amount) Rupees() int64 {
	switch a.Unit {
	case Lakh:
		return int64(math.Round(a.Value * float64(RupeesPerLakh)))
	case Crore:
		return int64(math.Round(a.Value * float64(RupeesPerCrore)))
	default:
		return int64(math.Round(a.Value))
	}
}

// IsZero reports whether the amount is zero in any unit
func (a Amount) IsZero() bool {
	return a.Value == 0
}

func (u Unit) String() string {
	switch u {
	case Lakh:
		return "lakh"
	case Crore:
		return "crore"
	default:
		return "rupee"
	}
}

// Parse reads "50L", "1.5Cr", "75 lakh", "2 crore" or a plain rupee figure
// such as "7500000" or "7,500,000".
func Parse(s string) (Amount, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Amount{}, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	lower := strings.ToLower(strings.ReplaceAll(raw, ",", ""))
	lower = strings.TrimPrefix(lower, "₹")
	lower = strings.TrimSpace(lower)

	unit := Rupee
	for _, suffix := range []struct {
		text string
		unit Unit
	}{
		{"crore", Crore},
		{"cr", Crore},
		{"lakhs", Lakh},
		{"lakh", Lakh},
		{"lac", Lakh},
		{"l", Lakh},
	} {
		if strings.HasSuffix(lower, suffix.text) {
			unit = suffix.unit
			lower = strings.TrimSpace(strings.TrimSuffix(lower, suffix.text))
			break
		}
	}

	value, err := strconv.ParseFloat(lower, 64)
	if err != nil || value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{Value: value, Unit: unit}, nil
}

// FormatShort renders a rupee figure the way listing cards show it:
// "₹45 L", "₹1.25 Cr", "₹95,000".
func FormatShort(rupees int64) string {
	switch {
	case rupees >= RupeesPerCrore:
		return "₹" + trimFloat(float64(rupees)/float64(RupeesPerCrore)) + " Cr"
	case rupees >= RupeesPerLakh:
		return "₹" + trimFloat(float64(rupees)/float64(RupeesPerLakh)) + " L"
	default:
		return "₹" + groupIndian(rupees)
	}
}

// FormatRange renders a min/max pair; equal bounds collapse to one figure
func FormatRange(min, max int64) string {
	if max <= 0 || max == min {
		return FormatShort(min)
	}
	return FormatShort(min) + " - " + FormatShort(max)
}

func trimFloat(v float64) string {
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// groupIndian inserts separators in the 3-2-2 pattern (12,34,567)
func groupIndian(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	out := strings.Join(parts, ",") + "," + tail
	if neg {
		return "-" + out
	}
	return out
}
