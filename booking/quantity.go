package booking

import (
	"fmt"
	"math"
	"strings"
)

// MaxTicketsPerPurchase caps a single quantity request. It is a policy limit,
// unrelated to event capacity.
const MaxTicketsPerPurchase = 10

// MaxSeatLabelLength fits the row and number columns a label is split into.
const MaxSeatLabelLength = 16

// ValidateQuantity rejects non-positive and fractional quantities and clamps
// the rest to MaxTicketsPerPurchase.
func ValidateQuantity(q float64) (int, error) {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 || q != math.Trunc(q) {
		return 0, ErrInvalidQuantity
	}

	if q > MaxTicketsPerPurchase {
		return MaxTicketsPerPurchase, nil
	}

	return int(q), nil
}

// NormalizeSeats trims and upper-cases labels, dropping blanks and repeats.
func NormalizeSeats(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	normalized := make([]string, 0, len(labels))

	for _, label := range labels {
		l := strings.ToUpper(strings.TrimSpace(label))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		normalized = append(normalized, l)
	}

	return normalized
}

// ValidateSeats normalizes a seat selection. A selection is bounded by
// MaxTicketsPerPurchase like a quantity, but is rejected instead of clamped
// since there is no way to tell which seats to drop.
func ValidateSeats(labels []string) ([]string, error) {
	normalized := NormalizeSeats(labels)
	if len(normalized) == 0 {
		return nil, ErrInvalidQuantity
	}
	if len(normalized) > MaxTicketsPerPurchase {
		return nil, fmt.Errorf("%w: %d seats requested, the limit is %d per purchase", ErrInvalidSeats, len(normalized), MaxTicketsPerPurchase)
	}

	for _, l := range normalized {
		if len(l) > MaxSeatLabelLength {
			return nil, fmt.Errorf("%w: label %q is longer than %d characters", ErrInvalidSeats, l, MaxSeatLabelLength)
		}
	}

	return normalized, nil
}

// AvailableSeats returns requested minus booked, in request order.
func AvailableSeats(requested, booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, label := range booked {
		taken[label] = struct{}{}
	}

	available := make([]string, 0, len(requested))
	for _, label := range requested {
		if _, ok := taken[label]; ok {
			continue
		}
		available = append(available, label)
	}

	return available
}
