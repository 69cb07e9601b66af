package model

import (
	"fmt"
	"math"
	"strconv"
)

// All monetary amounts in this module are paise (int64 minor units).
// The backend API reports rupee amounts as JSON numbers or decimal strings;
// these helpers normalize both at the boundary.

// PaiseFromRupees converts a rupee float (as decoded from JSON) to paise.
// math.Round handles both positive and negative amounts correctly.
// Examples: 799.5 → 79950, 1000 → 100000
func PaiseFromRupees(r float64) int64 {
	return int64(math.Round(r * 100))
}

// ParsePaise converts a decimal rupee string to paise. The backend emits
// these where it echoes string request fields back in responses.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParsePaise(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return PaiseFromRupees(f)
}

// FormatRupees renders paise as a two-decimal rupee string, e.g. 79950 →
// "799.50". Used for request bodies (transaction_amount), payment handoff
// amounts, and display.
func FormatRupees(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s%d.%02d", sign, paise/100, paise%100)
}
