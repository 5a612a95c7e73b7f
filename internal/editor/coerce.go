package editor

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Lenient coercion for untyped input (store-side blobs written by older
// tooling, free-form form values). Invalid or absent input degrades to zero
// instead of failing; callers that need strictness validate upstream —
// ProposeEdit rejects out-of-domain values explicitly.

// CoerceInt parses v as an integer, degrading to zero on invalid or absent
// input. Decimal input is truncated.
func CoerceInt(v string) int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int64(f)
	}
	return 0
}

// CoerceDecimal parses v as a decimal, degrading to zero on invalid or
// absent input.
func CoerceDecimal(v string) decimal.Decimal {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceBool parses v as a boolean, degrading to false on anything that is
// not an accepted truthy token.
func CoerceBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
