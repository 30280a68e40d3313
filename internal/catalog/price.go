package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice normalises a display price such as "1,299", "KSh 1,299.50" or
// "2500" into a decimal amount. Every character other than digits and the
// decimal point is dropped before parsing.
func ParsePrice(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("price %q has no digits", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}

// DecodePrice reads a JSON price that may be a number or a display string.
func DecodePrice(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, fmt.Errorf("missing price")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("decode price: %w", err)
		}
		return ParsePrice(s)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode price %s: %w", raw, err)
	}
	return d, nil
}
