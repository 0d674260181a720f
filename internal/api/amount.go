package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	errBadAmount = errors.New("invalid amount")

	// errNothingAvailable means a relative amount ("all", "N%") was asked
	// of an empty balance. The handlers translate it to the matching
	// business-rule error instead of a parse failure.
	errNothingAvailable = errors.New("nothing available")
)

// parseAmount turns the amount grammar users type in chat into cents.
// Accepted forms: "all" (everything available), "N%" (a percentage of the
// available balance, floored), and a plain decimal currency amount with up
// to two fraction digits ("12", "1.20"). Thousands separators are ignored
// so "1,000" works.
func parseAmount(s string, available int64) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, errBadAmount
	}

	if s == "all" {
		if available <= 0 {
			return 0, errNothingAvailable
		}
		return available, nil
	}

	if pct, ok := strings.CutSuffix(s, "%"); ok {
		p, err := strconv.ParseFloat(pct, 64)
		if err != nil || p <= 0 || p > 100 {
			return 0, errBadAmount
		}
		if available <= 0 {
			return 0, errNothingAvailable
		}
		amount := int64(float64(available) * p / 100)
		if amount < 1 {
			return 0, errBadAmount
		}
		return amount, nil
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, errBadAmount
	}

	cents := units * 100
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, errBadAmount
		}
		if len(frac) == 1 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, errBadAmount
		}
		cents += f
	}

	if cents < 1 {
		return 0, errBadAmount
	}
	return cents, nil
}

// formatCents renders a cent amount as a human-readable currency string,
// e.g. 123456789 -> "$1,234,567.89".
func formatCents(symbol string, cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, humanize.Comma(cents/100), cents%100)
}
