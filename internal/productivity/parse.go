package productivity

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHours converts user hour text into a validated number. Empty input
// and a lone decimal point are in-progress keystrokes and parse as zero.
// Negative values are rejected; hours are worked time, never a credit.
func ParseHours(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "." {
		return 0, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hours %q: %w", text, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("parse hours %q: negative value", text)
	}
	return value, nil
}

// CoerceHours parses hour text, treating anything unparseable as zero.
// Totals use this form so one junk cell never poisons a sum.
func CoerceHours(text string) float64 {
	value, err := ParseHours(text)
	if err != nil {
		return 0
	}
	return value
}

// formatHours renders an hour value the way it is shown in a grid cell,
// without trailing zeros.
func formatHours(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
