package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyRunes  = "$£€%"
	numericToken   = regexp.MustCompile(`^[+-]?(\d+([.,]\d+)*|[.,]\d+)$`)
	dotThousands   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	commaThousands = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseNumber attempts numeric coercion of a raw cell after stripping
// currency symbols and thousands separators. Returns false when the cell
// does not look numeric.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Trim(s, " ")
	for _, r := range currencyRunes {
		s = strings.ReplaceAll(s, string(r), "")
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || !numericToken.MatchString(s) {
		return 0, false
	}
	s = normalizeNumericToken(s)
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// normalizeNumericToken resolves separator ambiguity: "1.000" and "1,000"
// are thousands groups, "1,5" is a decimal comma.
func normalizeNumericToken(token string) string {
	compact := token
	sign := ""
	if strings.HasPrefix(compact, "+") || strings.HasPrefix(compact, "-") {
		sign = compact[:1]
		compact = compact[1:]
	}
	if dotThousands.MatchString(compact) {
		return sign + strings.ReplaceAll(compact, ".", "")
	}
	if commaThousands.MatchString(compact) {
		return sign + strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && strings.Contains(compact, ".") {
		// "1,234.56" form: comma groups, dot decimal.
		compact = strings.ReplaceAll(compact, ",", "")
		return sign + compact
	}
	if strings.Contains(compact, ",") {
		return sign + strings.ReplaceAll(compact, ",", ".")
	}
	return sign + compact
}

// ParseBool interprets common in-stock markers.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "in stock", "available", "да":
		return true, true
	case "0", "false", "no", "n", "out of stock", "unavailable", "нет":
		return false, true
	}
	return false, false
}
