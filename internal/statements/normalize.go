package statements

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var dobPattern = regexp.MustCompile(`(?:^|[^0-9])(\d{1,2})[/\-](\d{1,2})[/\-](\d{4}|\d{2})(?:[^0-9]|$)`)

// NormalizeDOB converts MM/DD/YYYY, MM-DD-YYYY and their two-digit-year forms
// to YYYY-MM-DD. Two-digit years are read as 20YY. A nil result means the
// input could not be parsed, not that no date was given.
func NormalizeDOB(raw *string) *string {
	if raw == nil {
		return nil
	}

	m := dobPattern.FindStringSubmatch(strings.TrimSpace(*raw))
	if m == nil {
		return nil
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}

	out := fmt.Sprintf("%s-%02d-%02d", year, month, day)
	return &out
}
