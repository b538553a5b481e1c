package service

import (
	"regexp"
	"strings"

	"github.com/campussports/sportsdesk-api/internal/models"
)

// Roll numbers are embedded in institutional email addresses in a handful of
// layouts. Patterns are tried in order and the first capture wins.
var rollNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{4,10})@`),
	regexp.MustCompile(`\.(\d{4,10})@`),
	regexp.MustCompile(`^(\d{4,10})\.`),
	regexp.MustCompile(`_(\d{4,10})@`),
	regexp.MustCompile(`(\d{4,10})_`),
}

// ExtractRollNumber derives a roll number from an institutional email
// address. Returns an empty string when no pattern matches.
func ExtractRollNumber(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, pattern := range rollNumberPatterns {
		if match := pattern.FindStringSubmatch(email); len(match) == 2 {
			return match[1]
		}
	}
	return ""
}

var sportKeywords = []struct {
	keyword string
	sport   string
}{
	{"basketball", "Basketball"},
	{"football", "Football"},
	{"soccer", "Soccer"},
	{"tennis", "Tennis"},
	{"volleyball", "Volleyball"},
	{"cricket", "Cricket"},
	{"badminton", "Badminton"},
	{"swimming", "Swimming"},
	{"athletics", "Athletics"},
	{"track", "Athletics"},
	{"field", "Athletics"},
	{"hockey", "Hockey"},
	{"baseball", "Baseball"},
	{"golf", "Golf"},
	{"rugby", "Rugby"},
}

// InferSport guesses a sport from free-text directory fields such as job
// title, department and office location. Falls back to the default sport when
// no keyword matches.
func InferSport(fields ...string) string {
	haystack := strings.ToLower(strings.Join(fields, " "))
	for _, entry := range sportKeywords {
		if strings.Contains(haystack, entry.keyword) {
			return entry.sport
		}
	}
	return models.DefaultSport
}
