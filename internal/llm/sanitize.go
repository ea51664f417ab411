package llm

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reFenceOpen = regexp.MustCompile("(?i)```sql\\s*")
	reLabel     = regexp.MustCompile(`(?i)^(sql query:|query:|mysql query:)`)
)

// CleanSQL reduces raw model output to a single-line statement: fences,
// a leading label, blank lines and comment lines are removed, the remaining
// lines are joined with single spaces and trailing terminators are dropped.
// An empty result means the output held no statement.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	s = reFenceOpen.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	s = reLabel.ReplaceAllString(s, "")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	s = strings.TrimSpace(strings.Join(lines, " "))
	// Every trailing ';' goes, not just one: "SELECT 1;;" runs as "SELECT 1".
	return strings.TrimRightFunc(s, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
}
