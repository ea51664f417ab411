package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"fenced", "```sql\nSELECT 1\n```", "SELECT 1"},
		{"fenced uppercase tag", "```SQL\nSELECT 1;\n```", "SELECT 1"},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"label", "SQL Query: SELECT 1;", "SELECT 1"},
		{"query label", "query: SELECT name FROM t", "SELECT name FROM t"},
		{"mysql label", "MySQL Query: SELECT 1", "SELECT 1"},
		{"label not at start", "SELECT 'query:' AS q", "SELECT 'query:' AS q"},
		{"comments and blanks", "-- top rows\n\nSELECT 1\n# done\n", "SELECT 1"},
		{"multi line joined", "SELECT id,\n  name\nFROM employees\nWHERE id > 1;", "SELECT id, name FROM employees WHERE id > 1"},
		{"several terminators", "SELECT 1;;", "SELECT 1"},
		{"surrounding whitespace", "  \n SELECT 1 \n ", "SELECT 1"},
		{"only comments and fences", "```sql\n-- nothing here\n# still nothing\n```", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSQL(tt.raw))
		})
	}
}

func TestCleanSQLIsIdempotentOnCleanStatements(t *testing.T) {
	statements := []string{
		"SELECT * FROM employees ORDER BY salary DESC LIMIT 3",
		"SELECT COUNT(*) FROM orders WHERE status = 'open'",
	}
	for _, stmt := range statements {
		assert.Equal(t, stmt, CleanSQL(stmt))
		assert.Equal(t, stmt, CleanSQL(stmt+";"))
		assert.Equal(t, stmt, CleanSQL(CleanSQL(stmt)))
	}
}
