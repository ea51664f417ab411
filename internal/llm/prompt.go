package llm

import (
	"fmt"

	"github.com/JonMunkholm/nlquery/internal/dsn"
)

// BuildPrompt constructs the generation prompt for dialect with the rendered
// schema and the verbatim question. An empty dialect is treated as MySQL.
func BuildPrompt(dialect dsn.Dialect, schemaText, question string) string {
	if dialect == "" {
		dialect = dsn.MySQL
	}
	name := dialect.DisplayName()

	quoting := "Use double quotes for table/column names if needed"
	if dialect == dsn.MySQL {
		quoting = "Use backticks for table/column names if needed"
	}

	return fmt.Sprintf(`
You are an expert %[1]s query generator. Given a database schema and a natural language question, generate a precise %[1]s query.

Database Schema:
%[2]s

Natural Language Query: %[3]s

Instructions:
1. Generate ONLY the SQL query, no explanations or comments
2. Use proper %[1]s syntax
3. Handle JOINs, aggregations, and filtering appropriately
4. Use LIMIT clause when asking for "top N" or "first N" results
5. Be case-insensitive for column matching
6. %[4]s
7. Return only executable %[1]s query
8. Do not include semicolon at the end

Generate the %[1]s query:
`, name, schemaText, question, quoting)
}
