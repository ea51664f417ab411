package cmd

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Messages []struct {
		Content string `json:"content"`
	} `json:"messages"`
}

// openAIStub answers every chat completion with content, a JSON string
// literal, and records the prompts it received.
func openAIStub(t *testing.T, content string, prompts *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && prompts != nil && len(req.Messages) > 0 {
			*prompts = append(*prompts, req.Messages[0].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + content + `}}],"usage":{"total_tokens":9}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seedEmployees(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "company.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE employees (id INTEGER PRIMARY KEY, salary INTEGER)`,
		`INSERT INTO employees (id, salary) VALUES (1, 500), (2, 900)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		askDB, askCSV, askSQLOnly, askSchemaFile = "", false, false, ""
		schemaDB, schemaJSON, schemaText, schemaTable = "", false, false, ""
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAskMachineReadableOutput(t *testing.T) {
	srv := openAIStub(t, `"`+"```sql\\nSELECT id, salary FROM employees ORDER BY id;\\n```"+`"`, nil)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_BASE_URL", srv.URL)
	db := "sqlite://" + seedEmployees(t)

	t.Run("csv", func(t *testing.T) {
		stdout, stderr, err := runRoot(t, "ask", "--csv=true", "--sql-only=false", "--db", db, "list", "salaries")
		require.NoError(t, err)
		assert.Equal(t, "id,salary\n1,500\n2,900\n", stdout)
		assert.NotContains(t, stderr, "SQL generated")
	})

	t.Run("sql only", func(t *testing.T) {
		stdout, _, err := runRoot(t, "ask", "--csv=false", "--sql-only=true", "--db", db, "list", "salaries")
		require.NoError(t, err)
		assert.Equal(t, "SELECT id, salary FROM employees ORDER BY id\n", stdout)
	})
}

func TestAskWithoutProvider(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, _, err := runRoot(t, "ask", "--db", "sqlite://", "anything")
	assert.EqualError(t, err, "SQL generation is not configured: set GOOGLE_API_KEY or LLM_API_KEY")
}

func TestRootWithoutSubcommandServes(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })
	t.Setenv("DATABASE_URL", "")
	t.Cleanup(func() { serveAddr = "" })

	stdout, _, err := runRoot(t, "--addr", busy.Addr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
	assert.NotContains(t, stdout, "Usage:")
}

func TestAskFromSchemaDump(t *testing.T) {
	var prompts []string
	srv := openAIStub(t, `"SELECT salary FROM employees ORDER BY salary DESC LIMIT 1"`, &prompts)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_BASE_URL", srv.URL)
	t.Setenv("DATABASE_URL", "")

	dump, _, err := runRoot(t, "schema", "--json", "--db", "sqlite://"+seedEmployees(t))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o600))

	stdout, _, err := runRoot(t, "ask", "--schema-file", path, "highest", "salary")
	require.NoError(t, err)
	assert.Equal(t, "SELECT salary FROM employees ORDER BY salary DESC LIMIT 1\n", stdout)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "=== Table: `employees` ===")
	assert.Contains(t, prompts[0], "salary: INTEGER NULL")
	assert.Contains(t, prompts[0], "You are an expert MySQL query generator")
}

func TestReadSchemaFileRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	_, err := readSchemaFile(empty)
	assert.ErrorContains(t, err, "no tables")

	list := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(list, []byte(`["employees"]`), 0o600))
	_, err = readSchemaFile(list)
	assert.ErrorContains(t, err, "expected object")

	_, err = readSchemaFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
