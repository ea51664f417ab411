package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/nlquery/internal/config"
	"github.com/JonMunkholm/nlquery/internal/database"
	"github.com/JonMunkholm/nlquery/internal/observability"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

func strPtr(s string) *string { return &s }

func TestSchemaTree(t *testing.T) {
	s := schema.Schema{Tables: []schema.Table{
		{Name: "departments", Columns: []schema.Column{
			{Name: "id", Type: "INTEGER", IsPK: true},
		}},
		{Name: "employees", Columns: []schema.Column{
			{Name: "id", Type: "int", IsPK: true, Extra: strPtr("auto_increment")},
			{Name: "salary", Type: "int", Nullable: true, Default: strPtr("0")},
		}},
	}}

	tree := schemaTree("sqlite:///tmp/app.db (2 tables)", s)
	assert.Equal(t, "sqlite:///tmp/app.db (2 tables)", tree.Text)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "departments", tree.Children[0].Text)
	assert.Equal(t, []pterm.TreeNode{
		{Text: "id int PK NOT NULL auto_increment"},
		{Text: "salary int default=0"},
	}, tree.Children[1].Children)
}

func TestResultTable(t *testing.T) {
	r := database.Result{
		Columns: []string{"name", "salary", "manager"},
		Records: []database.Record{
			{"name": "Ada", "salary": int64(120), "manager": nil},
			{"name": "Grace", "salary": 150.5, "manager": "Ada"},
		},
	}

	assert.Equal(t, pterm.TableData{
		{"name", "salary", "manager"},
		{"Ada", "120", "NULL"},
		{"Grace", "150.5", "Ada"},
	}, resultTable(r))
}

func TestWriteCSV(t *testing.T) {
	r := database.Result{
		Columns: []string{"name", "note"},
		Records: []database.Record{
			{"name": "Ada", "note": nil},
			{"name": "Smith, J", "note": "said \"hi\""},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, r))
	assert.Equal(t, "name,note\nAda,\n\"Smith, J\",\"said \"\"hi\"\"\"\n", buf.String())
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "NULL", formatCell(nil))
	assert.Equal(t, "abc", formatCell([]byte("abc")))
	assert.Equal(t, "true", formatCell(true))
	assert.Equal(t, "12.50", formatCell("12.50"))
}

func TestFilterSchema(t *testing.T) {
	s := schema.Schema{Tables: []schema.Table{{Name: "departments"}, {Name: "employees"}}}

	got, err := filterSchema(s, "")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	got, err = filterSchema(s, "employees")
	require.NoError(t, err)
	assert.Equal(t, []string{"employees"}, got.TableNames())

	_, err = filterSchema(s, "salaries")
	assert.EqualError(t, err, `table "salaries" not found (have: departments, employees)`)
}

func TestPickDescriptor(t *testing.T) {
	assert.Equal(t, "sqlite://a.db", pickDescriptor("sqlite://a.db", "sqlite://b.db"))
	assert.Equal(t, "sqlite://b.db", pickDescriptor("", "sqlite://b.db"))
}

func TestNewSynthesizerRequiresKey(t *testing.T) {
	cfg, err := config.Load(serviceName, func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	logger := observability.NewLogger(cfg, nil)

	assert.Nil(t, newSynthesizer(cfg, logger))

	cfg.LLM.APIKey = "k"
	cfg.LLM.Provider = "nope"
	assert.Nil(t, newSynthesizer(cfg, logger))

	cfg.LLM.Provider = "openai"
	cfg.LLM.Timeout = time.Second
	synth := newSynthesizer(cfg, logger)
	require.NotNil(t, synth)
	assert.Equal(t, "openai", synth.ProviderName())
}
