package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

var (
	schemaDB    string
	schemaText  bool
	schemaJSON  bool
	schemaTable string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the tables and columns of a database",
	Long: `The schema command introspects --db (or DATABASE_URL) and prints its tables
and columns as a tree. With --text it prints the plain-text form that is sent
to the language model, and with --json the same object GET /api/schema returns
under "schema", suitable for "ask --schema-file". --table limits the output to
one table.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaDB, "db", "", "connection string (defaults to DATABASE_URL)")
	schemaCmd.Flags().BoolVar(&schemaText, "text", false, "print the prompt text form instead of a tree")
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "print the schema as JSON")
	schemaCmd.Flags().StringVar(&schemaTable, "table", "", "show only this table")
	schemaCmd.MarkFlagsMutuallyExclusive("text", "json")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadCLIConfig()
	if err != nil {
		return err
	}
	gw, err := openDatabase(cmd, cfg, logger, schemaDB)
	if err != nil {
		return err
	}
	defer gw.Close()

	s, err := gw.Schema(cmd.Context())
	if err != nil {
		return err
	}
	if s.Empty() {
		return errors.New("database has no tables")
	}
	if s, err = filterSchema(s, schemaTable); err != nil {
		return err
	}

	switch {
	case schemaText:
		fmt.Fprint(cmd.OutOrStdout(), s.ToText())
		return nil
	case schemaJSON:
		body, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}

	desc, err := dsn.Parse(pickDescriptor(schemaDB, cfg.Database.URL))
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s (%d tables)", desc.String(), s.TableCount())
	return pterm.DefaultTree.WithRoot(schemaTree(title, s)).Render()
}

// filterSchema narrows s to the named table. An empty name keeps every table.
func filterSchema(s schema.Schema, name string) (schema.Schema, error) {
	if name == "" {
		return s, nil
	}
	t, ok := s.Table(name)
	if !ok {
		return schema.Schema{}, fmt.Errorf("table %q not found (have: %s)", name, strings.Join(s.TableNames(), ", "))
	}
	return schema.Schema{Tables: []schema.Table{t}}, nil
}

func pickDescriptor(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
