package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nlquery/internal/config"
	"github.com/JonMunkholm/nlquery/internal/database"
	"github.com/JonMunkholm/nlquery/internal/dsn"
	apperr "github.com/JonMunkholm/nlquery/internal/errors"
	"github.com/JonMunkholm/nlquery/internal/llm"
	"github.com/JonMunkholm/nlquery/internal/observability"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

var (
	askDB         string
	askSQLOnly    bool
	askCSV        bool
	askSchemaFile string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Translate a question into SQL and run it",
	Long: `The ask command connects to --db (or DATABASE_URL), generates one SQL
statement for the question and prints the result rows as a table.

Use --sql-only to print the generated statement without executing it, or
--csv to write the rows to stdout as CSV.

With --schema-file the schema is read from a dump written by "schema --json"
and no database is opened; the statement is printed, not run. The dialect is
taken from --db or DATABASE_URL when set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askDB, "db", "", "connection string (defaults to DATABASE_URL)")
	askCmd.Flags().BoolVar(&askSQLOnly, "sql-only", false, "print the generated SQL without executing it")
	askCmd.Flags().BoolVar(&askCSV, "csv", false, "write result rows as CSV")
	askCmd.Flags().StringVar(&askSchemaFile, "schema-file", "", "generate SQL from a JSON schema dump without connecting")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadCLIConfig()
	if err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question is required")
	}

	synth := newSynthesizer(cfg, logger)
	if synth == nil {
		return errors.New("SQL generation is not configured: set GOOGLE_API_KEY or LLM_API_KEY")
	}

	ctx := cmd.Context()
	if askSchemaFile != "" {
		s, err := readSchemaFile(askSchemaFile)
		if err != nil {
			return err
		}
		var dialect dsn.Dialect
		if desc, err := dsn.Parse(pickDescriptor(askDB, cfg.Database.URL)); err == nil {
			dialect = desc.Dialect
		}
		synthesis, err := synthesize(cmd, synth, question, s, dialect, false)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), synthesis.SQL)
		return nil
	}

	gw, err := openDatabase(cmd, cfg, logger, askDB)
	if err != nil {
		return err
	}
	defer gw.Close()

	s, err := gw.Schema(ctx)
	if err != nil {
		return err
	}
	if s.Empty() {
		return errors.New("no database schema available")
	}

	synthesis, err := synthesize(cmd, synth, question, s, gw.Dialect(), !askSQLOnly && !askCSV)
	if err != nil {
		return err
	}

	if askSQLOnly {
		fmt.Fprintln(cmd.OutOrStdout(), synthesis.SQL)
		return nil
	}

	result, err := gw.Execute(ctx, synthesis.SQL)
	if err != nil {
		return fmt.Errorf("SQL execution error: %s", apperr.MessageOf(err))
	}
	if askCSV {
		return writeCSV(cmd.OutOrStdout(), result)
	}
	pterm.DefaultBox.WithTitle("SQL").Println(synthesis.SQL)
	return printResult(result)
}

// synthesize generates SQL for question. The spinner is shown only when
// stdout is meant for people; it writes to stderr either way.
func synthesize(cmd *cobra.Command, synth *llm.Synthesizer, question string, s schema.Schema, dialect dsn.Dialect, spin bool) (llm.Synthesis, error) {
	var spinner *pterm.SpinnerPrinter
	if spin {
		spinner, _ = pterm.DefaultSpinner.WithWriter(cmd.ErrOrStderr()).Start("Generating SQL with " + synth.ProviderName())
	}
	synthesis, err := synth.Synthesize(cmd.Context(), question, s, dialect)
	if spinner != nil {
		if err != nil {
			spinner.Fail(apperr.MessageOf(err))
		} else {
			spinner.Success("SQL generated")
		}
	}
	return synthesis, err
}

// readSchemaFile loads a schema written by "schema --json".
func readSchemaFile(path string) (schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, err
	}
	var s schema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return schema.Schema{}, fmt.Errorf("read schema %s: %w", path, err)
	}
	if s.Empty() {
		return schema.Schema{}, fmt.Errorf("read schema %s: no tables", path)
	}
	return s, nil
}

func printResult(result database.Result) error {
	if len(result.Columns) > 0 {
		if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(resultTable(result)).Render(); err != nil {
			return err
		}
	}
	pterm.Info.Printfln("%d row(s)", result.Count())
	return nil
}

// loadCLIConfig loads configuration for one-shot commands, logging warnings
// as text on stderr.
func loadCLIConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFromEnv(serviceName)
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg.Observability.LogJSON = false
	if !cfg.Debug {
		cfg.Observability.LogLevel = slog.LevelWarn
	}
	return cfg, observability.NewLogger(cfg, os.Stderr), nil
}

func openDatabase(cmd *cobra.Command, cfg config.Config, logger *slog.Logger, descriptor string) (*database.Gateway, error) {
	descriptor = pickDescriptor(descriptor, cfg.Database.URL)
	if strings.TrimSpace(descriptor) == "" {
		return nil, errors.New("no database: pass --db or set DATABASE_URL")
	}
	gw := newGateway(cfg, logger)
	if err := connectWithTimeout(cmd.Context(), gw, descriptor); err != nil {
		return nil, err
	}
	return gw, nil
}
