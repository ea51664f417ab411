package llm

import (
	"context"
	"io"
	"log/slog"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	apperr "github.com/JonMunkholm/nlquery/internal/errors"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

const (
	msgNoSchema        = "No schema information available"
	msgInvalidSQL      = "Failed to generate valid SQL query"
	msgGenerationError = "Error generating SQL: "
)

// Synthesis is a successfully sanitized statement plus provider metadata.
type Synthesis struct {
	SQL      string
	Raw      string
	Provider string
	Model    string
	Tokens   int
}

// Synthesizer builds a prompt from a schema and a question, calls the
// provider once and sanitizes the answer.
type Synthesizer struct {
	provider Provider
	logger   *slog.Logger
}

// NewSynthesizer creates a synthesizer backed by provider. A nil logger
// discards output.
func NewSynthesizer(provider Provider, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synthesizer{provider: provider, logger: logger}
}

// ProviderName returns the name of the underlying provider.
func (s *Synthesizer) ProviderName() string {
	return s.provider.Name()
}

// Synthesize turns question into one statement for dialect. The provider
// is not called when sch is empty.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, sch schema.Schema, dialect dsn.Dialect) (Synthesis, error) {
	if sch.Empty() {
		return Synthesis{}, apperr.New(apperr.KindSynthesis, msgNoSchema)
	}

	prompt := BuildPrompt(dialect, sch.ToText(), question)
	completion, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "sql generation failed",
			slog.String("provider", s.provider.Name()),
			slog.Any("error", err),
		)
		return Synthesis{}, apperr.Wrap(apperr.KindSynthesis, msgGenerationError+err.Error(), err)
	}

	sql := CleanSQL(completion.Text)
	s.logger.DebugContext(ctx, "sql generated",
		slog.String("provider", s.provider.Name()),
		slog.String("model", completion.Model),
		slog.Int("tokens", completion.Tokens),
		slog.String("raw", completion.Text),
		slog.String("sql", sql),
	)
	if sql == "" {
		return Synthesis{}, apperr.New(apperr.KindSynthesis, msgInvalidSQL)
	}

	return Synthesis{
		SQL:      sql,
		Raw:      completion.Text,
		Provider: s.provider.Name(),
		Model:    completion.Model,
		Tokens:   completion.Tokens,
	}, nil
}
