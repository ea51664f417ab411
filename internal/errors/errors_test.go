package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	assert.Equal(t, "validation: Query is required", New(KindValidation, "Query is required").Error())

	wrapped := Wrap(KindExecution, "SQL execution error", stderrors.New("no such table: foo"))
	assert.Equal(t, "execution: SQL execution error: no such table: foo", wrapped.Error())
}

func TestKindOfFollowsWrapChain(t *testing.T) {
	base := New(KindSynthesis, "Failed to generate valid SQL query")
	err := fmt.Errorf("ask: %w", base)

	assert.Equal(t, KindSynthesis, KindOf(err))
	assert.Equal(t, "Failed to generate valid SQL query", MessageOf(err))
	assert.True(t, Is(err, KindSynthesis))
	assert.False(t, Is(err, KindExecution))
}

func TestKindOfPlainError(t *testing.T) {
	err := stderrors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "boom", MessageOf(err))
	assert.Equal(t, "", MessageOf(nil))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(KindConnectivity, "Failed to connect to database", cause)

	assert.ErrorIs(t, err, cause)
}
