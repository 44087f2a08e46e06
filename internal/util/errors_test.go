package util

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	kinds := []error{
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrNotFound,
		ErrInsufficientFunds,
		ErrActiveEventExists,
		ErrPreconditionFailed,
		ErrTransactionConflict,
		ErrDuplicateEntry,
		ErrStorageUnavailable,
		ErrIdempotencyKeyReused,
	}

	t.Run("EveryKindHasDistinctMessage", func(t *testing.T) {
		seen := map[string]error{}
		for _, kind := range kinds {
			msg := UserMessage(fmt.Errorf("wrapped: %w", kind))
			assert.NotEqual(t, DefaultUserMessage, msg, "kind %v fell through to default", kind)
			if prev, ok := seen[msg]; ok {
				t.Fatalf("%v and %v share message %q", prev, kind, msg)
			}
			seen[msg] = kind
		}
	})

	t.Run("UnknownErrorsDoNotLeakDetails", func(t *testing.T) {
		msg := UserMessage(errors.New("pq: password authentication failed for user \"root\""))
		assert.Equal(t, DefaultUserMessage, msg)
	})

	t.Run("ActiveEventIsAPreconditionFailure", func(t *testing.T) {
		assert.True(t, IsError(ErrActiveEventExists, ErrPreconditionFailed))
	})

	t.Run("NilIsEmpty", func(t *testing.T) {
		assert.Empty(t, UserMessage(nil))
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
