package reporting

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestErrorFormatting(t *testing.T) {
	err := persistenceError("list reports", "failed to list reports", errors.New("connection reset"))
	assert.Equal(t, "list reports: failed to list reports: connection reset", err.Error())

	err = notFoundError("get report", "report not found")
	assert.Equal(t, "get report: report not found", err.Error())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", validationError("op", "bad", ErrInvalidStatus))
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, ErrInvalidStatus)
	assert.Equal(t, "bad", MessageOf(wrapped))

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "internal error", MessageOf(errors.New("plain")))
}

func TestDependencyErrorRetryable(t *testing.T) {
	assert.True(t, IsRetryable(dependencyError("upload", "timed out", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(dependencyError("upload", "failed", errors.New("401"))))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestStoreError(t *testing.T) {
	err := storeError("get report", "report not found", mongo.ErrNoDocuments)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "report not found", MessageOf(err))

	err = storeError("get report", "report not found", errors.New("socket closed"))
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, "database operation failed", MessageOf(err))
}
