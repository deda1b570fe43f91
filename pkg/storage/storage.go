package storage

import (
	"context"
	"fmt"

	"github.com/ignatij/logreport/pkg/models"
)

// RecentLimit caps how many documents a single retrieval returns.
const RecentLimit = 50

// LogStore defines the read operations on the log search backend.
type LogStore interface {
	// FetchRecent returns up to limit records in backend order.
	FetchRecent(ctx context.Context, limit int) ([]models.LogRecord, error)
	// TestConnection reports reachability as text. It never fails.
	TestConnection(ctx context.Context) string
}

// RetrievalError reports that the backend was unreachable or answered with a failure.
type RetrievalError struct {
	Message string
	Err     error
}

func (e *RetrievalError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("Elasticsearch error: %v", e.Err)
	}
	return "Elasticsearch error: " + e.Message
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// ClampLimit bounds limit to 1..RecentLimit.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > RecentLimit {
		return RecentLimit
	}
	return limit
}
