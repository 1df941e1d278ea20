// Package storage keeps a local snapshot of the last fetched history list so
// that one-shot commands can select entries without asking the service.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/bunka/internal/models"
)

// ErrNotFound is returned when an entry is not in the snapshot.
var ErrNotFound = errors.New("entry not in local history snapshot")

// Storage persists the history snapshot.
type Storage interface {
	// SaveHistory replaces the snapshot with entries, keeping their order.
	SaveHistory(ctx context.Context, entries []models.AnalysisResult) error
	// ListHistory returns the snapshot in saved order.
	ListHistory(ctx context.Context) ([]models.AnalysisResult, error)
	GetEntry(ctx context.Context, id string) (*models.AnalysisResult, error)
	// RemoveEntry drops one entry from the snapshot, e.g. after a delete.
	RemoveEntry(ctx context.Context, id string) error
	CountEntries(ctx context.Context) (int64, error)

	Close() error
}
