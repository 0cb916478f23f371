// Package storage persists canonical document records. The engine's
// in-memory state can always be rebuilt from this store.
package storage

import (
	"context"
	"errors"

	"github.com/inkroot/folio/internal/models"
)

// ErrNotFound is returned when no document has the requested ID.
var ErrNotFound = errors.New("document not found")

// DocumentStore defines document persistence operations.
type DocumentStore interface {
	// SaveDocument inserts or replaces a document, keeping the original
	// creation time on replace.
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// DeleteDocument removes a document; deleting an absent ID is a no-op.
	DeleteDocument(ctx context.Context, id string) error
	// ListDocuments returns documents newest-first. A non-positive limit
	// means no limit.
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	Close() error
}
