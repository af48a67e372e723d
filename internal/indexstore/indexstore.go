// Package indexstore holds the tabular collaborator: one lightweight
// row per project for listing and lookup. The row is the authoritative
// existence record; the blob store holds the content.
package indexstore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"slideforge-backend/internal/models"
)

// ErrRowNotFound is returned when no row exists for the key.
var ErrRowNotFound = errors.New("index row not found")

type Store interface {
	AppendRow(ctx context.Context, row *models.ProjectIndex) error
	// FindRowByKey reports whether a row exists for the key.
	FindRowByKey(ctx context.Context, id uuid.UUID) (bool, error)
	// ReadRow returns the row, or ErrRowNotFound.
	ReadRow(ctx context.Context, id uuid.UUID) (*models.ProjectIndex, error)
	// UpdateRow overwrites an existing row; ErrRowNotFound if absent.
	UpdateRow(ctx context.Context, row *models.ProjectIndex) error
	// DeleteRow removes the row. Deleting an absent row succeeds.
	DeleteRow(ctx context.Context, id uuid.UUID) error
	ListRows(ctx context.Context) ([]models.ProjectIndex, error)
}
