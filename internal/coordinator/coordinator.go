// Package coordinator sequences every write and read that spans the
// index store and the blob store. No transaction covers both;
// correctness rests entirely on ordering: blobs are written before the
// index references them, and the index is never touched once a
// blob-side step has failed.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"slideforge-backend/internal/blobstore"
	"slideforge-backend/internal/document"
	"slideforge-backend/internal/indexstore"
	"slideforge-backend/internal/logger"
	"slideforge-backend/internal/models"
)

var (
	// ErrNotFound: no index row for the project.
	ErrNotFound = errors.New("project not found")
	// ErrOrphaned: index row exists but the blob is gone.
	ErrOrphaned = errors.New("project blob orphaned")
	// ErrWriteFailed: transient or permission failure in either store.
	ErrWriteFailed = errors.New("store write failed")
	// ErrInvalidStatus: status outside draft/active/inactive.
	ErrInvalidStatus = errors.New("invalid project status")
	// ErrValidation: input rejected before any store was touched.
	ErrValidation = errors.New("validation failed")
)

type Coordinator struct {
	index indexstore.Store
	blobs blobstore.Store
	log   *logger.Logger
	now   func() time.Time
}

func New(index indexstore.Store, blobs blobstore.Store, log *logger.Logger) *Coordinator {
	return &Coordinator{
		index: index,
		blobs: blobs,
		log:   log.With("component", "coordinator"),
		now:   time.Now,
	}
}

// DeleteResult reports a completed deletion. Warning is set when the
// index row was removed but blob cleanup failed; the project is gone
// either way, since the index is the authoritative existence record.
type DeleteResult struct {
	Warning string `json:"warning,omitempty"`
}

// CreateProject allocates a project: new id, empty draft document.
// Blob-first, index-second, so the index never references an unwritten
// blob. A failure after the blob write leaves a harmless orphan blob
// and reports overall failure.
func (c *Coordinator) CreateProject(ctx context.Context, title string) (*models.Project, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	p := models.NewProject(title)
	folder, err := c.blobs.CreateContainer(ctx, p.ID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: create container: %v", ErrWriteFailed, err)
	}
	p.BlobLocator = blobstore.DocumentLocator(folder)

	text, err := document.Serialize(p)
	if err != nil {
		return nil, fmt.Errorf("serialize new project: %w", err)
	}
	if err := c.blobs.WriteBlob(ctx, p.BlobLocator, text); err != nil {
		return nil, fmt.Errorf("%w: write initial blob: %v", ErrWriteFailed, err)
	}

	row := &models.ProjectIndex{
		ProjectID:              p.ID,
		ProjectTitle:           p.Title,
		ProjectFolderLocator:   folder,
		Status:                 string(p.Status),
		ProjectDataBlobLocator: p.BlobLocator,
		LastModified:           p.LastModified,
		CreatedDate:            p.CreatedAt,
		Summary:                summaryJSON(p),
	}
	if err := c.index.AppendRow(ctx, row); err != nil {
		c.log.Warn("index append failed after blob write, orphan blob left behind",
			"project_id", p.ID, "locator", p.BlobLocator, "error", err)
		return nil, fmt.Errorf("%w: append index row: %v", ErrWriteFailed, err)
	}

	c.log.Info("project created", "project_id", p.ID, "title", title)
	return p, nil
}

// SaveDocument overwrites the project's blob with text, then refreshes
// the index row. The blob is always written at the row's existing
// locator; a missing locator is a failure, never a reason to mint a
// fresh blob. Readers may see a stale index entry between the two
// writes; that window is accepted.
func (c *Coordinator) SaveDocument(ctx context.Context, id uuid.UUID, text string) error {
	row, err := c.index.ReadRow(ctx, id)
	if errors.Is(err, indexstore.ErrRowNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: read index row: %v", ErrWriteFailed, err)
	}

	p, err := document.Parse(text)
	if err != nil {
		return err
	}
	if p.ID != id {
		return fmt.Errorf("%w: document id %s does not match project %s", ErrValidation, p.ID, id)
	}

	if row.ProjectDataBlobLocator == "" {
		return fmt.Errorf("%w: index row for %s has no blob locator", ErrWriteFailed, id)
	}
	if err := c.blobs.WriteBlob(ctx, row.ProjectDataBlobLocator, text); err != nil {
		return fmt.Errorf("%w: write blob at %s: %v", ErrWriteFailed, row.ProjectDataBlobLocator, err)
	}

	row.LastModified = c.stamp(row.LastModified)
	row.Status = string(p.Status)
	row.ProjectTitle = p.Title
	row.Summary = summaryJSON(p)
	if err := c.index.UpdateRow(ctx, row); err != nil {
		c.log.Warn("index update failed after blob write, index entry is stale",
			"project_id", id, "error", err)
		return fmt.Errorf("%w: update index row: %v", ErrWriteFailed, err)
	}

	c.log.Info("document saved", "project_id", id, "bytes", len(text))
	return nil
}

// LoadDocument returns the raw canonical text for the project.
func (c *Coordinator) LoadDocument(ctx context.Context, id uuid.UUID) (string, error) {
	row, err := c.index.ReadRow(ctx, id)
	if errors.Is(err, indexstore.ErrRowNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read index row: %v", ErrWriteFailed, err)
	}

	text, err := c.blobs.ReadBlob(ctx, row.ProjectDataBlobLocator)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		c.log.Warn("index row exists but blob is missing",
			"project_id", id, "locator", row.ProjectDataBlobLocator)
		return "", fmt.Errorf("%w: %s at %s", ErrOrphaned, id, row.ProjectDataBlobLocator)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read blob: %v", ErrWriteFailed, err)
	}
	return text, nil
}

// SetStatus rewrites the document with the new status and then
// refreshes the index row. Every blob-side step runs first; if any of
// them fails the index row is left byte-for-byte unchanged.
func (c *Coordinator) SetStatus(ctx context.Context, id uuid.UUID, status models.ProjectStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	row, err := c.index.ReadRow(ctx, id)
	if errors.Is(err, indexstore.ErrRowNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: read index row: %v", ErrWriteFailed, err)
	}

	text, err := c.blobs.ReadBlob(ctx, row.ProjectDataBlobLocator)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return fmt.Errorf("%w: %s at %s", ErrOrphaned, id, row.ProjectDataBlobLocator)
	}
	if err != nil {
		return fmt.Errorf("%w: read blob: %v", ErrWriteFailed, err)
	}

	p, err := document.Parse(text)
	if err != nil {
		return err
	}
	p.Status = status
	p.TouchLastModified(c.now())

	newText, err := document.Serialize(p)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}
	if err := c.blobs.WriteBlob(ctx, row.ProjectDataBlobLocator, newText); err != nil {
		return fmt.Errorf("%w: write blob: %v", ErrWriteFailed, err)
	}

	row.Status = string(status)
	row.LastModified = p.LastModified
	row.Summary = summaryJSON(p)
	if err := c.index.UpdateRow(ctx, row); err != nil {
		c.log.Warn("index update failed after status blob write",
			"project_id", id, "error", err)
		return fmt.Errorf("%w: update index row: %v", ErrWriteFailed, err)
	}

	c.log.Info("status updated", "project_id", id, "status", status)
	return nil
}

// DeleteProject removes the index row first, then cleans up blobs
// best-effort. Deleting an absent project is an idempotent success.
func (c *Coordinator) DeleteProject(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	row, err := c.index.ReadRow(ctx, id)
	if errors.Is(err, indexstore.ErrRowNotFound) {
		return &DeleteResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read index row: %v", ErrWriteFailed, err)
	}

	if err := c.index.DeleteRow(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: delete index row: %v", ErrWriteFailed, err)
	}

	if err := c.blobs.DeleteContainerRecursive(ctx, row.ProjectFolderLocator); err != nil {
		c.log.Warn("blob cleanup failed after index delete",
			"project_id", id, "locator", row.ProjectFolderLocator, "error", err)
		return &DeleteResult{
			Warning: fmt.Sprintf("project removed but blob cleanup failed: %v", err),
		}, nil
	}

	c.log.Info("project deleted", "project_id", id)
	return &DeleteResult{}, nil
}

// ListProjects reads index rows only; no blobs are touched.
func (c *Coordinator) ListProjects(ctx context.Context) ([]models.ProjectIndex, error) {
	rows, err := c.index.ListRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list index rows: %v", ErrWriteFailed, err)
	}
	return rows, nil
}

// stamp keeps index LastModified monotonically non-decreasing.
func (c *Coordinator) stamp(prev time.Time) time.Time {
	now := c.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func summaryJSON(p *models.Project) datatypes.JSON {
	raw, err := json.Marshal(models.IndexSummary{
		SlideCount:   len(p.Slides),
		ElementCount: len(p.Elements),
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
