package coordinator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"slideforge-backend/internal/blobstore"
	"slideforge-backend/internal/document"
	"slideforge-backend/internal/indexstore"
	"slideforge-backend/internal/logger"
	"slideforge-backend/internal/models"
)

func newTestCoordinator() (*Coordinator, *indexstore.MemStore, *blobstore.MemStore) {
	index := indexstore.NewMemStore()
	blobs := blobstore.NewMemStore()
	return New(index, blobs, logger.NewNop()), index, blobs
}

func TestCreateProjectWritesBlobThenIndex(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()

	p, err := c.CreateProject(ctx, "Safety Training")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	row, ok := index.Row(p.ID)
	if !ok {
		t.Fatalf("no index row for new project")
	}
	if row.ProjectTitle != "Safety Training" || row.Status != string(models.StatusDraft) {
		t.Fatalf("index row fields wrong: %+v", row)
	}
	text, ok := blobs.BlobText(row.ProjectDataBlobLocator)
	if !ok {
		t.Fatalf("no blob at the locator the index references")
	}
	doc, err := document.Parse(text)
	if err != nil {
		t.Fatalf("initial blob does not parse: %v", err)
	}
	if doc.ID != p.ID || len(doc.Slides) != 0 {
		t.Fatalf("initial document wrong: %+v", doc)
	}
}

func TestCreateProjectRequiresTitle(t *testing.T) {
	c, index, _ := newTestCoordinator()
	if _, err := c.CreateProject(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty title: got %v, want ErrValidation", err)
	}
	rows, _ := index.ListRows(context.Background())
	if len(rows) != 0 {
		t.Fatalf("rejected create still touched the index")
	}
}

func TestCreateProjectBlobFailureLeavesNoIndexRow(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	blobs.FailNextWrite = errors.New("bucket unavailable")

	if _, err := c.CreateProject(context.Background(), "Doomed"); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("got %v, want ErrWriteFailed", err)
	}
	rows, _ := index.ListRows(context.Background())
	if len(rows) != 0 {
		t.Fatalf("index row exists for a project whose blob write failed")
	}
}

func TestCreateProjectIndexFailureReportsError(t *testing.T) {
	c, index, _ := newTestCoordinator()
	index.FailNextAppend = errors.New("db down")

	if _, err := c.CreateProject(context.Background(), "Half Made"); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("got %v, want ErrWriteFailed", err)
	}
	rows, _ := index.ListRows(context.Background())
	if len(rows) != 0 {
		t.Fatalf("failed append left a row behind")
	}
}

func TestSaveDocumentUpdatesBlobAndIndex(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()

	p, err := c.CreateProject(ctx, "Draft Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	before, _ := index.Row(p.ID)

	doc := p.Clone()
	doc.Title = "Renamed Deck"
	doc.Status = models.StatusActive
	doc.Slides = append(doc.Slides, models.NewSlide("Intro", 1))
	text, err := document.Serialize(doc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	if err := c.SaveDocument(ctx, p.ID, text); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	stored, _ := blobs.BlobText(before.ProjectDataBlobLocator)
	if stored != text {
		t.Fatalf("blob not overwritten at the existing locator")
	}
	after, _ := index.Row(p.ID)
	if after.ProjectTitle != "Renamed Deck" || after.Status != string(models.StatusActive) {
		t.Fatalf("index row not refreshed: %+v", after)
	}
	if !after.LastModified.After(before.LastModified) {
		t.Fatalf("LastModified did not advance: %v -> %v", before.LastModified, after.LastModified)
	}
}

func TestSaveDocumentUnknownProject(t *testing.T) {
	c, _, _ := newTestCoordinator()
	if err := c.SaveDocument(context.Background(), uuid.New(), "{}"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSaveDocumentRejectsMismatchedID(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	other := models.NewProject("Impostor")
	text, _ := document.Serialize(other)
	if err := c.SaveDocument(ctx, p.ID, text); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestSaveDocumentBlobFailureLeavesIndexUntouched(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	before, _ := index.Row(p.ID)

	text, _ := document.Serialize(p)
	blobs.FailNextWrite = errors.New("timeout")
	if err := c.SaveDocument(ctx, p.ID, text); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("got %v, want ErrWriteFailed", err)
	}
	after, _ := index.Row(p.ID)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("index row changed after a failed blob write:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestLoadDocumentReturnsSavedText(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	text, err := c.LoadDocument(ctx, p.ID)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	doc, err := document.Parse(text)
	if err != nil {
		t.Fatalf("parse loaded text: %v", err)
	}
	if doc.ID != p.ID {
		t.Fatalf("loaded wrong document")
	}
}

func TestLoadDocumentUnknownProject(t *testing.T) {
	c, _, _ := newTestCoordinator()
	if _, err := c.LoadDocument(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLoadDocumentOrphanedRow(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	row, _ := index.Row(p.ID)
	if err := blobs.DeleteContainerRecursive(ctx, row.ProjectFolderLocator); err != nil {
		t.Fatalf("delete container: %v", err)
	}
	if _, err := c.LoadDocument(ctx, p.ID); !errors.Is(err, ErrOrphaned) {
		t.Fatalf("got %v, want ErrOrphaned", err)
	}
}

func TestSetStatusRewritesDocumentAndRow(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := c.SetStatus(ctx, p.ID, models.StatusActive); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	row, _ := index.Row(p.ID)
	if row.Status != string(models.StatusActive) {
		t.Fatalf("index status not updated: %q", row.Status)
	}
	text, _ := blobs.BlobText(row.ProjectDataBlobLocator)
	doc, err := document.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Status != models.StatusActive {
		t.Fatalf("blob status not updated: %q", doc.Status)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	c, _, _ := newTestCoordinator()
	if err := c.SetStatus(context.Background(), uuid.New(), "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("got %v, want ErrInvalidStatus", err)
	}
}

func TestSetStatusBlobFailureLeavesRowByteForByte(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	before, _ := index.Row(p.ID)

	blobs.FailNextWrite = errors.New("timeout")
	if err := c.SetStatus(ctx, p.ID, models.StatusActive); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("got %v, want ErrWriteFailed", err)
	}
	after, _ := index.Row(p.ID)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("index row changed after aborted status update:\nbefore %+v\nafter  %+v", before, after)
	}

	blobs.FailNextRead = errors.New("timeout")
	if err := c.SetStatus(ctx, p.ID, models.StatusActive); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("got %v, want ErrWriteFailed", err)
	}
	after, _ = index.Row(p.ID)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("index row changed after failed blob read")
	}
}

func TestDeleteProjectIsIdempotent(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	row, _ := index.Row(p.ID)

	res, err := c.DeleteProject(ctx, p.ID)
	if err != nil || res.Warning != "" {
		t.Fatalf("first delete: res=%+v err=%v", res, err)
	}
	if _, ok := index.Row(p.ID); ok {
		t.Fatalf("index row survived delete")
	}
	if _, ok := blobs.BlobText(row.ProjectDataBlobLocator); ok {
		t.Fatalf("blob survived delete")
	}

	res, err = c.DeleteProject(ctx, p.ID)
	if err != nil || res.Warning != "" {
		t.Fatalf("second delete should be a clean no-op: res=%+v err=%v", res, err)
	}
}

func TestDeleteProjectBlobFailureIsWarningNotError(t *testing.T) {
	c, index, blobs := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	blobs.FailNextDelete = errors.New("permission denied")

	res, err := c.DeleteProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("delete reported failure despite index row removal: %v", err)
	}
	if res.Warning == "" {
		t.Fatalf("blob cleanup failure not surfaced as a warning")
	}
	if _, ok := index.Row(p.ID); ok {
		t.Fatalf("index row survived partial delete")
	}
}

func TestLastWriteWins(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()
	p, err := c.CreateProject(ctx, "Deck")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	first := p.Clone()
	first.Title = "First Writer"
	textA, _ := document.Serialize(first)
	second := p.Clone()
	second.Title = "Second Writer"
	textB, _ := document.Serialize(second)

	if err := c.SaveDocument(ctx, p.ID, textA); err != nil {
		t.Fatalf("save A: %v", err)
	}
	if err := c.SaveDocument(ctx, p.ID, textB); err != nil {
		t.Fatalf("save B: %v", err)
	}
	loaded, err := c.LoadDocument(ctx, p.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != textB {
		t.Fatalf("later save did not win")
	}
}

func TestListProjectsOrderedByLastModified(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()
	a, err := c.CreateProject(ctx, "Older")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := c.CreateProject(ctx, "Newer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// touch a so it becomes the most recent
	text, _ := c.LoadDocument(ctx, a.ID)
	if err := c.SaveDocument(ctx, a.ID, text); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := c.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ProjectID != a.ID || rows[1].ProjectID != b.ID {
		t.Fatalf("rows not ordered most recent first: %v then %v", rows[0].ProjectID, rows[1].ProjectID)
	}
}

// End-to-end pass through the document layer: create, enrich, save,
// reload, and check the content came back intact.
func TestCreateSaveReloadScenario(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	p, err := c.CreateProject(ctx, "Walkthrough")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	doc := p.Clone()
	slide := models.NewSlide("Step One", 1)
	doc.Slides = append(doc.Slides, slide)
	rect := &models.Element{
		ID:          uuid.New(),
		SlideID:     slide.ID,
		Sequence:    doc.NextElementSequence(),
		Type:        models.ElementRectangle,
		Geometry:    models.Geometry{Left: 100, Top: 100, Width: 100, Height: 60},
		Style:       models.Style{Color: "#ff0000", Opacity: 100},
		Interaction: models.Interaction{Type: models.InteractionNone},
	}
	doc.Elements[rect.ID] = rect

	text, err := document.Serialize(doc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if err := c.SaveDocument(ctx, p.ID, text); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloadedText, err := c.LoadDocument(ctx, p.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reloaded, err := document.Parse(reloadedText)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(reloaded.Slides) != 1 || reloaded.Slides[0].ID != slide.ID {
		t.Fatalf("slide lost on reload")
	}
	got, ok := reloaded.Elements[rect.ID]
	if !ok {
		t.Fatalf("element lost on reload")
	}
	if got.Geometry != rect.Geometry {
		t.Fatalf("geometry changed: got %+v, want %+v", got.Geometry, rect.Geometry)
	}
}
