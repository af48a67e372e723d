// Package session owns client editing state: the in-memory project,
// selection, clipboard, undo/redo, and the save lifecycle. Everything
// here is synchronous and in-process except Save, which blocks on the
// persistence coordinator.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"slideforge-backend/internal/coordinator"
	"slideforge-backend/internal/document"
	"slideforge-backend/internal/logger"
	"slideforge-backend/internal/models"
)

type State string

const (
	StateUnloaded   State = "unloaded"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateDirty      State = "dirty"
	StateSaving     State = "saving"
	StateSaveFailed State = "save_failed"
)

var (
	ErrNotLoaded       = errors.New("session has no loaded project")
	ErrSaveInFlight    = errors.New("a save is already in progress")
	ErrSlideNotFound   = errors.New("slide not found")
	ErrElementNotFound = errors.New("element not found")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrEmptySelection  = errors.New("selection is empty")
	ErrEmptyClipboard  = errors.New("clipboard is empty")
)

const (
	// Undo history is linear and capped; the oldest snapshot falls off.
	maxHistoryDepth = 100
	// Pasted and duplicated elements land offset from their source.
	pasteOffset = 20.0
)

// snapshot captures everything Undo must restore.
type snapshot struct {
	project      *models.Project
	currentSlide uuid.UUID
	selection    map[uuid.UUID]bool
}

// Session is one editing context for one project. It is session-local
// throughout: undo, selection, and clipboard are never persisted or
// shared. There is no cross-session lock; two sessions saving the same
// project resolve last-write-wins at the blob layer.
type Session struct {
	mu sync.Mutex

	projectID    uuid.UUID
	state        State
	project      *models.Project
	currentSlide uuid.UUID
	selection    map[uuid.UUID]bool
	clipboard    []*models.Element

	undo []snapshot
	redo []snapshot

	// set when a mutation lands while a save is in flight, so the
	// session comes out of the save Dirty rather than Ready
	dirtiedWhileSaving bool
	lastSaveErr        error

	coord *coordinator.Coordinator
	log   *logger.Logger
	now   func() time.Time
}

func New(projectID uuid.UUID, coord *coordinator.Coordinator, log *logger.Logger) *Session {
	return &Session{
		projectID: projectID,
		state:     StateUnloaded,
		selection: map[uuid.UUID]bool{},
		coord:     coord,
		log:       log.With("component", "session", "project_id", projectID),
		now:       time.Now,
	}
}

// Load fetches and parses the project document. The session enters
// Ready on success and falls back to Unloaded on failure.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateSaving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.state = StateLoading
	s.mu.Unlock()

	text, err := s.coord.LoadDocument(ctx, s.projectID)
	if err == nil {
		var p *models.Project
		if p, err = document.Parse(text); err == nil {
			s.mu.Lock()
			s.project = p
			s.state = StateReady
			s.selection = map[uuid.UUID]bool{}
			s.clipboard = nil
			s.undo = nil
			s.redo = nil
			s.currentSlide = uuid.Nil
			if len(p.Slides) > 0 {
				s.currentSlide = p.Slides[0].ID
			}
			s.mu.Unlock()
			s.log.Info("session loaded", "slides", len(p.Slides), "elements", len(p.Elements))
			return nil
		}
	}

	s.mu.Lock()
	s.state = StateUnloaded
	s.project = nil
	s.mu.Unlock()
	return fmt.Errorf("load session: %w", err)
}

// Save serializes the in-memory project and hands the text to the
// coordinator. A second Save while one is in flight is rejected, not
// queued. On failure the session passes through SaveFailed into Dirty
// with every local mutation preserved.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	if s.state == StateSaving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}

	// Stamp a clone so a failed save leaves LastModified untouched.
	snap := s.project.Clone()
	snap.TouchLastModified(s.now())
	text, err := document.Serialize(snap)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("serialize for save: %w", err)
	}
	s.state = StateSaving
	s.dirtiedWhileSaving = false
	s.mu.Unlock()

	saveErr := s.coord.SaveDocument(ctx, s.projectID, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if saveErr != nil {
		s.state = StateSaveFailed
		s.lastSaveErr = saveErr
		// local mutations preserved; next mutation or save retries from Dirty
		s.state = StateDirty
		return fmt.Errorf("save session: %w", saveErr)
	}
	s.lastSaveErr = nil
	s.project.LastModified = snap.LastModified
	if s.dirtiedWhileSaving {
		s.dirtiedWhileSaving = false
		s.state = StateDirty
	} else {
		s.state = StateReady
	}
	return nil
}

func (s *Session) ProjectID() uuid.UUID { return s.projectID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

func (s *Session) CurrentSlide() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSlide
}

// Project returns a deep copy of the in-memory document; callers never
// see the live instance.
func (s *Session) Project() (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil, ErrNotLoaded
	}
	return s.project.Clone(), nil
}

// Snapshot serializes the current in-memory document without touching
// LastModified; meant for diff/export, not saving.
func (s *Session) Snapshot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return "", ErrNotLoaded
	}
	return document.Serialize(s.project)
}

// Undo restores the previous snapshot; the replaced state moves onto
// the redo stack. History is linear: any fresh mutation clears redo.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNotLoaded
	}
	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.captureLocked())
	s.restoreLocked(prev)
	s.markDirtyLocked()
	return nil
}

func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNotLoaded
	}
	if len(s.redo) == 0 {
		return ErrNothingToRedo
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.captureLocked())
	s.restoreLocked(next)
	s.markDirtyLocked()
	return nil
}

// mutate runs fn against the live project under the session lock,
// recording an undo snapshot first. On error the snapshot is restored
// so a failed mutation leaves no trace.
func (s *Session) mutate(fn func(p *models.Project) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNotLoaded
	}
	before := s.captureLocked()
	if err := fn(s.project); err != nil {
		s.restoreLocked(before)
		return err
	}
	s.pushUndoLocked(before)
	s.markDirtyLocked()
	return nil
}

func (s *Session) captureLocked() snapshot {
	sel := make(map[uuid.UUID]bool, len(s.selection))
	for id := range s.selection {
		sel[id] = true
	}
	return snapshot{
		project:      s.project.Clone(),
		currentSlide: s.currentSlide,
		selection:    sel,
	}
}

func (s *Session) restoreLocked(snap snapshot) {
	s.project = snap.project.Clone()
	s.currentSlide = snap.currentSlide
	s.selection = make(map[uuid.UUID]bool, len(snap.selection))
	for id := range snap.selection {
		s.selection[id] = true
	}
}

func (s *Session) pushUndoLocked(snap snapshot) {
	s.undo = append(s.undo, snap)
	if len(s.undo) > maxHistoryDepth {
		s.undo = s.undo[len(s.undo)-maxHistoryDepth:]
	}
	s.redo = nil
}

func (s *Session) markDirtyLocked() {
	if s.state == StateSaving {
		s.dirtiedWhileSaving = true
		return
	}
	s.state = StateDirty
}
