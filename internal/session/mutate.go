package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"slideforge-backend/internal/models"
)

// ErrBadTransform rejects group transforms with non-positive scale.
var ErrBadTransform = errors.New("group transform scale must be positive")

// AddSlide appends a slide numbered after the current maximum. Numbers
// are never reused, so a deck that lost slides keeps its gaps.
func (s *Session) AddSlide(title string) (*models.Slide, error) {
	var created *models.Slide
	err := s.mutate(func(p *models.Project) error {
		next := 0
		for _, sl := range p.Slides {
			if sl.SlideNumber > next {
				next = sl.SlideNumber
			}
		}
		created = models.NewSlide(title, next+1)
		p.Slides = append(p.Slides, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.currentSlide == uuid.Nil {
		s.currentSlide = created.ID
	}
	s.mu.Unlock()
	return created.Clone(), nil
}

// UpdateSlide replaces the stored slide's fields. The id is immutable.
func (s *Session) UpdateSlide(upd *models.Slide) error {
	return s.mutate(func(p *models.Project) error {
		existing := p.SlideByID(upd.ID)
		if existing == nil {
			return fmt.Errorf("%w: %s", ErrSlideNotFound, upd.ID)
		}
		cp := upd.Clone()
		*existing = *cp
		return nil
	})
}

// DeleteSlide removes the slide and every element on it. Surviving
// slide numbers are not renumbered.
func (s *Session) DeleteSlide(id uuid.UUID) error {
	err := s.mutate(func(p *models.Project) error {
		idx := -1
		for i, sl := range p.Slides {
			if sl.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrSlideNotFound, id)
		}
		p.Slides = append(p.Slides[:idx], p.Slides[idx+1:]...)
		for eid, e := range p.Elements {
			if e.SlideID == id {
				delete(p.Elements, eid)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.currentSlide == id {
		s.selection = map[uuid.UUID]bool{}
		s.currentSlide = uuid.Nil
		if len(s.project.Slides) > 0 {
			s.currentSlide = s.project.Slides[0].ID
		}
	}
	s.mu.Unlock()
	return nil
}

// SetCurrentSlide is navigation, not a document mutation: it clears
// the selection and leaves the dirty flag and undo history alone.
func (s *Session) SetCurrentSlide(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNotLoaded
	}
	if s.project.SlideByID(id) == nil {
		return fmt.Errorf("%w: %s", ErrSlideNotFound, id)
	}
	if s.currentSlide != id {
		s.currentSlide = id
		s.selection = map[uuid.UUID]bool{}
	}
	return nil
}

// AddElement places el on its slide with a fresh sequence appended
// after the current maximum. A nil id gets a new one.
func (s *Session) AddElement(el *models.Element) (*models.Element, error) {
	var created *models.Element
	err := s.mutate(func(p *models.Project) error {
		if p.SlideByID(el.SlideID) == nil {
			return fmt.Errorf("%w: %s", ErrSlideNotFound, el.SlideID)
		}
		created = el.Clone()
		if created.ID == uuid.Nil {
			created.ID = uuid.New()
		}
		if _, dup := p.Elements[created.ID]; dup {
			return fmt.Errorf("element %s already exists", created.ID)
		}
		created.Sequence = p.NextElementSequence()
		p.Elements[created.ID] = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// UpdateElement replaces the stored element's fields. Sequence is kept
// from the stored element; z-order changes go through BringToFront and
// SendToBack.
func (s *Session) UpdateElement(upd *models.Element) error {
	return s.mutate(func(p *models.Project) error {
		existing, ok := p.Elements[upd.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, upd.ID)
		}
		if p.SlideByID(upd.SlideID) == nil {
			return fmt.Errorf("%w: %s", ErrSlideNotFound, upd.SlideID)
		}
		cp := upd.Clone()
		cp.Sequence = existing.Sequence
		p.Elements[upd.ID] = cp
		return nil
	})
}

// UpdateElementGeometry is the render surface's write path: a
// committed drag, resize, or rotate lands here as absolute geometry.
func (s *Session) UpdateElementGeometry(id uuid.UUID, g models.Geometry) error {
	return s.mutate(func(p *models.Project) error {
		el, ok := p.Elements[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, id)
		}
		el.Geometry = g
		return nil
	})
}

// DeleteElement removes the element, leaving a sequence gap behind.
func (s *Session) DeleteElement(id uuid.UUID) error {
	err := s.mutate(func(p *models.Project) error {
		if _, ok := p.Elements[id]; !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, id)
		}
		delete(p.Elements, id)
		return nil
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.selection, id)
	s.mu.Unlock()
	return nil
}

// Select adds an element on the current slide to the selection.
func (s *Session) Select(id uuid.UUID) error {
	return s.mutateSelection(func() error {
		el, ok := s.project.Elements[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, id)
		}
		if el.SlideID != s.currentSlide {
			return fmt.Errorf("element %s is not on the current slide", id)
		}
		s.selection[id] = true
		return nil
	})
}

func (s *Session) Deselect(id uuid.UUID) error {
	return s.mutateSelection(func() error {
		delete(s.selection, id)
		return nil
	})
}

func (s *Session) ClearSelection() error {
	return s.mutateSelection(func() error {
		s.selection = map[uuid.UUID]bool{}
		return nil
	})
}

func (s *Session) SelectedIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// mutateSelection records selection changes in the undo history like
// any other mutation.
func (s *Session) mutateSelection(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNotLoaded
	}
	before := s.captureLocked()
	if err := fn(); err != nil {
		s.restoreLocked(before)
		return err
	}
	s.pushUndoLocked(before)
	s.markDirtyLocked()
	return nil
}

// Copy deep-copies the selected elements onto the clipboard in
// stacking order. The document is untouched.
func (s *Session) Copy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNotLoaded
	}
	if len(s.selection) == 0 {
		return ErrEmptySelection
	}
	var els []*models.Element
	for id := range s.selection {
		if el, ok := s.project.Elements[id]; ok {
			els = append(els, el)
		}
	}
	sort.Slice(els, func(i, j int) bool { return els[i].Sequence < els[j].Sequence })
	s.clipboard = make([]*models.Element, len(els))
	for i, el := range els {
		s.clipboard[i] = el.Clone()
	}
	return nil
}

// Paste lands clipboard copies on the current slide: fresh ids,
// sequences appended after the current maximum in clipboard order,
// positions offset by a fixed delta, nothing aliased with the source.
// The pasted elements become the new selection.
func (s *Session) Paste() ([]*models.Element, error) {
	s.mu.Lock()
	clipboard := s.clipboard
	s.mu.Unlock()
	if len(clipboard) == 0 {
		return nil, ErrEmptyClipboard
	}
	return s.insertCopies(clipboard)
}

// Duplicate is copy+paste of the selection onto its own slide without
// touching the clipboard.
func (s *Session) Duplicate() ([]*models.Element, error) {
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if len(s.selection) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptySelection
	}
	var src []*models.Element
	for id := range s.selection {
		if el, ok := s.project.Elements[id]; ok {
			src = append(src, el.Clone())
		}
	}
	s.mu.Unlock()
	sort.Slice(src, func(i, j int) bool { return src[i].Sequence < src[j].Sequence })
	return s.insertCopies(src)
}

func (s *Session) insertCopies(src []*models.Element) ([]*models.Element, error) {
	var out []*models.Element
	err := s.mutate(func(p *models.Project) error {
		target := s.currentSlide
		if p.SlideByID(target) == nil {
			return fmt.Errorf("%w: no current slide to paste onto", ErrSlideNotFound)
		}
		seq := p.NextElementSequence()
		for _, el := range src {
			cp := el.Clone()
			cp.ID = uuid.New()
			cp.SlideID = target
			cp.Sequence = seq
			seq++
			cp.Geometry.Left += pasteOffset
			cp.Geometry.Top += pasteOffset
			p.Elements[cp.ID] = cp
			out = append(out, cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.selection = map[uuid.UUID]bool{}
	result := make([]*models.Element, len(out))
	for i, el := range out {
		s.selection[el.ID] = true
		result[i] = el.Clone()
	}
	s.mu.Unlock()
	return result, nil
}

// BringToFront gives the element the next sequence, putting it above
// everything currently drawn.
func (s *Session) BringToFront(id uuid.UUID) error {
	return s.mutate(func(p *models.Project) error {
		el, ok := p.Elements[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, id)
		}
		el.Sequence = p.NextElementSequence()
		return nil
	})
}

// SendToBack drops the element below the current minimum. Sequences
// may go to zero or below; only their order matters for stacking.
func (s *Session) SendToBack(id uuid.UUID) error {
	return s.mutate(func(p *models.Project) error {
		el, ok := p.Elements[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, id)
		}
		min := el.Sequence
		for _, other := range p.Elements {
			if other.Sequence < min {
				min = other.Sequence
			}
		}
		el.Sequence = min - 1
		return nil
	})
}

// GroupTransform is the accumulated delta of a group drag/scale on the
// render surface, expressed against the selection's bounding box.
type GroupTransform struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	ScaleX  float64 `json:"scaleX"`
	ScaleY  float64 `json:"scaleY"`
}

// CommitGroupTransform bakes a group transform into each selected
// element's absolute geometry. The bounding-box delta is decomposed
// per element and the scale factor is baked into width/height, so the
// surface can reset its accumulated scale to 1 afterwards. Skipping
// the bake would compound scale across repeated edits.
func (s *Session) CommitGroupTransform(t GroupTransform) error {
	if t.ScaleX == 0 {
		t.ScaleX = 1
	}
	if t.ScaleY == 0 {
		t.ScaleY = 1
	}
	if t.ScaleX < 0 || t.ScaleY < 0 {
		return ErrBadTransform
	}
	s.mu.Lock()
	if len(s.selection) == 0 {
		s.mu.Unlock()
		return ErrEmptySelection
	}
	ids := make([]uuid.UUID, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	return s.mutate(func(p *models.Project) error {
		var members []*models.Element
		for _, id := range ids {
			el, ok := p.Elements[id]
			if !ok {
				return fmt.Errorf("%w: %s", ErrElementNotFound, id)
			}
			members = append(members, el)
		}

		// bounding box of the unrotated extents
		left, top := members[0].Geometry.Left, members[0].Geometry.Top
		for _, el := range members[1:] {
			if el.Geometry.Left < left {
				left = el.Geometry.Left
			}
			if el.Geometry.Top < top {
				top = el.Geometry.Top
			}
		}

		for _, el := range members {
			g := &el.Geometry
			g.Left = left + t.OffsetX + (g.Left-left)*t.ScaleX
			g.Top = top + t.OffsetY + (g.Top-top)*t.ScaleY
			g.Width *= t.ScaleX
			g.Height *= t.ScaleY
		}
		return nil
	})
}
