package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	StatusDraft    ProjectStatus = "draft"
	StatusActive   ProjectStatus = "active"
	StatusInactive ProjectStatus = "inactive"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive:
		return true
	}
	return false
}

// Project is the full in-memory document: an ordered slide deck plus a
// project-wide element set keyed by element id. Elements are not nested
// inside slides so that z-order sequence numbering spans the whole deck.
type Project struct {
	ID           uuid.UUID              `json:"id"`
	Title        string                 `json:"title"`
	Status       ProjectStatus          `json:"status"`
	CreatedAt    time.Time              `json:"createdAt"`
	LastModified time.Time              `json:"lastModified"`
	BlobLocator  string                 `json:"blobLocator,omitempty"`
	Slides       []*Slide               `json:"-"`
	Elements     map[uuid.UUID]*Element `json:"-"`

	// Extras holds unknown top-level fields so older servers can carry
	// documents written by newer clients without dropping anything.
	Extras map[string]json.RawMessage `json:"-"`
}

func NewProject(title string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:           uuid.New(),
		Title:        title,
		Status:       StatusDraft,
		CreatedAt:    now,
		LastModified: now,
		Slides:       []*Slide{},
		Elements:     map[uuid.UUID]*Element{},
	}
}

func (p *Project) SlideByID(id uuid.UUID) *Slide {
	for _, s := range p.Slides {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ElementsOnSlide returns the slide's elements in stacking order
// (ascending sequence, element id as tiebreak).
func (p *Project) ElementsOnSlide(slideID uuid.UUID) []*Element {
	var els []*Element
	for _, e := range p.Elements {
		if e.SlideID == slideID {
			els = append(els, e)
		}
	}
	sort.Slice(els, func(i, j int) bool {
		if els[i].Sequence != els[j].Sequence {
			return els[i].Sequence < els[j].Sequence
		}
		return els[i].ID.String() < els[j].ID.String()
	})
	return els
}

// SortedElements returns every element ordered by sequence then id.
// This is the canonical serialization order.
func (p *Project) SortedElements() []*Element {
	els := make([]*Element, 0, len(p.Elements))
	for _, e := range p.Elements {
		els = append(els, e)
	}
	sort.Slice(els, func(i, j int) bool {
		if els[i].Sequence != els[j].Sequence {
			return els[i].Sequence < els[j].Sequence
		}
		return els[i].ID.String() < els[j].ID.String()
	})
	return els
}

func (p *Project) MaxSequence() int {
	max := 0
	for _, e := range p.Elements {
		if e.Sequence > max {
			max = e.Sequence
		}
	}
	return max
}

// NextElementSequence is max(existing sequence, default 0) + 1. Deleted
// elements leave gaps; sequences are never renumbered.
func (p *Project) NextElementSequence() int {
	return p.MaxSequence() + 1
}

// TouchLastModified bumps LastModified to now while keeping it
// monotonically non-decreasing even against clock skew.
func (p *Project) TouchLastModified(now time.Time) {
	now = now.UTC()
	if !now.After(p.LastModified) {
		now = p.LastModified.Add(time.Millisecond)
	}
	p.LastModified = now
}

// Clone returns a deep copy sharing no sub-objects with the original.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Slides = make([]*Slide, len(p.Slides))
	for i, s := range p.Slides {
		cp.Slides[i] = s.Clone()
	}
	cp.Elements = make(map[uuid.UUID]*Element, len(p.Elements))
	for id, e := range p.Elements {
		cp.Elements[id] = e.Clone()
	}
	cp.Extras = cloneExtras(p.Extras)
	return &cp
}

func cloneExtras(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
