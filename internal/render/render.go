// Package render is the thin adapter between the document and a
// canvas surface. Model to surface is only ever a full rebuild; the
// surface writes back through ApplyTransform, never the other way
// around, so no feedback loop can form.
package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"slideforge-backend/internal/models"
	"slideforge-backend/internal/session"
)

var ErrNotInScene = errors.New("element not in scene")

// Renderable is one drawable object. ElementID is the back-reference
// used for hit-testing and for correlating viewer interaction triggers
// with the document.
type Renderable struct {
	ElementID   uuid.UUID           `json:"elementId"`
	Type        models.ElementType  `json:"type"`
	Geometry    models.Geometry     `json:"geometry"`
	Style       models.Style        `json:"style"`
	Interaction models.Interaction  `json:"interaction"`
	ZIndex      int                 `json:"zIndex"`
	Hidden      bool                `json:"hidden"`
	Text        *models.TextPayload `json:"text,omitempty"`
	Image       *models.ImagePayload `json:"image,omitempty"`
}

// TransformDelta is a committed surface edit relative to the element's
// current geometry. Zero scales mean unchanged.
type TransformDelta struct {
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
	Rotate float64 `json:"rotate"`
}

// Binding ties one session's current slide to a renderable scene.
type Binding struct {
	sess  *session.Session
	scene []*Renderable
}

func NewBinding(sess *session.Session) *Binding {
	return &Binding{sess: sess}
}

// Rebuild replaces the whole scene from the session's current slide:
// elements in stacking order, z-index assigned from position.
func (b *Binding) Rebuild() error {
	p, err := b.sess.Project()
	if err != nil {
		return err
	}
	slideID := b.sess.CurrentSlide()
	els := p.ElementsOnSlide(slideID)
	scene := make([]*Renderable, 0, len(els))
	for i, el := range els {
		scene = append(scene, &Renderable{
			ElementID:   el.ID,
			Type:        el.Type,
			Geometry:    el.Geometry,
			Style:       el.Style,
			Interaction: el.Interaction,
			ZIndex:      i,
			Hidden:      el.InitiallyHidden,
			Text:        el.Text,
			Image:       el.Image,
		})
	}
	b.scene = scene
	return nil
}

// Scene returns the renderables in draw order (back to front).
func (b *Binding) Scene() []*Renderable {
	return b.scene
}

// ApplyTransform commits a drag/resize/rotate from the surface into
// the element's absolute geometry. The write goes through the session,
// so it marks the session dirty and lands in the undo history.
func (b *Binding) ApplyTransform(elementID uuid.UUID, delta TransformDelta) error {
	var current *Renderable
	for _, r := range b.scene {
		if r.ElementID == elementID {
			current = r
			break
		}
	}
	if current == nil {
		return fmt.Errorf("%w: %s", ErrNotInScene, elementID)
	}

	g := current.Geometry
	g.Left += delta.DX
	g.Top += delta.DY
	if delta.ScaleX > 0 {
		g.Width *= delta.ScaleX
	}
	if delta.ScaleY > 0 {
		g.Height *= delta.ScaleY
	}
	g.Angle = normalizeAngle(g.Angle + delta.Rotate)

	if err := b.sess.UpdateElementGeometry(elementID, g); err != nil {
		return err
	}
	current.Geometry = g
	return nil
}

// HitTest returns the topmost visible renderable containing the
// canvas-space point, honoring rotation. Nil when nothing is hit.
func (b *Binding) HitTest(x, y float64) *Renderable {
	for i := len(b.scene) - 1; i >= 0; i-- {
		r := b.scene[i]
		if r.Hidden {
			continue
		}
		if contains(r.Geometry, x, y) {
			return r
		}
	}
	return nil
}

// TriggerAt resolves a viewer hover/click against the scene: the
// topmost visible renderable at the point whose interaction descriptor
// accepts the trigger.
func (b *Binding) TriggerAt(x, y float64, trigger models.TriggerType) *Renderable {
	for i := len(b.scene) - 1; i >= 0; i-- {
		r := b.scene[i]
		if r.Hidden || r.Interaction.Type == models.InteractionNone {
			continue
		}
		if !accepts(r.Interaction.Trigger, trigger) {
			continue
		}
		if contains(r.Geometry, x, y) {
			return r
		}
	}
	return nil
}

func accepts(configured, fired models.TriggerType) bool {
	return configured == models.TriggerBoth || configured == fired
}

// contains rotates the point into the element's local frame before the
// box check.
func contains(g models.Geometry, x, y float64) bool {
	cx := g.Left + g.Width/2
	cy := g.Top + g.Height/2
	rad := -g.Angle * math.Pi / 180
	dx := x - cx
	dy := y - cy
	lx := dx*math.Cos(rad) - dy*math.Sin(rad)
	ly := dx*math.Sin(rad) + dy*math.Cos(rad)
	return math.Abs(lx) <= g.Width/2 && math.Abs(ly) <= g.Height/2
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
