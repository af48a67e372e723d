package render

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"slideforge-backend/internal/blobstore"
	"slideforge-backend/internal/coordinator"
	"slideforge-backend/internal/indexstore"
	"slideforge-backend/internal/logger"
	"slideforge-backend/internal/models"
	"slideforge-backend/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	coord := coordinator.New(indexstore.NewMemStore(), blobstore.NewMemStore(), logger.NewNop())
	p, err := coord.CreateProject(context.Background(), "Render Test")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	sess := session.New(p.ID, coord, logger.NewNop())
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return sess
}

func addElement(t *testing.T, sess *session.Session, el *models.Element) *models.Element {
	t.Helper()
	created, err := sess.AddElement(el)
	if err != nil {
		t.Fatalf("add element: %v", err)
	}
	return created
}

func sceneFixture(t *testing.T) (*session.Session, *Binding, []*models.Element) {
	t.Helper()
	sess := newTestSession(t)
	slide, err := sess.AddSlide("Canvas")
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}

	bottom := addElement(t, sess, &models.Element{
		SlideID:     slide.ID,
		Type:        models.ElementRectangle,
		Geometry:    models.Geometry{Left: 0, Top: 0, Width: 200, Height: 200},
		Style:       models.Style{Opacity: 100},
		Interaction: models.Interaction{Type: models.InteractionNone},
	})
	top := addElement(t, sess, &models.Element{
		SlideID:     slide.ID,
		Type:        models.ElementCircle,
		Geometry:    models.Geometry{Left: 50, Top: 50, Width: 100, Height: 100},
		Style:       models.Style{Opacity: 100},
		Interaction: models.Interaction{Type: models.InteractionReveal, Trigger: models.TriggerClick},
	})
	hidden := addElement(t, sess, &models.Element{
		SlideID:         slide.ID,
		Type:            models.ElementHotspot,
		Geometry:        models.Geometry{Left: 60, Top: 60, Width: 80, Height: 80},
		Style:           models.Style{Opacity: 100},
		InitiallyHidden: true,
		Interaction:     models.Interaction{Type: models.InteractionSpotlight, Trigger: models.TriggerHover},
	})

	b := NewBinding(sess)
	if err := b.Rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	return sess, b, []*models.Element{bottom, top, hidden}
}

func TestRebuildBuildsSceneInStackingOrder(t *testing.T) {
	_, b, els := sceneFixture(t)
	scene := b.Scene()
	if len(scene) != 3 {
		t.Fatalf("scene has %d renderables, want 3", len(scene))
	}
	for i, want := range els {
		if scene[i].ElementID != want.ID {
			t.Fatalf("scene[%d] is %s, want %s", i, scene[i].ElementID, want.ID)
		}
		if scene[i].ZIndex != i {
			t.Fatalf("scene[%d] z-index %d, want %d", i, scene[i].ZIndex, i)
		}
	}
	if !scene[2].Hidden {
		t.Fatalf("initially hidden element not marked hidden")
	}
}

func TestRebuildScopesToCurrentSlide(t *testing.T) {
	sess, b, _ := sceneFixture(t)
	empty, err := sess.AddSlide("Empty")
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	if err := sess.SetCurrentSlide(empty.ID); err != nil {
		t.Fatalf("set current slide: %v", err)
	}
	if err := b.Rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(b.Scene()) != 0 {
		t.Fatalf("scene carries elements from another slide")
	}
}

func TestHitTestReturnsTopmostVisible(t *testing.T) {
	_, b, els := sceneFixture(t)

	// (100,100) is inside all three, but the hidden one is skipped
	hit := b.HitTest(100, 100)
	if hit == nil || hit.ElementID != els[1].ID {
		t.Fatalf("hit the wrong element at a stacked point")
	}
	// (10,10) only touches the bottom rectangle
	hit = b.HitTest(10, 10)
	if hit == nil || hit.ElementID != els[0].ID {
		t.Fatalf("hit test missed the bottom element")
	}
	if b.HitTest(500, 500) != nil {
		t.Fatalf("hit reported outside every element")
	}
}

func TestHitTestHonorsRotation(t *testing.T) {
	sess := newTestSession(t)
	slide, err := sess.AddSlide("Canvas")
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	// a wide thin bar rotated 90 degrees becomes tall and thin
	addElement(t, sess, &models.Element{
		SlideID:     slide.ID,
		Type:        models.ElementRectangle,
		Geometry:    models.Geometry{Left: 0, Top: 90, Width: 200, Height: 20, Angle: 90},
		Style:       models.Style{Opacity: 100},
		Interaction: models.Interaction{Type: models.InteractionNone},
	})
	b := NewBinding(sess)
	if err := b.Rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// center is (100,100); the unrotated box spans x 0..200, y 90..110
	if b.HitTest(10, 100) != nil {
		t.Fatalf("hit inside the unrotated extent of a rotated element")
	}
	if b.HitTest(100, 190) == nil {
		t.Fatalf("miss inside the rotated extent")
	}
}

func TestTriggerAtMatchesConfiguredTrigger(t *testing.T) {
	_, b, els := sceneFixture(t)

	// the click-triggered circle answers clicks only
	if r := b.TriggerAt(100, 100, models.TriggerClick); r == nil || r.ElementID != els[1].ID {
		t.Fatalf("click trigger not resolved to the circle")
	}
	// hovering the same point hits nothing: the circle wants clicks, the
	// bottom rectangle has no interaction, the hotspot is hidden
	if r := b.TriggerAt(100, 100, models.TriggerHover); r != nil {
		t.Fatalf("hover resolved to %s, want nothing", r.ElementID)
	}
}

func TestTriggerBothAcceptsEitherTrigger(t *testing.T) {
	sess := newTestSession(t)
	slide, err := sess.AddSlide("Canvas")
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	el := addElement(t, sess, &models.Element{
		SlideID:     slide.ID,
		Type:        models.ElementHotspot,
		Geometry:    models.Geometry{Left: 0, Top: 0, Width: 50, Height: 50},
		Style:       models.Style{Opacity: 100},
		Interaction: models.Interaction{Type: models.InteractionQuiz, Trigger: models.TriggerBoth},
	})
	b := NewBinding(sess)
	if err := b.Rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	for _, trig := range []models.TriggerType{models.TriggerClick, models.TriggerHover} {
		if r := b.TriggerAt(25, 25, trig); r == nil || r.ElementID != el.ID {
			t.Fatalf("%q trigger not accepted by a both-configured element", trig)
		}
	}
}

func TestApplyTransformWritesThroughToModel(t *testing.T) {
	sess, b, els := sceneFixture(t)
	target := els[0]

	err := b.ApplyTransform(target.ID, TransformDelta{DX: 15, DY: -5, ScaleX: 2, Rotate: 45})
	if err != nil {
		t.Fatalf("apply transform: %v", err)
	}

	p, err := sess.Project()
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	g := p.Elements[target.ID].Geometry
	want := models.Geometry{Left: 15, Top: -5, Width: 400, Height: 200, Angle: 45}
	if g != want {
		t.Fatalf("model geometry %+v, want %+v", g, want)
	}
	// the edit lands in the session like any other mutation
	if got := sess.State(); got != session.StateDirty {
		t.Fatalf("transform did not dirty the session: %q", got)
	}
	if err := sess.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	p, _ = sess.Project()
	if p.Elements[target.ID].Geometry != target.Geometry {
		t.Fatalf("transform not undoable")
	}
}

func TestApplyTransformNormalizesAngle(t *testing.T) {
	_, b, els := sceneFixture(t)
	if err := b.ApplyTransform(els[0].ID, TransformDelta{Rotate: -90}); err != nil {
		t.Fatalf("apply transform: %v", err)
	}
	for _, r := range b.Scene() {
		if r.ElementID == els[0].ID && r.Geometry.Angle != 270 {
			t.Fatalf("angle %v, want 270", r.Geometry.Angle)
		}
	}
}

func TestApplyTransformUnknownElement(t *testing.T) {
	_, b, _ := sceneFixture(t)
	if err := b.ApplyTransform(uuid.New(), TransformDelta{DX: 1}); !errors.Is(err, ErrNotInScene) {
		t.Fatalf("got %v, want ErrNotInScene", err)
	}
}
