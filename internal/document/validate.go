package document

import (
	"fmt"

	"github.com/google/uuid"

	"slideforge-backend/internal/models"
)

// Violation is a single invariant breach found by Validate. Validation
// reports; it never discards or repairs data.
type Violation struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	EntityID string `json:"entityId,omitempty"`
}

const (
	CodeDuplicateSlideID  = "duplicate_slide_id"
	CodeOrphanElement     = "orphan_element"
	CodeInvalidStatus     = "invalid_status"
	CodeInvalidType       = "invalid_type"
	CodeInvalidMedia      = "invalid_media"
	CodeOpacityRange      = "opacity_out_of_range"
	CodeNegativeExtent    = "negative_extent"
	CodeInvertedTimeline  = "inverted_timeline"
	CodeNegativeTime      = "negative_time"
	CodeTooManyIncorrect  = "too_many_incorrect_answers"
	CodePayloadMismatch   = "payload_mismatch"
	CodeInvalidInteraction = "invalid_interaction"
)

func violation(code, entityID, format string, args ...any) Violation {
	return Violation{Code: code, EntityID: entityID, Message: fmt.Sprintf(format, args...)}
}

// Validate checks a project against the document invariants and
// returns every breach it finds.
func Validate(p *models.Project) []Violation {
	var vs []Violation

	if !p.Status.Valid() {
		vs = append(vs, violation(CodeInvalidStatus, p.ID.String(),
			"unknown project status %q", p.Status))
	}

	slideIDs := map[uuid.UUID]bool{}
	for _, s := range p.Slides {
		if slideIDs[s.ID] {
			vs = append(vs, violation(CodeDuplicateSlideID, s.ID.String(),
				"slide id %s appears more than once", s.ID))
		}
		slideIDs[s.ID] = true
		if !s.Background.FileType.Valid() {
			vs = append(vs, violation(CodeInvalidMedia, s.ID.String(),
				"unknown background media type %q", s.Background.FileType))
		}
	}

	for _, e := range p.SortedElements() {
		id := e.ID.String()
		if !slideIDs[e.SlideID] {
			vs = append(vs, violation(CodeOrphanElement, id,
				"element references missing slide %s", e.SlideID))
		}
		if !e.Type.Valid() {
			vs = append(vs, violation(CodeInvalidType, id,
				"unknown element type %q", e.Type))
		}
		if !e.Interaction.Type.Valid() {
			vs = append(vs, violation(CodeInvalidInteraction, id,
				"unknown interaction type %q", e.Interaction.Type))
		}
		if e.Style.Opacity < 0 || e.Style.Opacity > 100 {
			vs = append(vs, violation(CodeOpacityRange, id,
				"opacity %v outside 0-100", e.Style.Opacity))
		}
		if e.Geometry.Width < 0 || e.Geometry.Height < 0 {
			vs = append(vs, violation(CodeNegativeExtent, id,
				"negative width/height (%v x %v)", e.Geometry.Width, e.Geometry.Height))
		}
		if tl := e.Timeline; tl != nil {
			if tl.StartTime < 0 || tl.EndTime < 0 {
				vs = append(vs, violation(CodeNegativeTime, id,
					"timeline times must be non-negative"))
			}
			if tl.EndTime < tl.StartTime {
				vs = append(vs, violation(CodeInvertedTimeline, id,
					"timeline ends at %v before it starts at %v", tl.EndTime, tl.StartTime))
			}
		}
		if q := e.Quiz; q != nil && len(q.IncorrectAnswers) > 3 {
			vs = append(vs, violation(CodeTooManyIncorrect, id,
				"%d incorrect answers, at most 3 allowed", len(q.IncorrectAnswers)))
		}
		// payloads are only trusted behind their tag
		if e.Text != nil && e.Type != models.ElementText {
			vs = append(vs, violation(CodePayloadMismatch, id,
				"text payload on %q element", e.Type))
		}
		if e.Image != nil && e.Type != models.ElementImage {
			vs = append(vs, violation(CodePayloadMismatch, id,
				"image payload on %q element", e.Type))
		}
	}

	return vs
}
