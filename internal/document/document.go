// Package document owns the canonical text form of a project: parsing,
// serialization, and invariant validation. It performs no I/O; the
// persistence coordinator feeds it blob text and stores what it emits.
package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"slideforge-backend/internal/models"
)

// ErrParse marks malformed or incomplete document text.
var ErrParse = errors.New("document parse error")

// Known keys per entity. Anything else in the incoming JSON is carried
// through Extras and re-emitted on serialize, so documents written by
// newer clients survive a round trip here.
var (
	knownProjectKeys = keySet("id", "title", "status", "createdAt",
		"lastModified", "blobLocator", "slides", "elements")
	knownSlideKeys = keySet("id", "title", "backgroundColor",
		"background", "slideNumber", "showControls")
	knownElementKeys = keySet("id", "slideId", "nickname", "sequence",
		"type", "geometry", "style", "initiallyHidden", "interaction",
		"timeline", "quiz", "text", "image")
)

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// Parse decodes canonical document text into a Project. It fails when
// the text is not a JSON object or when the required id/title fields
// are absent; every other irregularity is left for Validate to report.
func Parse(text string) (*models.Project, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var p models.Project
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if p.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing project id", ErrParse)
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: missing project title", ErrParse)
	}

	p.Slides = []*models.Slide{}
	if rawSlides, ok := raw["slides"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(rawSlides, &items); err != nil {
			return nil, fmt.Errorf("%w: slides: %v", ErrParse, err)
		}
		for i, item := range items {
			s, err := parseSlide(item)
			if err != nil {
				return nil, fmt.Errorf("%w: slide %d: %v", ErrParse, i, err)
			}
			p.Slides = append(p.Slides, s)
		}
	}

	p.Elements = map[uuid.UUID]*models.Element{}
	if rawElements, ok := raw["elements"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(rawElements, &items); err != nil {
			return nil, fmt.Errorf("%w: elements: %v", ErrParse, err)
		}
		for i, item := range items {
			e, err := parseElement(item)
			if err != nil {
				return nil, fmt.Errorf("%w: element %d: %v", ErrParse, i, err)
			}
			if _, dup := p.Elements[e.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate element id %s", ErrParse, e.ID)
			}
			p.Elements[e.ID] = e
		}
	}

	p.Extras = extrasOf(raw, knownProjectKeys)
	return &p, nil
}

func parseSlide(raw json.RawMessage) (*models.Slide, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	var s models.Slide
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, errors.New("missing slide id")
	}
	s.Extras = extrasOf(m, knownSlideKeys)
	return &s, nil
}

func parseElement(raw json.RawMessage) (*models.Element, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	var e models.Element
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		return nil, errors.New("missing element id")
	}
	e.Extras = extrasOf(m, knownElementKeys)
	return &e, nil
}

func extrasOf(m map[string]json.RawMessage, known map[string]bool) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	for k, v := range m {
		if known[k] {
			continue
		}
		if out == nil {
			out = map[string]json.RawMessage{}
		}
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Serialize emits the canonical UTF-8 text for a project. Output is
// stable: keys are sorted, elements are ordered by sequence then id,
// and unknown fields captured at parse time reappear verbatim.
// LastModified is emitted as-is; stamping it is the saver's job.
func Serialize(p *models.Project) (string, error) {
	doc, err := structToMap(p)
	if err != nil {
		return "", err
	}
	mergeExtras(doc, p.Extras)

	slides := make([]json.RawMessage, 0, len(p.Slides))
	for _, s := range p.Slides {
		raw, err := serializeSlide(s)
		if err != nil {
			return "", err
		}
		slides = append(slides, raw)
	}
	if doc["slides"], err = json.Marshal(slides); err != nil {
		return "", err
	}

	elements := make([]json.RawMessage, 0, len(p.Elements))
	for _, e := range p.SortedElements() {
		raw, err := serializeElement(e)
		if err != nil {
			return "", err
		}
		elements = append(elements, raw)
	}
	if doc["elements"], err = json.Marshal(elements); err != nil {
		return "", err
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func serializeSlide(s *models.Slide) (json.RawMessage, error) {
	m, err := structToMap(s)
	if err != nil {
		return nil, err
	}
	mergeExtras(m, s.Extras)
	return json.Marshal(m)
}

func serializeElement(e *models.Element) (json.RawMessage, error) {
	m, err := structToMap(e)
	if err != nil {
		return nil, err
	}
	mergeExtras(m, e.Extras)
	return json.Marshal(m)
}

func structToMap(v any) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// known fields win over stale extras of the same name
func mergeExtras(m map[string]json.RawMessage, extras map[string]json.RawMessage) {
	for k, v := range extras {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
}
