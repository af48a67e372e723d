package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

type ElementType string

const (
	ElementRectangle        ElementType = "rectangle"
	ElementRoundedRectangle ElementType = "rounded_rectangle"
	ElementCircle           ElementType = "circle"
	ElementArrow            ElementType = "arrow"
	ElementText             ElementType = "text"
	ElementHotspot          ElementType = "hotspot"
	ElementImage            ElementType = "image"
)

func (t ElementType) Valid() bool {
	switch t {
	case ElementRectangle, ElementRoundedRectangle, ElementCircle,
		ElementArrow, ElementText, ElementHotspot, ElementImage:
		return true
	}
	return false
}

type InteractionType string

const (
	InteractionReveal    InteractionType = "reveal"
	InteractionSpotlight InteractionType = "spotlight"
	InteractionPanZoom   InteractionType = "panzoom"
	InteractionCenter    InteractionType = "center"
	InteractionQuiz      InteractionType = "quiz"
	InteractionNone      InteractionType = "none"
)

func (t InteractionType) Valid() bool {
	switch t {
	case InteractionReveal, InteractionSpotlight, InteractionPanZoom,
		InteractionCenter, InteractionQuiz, InteractionNone:
		return true
	}
	return false
}

type TriggerType string

const (
	TriggerHover TriggerType = "hover"
	TriggerClick TriggerType = "click"
	TriggerBoth  TriggerType = "both"
)

// Geometry is absolute canvas-space placement. Angle is degrees
// clockwise around the box center.
type Geometry struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
}

type Style struct {
	Color        string  `json:"color"`
	Outline      bool    `json:"outline"`
	OutlineWidth float64 `json:"outlineWidth,omitempty"`
	OutlineColor string  `json:"outlineColor,omitempty"`
	Shadow       bool    `json:"shadow"`
	Opacity      float64 `json:"opacity"`
}

type Interaction struct {
	Type    InteractionType `json:"type"`
	Trigger TriggerType     `json:"trigger"`
}

type TextPayload struct {
	Text      string  `json:"text"`
	Font      string  `json:"font,omitempty"`
	FontSize  float64 `json:"fontSize,omitempty"`
	FontColor string  `json:"fontColor,omitempty"`
}

type ImagePayload struct {
	ImageURL string `json:"imageUrl"`
}

// Element is a canvas object on one slide. Type tags which payload
// pointer is meaningful; validation checks the tag before payloads are
// trusted.
type Element struct {
	ID       uuid.UUID   `json:"id"`
	SlideID  uuid.UUID   `json:"slideId"`
	Nickname string      `json:"nickname,omitempty"`
	Sequence int         `json:"sequence"`
	Type     ElementType `json:"type"`
	Geometry Geometry    `json:"geometry"`
	Style    Style       `json:"style"`

	InitiallyHidden bool        `json:"initiallyHidden"`
	Interaction     Interaction `json:"interaction"`

	Timeline *Timeline     `json:"timeline,omitempty"`
	Quiz     *Quiz         `json:"quiz,omitempty"`
	Text     *TextPayload  `json:"text,omitempty"`
	Image    *ImagePayload `json:"image,omitempty"`

	Extras map[string]json.RawMessage `json:"-"`
}

func (e *Element) Clone() *Element {
	cp := *e
	if e.Timeline != nil {
		tl := *e.Timeline
		cp.Timeline = &tl
	}
	if e.Quiz != nil {
		cp.Quiz = e.Quiz.Clone()
	}
	if e.Text != nil {
		txt := *e.Text
		cp.Text = &txt
	}
	if e.Image != nil {
		img := *e.Image
		cp.Image = &img
	}
	cp.Extras = cloneExtras(e.Extras)
	return &cp
}
