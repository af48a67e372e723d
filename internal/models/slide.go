package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaNone  MediaType = "none"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaImage, MediaVideo, MediaAudio, MediaNone:
		return true
	}
	return false
}

// Background describes the slide's backdrop media, if any.
type Background struct {
	FileType MediaType `json:"fileType"`
	FileURL  string    `json:"fileUrl,omitempty"`
}

type Slide struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	Background      Background `json:"background"`
	// SlideNumber is the ordering key. Gaps after deletion are kept so
	// external references to a number stay stable.
	SlideNumber  int  `json:"slideNumber"`
	ShowControls bool `json:"showControls"`

	Extras map[string]json.RawMessage `json:"-"`
}

func NewSlide(title string, number int) *Slide {
	return &Slide{
		ID:          uuid.New(),
		Title:       title,
		SlideNumber: number,
		Background:  Background{FileType: MediaNone},
	}
}

func (s *Slide) Clone() *Slide {
	cp := *s
	cp.Extras = cloneExtras(s.Extras)
	return &cp
}
