package models

// Timeline schedules an element's appearance during slide playback.
// All times are seconds from the start of the slide.
type Timeline struct {
	StartTime       float64 `json:"startTime"`
	EndTime         float64 `json:"endTime"`
	PauseAt         float64 `json:"pauseAt,omitempty"`
	ShowForDuration float64 `json:"showForDuration,omitempty"`
	AnimationIn     string  `json:"animationIn,omitempty"`
	AnimationOut    string  `json:"animationOut,omitempty"`
}
