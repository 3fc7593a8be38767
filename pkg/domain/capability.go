package domain

// Constraints expresses the capture request. Every field is a hint;
// camera selection policy belongs to the media-capture collaborator.
type Constraints struct {
	FacingMode  string  `json:"facing_mode,omitempty" yaml:"facing_mode"`
	Width       int     `json:"width,omitempty" yaml:"width"`
	Height      int     `json:"height,omitempty" yaml:"height"`
	AspectRatio float64 `json:"aspect_ratio,omitempty" yaml:"aspect_ratio"`
	FocusMode   string  `json:"focus_mode,omitempty" yaml:"focus_mode"`
	Audio       bool    `json:"audio" yaml:"audio"`
}

// DefaultConstraints returns the rear-facing, ~1280x720, video-only request.
func DefaultConstraints() Constraints {
	return Constraints{
		FacingMode:  DefaultFacingMode,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		AspectRatio: DefaultAspectRatio,
		FocusMode:   DefaultFocusMode,
		Audio:       false,
	}
}

// TrackConstraints are applied to a live track. Nil fields are left untouched.
type TrackConstraints struct {
	Torch *bool    `json:"torch,omitempty"`
	Zoom  *float64 `json:"zoom,omitempty"`
}

// Range is a numeric capability range.
type Range struct {
	Min  float64 `json:"min" mapstructure:"min"`
	Max  float64 `json:"max" mapstructure:"max"`
	Step float64 `json:"step,omitempty" mapstructure:"step"`
}

// CapabilitySet is the hardware controls exposed by the active track.
// Every field is optional: absence means the control is not available.
type CapabilitySet struct {
	Torch      bool     `json:"torch" mapstructure:"torch"`
	FocusModes []string `json:"focus_modes,omitempty" mapstructure:"focusMode"`
	Zoom       *Range   `json:"zoom,omitempty" mapstructure:"zoom"`
	Width      *Range   `json:"width,omitempty" mapstructure:"width"`
	Height     *Range   `json:"height,omitempty" mapstructure:"height"`
}

// SupportsTorch reports whether the torch can be switched.
func (c CapabilitySet) SupportsTorch() bool {
	return c.Torch
}
