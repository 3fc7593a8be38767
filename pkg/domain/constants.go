package domain

// Default capture hints sent with every stream request.
const (
	DefaultFacingMode  = "environment"
	DefaultFocusMode   = "continuous"
	DefaultWidth       = 1280
	DefaultHeight      = 720
	DefaultAspectRatio = 1.5
)

// Default ROI fractions: 60% of the frame width and 40% of its height, centered.
const (
	DefaultROIWidthFraction  = 0.6
	DefaultROIHeightFraction = 0.4
)
