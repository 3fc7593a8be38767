package domain

// Status is the current mode of the scan state machine.
type Status string

const (
	StatusIdle     Status = "idle"     // No camera stream
	StatusStarting Status = "starting" // Camera stream requested
	StatusReady    Status = "ready"    // Camera live, not sampling
	StatusScanning Status = "scanning" // Sampling loop running
	StatusDetected Status = "detected" // A validated ISBN was just emitted
	StatusError    Status = "error"    // Camera acquisition or scan failure (transient)
)

// Display labels handed to the status presenter.
const (
	LabelIdle          = "Idle"
	LabelStarting      = "Initializing camera..."
	LabelReady         = "Camera ready"
	LabelScanning      = "Scanning..."
	LabelDetected      = "Detected"
	LabelError         = "Camera unavailable"
	LabelDecodingStill = "Decoding still..."
	LabelNoCodeInStill = "No code in still"
)

// Label returns the human readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusIdle:
		return LabelIdle
	case StatusStarting:
		return LabelStarting
	case StatusReady:
		return LabelReady
	case StatusScanning:
		return LabelScanning
	case StatusDetected:
		return LabelDetected
	case StatusError:
		return LabelError
	}
	return string(s)
}

// transitions lists the allowed edges of the state machine.
// Any state may return to Idle (stop camera / teardown).
var transitions = map[Status][]Status{
	StatusIdle:     {StatusStarting},
	StatusStarting: {StatusReady, StatusError},
	StatusReady:    {StatusScanning, StatusDetected},
	StatusScanning: {StatusScanning, StatusDetected, StatusReady, StatusError},
	StatusDetected: {StatusReady},
	StatusError:    {StatusIdle, StatusReady},
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusIdle, StatusStarting, StatusReady, StatusScanning, StatusDetected, StatusError}
}

// Successors returns the explicit edges out of s. The implicit edge to Idle is not included.
func Successors(s Status) []Status {
	return append([]Status(nil), transitions[s]...)
}

// CanTransition reports whether the machine may move from one status to another.
func CanTransition(from, to Status) bool {
	if to == StatusIdle {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusReport is the snapshot handed to the UI/status collaborator.
type StatusReport struct {
	SessionID    string `json:"session_id,omitempty"`
	Status       Status `json:"status"`
	Label        string `json:"label"`
	LastDetected string `json:"last_detected,omitempty"`
	Torch        bool   `json:"torch"`
	ROI          *ROI   `json:"roi,omitempty"`
}

// NoticeLevel classifies a user-visible notice.
type NoticeLevel string

const (
	NoticeInfo        NoticeLevel = "info"
	NoticeSuccess     NoticeLevel = "success"
	NoticeDestructive NoticeLevel = "destructive"
)

// Notice is a transient, user-visible message (the "toast").
type Notice struct {
	Level       NoticeLevel `json:"level"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
}
