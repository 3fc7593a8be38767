package domain

import "errors"

// ErrCameraUnavailable is returned when the camera stream cannot be acquired
// (permission denied, or no device matches the requested constraints).
var ErrCameraUnavailable = errors.New("camera unavailable")

// ErrTorchUnsupported is returned when the active track does not expose torch control.
var ErrTorchUnsupported = errors.New("torch not supported")

// ErrDecodeTransient marks a decode attempt that failed for a reason other than
// "no symbol in frame". The scan loop logs it and keeps sampling.
var ErrDecodeTransient = errors.New("transient decode error")

// ErrInvalidTransition is returned when an operation is requested from a state that does not allow it.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrDeviceBusy is returned when another session already holds the camera device.
var ErrDeviceBusy = errors.New("camera device busy")

// ErrNoStream is returned when a frame or capability is requested without an active stream.
var ErrNoStream = errors.New("no active camera stream")
