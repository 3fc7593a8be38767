/*
Package ports defines the driven ports (interfaces) of the shelfscan engine.

These interfaces decouple the scan controller from the camera hardware, the
barcode recognition library and the application consuming detections.

# Key Interfaces

  - MediaCapture / Stream / Track: the platform media-capture API.
  - Decoder: a bounded-time symbol recognizer over a frame region.
  - FrameScheduler: the cooperative per-frame callback (requestAnimationFrame).
  - ResultSink: receives each validated ISBN exactly once.
  - Presenter: receives status labels and notices for display.
  - DeviceLocker: provides exclusive, cross-process access to a camera device.
*/
package ports
