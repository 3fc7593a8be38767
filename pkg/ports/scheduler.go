package ports

// CancelFunc withdraws a pending frame request. Calling it after the
// callback has run, or twice, is a no-op.
type CancelFunc func()

// FrameScheduler is a cooperative per-frame scheduler.
// RequestFrame arranges for fn to run once on the next tick; a new request is
// only made from inside fn, so callbacks never overlap.
type FrameScheduler interface {
	RequestFrame(fn func()) CancelFunc
}
