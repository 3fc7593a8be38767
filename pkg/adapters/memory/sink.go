package memory

import (
	"context"
	"sync"
)

// Sink implements ports.ResultSink by recording accepted ISBNs.
type Sink struct {
	mu       sync.Mutex
	accepted []string
	err      error
}

// NewSink creates an empty recording sink.
func NewSink() *Sink {
	return &Sink{}
}

// FailWith makes later Accept calls record the ISBN and return err.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Accept records the ISBN.
func (s *Sink) Accept(ctx context.Context, isbn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted = append(s.accepted, isbn)
	return s.err
}

// Accepted returns every ISBN received, in order.
func (s *Sink) Accepted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.accepted...)
}
