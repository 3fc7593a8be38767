// Package sink provides ports.ResultSink implementations for hosts that
// consume detections in-process.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/shelfscan/pkg/ports"
)

// ErrFull is returned by Chan when the buffer cannot take another detection.
var ErrFull = errors.New("result sink buffer full")

// Func adapts a function to ports.ResultSink.
type Func func(ctx context.Context, isbn string) error

// Accept calls f(ctx, isbn).
func (f Func) Accept(ctx context.Context, isbn string) error {
	return f(ctx, isbn)
}

// Chan delivers detections on a buffered channel. Accept never blocks the
// scan loop: when the buffer is full the detection is rejected with ErrFull.
type Chan struct {
	ch chan string
}

// NewChan creates a channel sink with the given buffer size (minimum 1).
func NewChan(buffer int) *Chan {
	if buffer < 1 {
		buffer = 1
	}
	return &Chan{ch: make(chan string, buffer)}
}

// C returns the receive side.
func (c *Chan) C() <-chan string {
	return c.ch
}

// Accept enqueues the ISBN.
func (c *Chan) Accept(ctx context.Context, isbn string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case c.ch <- isbn:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s", ErrFull, isbn)
	}
}

// Log records detections in a structured log.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging sink.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Accept logs the ISBN.
func (l *Log) Accept(ctx context.Context, isbn string) error {
	l.logger.InfoContext(ctx, "isbn captured", "isbn", isbn)
	return nil
}

// Multi fans a detection out to every sink. All sinks are called even when
// some fail; the errors are joined.
func Multi(sinks ...ports.ResultSink) ports.ResultSink {
	return Func(func(ctx context.Context, isbn string) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Accept(ctx, isbn); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Writer prints each detection on its own line, as plain text or as a JSON
// object (JSON Lines).
type Writer struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
	now  func() time.Time
}

// NewWriter creates a plain text writer sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// NewJSONWriter creates a JSON Lines writer sink.
func NewJSONWriter(w io.Writer) *Writer {
	return &Writer{w: w, json: true, now: time.Now}
}

type line struct {
	ISBN       string    `json:"isbn"`
	DetectedAt time.Time `json:"detected_at"`
}

// Accept writes the ISBN.
func (s *Writer) Accept(ctx context.Context, isbn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.json {
		_, err := fmt.Fprintln(s.w, isbn)
		return err
	}
	return json.NewEncoder(s.w).Encode(line{ISBN: isbn, DetectedAt: s.now().UTC()})
}
