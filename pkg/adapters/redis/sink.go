package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Detection is the payload written for every accepted ISBN.
type Detection struct {
	ISBN       string    `json:"isbn"`
	DetectedAt time.Time `json:"detected_at"`
	Source     string    `json:"source,omitempty"`
}

// Sink implements ports.ResultSink by appending detections to a Redis list
// and publishing them on a channel for live consumers.
type Sink struct {
	client  *backend.Client
	prefix  string
	source  string
	maxLen  int64
	publish bool
}

// SinkOption configures the Sink.
type SinkOption func(*Sink)

// WithPrefix sets the key prefix for the list and channel.
func WithPrefix(prefix string) SinkOption {
	return func(s *Sink) {
		s.prefix = prefix
	}
}

// WithSource tags every detection with the scanning station name.
func WithSource(source string) SinkOption {
	return func(s *Sink) {
		s.source = source
	}
}

// WithMaxLen caps the list to the newest n detections. Zero keeps everything.
func WithMaxLen(n int64) SinkOption {
	return func(s *Sink) {
		s.maxLen = n
	}
}

// WithoutPublish disables the pub/sub notification.
func WithoutPublish() SinkOption {
	return func(s *Sink) {
		s.publish = false
	}
}

// NewSink creates a new Redis sink from an existing client.
func NewSink(client *backend.Client, opts ...SinkOption) *Sink {
	s := &Sink{
		client:  client,
		prefix:  "shelfscan:",
		publish: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListKey is the list detections are appended to.
func (s *Sink) ListKey() string {
	return s.prefix + "detections"
}

// Channel is the pub/sub channel detections are published on.
func (s *Sink) Channel() string {
	return s.prefix + "detections"
}

// Accept records the detection.
func (s *Sink) Accept(ctx context.Context, isbn string) error {
	data, err := json.Marshal(Detection{
		ISBN:       isbn,
		DetectedAt: time.Now().UTC(),
		Source:     s.source,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal detection: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.ListKey(), data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.ListKey(), -s.maxLen, -1)
	}
	if s.publish {
		pipe.Publish(ctx, s.Channel(), data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record detection in redis: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest detections, oldest first.
func (s *Sink) Recent(ctx context.Context, n int64) ([]Detection, error) {
	raw, err := s.client.LRange(ctx, s.ListKey(), -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}
	out := make([]Detection, 0, len(raw))
	for _, item := range raw {
		var d Detection
		if err := json.Unmarshal([]byte(item), &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal detection: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}
