package sink_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/shelfscan/pkg/adapters/memory"
	"github.com/aretw0/shelfscan/pkg/adapters/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChan(t *testing.T) {
	c := sink.NewChan(1)
	ctx := context.Background()

	require.NoError(t, c.Accept(ctx, "9780142437230"))
	assert.ErrorIs(t, c.Accept(ctx, "080442957X"), sink.ErrFull, "a full buffer never blocks")
	assert.Equal(t, "9780142437230", <-c.C())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, c.Accept(cancelled, "080442957X"), context.Canceled)
}

func TestMulti(t *testing.T) {
	a, b := memory.NewSink(), memory.NewSink()
	a.FailWith(errors.New("offline"))

	err := sink.Multi(a, b).Accept(context.Background(), "9780142437230")
	assert.ErrorContains(t, err, "offline")
	assert.Equal(t, []string{"9780142437230"}, a.Accepted())
	assert.Equal(t, []string{"9780142437230"}, b.Accepted(), "later sinks still receive the detection")
}

func TestWriter(t *testing.T) {
	var plain bytes.Buffer
	require.NoError(t, sink.NewWriter(&plain).Accept(context.Background(), "080442957X"))
	assert.Equal(t, "080442957X\n", plain.String())

	var jsonl bytes.Buffer
	w := sink.NewJSONWriter(&jsonl)
	require.NoError(t, w.Accept(context.Background(), "9780142437230"))
	require.NoError(t, w.Accept(context.Background(), "0142437239"))

	dec := json.NewDecoder(&jsonl)
	var got []string
	for dec.More() {
		var v struct {
			ISBN string `json:"isbn"`
		}
		require.NoError(t, dec.Decode(&v))
		got = append(got, v.ISBN)
	}
	assert.Equal(t, []string{"9780142437230", "0142437239"}, got)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	require.NoError(t, sink.NewLog(logger).Accept(context.Background(), "9780142437230"))
	assert.Contains(t, buf.String(), "isbn=9780142437230")
}
