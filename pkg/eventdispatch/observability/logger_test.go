package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records as JSON lines.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, len(h.attrs)+len(attrs)),
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testHandler) getLastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds dispatcher name", func(t *testing.T) {
		h := newTestHandler()
		enriched := EnrichLogger(slog.New(h), "orders")
		enriched.Info("test message")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "orders", record["dispatcher"])
		assert.Equal(t, "test message", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "orders"))
	})
}

func TestLogListenerAdded(t *testing.T) {
	h := newTestHandler()
	LogListenerAdded(slog.New(h), "audit", 3)

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "listener added", record["msg"])
	assert.Equal(t, "audit", record["listener_key"])
	assert.Equal(t, float64(3), record["replayed"]) // JSON decodes ints as float64
}

func TestLogListenerRejected(t *testing.T) {
	h := newTestHandler()
	LogListenerRejected(slog.New(h), "audit")

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "audit", record["listener_key"])
}

func TestLogDispatch(t *testing.T) {
	h := newTestHandler()
	LogDispatch(slog.New(h), "order-7", 2, true, 1.5)

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "event dispatched", record["msg"])
	assert.Equal(t, "order-7", record["event_key"])
	assert.Equal(t, float64(2), record["listeners"])
	assert.Equal(t, true, record["retained"])
	assert.Equal(t, 1.5, record["duration_ms"])
}

func TestLogDeliveryFailure(t *testing.T) {
	h := newTestHandler()
	LogDeliveryFailure(slog.New(h), "audit", true, errors.New("boom"))

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "listener failed", record["msg"])
	assert.Equal(t, "audit", record["listener_key"])
	assert.Equal(t, true, record["replay"])
	assert.Equal(t, "boom", record["error"])
}

func TestLogHandlerPanic(t *testing.T) {
	h := newTestHandler()
	LogHandlerPanic(slog.New(h), "audit", "handler exploded")

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "handler exploded", record["panic"])
}

func TestLogHelpers_NilLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		LogListenerAdded(nil, "k", 0)
		LogListenerRejected(nil, "k")
		LogListenerRemoved(nil, "k")
		LogDispatch(nil, "e", 0, false, 0)
		LogEventRemoved(nil, "e", false)
		LogDeliveryFailure(nil, "k", false, errors.New("x"))
		LogHandlerPanic(nil, "k", "x")
		LogJournalError(nil, "append", errors.New("x"))
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	assert.GreaterOrEqual(t, done(), float64(0))
}
