// Package tracing records in-process span trees carried in a context. A
// search request opens a root span and each index file queried adds a child,
// so one debug log shows where a slow query spent its time.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type spanKey struct{}

// Span is one timed step of a trace. Its methods are safe for concurrent
// use, so sibling spans may be started from parallel goroutines.
type Span struct {
	name    string
	traceID string
	start   time.Time

	mu       sync.Mutex
	end      time.Time
	attrs    []slog.Attr
	children []*Span
}

// StartSpan opens a root span for traceID and returns a context carrying it.
func StartSpan(ctx context.Context, name, traceID string) (context.Context, *Span) {
	s := &Span{name: name, traceID: traceID, start: time.Now()}
	return context.WithValue(ctx, spanKey{}, s), s
}

// StartChildSpan opens a span under the one in ctx. Without a parent the
// span stands alone with an empty trace ID.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{name: name, start: time.Now()}
	if parent := SpanFromContext(ctx); parent != nil {
		s.traceID = parent.traceID
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

func (s *Span) Name() string    { return s.name }
func (s *Span) TraceID() string { return s.traceID }

// End stamps the end time. Later calls keep the first stamp.
func (s *Span) End() {
	s.mu.Lock()
	if s.end.IsZero() {
		s.end = time.Now()
	}
	s.mu.Unlock()
}

// Duration is the span's length, or its age so far while it is open.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.end.IsZero() {
		return time.Since(s.start)
	}
	return s.end.Sub(s.start)
}

func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.end.IsZero()
}

// SetAttr records key=value, replacing an earlier value for key.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.attrs {
		if s.attrs[i].Key == key {
			s.attrs[i].Value = slog.AnyValue(value)
			return
		}
	}
	s.attrs = append(s.attrs, slog.Any(key, value))
}

// Attr returns the value recorded for key.
func (s *Span) Attr(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attrs {
		if a.Key == key {
			return a.Value.Any(), true
		}
	}
	return nil, false
}

// Fail records err on the span; nil is ignored.
func (s *Span) Fail(err error) {
	if err != nil {
		s.SetAttr("error", err.Error())
	}
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes the tree at debug level, each span before its children.
func (s *Span) Log(ctx context.Context) {
	log := slog.Default().With("component", "trace")
	if log.Enabled(ctx, slog.LevelDebug) {
		s.log(ctx, log, 0)
	}
}

func (s *Span) log(ctx context.Context, log *slog.Logger, depth int) {
	attrs := []slog.Attr{
		slog.String("trace_id", s.traceID),
		slog.String("span", s.name),
		slog.Int64("duration_us", s.Duration().Microseconds()),
		slog.Int("depth", depth),
	}
	s.mu.Lock()
	attrs = append(attrs, s.attrs...)
	s.mu.Unlock()

	log.LogAttrs(ctx, slog.LevelDebug, "span", attrs...)
	for _, c := range s.Children() {
		c.log(ctx, log, depth+1)
	}
}
