package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildSpansAttachToParent(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "req-1")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, child := StartChildSpan(ctx, "index-file")
			child.SetAttr("n", i)
			child.End()
		}()
	}
	wg.Wait()
	root.End()

	children := root.Children()
	require.Len(t, children, 4)
	for _, c := range children {
		assert.Equal(t, "req-1", c.TraceID())
		assert.True(t, c.Ended())
	}
	assert.Same(t, root, SpanFromContext(ctx))
}

func TestEndKeepsFirstStamp(t *testing.T) {
	_, s := StartSpan(context.Background(), "search", "t")
	s.End()
	d := s.Duration()
	s.End()
	assert.Equal(t, d, s.Duration())
}

func TestOrphanChildAndFail(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "lonely")
	assert.Empty(t, span.TraceID())

	span.Fail(nil)
	_, ok := span.Attr("error")
	assert.False(t, ok)

	span.Fail(errors.New("boom"))
	span.Fail(errors.New("boom again"))
	v, ok := span.Attr("error")
	require.True(t, ok)
	assert.Equal(t, "boom again", v)
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestLogWritesTreeAtDebug(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx, root := StartSpan(context.Background(), "search", "req-9")
	_, child := StartChildSpan(ctx, "index-file")
	child.SetAttr("path", "a.idx")
	child.End()
	root.End()
	root.Log(ctx)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=search")
	assert.Contains(t, lines[0], "depth=0")
	assert.Contains(t, lines[1], "span=index-file")
	assert.Contains(t, lines[1], "path=a.idx")
	assert.Contains(t, lines[1], "trace_id=req-9")
}
