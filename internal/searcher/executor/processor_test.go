package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/fileindex"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/ranker"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/metrics"
)

func TestProcessQueryMergesFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeIndexFile(t, dir, map[string]string{"x.txt": "the cat", "q.txt": "only a mouse"})
	b := writeIndexFile(t, dir, map[string]string{"y.txt": "cat and cat and dog"})

	p, err := NewProcessor([]string{a, b}, true)
	require.NoError(t, err)
	defer p.Close()
	ctx := context.Background()

	got, err := p.ProcessQuery(ctx, []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{
		{DocumentName: "y.txt", Rank: 2},
		{DocumentName: "x.txt", Rank: 1},
	}, got)

	// "dog" is absent from the first file; the second still contributes.
	got, err = p.ProcessQuery(ctx, []string{"cat", "dog"})
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{{DocumentName: "y.txt", Rank: 3}}, got)

	got, err = p.ProcessQuery(ctx, []string{"zebra"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = p.Search(ctx, []string{"cat"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{{DocumentName: "y.txt", Rank: 2}}, got)
}

func TestProcessQueryTieBreaksOnName(t *testing.T) {
	dir := t.TempDir()
	a := writeIndexFile(t, dir, map[string]string{"m.txt": "cat"})
	b := writeIndexFile(t, dir, map[string]string{"b.txt": "cat"})

	p, err := NewProcessor([]string{a, b}, false)
	require.NoError(t, err)
	defer p.Close()

	got, err := p.ProcessQuery(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{
		{DocumentName: "b.txt", Rank: 1},
		{DocumentName: "m.txt", Rank: 1},
	}, got)
}

func TestNewProcessorFailsOnBadFile(t *testing.T) {
	dir := t.TempDir()
	good := writeIndexFile(t, dir, map[string]string{"x.txt": "cat"})
	bad := filepath.Join(dir, "bad.idx")
	require.NoError(t, os.WriteFile(bad, []byte("not an index file"), 0o644))

	_, err := NewProcessor([]string{good, bad}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCorruption))

	_, err = NewProcessor(nil, true)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestProcessQuerySkipsFailingFile(t *testing.T) {
	dir := t.TempDir()
	a := writeIndexFile(t, dir, map[string]string{"x.txt": "cat"})
	b := writeIndexFile(t, dir, map[string]string{"y.txt": "cat"})

	p, err := NewProcessor([]string{a, b}, false)
	require.NoError(t, err)
	defer p.Close()

	// Break the second file's handles so every read fails.
	p.files[1].words.Close()

	got, err := p.ProcessQuery(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{{DocumentName: "x.txt", Rank: 1}}, got)
}

func TestAddFileAndClose(t *testing.T) {
	dir := t.TempDir()
	a := writeIndexFile(t, dir, map[string]string{"x.txt": "cat"})
	b := writeIndexFile(t, dir, map[string]string{"y.txt": "cat"})

	p, err := NewProcessor([]string{a}, true)
	require.NoError(t, err)
	require.NoError(t, p.AddFile(b, true))
	assert.Equal(t, []string{a, b}, p.Files())
	assert.True(t, errors.Is(p.AddFile(b, true), apperrors.ErrInvalidArgument))

	got, err := p.ProcessQuery(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, p.Close())
	assert.Empty(t, p.Files())
	_, err = p.ProcessQuery(context.Background(), []string{"cat"})
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
}

func TestProcessQueryRejectsEmptyQuery(t *testing.T) {
	a := writeIndexFile(t, t.TempDir(), map[string]string{"x.txt": "cat"})
	p, err := NewProcessor([]string{a}, false)
	require.NoError(t, err)
	defer p.Close()
	_, err = p.ProcessQuery(context.Background(), nil)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestProcessorRecordsMetrics(t *testing.T) {
	dir := t.TempDir()
	a := writeIndexFile(t, dir, map[string]string{"x.txt": "cat"})
	b := writeIndexFile(t, dir, map[string]string{"y.txt": "cat"})
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	p, err := NewProcessor([]string{a, b}, false, WithMetrics(m))
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IndexFilesOpen))

	p.files[0].docs.Close()
	_, err = p.ProcessQuery(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexFileErrorsTotal.WithLabelValues("io")))
}

func TestReloadFileReplacesOpenCopy(t *testing.T) {
	dir := t.TempDir()
	path := writeIndexFile(t, dir, map[string]string{"x.txt": "cat"})
	p, err := NewProcessor([]string{path}, true)
	require.NoError(t, err)
	defer p.Close()

	dt, mi := buildIndex(t, map[string]string{"x.txt": "cat", "z.txt": "dog dog"})
	_, err = fileindex.NewWriter().WriteIndex(mi, dt, path)
	require.NoError(t, err)

	require.NoError(t, p.ReloadFile(path, true))
	assert.Equal(t, []string{path}, p.Files())

	got, err := p.ProcessQuery(context.Background(), []string{"dog"})
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{{DocumentName: "z.txt", Rank: 2}}, got)

	other := writeIndexFile(t, dir, map[string]string{"y.txt": "dog"})
	require.NoError(t, p.ReloadFile(other, true))
	assert.Equal(t, []string{path, other}, p.Files())

	err = p.ReloadFile(filepath.Join(dir, "missing.idx"), true)
	assert.True(t, errors.Is(err, apperrors.ErrIO))
	assert.Len(t, p.Files(), 2)
}

func TestRebuildingServedPathKeepsOpenCopyIntact(t *testing.T) {
	dir := t.TempDir()
	path := writeIndexFile(t, dir, map[string]string{"a.txt": "cat"})
	p, err := NewProcessor([]string{path}, true)
	require.NoError(t, err)
	defer p.Close()

	dt, mi := buildIndex(t, map[string]string{"b.txt": "dog bird", "c.txt": "cat cat fish"})
	_, err = fileindex.NewWriter().WriteIndex(mi, dt, path)
	require.NoError(t, err)

	got, err := p.ProcessQuery(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{{DocumentName: "a.txt", Rank: 1}}, got)

	require.NoError(t, p.ReloadFile(path, true))
	got, err = p.ProcessQuery(context.Background(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, []ranker.QueryResult{{DocumentName: "c.txt", Rank: 2}}, got)
}

func TestReloadDuringQueriesKeepsAnswering(t *testing.T) {
	path := writeIndexFile(t, t.TempDir(), map[string]string{"x.txt": "cat dog", "y.txt": "cat"})
	p, err := NewProcessor([]string{path}, false)
	require.NoError(t, err)
	defer p.Close()

	stop := make(chan struct{})
	reloadErr := make(chan error, 1)
	go func() {
		defer close(reloadErr)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := p.ReloadFile(path, false); err != nil {
				reloadErr <- err
				return
			}
		}
	}()

	want := []ranker.QueryResult{{DocumentName: "x.txt", Rank: 2}}
	for i := 0; i < 300; i++ {
		got, err := p.ProcessQuery(context.Background(), []string{"cat", "dog"})
		require.NoError(t, err, "query %d", i)
		require.Equal(t, want, got)
	}
	close(stop)
	require.NoError(t, <-reloadErr)
}

func TestReleasedFileClosesAfterLastQuery(t *testing.T) {
	path := writeIndexFile(t, t.TempDir(), map[string]string{"x.txt": "cat"})
	f, err := openIndexFile(path, false)
	require.NoError(t, err)

	f.acquire()
	require.NoError(t, f.release())
	_, ok, err := f.docs.LookupDocID(1)
	require.NoError(t, err, "handles must stay open while a query holds them")
	assert.True(t, ok)

	require.NoError(t, f.release())
	_, _, err = f.docs.LookupDocID(1)
	assert.Error(t, err)
}
