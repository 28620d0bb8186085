package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCrawlIndexesTextFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "doc1"), "the cat sat on the mat")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "a dog")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(root, "image.bin"), string([]byte{0xff, 0xfe, 0x00, 0x81}))
	writeFile(t, filepath.Join(root, "empty.txt"), "  ")

	dt := doctable.New(0)
	mi := index.NewMemoryIndex(0)
	stats, err := New(root, nil).Crawl(context.Background(), dt, mi)
	require.NoError(t, err)

	assert.Equal(t, Stats{Files: 2, Skipped: 2, Words: 8}, stats)
	assert.Equal(t, 2, dt.Count())

	id := dt.LookupByName(filepath.Join(root, "doc1"))
	require.NotZero(t, id)
	set, ok := mi.Lookup("the")
	require.True(t, ok)
	positions, ok := set.Docs.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, index.PostingList{0, 4}, positions)

	_, ok = mi.Lookup("refs")
	assert.False(t, ok)
}

func TestCrawlRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"), nil).Crawl(context.Background(), doctable.New(0), index.NewMemoryIndex(0))
	assert.True(t, errors.Is(err, apperrors.ErrIO))
}

func TestCrawlRejectsFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, path, "x")
	_, err := New(path, nil).Crawl(context.Background(), doctable.New(0), index.NewMemoryIndex(0))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestCrawlStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(root, nil).Crawl(ctx, doctable.New(0), index.NewMemoryIndex(0))
	assert.True(t, errors.Is(err, context.Canceled))
}
