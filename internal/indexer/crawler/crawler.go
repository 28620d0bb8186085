// Package crawler walks a directory tree and feeds every text file into a
// document table and an in-memory inverted index.
package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/tokenizer"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

var defaultSkipDirs = []string{".git", "node_modules", "vendor"}

// Stats summarises one crawl.
type Stats struct {
	Files   int
	Skipped int
	Words   int
}

type Crawler struct {
	root     string
	skipDirs map[string]struct{}
	logger   *slog.Logger
}

// New returns a Crawler rooted at root. A nil skipDirs uses the defaults.
func New(root string, skipDirs []string) *Crawler {
	if skipDirs == nil {
		skipDirs = defaultSkipDirs
	}
	skip := make(map[string]struct{}, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = struct{}{}
	}
	return &Crawler{
		root:     root,
		skipDirs: skip,
		logger:   slog.Default().With("component", "crawler", "root", root),
	}
}

// Crawl indexes every regular UTF-8 file under the root, registering it in
// dt by path. Unreadable and binary files are skipped.
func (c *Crawler) Crawl(ctx context.Context, dt *doctable.Table, mi *index.MemoryIndex) (Stats, error) {
	var stats Stats
	info, err := os.Stat(c.root)
	if err != nil {
		return stats, apperrors.IOFailure("reading crawl root", err)
	}
	if !info.IsDir() {
		return stats, apperrors.Invalid("crawl root %s is not a directory", c.root)
	}

	err = filepath.WalkDir(c.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			c.logger.Warn("skipping unreadable path", "path", path, "error", walkErr)
			stats.Skipped++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := c.skipDirs[d.Name()]; skip && path != c.root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		words, ok, err := c.indexFile(path, dt, mi)
		if err != nil {
			return err
		}
		if !ok {
			stats.Skipped++
			return nil
		}
		stats.Files++
		stats.Words += words
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("crawling %s: %w", c.root, err)
	}
	c.logger.Info("crawl complete",
		"files", stats.Files,
		"skipped", stats.Skipped,
		"words", stats.Words,
		"distinct_words", mi.Count(),
	)
	return stats, nil
}

// indexFile adds one file. It reports false for files that were skipped.
func (c *Crawler) indexFile(path string, dt *doctable.Table, mi *index.MemoryIndex) (int, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("skipping unreadable file", "path", path, "error", err)
		return 0, false, nil
	}
	if !utf8.Valid(data) {
		c.logger.Debug("skipping binary file", "path", path)
		return 0, false, nil
	}
	tokens := tokenizer.Tokenize(string(data))
	if len(tokens) == 0 {
		return 0, false, nil
	}
	id, err := dt.Register(path)
	if err != nil {
		return 0, false, err
	}
	for word, positions := range tokenizer.Group(tokens) {
		if err := mi.AddPosting(word, id, positions); err != nil {
			return 0, false, fmt.Errorf("indexing %s: %w", path, err)
		}
	}
	return len(tokens), true, nil
}
