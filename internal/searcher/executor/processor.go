package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/fileindex"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/merger"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/ranker"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/metrics"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/tracing"
)

// indexFile is one opened index file with its two sub-readers. The
// processor holds one reference and every running query another; the three
// handles close together when the last reference is released.
type indexFile struct {
	path   string
	reader *fileindex.Reader
	docs   *fileindex.DocTableReader
	words  *fileindex.IndexTableReader
	refs   atomic.Int32
}

func openIndexFile(path string, validate bool) (*indexFile, error) {
	r, err := fileindex.Open(path, validate)
	if err != nil {
		return nil, err
	}
	docs, err := r.GetDocTableReader()
	if err != nil {
		r.Close()
		return nil, err
	}
	words, err := r.GetIndexTableReader()
	if err != nil {
		docs.Close()
		r.Close()
		return nil, err
	}
	f := &indexFile{path: path, reader: r, docs: docs, words: words}
	f.refs.Store(1)
	return f, nil
}

func (f *indexFile) acquire() {
	f.refs.Add(1)
}

// release drops one reference and closes the handles when it was the last.
func (f *indexFile) release() error {
	if f.refs.Add(-1) != 0 {
		return nil
	}
	return errors.Join(f.words.Close(), f.docs.Close(), f.reader.Close())
}

// query evaluates words against this file and resolves matches to names.
func (f *indexFile) query(ctx context.Context, words []string) ([]ranker.QueryResult, error) {
	matches, err := intersect(ctx, words, func(word string) (postingSet, bool, error) {
		set, ok, err := f.words.LookupWord(word)
		if err != nil || !ok {
			return nil, false, err
		}
		return diskSet{set}, true, nil
	})
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	results := make([]ranker.QueryResult, 0, len(matches))
	for _, m := range matches {
		name, ok, err := f.docs.LookupDocID(m.DocID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.Corrupt("doc %d is indexed but has no name", m.DocID)
		}
		results = append(results, ranker.QueryResult{DocumentName: name, Rank: m.Rank})
	}
	return results, nil
}

type diskSet struct {
	set *fileindex.DocIDTableReader
}

func (d diskSet) Docs() ([]ranker.SearchResult, error) {
	list, err := d.set.GetDocIDList()
	if err != nil {
		return nil, err
	}
	out := make([]ranker.SearchResult, len(list))
	for i, e := range list {
		out[i] = ranker.SearchResult{DocID: e.DocID, Rank: e.NumPositions}
	}
	return out, nil
}

func (d diskSet) TermFrequency(id doctable.DocumentID) (uint32, bool, error) {
	return d.set.TermFrequency(id)
}

// Processor answers queries against the union of several index files.
// Its methods are safe for concurrent use.
type Processor struct {
	mu      sync.RWMutex
	files   []*indexFile
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Processor)

// WithMetrics records open files and per-file failures in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// NewProcessor opens every path. If any file fails to open, the files
// already opened are closed and the error is returned.
func NewProcessor(paths []string, validate bool, opts ...Option) (*Processor, error) {
	if len(paths) == 0 {
		return nil, apperrors.Invalid("creating processor: no index files")
	}
	files := make([]*indexFile, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			f, err := openIndexFile(path, validate)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range files {
			if f != nil {
				f.release()
			}
		}
		return nil, fmt.Errorf("creating processor: %w", err)
	}

	p := &Processor{
		files:  files,
		logger: slog.Default().With("component", "query-processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.setOpenGauge(len(files))
	p.logger.Info("index files opened", "files", len(files), "validated", validate)
	return p, nil
}

// AddFile opens path and includes it in later queries.
func (p *Processor) AddFile(path string, validate bool) error {
	p.mu.RLock()
	for _, f := range p.files {
		if f.path == path {
			p.mu.RUnlock()
			return apperrors.Invalid("index file %s is already open", path)
		}
	}
	p.mu.RUnlock()

	f, err := openIndexFile(path, validate)
	if err != nil {
		p.recordError(err)
		return err
	}
	p.mu.Lock()
	p.files = append(p.files, f)
	n := len(p.files)
	p.mu.Unlock()
	p.setOpenGauge(n)
	p.logger.Info("index file added", "path", path)
	return nil
}

// ReloadFile reopens path, replacing the open copy if there is one, so a
// rebuilt file is checked and served afresh. The old copy stays in use if
// the new one fails to open. Queries already running against the old copy
// finish on it; it closes once the last of them is done.
func (p *Processor) ReloadFile(path string, validate bool) error {
	f, err := openIndexFile(path, validate)
	if err != nil {
		p.recordError(err)
		return err
	}
	var old *indexFile
	p.mu.Lock()
	for i, cur := range p.files {
		if cur.path == path {
			old = cur
			p.files[i] = f
			break
		}
	}
	if old == nil {
		p.files = append(p.files, f)
	}
	n := len(p.files)
	p.mu.Unlock()
	p.setOpenGauge(n)

	if old != nil {
		if err := old.release(); err != nil {
			p.logger.Warn("closing replaced index file", "path", path, "error", err)
		}
		p.logger.Info("index file reloaded", "path", path)
		return nil
	}
	p.logger.Info("index file added", "path", path)
	return nil
}

// Files returns the paths of the open index files, in query order.
func (p *Processor) Files() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	paths := make([]string, len(p.files))
	for i, f := range p.files {
		paths[i] = f.path
	}
	return paths
}

// ProcessQuery returns every document, across all files, that contains all
// words, highest rank first and then by name. A file lacking a word adds
// nothing. A file that fails during the query is logged and skipped.
func (p *Processor) ProcessQuery(ctx context.Context, words []string) ([]ranker.QueryResult, error) {
	return p.Search(ctx, words, 0)
}

// Search is ProcessQuery keeping at most limit results when limit > 0.
func (p *Processor) Search(ctx context.Context, words []string, limit int) ([]ranker.QueryResult, error) {
	if len(words) == 0 {
		return nil, apperrors.Invalid("processing query: no words")
	}
	lists, err := p.fanOut(ctx, words)
	if err != nil {
		return nil, err
	}
	results := merger.Merge(lists, limit)
	p.logger.Debug("query processed", "words", words, "files", len(lists), "results", len(results))
	return results, nil
}

func (p *Processor) fanOut(ctx context.Context, words []string) ([][]ranker.QueryResult, error) {
	p.mu.RLock()
	files := append([]*indexFile(nil), p.files...)
	for _, f := range files {
		f.acquire()
	}
	p.mu.RUnlock()
	if len(files) == 0 {
		return nil, apperrors.Unavailable("processor is closed")
	}
	defer func() {
		for _, f := range files {
			if err := f.release(); err != nil {
				p.logger.Warn("closing released index file", "path", f.path, "error", err)
			}
		}
	}()

	type result struct {
		list []ranker.QueryResult
		err  error
	}
	results := make([]result, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		i, f := i, f
		wg.Add(1)
		go func() {
			defer wg.Done()
			fctx, span := tracing.StartChildSpan(ctx, "index-file")
			span.SetAttr("path", f.path)
			list, err := f.query(fctx, words)
			span.SetAttr("results", len(list))
			span.Fail(err)
			span.End()
			results[i] = result{list: list, err: err}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lists := make([][]ranker.QueryResult, 0, len(files))
	failed := 0
	for i, r := range results {
		if r.err != nil {
			p.logger.Error("index file query failed", "path", files[i].path, "error", r.err)
			p.recordError(r.err)
			failed++
			continue
		}
		lists = append(lists, r.list)
	}
	if failed == len(files) {
		return nil, apperrors.Unavailable("all %d index files failed", failed)
	}
	return lists, nil
}

// Close releases every open file. Files still in use by running queries
// close when those queries finish.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for _, f := range p.files {
		errs = append(errs, f.release())
	}
	p.files = nil
	p.setOpenGauge(0)
	return errors.Join(errs...)
}

func (p *Processor) setOpenGauge(n int) {
	if p.metrics != nil {
		p.metrics.IndexFilesOpen.Set(float64(n))
	}
}

func (p *Processor) recordError(err error) {
	if p.metrics != nil {
		p.metrics.RecordIndexFileError(err)
	}
}
