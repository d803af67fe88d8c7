// Package spool keeps the article handles of a spool directory and keeps
// the persistent index in step with them.
package spool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/datallboy/gospool/internal/article"
	"github.com/datallboy/gospool/internal/domain"
	"github.com/datallboy/gospool/internal/engine"
	"github.com/datallboy/gospool/internal/infra/logger"
	"github.com/datallboy/gospool/internal/infra/metrics"
	"github.com/datallboy/gospool/internal/store"
)

const incomingPrefix = ".incoming-"

type Spool struct {
	dir    string
	index  store.Index
	loader *engine.Loader
	logger *logger.Logger
	opts   []article.Option

	mu       sync.RWMutex
	articles map[string]*article.Article
}

// LoadStats summarises a Load run.
type LoadStats struct {
	Loaded     int
	Failed     int
	Duplicates int
}

func New(dir string, idx store.Index, workers int, log *logger.Logger, opts ...article.Option) (*Spool, error) {
	if log == nil {
		log = logger.NewWithWriter(io.Discard, logger.LevelError, false)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	return &Spool{
		dir:      dir,
		index:    idx,
		loader:   engine.NewLoader(workers, log, opts...),
		logger:   log,
		opts:     opts,
		articles: make(map[string]*article.Article),
	}, nil
}

func (s *Spool) Dir() string { return s.dir }

// Load builds a handle for every file in the spool directory and indexes
// it. Files that are not valid articles are logged and skipped.
func (s *Spool) Load(ctx context.Context) (LoadStats, error) {
	var stats LoadStats

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	paths := make(chan string)
	walkErr := make(chan error, 1)
	go func() {
		defer close(paths)
		walkErr <- filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case paths <- path:
				return nil
			}
		})
	}()

	for res := range s.loader.Run(ctx, paths) {
		if res.Error != nil {
			stats.Failed++
			metrics.RecordError(errorKind(res.Error))
			s.logger.Warn("skipping %s: %v", res.Job.Path, res.Error)
			continue
		}

		if err := s.register(res.Article); err != nil {
			stats.Duplicates++
			metrics.RecordError(errorKind(err))
			s.logger.Warn("skipping %s: %s already loaded", res.Job.Path, res.Article.ID())
			continue
		}

		if _, err := s.index.SaveArticle(ctx, toRecord(res.Article)); err != nil {
			s.unregister(res.Article.ID())
			return stats, fmt.Errorf("index %s: %w", res.Article.ID(), err)
		}
		metrics.RecordIndexed()
		stats.Loaded++
	}

	if err := <-walkErr; err != nil {
		return stats, fmt.Errorf("walk spool: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	metrics.SetArticles(s.Len())
	s.logger.Info("loaded %d articles from %s (%d failed, %d duplicates)",
		stats.Loaded, s.dir, stats.Failed, stats.Duplicates)
	return stats, nil
}

// Put stores the article read from r as a new spool file and indexes it.
// It returns the new handle and the article number assigned in each group.
func (s *Spool) Put(ctx context.Context, r io.Reader) (*article.Article, map[string]int64, error) {
	tmp, err := os.CreateTemp(s.dir, incomingPrefix+"*")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", article.ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, nil, fmt.Errorf("write incoming article: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", article.ErrStorageUnavailable, err)
	}

	// KSUIDs sort by creation time, so the spool lists in arrival order
	final := filepath.Join(s.dir, ksuid.New().String())
	if err := os.Rename(tmp.Name(), final); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", article.ErrStorageUnavailable, err)
	}

	a, err := article.New(final, s.opts...)
	if err != nil {
		os.Remove(final)
		metrics.RecordError(errorKind(err))
		return nil, nil, err
	}

	if err := s.register(a); err != nil {
		os.Remove(final)
		metrics.RecordError(errorKind(err))
		return nil, nil, err
	}

	numbers, err := s.index.SaveArticle(ctx, toRecord(a))
	if err != nil {
		s.unregister(a.ID())
		os.Remove(final)
		return nil, nil, fmt.Errorf("index %s: %w", a.ID(), err)
	}

	metrics.RecordIndexed()
	metrics.SetArticles(s.Len())
	s.logger.Info("stored %s as %s", a.ID(), filepath.Base(final))
	return a, numbers, nil
}

// Get returns the handle for messageID.
func (s *Spool) Get(messageID string) (*article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[messageID]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	return a, nil
}

// NewNews lists, sorted, the message-ids of articles posted at or after
// since in the groups selected by patterns.
func (s *Spool) NewNews(since time.Time, patterns []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for id, a := range s.articles {
		if a.ExistedAt(since) && a.MatchesGroups(patterns) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Remove drops the article from memory, the index and the disk.
func (s *Spool) Remove(ctx context.Context, messageID string) error {
	s.mu.Lock()
	a, ok := s.articles[messageID]
	if ok {
		delete(s.articles, messageID)
	}
	s.mu.Unlock()

	if !ok {
		return domain.ErrArticleNotFound
	}

	if err := s.index.DeleteArticle(ctx, messageID); err != nil && !errors.Is(err, domain.ErrArticleNotFound) {
		return fmt.Errorf("unindex %s: %w", messageID, err)
	}

	if err := os.Remove(a.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", article.ErrStorageUnavailable, err)
	}

	metrics.SetArticles(s.Len())
	return nil
}

func (s *Spool) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

func (s *Spool) register(a *article.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.articles[a.ID()]; exists {
		return fmt.Errorf("%s: %w", a.ID(), domain.ErrDuplicateArticle)
	}
	s.articles[a.ID()] = a
	return nil
}

func (s *Spool) unregister(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.articles, messageID)
}

func toRecord(a *article.Article) *domain.ArticleRecord {
	return &domain.ArticleRecord{
		MessageID:  a.ID(),
		Path:       a.Path(),
		Newsgroups: a.Newsgroups(),
		PostDate:   a.PostDate(),
		Overview:   a.Overview(),
	}
}

// errorKind is the metrics label for err.
func errorKind(err error) string {
	switch {
	case errors.Is(err, article.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, article.ErrHeaderParse):
		return "header_parse"
	case errors.Is(err, article.ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, article.ErrDateParse):
		return "date_parse"
	case errors.Is(err, domain.ErrDuplicateArticle):
		return "duplicate"
	default:
		return "other"
	}
}
