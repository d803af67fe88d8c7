package nntp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datallboy/gospool/internal/domain"
	"github.com/datallboy/gospool/internal/infra/logger"
)

type stubProvider struct {
	id       string
	priority int
	articles map[string]string
	err      error
	calls    int
}

func (s *stubProvider) ID() string { return s.id }
func (s *stubProvider) Priority() int { return s.priority }
func (s *stubProvider) MaxConnection() int { return 1 }
func (s *stubProvider) TestConnection() error { return nil }
func (s *stubProvider) Close() error { return nil }

func (s *stubProvider) Fetch(ctx context.Context, msgID string) (io.Reader, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	text, ok := s.articles[msgID]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	return strings.NewReader(text), nil
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, logger.LevelError, false)
}

func TestManager_PriorityAndFailover(t *testing.T) {
	backup := &stubProvider{id: "backup", priority: 5, articles: map[string]string{"<a@x>": "from backup"}}
	primary := &stubProvider{id: "primary", priority: 0, articles: map[string]string{}}
	m := newManager(quietLogger(), backup, primary)

	r, err := m.Fetch(context.Background(), "<a@x>")
	require.NoError(t, err)
	data, _ := io.ReadAll(r)
	assert.Equal(t, "from backup", string(data))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
	assert.Equal(t, 2, m.TotalCapacity())
}

func TestManager_NotFoundEverywhere(t *testing.T) {
	a := &stubProvider{id: "a", articles: map[string]string{}}
	b := &stubProvider{id: "b", priority: 1, articles: map[string]string{}}
	m := newManager(quietLogger(), a, b)

	_, err := m.Fetch(context.Background(), "<a@x>")
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
	// a 430 is final, no retries
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestManager_RetriesTransientErrors(t *testing.T) {
	retryBackoff = 0
	broken := &stubProvider{id: "broken", err: errors.New("connection reset")}
	m := newManager(quietLogger(), broken)

	_, err := m.Fetch(context.Background(), "<a@x>")
	assert.EqualError(t, err, "connection reset")
	assert.Equal(t, fetchRetryCount, broken.calls)
}

func TestManager_NoProviders(t *testing.T) {
	m := newManager(quietLogger())
	_, err := m.Fetch(context.Background(), "<a@x>")
	assert.Error(t, err)
}
