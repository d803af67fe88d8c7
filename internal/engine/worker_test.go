package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datallboy/gospool/internal/article"
)

func writeArticles(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("Message-ID: <%d@x>\nNewsgroups: misc.test\nDate: Sat, 01 Mar 2003 12:30:00 +0000\n\nbody %d\n", i, i)
		p := filepath.Join(dir, fmt.Sprintf("%03d", i))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func feed(paths []string) <-chan string {
	ch := make(chan string, len(paths))
	for _, p := range paths {
		ch <- p
	}
	close(ch)
	return ch
}

func TestLoader_Run(t *testing.T) {
	paths := writeArticles(t, 25)
	bad := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(bad, []byte("Newsgroups: x\n\nno id\n"), 0o644))
	paths = append(paths, bad)

	loader := NewLoader(4, nil)
	ids := map[string]bool{}
	var failures []LoadResult
	for res := range loader.Run(context.Background(), feed(paths)) {
		if res.Error != nil {
			failures = append(failures, res)
			continue
		}
		ids[res.Article.ID()] = true
	}

	assert.Len(t, ids, 25)
	assert.True(t, ids["<0@x>"])
	require.Len(t, failures, 1)
	assert.Equal(t, bad, failures[0].Job.Path)
	assert.ErrorIs(t, failures[0].Error, article.ErrMissingHeader)
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := make(chan string)
	results := NewLoader(2, nil).Run(ctx, paths)

	for range results {
	}
	// reaching here means the result channel was closed
}

func TestNewLoader_MinimumWorkers(t *testing.T) {
	assert.Equal(t, 1, NewLoader(0, nil).workers)
}
