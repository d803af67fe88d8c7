package engine

import "github.com/datallboy/gospool/internal/article"

// LoadJob asks a worker to build the handle for one spool file.
type LoadJob struct {
	Path string
}

// LoadResult carries either the built handle or the reason it could not be built.
type LoadResult struct {
	Job     LoadJob
	Article *article.Article
	Error   error
}
