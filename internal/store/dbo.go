package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/datallboy/gospool/internal/domain"
)

// articleDBO maps to the articles table
type articleDBO struct {
	MessageID string         `db:"message_id"`
	Path      string         `db:"path"`
	PostDate  int64          `db:"post_date"`
	Overview  string         `db:"overview"`
	Groups    sql.NullString `db:"group_names"`
}

// Mapper: DBO to Domain ArticleRecord
func (a *articleDBO) ToDomain() *domain.ArticleRecord {
	rec := &domain.ArticleRecord{
		MessageID:  a.MessageID,
		Path:       a.Path,
		PostDate:   time.Unix(a.PostDate, 0).UTC(),
		Overview:   a.Overview,
		Newsgroups: []string{},
	}

	// GROUP_CONCAT/string_agg come back comma separated; group names never contain commas
	if a.Groups.Valid && a.Groups.String != "" {
		rec.Newsgroups = strings.Split(a.Groups.String, ",")
	}
	return rec
}

// Mapper: Domain ArticleRecord to DBO
func (a *articleDBO) FromDomain(rec *domain.ArticleRecord) {
	a.MessageID = rec.MessageID
	a.Path = rec.Path
	a.Overview = rec.Overview

	if !rec.PostDate.IsZero() {
		a.PostDate = rec.PostDate.Unix()
	} else {
		a.PostDate = 0
	}
}

// emptyGroupLow follows RFC 3977: an empty group reports low = high + 1.
func emptyGroupLow(g *domain.Group) {
	if g.Count == 0 {
		g.Low = g.High + 1
	}
}
