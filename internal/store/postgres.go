package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datallboy/gospool/internal/domain"
)

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS articles (
    message_id TEXT PRIMARY KEY,
    path       TEXT        NOT NULL,
    post_date  BIGINT      NOT NULL,
    overview   TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_articles_post_date ON articles (post_date);
CREATE TABLE IF NOT EXISTS newsgroups (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT   NOT NULL UNIQUE,
    high BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS group_articles (
    group_id   BIGINT NOT NULL REFERENCES newsgroups (id),
    number     BIGINT NOT NULL,
    message_id TEXT   NOT NULL REFERENCES articles (message_id),
    PRIMARY KEY (group_id, number),
    UNIQUE (group_id, message_id)
);
CREATE INDEX IF NOT EXISTS idx_group_articles_message_id ON group_articles (message_id);`

// PostgresStore is the Index backed by PostgreSQL through pgx.
type PostgresStore struct {
	pool pgxPool
}

var _ Index = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := newPostgresStore(pool)
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not create schema: %w", err)
	}
	return s, nil
}

func newPostgresStore(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

func (s *PostgresStore) SaveArticle(ctx context.Context, rec *domain.ArticleRecord) (map[string]int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var dbo articleDBO
	dbo.FromDomain(rec)

	_, err = tx.Exec(ctx, `
		INSERT INTO articles (message_id, path, post_date, overview)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id) DO UPDATE SET
			path = EXCLUDED.path,
			post_date = EXCLUDED.post_date,
			overview = EXCLUDED.overview`,
		dbo.MessageID, dbo.Path, dbo.PostDate, dbo.Overview,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert article %s: %w", rec.MessageID, err)
	}

	numbers := make(map[string]int64, len(rec.Newsgroups))
	for _, name := range rec.Newsgroups {
		var groupID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO newsgroups (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&groupID)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert group %s: %w", name, err)
		}

		var number int64
		err = tx.QueryRow(ctx, `
			SELECT number FROM group_articles
			WHERE group_id = $1 AND message_id = $2`, groupID, rec.MessageID).Scan(&number)
		if err == nil {
			numbers[name] = number
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		err = tx.QueryRow(ctx, `
			UPDATE newsgroups SET high = high + 1
			WHERE id = $1
			RETURNING high`, groupID).Scan(&number)
		if err != nil {
			return nil, fmt.Errorf("failed to number article in %s: %w", name, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO group_articles (group_id, number, message_id)
			VALUES ($1, $2, $3)`, groupID, number, rec.MessageID)
		if err != nil {
			return nil, err
		}
		numbers[name] = number
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return numbers, nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, messageID string) (*domain.ArticleRecord, error) {
	query := `
		SELECT
			a.message_id, a.path, a.post_date, a.overview,
			string_agg(g.name, ',' ORDER BY g.name) AS group_names
		FROM articles a
		LEFT JOIN group_articles ga ON ga.message_id = a.message_id
		LEFT JOIN newsgroups g ON g.id = ga.group_id
		WHERE a.message_id = $1
		GROUP BY a.message_id`

	var dbo articleDBO
	err := s.pool.QueryRow(ctx, query, messageID).Scan(
		&dbo.MessageID, &dbo.Path, &dbo.PostDate, &dbo.Overview, &dbo.Groups,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, err
	}

	return dbo.ToDomain(), nil
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, messageID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM group_articles WHERE message_id = $1", messageID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, "DELETE FROM articles WHERE message_id = $1", messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrArticleNotFound
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.name, COALESCE(MIN(ga.number), 0), g.high, COUNT(ga.number)
		FROM newsgroups g
		LEFT JOIN group_articles ga ON ga.group_id = g.id
		GROUP BY g.id
		ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.Name, &g.Low, &g.High, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		emptyGroupLow(&g)
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

func (s *PostgresStore) Overview(ctx context.Context, group string, low, high int64) ([]domain.OverviewLine, error) {
	var groupID int64
	err := s.pool.QueryRow(ctx, "SELECT id FROM newsgroups WHERE name = $1", group).Scan(&groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT ga.number, a.message_id, a.overview
		FROM group_articles ga
		JOIN articles a ON a.message_id = ga.message_id
		WHERE ga.group_id = $1 AND ga.number >= $2 AND ($3 <= 0 OR ga.number <= $3)
		ORDER BY ga.number ASC`, groupID, low, high)
	if err != nil {
		return nil, fmt.Errorf("failed to query overview: %w", err)
	}
	defer rows.Close()

	lines := []domain.OverviewLine{}
	for rows.Next() {
		var l domain.OverviewLine
		if err := rows.Scan(&l.Number, &l.MessageID, &l.Overview); err != nil {
			return nil, fmt.Errorf("failed to scan overview line: %w", err)
		}
		lines = append(lines, l)
	}

	return lines, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
