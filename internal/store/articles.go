package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/datallboy/gospool/internal/domain"
)

// SaveArticle upserts the article row and numbers it in every group it is posted to.
func (s *PersistentStore) SaveArticle(ctx context.Context, rec *domain.ArticleRecord) (map[string]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var dbo articleDBO
	dbo.FromDomain(rec)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (message_id, path, post_date, overview)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			path = excluded.path,
			post_date = excluded.post_date,
			overview = excluded.overview`,
		dbo.MessageID, dbo.Path, dbo.PostDate, dbo.Overview,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert article %s: %w", rec.MessageID, err)
	}

	numbers := make(map[string]int64, len(rec.Newsgroups))
	for _, name := range rec.Newsgroups {
		// 1. Get/Create the group
		var groupID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO newsgroups (name) VALUES (?)
			ON CONFLICT(name) DO UPDATE SET name=name
			RETURNING id`, name).Scan(&groupID)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert group %s: %w", name, err)
		}

		// 2. Keep an existing number
		var number int64
		err = tx.QueryRowContext(ctx, `
			SELECT number FROM group_articles
			WHERE group_id = ? AND message_id = ?`, groupID, rec.MessageID).Scan(&number)
		if err == nil {
			numbers[name] = number
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		// 3. Take the next one
		err = tx.QueryRowContext(ctx, `
			UPDATE newsgroups SET high = high + 1
			WHERE id = ?
			RETURNING high`, groupID).Scan(&number)
		if err != nil {
			return nil, fmt.Errorf("failed to number article in %s: %w", name, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_articles (group_id, number, message_id)
			VALUES (?, ?, ?)`, groupID, number, rec.MessageID)
		if err != nil {
			return nil, err
		}
		numbers[name] = number
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return numbers, nil
}

// GetArticle fetches a single article record with its groups.
func (s *PersistentStore) GetArticle(ctx context.Context, messageID string) (*domain.ArticleRecord, error) {
	query := `
		SELECT
			a.message_id, a.path, a.post_date, a.overview,
			GROUP_CONCAT(g.name) AS group_names
		FROM articles a
		LEFT JOIN group_articles ga ON ga.message_id = a.message_id
		LEFT JOIN newsgroups g ON g.id = ga.group_id
		WHERE a.message_id = ?
		GROUP BY a.message_id`

	var dbo articleDBO
	err := s.db.QueryRowContext(ctx, query, messageID).Scan(
		&dbo.MessageID, &dbo.Path, &dbo.PostDate, &dbo.Overview, &dbo.Groups,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, err
	}

	return dbo.ToDomain(), nil
}

// DeleteArticle removes the article and its group numbers. Group high
// water marks are left alone so numbers are never handed out twice.
func (s *PersistentStore) DeleteArticle(ctx context.Context, messageID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_articles WHERE message_id = ?", messageID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE message_id = ?", messageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrArticleNotFound
	}

	return tx.Commit()
}

// ListGroups returns every known group ordered by name.
func (s *PersistentStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
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

// Overview returns the numbered overview records of group in [low, high].
func (s *PersistentStore) Overview(ctx context.Context, group string, low, high int64) ([]domain.OverviewLine, error) {
	var groupID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM newsgroups WHERE name = ?", group).Scan(&groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ga.number, a.message_id, a.overview
		FROM group_articles ga
		JOIN articles a ON a.message_id = ga.message_id
		WHERE ga.group_id = ? AND ga.number >= ? AND (? <= 0 OR ga.number <= ?)
		ORDER BY ga.number ASC`, groupID, low, high, high)
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
