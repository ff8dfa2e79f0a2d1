package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/townsquareapp/townsquare-server/internal/domain"
	"github.com/townsquareapp/townsquare-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `name, display_name, reviewed, count, created_at, updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
// CountByCategory is left nil; loadTagCategoryCounts fills it.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&t.Name,
		&t.DisplayName,
		&t.Reviewed,
		&t.Count,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// IncrementTag registers one use of a canonical tag for a category.
//
// The counter updates are single upsert statements — the read-modify-write
// race between concurrent content edits never exists at this layer. When
// the tag is new it is created with displayName; when it exists the stored
// display name wins and the caller's spelling is discarded. Returns the
// display name that now stands for the tag.
func (s *Store) IncrementTag(ctx context.Context, name, displayName string, category domain.Category) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now().UTC())
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tags (name, display_name, reviewed, count, created_at, updated_at)
		VALUES (?, ?, 0, 1, ?, ?)
		ON CONFLICT(name) DO UPDATE SET count = count + 1, updated_at = ?`,
		name, displayName, now, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("upsert tag: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tag_category_counts (tag_name, category, count)
		VALUES (?, ?, 1)
		ON CONFLICT(tag_name, category) DO UPDATE SET count = count + 1`,
		name, category,
	)
	if err != nil {
		return "", fmt.Errorf("upsert tag category count: %w", err)
	}

	var stored string
	if err := tx.QueryRowContext(ctx,
		`SELECT display_name FROM tags WHERE name = ?`, name).Scan(&stored); err != nil {
		return "", fmt.Errorf("read display name: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return stored, nil
}

// DecrementTag removes one use of a canonical tag for a category, flooring
// both counters at zero. Unknown tags are a silent no-op: removal is
// best-effort cleanup, not a referential-integrity check.
func (s *Store) DecrementTag(ctx context.Context, name string, category domain.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now().UTC())
	_, err = tx.ExecContext(ctx, `
		UPDATE tags SET count = MAX(count - 1, 0), updated_at = ? WHERE name = ?`,
		now, name,
	)
	if err != nil {
		return fmt.Errorf("decrement tag: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tag_category_counts SET count = MAX(count - 1, 0)
		WHERE tag_name = ? AND category = ?`,
		name, category,
	)
	if err != nil {
		return fmt.Errorf("decrement tag category count: %w", err)
	}

	return tx.Commit()
}

// GetTag retrieves a tag by canonical name.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadTagCategoryCounts(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagsByNames retrieves tags by canonical name set, keyed by name.
// Missing names are simply absent from the result.
func (s *Store) GetTagsByNames(ctx context.Context, names []string) (map[string]*domain.Tag, error) {
	result := make(map[string]*domain.Tag, len(names))
	if len(names) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(names)-1) + "?"
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		result[t.Name] = t
	}
	return result, rows.Err()
}

// ListTags returns all tags ordered by canonical name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectTagsWithCounts(ctx, rows)
}

// TopTags returns tags ranked by total count descending, canonical name
// ascending on ties, truncated to limit.
func (s *Store) TopTags(ctx context.Context, limit int) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags
		ORDER BY count DESC, name ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectTagsWithCounts(ctx, rows)
}

// TopTagsByCategory ranks tags by their per-category count, restricted to
// tags used at least once in the category.
func (s *Store) TopTagsByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, t.display_name, t.reviewed, t.count, t.created_at, t.updated_at
		FROM tags t
		JOIN tag_category_counts c ON c.tag_name = t.name
		WHERE c.category = ? AND c.count > 0
		ORDER BY c.count DESC, t.name ASC
		LIMIT ?`, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectTagsWithCounts(ctx, rows)
}

func (s *Store) collectTagsWithCounts(ctx context.Context, rows *sql.Rows) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tags {
		if err := s.loadTagCategoryCounts(ctx, t); err != nil {
			return nil, err
		}
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

func (s *Store) loadTagCategoryCounts(ctx context.Context, t *domain.Tag) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, count FROM tag_category_counts WHERE tag_name = ?`, t.Name)
	if err != nil {
		return fmt.Errorf("query tag category counts: %w", err)
	}
	defer rows.Close()

	t.CountByCategory = make(map[domain.Category]int)
	for rows.Next() {
		var (
			category domain.Category
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return err
		}
		t.CountByCategory[category] = count
	}
	return rows.Err()
}
