package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/townsquareapp/townsquare-server/internal/domain"
	"github.com/townsquareapp/townsquare-server/internal/store"
	"github.com/townsquareapp/townsquare-server/internal/tagname"
)

// contentColumns is the ordered list of columns selected in content queries.
// Must match the scan order in scanContent.
const contentColumns = `id, category, pathname, visibility, status, detail, tags,
	participants, administrators, heart_count, hearted_user_ids, parent_content_id,
	created_by, updated_by, created_at, updated_at, reviewed, version`

// scanContent scans a sql.Row (or sql.Rows via its Scan method) into a domain.Content.
func scanContent(scanner interface{ Scan(dest ...any) error }) (*domain.Content, error) {
	var c domain.Content

	var (
		detail    []byte
		tags      string
		parts     string
		admins    string
		hearted   string
		parentID  sql.NullString
		updatedBy sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&c.ID,
		&c.Category,
		&c.Pathname,
		&c.Visibility,
		&c.Status,
		&detail,
		&tags,
		&parts,
		&admins,
		&c.HeartCount,
		&hearted,
		&parentID,
		&c.CreatedBy,
		&updatedBy,
		&createdAt,
		&updatedAt,
		&c.Reviewed,
		&c.Version,
	)
	if err != nil {
		return nil, err
	}

	c.Detail, err = domain.UnmarshalDetail(c.Category, detail)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		src string
		dst *[]string
	}{
		{tags, &c.Tags},
		{parts, &c.Participants},
		{admins, &c.Administrators},
		{hearted, &c.HeartedUserIDs},
	} {
		if err := json.Unmarshal([]byte(col.src), col.dst); err != nil {
			return nil, fmt.Errorf("unmarshal content list column: %w", err)
		}
	}
	c.ParentContentID = parentID.String
	c.UpdatedBy = updatedBy.String

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// contentRow flattens a domain.Content for writing.
type contentRow struct {
	detail       []byte
	tags         []byte
	participants []byte
	admins       []byte
	hearted      []byte
	soonestStart sql.NullString
}

func buildContentRow(c *domain.Content) (*contentRow, error) {
	detail, err := domain.MarshalDetail(c.Detail)
	if err != nil {
		return nil, err
	}
	row := &contentRow{detail: detail}

	for _, col := range []struct {
		src []string
		dst *[]byte
	}{
		{c.Tags, &row.tags},
		{c.Participants, &row.participants},
		{c.Administrators, &row.admins},
		{c.HeartedUserIDs, &row.hearted},
	} {
		vals := col.src
		if vals == nil {
			vals = []string{}
		}
		data, err := json.Marshal(vals)
		if err != nil {
			return nil, fmt.Errorf("marshal content list column: %w", err)
		}
		*col.dst = data
	}

	// Events carry a derived soonest start time so time-window queries
	// stay indexable without unpacking the detail JSON.
	if ev, ok := c.Detail.(*domain.Event); ok && !ev.SoonestStartTime.IsZero() {
		row.soonestStart = sql.NullString{String: formatTime(ev.SoonestStartTime), Valid: true}
	}

	return row, nil
}

// replaceContentTags rewrites the canonical tag membership rows for a content record.
func replaceContentTags(ctx context.Context, tx *sql.Tx, c *domain.Content) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_tags WHERE content_id = ?`, c.ID); err != nil {
		return fmt.Errorf("delete content_tags: %w", err)
	}
	seen := make(map[string]bool, len(c.Tags))
	for _, displayName := range c.Tags {
		name := tagname.Canonicalize(displayName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO content_tags (content_id, tag_name) VALUES (?, ?)`,
			c.ID, name,
		); err != nil {
			return fmt.Errorf("insert content_tag: %w", err)
		}
	}
	return nil
}

// CreateContent inserts a new content record at version 1.
// Returns store.ErrAlreadyExists when the pathname is taken in the category.
func (s *Store) CreateContent(ctx context.Context, c *domain.Content) error {
	row, err := buildContentRow(c)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c.Version = 1
	_, err = tx.ExecContext(ctx, `
		INSERT INTO content (id, category, pathname, visibility, status, detail, tags,
			participants, administrators, heart_count, hearted_user_ids, parent_content_id,
			created_by, updated_by, created_at, updated_at, reviewed, soonest_start_time, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		c.ID,
		c.Category,
		c.Pathname,
		c.Visibility,
		c.Status,
		row.detail,
		row.tags,
		row.participants,
		row.admins,
		c.HeartCount,
		row.hearted,
		nullable(c.ParentContentID),
		c.CreatedBy,
		nullable(c.UpdatedBy),
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
		c.Reviewed,
		row.soonestStart,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := replaceContentTags(ctx, tx, c); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveContent persists c only if the stored version still equals c.Version.
// On success the stored version (and c.Version) increments by exactly one.
// A stale version fails with store.ErrVersionConflict and writes nothing.
func (s *Store) SaveContent(ctx context.Context, c *domain.Content) error {
	row, err := buildContentRow(c)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE content SET
			pathname = ?, visibility = ?, status = ?, detail = ?, tags = ?,
			participants = ?, administrators = ?, heart_count = ?, hearted_user_ids = ?,
			parent_content_id = ?, updated_by = ?, updated_at = ?, reviewed = ?,
			soonest_start_time = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		c.Pathname,
		c.Visibility,
		c.Status,
		row.detail,
		row.tags,
		row.participants,
		row.admins,
		c.HeartCount,
		row.hearted,
		nullable(c.ParentContentID),
		nullable(c.UpdatedBy),
		formatTime(c.UpdatedAt),
		c.Reviewed,
		row.soonestStart,
		c.ID,
		c.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing record from a lost race.
		var stored int64
		err := tx.QueryRowContext(ctx, `SELECT version FROM content WHERE id = ?`, c.ID).Scan(&stored)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return store.ErrVersionConflict
	}

	if err := replaceContentTags(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	c.Version++
	return nil
}

// GetContent retrieves a content record by id.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetContent(ctx context.Context, id string) (*domain.Content, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE id = ?`, id)

	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetContentByIDs retrieves content records by id set. Missing ids are
// skipped; the result preserves store order, not input order.
func (s *Store) GetContentByIDs(ctx context.Context, ids []string) ([]*domain.Content, error) {
	if len(ids) == 0 {
		return []*domain.Content{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContent(rows)
}

// GetContentByPathname retrieves the unique content record for a
// category + pathname pair.
func (s *Store) GetContentByPathname(ctx context.Context, category domain.Category, path string) (*domain.Content, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE category = ? AND pathname = ?`,
		category, path)

	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContent removes a content record. Tag membership rows cascade.
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListContentByCategory returns a page of content for a category,
// newest first.
func (s *Store) ListContentByCategory(ctx context.Context, category domain.Category, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	return s.listContent(ctx, params,
		`FROM content WHERE category = ?`, category)
}

// ListContentByCategoryAndTag returns a page of content in a category
// carrying the canonical tag, newest first.
func (s *Store) ListContentByCategoryAndTag(ctx context.Context, category domain.Category, canonicalTag string, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	return s.listContent(ctx, params,
		`FROM content
		JOIN content_tags ON content_tags.content_id = content.id
		WHERE content.category = ? AND content_tags.tag_name = ?`,
		category, canonicalTag)
}

// ListContentByCategoryAndVisibility returns a page of content in a
// category with the given visibility, newest first.
func (s *Store) ListContentByCategoryAndVisibility(ctx context.Context, category domain.Category, visibility domain.Visibility, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	return s.listContent(ctx, params,
		`FROM content WHERE category = ? AND visibility = ?`, category, visibility)
}

// ListContentByCreator returns all content in a category created by userID.
func (s *Store) ListContentByCreator(ctx context.Context, category domain.Category, userID string) ([]*domain.Content, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content
		WHERE category = ? AND created_by = ?
		ORDER BY created_at DESC, id DESC`,
		category, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContent(rows)
}

// CountLiveContentByCreator counts a creator's records in a category that
// occupy the paid slot: ACTIVE plus REQUIRES_ACTIVE_SUBSCRIPTION. A unique
// index cannot enforce the one-per-owner rule because unpaid records count.
func (s *Store) CountLiveContentByCreator(ctx context.Context, category domain.Category, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content
		WHERE category = ? AND created_by = ? AND status IN (?, ?)`,
		category, userID, domain.StatusActive, domain.StatusRequiresActiveSubscription).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListPathnamesMatching returns the pathnames in a category equal to base
// or carrying a "-N" suffix, for collision resolution.
func (s *Store) ListPathnamesMatching(ctx context.Context, category domain.Category, base string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pathname FROM content
		WHERE category = ? AND (pathname = ? OR pathname LIKE ? || '-%')`,
		category, base, base)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pathnames []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pathnames = append(pathnames, p)
	}
	return pathnames, rows.Err()
}

// ListEventsStartingAt returns a page of events whose soonest occurrence
// starts at or after the given instant, soonest first.
func (s *Store) ListEventsStartingAt(ctx context.Context, at time.Time, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	params.Validate()

	cursorKey, cursorID, err := decodeKeysetCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if cursorKey == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+contentColumns+` FROM content
			WHERE category = ? AND soonest_start_time >= ?
			ORDER BY soonest_start_time ASC, id ASC
			LIMIT ?`,
			domain.CategoryEvent, formatTime(at), params.Limit+1)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+contentColumns+` FROM content
			WHERE category = ? AND soonest_start_time >= ?
			AND (soonest_start_time > ? OR (soonest_start_time = ? AND id > ?))
			ORDER BY soonest_start_time ASC, id ASC
			LIMIT ?`,
			domain.CategoryEvent, formatTime(at), cursorKey, cursorKey, cursorID, params.Limit+1)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectContent(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > params.Limit
	if hasMore {
		items = items[:params.Limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		if ev, ok := last.Detail.(*domain.Event); ok {
			nextCursor = store.EncodeCursor(formatTime(ev.SoonestStartTime) + "|" + last.ID)
		}
	}

	return &store.PaginatedResult[*domain.Content]{
		Items:      items,
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}

// listContent runs a keyset-paginated query over a FROM/WHERE fragment,
// ordered by created_at DESC, id DESC. The cursor is "created_at|id".
func (s *Store) listContent(ctx context.Context, params store.PaginationParams, fromWhere string, args ...any) (*store.PaginatedResult[*domain.Content], error) {
	params.Validate()

	cursorTime, cursorID, err := decodeKeysetCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + qualifyColumns(fromWhere) + ` ` + fromWhere
	if cursorTime != "" {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, cursorTime, cursorTime, cursorID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectContent(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > params.Limit
	if hasMore {
		items = items[:params.Limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = store.EncodeCursor(formatTime(last.CreatedAt) + "|" + last.ID)
	}

	return &store.PaginatedResult[*domain.Content]{
		Items:      items,
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}, nil
}

// qualifyColumns prefixes the content columns when the fragment joins
// other tables, so the column list stays unambiguous.
func qualifyColumns(fromWhere string) string {
	if !strings.Contains(fromWhere, "JOIN") {
		return contentColumns
	}
	cols := strings.Split(contentColumns, ",")
	for i, col := range cols {
		cols[i] = "content." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

func collectContent(rows *sql.Rows) ([]*domain.Content, error) {
	var items []*domain.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Content{}
	}
	return items, nil
}

// decodeKeysetCursor splits a "key|id" cursor.
func decodeKeysetCursor(cursor string) (key, id string, err error) {
	if cursor == "" {
		return "", "", nil
	}
	decoded, err := store.DecodeCursor(cursor)
	if err != nil {
		return "", "", fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(decoded, "|", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: malformed cursor", store.ErrInvalidInput)
	}
	return parts[0], parts[1], nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
