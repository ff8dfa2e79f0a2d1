// Package store defines the persistence interface for the TownSquare server.
package store

import (
	"context"
	"time"

	"github.com/townsquareapp/townsquare-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Content. SaveContent performs an optimistic write: the record is
	// persisted only if the stored version still equals c.Version, and the
	// version increments by exactly one on success. A stale version fails
	// with ErrVersionConflict and writes nothing.
	CreateContent(ctx context.Context, c *domain.Content) error
	GetContent(ctx context.Context, id string) (*domain.Content, error)
	GetContentByIDs(ctx context.Context, ids []string) ([]*domain.Content, error)
	GetContentByPathname(ctx context.Context, category domain.Category, pathname string) (*domain.Content, error)
	SaveContent(ctx context.Context, c *domain.Content) error
	DeleteContent(ctx context.Context, id string) error
	ListContentByCategory(ctx context.Context, category domain.Category, params PaginationParams) (*PaginatedResult[*domain.Content], error)
	ListContentByCategoryAndTag(ctx context.Context, category domain.Category, canonicalTag string, params PaginationParams) (*PaginatedResult[*domain.Content], error)
	ListContentByCategoryAndVisibility(ctx context.Context, category domain.Category, visibility domain.Visibility, params PaginationParams) (*PaginatedResult[*domain.Content], error)
	ListContentByCreator(ctx context.Context, category domain.Category, userID string) ([]*domain.Content, error)
	CountLiveContentByCreator(ctx context.Context, category domain.Category, userID string) (int, error)
	ListPathnamesMatching(ctx context.Context, category domain.Category, basePathname string) ([]string, error)
	ListEventsStartingAt(ctx context.Context, at time.Time, params PaginationParams) (*PaginatedResult[*domain.Content], error)

	// Tags. IncrementTag and DecrementTag are atomic against the store —
	// counter updates are single statements, never read-then-write, so
	// concurrent edits touching the same tag both land.
	IncrementTag(ctx context.Context, name, displayName string, category domain.Category) (string, error)
	DecrementTag(ctx context.Context, name string, category domain.Category) error
	GetTag(ctx context.Context, name string) (*domain.Tag, error)
	GetTagsByNames(ctx context.Context, names []string) (map[string]*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	TopTags(ctx context.Context, limit int) ([]*domain.Tag, error)
	TopTagsByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.Tag, error)
}

// ArchiveLog is the append-only audit log for content snapshots.
// Appends are best-effort from the caller's point of view: a failed
// archive write is logged, never surfaced as the primary error.
type ArchiveLog interface {
	Append(ctx context.Context, rec *domain.ArchiveRecord) error
	ListByContentID(ctx context.Context, contentID string) ([]*domain.ArchiveRecord, error)
	Close() error
}
