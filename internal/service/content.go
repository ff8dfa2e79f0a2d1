package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/townsquareapp/townsquare-server/internal/domain"
	"github.com/townsquareapp/townsquare-server/internal/errors"
	"github.com/townsquareapp/townsquare-server/internal/id"
	"github.com/townsquareapp/townsquare-server/internal/pathname"
	"github.com/townsquareapp/townsquare-server/internal/store"
	"github.com/townsquareapp/townsquare-server/internal/tagname"
	"github.com/townsquareapp/townsquare-server/internal/validation"
)

// ContentService orchestrates the content aggregate: creation with
// variant dispatch, optimistic updates, tag-set reconciliation, and the
// audit archive around destructive mutations.
type ContentService struct {
	store     store.Store
	archive   store.ArchiveLog
	tags      *TagService
	lifecycle *LifecycleService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewContentService creates a new content service.
func NewContentService(
	store store.Store,
	archive store.ArchiveLog,
	tags *TagService,
	lifecycle *LifecycleService,
	validator *validation.Validator,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{
		store:     store,
		archive:   archive,
		tags:      tags,
		lifecycle: lifecycle,
		validator: validator,
		logger:    logger,
	}
}

// Create builds and persists a new content record from an input payload.
// The input's shape selects the detail variant; variant validation
// failures surface as VALIDATION, a malformed shape as
// INVALID_DETAIL_TYPE. Paid categories allow one live record per owner.
func (s *ContentService) Create(ctx context.Context, actorID string, in domain.Input) (*domain.Content, error) {
	category := in.Category()
	if !category.Valid() {
		return nil, errors.Validationf("unknown content category %q", category)
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if category.Paid() {
		live, err := s.store.CountLiveContentByCreator(ctx, category, actorID)
		if err != nil {
			return nil, err
		}
		if live > 0 {
			return nil, errors.AlreadyExistsf("you already have a %s listing", category.Hyphenated())
		}
	}

	contentID, err := id.Generate("content")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate content id")
	}

	now := time.Now().UTC()
	status, visibility := s.lifecycle.InitialState(category)
	c := &domain.Content{
		ID:             contentID,
		Category:       category,
		Status:         status,
		Visibility:     visibility,
		Administrators: []string{actorID},
		CreatedBy:      actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.ApplyInput(in); err != nil {
		return nil, err
	}

	c.Pathname, err = s.uniquePathname(ctx, category, in.ContentTitle())
	if err != nil {
		return nil, err
	}

	if tags := in.ContentTags(); len(tags) > 0 {
		c.Tags, err = s.tags.AddTags(ctx, tags, category)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateContent(ctx, c); err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.Info("content created",
		"content_id", c.ID,
		"category", c.Category,
		"pathname", c.Pathname,
		"created_by", actorID,
	)
	return c, nil
}

// Update applies an input payload to an existing record. The input's
// runtime shape must match the record's category; the tag diff is
// reconciled against the vocabulary; the write is optimistic and a lost
// race surfaces as CONFLICT for the caller to retry.
func (s *ContentService) Update(ctx context.Context, actorID, contentID string, in domain.Input) (*domain.Content, error) {
	c, err := s.getForActor(ctx, actorID, contentID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	oldTitle := ""
	if c.Detail != nil {
		oldTitle = c.Detail.Title()
	}

	if err := c.ApplyInput(in); err != nil {
		return nil, err
	}

	if newTags := in.ContentTags(); newTags != nil {
		c.Tags, err = s.tags.UpdateTags(ctx, newTags, c.Tags, c.Category)
		if err != nil {
			return nil, err
		}
	}

	// A renamed title gets a fresh pathname; the old one is released.
	if in.ContentTitle() != oldTitle {
		c.Pathname, err = s.uniquePathname(ctx, c.Category, in.ContentTitle())
		if err != nil {
			return nil, err
		}
	}

	c.Touch(actorID)
	if err := s.store.SaveContent(ctx, c); err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// Delete archives a snapshot, releases the record's tag usages, and
// removes the record. The archive write is best-effort; tag cleanup and
// the delete are not transactional with each other — a reconciliation
// pass can recount, losing a decrement is tolerable.
func (s *ContentService) Delete(ctx context.Context, actorID, contentID string) error {
	c, err := s.getForActor(ctx, actorID, contentID)
	if err != nil {
		return err
	}

	s.archiveSnapshot(ctx, c)

	if err := s.tags.RemoveTags(ctx, c.Tags, c.Category); err != nil {
		return err
	}

	if err := s.store.DeleteContent(ctx, c.ID); err != nil {
		return mapStoreError(err)
	}

	s.logger.Info("content deleted",
		"content_id", c.ID,
		"category", c.Category,
		"deleted_by", actorID,
	)
	return nil
}

// Heart toggles the actor's heart on a record. Returns whether the
// record is hearted by the actor afterwards.
func (s *ContentService) Heart(ctx context.Context, actorID, contentID string) (bool, error) {
	c, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return false, mapStoreError(err)
	}

	hearted := c.ToggleHeart(actorID)
	if err := s.store.SaveContent(ctx, c); err != nil {
		return false, mapStoreError(err)
	}
	return hearted, nil
}

// Join adds the actor to a record's participant set.
func (s *ContentService) Join(ctx context.Context, actorID, contentID string) (*domain.Content, error) {
	c, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !c.AddParticipant(actorID) {
		return c, nil
	}
	if err := s.store.SaveContent(ctx, c); err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// Leave removes the actor from a record's participant set.
func (s *ContentService) Leave(ctx context.Context, actorID, contentID string) (*domain.Content, error) {
	c, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !c.RemoveParticipant(actorID) {
		return c, nil
	}
	if err := s.store.SaveContent(ctx, c); err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// PostAnnouncement prepends an announcement to a group's detail.
// Only groups carry announcements.
func (s *ContentService) PostAnnouncement(ctx context.Context, actorID, contentID, title, message string) (*domain.Content, error) {
	c, err := s.getForActor(ctx, actorID, contentID)
	if err != nil {
		return nil, err
	}
	group, ok := c.Detail.(*domain.Group)
	if !ok {
		return nil, errors.InvalidDetailTypef("announcements are not supported for category %s", c.Category)
	}

	announcementID, err := id.Generate("announcement")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate announcement id")
	}
	group.PostAnnouncement(domain.Announcement{
		ID:        announcementID,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})

	c.Touch(actorID)
	if err := s.store.SaveContent(ctx, c); err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// GetByID returns a content record by id.
func (s *ContentService) GetByID(ctx context.Context, contentID string) (*domain.Content, error) {
	c, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// GetByIDs returns the content records for an id set; missing ids are
// skipped.
func (s *ContentService) GetByIDs(ctx context.Context, ids []string) ([]*domain.Content, error) {
	return s.store.GetContentByIDs(ctx, ids)
}

// GetByPathname returns the unique record for a category + pathname pair.
func (s *ContentService) GetByPathname(ctx context.Context, category domain.Category, path string) (*domain.Content, error) {
	c, err := s.store.GetContentByPathname(ctx, category, path)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// ListByCategory returns a page of content for a category, newest first.
func (s *ContentService) ListByCategory(ctx context.Context, category domain.Category, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	result, err := s.store.ListContentByCategory(ctx, category, params)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return result, nil
}

// ListByCategoryAndTag returns a page of content in a category carrying
// the tag; the tag may be given in any spelling.
func (s *ContentService) ListByCategoryAndTag(ctx context.Context, category domain.Category, tag string, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	result, err := s.store.ListContentByCategoryAndTag(ctx, category, tagname.Canonicalize(tag), params)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return result, nil
}

// ListByCategoryAndVisibility returns a page of content in a category
// with the given visibility.
func (s *ContentService) ListByCategoryAndVisibility(ctx context.Context, category domain.Category, visibility domain.Visibility, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	result, err := s.store.ListContentByCategoryAndVisibility(ctx, category, visibility, params)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return result, nil
}

// ListByCreator returns all content in a category created by userID.
func (s *ContentService) ListByCreator(ctx context.Context, category domain.Category, userID string) ([]*domain.Content, error) {
	return s.store.ListContentByCreator(ctx, category, userID)
}

// ListEventsStartingAt returns events whose soonest occurrence starts at
// or after the given instant.
func (s *ContentService) ListEventsStartingAt(ctx context.Context, at time.Time, params store.PaginationParams) (*store.PaginatedResult[*domain.Content], error) {
	result, err := s.store.ListEventsStartingAt(ctx, at, params)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return result, nil
}

// getForActor loads a record and enforces owner-restricted access.
func (s *ContentService) getForActor(ctx context.Context, actorID, contentID string) (*domain.Content, error) {
	c, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !c.IsAdministrator(actorID) {
		return nil, errors.Forbidden("you do not have permission to modify this content")
	}
	return c, nil
}

// uniquePathname resolves the pathname for a title, suffixing on
// collision with existing pathnames in the category.
func (s *ContentService) uniquePathname(ctx context.Context, category domain.Category, title string) (string, error) {
	base := pathname.ForTitle(category, title)
	taken, err := s.store.ListPathnamesMatching(ctx, category, base)
	if err != nil {
		return "", err
	}
	return pathname.Resolve(base, taken), nil
}

// archiveSnapshot appends an immutable snapshot to the audit log.
// Best-effort: failure is logged and never blocks the primary mutation.
func (s *ContentService) archiveSnapshot(ctx context.Context, c *domain.Content) {
	rec := domain.NewArchiveRecord(uuid.NewString(), c)
	if err := s.archive.Append(ctx, rec); err != nil {
		s.logger.Warn("archive write failed",
			"content_id", c.ID,
			"error", err,
		)
	}
}
