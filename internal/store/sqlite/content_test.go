package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/townsquareapp/townsquare-server/internal/domain"
	"github.com/townsquareapp/townsquare-server/internal/store"
)

// makeTestContent creates a group content record with sensible defaults.
func makeTestContent(id, pathname string) *domain.Content {
	now := time.Now().UTC()
	return &domain.Content{
		ID:         id,
		Category:   domain.CategoryGroup,
		Pathname:   pathname,
		Visibility: domain.VisibilityPublic,
		Status:     domain.StatusActive,
		Detail: &domain.Group{
			GroupTitle:       "Test Group",
			GroupDescription: "A group for testing.",
		},
		Tags:           []string{"Gardening"},
		Administrators: []string{"user-1"},
		CreatedBy:      "user-1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateAndGetContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := makeTestContent("content-1", "/group/test-group")
	if err := s.CreateContent(ctx, c); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
	if c.Version != 1 {
		t.Errorf("Version after create: got %d, want 1", c.Version)
	}

	got, err := s.GetContent(ctx, "content-1")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}

	if got.ID != c.ID {
		t.Errorf("ID: got %q, want %q", got.ID, c.ID)
	}
	if got.Category != domain.CategoryGroup {
		t.Errorf("Category: got %q, want %q", got.Category, domain.CategoryGroup)
	}
	if got.Pathname != "/group/test-group" {
		t.Errorf("Pathname: got %q, want %q", got.Pathname, "/group/test-group")
	}
	if got.Version != 1 {
		t.Errorf("Version: got %d, want 1", got.Version)
	}

	// Detail round-trips as the right variant.
	group, ok := got.Detail.(*domain.Group)
	if !ok {
		t.Fatalf("Detail: got %T, want *domain.Group", got.Detail)
	}
	if group.GroupTitle != "Test Group" {
		t.Errorf("GroupTitle: got %q, want %q", group.GroupTitle, "Test Group")
	}

	if len(got.Tags) != 1 || got.Tags[0] != "Gardening" {
		t.Errorf("Tags: got %v, want [Gardening]", got.Tags)
	}
	if len(got.Administrators) != 1 || got.Administrators[0] != "user-1" {
		t.Errorf("Administrators: got %v, want [user-1]", got.Administrators)
	}

	// Timestamps round-trip through RFC3339Nano.
	if got.CreatedAt.Unix() != c.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, c.CreatedAt)
	}
}

func TestCreateContent_DuplicatePathname(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c1 := makeTestContent("content-dup-1", "/group/same")
	if err := s.CreateContent(ctx, c1); err != nil {
		t.Fatalf("CreateContent c1: %v", err)
	}

	// Same category + pathname must fail.
	c2 := makeTestContent("content-dup-2", "/group/same")
	err := s.CreateContent(ctx, c2)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetContent_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetContent(ctx, "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = s.GetContentByPathname(ctx, domain.CategoryGroup, "/group/nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for pathname lookup, got %v", err)
	}
}

func TestGetContentByPathname(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := makeTestContent("content-path-1", "/group/pathname-lookup")
	if err := s.CreateContent(ctx, c); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}

	got, err := s.GetContentByPathname(ctx, domain.CategoryGroup, "/group/pathname-lookup")
	if err != nil {
		t.Fatalf("GetContentByPathname: %v", err)
	}
	if got.ID != "content-path-1" {
		t.Errorf("ID: got %q, want %q", got.ID, "content-path-1")
	}

	// Same pathname under a different category does not match.
	_, err = s.GetContentByPathname(ctx, domain.CategoryEvent, "/group/pathname-lookup")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other category, got %v", err)
	}
}

func TestSaveContent_IncrementsVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := makeTestContent("content-save-1", "/group/save")
	if err := s.CreateContent(ctx, c); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}

	c.Status = domain.StatusCancelled
	if err := s.SaveContent(ctx, c); err != nil {
		t.Fatalf("SaveContent: %v", err)
	}
	if c.Version != 2 {
		t.Errorf("Version after save: got %d, want 2", c.Version)
	}

	got, err := s.GetContent(ctx, "content-save-1")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("stored Version: got %d, want 2", got.Version)
	}
	if got.Status != domain.StatusCancelled {
		t.Errorf("Status: got %q, want %q", got.Status, domain.StatusCancelled)
	}
}

func TestSaveContent_StaleVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := makeTestContent("content-stale-1", "/group/stale")
	if err := s.CreateContent(ctx, c); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}

	// Two readers load version 1.
	first, err := s.GetContent(ctx, "content-stale-1")
	if err != nil {
		t.Fatalf("GetContent first: %v", err)
	}
	second, err := s.GetContent(ctx, "content-stale-1")
	if err != nil {
		t.Fatalf("GetContent second: %v", err)
	}

	// First writer wins.
	first.Status = domain.StatusCancelled
	if err := s.SaveContent(ctx, first); err != nil {
		t.Fatalf("SaveContent first: %v", err)
	}

	// Second writer holds a stale version and must lose.
	second.Status = domain.StatusPaymentFailed
	err = s.SaveContent(ctx, second)
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// The losing write changed nothing.
	got, err := s.GetContent(ctx, "content-stale-1")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if got.Status != domain.StatusCancelled {
		t.Errorf("Status: got %q, want %q", got.Status, domain.StatusCancelled)
	}
	if got.Version != 2 {
		t.Errorf("Version: got %d, want 2", got.Version)
	}
}

func TestSaveContent_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := makeTestContent("content-ghost", "/group/ghost")
	c.Version = 1
	err := s.SaveContent(ctx, c)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := makeTestContent("content-del-1", "/group/delete")
	if err := s.CreateContent(ctx, c); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}

	if err := s.DeleteContent(ctx, "content-del-1"); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}

	_, err := s.GetContent(ctx, "content-del-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Membership rows cascade.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM content_tags WHERE content_id = ?`, "content-del-1").Scan(&n); err != nil {
		t.Fatalf("count content_tags: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 content_tags rows, got %d", n)
	}

	if err := s.DeleteContent(ctx, "content-del-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestGetContentByIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		c := makeTestContent(fmt.Sprintf("content-ids-%d", i), fmt.Sprintf("/group/ids-%d", i))
		if err := s.CreateContent(ctx, c); err != nil {
			t.Fatalf("CreateContent %d: %v", i, err)
		}
	}

	got, err := s.GetContentByIDs(ctx, []string{"content-ids-1", "content-ids-3", "content-ids-missing"})
	if err != nil {
		t.Fatalf("GetContentByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	empty, err := s.GetContentByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("GetContentByIDs(nil): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty result, got %d", len(empty))
	}
}

func TestListContentByCategory_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		c := makeTestContent(fmt.Sprintf("content-page-%d", i), fmt.Sprintf("/group/page-%d", i))
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		c.UpdatedAt = c.CreatedAt
		if err := s.CreateContent(ctx, c); err != nil {
			t.Fatalf("CreateContent %d: %v", i, err)
		}
	}

	// First page: newest first.
	page1, err := s.ListContentByCategory(ctx, domain.CategoryGroup, store.PaginationParams{Limit: 2})
	if err != nil {
		t.Fatalf("ListContentByCategory page 1: %v", err)
	}
	if len(page1.Items) != 2 {
		t.Fatalf("page 1: expected 2 items, got %d", len(page1.Items))
	}
	if !page1.HasMore {
		t.Error("page 1: expected HasMore")
	}
	if page1.Items[0].ID != "content-page-4" || page1.Items[1].ID != "content-page-3" {
		t.Errorf("page 1 order: got %s, %s", page1.Items[0].ID, page1.Items[1].ID)
	}

	// Second page resumes at the cursor.
	page2, err := s.ListContentByCategory(ctx, domain.CategoryGroup, store.PaginationParams{Limit: 2, Cursor: page1.NextCursor})
	if err != nil {
		t.Fatalf("ListContentByCategory page 2: %v", err)
	}
	if len(page2.Items) != 2 {
		t.Fatalf("page 2: expected 2 items, got %d", len(page2.Items))
	}
	if page2.Items[0].ID != "content-page-2" || page2.Items[1].ID != "content-page-1" {
		t.Errorf("page 2 order: got %s, %s", page2.Items[0].ID, page2.Items[1].ID)
	}

	// Final page.
	page3, err := s.ListContentByCategory(ctx, domain.CategoryGroup, store.PaginationParams{Limit: 2, Cursor: page2.NextCursor})
	if err != nil {
		t.Fatalf("ListContentByCategory page 3: %v", err)
	}
	if len(page3.Items) != 1 {
		t.Fatalf("page 3: expected 1 item, got %d", len(page3.Items))
	}
	if page3.HasMore {
		t.Error("page 3: expected HasMore=false")
	}
	if page3.Items[0].ID != "content-page-0" {
		t.Errorf("page 3: got %s", page3.Items[0].ID)
	}
}

func TestListContentByCategoryAndTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c1 := makeTestContent("content-tag-1", "/group/tagged-1")
	c1.Tags = []string{"Hiking Trails"}
	if err := s.CreateContent(ctx, c1); err != nil {
		t.Fatalf("CreateContent c1: %v", err)
	}

	c2 := makeTestContent("content-tag-2", "/group/tagged-2")
	c2.Tags = []string{"Cooking"}
	if err := s.CreateContent(ctx, c2); err != nil {
		t.Fatalf("CreateContent c2: %v", err)
	}

	// Membership is stored by canonical name.
	got, err := s.ListContentByCategoryAndTag(ctx, domain.CategoryGroup, "hikingtrails", store.PaginationParams{})
	if err != nil {
		t.Fatalf("ListContentByCategoryAndTag: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	if got.Items[0].ID != "content-tag-1" {
		t.Errorf("got %s, want content-tag-1", got.Items[0].ID)
	}
}

func TestListContentByCategoryAndVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pub := makeTestContent("content-vis-1", "/group/vis-pub")
	if err := s.CreateContent(ctx, pub); err != nil {
		t.Fatalf("CreateContent pub: %v", err)
	}

	restricted := makeTestContent("content-vis-2", "/group/vis-res")
	restricted.Visibility = domain.VisibilityRestricted
	if err := s.CreateContent(ctx, restricted); err != nil {
		t.Fatalf("CreateContent restricted: %v", err)
	}

	got, err := s.ListContentByCategoryAndVisibility(ctx, domain.CategoryGroup, domain.VisibilityRestricted, store.PaginationParams{})
	if err != nil {
		t.Fatalf("ListContentByCategoryAndVisibility: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "content-vis-2" {
		t.Errorf("expected [content-vis-2], got %d items", len(got.Items))
	}
}

func TestCountLiveContentByCreator(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	active := makeTestContent("content-live-1", "/business/live-1")
	active.Category = domain.CategoryBusiness
	active.Detail = &domain.Business{BusinessTitle: "Shop", BusinessDescription: "d"}
	if err := s.CreateContent(ctx, active); err != nil {
		t.Fatalf("CreateContent active: %v", err)
	}

	pending := makeTestContent("content-live-2", "/business/live-2")
	pending.Category = domain.CategoryBusiness
	pending.Detail = &domain.Business{BusinessTitle: "Shop 2", BusinessDescription: "d"}
	pending.Status = domain.StatusRequiresActiveSubscription
	if err := s.CreateContent(ctx, pending); err != nil {
		t.Fatalf("CreateContent pending: %v", err)
	}

	cancelled := makeTestContent("content-live-3", "/business/live-3")
	cancelled.Category = domain.CategoryBusiness
	cancelled.Detail = &domain.Business{BusinessTitle: "Shop 3", BusinessDescription: "d"}
	cancelled.Status = domain.StatusCancelled
	if err := s.CreateContent(ctx, cancelled); err != nil {
		t.Fatalf("CreateContent cancelled: %v", err)
	}

	// ACTIVE and REQUIRES_ACTIVE_SUBSCRIPTION occupy the slot; CANCELLED does not.
	count, err := s.CountLiveContentByCreator(ctx, domain.CategoryBusiness, "user-1")
	if err != nil {
		t.Fatalf("CountLiveContentByCreator: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}

	count, err = s.CountLiveContentByCreator(ctx, domain.CategoryBusiness, "user-other")
	if err != nil {
		t.Fatalf("CountLiveContentByCreator other: %v", err)
	}
	if count != 0 {
		t.Errorf("count for other user: got %d, want 0", count)
	}
}

func TestListPathnamesMatching(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	paths := []string{"/group/book-club", "/group/book-club-2", "/group/book-club-10", "/group/book-clubhouse"}
	for i, p := range paths {
		c := makeTestContent(fmt.Sprintf("content-pm-%d", i), p)
		if err := s.CreateContent(ctx, c); err != nil {
			t.Fatalf("CreateContent %s: %v", p, err)
		}
	}

	got, err := s.ListPathnamesMatching(ctx, domain.CategoryGroup, "/group/book-club")
	if err != nil {
		t.Fatalf("ListPathnamesMatching: %v", err)
	}

	// Exact match and "-N" style suffixes; "-house" also matches the LIKE
	// pattern but is filtered later during suffix resolution.
	want := map[string]bool{
		"/group/book-club":    true,
		"/group/book-club-2":  true,
		"/group/book-club-10": true,
	}
	for _, p := range got {
		delete(want, p)
	}
	if len(want) != 0 {
		t.Errorf("missing pathnames: %v", want)
	}
}

func TestListEventsStartingAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		start := base.AddDate(0, 0, i*7)
		c := makeTestContent(fmt.Sprintf("content-ev-%d", i), fmt.Sprintf("/event/ev-%d", i))
		c.Category = domain.CategoryEvent
		c.Detail = &domain.Event{
			EventTitle:       fmt.Sprintf("Event %d", i),
			EventDescription: "d",
			Days:             []domain.DayEvent{{StartTime: start}},
			SoonestStartTime: start,
		}
		if err := s.CreateContent(ctx, c); err != nil {
			t.Fatalf("CreateContent event %d: %v", i, err)
		}
	}

	// Window starting after the first event excludes it; order is soonest first.
	got, err := s.ListEventsStartingAt(ctx, base.AddDate(0, 0, 1), store.PaginationParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEventsStartingAt: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got.Items))
	}
	if got.Items[0].ID != "content-ev-1" || got.Items[1].ID != "content-ev-2" {
		t.Errorf("order: got %s, %s", got.Items[0].ID, got.Items[1].ID)
	}

	// Cursor pagination over the ascending ordering.
	page1, err := s.ListEventsStartingAt(ctx, base.Add(-time.Hour), store.PaginationParams{Limit: 2})
	if err != nil {
		t.Fatalf("ListEventsStartingAt page 1: %v", err)
	}
	if len(page1.Items) != 2 || !page1.HasMore {
		t.Fatalf("page 1: expected 2 items with more, got %d", len(page1.Items))
	}
	page2, err := s.ListEventsStartingAt(ctx, base.Add(-time.Hour), store.PaginationParams{Limit: 2, Cursor: page1.NextCursor})
	if err != nil {
		t.Fatalf("ListEventsStartingAt page 2: %v", err)
	}
	if len(page2.Items) != 1 || page2.Items[0].ID != "content-ev-2" {
		t.Fatalf("page 2: expected [content-ev-2], got %d items", len(page2.Items))
	}
}

func TestListContentByCategory_BadCursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ListContentByCategory(ctx, domain.CategoryGroup, store.PaginationParams{
		Limit:  10,
		Cursor: "not valid base64!!!",
	})
	if err == nil {
		t.Fatal("expected error for undecodable cursor")
	}
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected store.ErrInvalidInput, got %v", err)
	}

	// Decodable but missing the key|id separator.
	_, err = s.ListContentByCategory(ctx, domain.CategoryGroup, store.PaginationParams{
		Limit:  10,
		Cursor: store.EncodeCursor("no-separator"),
	})
	if err == nil {
		t.Fatal("expected error for malformed cursor")
	}
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected store.ErrInvalidInput, got %v", err)
	}
}
