package domain

import (
	"time"

	"github.com/townsquareapp/townsquare-server/internal/errors"
)

// Announcement is a dated notice posted to a group by its administrators.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is the detail variant for community groups.
type Group struct {
	GroupTitle       string            `json:"title"`
	GroupDescription string            `json:"description"`
	ExternalURL      string            `json:"external_url,omitempty"`
	Images           map[string]string `json:"images,omitempty"`
	Announcements    []Announcement    `json:"announcements,omitempty"`
}

// GroupInput is the write payload for a group.
type GroupInput struct {
	Title       string            `json:"title" validate:"required,max=256"`
	Description string            `json:"description" validate:"required"`
	ExternalURL string            `json:"external_url,omitempty" validate:"omitempty,url"`
	Images      map[string]string `json:"images,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

// Category implements Input.
func (GroupInput) Category() Category { return CategoryGroup }

// ContentTitle implements Input.
func (in GroupInput) ContentTitle() string { return in.Title }

// ContentTags implements Input.
func (in GroupInput) ContentTags() []string { return in.Tags }

// Title implements Detail.
func (g *Group) Title() string { return g.GroupTitle }

// Description implements Detail.
func (g *Group) Description() string { return g.GroupDescription }

// Update implements Detail.
func (g *Group) Update(in Input) error {
	gi, ok := in.(*GroupInput)
	if !ok {
		return errors.InvalidDetailTypef("expected group input, got %T", in)
	}

	g.GroupTitle = gi.Title
	g.GroupDescription = gi.Description
	g.ExternalURL = gi.ExternalURL
	g.Images = gi.Images
	return nil
}

// PostAnnouncement prepends a new announcement. Newest first, matching
// how they are displayed.
func (g *Group) PostAnnouncement(a Announcement) {
	g.Announcements = append([]Announcement{a}, g.Announcements...)
}
