package domain

import (
	"github.com/townsquareapp/townsquare-server/internal/errors"
)

// NeighborService is a single offered service on a profile.
type NeighborService struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}

// NeighborServicesProfile is the detail variant for resident service
// profiles (tutoring, lawn care, pet sitting and the like).
type NeighborServicesProfile struct {
	ProfileTitle       string            `json:"title"`
	ProfileDescription string            `json:"description"`
	Email              string            `json:"email,omitempty"`
	DisplayEmail       bool              `json:"display_email"`
	Services           []NeighborService `json:"services,omitempty"`
	ProfileImageURL    string            `json:"profile_image_url,omitempty"`
	Images             map[string]string `json:"images,omitempty"`
	ExternalURL        string            `json:"external_url,omitempty"`
	SocialLinks        map[string]string `json:"social_links,omitempty"`
}

// NeighborServicesProfileInput is the write payload for a profile.
type NeighborServicesProfileInput struct {
	Title           string            `json:"title" validate:"required,max=256"`
	Description     string            `json:"description" validate:"required"`
	Email           string            `json:"email,omitempty" validate:"omitempty,email"`
	DisplayEmail    bool              `json:"display_email"`
	Services        []NeighborService `json:"services,omitempty" validate:"dive"`
	ProfileImageURL string            `json:"profile_image_url,omitempty" validate:"omitempty,url"`
	Images          map[string]string `json:"images,omitempty"`
	ExternalURL     string            `json:"external_url,omitempty" validate:"omitempty,url"`
	SocialLinks     map[string]string `json:"social_links,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
}

// Category implements Input.
func (NeighborServicesProfileInput) Category() Category { return CategoryNeighborServicesProfile }

// ContentTitle implements Input.
func (in NeighborServicesProfileInput) ContentTitle() string { return in.Title }

// ContentTags implements Input.
func (in NeighborServicesProfileInput) ContentTags() []string { return in.Tags }

// Title implements Detail.
func (p *NeighborServicesProfile) Title() string { return p.ProfileTitle }

// Description implements Detail.
func (p *NeighborServicesProfile) Description() string { return p.ProfileDescription }

// Update implements Detail.
func (p *NeighborServicesProfile) Update(in Input) error {
	pi, ok := in.(*NeighborServicesProfileInput)
	if !ok {
		return errors.InvalidDetailTypef("expected neighbor services profile input, got %T", in)
	}

	p.ProfileTitle = pi.Title
	p.ProfileDescription = pi.Description
	p.Email = pi.Email
	p.DisplayEmail = pi.DisplayEmail
	p.Services = pi.Services
	p.ProfileImageURL = pi.ProfileImageURL
	p.Images = pi.Images
	p.ExternalURL = pi.ExternalURL
	p.SocialLinks = pi.SocialLinks
	return nil
}
