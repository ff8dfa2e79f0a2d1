package domain

import (
	"github.com/townsquareapp/townsquare-server/internal/errors"
)

// Business is the detail variant for local business listings. The
// display flags control whether a field is shown publicly; they are
// independent of whether the underlying value is set.
type Business struct {
	BusinessTitle       string            `json:"title"`
	Headline            string            `json:"headline,omitempty"`
	BusinessDescription string            `json:"description"`
	Address             string            `json:"address,omitempty"`
	DisplayAddress      bool              `json:"display_address"`
	PhoneNumber         string            `json:"phone_number,omitempty"`
	DisplayPhoneNumber  bool              `json:"display_phone_number"`
	Email               string            `json:"email,omitempty"`
	DisplayEmail        bool              `json:"display_email"`
	Website             string            `json:"website,omitempty"`
	SocialLinks         map[string]string `json:"social_links,omitempty"`
	BusinessHours       map[string]string `json:"business_hours,omitempty"`
	SeasonalHours       map[string]string `json:"seasonal_hours,omitempty"`
	HolidayHours        map[string]string `json:"holiday_hours,omitempty"`
	Images              map[string]string `json:"images,omitempty"`
}

// BusinessInput is the write payload for a business listing.
type BusinessInput struct {
	Title              string            `json:"title" validate:"required,max=256"`
	Headline           string            `json:"headline,omitempty" validate:"max=512"`
	Description        string            `json:"description" validate:"required"`
	Address            string            `json:"address,omitempty"`
	DisplayAddress     bool              `json:"display_address"`
	PhoneNumber        string            `json:"phone_number,omitempty"`
	DisplayPhoneNumber bool              `json:"display_phone_number"`
	Email              string            `json:"email,omitempty" validate:"omitempty,email"`
	DisplayEmail       bool              `json:"display_email"`
	Website            string            `json:"website,omitempty" validate:"omitempty,url"`
	SocialLinks        map[string]string `json:"social_links,omitempty"`
	BusinessHours      map[string]string `json:"business_hours,omitempty"`
	SeasonalHours      map[string]string `json:"seasonal_hours,omitempty"`
	HolidayHours       map[string]string `json:"holiday_hours,omitempty"`
	Images             map[string]string `json:"images,omitempty"`
	Tags               []string          `json:"tags,omitempty"`
}

// Category implements Input.
func (BusinessInput) Category() Category { return CategoryBusiness }

// ContentTitle implements Input.
func (in BusinessInput) ContentTitle() string { return in.Title }

// ContentTags implements Input.
func (in BusinessInput) ContentTags() []string { return in.Tags }

// Title implements Detail.
func (b *Business) Title() string { return b.BusinessTitle }

// Description implements Detail.
func (b *Business) Description() string { return b.BusinessDescription }

// Update implements Detail.
func (b *Business) Update(in Input) error {
	bi, ok := in.(*BusinessInput)
	if !ok {
		return errors.InvalidDetailTypef("expected business input, got %T", in)
	}

	b.BusinessTitle = bi.Title
	b.Headline = bi.Headline
	b.BusinessDescription = bi.Description
	b.Address = bi.Address
	b.DisplayAddress = bi.DisplayAddress
	b.PhoneNumber = bi.PhoneNumber
	b.DisplayPhoneNumber = bi.DisplayPhoneNumber
	b.Email = bi.Email
	b.DisplayEmail = bi.DisplayEmail
	b.Website = bi.Website
	b.SocialLinks = bi.SocialLinks
	b.BusinessHours = bi.BusinessHours
	b.SeasonalHours = bi.SeasonalHours
	b.HolidayHours = bi.HolidayHours
	b.Images = bi.Images
	return nil
}
