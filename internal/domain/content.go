package domain

import (
	"slices"
	"time"
)

// Category identifies the kind of a content record. The set is closed:
// every category has exactly one detail variant and the store keys
// pathnames per category.
type Category string

// Content categories.
const (
	CategoryGroup                   Category = "GROUP"
	CategoryEvent                   Category = "EVENT"
	CategoryBusiness                Category = "BUSINESS"
	CategoryNeighborServicesProfile Category = "NEIGHBOR_SERVICES_PROFILE"
)

// Categories lists all known categories in declaration order.
func Categories() []Category {
	return []Category{
		CategoryGroup,
		CategoryEvent,
		CategoryBusiness,
		CategoryNeighborServicesProfile,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories(), c)
}

// Paid reports whether the category requires an active subscription.
// Paid content starts life restricted until billing confirms payment.
func (c Category) Paid() bool {
	return c == CategoryBusiness || c == CategoryNeighborServicesProfile
}

// Hyphenated returns the lowercase hyphenated form used in pathnames,
// e.g. "neighbor-services-profile".
func (c Category) Hyphenated() string {
	b := []byte(c)
	out := make([]byte, 0, len(b))
	for _, ch := range b {
		switch {
		case ch == '_':
			out = append(out, '-')
		case ch >= 'A' && ch <= 'Z':
			out = append(out, ch+'a'-'A')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// Visibility controls public exposure of a content record.
type Visibility string

// Content visibility values.
const (
	VisibilityPublic     Visibility = "PUBLIC"
	VisibilityRestricted Visibility = "RESTRICTED"
	VisibilityHidden     Visibility = "HIDDEN"
)

// Status is the billing/administrative lifecycle state of a content record.
type Status string

// Content status values.
const (
	StatusActive                     Status = "ACTIVE"
	StatusExpired                    Status = "EXPIRED"
	StatusCancelled                  Status = "CANCELLED"
	StatusRequiresActiveSubscription Status = "REQUIRES_ACTIVE_SUBSCRIPTION"
	StatusPaymentFailed              Status = "PAYMENT_FAILED"
)

// Live reports whether the record occupies its owner's slot for paid
// categories. A record awaiting payment still counts — otherwise an owner
// could queue up several subscriptions for the same listing.
func (s Status) Live() bool {
	return s == StatusActive || s == StatusRequiresActiveSubscription
}

// Content is the aggregate root for all community content. The detail
// payload is polymorphic; its variant must always match Category.
// Version is incremented by the store on every successful write and is
// required back on save — stale versions are rejected.
type Content struct {
	ID              string     `json:"id"`
	Category        Category   `json:"category"`
	Pathname        string     `json:"pathname"`
	Visibility      Visibility `json:"visibility"`
	Status          Status     `json:"status"`
	Detail          Detail     `json:"detail"`
	Tags            []string   `json:"tags"`
	Participants    []string   `json:"participants"`
	Administrators  []string   `json:"administrators"`
	HeartCount      int        `json:"heart_count"`
	HeartedUserIDs  []string   `json:"hearted_user_ids"`
	ParentContentID string     `json:"parent_content_id,omitempty"`
	CreatedBy       string     `json:"created_by"`
	UpdatedBy       string     `json:"updated_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Reviewed        bool       `json:"reviewed"`
	Version         int64      `json:"version"`
}

// IsAdministrator reports whether userID may perform owner-restricted
// operations on this content.
func (c *Content) IsAdministrator(userID string) bool {
	return userID == c.CreatedBy || slices.Contains(c.Administrators, userID)
}

// AddAdministrator adds a user to the administrator set if not present.
func (c *Content) AddAdministrator(userID string) bool {
	if slices.Contains(c.Administrators, userID) {
		return false
	}
	c.Administrators = append(c.Administrators, userID)
	return true
}

// AddParticipant adds a user to the participant set if not present.
func (c *Content) AddParticipant(userID string) bool {
	if slices.Contains(c.Participants, userID) {
		return false
	}
	c.Participants = append(c.Participants, userID)
	return true
}

// RemoveParticipant removes a user from the participant set.
func (c *Content) RemoveParticipant(userID string) bool {
	for i, id := range c.Participants {
		if id == userID {
			c.Participants = append(c.Participants[:i], c.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// ToggleHeart adds or removes userID from the hearted set and keeps
// HeartCount equal to the set size. Returns true when the user hearts,
// false when the toggle removed an existing heart.
func (c *Content) ToggleHeart(userID string) bool {
	for i, id := range c.HeartedUserIDs {
		if id == userID {
			c.HeartedUserIDs = append(c.HeartedUserIDs[:i], c.HeartedUserIDs[i+1:]...)
			c.HeartCount = len(c.HeartedUserIDs)
			return false
		}
	}
	c.HeartedUserIDs = append(c.HeartedUserIDs, userID)
	c.HeartCount = len(c.HeartedUserIDs)
	return true
}

// Touch updates the audit fields for a mutation by userID.
func (c *Content) Touch(userID string) {
	c.UpdatedBy = userID
	c.UpdatedAt = time.Now().UTC()
}
