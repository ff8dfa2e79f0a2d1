package domain

import (
	"encoding/json"
	"fmt"

	"github.com/townsquareapp/townsquare-server/internal/errors"
)

// Detail is the polymorphic payload of a content record. Each category
// owns exactly one variant; the variant validates and copies its own
// fields from the matching input type.
type Detail interface {
	// Title returns the display title used for pathname generation.
	Title() string
	// Description returns the long-form description.
	Description() string
	// Update validates in and copies its fields onto the variant.
	// An input of the wrong shape fails with CodeInvalidDetailType,
	// field-level failures with CodeValidation.
	Update(in Input) error
}

// Input is the write payload submitted for a content record. Concrete
// input types pair one-to-one with detail variants.
type Input interface {
	// Category returns the category this input shape belongs to.
	Category() Category
	// ContentTitle returns the submitted title.
	ContentTitle() string
	// ContentTags returns the submitted tag display names.
	ContentTags() []string
}

// NewDetail returns a fresh detail variant for the category.
// Unknown categories return nil; callers validate Category first.
func NewDetail(c Category) Detail {
	switch c {
	case CategoryGroup:
		return &Group{}
	case CategoryEvent:
		return &Event{}
	case CategoryBusiness:
		return &Business{}
	case CategoryNeighborServicesProfile:
		return &NeighborServicesProfile{}
	default:
		return nil
	}
}

// ApplyInput dispatches in to the content's detail variant. The input's
// runtime shape must match the content's category — a mismatch is never
// silently coerced.
func (c *Content) ApplyInput(in Input) error {
	if in == nil {
		return errors.Validation("input is required")
	}
	if in.Category() != c.Category {
		return errors.InvalidDetailTypef("input for category %s does not match content category %s", in.Category(), c.Category)
	}
	if c.Detail == nil {
		c.Detail = NewDetail(c.Category)
	}
	return c.Detail.Update(in)
}

// MarshalDetail encodes a detail variant for storage. The category on the
// surrounding content row selects the variant on the way back in.
func MarshalDetail(d Detail) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal detail: %w", err)
	}
	return data, nil
}

// UnmarshalDetail decodes a stored detail payload into the variant for c.
func UnmarshalDetail(c Category, data []byte) (Detail, error) {
	d := NewDetail(c)
	if d == nil {
		return nil, fmt.Errorf("unknown content category %q", c)
	}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("unmarshal %s detail: %w", c, err)
	}
	return d, nil
}

// UnmarshalJSON decodes a content record, selecting the detail variant
// from the category field. Needed because Detail is an interface.
func (c *Content) UnmarshalJSON(data []byte) error {
	type alias Content
	aux := struct {
		*alias
		Detail json.RawMessage `json:"detail"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Detail) > 0 {
		d, err := UnmarshalDetail(c.Category, aux.Detail)
		if err != nil {
			return err
		}
		c.Detail = d
	}
	return nil
}
