package domain

import (
	"fmt"
	"time"

	"github.com/townsquareapp/townsquare-server/internal/errors"
)

// DayEvent is a single occurrence of an event. EndTime is optional;
// open-ended occurrences carry only a start.
type DayEvent struct {
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Event is the detail variant for community events.
type Event struct {
	EventTitle       string            `json:"title"`
	EventDescription string            `json:"description"`
	LocationName     string            `json:"location_name,omitempty"`
	Address          string            `json:"address,omitempty"`
	Days             []DayEvent        `json:"days"`
	SoonestStartTime time.Time         `json:"soonest_start_time"`
	FormattedTimes   []string          `json:"formatted_times,omitempty"`
	ExternalURL      string            `json:"external_url,omitempty"`
	Images           map[string]string `json:"images,omitempty"`
}

// EventInput is the write payload for an event.
type EventInput struct {
	Title        string            `json:"title" validate:"required,max=256"`
	Description  string            `json:"description" validate:"required"`
	LocationName string            `json:"location_name,omitempty"`
	Address      string            `json:"address,omitempty"`
	Days         []DayEvent        `json:"days" validate:"required,min=1"`
	ExternalURL  string            `json:"external_url,omitempty" validate:"omitempty,url"`
	Images       map[string]string `json:"images,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
}

// Category implements Input.
func (EventInput) Category() Category { return CategoryEvent }

// ContentTitle implements Input.
func (in EventInput) ContentTitle() string { return in.Title }

// ContentTags implements Input.
func (in EventInput) ContentTags() []string { return in.Tags }

// Title implements Detail.
func (e *Event) Title() string { return e.EventTitle }

// Description implements Detail.
func (e *Event) Description() string { return e.EventDescription }

// Update implements Detail. Day entries must be well ordered: an end
// time, when present, may not precede its start time.
func (e *Event) Update(in Input) error {
	ei, ok := in.(*EventInput)
	if !ok {
		return errors.InvalidDetailTypef("expected event input, got %T", in)
	}
	if err := validateDays(ei.Days); err != nil {
		return err
	}

	e.EventTitle = ei.Title
	e.EventDescription = ei.Description
	e.LocationName = ei.LocationName
	e.Address = ei.Address
	e.Days = ei.Days
	e.ExternalURL = ei.ExternalURL
	e.Images = ei.Images

	e.SoonestStartTime = soonestStart(e.Days)
	e.FormattedTimes = formatTimes(e.Days)
	return nil
}

func validateDays(days []DayEvent) error {
	if len(days) == 0 {
		return errors.Validation("event requires at least one day entry")
	}
	for i, d := range days {
		if d.EndTime != nil && d.EndTime.Before(d.StartTime) {
			return errors.Validationf("end time must be after start time for event date #%d", i+1)
		}
	}
	return nil
}

func soonestStart(days []DayEvent) time.Time {
	soonest := days[0].StartTime
	for _, d := range days[1:] {
		if d.StartTime.Before(soonest) {
			soonest = d.StartTime
		}
	}
	return soonest
}

// formatTimes renders start/end pairs for display, e.g. "January 2nd 3:04 PM".
// A missing end time renders as "No End Time".
func formatTimes(days []DayEvent) []string {
	out := make([]string, 0, len(days)*2)
	for _, d := range days {
		out = append(out, formatDayTime(&d.StartTime), formatDayTime(d.EndTime))
	}
	return out
}

func formatDayTime(t *time.Time) string {
	if t == nil {
		return "No End Time"
	}
	return fmt.Sprintf("%s %d%s %s",
		t.Month().String(),
		t.Day(),
		dayOfMonthSuffix(t.Day()),
		t.Format("3:04 PM"),
	)
}

func dayOfMonthSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
