// internal/events/event.go
package events

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidEvent = errors.New("invalid event")

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentDoc   AttachmentType = "doc"
	AttachmentOther AttachmentType = "other"
)

type Attachment struct {
	ID         string         `json:"id" yaml:"id"`
	Type       AttachmentType `json:"type" yaml:"type"`
	MimeType   string         `json:"mimeType,omitempty" yaml:"mime_type,omitempty"`
	URL        string         `json:"url" yaml:"url"`
	FileName   string         `json:"fileName" yaml:"file_name"`
	SizeBytes  int64          `json:"sizeBytes,omitempty" yaml:"size_bytes,omitempty"`
	UploadedBy string         `json:"uploadedBy" yaml:"uploaded_by"`
	CreatedAt  time.Time      `json:"createdAt" yaml:"created_at"`
}

type Alert struct {
	ID            string `json:"id" yaml:"id"`
	MinutesBefore int    `json:"minutesBefore" yaml:"minutes_before"`
	Enabled       bool   `json:"enabled" yaml:"enabled"`
}

type Location struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Address string   `json:"address,omitempty" yaml:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty" yaml:"lng,omitempty"`
}

// TeamEvent is a calendar entry visible to everyone on one team. Extra is an
// opaque JSON object the calendar UI renders as key/value details.
type TeamEvent struct {
	ID          string         `json:"id" yaml:"id"`
	Kind        Kind           `json:"kind" yaml:"kind"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Location    *Location      `json:"location,omitempty" yaml:"location,omitempty"`
	StartAt     time.Time      `json:"startAt" yaml:"start_at"`
	EndAt       *time.Time     `json:"endAt,omitempty" yaml:"end_at,omitempty"`
	AllDay      bool           `json:"allDay,omitempty" yaml:"all_day,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Extra       map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	Alerts      []Alert        `json:"alerts" yaml:"alerts"`
	Timezone    string         `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	CreatedBy   string         `json:"createdBy" yaml:"created_by"`
	UpdatedBy   string         `json:"updatedBy,omitempty" yaml:"updated_by,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"created_at"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
	Visibility  TeamVisibility `json:"visibility" yaml:"visibility"`
}

func (e TeamEvent) TeamID() string { return e.Visibility.TeamID }

func (e TeamEvent) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if err := validateCommon(e.Title, e.StartAt, e.EndAt, e.Alerts); err != nil {
		return err
	}
	if strings.TrimSpace(e.Visibility.TeamID) == "" {
		return fmt.Errorf("%w: team is required", ErrInvalidEvent)
	}
	return nil
}

type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityMaybe       Availability = "maybe"
	AvailabilityUnavailable Availability = "unavailable"
)

// PersonalEvent is a private entry, such as a player marking themselves
// unavailable. Staff see it only when ShareWithTeamStaff is set.
type PersonalEvent struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	Location           *Location          `json:"location,omitempty"`
	StartAt            time.Time          `json:"startAt"`
	EndAt              *time.Time         `json:"endAt,omitempty"`
	AllDay             bool               `json:"allDay,omitempty"`
	Availability       Availability       `json:"availability,omitempty"`
	ShareWithTeamStaff bool               `json:"shareWithTeamStaff,omitempty"`
	Attachments        []Attachment       `json:"attachments,omitempty"`
	Alerts             []Alert            `json:"alerts"`
	Timezone           string             `json:"timezone,omitempty"`
	CreatedBy          string             `json:"createdBy"`
	UpdatedBy          string             `json:"updatedBy,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	Visibility         PersonalVisibility `json:"visibility"`
}

func (e PersonalEvent) Validate() error {
	switch e.Availability {
	case "", AvailabilityAvailable, AvailabilityMaybe, AvailabilityUnavailable:
	default:
		return fmt.Errorf("%w: unknown availability %q", ErrInvalidEvent, e.Availability)
	}
	if err := validateCommon(e.Title, e.StartAt, e.EndAt, e.Alerts); err != nil {
		return err
	}
	if strings.TrimSpace(e.Visibility.OwnerUserID) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidEvent)
	}
	return nil
}

func validateCommon(title string, start time.Time, end *time.Time, alerts []Alert) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if start.IsZero() {
		return fmt.Errorf("%w: startAt is required", ErrInvalidEvent)
	}
	if end != nil && end.Before(start) {
		return fmt.Errorf("%w: endAt is before startAt", ErrInvalidEvent)
	}
	for _, a := range alerts {
		if a.MinutesBefore < 0 {
			return fmt.Errorf("%w: alert %s has negative minutesBefore", ErrInvalidEvent, a.ID)
		}
	}
	return nil
}
