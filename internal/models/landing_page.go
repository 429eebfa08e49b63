package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes the analytics counters.
type EventKind string

// Analytics event kinds.
const (
	EventKindView       EventKind = "view"
	EventKindConversion EventKind = "conversion"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	return k == EventKindView || k == EventKindConversion
}

// LandingPage represents a user-owned landing page.
// Content is produced by the generation pipeline and never inspected here.
type LandingPage struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	OwnerID   uuid.UUID `db:"owner_id"   json:"owner_id"`
	Title     string    `db:"title"      json:"title"`
	Slug      string    `db:"slug"       json:"slug"`
	Content   string    `db:"content"    json:"content"`
	Status    Status    `db:"status"     json:"status"`
	Analytics Analytics `db:"-"          json:"analytics"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Analytics holds the usage counters of a page. Counters only grow and
// LastUpdated never moves backward.
type Analytics struct {
	Views       int64     `db:"views"                json:"views"`
	Conversions int64     `db:"conversions"          json:"conversions"`
	LastUpdated time.Time `db:"analytics_updated_at" json:"last_updated"`
}

// Active reports whether the page still participates in slug uniqueness
// and analytics collection.
func (p *LandingPage) Active() bool {
	return p.Status != StatusArchived
}

// PageCreateRequest is the payload for creating a page.
type PageCreateRequest struct {
	Title string `binding:"required,min=1,max=255" json:"title"`
}

// PageUpdateRequest is the payload for updating page fields.
type PageUpdateRequest struct {
	Title *string `binding:"omitempty,min=1,max=255" json:"title"`
}

// Validate validates the page update request.
func (r *PageUpdateRequest) Validate() error {
	if r.Title == nil {
		return ErrNoFieldsToUpdate
	}
	return nil
}

// GenerationResultRequest is the payload delivered by the generation
// pipeline when content production finishes.
type GenerationResultRequest struct {
	Content string `json:"content"`
	Reason  string `json:"reason,omitempty"`
}
