package models

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a page or user does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidTitle is returned when a title is empty or normalizes to an empty slug
	ErrInvalidTitle = errors.New("title must contain at least one letter or digit")

	// ErrInvalidTransition is returned for a status event not listed in the transition table
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPageNotAcceptingEvents is returned when analytics events target an archived page
	ErrPageNotAcceptingEvents = errors.New("page is archived and no longer accepts events")

	// ErrQuotaExceeded is returned when a plan ceiling would be exceeded
	ErrQuotaExceeded = errors.New("plan quota exceeded")

	// ErrUnknownOwner is returned when the owner cannot be resolved
	ErrUnknownOwner = errors.New("unknown owner")

	// ErrMissingContent is returned when a generation result carries no content
	ErrMissingContent = errors.New("generation result has no content")

	// ErrSlugConflict is returned when the slug unique index fires after an allocator race
	ErrSlugConflict = errors.New("slug already in use for this owner")

	// ErrNoFieldsToUpdate is returned when no fields are provided for an update
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
