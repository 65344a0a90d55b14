package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Conversation errors
	ErrUnknownState    = errors.New("unknown conversation state")
	ErrInvalidPayload  = errors.New("invalid callback payload")
	ErrUnexpectedEvent = errors.New("unexpected event for state")
	ErrSessionBusy     = errors.New("session is being handled by another worker")

	// Catalog errors
	ErrImageNotFound = errors.New("product image not found")
)
