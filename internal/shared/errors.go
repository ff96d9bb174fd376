package shared

import (
	"context"
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Provider errors
	ErrInvalidReference    = fmt.Errorf("invalid playlist reference")
	ErrCollectionNotFound  = fmt.Errorf("playlist not found or private")
	ErrAccessDenied        = fmt.Errorf("access denied or quota exceeded")
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Delivery and persistence errors
	ErrDeliveryFailed = fmt.Errorf("message delivery failed")
	ErrPersistence    = fmt.Errorf("persistence failure")
	ErrAlreadyTracked = fmt.Errorf("playlist already tracked by another subscriber")
	ErrNotOwner       = fmt.Errorf("playlist not tracked by this subscriber")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorKind classifies an error chain for user-facing reporting.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindParse
	KindNotFound
	KindDenied
	KindTransient
	KindConfiguration
	KindDelivery
	KindPersistence
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not_found"
	case KindDenied:
		return "denied"
	case KindTransient:
		return "transient"
	case KindConfiguration:
		return "configuration"
	case KindDelivery:
		return "delivery"
	case KindPersistence:
		return "persistence"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// KindOf maps err to its [ErrorKind] by walking the wrapped sentinels.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidReference):
		return KindParse
	case errors.Is(err, ErrCollectionNotFound), errors.Is(err, ErrNotOwner):
		return KindNotFound
	case errors.Is(err, ErrAccessDenied):
		return KindDenied
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMissingConfig):
		return KindConfiguration
	case errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, ErrDeliveryFailed):
		return KindDelivery
	case errors.Is(err, ErrAlreadyTracked):
		return KindConflict
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindUnknown
	}
}

// UserMessage renders the rejection text shown to a subscriber for err.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindParse:
		return "Could not find a playlist ID in that message. Send a playlist link or ID."
	case KindNotFound:
		return "Playlist not found or it is private."
	case KindDenied:
		return "Access denied or the API quota is exhausted. Try again later."
	case KindTransient:
		return "The playlist service is unavailable right now. Try again later."
	case KindConfiguration:
		return "The bot is not configured to access playlists."
	case KindConflict:
		return "This playlist is already tracked by another user."
	case KindPersistence:
		return "Could not save your changes. Try again later."
	default:
		return "Something went wrong. Try again later."
	}
}
