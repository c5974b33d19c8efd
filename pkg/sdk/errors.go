package ddv

import (
	"fmt"

	"github.com/huythanhnguyen/ddv/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidRequest    = domain.ErrInvalidRequest
	ErrReindexInProgress = domain.ErrReindexInProgress
	ErrReindexFailed     = domain.ErrReindexFailed
	ErrEmptyFeed         = domain.ErrEmptyFeed
)

// APIError is a non-2xx response from the server. It unwraps to the
// matching domain sentinel when the error code maps to one.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ddv: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "not_found":
		return ErrNotFound
	case "invalid_request":
		return ErrInvalidRequest
	case "reindex_in_progress":
		return ErrReindexInProgress
	case "reindex_failed":
		return ErrReindexFailed
	case "empty_feed":
		return ErrEmptyFeed
	}
	return nil
}
