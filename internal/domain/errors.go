package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed search request, rejected before any backend call.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSearchUnavailable signals that the backing index is unreachable, timed out, or erroring.
	// The orchestrator treats every flavor of adapter failure identically and falls back.
	ErrSearchUnavailable = errors.New("search backend unavailable")
	// ErrReindexInProgress signals that a catalog reindex is already running.
	ErrReindexInProgress = errors.New("reindex already in progress")
	// ErrReindexFailed signals an aborted reindex; the previous index generation stays authoritative.
	ErrReindexFailed = errors.New("reindex failed")
	// ErrEmptyFeed signals a catalog feed with no valid documents.
	ErrEmptyFeed = errors.New("catalog feed contains no valid documents")
	// ErrExtractorUnavailable signals an AI extraction failure; intent degrades to heuristics only.
	ErrExtractorUnavailable = errors.New("intent extractor unavailable")
)
