package shared

import "fmt"

var (
	// Startup errors: these abort the whole run.
	ErrInvalidLocator     = fmt.Errorf("invalid playlist locator")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")

	// Per-record errors: filtered or recorded, the batch continues.
	ErrInvalidTrackKind   = fmt.Errorf("not a playable track")
	ErrNoMatch            = fmt.Errorf("no matching stream found")
	ErrFetchFailed        = fmt.Errorf("stream fetch failed")
	ErrTagFailed          = fmt.Errorf("tag embedding failed")
	ErrArtworkUnavailable = fmt.Errorf("artwork unavailable")

	// Ledger and persistence errors
	ErrLedgerNotFound = fmt.Errorf("retry ledger not found")
	ErrNotFound       = fmt.Errorf("record not found")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
)
