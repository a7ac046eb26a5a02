package analysis

import "errors"

// Sentinel kinds for analysis errors.
var (
	// ErrInvalidQuery reports an empty or missing natural-language query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotReady reports that no data is loaded or no completion service is configured.
	ErrNotReady = errors.New("analysis not ready")
	// ErrServiceUnavailable reports that the completion service failed or timed out.
	ErrServiceUnavailable = errors.New("analysis service unavailable")
	// ErrTransient may be wrapped by a Completer to request the single retry.
	ErrTransient = errors.New("transient completion failure")
)
