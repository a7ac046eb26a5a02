package smoke

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnhealthy       = errors.New("service unhealthy")
	ErrNotLoaded       = errors.New("service has no data loaded")
	ErrInconsistent    = errors.New("inconsistent api response")
	ErrSnapshotChanged = errors.New("snapshot changed during probe")
)
