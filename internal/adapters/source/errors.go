package source

import "errors"

// Sentinel errors for this package.
var (
	ErrInvalidConfig = errors.New("invalid source config")
	ErrInvalidCSV    = errors.New("invalid csv")
)
