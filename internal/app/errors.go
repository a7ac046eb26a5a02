package service

import "errors"

// Sentinel errors for the service layer.
var (
	// ErrDataSourceUnavailable means a reload could not read the data store.
	// The previously installed snapshot is left untouched.
	ErrDataSourceUnavailable = errors.New("data source unavailable")
)
