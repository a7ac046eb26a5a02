// Package repository holds the in-memory record store that owns the current snapshot.
package repository

import (
	"context"

	"github.com/okian/pulse/internal/domain/model"
)

// Store provides atomic replace/read access to the dataset snapshot.
type Store interface {
	// Current returns the latest fully installed snapshot. It never blocks on
	// an install in progress and never returns nil.
	Current() *model.Snapshot

	// Install replaces the visible snapshot with one built from records and
	// returns it. Snapshots handed out earlier stay valid and unchanged.
	Install(ctx context.Context, records []model.EmployeeRecord) *model.Snapshot
}
