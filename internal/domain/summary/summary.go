// Package summary derives aggregate statistics from a dataset snapshot.
//
// Every function here is pure: it reads the snapshot passed in and never
// touches shared state.
package summary

import (
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/quadrant"
)

// Report is the aggregate view of one snapshot.
type Report struct {
	TotalEmployees       int                `json:"total_employees"`
	AverageSentiment     float64            `json:"average_sentiment"`
	QuadrantDistribution map[string]int     `json:"quadrant_distribution"`
	SentimentByRole      map[string]float64 `json:"sentiment_by_role"`
	Generation           uint64             `json:"generation"`
	LoadedAt             *time.Time         `json:"loaded_at,omitempty"`
}

// Summarize computes the report for snap. A nil or empty snapshot yields zero
// totals, a zero average and every scored quadrant present with count 0.
//
// Records without a score count toward the total and the Unknown bucket but
// are left out of both averages. Role grouping is case-sensitive.
func Summarize(snap *model.Snapshot) Report {
	r := Report{
		QuadrantDistribution: make(map[string]int, len(quadrant.Labels())+1),
		SentimentByRole:      map[string]float64{},
	}
	for _, l := range quadrant.Labels() {
		r.QuadrantDistribution[string(l)] = 0
	}
	if snap == nil {
		return r
	}
	r.Generation = snap.Generation
	if snap.Loaded {
		at := snap.LoadedAt
		r.LoadedAt = &at
	}

	type acc struct {
		sum float64
		n   int
	}
	var all acc
	roles := map[string]*acc{}

	for i := range snap.Records {
		rec := &snap.Records[i]
		r.TotalEmployees++
		r.QuadrantDistribution[rec.Quadrant]++
		if rec.SentimentScore == nil {
			continue
		}
		s := *rec.SentimentScore
		all.sum += s
		all.n++
		a, ok := roles[rec.Role]
		if !ok {
			a = &acc{}
			roles[rec.Role] = a
		}
		a.sum += s
		a.n++
	}

	if all.n > 0 {
		r.AverageSentiment = all.sum / float64(all.n)
	}
	for role, a := range roles {
		r.SentimentByRole[role] = a.sum / float64(a.n)
	}
	return r
}

// Filter returns the records whose quadrant equals label, in snapshot order.
// The result is never nil.
func Filter(snap *model.Snapshot, label quadrant.Label) []model.EmployeeRecord {
	out := []model.EmployeeRecord{}
	if snap == nil {
		return out
	}
	for _, rec := range snap.Records {
		if rec.Quadrant == string(label) {
			out = append(out, rec.Clone())
		}
	}
	return out
}
