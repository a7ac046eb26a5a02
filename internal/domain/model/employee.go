// Package model contains domain models passed between layers.
package model

import "time"

// RawRow is one feedback row as read from the data source. Every column is
// nullable text because imported tables keep all values as TEXT.
type RawRow struct {
	EmployeeID   *string
	EmployeeName *string
	Content      *string
	Role         *string
	Sentiment    *string
}

// EmployeeRecord is one feedback entry with its derived quadrant.
// Records are immutable once built by the reload pipeline.
type EmployeeRecord struct {
	EmployeeID     string   `json:"employee_id"`
	EmployeeName   string   `json:"employee_name"`
	Content        string   `json:"content"`
	Role           string   `json:"role"`
	SentimentScore *float64 `json:"sentiment_score"` // nil when the source value was missing or malformed
	Quadrant       string   `json:"quadrant"`
}

// HasScore reports whether the record carries a usable sentiment score.
func (r EmployeeRecord) HasScore() bool {
	return r.SentimentScore != nil
}

// Clone returns a copy that shares no memory with r.
func (r EmployeeRecord) Clone() EmployeeRecord {
	if r.SentimentScore != nil {
		v := *r.SentimentScore
		r.SentimentScore = &v
	}
	return r
}

// CloneRecords deep-copies recs. The result is never nil.
func CloneRecords(recs []EmployeeRecord) []EmployeeRecord {
	out := make([]EmployeeRecord, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

// Snapshot is one fully loaded generation of the dataset.
type Snapshot struct {
	ID         string
	Generation uint64 // 0 means nothing has been installed yet
	LoadedAt   time.Time
	Loaded     bool
	Records    []EmployeeRecord
}

// Len returns the number of records, tolerating a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Ready reports whether the snapshot was installed and holds at least one record.
func (s *Snapshot) Ready() bool {
	return s != nil && s.Loaded && len(s.Records) > 0
}

// Empty returns the placeholder snapshot served before the first install.
func Empty() *Snapshot {
	return &Snapshot{Records: []EmployeeRecord{}}
}
