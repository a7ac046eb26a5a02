package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	repository "github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/adapters/source"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/quadrant"
	"github.com/okian/pulse/internal/domain/summary"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Defaults for fields the data store may leave empty.
const (
	UnknownRole       = "Unknown"
	defaultReloadTime = 30 * time.Second
)

// Outcome describes one successful reload.
type Outcome struct {
	RecordCount      int
	RecordsWereFound bool
	Clamped          int // scores pulled back into range
	Unscored         int // missing or malformed scores
	AssignedIDs      int // rows given their index as employee id
	Generation       uint64
	Duration         time.Duration
}

// Reloader replaces the store's snapshot with a fresh read of the data source.
type Reloader struct {
	mu         sync.Mutex
	source     source.Source
	store      repository.Store
	classifier quadrant.Classifier
	timeout    time.Duration
	logger     logger.Logger
}

// NewReloader wires a reloader. A nil classifier uses the default bands.
func NewReloader(src source.Source, store repository.Store, classifier quadrant.Classifier, timeout time.Duration, log logger.Logger) *Reloader {
	if classifier == nil {
		classifier = quadrant.NewBandClassifier()
	}
	if timeout <= 0 {
		timeout = defaultReloadTime
	}
	if log == nil {
		log = logger.Get().Named("reload")
	}
	return &Reloader{
		source:     src,
		store:      store,
		classifier: classifier,
		timeout:    timeout,
		logger:     log,
	}
}

// Reload fetches every row, builds records and installs them atomically.
//
// Reloads are serialized. The work runs detached from the caller's
// cancellation, bounded by the reloader timeout, so an abandoned request
// cannot leave a half-finished reload behind. On error the store is untouched.
func (r *Reloader) Reload(ctx context.Context) (Outcome, error) {
	const op = "app.reload"
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	start := time.Now()
	if r.source == nil {
		metrics.RecordReload("failed", 0)
		return Outcome{}, fmt.Errorf("%s: no source configured: %w", op, ErrDataSourceUnavailable)
	}

	rows, err := r.source.FetchAll(ctx)
	if err != nil {
		elapsed := time.Since(start)
		metrics.RecordReload("failed", float64(elapsed.Milliseconds()))
		metrics.RecordErrorByComponent("source", "unavailable")
		metrics.RecordErrorLatency("source", "unavailable", float64(elapsed.Milliseconds()))
		r.logger.Error(ctx, "reload failed; keeping current snapshot", logger.Error(err))
		return Outcome{}, fmt.Errorf("%s: %w", op, errors.Join(ErrDataSourceUnavailable, err))
	}

	records, out := r.build(rows)
	snap := r.store.Install(ctx, records)
	out.Generation = snap.Generation
	out.Duration = time.Since(start)

	report := summary.Summarize(snap)
	metrics.UpdateDatasetGauges(report.TotalEmployees, report.AverageSentiment, report.QuadrantDistribution)
	metrics.RecordRecordQuality(out.Clamped, out.Unscored)
	if out.RecordsWereFound {
		metrics.RecordReload("success", float64(out.Duration.Milliseconds()))
	} else {
		metrics.RecordReload("empty", float64(out.Duration.Milliseconds()))
	}

	r.logger.Info(ctx, "snapshot installed",
		logger.Int("generation", int(out.Generation)),
		logger.Int("records", out.RecordCount),
		logger.Int("clamped", out.Clamped),
		logger.Int("unscored", out.Unscored),
		logger.Int("assignedIDs", out.AssignedIDs),
		logger.String("duration", out.Duration.String()),
	)
	return out, nil
}

func (r *Reloader) build(rows []model.RawRow) ([]model.EmployeeRecord, Outcome) {
	out := Outcome{RecordCount: len(rows), RecordsWereFound: len(rows) > 0}
	records := make([]model.EmployeeRecord, 0, len(rows))
	for i, row := range rows {
		id := text(row.EmployeeID)
		if id == "" {
			id = strconv.Itoa(i)
			out.AssignedIDs++
		}
		name := text(row.EmployeeName)
		if name == "" {
			name = "Employee " + id
		}
		role := text(row.Role)
		if role == "" {
			role = UnknownRole
		}

		score, clamped := ParseScore(row.Sentiment)
		if clamped {
			out.Clamped++
		}
		label := quadrant.Unknown
		if score == nil {
			out.Unscored++
		} else {
			label = r.classifier.Classify(quadrant.Signal{Sentiment: *score})
		}

		records = append(records, model.EmployeeRecord{
			EmployeeID:     id,
			EmployeeName:   name,
			Content:        rawText(row.Content),
			Role:           role,
			SentimentScore: score,
			Quadrant:       string(label),
		})
	}
	return records, out
}

// ParseScore reads a percentage such as "72.5" or "72.5%". Missing, malformed
// and non-finite values yield nil; finite values are clamped into range.
func ParseScore(raw *string) (score *float64, clamped bool) {
	if raw == nil {
		return nil, false
	}
	s := strings.TrimSpace(*raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	v, clamped, _ = quadrant.Clamp(v)
	return &v, clamped
}

func text(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func rawText(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
