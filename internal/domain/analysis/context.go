package analysis

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/quadrant"
	"github.com/okian/pulse/internal/domain/summary"
)

// Default context limits.
const (
	DefaultMaxSamples      = 20
	DefaultMaxContentRunes = 280
	DefaultMaxRoles        = 25
	DefaultMaxContextRunes = 8000
)

const ellipsis = "…"

// Limits bounds the size of the generated context independently of the dataset size.
type Limits struct {
	MaxSamples      int // feedback excerpts included
	MaxContentRunes int // per-excerpt content length
	MaxRoles        int // role averages listed
	MaxContextRunes int // hard cap on the whole context
}

// DefaultLimits returns the standard context limits.
func DefaultLimits() Limits {
	return Limits{
		MaxSamples:      DefaultMaxSamples,
		MaxContentRunes: DefaultMaxContentRunes,
		MaxRoles:        DefaultMaxRoles,
		MaxContextRunes: DefaultMaxContextRunes,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxSamples < 0 {
		l.MaxSamples = 0
	}
	if l.MaxContentRunes <= 0 {
		l.MaxContentRunes = d.MaxContentRunes
	}
	if l.MaxRoles <= 0 {
		l.MaxRoles = d.MaxRoles
	}
	if l.MaxContextRunes <= 0 {
		l.MaxContextRunes = d.MaxContextRunes
	}
	return l
}

// BuildContext renders the dataset summary sent alongside a query. The output
// depends only on snap and limits.
func BuildContext(snap *model.Snapshot, limits Limits) string {
	limits = limits.withDefaults()
	report := summary.Summarize(snap)

	var b strings.Builder
	fmt.Fprintf(&b, "Total Employees: %d\n", report.TotalEmployees)
	fmt.Fprintf(&b, "Average Sentiment: %.1f%%\n", report.AverageSentiment)

	labels := append(quadrant.Labels(), quadrant.Unknown)
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		n, ok := report.QuadrantDistribution[string(l)]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", l, n))
	}
	fmt.Fprintf(&b, "Quadrant Distribution: %s\n", strings.Join(parts, ", "))

	roles := make([]string, 0, len(report.SentimentByRole))
	for role := range report.SentimentByRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	extra := 0
	if len(roles) > limits.MaxRoles {
		extra = len(roles) - limits.MaxRoles
		roles = roles[:limits.MaxRoles]
	}
	parts = parts[:0]
	for _, role := range roles {
		parts = append(parts, fmt.Sprintf("%s: %.1f%%", role, report.SentimentByRole[role]))
	}
	if extra > 0 {
		parts = append(parts, fmt.Sprintf("(+%d more roles)", extra))
	}
	fmt.Fprintf(&b, "Sentiment by Role: %s\n", strings.Join(parts, ", "))

	samples := sampleRecords(snap, limits.MaxSamples)
	if len(samples) > 0 {
		fmt.Fprintf(&b, "Sample Feedback (%d of %d):\n", len(samples), report.TotalEmployees)
		for _, r := range samples {
			score := "n/a"
			if r.SentimentScore != nil {
				score = fmt.Sprintf("%.1f%%", *r.SentimentScore)
			}
			fmt.Fprintf(&b, "- %s (%s, %s, %s): %s\n",
				r.EmployeeName, r.Role, score, r.Quadrant, truncateRunes(squash(r.Content), limits.MaxContentRunes))
		}
	}

	return truncateRunes(strings.TrimRight(b.String(), "\n"), limits.MaxContextRunes)
}

// sampleRecords picks up to max records round-robin across quadrants (label
// order, Unknown last), keeping source order inside each quadrant.
func sampleRecords(snap *model.Snapshot, max int) []model.EmployeeRecord {
	if snap == nil || max <= 0 {
		return nil
	}
	labels := append(quadrant.Labels(), quadrant.Unknown)
	strata := make([][]model.EmployeeRecord, len(labels))
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[string(l)] = i
	}
	for _, r := range snap.Records {
		i, ok := index[r.Quadrant]
		if !ok {
			i = len(labels) - 1
		}
		if len(strata[i]) < max {
			strata[i] = append(strata[i], r)
		}
	}

	out := make([]model.EmployeeRecord, 0, max)
	for round := 0; len(out) < max; round++ {
		progressed := false
		for _, s := range strata {
			if round < len(s) && len(out) < max {
				out = append(out, s[round])
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return ellipsis
	}
	return string(r[:n-1]) + ellipsis
}
