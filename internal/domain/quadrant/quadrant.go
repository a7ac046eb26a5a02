// Package quadrant maps sentiment scores onto the fixed set of engagement quadrants.
package quadrant

import (
	"errors"
	"math"
)

// Label names one quadrant.
type Label string

// Quadrant labels. Unknown is reserved for records without a usable score.
const (
	Champion           Label = "Champion"
	ConcernedButActive Label = "ConcernedButActive"
	Disengaged         Label = "Disengaged"
	AtRisk             Label = "AtRisk"
	Unknown            Label = "Unknown"
)

// Score domain and default cut points. A score equal to a cut point belongs
// to the higher band.
const (
	MinScore = 0.0
	MaxScore = 100.0

	DefaultChampionMin   = 75.0
	DefaultConcernedMin  = 50.0
	DefaultDisengagedMin = 25.0
)

// ErrInvalidBands is returned when cut points are not strictly descending inside the domain.
var ErrInvalidBands = errors.New("invalid quadrant bands")

// Labels returns the four scored quadrants, highest band first.
func Labels() []Label {
	return []Label{Champion, ConcernedButActive, Disengaged, AtRisk}
}

// Signal carries the inputs a classifier may use. Only sentiment is defined today.
type Signal struct {
	Sentiment float64
}

// Classifier assigns a quadrant to a signal. Implementations must be pure and total.
type Classifier interface {
	Classify(s Signal) Label
}

// Bands holds the lower bound of each band above AtRisk.
type Bands struct {
	ChampionMin   float64
	ConcernedMin  float64
	DisengagedMin float64
}

// DefaultBands returns the standard cut points (75 / 50 / 25).
func DefaultBands() Bands {
	return Bands{
		ChampionMin:   DefaultChampionMin,
		ConcernedMin:  DefaultConcernedMin,
		DisengagedMin: DefaultDisengagedMin,
	}
}

// Validate checks MinScore < DisengagedMin < ConcernedMin < ChampionMin <= MaxScore.
func (b Bands) Validate() error {
	if !(MinScore < b.DisengagedMin && b.DisengagedMin < b.ConcernedMin &&
		b.ConcernedMin < b.ChampionMin && b.ChampionMin <= MaxScore) {
		return ErrInvalidBands
	}
	return nil
}

// BandClassifier partitions the score domain into half-open bands.
type BandClassifier struct {
	bands Bands
}

// Option applies a configuration option to the BandClassifier.
type Option func(*BandClassifier)

// WithBands overrides the default cut points. Invalid bands are ignored.
func WithBands(b Bands) Option {
	return func(c *BandClassifier) {
		if b.Validate() == nil {
			c.bands = b
		}
	}
}

// NewBandClassifier creates a classifier using the default bands unless overridden.
func NewBandClassifier(opts ...Option) *BandClassifier {
	c := &BandClassifier{bands: DefaultBands()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bands returns the cut points in use.
func (c *BandClassifier) Bands() Bands {
	return c.bands
}

// Classify implements Classifier. Out-of-range scores are clamped first;
// NaN and infinities yield Unknown.
func (c *BandClassifier) Classify(s Signal) Label {
	score, _, ok := Clamp(s.Sentiment)
	if !ok {
		return Unknown
	}
	switch {
	case score >= c.bands.ChampionMin:
		return Champion
	case score >= c.bands.ConcernedMin:
		return ConcernedButActive
	case score >= c.bands.DisengagedMin:
		return Disengaged
	default:
		return AtRisk
	}
}

// ClassifyScore classifies an optional score; nil yields Unknown.
func (c *BandClassifier) ClassifyScore(score *float64) Label {
	if score == nil {
		return Unknown
	}
	return c.Classify(Signal{Sentiment: *score})
}

var defaultClassifier = NewBandClassifier()

// Classify classifies a score with the default bands.
func Classify(score float64) Label {
	return defaultClassifier.Classify(Signal{Sentiment: score})
}

// ClassifyScore classifies an optional score with the default bands.
func ClassifyScore(score *float64) Label {
	return defaultClassifier.ClassifyScore(score)
}

// Clamp pulls a finite score into [MinScore, MaxScore]. clamped reports whether
// the value moved; ok is false for NaN and infinities.
func Clamp(score float64) (value float64, clamped bool, ok bool) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false, false
	}
	switch {
	case score < MinScore:
		return MinScore, true, true
	case score > MaxScore:
		return MaxScore, true, true
	}
	return score, false, true
}

// String implements fmt.Stringer.
func (l Label) String() string { return string(l) }
