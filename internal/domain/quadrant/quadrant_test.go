package quadrant_test

import (
	"math"
	"testing"

	"github.com/okian/pulse/internal/domain/quadrant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify_Bands(t *testing.T) {
	Convey("Given the default bands", t, func() {
		Convey("When classifying boundary values", func() {
			Convey("Then each cut point belongs to the higher band", func() {
				So(quadrant.Classify(75), ShouldEqual, quadrant.Champion)
				So(quadrant.Classify(74.999), ShouldEqual, quadrant.ConcernedButActive)
				So(quadrant.Classify(50), ShouldEqual, quadrant.ConcernedButActive)
				So(quadrant.Classify(49.999), ShouldEqual, quadrant.Disengaged)
				So(quadrant.Classify(25), ShouldEqual, quadrant.Disengaged)
				So(quadrant.Classify(24.999), ShouldEqual, quadrant.AtRisk)
			})

			Convey("And the domain ends fall in the outer bands", func() {
				So(quadrant.Classify(0), ShouldEqual, quadrant.AtRisk)
				So(quadrant.Classify(100), ShouldEqual, quadrant.Champion)
			})
		})

		Convey("When sweeping the whole domain", func() {
			Convey("Then every score gets exactly one scored label and bands never go up as scores drop", func() {
				rank := map[quadrant.Label]int{
					quadrant.Champion:           0,
					quadrant.ConcernedButActive: 1,
					quadrant.Disengaged:         2,
					quadrant.AtRisk:             3,
				}
				prev := 0
				for i := 10000; i >= 0; i-- {
					l := quadrant.Classify(float64(i) / 100)
					r, ok := rank[l]
					So(ok, ShouldBeTrue)
					So(r, ShouldBeGreaterThanOrEqualTo, prev)
					prev = r
				}
			})
		})
	})
}

func TestClassify_Totality(t *testing.T) {
	Convey("Given malformed numeric input", t, func() {
		Convey("When the score is not finite", func() {
			Convey("Then it should map to Unknown", func() {
				So(quadrant.Classify(math.NaN()), ShouldEqual, quadrant.Unknown)
				So(quadrant.Classify(math.Inf(1)), ShouldEqual, quadrant.Unknown)
				So(quadrant.Classify(math.Inf(-1)), ShouldEqual, quadrant.Unknown)
			})
		})

		Convey("When the score is outside 0-100", func() {
			Convey("Then it should be clamped to the nearest edge", func() {
				So(quadrant.Classify(-40), ShouldEqual, quadrant.AtRisk)
				So(quadrant.Classify(250), ShouldEqual, quadrant.Champion)

				v, clamped, ok := quadrant.Clamp(-3)
				So(ok, ShouldBeTrue)
				So(clamped, ShouldBeTrue)
				So(v, ShouldEqual, 0)

				v, clamped, ok = quadrant.Clamp(101)
				So(ok, ShouldBeTrue)
				So(clamped, ShouldBeTrue)
				So(v, ShouldEqual, 100)

				v, clamped, ok = quadrant.Clamp(42)
				So(ok, ShouldBeTrue)
				So(clamped, ShouldBeFalse)
				So(v, ShouldEqual, 42)
			})
		})

		Convey("When the score is missing", func() {
			Convey("Then ClassifyScore should return Unknown", func() {
				So(quadrant.ClassifyScore(nil), ShouldEqual, quadrant.Unknown)
				s := 80.0
				So(quadrant.ClassifyScore(&s), ShouldEqual, quadrant.Champion)
			})
		})
	})
}

func TestBandClassifier_Options(t *testing.T) {
	Convey("Given custom bands", t, func() {
		Convey("When the bands are valid", func() {
			c := quadrant.NewBandClassifier(quadrant.WithBands(quadrant.Bands{
				ChampionMin: 70, ConcernedMin: 50, DisengagedMin: 30,
			}))

			Convey("Then the classifier should use them", func() {
				So(c.Classify(quadrant.Signal{Sentiment: 70}), ShouldEqual, quadrant.Champion)
				So(c.Classify(quadrant.Signal{Sentiment: 29.9}), ShouldEqual, quadrant.AtRisk)
				So(c.Classify(quadrant.Signal{Sentiment: 30}), ShouldEqual, quadrant.Disengaged)
			})
		})

		Convey("When the bands overlap", func() {
			bad := quadrant.Bands{ChampionMin: 40, ConcernedMin: 50, DisengagedMin: 30}
			c := quadrant.NewBandClassifier(quadrant.WithBands(bad))

			Convey("Then validation should fail and defaults should stay", func() {
				So(bad.Validate(), ShouldEqual, quadrant.ErrInvalidBands)
				So(c.Bands(), ShouldResemble, quadrant.DefaultBands())
			})
		})
	})
}

func TestLabels(t *testing.T) {
	Convey("Given the quadrant labels", t, func() {
		Convey("Then Labels should list the four scored quadrants", func() {
			So(quadrant.Labels(), ShouldResemble, []quadrant.Label{
				quadrant.Champion, quadrant.ConcernedButActive, quadrant.Disengaged, quadrant.AtRisk,
			})
		})
	})
}
