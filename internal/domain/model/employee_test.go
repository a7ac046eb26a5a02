package model_test

import (
	"testing"
	"time"

	model "github.com/okian/pulse/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSnapshot(t *testing.T) {
	convey.Convey("Given snapshots in different states", t, func() {
		convey.Convey("When the snapshot is nil", func() {
			var snap *model.Snapshot

			convey.Convey("Then it should report zero length and not ready", func() {
				convey.So(snap.Len(), convey.ShouldEqual, 0)
				convey.So(snap.Ready(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the snapshot is the empty placeholder", func() {
			snap := model.Empty()

			convey.Convey("Then it should not be loaded and have a non-nil record slice", func() {
				convey.So(snap.Loaded, convey.ShouldBeFalse)
				convey.So(snap.Generation, convey.ShouldEqual, 0)
				convey.So(snap.Records, convey.ShouldNotBeNil)
				convey.So(snap.Ready(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the snapshot is loaded but has no records", func() {
			snap := &model.Snapshot{Loaded: true, Generation: 1, LoadedAt: time.Now()}

			convey.Convey("Then it should not be ready", func() {
				convey.So(snap.Ready(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the snapshot is loaded with records", func() {
			score := 42.0
			snap := &model.Snapshot{
				Loaded:  true,
				Records: []model.EmployeeRecord{{EmployeeID: "1", SentimentScore: &score}, {EmployeeID: "2"}},
			}

			convey.Convey("Then it should be ready and report scores per record", func() {
				convey.So(snap.Ready(), convey.ShouldBeTrue)
				convey.So(snap.Len(), convey.ShouldEqual, 2)
				convey.So(snap.Records[0].HasScore(), convey.ShouldBeTrue)
				convey.So(snap.Records[1].HasScore(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestCloneRecords(t *testing.T) {
	convey.Convey("Given records with and without scores", t, func() {
		score := 70.0
		recs := []model.EmployeeRecord{{EmployeeID: "1", SentimentScore: &score}, {EmployeeID: "2"}}

		convey.Convey("When the clone's score is written through", func() {
			clone := model.CloneRecords(recs)
			*clone[0].SentimentScore = 5

			convey.Convey("Then the original should be unchanged", func() {
				convey.So(*recs[0].SentimentScore, convey.ShouldEqual, 70.0)
				convey.So(clone[1].SentimentScore, convey.ShouldBeNil)
			})
		})

		convey.Convey("When cloning nothing", func() {
			convey.So(model.CloneRecords(nil), convey.ShouldNotBeNil)
			convey.So(model.CloneRecords(nil), convey.ShouldBeEmpty)
		})
	})
}
