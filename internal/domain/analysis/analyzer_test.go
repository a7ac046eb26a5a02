package analysis_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pulse/internal/domain/analysis"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type stubCompleter struct {
	calls   atomic.Int32
	mu      sync.Mutex
	prompts []string
	reply   func(ctx context.Context, call int32) (string, error)
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	n := s.calls.Add(1)
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.reply(ctx, n)
}

func fixed(text string) func(context.Context, int32) (string, error) {
	return func(context.Context, int32) (string, error) { return text, nil }
}

func score(v float64) *float64 { return &v }

func loadedSnapshot() *model.Snapshot {
	return &model.Snapshot{
		ID:         "snap-1",
		Generation: 3,
		LoadedAt:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Loaded:     true,
		Records: []model.EmployeeRecord{
			{EmployeeID: "1", EmployeeName: "Ana", Role: "Engineer", Content: "Great team", SentimentScore: score(80), Quadrant: "Champion"},
			{EmployeeID: "2", EmployeeName: "Ben", Role: "Engineer", Content: "Too many meetings", SentimentScore: score(60), Quadrant: "ConcernedButActive"},
			{EmployeeID: "3", EmployeeName: "Cy", Role: "Sales", Content: "Burned out", SentimentScore: score(20), Quadrant: "AtRisk"},
		},
	}
}

func TestAnswerValidation(t *testing.T) {
	_ = logger.Init()

	Convey("Given an analyzer with a counting completer", t, func() {
		stub := &stubCompleter{reply: fixed("ok")}
		a := analysis.New(stub)
		ctx := context.Background()

		Convey("When the query is blank", func() {
			for _, q := range []string{"", "   ", "\n\t"} {
				_, errLoaded := a.Answer(ctx, q, loadedSnapshot())
				_, errEmpty := a.Answer(ctx, q, model.Empty())

				So(errors.Is(errLoaded, analysis.ErrInvalidQuery), ShouldBeTrue)
				So(errors.Is(errEmpty, analysis.ErrInvalidQuery), ShouldBeTrue)
			}

			Convey("Then the completer should never be called", func() {
				So(stub.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When no data has been loaded", func() {
			_, errNil := a.Answer(ctx, "Who is at risk?", nil)
			_, errEmpty := a.Answer(ctx, "Who is at risk?", model.Empty())
			_, errZero := a.Answer(ctx, "Who is at risk?", &model.Snapshot{Loaded: true, Records: []model.EmployeeRecord{}})

			Convey("Then every call should report not ready without calling out", func() {
				So(errors.Is(errNil, analysis.ErrNotReady), ShouldBeTrue)
				So(errors.Is(errEmpty, analysis.ErrNotReady), ShouldBeTrue)
				So(errors.Is(errZero, analysis.ErrNotReady), ShouldBeTrue)
				So(stub.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When no completer is configured", func() {
			unconfigured := analysis.New(nil)
			_, err := unconfigured.Answer(ctx, "Who is at risk?", loadedSnapshot())

			Convey("Then the analyzer should report not ready", func() {
				So(unconfigured.Configured(), ShouldBeFalse)
				So(errors.Is(err, analysis.ErrNotReady), ShouldBeTrue)
			})
		})
	})
}

func TestAnswerCompletion(t *testing.T) {
	_ = logger.Init()

	Convey("Given a loaded snapshot", t, func() {
		snap := loadedSnapshot()
		ctx := context.Background()

		Convey("When the completer answers", func() {
			stub := &stubCompleter{reply: fixed("  Engineers are mostly positive.\n")}
			a := analysis.New(stub)
			res, err := a.Answer(ctx, "  How are engineers doing?  ", snap)

			Convey("Then the text should be returned verbatim", func() {
				So(err, ShouldBeNil)
				So(res.Analysis, ShouldEqual, "  Engineers are mostly positive.\n")
				So(res.Generation, ShouldEqual, 3)
				So(res.Cached, ShouldBeFalse)
			})

			Convey("And the prompt should carry the context and the trimmed question", func() {
				So(stub.prompts, ShouldHaveLength, 1)
				p := stub.prompts[0]
				So(p, ShouldStartWith, "Context:\nTotal Employees: 3\n")
				So(p, ShouldContainSubstring, "\n\nQuestion: How are engineers doing?\n\n")
				So(p, ShouldEndWith, "Provide a detailed analysis.")
			})
		})

		Convey("When every attempt times out", func() {
			stub := &stubCompleter{reply: func(ctx context.Context, _ int32) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			}}
			a := analysis.New(stub, analysis.WithTimeout(20*time.Millisecond))
			res, err := a.Answer(ctx, "Summarize", snap)

			Convey("Then it should retry once and report the service unavailable", func() {
				So(errors.Is(err, analysis.ErrServiceUnavailable), ShouldBeTrue)
				So(res.Analysis, ShouldBeEmpty)
				So(stub.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the first attempt fails transiently", func() {
			stub := &stubCompleter{reply: func(_ context.Context, call int32) (string, error) {
				if call == 1 {
					return "", analysis.ErrTransient
				}
				return "second time lucky", nil
			}}
			a := analysis.New(stub)
			res, err := a.Answer(ctx, "Summarize", snap)

			Convey("Then the retry should succeed", func() {
				So(err, ShouldBeNil)
				So(res.Analysis, ShouldEqual, "second time lucky")
				So(stub.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the completer fails permanently", func() {
			boom := errors.New("quota exceeded")
			stub := &stubCompleter{reply: func(context.Context, int32) (string, error) { return "", boom }}
			a := analysis.New(stub)
			_, err := a.Answer(ctx, "Summarize", snap)

			Convey("Then it should not retry and should keep the cause", func() {
				So(errors.Is(err, analysis.ErrServiceUnavailable), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(stub.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When caching is enabled", func() {
			stub := &stubCompleter{reply: fixed("cached answer")}
			a := analysis.New(stub, analysis.WithCacheTTL(time.Minute))
			first, err1 := a.Answer(ctx, "Summarize", snap)
			second, err2 := a.Answer(ctx, "Summarize", snap)

			next := loadedSnapshot()
			next.ID = "snap-2"
			third, err3 := a.Answer(ctx, "Summarize", next)

			Convey("Then repeated questions on one snapshot should be served once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(first.Cached, ShouldBeFalse)
				So(second.Cached, ShouldBeTrue)
				So(second.Analysis, ShouldEqual, "cached answer")
				So(third.Cached, ShouldBeFalse)
				So(stub.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When two callers ask the same question and the first goes away", func() {
			started := make(chan struct{})
			release := make(chan struct{})
			var once sync.Once
			stub := &stubCompleter{reply: func(ctx context.Context, _ int32) (string, error) {
				once.Do(func() { close(started) })
				select {
				case <-release:
					return "shared answer", nil
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}}
			a := analysis.New(stub, analysis.WithTimeout(5*time.Second))

			firstCtx, cancelFirst := context.WithCancel(ctx)
			firstErr := make(chan error, 1)
			go func() {
				_, err := a.Answer(firstCtx, "Who is at risk?", snap)
				firstErr <- err
			}()
			<-started

			type outcome struct {
				res analysis.Result
				err error
			}
			second := make(chan outcome, 1)
			go func() {
				res, err := a.Answer(ctx, "Who is at risk?", snap)
				second <- outcome{res, err}
			}()
			time.Sleep(50 * time.Millisecond)

			cancelFirst()
			errA := <-firstErr
			close(release)
			got := <-second

			Convey("Then the remaining caller should still get the answer", func() {
				So(errors.Is(errA, context.Canceled), ShouldBeTrue)
				So(got.err, ShouldBeNil)
				So(got.res.Analysis, ShouldEqual, "shared answer")
				So(stub.calls.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestBuildContext(t *testing.T) {
	Convey("Given a loaded snapshot", t, func() {
		snap := loadedSnapshot()

		Convey("When building the context twice", func() {
			a := analysis.BuildContext(snap, analysis.DefaultLimits())
			b := analysis.BuildContext(snap, analysis.DefaultLimits())

			Convey("Then the output should be deterministic and describe the data", func() {
				So(a, ShouldEqual, b)
				So(a, ShouldContainSubstring, "Total Employees: 3")
				So(a, ShouldContainSubstring, "Average Sentiment: 53.3%")
				So(a, ShouldContainSubstring, "Quadrant Distribution: Champion: 1, ConcernedButActive: 1, Disengaged: 0, AtRisk: 1")
				So(a, ShouldContainSubstring, "Sentiment by Role: Engineer: 70.0%, Sales: 20.0%")
				So(a, ShouldContainSubstring, "- Cy (Sales, 20.0%, AtRisk): Burned out")
			})
		})

		Convey("When the dataset is much larger than the limits", func() {
			big := &model.Snapshot{ID: "big", Loaded: true}
			long := strings.Repeat("word ", 200)
			for i := 0; i < 5000; i++ {
				role := "Role" + string(rune('A'+i%40))
				big.Records = append(big.Records, model.EmployeeRecord{
					EmployeeName:   "Someone",
					Role:           role,
					Content:        long,
					SentimentScore: score(float64(i % 100)),
					Quadrant:       "Disengaged",
				})
			}
			limits := analysis.Limits{MaxSamples: 5, MaxContentRunes: 50, MaxRoles: 10, MaxContextRunes: 1500}
			out := analysis.BuildContext(big, limits)

			Convey("Then the context should respect every bound", func() {
				So(len([]rune(out)), ShouldBeLessThanOrEqualTo, 1500)
				So(out, ShouldContainSubstring, "Sample Feedback (5 of 5000):")
				So(out, ShouldContainSubstring, "(+30 more roles)")
			})
		})

		Convey("When the snapshot is empty", func() {
			out := analysis.BuildContext(model.Empty(), analysis.DefaultLimits())

			Convey("Then only the headline figures should be present", func() {
				So(out, ShouldContainSubstring, "Total Employees: 0")
				So(out, ShouldNotContainSubstring, "Sample Feedback")
			})
		})
	})
}
