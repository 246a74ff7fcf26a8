package service_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kitaoji/hensachi/internal/adapters/statsapi"
	service "github.com/kitaoji/hensachi/internal/app"
	"github.com/kitaoji/hensachi/internal/domain/model"
	"github.com/kitaoji/hensachi/internal/domain/subject"
	"github.com/kitaoji/hensachi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeClient struct {
	rankScoreFn    func(ctx context.Context, code string) (*model.ScoreResult, error)
	metricScoresFn func(ctx context.Context, datasetSlug, metricKey string) (*model.MetricTable, error)
	submitFn       func(ctx context.Context, slug, identity string, value float64) error
	userScoreFn    func(ctx context.Context, slug string, value float64) (*model.ScoreResult, error)
	historyFn      func(ctx context.Context, slug, identity string, limit int) (model.HistoryWindow, error)
}

func (f *fakeClient) RankScore(ctx context.Context, code string) (*model.ScoreResult, error) {
	return f.rankScoreFn(ctx, code)
}

func (f *fakeClient) MetricScores(ctx context.Context, datasetSlug, metricKey string) (*model.MetricTable, error) {
	return f.metricScoresFn(ctx, datasetSlug, metricKey)
}

func (f *fakeClient) SubmitValue(ctx context.Context, slug, identity string, value float64) error {
	return f.submitFn(ctx, slug, identity, value)
}

func (f *fakeClient) UserScore(ctx context.Context, slug string, value float64) (*model.ScoreResult, error) {
	return f.userScoreFn(ctx, slug, value)
}

func (f *fakeClient) History(ctx context.Context, slug, identity string, limit int) (model.HistoryWindow, error) {
	return f.historyFn(ctx, slug, identity, limit)
}

type fakeIdentity struct{}

func (fakeIdentity) GetOrCreate(context.Context) string { return "hash-1" }

func score(v float64) *model.ScoreResult { return &model.ScoreResult{Score: v} }

// eventually polls cond until it holds or a second passes.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestFetch(t *testing.T) {
	Convey("Given a view over a well-behaved collaborator", t, func() {
		fc := &fakeClient{
			rankScoreFn: func(_ context.Context, code string) (*model.ScoreResult, error) {
				return score(61.2), nil
			},
			historyFn: func(_ context.Context, slug, identity string, limit int) (model.HistoryWindow, error) {
				return model.HistoryWindow{{ID: 1, Value: "70"}}, nil
			},
		}
		v := service.NewView(fc, fakeIdentity{})
		ctx := context.Background()

		Convey("When a rank subject is loaded", func() {
			err := v.Fetch(ctx, subject.NewRank("gold-2"))

			Convey("Then the view settles on success with the result", func() {
				So(err, ShouldBeNil)
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateSuccess)
				So(st.Subject.RankCode, ShouldEqual, "gold-2")
				So(st.Result.Score, ShouldEqual, 61.2)
				So(st.Err, ShouldBeBlank)
			})
		})

		Convey("When a user-metric subject is loaded", func() {
			err := v.Fetch(ctx, subject.NewUserMetric("typing-speed"))

			Convey("Then the history window is populated", func() {
				So(err, ShouldBeNil)
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateSuccess)
				So(st.Window, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a collaborator that rejects the subject", t, func() {
		fc := &fakeClient{
			rankScoreFn: func(context.Context, string) (*model.ScoreResult, error) {
				return nil, statsapi.ErrNotFound
			},
		}
		v := service.NewView(fc, fakeIdentity{})

		Convey("When the load fails", func() {
			err := v.Fetch(context.Background(), subject.NewRank("plastic-7"))

			Convey("Then the failure clears the result and keeps a human message", func() {
				So(err, ShouldNotBeNil)
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateFailure)
				So(st.Result, ShouldBeNil)
				So(st.Err, ShouldContainSubstring, "does not recognize")
			})
		})
	})
}

func TestFetch_LastIssuedWins(t *testing.T) {
	Convey("Given two overlapping loads where the first resolves last", t, func() {
		started := make(chan string, 2)
		release := map[string]chan struct{}{
			"gold-2": make(chan struct{}),
			"master": make(chan struct{}),
		}
		fc := &fakeClient{
			rankScoreFn: func(_ context.Context, code string) (*model.ScoreResult, error) {
				started <- code
				<-release[code]
				if code == "master" {
					return score(70), nil
				}
				return score(55), nil
			},
		}
		v := service.NewView(fc, fakeIdentity{})
		ctx := context.Background()

		errA := make(chan error, 1)
		errB := make(chan error, 1)

		go func() { errA <- v.Fetch(ctx, subject.NewRank("gold-2")) }()
		So(<-started, ShouldEqual, "gold-2")
		go func() { errB <- v.Fetch(ctx, subject.NewRank("master")) }()
		So(<-started, ShouldEqual, "master")

		Convey("When the later request completes first", func() {
			close(release["master"])
			So(<-errB, ShouldBeNil)
			close(release["gold-2"])
			So(<-errA, ShouldBeNil)

			Convey("Then the view shows the later request's outcome", func() {
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateSuccess)
				So(st.Subject.RankCode, ShouldEqual, "master")
				So(st.Result.Score, ShouldEqual, 70)
			})
		})
	})
}

func TestFetch_KeepsResultWhileLoading(t *testing.T) {
	Convey("Given a successful result on screen", t, func() {
		block := make(chan struct{})
		started := make(chan struct{}, 1)
		calls := int32(0)
		fc := &fakeClient{
			rankScoreFn: func(context.Context, string) (*model.ScoreResult, error) {
				if atomic.AddInt32(&calls, 1) > 1 {
					started <- struct{}{}
					<-block
				}
				return score(61.2), nil
			},
		}
		v := service.NewView(fc, fakeIdentity{})
		ctx := context.Background()
		So(v.Fetch(ctx, subject.NewRank("gold-2")), ShouldBeNil)

		Convey("When a new load is in flight", func() {
			done := make(chan error, 1)
			go func() { done <- v.Fetch(ctx, subject.NewRank("master")) }()
			<-started

			Convey("Then the previous result stays visible during loading", func() {
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateLoading)
				So(st.Result, ShouldNotBeNil)
				So(st.Err, ShouldBeBlank)

				close(block)
				So(<-done, ShouldBeNil)
			})
		})
	})
}

func TestSubmit(t *testing.T) {
	Convey("Given a view on a user-metric subject", t, func() {
		historyCalls := int32(0)
		fc := &fakeClient{
			submitFn: func(context.Context, string, string, float64) error { return nil },
			userScoreFn: func(_ context.Context, _ string, value float64) (*model.ScoreResult, error) {
				return score(58.3), nil
			},
			historyFn: func(context.Context, string, string, int) (model.HistoryWindow, error) {
				atomic.AddInt32(&historyCalls, 1)
				return model.HistoryWindow{{ID: 2, Value: "90"}, {ID: 1, Value: "70"}}, nil
			},
		}
		v := service.NewView(fc, fakeIdentity{})
		ctx := context.Background()
		So(v.Fetch(ctx, subject.NewUserMetric("typing-speed")), ShouldBeNil)

		Convey("When a value is submitted", func() {
			err := v.Submit(ctx, 90)

			Convey("Then the recomputed score lands and the window refreshes", func() {
				So(err, ShouldBeNil)
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateSuccess)
				So(st.Result.Score, ShouldEqual, 58.3)
				So(eventually(func() bool {
					return atomic.LoadInt32(&historyCalls) >= 2 && len(v.Snapshot().Window) == 2
				}), ShouldBeTrue)
			})
		})

		Convey("When the submit itself fails", func() {
			So(v.Recompute(ctx, 70), ShouldBeNil)
			before := v.Snapshot().Result
			fc.submitFn = func(context.Context, string, string, float64) error {
				return statsapi.ErrServer
			}
			refreshesBefore := atomic.LoadInt32(&historyCalls)

			err := v.Submit(ctx, 90)

			Convey("Then the transition aborts and the prior result survives", func() {
				So(err, ShouldNotBeNil)
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateFailure)
				So(st.Result, ShouldEqual, before)
				So(atomic.LoadInt32(&historyCalls), ShouldEqual, refreshesBefore)
			})
		})

		Convey("When the recompute fails after a durable submit", func() {
			fc.userScoreFn = func(context.Context, string, float64) (*model.ScoreResult, error) {
				return nil, statsapi.ErrServer
			}
			refreshesBefore := atomic.LoadInt32(&historyCalls)

			err := v.Submit(ctx, 90)

			Convey("Then the error surfaces but the window still refreshes", func() {
				So(err, ShouldNotBeNil)
				st := v.Snapshot()
				So(st.State, ShouldEqual, service.StateFailure)
				So(st.Result, ShouldBeNil)
				So(eventually(func() bool {
					return atomic.LoadInt32(&historyCalls) > refreshesBefore
				}), ShouldBeTrue)
			})
		})
	})

	Convey("Given a view not on a user-metric subject", t, func() {
		v := service.NewView(&fakeClient{}, fakeIdentity{})

		Convey("Then submit and recompute refuse to run", func() {
			So(errors.Is(v.Submit(context.Background(), 1), service.ErrNotUserMetric), ShouldBeTrue)
			So(errors.Is(v.Recompute(context.Background(), 1), service.ErrNotUserMetric), ShouldBeTrue)
			So(errors.Is(v.RefreshHistory(context.Background()), service.ErrNotUserMetric), ShouldBeTrue)
		})
	})
}

func TestRecompute(t *testing.T) {
	Convey("Given a view on a user-metric subject", t, func() {
		submits := int32(0)
		fc := &fakeClient{
			submitFn: func(context.Context, string, string, float64) error {
				atomic.AddInt32(&submits, 1)
				return nil
			},
			userScoreFn: func(_ context.Context, _ string, value float64) (*model.ScoreResult, error) {
				return score(49.1), nil
			},
			historyFn: func(context.Context, string, string, int) (model.HistoryWindow, error) {
				return nil, nil
			},
		}
		v := service.NewView(fc, fakeIdentity{})
		ctx := context.Background()
		So(v.Fetch(ctx, subject.NewUserMetric("typing-speed")), ShouldBeNil)

		Convey("When a candidate value is scored", func() {
			err := v.Recompute(ctx, 65)

			Convey("Then nothing is recorded", func() {
				So(err, ShouldBeNil)
				So(v.Snapshot().Result.Score, ShouldEqual, 49.1)
				So(atomic.LoadInt32(&submits), ShouldEqual, 0)
			})
		})
	})
}

func TestRefreshHistory(t *testing.T) {
	Convey("Given a view on a user-metric subject", t, func() {
		window := model.HistoryWindow{{ID: 1, Value: "70"}}
		fc := &fakeClient{
			historyFn: func(_ context.Context, slug, identity string, limit int) (model.HistoryWindow, error) {
				So(identity, ShouldEqual, "hash-1")
				return window, nil
			},
		}
		v := service.NewView(fc, fakeIdentity{}, service.WithHistoryLimit(5))
		ctx := context.Background()
		So(v.Fetch(ctx, subject.NewUserMetric("typing-speed")), ShouldBeNil)

		Convey("When the window is refreshed after new data appears", func() {
			window = model.HistoryWindow{{ID: 2, Value: "90"}, {ID: 1, Value: "70"}}

			Convey("Then the view picks it up", func() {
				So(v.RefreshHistory(ctx), ShouldBeNil)
				So(v.Snapshot().Window, ShouldHaveLength, 2)
			})
		})

		Convey("When the refresh fails", func() {
			fc.historyFn = func(context.Context, string, string, int) (model.HistoryWindow, error) {
				return nil, statsapi.ErrNetwork
			}

			Convey("Then the previous window is kept", func() {
				So(v.RefreshHistory(ctx), ShouldNotBeNil)
				So(v.Snapshot().Window, ShouldHaveLength, 1)
			})
		})
	})
}
