// Package service provides the per-view orchestration core: it sequences
// fetch, submit, and refresh calls against the statistics collaborator and
// owns the view state those calls produce.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kitaoji/hensachi/internal/adapters/statsapi"
	"github.com/kitaoji/hensachi/internal/config"
	"github.com/kitaoji/hensachi/internal/domain/model"
	"github.com/kitaoji/hensachi/internal/domain/subject"
	"github.com/kitaoji/hensachi/pkg/logger"
	"github.com/kitaoji/hensachi/pkg/metrics"
)

// StatsClient is the slice of the collaborator boundary the orchestrator
// consumes. Implementations must not retry or cache.
type StatsClient interface {
	RankScore(ctx context.Context, code string) (*model.ScoreResult, error)
	MetricScores(ctx context.Context, datasetSlug, metricKey string) (*model.MetricTable, error)
	SubmitValue(ctx context.Context, userMetricSlug, identity string, value float64) error
	UserScore(ctx context.Context, userMetricSlug string, value float64) (*model.ScoreResult, error)
	History(ctx context.Context, userMetricSlug, identity string, limit int) (model.HistoryWindow, error)
}

// IdentitySource supplies the opaque anonymous token for user-metric calls.
type IdentitySource interface {
	GetOrCreate(ctx context.Context) string
}

// State of a view's request machine.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "idle"
	}
}

// ViewState is the mutable state of one view. Exactly one exists per View;
// read it through Snapshot.
type ViewState struct {
	Subject subject.Subject
	State   State
	Err     string

	// Result holds the last score fetch; Table the last dataset-metric
	// table. At most one is set, matching the subject kind.
	Result *model.ScoreResult
	Table  *model.MetricTable

	// Window is the recent-history window for user-metric subjects.
	Window model.HistoryWindow
}

// View orchestrates requests for a single view. The displayed result always
// corresponds to the most recently issued request, not the most recently
// completed one: a generation counter discards stale responses. The
// previous result stays visible while a new request is in flight
// (last-known-good) and is cleared on failure.
type View struct {
	mu sync.Mutex

	client       StatsClient
	ids          IdentitySource
	historyLimit int
	logger       logger.Logger

	// Request generations: main machine and the independent history
	// refresh track.
	gen     uint64
	histGen uint64

	st ViewState
}

// Option applies a configuration option to the View.
type Option func(*View)

// WithLogger sets a custom logger for the view.
func WithLogger(l logger.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithHistoryLimit bounds the recent-history window.
func WithHistoryLimit(limit int) Option {
	return func(v *View) {
		if limit > 0 && limit <= config.MaxHistoryLimit {
			v.historyLimit = limit
		}
	}
}

// NewView constructs a view over the collaborator boundary and an identity
// source.
func NewView(client StatsClient, ids IdentitySource, opts ...Option) *View {
	v := &View{
		client:       client,
		ids:          ids,
		historyLimit: config.DefaultHistoryLimit,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.logger == nil {
		v.logger = logger.Get().Named("view")
	}

	v.st = ViewState{Subject: subject.Default(), State: StateIdle}

	return v
}

// Snapshot returns a copy of the current view state. The referenced result
// records are immutable once received, so sharing them is safe.
func (v *View) Snapshot() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.st
}

// Fetch loads the given subject: rank score, dataset-metric table, or the
// recent-history window for a user metric. Issuing a new Fetch while one is
// in flight is allowed; the last issued request wins regardless of
// completion order.
func (v *View) Fetch(ctx context.Context, subj subject.Subject) error {
	gen := v.begin(subj)

	switch subj.Kind {
	case subject.KindDatasetMetric:
		table, err := v.client.MetricScores(ctx, subj.DatasetSlug, subj.MetricKey)
		return v.finishTable(ctx, gen, table, err)
	case subject.KindUserMetric:
		identity := v.ids.GetOrCreate(ctx)
		window, err := v.client.History(ctx, subj.UserSlug, identity, v.historyLimit)
		return v.finishWindow(ctx, gen, window, err)
	default:
		res, err := v.client.RankScore(ctx, subj.RankCode)
		return v.finishResult(ctx, gen, res, err)
	}
}

// Recompute fetches the score for a candidate value of the current
// user-metric subject without recording it.
func (v *View) Recompute(ctx context.Context, value float64) error {
	subj, err := v.userSubject()
	if err != nil {
		return err
	}

	gen := v.begin(subj)
	res, rerr := v.client.UserScore(ctx, subj.UserSlug, value)
	return v.finishResult(ctx, gen, res, rerr)
}

// Submit runs the compound submit-then-recompute transition: record the
// value, recompute its score, then refresh the history window in the
// background. A submit failure aborts the whole transition and leaves the
// previously displayed result untouched. A recompute failure after a
// successful submit still triggers the history refresh, because the value
// was recorded, and surfaces the recompute error.
func (v *View) Submit(ctx context.Context, value float64) error {
	subj, err := v.userSubject()
	if err != nil {
		return err
	}

	gen := v.begin(subj)
	identity := v.ids.GetOrCreate(ctx)

	if serr := v.client.SubmitValue(ctx, subj.UserSlug, identity, value); serr != nil {
		metrics.RecordSubmitOutcome("submit_failed")
		return v.failKeepResult(ctx, gen, serr)
	}
	metrics.RecordSubmitOutcome("submitted")

	res, rerr := v.client.UserScore(ctx, subj.UserSlug, value)

	// The submission is durable either way; the window must reflect it.
	v.refreshHistoryAsync(ctx, subj.UserSlug, identity)

	if rerr != nil {
		metrics.RecordSubmitOutcome("recompute_failed")
	}
	return v.finishResult(ctx, gen, res, rerr)
}

// RefreshHistory reloads the recent-history window for the current
// user-metric subject. Last issued wins on its own generation track,
// independent of the main request machine.
func (v *View) RefreshHistory(ctx context.Context) error {
	subj, err := v.userSubject()
	if err != nil {
		return err
	}

	identity := v.ids.GetOrCreate(ctx)
	hgen := v.beginHistory()

	window, herr := v.client.History(ctx, subj.UserSlug, identity, v.historyLimit)
	if herr != nil {
		return fmt.Errorf("refresh history: %w", herr)
	}
	v.applyHistory(ctx, hgen, window)
	return nil
}

// refreshHistoryAsync is the fire-and-forget trailing refresh of the
// compound submit transition. Its failure never rolls back or hides the
// submit outcome; it is counted and logged only.
func (v *View) refreshHistoryAsync(ctx context.Context, slug, identity string) {
	hgen := v.beginHistory()
	bg := context.WithoutCancel(ctx)

	go func() {
		window, err := v.client.History(bg, slug, identity, v.historyLimit)
		if err != nil {
			metrics.RecordHistoryRefreshFailure()
			v.logger.Warn(bg, "history refresh failed; keeping previous window",
				logger.String("slug", slug),
				logger.Error(err),
			)
			return
		}
		v.applyHistory(bg, hgen, window)
	}()
}

// begin opens a new request generation: loading, error cleared immediately,
// previous result retained until the outcome arrives.
func (v *View) begin(subj subject.Subject) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.st.Subject = subj
	v.st.State = StateLoading
	v.st.Err = ""
	return v.gen
}

func (v *View) beginHistory() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.histGen++
	return v.histGen
}

// finishResult applies a score outcome if its generation is still current.
// Failures clear the displayed result so stale data never sits next to an
// error message.
func (v *View) finishResult(ctx context.Context, gen uint64, res *model.ScoreResult, err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.discardStale(ctx, gen)
		return nil
	}
	if err != nil {
		v.st.State = StateFailure
		v.st.Err = messageFor(err)
		v.st.Result = nil
		v.st.Table = nil
		return err
	}
	v.st.State = StateSuccess
	v.st.Result = res
	v.st.Table = nil
	return nil
}

func (v *View) finishTable(ctx context.Context, gen uint64, table *model.MetricTable, err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.discardStale(ctx, gen)
		return nil
	}
	if err != nil {
		v.st.State = StateFailure
		v.st.Err = messageFor(err)
		v.st.Result = nil
		v.st.Table = nil
		return err
	}
	v.st.State = StateSuccess
	v.st.Table = table
	v.st.Result = nil
	return nil
}

func (v *View) finishWindow(ctx context.Context, gen uint64, window model.HistoryWindow, err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.discardStale(ctx, gen)
		return nil
	}
	if err != nil {
		v.st.State = StateFailure
		v.st.Err = messageFor(err)
		v.st.Result = nil
		v.st.Table = nil
		return err
	}
	v.st.State = StateSuccess
	v.st.Window = window
	return nil
}

// failKeepResult marks the view failed without clearing the displayed
// result. Used when a submit never went through: what was on screen is
// still accurate.
func (v *View) failKeepResult(ctx context.Context, gen uint64, err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.discardStale(ctx, gen)
		return nil
	}
	v.st.State = StateFailure
	v.st.Err = messageFor(err)
	return err
}

// applyHistory replaces the window wholesale if its generation is current.
func (v *View) applyHistory(ctx context.Context, hgen uint64, window model.HistoryWindow) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if hgen != v.histGen {
		v.discardStale(ctx, hgen)
		return
	}
	v.st.Window = window
}

func (v *View) discardStale(ctx context.Context, gen uint64) {
	metrics.RecordStaleDiscard()
	v.logger.Debug(ctx, "discarding stale response",
		logger.Uint64("generation", gen),
	)
}

func (v *View) userSubject() (subject.Subject, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.st.Subject.Kind != subject.KindUserMetric {
		return subject.Subject{}, ErrNotUserMetric
	}
	return v.st.Subject, nil
}

// messageFor flattens an error into the single human-readable message
// attached to the view state.
func messageFor(err error) string {
	var se *statsapi.StatusError
	switch {
	case errors.Is(err, statsapi.ErrValidation):
		return "enter a valid number"
	case errors.Is(err, statsapi.ErrNotFound):
		return "the statistics service does not recognize this subject"
	case errors.Is(err, statsapi.ErrNetwork):
		return "could not reach the statistics service"
	case errors.As(err, &se):
		return fmt.Sprintf("statistics service error (status %d)", se.Status)
	default:
		return err.Error()
	}
}
