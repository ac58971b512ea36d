package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrJJimenez/applycli/internal/classify"
	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/MrJJimenez/applycli/internal/portal"
	"github.com/MrJJimenez/applycli/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RecordStore is the slice of the store the runner needs. Transitions go
// through Upsert, which owns the terminal-state invariant.
type RecordStore interface {
	Lookup(ctx context.Context, id models.JobIdentifier) (models.JobRecord, error)
	Upsert(ctx context.Context, id models.JobIdentifier, status models.Status, reason string, attempts int) (models.JobRecord, error)
}

// Applier is the executor contract: submit one posting, return how many
// attempts it took and the final error.
type Applier interface {
	Execute(ctx context.Context, id models.JobIdentifier, profile models.Profile) (int, error)
}

// AppliedEntry is one applied-jobs report row.
type AppliedEntry struct {
	ID        models.JobIdentifier `json:"id"`
	AppliedAt time.Time            `json:"applied_at"`
}

// ShortlistEntry is one shortlisted-jobs report row.
type ShortlistEntry struct {
	ID            models.JobIdentifier `json:"id"`
	Reason        string               `json:"reason"`
	ShortlistedAt time.Time            `json:"shortlisted_at"`
}

// FailedEntry is one failed-jobs report row. Attempts counts collaborator
// attempts made this run, retries included.
type FailedEntry struct {
	ID       models.JobIdentifier `json:"id"`
	Reason   string               `json:"reason"`
	Attempts int                  `json:"attempts"`
}

// Result is everything a run produced. It is populated even when the run
// aborts early, so reports can always be flushed.
type Result struct {
	Summary     models.RunSummary
	Applied     []AppliedEntry
	Shortlisted []ShortlistEntry
	Failed      []FailedEntry
}

// Runner walks candidates from search through observe, classify, execute and
// persist, one posting at a time. The collaborator session is a single shared
// resource; nothing here runs submissions concurrently.
type Runner struct {
	cfg      models.RunConfig
	profile  models.Profile
	records  RecordStore
	searcher portal.Searcher
	observer portal.Observer
	applier  Applier
	logger   zerolog.Logger
	dryRun   bool
	now      func() time.Time
	sleep    func(context.Context, time.Duration)
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithDryRun makes the run observe and classify without submitting or
// writing the store.
func WithDryRun(enabled bool) Option {
	return func(r *Runner) { r.dryRun = enabled }
}

func withClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func withSleep(fn func(context.Context, time.Duration)) Option {
	return func(r *Runner) { r.sleep = fn }
}

func New(cfg models.RunConfig, profile models.Profile, records RecordStore, searcher portal.Searcher, observer portal.Observer, applier Applier, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		profile:  profile,
		records:  records,
		searcher: searcher,
		observer: observer,
		applier:  applier,
		logger:   zerolog.Nop(),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one full cycle: search, dedup, process, finalize. The Result
// is always valid, including on abort; the returned error is the fatal cause
// when the run could not finish normally (expired session, store integrity
// failure).
func (r *Runner) Run(ctx context.Context) (Result, error) {
	result := Result{
		Summary: models.RunSummary{
			StartedAt: r.now().UTC(),
			Config:    r.cfg,
		},
	}

	candidates, fatal := r.search(ctx)
	if fatal == nil {
		result.Summary.Candidates = len(candidates)
		r.logger.Info().Int("candidates", len(candidates)).Msg("search complete")
		fatal = r.process(ctx, candidates, &result)
	}

	result.Summary.FinishedAt = r.now().UTC()
	if fatal != nil {
		result.Summary.Aborted = true
		result.Summary.AbortReason = fatal.Error()
	}
	return result, fatal
}

// search fans out over query/location pairs and merges results with in-run
// dedup by canonical identifier. Per-pair failures are logged and skipped;
// search is read-only, so the only fatal outcome is an expired session, which
// aborts the whole run like it does everywhere else.
func (r *Runner) search(ctx context.Context) ([]models.Posting, error) {
	locations := r.cfg.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	var (
		mu  sync.Mutex
		all []models.Posting
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, query := range r.cfg.SearchQueries {
		for _, location := range locations {
			query, location := query, location
			group.Go(func() error {
				postings, err := r.searcher.Search(groupCtx, query, location)
				if errors.Is(err, portal.ErrSessionExpired) {
					return fmt.Errorf("search %q: %w", query, err)
				}
				if err != nil {
					r.logger.Warn().Err(err).Str("query", query).Str("location", location).Msg("search query failed")
					return nil
				}
				mu.Lock()
				all = append(all, postings...)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return dedupePostings(all), nil
}

func dedupePostings(postings []models.Posting) []models.Posting {
	seen := make(map[models.JobIdentifier]struct{}, len(postings))
	out := make([]models.Posting, 0, len(postings))
	for _, posting := range postings {
		if posting.ID == "" {
			continue
		}
		if _, ok := seen[posting.ID]; ok {
			continue
		}
		seen[posting.ID] = struct{}{}
		out = append(out, posting)
	}
	return out
}

// process walks candidates strictly sequentially. The returned error, if any,
// is fatal to the run; everything already processed stays in the result.
func (r *Runner) process(ctx context.Context, candidates []models.Posting, result *Result) error {
	for _, candidate := range candidates {
		// Cancellation and cap are both checked between jobs; remaining
		// candidates are left unprocessed for a future run.
		if ctx.Err() != nil {
			r.logger.Info().Msg("run cancelled")
			return nil
		}
		if r.cfg.MaxApplicationsPerRun > 0 && result.Summary.Applied >= r.cfg.MaxApplicationsPerRun {
			r.logger.Info().Int("cap", r.cfg.MaxApplicationsPerRun).Msg("application cap reached")
			return nil
		}

		known, err := r.alreadyHandled(ctx, candidate.ID)
		if err != nil {
			return fmt.Errorf("store lookup: %w", err)
		}
		if known {
			continue
		}

		obs, err := r.observer.Observe(ctx, candidate.ID)
		if err != nil {
			if errors.Is(err, portal.ErrSessionExpired) {
				return fmt.Errorf("observe %s: %w", candidate.ID, err)
			}
			// Unobservable this run: no store write, retried next run.
			r.logger.Warn().Err(err).Str("job", string(candidate.ID)).Msg("posting not observable, deferring")
			continue
		}
		result.Summary.Observed++

		decision := classify.Classify(obs, r.cfg.Policy)
		r.logger.Debug().
			Str("job", string(candidate.ID)).
			Str("action", string(decision.Action)).
			Str("reason", decision.Reason).
			Msg("classified")

		if err := r.act(ctx, candidate.ID, decision, result); err != nil {
			return err
		}
	}
	return nil
}

// alreadyHandled reports whether the record exists in a state this run must
// not touch: terminal, pending human action (shortlisted), or anything that
// is not an explicit retryable failure.
func (r *Runner) alreadyHandled(ctx context.Context, id models.JobIdentifier) (bool, error) {
	record, err := r.records.Lookup(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return record.Status != models.StatusFailed, nil
}

func (r *Runner) act(ctx context.Context, id models.JobIdentifier, decision models.Decision, result *Result) error {
	now := r.now().UTC()

	switch decision.Action {
	case models.ActionSkip:
		if err := r.transition(ctx, id, models.StatusSkipped, decision.Reason, 1); err != nil {
			return err
		}
		result.Summary.Skipped++
		return nil

	case models.ActionShortlist:
		if err := r.transition(ctx, id, models.StatusShortlisted, decision.Reason, 1); err != nil {
			return err
		}
		result.Summary.Shortlisted++
		result.Shortlisted = append(result.Shortlisted, ShortlistEntry{ID: id, Reason: decision.Reason, ShortlistedAt: now})
		return nil

	case models.ActionAutoApply:
		return r.apply(ctx, id, result)

	default:
		return fmt.Errorf("unknown decision action %q", decision.Action)
	}
}

func (r *Runner) apply(ctx context.Context, id models.JobIdentifier, result *Result) error {
	if r.dryRun {
		r.logger.Info().Str("job", string(id)).Msg("dry-run: would apply")
		result.Summary.Applied++
		result.Applied = append(result.Applied, AppliedEntry{ID: id, AppliedAt: r.now().UTC()})
		return nil
	}

	attempts, execErr := r.applier.Execute(ctx, id, r.profile)

	// The pause is mandatory after every executor invocation, success or
	// not; shortlist/skip make no network-visible action and take none.
	defer r.sleep(ctx, r.cfg.DelayBetweenApplications)

	if execErr == nil {
		if err := r.transition(ctx, id, models.StatusApplied, "", attempts); err != nil {
			return err
		}
		result.Summary.Applied++
		result.Applied = append(result.Applied, AppliedEntry{ID: id, AppliedAt: r.now().UTC()})
		r.logger.Info().Str("job", string(id)).Int("attempts", attempts).Msg("applied")
		return nil
	}

	kind := portal.KindOf(execErr)
	if err := r.transition(ctx, id, models.StatusFailed, string(kind), attempts); err != nil {
		return err
	}
	result.Summary.Failed++
	result.Failed = append(result.Failed, FailedEntry{ID: id, Reason: string(kind), Attempts: attempts})
	r.logger.Warn().Err(execErr).Str("job", string(id)).Int("attempts", attempts).Msg("application failed")

	if kind == portal.FailureSessionExpired {
		return fmt.Errorf("session expired: %w", execErr)
	}
	return nil
}

// transition requests a status change through the store. A terminal-state
// violation here is a bug, not an operational failure, and aborts the run.
func (r *Runner) transition(ctx context.Context, id models.JobIdentifier, status models.Status, reason string, attempts int) error {
	if r.dryRun {
		return nil
	}
	if _, err := r.records.Upsert(ctx, id, status, reason, attempts); err != nil {
		return fmt.Errorf("record %s as %s: %w", id, status, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
