// Package manager owns the per-account polling loops and serializes their
// writes into the grade store.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oralet86/au-notlar/services/gradestore"
	"github.com/oralet86/au-notlar/services/obs"
)

// ScrapeRunner is one account's session; *obs.Session satisfies it.
type ScrapeRunner interface {
	Run(ctx context.Context) ([]obs.LectureResult, error)
}

// Notifier consumes the change events an upsert produced.
type Notifier interface {
	NotifyChanges(ctx context.Context, changes []gradestore.Change)
}

// GradeStore persists one account's reconciled scrape results.
// gradestore.Store satisfies it.
type GradeStore interface {
	Upsert(ctx context.Context, accountLabel string, lectures []gradestore.LectureResult) ([]gradestore.Change, error)
}

type Options struct {
	Accounts []obs.Account
	Interval time.Duration
	Store    GradeStore
	// Notifier may be nil, in which case changes are only logged.
	Notifier  Notifier
	NewRunner func(account obs.Account) (ScrapeRunner, error)
}

type Manager struct {
	accounts  []obs.Account
	interval  time.Duration
	store     GradeStore
	notifier  Notifier
	newRunner func(account obs.Account) (ScrapeRunner, error)

	// guards all store writes; scrapes themselves run in parallel
	writeLock sync.Mutex
}

func New(opts Options) (*Manager, error) {
	if len(opts.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("a grade store is required")
	}
	if opts.NewRunner == nil {
		return nil, fmt.Errorf("a runner constructor is required")
	}
	return &Manager{
		accounts:  opts.Accounts,
		interval:  opts.Interval,
		store:     opts.Store,
		notifier:  opts.Notifier,
		newRunner: opts.NewRunner,
	}, nil
}

// Run constructs every account's session up front, then starts one polling
// goroutine per account and blocks until all of them exit. Constructing
// before starting means a bad account aborts the whole start instead of
// launching a partial fleet.
func (m *Manager) Run(ctx context.Context) error {
	runners := make([]ScrapeRunner, len(m.accounts))
	for i, account := range m.accounts {
		runner, err := m.newRunner(account)
		if err != nil {
			return fmt.Errorf("construct session for %q: %w", account.Label, err)
		}
		runners[i] = runner
	}
	slog.InfoContext(ctx, "all sessions constructed", "accounts", len(m.accounts))

	wg := sync.WaitGroup{}
	for i, account := range m.accounts {
		wg.Add(1)
		go func(account obs.Account, runner ScrapeRunner) {
			defer wg.Done()
			m.pollAccount(ctx, account, runner)
		}(account, runners[i])
	}
	wg.Wait()
	return nil
}

// pollAccount runs scrape cycles on a fixed cadence measured from cycle
// start, so scrape duration is subtracted from the wait.
func (m *Manager) pollAccount(ctx context.Context, account obs.Account, runner ScrapeRunner) {
	slog.InfoContext(ctx, "starting poll loop", "account", account.Label, "interval", m.interval)

	for {
		start := time.Now()

		results, err := runner.Run(ctx)
		switch {
		case err == nil:
			changes, err := m.reconcile(ctx, account.Label, results)
			if err != nil {
				slog.ErrorContext(ctx, "failed to reconcile scrape results", "account", account.Label, "err", err)
			} else if len(changes) > 0 {
				slog.InfoContext(ctx, "grade changes detected", "account", account.Label, "changes", len(changes))
				if m.notifier != nil {
					m.notifier.NotifyChanges(ctx, changes)
				}
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case errors.Is(err, obs.ErrRowMismatch):
			// the account's results cannot be trusted; stop this loop and
			// leave the other accounts running
			slog.ErrorContext(ctx, "stopping account, results table misaligned", "account", account.Label, "err", err)
			return
		default:
			slog.WarnContext(ctx, "scrape cycle failed", "account", account.Label, "err", err)
		}

		elapsed := time.Since(start)
		wait := m.interval - elapsed
		if wait < 0 {
			wait = 0
		}
		slog.InfoContext(
			ctx, "cycle complete",
			"account", account.Label,
			"elapsed", elapsed.Round(time.Millisecond),
			"next_in", wait.Round(time.Millisecond),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (m *Manager) reconcile(ctx context.Context, label string, results []obs.LectureResult) ([]gradestore.Change, error) {
	lectures := make([]gradestore.LectureResult, len(results))
	for i, lecture := range results {
		exams := make([]gradestore.ExamEntry, len(lecture.Exams))
		for j, exam := range lecture.Exams {
			exams[j] = gradestore.ExamEntry{
				Name:       exam.Name,
				Percentage: exam.Percentage,
				Date:       exam.Date,
			}
		}
		lectures[i] = gradestore.LectureResult{
			Name:  lecture.Name,
			Exams: exams,
		}
	}

	m.writeLock.Lock()
	defer m.writeLock.Unlock()
	return m.store.Upsert(ctx, label, lectures)
}
