package manager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oralet86/au-notlar/lib/telemetry"
	"github.com/oralet86/au-notlar/services/gradestore"
	"github.com/oralet86/au-notlar/services/gradestore/db"
	"github.com/oralet86/au-notlar/services/obs"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"
)

func setupStore(t testing.TB) (gradestore.Store, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/manager")

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return gradestore.NewStore(sqlite), cleanup
}

// fakeRunner records cycle start times and plays back a fixed scrape
// duration and per-cycle outcome.
type fakeRunner struct {
	mu       sync.Mutex
	duration time.Duration
	results  []obs.LectureResult
	err      error
	starts   []time.Time
}

func (r *fakeRunner) Run(ctx context.Context) ([]obs.LectureResult, error) {
	r.mu.Lock()
	r.starts = append(r.starts, time.Now())
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.duration):
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.results, nil
}

func (r *fakeRunner) cycleStarts() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time{}, r.starts...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []gradestore.Change
}

func (n *recordingNotifier) NotifyChanges(ctx context.Context, changes []gradestore.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, changes...)
}

func singleLecture() []obs.LectureResult {
	return []obs.LectureResult{
		{
			Name: "Algorithms",
			Exams: []obs.ExamEntry{
				{Name: "Midterm", Percentage: "40%", Date: "2024-03-01"},
			},
		},
	}
}

func TestCadenceMeasuredFromCycleStart(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	// a 100ms scrape with a 200ms interval should start the next cycle
	// roughly 200ms after the previous start, not 200ms after completion
	runner := &fakeRunner{duration: 100 * time.Millisecond, results: singleLecture()}
	m, err := New(Options{
		Accounts: []obs.Account{{Label: "Computer Engineering"}},
		Interval: 200 * time.Millisecond,
		Store:    store,
		NewRunner: func(obs.Account) (ScrapeRunner, error) {
			return runner, nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	starts := runner.cycleStarts()
	require.GreaterOrEqual(t, len(starts), 3)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		require.GreaterOrEqual(t, gap, 190*time.Millisecond)
		require.Less(t, gap, 290*time.Millisecond)
	}
}

func TestChangesAreDispatched(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	runner := &fakeRunner{results: singleLecture()}
	notifier := &recordingNotifier{}
	m, err := New(Options{
		Accounts: []obs.Account{{Label: "Computer Engineering"}},
		Interval: 50 * time.Millisecond,
		Store:    store,
		Notifier: notifier,
		NewRunner: func(obs.Account) (ScrapeRunner, error) {
			return runner, nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	// the first cycle inserts one exam, later identical cycles change nothing
	require.Len(t, notifier.changes, 1)
	require.Equal(t, "Algorithms", notifier.changes[0].LectureName)
	require.Equal(t, "Midterm", notifier.changes[0].ExamName)
}

func TestAccountFailureIsolation(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	broken := &fakeRunner{err: fmt.Errorf("%w: 5 primary, 1 surveyed, 3 detail", obs.ErrRowMismatch)}
	healthy := &fakeRunner{results: singleLecture()}

	m, err := New(Options{
		Accounts: []obs.Account{
			{Label: "Broken Department"},
			{Label: "Computer Engineering"},
		},
		Interval: 50 * time.Millisecond,
		Store:    store,
		NewRunner: func(account obs.Account) (ScrapeRunner, error) {
			if account.Label == "Broken Department" {
				return broken, nil
			}
			return healthy, nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 230*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	// the misaligned account stops after its first cycle, the healthy one
	// keeps polling and its writes all land
	require.Len(t, broken.cycleStarts(), 1)
	require.GreaterOrEqual(t, len(healthy.cycleStarts()), 2)

	departments, err := store.Departments(context.Background())
	require.NoError(t, err)
	require.Len(t, departments, 1)
	require.Equal(t, "Computer Engineering", departments[0].Name)
}

// trackingStore counts how many upserts are in flight at once.
type trackingStore struct {
	mu        sync.Mutex
	active    int
	maxActive int
	calls     int
}

func (s *trackingStore) Upsert(ctx context.Context, accountLabel string, lectures []gradestore.LectureResult) ([]gradestore.Change, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.calls++
	s.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return nil, nil
}

func TestStoreWritesAreSerialized(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/manager")
	defer cleanup()

	store := &trackingStore{}
	m, err := New(Options{
		Accounts: []obs.Account{
			{Label: "Computer Engineering"},
			{Label: "Physics"},
			{Label: "Chemistry"},
		},
		Interval: 20 * time.Millisecond,
		Store:    store,
		NewRunner: func(obs.Account) (ScrapeRunner, error) {
			return &fakeRunner{results: singleLecture()}, nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	// three accounts finishing their scrapes at the same time must still
	// take turns writing
	store.mu.Lock()
	defer store.mu.Unlock()
	require.GreaterOrEqual(t, store.calls, 6)
	require.Equal(t, 1, store.maxActive)
}

func TestTransientErrorsKeepPolling(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	runner := &fakeRunner{err: fmt.Errorf("gave up after 15 attempts")}
	m, err := New(Options{
		Accounts: []obs.Account{{Label: "Computer Engineering"}},
		Interval: 50 * time.Millisecond,
		Store:    store,
		NewRunner: func(obs.Account) (ScrapeRunner, error) {
			return runner, nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	require.GreaterOrEqual(t, len(runner.cycleStarts()), 2)
}

func TestRunRejectsBadRunnerConstruction(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	constructed := 0
	m, err := New(Options{
		Accounts: []obs.Account{
			{Label: "Computer Engineering"},
			{Label: "Bad Account"},
		},
		Interval: 50 * time.Millisecond,
		Store:    store,
		NewRunner: func(account obs.Account) (ScrapeRunner, error) {
			if account.Label == "Bad Account" {
				return nil, fmt.Errorf("no such portal user")
			}
			constructed++
			return &fakeRunner{}, nil
		},
	})
	require.NoError(t, err)

	err = m.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Bad Account")
	// the fleet never started: construction happens before any loop runs
	require.Equal(t, 1, constructed)
}
