// Package session assembles persistable session records from live tracking
// state and manages save timing: periodic best-effort autosaves while the
// session runs, and one authoritative end-of-session save.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/baseline/internal/models"
	"github.com/harrison/baseline/internal/tracking"
)

// DefaultAutosaveInterval matches the save cadence observed in the field:
// frequent enough that a crash loses a few seconds at most.
const DefaultAutosaveInterval = 5 * time.Second

// defaultTickInterval drives the cooperative scheduler: interval countdowns
// and autosave due-checks both hang off this one tick.
const defaultTickInterval = 250 * time.Millisecond

// Store is the slice of the record store the recorder needs.
type Store interface {
	PutSession(ctx context.Context, session *models.Session) error
}

// Logger receives autosave diagnostics. Matches the logger package surface.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// Recorder owns one active observation session: the tracking state for every
// active behavior, the cooperative scheduler that advances countdowns and
// fires autosaves, and the final save that seals the session. All public
// methods are safe to call while the scheduler goroutine runs.
type Recorder struct {
	mu      sync.Mutex
	clock   tracking.Clock
	tracker *tracking.Tracker
	store   Store
	log     Logger

	session          models.Session
	autosaveInterval time.Duration
	tickInterval     time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	ended  bool
}

// Option adjusts a Recorder at construction time.
type Option func(*Recorder)

// WithClock substitutes the time source, for tests.
func WithClock(clock tracking.Clock) Option {
	return func(r *Recorder) { r.clock = clock }
}

// WithAutosaveInterval overrides the autosave cadence.
func WithAutosaveInterval(d time.Duration) Option {
	return func(r *Recorder) { r.autosaveInterval = d }
}

// WithTickInterval overrides the scheduler tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(r *Recorder) { r.tickInterval = d }
}

// NewRecorder creates a recorder for a new session over the client's active
// behaviors. The session id is generated and the start time is fixed here;
// neither changes for the life of the session.
func NewRecorder(store Store, log Logger, client *models.Client, opts ...Option) *Recorder {
	r := &Recorder{
		clock:            tracking.SystemClock(),
		store:            store,
		log:              log,
		autosaveInterval: DefaultAutosaveInterval,
		tickInterval:     defaultTickInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tracker = tracking.NewTracker(r.clock, client.ActiveBehaviors())
	r.session = models.Session{
		ID:        uuid.NewString(),
		ClientID:  client.ID,
		StartTime: r.clock.Now(),
	}
	return r
}

// SessionID returns the generated session id.
func (r *Recorder) SessionID() string { return r.session.ID }

// StartTime returns the immutable session start time.
func (r *Recorder) StartTime() time.Time { return r.session.StartTime }

// SessionElapsed returns how long the session has been running.
func (r *Recorder) SessionElapsed() time.Duration {
	return r.clock.Now().Sub(r.session.StartTime)
}

// SetNotes sets the free-text session notes carried on the next snapshot.
func (r *Recorder) SetNotes(notes string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Notes = notes
}

// SetMeta sets the session-note metadata carried on the next snapshot.
func (r *Recorder) SetMeta(meta models.SessionNotes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Meta = meta
}

// Tracking operations, serialized against the scheduler goroutine. Each is a
// silent no-op on an unknown behavior id, matching the tracker.

func (r *Recorder) Tap(behaviorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.Tap(behaviorID)
}

func (r *Recorder) StartTimer(behaviorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.StartTimer(behaviorID)
}

func (r *Recorder) StopTimer(behaviorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.StopTimer(behaviorID)
}

func (r *Recorder) StartInterval(behaviorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.StartInterval(behaviorID)
}

func (r *Recorder) RecordInterval(behaviorID string, occurred bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.RecordInterval(behaviorID, occurred)
}

func (r *Recorder) RecordTrial(behaviorID string, correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.RecordTrial(behaviorID, correct)
}

func (r *Recorder) UndoLastTrial(behaviorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.UndoLastTrial(behaviorID)
}

func (r *Recorder) SaveABC(behaviorID string, record models.ABCRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.SaveABC(behaviorID, record)
}

// State returns the live state for one behavior, for display.
func (r *Recorder) State(behaviorID string) *tracking.BehaviorState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.State(behaviorID)
}

// BuildSnapshot folds the current tracking state into a persistable Session.
// Running timers contribute their in-flight elapsed time without being
// stopped. When endSession is true the snapshot also carries the end time
// and total session duration; autosave snapshots leave both unset. Safe to
// call repeatedly: persisting a snapshot upserts by session id.
func (r *Recorder) BuildSnapshot(endSession bool) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildSnapshotLocked(endSession)
}

func (r *Recorder) buildSnapshotLocked(endSession bool) *models.Session {
	now := r.clock.Now()
	snap := r.session
	snap.Behaviors = r.tracker.Snapshot(now)
	if endSession {
		end := now
		snap.EndTime = &end
		snap.DurationMs = now.Sub(snap.StartTime).Milliseconds()
	}
	return &snap
}

// Start launches the scheduler goroutine. Each tick fans out to the interval
// countdowns, and every autosaveInterval the current state is snapshotted
// and persisted best-effort: failures are logged and the session continues.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil || r.ended {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx)
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	lastAutosave := r.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := r.clock.Now()

			r.mu.Lock()
			r.tracker.Tick(now)
			r.mu.Unlock()

			if now.Sub(lastAutosave) >= r.autosaveInterval {
				lastAutosave = now
				r.autosave(ctx)
			}
		}
	}
}

// autosave persists a non-final snapshot. Errors are swallowed after
// logging: an unavailable store must not interrupt data capture.
func (r *Recorder) autosave(ctx context.Context) {
	snap := r.BuildSnapshot(false)
	if err := r.store.PutSession(ctx, snap); err != nil {
		r.log.LogWarn(fmt.Sprintf("autosave failed for session %s: %v", snap.ID, err))
		return
	}
	r.log.LogDebug(fmt.Sprintf("autosaved session %s", snap.ID))
}

// End seals the session: the scheduler is cancelled strictly before the
// final save so a late autosave cannot land after it, every timer is
// stopped, and the authoritative end-of-session snapshot is persisted. A
// persistence failure here is returned to the caller; the session record it
// describes is the one that matters. End is idempotent: second and later
// calls rebuild and re-persist the same sealed snapshot.
func (r *Recorder) End(ctx context.Context) (*models.Session, error) {
	r.stopScheduler()

	r.mu.Lock()
	if !r.ended {
		r.ended = true
		now := r.clock.Now()
		r.tracker.StopAll(now)
		end := now
		r.session.EndTime = &end
		r.session.DurationMs = now.Sub(r.session.StartTime).Milliseconds()
	}
	snap := r.session
	snap.Behaviors = r.tracker.Snapshot(r.clock.Now())
	r.mu.Unlock()

	if err := r.store.PutSession(ctx, &snap); err != nil {
		return &snap, fmt.Errorf("save session %s: %w", snap.ID, err)
	}
	return &snap, nil
}

// stopScheduler cancels the scheduler goroutine and waits for it to exit, so
// no autosave can fire once End proceeds to the final save.
func (r *Recorder) stopScheduler() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
