package rehydrate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// DefaultQuietPeriod is the debounce window between the last proposed context
// and the outbound re-hydration call.
const DefaultQuietPeriod = 500 * time.Millisecond

// State enumerates the debouncer's control-flow states.
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateInFlight
)

// Scheduler abstracts timer creation so tests can drive the quiet period
// deterministically. The returned cancel function must be safe to call after
// the timer fired.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// SchedulerFunc adapts a function into a Scheduler.
type SchedulerFunc func(d time.Duration, fn func()) func()

// Schedule delegates to the underlying function.
func (s SchedulerFunc) Schedule(d time.Duration, fn func()) func() {
	return s(d, fn)
}

func timerScheduler() Scheduler {
	return SchedulerFunc(func(d time.Duration, fn func()) func() {
		timer := time.AfterFunc(d, fn)
		return func() { timer.Stop() }
	})
}

// CallFunc receives the latest case context when the quiet period elapses.
// The token identifies the dispatch generation; responses must be checked
// against IsCurrent before their result is merged.
type CallFunc func(ctx descriptor.CaseContext, token string)

// Debouncer serialises re-hydration calls: proposals during the quiet period
// supersede each other, proposals equal to the pending or last-sent context
// are dropped, and the call always fires with the latest proposed context.
// It is the explicit {Idle, Scheduled, InFlight} state machine form of the
// timer/cancellation idiom.
type Debouncer struct {
	mu sync.Mutex

	quiet     time.Duration
	scheduler Scheduler
	call      CallFunc

	state       State
	latest      descriptor.CaseContext
	pendingKey  string
	lastSentKey string
	cancel      func()
	token       string
}

// DebounceOption customises the debouncer.
type DebounceOption func(*Debouncer)

// WithQuietPeriod overrides the debounce window.
func WithQuietPeriod(d time.Duration) DebounceOption {
	return func(db *Debouncer) {
		if d > 0 {
			db.quiet = d
		}
	}
}

// WithScheduler injects the timer implementation.
func WithScheduler(s Scheduler) DebounceOption {
	return func(db *Debouncer) {
		if s != nil {
			db.scheduler = s
		}
	}
}

// NewDebouncer constructs a debouncer invoking call after the quiet period.
func NewDebouncer(call CallFunc, options ...DebounceOption) *Debouncer {
	db := &Debouncer{
		quiet:     DefaultQuietPeriod,
		scheduler: timerScheduler(),
		call:      call,
		state:     StateIdle,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(db)
	}
	return db
}

// Propose offers a context for re-hydration. Contexts equal to the pending or
// last-sent serialization are dropped; otherwise any outstanding timer is
// cancelled before a new quiet period starts.
func (db *Debouncer) Propose(ctx descriptor.CaseContext) {
	key := contextKey(ctx)

	db.mu.Lock()
	defer db.mu.Unlock()

	if key == db.lastSentKey {
		return
	}
	if db.state == StateScheduled && key == db.pendingKey {
		return
	}

	if db.cancel != nil {
		db.cancel()
		db.cancel = nil
	}

	db.latest = descriptor.CloneContext(ctx)
	db.pendingKey = key
	db.state = StateScheduled
	db.cancel = db.scheduler.Schedule(db.quiet, db.fire)
}

// fire runs when the quiet period elapses uncancelled. It re-reads the latest
// context, marks it sent, and invokes the call outside the lock.
func (db *Debouncer) fire() {
	db.mu.Lock()
	if db.state != StateScheduled {
		db.mu.Unlock()
		return
	}
	ctx := db.latest
	db.lastSentKey = contextKey(ctx)
	db.pendingKey = ""
	db.cancel = nil
	db.state = StateInFlight
	db.token = uuid.NewString()
	token := db.token
	call := db.call
	db.mu.Unlock()

	if call != nil {
		call(ctx, token)
	}
}

// IsCurrent reports whether token still identifies the newest dispatch. A
// stale token means a newer call fired; its response must be discarded.
func (db *Debouncer) IsCurrent(token string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return token != "" && token == db.token
}

// Settle records completion of the dispatch identified by token. Stale
// tokens are ignored.
func (db *Debouncer) Settle(token string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if token != db.token {
		return
	}
	if db.state == StateInFlight {
		db.state = StateIdle
	}
}

// CurrentState exposes the state machine position, mainly for tests.
func (db *Debouncer) CurrentState() State {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state
}

// Reset clears the dedupe memory and cancels any scheduled call, forcing the
// next proposal through. Callers use it when the descriptor is replaced
// wholesale.
func (db *Debouncer) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.cancel != nil {
		db.cancel()
		db.cancel = nil
	}
	db.state = StateIdle
	db.pendingKey = ""
	db.lastSentKey = ""
	db.token = ""
	db.latest = nil
}
