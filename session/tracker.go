// Package session implements the idle-session policy: a user who shows no
// activity for the idle timeout is signed out, and is warned shortly before.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// WarningFunc is called once per idle period when a session enters the warning window
type WarningFunc func(uid string, remaining time.Duration)

// ExpireFunc is called once when a session runs out
type ExpireFunc func(uid string)

// State is the idle status of one user's session
type State struct {
	Tracked          bool          `json:"tracked"`
	LastActivity     time.Time     `json:"last_activity,omitempty"`
	Remaining        time.Duration `json:"-"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Warning          bool          `json:"warning"`
	Expired          bool          `json:"expired"`
}

// Tracker evaluates idle sessions against a timeout and emits warning and expiry events
type Tracker struct {
	store   Store
	timeout time.Duration
	warning time.Duration
	now     func() time.Time

	mu        sync.Mutex
	warned    map[string]bool
	onWarning []WarningFunc
	onExpire  []ExpireFunc
}

var trackerInstance *Tracker

// InitTracker sets the process-wide tracker
func InitTracker(t *Tracker) *Tracker {
	trackerInstance = t
	return trackerInstance
}

// GetTracker returns the initialized tracker, or nil
func GetTracker() *Tracker {
	return trackerInstance
}

// NewTracker creates a tracker. warning is how long before expiry the warning fires.
func NewTracker(store Store, timeout, warning time.Duration) *Tracker {
	return &Tracker{
		store:   store,
		timeout: timeout,
		warning: warning,
		now:     time.Now,
		warned:  make(map[string]bool),
	}
}

// WithClock replaces the time source (used by tests)
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// OnWarning registers a warning callback
func (t *Tracker) OnWarning(cb WarningFunc) {
	t.mu.Lock()
	t.onWarning = append(t.onWarning, cb)
	t.mu.Unlock()
}

// OnExpire registers an expiry callback
func (t *Tracker) OnExpire(cb ExpireFunc) {
	t.mu.Lock()
	t.onExpire = append(t.onExpire, cb)
	t.mu.Unlock()
}

// RecordActivity restarts the user's idle clock
func (t *Tracker) RecordActivity(ctx context.Context, uid string) error {
	if err := t.store.Touch(ctx, uid, t.now()); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	t.mu.Lock()
	delete(t.warned, uid)
	t.mu.Unlock()
	return nil
}

// Forget stops tracking a user, e.g. on explicit sign-out
func (t *Tracker) Forget(ctx context.Context, uid string) error {
	t.mu.Lock()
	delete(t.warned, uid)
	t.mu.Unlock()
	return t.store.Delete(ctx, uid)
}

// Status computes the session state without emitting events
func (t *Tracker) Status(ctx context.Context, uid string) (State, error) {
	last, ok, err := t.store.LastActivity(ctx, uid)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, nil
	}

	remaining := t.timeout - t.now().Sub(last)
	if remaining < 0 {
		remaining = 0
	}
	return State{
		Tracked:          true,
		LastActivity:     last,
		Remaining:        remaining,
		RemainingSeconds: int(remaining / time.Second),
		Warning:          remaining > 0 && remaining <= t.warning,
		Expired:          remaining == 0,
	}, nil
}

// Check computes the session state and emits the warning or expiry event when
// due. An expired session is dropped from the store after its event fires.
func (t *Tracker) Check(ctx context.Context, uid string) (State, error) {
	state, err := t.Status(ctx, uid)
	if err != nil || !state.Tracked {
		return state, err
	}

	switch {
	case state.Expired:
		t.mu.Lock()
		delete(t.warned, uid)
		callbacks := append([]ExpireFunc(nil), t.onExpire...)
		t.mu.Unlock()

		if err := t.store.Delete(ctx, uid); err != nil {
			return state, fmt.Errorf("failed to drop expired session: %w", err)
		}
		for _, cb := range callbacks {
			cb(uid)
		}

	case state.Warning:
		t.mu.Lock()
		already := t.warned[uid]
		t.warned[uid] = true
		callbacks := append([]WarningFunc(nil), t.onWarning...)
		t.mu.Unlock()

		if !already {
			for _, cb := range callbacks {
				cb(uid, state.Remaining)
			}
		}
	}

	return state, nil
}

// Run checks every tracked session each interval until ctx is cancelled
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

func (t *Tracker) sweep(ctx context.Context) {
	users, err := t.store.Users(ctx)
	if err != nil {
		log.Printf("Session sweep failed: %v", err)
		return
	}
	for _, uid := range users {
		if _, err := t.Check(ctx, uid); err != nil {
			log.Printf("Session check failed for %s: %v", uid, err)
		}
	}
}
