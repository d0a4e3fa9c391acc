// Package timeouts implements a small sorted timeout wheel keyed by
// an opaque int, used by the reactor to schedule its single blocking
// select() call.
package timeouts

import (
	"sort"
	"time"
)

// Action is a single scheduled timeout: Key identifies what fires,
// Deadline is the absolute instant it's due.
type Action struct {
	Key      int
	Deadline time.Time
}

// Wheel holds a sorted, key-unique set of pending Actions.
type Wheel struct {
	actions []Action
	now     func() time.Time
}

// New returns an empty Wheel. now defaults to time.Now when nil,
// overridable so tests can pause the clock.
func New(now func() time.Time) *Wheel {
	if now == nil {
		now = time.Now
	}
	return &Wheel{now: now}
}

// Add inserts action in sorted position. A second Add for the same
// key produces two entries; callers wanting replace semantics should
// use Replace.
func (w *Wheel) Add(key int, deadline time.Time) {
	w.insert(Action{Key: key, Deadline: deadline})
}

// Replace removes any existing action for key, then adds the new
// deadline.
func (w *Wheel) Replace(key int, deadline time.Time) {
	w.remove(key)
	w.insert(Action{Key: key, Deadline: deadline})
}

// Remove discards any pending action for key, reporting whether one
// existed.
func (w *Wheel) Remove(key int) bool {
	before := len(w.actions)
	w.remove(key)
	return len(w.actions) != before
}

func (w *Wheel) remove(key int) {
	for i, a := range w.actions {
		if a.Key == key {
			w.actions = append(w.actions[:i], w.actions[i+1:]...)
			return
		}
	}
}

func (w *Wheel) insert(a Action) {
	i := sort.Search(len(w.actions), func(i int) bool {
		return w.actions[i].Deadline.After(a.Deadline)
	})
	w.actions = append(w.actions, Action{})
	copy(w.actions[i+1:], w.actions[i:])
	w.actions[i] = a
}

// GetNextTimeout inspects the earliest pending action against the
// wheel's clock. If its deadline has passed, the action is popped and
// returned with ok=true. Otherwise ok is false and remaining holds
// the duration until it's due (zero value, with wait=false, when the
// wheel is empty: the caller should then block indefinitely).
func (w *Wheel) GetNextTimeout() (remaining time.Duration, wait bool, action Action, ok bool) {
	if len(w.actions) == 0 {
		return 0, false, Action{}, false
	}
	now := w.now()
	next := w.actions[0]
	if !next.Deadline.After(now) {
		w.actions = w.actions[1:]
		return 0, false, next, true
	}
	return next.Deadline.Sub(now), true, Action{}, false
}

// Len reports the number of pending actions.
func (w *Wheel) Len() int { return len(w.actions) }
