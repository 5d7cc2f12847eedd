// Package rejection tracks promises whose rejection has not been observed
// and reports them once a full event-loop turn has passed.
package rejection

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
)

// Handle identifies a promise without referencing it. The engine maps each
// promise to a handle through a weak table, so holding a Handle never keeps
// a promise alive.
type Handle uint64

// Pending is one rejection currently believed unhandled.
type Pending struct {
	Reason string
	ID     uint64
}

// Reporter prints one unhandled rejection. Errors are ignored.
type Reporter func(id uint64, reason string) error

// Tracker is the side table of unhandled rejections. It is owned by the
// kernel and used only from the JS goroutine.
type Tracker struct {
	pending map[Handle]Pending
	lastID  uint64
	report  Reporter
	logger  *log.Logger
}

// NewTracker returns a Tracker that reports through report.
func NewTracker(report Reporter, logger *log.Logger) *Tracker {
	return &Tracker{
		pending: make(map[Handle]Pending),
		report:  report,
		logger:  logger,
	}
}

// SetReporter replaces the reporting sink. The kernel swaps in the console
// once it has been loaded.
func (t *Tracker) SetReporter(report Reporter) {
	t.report = report
}

// OnRejectionStateChange records or clears the tracking entry for a promise.
// A rejection that becomes handled after first appearing unhandled is erased
// so it is never reported.
func (t *Tracker) OnRejectionStateChange(h Handle, reason string, handled bool) {
	if handled {
		delete(t.pending, h)
		return
	}
	t.lastID++
	t.pending[h] = Pending{Reason: reason, ID: t.lastID}
}

// Len returns the number of tracked rejections.
func (t *Tracker) Len() int {
	return len(t.pending)
}

// OnTurnBoundary reports and clears every tracked rejection, oldest first.
// It runs after a turn's microtasks have drained, so a handler attached
// anywhere within the turn has already cleared its entry.
func (t *Tracker) OnTurnBoundary() {
	if len(t.pending) == 0 {
		return
	}
	handles := make([]Handle, 0, len(t.pending))
	for h := range t.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		return t.pending[handles[i]].ID < t.pending[handles[j]].ID
	})

	for _, h := range handles {
		p := t.pending[h]
		delete(t.pending, h)
		t.deliver(p)
	}
}

// deliver is best-effort: a broken sink must not take the process down.
func (t *Tracker) deliver(p Pending) {
	defer func() {
		if r := recover(); r != nil && t.logger != nil {
			t.logger.Debug("rejection reporter panicked", "id", p.ID, "panic", r)
		}
	}()
	if t.report == nil {
		return
	}
	if err := t.report(p.ID, p.Reason); err != nil && t.logger != nil {
		t.logger.Debug("rejection reporter failed", "id", p.ID, "err", err)
	}
}

// Format renders the warning line for an unhandled rejection.
func Format(prefix string, id uint64, reason string) string {
	return fmt.Sprintf("[%s] Unhandled Rejection #%d: %s", prefix, id, reason)
}
