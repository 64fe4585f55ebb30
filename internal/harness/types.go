package harness

import (
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/reconcile"
	"github.com/roach88/ultistats/internal/store"
)

// TraceEntry records one delivery as the device saw it.
type TraceEntry struct {
	// Revision is the update revision the delivery produced; zero when the
	// delivery was rejected before reaching the loop.
	Revision int64  `json:"revision"`
	Kind     string `json:"kind"` // "action", "undo" or "rejected"
	Team     string `json:"team"`
	Seq      int64  `json:"seq"`
	Action   string `json:"action,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: no assertion failed.
	Pass bool `json:"pass"`

	// Trace contains every delivery in arrival order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Timeline is the reconciled view, most recent first.
	Timeline []event.Event `json:"timeline"`

	// History is Timeline oldest-first.
	History []event.Event `json:"-"`

	// Rule is the opening rule that fired.
	Rule reconcile.Rule `json:"rule"`

	// Streams holds the events the device persisted, per team, in seq order.
	Streams map[event.Team][]event.Event `json:"-"`

	// Score is the cumulative score the device holds.
	Score store.Score `json:"score"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEntry{},
		Errors:   []string{},
		Timeline: []event.Event{},
		Streams:  map[event.Team][]event.Event{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
