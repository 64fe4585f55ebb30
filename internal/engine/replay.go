package engine

import (
	"context"

	"github.com/roach88/ultistats/internal/stack"
)

// replay loads a point's persisted streams into stk.
//
// Replay goes through the same Upsert the loop uses, so replaying a point
// that is already partly in the stack is a no-op for every event it has seen.
// Returns the number of events loaded.
func replay(ctx context.Context, st LocalStore, pointID string, stk *stack.Stack) (int, error) {
	teamOne, teamTwo, err := st.ReadPointStreams(ctx, pointID)
	if err != nil {
		return 0, err
	}
	for _, e := range teamOne {
		stk.Apply(stack.UpsertChange(e))
	}
	for _, e := range teamTwo {
		stk.Apply(stack.UpsertChange(e))
	}
	return len(teamOne) + len(teamTwo), nil
}
