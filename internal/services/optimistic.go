package services

import "context"

// Optimistic applies a speculative change, runs commit, and reverts the
// change when commit fails. The commit error is returned unchanged.
func Optimistic(ctx context.Context, apply, revert func(), commit func(context.Context) error) error {
	apply()
	if err := commit(ctx); err != nil {
		revert()
		return err
	}
	return nil
}
