package diag

import "go.uber.org/multierr"

// combineErrors is split into its own file so the multierr dependency is
// easy to trace to a single call site.
func combineErrors(errs []error) error {
	return multierr.Combine(errs...)
}
