// Package health runs the component checks behind "courier check".
//
// Each check is a function that returns nil when its component works.
// Checks run concurrently, each under its own timeout, and the report keeps
// them in registration order:
//
//	checker := health.New(10 * time.Second)
//	checker.Register("upstream", func(ctx context.Context) error {
//	    _, err := provider.ListModels(ctx)
//	    return err
//	})
//	checker.Register("evidence", func(ctx context.Context) error {
//	    return fmt.Errorf("recording disabled: %w", health.ErrSkipped)
//	})
//	report := checker.Run(ctx)
//
// A check returning an error that wraps ErrSkipped is reported as skipped
// and does not degrade the report.
package health
