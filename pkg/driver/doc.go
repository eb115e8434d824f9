// Package driver provides the external caller that walks a scenario to
// completion, one dispatcher call at a time.
//
// The dispatcher never remembers where a run is. A Driver is the system of
// record instead: after every successful call it copies the returned
// next_op and op_args into the run's cursor and persists it, so a driver
// that crashes mid-scenario can be restarted and resumes at the stored
// checkpoint.
//
// # Retry
//
// A failed call never advances the cursor. Handler errors are retried by
// re-issuing the identical request according to the configured
// api.RetryPolicy, except reasons the policy lists as permanent. Soft stops,
// status rejections, and unknown scenario or operation errors are returned
// to the caller immediately.
//
// # Pacing
//
// Config.CallRate limits how many calls per second a Driver issues. Retries
// count against the same limit.
//
// # Usage
//
//	d := driver.NewWithConfig(dispatcher, cursors, driver.Config{
//		Retry:    api.RetryPolicy{MaxAttempts: 3, Backoff: time.Second},
//		CallRate: 5,
//	})
//	report, err := d.RunScenario(ctx, "wordpress", api.Config{Users: 250})
package driver
