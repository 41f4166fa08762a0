// Package dispatch runs the asynchronous side of the job engine: a
// notification channel with a pool of consumer goroutines, a periodic poller
// that scans the store for eligible jobs, and optional stale-lock and
// recurring-schedule loops.
//
// Notifications are best-effort. The poller is the correctness backstop: a
// dropped or lost notification only delays a job until the next scan.
package dispatch
