// Package retry computes the next eligible run time for failed jobs.
//
// The backoff is exponential in the attempt count, optionally capped and
// jittered. With jitter disabled (the default) the computed run times are
// strictly increasing in the attempt number.
package retry
