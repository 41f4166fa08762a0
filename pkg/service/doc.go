// Package service orchestrates the job lifecycle: enqueueing, claiming,
// handler dispatch, and outcome recording.
package service
