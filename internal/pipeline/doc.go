// Package pipeline runs submissions through the backend in sequence.
//
// A submission is a Job: staged files go up in a multipart upload, the
// returned session is processed, and for videos the progress endpoint is
// polled until the job reaches a terminal state. Each stage is a Step that
// receives the Job and advances its state.
//
//	idle -> uploading -> processing -> {completed | error | not_found}
//
// Design decision: Steps share one Job record instead of passing values
// between function calls, so controllers observe every state change through
// a single observer and the CLI reads the final record when Execute returns.
//
// BatchProcessor fans out independent requests (mark-read pushes, file
// downloads) with errgroup and an optional rate limit.
package pipeline
