// Package poll provides cancellable scheduled tasks.
//
// A Task calls a function on a fixed interval (or once after a delay) until
// the function reports that it is done, Stop is called, or the context ends.
// Stopping is final: a stopped Task cannot be restarted, and a new job gets
// a new Task. Until turns a fetch function and an explicit set of terminal
// states into a task function, which is how job progress is polled. A Group
// starts and stops several tasks together.
//
// Stop does not cancel a tick that is already running. A request in flight
// at teardown completes, and its result lands on a closed view where the
// write is dropped.
//
// A panic inside a tick is recovered and logged at Error level. The task
// keeps its schedule and no caller state is touched.
package poll
