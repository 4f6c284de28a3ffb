package poll

import "context"

// Terminal is a set of states that end polling.
type Terminal[S comparable] map[S]struct{}

// NewTerminal returns the set of the given states.
func NewTerminal[S comparable](states ...S) Terminal[S] {
	t := make(Terminal[S], len(states))
	for _, s := range states {
		t[s] = struct{}{}
	}
	return t
}

// Contains reports whether s ends polling.
func (t Terminal[S]) Contains(s S) bool {
	_, ok := t[s]
	return ok
}

// Until returns a task function that fetches a value each tick and passes
// it to handle. The task ends after handle saw a value whose state is in
// terminal, so handle runs exactly once for the terminal value.
//
// A fetch error is passed to onErr, which decides whether polling
// continues (return false) or ends (return true). A nil onErr ignores
// errors and keeps polling.
func Until[T any, S comparable](
	fetch func(ctx context.Context) (T, error),
	state func(T) S,
	terminal Terminal[S],
	handle func(T),
	onErr func(error) (stop bool),
) Func {
	return func(ctx context.Context) bool {
		v, err := fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			if onErr == nil {
				return false
			}
			return onErr(err)
		}
		handle(v)
		return terminal.Contains(state(v))
	}
}
