/*
Package resilience provides the circuit breaker that guards the playground's
outbound calls: package registry fetches and the remote transpiler backend.

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                             Open

# Usage

	breaker := resilience.New("registry", resilience.Settings{
		Timeout: 20 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})

	code, err := resilience.Execute(breaker, func() (string, error) {
		return fetch(ctx, name)
	})

Reset forces the breaker closed; the transpiler's manual retry uses it so a
user-triggered reinitialization is never refused by a stale open state.
*/
package resilience
