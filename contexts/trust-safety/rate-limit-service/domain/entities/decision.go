package entities

import "time"

// Decision is the outcome of a rate-limit check. The limiter is an
// abuse deterrent, not an authorization gate: on storage failure it
// fails open and Decision reports the request as allowed.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// CounterKey identifies one fixed-window counter. Environment keeps
// deployments from sharing windows; Purpose separates endpoints
// (submit, verify, resend) for the same client.
type CounterKey struct {
	Environment string
	Purpose     string
	Identity    string
	WindowStart int64
}
