// Package poller implements the bounded wait-and-check loop used by the
// smart_poll_result tool.
//
// A poll session waits a fixed initial delay before the first status check
// (the upstream almost never finishes faster than that), then re-checks on a
// fixed interval until the job reaches a terminal state or a hard wall-clock
// ceiling is hit. Every [Poller.Poll] call is an independent session: nothing
// carries over between calls, and a caller that received a timeout simply
// calls again. That restart-not-resume behaviour matches the host's
// synchronous re-invocation model for long-running video jobs.
//
// All waits are plain blocking sleeps local to the calling goroutine; the
// only shared state is the injected status client, which must be safe for
// concurrent use.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emberfx/emberfx/pkg/eternal"
)

// Default schedule. These are policy knobs, not mechanism; tests inject
// compressed values via [Policy].
const (
	DefaultInitialDelay = 30 * time.Second
	DefaultInterval     = 15 * time.Second
	DefaultMaxDuration  = 120 * time.Second
)

// StatusClient is the single upstream operation a Poller needs.
// *eternal.Client satisfies it.
type StatusClient interface {
	JobStatus(ctx context.Context, requestID string) (*eternal.JobStatus, error)
}

// Policy holds the timing knobs for a poll session.
type Policy struct {
	// InitialDelay is how long to wait before the first status check.
	InitialDelay time.Duration

	// Interval is the wait between consecutive status checks.
	Interval time.Duration

	// MaxDuration is the hard ceiling on a session's wall-clock time,
	// measured from the moment the initial delay begins. A check is only
	// issued when it cannot push the session past the ceiling.
	MaxDuration time.Duration
}

// withDefaults returns p with zero or negative fields replaced by the
// package defaults.
func (p Policy) withDefaults() Policy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.MaxDuration <= 0 {
		p.MaxDuration = DefaultMaxDuration
	}
	return p
}

// OutcomeKind classifies how a poll session ended.
type OutcomeKind int

const (
	// Succeeded means the upstream reported a successful terminal state.
	Succeeded OutcomeKind = iota

	// Failed means the job itself reported failure. This is a terminal
	// outcome of the job, not an error of the poll session.
	Failed

	// TimedOut means the ceiling elapsed with the job still in flight.
	// The caller is expected to poll again.
	TimedOut
)

// String returns the human-readable name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome is the result of one poll session. It is created fresh per call
// and never persisted.
type Outcome struct {
	// Kind classifies the session's ending.
	Kind OutcomeKind

	// Status is the last job status observed from the upstream.
	Status *eternal.JobStatus

	// Checks is the number of status checks performed.
	Checks int

	// Elapsed is the session's wall-clock duration.
	Elapsed time.Duration
}

// Poller runs bounded poll sessions against a status client.
// The zero value is not usable; create instances with New.
type Poller struct {
	client StatusClient
	policy Policy
}

// New creates a Poller. Zero policy fields fall back to the package
// defaults (30s initial delay, 15s interval, 120s ceiling).
func New(client StatusClient, policy Policy) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client must not be nil")
	}
	return &Poller{client: client, policy: policy.withDefaults()}, nil
}

// Poll runs one complete poll session for requestID and blocks until the
// job is terminal, the ceiling is reached, or ctx is cancelled.
//
// A transport or API error from a status check aborts the session
// immediately and is returned as an error. "The check itself failed" is
// distinct from "the upstream says not ready", which keeps the loop going.
// A returned *Outcome is always non-nil when the error is nil.
func (p *Poller) Poll(ctx context.Context, requestID string) (*Outcome, error) {
	if requestID == "" {
		return nil, errors.New("poller: requestID must not be empty")
	}

	start := time.Now()

	slog.Debug("poll session starting",
		"request_id", requestID,
		"initial_delay", p.policy.InitialDelay,
		"interval", p.policy.Interval,
		"max_duration", p.policy.MaxDuration,
	)

	if err := sleep(ctx, p.policy.InitialDelay); err != nil {
		return nil, fmt.Errorf("poller: initial delay: %w", err)
	}

	checks := 0
	for {
		status, err := p.client.JobStatus(ctx, requestID)
		checks++
		if err != nil {
			return nil, fmt.Errorf("poller: status check %d for %q: %w", checks, requestID, err)
		}

		if status.Status.Terminal() {
			kind := Succeeded
			if status.Status.Failed() {
				kind = Failed
			}
			slog.Debug("poll session terminal",
				"request_id", requestID,
				"outcome", kind,
				"checks", checks,
			)
			return &Outcome{
				Kind:    kind,
				Status:  status,
				Checks:  checks,
				Elapsed: time.Since(start),
			}, nil
		}

		// The ceiling is a hard cap: stop when the next wait-and-check
		// cannot complete inside it.
		if time.Since(start)+p.policy.Interval > p.policy.MaxDuration {
			slog.Debug("poll session ceiling reached",
				"request_id", requestID,
				"checks", checks,
				"progress", status.Progress,
			)
			return &Outcome{
				Kind:    TimedOut,
				Status:  status,
				Checks:  checks,
				Elapsed: time.Since(start),
			}, nil
		}

		slog.Debug("job still in flight",
			"request_id", requestID,
			"check", checks,
			"progress", status.Progress,
		)

		if err := sleep(ctx, p.policy.Interval); err != nil {
			return nil, fmt.Errorf("poller: interval wait: %w", err)
		}
	}
}

// sleep blocks for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
