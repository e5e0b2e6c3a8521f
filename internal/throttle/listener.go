// Package throttle slows repeated failed logins to blunt brute-force
// guessing. The policy is a deliberately crude fixed threshold with a
// fixed sleep, not a token bucket: once a username accumulates enough
// consecutive failures, each further failure stalls its caller's thread
// for the configured duration.
package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/omero-admin/omero-auth/internal/password"
)

var (
	// outcomes is a singleton for the login outcome counter vec.
	outcomes *prometheus.CounterVec //nolint:gochecknoglobals
)

// newOutcomeCounter returns the prometheus counter tracking login
// outcomes by result.
func newOutcomeCounter() *prometheus.CounterVec {
	if outcomes == nil {
		outcomes = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Number of login attempts, differentiated by outcome.",
			},
			[]string{"outcome"},
		)
	}

	return outcomes
}

// Config holds the throttling policy.
type Config struct {
	// Threshold is the failure count above which further failures sleep.
	Threshold int
	// Delay is how long an over-threshold failure stalls its caller.
	Delay time.Duration
}

// LoginAttemptListener counts consecutive authentication failures per
// username and stalls over-threshold attempts. Handling runs on the
// authenticating goroutine, so the sleep is synchronous backpressure on
// the guessing client.
type LoginAttemptListener struct {
	counters  *Counters
	threshold int
	delay     time.Duration
	outcomes  *prometheus.CounterVec

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewLoginAttemptListener creates a listener over an injected counter
// store.
func NewLoginAttemptListener(counters *Counters, cfg Config) *LoginAttemptListener {
	return &LoginAttemptListener{
		counters:  counters,
		threshold: cfg.Threshold,
		delay:     cfg.Delay,
		outcomes:  newOutcomeCounter(),
		sleep:     time.Sleep,
	}
}

// OnLoginAttempt implements password.Listener.
func (l *LoginAttemptListener) OnLoginAttempt(ev password.Event) {
	if ev.Outcome == nil {
		// No provider had an opinion; that is not a failed guess.
		l.outcomes.WithLabelValues("unknown").Inc()

		return
	}

	if *ev.Outcome {
		l.outcomes.WithLabelValues("success").Inc()

		if prev := l.counters.Reset(ev.Username); prev > 0 {
			log.Info().Str("omeName", ev.Username).Int("failures", prev).
				Msg("login succeeded, failure counter reset")
		}

		return
	}

	l.outcomes.WithLabelValues("failure").Inc()

	count := l.counters.Increment(ev.Username)
	if count > l.threshold {
		log.Warn().Str("omeName", ev.Username).Int("failures", count).
			Dur("delay", l.delay).Msg("throttling repeated login failures")
		l.sleep(l.delay)
	}
}
