package ci

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/semrel/internal/errors"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultTimeout      = 30 * time.Minute
)

// Outcome is the result of waiting at the barrier.
type Outcome int

const (
	// NotLeader: this job must not release.
	NotLeader Outcome = iota
	// LeaderProceed: every sibling finished successfully.
	LeaderProceed
	// LeaderAbort: the leader must not release; the error says why.
	LeaderAbort
)

func (o Outcome) String() string {
	switch o {
	case NotLeader:
		return "not leader"
	case LeaderProceed:
		return "leader proceed"
	case LeaderAbort:
		return "leader abort"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Barrier makes the leader job wait for its siblings.
type Barrier struct {
	provider Provider
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger
}

// NewBarrier creates a barrier over provider. A nil provider means the CI
// service could not be identified; Await then aborts.
func NewBarrier(provider Provider, interval, timeout time.Duration, logger logrus.FieldLogger) *Barrier {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Barrier{provider: provider, interval: interval, timeout: timeout, logger: logger}
}

// Await blocks until every sibling has finished, one has failed, or the
// timeout expires. Non-leaders return immediately without polling.
func (b *Barrier) Await(ctx context.Context) (Outcome, error) {
	if b.provider == nil {
		return LeaderAbort, errors.BarrierError(errors.ReasonEnvironmentUnavailable, nil,
			"unsupported CI service, cannot coordinate jobs")
	}
	if !b.provider.IsLeader() {
		return NotLeader, nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	log := b.logger.WithField("provider", b.provider.Name())
	for {
		jobs, err := b.provider.Siblings(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return LeaderAbort, b.timedOut(ctx)
			}
			return LeaderAbort, errors.BarrierError(errors.ReasonEnvironmentUnavailable, err,
				"cannot read sibling jobs")
		}

		pending := 0
		for _, j := range jobs {
			switch j.State {
			case JobFailed:
				return LeaderAbort, errors.BarrierError(errors.ReasonSiblingFailed, nil,
					fmt.Sprintf("job %s failed", j.Name)).
					WithContext("job_id", j.ID)
			case JobPending:
				pending++
			}
		}
		if pending == 0 {
			log.WithField("siblings", len(jobs)).Info("all sibling jobs succeeded")
			return LeaderProceed, nil
		}

		log.WithField("pending", pending).Debug("waiting for sibling jobs")

		timer := time.NewTimer(b.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return LeaderAbort, b.timedOut(ctx)
		case <-timer.C:
		}
	}
}

func (b *Barrier) timedOut(ctx context.Context) error {
	return errors.BarrierError(errors.ReasonTimeout, ctx.Err(),
		fmt.Sprintf("sibling jobs did not finish within %s", b.timeout))
}
