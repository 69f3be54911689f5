package warehouse

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/unkn0wn-root/bqcache"
)

// errJobPending signals the backoff helper that the job needs another poll.
var errJobPending = errors.New("warehouse: job not complete yet")

// WaitForJob polls the job until it completes, backing off exponentially
// between polls up to the configured retry cap. Each poll reloads remote
// status first. A reload failure stops the polling immediately; exhausting
// the retry budget surfaces the helper's last error unchanged. When the job
// did complete but carries an error result, a JobFailureError with the
// formatted job metadata is returned.
func (s *Service) WaitForJob(ctx context.Context, job Job) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.pollInterval

	poll := func() error {
		if err := job.Reload(ctx); err != nil {
			return backoff.Permanent(err)
		}
		if !job.Complete() {
			s.log.Debug("job still running", bqcache.Fields{})
			return errJobPending
		}
		return nil
	}

	err := backoff.Retry(poll, backoff.WithContext(backoff.WithMaxRetries(bo, s.cfg.LoadPollRetries), ctx))
	if err != nil {
		return err
	}
	if st := job.Status(); st.ErrorResult != nil {
		return &JobFailureError{Status: st}
	}
	return nil
}
