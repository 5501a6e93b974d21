package lifecycle

import (
	"context"
	"slices"
	"sync/atomic"

	"bidmarket/internal/notify"
	"bidmarket/internal/store"
	"bidmarket/models"

	"golang.org/x/sync/errgroup"
)

// SweepResult summarizes one ExpireRequests run.
type SweepResult struct {
	Requests int `json:"requests"`
	Bids     int `json:"bids"`
	Failed   int `json:"failed"`
}

// ExpireRequests moves every open request whose expires_at has passed to
// expired and expires its pending bids. Each request is handled in its own
// transaction; a failure on one request does not stop the others and the
// first failure is returned alongside the counts. Pages are walked by id, so
// a request that fails stays behind the cursor until the next run.
func (o *Orchestrator) ExpireRequests(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	var firstErr error
	var lastID int64

	for {
		var ids []int64
		err := o.run(ctx, "list expired requests", func(ctx context.Context, s *scope) error {
			var err error
			ids, err = s.repo.ListExpiredRequests(ctx, o.now().UTC(), lastID, o.sweepBatch)
			return err
		})
		if err != nil {
			return res, err
		}
		if len(ids) == 0 {
			break
		}
		lastID = ids[len(ids)-1]

		var expired, expiredBids, failed atomic.Int64
		var g errgroup.Group
		g.SetLimit(o.sweepConcurrency)
		for _, id := range ids {
			g.Go(func() error {
				n, ok, err := o.expireRequest(ctx, id)
				if err != nil {
					failed.Add(1)
					o.log.WarnContext(ctx, "request expiry failed", "request_id", id, "error", err)
					return err
				}
				if ok {
					expired.Add(1)
					expiredBids.Add(int64(n))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}

		res.Requests += int(expired.Load())
		res.Bids += int(expiredBids.Load())
		res.Failed += int(failed.Load())
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if len(ids) < o.sweepBatch {
			break
		}
	}
	o.log.InfoContext(ctx, "expiry sweep finished", "requests", res.Requests, "bids", res.Bids, "failed", res.Failed)
	return res, firstErr
}

// expireRequest re-checks the request under its lock and reports whether it
// was expired and how many pending bids went with it.
func (o *Orchestrator) expireRequest(ctx context.Context, requestID int64) (int, bool, error) {
	var closed int
	var expired bool
	err := o.run(ctx, "expire request", func(ctx context.Context, s *scope) error {
		r, err := s.requests.Get(ctx, requestID, true)
		if err != nil {
			return err
		}
		now := o.now()
		if !slices.Contains(store.SweepableStatuses, r.Status) || r.ExpiresAt.After(now) {
			return nil
		}
		if err := s.requests.Transition(ctx, r, models.RequestExpired, models.SystemActor, models.ChangeAutomatic, nil); err != nil {
			return err
		}
		bids, err := s.bids.ExpirePending(ctx, r.ID)
		if err != nil {
			return err
		}
		e := notify.NewEvent(notify.RequestExpired, o.stamp(), r.CustomerID)
		e.RequestID = r.ID
		e.Payload = map[string]any{"expiredBids": len(bids)}
		s.emit(e)
		closed, expired = len(bids), true
		return nil
	})
	return closed, expired, err
}
