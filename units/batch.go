package units

import (
	"context"
	"time"

	"github.com/evergreen-ci/changepoint/model"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const batchWaitInterval = 10 * time.Millisecond

// RunBatch runs one detection job per series on the queue, starting the
// queue if needed, and returns the results in input order. A series
// that fails does not prevent the others from completing; all failures
// are reported together.
func RunBatch(ctx context.Context, q amboy.Queue, series []model.Series, opts model.DetectionOptions) ([]model.DetectionResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	ids := make([]string, 0, len(series))
	for _, s := range series {
		j, err := NewDetectChangepointsJob(s, opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err = q.Put(ctx, j); err != nil {
			return nil, errors.Wrapf(err, "problem queuing job for series '%s'", s.ID)
		}
		ids = append(ids, j.ID())
	}

	if !q.Info().Started {
		if err := q.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "problem starting queue")
		}
	}

	if !amboy.WaitInterval(ctx, q, batchWaitInterval) {
		return nil, errors.Wrap(ctx.Err(), "batch did not complete")
	}

	catcher := grip.NewBasicCatcher()
	results := make([]model.DetectionResult, 0, len(ids))
	for idx, id := range ids {
		j, ok := q.Get(ctx, id)
		if !ok {
			catcher.Errorf("job for series '%s' is missing from the queue", series[idx].ID)
			continue
		}
		if err := j.Error(); err != nil {
			catcher.Wrapf(err, "series '%s'", series[idx].ID)
			continue
		}

		dj, ok := j.(*DetectChangepointsJob)
		if !ok || dj.Result == nil {
			catcher.Errorf("job for series '%s' produced no result", series[idx].ID)
			continue
		}
		results = append(results, *dj.Result)
	}

	grip.Info(message.Fields{
		"message":   "completed changepoint batch",
		"algorithm": opts.Algorithm,
		"series":    len(series),
		"succeeded": len(results),
	})

	return results, catcher.Resolve()
}
