package units

import (
	"context"
	"time"

	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const tsFormat = "2006-01-02.15-04-05"

// StartCrons schedules the background jobs of a long running service on
// the environment's queue.
func StartCrons(ctx context.Context, env changepoint.Environment) error {
	opts := amboy.QueueOperationConfig{
		ContinueOnError: true,
		LogErrors:       false,
		DebugLogging:    false,
	}

	q, err := env.GetQueue()
	if err != nil {
		return errors.Wrap(err, "problem getting queue")
	}

	grip.Info(message.Fields{
		"message": "starting background cron jobs",
		"opts":    opts,
		"started": q.Info().Started,
	})

	amboy.IntervalQueueOperation(ctx, q, time.Minute, time.Now(), opts, func(ctx context.Context, queue amboy.Queue) error {
		ts := utility.RoundPartOfMinute(0).Format(tsFormat)
		return queue.Put(ctx, NewAmboyStatsCollector(env, ts))
	})

	return nil
}
