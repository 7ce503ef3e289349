package operations

import (
	"context"

	"github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/changepoint/units"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Batch returns the ./changepoint batch command, which runs a detector
// over every series in a store and writes the results back to it.
func Batch() cli.Command {
	return cli.Command{
		Name:  "batch",
		Usage: "detect changepoints in every series of a store",
		Flags: mergeFlags(
			configFlags(),
			baseFlags(),
			storeFlags(),
			algorithmFlags(cli.StringFlag{
				Name:  "algorithm, a",
				Usage: "detector to run: 'pelt', 'bocpd', or 'bayesian'",
				Value: string(model.AlgorithmPELT),
			}),
		),
		Before: requirePositiveInt(numWorkersFlag),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			opts, err := detectionOptions(c, model.AlgorithmName(c.String("algorithm")))
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := configure(c)
			if err != nil {
				return errors.WithStack(err)
			}

			store, err := env.GetStore(ctx)
			if err != nil {
				return errors.Wrap(err, "problem resolving series store")
			}

			keys, err := store.List(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			series := make([]model.Series, 0, len(keys))
			for _, key := range keys {
				s, err := store.Get(ctx, key, model.ReadOptions{})
				if err != nil {
					return errors.WithStack(err)
				}
				series = append(series, *s)
			}

			q, err := env.GetQueue()
			if err != nil {
				return errors.WithStack(err)
			}

			results, batchErr := units.RunBatch(ctx, q, series, opts)

			catcher := grip.NewBasicCatcher()
			catcher.Add(batchErr)
			for idx := range results {
				key, err := store.PutResult(ctx, &results[idx])
				catcher.Add(err)
				grip.InfoWhen(err == nil, message.Fields{
					"message":      "saved changepoint result",
					"key":          key,
					"changepoints": len(results[idx].Changepoints),
				})
			}

			grip.Notice(message.Fields{
				"message":   "completed changepoint batch",
				"algorithm": opts.Algorithm,
				"series":    len(series),
				"results":   len(results),
				"errors":    catcher.Len(),
			})

			return catcher.Resolve()
		},
	}
}
