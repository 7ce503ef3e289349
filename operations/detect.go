package operations

import (
	"context"

	"github.com/evergreen-ci/changepoint/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Detect returns the ./changepoint detect command, which runs one
// detector over a series file.
func Detect() cli.Command {
	return cli.Command{
		Name:  "detect",
		Usage: "find changepoints in a series file",
		Subcommands: []cli.Command{
			detectCommand(model.AlgorithmPELT, "offline segmentation with pruned exact linear time", peltFlags()),
			detectCommand(model.AlgorithmBOCPD, "bayesian online changepoint detection", bocpdFlags()),
			detectCommand(model.AlgorithmBayesian, "bayesian detection parameterized by hazard rate", bayesianFlags()),
		},
	}
}

func detectCommand(algo model.AlgorithmName, usage string, flags []cli.Flag) cli.Command {
	return cli.Command{
		Name:  string(algo),
		Usage: usage,
		Flags: mergeFlags(addPathFlag(), addOutputPath(), readFlags(), flags),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(pathFlagName),
			requireStringFlag(pathFlagName),
			requireFileExists(pathFlagName),
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			opts, err := detectionOptions(c, algo)
			if err != nil {
				return errors.WithStack(err)
			}

			fn := c.String(pathFlagName)
			series, err := model.ReadSeriesFile(ctx, fn, model.ReadOptions{
				ID:     c.String(idFlag),
				Column: c.String(columnFlag),
				Scale:  c.Float64(scaleFlag),
			})
			if err != nil {
				return errors.Wrapf(err, "problem reading series from '%s'", fn)
			}

			result, err := opts.Detect(ctx, *series)
			if err != nil {
				return errors.WithStack(err)
			}

			grip.Info(message.Fields{
				"message":      "detected changepoints",
				"file":         fn,
				"algorithm":    algo,
				"points":       series.Len(),
				"changepoints": result.Changepoints,
			})

			return errors.WithStack(writeResult(c.String(outputFlagName), result))
		},
	}
}
