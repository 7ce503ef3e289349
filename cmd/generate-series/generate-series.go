package main

import (
	"context"
	"os"
	"time"

	"github.com/evergreen-ci/changepoint/benchmarks"
	"github.com/evergreen-ci/changepoint/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "generate-series"
	app.Usage = "write a synthetic piecewise constant series with noise"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "output, o",
			Usage: "path of the generated file, the extension selects the format",
			Value: "series.ftdc",
		},
		cli.StringFlag{
			Name:  "id",
			Usage: "series id",
			Value: "synthetic",
		},
		cli.IntFlag{
			Name:  "points",
			Usage: "number of points",
			Value: 10000,
		},
		cli.IntFlag{
			Name:  "regimes",
			Usage: "number of constant regimes",
			Value: 10,
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "random seed, defaults to the current time",
		},
		cli.Float64Flag{
			Name:  "scale",
			Usage: "multiply values by this before storing them as ftdc integers",
			Value: 1000,
		},
	}
	app.Action = generate

	grip.CatchEmergencyFatal(app.Run(os.Args))
}

func generate(c *cli.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startAt := time.Now()
	outputFn := c.String("output")
	format, err := model.FormatFromPath(outputFn)
	if err != nil {
		return errors.WithStack(err)
	}

	seed := c.Int64("seed")
	if !c.IsSet("seed") {
		seed = startAt.UnixNano()
	}
	series := benchmarks.RegimeSeries(c.String("id"), c.Int("points"), c.Int("regimes"), seed)

	file, err := os.Create(outputFn)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() { grip.EmergencyFatal(file.Close()) }()

	if format == model.FormatFTDC {
		err = model.WriteSeriesFTDC(ctx, file, series, c.Float64("scale"))
	} else {
		err = model.WriteSeries(ctx, file, format, series)
	}
	if err != nil {
		return errors.Wrapf(err, "problem writing '%s'", outputFn)
	}

	grip.Info(message.Fields{
		"dur_secs": time.Since(startAt).Seconds(),
		"file":     outputFn,
		"format":   format,
		"points":   series.Len(),
		"seed":     seed,
	})

	return nil
}
