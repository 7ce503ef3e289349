package operations

import (
	"strings"

	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/changepoint/detector"
	"github.com/evergreen-ci/changepoint/model"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	configFlag     = "config"
	pathFlagName   = "path"
	outputFlagName = "output"
	columnFlag     = "column"
	idFlag         = "id"
	scaleFlag      = "scale"

	numWorkersFlag = "workers"
	storeTypeFlag  = "store"
	bucketNameFlag = "bucket"
	prefixFlag     = "prefix"
	regionFlag     = "region"
	awsKeyFlag     = "aws-key"
	awsSecretFlag  = "aws-secret"

	portFlag = "port"

	minSizeFlag      = "min-size"
	penaltyFlag      = "penalty"
	costFlag         = "cost"
	hazardLambdaFlag = "hazard-lambda"
	thresholdFlag    = "threshold"
	maxRunFlag       = "max-run-length"
	probabilityFlag  = "probabilities"
	hazardRateFlag   = "hazard-rate"

	envVarPrefix = "CHANGEPOINT_"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func addPathFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(pathFlagName, "filename", "file", "f"),
		Usage: "path to a series file (json, yaml, csv, bson, parquet, or ftdc)",
	})
}

func addOutputPath(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(outputFlagName, "o"),
		Usage: "path to the output file, the extension selects json, yaml, or csv; defaults to standard output",
	})
}

func readFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  columnFlag,
			Usage: "column, or ftdc metric, holding the values",
		},
		cli.StringFlag{
			Name:  idFlag,
			Usage: "series id, defaults to the file name",
		},
		cli.Float64Flag{
			Name:  scaleFlag,
			Usage: "divide ftdc integer samples by this value",
			Value: 1,
		})
}

func configFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:   joinFlagNames(configFlag, "c"),
		Usage:  "path to a yaml configuration file",
		EnvVar: envVarPrefix + "CONFIG",
	})
}

func baseFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:   numWorkersFlag,
			Usage:  "specify the number of worker jobs this process will have",
			Value:  changepoint.DefaultNumWorkers,
			EnvVar: envVarPrefix + "WORKERS",
		})
}

func storeFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   storeTypeFlag,
			Usage:  "type of series store, 'local' or 's3'",
			Value:  string(model.StoreLocal),
			EnvVar: envVarPrefix + "STORE",
		},
		cli.StringFlag{
			Name:   bucketNameFlag,
			Usage:  "specify a bucket name, or directory for local stores",
			EnvVar: envVarPrefix + "BUCKET",
		},
		cli.StringFlag{
			Name:   prefixFlag,
			Usage:  "prefix of all keys in the bucket",
			EnvVar: envVarPrefix + "PREFIX",
		},
		cli.StringFlag{
			Name:   regionFlag,
			Usage:  "aws region of s3 stores",
			EnvVar: envVarPrefix + "AWS_REGION",
		},
		cli.StringFlag{
			Name:   awsKeyFlag,
			Usage:  "aws access key of s3 stores",
			EnvVar: envVarPrefix + "AWS_KEY",
		},
		cli.StringFlag{
			Name:   awsSecretFlag,
			Usage:  "aws secret key of s3 stores",
			EnvVar: envVarPrefix + "AWS_SECRET",
		})
}

func peltFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  minSizeFlag,
			Usage: "minimum number of observations in a segment",
			Value: model.DefaultMinSize,
		},
		cli.Float64Flag{
			Name:  penaltyFlag,
			Usage: "cost of adding a changepoint, defaults to 2*ln(n) when not positive",
		},
		cli.StringFlag{
			Name:  costFlag,
			Usage: "segment cost model: 'l1', 'l2', or 'normal'",
			Value: detector.CostL2.String(),
		})
}

func bocpdFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.Float64Flag{
			Name:  hazardLambdaFlag,
			Usage: "expected number of observations between changepoints",
			Value: detector.DefaultHazardLambda,
		},
		cli.Float64Flag{
			Name:  thresholdFlag,
			Usage: "flag points whose changepoint probability exceeds this value",
			Value: detector.DefaultThreshold,
		},
		cli.IntFlag{
			Name:  maxRunFlag,
			Usage: "maximum number of run length hypotheses to track",
			Value: detector.DefaultMaxRunLength,
		},
		cli.BoolFlag{
			Name:  probabilityFlag,
			Usage: "include per point changepoint probabilities in the output",
		})
}

func bayesianFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.Float64Flag{
			Name:  hazardRateFlag,
			Usage: "prior probability of a changepoint at each observation",
			Value: model.DefaultHazardRate,
		})
}

func algorithmFlags(flags ...cli.Flag) []cli.Flag {
	return bayesianFlags(bocpdFlags(peltFlags(flags...)...)...)
}

// detectionOptions reads every algorithm flag that is defined on the
// command. Flags that do not apply to the algorithm are ignored by the
// detector.
func detectionOptions(c *cli.Context, algo model.AlgorithmName) (model.DetectionOptions, error) {
	opts := model.DetectionOptions{
		Algorithm:            algo,
		MinSize:              c.Int(minSizeFlag),
		Cost:                 c.String(costFlag),
		HazardLambda:         c.Float64(hazardLambdaFlag),
		Threshold:            c.Float64(thresholdFlag),
		MaxRunLength:         c.Int(maxRunFlag),
		IncludeProbabilities: c.Bool(probabilityFlag),
		HazardRate:           c.Float64(hazardRateFlag),
	}
	if c.IsSet(penaltyFlag) {
		penalty := c.Float64(penaltyFlag)
		opts.Penalty = &penalty
	}

	if err := opts.Validate(); err != nil {
		return opts, errors.Wrap(err, "invalid detection options")
	}
	return opts, nil
}

func setFlagOrFirstPositional(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		val := c.String(name)
		if val == "" {
			if c.NArg() != 1 {
				return errors.Errorf("must specify exactly one positional argument for '%s'", name)
			}

			val = c.Args().Get(0)
		}

		return c.Set(name, val)
	}
}
