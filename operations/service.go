package operations

import (
	"context"

	"github.com/evergreen-ci/changepoint/rest"
	"github.com/evergreen-ci/changepoint/units"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Service returns the ./changepoint service sub-command object, which is
// responsible for starting the REST service.
func Service() cli.Command {
	return cli.Command{
		Name:  "service",
		Usage: "run the changepoint api service",
		Flags: mergeFlags(
			configFlags(),
			baseFlags(),
			storeFlags(),
			[]cli.Flag{
				cli.IntFlag{
					Name:   joinFlagNames(portFlag, "p"),
					Usage:  "specify a port to run the service on",
					Value:  3000,
					EnvVar: envVarPrefix + "SERVICE_PORT",
				},
			},
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			env, err := configure(c)
			if err != nil {
				return errors.WithStack(err)
			}

			conf, err := env.GetConf()
			if err != nil {
				return errors.WithStack(err)
			}

			service := &rest.Service{
				Port:        conf.Service.Port,
				Prefix:      conf.Service.Prefix,
				CORSOrigins: conf.Service.CORSOrigins,
				Environment: env,
			}

			if err := service.Validate(); err != nil {
				return errors.Wrap(err, "problem validating service")
			}

			if err := units.StartCrons(ctx, env); err != nil {
				return errors.Wrap(err, "problem starting background jobs")
			}

			grip.Noticef("starting changepoint service on :%d", conf.Service.Port)
			if err := service.Start(ctx); err != nil {
				return errors.Wrap(err, "problem running service")
			}

			grip.Info("completed service, terminating.")
			return nil
		},
	}
}
