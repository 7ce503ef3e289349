package operations

import (
	"github.com/evergreen-ci/changepoint"
	"github.com/evergreen-ci/changepoint/model"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// loadConfiguration reads the configuration file named by the config
// flag, if any, and applies the store, worker, and port flags that were
// set explicitly on top of it.
func loadConfiguration(c *cli.Context) (*changepoint.Configuration, error) {
	conf := &changepoint.Configuration{}
	if fn := c.String(configFlag); fn != "" {
		var err error
		conf, err = changepoint.LoadConfiguration(fn)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if c.IsSet(numWorkersFlag) || conf.NumWorkers == 0 {
		conf.NumWorkers = c.Int(numWorkersFlag)
	}
	if c.IsSet(portFlag) {
		conf.Service.Port = c.Int(portFlag)
	}
	if c.IsSet(bucketNameFlag) {
		conf.Store = model.StoreOptions{
			Type:      model.StoreType(c.String(storeTypeFlag)),
			Bucket:    c.String(bucketNameFlag),
			Prefix:    c.String(prefixFlag),
			Region:    c.String(regionFlag),
			AWSKey:    c.String(awsKeyFlag),
			AWSSecret: c.String(awsSecretFlag),
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return conf, nil
}

// configure loads the configuration into the global environment.
func configure(c *cli.Context) (changepoint.Environment, error) {
	conf, err := loadConfiguration(c)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	env := changepoint.GetEnvironment()
	if err = env.Configure(conf); err != nil {
		return nil, errors.Wrap(err, "problem setting up environment")
	}

	return env, nil
}
