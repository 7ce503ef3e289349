package changepoint

import (
	"github.com/evergreen-ci/changepoint/model"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// Configuration defines the settings shared by the service, the batch
// runner, and the command line tools.
type Configuration struct {
	NumWorkers    int                    `bson:"num_workers" json:"num_workers" yaml:"num_workers"`
	QueueCapacity int                    `bson:"queue_capacity" json:"queue_capacity" yaml:"queue_capacity"`
	Service       ServiceConfig          `bson:"service" json:"service" yaml:"service"`
	Store         model.StoreOptions     `bson:"store" json:"store" yaml:"store"`
	Defaults      model.DetectionOptions `bson:"defaults" json:"defaults" yaml:"defaults"`
}

type ServiceConfig struct {
	Port        int      `bson:"port" json:"port" yaml:"port"`
	Prefix      string   `bson:"prefix" json:"prefix" yaml:"prefix"`
	CORSOrigins []string `bson:"cors_origins" json:"cors_origins" yaml:"cors_origins"`
}

func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.NumWorkers == 0 {
		c.NumWorkers = DefaultNumWorkers
	}
	catcher.NewWhen(c.NumWorkers < 1, "must specify a valid number of amboy workers")

	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	catcher.NewWhen(c.QueueCapacity < c.NumWorkers, "queue capacity must be at least the number of workers")

	if c.Service.Port == 0 {
		c.Service.Port = DefaultServicePort
	}
	catcher.NewWhen(c.Service.Port < 0 || c.Service.Port > 65535, "must specify a valid port")
	if c.Service.Prefix == "" {
		c.Service.Prefix = DefaultServicePrefix
	}

	if c.Store.Bucket != "" {
		catcher.Wrap(c.Store.Validate(), "invalid store")
	}
	catcher.Wrap(c.Defaults.Validate(), "invalid default detection options")

	return catcher.Resolve()
}

// LoadConfiguration reads and validates a YAML configuration file.
func LoadConfiguration(fn string) (*Configuration, error) {
	conf := &Configuration{}
	if err := utility.ReadYAMLFile(fn, conf); err != nil {
		return nil, errors.Wrapf(err, "reading configuration from '%s'", fn)
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in '%s'", fn)
	}

	return conf, nil
}
