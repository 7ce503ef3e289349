package changepoint

import (
	"context"
	"sync"

	"github.com/evergreen-ci/changepoint/model"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

var globalEnv *envState

func init()                       { resetEnv() }
func GetEnvironment() Environment { return globalEnv }

func resetEnv() { globalEnv = &envState{name: "global"} }

// SetEnvironment replaces the global environment. Only environments
// built by this package can be installed.
func SetEnvironment(env Environment) error {
	if env == nil {
		return errors.New("cannot set environment to nil")
	}

	state, ok := env.(*envState)
	if !ok || state == nil {
		return errors.Errorf("cannot set environment of type '%T'", env)
	}

	globalEnv = state
	grip.Noticef("replaced the global environment with '%s'", state.name)
	return nil
}

// NewEnvironment returns a configured environment that is independent of
// the global environment.
func NewEnvironment(name string, conf *Configuration) (Environment, error) {
	env := &envState{name: name}
	if err := env.Configure(conf); err != nil {
		return nil, errors.Wrapf(err, "configuring environment '%s'", name)
	}
	return env, nil
}

// Environment objects provide access to shared configuration and
// state, in a way that you can isolate and test for in
type Environment interface {
	Configure(*Configuration) error

	GetConf() (*Configuration, error)

	// GetQueue retrieves the application's shared queue, which is cache
	// for easy access from within units or inside of requests or command
	// line operations
	GetQueue() (amboy.Queue, error)
	// SetQueue configures the global application cache's shared queue.
	SetQueue(amboy.Queue) error

	// GetStore returns a series store over the configured bucket.
	GetStore(context.Context) (*model.SeriesStore, error)
}

type envState struct {
	name  string
	queue amboy.Queue
	conf  *Configuration
	mutex sync.RWMutex
}

func (c *envState) Configure(conf *Configuration) error {
	if err := conf.Validate(); err != nil {
		return errors.WithStack(err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conf = conf
	c.queue = queue.NewLocalLimitedSize(conf.NumWorkers, conf.QueueCapacity)

	grip.Info(message.Fields{
		"message":  "configured local queue",
		"env":      c.name,
		"workers":  conf.NumWorkers,
		"capacity": conf.QueueCapacity,
	})

	return nil
}

func (c *envState) SetQueue(q amboy.Queue) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.queue != nil {
		return errors.New("queue exists, cannot overwrite")
	}

	if q == nil {
		return errors.New("cannot set queue to nil")
	}

	c.queue = q
	grip.Noticef("caching a '%T' queue in the '%s' service cache for use in tasks", q, c.name)
	return nil
}

func (c *envState) GetQueue() (amboy.Queue, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.queue == nil {
		return nil, errors.New("no queue defined in the services cache")
	}

	return c.queue, nil
}

func (c *envState) GetConf() (*Configuration, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.conf == nil {
		return nil, errors.New("configuration is not set")
	}

	// copy the struct
	out := &Configuration{}
	*out = *c.conf

	return out, nil
}

func (c *envState) GetStore(ctx context.Context) (*model.SeriesStore, error) {
	conf, err := c.GetConf()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if conf.Store.Bucket == "" {
		return nil, errors.New("no store configured")
	}

	bucket, err := conf.Store.Create(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "problem resolving bucket")
	}

	return model.NewSeriesStore(bucket), nil
}
