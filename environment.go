package benchwatch

import (
	"context"
	"sync"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var globalEnv *envState

func init()                       { resetEnv() }
func GetEnvironment() Environment { return globalEnv }

func resetEnv() { globalEnv = &envState{name: "global"} }

// Environment objects provide access to shared configuration and
// state, in a way that you can isolate and test for in
type Environment interface {
	Configure(context.Context, *Configuration) error
	GetConf() (*Configuration, error)

	// GetDB returns the configured database, or an error when the
	// process was configured without one.
	GetDB() (*mongo.Database, error)

	// GetLocalQueue retrieves the process queue that analysis jobs run
	// on.
	GetLocalQueue() (amboy.Queue, error)
	// SetLocalQueue caches a queue. A queue cannot be replaced once set.
	SetLocalQueue(amboy.Queue) error

	// Close disconnects from the database and stops the queue.
	Close(context.Context) error
}

type envState struct {
	name       string
	localQueue amboy.Queue
	client     *mongo.Client
	conf       *Configuration
	mutex      sync.RWMutex
}

func (c *envState) Configure(ctx context.Context, conf *Configuration) error {
	if err := conf.Validate(); err != nil {
		return errors.WithStack(err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conf = conf

	if conf.HasDatabase() {
		connectCtx, cancel := context.WithTimeout(ctx, conf.MongoDBDialTimeout)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().
			ApplyURI(conf.MongoDBURI).
			SetConnectTimeout(conf.MongoDBDialTimeout))
		if err != nil {
			return errors.Wrapf(err, "could not connect to db %s", conf.MongoDBURI)
		}
		if err = client.Ping(connectCtx, readpref.Primary()); err != nil {
			grip.Warning(message.WrapError(client.Disconnect(ctx), message.Fields{
				"message": "problem disconnecting from unreachable db",
				"uri":     conf.MongoDBURI,
			}))
			return errors.Wrapf(err, "could not reach db %s", conf.MongoDBURI)
		}
		c.client = client
	}

	if c.localQueue == nil {
		c.localQueue = queue.NewLocalLimitedSize(conf.NumWorkers, conf.QueueCapacity)
		grip.Info(message.Fields{
			"message":  "configured local queue",
			"workers":  conf.NumWorkers,
			"capacity": conf.QueueCapacity,
			"db":       conf.DatabaseName,
		})
	}

	return nil
}

func (c *envState) SetLocalQueue(q amboy.Queue) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.localQueue != nil {
		return errors.New("queue exists, cannot overwrite")
	}

	if q == nil {
		return errors.New("cannot set queue to nil")
	}

	c.localQueue = q
	grip.Noticef("caching a '%T' queue in the '%s' service cache for use in tasks", q, c.name)
	return nil
}

func (c *envState) GetLocalQueue() (amboy.Queue, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.localQueue == nil {
		return nil, errors.New("no queue defined in the services cache")
	}

	return c.localQueue, nil
}

func (c *envState) GetDB() (*mongo.Database, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.client == nil || c.conf == nil {
		return nil, errors.New("no database configured")
	}

	return c.client.Database(c.conf.DatabaseName), nil
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

func (c *envState) Close(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	catcher := grip.NewBasicCatcher()
	if c.localQueue != nil && c.localQueue.Info().Started {
		c.localQueue.Close(ctx)
	}
	c.localQueue = nil
	if c.client != nil {
		catcher.Wrap(c.client.Disconnect(ctx), "disconnecting from db")
		c.client = nil
	}

	return catcher.Resolve()
}
