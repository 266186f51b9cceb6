package benchwatch

import (
	"time"

	"github.com/mongodb/grip"
)

// Configuration describes the shared resources of a benchwatch process. The
// database is optional: commands that read an export file never connect.
type Configuration struct {
	MongoDBURI         string        `yaml:"db_uri"`
	DatabaseName       string        `yaml:"db_name"`
	MongoDBDialTimeout time.Duration `yaml:"db_dial_timeout"`
	NumWorkers         int           `yaml:"workers"`
	QueueCapacity      int           `yaml:"queue_capacity"`
}

func (c *Configuration) HasDatabase() bool { return c.MongoDBURI != "" }

func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	catcher.NewWhen(c.NumWorkers < 1, "must specify a valid number of amboy workers")
	catcher.ErrorfWhen(c.QueueCapacity < 0, "queue capacity %d is negative", c.QueueCapacity)

	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.MongoDBDialTimeout <= 0 {
		c.MongoDBDialTimeout = 2 * time.Second
	}
	if c.HasDatabase() && c.DatabaseName == "" {
		c.DatabaseName = DefaultDatabaseName
	}

	return catcher.Resolve()
}
