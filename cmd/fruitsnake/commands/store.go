package commands

import (
	"io"

	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/controller/filestore"
	"github.com/battlesnakeio/fruitsnake/controller/redis"
	"github.com/battlesnakeio/fruitsnake/controller/sqlstore"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var (
	backend     = "inmem"
	backendArgs = ""
)

func backendFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("backend", pflag.ExitOnError)
	fs.StringVarP(&backend, "backend", "b", backend, "recording backend, as one of: [inmem, file, redis, sql, none]")
	fs.StringVarP(&backendArgs, "backend-args", "a", backendArgs, "options to pass to the backend being used")
	return fs
}

// openStore opens the configured recording backend wrapped with metrics. The
// returned close func is always safe to call.
func openStore() (controller.Store, func(), error) {
	var store controller.Store
	var err error
	switch backend {
	case "none":
		return nil, func() {}, nil
	case "inmem":
		store = controller.InMemStore()
	case "file":
		store = filestore.NewFileStore(backendArgs)
	case "redis":
		store, err = redis.NewStore(backendArgs)
	case "sql":
		store, err = sqlstore.NewSQLStore(backendArgs)
	default:
		return nil, nil, errors.Errorf("invalid backend %q", backend)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to start up backend store")
	}

	closeStore := func() {}
	if c, ok := store.(io.Closer); ok {
		closeStore = func() {
			if err := c.Close(); err != nil {
				log.WithError(err).Error("unable to close store")
			}
		}
	}
	return controller.InstrumentStore(store), closeStore, nil
}
