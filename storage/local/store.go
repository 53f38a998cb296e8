package localstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
)

// Open returns the local storage backend selected by conf.Storage.Driver.
func Open(conf *core.Config) (core.LocalStorage, error) {
	switch conf.Storage.Driver {
	case core.StorageBolt:
		return OpenBolt(conf.Storage.Path, time.Second)
	case core.StorageRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return OpenRedis(ctx, conf.Storage.RedisAddr, conf.Storage.RedisPassword, conf.Storage.RedisPrefix)
	case core.StorageMemory:
		return NewMemory(), nil
	}
	return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
}
