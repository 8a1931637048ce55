package widget

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/coursepay/internal/config"
)

// Module provides redis client and overlay opener.
var Module = fx.Provide(
	newRedisClient,
	newOpener,
)

type redisParams struct {
	fx.In

	Config *config.Config
}

func newRedisClient(p redisParams) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         p.Config.RedisAddress,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

type openerParams struct {
	fx.In

	Client *redis.Client
	Config *config.Config
	Logger *slog.Logger
}

func newOpener(p openerParams) *Opener {
	return NewOpener(p.Client, p.Config.SessionTTL, p.Logger)
}
