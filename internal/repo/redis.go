package repo

import (
	"context"

	"mahjong-score/internal/config"
	"mahjong-score/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RDB stays nil when redis is disabled; room events are then delivered in-process only.
var RDB *redis.Client

func InitRedis() {
	conf := config.GlobalConfig.Redis
	if !conf.Enabled {
		logger.Log.Info("Redis disabled, room events stay in-process")
		return
	}
	RDB = redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	_, err := RDB.Ping(context.Background()).Result()
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
}
