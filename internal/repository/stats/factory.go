package stats

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
)

// NewRecorder creates a recorder for the configured backend
func NewRecorder(cfg *config.Config, dataDir string, l logger.Logger) (Recorder, error) {
	switch cfg.Stats.Backend {
	case "sqlite":
		path := cfg.Stats.Path(dataDir)
		l.Info("using sqlite stats", "path", path)
		return NewSQLiteRecorder(path, l)
	case "redis":
		l.Info("using redis stats", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return NewRedisRecorder(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case "memory":
		l.Info("using memory stats")
		return NewMapRecorder(), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: sqlite, redis, memory)", ErrUnknownBackend, cfg.Stats.Backend)
	}
}
