// internal/domain/settings/service.go
package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-backend/internal/config"
)

const orderingEnabledKey = "store:ordering_enabled"

// Service exposes store-wide runtime flags, backed by Redis so staff can
// flip them without a restart. Missing or unreadable flags fall back to the
// configured default.
type Service struct {
	redisClient *redis.Client
	config      *config.Config
	logger      *logrus.Logger
}

// NewService creates a new settings service
func NewService(redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		redisClient: redisClient,
		config:      cfg,
		logger:      logger,
	}
}

// OrderingEnabled reports whether checkout is currently accepting orders
func (s *Service) OrderingEnabled(ctx context.Context) bool {
	value, err := s.redisClient.Get(ctx, orderingEnabledKey).Result()
	if err == redis.Nil {
		return s.config.Store.OrderingEnabled
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read ordering flag, using configured default")
		return s.config.Store.OrderingEnabled
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return s.config.Store.OrderingEnabled
	}
	return enabled
}

// SetOrderingEnabled flips the store-wide ordering switch
func (s *Service) SetOrderingEnabled(ctx context.Context, enabled bool) error {
	if err := s.redisClient.Set(ctx, orderingEnabledKey, strconv.FormatBool(enabled), 0).Err(); err != nil {
		return fmt.Errorf("failed to update ordering flag: %w", err)
	}
	return nil
}
