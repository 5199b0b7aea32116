package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talentra/hrms_backend/models"
)

const configChannel = "hrms:config:changed"

// ConfigService serves the system-wide configuration document with an
// in-memory cache. The cache expires on a fixed TTL, but writers publish an
// explicit invalidation over Redis so other concerns (the absence job's
// fire time in particular) pick up changes immediately instead of waiting
// the TTL out. Without Redis the TTL is the only refresh path.
type ConfigService struct {
	db    *mongo.Database
	redis *redis.Client
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *models.SystemConfig
	loadedAt time.Time

	onChange func(models.SystemConfig)
}

// NewConfigService creates the config service with a 5-minute cache TTL
func NewConfigService(db *mongo.Database, redisClient *redis.Client) *ConfigService {
	return &ConfigService{
		db:    db,
		redis: redisClient,
		ttl:   5 * time.Minute,
	}
}

// OnChange registers a callback invoked whenever an invalidation arrives.
// Used by main to reschedule the absence job.
func (s *ConfigService) OnChange(fn func(models.SystemConfig)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Get returns the current configuration, from cache when fresh
func (s *ConfigService) Get(ctx context.Context) (models.SystemConfig, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.loadedAt) < s.ttl {
		cfg := *s.cached
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	return s.reload(ctx)
}

// Update persists new configuration and broadcasts the invalidation
func (s *ConfigService) Update(ctx context.Context, cfg models.SystemConfig) error {
	cfg.UpdatedAt = time.Now()

	_, err := s.db.Collection("system_config").UpdateOne(ctx,
		bson.M{},
		bson.M{"$set": bson.M{
			"autoAbsence": cfg.AutoAbsence,
			"sla":         cfg.SLA,
			"updatedAt":   cfg.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = &cfg
	s.loadedAt = time.Now()
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.redis.Publish(ctx, configChannel, "updated").Err(); err != nil {
			log.Printf("Failed to publish config invalidation: %v", err)
		}
	}

	// Local process applies the change without waiting for the pub/sub echo
	s.notifyChange(cfg)
	return nil
}

// Watch subscribes to invalidation messages and refreshes the cache when
// one arrives. Blocks until ctx is cancelled; run it in a goroutine.
func (s *ConfigService) Watch(ctx context.Context) {
	if s.redis == nil {
		return
	}

	sub := s.redis.Subscribe(ctx, configChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			cfg, err := s.reload(ctx)
			if err != nil {
				log.Printf("Failed to reload config after invalidation: %v", err)
				continue
			}
			s.notifyChange(cfg)
		}
	}
}

func (s *ConfigService) reload(ctx context.Context) (models.SystemConfig, error) {
	var cfg models.SystemConfig
	err := s.db.Collection("system_config").FindOne(ctx, bson.M{}).Decode(&cfg)
	if err == mongo.ErrNoDocuments {
		cfg = models.DefaultSystemConfig()
		err = nil
	}
	if err != nil {
		return models.SystemConfig{}, err
	}

	s.mu.Lock()
	s.cached = &cfg
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return cfg, nil
}

func (s *ConfigService) notifyChange(cfg models.SystemConfig) {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(cfg)
	}
}
