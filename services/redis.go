package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"blog/config"
	"blog/models"

	"github.com/go-redis/redis/v8"
)

const PublicFeedKey = "public_feed"

// InitRedis подключается к Redis; пустой host означает, что кеш выключен
func InitRedis(conf *config.ConfigSchema) (*redis.Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("AppConfig is not loaded")
	}
	redisConfig := conf.Redis
	if redisConfig.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", redisConfig.Host, redisConfig.Port),
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	// Тест соединения
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// FeedCache хранит собранные ленты в Redis. Без клиента все операции - no-op.
// Рядом с каждой лентой лежит счетчик версий key:version: Invalidate увеличивает его,
// а Set записывает ленту только если версия не менялась с начала сборки.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	return &FeedCache{client: client, ttl: ttl}
}

func (c *FeedCache) Enabled() bool {
	return c != nil && c.client != nil
}

func versionKey(key string) string {
	return key + ":version"
}

func (c *FeedCache) Get(ctx context.Context, key string) ([]models.PostWithDetails, bool) {
	if !c.Enabled() {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("ERROR: Failed to read %s from cache: %v", key, err)
		return nil, false
	}
	var posts []models.PostWithDetails
	if err := json.Unmarshal([]byte(val), &posts); err != nil {
		log.Printf("ERROR: Failed to unmarshal cached %s: %v", key, err)
		return nil, false
	}
	return posts, true
}

// Version возвращает текущую версию ключа; снимается до чтения данных из БД
func (c *FeedCache) Version(ctx context.Context, key string) int64 {
	if !c.Enabled() {
		return 0
	}
	v, err := c.client.Get(ctx, versionKey(key)).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("ERROR: Failed to read version of %s: %v", key, err)
	}
	return v
}

// Set кладет ленту в кеш, если с момента Version не было Invalidate.
// Возвращает true, если лента записана.
func (c *FeedCache) Set(ctx context.Context, key string, version int64, posts []models.PostWithDetails) bool {
	if !c.Enabled() {
		return false
	}
	data, err := json.Marshal(posts)
	if err != nil {
		log.Printf("ERROR: Failed to marshal %s for caching: %v", key, err)
		return false
	}

	vkey := versionKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errStaleFeed
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, vkey)

	switch {
	case err == nil:
		return true
	case errors.Is(err, errStaleFeed), errors.Is(err, redis.TxFailedErr):
		log.Printf("DEBUG: %s was invalidated during build, skip caching", key)
	default:
		log.Printf("ERROR: Failed to cache %s: %v", key, err)
	}
	return false
}

var errStaleFeed = errors.New("feed version changed")

// Invalidate удаляет ленты и поднимает их версии одной транзакцией
func (c *FeedCache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, versionKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to invalidate %v: %v", keys, err)
	}
}

func (c *FeedCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
