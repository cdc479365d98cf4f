package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RegistryKey is the set recording every key written through this service.
const RegistryKey = "product_cache_keys"

// The listing grid cleared by a default invalidation.
const (
	GridMaxPage     = 10
	GridPerPageStep = 10
	GridMaxPerPage  = 50
)

// ProductPageKeyPrefix starts every listing page key.
const ProductPageKeyPrefix = "products_page_"

func ProductPageKey(page, perPage int) string {
	return fmt.Sprintf("%s%d_per_%d", ProductPageKeyPrefix, page, perPage)
}

func ProductKey(id int64) string {
	return fmt.Sprintf("product_%d", id)
}

// GridKeys lists products_page_{p}_per_{n} for p in 1..10 and n in 10..50 step 10.
func GridKeys() []string {
	keys := make([]string, 0, GridMaxPage*(GridMaxPerPage/GridPerPageStep))
	for page := 1; page <= GridMaxPage; page++ {
		for perPage := GridPerPageStep; perPage <= GridMaxPerPage; perPage += GridPerPageStep {
			keys = append(keys, ProductPageKey(page, perPage))
		}
	}
	return keys
}

type CacheService interface {
	// Catalog caching
	GetProductPage(ctx context.Context, page, perPage int) (*models.ProductPage, error)
	SetProductPage(ctx context.Context, productPage *models.ProductPage, ttl time.Duration) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error

	// Raw bytes for HTTP response caching
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Cache invalidation
	Forget(ctx context.Context, keys ...string) error
	ForgetRegistered(ctx context.Context) (int, error)
	PruneRegistry(ctx context.Context) (int, error)
	RegisteredKeys(ctx context.Context, prefix string) ([]string, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService accepts either host:port or a redis:// / rediss:// URL.
func NewRedisCacheService(addr, password string, db int) CacheService {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("invalid redis URL, using it as host:port")
		} else {
			if password != "" {
				parsed.Password = password
			}
			opts = parsed
		}
	}

	client := redis.NewClient(opts)

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn().Err(pingErr).Str("addr", opts.Addr).Msg("redis ping failed on initialization")
	} else {
		log.Debug().Str("addr", opts.Addr).Msg("redis connection established")
	}

	return &redisCacheService{client: client}
}

// NewCacheService wraps an existing client.
func NewCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// setRegistered writes key and records it in the registry in one round trip.
func (r *redisCacheService) setRegistered(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, ttl)
		pipe.SAdd(ctx, RegistryKey, key)
		return nil
	})
	return err
}

func (r *redisCacheService) GetProductPage(ctx context.Context, page, perPage int) (*models.ProductPage, error) {
	var productPage models.ProductPage
	found, err := r.getJSON(ctx, ProductPageKey(page, perPage), &productPage)
	if err != nil || !found {
		return nil, err
	}
	return &productPage, nil
}

func (r *redisCacheService) SetProductPage(ctx context.Context, productPage *models.ProductPage, ttl time.Duration) error {
	data, err := json.Marshal(productPage)
	if err != nil {
		return err
	}
	return r.setRegistered(ctx, ProductPageKey(productPage.CurrentPage, productPage.PerPage), data, ttl)
}

func (r *redisCacheService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	found, err := r.getJSON(ctx, ProductKey(id), &product)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.setRegistered(ctx, ProductKey(product.ID), data, ttl)
}

func (r *redisCacheService) GetBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (r *redisCacheService) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.setRegistered(ctx, key, value, ttl)
}

func (r *redisCacheService) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, RegistryKey, members...)
		return nil
	})
	return err
}

// ForgetRegistered deletes every registered key and the registry itself.
func (r *redisCacheService) ForgetRegistered(ctx context.Context) (int, error) {
	keys, err := r.client.SMembers(ctx, RegistryKey).Result()
	if err != nil {
		return 0, err
	}
	if err := r.client.Del(ctx, append(keys, RegistryKey)...).Err(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// RegisteredKeys lists registry members starting with prefix.
func (r *redisCacheService) RegisteredKeys(ctx context.Context, prefix string) ([]string, error) {
	members, err := r.client.SMembers(ctx, RegistryKey).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		if strings.HasPrefix(m, prefix) {
			keys = append(keys, m)
		}
	}
	return keys, nil
}

// PruneRegistry drops registry members whose keys have already expired.
func (r *redisCacheService) PruneRegistry(ctx context.Context) (int, error) {
	keys, err := r.client.SMembers(ctx, RegistryKey).Result()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := r.client.Pipeline()
	exists := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		exists[i] = pipe.Exists(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	var stale []any
	for i, cmd := range exists {
		if cmd.Val() == 0 {
			stale = append(stale, keys[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := r.client.SRem(ctx, RegistryKey, stale...).Err(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
