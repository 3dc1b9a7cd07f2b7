package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"bskmt/internal/datastore"
	"bskmt/internal/models"
	"bskmt/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceConfig struct {
	container     *do.Injector
	postgresDB    *bun.DB
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{container, postgresDB, cache, readonlyCache}, nil
}

func (service *ServiceConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	callback := func() (string, error) {
		config, err := datastore.GetConfigByKey(ctx, service.postgresDB, key)
		if errors.Is(err, sql.ErrNoRows) {
			return defaultValue, nil
		}
		if err != nil {
			return defaultValue, err
		}
		return config.Value, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_5_MINS, callback)
	if err != nil {
		return defaultValue, err
	}

	return value, nil
}

func (service *ServiceConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	value, err := service.GetStringConfig(ctx, key, strconv.Itoa(defaultValue))
	if err != nil {
		return defaultValue, err
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, err
	}

	return n, nil
}

// SetConfig upserts one knob and drops its cache entry so the next read
// sees the new value instead of waiting out the TTL.
func (service *ServiceConfig) SetConfig(ctx context.Context, key, value string) (*models.Config, error) {
	config := &models.Config{Key: key, Value: value}

	_, err := datastore.GetConfigByKey(ctx, service.postgresDB, key)
	if errors.Is(err, sql.ErrNoRows) {
		if err := datastore.InsertConfig(ctx, service.postgresDB, *config); err != nil {
			return nil, err
		}
		return config, service.ClearConfigCache(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	if _, err := datastore.EditConfig(ctx, service.postgresDB, config); err != nil {
		return nil, err
	}
	return config, service.ClearConfigCache(ctx, key)
}

func (service *ServiceConfig) ClearConfigCache(ctx context.Context, key string) error {
	return service.cache.Delete(ctx, DBKeyConfig(key))
}
