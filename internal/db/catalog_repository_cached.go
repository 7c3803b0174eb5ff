package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/models"
)

const menuItemPattern = "menu:*"

// JSONCache is the part of cache.RedisCache the catalog cache uses. Get
// returns redis.Nil on a miss.
type JSONCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// CachedCatalogRepository is a cache-aside layer over the catalog store.
// Cache errors fall through to the database. Entries are dropped by
// WatchMenuChanges when the menu row changes.
type CachedCatalogRepository struct {
	repo  catalog.Store
	cache JSONCache
}

func NewCachedCatalogRepository(repo catalog.Store, cache JSONCache) *CachedCatalogRepository {
	return &CachedCatalogRepository{
		repo:  repo,
		cache: cache,
	}
}

func menuItemKey(tenantID, itemID string) string {
	return fmt.Sprintf("menu:%s:%s", tenantID, itemID)
}

func (r *CachedCatalogRepository) GetItem(ctx context.Context, tenantID, itemID string) (*models.MenuItem, error) {
	key := menuItemKey(tenantID, itemID)

	var item models.MenuItem
	err := r.cache.Get(ctx, key, &item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("catalog cache read failed")
	}

	found, err := r.repo.GetItem(ctx, tenantID, itemID)
	if err != nil || found == nil {
		return found, err
	}

	if err := r.cache.Set(ctx, key, found); err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("failed to cache menu item")
	}

	return found, nil
}

// Invalidate drops cached entries after a menu edit.
func (r *CachedCatalogRepository) Invalidate(ctx context.Context, tenantID string, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = menuItemKey(tenantID, id)
	}
	return r.cache.Delete(ctx, keys...)
}

// InvalidateAll drops every cached menu item.
func (r *CachedCatalogRepository) InvalidateAll(ctx context.Context) error {
	return r.cache.DeletePattern(ctx, menuItemPattern)
}
