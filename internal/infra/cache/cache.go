// Package cache provides the user-directory caches: memcached when a server
// is configured, an in-process go-cache otherwise.
package cache

import (
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"
)

// Cache stores opaque values by key.
type Cache interface {
	Get(key string, value any) (bool, error)
	Set(key string, value any) error
	Delete(key string) error
}

type Memcached struct {
	client *memcache.Client
	ttl    time.Duration
}

// memcached reads expirations above 30 days as absolute unix times.
const maxMemcachedTTL = 30 * 24 * time.Hour

// NewMemcached stores entries for ttl, capped at 30 days.
func NewMemcached(client *memcache.Client, ttl time.Duration) *Memcached {
	if ttl > maxMemcachedTTL {
		ttl = maxMemcachedTTL
	}
	return &Memcached{client: client, ttl: ttl}
}

func (c *Memcached) Get(key string, value any) (bool, error) {
	item, err := c.client.Get(key)
	if err == memcache.ErrCacheMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(item.Value, value); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Memcached) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        key,
		Value:      data,
		Expiration: int32(c.ttl.Seconds()),
	})
}

func (c *Memcached) Delete(key string) error {
	err := c.client.Delete(key)
	if err == memcache.ErrCacheMiss {
		return nil
	}
	return err
}

// Local keeps values in process memory. Values round-trip through JSON so
// callers get the same copy semantics as with memcached.
type Local struct {
	cache *gocache.Cache
}

func NewLocal(ttl time.Duration) *Local {
	return &Local{cache: gocache.New(ttl, 2*ttl)}
}

func (c *Local) Get(key string, value any) (bool, error) {
	cached, found := c.cache.Get(key)
	if !found {
		return false, nil
	}
	return true, json.Unmarshal(cached.([]byte), value)
}

func (c *Local) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.cache.Set(key, data, gocache.DefaultExpiration)
	return nil
}

func (c *Local) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}
