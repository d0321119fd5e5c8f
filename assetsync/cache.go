package assetsync

import (
	"context"
	"time"

	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
)

const cachedKeysSet = "asset:cached-keys"

// CachedAsset is the latest record published for a location.
type CachedAsset struct {
	EventID     string             `json:"eventId"`
	Location    models.LocationKey `json:"location"`
	Record      models.AssetRecord `json:"record"`
	PublishedAt time.Time          `json:"publishedAt"`
}

// Mirror writes every published record to redis under the location's cache key.
// Resets are not mirrored. Without redis it does nothing.
type Mirror struct {
	ttl         time.Duration
	unsubscribe func()
}

func NewMirror(bus *broadcast.Bus, ttl time.Duration) *Mirror {
	m := &Mirror{ttl: ttl}
	m.unsubscribe = bus.Subscribe("redis-mirror", m.handle)
	return m
}

func (m *Mirror) handle(_ context.Context, evt broadcast.AssetDataUpdated) {
	if evt.IsReset() || config.GetRedisDB() == nil {
		return
	}
	loc := evt.Location()
	key := loc.CacheKey()
	entry := CachedAsset{EventID: evt.ID, Location: loc, Record: *evt.Data, PublishedAt: evt.PublishedAt}
	if err := config.SetRedisObject(key, entry, m.ttl); err != nil {
		config.LogError(config.GetLogger(), "assetsync", "Mirror.handle", "cache asset record", key, err)
		return
	}
	if err := config.AddRedisSet(cachedKeysSet, key); err != nil {
		config.LogError(config.GetLogger(), "assetsync", "Mirror.handle", "index cache key", key, err)
	}
}

func (m *Mirror) Close() { m.unsubscribe() }

// GetCachedRecord reads the mirrored record of loc. found is false when redis is
// not connected or the key has expired.
func GetCachedRecord(loc models.LocationKey) (entry CachedAsset, found bool, err error) {
	found, err = config.GetRedisObject(loc.CacheKey(), &entry)
	return entry, found, err
}

// EvictCachedRecord drops the mirrored record of loc and its index entry.
func EvictCachedRecord(loc models.LocationKey) error {
	key := loc.CacheKey()
	if err := config.RemoveRedisKey(key); err != nil {
		return err
	}
	return config.RemoveRedisSetMember(cachedKeysSet, key)
}

// CachedKeys lists the cache keys written by the mirror.
func CachedKeys() ([]string, error) {
	keys, err := config.GetRedisSetMembers(cachedKeysSet)
	if keys == nil {
		keys = []string{}
	}
	return keys, err
}
