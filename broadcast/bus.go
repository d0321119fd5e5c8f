package broadcast

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const EventAssetDataUpdated = "assetDataUpdated"

// AssetDataUpdated is the payload of one assetDataUpdated event. A nil Data
// resets consumers to the new state/district selection.
type AssetDataUpdated struct {
	ID          string              `json:"id"`
	Seq         uint64              `json:"seq"`
	Origin      string              `json:"origin"`
	State       string              `json:"state"`
	District    string              `json:"district"`
	Village     string              `json:"village"`
	Data        *models.AssetRecord `json:"data"`
	PublishedAt time.Time           `json:"publishedAt"`
}

func (e AssetDataUpdated) Location() models.LocationKey {
	return models.LocationKey{State: e.State, District: e.District, Village: e.Village}
}

func (e AssetDataUpdated) IsReset() bool { return e.Data == nil }

// clone gives each subscriber a record it may keep or modify.
func (e AssetDataUpdated) clone() AssetDataUpdated {
	if e.Data != nil {
		rec := e.Data.Clone()
		e.Data = &rec
	}
	return e
}

type Handler func(ctx context.Context, evt AssetDataUpdated)

type subscriber struct {
	id      uint64
	name    string
	handler Handler
}

// Bus fans assetDataUpdated events out to the subscribers registered at publish
// time. Delivery is synchronous on the publishing goroutine, at most once, with
// no queue or retry.
type Bus struct {
	origin string
	logger *logrus.Logger

	mu     sync.RWMutex
	subs   []subscriber
	nextID uint64

	seq atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{origin: uuid.NewString(), logger: config.GetLogger()}
}

// Origin identifies this process on events it publishes.
func (b *Bus) Origin() string { return b.origin }

// LastSeq is the sequence number of the most recent event.
func (b *Bus) LastSeq() uint64 { return b.seq.Load() }

// Subscribe registers handler and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (b *Bus) Subscribe(name string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, name: name, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish emits an event for key. data may be nil to signal a reset.
func (b *Bus) Publish(ctx context.Context, key models.LocationKey, data *models.AssetRecord) AssetDataUpdated {
	return b.PublishEvent(ctx, AssetDataUpdated{
		State:    key.State,
		District: key.District,
		Village:  key.Village,
		Data:     data,
	})
}

// PublishEvent emits evt after assigning the local sequence number. ID, Origin
// and PublishedAt are kept when set, so relayed events keep their identity.
func (b *Bus) PublishEvent(ctx context.Context, evt AssetDataUpdated) AssetDataUpdated {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Origin == "" {
		evt.Origin = b.origin
	}
	if evt.PublishedAt.IsZero() {
		evt.PublishedAt = time.Now().UTC()
	}
	if evt.Data != nil {
		rec := evt.Data.Clone()
		evt.Data = &rec
	}
	evt.Seq = b.seq.Add(1)

	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.logger.WithFields(logrus.Fields{
		"event":       EventAssetDataUpdated,
		"id":          evt.ID,
		"seq":         evt.Seq,
		"village":     evt.Village,
		"reset":       evt.IsReset(),
		"subscribers": len(subs),
	}).Debug("publish")

	for _, s := range subs {
		b.deliver(ctx, s, evt.clone())
	}
	return evt
}

func (b *Bus) deliver(ctx context.Context, s subscriber, evt AssetDataUpdated) {
	defer func() {
		if r := recover(); r != nil {
			config.LogError(b.logger, "broadcast", "deliver", "subscriber panicked", map[string]any{
				"subscriber": s.name,
				"id":         evt.ID,
				"seq":        evt.Seq,
			}, fmt.Errorf("panic: %v", r))
		}
	}()
	s.handler(utils.SetConsumerInContext(ctx, s.name), evt)
}
