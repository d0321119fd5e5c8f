package assetsync

import (
	"context"
	"sync"
	"time"

	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/sirupsen/logrus"
)

const (
	publishQueueSize = 64
	publishTimeout   = 10 * time.Second
)

// PublishFunc sends one message and returns the server-assigned id.
type PublishFunc func(ctx context.Context, msg config.AssetUpdateMessage) (string, error)

// Publisher forwards events that originate on this bus to Pub/Sub. Relayed
// events are skipped so instances do not echo each other. Messages are sent
// from a background worker; when its queue is full the event is dropped.
type Publisher struct {
	origin  string
	publish PublishFunc
	logger  *logrus.Logger

	// mu guards sends on queue against Close.
	mu          sync.Mutex
	closed      bool
	queue       chan config.AssetUpdateMessage
	unsubscribe func()
	closeOnce   sync.Once
	done        chan struct{}
}

func NewPublisher(bus *broadcast.Bus, publish PublishFunc) *Publisher {
	if publish == nil {
		publish = config.PublishAssetUpdate
	}
	p := &Publisher{
		origin:  bus.Origin(),
		publish: publish,
		logger:  config.GetLogger(),
		queue:   make(chan config.AssetUpdateMessage, publishQueueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	p.unsubscribe = bus.Subscribe("pubsub-publisher", p.handle)
	return p
}

func (p *Publisher) handle(_ context.Context, evt broadcast.AssetDataUpdated) {
	if evt.Origin != p.origin {
		return
	}
	msg, err := EncodeEvent(evt)
	if err != nil {
		config.LogError(p.logger, "assetsync", "Publisher.handle", "encode event", evt.ID, err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.logger.WithFields(logrus.Fields{"event_id": evt.ID, "village": evt.Village}).Warn("pubsub publish queue full; dropping event")
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		id, err := p.publish(ctx, msg)
		cancel()
		if err != nil {
			config.LogError(p.logger, "assetsync", "Publisher.run", "publish asset update", msg.EventId, err)
			continue
		}
		p.logger.WithFields(logrus.Fields{
			"event_id":   msg.EventId,
			"message_id": id,
			"village":    msg.Village,
		}).Debug("asset update published")
	}
}

// Close unsubscribes and waits until queued messages have been sent.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.unsubscribe()
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
		<-p.done
	})
}
