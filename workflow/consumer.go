package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/sirupsen/logrus"
)

// consumer runs the delayed processing half of a bus subscriber. Work for an
// event is skipped when a newer event arrived during the delay.
type consumer struct {
	name   string
	delay  time.Duration
	logger *logrus.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

func newConsumer(name string, delay time.Duration) *consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &consumer{name: name, delay: delay, logger: config.GetLogger(), ctx: ctx, cancel: cancel}
}

func (c *consumer) subscribe(bus *broadcast.Bus, h broadcast.Handler) {
	c.unsubscribe = bus.Subscribe(c.name, h)
}

// later runs fn after the processing delay, or inline when there is none.
func (c *consumer) later(fn func()) {
	if c.delay <= 0 {
		fn()
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t := time.NewTimer(c.delay)
		defer t.Stop()
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
		}
		fn()
	}()
}

func (c *consumer) stale(ctx context.Context, seq, latest uint64) {
	c.logger.WithFields(c.staleFields(ctx, seq, latest)).Debug("dropping stale asset update")
}

// staleFields names the consumer the bus delivered to and, for events
// published by a selector fetch, the fetch's request id.
func (c *consumer) staleFields(ctx context.Context, seq, latest uint64) logrus.Fields {
	name, ok := utils.GetConsumerFromContext(ctx)
	if !ok {
		name = c.name
	}
	fields := logrus.Fields{"consumer": name, "seq": seq, "latestSeq": latest}
	if id, ok := utils.GetRequestIdFromContext(ctx); ok {
		fields["request_id"] = id
	}
	return fields
}

// Wait blocks until pending processing has finished.
func (c *consumer) Wait() { c.wg.Wait() }

// Close unsubscribes and abandons pending processing.
func (c *consumer) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.cancel()
	c.wg.Wait()
}
