// Package redisbus broadcasts partition change signals over Redis Pub/Sub.
// Writers publish the changed partition key; live subscribers get a signal
// and re-read the backend. Delivery is at-most-once: a slow subscriber may
// miss a signal, but the next one brings it back to the current state
// because subscribers always re-read the full document.
package redisbus

import (
	"context"
	"sync"

	"github.com/railvoice/railvoice/internal/docstore"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "railvoice:changes:"

func channelFor(key string) string {
	return channelPrefix + key
}

// Bus implements docstore.Bus on a shared Redis client.
type Bus struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

func (b *Bus) Publish(ctx context.Context, key string) error {
	return b.rdb.Publish(ctx, channelFor(key), key).Err()
}

// feed pumps Pub/Sub messages for one key into a signal channel.
type feed struct {
	signals chan struct{}
	errs    chan error
	cancel  func()
	once    sync.Once
}

func (f *feed) Signals() <-chan struct{} { return f.signals }
func (f *feed) Errors() <-chan error     { return f.errs }

func (f *feed) Close() error {
	f.once.Do(f.cancel)
	return nil
}

// Subscribe opens a Pub/Sub subscription on the key's change channel.
// The returned feed is also torn down when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, key string) (docstore.ChangeFeed, error) {
	pubsub := b.rdb.Subscribe(ctx, channelFor(key))
	// Force the SUBSCRIBE command onto the wire so no published signal can
	// slip past between Subscribe returning and the pump starting.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	signals := make(chan struct{}, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(signals)
		defer close(errs)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case signals <- struct{}{}:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &feed{signals: signals, errs: errs, cancel: cancel}, nil
}
