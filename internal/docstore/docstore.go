// Package docstore defines the keyed document collection the announcement
// engine is built on: per-key read, merge-write, delete, and live change
// delivery. Persistence (Backend) and change signalling (Bus) are separate
// collaborators composed by Store, so DynamoDB persistence can share a Redis
// change channel with the all-Redis development backend.
package docstore

import (
	"context"
	"errors"
	"sync"

	"github.com/railvoice/railvoice/internal/domain"
)

// Document is the per-partition record. A partition key addresses either a
// train ("train:<id>") or a transit line ("line:<id>"); the two namespaces
// never collide.
type Document struct {
	Key           string                `json:"key" dynamodbav:"partition_key"`
	Announcements []domain.Announcement `json:"announcements" dynamodbav:"announcements"`
	UpdatedAt     int64                 `json:"updated_at" dynamodbav:"updated_at"`
}

// Backend persists documents. Read returns domain.ErrNotFound for a key that
// was never written. WriteMerge sets only the provided fields, preserving any
// others on the stored document.
type Backend interface {
	Read(ctx context.Context, key string) (*Document, error)
	WriteMerge(ctx context.Context, key string, fields map[string]interface{}) error
	Delete(ctx context.Context, key string) error
}

// ChangeFeed delivers change signals for one key until closed.
type ChangeFeed interface {
	Signals() <-chan struct{}
	Errors() <-chan error
	Close() error
}

// Bus broadcasts "this key changed" signals to live subscribers.
type Bus interface {
	Publish(ctx context.Context, key string) error
	Subscribe(ctx context.Context, key string) (ChangeFeed, error)
}

// Store combines a Backend with a Bus. Every successful write publishes the
// key; every subscriber re-reads the backend per signal so consumers always
// observe a full merged document, never a partial diff.
type Store struct {
	backend Backend
	bus     Bus
}

func New(backend Backend, bus Bus) *Store {
	return &Store{backend: backend, bus: bus}
}

func (s *Store) Read(ctx context.Context, key string) (*Document, error) {
	return s.backend.Read(ctx, key)
}

func (s *Store) WriteMerge(ctx context.Context, key string, fields map[string]interface{}) error {
	if err := s.backend.WriteMerge(ctx, key, fields); err != nil {
		return err
	}
	return s.bus.Publish(ctx, key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		return err
	}
	return s.bus.Publish(ctx, key)
}

// Subscription is a live view over one document. Snapshots() delivers the
// current document immediately on subscribe and again after every change; a
// deleted or never-written document is delivered as an empty one. Errors from
// the underlying channel are forwarded on Errors() without retrying.
// Caller must Close() when done; Close is safe to call more than once.
type Subscription struct {
	snapshots chan *Document
	errs      chan error
	cancel    func()
	once      sync.Once
}

func (s *Subscription) Snapshots() <-chan *Document { return s.snapshots }
func (s *Subscription) Errors() <-chan error        { return s.errs }

func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe opens a live subscription on key. The returned subscription is
// also torn down when ctx is cancelled.
func (s *Store) Subscribe(ctx context.Context, key string) (*Subscription, error) {
	feed, err := s.bus.Subscribe(ctx, key)
	if err != nil {
		return nil, err
	}

	snapshots := make(chan *Document, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(snapshots)
		defer close(errs)
		defer feed.Close()

		deliver := func() bool {
			doc, err := s.backend.Read(subCtx, key)
			if errors.Is(err, domain.ErrNotFound) {
				doc = &Document{Key: key}
			} else if err != nil {
				select {
				case errs <- err:
				case <-subCtx.Done():
					return false
				}
				return true
			}
			select {
			case snapshots <- doc:
			case <-subCtx.Done():
				return false
			}
			return true
		}

		if !deliver() {
			return
		}

		signals, feedErrs := feed.Signals(), feed.Errors()
		for signals != nil || feedErrs != nil {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					signals = nil
					continue
				}
				if !deliver() {
					return
				}
			case err, ok := <-feedErrs:
				if !ok {
					feedErrs = nil
					continue
				}
				select {
				case errs <- err:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{snapshots: snapshots, errs: errs, cancel: cancel}, nil
}
