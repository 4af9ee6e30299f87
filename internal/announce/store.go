package announce

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/railvoice/railvoice/internal/docstore"
	"github.com/railvoice/railvoice/internal/domain"
	"github.com/railvoice/railvoice/internal/retention"
)

// MaxAnnouncements bounds a train partition's stored list. The oldest
// surplus entries are evicted on write.
const MaxAnnouncements = 20

// Documents is the slice of the document store the adapter needs.
// *docstore.Store satisfies it.
type Documents interface {
	Read(ctx context.Context, key string) (*docstore.Document, error)
	WriteMerge(ctx context.Context, key string, fields map[string]interface{}) error
	Subscribe(ctx context.Context, key string) (*docstore.Subscription, error)
}

// Store translates announcement operations into document reads and writes,
// applying capacity trimming and retention filtering. Appends and removals
// to the same partition are serialized through a per-key lock so two
// concurrent read-modify-write cycles cannot silently drop each other's
// entries.
type Store struct {
	docs Documents
	now  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(docs Documents) *Store {
	return &Store{
		docs:  docs,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Append adds an announcement to the partition. Train partitions are pruned
// to the keep window and capped at MaxAnnouncements; both partition kinds
// are stored newest first. Store errors propagate to the caller.
func (s *Store) Append(ctx context.Context, key string, a domain.Announcement) error {
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	list, err := s.currentList(ctx, key)
	if err != nil {
		return err
	}
	list = append(list, a)

	if isTrainKey(key) {
		now := s.now()
		kept := make([]domain.Announcement, 0, len(list))
		for _, entry := range list {
			if retention.ShouldKeep(entry.CreatedAt, now) {
				kept = append(kept, entry)
			}
		}
		list = kept
		// Drop the oldest surplus by insertion order, before the final sort.
		if len(list) > MaxAnnouncements {
			list = list[len(list)-MaxAnnouncements:]
		}
	}
	sortNewestFirst(list)

	return s.writeList(ctx, key, list)
}

// ReadAll returns the partition's announcements filtered to the display
// window and sorted newest first. A partition that was never written reads
// as empty.
func (s *Store) ReadAll(ctx context.Context, key string) ([]domain.Announcement, error) {
	doc, err := s.docs.Read(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Announcement{}, nil
	}
	if err != nil {
		return nil, err
	}
	return displayList(doc.Announcements, s.now()), nil
}

// Remove deletes the entry with the given announcement ID and writes the
// remainder back. Removing from a partition that was never written fails
// with domain.ErrPartitionNotFound; removing an ID that is not present in
// an existing partition is a silent no-op.
func (s *Store) Remove(ctx context.Context, key, announcementID string) error {
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	doc, err := s.docs.Read(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("remove from %s: %w", key, domain.ErrPartitionNotFound)
	}
	if err != nil {
		return err
	}

	remainder := make([]domain.Announcement, 0, len(doc.Announcements))
	for _, entry := range doc.Announcements {
		if entry.ID != announcementID {
			remainder = append(remainder, entry)
		}
	}
	return s.writeList(ctx, key, remainder)
}

// SubscribeLive opens a live subscription on the partition. Every emission
// is the full display-filtered, newest-first list; a deleted partition
// emits an empty list. Channel errors are forwarded without retrying.
func (s *Store) SubscribeLive(ctx context.Context, key string) (*Subscription, error) {
	inner, err := s.docs.Subscribe(ctx, key)
	if err != nil {
		return nil, err
	}

	updates := make(chan []domain.Announcement, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(updates)
		defer close(errs)
		defer inner.Close()

		snapshots, innerErrs := inner.Snapshots(), inner.Errors()
		for snapshots != nil || innerErrs != nil {
			select {
			case <-subCtx.Done():
				return
			case doc, ok := <-snapshots:
				if !ok {
					snapshots = nil
					continue
				}
				select {
				case updates <- displayList(doc.Announcements, s.now()):
				case <-subCtx.Done():
					return
				}
			case err, ok := <-innerErrs:
				if !ok {
					innerErrs = nil
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

	return &Subscription{updates: updates, errs: errs, cancel: cancel}, nil
}

func (s *Store) currentList(ctx context.Context, key string) ([]domain.Announcement, error) {
	doc, err := s.docs.Read(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Announcements, nil
}

func (s *Store) writeList(ctx context.Context, key string, list []domain.Announcement) error {
	if list == nil {
		list = []domain.Announcement{}
	}
	return s.docs.WriteMerge(ctx, key, map[string]interface{}{
		"announcements": list,
		"updated_at":    s.now().UnixMilli(),
	})
}

func sortNewestFirst(list []domain.Announcement) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt > list[j].CreatedAt
	})
}

// displayList filters to the display window and sorts newest first without
// mutating the input.
func displayList(list []domain.Announcement, now time.Time) []domain.Announcement {
	out := make([]domain.Announcement, 0, len(list))
	for _, entry := range list {
		if retention.ShouldDisplay(entry.CreatedAt, now) {
			out = append(out, entry)
		}
	}
	sortNewestFirst(out)
	return out
}
