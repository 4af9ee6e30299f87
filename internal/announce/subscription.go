package announce

import (
	"sync"

	"github.com/railvoice/railvoice/internal/domain"
)

// Subscription is a live announcement stream. Updates() delivers the full
// re-filtered, newest-first list on every emission; no incremental diffs
// are exposed. Caller must Close() when done; Close is safe to call more
// than once and tears down every underlying subscription.
type Subscription struct {
	updates chan []domain.Announcement
	errs    chan error
	cancel  func()
	once    sync.Once
}

func (s *Subscription) Updates() <-chan []domain.Announcement { return s.updates }
func (s *Subscription) Errors() <-chan error                  { return s.errs }

func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}
