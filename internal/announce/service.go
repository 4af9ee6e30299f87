package announce

import (
	"context"
	"log/slog"
	"time"

	"github.com/railvoice/railvoice/internal/domain"
	"github.com/railvoice/railvoice/internal/pkg/id"
)

// CreateRequest carries everything needed to issue an announcement. Origin
// fields come from the authenticated announcer's claims when present; LineID
// is set when the announcement addresses a whole transit line.
type CreateRequest struct {
	TrainID     string
	Text        string
	Priority    domain.Priority
	OriginName  string
	OriginID    string
	OriginEmail string
	LineID      string
}

// Pusher fans an emergency announcement out to the push-notification
// channel. Best effort: a push failure never fails the create.
type Pusher interface {
	PublishEmergency(ctx context.Context, a domain.Announcement) error
}

// Service is the consumer-facing announcement contract: the only entry
// points surrounding code may use.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*domain.Announcement, error)
	Remove(ctx context.Context, trainID string, a domain.Announcement) error
	ListAll(ctx context.Context, trainID string) ([]domain.Announcement, error)
	SubscribeTrain(ctx context.Context, trainID string) (*Subscription, error)
	SubscribeLine(ctx context.Context, lineID string) (*Subscription, error)
	SubscribeCombined(ctx context.Context, lineID, trainID string) (*Subscription, error)
}

type service struct {
	store *Store
	push  Pusher
	now   func() time.Time
}

// NewService creates the announcement lifecycle service. push may be nil.
func NewService(store *Store, push Pusher) Service {
	return &service{store: store, push: push, now: time.Now}
}

// Create stamps identity and creation time, appends to the train partition
// and, for line-scoped announcements, to the line partition as well. When
// the line write fails the train entry just written is removed again so the
// two partitions don't drift apart; the failure still propagates.
func (s *service) Create(ctx context.Context, req CreateRequest) (*domain.Announcement, error) {
	a := domain.Announcement{
		ID:          id.New(),
		Text:        req.Text,
		Priority:    req.Priority,
		OriginName:  req.OriginName,
		OriginID:    req.OriginID,
		OriginEmail: req.OriginEmail,
		LineID:      req.LineID,
		CreatedAt:   s.now().UnixMilli(),
	}

	if err := s.store.Append(ctx, TrainKey(req.TrainID), a); err != nil {
		return nil, err
	}
	if req.LineID != "" {
		if err := s.store.Append(ctx, LineKey(req.LineID), a); err != nil {
			if rbErr := s.store.Remove(ctx, TrainKey(req.TrainID), a.ID); rbErr != nil {
				slog.Warn("could not undo train write after line write failure",
					"train", req.TrainID, "line", req.LineID, "err", rbErr)
			}
			return nil, err
		}
	}

	if a.Priority == domain.PriorityEmergency && s.push != nil {
		if err := s.push.PublishEmergency(ctx, a); err != nil {
			slog.Warn("emergency push failed", "train", req.TrainID, "err", err)
		}
	}
	return &a, nil
}

// Remove deletes the announcement from its train partition and, when
// line-scoped, from its line partition. Both removals are attempted
// independently; the second is not undone when the first fails, and the
// first error encountered is reported.
func (s *service) Remove(ctx context.Context, trainID string, a domain.Announcement) error {
	err := s.store.Remove(ctx, TrainKey(trainID), a.ID)
	if a.LineID != "" {
		if lineErr := s.store.Remove(ctx, LineKey(a.LineID), a.ID); lineErr != nil && err == nil {
			err = lineErr
		}
	}
	return err
}

func (s *service) ListAll(ctx context.Context, trainID string) ([]domain.Announcement, error) {
	return s.store.ReadAll(ctx, TrainKey(trainID))
}

func (s *service) SubscribeTrain(ctx context.Context, trainID string) (*Subscription, error) {
	return s.store.SubscribeLive(ctx, TrainKey(trainID))
}

func (s *service) SubscribeLine(ctx context.Context, lineID string) (*Subscription, error) {
	return s.store.SubscribeLive(ctx, LineKey(lineID))
}

func (s *service) SubscribeCombined(ctx context.Context, lineID, trainID string) (*Subscription, error) {
	return s.store.SubscribeCombined(ctx, lineID, trainID)
}
