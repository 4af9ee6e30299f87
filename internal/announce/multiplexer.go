package announce

import (
	"context"
	"fmt"
	"time"

	"github.com/railvoice/railvoice/internal/domain"
	"github.com/railvoice/railvoice/internal/retention"
)

// SubscribeCombined merges the live streams of a line partition and a train
// partition into one. Either identifier may be empty (but not both). Each
// source's buffer is replaced wholesale on every emission from that source;
// every merged emission is deduplicated by announcement ID, display-filtered
// and sorted newest first.
//
// If one of the two underlying subscriptions fails to establish, the
// surviving one still operates and the failure is forwarded once on
// Errors(); it is not retried. Closing the returned subscription tears down
// both sources.
func (s *Store) SubscribeCombined(ctx context.Context, lineID, trainID string) (*Subscription, error) {
	if lineID == "" && trainID == "" {
		return nil, fmt.Errorf("combined subscription needs a line or a train: %w", domain.ErrBadRequest)
	}

	var lineSub, trainSub *Subscription
	var subErr error

	if lineID != "" {
		lineSub, subErr = s.SubscribeLive(ctx, LineKey(lineID))
	}
	if trainID != "" {
		var err error
		trainSub, err = s.SubscribeLive(ctx, TrainKey(trainID))
		if err != nil {
			if subErr == nil {
				subErr = err
			}
		}
	}
	if lineSub == nil && trainSub == nil {
		return nil, subErr
	}

	updates := make(chan []domain.Announcement, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(updates)
		defer close(errs)
		defer func() {
			if lineSub != nil {
				_ = lineSub.Close()
			}
			if trainSub != nil {
				_ = trainSub.Close()
			}
		}()

		var lineBuf, trainBuf []domain.Announcement
		var lineCh, trainCh <-chan []domain.Announcement
		var lineErrCh, trainErrCh <-chan error
		if lineSub != nil {
			lineCh, lineErrCh = lineSub.Updates(), lineSub.Errors()
		}
		if trainSub != nil {
			trainCh, trainErrCh = trainSub.Updates(), trainSub.Errors()
		}

		forward := func(err error) bool {
			select {
			case errs <- err:
				return true
			case <-subCtx.Done():
				return false
			}
		}

		if subErr != nil && !forward(subErr) {
			return
		}

		emit := func() bool {
			select {
			case updates <- mergeBuffers(lineBuf, trainBuf, s.now()):
				return true
			case <-subCtx.Done():
				return false
			}
		}

		for lineCh != nil || trainCh != nil || lineErrCh != nil || trainErrCh != nil {
			select {
			case <-subCtx.Done():
				return
			case list, ok := <-lineCh:
				if !ok {
					lineCh = nil
					continue
				}
				lineBuf = list
				if !emit() {
					return
				}
			case list, ok := <-trainCh:
				if !ok {
					trainCh = nil
					continue
				}
				trainBuf = list
				if !emit() {
					return
				}
			case err, ok := <-lineErrCh:
				if !ok {
					lineErrCh = nil
					continue
				}
				if !forward(err) {
					return
				}
			case err, ok := <-trainErrCh:
				if !ok {
					trainErrCh = nil
					continue
				}
				if !forward(err) {
					return
				}
			}
		}
	}()

	return &Subscription{updates: updates, errs: errs, cancel: cancel}, nil
}

// mergeBuffers concatenates both buffers, drops duplicate IDs (a line-scoped
// announcement exists in both its train and line partitions), re-applies the
// display filter and sorts newest first.
func mergeBuffers(lineBuf, trainBuf []domain.Announcement, now time.Time) []domain.Announcement {
	merged := make([]domain.Announcement, 0, len(lineBuf)+len(trainBuf))
	seen := make(map[string]struct{}, len(lineBuf)+len(trainBuf))
	for _, entry := range append(append([]domain.Announcement{}, lineBuf...), trainBuf...) {
		if _, dup := seen[entry.ID]; dup {
			continue
		}
		seen[entry.ID] = struct{}{}
		if retention.ShouldDisplay(entry.CreatedAt, now) {
			merged = append(merged, entry)
		}
	}
	sortNewestFirst(merged)
	return merged
}
