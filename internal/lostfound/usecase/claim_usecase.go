package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/listing"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ClaimUsecase retires a posting after a finder's contact is accepted.
type ClaimUsecase struct {
	store     *listing.Store
	records   domain.RecordStore
	publisher domain.EventPublisher
	mailer    domain.ClaimMailer
	metrics   PostingMetrics
	table     string
	now       func() time.Time
	logger    *logger.Logger

	// notifyTimeout bounds the background record delete, publish and mail.
	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

const defaultNotifyTimeout = 30 * time.Second

// NewClaimUsecase: records, publisher and mailer are optional.
func NewClaimUsecase(
	store *listing.Store,
	records domain.RecordStore,
	publisher domain.EventPublisher,
	mailer domain.ClaimMailer,
	metrics PostingMetrics,
	table string,
	log *logger.Logger,
) *ClaimUsecase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ClaimUsecase{
		store:     store,
		records:   records,
		publisher: publisher,
		mailer:    mailer,
		metrics:   metrics,
		table:     table,
		now:       time.Now,
		logger:    log.Named("claim_usecase"),

		notifyTimeout: defaultNotifyTimeout,
	}
}

// Claim removes p from the listing and returns. Deleting the stored record,
// publishing posting.claimed and mailing the claim desk run in the background
// under their own deadline, and are only logged when they fail.
func (uc *ClaimUsecase) Claim(ctx context.Context, p domain.Posting, c domain.FinderContact) error {
	removed := uc.store.Remove(p.ID)
	if removed {
		uc.metrics.PostingClaimed()
	}
	uc.logger.Info("Posting claimed", zap.String("posting_id", p.ID), zap.Bool("was_listed", removed))

	if uc.records == nil && uc.publisher == nil && uc.mailer == nil {
		return nil
	}
	ev := domain.PostingClaimedEvent{
		PostingID:      p.ID,
		FinderName:     c.Name,
		Mobile:         c.Mobile,
		PickupLocation: c.PickupLocation,
		ClaimedAt:      uc.now(),
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.notifyTimeout)
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		defer cancel()
		uc.notify(notifyCtx, p, c, ev)
	}()
	return nil
}

func (uc *ClaimUsecase) notify(ctx context.Context, p domain.Posting, c domain.FinderContact, ev domain.PostingClaimedEvent) {
	log := uc.logger.With(zap.String("posting_id", p.ID))

	if uc.records != nil {
		if err := uc.records.Delete(ctx, uc.table, p.ID); err != nil {
			log.Warn("Failed to delete claimed posting from record store", zap.Error(err))
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, domain.SubjectPostingClaimed, ev); err != nil {
			log.Warn("Failed to publish posting.claimed", zap.Error(err))
		}
	}
	if uc.mailer != nil {
		if err := uc.mailer.SendClaimNotice(ctx, p, c); err != nil {
			log.Warn("Failed to send claim desk mail", zap.Error(err))
		}
	}
}

// Wait blocks until background claim notifications finish or ctx is done.
func (uc *ClaimUsecase) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
