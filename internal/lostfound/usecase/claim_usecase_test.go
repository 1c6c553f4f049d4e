package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/listing"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	claimed = domain.Posting{ID: "P1", Author: "maria", ImageURL: "https://cdn.example/p1.jpg"}
	finder  = domain.FinderContact{Name: "Tom", Mobile: "0800", PickupLocation: "Mall"}
)

func TestClaim_RemovesAndNotifies(t *testing.T) {
	store := listing.NewStore()
	store.Seed([]domain.Posting{claimed, {ID: "P2"}})
	records := new(MockRecordStore)
	pub := new(MockEventPublisher)
	mailer := new(MockClaimMailer)
	metrics := &countingMetrics{}

	records.On("Delete", mock.Anything, table, "P1").Return(nil).Once()
	pub.On("Publish", mock.Anything, domain.SubjectPostingClaimed, mock.MatchedBy(func(ev domain.PostingClaimedEvent) bool {
		return ev.PostingID == "P1" && ev.Mobile == "0800" && ev.PickupLocation == "Mall"
	})).Return(nil).Once()
	mailer.On("SendClaimNotice", mock.Anything, claimed, finder).Return(nil).Once()

	uc := NewClaimUsecase(store, records, pub, mailer, metrics, table, logger.NewNop())
	require.NoError(t, uc.Claim(context.Background(), claimed, finder))
	require.NoError(t, uc.Wait(context.Background()))

	assert.Equal(t, []string{"P2"}, postingIDs(store.List()))
	assert.Equal(t, 1, metrics.claimed)
	records.AssertExpectations(t)
	pub.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestClaim_SideEffectFailuresAreBestEffort(t *testing.T) {
	store := listing.NewStore()
	store.Seed([]domain.Posting{claimed})
	records := new(MockRecordStore)
	pub := new(MockEventPublisher)
	mailer := new(MockClaimMailer)
	records.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mongo down"))
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats down"))
	mailer.On("SendClaimNotice", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	uc := NewClaimUsecase(store, records, pub, mailer, nil, table, logger.NewNop())
	require.NoError(t, uc.Claim(context.Background(), claimed, finder))
	require.NoError(t, uc.Wait(context.Background()))
	assert.Zero(t, store.Len())
	mailer.AssertNumberOfCalls(t, "SendClaimNotice", 1)
}

func TestClaim_ReturnsBeforeSlowNotifications(t *testing.T) {
	store := listing.NewStore()
	store.Seed([]domain.Posting{claimed})
	mailer := new(MockClaimMailer)
	release := make(chan struct{})
	var deadline time.Time
	mailer.On("SendClaimNotice", mock.Anything, claimed, finder).Run(func(args mock.Arguments) {
		deadline, _ = args.Get(0).(context.Context).Deadline()
		<-release
	}).Return(nil).Once()

	uc := NewClaimUsecase(store, nil, nil, mailer, nil, table, logger.NewNop())
	uc.notifyTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan error, 1)
	go func() { returned <- uc.Claim(ctx, claimed, finder) }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Claim waited on the mailer")
	}
	assert.Zero(t, store.Len())

	// The request context ending must not cut the notification short.
	cancel()
	waitCtx, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	assert.ErrorIs(t, uc.Wait(waitCtx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, uc.Wait(context.Background()))
	assert.False(t, deadline.IsZero())
	mailer.AssertExpectations(t)
}

func TestClaim_Idempotent(t *testing.T) {
	store := listing.NewStore()
	store.Seed([]domain.Posting{claimed})
	metrics := &countingMetrics{}
	uc := NewClaimUsecase(store, nil, nil, nil, metrics, table, logger.NewNop())

	require.NoError(t, uc.Claim(context.Background(), claimed, finder))
	require.NoError(t, uc.Claim(context.Background(), claimed, finder))
	assert.Zero(t, store.Len())
	assert.Equal(t, 1, metrics.claimed)
}
