package usecase

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/stretchr/testify/mock"
)

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Create(ctx context.Context, table string, p domain.Posting) error {
	return m.Called(ctx, table, p).Error(0)
}

func (m *MockRecordStore) FetchAll(ctx context.Context, table string) ([]domain.Posting, error) {
	args := m.Called(ctx, table)
	ps, _ := args.Get(0).([]domain.Posting)
	return ps, args.Error(1)
}

func (m *MockRecordStore) Delete(ctx context.Context, table, id string) error {
	return m.Called(ctx, table, id).Error(0)
}

type MockMediaStorage struct {
	mock.Mock
}

func (m *MockMediaStorage) Upload(ctx context.Context, preset string, img domain.Image) (string, error) {
	args := m.Called(ctx, preset, img)
	return args.String(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, payload any) error {
	return m.Called(ctx, subject, payload).Error(0)
}

type MockClaimMailer struct {
	mock.Mock
}

func (m *MockClaimMailer) SendClaimNotice(ctx context.Context, p domain.Posting, c domain.FinderContact) error {
	return m.Called(ctx, p, c).Error(0)
}

type countingMetrics struct {
	created, claimed int
}

func (c *countingMetrics) PostingCreated() { c.created++ }
func (c *countingMetrics) PostingClaimed() { c.claimed++ }
