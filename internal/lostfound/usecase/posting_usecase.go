package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/listing"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/tracer"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PostingMetrics counts posting lifecycle events.
type PostingMetrics interface {
	PostingCreated()
	PostingClaimed()
}

type nopMetrics struct{}

func (nopMetrics) PostingCreated() {}
func (nopMetrics) PostingClaimed() {}

type PostingUsecase struct {
	store     *listing.Store
	records   domain.RecordStore
	media     domain.MediaStorage
	publisher domain.EventPublisher
	metrics   PostingMetrics
	table     string
	preset    string
	now       func() time.Time
	logger    *logger.Logger
}

type PostingUsecaseConfig struct {
	Table        string
	UploadPreset string
}

// NewPostingUsecase wires the add-item path. records and publisher may be
// nil: without a record store postings live only in memory.
func NewPostingUsecase(
	store *listing.Store,
	records domain.RecordStore,
	media domain.MediaStorage,
	publisher domain.EventPublisher,
	metrics PostingMetrics,
	cfg PostingUsecaseConfig,
	log *logger.Logger,
) *PostingUsecase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &PostingUsecase{
		store:     store,
		records:   records,
		media:     media,
		publisher: publisher,
		metrics:   metrics,
		table:     cfg.Table,
		preset:    cfg.UploadPreset,
		now:       time.Now,
		logger:    log.Named("posting_usecase"),
	}
}

type CreatePostingInput struct {
	Author      string
	Photo       domain.Image
	Location    string
	Description string
}

// CreatePosting uploads the photo, records the posting and puts it at the
// head of the listing. Photo, location and description are all required.
func (uc *PostingUsecase) CreatePosting(ctx context.Context, in CreatePostingInput) (domain.Posting, error) {
	ctx, span := tracer.Tracer("usecase").Start(ctx, "PostingUsecase.CreatePosting")
	defer span.End()

	location := strings.TrimSpace(in.Location)
	description := strings.TrimSpace(in.Description)
	var missing []string
	if in.Photo.Empty() {
		missing = append(missing, "photo")
	}
	if location == "" {
		missing = append(missing, "location")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return domain.Posting{}, fmt.Errorf("%w: required fields missing: %s", domain.ErrValidationFailure, strings.Join(missing, ", "))
	}

	url, err := uc.media.Upload(ctx, uc.preset, in.Photo)
	if err != nil {
		uc.logger.Error("Photo upload failed", zap.Error(err), zap.String("file", in.Photo.Name))
		return domain.Posting{}, fmt.Errorf("PostingUsecase.CreatePosting: upload photo: %w", err)
	}

	p := domain.Posting{
		ID:          uuid.NewString(),
		Author:      domain.AuthorOrGuest(in.Author),
		ImageURL:    url,
		Location:    location,
		Description: description,
		CreatedAt:   uc.now(),
	}
	span.SetAttributes(attribute.String("posting.id", p.ID))

	if uc.records != nil {
		if err := uc.records.Create(ctx, uc.table, p); err != nil {
			uc.logger.Warn("Record store unavailable, posting kept in memory only",
				zap.Error(err), zap.String("posting_id", p.ID))
		}
	}

	if _, err := uc.store.Add(p); err != nil {
		uc.logger.Error("Failed to add posting to listing", zap.Error(err), zap.String("posting_id", p.ID))
		return domain.Posting{}, fmt.Errorf("PostingUsecase.CreatePosting: %w", err)
	}
	uc.metrics.PostingCreated()

	if uc.publisher != nil {
		ev := domain.PostingCreatedEvent{
			PostingID: p.ID,
			Author:    p.Author,
			ImageURL:  p.ImageURL,
			Location:  p.Location,
			CreatedAt: p.CreatedAt,
		}
		if err := uc.publisher.Publish(ctx, domain.SubjectPostingCreated, ev); err != nil {
			uc.logger.Warn("Failed to publish posting.created", zap.Error(err), zap.String("posting_id", p.ID))
		}
	}

	uc.logger.Info("Posting created", zap.String("posting_id", p.ID), zap.String("author", p.Author))
	return p, nil
}

func (uc *PostingUsecase) ListPostings(_ context.Context) []domain.Posting {
	return uc.store.List()
}

func (uc *PostingUsecase) GetPosting(_ context.Context, id string) (domain.Posting, error) {
	return uc.store.Get(id)
}

// Bootstrap fills the listing from the fixture plus whatever the record
// store holds. A failing record store degrades to fixture-only.
func (uc *PostingUsecase) Bootstrap(ctx context.Context, fixture []domain.Posting) {
	var stored []domain.Posting
	if uc.records != nil {
		var err error
		stored, err = uc.records.FetchAll(ctx, uc.table)
		if err != nil {
			uc.logger.Warn("Could not fetch stored postings, starting from fixture only", zap.Error(err))
			stored = nil
		}
	}
	uc.store.Seed(listing.Compose(fixture, stored))
	uc.logger.Info("Listing bootstrapped",
		zap.Int("fixture", len(fixture)),
		zap.Int("stored", len(stored)),
		zap.Int("total", uc.store.Len()))
}

// SeedRecords writes every fixture posting into the record store.
func (uc *PostingUsecase) SeedRecords(ctx context.Context, fixture []domain.Posting) (int, error) {
	if uc.records == nil {
		return 0, fmt.Errorf("PostingUsecase.SeedRecords: no record store configured")
	}
	for i, p := range fixture {
		if err := uc.records.Create(ctx, uc.table, p); err != nil {
			return i, fmt.Errorf("PostingUsecase.SeedRecords: posting %s: %w", p.ID, err)
		}
	}
	uc.logger.Info("Record store seeded", zap.Int("count", len(fixture)), zap.String("table", uc.table))
	return len(fixture), nil
}
