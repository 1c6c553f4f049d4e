package domain

import (
	"context"
	"time"
)

// RecordStore persists postings beyond the process lifetime, grouped by table.
type RecordStore interface {
	Create(ctx context.Context, table string, p Posting) error
	FetchAll(ctx context.Context, table string) ([]Posting, error)
	Delete(ctx context.Context, table, id string) error
}

// MediaStorage hosts uploaded photos under an upload preset and returns
// their public URL.
type MediaStorage interface {
	Upload(ctx context.Context, preset string, img Image) (string, error)
}

// ImageCache keeps recently fetched remote images. Get returns ErrCacheMiss
// when nothing is stored under key.
type ImageCache interface {
	Get(ctx context.Context, key string) (Image, error)
	Set(ctx context.Context, key string, img Image, ttl time.Duration) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type ClaimMailer interface {
	SendClaimNotice(ctx context.Context, p Posting, c FinderContact) error
}
