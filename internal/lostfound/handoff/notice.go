package handoff

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/google/uuid"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, dismissible message shown with the flow.
type Notice struct {
	ID        string
	Level     NoticeLevel
	Kind      domain.Kind
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (n Notice) expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

type noticeBoard struct {
	ttl     time.Duration
	notices []Notice
}

func (b *noticeBoard) post(now time.Time, level NoticeLevel, kind domain.Kind, msg string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}
	b.notices = append(b.notices, n)
	return n
}

func (b *noticeBoard) dismiss(id string) bool {
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i:i], b.notices[i+1:]...)
			return true
		}
	}
	return false
}

// active drops expired notices and returns a copy of the rest.
func (b *noticeBoard) active(now time.Time) []Notice {
	kept := b.notices[:0]
	for _, n := range b.notices {
		if !n.expired(now) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}

func (b *noticeBoard) clear() {
	b.notices = nil
}
