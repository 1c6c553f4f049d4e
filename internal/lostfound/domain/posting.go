package domain

import (
	"strings"
	"time"
)

// DisplayDateLayout is the DD/MM/YYYY form postings are shown with.
const DisplayDateLayout = "02/01/2006"

// GuestAuthor attributes postings created without a signed-in user.
const GuestAuthor = "anonymous"

// Posting is a lost-item report. Postings are immutable once created.
type Posting struct {
	ID          string
	Author      string
	ImageURL    string
	Location    string
	Description string
	CreatedAt   time.Time
}

func (p Posting) DisplayDate() string {
	return p.CreatedAt.Format(DisplayDateLayout)
}

// AuthorOrGuest returns the trimmed display name, or GuestAuthor when empty.
func AuthorOrGuest(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return GuestAuthor
}
