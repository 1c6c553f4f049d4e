package domain

import "time"

const (
	SubjectPostingCreated = "posting.created"
	SubjectPostingClaimed = "posting.claimed"
)

type PostingCreatedEvent struct {
	PostingID string    `json:"postingId"`
	Author    string    `json:"author"`
	ImageURL  string    `json:"imageurl"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostingClaimedEvent struct {
	PostingID      string    `json:"postingId"`
	FinderName     string    `json:"finderName,omitempty"`
	Mobile         string    `json:"mobile"`
	PickupLocation string    `json:"pickupLocation"`
	ClaimedAt      time.Time `json:"claimedAt"`
}
