package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	domain.DisplayDateLayout,
	time.RFC3339,
}

// ParseDate accepts YYYY-MM-DD, DD/MM/YYYY or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// fixtureID accepts both JSON numbers and strings.
type fixtureID string

func (id *fixtureID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = fixtureID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = fixtureID(n.String())
	return nil
}

type fixtureEntry struct {
	ID          fixtureID `json:"id"`
	Author      string    `json:"author"`
	ImageURL    string    `json:"imageurl"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   string    `json:"createdAt"`
}

// ParseFixture decodes a JSON array of seed postings, keeping their order.
func ParseFixture(r io.Reader) ([]domain.Posting, error) {
	var entries []fixtureEntry
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("listing.ParseFixture: decode: %w", err)
	}

	out := make([]domain.Posting, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(string(e.ID))
		if id == "" {
			return nil, fmt.Errorf("listing.ParseFixture: entry %d: missing id", i)
		}
		created, err := ParseDate(e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("listing.ParseFixture: entry %s: %w", id, err)
		}
		out = append(out, domain.Posting{
			ID:          id,
			Author:      domain.AuthorOrGuest(e.Author),
			ImageURL:    strings.TrimSpace(e.ImageURL),
			Location:    e.Location,
			Description: e.Description,
			CreatedAt:   created,
		})
	}
	return out, nil
}

func LoadFixture(path string) ([]domain.Posting, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("listing.LoadFixture: %w", err)
	}
	defer f.Close()
	return ParseFixture(f)
}
