// Package sqlite is an embedded record store on modernc.org/sqlite. Every
// table shares one records relation keyed by (table_name, id) with the
// posting stored as JSON.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	table_name TEXT NOT NULL,
	id         TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (table_name, id)
)`

type RecordStore struct {
	db *sql.DB
}

var _ domain.RecordStore = (*RecordStore)(nil)

// Open creates the database file and its directory if needed.
func Open(path string) (*RecordStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating records table: %w", err)
	}
	return &RecordStore{db: db}, nil
}

func (s *RecordStore) Close() error {
	return s.db.Close()
}

type payload struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	ImageURL    string    `json:"imageurl"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *RecordStore) Create(ctx context.Context, table string, p domain.Posting) error {
	body, err := json.Marshal(payload(p))
	if err != nil {
		return fmt.Errorf("sqlite.RecordStore.Create: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (table_name, id, payload, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (table_name, id) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		table, p.ID, string(body), p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite.RecordStore.Create %s/%s: %w", table, p.ID, err)
	}
	return nil
}

// FetchAll returns the table's postings, newest first.
func (s *RecordStore) FetchAll(ctx context.Context, table string) ([]domain.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE table_name = ? ORDER BY created_at DESC, id`, table)
	if err != nil {
		return nil, fmt.Errorf("sqlite.RecordStore.FetchAll %s: %w", table, err)
	}
	defer rows.Close()

	var out []domain.Posting
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("sqlite.RecordStore.FetchAll %s: scan: %w", table, err)
		}
		var p payload
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, fmt.Errorf("sqlite.RecordStore.FetchAll %s: decode: %w", table, err)
		}
		out = append(out, domain.Posting(p))
	}
	return out, rows.Err()
}

func (s *RecordStore) Delete(ctx context.Context, table, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE table_name = ? AND id = ?`, table, id); err != nil {
		return fmt.Errorf("sqlite.RecordStore.Delete %s/%s: %w", table, id, err)
	}
	return nil
}
