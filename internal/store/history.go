package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
)

type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record appends an activity entry to the audit log.
func (s *HistoryStore) Record(ctx context.Context, description string, userID, clientID *string, hipaa bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit (event_type, event_text, user_id, client_id, is_hipaa) VALUES (?, ?, ?, ?, ?)`,
		model.HistoryEventType, description, nullString(userID), nullString(clientID), boolToInt(hipaa),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List returns one page of history entries, newest first. search matches
// the event text.
func (s *HistoryStore) List(ctx context.Context, search string, page, limit int) ([]model.HistoryEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where := `WHERE event_type = ?`
	args := []any{model.HistoryEventType}
	if search != "" {
		where += ` AND event_text LIKE ?`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, datetime, event_type, event_text, user_id, client_id, is_hipaa FROM audit `+where+`
		 ORDER BY datetime DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var userID, clientID sql.NullString
		var hipaa int
		if err := rows.Scan(&e.ID, &e.Datetime, &e.EventType, &e.EventText, &userID, &clientID, &hipaa); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		e.UserID = stringPtr(userID)
		e.ClientID = stringPtr(clientID)
		e.IsHIPAA = hipaa != 0
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
