package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
)

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

func scanLocation(scanner interface{ Scan(...any) error }) (*model.Location, error) {
	var l model.Location
	var active int
	if err := scanner.Scan(&l.ID, &l.Name, &l.Address, &active, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.IsActive = active != 0
	return &l, nil
}

const locationCols = `id, name, address, is_active, created_at`

func (s *LocationStore) Create(ctx context.Context, name, address string, active bool) (*model.Location, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (id, name, address, is_active) VALUES (?, ?, ?, ?)`,
		id, name, address, boolToInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *LocationStore) GetByID(ctx context.Context, id string) (*model.Location, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+locationCols+` FROM locations WHERE id = ?`, id)
	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (s *LocationStore) List(ctx context.Context) ([]model.Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+locationCols+` FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}

func (s *LocationStore) Update(ctx context.Context, id, name, address string, active bool) (*model.Location, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE locations SET name = ?, address = ?, is_active = ? WHERE id = ?`,
		name, address, boolToInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Deactivate hides a location from scheduling without deleting it; existing
// appointments keep referring to it.
func (s *LocationStore) Deactivate(ctx context.Context, id string) (*model.Location, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE locations SET is_active = 0 WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deactivate location: %w", err)
	}
	return s.GetByID(ctx, id)
}
