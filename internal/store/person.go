package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
)

type ClinicianStore struct {
	db *sql.DB
}

func NewClinicianStore(db *sql.DB) *ClinicianStore {
	return &ClinicianStore{db: db}
}

func (s *ClinicianStore) Create(ctx context.Context, firstName, lastName string) (*model.Clinician, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clinicians (id, first_name, last_name) VALUES (?, ?, ?)`,
		id, firstName, lastName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert clinician: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ClinicianStore) GetByID(ctx context.Context, id string) (*model.Clinician, error) {
	var c model.Clinician
	err := s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, created_at FROM clinicians WHERE id = ?`, id,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clinician: %w", err)
	}
	return &c, nil
}

func (s *ClinicianStore) List(ctx context.Context) ([]model.Clinician, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, created_at FROM clinicians ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list clinicians: %w", err)
	}
	defer rows.Close()

	var clinicians []model.Clinician
	for rows.Next() {
		var c model.Clinician
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan clinician: %w", err)
		}
		clinicians = append(clinicians, c)
	}
	return clinicians, rows.Err()
}

type ClientStore struct {
	db *sql.DB
}

func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db}
}

func scanClient(scanner interface{ Scan(...any) error }) (*model.Client, error) {
	var c model.Client
	var active int
	if err := scanner.Scan(&c.ID, &c.LegalFirstName, &c.LegalLastName, &c.PreferredName, &active, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.IsActive = active != 0
	return &c, nil
}

const clientCols = `id, legal_first_name, legal_last_name, preferred_name, is_active, created_at`

func (s *ClientStore) Create(ctx context.Context, firstName, lastName, preferredName string) (*model.Client, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, legal_first_name, legal_last_name, preferred_name) VALUES (?, ?, ?, ?)`,
		id, firstName, lastName, preferredName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ClientStore) GetByID(ctx context.Context, id string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientCols+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// List returns clients ordered by legal name. When activeOnly is set,
// inactive clients are left out.
func (s *ClientStore) List(ctx context.Context, activeOnly bool) ([]model.Client, error) {
	query := `SELECT ` + clientCols + ` FROM clients`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY legal_last_name, legal_first_name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}
