package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultServiceRate applies when a service is created without a rate.
var DefaultServiceRate = decimal.NewFromInt(175)

type ServiceStore struct {
	db *sql.DB
}

func NewServiceStore(db *sql.DB) *ServiceStore {
	return &ServiceStore{db: db}
}

const serviceCols = `s.id, s.type, s.code, s.duration, s.description, s.rate`

func scanService(scanner interface{ Scan(...any) error }) (*model.PracticeService, error) {
	var ps model.PracticeService
	if err := scanner.Scan(&ps.ID, &ps.Type, &ps.Code, &ps.Duration, &ps.Description, &ps.Rate); err != nil {
		return nil, err
	}
	return &ps, nil
}

func (s *ServiceStore) Create(ctx context.Context, typ, code string, duration int, description string, rate decimal.Decimal) (*model.PracticeService, error) {
	if rate.IsZero() {
		rate = DefaultServiceRate
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO practice_services (id, type, code, duration, description, rate) VALUES (?, ?, ?, ?, ?, ?)`,
		id, typ, code, duration, description, rate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert service: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ServiceStore) GetByID(ctx context.Context, id string) (*model.PracticeService, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+serviceCols+` FROM practice_services s WHERE s.id = ?`, id)
	ps, err := scanService(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return ps, nil
}

func (s *ServiceStore) List(ctx context.Context) ([]model.PracticeService, error) {
	return s.query(ctx, `SELECT `+serviceCols+` FROM practice_services s ORDER BY s.code`)
}

// ListForClinician returns the services a clinician offers.
func (s *ServiceStore) ListForClinician(ctx context.Context, clinicianID string) ([]model.PracticeService, error) {
	return s.query(ctx,
		`SELECT `+serviceCols+` FROM practice_services s
		 JOIN clinician_services cs ON cs.service_id = s.id
		 WHERE cs.clinician_id = ?
		 ORDER BY s.code`,
		clinicianID,
	)
}

// Assign links a service to a clinician. Assigning twice is a no-op.
func (s *ServiceStore) Assign(ctx context.Context, clinicianID, serviceID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO clinician_services (clinician_id, service_id) VALUES (?, ?)`,
		clinicianID, serviceID,
	)
	if err != nil {
		return fmt.Errorf("assign service: %w", err)
	}
	return nil
}

func (s *ServiceStore) query(ctx context.Context, query string, args ...any) ([]model.PracticeService, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var services []model.PracticeService
	for rows.Next() {
		ps, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, *ps)
	}
	return services, rows.Err()
}
