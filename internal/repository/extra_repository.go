package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// ExtraRepo stores the extra services on offer, keyed by their short code.
type ExtraRepo struct {
	db *sql.DB
}

func NewExtraRepo(db *sql.DB) *ExtraRepo { return &ExtraRepo{db: db} }

// ListActive returns the extras customers may add.  Selected is always
// false in the catalog.
func (r *ExtraRepo) ListActive(ctx context.Context) ([]model.ExtraService, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT code, name, price FROM extra_services WHERE is_active = TRUE ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ExtraService{}
	for rows.Next() {
		var e model.ExtraService
		if err := rows.Scan(&e.ID, &e.Name, &e.Price); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ByCodes returns the active extras among codes, keyed by code.  Unknown
// codes are simply absent from the map.
func (r *ExtraRepo) ByCodes(ctx context.Context, codes []string) (map[string]model.ExtraService, error) {
	out := make(map[string]model.ExtraService, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	q := "SELECT code, name, price FROM extra_services WHERE is_active = TRUE AND code IN (?" +
		strings.Repeat(",?", len(codes)-1) + ")"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e model.ExtraService
		if err := rows.Scan(&e.ID, &e.Name, &e.Price); err != nil {
			return nil, err
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}

// Upsert creates the extra or replaces its name and price.
func (r *ExtraRepo) Upsert(ctx context.Context, e model.ExtraService) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO extra_services (code, name, price) VALUES (?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE name = VALUES(name), price = VALUES(price), is_active = TRUE",
		e.ID, e.Name, e.Price)
	return err
}
