package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// LocationRepo reads and creates pickup/return branches.
type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

func (r *LocationRepo) List(ctx context.Context) ([]model.Location, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, city, address FROM locations ORDER BY city, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.City, &l.Address); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (model.Location, error) {
	var l model.Location
	err := r.db.QueryRowContext(ctx, "SELECT id, name, city, address FROM locations WHERE id = ?", id).
		Scan(&l.ID, &l.Name, &l.City, &l.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Location{}, ErrNotFound
	}
	return l, err
}

// Create inserts l and fills its ID.
func (r *LocationRepo) Create(ctx context.Context, l *model.Location) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO locations (name, city, address) VALUES (?, ?, ?)", l.Name, l.City, l.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}
