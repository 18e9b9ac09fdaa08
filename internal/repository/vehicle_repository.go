package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// VehicleRepo provides CRUD operations for the fleet.  Deleting a vehicle
// only deactivates it so that past bookings keep their reference.
type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = "id, brand, model, category, seats, price_per_day, is_active, created_at, updated_at"

func scanVehicle(sc interface{ Scan(...any) error }) (model.CatalogVehicle, error) {
	var v model.CatalogVehicle
	err := sc.Scan(&v.ID, &v.Brand, &v.Model, &v.Category, &v.Seats, &v.PricePerDay, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// List returns vehicles ordered by price then id.  activeOnly hides
// deactivated vehicles; the public catalog always sets it.
func (r *VehicleRepo) List(ctx context.Context, activeOnly bool) ([]model.CatalogVehicle, error) {
	q := "SELECT " + vehicleColumns + " FROM vehicles"
	if activeOnly {
		q += " WHERE is_active = TRUE"
	}
	q += " ORDER BY price_per_day, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CatalogVehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetByID fetches one vehicle, active or not.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (model.CatalogVehicle, error) {
	v, err := scanVehicle(r.db.QueryRowContext(ctx, "SELECT "+vehicleColumns+" FROM vehicles WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.CatalogVehicle{}, ErrNotFound
	}
	return v, err
}

// Create inserts v and fills its ID and timestamps.
func (r *VehicleRepo) Create(ctx context.Context, v *model.CatalogVehicle) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO vehicles (brand, model, category, seats, price_per_day, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		v.Brand, v.Model, v.Category, v.Seats, v.PricePerDay, v.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*v = created
	return nil
}

// Update overwrites the editable columns of vehicle v.ID.
func (r *VehicleRepo) Update(ctx context.Context, v *model.CatalogVehicle) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE vehicles SET brand = ?, model = ?, category = ?, seats = ?, price_per_day = ?, is_active = ? WHERE id = ?",
		v.Brand, v.Model, v.Category, v.Seats, v.PricePerDay, v.IsActive, v.ID)
	if err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	*v = updated
	return nil
}

// Deactivate hides a vehicle from the catalog.
func (r *VehicleRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE vehicles SET is_active = FALSE WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}
