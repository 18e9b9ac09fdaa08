package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/car-rental-reservation/internal/model"
)

// VehicleSearchQuery filters the active fleet.  Zero values disable a
// filter.
type VehicleSearchQuery struct {
	Text     string // matched against brand and model
	Category string
	MinSeats uint8
	MaxPrice decimal.Decimal
	Page     int
	PageSize int
}

// whereClause renders the filters of q.  Only active vehicles are ever
// matched.
func (q VehicleSearchQuery) whereClause() (string, []any) {
	where := []string{"is_active = TRUE"}
	args := []any{}

	if t := strings.ToLower(strings.TrimSpace(q.Text)); t != "" {
		where = append(where, "(LOWER(brand) LIKE ? OR LOWER(model) LIKE ?)")
		args = append(args, "%"+t+"%", "%"+t+"%")
	}
	if c := strings.ToLower(strings.TrimSpace(q.Category)); c != "" {
		where = append(where, "category = ?")
		args = append(args, c)
	}
	if q.MinSeats > 0 {
		where = append(where, "seats >= ?")
		args = append(args, q.MinSeats)
	}
	if q.MaxPrice.IsPositive() {
		where = append(where, "price_per_day <= ?")
		args = append(args, q.MaxPrice)
	}
	return strings.Join(where, " AND "), args
}

// Search returns one page of matching vehicles, cheapest first, and the
// total number of matches.
func (r *VehicleRepo) Search(ctx context.Context, q VehicleSearchQuery) ([]model.CatalogVehicle, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	cond, args := q.whereClause()

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vehicles WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + vehicleColumns + " FROM vehicles WHERE " + cond +
		" ORDER BY price_per_day ASC, id ASC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.CatalogVehicle, 0, q.PageSize)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
