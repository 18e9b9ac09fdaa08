package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/car-rental-reservation/internal/draft"
    "github.com/iliyamo/car-rental-reservation/internal/model"
)

// BookingRepo persists reservation drafts as bookings.  The full draft is
// kept in the payload JSON column; the searchable parts are mirrored into
// plain columns.  A user may hold at most one booking in Draft status.
type BookingRepo struct {
    db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingRecord is a booking together with its owner.
type BookingRecord struct {
    UserID uint64                 `json:"userId"`
    Draft  model.ReservationDraft `json:"booking"`
}

const bookingColumns = "id, user_id, status, payload, created_at, updated_at"

func scanBooking(sc interface{ Scan(...any) error }) (BookingRecord, error) {
    var (
        rec       BookingRecord
        id        string
        status    string
        payload   []byte
        createdAt time.Time
        updatedAt time.Time
    )
    if err := sc.Scan(&id, &rec.UserID, &status, &payload, &createdAt, &updatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return BookingRecord{}, ErrNotFound
        }
        return BookingRecord{}, err
    }
    d, err := draft.Decode(payload)
    if err != nil {
        return BookingRecord{}, fmt.Errorf("booking %s: %w", id, err)
    }
    d.ID = id
    d.Status = model.Status(status)
    d.CreatedAt = &createdAt
    d.UpdatedAt = &updatedAt
    rec.Draft = d
    return rec, nil
}

// columnsOf extracts the mirrored columns of a draft.
func columnsOf(d model.ReservationDraft) (vehicleID, pickupLoc, returnLoc sql.NullInt64, pickupAt, returnAt sql.NullTime, coupon sql.NullString) {
    if d.Car != nil {
        vehicleID = sql.NullInt64{Int64: int64(d.Car.ID), Valid: true}
    }
    if d.PickupLocation != nil {
        pickupLoc = sql.NullInt64{Int64: int64(d.PickupLocation.ID), Valid: true}
    }
    if d.ReturnLocation != nil {
        returnLoc = sql.NullInt64{Int64: int64(d.ReturnLocation.ID), Valid: true}
    }
    if d.PickupDate != nil {
        pickupAt = sql.NullTime{Time: d.PickupDate.UTC(), Valid: true}
    }
    if d.ReturnDate != nil {
        returnAt = sql.NullTime{Time: d.ReturnDate.UTC(), Valid: true}
    }
    if d.AppliedDiscount != nil {
        coupon = sql.NullString{String: d.AppliedDiscount.Code, Valid: true}
    }
    return
}

// payloadOf strips the identity fields, which live in their own columns.
func payloadOf(d model.ReservationDraft) ([]byte, error) {
    d.ID = ""
    d.Status = ""
    d.CreatedAt = nil
    d.UpdatedAt = nil
    return draft.Encode(d)
}

// Create inserts d for userID with a fresh UUID.  Creating a Draft while
// the user already has one fails with ErrDraftExists; the user row is
// locked for the duration of the check.
func (r *BookingRepo) Create(ctx context.Context, userID uint64, d model.ReservationDraft) (BookingRecord, error) {
    if d.Status == "" || d.Status == model.StatusSaved {
        d.Status = model.StatusDraft
    }
    if d.Status == model.StatusCancelled {
        return BookingRecord{}, ErrInvalidTransition
    }

    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return BookingRecord{}, err
    }
    defer func() { _ = tx.Rollback() }()

    var locked uint64
    if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? FOR UPDATE", userID).Scan(&locked); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return BookingRecord{}, ErrNotFound
        }
        return BookingRecord{}, err
    }
    if d.Status == model.StatusDraft {
        var existing string
        err := tx.QueryRowContext(ctx,
            "SELECT id FROM bookings WHERE user_id = ? AND status = 'Draft' LIMIT 1", userID).Scan(&existing)
        switch {
        case err == nil:
            return BookingRecord{}, ErrDraftExists
        case !errors.Is(err, sql.ErrNoRows):
            return BookingRecord{}, err
        }
    }

    payload, err := payloadOf(d)
    if err != nil {
        return BookingRecord{}, err
    }
    id := uuid.NewString()
    vehicleID, pickupLoc, returnLoc, pickupAt, returnAt, coupon := columnsOf(d)
    _, err = tx.ExecContext(ctx,
        `INSERT INTO bookings (id, user_id, status, vehicle_id, pickup_location_id, return_location_id,
            pickup_at, return_at, coupon_code, total_price, payload)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        id, userID, string(d.Status), vehicleID, pickupLoc, returnLoc, pickupAt, returnAt, coupon, d.TotalPrice, payload)
    if err != nil {
        return BookingRecord{}, err
    }
    rec, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
    if err != nil {
        return BookingRecord{}, err
    }
    if err := tx.Commit(); err != nil {
        return BookingRecord{}, err
    }
    return rec, nil
}

// Get fetches a booking by id.
func (r *BookingRepo) Get(ctx context.Context, id string) (BookingRecord, error) {
    return scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
}

// CurrentDraft returns the ID of the user's Draft booking, if any.
func (r *BookingRepo) CurrentDraft(ctx context.Context, userID uint64) (string, bool, error) {
    var id string
    err := r.db.QueryRowContext(ctx,
        "SELECT id FROM bookings WHERE user_id = ? AND status = 'Draft' LIMIT 1", userID).Scan(&id)
    if errors.Is(err, sql.ErrNoRows) {
        return "", false, nil
    }
    if err != nil {
        return "", false, err
    }
    return id, true, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDraft, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+bookingColumns+" FROM bookings WHERE user_id = ? ORDER BY created_at DESC", userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.ReservationDraft{}
    for rows.Next() {
        rec, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, rec.Draft)
    }
    return out, rows.Err()
}

// ListAll returns every booking, optionally filtered by status, for the
// admin view.
func (r *BookingRepo) ListAll(ctx context.Context, status model.Status, limit, offset int) ([]BookingRecord, error) {
    q := "SELECT " + bookingColumns + " FROM bookings"
    args := []any{}
    if status != "" {
        q += " WHERE status = ?"
        args = append(args, string(status))
    }
    q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
    args = append(args, limit, offset)
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []BookingRecord{}
    for rows.Next() {
        rec, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, rec)
    }
    return out, rows.Err()
}

// lockOwned locks booking id and checks ownership.  admin skips the
// ownership check.
func lockOwned(ctx context.Context, tx *sql.Tx, id string, userID uint64, admin bool) (BookingRecord, error) {
    rec, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ? FOR UPDATE", id))
    if err != nil {
        return BookingRecord{}, err
    }
    if !admin && rec.UserID != userID {
        return BookingRecord{}, ErrForbidden
    }
    return rec, nil
}

// Update replaces the contents and status of booking d.ID.  The status
// change must be allowed by Status.CanTransitionTo.
func (r *BookingRepo) Update(ctx context.Context, userID uint64, admin bool, d model.ReservationDraft) (BookingRecord, error) {
    if d.Status == model.StatusSaved {
        d.Status = model.StatusDraft
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return BookingRecord{}, err
    }
    defer func() { _ = tx.Rollback() }()

    cur, err := lockOwned(ctx, tx, d.ID, userID, admin)
    if err != nil {
        return BookingRecord{}, err
    }
    if d.Status == "" {
        d.Status = cur.Draft.Status
    }
    if !cur.Draft.Status.CanTransitionTo(d.Status) {
        return BookingRecord{}, ErrInvalidTransition
    }

    payload, err := payloadOf(d)
    if err != nil {
        return BookingRecord{}, err
    }
    vehicleID, pickupLoc, returnLoc, pickupAt, returnAt, coupon := columnsOf(d)
    _, err = tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, vehicle_id = ?, pickup_location_id = ?, return_location_id = ?,
            pickup_at = ?, return_at = ?, coupon_code = ?, total_price = ?, payload = ?
         WHERE id = ?`,
        string(d.Status), vehicleID, pickupLoc, returnLoc, pickupAt, returnAt, coupon, d.TotalPrice, payload, d.ID)
    if err != nil {
        return BookingRecord{}, err
    }
    rec, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", d.ID))
    if err != nil {
        return BookingRecord{}, err
    }
    if err := tx.Commit(); err != nil {
        return BookingRecord{}, err
    }
    return rec, nil
}

// Cancel moves booking id to Cancelled.
func (r *BookingRepo) Cancel(ctx context.Context, id string, userID uint64, admin bool) (BookingRecord, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return BookingRecord{}, err
    }
    defer func() { _ = tx.Rollback() }()

    cur, err := lockOwned(ctx, tx, id, userID, admin)
    if err != nil {
        return BookingRecord{}, err
    }
    if !cur.Draft.Status.CanTransitionTo(model.StatusCancelled) {
        return BookingRecord{}, ErrInvalidTransition
    }
    if _, err := tx.ExecContext(ctx, "UPDATE bookings SET status = 'Cancelled' WHERE id = ?", id); err != nil {
        return BookingRecord{}, err
    }
    rec, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
    if err != nil {
        return BookingRecord{}, err
    }
    return rec, tx.Commit()
}

// Delete removes a Draft or Quoted booking.  Other statuses yield
// ErrConflict.
func (r *BookingRepo) Delete(ctx context.Context, id string, userID uint64, admin bool) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    cur, err := lockOwned(ctx, tx, id, userID, admin)
    if err != nil {
        return err
    }
    if !cur.Draft.Status.Deletable() {
        return ErrConflict
    }
    if _, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id); err != nil {
        return err
    }
    return tx.Commit()
}
