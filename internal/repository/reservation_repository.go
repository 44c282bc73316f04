package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/riopesca/booking-api/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  All timestamp
// fields are stored in UTC.  Reference-code assignment is a conditional
// single-statement write so that concurrent assigners cannot disagree.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, guest_name, reference_code, total_amount, currency, status,
       check_in, check_out, notes, created_at, updated_at`

// scanReservation reads one row into a model.Reservation.  It works for both
// *sql.Row and *sql.Rows via the scanner interface.
func scanReservation(s interface{ Scan(...any) error }) (*model.Reservation, error) {
    var res model.Reservation
    var refCode, notes sql.NullString
    err := s.Scan(
        &res.ID, &res.GuestName, &refCode, &res.TotalAmount, &res.Currency, &res.Status,
        &res.CheckIn, &res.CheckOut, &notes, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if refCode.Valid {
        rc := refCode.String
        res.ReferenceCode = &rc
    }
    if notes.Valid {
        n := notes.String
        res.Notes = &n
    }
    return &res, nil
}

// Create inserts a new reservation with status pending and populates the
// generated ID and timestamps on the provided record.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    if res.Status == "" {
        res.Status = model.ReservationPending
    }
    const q = `INSERT INTO reservations
               (guest_name, total_amount, currency, status, check_in, check_out, notes)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q,
        res.GuestName, res.TotalAmount, res.Currency, res.Status,
        res.CheckIn, res.CheckOut, res.Notes)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // Query back the full row to populate timestamps and defaults
    got, err := r.GetByID(ctx, res.ID)
    if err != nil {
        return err
    }
    *res = *got
    return nil
}

// GetByID returns the reservation with the given id or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
    res, err := scanReservation(row)
    if err == sql.ErrNoRows {
        return nil, ErrReservationNotFound
    }
    return res, err
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    row := tx.QueryRowContext(ctx,
        `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
    res, err := scanReservation(row)
    if err == sql.ErrNoRows {
        return nil, ErrReservationNotFound
    }
    return res, err
}

// GetByReferenceCode returns the reservation whose stored correlation code
// equals code exactly, or ErrReservationNotFound.  Not-found is the routine
// outcome for payments that cannot be auto-matched.
func (r *ReservationRepo) GetByReferenceCode(ctx context.Context, code string) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+reservationCols+` FROM reservations WHERE reference_code = ?`, code)
    res, err := scanReservation(row)
    if err == sql.ErrNoRows {
        return nil, ErrReservationNotFound
    }
    return res, err
}

// ReservationFilter narrows List results.
type ReservationFilter struct {
    Status string
    From   *time.Time // check-in on or after
    To     *time.Time // check-in on or before
}

// List returns reservations matching the filter, newest first.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
    q := `SELECT ` + reservationCols + ` FROM reservations`
    var conds []string
    var args []any
    if f.Status != "" {
        conds = append(conds, "status = ?")
        args = append(args, f.Status)
    }
    if f.From != nil {
        conds = append(conds, "check_in >= ?")
        args = append(args, *f.From)
    }
    if f.To != nil {
        conds = append(conds, "check_in <= ?")
        args = append(args, *f.To)
    }
    if len(conds) > 0 {
        q += " WHERE " + strings.Join(conds, " AND ")
    }
    q += " ORDER BY created_at DESC"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *res)
    }
    return out, rows.Err()
}

// Update rewrites the mutable booking fields of a reservation.  The
// reference code and status are excluded on purpose; they have dedicated
// operations with their own invariants.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
    const q = `UPDATE reservations
               SET guest_name = ?, total_amount = ?, currency = ?,
                   check_in = ?, check_out = ?, notes = ?, updated_at = NOW()
               WHERE id = ?`
    result, err := r.db.ExecContext(ctx, q,
        res.GuestName, res.TotalAmount, res.Currency,
        res.CheckIn, res.CheckOut, res.Notes, res.ID)
    if err != nil {
        return err
    }
    if n, err := result.RowsAffected(); err == nil && n == 0 {
        // Distinguish "row unchanged" from "row absent".
        if _, err := r.GetByID(ctx, res.ID); err != nil {
            return err
        }
    }
    return nil
}

// UpdateStatus transitions a reservation's lifecycle state.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    result, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET status = ?, updated_at = NOW() WHERE id = ?`,
        status, id)
    if err != nil {
        return err
    }
    if n, _ := result.RowsAffected(); n == 0 {
        if _, err := r.GetByID(ctx, id); err != nil {
            return err
        }
    }
    return nil
}

// UpdateStatusTx is UpdateStatus inside an existing transaction.  The caller
// must commit or roll back.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE reservations SET status = ?, updated_at = NOW() WHERE id = ?`,
        status, id)
    return err
}

// AssignReferenceCode stores the correlation code on a reservation that does
// not have one yet.  The WHERE clause makes the write conditional: if
// another caller assigned first, zero rows are affected and that is fine —
// the code is derived from the id, so both callers computed the same value.
// A reservation's code is assigned once and never changed.
func (r *ReservationRepo) AssignReferenceCode(ctx context.Context, id uint64, code string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET reference_code = ?, updated_at = NOW()
         WHERE id = ? AND reference_code IS NULL`,
        code, id)
    return err
}
