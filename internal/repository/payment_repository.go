package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/riopesca/booking-api/internal/model"
)

// PaymentRepo provides access to the payments ledger.  Payments are
// append-mostly: once created only status and metadata may change.  The
// unique key on transaction_id is the deduplication boundary for webhook
// redelivery, so CreateTx translates the driver's duplicate-key error into
// ErrDuplicateTransaction for the engine to interpret.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying handle for transaction-scoped work.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

const paymentCols = `id, reservation_id, amount, currency, reference_code, transaction_id,
       payment_date, payment_method, status, metadata, created_at, updated_at`

func scanPayment(s interface{ Scan(...any) error }) (*model.Payment, error) {
    var p model.Payment
    var refCode, txID sql.NullString
    var metadata []byte
    err := s.Scan(
        &p.ID, &p.ReservationID, &p.Amount, &p.Currency, &refCode, &txID,
        &p.PaymentDate, &p.Method, &p.Status, &metadata, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if refCode.Valid {
        rc := refCode.String
        p.ReferenceCode = &rc
    }
    if txID.Valid {
        id := txID.String
        p.TransactionID = &id
    }
    p.Metadata = metadata
    return &p, nil
}

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
    return err != nil && strings.Contains(err.Error(), "1062")
}

const insertPaymentQ = `INSERT INTO payments
    (reservation_id, amount, currency, reference_code, transaction_id,
     payment_date, payment_method, status, metadata)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateTx inserts a payment within an existing transaction and populates
// the generated ID.  A duplicate transaction id yields
// ErrDuplicateTransaction; the caller decides whether that is an error or a
// redelivered event.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
    result, err := tx.ExecContext(ctx, insertPaymentQ,
        p.ReservationID, p.Amount, p.Currency, p.ReferenceCode, p.TransactionID,
        p.PaymentDate, p.Method, p.Status, nullBytes(p.Metadata))
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicateTransaction
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// Create inserts a payment outside any transaction (the direct
// payment-creation path used by staff) and reads the row back to populate
// defaults.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
    result, err := r.db.ExecContext(ctx, insertPaymentQ,
        p.ReservationID, p.Amount, p.Currency, p.ReferenceCode, p.TransactionID,
        p.PaymentDate, p.Method, p.Status, nullBytes(p.Metadata))
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicateTransaction
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    got, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *p = *got
    return nil
}

// GetByID returns one payment or ErrPaymentNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
    p, err := scanPayment(row)
    if err == sql.ErrNoRows {
        return nil, ErrPaymentNotFound
    }
    return p, err
}

// ExistsByTransactionID reports whether a ledger entry with the given
// provider transaction id already exists.
func (r *PaymentRepo) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM payments WHERE transaction_id = ? LIMIT 1`,
        transactionID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// PaymentFilter narrows List results.  Zero values mean "no constraint".
type PaymentFilter struct {
    ReservationID uint64
    Status        string
    Method        string
    From          *time.Time
    To            *time.Time
}

// List returns payments matching the filter ordered by payment date, most
// recent first.
func (r *PaymentRepo) List(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
    q := `SELECT ` + paymentCols + ` FROM payments`
    var conds []string
    var args []any
    if f.ReservationID != 0 {
        conds = append(conds, "reservation_id = ?")
        args = append(args, f.ReservationID)
    }
    if f.Status != "" {
        conds = append(conds, "status = ?")
        args = append(args, f.Status)
    }
    if f.Method != "" {
        conds = append(conds, "payment_method = ?")
        args = append(args, f.Method)
    }
    if f.From != nil {
        conds = append(conds, "payment_date >= ?")
        args = append(args, *f.From)
    }
    if f.To != nil {
        conds = append(conds, "payment_date <= ?")
        args = append(args, *f.To)
    }
    if len(conds) > 0 {
        q += " WHERE " + strings.Join(conds, " AND ")
    }
    q += " ORDER BY payment_date DESC"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Payment, 0)
    for rows.Next() {
        p, err := scanPayment(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

// UpdateStatus changes a payment's status.  Payments are otherwise immutable
// apart from metadata.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    result, err := r.db.ExecContext(ctx,
        `UPDATE payments SET status = ?, updated_at = NOW() WHERE id = ?`,
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

// UpdateMetadata replaces a payment's stored provider payload.
func (r *PaymentRepo) UpdateMetadata(ctx context.Context, id uint64, metadata []byte) error {
    result, err := r.db.ExecContext(ctx,
        `UPDATE payments SET metadata = ?, updated_at = NOW() WHERE id = ?`,
        nullBytes(metadata), id)
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

// Delete removes a payment row.
func (r *PaymentRepo) Delete(ctx context.Context, id uint64) error {
    result, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := result.RowsAffected(); n == 0 {
        return ErrPaymentNotFound
    }
    return nil
}

// nullBytes maps an empty byte slice to SQL NULL.
func nullBytes(b []byte) any {
    if len(b) == 0 {
        return nil
    }
    return b
}
