package repository

import (
    "context"
    "database/sql"

    "github.com/riopesca/booking-api/internal/model"
)

// UnreconciledRepo stores inbound payments that could not be attributed to a
// reservation.  There is no unique key on transaction_id here: parking the
// same transaction twice produces two pending rows, which is deliberate —
// the operator, not the code, is the authority on whether they are the same
// payment.
type UnreconciledRepo struct {
    db *sql.DB
}

// NewUnreconciledRepo returns a new UnreconciledRepo bound to the given database.
func NewUnreconciledRepo(db *sql.DB) *UnreconciledRepo { return &UnreconciledRepo{db: db} }

const unreconciledCols = `id, payment_data, amount, currency, transaction_id,
       payment_date, payment_method, reference, status, created_at, updated_at`

func scanUnreconciled(s interface{ Scan(...any) error }) (*model.UnreconciledPayment, error) {
    var u model.UnreconciledPayment
    err := s.Scan(
        &u.ID, &u.PaymentData, &u.Amount, &u.Currency, &u.TransactionID,
        &u.PaymentDate, &u.Method, &u.Reference, &u.Status, &u.CreatedAt, &u.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &u, nil
}

// Park persists one unmatched payment with status pending_reconciliation and
// populates the generated ID.
func (r *UnreconciledRepo) Park(ctx context.Context, u *model.UnreconciledPayment) error {
    if u.Status == "" {
        u.Status = model.UnreconciledPending
    }
    const q = `INSERT INTO unreconciled_payments
               (payment_data, amount, currency, transaction_id, payment_date,
                payment_method, reference, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q,
        nullBytes(u.PaymentData), u.Amount, u.Currency, u.TransactionID,
        u.PaymentDate, u.Method, u.Reference, u.Status)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    u.ID = uint64(id)
    return nil
}

// ListPending returns all payments awaiting manual reconciliation ordered by
// payment date, most recent first.
func (r *UnreconciledRepo) ListPending(ctx context.Context) ([]model.UnreconciledPayment, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+unreconciledCols+` FROM unreconciled_payments
         WHERE status = ? ORDER BY payment_date DESC`,
        model.UnreconciledPending)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.UnreconciledPayment, 0)
    for rows.Next() {
        u, err := scanUnreconciled(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *u)
    }
    return out, rows.Err()
}

// GetPendingTx loads a pending unreconciled payment inside a transaction,
// locking the row so a concurrent manual reconciliation of the same entry
// blocks until this one commits.  Returns ErrUnreconciledNotFound when the
// row is absent or already reconciled.
func (r *UnreconciledRepo) GetPendingTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.UnreconciledPayment, error) {
    row := tx.QueryRowContext(ctx,
        `SELECT `+unreconciledCols+` FROM unreconciled_payments
         WHERE id = ? AND status = ? FOR UPDATE`,
        id, model.UnreconciledPending)
    u, err := scanUnreconciled(row)
    if err == sql.ErrNoRows {
        return nil, ErrUnreconciledNotFound
    }
    return u, err
}

// MarkReconciledTx closes a pending entry within a transaction.  The status
// condition makes the close idempotent-safe: a second close affects zero
// rows and reports ErrUnreconciledNotFound instead of double-applying.
func (r *UnreconciledRepo) MarkReconciledTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    result, err := tx.ExecContext(ctx,
        `UPDATE unreconciled_payments SET status = ?, updated_at = NOW()
         WHERE id = ? AND status = ?`,
        model.UnreconciledReconciled, id, model.UnreconciledPending)
    if err != nil {
        return err
    }
    if n, _ := result.RowsAffected(); n == 0 {
        return ErrUnreconciledNotFound
    }
    return nil
}
