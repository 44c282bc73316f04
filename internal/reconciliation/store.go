package reconciliation

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/riopesca/booking-api/internal/model"
    "github.com/riopesca/booking-api/internal/repository"
)

// SQLStore implements Store on MySQL through the repositories.  Atomicity
// comes from transactions; exactly-once application comes from the unique
// key on payments.transaction_id, which holds across concurrent service
// instances where in-process locking would not.
type SQLStore struct {
    db           *sql.DB
    reservations *repository.ReservationRepo
    payments     *repository.PaymentRepo
    unreconciled *repository.UnreconciledRepo
}

// NewSQLStore builds the production Store.
func NewSQLStore(db *sql.DB, reservations *repository.ReservationRepo,
    payments *repository.PaymentRepo, unreconciled *repository.UnreconciledRepo) *SQLStore {
    return &SQLStore{
        db:           db,
        reservations: reservations,
        payments:     payments,
        unreconciled: unreconciled,
    }
}

func (s *SQLStore) HasPaymentForTransaction(ctx context.Context, transactionID string) (bool, error) {
    return s.payments.ExistsByTransactionID(ctx, transactionID)
}

func (s *SQLStore) ReservationByCode(ctx context.Context, code string) (*model.Reservation, error) {
    return s.reservations.GetByReferenceCode(ctx, code)
}

func (s *SQLStore) ParkPayment(ctx context.Context, u *model.UnreconciledPayment) error {
    return s.unreconciled.Park(ctx, u)
}

// ApplyPayment records the payment and confirms the reservation in one
// transaction.  If the payment insert fails nothing is committed, so the
// reservation status can never advance without its ledger entry.
func (s *SQLStore) ApplyPayment(ctx context.Context, in ApplyInput) (*model.Payment, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    payment := newAppliedPayment(in)
    if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
        return nil, err
    }
    if err := s.reservations.UpdateStatusTx(ctx, tx, in.ReservationID, model.ReservationConfirmed); err != nil {
        return nil, fmt.Errorf("confirm reservation: %w", err)
    }
    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("commit apply: %w", err)
    }
    committed = true
    return payment, nil
}

// ReconcileUnreconciled re-reads the parked row inside the transaction with
// a row lock, so a concurrent operator reconciling the same entry waits and
// then fails on the closed status instead of applying twice.
func (s *SQLStore) ReconcileUnreconciled(ctx context.Context, unreconciledID, reservationID uint64) (*model.Payment, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    parked, err := s.unreconciled.GetPendingTx(ctx, tx, unreconciledID)
    if err != nil {
        return nil, err
    }
    res, err := s.reservations.GetByIDTx(ctx, tx, reservationID)
    if err != nil {
        return nil, err
    }

    payment := newAppliedPayment(ApplyInput{
        ReservationID: res.ID,
        Amount:        parked.Amount,
        Currency:      parked.Currency,
        TransactionID: parked.TransactionID,
        PaymentDate:   parked.PaymentDate,
        Method:        parked.Method,
        Metadata:      parked.PaymentData,
    })
    // The parked payment carried no usable code (that is why it was
    // parked); the ledger entry takes the reservation's own code when one
    // exists.
    payment.ReferenceCode = res.ReferenceCode

    if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
        return nil, err
    }
    if err := s.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationConfirmed); err != nil {
        return nil, fmt.Errorf("confirm reservation: %w", err)
    }
    if err := s.unreconciled.MarkReconciledTx(ctx, tx, unreconciledID); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("commit reconcile: %w", err)
    }
    committed = true
    return payment, nil
}

// newAppliedPayment builds the completed-ledger-entry shape shared by the
// webhook and manual paths.
func newAppliedPayment(in ApplyInput) *model.Payment {
    p := &model.Payment{
        ReservationID: in.ReservationID,
        Amount:        in.Amount,
        Currency:      in.Currency,
        PaymentDate:   in.PaymentDate,
        Method:        in.Method,
        Status:        model.PaymentCompleted,
        Metadata:      in.Metadata,
    }
    if in.ReferenceCode != "" {
        code := in.ReferenceCode
        p.ReferenceCode = &code
    }
    if in.TransactionID != "" {
        id := in.TransactionID
        p.TransactionID = &id
    }
    return p
}
