// Package reconciliation turns anonymous inbound payment events into
// correctly attributed ledger entries.  The engine drives the state machine
// received → verified → {matched → applied} | {unmatched → parked}; parked
// payments are later drained by manual reconciliation.  Every inbound event
// ends as exactly one of: an applied Payment, a parked UnreconciledPayment,
// or an explicit rejection — nothing is silently dropped.
package reconciliation

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/shopspring/decimal"

    "github.com/riopesca/booking-api/internal/model"
    "github.com/riopesca/booking-api/internal/queue"
    "github.com/riopesca/booking-api/internal/reference"
    "github.com/riopesca/booking-api/internal/repository"
    "github.com/riopesca/booking-api/internal/wise"
)

// Outcome classifies how the engine disposed of a webhook event.
type Outcome string

const (
    // OutcomeRejected – missing or invalid signature, or an undecodable
    // payload.  No data was touched.
    OutcomeRejected Outcome = "rejected"
    // OutcomeIgnored – a valid event of a type the engine does not act on.
    OutcomeIgnored Outcome = "ignored"
    // OutcomeApplied – a Payment was recorded (or already existed) and the
    // reservation was confirmed.
    OutcomeApplied Outcome = "applied"
    // OutcomeParked – no reservation could be determined; the payment was
    // stored for manual reconciliation.
    OutcomeParked Outcome = "parked"
)

// Result summarises one webhook delivery.  Duplicate marks redeliveries
// that were recognised by transaction id and applied as a no-op.
type Result struct {
    Outcome       Outcome
    Message       string
    ReservationID uint64
    Duplicate     bool
}

// ApplyInput carries everything needed to record a payment against a
// matched reservation and confirm it, as a single logical unit.
type ApplyInput struct {
    ReservationID uint64
    Amount        decimal.Decimal
    Currency      string
    ReferenceCode string
    TransactionID string
    PaymentDate   time.Time
    Method        string
    Metadata      []byte
}

// Store is the persistence surface the engine depends on.  It is injected
// explicitly — the engine holds no ambient database state — and all
// cross-request consistency (transaction-id dedup, atomic apply-or-not)
// lives behind it, enforced by storage constraints rather than in-process
// locks, because multiple service instances run concurrently.
type Store interface {
    // HasPaymentForTransaction reports whether the ledger already contains
    // a payment with this provider transaction id.
    HasPaymentForTransaction(ctx context.Context, transactionID string) (bool, error)
    // ReservationByCode resolves a correlation code to its reservation,
    // returning repository.ErrReservationNotFound as the normal miss.
    ReservationByCode(ctx context.Context, code string) (*model.Reservation, error)
    // ApplyPayment atomically records a completed payment and confirms the
    // reservation.  It returns repository.ErrDuplicateTransaction when the
    // transaction id is already ledgered.
    ApplyPayment(ctx context.Context, in ApplyInput) (*model.Payment, error)
    // ParkPayment persists an unmatched payment for manual resolution.
    ParkPayment(ctx context.Context, u *model.UnreconciledPayment) error
    // ReconcileUnreconciled atomically promotes a parked payment onto the
    // chosen reservation and closes the parked record.  Either all three
    // writes happen or none do.
    ReconcileUnreconciled(ctx context.Context, unreconciledID, reservationID uint64) (*model.Payment, error)
}

// Publisher emits a reconciliation event after a successful apply.  It is
// best-effort: failures are the publisher's problem, never the webhook's.
type Publisher func(ctx context.Context, evt queue.PaymentReconciledEvent)

// Engine orchestrates signature verification, reference extraction,
// reservation matching and the apply/park decision.
type Engine struct {
    store   Store
    secret  string
    publish Publisher
}

// NewEngine builds an Engine.  publish may be nil when no broker is
// configured.
func NewEngine(store Store, webhookSecret string, publish Publisher) *Engine {
    return &Engine{store: store, secret: webhookSecret, publish: publish}
}

// ProcessWebhook handles one webhook delivery.  body must be the exact raw
// request bytes — the signature is computed over them, not over any
// re-serialization.  The returned Result is always meaningful; a non-nil
// error means a persistence failure the caller should report so the
// provider redelivers.
func (e *Engine) ProcessWebhook(ctx context.Context, body []byte, signature string) (Result, error) {
    if signature == "" {
        // Operationally distinct from an invalid signature: this is a
        // misconfigured sender, not corruption or an attack.
        log.Printf("[reconciliation] webhook rejected: missing signature")
        return Result{Outcome: OutcomeRejected, Message: "missing signature"}, nil
    }
    if !wise.VerifySignature(body, signature, e.secret) {
        log.Printf("[reconciliation] webhook rejected: invalid signature")
        return Result{Outcome: OutcomeRejected, Message: "invalid signature"}, nil
    }

    // Only decode after the signature checks out.
    var event wise.WebhookEvent
    if err := json.Unmarshal(body, &event); err != nil {
        log.Printf("[reconciliation] webhook rejected: undecodable payload: %v", err)
        return Result{Outcome: OutcomeRejected, Message: "invalid payload"}, nil
    }

    if event.EventType != wise.EventBalancesCredit {
        // Acknowledged, no side effects.
        return Result{Outcome: OutcomeIgnored, Message: "event ignored"}, nil
    }

    // Redelivery check before anything else: the transaction id is the
    // natural deduplication key and a second delivery is a no-op success.
    if event.Data.TransactionID != "" {
        exists, err := e.store.HasPaymentForTransaction(ctx, event.Data.TransactionID)
        if err != nil {
            return Result{}, fmt.Errorf("dedup check: %w", err)
        }
        if exists {
            log.Printf("[reconciliation] duplicate delivery for transaction %s; no-op",
                event.Data.TransactionID)
            return Result{Outcome: OutcomeApplied, Message: "payment already recorded", Duplicate: true}, nil
        }
    }

    code, ok := reference.Extract(event.Data.Reference)
    if !ok {
        log.Printf("[reconciliation] no reference code in %q; parking transaction %s",
            event.Data.Reference, event.Data.TransactionID)
        return e.park(ctx, body, event)
    }

    res, err := e.store.ReservationByCode(ctx, code)
    if errors.Is(err, repository.ErrReservationNotFound) {
        log.Printf("[reconciliation] no reservation for code %s; parking transaction %s",
            code, event.Data.TransactionID)
        return e.park(ctx, body, event)
    }
    if err != nil {
        return Result{}, fmt.Errorf("match reservation: %w", err)
    }

    payment, err := e.store.ApplyPayment(ctx, ApplyInput{
        ReservationID: res.ID,
        Amount:        event.Data.Amount.Value,
        Currency:      event.Data.Amount.Currency,
        ReferenceCode: code,
        TransactionID: event.Data.TransactionID,
        PaymentDate:   event.Data.OccurredAt,
        Method:        model.MethodWise,
        Metadata:      body,
    })
    if errors.Is(err, repository.ErrDuplicateTransaction) {
        // Lost a race with a concurrent delivery of the same event; the
        // other writer applied it.
        return Result{Outcome: OutcomeApplied, Message: "payment already recorded",
            ReservationID: res.ID, Duplicate: true}, nil
    }
    if err != nil {
        return Result{}, fmt.Errorf("apply payment: %w", err)
    }

    e.emit(ctx, payment, code, "webhook")
    log.Printf("[reconciliation] applied transaction %s to reservation %d (%s %s)",
        event.Data.TransactionID, res.ID, event.Data.Amount.Value, event.Data.Amount.Currency)
    return Result{Outcome: OutcomeApplied, Message: "payment applied", ReservationID: res.ID}, nil
}

// park stores the event for manual resolution.  Parking is a successful
// outcome, not an error.
func (e *Engine) park(ctx context.Context, body []byte, event wise.WebhookEvent) (Result, error) {
    u := &model.UnreconciledPayment{
        PaymentData:   body,
        Amount:        event.Data.Amount.Value,
        Currency:      event.Data.Amount.Currency,
        TransactionID: event.Data.TransactionID,
        PaymentDate:   event.Data.OccurredAt,
        Method:        model.MethodWise,
        Reference:     event.Data.Reference,
        Status:        model.UnreconciledPending,
    }
    if err := e.store.ParkPayment(ctx, u); err != nil {
        return Result{}, fmt.Errorf("park payment: %w", err)
    }
    return Result{Outcome: OutcomeParked, Message: "payment parked for manual reconciliation"}, nil
}

// ReconcileManual binds a parked payment to an operator-chosen reservation.
// Both ids must exist; repository.ErrUnreconciledNotFound and
// repository.ErrReservationNotFound name the missing entity.  The store
// guarantees the three writes (payment insert, reservation confirm,
// unreconciled close) are atomic, so a second call for the same parked id
// fails with not-found instead of double-applying.
func (e *Engine) ReconcileManual(ctx context.Context, unreconciledID, reservationID uint64) (*model.Payment, error) {
    payment, err := e.store.ReconcileUnreconciled(ctx, unreconciledID, reservationID)
    if err != nil {
        return nil, err
    }
    code := ""
    if payment.ReferenceCode != nil {
        code = *payment.ReferenceCode
    }
    e.emit(ctx, payment, code, "manual")
    log.Printf("[reconciliation] manually reconciled unreconciled payment %d to reservation %d",
        unreconciledID, reservationID)
    return payment, nil
}

// emit publishes a payment.reconciled event when a publisher is configured.
func (e *Engine) emit(ctx context.Context, p *model.Payment, code, source string) {
    if e.publish == nil {
        return
    }
    txID := ""
    if p.TransactionID != nil {
        txID = *p.TransactionID
    }
    e.publish(ctx, queue.PaymentReconciledEvent{
        PaymentID:     p.ID,
        ReservationID: p.ReservationID,
        ReferenceCode: code,
        Amount:        p.Amount.String(),
        Currency:      p.Currency,
        TransactionID: txID,
        Source:        source,
        ReconciledAt:  time.Now().UTC().Format(time.RFC3339),
    })
}
