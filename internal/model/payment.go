package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Payment statuses.
const (
    PaymentPending   = "pending"
    PaymentCompleted = "completed"
    PaymentFailed    = "failed"
    PaymentRefunded  = "refunded"
)

// Payment methods.  MethodWise marks ledger entries created by the
// reconciliation engine from inbound Wise credits.
const (
    MethodWise         = "wise"
    MethodCreditCard   = "credit_card"
    MethodBankTransfer = "bank_transfer"
    MethodCash         = "cash"
    MethodOther        = "other"
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
    switch s {
    case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
        return true
    }
    return false
}

// ValidPaymentMethod reports whether s is a known payment method.
func ValidPaymentMethod(s string) bool {
    switch s {
    case MethodWise, MethodCreditCard, MethodBankTransfer, MethodCash, MethodOther:
        return true
    }
    return false
}

// Payment is a ledger entry attached to exactly one reservation.  Rows are
// immutable after creation except for Status and Metadata.  TransactionID
// carries the provider's id and is unique in the table, which is what makes
// webhook redelivery a no-op.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  Amount        – paid amount.
//  Currency      – ISO 4217 currency.
//  ReferenceCode – correlation code copied from the reservation at creation.
//  TransactionID – provider transaction id (nullable for manual entries).
//  PaymentDate   – when the payment occurred.
//  Method        – payment method (see constants above).
//  Status        – payment status (see constants above).
//  Metadata      – raw provider payload, stored verbatim as JSON.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Payment struct {
    ID            uint64          // payments.id
    ReservationID uint64          // payments.reservation_id
    Amount        decimal.Decimal // payments.amount
    Currency      string          // payments.currency
    ReferenceCode *string         // payments.reference_code (nullable)
    TransactionID *string         // payments.transaction_id (nullable, unique)
    PaymentDate   time.Time       // payments.payment_date
    Method        string          // payments.payment_method
    Status        string          // payments.status
    Metadata      []byte          // payments.metadata (JSON, nullable)
    CreatedAt     time.Time       // payments.created_at
    UpdatedAt     time.Time       // payments.updated_at
}

// Unreconciled payment statuses.
const (
    UnreconciledPending    = "pending_reconciliation"
    UnreconciledReconciled = "reconciled"
)

// UnreconciledPayment holds an inbound provider credit that could not be
// attributed to a reservation at ingestion time.  It stays pending until an
// operator binds it to a reservation, at which point it is promoted into a
// Payment and closed.  TransactionID is deliberately not unique here:
// duplicate parking is surfaced to the operator rather than merged.
//
// Fields:
//  ID            – primary key identifier.
//  PaymentData   – verbatim provider payload (JSON).
//  Amount        – credited amount.
//  Currency      – ISO 4217 currency.
//  TransactionID – provider transaction id.
//  PaymentDate   – when the credit occurred.
//  Method        – payment method (always wise today).
//  Reference     – free-text memo the extraction ran against.
//  Status        – pending_reconciliation or reconciled.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type UnreconciledPayment struct {
    ID            uint64          // unreconciled_payments.id
    PaymentData   []byte          // unreconciled_payments.payment_data (JSON)
    Amount        decimal.Decimal // unreconciled_payments.amount
    Currency      string          // unreconciled_payments.currency
    TransactionID string          // unreconciled_payments.transaction_id
    PaymentDate   time.Time       // unreconciled_payments.payment_date
    Method        string          // unreconciled_payments.payment_method
    Reference     string          // unreconciled_payments.reference
    Status        string          // unreconciled_payments.status
    CreatedAt     time.Time       // unreconciled_payments.created_at
    UpdatedAt     time.Time       // unreconciled_payments.updated_at
}
