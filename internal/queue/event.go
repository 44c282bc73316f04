// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentReconciledQueue is the queue name for reconciliation events.
const PaymentReconciledQueue = "payment.reconciled"

// PaymentReconciledEvent is published whenever a payment is successfully
// applied to a reservation, whether by the webhook engine or by an operator
// through manual reconciliation.  It carries enough information for
// downstream consumers to log or notify without querying the database.
type PaymentReconciledEvent struct {
    PaymentID     uint64 `json:"payment_id"`
    ReservationID uint64 `json:"reservation_id"`
    ReferenceCode string `json:"reference_code,omitempty"`
    Amount        string `json:"amount"`
    Currency      string `json:"currency"`
    TransactionID string `json:"transaction_id,omitempty"`
    Source        string `json:"source"` // "webhook" or "manual"
    ReconciledAt  string `json:"reconciled_at"`
}
