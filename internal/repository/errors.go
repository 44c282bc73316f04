// Package repository implements row-level access to the booking store.  The
// sentinel errors defined here let handlers and the reconciliation engine
// distinguish failure scenarios without string matching: not-found lookups
// are normal branches of the matching algorithm, and duplicate transaction
// ids are the signal that a webhook was redelivered.
package repository

import "errors"

// ErrReservationNotFound is returned when no reservation matches the given
// id or reference code.  For the reconciliation engine this is a normal
// outcome (the payment is parked), not a failure.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrPaymentNotFound is returned when a payment lookup matches no row.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrUnreconciledNotFound is returned when an unreconciled payment does not
// exist or has already been reconciled.  Manual reconciliation treats the
// two cases identically: there is nothing left to bind.
var ErrUnreconciledNotFound = errors.New("unreconciled payment not found")

// ErrDuplicateTransaction is returned when inserting a payment whose
// transaction id already exists in the ledger.  The unique key on
// payments.transaction_id enforces exactly-once application across
// concurrent service instances.
var ErrDuplicateTransaction = errors.New("transaction already recorded")
