package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Reservation lifecycle states.  A reservation starts as pending and is
// confirmed when a payment is applied to it; the remaining states are set
// by staff through the update endpoints.
const (
    ReservationPending   = "pending"
    ReservationConfirmed = "confirmed"
    ReservationCanceled  = "canceled"
    ReservationCompleted = "completed"
    ReservationNoShow    = "no_show"
)

// ValidReservationStatus reports whether s is one of the known lifecycle
// states.
func ValidReservationStatus(s string) bool {
    switch s {
    case ReservationPending, ReservationConfirmed, ReservationCanceled,
        ReservationCompleted, ReservationNoShow:
        return true
    }
    return false
}

// Reservation records a guest's booking for a fishing trip.  It is the
// aggregate root that payments attach to.  The reference code is assigned
// lazily the first time a payment is prepared against the reservation and
// never changes afterwards; inbound bank transfers carry it in their memo
// line so the reconciliation engine can attribute them.
//
// Fields:
//  ID            – primary key identifier.
//  GuestName     – primary guest on the booking.
//  ReferenceCode – payment correlation code (nullable until first use).
//  TotalAmount   – total price for the booking.
//  Currency      – ISO 4217 currency of the total.
//  Status        – lifecycle state (see constants above).
//  CheckIn       – arrival date.
//  CheckOut      – departure date.
//  Notes         – free-form staff notes.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
    ID            uint64          // reservations.id
    GuestName     string          // reservations.guest_name
    ReferenceCode *string         // reservations.reference_code (nullable)
    TotalAmount   decimal.Decimal // reservations.total_amount
    Currency      string          // reservations.currency
    Status        string          // reservations.status
    CheckIn       time.Time       // reservations.check_in
    CheckOut      time.Time       // reservations.check_out
    Notes         *string         // reservations.notes (nullable)
    CreatedAt     time.Time       // reservations.created_at
    UpdatedAt     time.Time       // reservations.updated_at
}
