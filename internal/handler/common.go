// Package handler defines the HTTP handlers of the booking API.
package handler

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/riopesca/booking-api/internal/model"
)

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// dbTimeout bounds every handler-initiated database call.
const dbTimeout = 5 * time.Second

// ----- JSON views -----
//
// The models carry no json tags; these views fix the wire shape so storage
// fields can move without breaking clients.

type reservationView struct {
    ID            uint64          `json:"id"`
    GuestName     string          `json:"guest_name"`
    ReferenceCode *string         `json:"reference_code"`
    TotalAmount   decimal.Decimal `json:"total_amount"`
    Currency      string          `json:"currency"`
    Status        string          `json:"status"`
    CheckIn       time.Time       `json:"check_in"`
    CheckOut      time.Time       `json:"check_out"`
    Notes         *string         `json:"notes,omitempty"`
    CreatedAt     time.Time       `json:"created_at"`
    UpdatedAt     time.Time       `json:"updated_at"`
}

func toReservationView(r *model.Reservation) reservationView {
    return reservationView{
        ID:            r.ID,
        GuestName:     r.GuestName,
        ReferenceCode: r.ReferenceCode,
        TotalAmount:   r.TotalAmount,
        Currency:      r.Currency,
        Status:        r.Status,
        CheckIn:       r.CheckIn,
        CheckOut:      r.CheckOut,
        Notes:         r.Notes,
        CreatedAt:     r.CreatedAt,
        UpdatedAt:     r.UpdatedAt,
    }
}

type paymentView struct {
    ID            uint64          `json:"id"`
    ReservationID uint64          `json:"reservation_id"`
    Amount        decimal.Decimal `json:"amount"`
    Currency      string          `json:"currency"`
    ReferenceCode *string         `json:"reference_code"`
    TransactionID *string         `json:"transaction_id"`
    PaymentDate   time.Time       `json:"payment_date"`
    Method        string          `json:"payment_method"`
    Status        string          `json:"status"`
    CreatedAt     time.Time       `json:"created_at"`
    UpdatedAt     time.Time       `json:"updated_at"`
}

func toPaymentView(p *model.Payment) paymentView {
    return paymentView{
        ID:            p.ID,
        ReservationID: p.ReservationID,
        Amount:        p.Amount,
        Currency:      p.Currency,
        ReferenceCode: p.ReferenceCode,
        TransactionID: p.TransactionID,
        PaymentDate:   p.PaymentDate,
        Method:        p.Method,
        Status:        p.Status,
        CreatedAt:     p.CreatedAt,
        UpdatedAt:     p.UpdatedAt,
    }
}

type unreconciledView struct {
    ID            uint64          `json:"id"`
    Amount        decimal.Decimal `json:"amount"`
    Currency      string          `json:"currency"`
    TransactionID string          `json:"transaction_id"`
    PaymentDate   time.Time       `json:"payment_date"`
    Method        string          `json:"payment_method"`
    Reference     string          `json:"reference"`
    Status        string          `json:"status"`
    CreatedAt     time.Time       `json:"created_at"`
}

func toUnreconciledView(u *model.UnreconciledPayment) unreconciledView {
    return unreconciledView{
        ID:            u.ID,
        Amount:        u.Amount,
        Currency:      u.Currency,
        TransactionID: u.TransactionID,
        PaymentDate:   u.PaymentDate,
        Method:        u.Method,
        Reference:     u.Reference,
        Status:        u.Status,
        CreatedAt:     u.CreatedAt,
    }
}
