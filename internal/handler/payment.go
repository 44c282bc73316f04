package handler

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/riopesca/booking-api/internal/model"
    "github.com/riopesca/booking-api/internal/reconciliation"
    "github.com/riopesca/booking-api/internal/reference"
    "github.com/riopesca/booking-api/internal/repository"
    "github.com/riopesca/booking-api/internal/wise"
)

// PaymentHandler exposes the payment ledger: CRUD, the unreconciled queue,
// manual reconciliation and per-reservation payment details.
type PaymentHandler struct {
    Payments     *repository.PaymentRepo
    Reservations *repository.ReservationRepo
    Unreconciled *repository.UnreconciledRepo
    Engine       *reconciliation.Engine
    Wise         *wise.Client // nil when no API key is configured
}

func NewPaymentHandler(p *repository.PaymentRepo, r *repository.ReservationRepo,
    u *repository.UnreconciledRepo, e *reconciliation.Engine, w *wise.Client) *PaymentHandler {
    if p == nil || r == nil || u == nil || e == nil {
        panic("nil dependency passed to NewPaymentHandler")
    }
    return &PaymentHandler{Payments: p, Reservations: r, Unreconciled: u, Engine: e, Wise: w}
}

type createPaymentReq struct {
    ReservationID uint64          `json:"reservation_id"`
    Amount        string          `json:"amount"`
    Currency      string          `json:"currency"`
    PaymentDate   string          `json:"payment_date"` // RFC3339 or YYYY-MM-DD; empty means now
    Method        string          `json:"payment_method"`
    Status        string          `json:"status"` // optional, defaults to completed
    TransactionID string          `json:"transaction_id"`
    Metadata      json.RawMessage `json:"metadata"`
}

// Create records a manual payment against an existing reservation.  The
// reservation's reference code is assigned here if it does not have one yet,
// so the code exists before any money moves.
func (h *PaymentHandler) Create(c echo.Context) error {
    var req createPaymentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.ReservationID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id required"})
    }
    amount, err := decimal.NewFromString(req.Amount)
    if err != nil || !amount.IsPositive() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
    }
    currency := strings.ToUpper(strings.TrimSpace(req.Currency))
    if len(currency) != 3 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "currency must be a 3-letter code"})
    }
    if !model.ValidPaymentMethod(req.Method) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment_method"})
    }
    status := req.Status
    if status == "" {
        status = model.PaymentCompleted
    }
    if !model.ValidPaymentStatus(status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    paymentDate, ok := parsePaymentDate(req.PaymentDate)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_date"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    res, err := h.Reservations.GetByID(ctx, req.ReservationID)
    if errors.Is(err, repository.ErrReservationNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
    }

    code, err := h.ensureReferenceCode(ctx, res)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign reference code failed"})
    }

    p := &model.Payment{
        ReservationID: res.ID,
        Amount:        amount,
        Currency:      currency,
        ReferenceCode: &code,
        PaymentDate:   paymentDate,
        Method:        req.Method,
        Status:        status,
        Metadata:      req.Metadata,
    }
    if tid := strings.TrimSpace(req.TransactionID); tid != "" {
        p.TransactionID = &tid
    }

    if err := h.Payments.Create(ctx, p); err != nil {
        if errors.Is(err, repository.ErrDuplicateTransaction) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "transaction_id already recorded"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
    }
    return c.JSON(http.StatusCreated, toPaymentView(p))
}

// List returns payments filtered by reservation, status, method and date
// range, newest first.
func (h *PaymentHandler) List(c echo.Context) error {
    var f repository.PaymentFilter
    if v := c.QueryParam("reservation_id"); v != "" {
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil || n == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation_id"})
        }
        f.ReservationID = n
    }
    if v := c.QueryParam("status"); v != "" {
        if !model.ValidPaymentStatus(v) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
        }
        f.Status = v
    }
    if v := c.QueryParam("payment_method"); v != "" {
        if !model.ValidPaymentMethod(v) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment_method"})
        }
        f.Method = v
    }
    if v := c.QueryParam("start_date"); v != "" {
        t, err := time.Parse("2006-01-02", v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
        }
        f.From = &t
    }
    if v := c.QueryParam("end_date"); v != "" {
        t, err := time.Parse("2006-01-02", v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
        }
        f.To = &t
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    list, err := h.Payments.List(ctx, f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payments failed"})
    }
    out := make([]paymentView, 0, len(list))
    for i := range list {
        out = append(out, toPaymentView(&list[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one payment by id.
func (h *PaymentHandler) Get(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    p, err := h.Payments.GetByID(ctx, id)
    if errors.Is(err, repository.ErrPaymentNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
    }
    return c.JSON(http.StatusOK, toPaymentView(p))
}

// UpdateStatus transitions a payment's status.
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req statusReq
    if err := c.Bind(&req); err != nil || !model.ValidPaymentStatus(req.Status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Payments.UpdateStatus(ctx, id, req.Status); err != nil {
        if errors.Is(err, repository.ErrPaymentNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
    }
    p, err := h.Payments.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
    }
    return c.JSON(http.StatusOK, toPaymentView(p))
}

type updateMetadataReq struct {
    Metadata json.RawMessage `json:"metadata"`
}

// UpdateMetadata replaces a payment's stored metadata blob.
func (h *PaymentHandler) UpdateMetadata(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req updateMetadataReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Payments.UpdateMetadata(ctx, id, req.Metadata); err != nil {
        if errors.Is(err, repository.ErrPaymentNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update metadata failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Delete removes a payment row.  Kept for correcting data-entry mistakes;
// reconciled webhook payments should be refunded, not deleted.
func (h *PaymentHandler) Delete(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Payments.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrPaymentNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete payment failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ListUnreconciled returns the pending manual-reconciliation queue, newest
// payment first.
func (h *PaymentHandler) ListUnreconciled(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    list, err := h.Unreconciled.ListPending(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list unreconciled failed"})
    }
    out := make([]unreconciledView, 0, len(list))
    for i := range list {
        out = append(out, toUnreconciledView(&list[i]))
    }
    return c.JSON(http.StatusOK, out)
}

type reconcileReq struct {
    ReservationID uint64 `json:"reservation_id"`
}

// Reconcile binds a parked payment to an operator-chosen reservation.  Both
// ids must exist; the error names whichever entity is missing.  A second
// call for the same parked id fails with not-found because the row is
// already closed.
func (h *PaymentHandler) Reconcile(c echo.Context) error {
    unreconciledID, ok := parseIDParam(c, "unreconciledId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid unreconciled id"})
    }
    var req reconcileReq
    if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    p, err := h.Engine.ReconcileManual(ctx, unreconciledID, req.ReservationID)
    if errors.Is(err, repository.ErrUnreconciledNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unreconciled payment not found"})
    }
    if errors.Is(err, repository.ErrReservationNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reconcile failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":        "payment reconciled",
        "reservation_id": req.ReservationID,
        "payment":        toPaymentView(p),
    })
}

// paymentInstructions tells a guest how to pay so the transfer reconciles
// automatically.
type paymentInstructions struct {
    ReferenceCode string          `json:"reference_code"`
    MemoLine      string          `json:"memo_line"`
    TotalAmount   decimal.Decimal `json:"total_amount"`
    AmountPaid    decimal.Decimal `json:"amount_paid"`
    BalanceDue    decimal.Decimal `json:"balance_due"`
    Currency      string          `json:"currency"`
}

type paymentDetailsResp struct {
    Reservation  reservationView     `json:"reservation"`
    Payments     []paymentView       `json:"payments"`
    Instructions paymentInstructions `json:"instructions"`
    WiseAccount  json.RawMessage     `json:"wise_account"` // null when unavailable
}

// Details returns a reservation with its payments and payment instructions.
// The Wise USD account details are an enrichment: if the API call fails the
// field is null and the rest of the response is served normally.
func (h *PaymentHandler) Details(c echo.Context) error {
    reservationID, ok := parseIDParam(c, "reservationId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    res, err := h.Reservations.GetByID(ctx, reservationID)
    if errors.Is(err, repository.ErrReservationNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
    }

    code, err := h.ensureReferenceCode(ctx, res)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign reference code failed"})
    }

    payments, err := h.Payments.List(ctx, repository.PaymentFilter{ReservationID: res.ID})
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payments failed"})
    }

    paid := decimal.Zero
    views := make([]paymentView, 0, len(payments))
    for i := range payments {
        if payments[i].Status == model.PaymentCompleted {
            paid = paid.Add(payments[i].Amount)
        }
        views = append(views, toPaymentView(&payments[i]))
    }

    resp := paymentDetailsResp{
        Reservation: toReservationView(res),
        Payments:    views,
        Instructions: paymentInstructions{
            ReferenceCode: code,
            MemoLine:      "Reservation " + code,
            TotalAmount:   res.TotalAmount,
            AmountPaid:    paid,
            BalanceDue:    res.TotalAmount.Sub(paid),
            Currency:      res.Currency,
        },
    }

    if h.Wise != nil {
        if details, err := h.Wise.USDAccountDetails(c.Request().Context()); err == nil {
            resp.WiseAccount = details
        } else {
            log.Printf("[payments] wise account enrichment unavailable: %v", err)
        }
    }
    return c.JSON(http.StatusOK, resp)
}

// ensureReferenceCode returns the reservation's correlation code, deriving
// and storing it on first use.  The conditional update makes concurrent
// first uses converge on the same stored value.
func (h *PaymentHandler) ensureReferenceCode(ctx context.Context, res *model.Reservation) (string, error) {
    if res.ReferenceCode != nil {
        return *res.ReferenceCode, nil
    }
    code := reference.Generate(res.ID)
    if err := h.Reservations.AssignReferenceCode(ctx, res.ID, code); err != nil {
        return "", err
    }
    res.ReferenceCode = &code
    return code, nil
}

// parsePaymentDate accepts RFC3339 or a bare date; empty means now.
func parsePaymentDate(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Now().UTC(), true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.UTC(), true
    }
    if t, err := time.Parse("2006-01-02", s); err == nil {
        return t, true
    }
    return time.Time{}, false
}
