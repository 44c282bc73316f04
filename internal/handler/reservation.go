package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/riopesca/booking-api/internal/model"
    "github.com/riopesca/booking-api/internal/repository"
)

// ReservationHandler exposes CRUD over reservations.
type ReservationHandler struct {
    Reservations *repository.ReservationRepo
}

func NewReservationHandler(r *repository.ReservationRepo) *ReservationHandler {
    if r == nil {
        panic("nil repository passed to NewReservationHandler")
    }
    return &ReservationHandler{Reservations: r}
}

type reservationReq struct {
    GuestName   string  `json:"guest_name"`
    TotalAmount string  `json:"total_amount"`
    Currency    string  `json:"currency"`
    CheckIn     string  `json:"check_in"`  // YYYY-MM-DD
    CheckOut    string  `json:"check_out"` // YYYY-MM-DD
    Notes       *string `json:"notes"`
}

// parseReservationReq validates the shared create/update body.
func parseReservationReq(req reservationReq) (*model.Reservation, string) {
    if strings.TrimSpace(req.GuestName) == "" {
        return nil, "guest_name required"
    }
    amount, err := decimal.NewFromString(req.TotalAmount)
    if err != nil || amount.IsNegative() {
        return nil, "invalid total_amount"
    }
    currency := strings.ToUpper(strings.TrimSpace(req.Currency))
    if len(currency) != 3 {
        return nil, "currency must be a 3-letter code"
    }
    checkIn, err := time.Parse("2006-01-02", req.CheckIn)
    if err != nil {
        return nil, "invalid check_in (want YYYY-MM-DD)"
    }
    checkOut, err := time.Parse("2006-01-02", req.CheckOut)
    if err != nil {
        return nil, "invalid check_out (want YYYY-MM-DD)"
    }
    if checkOut.Before(checkIn) {
        return nil, "check_out before check_in"
    }
    return &model.Reservation{
        GuestName:   strings.TrimSpace(req.GuestName),
        TotalAmount: amount,
        Currency:    currency,
        CheckIn:     checkIn,
        CheckOut:    checkOut,
        Notes:       req.Notes,
    }, ""
}

// Create registers a new booking in status pending.
func (h *ReservationHandler) Create(c echo.Context) error {
    var req reservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    res, msg := parseReservationReq(req)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Reservations.Create(ctx, res); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
    }
    return c.JSON(http.StatusCreated, toReservationView(res))
}

// List returns reservations filtered by status and check-in range.
func (h *ReservationHandler) List(c echo.Context) error {
    var f repository.ReservationFilter
    if s := c.QueryParam("status"); s != "" {
        if !model.ValidReservationStatus(s) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
        }
        f.Status = s
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

    list, err := h.Reservations.List(ctx, f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
    }
    out := make([]reservationView, 0, len(list))
    for i := range list {
        out = append(out, toReservationView(&list[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one reservation by id.
func (h *ReservationHandler) Get(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    res, err := h.Reservations.GetByID(ctx, id)
    if errors.Is(err, repository.ErrReservationNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
    }
    return c.JSON(http.StatusOK, toReservationView(res))
}

// Update rewrites the booking fields of a reservation.  Status and the
// reference code are not touched here.
func (h *ReservationHandler) Update(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req reservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    res, msg := parseReservationReq(req)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    res.ID = id

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Reservations.Update(ctx, res); err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reservation failed"})
    }
    got, err := h.Reservations.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
    }
    return c.JSON(http.StatusOK, toReservationView(got))
}

type statusReq struct {
    Status string `json:"status"`
}

// UpdateStatus transitions a reservation's lifecycle state.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req statusReq
    if err := c.Bind(&req); err != nil || !model.ValidReservationStatus(req.Status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Reservations.UpdateStatus(ctx, id, req.Status); err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
    }
    res, err := h.Reservations.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
    }
    return c.JSON(http.StatusOK, toReservationView(res))
}

// Cancel is a convenience transition to canceled.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Reservations.UpdateStatus(ctx, id, model.ReservationCanceled); err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
