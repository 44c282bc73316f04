package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/riopesca/booking-api/internal/wise"
)

// WiseHandler proxies read-only Wise API lookups for staff.  The client is
// nil when no API key is configured, in which case the endpoints report 503.
type WiseHandler struct {
    Client *wise.Client
}

func NewWiseHandler(client *wise.Client) *WiseHandler {
    return &WiseHandler{Client: client}
}

// AccountDetails returns the operator's USD receiving account details.
func (h *WiseHandler) AccountDetails(c echo.Context) error {
    if h.Client == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "wise api not configured"})
    }
    details, err := h.Client.USDAccountDetails(c.Request().Context())
    if errors.Is(err, wise.ErrNoUSDAccount) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no usd account on profile"})
    }
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "wise api request failed"})
    }
    return c.JSONBlob(http.StatusOK, details)
}

// Transfers returns recent transfers on the profile.  `days` bounds the
// lookback window (default 7).
func (h *WiseHandler) Transfers(c echo.Context) error {
    if h.Client == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "wise api not configured"})
    }
    days := 7
    if v := c.QueryParam("days"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 1 || n > 90 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be 1-90"})
        }
        days = n
    }
    transfers, err := h.Client.RecentTransfers(c.Request().Context(), days)
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "wise api request failed"})
    }
    return c.JSONBlob(http.StatusOK, transfers)
}
