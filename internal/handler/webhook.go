package handler

import (
    "io"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/riopesca/booking-api/internal/reconciliation"
    "github.com/riopesca/booking-api/internal/wise"
)

// WebhookHandler receives payment provider webhooks.
type WebhookHandler struct {
    Engine *reconciliation.Engine
}

func NewWebhookHandler(e *reconciliation.Engine) *WebhookHandler {
    if e == nil {
        panic("nil engine passed to NewWebhookHandler")
    }
    return &WebhookHandler{Engine: e}
}

// webhookResp is the uniform acknowledgement envelope.  The provider only
// cares that we answered 200; status tells a human reading the delivery log
// whether we acted on the event.
type webhookResp struct {
    Message string `json:"message"`
    Status  string `json:"status"` // "success" or "error"
}

// HandleWise processes one Wise webhook delivery.  The body is read raw
// before any decoding because the signature covers the exact bytes on the
// wire.  Every response is HTTP 200: non-200s would make the provider
// retry deliveries we have already classified.
func (h *WebhookHandler) HandleWise(c echo.Context) error {
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusOK, webhookResp{Message: "unreadable body", Status: "error"})
    }
    signature := c.Request().Header.Get(wise.SignatureHeader)

    result, err := h.Engine.ProcessWebhook(c.Request().Context(), body, signature)
    if err != nil {
        // Persistence failure: report error so the operator notices, but
        // still 200 per the provider contract.
        return c.JSON(http.StatusOK, webhookResp{Message: "failed to process payment", Status: "error"})
    }

    status := "success"
    if result.Outcome == reconciliation.OutcomeRejected {
        status = "error"
    }
    return c.JSON(http.StatusOK, webhookResp{Message: result.Message, Status: status})
}
