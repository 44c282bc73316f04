package handler

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/riopesca/booking-api/internal/model"
    "github.com/riopesca/booking-api/internal/reconciliation"
    "github.com/riopesca/booking-api/internal/reference"
    "github.com/riopesca/booking-api/internal/repository"
    "github.com/riopesca/booking-api/internal/wise"
)

const webhookTestSecret = "handler-test-secret"

// memStore is a minimal in-memory reconciliation.Store for handler tests.
type memStore struct {
    reservation *model.Reservation
    applied     int
    parked      int
}

func (m *memStore) HasPaymentForTransaction(ctx context.Context, transactionID string) (bool, error) {
    return false, nil
}

func (m *memStore) ReservationByCode(ctx context.Context, code string) (*model.Reservation, error) {
    if m.reservation != nil && m.reservation.ReferenceCode != nil && *m.reservation.ReferenceCode == code {
        return m.reservation, nil
    }
    return nil, repository.ErrReservationNotFound
}

func (m *memStore) ApplyPayment(ctx context.Context, in reconciliation.ApplyInput) (*model.Payment, error) {
    m.applied++
    return &model.Payment{ID: 1, ReservationID: in.ReservationID, Amount: in.Amount,
        Currency: in.Currency, Status: model.PaymentCompleted}, nil
}

func (m *memStore) ParkPayment(ctx context.Context, u *model.UnreconciledPayment) error {
    m.parked++
    u.ID = 1
    return nil
}

func (m *memStore) ReconcileUnreconciled(ctx context.Context, unreconciledID, reservationID uint64) (*model.Payment, error) {
    return nil, repository.ErrUnreconciledNotFound
}

func newWebhookTest(store *memStore) *WebhookHandler {
    return NewWebhookHandler(reconciliation.NewEngine(store, webhookTestSecret, nil))
}

func postWebhook(t *testing.T, h *WebhookHandler, body []byte, signature string) (int, webhookResp) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/payments/wise/webhook", bytes.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if signature != "" {
        req.Header.Set(wise.SignatureHeader, signature)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    if err := h.HandleWise(c); err != nil {
        t.Fatalf("HandleWise: %v", err)
    }
    var resp webhookResp
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response %q: %v", rec.Body.String(), err)
    }
    return rec.Code, resp
}

func signedCreditBody(t *testing.T, memo, transactionID string) ([]byte, string) {
    t.Helper()
    body, err := json.Marshal(wise.WebhookEvent{
        EventType: wise.EventBalancesCredit,
        Data: wise.EventData{
            OccurredAt:    time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
            Amount:        wise.Amount{Value: decimal.NewFromInt(500), Currency: "USD"},
            TransactionID: transactionID,
            Reference:     memo,
        },
    })
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    return body, wise.Sign(body, webhookTestSecret)
}

func TestHandleWiseMissingSignature(t *testing.T) {
    h := newWebhookTest(&memStore{})
    body, _ := signedCreditBody(t, "whatever", "tx-1")

    code, resp := postWebhook(t, h, body, "")
    if code != http.StatusOK {
        t.Errorf("status = %d, want 200", code)
    }
    if resp.Status != "error" || resp.Message != "missing signature" {
        t.Errorf("resp = %+v", resp)
    }
}

func TestHandleWiseInvalidSignature(t *testing.T) {
    h := newWebhookTest(&memStore{})
    body, _ := signedCreditBody(t, "whatever", "tx-1")

    code, resp := postWebhook(t, h, body, wise.Sign(body, "some-other-secret"))
    if code != http.StatusOK {
        t.Errorf("status = %d, want 200", code)
    }
    if resp.Status != "error" || resp.Message != "invalid signature" {
        t.Errorf("resp = %+v", resp)
    }
}

func TestHandleWiseApplied(t *testing.T) {
    refCode := reference.Generate(12)
    store := &memStore{reservation: &model.Reservation{
        ID:            12,
        ReferenceCode: &refCode,
        TotalAmount:   decimal.NewFromInt(500),
        Currency:      "USD",
        Status:        model.ReservationPending,
    }}
    h := newWebhookTest(store)

    body, sig := signedCreditBody(t, "Transfer "+refCode+" ref", "tx-9")
    code, resp := postWebhook(t, h, body, sig)
    if code != http.StatusOK {
        t.Errorf("status = %d, want 200", code)
    }
    if resp.Status != "success" || resp.Message != "payment applied" {
        t.Errorf("resp = %+v", resp)
    }
    if store.applied != 1 || store.parked != 0 {
        t.Errorf("applied=%d parked=%d, want 1/0", store.applied, store.parked)
    }
}

func TestHandleWiseParked(t *testing.T) {
    store := &memStore{}
    h := newWebhookTest(store)

    body, sig := signedCreditBody(t, "no reference at all", "tx-10")
    code, resp := postWebhook(t, h, body, sig)
    if code != http.StatusOK {
        t.Errorf("status = %d, want 200", code)
    }
    if resp.Status != "success" || resp.Message != "payment parked for manual reconciliation" {
        t.Errorf("resp = %+v", resp)
    }
    if store.parked != 1 || store.applied != 0 {
        t.Errorf("applied=%d parked=%d, want 0/1", store.applied, store.parked)
    }
}

func TestHandleWiseIgnoredEventType(t *testing.T) {
    store := &memStore{}
    h := newWebhookTest(store)

    body, err := json.Marshal(wise.WebhookEvent{EventType: "profiles#update"})
    if err != nil {
        t.Fatalf("marshal: %v", err)
    }
    code, resp := postWebhook(t, h, body, wise.Sign(body, webhookTestSecret))
    if code != http.StatusOK {
        t.Errorf("status = %d, want 200", code)
    }
    if resp.Status != "success" || resp.Message != "event ignored" {
        t.Errorf("resp = %+v", resp)
    }
    if store.applied != 0 || store.parked != 0 {
        t.Error("ignored event reached the store")
    }
}
