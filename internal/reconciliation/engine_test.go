package reconciliation

import (
    "context"
    "encoding/json"
    "testing"
    "time"

    "github.com/shopspring/decimal"

    "github.com/riopesca/booking-api/internal/model"
    "github.com/riopesca/booking-api/internal/queue"
    "github.com/riopesca/booking-api/internal/reference"
    "github.com/riopesca/booking-api/internal/repository"
    "github.com/riopesca/booking-api/internal/wise"
)

const testSecret = "webhook-test-secret"

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
    reservations map[string]*model.Reservation // keyed by reference code
    payments     []ApplyInput
    parked       []model.UnreconciledPayment
    knownTxIDs   map[string]bool

    reconcileFn func(ctx context.Context, unreconciledID, reservationID uint64) (*model.Payment, error)
}

func newFakeStore() *fakeStore {
    return &fakeStore{
        reservations: map[string]*model.Reservation{},
        knownTxIDs:   map[string]bool{},
    }
}

func (f *fakeStore) HasPaymentForTransaction(ctx context.Context, transactionID string) (bool, error) {
    return f.knownTxIDs[transactionID], nil
}

func (f *fakeStore) ReservationByCode(ctx context.Context, code string) (*model.Reservation, error) {
    res, ok := f.reservations[code]
    if !ok {
        return nil, repository.ErrReservationNotFound
    }
    return res, nil
}

func (f *fakeStore) ApplyPayment(ctx context.Context, in ApplyInput) (*model.Payment, error) {
    if in.TransactionID != "" && f.knownTxIDs[in.TransactionID] {
        return nil, repository.ErrDuplicateTransaction
    }
    f.payments = append(f.payments, in)
    if in.TransactionID != "" {
        f.knownTxIDs[in.TransactionID] = true
    }
    tid := in.TransactionID
    code := in.ReferenceCode
    return &model.Payment{
        ID:            uint64(len(f.payments)),
        ReservationID: in.ReservationID,
        Amount:        in.Amount,
        Currency:      in.Currency,
        ReferenceCode: &code,
        TransactionID: &tid,
        PaymentDate:   in.PaymentDate,
        Method:        in.Method,
        Status:        model.PaymentCompleted,
    }, nil
}

func (f *fakeStore) ParkPayment(ctx context.Context, u *model.UnreconciledPayment) error {
    u.ID = uint64(len(f.parked) + 1)
    f.parked = append(f.parked, *u)
    return nil
}

func (f *fakeStore) ReconcileUnreconciled(ctx context.Context, unreconciledID, reservationID uint64) (*model.Payment, error) {
    if f.reconcileFn != nil {
        return f.reconcileFn(ctx, unreconciledID, reservationID)
    }
    return nil, repository.ErrUnreconciledNotFound
}

// addReservation registers a pending reservation whose code is derived from
// its id, the same way production assigns codes.
func (f *fakeStore) addReservation(id uint64) (*model.Reservation, string) {
    code := reference.Generate(id)
    res := &model.Reservation{
        ID:            id,
        GuestName:     "Test Guest",
        ReferenceCode: &code,
        TotalAmount:   decimal.NewFromInt(500),
        Currency:      "USD",
        Status:        model.ReservationPending,
    }
    f.reservations[code] = res
    return res, code
}

func creditEventBody(t *testing.T, memo, transactionID string, amount int64) []byte {
    t.Helper()
    body, err := json.Marshal(wise.WebhookEvent{
        EventType: wise.EventBalancesCredit,
        Data: wise.EventData{
            ResourceID:    77,
            CurrentState:  "completed",
            OccurredAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
            Amount:        wise.Amount{Value: decimal.NewFromInt(amount), Currency: "USD"},
            TransactionID: transactionID,
            Reference:     memo,
        },
    })
    if err != nil {
        t.Fatalf("marshal event: %v", err)
    }
    return body
}

func TestProcessWebhookApplied(t *testing.T) {
    store := newFakeStore()
    _, code := store.addReservation(5)

    var published []queue.PaymentReconciledEvent
    engine := NewEngine(store, testSecret, func(ctx context.Context, evt queue.PaymentReconciledEvent) {
        published = append(published, evt)
    })

    body := creditEventBody(t, "Transfer "+code+" for trip", "tx-100", 500)
    res, err := engine.ProcessWebhook(context.Background(), body, wise.Sign(body, testSecret))
    if err != nil {
        t.Fatalf("ProcessWebhook: %v", err)
    }
    if res.Outcome != OutcomeApplied || res.Duplicate {
        t.Fatalf("got %+v, want applied non-duplicate", res)
    }
    if res.ReservationID != 5 {
        t.Errorf("reservation id = %d, want 5", res.ReservationID)
    }
    if len(store.payments) != 1 {
        t.Fatalf("payments recorded = %d, want 1", len(store.payments))
    }
    p := store.payments[0]
    if p.ReservationID != 5 || p.TransactionID != "tx-100" || !p.Amount.Equal(decimal.NewFromInt(500)) {
        t.Errorf("unexpected apply input: %+v", p)
    }
    if p.Method != model.MethodWise {
        t.Errorf("method = %q, want %q", p.Method, model.MethodWise)
    }
    if len(store.parked) != 0 {
        t.Errorf("parked %d payments, want 0", len(store.parked))
    }
    if len(published) != 1 || published[0].Source != "webhook" {
        t.Errorf("published = %+v, want one webhook-sourced event", published)
    }
}

func TestProcessWebhookMissingAndInvalidSignatureAreDistinct(t *testing.T) {
    store := newFakeStore()
    engine := NewEngine(store, testSecret, nil)
    body := creditEventBody(t, "anything", "tx-1", 100)

    res, err := engine.ProcessWebhook(context.Background(), body, "")
    if err != nil {
        t.Fatalf("ProcessWebhook: %v", err)
    }
    if res.Outcome != OutcomeRejected || res.Message != "missing signature" {
        t.Errorf("missing signature: got %+v", res)
    }

    res, err = engine.ProcessWebhook(context.Background(), body, wise.Sign(body, "wrong-secret"))
    if err != nil {
        t.Fatalf("ProcessWebhook: %v", err)
    }
    if res.Outcome != OutcomeRejected || res.Message != "invalid signature" {
        t.Errorf("invalid signature: got %+v", res)
    }

    if len(store.payments) != 0 || len(store.parked) != 0 {
        t.Error("rejected deliveries touched the store")
    }
}

func TestProcessWebhookRejectsUndecodablePayload(t *testing.T) {
    store := newFakeStore()
    engine := NewEngine(store, testSecret, nil)

    body := []byte(`{"event_type": "balances#credit",`)
    res, err := engine.ProcessWebhook(context.Background(), body, wise.Sign(body, testSecret))
    if err != nil {
        t.Fatalf("ProcessWebhook: %v", err)
    }
    if res.Outcome != OutcomeRejected || res.Message != "invalid payload" {
        t.Errorf("got %+v, want rejected invalid payload", res)
    }
}

func TestProcessWebhookIgnoresOtherEventTypes(t *testing.T) {
    store := newFakeStore()
    store.addReservation(5)
    engine := NewEngine(store, testSecret, nil)

    body, _ := json.Marshal(wise.WebhookEvent{
        EventType: "transfers#state-change",
        Data:      wise.EventData{TransactionID: "tx-55"},
    })
    res, err := engine.ProcessWebhook(context.Background(), body, wise.Sign(body, testSecret))
    if err != nil {
        t.Fatalf("ProcessWebhook: %v", err)
    }
    if res.Outcome != OutcomeIgnored {
        t.Errorf("got %+v, want ignored", res)
    }
    if len(store.payments) != 0 || len(store.parked) != 0 || store.knownTxIDs["tx-55"] {
        t.Error("ignored event produced side effects")
    }
}

func TestProcessWebhookParksWhenNoCode(t *testing.T) {
    store := newFakeStore()
    engine := NewEngine(store, testSecret, nil)

    body := creditEventBody(t, "no code here", "tx-7", 250)
    res, err := engine.ProcessWebhook(context.Background(), body, wise.Sign(body, testSecret))
    if err != nil {
        t.Fatalf("ProcessWebhook: %v", err)
    }
    if res.Outcome != OutcomeParked {
        t.Fatalf("got %+v, want parked", res)
    }
    if len(store.payments) != 0 {
        t.Errorf("parked delivery also recorded %d payments", len(store.payments))
    }
    if len(store.parked) != 1 {
        t.Fatalf("parked %d, want 1", len(store.parked))
    }
    u := store.parked[0]
    if u.TransactionID != "tx-7" || u.Reference != "no code here" || u.Status != model.UnreconciledPending {
        t.Errorf("unexpected parked row: %+v", u)
    }
    if len(u.PaymentData) == 0 {
        t.Error("parked row lost the raw payload")
    }
}

func TestProcessWebhookParksWhenCodeMatchesNothing(t *testing.T) {
    store := newFakeStore()
    engine := NewEngine(store, testSecret, nil)

    body := creditEventBody(t, "wire RPA-ZZZZ9 done", "tx-8", 300)
    res, err := engine.ProcessWebhook(context.Background(), body, wise.Sign(body, testSecret))
    if err != nil {
        t.Fatalf("ProcessWebhook: %v", err)
    }
    if res.Outcome != OutcomeParked {
        t.Fatalf("got %+v, want parked", res)
    }
    if len(store.payments) != 0 || len(store.parked) != 1 {
        t.Errorf("payments=%d parked=%d, want 0/1", len(store.payments), len(store.parked))
    }
}

func TestProcessWebhookDuplicateDeliveryIsNoOp(t *testing.T) {
    store := newFakeStore()
    _, code := store.addReservation(5)
    engine := NewEngine(store, testSecret, nil)

    body := creditEventBody(t, code, "tx-dup", 500)
    sig := wise.Sign(body, testSecret)

    first, err := engine.ProcessWebhook(context.Background(), body, sig)
    if err != nil || first.Outcome != OutcomeApplied || first.Duplicate {
        t.Fatalf("first delivery: res=%+v err=%v", first, err)
    }

    second, err := engine.ProcessWebhook(context.Background(), body, sig)
    if err != nil {
        t.Fatalf("second delivery: %v", err)
    }
    if second.Outcome != OutcomeApplied || !second.Duplicate {
        t.Errorf("second delivery = %+v, want applied duplicate", second)
    }
    if len(store.payments) != 1 {
        t.Errorf("payments = %d after redelivery, want 1", len(store.payments))
    }
}

func TestReconcileManual(t *testing.T) {
    store := newFakeStore()
    code := reference.Generate(9)
    tid := "tx-manual"
    store.reconcileFn = func(ctx context.Context, unreconciledID, reservationID uint64) (*model.Payment, error) {
        if unreconciledID != 3 || reservationID != 9 {
            t.Errorf("store called with (%d, %d), want (3, 9)", unreconciledID, reservationID)
        }
        return &model.Payment{
            ID:            42,
            ReservationID: reservationID,
            Amount:        decimal.NewFromInt(500),
            Currency:      "USD",
            ReferenceCode: &code,
            TransactionID: &tid,
            Status:        model.PaymentCompleted,
        }, nil
    }

    var published []queue.PaymentReconciledEvent
    engine := NewEngine(store, testSecret, func(ctx context.Context, evt queue.PaymentReconciledEvent) {
        published = append(published, evt)
    })

    p, err := engine.ReconcileManual(context.Background(), 3, 9)
    if err != nil {
        t.Fatalf("ReconcileManual: %v", err)
    }
    if p.ID != 42 || p.ReservationID != 9 {
        t.Errorf("payment = %+v", p)
    }
    if len(published) != 1 || published[0].Source != "manual" || published[0].PaymentID != 42 {
        t.Errorf("published = %+v, want one manual-sourced event", published)
    }
}

func TestReconcileManualNotFound(t *testing.T) {
    store := newFakeStore()
    engine := NewEngine(store, testSecret, nil)

    if _, err := engine.ReconcileManual(context.Background(), 99, 1); err != repository.ErrUnreconciledNotFound {
        t.Errorf("err = %v, want ErrUnreconciledNotFound", err)
    }
}
