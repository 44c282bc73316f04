package wise

import (
    "time"

    "github.com/shopspring/decimal"
)

// EventBalancesCredit is the only event type that triggers reconciliation;
// every other type is acknowledged and ignored.
const EventBalancesCredit = "balances#credit"

// Amount is a monetary value as sent by the provider.
type Amount struct {
    Value    decimal.Decimal `json:"value"`
    Currency string          `json:"currency"`
}

// EventData is the data object of a webhook event.
type EventData struct {
    ResourceID    int64     `json:"resource_id"`
    CurrentState  string    `json:"current_state"`
    PreviousState string    `json:"previous_state"`
    OccurredAt    time.Time `json:"occurred_at"`
    Amount        Amount    `json:"amount"`
    TransactionID string    `json:"transaction_id"`
    Reference     string    `json:"reference"`
}

// WebhookEvent is the typed envelope of an inbound webhook.  The raw body is
// decoded into it once, at the engine boundary, after the signature has been
// verified; nothing downstream handles untyped payloads.
type WebhookEvent struct {
    EventType string    `json:"event_type"`
    Data      EventData `json:"data"`
}
