package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	h := testHub()
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventTransaction, Timestamp: time.Now()}
	if !h.shouldSend(client, event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventFraudAlert},
	}}

	alert := &Event{Type: EventFraudAlert}
	tx := &Event{Type: EventTransaction}

	if !h.shouldSend(client, alert) {
		t.Error("Should receive fraud_alert events")
	}
	if h.shouldSend(client, tx) {
		t.Error("Should NOT receive transaction events")
	}
}

func TestShouldSend_UserFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		UserIDs: []string{"user-1"},
	}}

	matching := &Event{
		Type: EventTransaction,
		Data: map[string]interface{}{"userId": "user-1", "amount": 10.0},
	}
	notMatching := &Event{
		Type: EventTransaction,
		Data: map[string]interface{}{"userId": "user-2", "amount": 10.0},
	}

	if !h.shouldSend(client, matching) {
		t.Error("Should match on userId")
	}
	if h.shouldSend(client, notMatching) {
		t.Error("Should NOT match other users")
	}
}

func TestShouldSend_MinAmountFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		MinAmount: 10.0,
	}}

	large := &Event{
		Type: EventTransaction,
		Data: map[string]interface{}{"amount": 15.0},
	}
	small := &Event{
		Type: EventTransaction,
		Data: map[string]interface{}{"amount": 5.0},
	}

	if !h.shouldSend(client, large) {
		t.Error("Should receive large transaction")
	}
	if h.shouldSend(client, small) {
		t.Error("Should NOT receive small transaction")
	}
}

func TestShouldSend_MinScoreFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		MinScore: 0.5,
	}}

	risky := &Event{
		Type: EventFraudAlert,
		Data: map[string]interface{}{"fraudScore": 0.7},
	}
	benign := &Event{
		Type: EventTransaction,
		Data: map[string]interface{}{"fraudScore": 0.1},
	}

	if !h.shouldSend(client, risky) {
		t.Error("Should receive high-score event")
	}
	if h.shouldSend(client, benign) {
		t.Error("Should NOT receive low-score event")
	}
}

// ---------------------------------------------------------------------------
// Broadcast / lifecycle tests
// ---------------------------------------------------------------------------

func TestBroadcastCountsEvents(t *testing.T) {
	h := testHub()

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	h.BroadcastTransaction(map[string]interface{}{"amount": 1.0})
	h.BroadcastFraudAlert(map[string]interface{}{"fraudScore": 0.9})
	h.BroadcastStatusChange(map[string]interface{}{"status": "approved"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.totalEvents.Load() == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.totalEvents.Load(); got != 3 {
		t.Errorf("totalEvents = %d, want 3", got)
	}

	cancel()

	// After shutdown, Run has closed done; give it a moment
	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-h.done:
			return
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Error("hub did not shut down")
}

func TestStats(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"] != 0 {
		t.Errorf("connectedClients = %v, want 0", stats["connectedClients"])
	}
}
