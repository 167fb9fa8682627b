package risk

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pixelatedseraph/safebank/internal/bank"
)

func historyTx(hour int, amount float64, recipient string, day int) bank.Transaction {
	return bank.Transaction{
		Amount:    amount,
		Recipient: recipient,
		Timestamp: time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC),
	}
}

func TestRebuildProfileEmpty(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	engine.RebuildProfile(userID, nil)
	if engine.Profile(userID) != nil {
		t.Error("empty history should not create a profile")
	}
}

func TestRebuildProfileMean(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	engine.RebuildProfile(userID, []bank.Transaction{
		historyTx(10, 50, "a", 1),
		historyTx(10, 150, "a", 2),
		historyTx(10, 100, "a", 3),
	})

	p := engine.Profile(userID)
	if p == nil {
		t.Fatal("no profile built")
	}
	if p.TypicalAmount != 100 {
		t.Errorf("TypicalAmount = %f, want 100", p.TypicalAmount)
	}
}

func TestRebuildProfileTopHours(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	// Hours 9, 9, 12, 18: 9 leads on count, 12 and 18 tie and sort ascending.
	engine.RebuildProfile(userID, []bank.Transaction{
		historyTx(12, 100, "a", 1),
		historyTx(9, 100, "a", 2),
		historyTx(18, 100, "a", 3),
		historyTx(9, 100, "a", 4),
	})

	p := engine.Profile(userID)
	if !reflect.DeepEqual(p.TypicalHours, []int{9, 12, 18}) {
		t.Errorf("TypicalHours = %v, want [9 12 18]", p.TypicalHours)
	}
}

func TestRebuildProfileHoursCapped(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	var history []bank.Transaction
	for h := 8; h < 14; h++ {
		history = append(history, historyTx(h, 100, "a", 1))
	}
	engine.RebuildProfile(userID, history)

	if got := len(engine.Profile(userID).TypicalHours); got != maxTypicalHours {
		t.Errorf("len(TypicalHours) = %d, want %d", got, maxTypicalHours)
	}
}

func TestRebuildProfileTopRecipients(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	// "b" appears twice; "a" and "c" tie and keep first-seen order.
	engine.RebuildProfile(userID, []bank.Transaction{
		historyTx(10, 100, "a", 1),
		historyTx(10, 100, "b", 2),
		historyTx(10, 100, "c", 3),
		historyTx(10, 100, "b", 4),
	})

	p := engine.Profile(userID)
	if !reflect.DeepEqual(p.CommonRecipients, []string{"b", "a", "c"}) {
		t.Errorf("CommonRecipients = %v, want [b a c]", p.CommonRecipients)
	}
}

func TestRebuildProfileRecipientsCapped(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	history := []bank.Transaction{
		historyTx(10, 100, "a", 1),
		historyTx(10, 100, "b", 1),
		historyTx(10, 100, "c", 1),
		historyTx(10, 100, "d", 1),
		historyTx(10, 100, "e", 1),
		historyTx(10, 100, "f", 1),
		historyTx(10, 100, "g", 1),
	}
	engine.RebuildProfile(userID, history)

	if got := len(engine.Profile(userID).CommonRecipients); got != maxCommonRecipients {
		t.Errorf("len(CommonRecipients) = %d, want %d", got, maxCommonRecipients)
	}
}

func TestRebuildProfileUsageFrequency(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	// 8 transactions across a 4-day span: 2 per day.
	var history []bank.Transaction
	for i := 0; i < 8; i++ {
		history = append(history, historyTx(10, 100, "a", 1+i/2))
	}
	engine.RebuildProfile(userID, history)

	if got := engine.Profile(userID).UsageFrequency; got != 8.0/3.0 {
		// Span is day 1 10:00 to day 4 10:00 = 3 days.
		t.Errorf("UsageFrequency = %f, want %f", got, 8.0/3.0)
	}
}

func TestRebuildProfileSameDaySpan(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	// All in one day: divide by one day, not the sub-day span.
	engine.RebuildProfile(userID, []bank.Transaction{
		historyTx(9, 100, "a", 1),
		historyTx(10, 100, "a", 1),
		historyTx(11, 100, "a", 1),
	})

	if got := engine.Profile(userID).UsageFrequency; got != 3 {
		t.Errorf("UsageFrequency = %f, want 3", got)
	}
}

func TestRebuildProfileDeterministic(t *testing.T) {
	history := []bank.Transaction{
		historyTx(9, 50, "a", 1),
		historyTx(12, 150, "b", 2),
		historyTx(9, 100, "a", 3),
		historyTx(18, 200, "c", 4),
	}

	engineA := NewEngine(testConfig())
	engineB := NewEngine(testConfig())
	userID := uuid.New()
	engineA.RebuildProfile(userID, history)
	engineB.RebuildProfile(userID, history)

	if !reflect.DeepEqual(engineA.Profile(userID), engineB.Profile(userID)) {
		t.Error("rebuild from the same history produced different profiles")
	}
}

func TestRebuildProfileReplacesPrevious(t *testing.T) {
	engine := NewEngine(testConfig())
	userID := uuid.New()

	engine.RebuildProfile(userID, []bank.Transaction{historyTx(10, 100, "a", 1)})
	engine.RebuildProfile(userID, []bank.Transaction{historyTx(20, 500, "b", 1)})

	p := engine.Profile(userID)
	if p.TypicalAmount != 500 || !reflect.DeepEqual(p.CommonRecipients, []string{"b"}) {
		t.Errorf("profile not replaced: %+v", p)
	}
}
