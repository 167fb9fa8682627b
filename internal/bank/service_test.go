package bank

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	score    float64
	factors  []RiskFactor
	profiles map[uuid.UUID]*BehavioralProfile
	rebuilt  []uuid.UUID
}

func (f *fakeAnalyzer) Analyze(*Transaction, *BehavioralProfile) (float64, []RiskFactor) {
	return f.score, f.factors
}

func (f *fakeAnalyzer) RebuildProfile(userID uuid.UUID, history []Transaction) {
	f.rebuilt = append(f.rebuilt, userID)
	if len(history) > 0 {
		if f.profiles == nil {
			f.profiles = make(map[uuid.UUID]*BehavioralProfile)
		}
		f.profiles[userID] = &BehavioralProfile{TypicalAmount: history[0].Amount}
	}
}

func (f *fakeAnalyzer) Profile(userID uuid.UUID) *BehavioralProfile {
	return f.profiles[userID]
}

func (f *fakeAnalyzer) Stats() map[string]float64 { return nil }

type fakeRecorder struct {
	processed []*Transaction
	history   []Transaction
	err       error
}

func (f *fakeRecorder) Process(_ context.Context, tx *Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.processed = append(f.processed, tx)
	return nil
}

func (f *fakeRecorder) UserTransactions(context.Context, uuid.UUID) ([]Transaction, error) {
	return f.history, nil
}

type fakeNotifier struct {
	transactions []map[string]interface{}
	alerts       []map[string]interface{}
	changes      []map[string]interface{}
}

func (f *fakeNotifier) BroadcastTransaction(tx map[string]interface{})    { f.transactions = append(f.transactions, tx) }
func (f *fakeNotifier) BroadcastFraudAlert(a map[string]interface{})     { f.alerts = append(f.alerts, a) }
func (f *fakeNotifier) BroadcastStatusChange(ch map[string]interface{})  { f.changes = append(f.changes, ch) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testThresholds() Thresholds {
	return Thresholds{Medium: 0.6, High: 0.8}
}

func TestThresholdsStatusFor(t *testing.T) {
	th := testThresholds()

	assert.Equal(t, StatusApproved, th.StatusFor(0.0))
	assert.Equal(t, StatusApproved, th.StatusFor(0.6), "boundary stays approved")
	assert.Equal(t, StatusRequiresApproval, th.StatusFor(0.61))
	assert.Equal(t, StatusRequiresApproval, th.StatusFor(0.8), "boundary stays requires_approval")
	assert.Equal(t, StatusRejected, th.StatusFor(0.81))
}

func TestSubmitScoresAndRecords(t *testing.T) {
	analyzer := &fakeAnalyzer{score: 0.7, factors: []RiskFactor{{Type: "amount_anomaly", Severity: 0.8}}}
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}
	svc := NewService(analyzer, recorder, testThresholds(), notifier, discardLogger())

	tx := &Transaction{UserID: uuid.New(), Amount: 900, Recipient: "x", Type: TypeTransfer}
	result, err := svc.Submit(context.Background(), tx, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.7, result.Transaction.FraudScore)
	assert.Equal(t, StatusRequiresApproval, result.Transaction.Status)
	assert.Len(t, result.RiskFactors, 1)
	assert.NotEqual(t, uuid.Nil, result.Transaction.TransactionID)
	assert.False(t, result.Transaction.Timestamp.IsZero())

	require.Len(t, recorder.processed, 1)
	assert.Same(t, result.Transaction, recorder.processed[0])

	// Non-approved outcomes raise a fraud alert alongside the transaction event.
	assert.Len(t, notifier.transactions, 1)
	assert.Len(t, notifier.alerts, 1)
}

func TestSubmitApprovedSkipsAlert(t *testing.T) {
	analyzer := &fakeAnalyzer{score: 0.1}
	notifier := &fakeNotifier{}
	svc := NewService(analyzer, &fakeRecorder{}, testThresholds(), notifier, discardLogger())

	_, err := svc.Submit(context.Background(), &Transaction{UserID: uuid.New(), Amount: 50, Recipient: "x"}, nil)
	require.NoError(t, err)

	assert.Len(t, notifier.transactions, 1)
	assert.Empty(t, notifier.alerts)
}

func TestSubmitLedgerErrorPropagates(t *testing.T) {
	recorder := &fakeRecorder{err: context.DeadlineExceeded}
	svc := NewService(&fakeAnalyzer{}, recorder, testThresholds(), nil, discardLogger())

	_, err := svc.Submit(context.Background(), &Transaction{UserID: uuid.New(), Amount: 50, Recipient: "x"}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitOverridesCallerStatus(t *testing.T) {
	svc := NewService(&fakeAnalyzer{score: 0.0}, &fakeRecorder{}, testThresholds(), nil, discardLogger())

	tx := &Transaction{UserID: uuid.New(), Amount: 50, Recipient: "x", Status: StatusRejected}
	result, err := svc.Submit(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, result.Transaction.Status)
}

func TestRefreshProfile(t *testing.T) {
	userID := uuid.New()
	recorder := &fakeRecorder{history: []Transaction{{UserID: userID, Amount: 123}}}
	analyzer := &fakeAnalyzer{}
	svc := NewService(analyzer, recorder, testThresholds(), nil, discardLogger())

	profile, err := svc.RefreshProfile(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 123.0, profile.TypicalAmount)
	assert.Equal(t, []uuid.UUID{userID}, analyzer.rebuilt)
}

func TestNotifyStatusChange(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewService(&fakeAnalyzer{}, &fakeRecorder{}, testThresholds(), notifier, discardLogger())

	svc.NotifyStatusChange(&Transaction{TransactionID: uuid.New(), UserID: uuid.New(), Status: StatusApproved})
	require.Len(t, notifier.changes, 1)
	assert.Equal(t, "approved", notifier.changes[0]["status"])
}
