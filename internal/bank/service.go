package bank

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RiskAnalyzer scores a transaction against a behavioral profile.
type RiskAnalyzer interface {
	Analyze(tx *Transaction, profile *BehavioralProfile) (float64, []RiskFactor)
	RebuildProfile(userID uuid.UUID, history []Transaction)
	Profile(userID uuid.UUID) *BehavioralProfile
	Stats() map[string]float64
}

// RiskFactor mirrors the risk package's factor shape without importing it,
// keeping the dependency direction engine -> bank.
type RiskFactor struct {
	Type        string  `json:"type"`
	Severity    float64 `json:"severity"`
	Description string  `json:"description"`
}

// Thresholds maps risk scores onto transaction statuses.
type Thresholds struct {
	Medium float64
	High   float64
}

// StatusFor returns the status a freshly scored transaction should take.
func (t Thresholds) StatusFor(score float64) TransactionStatus {
	switch {
	case score > t.High:
		return StatusRejected
	case score > t.Medium:
		return StatusRequiresApproval
	default:
		return StatusApproved
	}
}

// Recorder is the subset of the ledger the service drives.
type Recorder interface {
	Process(ctx context.Context, tx *Transaction) error
	UserTransactions(ctx context.Context, userID uuid.UUID) ([]Transaction, error)
}

// Notifier receives events for connected monitoring clients.
type Notifier interface {
	BroadcastTransaction(tx map[string]interface{})
	BroadcastFraudAlert(alert map[string]interface{})
	BroadcastStatusChange(change map[string]interface{})
}

// Service wires risk analysis and the ledger into the submit flow: score the
// transaction, derive its status from the thresholds, then hand it to the
// ledger. Scoring happens before recording so a rejected transaction is still
// stored with its score for audit.
type Service struct {
	risk       RiskAnalyzer
	ledger     Recorder
	thresholds Thresholds
	notifier   Notifier
	log        *slog.Logger
}

// NewService assembles the transaction submit pipeline.
func NewService(risk RiskAnalyzer, ledger Recorder, thresholds Thresholds, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		risk:       risk,
		ledger:     ledger,
		thresholds: thresholds,
		notifier:   notifier,
		log:        log,
	}
}

// Result is the outcome of a submitted transaction.
type Result struct {
	Transaction *Transaction `json:"transaction"`
	RiskFactors []RiskFactor `json:"riskFactors"`
}

// Submit scores, statuses and records a transaction. The caller-supplied
// status is ignored; the score decides. A nil profile is allowed and means
// the analyzer falls back to whatever it has learned for the user.
func (s *Service) Submit(ctx context.Context, tx *Transaction, profile *BehavioralProfile) (*Result, error) {
	if tx.TransactionID == uuid.Nil {
		tx.TransactionID = uuid.New()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	score, factors := s.risk.Analyze(tx, profile)
	tx.FraudScore = score
	tx.Status = s.thresholds.StatusFor(score)

	if err := s.ledger.Process(ctx, tx); err != nil {
		return nil, err
	}

	s.log.Info("transaction submitted",
		"transaction_id", tx.TransactionID,
		"user_id", tx.UserID,
		"fraud_score", score,
		"status", tx.Status,
	)

	if s.notifier != nil {
		payload := map[string]interface{}{
			"transactionId": tx.TransactionID.String(),
			"userId":        tx.UserID.String(),
			"amount":        tx.Amount,
			"fraudScore":    score,
			"status":        string(tx.Status),
		}
		s.notifier.BroadcastTransaction(payload)
		if tx.Status != StatusApproved {
			s.notifier.BroadcastFraudAlert(payload)
		}
	}

	return &Result{Transaction: tx, RiskFactors: factors}, nil
}

// RefreshProfile rebuilds a user's behavioral profile from their recorded
// history and returns the result.
func (s *Service) RefreshProfile(ctx context.Context, userID uuid.UUID) (*BehavioralProfile, error) {
	history, err := s.ledger.UserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.risk.RebuildProfile(userID, history)
	return s.risk.Profile(userID), nil
}

// NotifyStatusChange publishes an approve/reject outcome to subscribers.
func (s *Service) NotifyStatusChange(tx *Transaction) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastStatusChange(map[string]interface{}{
		"transactionId": tx.TransactionID.String(),
		"userId":        tx.UserID.String(),
		"status":        string(tx.Status),
	})
}
