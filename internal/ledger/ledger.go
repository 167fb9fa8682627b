// Package ledger maintains the authoritative transaction record. It enforces
// spending limits, drives the approval lifecycle, and issues receipts. All
// mutations for a given user run inside a per-user critical section so that
// concurrent submissions cannot partially apply or double-spend a daily limit.
package ledger

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pixelatedseraph/safebank/internal/bank"
)

var (
	// ErrInvalidAmount is returned for transactions with a non-positive amount.
	ErrInvalidAmount = errors.New("ledger: transaction amount must be positive")

	// ErrTransactionNotFound is returned when a transaction ID is unknown.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")

	// ErrEnvelopeExpired is returned when an offline envelope is past its expiry.
	ErrEnvelopeExpired = errors.New("ledger: offline envelope expired")

	// ErrBadSignature is returned when an offline envelope fails integrity
	// verification.
	ErrBadSignature = errors.New("ledger: offline envelope signature mismatch")
)

// LimitExceededError reports a transaction that breached a spending limit.
type LimitExceededError struct {
	Scope  string // "single", "daily" or "offline"
	Amount float64
	Limit  float64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("ledger: %s limit exceeded: amount %.2f over limit %.2f", e.Scope, e.Amount, e.Limit)
}

// InvalidStateError reports a lifecycle operation attempted from a status
// that does not permit it.
type InvalidStateError struct {
	Current bank.TransactionStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("ledger: invalid state transition from %q", e.Current)
}

// DailyLimit tracks a user's accumulated spend for one calendar day.
type DailyLimit struct {
	UserID uuid.UUID `json:"userId"`
	Date   time.Time `json:"date"`
	Total  float64   `json:"total"`
	Count  int       `json:"count"`
}

// Receipt is the proof-of-processing document for a stored transaction.
type Receipt struct {
	TransactionID    uuid.UUID              `json:"transactionId"`
	Timestamp        time.Time              `json:"timestamp"`
	Amount           float64                `json:"amount"`
	Recipient        string                 `json:"recipient"`
	Status           bank.TransactionStatus `json:"status"`
	FraudScore       float64                `json:"fraudScore"`
	ConfirmationCode string                 `json:"confirmationCode"`
}

// Store abstracts transaction persistence. Implementations must be safe for
// concurrent use; the ledger's per-user lock only serializes same-user writes.
type Store interface {
	SaveTransaction(ctx context.Context, tx *bank.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*bank.Transaction, error)
	UserTransactions(ctx context.Context, userID uuid.UUID) ([]bank.Transaction, error)
	AllTransactions(ctx context.Context) ([]bank.Transaction, error)
	GetDailyLimit(ctx context.Context, userID uuid.UUID) (*DailyLimit, error)
	PutDailyLimit(ctx context.Context, dl *DailyLimit) error
}

// Limits bundles the spending constraints the ledger enforces.
type Limits struct {
	SingleTransaction  float64
	DailyTransaction   float64
	OfflineTransaction float64
	OfflineCache       time.Duration
}

// Ledger validates, records and settles transactions.
type Ledger struct {
	store  Store
	limits Limits
	cipher Cipher
	log    *slog.Logger

	userLocks userLockTable

	// now is swappable in tests to exercise day rollover.
	now func() time.Time
}

// New constructs a Ledger over the given store.
func New(store Store, limits Limits, log *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		limits: limits,
		cipher: XORCipher{},
		log:    log,
		now:    time.Now,
	}
}

// Process runs the full validation pipeline and, on success, records the
// transaction and charges the user's daily allowance. Checks run in a fixed
// order so callers see the first failure: amount, single limit, daily limit,
// status validity. Nothing is written unless every check passes.
func (l *Ledger) Process(ctx context.Context, tx *bank.Transaction) error {
	if tx.Amount <= 0 {
		return ErrInvalidAmount
	}
	if tx.Amount > l.limits.SingleTransaction {
		return &LimitExceededError{Scope: "single", Amount: tx.Amount, Limit: l.limits.SingleTransaction}
	}

	unlock := l.userLocks.lock(tx.UserID)
	defer unlock()

	dl, err := l.store.GetDailyLimit(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("ledger: load daily limit: %w", err)
	}
	today := l.now().UTC()
	sameDay := dl != nil && sameCalendarDay(dl.Date, today)
	if sameDay {
		if projected := dl.Total + tx.Amount; projected > l.limits.DailyTransaction {
			return &LimitExceededError{Scope: "daily", Amount: projected, Limit: l.limits.DailyTransaction}
		}
	} else if tx.Amount > l.limits.DailyTransaction {
		return &LimitExceededError{Scope: "daily", Amount: tx.Amount, Limit: l.limits.DailyTransaction}
	}
	if !tx.Status.Valid() {
		return &InvalidStateError{Current: tx.Status}
	}

	if err := l.store.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("ledger: save transaction: %w", err)
	}

	if sameDay {
		dl.Total += tx.Amount
		dl.Count++
	} else {
		dl = &DailyLimit{UserID: tx.UserID, Date: today, Total: tx.Amount, Count: 1}
	}
	if err := l.store.PutDailyLimit(ctx, dl); err != nil {
		return fmt.Errorf("ledger: update daily limit: %w", err)
	}

	transactionsProcessed.Inc()
	transactionAmount.Observe(tx.Amount)
	l.log.Info("transaction processed",
		"transaction_id", tx.TransactionID,
		"user_id", tx.UserID,
		"amount", tx.Amount,
		"status", tx.Status,
	)
	return nil
}

// Approve moves a transaction into the approved state. Only transactions
// awaiting review (requires_approval or flagged) can be approved.
func (l *Ledger) Approve(ctx context.Context, id uuid.UUID) (*bank.Transaction, error) {
	return l.transition(ctx, id, bank.StatusApproved, func(cur bank.TransactionStatus) bool {
		return cur == bank.StatusRequiresApproval || cur == bank.StatusFlagged
	})
}

// Reject moves a transaction into the rejected state. Any status except
// approved may be rejected; approval is final.
func (l *Ledger) Reject(ctx context.Context, id uuid.UUID) (*bank.Transaction, error) {
	return l.transition(ctx, id, bank.StatusRejected, func(cur bank.TransactionStatus) bool {
		return cur != bank.StatusApproved
	})
}

func (l *Ledger) transition(ctx context.Context, id uuid.UUID, to bank.TransactionStatus, allowed func(bank.TransactionStatus) bool) (*bank.Transaction, error) {
	tx, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := l.userLocks.lock(tx.UserID)
	defer unlock()

	// Re-read under the lock; a concurrent transition may have won.
	tx, err = l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowed(tx.Status) {
		return nil, &InvalidStateError{Current: tx.Status}
	}
	tx.Status = to
	if err := l.store.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("ledger: save transaction: %w", err)
	}
	transitionsTotal.WithLabelValues(string(to)).Inc()
	l.log.Info("transaction status changed", "transaction_id", id, "status", to)
	return tx, nil
}

// Get returns a stored transaction by ID.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*bank.Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

// UserTransactions returns a user's transactions, most recent first.
func (l *Ledger) UserTransactions(ctx context.Context, userID uuid.UUID) ([]bank.Transaction, error) {
	txs, err := l.store.UserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Stable newest-first ordering; ties keep insertion order.
	for i := 1; i < len(txs); i++ {
		for j := i; j > 0 && txs[j].Timestamp.After(txs[j-1].Timestamp); j-- {
			txs[j], txs[j-1] = txs[j-1], txs[j]
		}
	}
	return txs, nil
}

// Receipt produces a receipt for a stored transaction. The confirmation code
// is derived from the transaction ID and timestamp so it can be re-verified
// later without storing it.
func (l *Ledger) Receipt(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	tx, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Receipt{
		TransactionID:    tx.TransactionID,
		Timestamp:        tx.Timestamp,
		Amount:           tx.Amount,
		Recipient:        tx.Recipient,
		Status:           tx.Status,
		FraudScore:       tx.FraudScore,
		ConfirmationCode: ConfirmationCode(tx.TransactionID, tx.Timestamp),
	}, nil
}

// ConfirmationCode derives the 8-character receipt code for a transaction.
func ConfirmationCode(id uuid.UUID, ts time.Time) string {
	h := sha256.New()
	h.Write(id[:])
	h.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	return strings.ToUpper(fmt.Sprintf("%x", h.Sum(nil))[:8])
}

// Statistics summarizes the ledger's current contents.
func (l *Ledger) Statistics(ctx context.Context) (map[string]float64, error) {
	txs, err := l.store.AllTransactions(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[string]float64{
		"total_transactions": float64(len(txs)),
		"approved_count":     0,
		"rejected_count":     0,
		"flagged_count":      0,
		"total_volume":       0,
	}
	for _, tx := range txs {
		stats["total_volume"] += tx.Amount
		switch tx.Status {
		case bank.StatusApproved:
			stats["approved_count"]++
		case bank.StatusRejected:
			stats["rejected_count"]++
		case bank.StatusFlagged, bank.StatusRequiresApproval:
			stats["flagged_count"]++
		}
	}
	if len(txs) > 0 {
		stats["approval_rate_percent"] = stats["approved_count"] / float64(len(txs)) * 100
		stats["average_transaction_amount"] = stats["total_volume"] / float64(len(txs))
	}
	return stats, nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
