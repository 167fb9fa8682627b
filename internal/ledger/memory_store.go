package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pixelatedseraph/safebank/internal/bank"
)

// MemoryStore is an in-memory Store implementation. It is the default
// backend and the one used throughout the test suite.
type MemoryStore struct {
	mu     sync.RWMutex
	txs    map[uuid.UUID]*bank.Transaction
	byUser map[uuid.UUID][]uuid.UUID
	limits map[uuid.UUID]*DailyLimit
	order  []uuid.UUID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs:    make(map[uuid.UUID]*bank.Transaction),
		byUser: make(map[uuid.UUID][]uuid.UUID),
		limits: make(map[uuid.UUID]*DailyLimit),
	}
}

func (s *MemoryStore) SaveTransaction(_ context.Context, tx *bank.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tx
	if _, exists := s.txs[tx.TransactionID]; !exists {
		s.order = append(s.order, tx.TransactionID)
		s.byUser[tx.UserID] = append(s.byUser[tx.UserID], tx.TransactionID)
	}
	s.txs[tx.TransactionID] = &cp
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id uuid.UUID) (*bank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) UserTransactions(_ context.Context, userID uuid.UUID) ([]bank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	out := make([]bank.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.txs[id])
	}
	return out, nil
}

func (s *MemoryStore) AllTransactions(_ context.Context) ([]bank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bank.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.txs[id])
	}
	return out, nil
}

func (s *MemoryStore) GetDailyLimit(_ context.Context, userID uuid.UUID) (*DailyLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dl, ok := s.limits[userID]
	if !ok {
		return nil, nil
	}
	cp := *dl
	return &cp, nil
}

func (s *MemoryStore) PutDailyLimit(_ context.Context, dl *DailyLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *dl
	s.limits[dl.UserID] = &cp
	return nil
}
