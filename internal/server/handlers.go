package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pixelatedseraph/safebank/internal/bank"
	"github.com/pixelatedseraph/safebank/internal/ledger"
	"github.com/pixelatedseraph/safebank/internal/metrics"
	"github.com/pixelatedseraph/safebank/internal/pagination"
	"github.com/pixelatedseraph/safebank/internal/traces"
	"github.com/pixelatedseraph/safebank/internal/validation"
)

// SubmitTransactionRequest is the body of POST /v1/users/:userId/transactions.
// The device and behavioral profile are not part of the request: both come
// from the user's registration, so a client cannot impersonate a device or
// feed the risk engine a profile of its choosing.
type SubmitTransactionRequest struct {
	Amount    float64              `json:"amount"`
	Recipient string               `json:"recipient"`
	Type      bank.TransactionType `json:"type"`
	Timestamp *time.Time           `json:"timestamp,omitempty"`
}

func (s *Server) submitTransaction(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "userId must be a valid UUID"})
		return
	}

	var req SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Invalid request body"})
		return
	}

	if errs := validation.Validate(
		validation.PositiveAmount("amount", req.Amount),
		validation.Required("recipient", req.Recipient),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	user := s.users.Get(userID)
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "User not registered"})
		return
	}

	txType := req.Type
	if txType == "" {
		txType = bank.TypeTransfer
	}

	tx := &bank.Transaction{
		TransactionID: uuid.New(),
		UserID:        userID,
		Amount:        req.Amount,
		Recipient:     validation.SanitizeString(req.Recipient, validation.MaxStringLength),
		Type:          txType,
		DeviceID:      user.Device.DeviceID,
	}
	if req.Timestamp != nil {
		tx.Timestamp = *req.Timestamp
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "transaction.submit",
		traces.UserID(userID.String()),
		traces.Amount(req.Amount),
	)
	defer span.End()

	result, err := s.service.Submit(ctx, tx, &user.Behavioral)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}

	span.SetAttributes(
		traces.TransactionID(result.Transaction.TransactionID.String()),
		traces.FraudScore(result.Transaction.FraudScore),
	)
	metrics.TransactionsTotal.WithLabelValues(string(result.Transaction.Status)).Inc()

	receipt, err := s.ledger.Receipt(ctx, result.Transaction.TransactionID)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction": result.Transaction,
		"riskFactors": result.RiskFactors,
		"receipt":     receipt,
	})
}

func (s *Server) getTransaction(c *gin.Context) {
	id, _ := uuid.Parse(c.Param("id"))

	tx, err := s.ledger.Get(c.Request.Context(), id)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (s *Server) listTransactions(c *gin.Context) {
	userID, _ := uuid.Parse(c.Param("userId"))

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > 200 {
				limit = 200
			}
		}
	}
	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cursor", "message": "Malformed pagination cursor"})
		return
	}

	txs, err := s.ledger.UserTransactions(c.Request.Context(), userID)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}

	key := func(tx bank.Transaction) (time.Time, string) {
		return tx.Timestamp, tx.TransactionID.String()
	}
	page, next, more := pagination.ComputePage(pagination.After(txs, cursor, key), limit, key)

	c.JSON(http.StatusOK, gin.H{
		"transactions": page,
		"count":        len(page),
		"nextCursor":   next,
		"hasMore":      more,
	})
}

func (s *Server) getReceipt(c *gin.Context) {
	id, _ := uuid.Parse(c.Param("id"))

	receipt, err := s.ledger.Receipt(c.Request.Context(), id)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

func (s *Server) approveTransaction(c *gin.Context) {
	s.reviewTransaction(c, s.ledger.Approve)
}

func (s *Server) rejectTransaction(c *gin.Context) {
	s.reviewTransaction(c, func(ctx context.Context, id uuid.UUID) (*bank.Transaction, error) {
		tx, err := s.ledger.Reject(ctx, id)
		if err != nil {
			return nil, err
		}
		// A manual rejection is a confirmed-fraud signal for the engine's counters.
		s.engine.MarkFraud(tx.TransactionID)
		return tx, nil
	})
}

func (s *Server) reviewTransaction(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*bank.Transaction, error)) {
	id, _ := uuid.Parse(c.Param("id"))

	tx, err := op(c.Request.Context(), id)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}
	s.service.NotifyStatusChange(tx)
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// SealOfflineRequest is the body of POST /v1/offline/seal.
type SealOfflineRequest struct {
	UserID    uuid.UUID            `json:"userId"`
	Amount    float64              `json:"amount"`
	Recipient string               `json:"recipient"`
	Type      bank.TransactionType `json:"type"`
	DeviceID  string               `json:"deviceId"`
}

func (s *Server) sealOffline(c *gin.Context) {
	var req SealOfflineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Invalid request body"})
		return
	}

	if errs := validation.Validate(
		validation.PositiveAmount("amount", req.Amount),
		validation.Required("recipient", req.Recipient),
		validation.ValidUUID("userId", req.UserID.String()),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	txType := req.Type
	if txType == "" {
		txType = bank.TypeTransfer
	}

	tx := &bank.Transaction{
		TransactionID: uuid.New(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		Recipient:     req.Recipient,
		Type:          txType,
		Timestamp:     time.Now().UTC(),
		DeviceID:      req.DeviceID,
		Status:        bank.StatusPending,
	}

	env, err := s.ledger.Seal(tx, s.cfg.OfflineSecret)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"envelope": env})
}

func (s *Server) processOffline(c *gin.Context) {
	var env ledger.OfflineTransaction
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Invalid request body"})
		return
	}

	if err := s.ledger.ProcessOffline(c.Request.Context(), &env, s.cfg.OfflineSecret); err != nil {
		s.writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed", "transactionId": env.Transaction.TransactionID})
}

func (s *Server) rebuildProfile(c *gin.Context) {
	userID, _ := uuid.Parse(c.Param("userId"))

	profile, err := s.service.RefreshProfile(c.Request.Context(), userID)
	if err != nil {
		s.writeLedgerError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "No transaction history for user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (s *Server) getProfile(c *gin.Context) {
	userID, _ := uuid.Parse(c.Param("userId"))

	profile := s.engine.Profile(userID)
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "No behavioral profile for user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (s *Server) statsHandler(c *gin.Context) {
	ledgerStats, err := s.ledger.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ledger":   ledgerStats,
		"risk":     s.engine.Stats(),
		"realtime": s.realtimeHub.Stats(),
	})
}

// writeLedgerError maps domain errors onto HTTP responses.
func (s *Server) writeLedgerError(c *gin.Context, err error) {
	var limitErr *ledger.LimitExceededError
	var stateErr *ledger.InvalidStateError

	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_amount", "message": err.Error()})
	case errors.As(err, &limitErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "limit_exceeded",
			"message": limitErr.Error(),
			"scope":   limitErr.Scope,
			"amount":  limitErr.Amount,
			"limit":   limitErr.Limit,
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "invalid_state",
			"message": stateErr.Error(),
			"current": stateErr.Current,
		})
	case errors.Is(err, ledger.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Transaction not found"})
	case errors.Is(err, ledger.ErrEnvelopeExpired):
		c.JSON(http.StatusGone, gin.H{"error": "envelope_expired", "message": err.Error()})
	case errors.Is(err, ledger.ErrBadSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_signature", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An unexpected error occurred"})
	}
}
