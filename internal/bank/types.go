// Package bank defines the shared domain types for the SafeBank core and the
// orchestration service that ties risk scoring to the transaction ledger.
package bank

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies how money moves.
type TransactionType string

const (
	TypeTransfer   TransactionType = "transfer"
	TypePayment    TransactionType = "payment"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeDeposit    TransactionType = "deposit"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending          TransactionStatus = "pending"
	StatusApproved         TransactionStatus = "approved"
	StatusRejected         TransactionStatus = "rejected"
	StatusFlagged          TransactionStatus = "flagged"
	StatusRequiresApproval TransactionStatus = "requires_approval"
)

// Terminal reports whether no further status transition is permitted.
func (s TransactionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is one of the five known statuses.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFlagged, StatusRequiresApproval:
		return true
	}
	return false
}

// Transaction is a single money movement. TransactionID and UserID are fixed
// at creation; FraudScore is set once by the risk engine and Status evolves
// through the ledger's lifecycle rules.
type Transaction struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	UserID        uuid.UUID         `json:"userId"`
	Amount        float64           `json:"amount"`
	Recipient     string            `json:"recipient"`
	Type          TransactionType   `json:"transactionType"`
	Timestamp     time.Time         `json:"timestamp"`
	DeviceID      string            `json:"deviceId"`
	FraudScore    float64           `json:"fraudScore"`
	Status        TransactionStatus `json:"status"`
}

// BehavioralProfile summarizes a user's historical transaction patterns.
// All fields are derived from a finite sample; rebuilding from the same
// sample is deterministic.
type BehavioralProfile struct {
	TypicalAmount    float64  `json:"typicalTransactionAmount"`
	TypicalHours     []int    `json:"typicalTransactionTimes"` // hours of day, most frequent first, max 3
	CommonRecipients []string `json:"commonRecipients"`        // most frequent first, max 5
	UsageFrequency   float64  `json:"usageFrequency"`          // transactions per day
}

// DeviceInfo describes the device a user transacts from. Device trust is
// managed by an external collaborator; the core only reads DeviceID.
type DeviceInfo struct {
	DeviceID     string    `json:"deviceId"`
	DeviceType   string    `json:"deviceType"`
	AppVersion   string    `json:"appVersion"`
	Trusted      bool      `json:"trusted"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// UserProfile is supplied by the authentication collaborator. The core treats
// it as read-only input to scoring and orchestration.
type UserProfile struct {
	UserID      uuid.UUID         `json:"userId"`
	PhoneNumber string            `json:"phoneNumber"`
	Device      DeviceInfo        `json:"deviceInfo"`
	Behavioral  BehavioralProfile `json:"behavioralProfile"`
	CreatedAt   time.Time         `json:"createdAt"`
}
