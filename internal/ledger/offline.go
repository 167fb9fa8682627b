package ledger

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pixelatedseraph/safebank/internal/bank"
)

// ErrEmptySecret is returned when sealing or replaying an envelope with an
// empty secret. The cipher and signature both key on it; an empty key would
// make the envelope trivially forgeable.
var ErrEmptySecret = errors.New("ledger: offline secret must not be empty")

// OfflineTransaction is a sealed envelope that lets a transaction created
// without connectivity be replayed later. The payload is carried twice: in
// clear for inspection, and encrypted with an integrity tag so tampering with
// either copy is detected at replay time.
type OfflineTransaction struct {
	Transaction   bank.Transaction `json:"transaction"`
	EncryptedData string           `json:"encryptedData"`
	Signature     string           `json:"signature"`
	ExpiresAt     int64            `json:"expiresAt"`
}

// Cipher encrypts and decrypts offline payloads. The default XORCipher is a
// reversible keyed transform, not real encryption. TODO(offline): swap in
// AES-GCM once key distribution for offline devices is settled.
type Cipher interface {
	Seal(plaintext []byte, key string) string
	Open(sealed string, key string) ([]byte, error)
}

// XORCipher is the placeholder Cipher used until proper envelope encryption
// lands.
type XORCipher struct{}

func (XORCipher) Seal(plaintext []byte, key string) string {
	out := make([]byte, len(plaintext))
	for i, b := range plaintext {
		out[i] = b ^ key[i%len(key)]
	}
	return hex.EncodeToString(out)
}

func (XORCipher) Open(sealed string, key string) ([]byte, error) {
	raw, err := hex.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("ledger: decode offline payload: %w", err)
	}
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}

// Seal wraps a transaction into an offline envelope. Offline transactions
// carry a tighter amount limit than online ones since they settle without a
// live fraud check.
func (l *Ledger) Seal(tx *bank.Transaction, secret string) (*OfflineTransaction, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if tx.Amount > l.limits.OfflineTransaction {
		return nil, &LimitExceededError{Scope: "offline", Amount: tx.Amount, Limit: l.limits.OfflineTransaction}
	}
	plaintext, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode offline transaction: %w", err)
	}
	env := &OfflineTransaction{
		Transaction:   *tx,
		EncryptedData: l.cipher.Seal(plaintext, secret),
		Signature:     sign(plaintext, secret),
		ExpiresAt:     l.now().Add(l.limits.OfflineCache).Unix(),
	}
	offlineSealed.Inc()
	l.log.Info("offline envelope sealed",
		"transaction_id", tx.TransactionID,
		"expires_at", env.ExpiresAt,
	)
	return env, nil
}

// ProcessOffline verifies and replays a sealed envelope. Expiry is checked
// first so expired envelopes fail fast without touching the ciphertext. The
// recovered payload, not the cleartext copy, is what gets processed.
func (l *Ledger) ProcessOffline(ctx context.Context, env *OfflineTransaction, secret string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	if l.now().Unix() > env.ExpiresAt {
		offlineReplayed.WithLabelValues("expired").Inc()
		return ErrEnvelopeExpired
	}
	plaintext, err := l.cipher.Open(env.EncryptedData, secret)
	if err != nil {
		offlineReplayed.WithLabelValues("undecryptable").Inc()
		return err
	}
	if !hmac.Equal([]byte(sign(plaintext, secret)), []byte(env.Signature)) {
		offlineReplayed.WithLabelValues("bad_signature").Inc()
		return ErrBadSignature
	}
	var tx bank.Transaction
	if err := json.Unmarshal(plaintext, &tx); err != nil {
		offlineReplayed.WithLabelValues("undecryptable").Inc()
		return fmt.Errorf("ledger: decode offline transaction: %w", err)
	}
	if err := l.Process(ctx, &tx); err != nil {
		offlineReplayed.WithLabelValues("rejected").Inc()
		return err
	}
	offlineReplayed.WithLabelValues("ok").Inc()
	return nil
}

func sign(plaintext []byte, secret string) string {
	h := sha256.New()
	h.Write(plaintext)
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}
