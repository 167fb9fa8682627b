package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelatedseraph/safebank/internal/bank"
)

const testSecret = "test-offline-secret"

func TestSealAndProcessOffline(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	tx := testTx(uuid.New(), 500, bank.StatusApproved)

	env, err := l.Seal(tx, testSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EncryptedData)
	assert.NotEmpty(t, env.Signature)
	assert.Greater(t, env.ExpiresAt, time.Now().Unix())

	require.NoError(t, l.ProcessOffline(ctx, env, testSecret))

	got, err := l.Get(ctx, tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.Amount)
}

func TestSealRespectsOfflineLimit(t *testing.T) {
	l := testLedger()

	// 1001 is under the single limit but over the tighter offline one.
	_, err := l.Seal(testTx(uuid.New(), 1001, bank.StatusApproved), testSecret)
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "offline", limitErr.Scope)
	assert.Equal(t, 1000.0, limitErr.Limit)
}

func TestProcessOfflineExpired(t *testing.T) {
	l := testLedger()
	tx := testTx(uuid.New(), 500, bank.StatusApproved)

	env, err := l.Seal(tx, testSecret)
	require.NoError(t, err)

	l.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	err = l.ProcessOffline(context.Background(), env, testSecret)
	assert.ErrorIs(t, err, ErrEnvelopeExpired)
}

func TestProcessOfflineWrongSecret(t *testing.T) {
	l := testLedger()
	tx := testTx(uuid.New(), 500, bank.StatusApproved)

	env, err := l.Seal(tx, testSecret)
	require.NoError(t, err)

	err = l.ProcessOffline(context.Background(), env, "some-other-secret")
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestProcessOfflineTamperedPayload(t *testing.T) {
	l := testLedger()
	tx := testTx(uuid.New(), 500, bank.StatusApproved)

	env, err := l.Seal(tx, testSecret)
	require.NoError(t, err)

	// Flip a byte of ciphertext. The recovered plaintext changes, so the
	// recomputed signature no longer matches.
	raw := []byte(env.EncryptedData)
	if raw[0] == 'a' {
		raw[0] = 'b'
	} else {
		raw[0] = 'a'
	}
	env.EncryptedData = string(raw)

	err = l.ProcessOffline(context.Background(), env, testSecret)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestSealEmptySecret(t *testing.T) {
	l := testLedger()

	_, err := l.Seal(testTx(uuid.New(), 500, bank.StatusApproved), "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestProcessOfflineEmptySecret(t *testing.T) {
	l := testLedger()

	env, err := l.Seal(testTx(uuid.New(), 500, bank.StatusApproved), testSecret)
	require.NoError(t, err)

	err = l.ProcessOffline(context.Background(), env, "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestProcessOfflineGarbageCiphertext(t *testing.T) {
	l := testLedger()
	tx := testTx(uuid.New(), 500, bank.StatusApproved)

	env, err := l.Seal(tx, testSecret)
	require.NoError(t, err)

	env.EncryptedData = "not hex at all"
	err = l.ProcessOffline(context.Background(), env, testSecret)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadSignature)
}

func TestProcessOfflineRunsFullPipeline(t *testing.T) {
	l := testLedger()
	ctx := context.Background()
	userID := uuid.New()

	// Exhaust the daily allowance online, then try to replay an envelope.
	require.NoError(t, l.Process(ctx, testTx(userID, 5000, bank.StatusApproved)))
	require.NoError(t, l.Process(ctx, testTx(userID, 5000, bank.StatusApproved)))

	env, err := l.Seal(testTx(userID, 100, bank.StatusApproved), testSecret)
	require.NoError(t, err)

	err = l.ProcessOffline(ctx, env, testSecret)
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "daily", limitErr.Scope)
}

func TestXORCipherRoundTrip(t *testing.T) {
	c := XORCipher{}
	plaintext := []byte(`{"hello":"world"}`)

	sealed := c.Seal(plaintext, "key")
	assert.NotEqual(t, string(plaintext), sealed)

	opened, err := c.Open(sealed, "key")
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}
