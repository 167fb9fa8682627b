package risk

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pixelatedseraph/safebank/internal/bank"
)

// Engine scores transactions and maintains per-user behavioral profiles.
// Safe for concurrent use.
type Engine struct {
	cfg Config

	mu       sync.RWMutex
	profiles map[uuid.UUID]*bank.BehavioralProfile

	statsMu sync.Mutex
	stats   engineStats
}

type engineStats struct {
	analyzed      uint64
	flagged       uint64
	blocked       uint64
	fraudDetected uint64
}

// NewEngine creates a risk scoring engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		profiles: make(map[uuid.UUID]*bank.BehavioralProfile),
	}
}

// Analyze evaluates a transaction and returns a fraud score in [0,1] together
// with the risk factors that contributed to it. The transaction is read-only
// input; the engine never mutates it.
//
// When behavioral analysis is disabled, a fixed rule set runs instead and no
// factors are reported. Otherwise the engine prefers the profile it rebuilt
// itself for the user, falling back to the caller-supplied one.
func (e *Engine) Analyze(tx *bank.Transaction, profile *bank.BehavioralProfile) (float64, []Factor) {
	if !e.cfg.BehavioralAnalysis {
		return e.lightweightScore(tx), nil
	}

	e.mu.RLock()
	if own, ok := e.profiles[tx.UserID]; ok {
		profile = own
	}
	e.mu.RUnlock()
	if profile == nil {
		profile = &bank.BehavioralProfile{}
	}

	var factors []Factor
	total := 0.0

	if s := e.amountAnomaly(tx, profile); s > 0 {
		factors = append(factors, Factor{
			Type:        FactorAmountAnomaly,
			Score:       s,
			Description: fmt.Sprintf("transaction amount %.2f deviates from typical pattern", tx.Amount),
		})
		total += s * weightAmount
	}

	if s := e.timeAnomaly(tx, profile); s > 0 {
		factors = append(factors, Factor{
			Type:        FactorTimeAnomaly,
			Score:       s,
			Description: "transaction time unusual for user",
		})
		total += s * weightTime
	}

	if s := e.frequencyAnomaly(profile); s > 0 {
		factors = append(factors, Factor{
			Type:        FactorFrequencyAnomaly,
			Score:       s,
			Description: "unusual transaction frequency detected",
		})
		total += s * weightFrequency
	}

	if s := e.recipientAnomaly(tx, profile); s > 0 {
		factors = append(factors, Factor{
			Type:        FactorRecipientAnomaly,
			Score:       s,
			Description: "transaction to new or unusual recipient",
		})
		total += s * weightRecipient
	}

	// Limit proximity is a hard guard, not a behavioral signal: it moves the
	// score but is not reported as an explainable factor.
	total += e.limitProximity(tx) * weightLimit

	score := clamp01(total)

	e.statsMu.Lock()
	e.stats.analyzed++
	if score > e.cfg.MediumThreshold {
		e.stats.flagged++
	}
	if score > e.cfg.HighThreshold {
		e.stats.blocked++
	}
	e.statsMu.Unlock()

	return score, factors
}

// lightweightScore is the rule-based fallback for resource-constrained
// deployments: independent fixed increments, no profile lookups.
func (e *Engine) lightweightScore(tx *bank.Transaction) float64 {
	score := 0.0

	if tx.Amount > e.cfg.SingleTransactionLimit*0.8 {
		score += ruleLargeAmount
	}

	hour := tx.Timestamp.Hour()
	if hour >= 23 || hour <= 5 {
		score += ruleNightHour
	}

	// Round amounts at or above 1000 are a weak structuring signal.
	if tx.Amount >= 1000 && isMultipleOf(tx.Amount, 100) {
		score += ruleRoundAmount
	}

	return score
}

// amountAnomaly: deviation ratio between the current amount and the profile
// mean, in either direction. ratio>5 → 0.8, >3 → 0.6, >2 → 0.4.
func (e *Engine) amountAnomaly(tx *bank.Transaction, profile *bank.BehavioralProfile) float64 {
	typical := profile.TypicalAmount
	if typical == 0 {
		return 0 // no historical data
	}

	ratio := tx.Amount / typical
	if typical > tx.Amount {
		ratio = typical / tx.Amount
	}

	switch {
	case ratio > 5:
		return 0.8
	case ratio > 3:
		return 0.6
	case ratio > 2:
		return 0.4
	default:
		return 0
	}
}

// timeAnomaly: 0 when the hour is one of the user's typical hours, 0.2 when
// within 2 hours (circularly) of one, 0.5 otherwise.
func (e *Engine) timeAnomaly(tx *bank.Transaction, profile *bank.BehavioralProfile) float64 {
	if len(profile.TypicalHours) == 0 {
		return 0
	}

	hour := tx.Timestamp.Hour()
	for _, typical := range profile.TypicalHours {
		if hour == typical {
			return 0
		}
	}

	for _, typical := range profile.TypicalHours {
		if circularHourDistance(hour, typical) <= 2 {
			return 0.2
		}
	}
	return 0.5
}

// frequencyAnomaly: very active users (>10 tx/day) carry elevated baseline
// risk.
func (e *Engine) frequencyAnomaly(profile *bank.BehavioralProfile) float64 {
	if profile.UsageFrequency > 10 {
		return 0.3
	}
	return 0
}

// recipientAnomaly: 0.1 new-user grace when no recipients are known yet, 0 for
// a known recipient, 0.3 for an unknown one.
func (e *Engine) recipientAnomaly(tx *bank.Transaction, profile *bank.BehavioralProfile) float64 {
	if len(profile.CommonRecipients) == 0 {
		return 0.1
	}
	for _, r := range profile.CommonRecipients {
		if r == tx.Recipient {
			return 0
		}
	}
	return 0.3
}

// limitProximity: 1.0 over the single-transaction limit, 0.5 at 80% of it.
func (e *Engine) limitProximity(tx *bank.Transaction) float64 {
	switch {
	case tx.Amount > e.cfg.SingleTransactionLimit:
		return 1.0
	case tx.Amount >= e.cfg.SingleTransactionLimit*0.8:
		return 0.5
	default:
		return 0
	}
}

// Profile returns the engine-maintained behavioral profile for a user, or nil
// if none has been built yet. The returned value is a copy.
func (e *Engine) Profile(userID uuid.UUID) *bank.BehavioralProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.profiles[userID]
	if !ok {
		return nil
	}
	cp := *p
	cp.TypicalHours = append([]int(nil), p.TypicalHours...)
	cp.CommonRecipients = append([]string(nil), p.CommonRecipients...)
	return &cp
}

// MarkFraud records a confirmed fraud outcome for a transaction. The counter
// feeds monitoring only; scoring weights do not adapt.
func (e *Engine) MarkFraud(txID uuid.UUID) {
	e.statsMu.Lock()
	e.stats.fraudDetected++
	e.statsMu.Unlock()
}

// Stats returns the engine's process-lifetime counters.
func (e *Engine) Stats() map[string]float64 {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	stats := map[string]float64{
		"total_analyzed": float64(e.stats.analyzed),
		"flagged":        float64(e.stats.flagged),
		"blocked":        float64(e.stats.blocked),
		"fraud_detected": float64(e.stats.fraudDetected),
	}
	if e.stats.analyzed > 0 {
		stats["flag_rate_percent"] = float64(e.stats.flagged) / float64(e.stats.analyzed) * 100
		stats["block_rate_percent"] = float64(e.stats.blocked) / float64(e.stats.analyzed) * 100
	}
	return stats
}

// ResetStats zeroes all counters.
func (e *Engine) ResetStats() {
	e.statsMu.Lock()
	e.stats = engineStats{}
	e.statsMu.Unlock()
}

func circularHourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if 24-d < d {
		d = 24 - d
	}
	return d
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// isMultipleOf avoids math.Mod edge cases for negative or fractional amounts.
func isMultipleOf(amount, base float64) bool {
	if amount <= 0 {
		return false
	}
	q := amount / base
	return q == float64(int64(q))
}
