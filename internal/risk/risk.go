// Package risk implements transaction fraud scoring against per-user
// behavioral profiles.
//
// Every transaction is evaluated against 5 weighted factors: amount anomaly,
// time-of-day anomaly, frequency anomaly, recipient novelty, and proximity to
// the single-transaction limit. Scores range from 0.0 (safe) to 1.0 (high
// risk). The caller maps scores to transaction statuses via configured
// thresholds; the engine itself only scores and explains.
package risk

// Factor weights for full behavioral analysis.
const (
	weightAmount    = 0.30
	weightTime      = 0.20
	weightFrequency = 0.25
	weightRecipient = 0.15
	weightLimit     = 0.10
)

// Lightweight-mode rule increments. The documented rule set sums to 0.7, so
// lightweight scores stay inside [0,1] without clamping.
const (
	ruleLargeAmount = 0.4
	ruleNightHour   = 0.2
	ruleRoundAmount = 0.1
)

// FactorType identifies which behavioral signal a risk factor came from.
type FactorType string

const (
	FactorAmountAnomaly    FactorType = "amount_anomaly"
	FactorTimeAnomaly      FactorType = "time_anomaly"
	FactorFrequencyAnomaly FactorType = "frequency_anomaly"
	FactorRecipientAnomaly FactorType = "recipient_anomaly"
)

// Factor is one explainable unit of an overall fraud score.
type Factor struct {
	Type        FactorType `json:"factorType"`
	Score       float64    `json:"score"`
	Description string     `json:"description"`
}

// Config carries the scoring parameters the engine needs. It is a subset of
// the application configuration so the engine stays decoupled from env
// loading.
type Config struct {
	SingleTransactionLimit float64
	MediumThreshold        float64 // scores above this count as flagged
	HighThreshold          float64 // scores above this count as blocked
	BehavioralAnalysis     bool    // false selects lightweight rule-based mode
}
