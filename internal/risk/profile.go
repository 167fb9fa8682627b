package risk

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pixelatedseraph/safebank/internal/bank"
)

const (
	maxTypicalHours     = 3
	maxCommonRecipients = 5
)

// RebuildProfile recomputes a user's behavioral profile from a finite,
// time-ordered transaction sample and replaces any previously built profile.
// An empty history is a no-op: there is no meaningful profile to derive.
//
// Ranking ties are broken deterministically so rebuilding from the same
// sample always yields the same profile: equal-count hours prefer the lower
// hour, equal-count recipients prefer the one seen first.
func (e *Engine) RebuildProfile(userID uuid.UUID, history []bank.Transaction) {
	if len(history) == 0 {
		return
	}

	profile := &bank.BehavioralProfile{}

	var totalAmount float64
	for _, tx := range history {
		totalAmount += tx.Amount
	}
	profile.TypicalAmount = totalAmount / float64(len(history))

	profile.TypicalHours = topHours(history, maxTypicalHours)
	profile.CommonRecipients = topRecipients(history, maxCommonRecipients)

	// Transactions per day across the sampled span, never dividing by less
	// than a day.
	first, last := history[0].Timestamp, history[len(history)-1].Timestamp
	if last.Before(first) {
		first, last = last, first
	}
	days := last.Sub(first).Hours() / 24
	if days < 1 {
		days = 1
	}
	profile.UsageFrequency = float64(len(history)) / days

	e.mu.Lock()
	e.profiles[userID] = profile
	e.mu.Unlock()
}

func topHours(history []bank.Transaction, n int) []int {
	counts := make(map[int]int)
	for _, tx := range history {
		counts[tx.Timestamp.Hour()]++
	}

	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})

	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}

func topRecipients(history []bank.Transaction, n int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, tx := range history {
		if _, ok := counts[tx.Recipient]; !ok {
			firstSeen[tx.Recipient] = i
		}
		counts[tx.Recipient]++
	}

	recipients := make([]string, 0, len(counts))
	for r := range counts {
		recipients = append(recipients, r)
	}
	sort.Slice(recipients, func(i, j int) bool {
		if counts[recipients[i]] != counts[recipients[j]] {
			return counts[recipients[i]] > counts[recipients[j]]
		}
		return firstSeen[recipients[i]] < firstSeen[recipients[j]]
	})

	if len(recipients) > n {
		recipients = recipients[:n]
	}
	return recipients
}
