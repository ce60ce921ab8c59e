// Package payout gates payout requests: the consistency rule over the trade
// ledger and the profit-split eligibility ceiling.
package payout

import (
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// ConsistencyResult is the verdict of the single-trade concentration check.
type ConsistencyResult struct {
	Passed      bool
	TotalProfit float64

	// Offending trade details, populated when Passed is false so the denial
	// can name the trade and its share.
	OffendingTicket int64
	OffendingShare  float64
	MaxWinPercent   float64
}

// EvaluateConsistency checks whether any single winning trade accounts for
// more than maxSingleWinPercent of the account's total trade profit. Pure
// function over closed winning trades (profit_loss > 0, lots > 0); zero
// winners or non-positive total profit passes vacuously.
func EvaluateConsistency(trades []types.Trade, maxSingleWinPercent float64) ConsistencyResult {
	result := ConsistencyResult{Passed: true, MaxWinPercent: maxSingleWinPercent}

	total := 0.0
	for _, t := range trades {
		if t.ProfitLoss <= 0 || t.Lots <= 0 {
			continue
		}
		total += t.ProfitLoss
	}
	result.TotalProfit = total

	if total <= 0 {
		return result
	}

	for _, t := range trades {
		if t.ProfitLoss <= 0 || t.Lots <= 0 {
			continue
		}
		share := t.ProfitLoss / total * 100
		if share > maxSingleWinPercent {
			result.Passed = false
			result.OffendingTicket = t.Ticket
			result.OffendingShare = share
			return result
		}
	}
	return result
}
