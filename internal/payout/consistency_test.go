package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

func winners(profits ...float64) []types.Trade {
	trades := make([]types.Trade, 0, len(profits))
	for i, p := range profits {
		trades = append(trades, types.Trade{
			AccountID:  "acct-1",
			Ticket:     int64(1000 + i),
			ProfitLoss: p,
			Lots:       0.5,
		})
	}
	return trades
}

// TestEvaluateConsistency_SingleOversizedWin fails the rule when one trade
// carries 60% of total profit against a 50% cap, and names the trade.
func TestEvaluateConsistency_SingleOversizedWin(t *testing.T) {
	r := EvaluateConsistency(winners(100, 100, 300), 50)

	assert.False(t, r.Passed)
	assert.InDelta(t, 500.0, r.TotalProfit, 1e-9)
	assert.Equal(t, int64(1002), r.OffendingTicket)
	assert.InDelta(t, 60.0, r.OffendingShare, 1e-9)
}

// TestEvaluateConsistency_EvenDistribution passes when no trade exceeds the
// cap.
func TestEvaluateConsistency_EvenDistribution(t *testing.T) {
	r := EvaluateConsistency(winners(100, 120, 110, 90), 50)

	assert.True(t, r.Passed)
	assert.InDelta(t, 420.0, r.TotalProfit, 1e-9)
	assert.Zero(t, r.OffendingTicket)
}

// TestEvaluateConsistency_ShareAtCapPasses verifies the comparison is strict:
// exactly the cap share is allowed. Two equal trades at a 50% cap pass.
func TestEvaluateConsistency_ShareAtCapPasses(t *testing.T) {
	r := EvaluateConsistency(winners(250, 250), 50)

	assert.True(t, r.Passed)
}

// TestEvaluateConsistency_NoWinnersPassesVacuously verifies an empty or
// all-losing ledger passes.
func TestEvaluateConsistency_NoWinnersPassesVacuously(t *testing.T) {
	assert.True(t, EvaluateConsistency(nil, 50).Passed)

	losing := []types.Trade{
		{Ticket: 1, ProfitLoss: -120, Lots: 1},
		{Ticket: 2, ProfitLoss: -40, Lots: 0.2},
	}
	r := EvaluateConsistency(losing, 50)
	assert.True(t, r.Passed)
	assert.Zero(t, r.TotalProfit)
}

// TestEvaluateConsistency_IgnoresZeroLotRows excludes balance adjustments and
// other zero-lot ledger rows from both the total and the per-trade check.
func TestEvaluateConsistency_IgnoresZeroLotRows(t *testing.T) {
	trades := winners(100, 100)
	trades = append(trades, types.Trade{Ticket: 9999, ProfitLoss: 5000, Lots: 0})

	r := EvaluateConsistency(trades, 50)

	assert.True(t, r.Passed)
	assert.InDelta(t, 200.0, r.TotalProfit, 1e-9)
}
