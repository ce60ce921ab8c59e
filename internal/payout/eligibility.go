package payout

import (
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// Eligibility is the payout ceiling for one account at one instant.
type Eligibility struct {
	Profit           float64
	MaxPayout        float64
	AlreadyRequested float64
	Available        float64
}

// CalculateEligibility computes the authorizable ceiling: the profit split
// applied to positive profit, minus everything already claimed by
// non-rejected prior requests on this account. Available is clamped to
// [0, MaxPayout]. Pure function.
func CalculateEligibility(acct *types.Account, splitPercent float64, prior []types.PayoutRequest) Eligibility {
	e := Eligibility{
		Profit: acct.CurrentBalance - acct.InitialBalance,
	}

	if e.Profit > 0 {
		e.MaxPayout = e.Profit * splitPercent / 100
	}

	for _, p := range prior {
		if p.Status == types.PayoutRejected {
			continue
		}
		e.AlreadyRequested += p.Amount
	}

	e.Available = e.MaxPayout - e.AlreadyRequested
	if e.Available < 0 {
		e.Available = 0
	}
	if e.Available > e.MaxPayout {
		e.Available = e.MaxPayout
	}
	return e
}
