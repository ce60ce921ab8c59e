package risk

import (
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// Limits is the output of the limit calculation for one account at one
// instant. EffectiveFloor is the tighter (higher) of the two floors and is
// the only number breach detection compares equity against.
type Limits struct {
	DailyFloor     float64
	TotalFloor     float64
	EffectiveFloor float64
	Binding        types.ViolationKind
}

// CalculateLimits computes the daily and total equity floors for an account
// under its risk group config. Pure function, no I/O.
//
// The daily floor is anchored to start-of-day equity; on the first trading
// day (SOD unset) it falls back to the initial balance. The total floor is
// always anchored to the initial balance, the lifetime cap. Whichever floor
// is higher governs: a large intraday loss is not excused by lifetime room,
// and vice versa.
func CalculateLimits(acct *types.Account, cfg types.RiskRuleConfig) Limits {
	sod := acct.StartOfDayEquity
	if sod <= 0 {
		sod = acct.InitialBalance
	}

	dailyFloor := sod * (1 - cfg.DailyLimitPercent/100)
	totalFloor := acct.InitialBalance * (1 - cfg.TotalLimitPercent/100)

	// Malformed inputs clamp to zero, never to a negative floor that could
	// never trigger.
	if dailyFloor < 0 {
		dailyFloor = 0
	}
	if totalFloor < 0 {
		totalFloor = 0
	}

	l := Limits{
		DailyFloor: dailyFloor,
		TotalFloor: totalFloor,
	}

	// Daily wins ties so that an account breaching both floors at once is
	// tagged with the constraint that actually bound first intraday.
	if dailyFloor >= totalFloor {
		l.EffectiveFloor = dailyFloor
		l.Binding = types.ViolationDaily
	} else {
		l.EffectiveFloor = totalFloor
		l.Binding = types.ViolationTotal
	}
	return l
}
