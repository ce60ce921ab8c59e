package types

import "time"

// AccountStatus is the lifecycle state of a funded account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusBreached AccountStatus = "breached"
	StatusDisabled AccountStatus = "disabled"
	StatusPassed   AccountStatus = "passed"
	StatusFailed   AccountStatus = "failed"
)

// IsTerminal reports whether the account can no longer transition.
// Disabled, passed and failed accounts are never re-evaluated for risk.
func (s AccountStatus) IsTerminal() bool {
	return s == StatusDisabled || s == StatusPassed || s == StatusFailed
}

// AccountClass groups accounts by product type. The class drives which
// risk group config applies and whether the account is payout-eligible.
type AccountClass string

const (
	ClassEvaluationPhase1 AccountClass = "evaluation_phase1"
	ClassEvaluationPhase2 AccountClass = "evaluation_phase2"
	ClassInstantFunded    AccountClass = "instant_funded"
	ClassLiveFunded       AccountClass = "live_funded"
	ClassCompetition      AccountClass = "competition"
)

// PayoutEligible reports whether this account class can request payouts.
// Evaluation-phase and competition accounts collect profit targets, not payouts.
func (c AccountClass) PayoutEligible() bool {
	return c == ClassInstantFunded || c == ClassLiveFunded
}

// Account is one simulated trading account. Equity and balance fields are
// only ever overwritten from a fresh bridge read; the engine never derives them.
type Account struct {
	ID                  string
	Login               int64
	Status              AccountStatus
	Class               AccountClass
	RiskGroup           string
	InitialBalance      float64
	CurrentBalance      float64
	CurrentEquity       float64
	StartOfDayEquity    float64
	DailyLimitPercent   float64
	TotalLimitPercent   float64
	ProfitTargetPercent float64
	Version             int64
	SODResetAt          time.Time
	UpdatedAt           time.Time
}
