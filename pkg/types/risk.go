package types

import "time"

// RiskRuleConfig is the per-group risk policy. Owned by an external
// configuration store; the engine reads it and never writes it back.
type RiskRuleConfig struct {
	GroupName           string
	DailyLimitPercent   float64
	TotalLimitPercent   float64
	MaxSingleWinPercent float64
	ConsistencyEnabled  bool
	ProfitSplitPercent  float64
}

// ViolationKind tags which drawdown constraint was binding at detection.
type ViolationKind string

const (
	ViolationDaily ViolationKind = "daily_breach"
	ViolationTotal ViolationKind = "total_breach"
)

// ViolationAction records what enforcement did about a violation.
type ViolationAction string

const (
	ActionNone       ViolationAction = "none"
	ActionDisabled   ViolationAction = "disabled"
	ActionStoppedOut ViolationAction = "stopped_out"
)

// Violation is an immutable audit record of a breach event. One row per
// breach; the only mutation ever applied is finalizing ActionTaken once
// enforcement confirms.
type Violation struct {
	ID                string
	AccountID         string
	DetectedAt        time.Time
	Kind              ViolationKind
	EquityAtDetection float64
	LimitAtDetection  float64
	ActionTaken       ViolationAction
}

// Trade is a closed trade from the external ledger, read-only to the engine.
// Lots == 0 marks balance-adjustment pseudo-trades which are excluded from
// consistency evaluation.
type Trade struct {
	AccountID  string
	Ticket     int64
	ProfitLoss float64
	Lots       float64
	CloseTime  time.Time
}

// PayoutStatus is the lifecycle of a payout request. The engine only reads
// prior requests and inserts new pending ones; approval is external.
type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutApproved  PayoutStatus = "approved"
	PayoutRejected  PayoutStatus = "rejected"
	PayoutProcessed PayoutStatus = "processed"
)

// PayoutRequest links a requested amount to the account it draws from.
type PayoutRequest struct {
	ID        string
	AccountID string
	Amount    float64
	Status    PayoutStatus
	CreatedAt time.Time
}
