// Package store is the engine's durable state: account records, the
// violation audit trail, the read-only trade ledger and payout requests.
package store

import (
	"context"
	"errors"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

// ErrVersionConflict is returned when an optimistic-concurrency update loses
// the race: the caller's snapshot is stale and it must re-read before acting.
var ErrVersionConflict = errors.New("store: version conflict")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// AccountUpdate is the state write applied after one evaluate+enforce cycle.
// Version is the version the caller read; the write fails with
// ErrVersionConflict if another writer got there first.
type AccountUpdate struct {
	ID               string
	Status           types.AccountStatus
	CurrentEquity    float64
	CurrentBalance   float64
	StartOfDayEquity float64
	Version          int64
}

// AccountStore is durable account state plus the violation audit trail.
type AccountStore interface {
	// GetSweepAccounts returns accounts the sweep must look at: active ones
	// for evaluation plus breached ones awaiting enforcement confirmation.
	GetSweepAccounts(ctx context.Context) ([]types.Account, error)

	GetAccount(ctx context.Context, id string) (*types.Account, error)

	// UpdateAccountState applies one account's post-cycle state under an
	// optimistic version check.
	UpdateAccountState(ctx context.Context, upd AccountUpdate) error

	// InsertViolation appends one immutable violation row.
	InsertViolation(ctx context.Context, v *types.Violation) error

	// FinalizeViolationAction records what enforcement did for a breach.
	// The single permitted mutation of a violation row.
	FinalizeViolationAction(ctx context.Context, violationID string, action types.ViolationAction) error

	// OpenViolation returns the unfinalized violation for an account, if
	// any: how a resumed sweep recognizes interrupted enforcement.
	OpenViolation(ctx context.Context, accountID string) (*types.Violation, error)

	ListViolations(ctx context.Context, accountID string) ([]types.Violation, error)
}

// TradeLedger is the read-only closed-trade history.
type TradeLedger interface {
	// GetClosedWinningTrades returns closed trades with positive profit and
	// lots > 0, excluding deposit/adjustment pseudo-trades.
	GetClosedWinningTrades(ctx context.Context, accountID string) ([]types.Trade, error)
}

// PayoutStore reads prior payout requests and records authorized ones.
type PayoutStore interface {
	// ListPriorRequests returns all non-rejected requests linked to the
	// account. Rejected requests release their claim.
	ListPriorRequests(ctx context.Context, accountID string) ([]types.PayoutRequest, error)

	InsertPayoutRequest(ctx context.Context, req *types.PayoutRequest) error

	// ListPayoutEligibleAccounts returns active funded accounts for the
	// balance summary endpoint.
	ListPayoutEligibleAccounts(ctx context.Context) ([]types.Account, error)
}

// RiskConfigStore reads per-group risk policy. Read-only to the engine.
type RiskConfigStore interface {
	// GetRiskRuleConfig returns the policy for a risk group, or ErrNotFound.
	// A missing config is never silently defaulted.
	GetRiskRuleConfig(ctx context.Context, group string) (*types.RiskRuleConfig, error)
}

// SystemLogger records loud operational events into the store so the admin
// surface can show them alongside account history.
type SystemLogger interface {
	InsertSystemLog(ctx context.Context, level, message string) error
}

// Store is the full persistence surface the engine wires once in main.
type Store interface {
	AccountStore
	TradeLedger
	PayoutStore
	RiskConfigStore
	SystemLogger
	Close() error
}
