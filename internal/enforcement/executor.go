// Package enforcement turns committed breach decisions into confirmed
// external actions: trading disabled and all positions closed on the bridge.
package enforcement

import (
	"context"
	"fmt"
	"time"

	"github.com/sharkfunded/risk-engine/internal/bridge"
	"github.com/sharkfunded/risk-engine/internal/engineerr"
	"github.com/sharkfunded/risk-engine/internal/logger"
	"github.com/sharkfunded/risk-engine/internal/store"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// Bridge is the slice of the bridge client the executor needs.
type Bridge interface {
	DisableAccount(ctx context.Context, login int64) error
	StopOutAccount(ctx context.Context, login int64) (*bridge.StopOutResult, error)
}

// Store is the slice of the account store the executor needs.
type Store interface {
	UpdateAccountState(ctx context.Context, upd store.AccountUpdate) error
	FinalizeViolationAction(ctx context.Context, violationID string, action types.ViolationAction) error
	InsertSystemLog(ctx context.Context, level, message string) error
}

// Outcome reports what one enforcement cycle achieved.
type Outcome struct {
	Confirmed bool
	Attempts  int
}

// Executor owns the breached -> disabled transition. It issues the
// disable + stop-out pair, and only after the bridge confirms does it
// finalize the violation and the account state. Failures leave the account
// breached for the next tick; attempts within one tick are capped so a dead
// bridge cannot turn the sweep into a retry storm.
type Executor struct {
	bridge            Bridge
	store             Store
	log               *logger.Logger
	maxRetriesPerTick int
	retryDelay        time.Duration
}

// NewExecutor creates an executor with the given per-tick retry cap.
func NewExecutor(b Bridge, s Store, log *logger.Logger, maxRetriesPerTick int) *Executor {
	if maxRetriesPerTick <= 0 {
		maxRetriesPerTick = 3
	}
	return &Executor{
		bridge:            b,
		store:             s,
		log:               log,
		maxRetriesPerTick: maxRetriesPerTick,
		retryDelay:        500 * time.Millisecond,
	}
}

// Enforce runs one enforcement cycle for a breached account. The account
// must already be committed as breached with violationID its open violation.
// Exactly one disable + stop-out pair reaches the bridge per breach event
// that confirms; retries re-issue the same idempotent pair.
func (e *Executor) Enforce(ctx context.Context, acct *types.Account, violationID string) (Outcome, error) {
	if acct.Status != types.StatusBreached {
		return Outcome{}, engineerr.NewInvariantError("enforcement", "enforce",
			fmt.Sprintf("account %s is %s, enforcement requires a committed breach", acct.ID, acct.Status))
	}

	var out Outcome
	var lastErr error

	for out.Attempts < e.maxRetriesPerTick {
		out.Attempts++

		if err := e.commandPair(ctx, acct.Login); err != nil {
			lastErr = err
			e.log.Warning("enforcement attempt %d/%d failed for login %d: %v",
				out.Attempts, e.maxRetriesPerTick, acct.Login, err)

			if ee, ok := err.(*engineerr.EngineError); ok && !ee.IsRetryable() {
				break
			}
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(e.retryDelay):
			}
			continue
		}

		// Bridge confirmed. Commit the terminal state before reporting
		// success; if these writes fail the account stays breached and the
		// next tick finalizes without re-commanding harm (pair is idempotent).
		if err := e.store.FinalizeViolationAction(ctx, violationID, types.ActionStoppedOut); err != nil && err != store.ErrNotFound {
			return out, engineerr.NewStoreError("enforcement", "finalize_violation", err)
		}

		if err := e.store.UpdateAccountState(ctx, store.AccountUpdate{
			ID:               acct.ID,
			Status:           types.StatusDisabled,
			CurrentEquity:    acct.CurrentEquity,
			CurrentBalance:   acct.CurrentBalance,
			StartOfDayEquity: acct.StartOfDayEquity,
			Version:          acct.Version,
		}); err != nil {
			return out, engineerr.NewStoreError("enforcement", "disable_account_state", err)
		}

		out.Confirmed = true
		e.log.Breach("login %d disabled and stopped out (attempt %d)", acct.Login, out.Attempts)
		return out, nil
	}

	// Retry budget for this tick is spent. Loud alert: a breached account
	// that cannot be enforced is live risk until the next tick succeeds.
	msg := fmt.Sprintf("enforcement exhausted %d attempts for login %d this tick: %v",
		out.Attempts, acct.Login, lastErr)
	e.log.Alert("%s", msg)
	if err := e.store.InsertSystemLog(ctx, "alert", msg); err != nil {
		e.log.Error("record system log: %v", err)
	}
	return out, lastErr
}

// commandPair issues the disable + stop-out pair. Both commands are
// idempotent on the bridge: "already disabled" answers count as success.
func (e *Executor) commandPair(ctx context.Context, login int64) error {
	if err := e.bridge.DisableAccount(ctx, login); err != nil {
		return err
	}
	res, err := e.bridge.StopOutAccount(ctx, login)
	if err != nil {
		return err
	}
	if res.PositionsClosed > 0 || res.OrdersClosed > 0 {
		e.log.Breach("login %d stop-out closed %d positions, %d orders",
			login, res.PositionsClosed, res.OrdersClosed)
	}
	return nil
}
