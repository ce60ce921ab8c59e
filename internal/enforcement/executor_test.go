package enforcement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkfunded/risk-engine/internal/bridge"
	"github.com/sharkfunded/risk-engine/internal/engineerr"
	"github.com/sharkfunded/risk-engine/internal/logger"
	"github.com/sharkfunded/risk-engine/internal/store"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

type fakeBridge struct {
	disableErrs []error
	stopOutErrs []error

	disableCalls int
	stopOutCalls int
}

func (f *fakeBridge) DisableAccount(context.Context, int64) error {
	f.disableCalls++
	if f.disableCalls <= len(f.disableErrs) {
		return f.disableErrs[f.disableCalls-1]
	}
	return nil
}

func (f *fakeBridge) StopOutAccount(context.Context, int64) (*bridge.StopOutResult, error) {
	f.stopOutCalls++
	if f.stopOutCalls <= len(f.stopOutErrs) {
		return nil, f.stopOutErrs[f.stopOutCalls-1]
	}
	return &bridge.StopOutResult{PositionsClosed: 2}, nil
}

type fakeEnforceStore struct {
	updates    []store.AccountUpdate
	finalized  []types.ViolationAction
	systemLogs []string
}

func (f *fakeEnforceStore) UpdateAccountState(_ context.Context, upd store.AccountUpdate) error {
	f.updates = append(f.updates, upd)
	return nil
}

func (f *fakeEnforceStore) FinalizeViolationAction(_ context.Context, _ string, action types.ViolationAction) error {
	f.finalized = append(f.finalized, action)
	return nil
}

func (f *fakeEnforceStore) InsertSystemLog(_ context.Context, _, message string) error {
	f.systemLogs = append(f.systemLogs, message)
	return nil
}

func breachedAccount() *types.Account {
	return &types.Account{
		ID:               "acct-1",
		Login:            565929,
		Status:           types.StatusBreached,
		InitialBalance:   5000,
		CurrentEquity:    4740,
		CurrentBalance:   4740,
		StartOfDayEquity: 5000,
		Version:          3,
	}
}

func newTestExecutor(t *testing.T, b Bridge, s Store, retries int) *Executor {
	t.Helper()
	log, err := logger.NewLogger("enforce-test", t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	e := NewExecutor(b, s, log, retries)
	e.retryDelay = 0
	return e
}

// TestEnforce_ConfirmsAndFinalizes runs the happy path: one command pair, the
// violation finalized as stopped_out, the account committed disabled.
func TestEnforce_ConfirmsAndFinalizes(t *testing.T) {
	b := &fakeBridge{}
	s := &fakeEnforceStore{}
	e := newTestExecutor(t, b, s, 3)

	out, err := e.Enforce(context.Background(), breachedAccount(), "vio-1")

	require.NoError(t, err)
	assert.True(t, out.Confirmed)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, b.disableCalls)
	assert.Equal(t, 1, b.stopOutCalls)

	require.Len(t, s.finalized, 1)
	assert.Equal(t, types.ActionStoppedOut, s.finalized[0])
	require.Len(t, s.updates, 1)
	assert.Equal(t, types.StatusDisabled, s.updates[0].Status)
	assert.Equal(t, int64(3), s.updates[0].Version)
}

// TestEnforce_RetriesTransientFailures confirms on the third attempt after
// two retryable bridge errors.
func TestEnforce_RetriesTransientFailures(t *testing.T) {
	transient := engineerr.NewBridgeError("bridge", "disable_account",
		errors.New("connection reset by peer"))
	b := &fakeBridge{disableErrs: []error{transient, transient}}
	s := &fakeEnforceStore{}
	e := newTestExecutor(t, b, s, 3)

	out, err := e.Enforce(context.Background(), breachedAccount(), "vio-1")

	require.NoError(t, err)
	assert.True(t, out.Confirmed)
	assert.Equal(t, 3, out.Attempts)
}

// TestEnforce_RetryCapExhausted stops after the per-tick cap, raises a system
// log alert and leaves the account breached for the next tick.
func TestEnforce_RetryCapExhausted(t *testing.T) {
	transient := engineerr.NewBridgeError("bridge", "disable_account",
		errors.New("request timeout"))
	b := &fakeBridge{disableErrs: []error{transient, transient, transient, transient}}
	s := &fakeEnforceStore{}
	e := newTestExecutor(t, b, s, 3)

	out, err := e.Enforce(context.Background(), breachedAccount(), "vio-1")

	require.Error(t, err)
	assert.False(t, out.Confirmed)
	assert.Equal(t, 3, out.Attempts)
	assert.Empty(t, s.updates, "account must stay breached")
	assert.Empty(t, s.finalized)
	require.Len(t, s.systemLogs, 1)
	assert.Contains(t, s.systemLogs[0], "enforcement exhausted")
}

// TestEnforce_NonRetryableStopsEarly gives up immediately on an error marked
// non-retryable instead of burning the remaining attempts.
func TestEnforce_NonRetryableStopsEarly(t *testing.T) {
	fatal := engineerr.NewBridgeError("bridge", "disable_account",
		errors.New("invalid login")).WithRetryable(false)
	b := &fakeBridge{disableErrs: []error{fatal, fatal, fatal}}
	s := &fakeEnforceStore{}
	e := newTestExecutor(t, b, s, 3)

	out, err := e.Enforce(context.Background(), breachedAccount(), "vio-1")

	require.Error(t, err)
	assert.False(t, out.Confirmed)
	assert.Equal(t, 1, out.Attempts)
}

// TestEnforce_StopOutFailureRetriesWholePair re-issues both commands when the
// stop-out half fails; the pair is idempotent so the extra disable is safe.
func TestEnforce_StopOutFailureRetriesWholePair(t *testing.T) {
	transient := engineerr.NewBridgeError("bridge", "stop_out",
		errors.New("request timeout"))
	b := &fakeBridge{stopOutErrs: []error{transient}}
	s := &fakeEnforceStore{}
	e := newTestExecutor(t, b, s, 3)

	out, err := e.Enforce(context.Background(), breachedAccount(), "vio-1")

	require.NoError(t, err)
	assert.True(t, out.Confirmed)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 2, b.disableCalls)
	assert.Equal(t, 2, b.stopOutCalls)
}

// TestEnforce_RequiresCommittedBreach refuses to command the bridge for an
// account whose breach decision was never committed.
func TestEnforce_RequiresCommittedBreach(t *testing.T) {
	b := &fakeBridge{}
	e := newTestExecutor(t, b, &fakeEnforceStore{}, 3)
	acct := breachedAccount()
	acct.Status = types.StatusActive

	out, err := e.Enforce(context.Background(), acct, "vio-1")

	require.Error(t, err)
	var ee *engineerr.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, engineerr.CategoryInvariant, ee.Category)
	assert.False(t, ee.IsRetryable())
	assert.False(t, out.Confirmed)
	assert.Zero(t, b.disableCalls)
	assert.Zero(t, b.stopOutCalls)
}

// TestEnforce_ContextCancelledAborts returns promptly when the sweep context
// is cancelled mid-retry.
func TestEnforce_ContextCancelledAborts(t *testing.T) {
	transient := engineerr.NewBridgeError("bridge", "disable_account",
		errors.New("request timeout"))
	b := &fakeBridge{disableErrs: []error{transient, transient, transient}}
	e := newTestExecutor(t, b, &fakeEnforceStore{}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Enforce(ctx, breachedAccount(), "vio-1")

	assert.ErrorIs(t, err, context.Canceled)
}
