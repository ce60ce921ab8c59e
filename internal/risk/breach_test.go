package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

// TestEvaluate_ActiveAboveFloor leaves a healthy account untouched.
func TestEvaluate_ActiveAboveFloor(t *testing.T) {
	v := Evaluate(account(5000, 5000), rules(5, 10), 4800)

	assert.Equal(t, types.StatusActive, v.NextStatus)
	assert.False(t, v.NewBreach)
	assert.False(t, v.RetryEnforcement)
}

// TestEvaluate_DailyBreach drops equity to 4740 against a 4750 daily floor.
func TestEvaluate_DailyBreach(t *testing.T) {
	v := Evaluate(account(5000, 5000), rules(5, 10), 4740)

	assert.Equal(t, types.StatusBreached, v.NextStatus)
	assert.True(t, v.NewBreach)
	assert.Equal(t, types.ViolationDaily, v.Kind)
	assert.InDelta(t, 4750.0, v.Limits.EffectiveFloor, 1e-9)
}

// TestEvaluate_DeepLossStillDaily checks that 4600, below both floors, is
// still tagged as the daily breach since the daily floor governs.
func TestEvaluate_DeepLossStillDaily(t *testing.T) {
	v := Evaluate(account(5000, 5000), rules(5, 10), 4600)

	assert.True(t, v.NewBreach)
	assert.Equal(t, types.ViolationDaily, v.Kind)
}

// TestEvaluate_TotalBreach tags the lifetime floor when it governs.
func TestEvaluate_TotalBreach(t *testing.T) {
	v := Evaluate(account(5000, 4600), rules(5, 10), 4450)

	assert.True(t, v.NewBreach)
	assert.Equal(t, types.ViolationTotal, v.Kind)
	assert.InDelta(t, 4500.0, v.Limits.EffectiveFloor, 1e-9)
}

// TestEvaluate_ExactlyAtFloorIsSafe verifies the comparison is strict: equity
// equal to the floor does not breach.
func TestEvaluate_ExactlyAtFloorIsSafe(t *testing.T) {
	v := Evaluate(account(5000, 5000), rules(5, 10), 4750)

	assert.False(t, v.NewBreach)
	assert.Equal(t, types.StatusActive, v.NextStatus)
}

// TestEvaluate_BreachedRetriesEnforcementOnly verifies an already-breached
// account never re-evaluates, even when equity has recovered above the floor.
func TestEvaluate_BreachedRetriesEnforcementOnly(t *testing.T) {
	a := account(5000, 5000)
	a.Status = types.StatusBreached

	v := Evaluate(a, rules(5, 10), 5200)

	assert.Equal(t, types.StatusBreached, v.NextStatus)
	assert.False(t, v.NewBreach)
	assert.True(t, v.RetryEnforcement)
}

// TestEvaluate_TerminalStatesAreNoOps verifies disabled, passed and failed
// accounts can never breach again.
func TestEvaluate_TerminalStatesAreNoOps(t *testing.T) {
	for _, status := range []types.AccountStatus{
		types.StatusDisabled, types.StatusPassed, types.StatusFailed,
	} {
		a := account(5000, 5000)
		a.Status = status

		v := Evaluate(a, rules(5, 10), 1)

		assert.Equal(t, status, v.NextStatus, "status %s", status)
		assert.False(t, v.NewBreach)
		assert.False(t, v.RetryEnforcement)
	}
}
