package safety

import (
	"fmt"
	"math"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

// ValidationResult represents the result of a validation check
type ValidationResult struct {
	Valid   bool
	Message string
	Code    string
}

// Validator checks upstream records at the ingestion boundary so malformed
// bridge or ledger data fails fast instead of propagating into breach math.
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEquitySample validates a bridge equity/balance pair for a login.
func (v *Validator) ValidateEquitySample(login int64, equity, balance float64) ValidationResult {
	for name, val := range map[string]float64{"equity": equity, "balance": balance} {
		if math.IsNaN(val) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("login %d: %s is NaN", login, name),
				Code:    "SAMPLE_NAN",
			}
		}
		if math.IsInf(val, 0) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("login %d: %s is infinite", login, name),
				Code:    "SAMPLE_INF",
			}
		}
		if val < 0 {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("login %d: %s %.2f is negative", login, name, val),
				Code:    "SAMPLE_NEGATIVE",
			}
		}
		if val > 1e12 {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("login %d: %s %.2f exceeds reasonable bounds", login, name, val),
				Code:    "SAMPLE_OUT_OF_BOUNDS",
			}
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateAccount validates an account record before it enters the sweep.
func (v *Validator) ValidateAccount(acct *types.Account) ValidationResult {
	if acct.Login <= 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("account %s: login %d is not a valid broker login", acct.ID, acct.Login),
			Code:    "ACCOUNT_BAD_LOGIN",
		}
	}
	if acct.InitialBalance <= 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("account %s: initial balance %.2f must be positive", acct.ID, acct.InitialBalance),
			Code:    "ACCOUNT_BAD_INITIAL",
		}
	}
	if math.IsNaN(acct.CurrentEquity) || math.IsNaN(acct.StartOfDayEquity) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("account %s: NaN equity fields", acct.ID),
			Code:    "ACCOUNT_NAN",
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateTrade validates a ledger trade before consistency evaluation.
func (v *Validator) ValidateTrade(t *types.Trade) ValidationResult {
	if math.IsNaN(t.ProfitLoss) || math.IsInf(t.ProfitLoss, 0) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("trade %d: profit/loss is not finite", t.Ticket),
			Code:    "TRADE_BAD_PL",
		}
	}
	if t.Lots < 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("trade %d: negative lots %.2f", t.Ticket, t.Lots),
			Code:    "TRADE_BAD_LOTS",
		}
	}
	return ValidationResult{Valid: true}
}
