package risk

import (
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// Verdict is the breach evaluator's decision for one account on one tick.
type Verdict struct {
	Limits Limits

	// NextStatus is the status the account should be committed to before
	// any enforcement is attempted. Equal to the current status when no
	// transition applies.
	NextStatus types.AccountStatus

	// NewBreach is true when this tick detected the breach: exactly one
	// Violation row is written when this is set.
	NewBreach bool

	// RetryEnforcement is true when the account was already breached but
	// enforcement has not confirmed yet (crash or bridge failure on an
	// earlier tick). No new Violation is written.
	RetryEnforcement bool

	Kind types.ViolationKind
}

// Evaluate runs the breach state machine for one account against a fresh,
// already-plausibility-checked equity sample. Pure function: same inputs
// always produce the same verdict.
//
//	active   -> active    equity >= effective floor
//	active   -> breached  equity <  effective floor (violation + enforcement)
//	breached -> breached  enforcement still pending, retry
//	terminal -> terminal  no-op
func Evaluate(acct *types.Account, cfg types.RiskRuleConfig, equity float64) Verdict {
	limits := CalculateLimits(acct, cfg)
	v := Verdict{
		Limits:     limits,
		NextStatus: acct.Status,
		Kind:       limits.Binding,
	}

	if acct.Status.IsTerminal() {
		return v
	}

	if acct.Status == types.StatusBreached {
		// Decision was already committed; only the external action is
		// outstanding. Never re-evaluate (equity may have recovered after
		// positions moved, the breach stands).
		v.RetryEnforcement = true
		return v
	}

	if acct.Status != types.StatusActive {
		// Unknown status for this evaluator; leave untouched.
		return v
	}

	if equity >= limits.EffectiveFloor {
		return v
	}

	v.NextStatus = types.StatusBreached
	v.NewBreach = true
	return v
}
