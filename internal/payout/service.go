package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sharkfunded/risk-engine/internal/logger"
	"github.com/sharkfunded/risk-engine/internal/store"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// Denial reasons are specific by contract: the caller always learns which
// gate failed, never a generic rejection.
const (
	ReasonAccountNotFound     = "account not found"
	ReasonNotEligible         = "account is not eligible for payout"
	ReasonNoProfit            = "account has no profit available"
	ReasonExceedsAvailable    = "requested amount exceeds available profit share"
	ReasonConsistencyViolated = "consistency rule violation"
	ReasonKYCNotVerified      = "identity verification (KYC) is not approved"
	ReasonInvalidAmount       = "requested amount must be positive"
	ReasonConfigMissing       = "risk configuration missing for account group"
)

// KYCChecker is the external identity-verification gate. The platform's KYC
// service plugs in here; the engine only consumes the yes/no answer.
type KYCChecker interface {
	KYCApproved(ctx context.Context, accountID string) (bool, error)
}

// KYCFunc adapts a function to KYCChecker.
type KYCFunc func(ctx context.Context, accountID string) (bool, error)

// KYCApproved implements KYCChecker.
func (f KYCFunc) KYCApproved(ctx context.Context, accountID string) (bool, error) {
	return f(ctx, accountID)
}

// Decision is the externally observable authorization result.
type Decision struct {
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`

	// Ceiling details echoed back so a denied caller can resubmit a
	// corrected amount without another round trip.
	Available float64 `json:"available"`
	MaxPayout float64 `json:"max_payout"`
}

// Store is the slice of persistence the payout service needs.
type Store interface {
	GetAccount(ctx context.Context, id string) (*types.Account, error)
	GetClosedWinningTrades(ctx context.Context, accountID string) ([]types.Trade, error)
	ListPriorRequests(ctx context.Context, accountID string) ([]types.PayoutRequest, error)
	InsertPayoutRequest(ctx context.Context, req *types.PayoutRequest) error
	ListPayoutEligibleAccounts(ctx context.Context) ([]types.Account, error)
}

// Service runs payout authorization synchronously inside the request path.
type Service struct {
	store   Store
	configs store.RiskConfigStore
	kyc     KYCChecker
	log     *logger.Logger
}

// NewService wires the payout authorization path.
func NewService(s Store, configs store.RiskConfigStore, kyc KYCChecker, log *logger.Logger) *Service {
	return &Service{store: s, configs: configs, kyc: kyc, log: log}
}

// Authorize decides one payout request. All gates must pass; any single
// failure denies the whole request with its specific reason, and the caller
// resubmits with a corrected amount. No partial or capped auto-adjustment.
func (s *Service) Authorize(ctx context.Context, accountID string, amount float64) (*Decision, error) {
	if amount <= 0 {
		return &Decision{Reason: ReasonInvalidAmount}, nil
	}

	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Decision{Reason: ReasonAccountNotFound}, nil
		}
		return nil, err
	}

	if !acct.Class.PayoutEligible() || acct.Status != types.StatusActive {
		return &Decision{Reason: ReasonNotEligible}, nil
	}

	cfg, err := s.configs.GetRiskRuleConfig(ctx, acct.RiskGroup)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Alert("payout denied: no risk config for group %q (account %s)", acct.RiskGroup, acct.ID)
			return &Decision{Reason: ReasonConfigMissing}, nil
		}
		return nil, err
	}

	prior, err := s.store.ListPriorRequests(ctx, accountID)
	if err != nil {
		return nil, err
	}

	elig := CalculateEligibility(acct, cfg.ProfitSplitPercent, prior)
	dec := &Decision{Available: elig.Available, MaxPayout: elig.MaxPayout}

	if elig.Profit <= 0 {
		dec.Reason = ReasonNoProfit
		return dec, nil
	}
	if amount > elig.Available {
		dec.Reason = fmt.Sprintf("%s: available $%.2f, requested $%.2f",
			ReasonExceedsAvailable, elig.Available, amount)
		return dec, nil
	}

	if cfg.ConsistencyEnabled {
		trades, err := s.store.GetClosedWinningTrades(ctx, accountID)
		if err != nil {
			return nil, err
		}
		res := EvaluateConsistency(trades, cfg.MaxSingleWinPercent)
		if !res.Passed {
			dec.Reason = fmt.Sprintf("%s: trade #%d represents %.1f%% of total profit (max %.0f%%)",
				ReasonConsistencyViolated, res.OffendingTicket, res.OffendingShare, res.MaxWinPercent)
			return dec, nil
		}
	}

	approved, err := s.kyc.KYCApproved(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !approved {
		dec.Reason = ReasonKYCNotVerified
		return dec, nil
	}

	req := &types.PayoutRequest{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Status:    types.PayoutPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertPayoutRequest(ctx, req); err != nil {
		return nil, err
	}

	dec.Authorized = true
	dec.Available = elig.Available - amount
	s.log.Info("payout authorized: account %s amount $%.2f (remaining $%.2f)",
		accountID, amount, dec.Available)
	return dec, nil
}

// AccountBalance is the per-account entry of the balance summary.
type AccountBalance struct {
	AccountID string  `json:"account_id"`
	Login     int64   `json:"login"`
	Class     string  `json:"class"`
	Profit    float64 `json:"profit"`
	MaxPayout float64 `json:"max_payout"`
	Used      float64 `json:"used_amount"`
	Available float64 `json:"available"`
}

// BalanceSummary aggregates payout headroom across funded accounts.
type BalanceSummary struct {
	Available   float64          `json:"available"`
	TotalPaid   float64          `json:"total_paid"`
	Pending     float64          `json:"pending"`
	Accounts    []AccountBalance `json:"accounts"`
	KYCVerified bool             `json:"kyc_verified"`
}

// Balance computes the payout headroom summary across all active funded
// accounts, mirroring what the trader dashboard shows.
func (s *Service) Balance(ctx context.Context) (*BalanceSummary, error) {
	accounts, err := s.store.ListPayoutEligibleAccounts(ctx)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{}
	for i := range accounts {
		acct := &accounts[i]

		cfg, err := s.configs.GetRiskRuleConfig(ctx, acct.RiskGroup)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.log.Alert("balance summary: no risk config for group %q (account %s)", acct.RiskGroup, acct.ID)
				continue
			}
			return nil, err
		}

		prior, err := s.store.ListPriorRequests(ctx, acct.ID)
		if err != nil {
			return nil, err
		}

		elig := CalculateEligibility(acct, cfg.ProfitSplitPercent, prior)
		for _, p := range prior {
			switch p.Status {
			case types.PayoutApproved, types.PayoutProcessed:
				summary.TotalPaid += p.Amount
			case types.PayoutPending:
				summary.Pending += p.Amount
			}
		}

		if elig.Available <= 0 {
			continue
		}
		summary.Available += elig.Available
		summary.Accounts = append(summary.Accounts, AccountBalance{
			AccountID: acct.ID,
			Login:     acct.Login,
			Class:     string(acct.Class),
			Profit:    elig.Profit,
			MaxPayout: elig.MaxPayout,
			Used:      elig.AlreadyRequested,
			Available: elig.Available,
		})
	}

	if len(summary.Accounts) > 0 {
		approved, err := s.kyc.KYCApproved(ctx, summary.Accounts[0].AccountID)
		if err == nil {
			summary.KYCVerified = approved
		}
	}
	return summary, nil
}
