package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sharkfunded/risk-engine/internal/bridge"
	"github.com/sharkfunded/risk-engine/internal/risk"
	"github.com/sharkfunded/risk-engine/internal/store"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// StartSODReset registers the start-of-day reset job on a cron scheduler in
// the configured trading timezone and starts it. The job anchors each
// account's daily drawdown floor to its equity at the day boundary.
//
// The reset fires at most once per calendar day per account, and only from a
// plausible equity read; an account whose sample fails the plausibility
// guard keeps yesterday's anchor rather than inheriting mock data.
func (s *Scheduler) StartSODReset(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(s.cfg.Location))
	if _, err := c.AddFunc(s.cfg.SODResetCron, func() {
		s.runSODReset(ctx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	s.log.Info("start-of-day reset scheduled: %q in %s", s.cfg.SODResetCron, s.cfg.Location)
	return c, nil
}

// runSODReset performs one start-of-day reset pass over all sweep accounts.
func (s *Scheduler) runSODReset(ctx context.Context) {
	s.log.Info("start-of-day reset running")

	accounts, err := s.store.GetSweepAccounts(ctx)
	if err != nil {
		s.log.Error("sod reset: load accounts: %v", err)
		return
	}

	samples := s.collectSamples(ctx, accounts)
	now := time.Now().In(s.cfg.Location)
	reset := 0

	for i := range accounts {
		acct := &accounts[i]
		if acct.Status != types.StatusActive {
			continue
		}
		if sameCalendarDay(acct.SODResetAt.In(s.cfg.Location), now) {
			continue
		}

		sample, ok := samples[acct.Login]
		if !ok {
			s.log.Warning("sod reset: no sample for login %d, keeping previous anchor", acct.Login)
			continue
		}
		if !risk.PlausibleEquity(sample.Equity, acct.InitialBalance, s.cfg.MockEquitySentinel) {
			s.log.Warning("sod reset: implausible equity %.2f for login %d, keeping previous anchor",
				sample.Equity, acct.Login)
			continue
		}

		if s.resetAnchor(ctx, acct.ID, sample, now) {
			reset++
		}
	}

	s.log.Info("start-of-day reset complete: %d/%d accounts anchored", reset, len(accounts))
}

// resetAnchor anchors one account under its sweep lock. The account is
// re-read after the lock is held: the bulk equity read above can overlap a
// sweep tick whose snapshot commit advances the version, and the write must
// carry the current one.
func (s *Scheduler) resetAnchor(ctx context.Context, accountID string, sample bridge.CheckResult, now time.Time) bool {
	mu := s.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()

	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		s.log.Error("sod reset: reload %s: %v", accountID, err)
		return false
	}
	if acct.Status != types.StatusActive {
		return false
	}
	if sameCalendarDay(acct.SODResetAt.In(s.cfg.Location), now) {
		return false
	}

	// Advisory consistency check on the outgoing anchor.
	if acct.StartOfDayEquity > 0 && acct.StartOfDayEquity > acct.CurrentEquity {
		s.log.Warning("sod reset: login %d previous anchor %.2f exceeded last equity snapshot %.2f",
			acct.Login, acct.StartOfDayEquity, acct.CurrentEquity)
	}

	err = s.store.UpdateAccountState(ctx, store.AccountUpdate{
		ID:               acct.ID,
		Status:           acct.Status,
		CurrentEquity:    sample.Equity,
		CurrentBalance:   sample.Balance,
		StartOfDayEquity: sample.Equity,
		Version:          acct.Version,
	})
	if err != nil {
		s.log.Error("sod reset: update %s: %v", acct.ID, err)
		return false
	}
	if err := s.store.MarkSODReset(ctx, acct.ID, now); err != nil {
		s.log.Error("sod reset: mark %s: %v", acct.ID, err)
		return false
	}
	return true
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
