// Package sweep drives the fixed-interval risk sweep: read live equity for
// every watched account, evaluate drawdown floors, and hand breaches to the
// enforcement executor.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharkfunded/risk-engine/internal/bridge"
	"github.com/sharkfunded/risk-engine/internal/enforcement"
	"github.com/sharkfunded/risk-engine/internal/engineerr"
	"github.com/sharkfunded/risk-engine/internal/logger"
	"github.com/sharkfunded/risk-engine/internal/monitoring"
	"github.com/sharkfunded/risk-engine/internal/risk"
	"github.com/sharkfunded/risk-engine/internal/safety"
	"github.com/sharkfunded/risk-engine/internal/store"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// checkBatchSize bounds one bulk bridge request. A failed batch skips only
// its own accounts for the tick.
const checkBatchSize = 100

// Bridge is the slice of the bridge client the scheduler needs.
type Bridge interface {
	CheckBulk(ctx context.Context, reqs []bridge.CheckRequest) ([]bridge.CheckResult, error)
	Health(ctx context.Context) (*bridge.HealthStatus, error)
}

// Store is the slice of persistence the scheduler needs.
type Store interface {
	GetSweepAccounts(ctx context.Context) ([]types.Account, error)
	GetAccount(ctx context.Context, id string) (*types.Account, error)
	UpdateAccountState(ctx context.Context, upd store.AccountUpdate) error
	InsertViolation(ctx context.Context, v *types.Violation) error
	OpenViolation(ctx context.Context, accountID string) (*types.Violation, error)
	MarkSODReset(ctx context.Context, id string, at time.Time) error
	InsertSystemLog(ctx context.Context, level, message string) error
}

// Config is the scheduler's runtime tuning.
type Config struct {
	Interval           time.Duration
	Workers            int
	MockEquitySentinel float64
	SODResetCron       string
	Location           *time.Location
}

// Scheduler owns the sweep loop and the per-account mutual exclusion that
// keeps overlapping sweeps off the same account.
type Scheduler struct {
	cfg      Config
	bridge   Bridge
	store    Store
	configs  store.RiskConfigStore
	executor *enforcement.Executor

	validator *safety.Validator
	breaker   *safety.CircuitBreaker
	log       *logger.Logger
	health    *monitoring.HealthChecker

	// accountLocks serializes evaluate+enforce per account. A sweep that
	// finds the lock held skips the account; it never queues behind the
	// previous tick.
	accountLocks sync.Map

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler wires the sweep loop.
func NewScheduler(cfg Config, b Bridge, s Store, configs store.RiskConfigStore,
	exec *enforcement.Executor, log *logger.Logger, health *monitoring.HealthChecker) *Scheduler {

	if cfg.Workers <= 0 {
		cfg.Workers = 20
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	sched := &Scheduler{
		cfg:       cfg,
		bridge:    b,
		store:     s,
		configs:   configs,
		executor:  exec,
		validator: safety.NewValidator(),
		log:       log,
		health:    health,
		stopChan:  make(chan struct{}),
	}

	sched.breaker = safety.NewCircuitBreaker("bridge", safety.CircuitBreakerConfig{
		FailureThreshold: 5,
		Timeout:          2 * cfg.Interval,
	})
	sched.breaker.SetStateChangeCallback(func(from, to safety.CircuitBreakerState) {
		log.Alert("bridge circuit breaker %s -> %s", from, to)
	})

	return sched
}

// Run starts the sweep loop and blocks until the context is cancelled or
// Stop is called. One sweep fires immediately so a restart re-checks
// breached accounts without waiting a full interval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("sweep loop starting: interval=%s workers=%d", s.cfg.Interval, s.cfg.Workers)

	s.runSweep(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep loop stopped: %v", ctx.Err())
			return ctx.Err()
		case <-s.stopChan:
			s.log.Info("sweep loop stopped")
			return nil
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

// Stop terminates the sweep loop.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// runSweep executes one full sweep cycle.
func (s *Scheduler) runSweep(ctx context.Context) {
	started := time.Now()

	accounts, err := s.store.GetSweepAccounts(ctx)
	if err != nil {
		s.log.Error("sweep: load accounts: %v", err)
		s.health.AddError(fmt.Sprintf("load accounts: %v", err))
		return
	}
	if len(accounts) == 0 {
		s.health.UpdateLastSweep(time.Now())
		return
	}

	samples := s.collectSamples(ctx, accounts)

	jobs := make(chan types.Account, len(accounts))
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for acct := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				s.processAccount(ctx, acct, samples)
			}
		}()
	}
	for _, acct := range accounts {
		jobs <- acct
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(started)
	monitoring.RecordSweep(elapsed.Seconds(), len(accounts))
	s.health.UpdateLastSweep(time.Now())
	s.log.Sweep("cycle complete: %d accounts in %s", len(accounts), elapsed)
}

// collectSamples reads live equity for all accounts in bounded batches.
// A failed batch logs once and leaves its logins out of the map; the rest of
// the sweep continues.
func (s *Scheduler) collectSamples(ctx context.Context, accounts []types.Account) map[int64]bridge.CheckResult {
	samples := make(map[int64]bridge.CheckResult, len(accounts))

	for start := 0; start < len(accounts); start += checkBatchSize {
		end := start + checkBatchSize
		if end > len(accounts) {
			end = len(accounts)
		}

		reqs := make([]bridge.CheckRequest, 0, end-start)
		for _, acct := range accounts[start:end] {
			reqs = append(reqs, bridge.CheckRequest{
				Login:          acct.Login,
				MinEquityLimit: bridge.InfoOnlySentinel,
			})
		}

		var results []bridge.CheckResult
		callStart := time.Now()
		err := s.breaker.Call(func() error {
			var callErr error
			results, callErr = s.bridge.CheckBulk(ctx, reqs)
			return callErr
		})
		monitoring.RecordBridgeCall("check-bulk", time.Since(callStart).Seconds(), err)

		if err != nil {
			s.log.Error("sweep: bulk check failed for %d logins: %v", len(reqs), err)
			s.health.SetBridgeConnected(false)
			continue
		}
		s.health.SetBridgeConnected(true)

		for _, res := range results {
			samples[res.Login] = res
		}
	}
	return samples
}

// processAccount runs one account's evaluate+enforce cycle under its lock.
// Every early return leaves the account untouched for this tick.
func (s *Scheduler) processAccount(ctx context.Context, acct types.Account, samples map[int64]bridge.CheckResult) {
	mu := s.lockFor(acct.ID)
	if !mu.TryLock() {
		monitoring.RecordSkippedAccount("locked")
		s.log.Warning("sweep: account %s still processing from previous tick, skipped", acct.ID)
		return
	}
	defer mu.Unlock()

	if res := s.validator.ValidateAccount(&acct); !res.Valid {
		monitoring.RecordSkippedAccount("invalid_account")
		s.log.Error("sweep: %s [%s]", res.Message, res.Code)
		return
	}

	cfg, err := s.configs.GetRiskRuleConfig(ctx, acct.RiskGroup)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			monitoring.RecordSkippedAccount("config_missing")
			msg := fmt.Sprintf("no risk config for group %q, account %s (login %d) skipped",
				acct.RiskGroup, acct.ID, acct.Login)
			s.log.Alert("%s", msg)
			if logErr := s.store.InsertSystemLog(ctx, "alert", msg); logErr != nil {
				s.log.Error("record system log: %v", logErr)
			}
			return
		}
		s.log.Error("sweep: load risk config for %s: %v", acct.ID, err)
		return
	}

	sample, ok := samples[acct.Login]

	if acct.Status == types.StatusBreached {
		// The breach decision is already durable; enforcement retries must
		// not wait on this tick's equity read. When the bridge omitted the
		// login or returned mock data, the last stored snapshot stands in
		// for the sample.
		if !ok || !risk.PlausibleEquity(sample.Equity, acct.InitialBalance, s.cfg.MockEquitySentinel) {
			sample = bridge.CheckResult{
				Login:   acct.Login,
				Equity:  acct.CurrentEquity,
				Balance: acct.CurrentBalance,
			}
		}
		verdict := risk.Evaluate(&acct, *cfg, sample.Equity)
		s.retryEnforcement(ctx, &acct, verdict, sample)
		return
	}

	if !ok {
		monitoring.RecordSkippedAccount("no_sample")
		return
	}

	if res := s.validator.ValidateEquitySample(acct.Login, sample.Equity, sample.Balance); !res.Valid {
		monitoring.RecordSkippedAccount("invalid_sample")
		s.log.Warning("sweep: %s [%s]", res.Message, res.Code)
		return
	}
	if !risk.PlausibleEquity(sample.Equity, acct.InitialBalance, s.cfg.MockEquitySentinel) {
		monitoring.RecordSkippedAccount("implausible_sample")
		s.log.Warning("sweep: %v", engineerr.NewImplausibleDataError("sweep", "equity_sample",
			fmt.Sprintf("login %d equity %.2f (initial %.2f), sample discarded",
				acct.Login, sample.Equity, acct.InitialBalance)))
		return
	}

	verdict := risk.Evaluate(&acct, *cfg, sample.Equity)
	if verdict.NewBreach {
		s.commitBreach(ctx, &acct, verdict, sample)
		return
	}
	s.commitSnapshot(ctx, &acct, sample)
}

// commitBreach writes the breach decision, then the violation, then runs
// enforcement. The decision is durable before the first outbound command so
// a crash in between is recoverable by the retry path.
func (s *Scheduler) commitBreach(ctx context.Context, acct *types.Account, verdict risk.Verdict, sample bridge.CheckResult) {
	err := s.store.UpdateAccountState(ctx, store.AccountUpdate{
		ID:               acct.ID,
		Status:           types.StatusBreached,
		CurrentEquity:    sample.Equity,
		CurrentBalance:   sample.Balance,
		StartOfDayEquity: acct.StartOfDayEquity,
		Version:          acct.Version,
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			// Another writer committed this account first; its cycle owns
			// the breach.
			monitoring.RecordSkippedAccount("version_conflict")
			return
		}
		s.log.Error("sweep: commit breach for %s: %v", acct.ID, err)
		return
	}
	acct.Version++
	acct.Status = types.StatusBreached
	acct.CurrentEquity = sample.Equity
	acct.CurrentBalance = sample.Balance

	violation := &types.Violation{
		ID:                uuid.NewString(),
		AccountID:         acct.ID,
		DetectedAt:        time.Now().UTC(),
		Kind:              verdict.Kind,
		EquityAtDetection: sample.Equity,
		LimitAtDetection:  verdict.Limits.EffectiveFloor,
		ActionTaken:       types.ActionNone,
	}
	if err := s.store.InsertViolation(ctx, violation); err != nil {
		s.log.Error("sweep: insert violation for %s: %v", acct.ID, err)
		return
	}

	monitoring.RecordBreach(string(verdict.Kind))
	s.log.Breach("login %d breached %s: equity %.2f < floor %.2f (daily %.2f / total %.2f)",
		acct.Login, verdict.Kind, sample.Equity, verdict.Limits.EffectiveFloor,
		verdict.Limits.DailyFloor, verdict.Limits.TotalFloor)

	outcome, err := s.executor.Enforce(ctx, acct, violation.ID)
	monitoring.RecordEnforcement(outcome.Confirmed)
	if err != nil {
		s.log.Warning("sweep: enforcement pending for login %d, retrying next tick: %v", acct.Login, err)
	}
}

// retryEnforcement resumes an interrupted breach: the decision is already
// durable, only the external action is outstanding.
func (s *Scheduler) retryEnforcement(ctx context.Context, acct *types.Account, verdict risk.Verdict, sample bridge.CheckResult) {
	violation, err := s.store.OpenViolation(ctx, acct.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Crash landed between the status write and the violation insert.
		// Reconstruct the audit row from the committed decision.
		violation = &types.Violation{
			ID:                uuid.NewString(),
			AccountID:         acct.ID,
			DetectedAt:        time.Now().UTC(),
			Kind:              verdict.Kind,
			EquityAtDetection: sample.Equity,
			LimitAtDetection:  verdict.Limits.EffectiveFloor,
			ActionTaken:       types.ActionNone,
		}
		if insErr := s.store.InsertViolation(ctx, violation); insErr != nil {
			s.log.Error("sweep: reconstruct violation for %s: %v", acct.ID, insErr)
			return
		}
	} else if err != nil {
		s.log.Error("sweep: load open violation for %s: %v", acct.ID, err)
		return
	}

	acct.CurrentEquity = sample.Equity
	acct.CurrentBalance = sample.Balance

	outcome, err := s.executor.Enforce(ctx, acct, violation.ID)
	monitoring.RecordEnforcement(outcome.Confirmed)
	if err != nil {
		s.log.Warning("sweep: enforcement still pending for login %d: %v", acct.Login, err)
	}
}

// commitSnapshot persists a safe account's fresh equity and balance.
func (s *Scheduler) commitSnapshot(ctx context.Context, acct *types.Account, sample bridge.CheckResult) {
	err := s.store.UpdateAccountState(ctx, store.AccountUpdate{
		ID:               acct.ID,
		Status:           acct.Status,
		CurrentEquity:    sample.Equity,
		CurrentBalance:   sample.Balance,
		StartOfDayEquity: acct.StartOfDayEquity,
		Version:          acct.Version,
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			monitoring.RecordSkippedAccount("version_conflict")
			return
		}
		s.log.Error("sweep: snapshot update for %s: %v", acct.ID, err)
	}
}

func (s *Scheduler) lockFor(accountID string) *sync.Mutex {
	mu, _ := s.accountLocks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
