package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

const accountColumns = `id, login, status, class, risk_group, initial_balance,
	current_balance, current_equity, start_of_day_equity, daily_limit_percent,
	total_limit_percent, profit_target_percent, version, sod_reset_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*types.Account, error) {
	var a types.Account
	var sodResetAt sql.NullTime
	err := row.Scan(&a.ID, &a.Login, &a.Status, &a.Class, &a.RiskGroup,
		&a.InitialBalance, &a.CurrentBalance, &a.CurrentEquity, &a.StartOfDayEquity,
		&a.DailyLimitPercent, &a.TotalLimitPercent, &a.ProfitTargetPercent,
		&a.Version, &sodResetAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sodResetAt.Valid {
		a.SODResetAt = sodResetAt.Time
	}
	return &a, nil
}

// GetSweepAccounts returns active and breached accounts, the sweep's working set.
func (s *SQLiteStore) GetSweepAccounts(ctx context.Context) ([]types.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE status IN (?, ?) ORDER BY login`,
		types.StatusActive, types.StatusBreached)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []types.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// GetAccount returns one account by ID.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*types.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// UpdateAccountState applies a post-cycle write under the optimistic version
// check. Zero rows affected means another writer advanced the version first.
func (s *SQLiteStore) UpdateAccountState(ctx context.Context, upd AccountUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET status = ?, current_equity = ?, current_balance = ?,
		    start_of_day_equity = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		upd.Status, upd.CurrentEquity, upd.CurrentBalance,
		upd.StartOfDayEquity, time.Now().UTC(),
		upd.ID, upd.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// MarkSODReset stamps the account's last start-of-day reset time.
func (s *SQLiteStore) MarkSODReset(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET sod_reset_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

// InsertViolation appends one violation row.
func (s *SQLiteStore) InsertViolation(ctx context.Context, v *types.Violation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO violations
		(id, account_id, detected_at, kind, equity_at_detection, limit_at_detection, action_taken)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.AccountID, v.DetectedAt.UTC(), v.Kind,
		v.EquityAtDetection, v.LimitAtDetection, v.ActionTaken,
	)
	return err
}

// FinalizeViolationAction records the confirmed enforcement outcome.
func (s *SQLiteStore) FinalizeViolationAction(ctx context.Context, violationID string, action types.ViolationAction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE violations SET action_taken = ? WHERE id = ? AND action_taken = ?`,
		action, violationID, types.ActionNone)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// OpenViolation returns the account's unfinalized violation, if any.
func (s *SQLiteStore) OpenViolation(ctx context.Context, accountID string) (*types.Violation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, detected_at, kind, equity_at_detection, limit_at_detection, action_taken
		FROM violations
		WHERE account_id = ? AND action_taken = ?
		ORDER BY detected_at DESC LIMIT 1`,
		accountID, types.ActionNone)

	var v types.Violation
	err := row.Scan(&v.ID, &v.AccountID, &v.DetectedAt, &v.Kind,
		&v.EquityAtDetection, &v.LimitAtDetection, &v.ActionTaken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListAllAccounts returns every account regardless of status. Operator
// reporting only; the sweep never uses it.
func (s *SQLiteStore) ListAllAccounts(ctx context.Context) ([]types.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY login`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []types.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// ListAllViolations returns every violation row, newest first. Operator
// reporting only.
func (s *SQLiteStore) ListAllViolations(ctx context.Context) ([]types.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, detected_at, kind, equity_at_detection, limit_at_detection, action_taken
		FROM violations ORDER BY detected_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Violation
	for rows.Next() {
		var v types.Violation
		if err := rows.Scan(&v.ID, &v.AccountID, &v.DetectedAt, &v.Kind,
			&v.EquityAtDetection, &v.LimitAtDetection, &v.ActionTaken); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListViolations returns the account's full violation history, newest first.
func (s *SQLiteStore) ListViolations(ctx context.Context, accountID string) ([]types.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, detected_at, kind, equity_at_detection, limit_at_detection, action_taken
		FROM violations WHERE account_id = ? ORDER BY detected_at DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Violation
	for rows.Next() {
		var v types.Violation
		if err := rows.Scan(&v.ID, &v.AccountID, &v.DetectedAt, &v.Kind,
			&v.EquityAtDetection, &v.LimitAtDetection, &v.ActionTaken); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetClosedWinningTrades returns winning closed trades with lots > 0.
// Deposit and balance-adjustment pseudo-trades carry zero lots and are
// excluded at the query.
func (s *SQLiteStore) GetClosedWinningTrades(ctx context.Context, accountID string) ([]types.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticket, account_id, profit_loss, lots, close_time
		FROM trades
		WHERE account_id = ? AND profit_loss > 0 AND lots > 0
		ORDER BY close_time`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Trade
	for rows.Next() {
		var t types.Trade
		if err := rows.Scan(&t.Ticket, &t.AccountID, &t.ProfitLoss, &t.Lots, &t.CloseTime); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListPriorRequests returns all non-rejected payout requests for an account.
func (s *SQLiteStore) ListPriorRequests(ctx context.Context, accountID string) ([]types.PayoutRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, amount, status, created_at
		FROM payout_requests
		WHERE account_id = ? AND status != ?
		ORDER BY created_at`,
		accountID, types.PayoutRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.PayoutRequest
	for rows.Next() {
		var p types.PayoutRequest
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPayoutRequest records a freshly authorized pending request.
func (s *SQLiteStore) InsertPayoutRequest(ctx context.Context, req *types.PayoutRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payout_requests (id, account_id, amount, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.AccountID, req.Amount, req.Status, req.CreatedAt.UTC())
	return err
}

// ListPayoutEligibleAccounts returns active funded accounts.
func (s *SQLiteStore) ListPayoutEligibleAccounts(ctx context.Context) ([]types.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE status = ? AND class IN (?, ?) ORDER BY login`,
		types.StatusActive, types.ClassInstantFunded, types.ClassLiveFunded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []types.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// GetRiskRuleConfig returns the policy for a group, or ErrNotFound.
func (s *SQLiteStore) GetRiskRuleConfig(ctx context.Context, group string) (*types.RiskRuleConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT group_name, daily_limit_percent, total_limit_percent,
		       max_single_win_percent, consistency_enabled, profit_split_percent
		FROM risk_rules_config WHERE group_name = ?`, group)

	var c types.RiskRuleConfig
	err := row.Scan(&c.GroupName, &c.DailyLimitPercent, &c.TotalLimitPercent,
		&c.MaxSingleWinPercent, &c.ConsistencyEnabled, &c.ProfitSplitPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertSystemLog appends a loud operational event.
func (s *SQLiteStore) InsertSystemLog(ctx context.Context, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO system_logs (level, message, created_at) VALUES (?, ?, ?)`,
		level, message, time.Now().UTC())
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
