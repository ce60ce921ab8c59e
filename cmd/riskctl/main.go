// riskctl is the operator console for the risk engine's store: account
// status tables, violation history and the Excel compliance export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/sharkfunded/risk-engine/internal/reporting"
	"github.com/sharkfunded/risk-engine/internal/risk"
	"github.com/sharkfunded/risk-engine/internal/store"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

func main() {
	dbPath := flag.String("db", "risk_engine.db", "path to the engine's SQLite database")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err == nil {
		if v := os.Getenv("SQLITE_PATH"); v != "" && *dbPath == "risk_engine.db" {
			*dbPath = v
		}
	}

	db, err := store.NewSQLite(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch flag.Arg(0) {
	case "status":
		err = runStatus(ctx, db)
	case "violations":
		if flag.NArg() < 2 {
			log.Fatal("usage: riskctl violations <account-id>")
		}
		err = runViolations(ctx, db, flag.Arg(1))
	case "report":
		if flag.NArg() < 2 {
			log.Fatal("usage: riskctl report <output.xlsx>")
		}
		err = runReport(ctx, db, flag.Arg(1))
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: riskctl [-db path] <command>

Commands:
  status                    show all swept accounts with their floors
  violations <account-id>   show an account's violation history
  report <output.xlsx>      export accounts and violations to Excel
`)
}

func accountRows(ctx context.Context, db *store.SQLiteStore, accounts []types.Account) ([]reporting.AccountRow, error) {
	rows := make([]reporting.AccountRow, 0, len(accounts))
	for i := range accounts {
		acct := &accounts[i]
		cfg, err := db.GetRiskRuleConfig(ctx, acct.RiskGroup)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Shown with zero floors rather than hidden: a missing
				// config is exactly what the operator needs to see.
				cfg = &types.RiskRuleConfig{GroupName: acct.RiskGroup}
			} else {
				return nil, err
			}
		}
		rows = append(rows, reporting.AccountRow{
			Account: *acct,
			Limits:  risk.CalculateLimits(acct, *cfg),
		})
	}
	return rows, nil
}

func runStatus(ctx context.Context, db *store.SQLiteStore) error {
	accounts, err := db.GetSweepAccounts(ctx)
	if err != nil {
		return err
	}
	rows, err := accountRows(ctx, db, accounts)
	if err != nil {
		return err
	}
	reporting.WriteAccountsTable(os.Stdout, rows)
	return nil
}

func runViolations(ctx context.Context, db *store.SQLiteStore, accountID string) error {
	violations, err := db.ListViolations(ctx, accountID)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		fmt.Println("no violations recorded")
		return nil
	}
	reporting.WriteViolationsTable(os.Stdout, violations)
	return nil
}

func runReport(ctx context.Context, db *store.SQLiteStore, path string) error {
	// The export covers every account, disabled ones included; their
	// violations are the reason this report exists.
	accounts, err := db.ListAllAccounts(ctx)
	if err != nil {
		return err
	}
	rows, err := accountRows(ctx, db, accounts)
	if err != nil {
		return err
	}

	allViolations, err := db.ListAllViolations(ctx)
	if err != nil {
		return err
	}

	report := &reporting.ExcelReport{Accounts: rows, Violations: allViolations}
	if err := report.WriteXLSX(path); err != nil {
		return err
	}
	fmt.Printf("report written to %s (%d accounts, %d violations)\n",
		path, len(rows), len(allViolations))
	return nil
}
