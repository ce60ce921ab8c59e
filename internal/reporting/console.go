// Package reporting renders operator-facing views of engine state: console
// tables for riskctl and Excel workbooks for compliance review.
package reporting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sharkfunded/risk-engine/internal/risk"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

// AccountRow pairs an account with its computed floors for display.
type AccountRow struct {
	Account types.Account
	Limits  risk.Limits
}

// WriteAccountsTable renders the sweep working set with floors and headroom.
func WriteAccountsTable(w io.Writer, rows []AccountRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Login", "Status", "Class", "Equity", "Daily Floor", "Total Floor", "Effective", "Headroom"})

	for _, row := range rows {
		headroom := row.Account.CurrentEquity - row.Limits.EffectiveFloor
		headroomCell := fmt.Sprintf("%.2f", headroom)
		if headroom < 0 {
			headroomCell = text.FgRed.Sprintf("%.2f", headroom)
		}
		t.AppendRow(table.Row{
			row.Account.Login,
			row.Account.Status,
			row.Account.Class,
			fmt.Sprintf("%.2f", row.Account.CurrentEquity),
			fmt.Sprintf("%.2f", row.Limits.DailyFloor),
			fmt.Sprintf("%.2f", row.Limits.TotalFloor),
			fmt.Sprintf("%.2f", row.Limits.EffectiveFloor),
			headroomCell,
		})
	}
	t.Render()
}

// WriteViolationsTable renders an account's violation history.
func WriteViolationsTable(w io.Writer, violations []types.Violation) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Detected", "Kind", "Equity", "Limit", "Action"})

	for _, v := range violations {
		t.AppendRow(table.Row{
			v.DetectedAt.Format("2006-01-02 15:04:05"),
			v.Kind,
			fmt.Sprintf("%.2f", v.EquityAtDetection),
			fmt.Sprintf("%.2f", v.LimitAtDetection),
			v.ActionTaken,
		})
	}
	t.Render()
}
