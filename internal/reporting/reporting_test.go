package reporting

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sharkfunded/risk-engine/internal/risk"
	"github.com/sharkfunded/risk-engine/pkg/types"
)

func sampleRows() []AccountRow {
	return []AccountRow{
		{
			Account: types.Account{
				Login: 565929, Status: types.StatusActive, Class: types.ClassLiveFunded,
				RiskGroup: "funded\\5k", InitialBalance: 5000, CurrentBalance: 4900,
				CurrentEquity: 4900, StartOfDayEquity: 5000,
			},
			Limits: risk.Limits{DailyFloor: 4750, TotalFloor: 4500, EffectiveFloor: 4750, Binding: types.ViolationDaily},
		},
		{
			Account: types.Account{
				Login: 565930, Status: types.StatusBreached, Class: types.ClassEvaluationPhase1,
				RiskGroup: "demo\\5k", InitialBalance: 5000, CurrentEquity: 4740,
			},
			Limits: risk.Limits{DailyFloor: 4750, TotalFloor: 4500, EffectiveFloor: 4750, Binding: types.ViolationDaily},
		},
	}
}

// TestWriteAccountsTable_RendersRows includes every account with its floors.
func TestWriteAccountsTable_RendersRows(t *testing.T) {
	var buf bytes.Buffer

	WriteAccountsTable(&buf, sampleRows())

	out := buf.String()
	assert.Contains(t, out, "565929")
	assert.Contains(t, out, "565930")
	assert.Contains(t, out, "4750.00")
	assert.Contains(t, out, "breached")
}

// TestWriteViolationsTable_RendersHistory lists each violation row.
func TestWriteViolationsTable_RendersHistory(t *testing.T) {
	var buf bytes.Buffer

	WriteViolationsTable(&buf, []types.Violation{
		{
			DetectedAt:        time.Date(2026, 8, 31, 14, 3, 0, 0, time.UTC),
			Kind:              types.ViolationDaily,
			EquityAtDetection: 4740,
			LimitAtDetection:  4750,
			ActionTaken:       types.ActionStoppedOut,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "2026-08-31 14:03:00")
	assert.Contains(t, out, "daily_breach")
	assert.Contains(t, out, "stopped_out")
}

// TestExcelReport_WriteXLSX produces a workbook with both sheets populated.
func TestExcelReport_WriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	report := &ExcelReport{
		Accounts: sampleRows(),
		Violations: []types.Violation{
			{DetectedAt: time.Now().UTC(), AccountID: "acct-2",
				Kind: types.ViolationDaily, EquityAtDetection: 4740,
				LimitAtDetection: 4750, ActionTaken: types.ActionStoppedOut},
		},
	}

	require.NoError(t, report.WriteXLSX(path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.ElementsMatch(t, []string{"Accounts", "Violations"}, fx.GetSheetList())

	login, err := fx.GetCellValue("Accounts", "A2")
	require.NoError(t, err)
	assert.Equal(t, "565929", login)

	kind, err := fx.GetCellValue("Violations", "C2")
	require.NoError(t, err)
	assert.Equal(t, "daily_breach", kind)
}
