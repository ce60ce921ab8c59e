package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/sharkfunded/risk-engine/pkg/types"
)

// ExcelReport is the compliance export: one workbook with the account roster
// and the full violation trail.
type ExcelReport struct {
	Accounts   []AccountRow
	Violations []types.Violation
}

// WriteXLSX writes the report workbook to path, creating directories as
// needed.
func (r *ExcelReport) WriteXLSX(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const accountsSheet = "Accounts"
	const violationsSheet = "Violations"

	fx.SetSheetName(fx.GetSheetName(0), accountsSheet)
	if _, err := fx.NewSheet(violationsSheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := r.writeAccountsSheet(fx, accountsSheet, headerStyle); err != nil {
		return err
	}
	if err := r.writeViolationsSheet(fx, violationsSheet, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReport) writeAccountsSheet(fx *excelize.File, sheet string, headerStyle int) error {
	headers := []interface{}{"Login", "Status", "Class", "Risk Group", "Initial Balance",
		"Current Balance", "Current Equity", "SOD Equity", "Daily Floor", "Total Floor", "Effective Floor"}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), headerStyle); err != nil {
		return err
	}

	for i, row := range r.Accounts {
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{
			row.Account.Login,
			string(row.Account.Status),
			string(row.Account.Class),
			row.Account.RiskGroup,
			row.Account.InitialBalance,
			row.Account.CurrentBalance,
			row.Account.CurrentEquity,
			row.Account.StartOfDayEquity,
			row.Limits.DailyFloor,
			row.Limits.TotalFloor,
			row.Limits.EffectiveFloor,
		}
		if err := fx.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReport) writeViolationsSheet(fx *excelize.File, sheet string, headerStyle int) error {
	headers := []interface{}{"Detected At", "Account ID", "Kind", "Equity At Detection",
		"Limit At Detection", "Action Taken"}
	if err := fx.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), headerStyle); err != nil {
		return err
	}

	for i, v := range r.Violations {
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{
			v.DetectedAt.Format("2006-01-02 15:04:05"),
			v.AccountID,
			string(v.Kind),
			v.EquityAtDetection,
			v.LimitAtDetection,
			string(v.ActionTaken),
		}
		if err := fx.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
