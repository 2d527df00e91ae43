package report

import (
	"fmt"
	"io"

	"fin_ratio/pkg/models"

	"github.com/xuri/excelize/v2"
)

const (
	StatementsSheet = "Statements"
	RatiosSheet     = "Ratios"
)

var statementHeader = []interface{}{
	"bsns_year", "sj_div", "sj_nm", "account_nm",
	"thstrm_nm", "thstrm_amount", "frmtrm_nm", "frmtrm_amount",
	"bfefrmtrm_nm", "bfefrmtrm_amount", "ord", "currency",
}

// WriteXLSX writes a workbook with the statement rows and the ratio table.
func WriteXLSX(w io.Writer, fin *models.CompanyFinancials) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StatementsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeStatements(f, fin.Statements); err != nil {
		return err
	}

	if _, err := f.NewSheet(RatiosSheet); err != nil {
		return fmt.Errorf("create ratios sheet: %w", err)
	}
	if err := writeRatios(f, fin); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeStatements(f *excelize.File, rows []models.StatementRow) error {
	if err := setRow(f, StatementsSheet, 1, statementHeader); err != nil {
		return err
	}
	for i, r := range rows {
		values := []interface{}{
			r.BsnsYear, r.SjDiv, r.SjNm, r.AccountNm,
			r.ThstrmNm, r.ThstrmAmount, r.FrmtrmNm, r.FrmtrmAmount,
			r.BfefrmtrmNm, r.BfefrmtrmAmount, r.Ord, r.Currency,
		}
		if err := setRow(f, StatementsSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeRatios(f *excelize.File, fin *models.CompanyFinancials) error {
	header := []interface{}{fin.Company.CorpName}
	for _, r := range fin.Ratios {
		header = append(header, r.BsnsYear)
	}
	if err := setRow(f, RatiosSheet, 1, header); err != nil {
		return err
	}
	if len(fin.Ratios) == 0 {
		return nil
	}

	for i, nv := range fin.Ratios[0].Ratios() {
		values := []interface{}{Label(nv.Name)}
		for j := range fin.Ratios {
			values = append(values, fin.Ratios[j].Ratios()[i].Value)
		}
		if err := setRow(f, RatiosSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
