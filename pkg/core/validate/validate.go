// Package validate checks the internal consistency of one business year's
// normalized statement rows. Findings are advisory: the pipeline logs them
// and still persists the batch.
package validate

import (
	"fmt"
	"math"

	"fin_ratio/pkg/core/ratio"
	"fin_ratio/pkg/models"
)

const (
	// DefaultBalanceTolerance is the share of total assets the balance
	// equation may be off by (rounding in the filing).
	DefaultBalanceTolerance = 0.005
	// DefaultOutlierThreshold is the YoY change, in percent, that flags a
	// headline account.
	DefaultOutlierThreshold = 300.0
)

// Check names.
const (
	CheckBalance  = "balance_equation"
	CheckOutlier  = "yoy_outlier"
	CheckMissing  = "missing_account"
	CheckNegative = "negative_total"
)

// Finding is one failed check.
type Finding struct {
	Check   string  `json:"check"`
	Account string  `json:"account,omitempty"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// Report collects the findings for one business year.
type Report struct {
	BsnsYear  string    `json:"bsns_year"`
	Findings  []Finding `json:"findings,omitempty"`
	AllPassed bool      `json:"all_passed"`
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
	r.AllPassed = false
}

// =============================================================================
// BALANCE SHEET
// =============================================================================

// BalanceCheck verifies Assets = Liabilities + Equity.
type BalanceCheck struct {
	TotalAssets      float64
	TotalLiabilities float64
	TotalEquity      float64
	ComputedAssets   float64 // L + E
	Difference       float64
	IsBalanced       bool
	Tolerance        float64
}

// CheckBalanceEquation validates A = L + E within an absolute tolerance.
func CheckBalanceEquation(assets, liabilities, equity, tolerance float64) *BalanceCheck {
	computed := liabilities + equity
	diff := assets - computed

	return &BalanceCheck{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       math.Abs(diff) <= tolerance,
		Tolerance:        tolerance,
	}
}

// =============================================================================
// OUTLIER DETECTION
// =============================================================================

// OutlierCheck identifies suspicious period-over-period moves.
type OutlierCheck struct {
	Item       string
	Value      float64
	PriorValue float64
	ChangePct  float64
	IsOutlier  bool
	Reason     string
	Threshold  float64
}

// CheckForOutlier flags a value that dropped to zero or moved by more than
// thresholdPct against the prior period.
func CheckForOutlier(item string, current, prior, thresholdPct float64) *OutlierCheck {
	changePct := ratio.GrowthRate(current, prior)

	check := &OutlierCheck{
		Item:       item,
		Value:      current,
		PriorValue: prior,
		ChangePct:  changePct,
		Threshold:  thresholdPct,
	}

	if current == 0 && prior != 0 {
		check.IsOutlier = true
		check.Reason = "value dropped to zero"
		return check
	}

	if math.Abs(changePct) > thresholdPct {
		check.IsOutlier = true
		check.Reason = fmt.Sprintf("change of %.1f%% exceeds threshold of %.1f%%", changePct, thresholdPct)
	}
	return check
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator runs every check against a year's rows.
type Validator struct {
	accounts         ratio.Accounts
	balanceTolerance float64
	outlierThreshold float64
}

// NewValidator builds a validator that resolves accounts the same way the
// ratio engine does.
func NewValidator(defs ratio.Definitions) *Validator {
	return &Validator{
		accounts:         defs.WithDefaults().Accounts,
		balanceTolerance: DefaultBalanceTolerance,
		outlierThreshold: DefaultOutlierThreshold,
	}
}

// Check validates rows, which must all belong to bsnsYear.
func (v *Validator) Check(bsnsYear string, rows []models.StatementRow) *Report {
	report := &Report{BsnsYear: bsnsYear, AllPassed: true}
	idx := index(rows)

	assets, okA := idx.find(models.DivBalanceSheet, v.accounts.TotalAssets)
	liabilities, okL := idx.find(models.DivBalanceSheet, v.accounts.TotalLiabilities)
	equity, okE := idx.find(models.DivBalanceSheet, v.accounts.TotalEquity)

	for _, m := range []struct {
		ok   bool
		name string
	}{
		{okA, first(v.accounts.TotalAssets)},
		{okL, first(v.accounts.TotalLiabilities)},
		{okE, first(v.accounts.TotalEquity)},
	} {
		if !m.ok {
			report.add(Finding{Check: CheckMissing, Account: m.name, Message: "balance sheet total not reported"})
		}
	}

	if okA && okL && okE {
		tol := math.Max(1, math.Abs(assets.ThstrmAmount)*v.balanceTolerance)
		bc := CheckBalanceEquation(assets.ThstrmAmount, liabilities.ThstrmAmount, equity.ThstrmAmount, tol)
		if !bc.IsBalanced {
			report.add(Finding{
				Check:   CheckBalance,
				Account: assets.AccountNm,
				Value:   bc.Difference,
				Message: fmt.Sprintf("assets %.0f differ from liabilities + equity %.0f", bc.TotalAssets, bc.ComputedAssets),
			})
		}
	}
	if okA && assets.ThstrmAmount < 0 {
		report.add(Finding{Check: CheckNegative, Account: assets.AccountNm, Value: assets.ThstrmAmount, Message: "total assets are negative"})
	}

	for _, div := range []struct {
		div   string
		names []string
	}{
		{models.DivBalanceSheet, v.accounts.TotalAssets},
		{models.DivIncomeStatement, v.accounts.Revenue},
		{models.DivIncomeStatement, v.accounts.NetIncome},
	} {
		r, ok := idx.find(div.div, div.names)
		if !ok || r.FrmtrmAmount == 0 {
			continue
		}
		oc := CheckForOutlier(r.AccountNm, r.ThstrmAmount, r.FrmtrmAmount, v.outlierThreshold)
		if oc.IsOutlier {
			report.add(Finding{Check: CheckOutlier, Account: oc.Item, Value: oc.ChangePct, Message: oc.Reason})
		}
	}

	return report
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

type rowIndex map[string]map[string]models.StatementRow

func index(rows []models.StatementRow) rowIndex {
	idx := rowIndex{}
	for _, r := range rows {
		if idx[r.SjDiv] == nil {
			idx[r.SjDiv] = map[string]models.StatementRow{}
		}
		if _, seen := idx[r.SjDiv][r.AccountNm]; !seen {
			idx[r.SjDiv][r.AccountNm] = r
		}
	}
	return idx
}

func (idx rowIndex) find(div string, names []string) (models.StatementRow, bool) {
	for _, name := range names {
		if r, ok := idx[div][name]; ok {
			return r, true
		}
	}
	return models.StatementRow{}, false
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
