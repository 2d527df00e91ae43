// Package ratio derives the fixed set of financial ratios from normalized
// statement rows of a single company and business year.
package ratio

import (
	"math"

	"fin_ratio/pkg/models"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LOOKUP
// =============================================================================

// book indexes one year's rows by division and account name. Duplicate
// account names within a division collapse to the last row seen.
type book map[string]map[string]models.StatementRow

func newBook(rows []models.StatementRow) book {
	b := book{
		models.DivBalanceSheet:    {},
		models.DivIncomeStatement: {},
		models.DivCashFlow:        {},
	}
	for _, r := range rows {
		div, ok := b[r.SjDiv]
		if !ok {
			continue
		}
		div[r.AccountNm] = r
	}
	return b
}

// find returns the first account from names present in the division.
func (b book) find(div string, names []string) (models.StatementRow, bool) {
	for _, name := range names {
		if r, ok := b[div][name]; ok {
			return r, true
		}
	}
	return models.StatementRow{}, false
}

// current returns the current-period amount, 0 when absent.
func (b book) current(div string, names []string) float64 {
	r, _ := b.find(div, names)
	return r.ThstrmAmount
}

// sum adds the current-period amounts of every listed account present.
// ok is false when none of them is.
func (b book) sum(div string, names []string) (total float64, ok bool) {
	for _, name := range names {
		if r, found := b[div][name]; found {
			total += r.ThstrmAmount
			ok = true
		}
	}
	return total, ok
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes RatioRecords according to its Definitions.
type Engine struct {
	defs Definitions
}

// NewEngine creates an engine; empty account lists fall back to the defaults.
func NewEngine(defs Definitions) *Engine {
	return &Engine{defs: defs.WithDefaults()}
}

// Definitions returns the effective definitions.
func (e *Engine) Definitions() Definitions {
	return e.defs
}

// Compute derives the ratios for one company and business year. rows must
// already be restricted to that year.
func (e *Engine) Compute(company models.CompanyInfo, bsnsYear string, rows []models.StatementRow) models.RatioRecord {
	a := e.defs.Accounts
	b := newBook(rows)

	rec := models.RatioRecord{
		CorpCode: company.CorpCode,
		CorpName: company.CorpName,
		BsnsYear: bsnsYear,
	}

	// Stability
	totalAssets := b.current(models.DivBalanceSheet, a.TotalAssets)
	totalLiabilities := b.current(models.DivBalanceSheet, a.TotalLiabilities)
	totalEquity := b.current(models.DivBalanceSheet, a.TotalEquity)
	currentAssets := b.current(models.DivBalanceSheet, a.CurrentAssets)
	currentLiabilities := b.current(models.DivBalanceSheet, a.CurrentLiabilities)

	rec.DebtRatio = Percent(totalLiabilities, totalEquity)
	rec.CurrentRatio = Percent(currentAssets, currentLiabilities)

	// Profitability
	revenue, hasRevenue := b.find(models.DivIncomeStatement, a.Revenue)
	operatingProfit, hasOperatingProfit := b.find(models.DivIncomeStatement, a.OperatingProfit)
	netIncome, hasNetIncome := b.find(models.DivIncomeStatement, a.NetIncome)
	interestExpense := b.current(models.DivIncomeStatement, a.InterestExpense)

	rec.OperatingProfitRatio = Percent(operatingProfit.ThstrmAmount, revenue.ThstrmAmount)
	rec.NetProfitRatio = Percent(netIncome.ThstrmAmount, revenue.ThstrmAmount)
	rec.ROE = Percent(netIncome.ThstrmAmount, totalEquity)
	rec.ROA = Percent(netIncome.ThstrmAmount, totalAssets)
	rec.InterestCoverageRatio = SafeDiv(operatingProfit.ThstrmAmount, math.Abs(interestExpense))

	// Soundness
	if numerator, ok := e.debtNumerator(b); ok {
		rec.DebtDependency = Percent(numerator, totalLiabilities)
	}
	operatingCashFlow := b.current(models.DivCashFlow, a.OperatingCashFlow)
	rec.CashFlowDebtRatio = Percent(operatingCashFlow, totalLiabilities)

	// Growth (current vs prior period columns of the same filing)
	if hasRevenue {
		rec.SalesGrowth = GrowthRate(revenue.ThstrmAmount, revenue.FrmtrmAmount)
	}
	if hasOperatingProfit {
		rec.OperatingProfitGrowth = GrowthRate(operatingProfit.ThstrmAmount, operatingProfit.FrmtrmAmount)
	}
	if eps, ok := b.find(models.DivIncomeStatement, a.EPS); ok {
		rec.EPSGrowth = GrowthRate(eps.ThstrmAmount, eps.FrmtrmAmount)
	} else if hasNetIncome {
		rec.EPSGrowth = GrowthRate(netIncome.ThstrmAmount, netIncome.FrmtrmAmount)
	}

	roundRecord(&rec)
	return rec
}

// debtNumerator returns the debt_dependency numerator under the configured
// policy. ok is false when a required operand is missing: liability_split
// needs both liability halves, borrowings needs at least one borrowing line.
func (e *Engine) debtNumerator(b book) (float64, bool) {
	a := e.defs.Accounts
	switch e.defs.DebtDependency {
	case PolicyBorrowings:
		return b.sum(models.DivBalanceSheet, a.Borrowings)
	default:
		current, okCur := b.find(models.DivBalanceSheet, a.CurrentLiabilities)
		nonCurrent, okNon := b.find(models.DivBalanceSheet, a.NonCurrentLiabilities)
		if !okCur || !okNon {
			return 0, false
		}
		return current.ThstrmAmount + nonCurrent.ThstrmAmount, true
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// SafeDiv returns 0 when the denominator is 0.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Percent is SafeDiv scaled to percent.
func Percent(numerator, denominator float64) float64 {
	return SafeDiv(numerator, denominator) * 100
}

// GrowthRate is (current - previous) / |previous| in percent, 0 when previous is 0.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / math.Abs(previous) * 100
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundRecord(r *models.RatioRecord) {
	for _, f := range []*float64{
		&r.DebtRatio, &r.CurrentRatio, &r.InterestCoverageRatio,
		&r.OperatingProfitRatio, &r.NetProfitRatio, &r.ROE, &r.ROA,
		&r.DebtDependency, &r.CashFlowDebtRatio,
		&r.SalesGrowth, &r.OperatingProfitGrowth, &r.EPSGrowth,
	} {
		*f = Round2(*f)
	}
}
