package ratio

import (
	"math"
	"testing"

	"fin_ratio/pkg/models"

	"github.com/stretchr/testify/assert"
)

func bs(account string, cur float64) models.StatementRow {
	return models.StatementRow{SjDiv: models.DivBalanceSheet, AccountNm: account, ThstrmAmount: cur, BsnsYear: "2023"}
}

func is(account string, cur, prior float64) models.StatementRow {
	return models.StatementRow{SjDiv: models.DivIncomeStatement, AccountNm: account, ThstrmAmount: cur, FrmtrmAmount: prior, BsnsYear: "2023"}
}

func cf(account string, cur float64) models.StatementRow {
	return models.StatementRow{SjDiv: models.DivCashFlow, AccountNm: account, ThstrmAmount: cur, BsnsYear: "2023"}
}

var acme = models.CompanyInfo{CorpCode: "00000001", CorpName: "Acme Corp"}

func TestCompute_AcmeScenario(t *testing.T) {
	rows := []models.StatementRow{
		bs("자산총계", 1000), bs("부채총계", 400), bs("자본총계", 600),
		is("매출액", 2000, 0), is("영업이익", 300, 0), is("당기순이익", 200, 0),
	}

	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)

	assert.Equal(t, "00000001", rec.CorpCode)
	assert.Equal(t, "Acme Corp", rec.CorpName)
	assert.Equal(t, "2023", rec.BsnsYear)
	assert.Equal(t, 66.67, rec.DebtRatio)
	assert.Equal(t, 0.0, rec.CurrentRatio)
	assert.Equal(t, 33.33, rec.ROE)
	assert.Equal(t, 20.0, rec.ROA)
	assert.Equal(t, 15.0, rec.OperatingProfitRatio)
	assert.Equal(t, 10.0, rec.NetProfitRatio)
	assert.Equal(t, 0.0, rec.InterestCoverageRatio)
	assert.Equal(t, 0.0, rec.SalesGrowth)
}

func TestCompute_NoRowsIsAllZero(t *testing.T) {
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", nil)
	for _, nv := range rec.Ratios() {
		assert.Equalf(t, 0.0, nv.Value, "%s should be 0", nv.Name)
	}
}

func TestCompute_ZeroDenominators(t *testing.T) {
	rows := []models.StatementRow{
		bs("자산총계", 0), bs("부채총계", 400), bs("자본총계", 0),
		bs("유동자산", 50), bs("유동부채", 0),
		is("매출액", 0, 0), is("영업이익", 300, 0), is("당기순이익", 200, 0),
		is("이자비용", 0, 0),
	}
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)
	for _, nv := range rec.Ratios() {
		assert.False(t, math.IsNaN(nv.Value) || math.IsInf(nv.Value, 0), nv.Name)
	}
	assert.Equal(t, 0.0, rec.DebtRatio)
	assert.Equal(t, 0.0, rec.CurrentRatio)
	assert.Equal(t, 0.0, rec.OperatingProfitRatio)
	assert.Equal(t, 0.0, rec.ROE)
	assert.Equal(t, 0.0, rec.ROA)
	assert.Equal(t, 0.0, rec.InterestCoverageRatio)
}

func TestCompute_FullSet(t *testing.T) {
	rows := []models.StatementRow{
		bs("자산총계", 5000), bs("부채총계", 2000), bs("자본총계", 3000),
		bs("유동자산", 1500), bs("유동부채", 1000), bs("비유동부채", 1000),
		bs("단기차입금", 300), bs("장기차입금", 500),
		is("매출액", 4000, 3200), is("영업이익", 600, 800), is("당기순이익", 450, -150),
		is("이자비용", 120, 100), is("기본주당이익", 1100, 1000),
		cf("영업활동현금흐름", 700),
	}
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)

	assert.Equal(t, 66.67, rec.DebtRatio)
	assert.Equal(t, 150.0, rec.CurrentRatio)
	assert.Equal(t, 5.0, rec.InterestCoverageRatio)
	assert.Equal(t, 15.0, rec.OperatingProfitRatio)
	assert.Equal(t, 11.25, rec.NetProfitRatio)
	assert.Equal(t, 15.0, rec.ROE)
	assert.Equal(t, 9.0, rec.ROA)
	assert.Equal(t, 100.0, rec.DebtDependency)
	assert.Equal(t, 35.0, rec.CashFlowDebtRatio)
	assert.Equal(t, 25.0, rec.SalesGrowth)
	assert.Equal(t, -25.0, rec.OperatingProfitGrowth)
	assert.Equal(t, 10.0, rec.EPSGrowth)
}

func TestCompute_BorrowingsPolicy(t *testing.T) {
	defs := DefaultDefinitions()
	defs.DebtDependency = PolicyBorrowings
	rows := []models.StatementRow{
		bs("부채총계", 2000), bs("유동부채", 1000), bs("비유동부채", 1000),
		bs("단기차입금", 300), bs("장기차입금", 500), bs("사채", 200),
	}
	rec := NewEngine(defs).Compute(acme, "2023", rows)
	assert.Equal(t, 50.0, rec.DebtDependency)
}

func TestCompute_DebtDependencyNeedsEveryOperand(t *testing.T) {
	borrowings := DefaultDefinitions()
	borrowings.DebtDependency = PolicyBorrowings

	tests := []struct {
		name string
		defs Definitions
		rows []models.StatementRow
		want float64
	}{
		{
			name: "liability split without non-current liabilities",
			defs: DefaultDefinitions(),
			rows: []models.StatementRow{bs("부채총계", 400), bs("유동부채", 100)},
			want: 0,
		},
		{
			name: "liability split without current liabilities",
			defs: DefaultDefinitions(),
			rows: []models.StatementRow{bs("부채총계", 400), bs("비유동부채", 300)},
			want: 0,
		},
		{
			name: "liability split with both halves",
			defs: DefaultDefinitions(),
			rows: []models.StatementRow{bs("부채총계", 400), bs("유동부채", 100), bs("비유동부채", 300)},
			want: 100,
		},
		{
			name: "borrowings without any borrowing line",
			defs: borrowings,
			rows: []models.StatementRow{bs("부채총계", 400), bs("유동부채", 100), bs("비유동부채", 300)},
			want: 0,
		},
		{
			name: "borrowings with one borrowing line",
			defs: borrowings,
			rows: []models.StatementRow{bs("부채총계", 400), bs("단기차입금", 100)},
			want: 25,
		},
		{
			name: "borrowings without total liabilities",
			defs: borrowings,
			rows: []models.StatementRow{bs("단기차입금", 100)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewEngine(tt.defs).Compute(acme, "2023", tt.rows)
			assert.Equal(t, tt.want, rec.DebtDependency)
		})
	}
}

func TestCompute_FinanceCostsAreNotInterest(t *testing.T) {
	rows := []models.StatementRow{is("영업이익", 600, 0), is("금융비용", 200, 0)}
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)
	assert.Equal(t, 0.0, rec.InterestCoverageRatio)
}

func TestCompute_EPSGrowthFallsBackToNetIncome(t *testing.T) {
	rows := []models.StatementRow{is("당기순이익", 50, -100)}
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)
	assert.Equal(t, 150.0, rec.EPSGrowth)
}

func TestCompute_AlternateAccountNames(t *testing.T) {
	rows := []models.StatementRow{
		is("영업수익", 1000, 0), is("영업이익(손실)", 100, 0),
	}
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)
	assert.Equal(t, 10.0, rec.OperatingProfitRatio)
}

func TestCompute_DuplicateNameLastSeenWins(t *testing.T) {
	rows := []models.StatementRow{
		bs("부채총계", 100), bs("자본총계", 100), bs("부채총계", 300),
	}
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)
	assert.Equal(t, 300.0, rec.DebtRatio)
}

func TestCompute_IgnoresUnknownDivision(t *testing.T) {
	rows := []models.StatementRow{
		{SjDiv: "CIS", AccountNm: "매출액", ThstrmAmount: 1000},
		is("영업이익", 100, 0),
	}
	rec := NewEngine(DefaultDefinitions()).Compute(acme, "2023", rows)
	assert.Equal(t, 0.0, rec.OperatingProfitRatio)
}

func TestGrowthRate(t *testing.T) {
	assert.Equal(t, 150.0, GrowthRate(50, -100))
	assert.Equal(t, 0.0, GrowthRate(50, 0))
	assert.Equal(t, -50.0, GrowthRate(50, 100))
	assert.Equal(t, 100.0, GrowthRate(0, -100))
}

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 0.0, SafeDiv(10, 0))
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 2.5, SafeDiv(5, 2))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, Round2(400.0/600.0*100))
	assert.Equal(t, 33.33, Round2(200.0/600.0*100))
	assert.Equal(t, -0.5, Round2(-0.499999))
	assert.Equal(t, 0.0, Round2(math.NaN()))
}

func TestDefinitionsValidate(t *testing.T) {
	assert.NoError(t, DefaultDefinitions().Validate())
	assert.Error(t, Definitions{DebtDependency: "unknown"}.Validate())
	assert.NoError(t, Definitions{}.WithDefaults().Validate())
}

func TestKeyAccounts(t *testing.T) {
	keys := DefaultDefinitions().KeyAccounts()
	assert.Contains(t, keys, "자산총계")
	assert.Contains(t, keys, "영업활동현금흐름")
	assert.NotContains(t, keys, "이자비용")
}
