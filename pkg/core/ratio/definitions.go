package ratio

import (
	"fmt"
)

// DebtDependencyPolicy selects how debt_dependency is derived. Two formulas
// are in use and neither has been confirmed by the finance team, so the
// choice is a deployment setting.
type DebtDependencyPolicy string

const (
	// PolicyLiabilitySplit: (current liabilities + non-current liabilities) / total liabilities.
	PolicyLiabilitySplit DebtDependencyPolicy = "liability_split"
	// PolicyBorrowings: sum of borrowing accounts / total liabilities.
	PolicyBorrowings DebtDependencyPolicy = "borrowings"
)

// Accounts maps every ratio operand to the account names it may appear under.
// Names are tried in order; the first one present wins.
type Accounts struct {
	TotalAssets           []string `yaml:"total_assets"`
	TotalLiabilities      []string `yaml:"total_liabilities"`
	TotalEquity           []string `yaml:"total_equity"`
	CurrentAssets         []string `yaml:"current_assets"`
	CurrentLiabilities    []string `yaml:"current_liabilities"`
	NonCurrentLiabilities []string `yaml:"non_current_liabilities"`
	Borrowings            []string `yaml:"borrowings"`
	Revenue               []string `yaml:"revenue"`
	OperatingProfit       []string `yaml:"operating_profit"`
	NetIncome             []string `yaml:"net_income"`
	InterestExpense       []string `yaml:"interest_expense"`
	EPS                   []string `yaml:"eps"`
	OperatingCashFlow     []string `yaml:"operating_cash_flow"`
}

// Definitions configures the ratio engine.
type Definitions struct {
	DebtDependency DebtDependencyPolicy `yaml:"debt_dependency_policy"`
	Accounts       Accounts             `yaml:"accounts"`
}

// DefaultDefinitions returns the account names used by K-IFRS filings on DART.
func DefaultDefinitions() Definitions {
	return Definitions{
		DebtDependency: PolicyLiabilitySplit,
		Accounts: Accounts{
			TotalAssets:           []string{"자산총계"},
			TotalLiabilities:      []string{"부채총계"},
			TotalEquity:           []string{"자본총계"},
			CurrentAssets:         []string{"유동자산"},
			CurrentLiabilities:    []string{"유동부채"},
			NonCurrentLiabilities: []string{"비유동부채"},
			Borrowings:            []string{"단기차입금", "장기차입금", "사채", "유동성장기부채"},
			Revenue:               []string{"매출액", "수익(매출액)", "영업수익"},
			OperatingProfit:       []string{"영업이익", "영업이익(손실)"},
			NetIncome:             []string{"당기순이익", "당기순이익(손실)"},
			InterestExpense:       []string{"이자비용"},
			EPS:                   []string{"기본주당이익", "기본주당이익(손실)"},
			OperatingCashFlow:     []string{"영업활동현금흐름", "영업활동으로 인한 현금흐름"},
		},
	}
}

// WithDefaults fills every empty setting from DefaultDefinitions.
func (d Definitions) WithDefaults() Definitions {
	def := DefaultDefinitions()
	if d.DebtDependency == "" {
		d.DebtDependency = def.DebtDependency
	}
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	a := &d.Accounts
	fill(&a.TotalAssets, def.Accounts.TotalAssets)
	fill(&a.TotalLiabilities, def.Accounts.TotalLiabilities)
	fill(&a.TotalEquity, def.Accounts.TotalEquity)
	fill(&a.CurrentAssets, def.Accounts.CurrentAssets)
	fill(&a.CurrentLiabilities, def.Accounts.CurrentLiabilities)
	fill(&a.NonCurrentLiabilities, def.Accounts.NonCurrentLiabilities)
	fill(&a.Borrowings, def.Accounts.Borrowings)
	fill(&a.Revenue, def.Accounts.Revenue)
	fill(&a.OperatingProfit, def.Accounts.OperatingProfit)
	fill(&a.NetIncome, def.Accounts.NetIncome)
	fill(&a.InterestExpense, def.Accounts.InterestExpense)
	fill(&a.EPS, def.Accounts.EPS)
	fill(&a.OperatingCashFlow, def.Accounts.OperatingCashFlow)
	return d
}

// Validate rejects unknown policies.
func (d Definitions) Validate() error {
	switch d.DebtDependency {
	case PolicyLiabilitySplit, PolicyBorrowings:
		return nil
	default:
		return fmt.Errorf("unknown debt_dependency_policy %q (want %q or %q)",
			d.DebtDependency, PolicyLiabilitySplit, PolicyBorrowings)
	}
}

// KeyAccounts lists every account name that feeds the headline balance sheet,
// income statement and cash flow figures.
func (d Definitions) KeyAccounts() []string {
	a := d.WithDefaults().Accounts
	var out []string
	for _, names := range [][]string{
		a.TotalAssets, a.TotalLiabilities, a.TotalEquity,
		a.CurrentAssets, a.CurrentLiabilities,
		a.Revenue, a.OperatingProfit, a.NetIncome,
		a.OperatingCashFlow,
	} {
		out = append(out, names...)
	}
	return out
}
