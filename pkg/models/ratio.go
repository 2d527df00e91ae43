package models

// RatioRecord holds the derived ratios for one (company, business year).
// Absent inputs leave a ratio at zero.
type RatioRecord struct {
	CorpCode string `json:"corp_code"`
	CorpName string `json:"corp_name"`
	BsnsYear string `json:"bsns_year"`

	// Stability
	DebtRatio             float64 `json:"debt_ratio"`
	CurrentRatio          float64 `json:"current_ratio"`
	InterestCoverageRatio float64 `json:"interest_coverage_ratio"`

	// Profitability
	OperatingProfitRatio float64 `json:"operating_profit_ratio"`
	NetProfitRatio       float64 `json:"net_profit_ratio"`
	ROE                  float64 `json:"roe"`
	ROA                  float64 `json:"roa"`

	// Soundness
	DebtDependency    float64 `json:"debt_dependency"`
	CashFlowDebtRatio float64 `json:"cash_flow_debt_ratio"`

	// Growth
	SalesGrowth           float64 `json:"sales_growth"`
	OperatingProfitGrowth float64 `json:"operating_profit_growth"`
	EPSGrowth             float64 `json:"eps_growth"`
}

// NamedValue is one ratio in display order.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Ratios lists the ratio fields in their canonical order.
func (r *RatioRecord) Ratios() []NamedValue {
	return []NamedValue{
		{"debt_ratio", r.DebtRatio},
		{"current_ratio", r.CurrentRatio},
		{"interest_coverage_ratio", r.InterestCoverageRatio},
		{"operating_profit_ratio", r.OperatingProfitRatio},
		{"net_profit_ratio", r.NetProfitRatio},
		{"roe", r.ROE},
		{"roa", r.ROA},
		{"debt_dependency", r.DebtDependency},
		{"cash_flow_debt_ratio", r.CashFlowDebtRatio},
		{"sales_growth", r.SalesGrowth},
		{"operating_profit_growth", r.OperatingProfitGrowth},
		{"eps_growth", r.EPSGrowth},
	}
}
