package models

// Statement division codes as published by DART.
const (
	DivBalanceSheet    = "BS"
	DivIncomeStatement = "IS"
	DivCashFlow        = "CF"
)

// CashFlowStatementName is injected for rows fetched from the full-statement
// endpoint, which carries no division metadata for cash flow lines.
const CashFlowStatementName = "현금흐름표"

// RawLineItem is one disclosed account entry exactly as the upstream sends it.
// Amounts are strings with grouping separators and may be empty.
type RawLineItem struct {
	RceptNo         string `json:"rcept_no"`
	ReprtCode       string `json:"reprt_code"`
	BsnsYear        string `json:"bsns_year"`
	CorpCode        string `json:"corp_code"`
	CorpName        string `json:"corp_name,omitempty"`
	StockCode       string `json:"stock_code"`
	FsDiv           string `json:"fs_div,omitempty"`
	SjDiv           string `json:"sj_div"`
	SjNm            string `json:"sj_nm"`
	AccountNm       string `json:"account_nm"`
	ThstrmNm        string `json:"thstrm_nm"`
	ThstrmAmount    string `json:"thstrm_amount"`
	FrmtrmNm        string `json:"frmtrm_nm"`
	FrmtrmAmount    string `json:"frmtrm_amount"`
	BfefrmtrmNm     string `json:"bfefrmtrm_nm"`
	BfefrmtrmAmount string `json:"bfefrmtrm_amount"`
	Ord             string `json:"ord"`
	Currency        string `json:"currency"`
}

// StatementRow is a normalized line item: amounts parsed, period labels derived.
type StatementRow struct {
	CorpCode        string  `json:"corp_code"`
	CorpName        string  `json:"corp_name"`
	StockCode       string  `json:"stock_code"`
	RceptNo         string  `json:"rcept_no"`
	ReprtCode       string  `json:"reprt_code"`
	BsnsYear        string  `json:"bsns_year"`
	SjDiv           string  `json:"sj_div"`
	SjNm            string  `json:"sj_nm"`
	AccountNm       string  `json:"account_nm"`
	ThstrmNm        string  `json:"thstrm_nm"`
	ThstrmAmount    float64 `json:"thstrm_amount"`
	FrmtrmNm        string  `json:"frmtrm_nm"`
	FrmtrmAmount    float64 `json:"frmtrm_amount"`
	BfefrmtrmNm     string  `json:"bfefrmtrm_nm"`
	BfefrmtrmAmount float64 `json:"bfefrmtrm_amount"`
	Ord             int     `json:"ord"`
	Currency        string  `json:"currency"`
}

// DedupKey identifies one account within one statement.
type DedupKey struct {
	AccountName   string
	StatementName string
}

// Key returns the dedup key of the row.
func (r StatementRow) Key() DedupKey {
	return DedupKey{AccountName: r.AccountNm, StatementName: r.SjNm}
}

// CompanyInfo identifies a disclosing company.
type CompanyInfo struct {
	CorpCode   string `json:"corp_code"`
	CorpName   string `json:"corp_name"`
	StockCode  string `json:"stock_code"`
	ModifyDate string `json:"modify_date,omitempty"`
}

// SummaryRow counts persisted line items per company and statement.
type SummaryRow struct {
	CorpCode string `json:"corp_code"`
	CorpName string `json:"corp_name"`
	SjDiv    string `json:"sj_div"`
	SjNm     string `json:"sj_nm"`
	Count    int    `json:"count"`
}

// CompanyFinancials is everything persisted for one company.
type CompanyFinancials struct {
	Company    CompanyInfo    `json:"company"`
	Statements []StatementRow `json:"statements"`
	Ratios     []RatioRecord  `json:"ratios"`
}
