package store

import (
	"strconv"
	"strings"

	"fin_ratio/pkg/models"
)

// Statement rows live in fin_data; derived ratios live in fin_ratio so that
// statement reads never see them.

const pgSchema = `
CREATE TABLE IF NOT EXISTS fin_data (
	id               BIGSERIAL PRIMARY KEY,
	corp_code        VARCHAR(8)       NOT NULL,
	corp_name        VARCHAR(255)     NOT NULL,
	stock_code       VARCHAR(6)       NOT NULL DEFAULT '',
	rcept_no         VARCHAR(14)      NOT NULL DEFAULT '',
	reprt_code       VARCHAR(5)       NOT NULL DEFAULT '',
	bsns_year        VARCHAR(4)       NOT NULL,
	sj_div           VARCHAR(3)       NOT NULL,
	sj_nm            VARCHAR(100)     NOT NULL DEFAULT '',
	account_nm       VARCHAR(255)     NOT NULL,
	thstrm_nm        VARCHAR(20)      NOT NULL DEFAULT '',
	thstrm_amount    DOUBLE PRECISION NOT NULL DEFAULT 0,
	frmtrm_nm        VARCHAR(20)      NOT NULL DEFAULT '',
	frmtrm_amount    DOUBLE PRECISION NOT NULL DEFAULT 0,
	bfefrmtrm_nm     VARCHAR(20)      NOT NULL DEFAULT '',
	bfefrmtrm_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	ord              INTEGER          NOT NULL DEFAULT 0,
	currency         VARCHAR(3)       NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fin_data_corp_year ON fin_data (corp_code, bsns_year);
CREATE INDEX IF NOT EXISTS idx_fin_data_corp_name ON fin_data (corp_name);

CREATE TABLE IF NOT EXISTS fin_ratio (
	corp_code               VARCHAR(8)       NOT NULL,
	corp_name               VARCHAR(255)     NOT NULL,
	bsns_year               VARCHAR(4)       NOT NULL,
	debt_ratio              DOUBLE PRECISION NOT NULL DEFAULT 0,
	current_ratio           DOUBLE PRECISION NOT NULL DEFAULT 0,
	interest_coverage_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
	operating_profit_ratio  DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_profit_ratio        DOUBLE PRECISION NOT NULL DEFAULT 0,
	roe                     DOUBLE PRECISION NOT NULL DEFAULT 0,
	roa                     DOUBLE PRECISION NOT NULL DEFAULT 0,
	debt_dependency         DOUBLE PRECISION NOT NULL DEFAULT 0,
	cash_flow_debt_ratio    DOUBLE PRECISION NOT NULL DEFAULT 0,
	sales_growth            DOUBLE PRECISION NOT NULL DEFAULT 0,
	operating_profit_growth DOUBLE PRECISION NOT NULL DEFAULT 0,
	eps_growth              DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at              TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
	PRIMARY KEY (corp_code, bsns_year)
);
`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS fin_data (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		corp_code        TEXT    NOT NULL,
		corp_name        TEXT    NOT NULL,
		stock_code       TEXT    NOT NULL DEFAULT '',
		rcept_no         TEXT    NOT NULL DEFAULT '',
		reprt_code       TEXT    NOT NULL DEFAULT '',
		bsns_year        TEXT    NOT NULL,
		sj_div           TEXT    NOT NULL,
		sj_nm            TEXT    NOT NULL DEFAULT '',
		account_nm       TEXT    NOT NULL,
		thstrm_nm        TEXT    NOT NULL DEFAULT '',
		thstrm_amount    REAL    NOT NULL DEFAULT 0,
		frmtrm_nm        TEXT    NOT NULL DEFAULT '',
		frmtrm_amount    REAL    NOT NULL DEFAULT 0,
		bfefrmtrm_nm     TEXT    NOT NULL DEFAULT '',
		bfefrmtrm_amount REAL    NOT NULL DEFAULT 0,
		ord              INTEGER NOT NULL DEFAULT 0,
		currency         TEXT    NOT NULL DEFAULT '',
		created_at       TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fin_data_corp_year ON fin_data (corp_code, bsns_year)`,
	`CREATE INDEX IF NOT EXISTS idx_fin_data_corp_name ON fin_data (corp_name)`,
	`CREATE TABLE IF NOT EXISTS fin_ratio (
		corp_code               TEXT NOT NULL,
		corp_name               TEXT NOT NULL,
		bsns_year               TEXT NOT NULL,
		debt_ratio              REAL NOT NULL DEFAULT 0,
		current_ratio           REAL NOT NULL DEFAULT 0,
		interest_coverage_ratio REAL NOT NULL DEFAULT 0,
		operating_profit_ratio  REAL NOT NULL DEFAULT 0,
		net_profit_ratio        REAL NOT NULL DEFAULT 0,
		roe                     REAL NOT NULL DEFAULT 0,
		roa                     REAL NOT NULL DEFAULT 0,
		debt_dependency         REAL NOT NULL DEFAULT 0,
		cash_flow_debt_ratio    REAL NOT NULL DEFAULT 0,
		sales_growth            REAL NOT NULL DEFAULT 0,
		operating_profit_growth REAL NOT NULL DEFAULT 0,
		eps_growth              REAL NOT NULL DEFAULT 0,
		updated_at              TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (corp_code, bsns_year)
	)`,
}

// Shared column lists. Both drivers scan in this order.
const (
	statementColumns = `corp_code, corp_name, stock_code, rcept_no, reprt_code, bsns_year,
		sj_div, sj_nm, account_nm, thstrm_nm, thstrm_amount, frmtrm_nm, frmtrm_amount,
		bfefrmtrm_nm, bfefrmtrm_amount, ord, currency`

	ratioColumns = `corp_code, corp_name, bsns_year, debt_ratio, current_ratio,
		interest_coverage_ratio, operating_profit_ratio, net_profit_ratio, roe, roa,
		debt_dependency, cash_flow_debt_ratio, sales_growth, operating_profit_growth, eps_growth`
)

// rowScanner is satisfied by pgx.Row(s) and *sql.Row(s).
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatement(s rowScanner) (models.StatementRow, error) {
	var r models.StatementRow
	err := s.Scan(
		&r.CorpCode, &r.CorpName, &r.StockCode, &r.RceptNo, &r.ReprtCode, &r.BsnsYear,
		&r.SjDiv, &r.SjNm, &r.AccountNm, &r.ThstrmNm, &r.ThstrmAmount, &r.FrmtrmNm, &r.FrmtrmAmount,
		&r.BfefrmtrmNm, &r.BfefrmtrmAmount, &r.Ord, &r.Currency,
	)
	return r, err
}

func statementArgs(r models.StatementRow) []any {
	return []any{
		r.CorpCode, r.CorpName, r.StockCode, r.RceptNo, r.ReprtCode, r.BsnsYear,
		r.SjDiv, r.SjNm, r.AccountNm, r.ThstrmNm, r.ThstrmAmount, r.FrmtrmNm, r.FrmtrmAmount,
		r.BfefrmtrmNm, r.BfefrmtrmAmount, r.Ord, r.Currency,
	}
}

func scanRatio(s rowScanner) (models.RatioRecord, error) {
	var r models.RatioRecord
	err := s.Scan(
		&r.CorpCode, &r.CorpName, &r.BsnsYear, &r.DebtRatio, &r.CurrentRatio,
		&r.InterestCoverageRatio, &r.OperatingProfitRatio, &r.NetProfitRatio, &r.ROE, &r.ROA,
		&r.DebtDependency, &r.CashFlowDebtRatio, &r.SalesGrowth, &r.OperatingProfitGrowth, &r.EPSGrowth,
	)
	return r, err
}

func ratioArgs(r *models.RatioRecord) []any {
	return []any{
		r.CorpCode, r.CorpName, r.BsnsYear, r.DebtRatio, r.CurrentRatio,
		r.InterestCoverageRatio, r.OperatingProfitRatio, r.NetProfitRatio, r.ROE, r.ROA,
		r.DebtDependency, r.CashFlowDebtRatio, r.SalesGrowth, r.OperatingProfitGrowth, r.EPSGrowth,
	}
}

// placeholders returns "$1, $2, ..., $n" (Postgres) or "?, ?, ..." (SQLite).
func placeholders(n int, dollar bool) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		if dollar {
			b.WriteString("$" + strconv.Itoa(i))
		} else {
			b.WriteString("?")
		}
	}
	return b.String()
}

const (
	statementColumnCount = 17
	ratioColumnCount     = 15
)
