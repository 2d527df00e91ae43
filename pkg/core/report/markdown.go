// Package report renders stored financials for people: a markdown/HTML ratio
// report and an XLSX workbook.
package report

import (
	"fmt"
	"html"
	"strings"

	"fin_ratio/pkg/core/utils"
	"fin_ratio/pkg/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RatioLabels are the display names of the ratio fields, keyed by json name.
var RatioLabels = map[string]string{
	"debt_ratio":              "부채비율 (%)",
	"current_ratio":           "유동비율 (%)",
	"interest_coverage_ratio": "이자보상배율 (배)",
	"operating_profit_ratio":  "영업이익률 (%)",
	"net_profit_ratio":        "순이익률 (%)",
	"roe":                     "ROE (%)",
	"roa":                     "ROA (%)",
	"debt_dependency":         "차입금의존도 (%)",
	"cash_flow_debt_ratio":    "현금흐름 대 부채비율 (%)",
	"sales_growth":            "매출액 증가율 (%)",
	"operating_profit_growth": "영업이익 증가율 (%)",
	"eps_growth":              "EPS 증가율 (%)",
}

// Label returns the display name of a ratio field.
func Label(name string) string {
	if l, ok := RatioLabels[name]; ok {
		return l
	}
	return name
}

var printer = message.NewPrinter(language.Korean)

// FormatRatio formats a ratio with two decimals and digit grouping.
func FormatRatio(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// FormatAmount formats a statement amount with digit grouping.
func FormatAmount(v float64) string {
	return printer.Sprintf("%.0f", v)
}

// Markdown renders the ratio table (one column per year, newest first) and
// the statement rows of the newest year.
func Markdown(fin *models.CompanyFinancials) string {
	var b strings.Builder
	c := fin.Company

	fmt.Fprintf(&b, "# %s (%s)\n\n", c.CorpName, c.CorpCode)
	if c.StockCode != "" {
		fmt.Fprintf(&b, "종목코드: %s\n\n", c.StockCode)
	}

	b.WriteString("## 재무비율\n\n")
	if len(fin.Ratios) == 0 {
		b.WriteString("저장된 재무비율이 없습니다.\n\n")
	} else {
		b.WriteString("| 비율 |")
		for _, r := range fin.Ratios {
			fmt.Fprintf(&b, " %s |", r.BsnsYear)
		}
		b.WriteString("\n|---|")
		b.WriteString(strings.Repeat("---:|", len(fin.Ratios)))
		b.WriteString("\n")

		names := fin.Ratios[0].Ratios()
		for i, nv := range names {
			fmt.Fprintf(&b, "| %s |", Label(nv.Name))
			for j := range fin.Ratios {
				fmt.Fprintf(&b, " %s |", FormatRatio(fin.Ratios[j].Ratios()[i].Value))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	year := latestStatementYear(fin.Statements)
	if year == "" {
		return b.String()
	}

	fmt.Fprintf(&b, "## 주요 계정 (%s)\n\n", year)
	b.WriteString("| 구분 | 계정 | 당기 | 전기 |\n|---|---|---:|---:|\n")
	for _, r := range fin.Statements {
		if r.BsnsYear != year {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			r.SjDiv, escapeCell(r.AccountNm), FormatAmount(r.ThstrmAmount), FormatAmount(r.FrmtrmAmount))
	}
	return b.String()
}

// HTML renders Markdown(fin) into a standalone HTML page.
func HTML(fin *models.CompanyFinancials) (string, error) {
	body, err := utils.RenderHTML(Markdown(fin))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(htmlPage, html.EscapeString(fin.Company.CorpName), body), nil
}

const htmlPage = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
td { text-align: right; }
</style>
</head>
<body>
%s</body>
</html>
`

func latestStatementYear(rows []models.StatementRow) string {
	var newest string
	for _, r := range rows {
		if r.BsnsYear > newest {
			newest = r.BsnsYear
		}
	}
	return newest
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
