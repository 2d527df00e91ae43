// Package statement turns raw disclosure line items into normalized rows and
// reduces them to one row per account and statement.
package statement

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fin_ratio/pkg/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned by ParseAmount for blank or dash-only input.
var ErrEmptyAmount = errors.New("empty amount")

// unorderedRank is assigned to rows whose display order cannot be parsed so
// that they lose every tie-break.
const unorderedRank = math.MaxInt32

// ParseAmount parses a disclosure amount such as "1,234,567" or "-9,876".
func ParseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" || cleaned == "-" {
		return 0, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

// PeriodLabels derives the current, prior and prior-prior period labels for a
// business year, e.g. "2023" -> "2023년", "2022년", "2021년".
func PeriodLabels(bsnsYear, marker string) (string, string, string, error) {
	year, err := strconv.Atoi(strings.TrimSpace(bsnsYear))
	if err != nil {
		return "", "", "", fmt.Errorf("invalid business year %q: %w", bsnsYear, err)
	}
	label := func(y int) string { return strconv.Itoa(y) + marker }
	return label(year), label(year - 1), label(year - 2), nil
}

// InjectCashFlow fills in division metadata for rows from the full-statement
// endpoint, which omits it for cash flow lines.
func InjectCashFlow(items []models.RawLineItem) []models.RawLineItem {
	for i := range items {
		if items[i].SjDiv == "" {
			items[i].SjDiv = models.DivCashFlow
		}
		if items[i].SjNm == "" {
			items[i].SjNm = models.CashFlowStatementName
		}
	}
	return items
}

// Normalizer converts RawLineItems into StatementRows.
type Normalizer struct {
	yearMarker string
	log        zerolog.Logger
}

// NewNormalizer creates a normalizer that suffixes period labels with yearMarker.
func NewNormalizer(yearMarker string, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		yearMarker: yearMarker,
		log:        logger.With().Str("component", "normalizer").Logger(),
	}
}

// Normalize converts one item. Amount problems degrade to zero; a malformed
// business year fails the row.
func (n *Normalizer) Normalize(raw models.RawLineItem, company models.CompanyInfo) (models.StatementRow, error) {
	cur, prior, priorPrior, err := PeriodLabels(raw.BsnsYear, n.yearMarker)
	if err != nil {
		return models.StatementRow{}, err
	}

	row := models.StatementRow{
		CorpCode:        firstNonEmpty(company.CorpCode, raw.CorpCode),
		CorpName:        firstNonEmpty(company.CorpName, raw.CorpName),
		StockCode:       firstNonEmpty(company.StockCode, raw.StockCode),
		RceptNo:         raw.RceptNo,
		ReprtCode:       raw.ReprtCode,
		BsnsYear:        strings.TrimSpace(raw.BsnsYear),
		SjDiv:           raw.SjDiv,
		SjNm:            raw.SjNm,
		AccountNm:       strings.TrimSpace(raw.AccountNm),
		ThstrmNm:        cur,
		ThstrmAmount:    n.amount(raw, "thstrm_amount", raw.ThstrmAmount),
		FrmtrmNm:        prior,
		FrmtrmAmount:    n.amount(raw, "frmtrm_amount", raw.FrmtrmAmount),
		BfefrmtrmNm:     priorPrior,
		BfefrmtrmAmount: n.amount(raw, "bfefrmtrm_amount", raw.BfefrmtrmAmount),
		Ord:             n.order(raw),
		Currency:        raw.Currency,
	}
	return row, nil
}

// NormalizeAll converts a batch; the first row error aborts the batch.
func (n *Normalizer) NormalizeAll(items []models.RawLineItem, company models.CompanyInfo) ([]models.StatementRow, error) {
	rows := make([]models.StatementRow, 0, len(items))
	for _, item := range items {
		row, err := n.Normalize(item, company)
		if err != nil {
			return nil, fmt.Errorf("normalize %s/%s: %w", item.SjDiv, item.AccountNm, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (n *Normalizer) amount(raw models.RawLineItem, field, value string) float64 {
	v, err := ParseAmount(value)
	if err == nil {
		return v
	}
	if errors.Is(err, ErrEmptyAmount) {
		n.log.Debug().Str("account", raw.AccountNm).Str("field", field).Msg("empty amount, using 0")
		return 0
	}
	n.log.Warn().Err(err).
		Str("account", raw.AccountNm).
		Str("sj_div", raw.SjDiv).
		Str("field", field).
		Msg("unparsable amount, using 0")
	return 0
}

func (n *Normalizer) order(raw models.RawLineItem) int {
	ord, err := strconv.Atoi(strings.TrimSpace(raw.Ord))
	if err != nil {
		n.log.Warn().Str("account", raw.AccountNm).Str("ord", raw.Ord).Msg("unparsable display order")
		return unorderedRank
	}
	return ord
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
