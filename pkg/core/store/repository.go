package store

import (
	"context"
	"errors"

	"fin_ratio/pkg/models"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Repository is the persistence surface used by the pipeline. Writes replace
// the (corp_code, bsns_year) scope inside one transaction, so a failed write
// leaves the previous rows in place.
type Repository interface {
	// Migrate creates the tables if they do not exist.
	Migrate(ctx context.Context) error

	// LatestYear returns the newest persisted business year for a company name.
	LatestYear(ctx context.Context, corpName string) (string, bool, error)
	// FindCompany resolves a company from previously persisted rows.
	FindCompany(ctx context.Context, corpName string) (*models.CompanyInfo, error)
	// ListStatements returns every statement row of a company ordered by
	// (bsns_year desc, sj_div, ord). Ratio records are stored separately and
	// never appear here.
	ListStatements(ctx context.Context, corpName string) ([]models.StatementRow, error)

	// ReplaceFinancials swaps the statement rows and ratio record of one
	// (corp_code, bsns_year) scope in a single transaction. ratio may be nil.
	ReplaceFinancials(ctx context.Context, corpCode, bsnsYear string, rows []models.StatementRow, ratio *models.RatioRecord) error
	// ReplaceRatio swaps the ratio record of its (corp_code, bsns_year).
	ReplaceRatio(ctx context.Context, rec *models.RatioRecord) error
	GetRatio(ctx context.Context, corpCode, bsnsYear string) (*models.RatioRecord, error)
	// ListRatios returns every ratio record of a company, newest year first.
	ListRatios(ctx context.Context, corpName string) ([]models.RatioRecord, error)

	StatementSummary(ctx context.Context) ([]models.SummaryRow, error)
	// KeyItems returns rows of the given accounts across all companies.
	KeyItems(ctx context.Context, accounts []string) ([]models.StatementRow, error)

	Close()
}
