package pipeline

import (
	"context"

	"fin_ratio/pkg/models"
)

// Source retrieves company identities and raw statement line items from the
// upstream disclosure system.
//
//go:generate mockgen -destination=mocks/mock_source.go -source=interface.go Source
type Source interface {
	FetchCompanyInfo(ctx context.Context, name string) (*models.CompanyInfo, error)
	FetchStatements(ctx context.Context, corpCode string, year *int) ([]models.RawLineItem, error)
}
