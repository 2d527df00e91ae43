// Package dart is the client for the Korean DART (Data Analysis, Retrieval and
// Transfer) OpenAPI: company code lookup and financial statement retrieval.
// API Documentation: https://opendart.fss.or.kr/guide/main.do
package dart

import (
	"errors"

	"fin_ratio/pkg/models"
)

const (
	// Endpoints relative to the configured base URL.
	CorpCodeEndpoint       = "corpCode.xml"
	MainAccountsEndpoint   = "fnlttSinglAcnt.json"
	FullStatementsEndpoint = "fnlttSinglAcntAll.json"

	// Status codes carried in every JSON envelope.
	StatusOK     = "000"
	StatusNoData = "013"
)

var (
	// ErrCompanyNotFound means no company has exactly the requested name.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrUpstream covers transport failures, non-200 responses, error
	// statuses and payloads that cannot be decoded.
	ErrUpstream = errors.New("upstream request failed")
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// statementResponse is the envelope of both statement endpoints.
type statementResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	List    []models.RawLineItem `json:"list"`
}
