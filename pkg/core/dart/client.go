package dart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"fin_ratio/pkg/core/config"
	"fin_ratio/pkg/core/statement"
	"fin_ratio/pkg/core/utils"
	"fin_ratio/pkg/models"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// =============================================================================
// DART CLIENT
// =============================================================================

// Client handles DART OpenAPI requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	reportCode string
	fsDiv      string
	cacheDir   string
	now        func() time.Time
	log        zerolog.Logger

	mu    sync.Mutex
	corps CorpIndex
}

// NewClient creates a DART client. The corp code registry is cached under
// cacheDir; an empty cacheDir disables the disk cache.
func NewClient(cfg config.DARTConfig, cacheDir string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		reportCode: cfg.ReportCode,
		fsDiv:      cfg.FsDiv,
		cacheDir:   cacheDir,
		now:        time.Now,
		log:        logger.With().Str("component", "dart").Logger(),
	}
}

// FetchCompanyInfo resolves a company by its exact registered name.
func (c *Client) FetchCompanyInfo(ctx context.Context, name string) (*models.CompanyInfo, error) {
	idx, err := c.corpIndex(ctx)
	if err != nil {
		return nil, err
	}
	info, ok := idx.Lookup(name)
	if !ok {
		return nil, eris.Wrapf(ErrCompanyNotFound, "%q", name)
	}
	return info, nil
}

// FetchStatements retrieves the balance sheet and income statement from the
// main-accounts endpoint plus the cash flow lines from the full-statement
// endpoint. A nil year means the previous calendar year. An empty result is
// not an error.
func (c *Client) FetchStatements(ctx context.Context, corpCode string, year *int) ([]models.RawLineItem, error) {
	bsnsYear := c.now().Year() - 1
	if year != nil {
		bsnsYear = *year
	}

	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", strconv.Itoa(bsnsYear))
	params.Set("reprt_code", c.reportCode)

	accounts, err := c.fetchList(ctx, MainAccountsEndpoint, params)
	if err != nil {
		return nil, err
	}

	items := make([]models.RawLineItem, 0, len(accounts))
	for _, it := range accounts {
		if c.fsDiv != "" && it.FsDiv != "" && it.FsDiv != c.fsDiv {
			continue
		}
		items = append(items, it)
	}

	fullParams := url.Values{}
	for k, v := range params {
		fullParams[k] = v
	}
	fullParams.Set("fs_div", c.fsDiv)

	full, err := c.fetchList(ctx, FullStatementsEndpoint, fullParams)
	if err != nil {
		return nil, err
	}

	var cashFlow []models.RawLineItem
	for _, it := range full {
		if it.SjDiv == models.DivCashFlow || it.SjDiv == "" {
			cashFlow = append(cashFlow, it)
		}
	}
	items = append(items, statement.InjectCashFlow(cashFlow)...)

	c.log.Debug().
		Str("corp_code", corpCode).
		Int("bsns_year", bsnsYear).
		Int("accounts", len(accounts)).
		Int("cash_flow", len(cashFlow)).
		Msg("statements fetched")
	return items, nil
}

// fetchList calls a statement endpoint. Status 013 (no data) yields an
// empty list.
func (c *Client) fetchList(ctx context.Context, endpoint string, params url.Values) ([]models.RawLineItem, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp statementResponse
	strategy, err := utils.DecodeLenient(body, &resp)
	if err != nil {
		return nil, eris.Wrapf(ErrUpstream, "%s: %v", endpoint, err)
	}
	if strategy != "json" {
		c.log.Warn().Str("endpoint", endpoint).Str("strategy", strategy).Msg("recovered malformed payload")
	}

	switch resp.Status {
	case StatusOK:
		return resp.List, nil
	case StatusNoData:
		return nil, nil
	default:
		return nil, eris.Wrapf(ErrUpstream, "%s returned status %s: %s", endpoint, resp.Status, resp.Message)
	}
}

// get performs an authenticated GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("crtfc_key", c.apiKey)
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(ErrUpstream, "%s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrUpstream, "%s returned HTTP %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(ErrUpstream, "read %s: %v", endpoint, err)
	}
	return body, nil
}
