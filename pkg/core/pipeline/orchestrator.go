package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"fin_ratio/pkg/core/dart"
	"fin_ratio/pkg/core/ratio"
	"fin_ratio/pkg/core/statement"
	"fin_ratio/pkg/core/store"
	"fin_ratio/pkg/core/validate"
	"fin_ratio/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidInput marks requests that cannot be served as given.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoData means the upstream has no statements for the requested year.
	ErrNoData = errors.New("no financial statement data")
	// ErrPersistence wraps every store failure other than not-found.
	ErrPersistence = errors.New("persistence failure")
)

// PipelineOrchestrator manages the end-to-end data flow:
// Source -> Normalizer -> Deduplicator -> Freshness Gate -> Ratio Engine -> Store
type PipelineOrchestrator struct {
	source     Source
	repo       store.Repository
	normalizer *statement.Normalizer
	engine     *ratio.Engine
	validator  *validate.Validator
	log        zerolog.Logger
}

// NewPipelineOrchestrator creates a new orchestrator with all required dependencies.
func NewPipelineOrchestrator(source Source, repo store.Repository, engine *ratio.Engine, yearMarker string, logger zerolog.Logger) *PipelineOrchestrator {
	return &PipelineOrchestrator{
		source:     source,
		repo:       repo,
		normalizer: statement.NewNormalizer(yearMarker, logger),
		engine:     engine,
		validator:  validate.NewValidator(engine.Definitions()),
		log:        logger.With().Str("component", "pipeline").Logger(),
	}
}

// =============================================================================
// FETCH AND SAVE
// =============================================================================

// FetchAndSaveFinancialData pulls a company's statements for year (nil means
// the latest closed fiscal year), derives its ratios and replaces the stored
// (company, year) scope. When the cache already holds data at least as new as
// the fetched batch and no year was pinned, the cached rows are returned and
// nothing is written. Failures never escape as errors; they come back as an
// error Result classified by kind.
func (p *PipelineOrchestrator) FetchAndSaveFinancialData(ctx context.Context, companyName string, year *int) models.Result {
	log := p.runLogger(companyName)
	start := time.Now()

	rows, message, err := p.fetchAndSave(ctx, log, strings.TrimSpace(companyName), year)
	if err != nil {
		return p.failure(log, err)
	}

	log.Info().Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg(message)
	return models.Success(message, rows)
}

func (p *PipelineOrchestrator) fetchAndSave(ctx context.Context, log zerolog.Logger, name string, year *int) ([]models.StatementRow, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}

	// 1. Resolve the company: persisted rows first, then the upstream registry.
	company, err := p.resolveCompany(ctx, name)
	if err != nil {
		return nil, "", err
	}
	log.Debug().Str("corp_code", company.CorpCode).Msg("company resolved")

	cachedYear, hasCache, err := p.repo.LatestYear(ctx, company.CorpName)
	if err != nil {
		return nil, "", persistenceErr(err)
	}

	// 2. Fetch. Nothing is written before the batch is known to be usable.
	raw, err := p.source.FetchStatements(ctx, company.CorpCode, year)
	if err != nil {
		return nil, "", err
	}
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("%w for %s", ErrNoData, company.CorpName)
	}

	// 3. Normalize and deduplicate.
	rows, err := p.normalizer.NormalizeAll(raw, *company)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", dart.ErrUpstream, err)
	}
	rows = statement.Deduplicate(rows)
	fetchedYear := newestYear(rows)

	// 4. Freshness gate.
	decision, reason := Decide(GateInput{
		HasCache:      hasCache,
		CachedMaxYear: cachedYear,
		FetchedYear:   fetchedYear,
		PinnedYear:    year,
	})
	log.Info().Str("decision", decision.String()).Str("reason", reason).Msg("freshness gate")

	if decision == ServeCached {
		cached, err := p.repo.ListStatements(ctx, company.CorpName)
		if err != nil {
			return nil, "", persistenceErr(err)
		}
		return cached, fmt.Sprintf("%s financial data is up to date (%s)", company.CorpName, cachedYear), nil
	}

	// 5. Ratios for the fetched business year.
	rows = statement.FilterYear(rows, fetchedYear)
	statement.SortCanonical(rows)
	p.logFindings(log, p.validator.Check(fetchedYear, rows))
	rec := p.engine.Compute(*company, fetchedYear, rows)

	// 6. Replace the (company, year) scope in one transaction.
	if err := p.repo.ReplaceFinancials(ctx, company.CorpCode, fetchedYear, rows, &rec); err != nil {
		return nil, "", persistenceErr(err)
	}

	saved, err := p.repo.ListStatements(ctx, company.CorpName)
	if err != nil {
		return nil, "", persistenceErr(err)
	}
	return saved, fmt.Sprintf("%s financial data saved (%s)", company.CorpName, fetchedYear), nil
}

// resolveCompany looks in persisted rows before asking the upstream.
func (p *PipelineOrchestrator) resolveCompany(ctx context.Context, name string) (*models.CompanyInfo, error) {
	company, err := p.repo.FindCompany(ctx, name)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, persistenceErr(err)
	}
	return p.source.FetchCompanyInfo(ctx, name)
}

// =============================================================================
// READS
// =============================================================================

// GetFinancialRatios returns the stored ratio record for a company, the
// newest year unless year is pinned. A missing record triggers a
// fetch-and-save first.
func (p *PipelineOrchestrator) GetFinancialRatios(ctx context.Context, companyName string, year *int) models.Result {
	log := p.runLogger(companyName)
	name := strings.TrimSpace(companyName)
	if name == "" {
		return p.failure(log, fmt.Errorf("%w: company name is required", ErrInvalidInput))
	}

	rec, err := p.findRatio(ctx, name, year)
	if errors.Is(err, store.ErrNotFound) {
		log.Info().Msg("no stored ratios, fetching")
		if res := p.FetchAndSaveFinancialData(ctx, name, year); !res.OK() {
			return res
		}
		rec, err = p.findRatio(ctx, name, year)
	}
	if err != nil {
		return p.failure(log, err)
	}
	return models.Success(fmt.Sprintf("%s financial ratios (%s)", rec.CorpName, rec.BsnsYear), rec)
}

func (p *PipelineOrchestrator) findRatio(ctx context.Context, name string, year *int) (*models.RatioRecord, error) {
	if year != nil {
		company, err := p.repo.FindCompany(ctx, name)
		if err != nil {
			return nil, persistenceErr(err)
		}
		rec, err := p.repo.GetRatio(ctx, company.CorpCode, strconv.Itoa(*year))
		if err != nil {
			return nil, persistenceErr(err)
		}
		return rec, nil
	}

	list, err := p.repo.ListRatios(ctx, name)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if len(list) == 0 {
		return nil, store.ErrNotFound
	}
	return &list[0], nil
}

// RecomputeRatios re-derives every stored year's ratio record from the stored
// statement rows, without calling the upstream. Used after the ratio
// definitions change.
func (p *PipelineOrchestrator) RecomputeRatios(ctx context.Context, companyName string) models.Result {
	log := p.runLogger(companyName)
	name := strings.TrimSpace(companyName)

	company, err := p.repo.FindCompany(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return p.failure(log, fmt.Errorf("%w for %s", ErrNoData, name))
	}
	if err != nil {
		return p.failure(log, persistenceErr(err))
	}

	rows, err := p.repo.ListStatements(ctx, company.CorpName)
	if err != nil {
		return p.failure(log, persistenceErr(err))
	}

	byYear := map[string][]models.StatementRow{}
	for _, r := range rows {
		byYear[r.BsnsYear] = append(byYear[r.BsnsYear], r)
	}
	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	records := make([]models.RatioRecord, 0, len(years))
	for _, y := range years {
		rec := p.engine.Compute(*company, y, byYear[y])
		if err := p.repo.ReplaceRatio(ctx, &rec); err != nil {
			return p.failure(log, persistenceErr(err))
		}
		records = append(records, rec)
	}

	log.Info().Int("years", len(records)).Msg("ratios recomputed")
	return models.Success(fmt.Sprintf("%s ratios recomputed for %d years", company.CorpName, len(records)), records)
}

// CompanyFinancials returns everything stored for a company, for reports.
func (p *PipelineOrchestrator) CompanyFinancials(ctx context.Context, companyName string) (*models.CompanyFinancials, models.Result) {
	log := p.runLogger(companyName)
	name := strings.TrimSpace(companyName)

	company, err := p.repo.FindCompany(ctx, name)
	if err != nil {
		return nil, p.failure(log, persistenceErr(err))
	}
	rows, err := p.repo.ListStatements(ctx, company.CorpName)
	if err != nil {
		return nil, p.failure(log, persistenceErr(err))
	}
	ratios, err := p.repo.ListRatios(ctx, company.CorpName)
	if err != nil {
		return nil, p.failure(log, persistenceErr(err))
	}

	fin := &models.CompanyFinancials{Company: *company, Statements: rows, Ratios: ratios}
	return fin, models.Success(company.CorpName, fin)
}

// Summary counts stored line items per company and statement.
func (p *PipelineOrchestrator) Summary(ctx context.Context) models.Result {
	summary, err := p.repo.StatementSummary(ctx)
	if err != nil {
		return p.failure(p.log, persistenceErr(err))
	}
	return models.Success("statement summary", summary)
}

// KeyItems returns the stored rows of the headline accounts.
func (p *PipelineOrchestrator) KeyItems(ctx context.Context) models.Result {
	items, err := p.repo.KeyItems(ctx, p.engine.Definitions().KeyAccounts())
	if err != nil {
		return p.failure(p.log, persistenceErr(err))
	}
	return models.Success("key account items", items)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (p *PipelineOrchestrator) runLogger(companyName string) zerolog.Logger {
	return p.log.With().
		Str("run_id", uuid.NewString()).
		Str("company", companyName).
		Logger()
}

// logFindings reports consistency problems without failing the run.
func (p *PipelineOrchestrator) logFindings(log zerolog.Logger, report *validate.Report) {
	for _, f := range report.Findings {
		log.Warn().
			Str("bsns_year", report.BsnsYear).
			Str("check", f.Check).
			Str("account", f.Account).
			Float64("value", f.Value).
			Msg(f.Message)
	}
}

// failure logs err and converts it into an error Result.
func (p *PipelineOrchestrator) failure(log zerolog.Logger, err error) models.Result {
	kind := Classify(err)
	event := log.Error()
	if kind == models.KindInput {
		event = log.Warn()
	}
	event.Err(err).Str("kind", kind.String()).Msg("pipeline failed")
	return models.Failure(kind, err.Error())
}

// Classify maps an error onto the kind the caller reports it as.
func Classify(err error) models.ErrorKind {
	switch {
	case err == nil:
		return models.KindNone
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNoData),
		errors.Is(err, dart.ErrCompanyNotFound),
		errors.Is(err, store.ErrNotFound):
		return models.KindInput
	case errors.Is(err, dart.ErrUpstream):
		return models.KindUpstream
	case errors.Is(err, ErrPersistence):
		return models.KindPersistence
	default:
		return models.KindInternal
	}
}

// persistenceErr tags store failures, leaving not-found untouched.
func persistenceErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// newestYear returns the largest business year among rows.
func newestYear(rows []models.StatementRow) string {
	var newest string
	for _, r := range rows {
		if r.BsnsYear > newest {
			newest = r.BsnsYear
		}
	}
	return newest
}
