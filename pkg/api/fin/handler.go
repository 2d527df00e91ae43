// Package fin exposes the financial data pipeline over HTTP.
package fin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"fin_ratio/pkg/core/report"
	"fin_ratio/pkg/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service is the pipeline surface the handlers call.
type Service interface {
	FetchAndSaveFinancialData(ctx context.Context, companyName string, year *int) models.Result
	GetFinancialRatios(ctx context.Context, companyName string, year *int) models.Result
	RecomputeRatios(ctx context.Context, companyName string) models.Result
	CompanyFinancials(ctx context.Context, companyName string) (*models.CompanyFinancials, models.Result)
	Summary(ctx context.Context) models.Result
	KeyItems(ctx context.Context) models.Result
}

// Handler holds dependencies for the financial data endpoints.
type Handler struct {
	svc            Service
	defaultCompany string
	log            zerolog.Logger

	// inflight collapses identical concurrent requests (same operation,
	// company and pinned year) into one run. Different requests touching the
	// same (corp_code, bsns_year) scope are not serialized.
	inflight singleflight.Group
	// waiting counts callers currently inside collapse.
	waiting atomic.Int32
}

// NewHandler creates a new financial data handler.
func NewHandler(svc Service, defaultCompany string, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:            svc,
		defaultCompany: defaultCompany,
		log:            logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/fin/financial", h.HandleFetchAndSave)
	mux.HandleFunc("GET /api/fin/financial", h.HandleDefaultCompany)
	mux.HandleFunc("GET /api/fin/ratios/{company_name}", h.HandleRatios)
	mux.HandleFunc("POST /api/fin/ratios/{company_name}/recompute", h.HandleRecompute)
	mux.HandleFunc("GET /api/fin/summary", h.HandleSummary)
	mux.HandleFunc("GET /api/fin/key-items", h.HandleKeyItems)
	mux.HandleFunc("GET /api/fin/report/{company_name}", h.HandleReport)
	mux.HandleFunc("GET /api/fin/export/{company_name}", h.HandleExport)
	mux.HandleFunc("OPTIONS /api/fin/", h.HandlePreflight)
}

// Middleware adds CORS headers and request logging.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Add CORS headers for local dev
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (h *Handler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// =============================================================================
// PIPELINE ENDPOINTS
// =============================================================================

// HandleFetchAndSave runs the pipeline for ?company_name=...[&year=...].
func (h *Handler) HandleFetchAndSave(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("company_name"))
	if name == "" {
		writeResult(w, models.Failure(models.KindInput, "company_name is required"))
		return
	}
	year, ok := parseYear(w, r)
	if !ok {
		return
	}
	writeResult(w, h.fetchAndSave(r.Context(), name, year))
}

// HandleDefaultCompany runs the pipeline for the configured default company.
func (h *Handler) HandleDefaultCompany(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.fetchAndSave(r.Context(), h.defaultCompany, nil))
}

func (h *Handler) HandleRatios(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("company_name")
	year, ok := parseYear(w, r)
	if !ok {
		return
	}
	res := h.collapse(r.Context(), flightKey("ratios", name, year), func(ctx context.Context) models.Result {
		return h.svc.GetFinancialRatios(ctx, name, year)
	})
	writeResult(w, res)
}

func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("company_name")
	res := h.collapse(r.Context(), flightKey("recompute", name, nil), func(ctx context.Context) models.Result {
		return h.svc.RecomputeRatios(ctx, name)
	})
	writeResult(w, res)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.svc.Summary(r.Context()))
}

func (h *Handler) HandleKeyItems(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.svc.KeyItems(r.Context()))
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	fin, res := h.svc.CompanyFinancials(r.Context(), r.PathValue("company_name"))
	if !res.OK() {
		writeResult(w, res)
		return
	}

	page, err := report.HTML(fin)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to render report")
		writeResult(w, models.Failure(models.KindInternal, "failed to render report"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	fin, res := h.svc.CompanyFinancials(r.Context(), r.PathValue("company_name"))
	if !res.OK() {
		writeResult(w, res)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, fin); err != nil {
		h.log.Error().Err(err).Msg("failed to build workbook")
		writeResult(w, models.Failure(models.KindInternal, "failed to build workbook"))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_financials.xlsx"`, fin.Company.CorpCode))
	w.Write(buf.Bytes())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (h *Handler) fetchAndSave(ctx context.Context, name string, year *int) models.Result {
	return h.collapse(ctx, flightKey("financial", name, year), func(ctx context.Context) models.Result {
		return h.svc.FetchAndSaveFinancialData(ctx, name, year)
	})
}

func flightKey(op, name string, year *int) string {
	key := op + "|" + strings.TrimSpace(name) + "|"
	if year != nil {
		key += strconv.Itoa(*year)
	}
	return key
}

// collapse runs fn once per in-flight key; concurrent callers share the
// result. The shared run is detached from any single caller's cancellation.
func (h *Handler) collapse(ctx context.Context, key string, fn func(context.Context) models.Result) models.Result {
	h.waiting.Add(1)
	defer h.waiting.Add(-1)

	v, _, shared := h.inflight.Do(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx)), nil
	})
	if shared {
		h.log.Debug().Str("key", key).Msg("joined in-flight run")
	}
	return v.(models.Result)
}

// parseYear reads the optional ?year= parameter. It writes a 400 and
// returns false when the value is not a year.
func parseYear(w http.ResponseWriter, r *http.Request) (*int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return nil, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		writeResult(w, models.Failure(models.KindInput, fmt.Sprintf("invalid year %q", raw)))
		return nil, false
	}
	return &year, true
}

// StatusFor maps a Result onto an HTTP status code.
func StatusFor(res models.Result) int {
	if res.OK() {
		return http.StatusOK
	}
	if res.Kind == models.KindInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeResult(w http.ResponseWriter, res models.Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(StatusFor(res))
	json.NewEncoder(w).Encode(res)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
