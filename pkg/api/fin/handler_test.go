package fin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fin_ratio/pkg/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockService struct {
	mock.Mock
}

func (m *MockService) FetchAndSaveFinancialData(ctx context.Context, companyName string, year *int) models.Result {
	args := m.Called(ctx, companyName, year)
	return args.Get(0).(models.Result)
}

func (m *MockService) GetFinancialRatios(ctx context.Context, companyName string, year *int) models.Result {
	args := m.Called(ctx, companyName, year)
	return args.Get(0).(models.Result)
}

func (m *MockService) RecomputeRatios(ctx context.Context, companyName string) models.Result {
	args := m.Called(ctx, companyName)
	return args.Get(0).(models.Result)
}

func (m *MockService) CompanyFinancials(ctx context.Context, companyName string) (*models.CompanyFinancials, models.Result) {
	args := m.Called(ctx, companyName)
	if args.Get(0) == nil {
		return nil, args.Get(1).(models.Result)
	}
	return args.Get(0).(*models.CompanyFinancials), args.Get(1).(models.Result)
}

func (m *MockService) Summary(ctx context.Context) models.Result {
	return m.Called(ctx).Get(0).(models.Result)
}

func (m *MockService) KeyItems(ctx context.Context) models.Result {
	return m.Called(ctx).Get(0).(models.Result)
}

// --- Helpers ---

func newTestServer(svc Service) http.Handler {
	h := NewHandler(svc, "Acme Corp", zerolog.Nop())
	mux := http.NewServeMux()
	h.Routes(mux)
	return h.Middleware(mux)
}

type body struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, srv http.Handler, method, target string) (*httptest.ResponseRecorder, body) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var b body
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	}
	return rec, b
}

func yearPtr(y int) *int { return &y }

func acmeFinancials() *models.CompanyFinancials {
	return &models.CompanyFinancials{
		Company: models.CompanyInfo{CorpCode: "00000001", CorpName: "Acme Corp", StockCode: "000001"},
		Statements: []models.StatementRow{
			{CorpCode: "00000001", BsnsYear: "2023", SjDiv: "BS", SjNm: "재무상태표", AccountNm: "자산총계", ThstrmAmount: 1000, Ord: 1},
		},
		Ratios: []models.RatioRecord{
			{CorpCode: "00000001", CorpName: "Acme Corp", BsnsYear: "2023", DebtRatio: 66.67},
		},
	}
}

// --- Tests ---

func TestHandleFetchAndSave(t *testing.T) {
	svc := new(MockService)
	rows := []models.StatementRow{{CorpCode: "00000001", BsnsYear: "2023", AccountNm: "자산총계"}}
	svc.On("FetchAndSaveFinancialData", mock.Anything, "Acme Corp", yearPtr(2023)).
		Return(models.Success("Acme Corp financial data saved (2023)", rows))

	rec, b := serve(t, newTestServer(svc), http.MethodPost, "/api/fin/financial?company_name=Acme+Corp&year=2023")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusSuccess, b.Status)
	assert.Contains(t, b.Message, "saved")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	svc.AssertExpectations(t)
}

func TestHandleFetchAndSave_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "missing company", target: "/api/fin/financial"},
		{name: "blank company", target: "/api/fin/financial?company_name=%20"},
		{name: "non numeric year", target: "/api/fin/financial?company_name=Acme&year=last"},
		{name: "out of range year", target: "/api/fin/financial?company_name=Acme&year=23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			rec, b := serve(t, newTestServer(svc), http.MethodPost, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, models.StatusError, b.Status)
			svc.AssertNotCalled(t, "FetchAndSaveFinancialData", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleDefaultCompany(t *testing.T) {
	svc := new(MockService)
	svc.On("FetchAndSaveFinancialData", mock.Anything, "Acme Corp", (*int)(nil)).
		Return(models.Success("Acme Corp financial data is up to date (2023)", []models.StatementRow{}))

	rec, b := serve(t, newTestServer(svc), http.MethodGet, "/api/fin/financial")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, b.Message, "up to date")
	svc.AssertExpectations(t)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind models.ErrorKind
		want int
	}{
		{models.KindInput, http.StatusBadRequest},
		{models.KindUpstream, http.StatusInternalServerError},
		{models.KindPersistence, http.StatusInternalServerError},
		{models.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			svc := new(MockService)
			svc.On("Summary", mock.Anything).Return(models.Failure(tt.kind, "boom"))

			rec, b := serve(t, newTestServer(svc), http.MethodGet, "/api/fin/summary")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "boom", b.Message)
		})
	}
	assert.Equal(t, http.StatusOK, StatusFor(models.Success("ok", nil)))
}

func TestHandleRatios(t *testing.T) {
	svc := new(MockService)
	rec := &models.RatioRecord{CorpCode: "00000001", CorpName: "Acme Corp", BsnsYear: "2022", DebtRatio: 50}
	svc.On("GetFinancialRatios", mock.Anything, "Acme Corp", yearPtr(2022)).
		Return(models.Success("Acme Corp financial ratios (2022)", rec))
	svc.On("GetFinancialRatios", mock.Anything, "Acme Corp", (*int)(nil)).
		Return(models.Success("Acme Corp financial ratios (2023)", rec))

	srv := newTestServer(svc)

	resp, b := serve(t, srv, http.MethodGet, "/api/fin/ratios/Acme%20Corp?year=2022")
	require.Equal(t, http.StatusOK, resp.Code)
	var got models.RatioRecord
	require.NoError(t, json.Unmarshal(b.Data, &got))
	assert.Equal(t, 50.0, got.DebtRatio)

	resp, _ = serve(t, srv, http.MethodGet, "/api/fin/ratios/Acme%20Corp")
	assert.Equal(t, http.StatusOK, resp.Code)
	svc.AssertExpectations(t)
}

func TestHandleRecompute(t *testing.T) {
	svc := new(MockService)
	svc.On("RecomputeRatios", mock.Anything, "Acme Corp").
		Return(models.Success("Acme Corp ratios recomputed for 2 years", []models.RatioRecord{{}, {}}))

	rec, _ := serve(t, newTestServer(svc), http.MethodPost, "/api/fin/ratios/Acme%20Corp/recompute")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandleKeyItems(t *testing.T) {
	svc := new(MockService)
	svc.On("KeyItems", mock.Anything).Return(models.Success("key account items", []models.StatementRow{}))

	rec, b := serve(t, newTestServer(svc), http.MethodGet, "/api/fin/key-items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "key account items", b.Message)
}

func TestHandleReport(t *testing.T) {
	svc := new(MockService)
	svc.On("CompanyFinancials", mock.Anything, "Acme Corp").
		Return(acmeFinancials(), models.Success("Acme Corp", nil))

	rec, _ := serve(t, newTestServer(svc), http.MethodGet, "/api/fin/report/Acme%20Corp")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table>")
	assert.Contains(t, rec.Body.String(), "Acme Corp")
}

func TestHandleReport_UnknownCompany(t *testing.T) {
	svc := new(MockService)
	svc.On("CompanyFinancials", mock.Anything, "Nobody").
		Return(nil, models.Failure(models.KindInput, "not found"))

	rec, b := serve(t, newTestServer(svc), http.MethodGet, "/api/fin/report/Nobody")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.StatusError, b.Status)
}

func TestHandleExport(t *testing.T) {
	svc := new(MockService)
	svc.On("CompanyFinancials", mock.Anything, "Acme Corp").
		Return(acmeFinancials(), models.Success("Acme Corp", nil))

	rec, _ := serve(t, newTestServer(svc), http.MethodGet, "/api/fin/export/Acme%20Corp")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "00000001_financials.xlsx")
	// XLSX files are zip archives.
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestPreflight(t *testing.T) {
	rec, _ := serve(t, newTestServer(new(MockService)), http.MethodOptions, "/api/fin/financial")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestFetchAndSave_CollapsesConcurrentRuns(t *testing.T) {
	svc := new(MockService)
	release := make(chan struct{})
	svc.On("FetchAndSaveFinancialData", mock.Anything, "Acme Corp", (*int)(nil)).
		Run(func(mock.Arguments) { <-release }).
		Return(models.Success("saved", nil)).
		Once()

	h := NewHandler(svc, "Acme Corp", zerolog.Nop())

	const callers = 4
	var wg sync.WaitGroup
	results := make([]models.Result, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = h.fetchAndSave(context.Background(), "Acme Corp", nil)
		}(i)
	}

	// Hold the leader until every caller is waiting on the shared run.
	require.Eventually(t, func() bool {
		return h.waiting.Load() == callers
	}, 2*time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, res := range results {
		assert.True(t, res.OK())
	}
	svc.AssertNumberOfCalls(t, "FetchAndSaveFinancialData", 1)
	assert.Equal(t, int32(0), h.waiting.Load())
}

func TestFlightKey(t *testing.T) {
	assert.Equal(t, "financial|Acme|", flightKey("financial", " Acme ", nil))
	assert.Equal(t, "ratios|Acme|2023", flightKey("ratios", "Acme", yearPtr(2023)))
}
