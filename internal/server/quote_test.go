package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/tramitex/cotiza/internal/catalog/domain"
	quotedomain "github.com/tramitex/cotiza/internal/quote/domain"
)

type fakeQuoteService struct {
	resp        *quotedomain.Response
	err         error
	createCalls int
	lastID      string
	lastIndex   int
}

func (f *fakeQuoteService) Create(ctx context.Context, req quotedomain.CreateRequest) (*quotedomain.Response, error) {
	f.createCalls++
	_ = ctx
	_ = req
	return f.resp, f.err
}

func (f *fakeQuoteService) Get(ctx context.Context, id string) (*quotedomain.Response, error) {
	_ = ctx
	f.lastID = id
	return f.resp, f.err
}

func (f *fakeQuoteService) List(ctx context.Context, req quotedomain.ListRequest) (*quotedomain.ListResponse, error) {
	_ = ctx
	_ = req
	if f.err != nil {
		return nil, f.err
	}
	return &quotedomain.ListResponse{Quotes: []quotedomain.Response{*f.resp}}, nil
}

func (f *fakeQuoteService) Update(ctx context.Context, id string, req quotedomain.UpdateRequest) (*quotedomain.Response, error) {
	_ = ctx
	_ = req
	f.lastID = id
	return f.resp, f.err
}

func (f *fakeQuoteService) Delete(ctx context.Context, id string) error {
	_ = ctx
	f.lastID = id
	return f.err
}

func (f *fakeQuoteService) ReplaceItems(ctx context.Context, id string, items []quotedomain.ItemInput) (*quotedomain.Response, error) {
	_ = ctx
	_ = items
	f.lastID = id
	return f.resp, f.err
}

func (f *fakeQuoteService) AddItemFromTemplate(ctx context.Context, id string, req quotedomain.AddItemRequest) (*quotedomain.Response, error) {
	_ = ctx
	_ = req
	f.lastID = id
	return f.resp, f.err
}

func (f *fakeQuoteService) UpdateItemField(ctx context.Context, id string, index int, req quotedomain.UpdateItemFieldRequest) (*quotedomain.Response, error) {
	_ = ctx
	_ = req
	f.lastID = id
	f.lastIndex = index
	return f.resp, f.err
}

func (f *fakeQuoteService) RemoveItem(ctx context.Context, id string, index int) (*quotedomain.Response, error) {
	_ = ctx
	f.lastID = id
	f.lastIndex = index
	return f.resp, f.err
}

func (f *fakeQuoteService) Totals(ctx context.Context, id string) (*quotedomain.TotalsResponse, error) {
	_ = ctx
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &quotedomain.TotalsResponse{
		TotalCost:          f.resp.TotalCost,
		TotalPrice:         f.resp.TotalPrice,
		FinalPrice:         f.resp.FinalPrice,
		TotalMargin:        f.resp.TotalMargin,
		TotalMarginPercent: f.resp.TotalMarginPercent,
		MarginSeverity:     f.resp.MarginSeverity,
	}, nil
}

type fakeCatalogRepo struct {
	thresholds []catalogdomain.MarginThreshold
}

func (f *fakeCatalogRepo) ListProcedureTypes(ctx context.Context) ([]catalogdomain.ProcedureType, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeCatalogRepo) FindProcedureType(ctx context.Context, id snowflake.ID) (*catalogdomain.ProcedureType, error) {
	_ = ctx
	_ = id
	return nil, nil
}

func (f *fakeCatalogRepo) ListCatalogServices(ctx context.Context) ([]catalogdomain.CatalogService, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeCatalogRepo) FindCatalogService(ctx context.Context, id snowflake.ID) (*catalogdomain.CatalogService, error) {
	_ = ctx
	_ = id
	return nil, nil
}

func (f *fakeCatalogRepo) ListExternalProviders(ctx context.Context) ([]catalogdomain.ExternalProvider, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeCatalogRepo) ListMarginThresholds(ctx context.Context) ([]catalogdomain.MarginThreshold, error) {
	_ = ctx
	return f.thresholds, nil
}

func (f *fakeCatalogRepo) MarginThresholdsByCategory(ctx context.Context) (map[string]catalogdomain.MarginThreshold, error) {
	_ = ctx
	out := make(map[string]catalogdomain.MarginThreshold, len(f.thresholds))
	for _, th := range f.thresholds {
		out[th.Category] = th
	}
	return out, nil
}

func newTestServer(svc quotedomain.Service, catalog catalogdomain.Repository) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:      router,
		quoteSvc:    svc,
		catalogRepo: catalog,
	}
	srv.registerAPIRoutes()
	return srv, router
}

func sampleResponse() *quotedomain.Response {
	return &quotedomain.Response{
		ID:                 "7001",
		TotalCost:          1000,
		TotalPrice:         1500,
		FinalPrice:         1500,
		TotalMargin:        500,
		TotalMarginPercent: 50,
		MarginSeverity:     "at_target",
		Items:              []quotedomain.ItemResponse{},
	}
}

func TestCreateQuoteReturns201(t *testing.T) {
	svc := &fakeQuoteService{resp: sampleResponse()}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	body := `{"new_client_name":"Acme","items":[{"concept":"Registro","category":"honorarios","unit_cost":1000,"unit_price":1500,"quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.createCalls != 1 {
		t.Fatalf("expected 1 create call, got %d", svc.createCalls)
	}

	var envelope struct {
		Data quotedomain.Response `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != "7001" {
		t.Fatalf("expected quote id 7001, got %q", envelope.Data.ID)
	}
}

func TestCreateQuoteMalformedBodyReturns400(t *testing.T) {
	svc := &fakeQuoteService{resp: sampleResponse()}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewBufferString(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if svc.createCalls != 0 {
		t.Fatal("expected service not to be called on malformed body")
	}
}

func TestCreateQuoteValidationErrorReturns400(t *testing.T) {
	svc := &fakeQuoteService{err: quotedomain.ErrNoItems}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewBufferString(`{"new_client_name":"Acme","items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", envelope.Error.Type)
	}
}

func TestGetQuoteNotFoundReturns404(t *testing.T) {
	svc := &fakeQuoteService{err: quotedomain.ErrNotFound}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/999", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if svc.lastID != "999" {
		t.Fatalf("expected id 999 forwarded, got %q", svc.lastID)
	}
}

func TestUpdateQuoteItemFieldForwardsIndex(t *testing.T) {
	svc := &fakeQuoteService{resp: sampleResponse()}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodPatch, "/api/quotes/7001/items/2", bytes.NewBufferString(`{"field":"unit_price","value":"2000"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastIndex != 2 {
		t.Fatalf("expected index 2 forwarded, got %d", svc.lastIndex)
	}
}

func TestUpdateQuoteItemFieldBadIndexReturns400(t *testing.T) {
	svc := &fakeQuoteService{resp: sampleResponse()}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodPatch, "/api/quotes/7001/items/abc", bytes.NewBufferString(`{"field":"unit_price","value":"2000"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestDeleteQuoteReturnsDeleted(t *testing.T) {
	svc := &fakeQuoteService{resp: sampleResponse()}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodDelete, "/api/quotes/7001", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.lastID != "7001" {
		t.Fatalf("expected id 7001 forwarded, got %q", svc.lastID)
	}
}

func TestGetQuoteTotals(t *testing.T) {
	svc := &fakeQuoteService{resp: sampleResponse()}
	_, router := newTestServer(svc, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/7001/totals", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var envelope struct {
		Data quotedomain.TotalsResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalMarginPercent != 50 {
		t.Fatalf("expected total margin percent 50, got %v", envelope.Data.TotalMarginPercent)
	}
}

func TestListMarginThresholds(t *testing.T) {
	catalog := &fakeCatalogRepo{
		thresholds: []catalogdomain.MarginThreshold{
			{Category: "honorarios", MinimumMargin: 20, TargetMargin: 40},
		},
	}
	_, router := newTestServer(&fakeQuoteService{resp: sampleResponse()}, catalog)

	req := httptest.NewRequest(http.MethodGet, "/api/margin-thresholds", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var envelope struct {
		Data []catalogdomain.MarginThreshold `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Category != "honorarios" {
		t.Fatalf("unexpected thresholds: %+v", envelope.Data)
	}
}
