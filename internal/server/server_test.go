package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/snelcrm/internal/authorization"
	billingdashboardservice "github.com/smallbiznis/snelcrm/internal/billingdashboard/service"
	"github.com/smallbiznis/snelcrm/internal/billingstore/billingstoretest"
	"github.com/smallbiznis/snelcrm/internal/config"
	customerservice "github.com/smallbiznis/snelcrm/internal/customer/service"
	feedbackservice "github.com/smallbiznis/snelcrm/internal/feedback/service"
	invoiceservice "github.com/smallbiznis/snelcrm/internal/invoice/service"
	"github.com/smallbiznis/snelcrm/internal/observability"
	paymentservice "github.com/smallbiznis/snelcrm/internal/payment/service"
	"github.com/smallbiznis/snelcrm/internal/providers/pdf"
	"github.com/smallbiznis/snelcrm/internal/ratelimit"
	readingservice "github.com/smallbiznis/snelcrm/internal/reading/service"
	"github.com/smallbiznis/snelcrm/internal/seed"
	"github.com/smallbiznis/snelcrm/internal/snapshot"
	"github.com/smallbiznis/snelcrm/internal/snapshot/repository"
	ticketingservice "github.com/smallbiznis/snelcrm/internal/ticketing/service"
	ticketingstore "github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server  *Server
	billing *billingstoretest.Fixture
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := billingstoretest.Seeded(t)

	tickets := ticketingstore.New(repository.NewMemoryStore(), snapshot.NewCodec("none"), f.Log)
	require.NoError(t, tickets.Load(context.Background(), func() *ticketingstore.State {
		return seed.Ticketing(billingstoretest.Now)
	}))

	enforcer, err := authorization.NewEnforcer()
	require.NoError(t, err)

	engine := NewEngine(EngineParams{
		Log:      f.Log,
		ObsCfg:   observability.Config{Environment: "test"},
		Metrics:  f.Metrics,
		Registry: f.Registry,
	})

	pdfProvider := pdf.New(pdf.DefaultIssuer())
	feedback := feedbackservice.New(feedbackservice.Params{Store: f.Store, Log: f.Log, GenID: f.GenID, Clock: f.Clock, Metrics: f.Metrics})

	srv := NewServer(ServerParams{
		Gin:      engine,
		Cfg:      config.Config{},
		Log:      f.Log,
		AuthzSvc: authorization.NewService(authorization.Params{Log: f.Log, Enforcer: enforcer}),

		CustomerSvc: customerservice.New(customerservice.Params{Store: f.Store, Log: f.Log, GenID: f.GenID, Clock: f.Clock}),
		ReadingSvc:  readingservice.New(readingservice.Params{Store: f.Store, Log: f.Log, GenID: f.GenID, Clock: f.Clock, Metrics: f.Metrics}),
		InvoiceSvc: invoiceservice.New(invoiceservice.Params{
			Store: f.Store, Log: f.Log, GenID: f.GenID, Clock: f.Clock, Tariff: f.Tariff, PDF: pdfProvider, Metrics: f.Metrics,
		}),
		PaymentSvc: paymentservice.New(paymentservice.Params{
			Store: f.Store, Log: f.Log, GenID: f.GenID, Clock: f.Clock, PDF: pdfProvider, Metrics: f.Metrics,
		}),
		FeedbackSvc: feedback,
		BillingDashboardSvc: billingdashboardservice.NewService(billingdashboardservice.Params{
			Store: f.Store, Log: f.Log, Clock: f.Clock, Tariff: f.Tariff, Feedback: feedback,
		}),
		TicketingSvc: ticketingservice.New(ticketingservice.Params{Store: tickets, Log: f.Log, GenID: f.GenID, Clock: f.Clock, Metrics: f.Metrics}),

		BillingStore:   f.Store,
		TicketingStore: tickets,
	})
	srv.RegisterBillingRoutes()
	srv.RegisterTicketingRoutes()

	return &testServer{server: srv, billing: f}
}

func (ts *testServer) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(HeaderRole, role)
	}
	rec := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	} `json:"error"`
}

func TestRoutesRequireARole(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[errorBody](t, rec).Error.Type)
}

func TestRoutesEnforceRolePolicies(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		status int
	}{
		{"citizen cannot validate readings", http.MethodPost, "/api/v1/readings/3100/validate", "citizen", http.StatusForbidden},
		{"cashier cannot see readings", http.MethodGet, "/api/v1/readings", "cashier", http.StatusForbidden},
		{"agent cannot deactivate clients", http.MethodPost, "/api/v1/clients/1001/deactivate", "agent", http.StatusForbidden},
		{"ticketing clerk cannot open departures", http.MethodPost, "/api/v1/ticketing/departures/12001/cancel", "ticketing", http.StatusForbidden},
		{"billing reads the dashboard", http.MethodGet, "/api/v1/dashboard/summary", "billing", http.StatusOK},
		{"unknown role is forbidden", http.MethodGet, "/api/v1/clients", "janitor", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, tc.method, tc.path, tc.role, nil)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestListClientsPaginates(t *testing.T) {
	ts := newTestServer(t)

	type page struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
		PageInfo struct {
			NextPageToken string `json:"next_page_token"`
			HasMore       bool   `json:"has_more"`
			Total         int    `json:"total"`
		} `json:"page_info"`
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/clients?page_size=4", "billing", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[page](t, rec)
	assert.Len(t, first.Data, 4)
	assert.True(t, first.PageInfo.HasMore)
	assert.Equal(t, 6, first.PageInfo.Total)
	require.NotEmpty(t, first.PageInfo.NextPageToken)

	rec = ts.do(t, http.MethodGet, "/api/v1/clients?page_size=4&page_token="+first.PageInfo.NextPageToken, "billing", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[page](t, rec)
	assert.Len(t, second.Data, 2)
	assert.False(t, second.PageInfo.HasMore)

	rec = ts.do(t, http.MethodGet, "/api/v1/clients?page_token=bm9wZQ", "billing", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/invoices/999999", "billing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Type)

	rec = ts.do(t, http.MethodPost, "/api/v1/payments", "cashier", map[string]any{
		"invoice_id":   "4003",
		"amount":       "10000000",
		"payment_mode": "CASH",
		"channel":      "COUNTER",
		"agent_id":     "CSH-001",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "conflict", decode[errorBody](t, rec).Error.Type)

	rec = ts.do(t, http.MethodPost, "/api/v1/payments", "cashier", map[string]any{
		"invoice_id":   "4003",
		"amount":       "100",
		"payment_mode": "BARTER",
		"channel":      "COUNTER",
		"agent_id":     "CSH-001",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decode[errorBody](t, rec)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "invalid_payment_mode", body.Error.Errors[0].Code)
	assert.Equal(t, "payment_mode", body.Error.Errors[0].Field)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", bytes.NewBufferString("{not json"))
	req.Header.Set(HeaderRole, "billing")
	raw := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestRateLimitedSubmissionsAnswer429(t *testing.T) {
	ts := newTestServer(t)
	ts.server.Engine().GET("/limited", func(c *gin.Context) {
		AbortWithError(c, &ratelimit.LimitedError{RetryAfter: 2500 * time.Millisecond})
	})

	rec := ts.do(t, http.MethodGet, "/limited", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decode[errorBody](t, rec).Error.Type)
}

func TestPaymentFlowThroughHTTP(t *testing.T) {
	ts := newTestServer(t)

	type invoiceBody struct {
		Data struct {
			Status  string `json:"status"`
			Balance string `json:"balance"`
		} `json:"data"`
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/invoices/4003", "cashier", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	open := decode[invoiceBody](t, rec)
	require.NotEqual(t, "PAID", open.Data.Status)

	rec = ts.do(t, http.MethodPost, "/api/v1/payments", "cashier", map[string]any{
		"invoice_id":   "4003",
		"amount":       open.Data.Balance,
		"payment_mode": "CASH",
		"channel":      "COUNTER",
		"agent_id":     "CSH-002",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/invoices/4003", "citizen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	paid := decode[invoiceBody](t, rec)
	assert.Equal(t, "PAID", paid.Data.Status)
	assert.Equal(t, "0", paid.Data.Balance)

	rec = ts.do(t, http.MethodGet, "/api/v1/invoices/4003/pdf", "citizen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestTicketSaleUsesAgentHeader(t *testing.T) {
	ts := newTestServer(t)

	body, err := json.Marshal(map[string]any{
		"client_name":  "Patrice Lumbala",
		"client_phone": "+243899000111",
		"departure_id": "12001",
		"seat_count":   2,
		"channel":      "COUNTER",
		"payment_mode": "CASH",
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ticketing/tickets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRole, "ticketing")
	req.Header.Set(HeaderAgent, "GUI-002")
	rec := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sold := decode[struct {
		Data []struct {
			Code    string `json:"code"`
			AgentID string `json:"agent_id"`
		} `json:"data"`
	}](t, rec)
	require.Len(t, sold.Data, 2)
	assert.Equal(t, "TRC-00000006", sold.Data[0].Code)
	assert.Equal(t, "GUI-002", sold.Data[1].AgentID)

	rec = ts.do(t, http.MethodPost, "/api/v1/ticketing/tickets/TRC-00000006/validate", "ticketing", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/ticketing/tickets/TRC-00000006/validate", "ticketing", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/v1/ticketing/tickets/NOPE-1", "ticketing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthReportsDegradedPersistence(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	ts.billing.Snapshots.FailPuts(errors.New("disk full"))
	rec = ts.do(t, http.MethodPost, "/api/v1/reviews", "citizen", map[string]any{
		"client_id": "1002",
		"rating":    5,
		"category":  "SERVICE",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[struct {
		Status string            `json:"status"`
		Stores map[string]string `json:"stores"`
	}](t, rec)
	assert.Equal(t, "degraded", health.Status)
	assert.Contains(t, health.Stores["billing"], "disk full")
	assert.Equal(t, "ok", health.Stores["ticketing"])
}
