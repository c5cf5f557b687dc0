package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/snelcrm/internal/authorization"
	billingdashboarddomain "github.com/smallbiznis/snelcrm/internal/billingdashboard/domain"
	"github.com/smallbiznis/snelcrm/internal/billingstore"
	"github.com/smallbiznis/snelcrm/internal/config"
	customerdomain "github.com/smallbiznis/snelcrm/internal/customer/domain"
	feedbackdomain "github.com/smallbiznis/snelcrm/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/snelcrm/internal/invoice/domain"
	"github.com/smallbiznis/snelcrm/internal/observability"
	obslogger "github.com/smallbiznis/snelcrm/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/snelcrm/internal/observability/metrics"
	obstracing "github.com/smallbiznis/snelcrm/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/snelcrm/internal/payment/domain"
	readingdomain "github.com/smallbiznis/snelcrm/internal/reading/domain"
	ticketingdomain "github.com/smallbiznis/snelcrm/internal/ticketing/domain"
	ticketingstore "github.com/smallbiznis/snelcrm/internal/ticketing/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the engine and the server. Binaries pick the route groups
// they serve and invoke RunHTTP themselves.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
)

type EngineParams struct {
	fx.In

	Log      *zap.Logger
	ObsCfg   observability.Config
	Metrics  *obsmetrics.Metrics  `optional:"true"`
	Registry *prometheus.Registry `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(p.Log.Named("http"), obslogger.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(p.Metrics))
	r.Use(ErrorHandlingMiddleware())

	if p.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return r
}

// RunHTTP serves the engine for the lifetime of the application.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger

	authzSvc            authorization.Service
	customerSvc         customerdomain.Service
	readingSvc          readingdomain.Service
	invoiceSvc          invoicedomain.Service
	paymentSvc          paymentdomain.Service
	feedbackSvc         feedbackdomain.Service
	billingDashboardSvc billingdashboarddomain.Service
	ticketingSvc        ticketingdomain.Service

	billingStore   *billingstore.Store
	ticketingStore *ticketingstore.Store
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	AuthzSvc authorization.Service

	CustomerSvc         customerdomain.Service         `optional:"true"`
	ReadingSvc          readingdomain.Service          `optional:"true"`
	InvoiceSvc          invoicedomain.Service          `optional:"true"`
	PaymentSvc          paymentdomain.Service          `optional:"true"`
	FeedbackSvc         feedbackdomain.Service         `optional:"true"`
	BillingDashboardSvc billingdashboarddomain.Service `optional:"true"`
	TicketingSvc        ticketingdomain.Service        `optional:"true"`

	BillingStore   *billingstore.Store   `optional:"true"`
	TicketingStore *ticketingstore.Store `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:              p.Gin,
		cfg:                 p.Cfg,
		log:                 p.Log.Named("http.server"),
		authzSvc:            p.AuthzSvc,
		customerSvc:         p.CustomerSvc,
		readingSvc:          p.ReadingSvc,
		invoiceSvc:          p.InvoiceSvc,
		paymentSvc:          p.PaymentSvc,
		feedbackSvc:         p.FeedbackSvc,
		billingDashboardSvc: p.BillingDashboardSvc,
		ticketingSvc:        p.TicketingSvc,
		billingStore:        p.BillingStore,
		ticketingStore:      p.TicketingStore,
	}

	svc.engine.GET("/health", svc.Health)
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterBillingRoutes exposes the electricity CRM consoles.
func (s *Server) RegisterBillingRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Clients & meters --------
	api.GET("/zones", s.authorize(authorization.ObjectClient, authorization.ActionView), s.ListZones)
	api.GET("/clients", s.authorize(authorization.ObjectClient, authorization.ActionView), s.ListClients)
	api.POST("/clients", s.authorize(authorization.ObjectClient, authorization.ActionCreate), s.RegisterClient)
	api.GET("/clients/:id", s.authorize(authorization.ObjectClient, authorization.ActionView), s.GetClient)
	api.POST("/clients/:id/deactivate", s.authorize(authorization.ObjectClient, authorization.ActionClientDeactivate), s.DeactivateClient)
	api.GET("/meters", s.authorize(authorization.ObjectClient, authorization.ActionView), s.ListMeters)
	api.GET("/meters/:id", s.authorize(authorization.ObjectClient, authorization.ActionView), s.GetMeter)
	api.GET("/meter-numbers/:number/client", s.authorize(authorization.ObjectClient, authorization.ActionView), s.GetClientByMeterNumber)
	api.GET("/meter-numbers/:number/last-index", s.authorize(authorization.ObjectReading, authorization.ActionView), s.GetLastIndex)

	// -------- Readings --------
	api.GET("/readings", s.authorize(authorization.ObjectReading, authorization.ActionView), s.ListReadings)
	api.POST("/readings", s.authorize(authorization.ObjectReading, authorization.ActionCreate), s.CreateReading)
	api.GET("/readings/:id", s.authorize(authorization.ObjectReading, authorization.ActionView), s.GetReading)
	api.POST("/readings/:id/validate", s.authorize(authorization.ObjectReading, authorization.ActionReadingDecide), s.ValidateReading)
	api.POST("/readings/:id/reject", s.authorize(authorization.ObjectReading, authorization.ActionReadingDecide), s.RejectReading)

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoices)
	api.POST("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceGenerate), s.GenerateInvoice)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoice)
	api.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.RenderInvoice)
	api.POST("/invoices/:id/cancel", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceCancel), s.CancelInvoice)
	api.GET("/invoice-numbers/:number", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoiceByNumber)

	// -------- Payments --------
	api.GET("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
	api.POST("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionCreate), s.ApplyPayment)
	api.GET("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPayment)
	api.GET("/payments/:id/receipt", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.RenderReceipt)

	// -------- Complaints & reviews --------
	api.GET("/complaints", s.authorize(authorization.ObjectComplaint, authorization.ActionView), s.ListComplaints)
	api.POST("/complaints", s.authorize(authorization.ObjectComplaint, authorization.ActionCreate), s.CreateComplaint)
	api.GET("/complaints/:id", s.authorize(authorization.ObjectComplaint, authorization.ActionView), s.GetComplaint)
	api.POST("/complaints/:id/start", s.authorize(authorization.ObjectComplaint, authorization.ActionComplaintHandle), s.StartComplaint)
	api.POST("/complaints/:id/resolve", s.authorize(authorization.ObjectComplaint, authorization.ActionComplaintHandle), s.ResolveComplaint)
	api.POST("/complaints/:id/close", s.authorize(authorization.ObjectComplaint, authorization.ActionComplaintHandle), s.CloseComplaint)
	api.GET("/reviews", s.authorize(authorization.ObjectReview, authorization.ActionView), s.ListReviews)
	api.POST("/reviews", s.authorize(authorization.ObjectReview, authorization.ActionCreate), s.CreateReview)
	api.GET("/reviews/average", s.authorize(authorization.ObjectReview, authorization.ActionView), s.GetAverageRating)

	// -------- Dashboards --------
	api.GET("/dashboard/summary", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.GetBillingSummary)
	api.GET("/dashboard/agents/:agentId", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.GetAgentActivity)
	api.GET("/dashboard/client-balances", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.ListClientBalances)
	api.GET("/dashboard/periods", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.ListPeriods)
	api.GET("/dashboard/activity", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.ListBillingActivity)
}

// RegisterTicketingRoutes exposes the ticketing back office.
func (s *Server) RegisterTicketingRoutes() {
	api := s.engine.Group("/api/v1/ticketing")

	view := s.authorize(authorization.ObjectTicketing, authorization.ActionView)
	manage := s.authorize(authorization.ObjectTicketing, authorization.ActionTicketingManage)
	sell := s.authorize(authorization.ObjectTicketing, authorization.ActionTicketingSell)
	check := s.authorize(authorization.ObjectTicketing, authorization.ActionTicketingCheck)

	api.GET("/operators", view, s.ListOperators)
	api.POST("/operators", manage, s.CreateOperator)
	api.GET("/lines", view, s.ListLines)
	api.POST("/lines", manage, s.CreateLine)
	api.GET("/departures", view, s.ListDepartures)
	api.POST("/departures", manage, s.CreateDeparture)
	api.GET("/departures/:id", view, s.GetDeparture)
	api.POST("/departures/:id/cancel", manage, s.CancelDeparture)
	api.GET("/tickets", view, s.ListTickets)
	api.POST("/tickets", sell, s.CreateTickets)
	api.GET("/tickets/:code", view, s.GetTicket)
	api.POST("/tickets/:code/validate", check, s.ValidateTicket)
	api.POST("/tickets/:code/cancel", sell, s.CancelTicket)
	api.GET("/summary", view, s.GetTicketingSummary)
}
