// Package server wires the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ajyalhq/ajyal/internal/audit"
	"github.com/ajyalhq/ajyal/internal/billing"
	"github.com/ajyalhq/ajyal/internal/config"
	"github.com/ajyalhq/ajyal/internal/invoice"
	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	"github.com/ajyalhq/ajyal/internal/job"
	jobdomain "github.com/ajyalhq/ajyal/internal/job/domain"
	"github.com/ajyalhq/ajyal/internal/laborer"
	labordomain "github.com/ajyalhq/ajyal/internal/laborer/domain"
	obslogger "github.com/ajyalhq/ajyal/internal/observability/logger"
	obstracing "github.com/ajyalhq/ajyal/internal/observability/tracing"
	"github.com/ajyalhq/ajyal/internal/providers/pdf"
	"github.com/ajyalhq/ajyal/internal/ratelimit"
	"github.com/ajyalhq/ajyal/internal/sequence"
	"github.com/ajyalhq/ajyal/internal/tenant"
	tenantdomain "github.com/ajyalhq/ajyal/internal/tenant/domain"
	"github.com/ajyalhq/ajyal/internal/timesheet"
	timesheetdomain "github.com/ajyalhq/ajyal/internal/timesheet/domain"
)

var Module = fx.Module("http.server",
	audit.Module,
	tenant.Module,
	job.Module,
	laborer.Module,
	timesheet.Module,
	billing.Module,
	sequence.Module,
	invoice.Module,
	ratelimit.Module,
	pdf.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	tenantSvc    tenantdomain.Service
	jobSvc       jobdomain.Service
	laborerSvc   labordomain.Service
	timesheetSvc timesheetdomain.Service
	invoiceSvc   invoicedomain.Service
	pdfProvider  pdf.Provider
	writeLimiter *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	TenantSvc    tenantdomain.Service
	JobSvc       jobdomain.Service
	LaborerSvc   labordomain.Service
	TimesheetSvc timesheetdomain.Service
	InvoiceSvc   invoicedomain.Service
	PDFProvider  pdf.Provider
	WriteLimiter *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("server"),
		tenantSvc:    p.TenantSvc,
		jobSvc:       p.JobSvc,
		laborerSvc:   p.LaborerSvc,
		timesheetSvc: p.TimesheetSvc,
		invoiceSvc:   p.InvoiceSvc,
		pdfProvider:  p.PDFProvider,
		writeLimiter: p.WriteLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/tenants", s.CreateTenant)

	api := v1.Group("", s.TenantRequired())

	api.GET("/tenant", s.GetCurrentTenant)
	api.PATCH("/tenant/billing-settings", s.UpdateBillingSettings)

	// -------- Jobs --------
	api.GET("/jobs", s.ListJobs)
	api.POST("/jobs", s.WriteRateLimit(), s.CreateJob)
	api.GET("/jobs/:id", s.GetJobByID)
	api.PATCH("/jobs/:id", s.WriteRateLimit(), s.UpdateJob)
	api.DELETE("/jobs/:id", s.WriteRateLimit(), s.DeleteJob)

	// -------- Laborers --------
	api.GET("/laborers", s.ListLaborers)
	api.POST("/laborers", s.WriteRateLimit(), s.CreateLaborer)
	api.GET("/laborers/:id", s.GetLaborerByID)
	api.PATCH("/laborers/:id", s.WriteRateLimit(), s.UpdateLaborer)
	api.DELETE("/laborers/:id", s.WriteRateLimit(), s.DeleteLaborer)

	// -------- Timesheets --------
	api.GET("/timesheets", s.ListTimesheetEntries)
	api.POST("/timesheets", s.WriteRateLimit(), s.CreateTimesheetEntry)
	api.GET("/timesheets/:id", s.GetTimesheetEntryByID)
	api.DELETE("/timesheets/:id", s.WriteRateLimit(), s.DeleteTimesheetEntry)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.WriteRateLimit(), s.CreateManualInvoice)
	api.POST("/invoices/generate", s.WriteRateLimit(), s.GenerateMonthlyInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	api.POST("/invoices/:id/transition", s.WriteRateLimit(), s.TransitionInvoice)
	api.DELETE("/invoices/:id", s.WriteRateLimit(), s.DeleteInvoice)
}
