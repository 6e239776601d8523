package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tramitex/cotiza/internal/catalog"
	catalogdomain "github.com/tramitex/cotiza/internal/catalog/domain"
	"github.com/tramitex/cotiza/internal/config"
	"github.com/tramitex/cotiza/internal/quote"
	quotedomain "github.com/tramitex/cotiza/internal/quote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	catalog.Module,
	quote.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server", zap.Error(err))
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
	engine      *gin.Engine
	quoteSvc    quotedomain.Service
	catalogRepo catalogdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	QuoteSvc    quotedomain.Service
	CatalogRepo catalogdomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		quoteSvc:    p.QuoteSvc,
		catalogRepo: p.CatalogRepo,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Reference catalogs --------
	api.GET("/procedure-types", s.ListProcedureTypes)
	api.GET("/catalog-services", s.ListCatalogServices)
	api.GET("/external-providers", s.ListExternalProviders)
	api.GET("/margin-thresholds", s.ListMarginThresholds)

	// -------- Quotes --------
	api.GET("/quotes", s.ListQuotes)
	api.POST("/quotes", s.CreateQuote)
	api.GET("/quotes/:id", s.GetQuoteByID)
	api.PUT("/quotes/:id", s.UpdateQuote)
	api.DELETE("/quotes/:id", s.DeleteQuote)
	api.GET("/quotes/:id/totals", s.GetQuoteTotals)
	api.PUT("/quotes/:id/items", s.ReplaceQuoteItems)
	api.POST("/quotes/:id/items/from-template", s.AddQuoteItemFromTemplate)
	api.PATCH("/quotes/:id/items/:index", s.UpdateQuoteItemField)
	api.DELETE("/quotes/:id/items/:index", s.RemoveQuoteItem)
}
