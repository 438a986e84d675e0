package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/subguard/subguard/docs"
	"github.com/subguard/subguard/internal/app/api/handlers"
	mw "github.com/subguard/subguard/internal/app/api/middleware"
	actsvc "github.com/subguard/subguard/internal/app/service/activity"
	authsvc "github.com/subguard/subguard/internal/app/service/auth"
	"github.com/subguard/subguard/internal/app/service/execution"
	"github.com/subguard/subguard/internal/app/service/negotiation"
	"github.com/subguard/subguard/internal/app/service/optimizer"
	"github.com/subguard/subguard/internal/app/service/statistics"
	subsvc "github.com/subguard/subguard/internal/app/service/subscription"
	cfgpkg "github.com/subguard/subguard/pkg/config"
	metrics "github.com/subguard/subguard/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group.
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log           *zap.SugaredLogger
	Cfg           *cfgpkg.Config
	Auth          *authsvc.Service
	Subscriptions *subsvc.Service
	Optimizer     *optimizer.Service
	Execution     *execution.Service
	Negotiations  *negotiation.Service
	Activities    *actsvc.Service
	Stats         *statistics.Service
}

func registerRoutes(r *gin.Engine, deps routeDeps) {
	log, cfg := deps.Log, deps.Cfg

	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API group: register/login are public, everything else needs a token.
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	protected := apiV1.Group("")
	protected.Use(mw.AuthMiddleware(deps.Auth))

	handlers.RegisterAuthRoutes(apiV1, protected, deps.Auth)
	handlers.RegisterSubscriptionRoutes(protected, deps.Subscriptions, deps.Optimizer)
	handlers.RegisterOptimizationRoutes(protected, deps.Optimizer, deps.Execution, deps.Stats)
	handlers.RegisterNegotiationRoutes(protected, deps.Negotiations)
	handlers.RegisterActivityRoutes(protected, deps.Activities)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
