// Package server assembles repositories, services and middleware into the
// HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/wardbook/config"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/application"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	v1 "github.com/dmehra2102/prod-golang-projects/wardbook/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/records"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/schema"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/tlsconfig"
)

const APIPrefix = "/api/v0"

// Deps is what New needs. Notifier and Audit may be nil.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Registry *subrecord.Registry
	App      *application.Application
	Notifier service.Notifier
	Audit    service.Auditor
	Metrics  *metrics.Collector
	Log      *zap.Logger
}

type Server struct {
	cfg    *config.Config
	router *gin.Engine
	log    *zap.Logger
}

// NewServices wires the gorm repositories into every service the handlers
// use.
func NewServices(d Deps) (v1.Services, *auth.JWTManager, error) {
	sch, err := schema.New(d.App, d.Registry)
	if err != nil {
		return v1.Services{}, nil, fmt.Errorf("building schema: %w", err)
	}

	profiles := repository.NewProfileRepository(d.DB)
	teams := repository.NewTeamRepository(d.DB)
	tx := repository.NewTransactor(d.DB)

	deps := service.Deps{
		Registry: d.Registry,
		Store:    repository.NewSubrecordStore(d.DB),
		Episodes: repository.NewEpisodeRepository(d.DB),
		Patients: repository.NewPatientRepository(d.DB),
		Teams:    teams,
		Profiles: profiles,
		Tx:       tx,
		Notifier: d.Notifier,
		Audit:    d.Audit,
		Metrics:  d.Metrics,
		Log:      d.Log,
	}

	jwtManager := auth.NewJWTManager(d.Config.JWT)
	tagging := service.NewTaggingService(deps)

	return v1.Services{
		Registry:   d.Registry,
		Schema:     sch,
		Episodes:   service.NewEpisodeService(deps),
		Patients:   service.NewPatientService(deps),
		Subrecords: service.NewSubrecordService(deps),
		Tagging:    tagging,
		Options: service.NewOptionsService(
			repository.NewLookupListRepository(d.DB),
			teams,
			profiles,
			records.LookupLists(d.Registry),
			sch.MicroTestDefaults(),
			d.Config.API.OptionsCacheTTL,
			d.Log,
		),
		Profiles:  service.NewProfileService(profiles),
		Referrals: service.NewReferralService(tagging, d.Log),
		Auth: service.NewAuthService(
			repository.NewUserRepository(d.DB),
			profiles,
			tx,
			jwtManager,
			d.Audit,
			d.Log,
		),
	}, jwtManager, nil
}

func New(d Deps) (*Server, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	services, tokens, err := NewServices(d)
	if err != nil {
		return nil, err
	}
	h := v1.NewHandler(services)
	cfg := d.Config

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(ginzap.Ginzap(d.Log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(d.Log, true))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.CORS)))
	}
	r.Use(middleware.SecurityHeaders(), middleware.RequestID(), middleware.Metrics(d.Metrics))

	r.GET("/healthz", health(d.DB))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize, d.Metrics)
	authn := middleware.Authenticate(tokens, d.Log)

	authGroup := r.Group(APIPrefix+"/auth", middleware.PerMinute(cfg.RateLimit.AuthRequestsPerMinute, d.Metrics).Middleware(), authn)
	h.RegisterAuth(authGroup)

	api := r.Group(APIPrefix, limiter.Middleware(), authn)
	if cfg.API.RequireAuth {
		api.Use(middleware.RequireAuth())
	}
	h.RegisterAPI(api)

	legacy := r.Group("/", limiter.Middleware())
	if cfg.API.RequireAuth {
		legacy.Use(authn, middleware.RequireAuth())
	}
	h.RegisterLegacy(legacy)

	return &Server{cfg: cfg, router: r, log: d.Log}, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	sc := s.cfg.Server
	srv := &http.Server{
		Addr:         sc.Address(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}
	if sc.TLS.Enabled {
		tlsCfg, err := tlsconfig.Server(sc.TLS)
		if err != nil {
			return fmt.Errorf("configuring tls: %w", err)
		}
		srv.TLSConfig = tlsCfg
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", sc.TLS.Enabled),
		)
		var err error
		if sc.TLS.Enabled {
			err = srv.ListenAndServeTLS(sc.TLS.CertFile, sc.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  c.AllowedMethods,
		AllowHeaders:  c.AllowedHeaders,
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        c.MaxAge,
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = c.AllowedOrigins
	cc.AllowCredentials = true
	return cc
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
