package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"certean-billing/cmd/fx/billing_fx"
	"certean-billing/cmd/fx/config_fx"
	"certean-billing/cmd/fx/controllers_fx"
	"certean-billing/cmd/fx/db_fx"
	"certean-billing/cmd/fx/logger_fx"
	"certean-billing/cmd/fx/memcache_fx"
	"certean-billing/cmd/fx/metrics_fx"
	"certean-billing/cmd/fx/payment_service_fx"
	"certean-billing/internal/api"
	"certean-billing/internal/api/controllers"
	"certean-billing/internal/config"
	"certean-billing/pkg/metrics"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		metrics_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		payment_service_fx.Module,
		billing_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, engine *gin.Engine, s *config.Settings, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				log.Info("starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(
	s *config.Settings,
	log *zap.Logger,
	m *metrics.Metrics,
	paymentController *controllers.PaymentController,
	billingController *controllers.BillingController,
	healthController *controllers.HealthController) *gin.Engine {

	return api.NewRouter(
		api.RouterOptions{JWTSecret: s.JWTSecret, CORSOrigins: s.CORSOrigins},
		log.Named("http"), m,
		paymentController, billingController, healthController,
	)
}
