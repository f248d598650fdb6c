package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/azellar/backend/internal/config"
	"github.com/azellar/backend/internal/health"
	"github.com/azellar/backend/internal/notify"
	"github.com/azellar/backend/internal/obs"
	"github.com/azellar/backend/internal/server"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(obs.LogConfig{
		Format: cfg.Obs.LogFormat,
		Level:  cfg.Obs.LogLevel,
		File:   cfg.Obs.LogFile,
	}).With().Str("env", cfg.AppEnv).Logger()

	if cfg.Mail.ResendAPIKey == "" {
		logger.Error().Msg("RESEND_API_KEY is not set; email endpoints will fail until it is configured")
	}

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "azellar-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	var (
		httpMetrics  *obs.HTTPMetrics
		emailMetrics *obs.EmailMetrics
		gatherer     prometheus.Gatherer
	)
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
		emailMetrics = obs.NewEmailMetrics(cfg.Obs.MetricsNamespace, nil)
		gatherer = prometheus.DefaultGatherer
	}

	mailer, err := notify.NewResendSender(notify.ResendConfig{
		APIKey:     cfg.Mail.ResendAPIKey,
		BaseURL:    cfg.Mail.ResendBaseURL,
		HTTPClient: obs.HTTPClient(cfg.Mail.SendTimeout),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise resend client")
	}

	notifier, err := notify.NewNotifier(notify.Config{
		Mail:           mailer,
		ContactFrom:    cfg.Mail.ContactFrom,
		EnrollmentFrom: cfg.Mail.EnrollmentFrom,
		AdminInbox:     cfg.Mail.AdminInbox,
		SendTimeout:    cfg.Mail.SendTimeout,
		Metrics:        emailMetrics,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise notifier")
	}

	readiness := health.NewReadiness()
	router := server.NewRouter(server.Deps{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		MaxBodyBytes:    cfg.HTTPMaxBodyBytes,
		SecurityHeaders: cfg.SecurityHeaders,
		Tracing:         tracingEnabled,
		Metrics:         httpMetrics,
		Gatherer:        gatherer,
		Contact:         notifier,
		Enrollment:      notifier,
		Readiness:       readiness,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Strs("cors_origins", cfg.CORSAllowedOrigins).Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	readiness.Drain()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}
