package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/retention"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/application/verification"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/config"
	jwtinfra "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/jwt"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/logger"
	transporthttp "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/transport/http"
	appmiddleware "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/transport/http/middleware"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.IsProduction())
	log := logger.Log
	if envErr != nil {
		log.Info("no .env file found, reading from environment")
	}

	ctx := context.Background()

	vdeps := verification.ServiceDeps{
		CountryCode: cfg.CountryCode,
		OTPTTL:      cfg.OTPTTL,
		TokenTTL:    cfg.VerificationTokenTTL,
	}
	rdeps := retention.ServiceDeps{Grace: cfg.RetentionGrace}

	closeLedger, err := wireLedger(ctx, cfg, &vdeps, &rdeps)
	if err != nil {
		log.WithError(err).Fatal("ledger setup failed")
	}
	defer closeLedger()

	if cfg.IdentityBackend != config.IdentityLocal {
		vdeps.Identity = gotrueProvider(cfg)
	}
	if err := wireSenders(ctx, cfg, &vdeps); err != nil {
		log.WithError(err).Fatal("notification setup failed")
	}

	verificationSvc := verification.NewService(vdeps)
	retentionSvc := retention.NewService(rdeps)

	// Admin routes are only mounted with a verification key.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.WithError(err).Warn("JWT provider not available, admin routes disabled")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RetentionCron, func() { runRetention(retentionSvc) }); err != nil {
		log.WithError(err).WithField("schedule", cfg.RetentionCron).Fatal("invalid retention schedule")
	}
	scheduler.Start()

	proxies, err := appmiddleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.WithError(err).Fatal("invalid TRUSTED_PROXIES")
	}
	limiter := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, proxies...)
	defer limiter.Stop()

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Verification: verificationSvc,
		Retention:    retentionSvc,
		JWTProvider:  jwtProvider,
		RateLimiter:  limiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.AppPort).WithField("env", cfg.AppEnv).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	<-scheduler.Stop().Done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
		return
	}
	log.Info("server stopped")
}

func runRetention(svc retention.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	res, err := svc.Purge(ctx)
	entry := logger.Log.WithField("job", "retention")
	if res != nil {
		entry = entry.WithField("otps", res.OTPs).WithField("tokens", res.Tokens)
	}
	if err != nil {
		entry.WithError(err).Error("retention purge failed")
		return
	}
	entry.Info("retention purge finished")
}
