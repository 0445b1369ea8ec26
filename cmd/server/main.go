package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tipjar/config"
	"tipjar/internal/database"
	"tipjar/internal/repository"
	"tipjar/internal/router"
	"tipjar/internal/service"
	"tipjar/pkg/yoomoney"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using process environment")
	}
	cfg := config.Load()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	paymentRepo := repository.NewPaymentRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	tokens := service.NewTokenStore(settingRepo)
	if cfg.YooMoney.SeedToken != "" {
		if err := tokens.Set(cfg.YooMoney.SeedToken); err != nil {
			log.Fatalf("seed token: %v", err)
		}
		log.Info("pre-issued access token stored")
	}

	gateway := yoomoney.NewClient(yoomoney.Config{
		ClientID:     cfg.YooMoney.ClientID,
		ClientSecret: cfg.YooMoney.ClientSecret,
		RedirectURI:  cfg.YooMoney.RedirectURI,
	}, tokens)

	donations := service.NewDonationService(paymentRepo, log)
	reconciler := service.NewReconciler(donations, gateway, cfg.Reconcile.Interval, cfg.Reconcile.PendingMaxAge, log)
	reconciler.Start()
	defer reconciler.Stop()

	engine := router.Setup(cfg, donations, reconciler, gateway, tokens)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Infof("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
	log.Info("server stopped")
}
