package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-backend/config"
	"storefront-backend/internal/delivery"
	"storefront-backend/internal/domain"
	"storefront-backend/internal/payment"
	"storefront-backend/internal/repository/memory"
	mongorepo "storefront-backend/internal/repository/mongo"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/shutdown"
)

type stores struct {
	products domain.ProductStore
	orders   domain.OrderStore
	users    domain.UserStore
	close    func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("Using in-memory stores; data is lost on restart")
		return &stores{
			products: memory.NewProductRepository(log),
			orders:   memory.NewOrderRepository(log),
			users:    memory.NewUserRepository(log),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongorepo.Connect(ctx, cfg.MongoURL, log)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := mongorepo.EnsureIndexes(ctx, db, log); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &stores{
		products: mongorepo.NewProductRepository(db, log),
		orders:   mongorepo.NewOrderRepository(db, log),
		users:    mongorepo.NewUserRepository(db, log),
		close:    client.Disconnect,
	}, nil
}

func main() {
	bootLog := logger.New("info")
	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Errorf("Server exited with error: %v", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer closeCancel()
		if err := st.close(closeCtx); err != nil {
			log.Errorf("Failed to close store: %v", err)
		}
	}()

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.GatewayTimeout, log)

	authUC := usecase.NewAuthUseCase(st.users, usecase.AuthOptions{
		Secret:      []byte(cfg.JWTSecret),
		TTL:         cfg.JWTTTL,
		AdminEmails: cfg.AdminEmails,
	}, log)
	productUC := usecase.NewProductUseCase(st.products, log)
	checkoutUC := usecase.NewCheckoutUseCase(st.products, gateway, usecase.CheckoutOptions{
		SiteURL:        cfg.SiteURL,
		Currency:       cfg.Currency,
		GatewayTimeout: cfg.GatewayTimeout,
		Concurrency:    cfg.CheckoutConcurrency,
	}, log)
	reconcileUC := usecase.NewReconcileUseCase(st.orders, st.products, gateway, gateway, usecase.ReconcileOptions{
		GatewayTimeout: cfg.GatewayTimeout,
		Concurrency:    cfg.CheckoutConcurrency,
	}, log)
	orderUC := usecase.NewOrderUseCase(st.orders, st.products, cfg.CheckoutConcurrency, log)

	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := delivery.NewHandler(delivery.Services{
		Auth:     authUC,
		Products: productUC,
		Checkout: checkoutUC,
		Payments: reconcileUC,
		Orders:   orderUC,
	}, log)
	router := delivery.NewRouter(handler, delivery.RouterOptions{CORSOrigins: cfg.CORSOrigins}, log)

	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting HTTP server on %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received, draining connections")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
