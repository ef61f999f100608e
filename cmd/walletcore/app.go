package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"walletcore/internal/apperrors"
	"walletcore/internal/audit"
	"walletcore/internal/bank"
	"walletcore/internal/db"
	"walletcore/internal/handlers"
	"walletcore/internal/logger"
	"walletcore/internal/metrics"
	"walletcore/internal/models"
	"walletcore/internal/repository"
	"walletcore/internal/repository/postgres"
	"walletcore/internal/service/auth"
	"walletcore/internal/service/fee"
	"walletcore/internal/service/reconciler"
	"walletcore/internal/service/transaction"
	"walletcore/internal/service/wallet"
)

// Owner of the system revenue wallet
const systemUsername = "system.revenue"

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger     logger.Logger
	reconciler *reconciler.Reconciler
	cleanup    []func() error
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if c.DatabaseDSN == "" {
		return nil, errors.New("database dsn is required")
	}
	if c.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}

	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	app := &ServerApp{
		ListenAddr: c.ListenAddr,
		logger:     log,
		cleanup:    []func() error{func() error { pool.Close(); return nil }},
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	if err := ensureSystemWallet(ctx, storage, c.SystemWalletNumber, c.DefaultCurrency); err != nil {
		return nil, fmt.Errorf("error while preparing system wallet. Err: %w", err)
	}

	// Audit sinks: postgres always, rabbitmq when configured
	recorder := audit.Multi{audit.NewPostgresRecorder(pool)}
	if c.AMQPURL != "" {
		publisher, err := audit.NewAMQPPublisher(c.AMQPURL, "walletcore.audit", "audit.transaction")
		if err != nil {
			return nil, fmt.Errorf("error while connecting to rabbitmq. Err: %w", err)
		}
		app.cleanup = append(app.cleanup, publisher.Close)
		recorder = append(recorder, publisher)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.New("walletcore", registry)

	// Initialize services
	authService, err := auth.NewService(auth.Config{
		SecretKey:       c.SecretKey,
		DefaultCurrency: c.DefaultCurrency,
	}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	walletService := wallet.NewService(storage)

	gateway := bank.NewClient(c.BankGatewayAddr, log)
	transactionService, err := transaction.NewService(transaction.Config{
		Rates:              fee.DefaultRates(),
		SystemWalletNumber: c.SystemWalletNumber,
	}, storage, gateway, recorder, collector, log)
	if err != nil {
		return nil, fmt.Errorf("error while creating transaction service. Err: %w", err)
	}

	app.reconciler = reconciler.New(gateway, log, transactionService)
	app.Handler = handlers.NewRouter(authService, walletService, transactionService, registry, log)

	return app, nil
}

// ensureSystemWallet makes sure the fee collecting wallet exists before the
// first flow runs. The wallet belongs to a dedicated system user nobody logs
// in as.
func ensureSystemWallet(ctx context.Context, storage repository.Storage, number string, currencyCode string) error {
	_, err := storage.Wallet().GetWalletByNumber(ctx, number)
	if !errors.Is(err, apperrors.ErrWalletNotFound) {
		return err
	}

	return storage.InTx(ctx, func(st repository.Storage) error {
		owner, err := st.User().GetUserByUsername(ctx, systemUsername)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Password is random and thrown away: the account is not for logging in
			hashed, hashErr := (auth.BcryptHasher{}).Hash(uuid.NewString())
			if hashErr != nil {
				return hashErr
			}
			owner, err = st.User().CreateUser(ctx, systemUsername, hashed, models.CategoryPremium)
		}
		if err != nil {
			return err
		}

		_, err = st.Wallet().CreateWallet(ctx, owner.ID, number, nil, currencyCode)
		return err
	})
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	// Resolve stale pending settlements in the background
	reconcilerStopped := s.reconciler.Process(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-reconcilerStopped

	for _, closeFn := range s.cleanup {
		if closeErr := closeFn(); closeErr != nil {
			s.logger.Error("Cleanup error on shutdown", "error", closeErr)
		}
	}

	return err
}
