package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"walletcore/internal/handlers/middleware"
	"walletcore/internal/logger"
	"walletcore/internal/models"
	"walletcore/internal/service/auth"
	"walletcore/internal/service/transaction"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	walletService walletService,
	transactionService transactionService,
	gatherer prometheus.Gatherer,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /register", handleRegister(authService, logger))
	apiuser.Handle("POST /login", handleLogin(authService, logger))
	apiuser.Handle("GET /me", withAuth(handleUserMe()))

	apiuser.Handle("POST /wallets", withAuth(handleCreateWallet(walletService, logger)))
	apiuser.Handle("GET /wallets", withAuth(handleListWallets(walletService, logger)))
	apiuser.Handle("DELETE /wallets/{walletID}", withAuth(handleDeactivateWallet(walletService, logger)))
	apiuser.Handle("GET /wallets/{walletID}/transactions", withAuth(handleListWalletTransactions(transactionService, walletService, logger)))

	apiuser.Handle("POST /wallets/topup", withAuth(handleTopUp(transactionService, walletService, logger)))
	apiuser.Handle("POST /wallets/transfer", withAuth(handleTransfer(transactionService, walletService, logger)))
	apiuser.Handle("POST /wallets/withdraw", withAuth(handleWithdraw(transactionService, walletService, logger)))

	apiuser.Handle("GET /transactions/{transactionID}", withAuth(handleGetTransaction(transactionService, walletService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if gatherer != nil {
		root.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with username and password and open the default wallet.
	// Has to return apperrors.ErrUserAlreadyExists if username is taken
	Register(ctx context.Context, username string, password string) (models.User, auth.IssuedToken, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found or password wrong
	Login(ctx context.Context, username string, password string) (models.User, auth.IssuedToken, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type walletService interface {
	Create(ctx context.Context, userID uuid.UUID, currencyCode string) (models.Wallet, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error)
	GetOwned(ctx context.Context, walletID int64, userID uuid.UUID) (models.Wallet, error)
	Deactivate(ctx context.Context, walletID int64, userID uuid.UUID) error
}

type transactionService interface {
	TopUp(ctx context.Context, req transaction.TopUpRequest) (transaction.Result, error)
	Transfer(ctx context.Context, req transaction.TransferRequest) (transaction.Result, error)
	Withdraw(ctx context.Context, req transaction.WithdrawRequest) (transaction.Result, error)
	ListWalletTransactions(ctx context.Context, walletID int64) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (models.TransactionDetail, error)
}
