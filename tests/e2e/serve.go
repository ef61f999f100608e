package e2e

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"walletcore/internal/bank"
	"walletcore/internal/handlers"
	"walletcore/internal/logger"
	"walletcore/internal/models"
	"walletcore/internal/repository"
	"walletcore/internal/repository/postgres"
	"walletcore/internal/service/auth"
	"walletcore/internal/service/fee"
	"walletcore/internal/service/transaction"
	"walletcore/internal/service/wallet"
	"walletcore/internal/testutil"
)

// Number of the fee collecting wallet every test run prepares
const SystemWalletNumber = "W99999999999999"

type Services struct {
	Auth        *auth.Service
	Wallet      *wallet.Service
	Transaction *transaction.Service
	Storage     repository.Storage
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, gateway bank.Gateway, fn func(tx pgx.Tx, srvURL string, services Services)) {
	t.Helper()

	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		// The fee wallet must exist before any flow runs
		hashed, err := (auth.BcryptHasher{}).Hash("not-for-login")
		require.NoError(t, err)
		owner, err := storage.User().CreateUser(t.Context(), "system.revenue", hashed, models.CategoryPremium)
		require.NoError(t, err, "system user should be created")
		_, err = storage.Wallet().CreateWallet(t.Context(), owner.ID, SystemWalletNumber, nil, "TRY")
		require.NoError(t, err, "system wallet should be created")

		// Initialize production services on top of the test transaction
		authService, err := auth.NewService(auth.Config{SecretKey: "test-secret"}, storage)
		require.NoError(t, err, "auth service starting error")

		walletService := wallet.NewService(storage)

		transactionService, err := transaction.NewService(transaction.Config{
			Rates:              fee.DefaultRates(),
			SystemWalletNumber: SystemWalletNumber,
		}, storage, gateway, nil, nil, logger.NewNop())
		require.NoError(t, err, "transaction service starting error")

		router := handlers.NewRouter(authService, walletService, transactionService, nil, logger.NewNop())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Auth:        authService,
			Wallet:      walletService,
			Transaction: transactionService,
			Storage:     storage,
		})
	})
}

// GatewayStub is a scripted settlement party for tests
type GatewayStub struct {
	ApproveTopUp    bool
	ApproveWithdraw bool
	Err             error
}

func (g GatewayStub) RequestTopUp(_ context.Context, _ string, _ decimal.Decimal, _ string, _ string) (bool, error) {
	return g.ApproveTopUp, g.Err
}

func (g GatewayStub) RequestWithdraw(_ context.Context, _ string, _ decimal.Decimal, _ string, _ string) (bool, error) {
	return g.ApproveWithdraw, g.Err
}
