package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
	"walletcore/internal/testutil"
)

func Test_WalletRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Each subtest gets a fresh user to hang wallets on
	newUser := func(t *testing.T, tx pgx.Tx, username string) uuid.UUID {
		user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), username, "hashed", models.CategoryStandard)
		require.NoError(t, err)
		return user.ID
	}

	t.Run("create wallet ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := WalletRepo{DB: tx}
			userID := newUser(t, tx, "walletowner")

			iban := "TR000000000001000000000001"
			wallet, err := r.CreateWallet(t.Context(), userID, "W00000000000100", &iban, "try")

			require.NoError(t, err)
			assert.Equal(t, userID, wallet.UserID)
			assert.Equal(t, "W00000000000100", wallet.Number)
			require.NotNil(t, wallet.VirtualIBAN)
			assert.Equal(t, iban, *wallet.VirtualIBAN)
			assert.Equal(t, "TRY", wallet.CurrencyCode, "currency code should be stored uppercase")
			assert.True(t, wallet.Balance.IsZero(), "new wallet starts empty")
			assert.True(t, wallet.IsActive)
		})
	})

	t.Run("create wallet duplicate number fails", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := WalletRepo{DB: tx}
			userID := newUser(t, tx, "dupnumber")

			_, err := r.CreateWallet(t.Context(), userID, "W00000000000101", nil, "TRY")
			require.NoError(t, err)

			_, err = r.CreateWallet(t.Context(), userID, "W00000000000101", nil, "TRY")

			assert.ErrorIs(t, err, apperrors.ErrWalletNumberUsed)
		})
	})

	t.Run("get wallet by id and number", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := WalletRepo{DB: tx}
			userID := newUser(t, tx, "getwallet")

			created, err := r.CreateWallet(t.Context(), userID, "W00000000000102", nil, "TRY")
			require.NoError(t, err)

			byID, err := r.GetWallet(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, byID.ID)

			byNumber, err := r.GetWalletByNumber(t.Context(), "W00000000000102")
			require.NoError(t, err)
			assert.Equal(t, created.ID, byNumber.ID)

			_, err = r.GetWallet(t.Context(), created.ID+1000)
			assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
		})
	})

	t.Run("list user wallets ordered by creation", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := WalletRepo{DB: tx}
			userID := newUser(t, tx, "lister")
			otherID := newUser(t, tx, "otherlister")

			first, err := r.CreateWallet(t.Context(), userID, "W00000000000103", nil, "TRY")
			require.NoError(t, err)
			second, err := r.CreateWallet(t.Context(), userID, "W00000000000104", nil, "USD")
			require.NoError(t, err)
			_, err = r.CreateWallet(t.Context(), otherID, "W00000000000105", nil, "TRY")
			require.NoError(t, err)

			wallets, err := r.ListUserWallets(t.Context(), userID)

			require.NoError(t, err)
			require.Len(t, wallets, 2, "foreign wallets must not leak into the listing")
			assert.Equal(t, first.ID, wallets[0].ID)
			assert.Equal(t, second.ID, wallets[1].ID)
		})
	})

	t.Run("adjust balance", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := WalletRepo{DB: tx}
			userID := newUser(t, tx, "adjuster")

			wallet, err := r.CreateWallet(t.Context(), userID, "W00000000000106", nil, "TRY")
			require.NoError(t, err)

			t.Run("credit and debit", func(t *testing.T) {
				got, err := r.AdjustBalance(t.Context(), wallet.ID, decimal.RequireFromString("100.50"))
				require.NoError(t, err)
				assert.True(t, got.Balance.Equal(decimal.RequireFromString("100.50")))

				got, err = r.AdjustBalance(t.Context(), wallet.ID, decimal.RequireFromString("-0.50"))
				require.NoError(t, err)
				assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
			})

			t.Run("overdraft rejected", func(t *testing.T) {
				_, err := r.AdjustBalance(t.Context(), wallet.ID, decimal.NewFromInt(-1000))

				assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance, "balance never goes below zero")
			})

			t.Run("missing wallet", func(t *testing.T) {
				_, err := r.AdjustBalance(t.Context(), wallet.ID+1000, decimal.NewFromInt(1))

				assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
			})
		})
	})

	t.Run("deactivate wallet", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := WalletRepo{DB: tx}
			userID := newUser(t, tx, "deactivator")

			wallet, err := r.CreateWallet(t.Context(), userID, "W00000000000107", nil, "TRY")
			require.NoError(t, err)

			require.NoError(t, r.Deactivate(t.Context(), wallet.ID))

			got, err := r.GetWallet(t.Context(), wallet.ID)
			require.NoError(t, err, "deactivated wallet is still readable")
			assert.False(t, got.IsActive)

			// Money can't move through a deactivated wallet
			_, err = r.AdjustBalance(t.Context(), wallet.ID, decimal.NewFromInt(10))
			assert.ErrorIs(t, err, apperrors.ErrWalletInactive)

			assert.ErrorIs(t, r.Deactivate(t.Context(), wallet.ID+1000), apperrors.ErrWalletNotFound)
		})
	})
}
