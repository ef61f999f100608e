package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
	"walletcore/internal/testutil"
)

func Test_TransactionRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Prepare a user with two wallets, returns both wallets
	fixture := func(t *testing.T, tx pgx.Tx, username string, number1 string, number2 string) (models.Wallet, models.Wallet) {
		user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), username, "hashed", models.CategoryStandard)
		require.NoError(t, err)

		wr := WalletRepo{DB: tx}
		w1, err := wr.CreateWallet(t.Context(), user.ID, number1, nil, "TRY")
		require.NoError(t, err)
		w2, err := wr.CreateWallet(t.Context(), user.ID, number2, nil, "TRY")
		require.NoError(t, err)

		return w1, w2
	}

	t.Run("create transaction fills defaults", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TransactionRepo{DB: tx}
			w1, _ := fixture(t, tx, "creator", "W00000000000200", "W00000000000201")

			created, err := r.CreateTransaction(t.Context(), models.Transaction{
				ReceiverWalletID: &w1.ID,
				Kind:             models.KindTopUp,
				Amount:           decimal.RequireFromString("120.00"),
				Fee:              decimal.RequireFromString("1.20"),
				CurrencyCode:     "try",
				ReferenceCode:    "WLT-20260101120000-000001",
			})

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID, "id should be generated")
			assert.Equal(t, models.StatusPending, created.Status, "status defaults to pending")
			assert.Equal(t, "TRY", created.CurrencyCode, "currency code should be stored uppercase")
			assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
		})
	})

	t.Run("duplicate reference code rejected", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TransactionRepo{DB: tx}
			w1, _ := fixture(t, tx, "dupref", "W00000000000202", "W00000000000203")

			tr := models.Transaction{
				ReceiverWalletID: &w1.ID,
				Kind:             models.KindTopUp,
				Amount:           decimal.NewFromInt(10),
				CurrencyCode:     "TRY",
				ReferenceCode:    "WLT-20260101120000-000002",
			}

			_, err := r.CreateTransaction(t.Context(), tr)
			require.NoError(t, err)

			tr.ID = uuid.New()
			_, err = r.CreateTransaction(t.Context(), tr)

			assert.ErrorIs(t, err, apperrors.ErrDuplicateReference)
		})
	})

	t.Run("finalize transaction", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TransactionRepo{DB: tx}
			w1, _ := fixture(t, tx, "finalizer", "W00000000000204", "W00000000000205")

			pending, err := r.CreateTransaction(t.Context(), models.Transaction{
				ReceiverWalletID: &w1.ID,
				Kind:             models.KindTopUp,
				Amount:           decimal.NewFromInt(10),
				CurrencyCode:     "TRY",
				ReferenceCode:    "WLT-20260101120000-000003",
			})
			require.NoError(t, err)

			t.Run("pending to success", func(t *testing.T) {
				got, err := r.FinalizeTransaction(t.Context(), pending.ID, models.StatusSuccess)

				require.NoError(t, err)
				assert.Equal(t, models.StatusSuccess, got.Status)
			})

			t.Run("terminal is immutable", func(t *testing.T) {
				_, err := r.FinalizeTransaction(t.Context(), pending.ID, models.StatusFailed)

				assert.ErrorIs(t, err, apperrors.ErrTransactionFinal, "success never becomes failed")
			})

			t.Run("pending is not terminal target", func(t *testing.T) {
				_, err := r.FinalizeTransaction(t.Context(), pending.ID, models.StatusPending)

				assert.Error(t, err, "finalizing to pending makes no sense")
			})

			t.Run("missing transaction", func(t *testing.T) {
				_, err := r.FinalizeTransaction(t.Context(), uuid.New(), models.StatusFailed)

				assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
			})
		})
	})

	t.Run("get transaction detail carries wallet numbers", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TransactionRepo{DB: tx}
			w1, w2 := fixture(t, tx, "detailer", "W00000000000206", "W00000000000207")

			created, err := r.CreateTransaction(t.Context(), models.Transaction{
				SenderWalletID:   &w1.ID,
				ReceiverWalletID: &w2.ID,
				Kind:             models.KindP2P,
				Amount:           decimal.NewFromInt(30),
				Fee:              decimal.RequireFromString("0.30"),
				CurrencyCode:     "TRY",
				Status:           models.StatusSuccess,
				ReferenceCode:    "WLT-20260101120000-000004",
				Description:      "dinner split",
			})
			require.NoError(t, err)

			detail, err := r.GetTransaction(t.Context(), created.ID)

			require.NoError(t, err)
			require.NotNil(t, detail.SenderWalletNumber)
			require.NotNil(t, detail.ReceiverWalletNumber)
			assert.Equal(t, "W00000000000206", *detail.SenderWalletNumber)
			assert.Equal(t, "W00000000000207", *detail.ReceiverWalletNumber)
			assert.Equal(t, "dinner split", detail.Description)

			_, err = r.GetTransaction(t.Context(), uuid.New())
			assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
		})
	})

	t.Run("list wallet transactions most recent first", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TransactionRepo{DB: tx}
			w1, w2 := fixture(t, tx, "historian", "W00000000000208", "W00000000000209")

			base := time.Now().Add(-time.Hour)
			for i, kind := range []string{models.KindTopUp, models.KindP2P} {
				tr := models.Transaction{
					Kind:          kind,
					Amount:        decimal.NewFromInt(int64(i + 1)),
					CurrencyCode:  "TRY",
					CreatedAt:     base.Add(time.Duration(i) * time.Minute),
					ReferenceCode: "WLT-20260101120001-00000" + string(rune('5'+i)),
				}
				switch kind {
				case models.KindTopUp:
					tr.ReceiverWalletID = &w1.ID
				case models.KindP2P:
					tr.SenderWalletID = &w1.ID
					tr.ReceiverWalletID = &w2.ID
				}
				_, err := r.CreateTransaction(t.Context(), tr)
				require.NoError(t, err)
			}

			transactions, err := r.ListWalletTransactions(t.Context(), w1.ID)

			require.NoError(t, err)
			require.Len(t, transactions, 2, "wallet participates on either side")
			assert.Equal(t, models.KindP2P, transactions[0].Kind, "most recent first")
			assert.Equal(t, models.KindTopUp, transactions[1].Kind)

			other, err := r.ListWalletTransactions(t.Context(), w2.ID)
			require.NoError(t, err)
			require.Len(t, other, 1, "receiver side counts too")
		})
	})

	t.Run("sum successful since", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TransactionRepo{DB: tx}
			user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), "summer", "hashed", models.CategoryStandard)
			require.NoError(t, err)

			wr := WalletRepo{DB: tx}
			w1, err := wr.CreateWallet(t.Context(), user.ID, "W00000000000210", nil, "TRY")
			require.NoError(t, err)

			newTr := func(kind string, amount string, status string, createdAt time.Time, ref string) {
				tr := models.Transaction{
					Kind:          kind,
					Amount:        decimal.RequireFromString(amount),
					CurrencyCode:  "TRY",
					Status:        status,
					CreatedAt:     createdAt,
					ReferenceCode: ref,
				}
				switch kind {
				case models.KindTopUp:
					tr.ReceiverWalletID = &w1.ID
				default:
					tr.SenderWalletID = &w1.ID
				}
				_, err := r.CreateTransaction(t.Context(), tr)
				require.NoError(t, err)
			}

			now := time.Now()
			startOfDay := now.Add(-2 * time.Hour)
			newTr(models.KindWithdraw, "100.00", models.StatusSuccess, now.Add(-time.Hour), "WLT-20260101120002-000001")
			newTr(models.KindWithdraw, "50.00", models.StatusSuccess, now.Add(-time.Minute), "WLT-20260101120002-000002")
			newTr(models.KindWithdraw, "999.00", models.StatusFailed, now.Add(-time.Minute), "WLT-20260101120002-000003")  // failed doesn't count
			newTr(models.KindWithdraw, "888.00", models.StatusSuccess, now.Add(-3*time.Hour), "WLT-20260101120002-000004") // before window
			newTr(models.KindTopUp, "777.00", models.StatusSuccess, now.Add(-time.Minute), "WLT-20260101120002-000005")    // different kind

			total, err := r.SumSuccessfulSince(t.Context(), user.ID, models.KindWithdraw, startOfDay)

			require.NoError(t, err)
			assert.True(t, total.Equal(decimal.NewFromInt(150)), "got %s", total)

			topups, err := r.SumSuccessfulSince(t.Context(), user.ID, models.KindTopUp, startOfDay)
			require.NoError(t, err)
			assert.True(t, topups.Equal(decimal.NewFromInt(777)), "topup counts the receiver side")
		})
	})

	t.Run("list pending before cutoff", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TransactionRepo{DB: tx}
			w1, _ := fixture(t, tx, "reconciled", "W00000000000211", "W00000000000212")

			now := time.Now()
			old, err := r.CreateTransaction(t.Context(), models.Transaction{
				ReceiverWalletID: &w1.ID,
				Kind:             models.KindTopUp,
				Amount:           decimal.NewFromInt(10),
				CurrencyCode:     "TRY",
				CreatedAt:        now.Add(-10 * time.Minute),
				ReferenceCode:    "WLT-20260101120003-000001",
			})
			require.NoError(t, err)

			_, err = r.CreateTransaction(t.Context(), models.Transaction{
				ReceiverWalletID: &w1.ID,
				Kind:             models.KindTopUp,
				Amount:           decimal.NewFromInt(10),
				CurrencyCode:     "TRY",
				CreatedAt:        now,
				ReferenceCode:    "WLT-20260101120003-000002",
			})
			require.NoError(t, err)

			pending, err := r.ListPendingBefore(t.Context(), now.Add(-5*time.Minute), 10)

			require.NoError(t, err)
			require.Len(t, pending, 1, "fresh pending rows stay out of the batch")
			assert.Equal(t, old.ID, pending[0].ID)
		})
	})
}
