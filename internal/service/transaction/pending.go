package transaction

import (
	"context"
	"fmt"
	"time"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
	"walletcore/internal/repository"
)

// FinalizePending settles a transaction that was left pending because the
// process lost the bank's answer. Applies the same balance effects the online
// path would have applied, in one boundary with the status promotion.
func (s *Service) FinalizePending(ctx context.Context, tr models.Transaction, approved bool) error {
	if tr.Status != models.StatusPending {
		return apperrors.ErrTransactionFinal
	}

	status := models.StatusFailed
	if approved {
		status = models.StatusSuccess
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		switch tr.Kind {
		case models.KindTopUp:
			// The wallet was not credited yet: pending topups hold no funds
			if approved {
				if _, err := st.Wallet().AdjustBalance(ctx, *tr.ReceiverWalletID, tr.Amount.Sub(tr.Fee)); err != nil {
					return err
				}
				if err := s.creditSystemWallet(ctx, st, tr.CurrencyCode, tr.Fee); err != nil {
					return err
				}
			}

		case models.KindWithdraw:
			// The reservation already left the wallet when the row was created
			if approved {
				if err := s.creditSystemWallet(ctx, st, tr.CurrencyCode, tr.Fee); err != nil {
					return err
				}
			} else {
				if _, err := st.Wallet().AdjustBalance(ctx, *tr.SenderWalletID, tr.Amount.Add(tr.Fee)); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("transactions of kind %q are never pending", tr.Kind)
		}

		_, err := st.Transaction().FinalizeTransaction(ctx, tr.ID, status)
		return err
	})
	if err != nil {
		return fmt.Errorf("can't finalize pending %s %s. Err: %w", tr.Kind, tr.ID, err)
	}

	s.collector.RecordTransaction(tr.Kind, status)
	s.logger.Info("Pending transaction reconciled", "transaction_id", tr.ID, "kind", tr.Kind, "status", status)

	return nil
}

// ListPendingBefore exposes stale pending transactions to the reconciler
func (s *Service) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	return s.storage.Transaction().ListPendingBefore(ctx, cutoff, limit)
}
