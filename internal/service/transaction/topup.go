package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/audit"
	"walletcore/internal/models"
	"walletcore/internal/repository"
	"walletcore/internal/service/refcode"
)

type TopUpRequest struct {
	WalletID     int64
	Amount       decimal.Decimal
	SourceRef    string
	CurrencyCode string
	Description  string
	IPAddress    string
}

// TopUp credits external funds into a wallet. The pending transaction row is
// committed before the settlement call so an auditable record exists even if
// the process dies while waiting for the bank. Balances change only in the
// second boundary, after the bank answered.
func (s *Service) TopUp(ctx context.Context, req TopUpRequest) (Result, error) {
	if req.Amount.Sign() <= 0 {
		return Result{}, apperrors.ErrInvalidAmount
	}

	wallet, err := s.storage.Wallet().GetWallet(ctx, req.WalletID)
	if err != nil {
		return Result{}, err
	}
	if err := checkWallet(wallet, req.CurrencyCode); err != nil {
		return Result{}, err
	}

	if err := s.limits.Validate(ctx, wallet.UserID, models.KindTopUp, wallet.CurrencyCode, req.Amount); err != nil {
		return Result{}, err
	}

	feeAmount := s.fees.ForKind(models.KindTopUp, req.Amount)

	pending, err := s.storage.Transaction().CreateTransaction(ctx, models.Transaction{
		ID:               uuid.New(),
		ReceiverWalletID: &wallet.ID,
		Kind:             models.KindTopUp,
		Amount:           req.Amount,
		Fee:              feeAmount,
		CurrencyCode:     wallet.CurrencyCode,
		Status:           models.StatusPending,
		ReferenceCode:    refcode.New(),
		Description:      req.Description,
	})
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	approved, gatewayErr := s.gateway.RequestTopUp(ctx, req.SourceRef, req.Amount, wallet.CurrencyCode, pending.ReferenceCode)
	s.collector.ObserveGateway("topup", time.Since(start))

	status := models.StatusFailed
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		if gatewayErr == nil && approved {
			if _, err := st.Wallet().AdjustBalance(ctx, wallet.ID, req.Amount.Sub(feeAmount)); err != nil {
				return err
			}
			if err := s.creditSystemWallet(ctx, st, wallet.CurrencyCode, feeAmount); err != nil {
				return err
			}
			status = models.StatusSuccess
		}

		_, err := st.Transaction().FinalizeTransaction(ctx, pending.ID, status)
		return err
	})
	if err != nil {
		// The row stays pending for later reconciliation
		return Result{TransactionID: pending.ID, ReferenceCode: pending.ReferenceCode, Status: models.StatusPending},
			fmt.Errorf("can't finalize topup %s. Err: %w", pending.ID, err)
	}

	s.collector.RecordTransaction(models.KindTopUp, status)
	s.recordAudit(ctx, audit.Entry{
		Action:      audit.ActionTopUp,
		Success:     status == models.StatusSuccess,
		IPAddress:   req.IPAddress,
		UserID:      &wallet.UserID,
		ReferenceID: &pending.ID,
	})

	result := Result{TransactionID: pending.ID, ReferenceCode: pending.ReferenceCode, Status: status}

	if gatewayErr != nil {
		// Bank was unreachable: the request is failed, the caller learns why
		return result, fmt.Errorf("settlement not completed: %w", gatewayErr)
	}

	return result, nil
}
