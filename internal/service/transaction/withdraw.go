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
	"walletcore/internal/service/validate"
)

type WithdrawRequest struct {
	WalletID        int64
	Amount          decimal.Decimal
	DestinationIBAN string
	CurrencyCode    string
	Description     string
	IPAddress       string
}

// Withdraw reserves funds pessimistically: the first boundary debits the
// wallet and records a pending transaction, the settlement call is the pivot,
// the second boundary either confirms or credits the reservation back.
func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (Result, error) {
	if req.Amount.Sign() <= 0 {
		return Result{}, apperrors.ErrInvalidAmount
	}
	if err := validate.IBAN(req.DestinationIBAN); err != nil {
		return Result{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidIBAN, err)
	}

	wallet, err := s.storage.Wallet().GetWallet(ctx, req.WalletID)
	if err != nil {
		return Result{}, err
	}
	if err := checkWallet(wallet, req.CurrencyCode); err != nil {
		return Result{}, err
	}

	if err := s.limits.Validate(ctx, wallet.UserID, models.KindWithdraw, wallet.CurrencyCode, req.Amount); err != nil {
		return Result{}, err
	}

	feeAmount := s.fees.ForKind(models.KindWithdraw, req.Amount)
	totalDebit := req.Amount.Add(feeAmount)

	if wallet.Balance.LessThan(totalDebit) {
		return Result{}, apperrors.ErrInsufficientBalance
	}

	var pending models.Transaction
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		if _, err := st.Wallet().AdjustBalance(ctx, wallet.ID, totalDebit.Neg()); err != nil {
			return err
		}

		var err error
		pending, err = st.Transaction().CreateTransaction(ctx, models.Transaction{
			ID:             uuid.New(),
			SenderWalletID: &wallet.ID,
			Kind:           models.KindWithdraw,
			Amount:         req.Amount,
			Fee:            feeAmount,
			CurrencyCode:   wallet.CurrencyCode,
			Status:         models.StatusPending,
			ReferenceCode:  refcode.New(),
			Description:    req.Description,
		})
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("can't reserve funds. Err: %w", err)
	}

	start := time.Now()
	approved, gatewayErr := s.gateway.RequestWithdraw(ctx, req.DestinationIBAN, req.Amount, wallet.CurrencyCode, pending.ReferenceCode)
	s.collector.ObserveGateway("withdraw", time.Since(start))

	status := models.StatusFailed
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		if gatewayErr == nil && approved {
			if err := s.creditSystemWallet(ctx, st, wallet.CurrencyCode, feeAmount); err != nil {
				return err
			}
			status = models.StatusSuccess
		} else {
			// Compensate: the reserved funds go back in full
			if _, err := st.Wallet().AdjustBalance(ctx, wallet.ID, totalDebit); err != nil {
				return err
			}
		}

		_, err := st.Transaction().FinalizeTransaction(ctx, pending.ID, status)
		return err
	})
	if err != nil {
		// Funds stay reserved and the row stays pending for reconciliation
		return Result{TransactionID: pending.ID, ReferenceCode: pending.ReferenceCode, Status: models.StatusPending},
			fmt.Errorf("can't finalize withdrawal %s. Err: %w", pending.ID, err)
	}

	s.collector.RecordTransaction(models.KindWithdraw, status)
	s.recordAudit(ctx, audit.Entry{
		Action:      audit.ActionWithdraw,
		Success:     status == models.StatusSuccess,
		IPAddress:   req.IPAddress,
		UserID:      &wallet.UserID,
		ReferenceID: &pending.ID,
	})

	result := Result{TransactionID: pending.ID, ReferenceCode: pending.ReferenceCode, Status: status}

	if gatewayErr != nil {
		return result, fmt.Errorf("settlement not completed: %w", gatewayErr)
	}

	return result, nil
}
