package transaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/audit"
	"walletcore/internal/models"
	"walletcore/internal/repository"
	"walletcore/internal/service/refcode"
)

type TransferRequest struct {
	SenderWalletID       int64
	ReceiverWalletNumber string
	Amount               decimal.Decimal
	CurrencyCode         string
	Description          string
	IPAddress            string
}

// Transfer moves money between two wallets. There is no external settlement
// leg, so the debit, both credits and the transaction row commit in one
// serializable boundary: a concurrent reader never sees a partial transfer.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (Result, error) {
	if req.Amount.Sign() <= 0 {
		return Result{}, apperrors.ErrInvalidAmount
	}

	sender, err := s.storage.Wallet().GetWallet(ctx, req.SenderWalletID)
	if err != nil {
		return Result{}, err
	}
	receiver, err := s.storage.Wallet().GetWalletByNumber(ctx, req.ReceiverWalletNumber)
	if err != nil {
		return Result{}, err
	}
	if sender.ID == receiver.ID {
		return Result{}, apperrors.ErrSameWallet
	}

	if err := checkWallet(sender, req.CurrencyCode); err != nil {
		return Result{}, err
	}
	if err := checkWallet(receiver, req.CurrencyCode); err != nil {
		return Result{}, err
	}

	if err := s.limits.Validate(ctx, sender.UserID, models.KindP2P, sender.CurrencyCode, req.Amount); err != nil {
		return Result{}, err
	}

	feeAmount := s.fees.ForKind(models.KindP2P, req.Amount)
	totalDebit := req.Amount.Add(feeAmount)

	if sender.Balance.LessThan(totalDebit) {
		return Result{}, apperrors.ErrInsufficientBalance
	}
	if err := s.verifySystemWallet(ctx, sender.CurrencyCode, feeAmount); err != nil {
		return Result{}, err
	}

	var created models.Transaction
	err = s.storage.InSerializableTx(ctx, func(st repository.Storage) error {
		if _, err := st.Wallet().AdjustBalance(ctx, sender.ID, totalDebit.Neg()); err != nil {
			return err
		}
		if _, err := st.Wallet().AdjustBalance(ctx, receiver.ID, req.Amount); err != nil {
			return err
		}
		if err := s.creditSystemWallet(ctx, st, sender.CurrencyCode, feeAmount); err != nil {
			return err
		}

		var err error
		created, err = st.Transaction().CreateTransaction(ctx, models.Transaction{
			ID:               uuid.New(),
			SenderWalletID:   &sender.ID,
			ReceiverWalletID: &receiver.ID,
			Kind:             models.KindP2P,
			Amount:           req.Amount,
			Fee:              feeAmount,
			CurrencyCode:     sender.CurrencyCode,
			Status:           models.StatusSuccess,
			ReferenceCode:    refcode.New(),
			Description:      req.Description,
		})
		return err
	})
	if err != nil {
		s.collector.RecordTransaction(models.KindP2P, models.StatusFailed)
		s.recordAudit(ctx, audit.Entry{
			Action:    audit.ActionTransfer,
			Success:   false,
			IPAddress: req.IPAddress,
			UserID:    &sender.UserID,
			Details:   err.Error(),
		})
		return Result{}, fmt.Errorf("transfer failed. Err: %w", err)
	}

	s.collector.RecordTransaction(models.KindP2P, models.StatusSuccess)
	s.recordAudit(ctx, audit.Entry{
		Action:      audit.ActionTransfer,
		Success:     true,
		IPAddress:   req.IPAddress,
		UserID:      &sender.UserID,
		ReferenceID: &created.ID,
	})

	return Result{TransactionID: created.ID, ReferenceCode: created.ReferenceCode, Status: created.Status}, nil
}
