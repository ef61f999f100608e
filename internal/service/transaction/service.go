package transaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/audit"
	"walletcore/internal/bank"
	"walletcore/internal/logger"
	"walletcore/internal/metrics"
	"walletcore/internal/models"
	"walletcore/internal/repository"
	"walletcore/internal/service/fee"
	"walletcore/internal/service/limits"
)

type Config struct {
	// Fee rates per transaction kind
	Rates fee.Rates

	// Number of the wallet that accumulates collected fees.
	// The wallet itself is resolved freshly inside every mutating boundary.
	SystemWalletNumber string
}

// Service executes top-up, p2p and withdrawal flows end to end:
// validation, limit checks, fee accounting, balance mutation inside
// transactional boundaries and the external settlement leg.
type Service struct {
	storage   repository.Storage
	limits    *limits.Evaluator
	fees      *fee.Calculator
	gateway   bank.Gateway
	audit     audit.Recorder
	collector *metrics.Collector
	logger    logger.Logger

	systemWalletNumber string
}

func NewService(cfg Config, storage repository.Storage, gateway bank.Gateway, recorder audit.Recorder, collector *metrics.Collector, l logger.Logger) (*Service, error) {
	if storage == nil || gateway == nil {
		return nil, fmt.Errorf("storage and gateway must not be nil")
	}
	if cfg.SystemWalletNumber == "" {
		return nil, fmt.Errorf("system wallet number must be configured")
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if l == nil {
		l = logger.NewNop()
	}

	return &Service{
		storage:            storage,
		limits:             limits.NewEvaluator(storage),
		fees:               fee.NewCalculator(cfg.Rates),
		gateway:            gateway,
		audit:              recorder,
		collector:          collector,
		logger:             l,
		systemWalletNumber: cfg.SystemWalletNumber,
	}, nil
}

// Result of one executed flow
type Result struct {
	TransactionID uuid.UUID
	ReferenceCode string
	Status        string
}

// ListWalletTransactions returns the wallet's transactions, most recent first
func (s *Service) ListWalletTransactions(ctx context.Context, walletID int64) ([]models.Transaction, error) {
	if _, err := s.storage.Wallet().GetWallet(ctx, walletID); err != nil {
		return nil, err
	}

	return s.storage.Transaction().ListWalletTransactions(ctx, walletID)
}

// GetTransaction returns one transaction with counterparty wallet numbers
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (models.TransactionDetail, error) {
	return s.storage.Transaction().GetTransaction(ctx, id)
}

// checkWallet rejects deactivated wallets and requests in a different
// currency than the wallet holds. Currency comparison ignores case.
func checkWallet(w models.Wallet, currencyCode string) error {
	if !w.IsActive {
		return apperrors.ErrWalletInactive
	}
	if !strings.EqualFold(strings.TrimSpace(w.CurrencyCode), strings.TrimSpace(currencyCode)) {
		return apperrors.ErrCurrencyMismatch
	}

	return nil
}

// verifySystemWallet checks the fee destination before any mutation, so a
// misconfigured revenue wallet surfaces as a validation error instead of a
// rolled back boundary. The wallet is re-read inside the boundary when the
// fee is actually credited.
func (s *Service) verifySystemWallet(ctx context.Context, currencyCode string, feeAmount decimal.Decimal) error {
	if feeAmount.IsZero() {
		return nil
	}

	system, err := s.storage.Wallet().GetWalletByNumber(ctx, s.systemWalletNumber)
	if err != nil {
		return fmt.Errorf("system wallet: %w", err)
	}
	if err := checkWallet(system, currencyCode); err != nil {
		return fmt.Errorf("system wallet: %w", err)
	}

	return nil
}

// creditSystemWallet moves the collected fee into the system revenue wallet.
// Must run inside the same boundary as the rest of the flow's mutations.
func (s *Service) creditSystemWallet(ctx context.Context, st repository.Storage, currencyCode string, feeAmount decimal.Decimal) error {
	if feeAmount.IsZero() {
		return nil
	}

	system, err := st.Wallet().GetWalletByNumber(ctx, s.systemWalletNumber)
	if err != nil {
		return fmt.Errorf("system wallet: %w", err)
	}
	if err := checkWallet(system, currencyCode); err != nil {
		return fmt.Errorf("system wallet: %w", err)
	}

	if _, err := st.Wallet().AdjustBalance(ctx, system.ID, feeAmount); err != nil {
		return fmt.Errorf("system wallet: %w", err)
	}

	return nil
}

// recordAudit writes the outcome synchronously. Audit failures don't change
// the flow result but they are never silently dropped.
func (s *Service) recordAudit(ctx context.Context, e audit.Entry) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.logger.Error("Failed to record audit entry", "action", e.Action, "error", err)
	}
}
