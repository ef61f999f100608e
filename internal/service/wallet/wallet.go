package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
	"walletcore/internal/repository"
)

// Wallet numbers and virtual IBANs are random; the unique constraints catch
// the rare collision and creation is retried
const createAttempts = 3

type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

// Create opens a wallet for the user with a fresh wallet number and virtual IBAN
func (s *Service) Create(ctx context.Context, userID uuid.UUID, currencyCode string) (models.Wallet, error) {
	var wallet models.Wallet
	var err error

	for range createAttempts {
		viban := newVirtualIBAN()
		wallet, err = s.storage.Wallet().CreateWallet(ctx, userID, newWalletNumber(), &viban, currencyCode)
		if !errors.Is(err, apperrors.ErrWalletNumberUsed) {
			break
		}
	}
	if err != nil {
		return wallet, fmt.Errorf("can't create wallet. Err: %w", err)
	}

	return wallet, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	return s.storage.Wallet().ListUserWallets(ctx, userID)
}

// GetOwned loads the wallet and verifies the user owns it
func (s *Service) GetOwned(ctx context.Context, walletID int64, userID uuid.UUID) (models.Wallet, error) {
	wallet, err := s.storage.Wallet().GetWallet(ctx, walletID)
	if err != nil {
		return wallet, err
	}

	if wallet.UserID != userID {
		return wallet, apperrors.ErrUnauthorizedWallet
	}

	return wallet, nil
}

func (s *Service) Deactivate(ctx context.Context, walletID int64, userID uuid.UUID) error {
	if _, err := s.GetOwned(ctx, walletID, userID); err != nil {
		return err
	}

	return s.storage.Wallet().Deactivate(ctx, walletID)
}

func newWalletNumber() string {
	return fmt.Sprintf("W%014d", rand.Int64N(100_000_000_000_000))
}

func newVirtualIBAN() string {
	return fmt.Sprintf("TR%012d%012d", rand.Int64N(1_000_000_000_000), rand.Int64N(1_000_000_000_000))
}
