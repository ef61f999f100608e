package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"walletcore/internal/apperrors"
	"walletcore/internal/models"
	"walletcore/internal/repository"
	"walletcore/internal/service/wallet"
)

const defaultAccessTTL = 15 * time.Minute

type Config struct {
	// Secret key to sign access token payloads
	SecretKey string

	// Hasher to use during registration and login
	Hasher PasswordHasher

	// Access token lifetime
	AccessTokenTTL time.Duration

	// Currency of the wallet opened at registration
	DefaultCurrency string
}

// Service authenticates users at the service boundary. It issues access
// tokens only: the transaction engine itself never deals with sessions.
type Service struct {
	tokens  TokenManager
	hasher  PasswordHasher
	storage repository.Storage

	defaultCurrency string
}

func NewService(cfg Config, storage repository.Storage) (*Service, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	ttl := cfg.AccessTokenTTL
	if ttl == 0 {
		ttl = defaultAccessTTL
	}

	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = "TRY"
	}

	return &Service{
		tokens:          TokenManager{key: cfg.SecretKey, alg: jwt.SigningMethodHS256, accessTTL: ttl},
		hasher:          hasher,
		storage:         storage,
		defaultCurrency: currency,
	}, nil
}

// Register creates the user and opens their first wallet in one transaction:
// either both exist afterwards or neither does
func (s *Service) Register(ctx context.Context, username string, password string) (models.User, IssuedToken, error) {
	var user models.User

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, IssuedToken{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		user, err = st.User().CreateUser(ctx, username, hash, models.CategoryStandard)
		if err != nil {
			return err
		}

		_, err = wallet.NewService(st).Create(ctx, user.ID, s.defaultCurrency)
		return err
	})
	if err != nil {
		return user, IssuedToken{}, err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return user, IssuedToken{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, token, nil
}

func (s *Service) Login(ctx context.Context, username string, password string) (models.User, IssuedToken, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		return user, IssuedToken{}, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return user, IssuedToken{}, apperrors.ErrUserNotFound
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return user, IssuedToken{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, token, nil
}

// Auth resolves the user behind the request's bearer token
func (s *Service) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return models.User{}, errors.New("missing bearer token")
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, err
	}

	return s.storage.User().GetUserByID(ctx, userID)
}
