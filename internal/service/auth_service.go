package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"yield-wallet/internal/core/domain"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService. Registration provisions the
// user's wallet and a payment card in one go, so a fresh account can top up
// and purchase immediately.
type AuthServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	cardRepo   ports.CardRepository
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	currency   string
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl. currency is the settlement
// currency new wallets are denominated in.
func NewAuthService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	cardRepo ports.CardRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	currency string,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		cardRepo:   cardRepo,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		currency:   currency,
		log:        log,
	}
}

// Register creates a user with an empty wallet and an active card. The full
// card number is returned once and never stored.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (*ports.RegisterResult, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	wallet := &domain.WalletAccount{
		ID:        uuid.New(),
		OwnerID:   user.ID,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	cardNumber, err := generateCardNumber()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate card number: %w", err))
	}
	card := &domain.Card{
		ID:         uuid.New(),
		OwnerID:    user.ID,
		NumberHash: domain.HashCardNumber(cardNumber),
		Last4:      domain.CardLast4(cardNumber),
		Status:     domain.CardStatusActive,
		CreatedAt:  now,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("card_last4", card.Last4).
		Msg("user registered with wallet and card")

	return &ports.RegisterResult{
		User:       user,
		WalletID:   wallet.ID,
		CardNumber: cardNumber,
		CardLast4:  card.Last4,
	}, nil
}

// Login verifies credentials and issues a JWT.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrUnauthorized()
	}

	ok, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return "", time.Time{}, apperror.ErrUnauthorized()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiry, nil
}

// generateCardNumber produces a random 16-digit card number.
func generateCardNumber() (string, error) {
	digits := make([]byte, 16)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
