package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

const minPasswordLength = 8

// AccountService is the built-in identity provider: it registers email and
// password accounts and issues identity tokens whose subject is the
// account's external id.
type AccountService struct {
	repo      ports.AccountRepository
	jwtSecret string
	issuer    string
	prefix    string
	tokenTTL  time.Duration
}

func NewAccountService(repo ports.AccountRepository, jwtSecret, issuer, externalIDPrefix string, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if externalIDPrefix == "" {
		externalIDPrefix = domain.DefaultExternalIDPrefix
	}
	return &AccountService{
		repo:      repo,
		jwtSecret: jwtSecret,
		issuer:    issuer,
		prefix:    externalIDPrefix,
		tokenTTL:  tokenTTL,
	}
}

func (s *AccountService) Register(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.Invalid("email", "must be a valid address")
	}
	if len(password) < minPasswordLength {
		return nil, domain.Invalid("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ExternalID:   s.newExternalID(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, account)
}

func (s *AccountService) newExternalID() domain.ExternalID {
	return domain.ExternalID(s.prefix + strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func (s *AccountService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}

func (s *AccountService) generateToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   account.ExternalID.String(),
		"email": account.Email,
		"name":  account.DisplayName,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
