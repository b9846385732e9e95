package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

// bcrypt only looks at the first 72 bytes.
const maxPasswordBytes = 72

// AuthConfig holds the session and reset token settings.
type AuthConfig struct {
	Secret        []byte
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int
}

// Session is an authenticated user with a bearer token.
type Session struct {
	User  *model.User
	Token string
}

// RegisterInput represents data required to create an account.
type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AuthService registers users and issues, validates and resets credentials.
type AuthService struct {
	store    repository.Store
	cfg      AuthConfig
	log      *logrus.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthService(store repository.Store, cfg AuthConfig, log *logrus.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 10 * time.Minute
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:    store,
		cfg:      cfg,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := s.check(input); err != nil {
		return nil, err
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, invalidInput("password is too long")
	}

	users := s.store.Users()
	_, err := users.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr("find user", err, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Name: input.Name, Email: input.Email, PasswordHash: string(hash)}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, storeErr("create user", err, nil)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return s.session(user)
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if err := s.check(loginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("find user", err, ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("user_id", user.ID).Warn("login rejected")
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// IssueResetToken stores the hash of a fresh reset token and returns the
// plaintext. The plaintext cannot be recovered later.
func (s *AuthService) IssueResetToken(ctx context.Context, email string) (string, error) {
	users := s.store.Users()
	user, err := users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", storeErr("find user", err, ErrUserNotFound)
	}

	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	expiry := s.now().Add(s.cfg.ResetTokenTTL)
	if err := users.SetResetToken(ctx, user.ID, hashToken(token), expiry); err != nil {
		return "", storeErr("set reset token", err, ErrUserNotFound)
	}

	s.log.WithField("user_id", user.ID).Info("password reset requested")
	return token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*Session, error) {
	if password == "" {
		return nil, invalidInput("password is required")
	}
	if len(password) > maxPasswordBytes {
		return nil, invalidInput("password is too long")
	}

	users := s.store.Users()
	user, err := users.FindByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, storeErr("find user", err, ErrInvalidResetToken)
	}
	if user.ResetTokenExpiry == nil || s.now().After(*user.ResetTokenExpiry) {
		return nil, ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := users.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return nil, storeErr("set password", err, ErrInvalidResetToken)
	}
	user.PasswordHash = string(hash)
	user.ResetTokenHash = nil
	user.ResetTokenExpiry = nil

	s.log.WithField("user_id", user.ID).Info("password reset")
	return s.session(user)
}

// Validate resolves a bearer token to its user.
func (s *AuthService) Validate(ctx context.Context, token string) (*model.User, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrUnauthenticated.Wrap(err)
	}

	user, err := s.store.Users().FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, storeErr("find user", err, ErrUnauthenticated)
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("find user", err, errProfileNotFound)
	}
	return user, nil
}

// LinkTelegram stores the chat that receives reminder digests. Zero unlinks.
func (s *AuthService) LinkTelegram(ctx context.Context, user *model.User, chatID int64) (*model.User, error) {
	if chatID < 0 {
		return nil, invalidInput("chatId must be a private chat id")
	}
	users := s.store.Users()
	if chatID != 0 {
		owner, err := users.FindByTelegramChatID(ctx, chatID)
		switch {
		case err == nil && owner.ID != user.ID:
			return nil, ErrTelegramChatTaken
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, storeErr("find user by chat", err, nil)
		}
	}
	if err := users.SetTelegramChatID(ctx, user.ID, chatID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTelegramChatTaken
		}
		return nil, storeErr("set telegram chat", err, errProfileNotFound)
	}
	return s.Profile(ctx, user.ID)
}

// PurgeExpiredResetTokens clears reset tokens that can no longer be used.
func (s *AuthService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	n, err := s.store.Users().ClearExpiredResetTokens(ctx, s.now())
	if err != nil {
		return 0, storeErr("clear reset tokens", err, nil)
	}
	return n, nil
}

func (s *AuthService) session(user *model.User) (*Session, error) {
	now := s.now()
	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func (s *AuthService) check(input interface{}) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalidInput(err.Error())
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalidInput(field + " is required")
	case "email":
		return invalidInput(field + " must be a valid email address")
	default:
		return invalidInput(field + " is invalid")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
