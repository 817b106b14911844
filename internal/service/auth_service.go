package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
)

const maxFailedAttempts = 5

const lockDuration = 15 * time.Minute

const minPasswordLength = 12

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	RecordLoginSuccess(ctx context.Context, id uint) error
	RecordLoginFailure(ctx context.Context, id uint, lockAfter int, lockFor time.Duration) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
}

// CreateUserCommand describes a new user and their profile.
type CreateUserCommand struct {
	Username       string
	Password       string
	FirstName      string
	LastName       string
	Role           domain.Role
	Readonly       bool
	CanExtract     bool
	RestrictedOnly bool
}

type AuthService struct {
	userRepo    UserRepository
	profileRepo ProfileRepository
	tx          Transactor
	jwtManager  *auth.JWTManager
	audit       Auditor
	log         *zap.Logger
	cost        int
}

func NewAuthService(userRepo UserRepository, profileRepo ProfileRepository, tx Transactor, jwtManager *auth.JWTManager, audit Auditor, log *zap.Logger) *AuthService {
	if audit == nil {
		audit = nopAuditor{}
	}
	return &AuthService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tx:          tx,
		jwtManager:  jwtManager,
		audit:       audit,
		log:         log,
		cost:        bcrypt.DefaultCost,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		// Hash anyway so response time does not reveal whether the username exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), s.cost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if err := s.userRepo.RecordLoginFailure(ctx, user.ID, maxFailedAttempts, lockDuration); err != nil {
			s.log.Error("failed to record login failure", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		s.log.Warn("failed login attempt",
			zap.String("username", user.Username),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.RecordLoginSuccess(ctx, user.ID); err != nil {
		s.log.Error("failed to record login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	pair, err := s.jwtManager.GenerateTokenPair(claimsFor(user))
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	caller := &domain.Caller{UserID: user.ID, Username: user.Username, Role: user.Role, IP: ip}
	s.audit.LogAsync(ctx, auditEntry(caller, domain.ActionLogin, "user", formatID(user.ID)))
	s.log.Info("user logged in",
		zap.Uint("user_id", user.ID),
		zap.String("ip", ip),
	)

	return pair, nil
}

// RefreshToken issues a new access token given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate user is still active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(claimsFor(user))
}

// ChangePassword updates a user's password after verifying the current one
// and clears any forced change on their profile.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return &ValidationError{Fields: []string{err.Error()}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
			return err
		}
		return s.profileRepo.SetForcePasswordChange(ctx, userID, false)
	})
}

// CreateUser stores a user and their profile together. New users must
// change their password on first login.
func (s *AuthService) CreateUser(ctx context.Context, cmd CreateUserCommand) (*domain.User, error) {
	var invalid []string
	if strings.TrimSpace(cmd.Username) == "" {
		invalid = append(invalid, "username is required")
	}
	if !cmd.Role.IsValid() {
		invalid = append(invalid, fmt.Sprintf("role %q is not valid", cmd.Role))
	}
	if err := validatePasswordStrength(cmd.Password); err != nil {
		invalid = append(invalid, err.Error())
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{Fields: invalid}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Username:          strings.TrimSpace(cmd.Username),
		PasswordHash:      string(hash),
		FirstName:         cmd.FirstName,
		LastName:          cmd.LastName,
		Role:              cmd.Role,
		IsActive:          true,
		PasswordChangedAt: time.Now().UTC(),
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		return s.profileRepo.Create(ctx, &domain.UserProfile{
			UserID:              user.ID,
			Readonly:            cmd.Readonly,
			CanExtract:          cmd.CanExtract,
			RestrictedOnly:      cmd.RestrictedOnly,
			ForcePasswordChange: true,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func claimsFor(u *domain.User) *domain.Claims {
	return &domain.Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}

func validatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
