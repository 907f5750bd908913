package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"packly/internal/shared/config"
	"packly/internal/users"
	"packly/pkg/ability"
	"packly/pkg/token"
)

const resetTokenTTL = 15 * time.Minute

// Notifier publishes auth events (welcome mail, password-reset link) to the
// notification pipeline. A nil Notifier disables publishing; delivery errors
// are logged, never surfaced to the caller.
type Notifier interface {
	NotifyWelcome(ctx context.Context, email, name string) error
	NotifyPasswordReset(ctx context.Context, email, name, resetToken string) error
}

type Service interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Refresh(ctx context.Context, refreshUserID string) (*AccessGrant, error)
	Me(ctx context.Context, userID string) (*MeResult, error)
	ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
}

type service struct {
	repo     Repository
	codec    *token.Codec
	resolver ability.Resolver
	notifier Notifier
	config   *config.Config
	logger   *slog.Logger
}

func NewService(repo Repository, codec *token.Codec, resolver ability.Resolver, notifier Notifier, cfg *config.Config) Service {
	return &service{
		repo:     repo,
		codec:    codec,
		resolver: resolver,
		notifier: notifier,
		config:   cfg,
		logger:   slog.Default(),
	}
}

func (s *service) Signup(ctx context.Context, req *SignupRequest) (*AuthResult, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &users.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      ability.RoleUser,
		IsActive:  true,
		Accounts: []users.Account{
			{AuthProvider: users.AuthProviderLocal, HashedPassword: string(hashedPassword)},
		},
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyWelcome(ctx, user.Email, user.FirstName); err != nil {
			s.logger.Warn("failed to publish welcome notification",
				slog.String("user_id", user.ID.String()), slog.Any("error", err))
		}
	}

	return s.issueTokenPair(user, false)
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	local := user.LocalAccount()
	if local == nil {
		// Account exists but has no password-based login method.
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(local.HashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrPasswordsDoNotMatch
	}

	return s.issueTokenPair(user, req.RememberMe)
}

// Refresh mints a new access token for an already refresh-authenticated user.
// The refresh token itself is left untouched.
func (s *service) Refresh(ctx context.Context, refreshUserID string) (*AccessGrant, error) {
	if refreshUserID == "" {
		// Contract violation: refresh middleware did not run.
		return nil, ErrUnauthorized
	}

	user, err := s.repo.GetUserByID(ctx, refreshUserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	accessToken, err := s.codec.SignAccessToken(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}

	return &AccessGrant{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.JWT.AccessTTL.Seconds()),
	}, nil
}

func (s *service) Me(ctx context.Context, userID string) (*MeResult, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &MeResult{
		User:        newUserResponse(user),
		Permissions: s.resolver.ResolveForRole(user.Role),
	}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	local := user.LocalAccount()
	if local == nil {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(local.HashedPassword), []byte(req.CurrentPassword)); err != nil {
		return ErrPasswordsDoNotMatch
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, userID, string(hashedPassword))
}

// ForgotPassword generates an opaque reset token, persists only its hash, and
// hands the raw value to the notification pipeline. Callers respond
// identically whether or not the email exists.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	raw, hash, err := token.GenerateOpaqueTokenPair()
	if err != nil {
		return err
	}

	expiresAt := time.Now().UTC().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID.String(), hash, expiresAt); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyPasswordReset(ctx, user.Email, user.FirstName, raw); err != nil {
			s.logger.Warn("failed to publish password reset notification",
				slog.String("user_id", user.ID.String()), slog.Any("error", err))
		}
	}

	return nil
}

func (s *service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	hash, err := token.HashOpaqueToken(req.Token)
	if err != nil {
		return ErrResetTokenInvalid
	}

	user, err := s.repo.GetUserByResetHash(ctx, hash)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	if user.PasswordResetExpiresAt == nil || time.Now().UTC().After(*user.PasswordResetExpiresAt) {
		return ErrResetTokenInvalid
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, user.ID.String(), string(hashedPassword))
}

func (s *service) issueTokenPair(user *users.User, rememberMe bool) (*AuthResult, error) {
	accessToken, err := s.codec.SignAccessToken(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.SignRefreshToken(user.ID.String(), rememberMe)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         newUserResponse(user),
		Permissions:  s.resolver.ResolveForRole(user.Role),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTTL.Seconds()),
		RememberMe:   rememberMe,
	}, nil
}
