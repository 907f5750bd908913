package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"packly/internal/auth"
	"packly/internal/shared/config"
	"packly/internal/users"
	"packly/pkg/ability"
	"packly/pkg/token"
)

type fakeRepository struct {
	byID     map[string]*users.User
	rows     []ability.PermissionRow
	createFn func(u *users.User) error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: make(map[string]*users.User)}
}

func (r *fakeRepository) add(u *users.User) {
	r.byID[u.ID.String()] = u
}

func (r *fakeRepository) CreateUser(_ context.Context, user *users.User) error {
	if r.createFn != nil {
		return r.createFn(user)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.add(user)
	return nil
}

func (r *fakeRepository) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeRepository) GetUserByID(_ context.Context, id string) (*users.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeRepository) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepository) UpdatePassword(_ context.Context, userID string, hashedPassword string) error {
	u, ok := r.byID[userID]
	if !ok {
		return users.ErrUserNotFound
	}
	local := u.LocalAccount()
	if local == nil {
		return users.ErrUserNotFound
	}
	local.HashedPassword = hashedPassword
	now := time.Now().UTC()
	u.PasswordChangedAt = &now
	u.PasswordResetHash = ""
	u.PasswordResetExpiresAt = nil
	return nil
}

func (r *fakeRepository) SetResetToken(_ context.Context, userID, hash string, expiresAt time.Time) error {
	u, ok := r.byID[userID]
	if !ok {
		return users.ErrUserNotFound
	}
	u.PasswordResetHash = hash
	u.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeRepository) GetUserByResetHash(_ context.Context, hash string) (*users.User, error) {
	if hash == "" {
		return nil, users.ErrUserNotFound
	}
	for _, u := range r.byID {
		if u.PasswordResetHash == hash {
			return u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeRepository) GetPermissionRows(_ context.Context) ([]ability.PermissionRow, error) {
	return r.rows, nil
}

type recordingNotifier struct {
	welcomes    []string
	resetTokens map[string]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{resetTokens: make(map[string]string)}
}

func (n *recordingNotifier) NotifyWelcome(_ context.Context, email, _ string) error {
	n.welcomes = append(n.welcomes, email)
	return nil
}

func (n *recordingNotifier) NotifyPasswordReset(_ context.Context, email, _, resetToken string) error {
	n.resetTokens[email] = resetToken
	return nil
}

func serviceConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			Issuer:        "packly",
			Audience:      "packly-web",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			RememberMeTTL: 30 * 24 * time.Hour,
		},
	}
}

func newTestService(repo auth.Repository, notifier auth.Notifier) auth.Service {
	cfg := serviceConfig()
	codec := token.NewCodec(token.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		RememberMeTTL: cfg.JWT.RememberMeTTL,
	})
	return auth.NewService(repo, codec, ability.NewStaticResolver(), notifier, cfg)
}

func seedUser(t *testing.T, repo *fakeRepository, email, password string, active bool) *users.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &users.User{
		ID:        uuid.New(),
		FirstName: "Avery",
		LastName:  "Kim",
		Email:     email,
		Role:      ability.RoleUser,
		IsActive:  active,
		Accounts: []users.Account{
			{AuthProvider: users.AuthProviderLocal, HashedPassword: string(hashed)},
		},
	}
	repo.add(u)
	return u
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and issues tokens", func(t *testing.T) {
		repo := newFakeRepository()
		notifier := newRecordingNotifier()
		svc := newTestService(repo, notifier)

		result, err := svc.Signup(ctx, &auth.SignupRequest{
			FirstName: "Jordan",
			LastName:  "Lee",
			Email:     "jordan@packly.app",
			Password:  "Strong@123",
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.AccessToken)
		require.NotEmpty(t, result.RefreshToken)
		require.Equal(t, "jordan@packly.app", result.User.Email)
		require.NotEmpty(t, result.Permissions)
		require.Equal(t, []string{"jordan@packly.app"}, notifier.welcomes)

		// Password is stored hashed, never in the clear.
		stored, err := repo.GetUserByEmail(ctx, "jordan@packly.app")
		require.NoError(t, err)
		local := stored.LocalAccount()
		require.NotNil(t, local)
		require.NotEqual(t, "Strong@123", local.HashedPassword)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(local.HashedPassword), []byte("Strong@123")))
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "jordan@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		_, err := svc.Signup(ctx, &auth.SignupRequest{
			FirstName: "Jordan", LastName: "Lee",
			Email: "jordan@packly.app", Password: "Strong@123",
		})
		require.ErrorIs(t, err, auth.ErrUserAlreadyExists)
	})

	t.Run("nil notifier is tolerated", func(t *testing.T) {
		repo := newFakeRepository()
		svc := newTestService(repo, nil)

		_, err := svc.Signup(ctx, &auth.SignupRequest{
			FirstName: "Jordan", LastName: "Lee",
			Email: "jordan@packly.app", Password: "Strong@123",
		})
		require.NoError(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		result, err := svc.Login(ctx, &auth.LoginRequest{Email: "avery@packly.app", Password: "Strong@123"})
		require.NoError(t, err)
		require.NotEmpty(t, result.AccessToken)
		require.False(t, result.RememberMe)
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		svc := newTestService(newFakeRepository(), nil)

		_, err := svc.Login(ctx, &auth.LoginRequest{Email: "nobody@packly.app", Password: "Strong@123"})
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		_, err := svc.Login(ctx, &auth.LoginRequest{Email: "avery@packly.app", Password: "Wrong@123"})
		require.ErrorIs(t, err, auth.ErrPasswordsDoNotMatch)
	})

	t.Run("disabled user", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "avery@packly.app", "Strong@123", false)
		svc := newTestService(repo, nil)

		_, err := svc.Login(ctx, &auth.LoginRequest{Email: "avery@packly.app", Password: "Strong@123"})
		require.ErrorIs(t, err, auth.ErrUserDisabled)
	})

	t.Run("no local account", func(t *testing.T) {
		repo := newFakeRepository()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		u.Accounts = nil
		svc := newTestService(repo, nil)

		_, err := svc.Login(ctx, &auth.LoginRequest{Email: "avery@packly.app", Password: "Strong@123"})
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("remember me flag propagates", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		result, err := svc.Login(ctx, &auth.LoginRequest{
			Email: "avery@packly.app", Password: "Strong@123", RememberMe: true,
		})
		require.NoError(t, err)
		require.True(t, result.RememberMe)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a new access token only", func(t *testing.T) {
		repo := newFakeRepository()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		grant, err := svc.Refresh(ctx, u.ID.String())
		require.NoError(t, err)
		require.NotEmpty(t, grant.AccessToken)
		require.Equal(t, int64((15 * time.Minute).Seconds()), grant.ExpiresIn)
	})

	t.Run("empty id", func(t *testing.T) {
		svc := newTestService(newFakeRepository(), nil)

		_, err := svc.Refresh(ctx, "")
		require.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("deleted user", func(t *testing.T) {
		svc := newTestService(newFakeRepository(), nil)

		_, err := svc.Refresh(ctx, uuid.NewString())
		require.ErrorIs(t, err, users.ErrUserNotFound)
	})

	t.Run("disabled user", func(t *testing.T) {
		repo := newFakeRepository()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", false)
		svc := newTestService(repo, nil)

		_, err := svc.Refresh(ctx, u.ID.String())
		require.ErrorIs(t, err, auth.ErrUserDisabled)
	})
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
	svc := newTestService(repo, nil)

	t.Run("returns user with permissions", func(t *testing.T) {
		me, err := svc.Me(ctx, u.ID.String())
		require.NoError(t, err)
		require.Equal(t, "avery@packly.app", me.User.Email)
		require.Equal(t, ability.NewStaticResolver().ResolveForRole(ability.RoleUser), me.Permissions)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := svc.Me(ctx, "")
		require.ErrorIs(t, err, auth.ErrUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the hash and stamps the change", func(t *testing.T) {
		repo := newFakeRepository()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		err := svc.ChangePassword(ctx, u.ID.String(), &auth.ChangePasswordRequest{
			CurrentPassword: "Strong@123",
			NewPassword:     "Stronger@456",
		})
		require.NoError(t, err)
		require.NotNil(t, u.PasswordChangedAt)
		require.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(u.LocalAccount().HashedPassword), []byte("Stronger@456")))
	})

	t.Run("wrong current password", func(t *testing.T) {
		repo := newFakeRepository()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		err := svc.ChangePassword(ctx, u.ID.String(), &auth.ChangePasswordRequest{
			CurrentPassword: "Wrong@123",
			NewPassword:     "Stronger@456",
		})
		require.ErrorIs(t, err, auth.ErrPasswordsDoNotMatch)
		require.Nil(t, u.PasswordChangedAt)
	})
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("stores only the hash and publishes the raw token", func(t *testing.T) {
		repo := newFakeRepository()
		notifier := newRecordingNotifier()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, notifier)

		require.NoError(t, svc.ForgotPassword(ctx, "avery@packly.app"))

		raw := notifier.resetTokens["avery@packly.app"]
		require.NotEmpty(t, raw)
		require.NotEqual(t, raw, u.PasswordResetHash)

		hash, err := token.HashOpaqueToken(raw)
		require.NoError(t, err)
		require.Equal(t, hash, u.PasswordResetHash)
		require.NotNil(t, u.PasswordResetExpiresAt)
	})

	t.Run("silent on unknown email", func(t *testing.T) {
		notifier := newRecordingNotifier()
		svc := newTestService(newFakeRepository(), notifier)

		require.NoError(t, svc.ForgotPassword(ctx, "nobody@packly.app"))
		require.Empty(t, notifier.resetTokens)
	})

	t.Run("silent on disabled user", func(t *testing.T) {
		repo := newFakeRepository()
		notifier := newRecordingNotifier()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", false)
		svc := newTestService(repo, notifier)

		require.NoError(t, svc.ForgotPassword(ctx, "avery@packly.app"))
		require.Empty(t, notifier.resetTokens)
		require.Empty(t, u.PasswordResetHash)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	forgot := func(t *testing.T, repo *fakeRepository, notifier *recordingNotifier, svc auth.Service, email string) string {
		t.Helper()
		require.NoError(t, svc.ForgotPassword(ctx, email))
		raw := notifier.resetTokens[email]
		require.NotEmpty(t, raw)
		return raw
	}

	t.Run("valid token sets the new password", func(t *testing.T) {
		repo := newFakeRepository()
		notifier := newRecordingNotifier()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, notifier)
		raw := forgot(t, repo, notifier, svc, "avery@packly.app")

		err := svc.ResetPassword(ctx, &auth.ResetPasswordRequest{Token: raw, NewPassword: "Fresh@789"})
		require.NoError(t, err)
		require.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(u.LocalAccount().HashedPassword), []byte("Fresh@789")))

		// Reset state is cleared: the token is single use.
		require.Empty(t, u.PasswordResetHash)
		err = svc.ResetPassword(ctx, &auth.ResetPasswordRequest{Token: raw, NewPassword: "Again@000"})
		require.ErrorIs(t, err, auth.ErrResetTokenInvalid)
	})

	t.Run("unknown token", func(t *testing.T) {
		repo := newFakeRepository()
		seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, nil)

		err := svc.ResetPassword(ctx, &auth.ResetPasswordRequest{Token: "deadbeef", NewPassword: "Fresh@789"})
		require.ErrorIs(t, err, auth.ErrResetTokenInvalid)
	})

	t.Run("empty token", func(t *testing.T) {
		svc := newTestService(newFakeRepository(), nil)

		err := svc.ResetPassword(ctx, &auth.ResetPasswordRequest{Token: "", NewPassword: "Fresh@789"})
		require.ErrorIs(t, err, auth.ErrResetTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		repo := newFakeRepository()
		notifier := newRecordingNotifier()
		u := seedUser(t, repo, "avery@packly.app", "Strong@123", true)
		svc := newTestService(repo, notifier)
		raw := forgot(t, repo, notifier, svc, "avery@packly.app")

		expired := time.Now().UTC().Add(-time.Minute)
		u.PasswordResetExpiresAt = &expired

		err := svc.ResetPassword(ctx, &auth.ResetPasswordRequest{Token: raw, NewPassword: "Fresh@789"})
		require.ErrorIs(t, err, auth.ErrResetTokenInvalid)
	})
}
