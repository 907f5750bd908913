package auth

import (
	"errors"
	"net/http"

	"packly/internal/shared/config"
	"packly/internal/shared/middleware"
	"packly/internal/shared/utils/response"
	"packly/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	config    *config.Config
	validator *validator.Validate
}

func NewController(service Service, cfg *config.Config) *Controller {
	return &Controller{
		service:   service,
		config:    cfg,
		validator: validator.New(),
	}
}

func (c *Controller) Signup(ctx *gin.Context) {
	var req SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	result, err := c.service.Signup(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			response.Fail(ctx, http.StatusConflict, response.CodeUserAlreadyExists,
				"An account with this email already exists, log in instead")
		default:
			response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal,
				"Signup failed, try again later")
		}
		return
	}

	c.setAuthCookies(ctx, result)
	response.Success(ctx, http.StatusCreated, "Account created successfully", result)
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	result, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Fail(ctx, http.StatusUnauthorized, response.CodeInvalidCredentials,
				"No password-based account matches this email")
		case errors.Is(err, ErrPasswordsDoNotMatch):
			response.Fail(ctx, http.StatusUnauthorized, response.CodePasswordsDoNotMatch,
				"The password is incorrect")
		case errors.Is(err, ErrUserDisabled):
			response.Fail(ctx, http.StatusUnauthorized, response.CodeUserDisabled,
				"This account is disabled, contact support")
		default:
			response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal,
				"Login failed, try again later")
		}
		return
	}

	c.setAuthCookies(ctx, result)
	response.Success(ctx, http.StatusOK, "Login successful", result)
}

// Logout clears the auth cookies. It is stateless and idempotent: with or
// without a live session the observable effect is the same and it never errors.
func (c *Controller) Logout(ctx *gin.Context) {
	c.clearAuthCookies(ctx)
	response.Success(ctx, http.StatusOK, "Logged out successfully", nil)
}

func (c *Controller) Refresh(ctx *gin.Context) {
	refreshUserID := ctx.GetString(middleware.CtxRefreshUserID)

	grant, err := c.service.Refresh(ctx.Request.Context(), refreshUserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthorized):
			response.Fail(ctx, http.StatusUnauthorized, response.CodeUnauthorized,
				"Refresh requires a valid refresh token")
		case errors.Is(err, users.ErrUserNotFound):
			response.Fail(ctx, http.StatusUnauthorized, response.CodeUserNotFound,
				"The account this token belongs to no longer exists")
		case errors.Is(err, ErrUserDisabled):
			response.Fail(ctx, http.StatusUnauthorized, response.CodeUserDisabled,
				"This account is disabled")
		default:
			response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal,
				"Could not refresh the session, try again")
		}
		return
	}

	// Only the access cookie is re-issued; the refresh cookie stays as-is.
	c.setAccessCookie(ctx, grant.AccessToken)
	response.Success(ctx, http.StatusOK, "Token refreshed successfully", grant)
}

func (c *Controller) Me(ctx *gin.Context) {
	userID := ctx.GetString(middleware.CtxUserID)

	result, err := c.service.Me(ctx.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthorized), errors.Is(err, users.ErrUserNotFound):
			response.Fail(ctx, http.StatusUnauthorized, response.CodeUnauthorized,
				"Please log in again")
		default:
			response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal,
				"Could not load the account, try again")
		}
		return
	}

	response.Success(ctx, http.StatusOK, "User data retrieved successfully", result)
}

func (c *Controller) ChangePassword(ctx *gin.Context) {
	userID := ctx.GetString(middleware.CtxUserID)
	if userID == "" {
		response.Fail(ctx, http.StatusUnauthorized, response.CodeUnauthorized, "Please log in again")
		return
	}

	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	if err := c.service.ChangePassword(ctx.Request.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, ErrPasswordsDoNotMatch), errors.Is(err, ErrInvalidCredentials):
			response.Fail(ctx, http.StatusUnauthorized, response.CodePasswordsDoNotMatch,
				"The current password is incorrect")
		case errors.Is(err, users.ErrUserNotFound):
			response.Fail(ctx, http.StatusNotFound, response.CodeUserNotFound,
				"The account no longer exists")
		default:
			response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal,
				"Could not change the password, try again")
		}
		return
	}

	// Every previously issued token is now stale; force a fresh login.
	c.clearAuthCookies(ctx)
	response.Success(ctx, http.StatusOK, "Password changed successfully, log in again", nil)
}

func (c *Controller) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	if err := c.service.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal,
			"Could not process the request, try again")
		return
	}

	// Same answer whether or not the account exists.
	response.Success(ctx, http.StatusOK, "If that email is registered, a reset link has been sent", nil)
}

func (c *Controller) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	if err := c.service.ResetPassword(ctx.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, ErrResetTokenInvalid):
			response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput,
				"The reset token is invalid or expired, request a new one")
		default:
			response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal,
				"Could not reset the password, try again")
		}
		return
	}

	response.Success(ctx, http.StatusOK, "Password reset successfully, log in with the new password", nil)
}

// Cookie plumbing. Both tokens travel as HTTP-only cookies; the refresh
// cookie lifetime follows the remember-me choice.

func (c *Controller) setAuthCookies(ctx *gin.Context, result *AuthResult) {
	c.setAccessCookie(ctx, result.AccessToken)

	refreshTTL := c.config.JWT.RefreshTTL
	if result.RememberMe {
		refreshTTL = c.config.JWT.RememberMeTTL
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.config.Cookie.RefreshName, result.RefreshToken,
		int(refreshTTL.Seconds()), "/", c.config.Cookie.Domain, c.config.Cookie.Secure, true)
}

func (c *Controller) setAccessCookie(ctx *gin.Context, accessToken string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.config.Cookie.AccessName, accessToken,
		int(c.config.JWT.AccessTTL.Seconds()), "/", c.config.Cookie.Domain, c.config.Cookie.Secure, true)
}

func (c *Controller) clearAuthCookies(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.config.Cookie.AccessName, "", -1, "/", c.config.Cookie.Domain, c.config.Cookie.Secure, true)
	ctx.SetCookie(c.config.Cookie.RefreshName, "", -1, "/", c.config.Cookie.Domain, c.config.Cookie.Secure, true)
}
