package rest

import (
	"context"
	"io"
	"net/http"
	"time"

	"techshop/business/account"
	"techshop/domain"
	"techshop/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AccountService interface {
	Register(ctx context.Context, input account.RegisterInput) (domain.Account, error)
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (account.LoginResult, error)
	Logout(ctx context.Context, accountID uint, token string) error
	GetProfile(ctx context.Context, accountID uint) (domain.Account, error)
	UpdateProfile(ctx context.Context, accountID uint, input account.UpdateProfileInput) (domain.Account, error)
	UpdateAvatar(ctx context.Context, accountID uint, data io.Reader, filename string) (domain.Account, error)
	ChangePassword(ctx context.Context, accountID uint, current, next string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ListAccounts(ctx context.Context, page, pageSize int, search string) ([]domain.Account, int64, error)
	SetAccountActive(ctx context.Context, accountID uint, active bool) error
	SetAccountRole(ctx context.Context, accountID uint, role string) error
	DeleteAccount(ctx context.Context, accountID uint) error
}

type AccountHandler struct {
	accountService AccountService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewAccountHandler(accountService AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		validator:      validator.New(),
		timeout:        10 * time.Second,
	}
}

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (h *AccountHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid registration", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.accountService.Register(ctx, account.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		return fail(c, err)
	}

	logger.Info("account registered", "account_id", created.ID)
	return ok(c, http.StatusCreated, "account registered", created)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AccountHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid credentials payload", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.accountService.Login(ctx, req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "login successful", result)
}

func (h *AccountHandler) Logout(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	token, _ := c.Get("token").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.accountService.Logout(ctx, id, token); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "logged out", nil)
}

func (h *AccountHandler) GetProfile(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	profile, err := h.accountService.GetProfile(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "profile", profile)
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid profile", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	profile, err := h.accountService.UpdateProfile(ctx, id, account.UpdateProfileInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "profile updated", profile)
}

func (h *AccountHandler) UpdateAvatar(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "avatar file is required"))
	}

	src, err := file.Open()
	if err != nil {
		return fail(c, err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	profile, err := h.accountService.UpdateAvatar(ctx, id, src, file.Filename)
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "avatar updated", profile)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, err)
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid password payload", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.accountService.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "password changed", nil)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid email", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if err := h.accountService.RequestPasswordReset(ctx, req.Email); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "verification code sent", nil)
}

type VerifyResetCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

func (h *AccountHandler) VerifyResetCode(c echo.Context) error {
	var req VerifyResetCodeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid verification payload", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.accountService.VerifyResetCode(ctx, req.Email, req.Code); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "code verified", nil)
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "invalid reset payload", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.accountService.ResetPassword(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "password reset", nil)
}

// Admin endpoints.

func (h *AccountHandler) ListAccounts(c echo.Context) error {
	page, pageSize := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	accounts, total, err := h.accountService.ListAccounts(ctx, page, pageSize, c.QueryParam("search"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "accounts", paged(accounts, total, page, pageSize))
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *AccountHandler) SetAccountActive(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req SetActiveRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "active flag is required", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.accountService.SetAccountActive(ctx, id, *req.Active); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "account updated", nil)
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *AccountHandler) SetAccountRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req SetRoleRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, domain.NewError(domain.KindInvalidInput, "invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return fail(c, domain.WrapError(domain.KindInvalidInput, "role is required", err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.accountService.SetAccountRole(ctx, id, req.Role); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "role updated", nil)
}

func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.accountService.DeleteAccount(ctx, id); err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, "account removed", nil)
}
