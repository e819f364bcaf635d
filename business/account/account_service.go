package account

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"techshop/domain"
	"techshop/internal/repository/redis"
	"techshop/pkg/logger"
	"techshop/pkg/utils"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	sessionTTL = 24 * time.Hour
)

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id uint) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindAll(ctx context.Context, page, pageSize int, search string) ([]domain.Account, int64, error)
	Update(ctx context.Context, account *domain.Account) error
	UpdateCode(ctx context.Context, id uint, code *string) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	SetActive(ctx context.Context, id uint, active bool) error
	HasOrders(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
}

type TokenRepository interface {
	StoreToken(ctx context.Context, accountID, token string, data redis.TokenData, ttl time.Duration) error
	RevokeToken(ctx context.Context, accountID, token string) error
}

type EmailSender interface {
	SendEmail(toName, toEmail, subject, message string) error
}

type MediaRepository interface {
	Upload(data io.Reader, filename string) (string, error)
	Delete(publicURL string) error
}

type AccountService struct {
	accountRepo AccountRepository
	tokenRepo   TokenRepository
	email       EmailSender
	media       MediaRepository
}

func NewAccountService(accountRepo AccountRepository, tokenRepo TokenRepository, email EmailSender, media MediaRepository) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		email:       email,
		media:       media,
	}
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Address  string
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (domain.Account, error) {
	_, err := s.accountRepo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return domain.Account{}, domain.NewError(domain.KindConflict, "email is already registered")
	case domain.KindOf(err) != domain.KindNotFound:
		return domain.Account{}, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		FullName: input.FullName,
		Email:    input.Email,
		Password: hash,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: true,
		Role:     RoleCustomer,
	}

	if err := s.accountRepo.Create(ctx, &account); err != nil {
		return domain.Account{}, err
	}

	account.Password = ""
	return account, nil
}

type LoginResult struct {
	Token   string         `json:"token"`
	Account domain.Account `json:"account"`
}

// Login checks the credentials, issues a JWT and records the session in the
// token store so it can be revoked before its expiry.
func (s *AccountService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (LoginResult, error) {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return LoginResult{}, domain.NewError(domain.KindUnauthorized, "invalid email or password")
		}
		return LoginResult{}, err
	}

	if !account.IsActive {
		return LoginResult{}, domain.NewError(domain.KindUnauthorized, "account is disabled")
	}

	if err := utils.CheckPassword(account.Password, password); err != nil {
		return LoginResult{}, domain.NewError(domain.KindUnauthorized, "invalid email or password")
	}

	accountID := strconv.FormatUint(uint64(account.ID), 10)
	token, err := utils.GenerateJWT(accountID, account.Role)
	if err != nil {
		return LoginResult{}, err
	}

	now := time.Now()
	err = s.tokenRepo.StoreToken(ctx, accountID, token, redis.TokenData{
		AccountID: accountID,
		Role:      account.Role,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(sessionTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}, sessionTTL)
	if err != nil {
		return LoginResult{}, err
	}

	account.Password = ""
	return LoginResult{Token: token, Account: account}, nil
}

func (s *AccountService) Logout(ctx context.Context, accountID uint, token string) error {
	return s.tokenRepo.RevokeToken(ctx, strconv.FormatUint(uint64(accountID), 10), token)
}

func (s *AccountService) GetProfile(ctx context.Context, accountID uint) (domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}

	account.Password = ""
	return account, nil
}

type UpdateProfileInput struct {
	FullName string
	Phone    string
	Address  string
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID uint, input UpdateProfileInput) (domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}

	account.FullName = input.FullName
	account.Phone = input.Phone
	account.Address = input.Address

	if err := s.accountRepo.Update(ctx, &account); err != nil {
		return domain.Account{}, err
	}

	account.Password = ""
	return account, nil
}

// UpdateAvatar uploads the new image first and only then swaps the stored
// URL; the old image is removed best-effort afterwards.
func (s *AccountService) UpdateAvatar(ctx context.Context, accountID uint, data io.Reader, filename string) (domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}

	url, err := s.media.Upload(data, filename)
	if err != nil {
		return domain.Account{}, err
	}

	previous := account.AvatarURL
	account.AvatarURL = url
	if err := s.accountRepo.Update(ctx, &account); err != nil {
		return domain.Account{}, err
	}

	if previous != "" {
		if err := s.media.Delete(previous); err != nil {
			logger.Warn("failed to delete previous avatar", "account_id", accountID, "error", err)
		}
	}

	account.Password = ""
	return account, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, accountID uint, current, next string) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := utils.CheckPassword(account.Password, current); err != nil {
		return domain.NewError(domain.KindUnauthorized, "current password is incorrect")
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}

	return s.accountRepo.UpdatePassword(ctx, accountID, hash)
}

// RequestPasswordReset stores a six digit code on the account and emails it.
// When the email cannot be sent the code is cleared again so a stale code
// never stays verifiable.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.accountRepo.UpdateCode(ctx, account.ID, &code); err != nil {
		return err
	}

	message := fmt.Sprintf("Your verification code is %s. It is valid for one use only.", code)
	if err := s.email.SendEmail(account.FullName, account.Email, "Password reset code", message); err != nil {
		if clearErr := s.accountRepo.UpdateCode(ctx, account.ID, nil); clearErr != nil {
			logger.Error("failed to clear reset code after email failure", clearErr)
		}
		return domain.WrapError(domain.KindUnexpected, "failed to send the reset code", err)
	}

	return nil
}

// VerifyResetCode checks the emailed code without consuming it, so the
// client can gate the new-password form before the actual reset.
func (s *AccountService) VerifyResetCode(ctx context.Context, email, code string) error {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if account.Code == nil || *account.Code != code {
		return domain.NewError(domain.KindUnauthorized, "invalid verification code")
	}

	return nil
}

// ResetPassword consumes the emailed code: on a match the password is
// replaced and the code cleared in the same step.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if account.Code == nil || *account.Code != code {
		return domain.NewError(domain.KindUnauthorized, "invalid verification code")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.accountRepo.UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}

	return s.accountRepo.UpdateCode(ctx, account.ID, nil)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Admin surface.

func (s *AccountService) ListAccounts(ctx context.Context, page, pageSize int, search string) ([]domain.Account, int64, error) {
	accounts, total, err := s.accountRepo.FindAll(ctx, page, pageSize, search)
	if err != nil {
		return nil, 0, err
	}

	for i := range accounts {
		accounts[i].Password = ""
	}

	return accounts, total, nil
}

func (s *AccountService) SetAccountActive(ctx context.Context, accountID uint, active bool) error {
	return s.accountRepo.SetActive(ctx, accountID, active)
}

func (s *AccountService) SetAccountRole(ctx context.Context, accountID uint, role string) error {
	if role != RoleCustomer && role != RoleAdmin {
		return domain.NewError(domain.KindInvalidInput, "invalid role: "+role)
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	account.Role = role
	return s.accountRepo.Update(ctx, &account)
}

// DeleteAccount removes an account without orders; one with order history is
// disabled instead so the history keeps a valid owner.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID uint) error {
	hasOrders, err := s.accountRepo.HasOrders(ctx, accountID)
	if err != nil {
		return err
	}

	if hasOrders {
		return s.accountRepo.SetActive(ctx, accountID, false)
	}

	return s.accountRepo.Delete(ctx, accountID)
}
