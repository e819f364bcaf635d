package account_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"techshop/business/account"
	"techshop/domain"
	"techshop/internal/repository/redis"
	"techshop/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountRepo struct {
	accounts map[uint]domain.Account
	nextID   uint
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uint]domain.Account{}, nextID: 1}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *domain.Account) error {
	a.ID = f.nextID
	f.nextID++
	f.accounts[a.ID] = *a
	return nil
}

func (f *fakeAccountRepo) FindByID(_ context.Context, id uint) (domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return domain.Account{}, domain.NewError(domain.KindNotFound, "account not found")
	}
	return a, nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, domain.NewError(domain.KindNotFound, "account not found")
}

func (f *fakeAccountRepo) FindAll(_ context.Context, _, _ int, _ string) ([]domain.Account, int64, error) {
	var out []domain.Account
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAccountRepo) Update(_ context.Context, a *domain.Account) error {
	if _, ok := f.accounts[a.ID]; !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	f.accounts[a.ID] = *a
	return nil
}

func (f *fakeAccountRepo) UpdateCode(_ context.Context, id uint, code *string) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	a.Code = code
	f.accounts[id] = a
	return nil
}

func (f *fakeAccountRepo) UpdatePassword(_ context.Context, id uint, hash string) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	a.Password = hash
	f.accounts[id] = a
	return nil
}

func (f *fakeAccountRepo) SetActive(_ context.Context, id uint, active bool) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	a.IsActive = active
	f.accounts[id] = a
	return nil
}

func (f *fakeAccountRepo) HasOrders(_ context.Context, id uint) (bool, error) {
	return id == 1, nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.accounts[id]; !ok {
		return domain.NewError(domain.KindNotFound, "account not found")
	}
	delete(f.accounts, id)
	return nil
}

type fakeTokenRepo struct {
	stored  map[string]string
	revoked []string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{stored: map[string]string{}}
}

func (f *fakeTokenRepo) StoreToken(_ context.Context, accountID, token string, _ redis.TokenData, _ time.Duration) error {
	f.stored[accountID] = token
	return nil
}

func (f *fakeTokenRepo) RevokeToken(_ context.Context, accountID, _ string) error {
	f.revoked = append(f.revoked, accountID)
	return nil
}

type fakeEmailSender struct {
	err  error
	sent []string
}

func (f *fakeEmailSender) SendEmail(_, toEmail, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

type fakeMedia struct{}

func (fakeMedia) Upload(_ io.Reader, _ string) (string, error) {
	return "https://cdn.example.com/avatar.png", nil
}

func (fakeMedia) Delete(_ string) error { return nil }

func fixtures(t *testing.T) (*fakeAccountRepo, *fakeTokenRepo, *fakeEmailSender, *account.AccountService) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	accountRepo := newFakeAccountRepo()
	tokenRepo := newFakeTokenRepo()
	email := &fakeEmailSender{}
	service := account.NewAccountService(accountRepo, tokenRepo, email, fakeMedia{})

	hash, err := utils.HashPassword("correct horse")
	require.NoError(t, err)
	accountRepo.accounts[1] = domain.Account{
		ID: 1, FullName: "Alice", Email: "alice@example.com",
		Password: hash, IsActive: true, Role: account.RoleCustomer,
	}
	accountRepo.nextID = 2

	return accountRepo, tokenRepo, email, service
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	_, _, _, service := fixtures(t)

	_, err := service.Register(context.Background(), account.RegisterInput{
		FullName: "Other Alice",
		Email:    "alice@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestRegisterHashesPassword(t *testing.T) {
	accountRepo, _, _, service := fixtures(t)

	created, err := service.Register(context.Background(), account.RegisterInput{
		FullName: "Bob",
		Email:    "bob@example.com",
		Password: "plaintext",
	})
	require.NoError(t, err)
	assert.Empty(t, created.Password, "response must not carry the hash")

	stored := accountRepo.accounts[created.ID]
	assert.NotEqual(t, "plaintext", stored.Password)
	assert.NoError(t, utils.CheckPassword(stored.Password, "plaintext"))
}

func TestLoginStoresSession(t *testing.T) {
	_, tokenRepo, _, service := fixtures(t)

	result, err := service.Login(context.Background(), "alice@example.com", "correct horse", "203.0.113.9", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Empty(t, result.Account.Password)
	assert.Equal(t, result.Token, tokenRepo.stored["1"])
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	_, _, _, service := fixtures(t)

	_, err := service.Login(context.Background(), "alice@example.com", "wrong", "", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestLoginUnknownEmailUnauthorized(t *testing.T) {
	_, _, _, service := fixtures(t)

	// Same failure as a bad password so the response does not leak which
	// emails are registered.
	_, err := service.Login(context.Background(), "nobody@example.com", "whatever", "", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestLoginDisabledAccountUnauthorized(t *testing.T) {
	accountRepo, _, _, service := fixtures(t)
	a := accountRepo.accounts[1]
	a.IsActive = false
	accountRepo.accounts[1] = a

	_, err := service.Login(context.Background(), "alice@example.com", "correct horse", "", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestRequestPasswordResetStoresAndEmailsCode(t *testing.T) {
	accountRepo, _, email, service := fixtures(t)

	require.NoError(t, service.RequestPasswordReset(context.Background(), "alice@example.com"))

	stored := accountRepo.accounts[1]
	require.NotNil(t, stored.Code)
	assert.Len(t, *stored.Code, 6)
	assert.Equal(t, []string{"alice@example.com"}, email.sent)
}

func TestRequestPasswordResetClearsCodeWhenEmailFails(t *testing.T) {
	accountRepo, _, email, service := fixtures(t)
	email.err = errors.New("smtp unreachable")

	err := service.RequestPasswordReset(context.Background(), "alice@example.com")
	require.Error(t, err)

	stored := accountRepo.accounts[1]
	assert.Nil(t, stored.Code, "a code the user never received must not stay verifiable")
}

func TestVerifyResetCodeDoesNotConsumeCode(t *testing.T) {
	accountRepo, _, _, service := fixtures(t)
	code := "123456"
	accountRepo.accounts[1] = withCode(accountRepo.accounts[1], &code)

	require.NoError(t, service.VerifyResetCode(context.Background(), "alice@example.com", "123456"))
	require.NotNil(t, accountRepo.accounts[1].Code)

	err := service.VerifyResetCode(context.Background(), "alice@example.com", "654321")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestResetPasswordWrongCodeUnauthorized(t *testing.T) {
	accountRepo, _, _, service := fixtures(t)
	code := "123456"
	accountRepo.accounts[1] = withCode(accountRepo.accounts[1], &code)

	err := service.ResetPassword(context.Background(), "alice@example.com", "654321", "new password")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestResetPasswordConsumesCode(t *testing.T) {
	accountRepo, _, _, service := fixtures(t)
	code := "123456"
	accountRepo.accounts[1] = withCode(accountRepo.accounts[1], &code)

	require.NoError(t, service.ResetPassword(context.Background(), "alice@example.com", "123456", "new password"))

	stored := accountRepo.accounts[1]
	assert.Nil(t, stored.Code)
	assert.NoError(t, utils.CheckPassword(stored.Password, "new password"))

	// The code is single-use.
	err := service.ResetPassword(context.Background(), "alice@example.com", "123456", "again")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestChangePasswordChecksCurrent(t *testing.T) {
	_, _, _, service := fixtures(t)

	err := service.ChangePassword(context.Background(), 1, "wrong", "next")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	require.NoError(t, service.ChangePassword(context.Background(), 1, "correct horse", "next"))
}

func TestDeleteAccountWithOrdersDisablesInstead(t *testing.T) {
	accountRepo, _, _, service := fixtures(t)

	// Account 1 has order history per the fake.
	require.NoError(t, service.DeleteAccount(context.Background(), 1))
	stored, ok := accountRepo.accounts[1]
	require.True(t, ok, "account must survive")
	assert.False(t, stored.IsActive)

	created, err := service.Register(context.Background(), account.RegisterInput{
		FullName: "Bob", Email: "bob@example.com", Password: "pw",
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteAccount(context.Background(), created.ID))
	_, ok = accountRepo.accounts[created.ID]
	assert.False(t, ok, "account without orders is removed")
}

func withCode(a domain.Account, code *string) domain.Account {
	a.Code = code
	return a
}
