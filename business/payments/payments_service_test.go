package payments_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"techshop/business/payments"
	"techshop/domain"
	"techshop/internal/repository/vnpay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentsRepo struct {
	payments map[uint]domain.Payment
	nextID   uint

	markPaidCalls int
	lastRef       *string
	lastGateway   *string
}

func newFakePaymentsRepo() *fakePaymentsRepo {
	return &fakePaymentsRepo{payments: map[uint]domain.Payment{}, nextID: 1}
}

func (f *fakePaymentsRepo) Create(_ context.Context, payment *domain.Payment) error {
	payment.ID = f.nextID
	f.nextID++
	f.payments[payment.ID] = *payment
	return nil
}

func (f *fakePaymentsRepo) FindByID(_ context.Context, paymentID uint) (domain.Payment, error) {
	payment, ok := f.payments[paymentID]
	if !ok {
		return domain.Payment{}, domain.NewError(domain.KindNotFound, "payment not found")
	}
	return payment, nil
}

func (f *fakePaymentsRepo) FindByOrderID(_ context.Context, orderID uint) (domain.Payment, error) {
	for _, payment := range f.payments {
		if payment.OrderID == orderID {
			return payment, nil
		}
	}
	return domain.Payment{}, domain.NewError(domain.KindNotFound, "payment not found")
}

func (f *fakePaymentsRepo) FindByAccount(_ context.Context, _ uint) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, payment := range f.payments {
		out = append(out, payment)
	}
	return out, nil
}

func (f *fakePaymentsRepo) MarkPaid(_ context.Context, paymentID uint, transactionRef *string, gateway *string, paidAt time.Time) error {
	payment, ok := f.payments[paymentID]
	if !ok {
		return domain.NewError(domain.KindNotFound, "payment not found")
	}
	payment.Status = domain.PaymentStatusPaid
	payment.PaidAt = &paidAt
	if transactionRef != nil {
		payment.TransactionRef = transactionRef
	}
	if gateway != nil {
		payment.Gateway = gateway
	}
	f.payments[paymentID] = payment
	f.markPaidCalls++
	f.lastRef = transactionRef
	f.lastGateway = gateway
	return nil
}

type fakeOrdersRepo struct {
	orders map[uint]domain.Order
}

func (f *fakeOrdersRepo) FindByID(_ context.Context, orderID uint) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.NewError(domain.KindNotFound, "order not found")
	}
	return order, nil
}

func (f *fakeOrdersRepo) FindOwned(_ context.Context, orderID, accountID uint) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.AccountID != accountID {
		return domain.Order{}, domain.NewError(domain.KindNotFound, "order not found")
	}
	return order, nil
}

type fakeGateway struct {
	url    string
	result vnpay.CallbackResult
	err    error

	buildCalls int
}

func (f *fakeGateway) BuildPaymentURL(_ vnpay.PaymentRequest) (string, error) {
	f.buildCalls++
	return f.url, nil
}

func (f *fakeGateway) ParseCallback(_ url.Values) (vnpay.CallbackResult, error) {
	if f.err != nil {
		return vnpay.CallbackResult{}, f.err
	}
	return f.result, nil
}

func fixtures() (*fakePaymentsRepo, *fakeOrdersRepo, *fakeGateway, *payments.PaymentsService) {
	paymentRepo := newFakePaymentsRepo()
	orderRepo := &fakeOrdersRepo{orders: map[uint]domain.Order{
		20: {ID: 20, AccountID: 7, Status: domain.OrderStatusPending, Total: 5_000_000},
	}}
	gateway := &fakeGateway{url: "https://pay.example.com/redirect"}
	service := payments.NewPaymentsService(paymentRepo, orderRepo, gateway)

	return paymentRepo, orderRepo, gateway, service
}

func TestBuildIntentPerMethod(t *testing.T) {
	cod := payments.BuildIntent(domain.MethodCOD, 1_000_000)
	assert.Equal(t, domain.PaymentStatusUnpaid, cod.Status)
	assert.Nil(t, cod.Gateway)
	assert.False(t, cod.NeedsSyntheticRef())

	transfer := payments.BuildIntent(domain.MethodBankTransfer, 1_000_000)
	assert.Equal(t, domain.PaymentStatusPending, transfer.Status)
	assert.True(t, transfer.NeedsSyntheticRef())

	gw := payments.BuildIntent(domain.MethodVnpay, 1_000_000)
	assert.Equal(t, domain.PaymentStatusPending, gw.Status)
	require.NotNil(t, gw.Gateway)
	assert.Equal(t, "VNPAY", *gw.Gateway)
	assert.False(t, gw.NeedsSyntheticRef())
}

func TestCreatePaymentInvalidMethod(t *testing.T) {
	_, _, _, service := fixtures()

	_, err := service.CreatePayment(context.Background(), 7, 20, "Cash", "203.0.113.9")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestCreatePaymentForeignOrderNotFound(t *testing.T) {
	_, _, _, service := fixtures()

	_, err := service.CreatePayment(context.Background(), 99, 20, "COD", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCreatePaymentBankTransferGetsSyntheticRef(t *testing.T) {
	paymentRepo, _, _, service := fixtures()

	result, err := service.CreatePayment(context.Background(), 7, 20, "BankTransfer", "")
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), result.Amount)
	require.NotNil(t, result.TransactionRef)
	assert.Contains(t, *result.TransactionRef, "GD")
	assert.Len(t, paymentRepo.payments, 1)
}

func TestCreatePaymentAlreadyPaidConflict(t *testing.T) {
	paymentRepo, _, _, service := fixtures()
	paymentRepo.payments[1] = domain.Payment{ID: 1, OrderID: 20, Method: domain.MethodCOD, Status: domain.PaymentStatusPaid}

	_, err := service.CreatePayment(context.Background(), 7, 20, "COD", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestCreatePaymentGatewayRetryRebuildsURL(t *testing.T) {
	paymentRepo, _, gateway, service := fixtures()
	paymentRepo.payments[1] = domain.Payment{
		ID: 1, OrderID: 20, Method: domain.MethodVnpay,
		Amount: 5_000_000, Status: domain.PaymentStatusPending,
	}

	result, err := service.CreatePayment(context.Background(), 7, 20, "VnPay", "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.ID)
	assert.Equal(t, "https://pay.example.com/redirect", result.URL)
	assert.Equal(t, 1, gateway.buildCalls)
	assert.Len(t, paymentRepo.payments, 1, "retry must not insert a second payment")
}

func verifiedCallback(paymentID uint, amount int64) vnpay.CallbackResult {
	return vnpay.CallbackResult{
		PaymentID:     paymentID,
		TransactionID: "14668349",
		ResponseCode:  "00",
		Amount:        amount,
		PaidAt:        time.Date(2025, 6, 1, 10, 45, 0, 0, time.Local),
		Verified:      true,
	}
}

func TestHandleCallbackUnverifiedRejected(t *testing.T) {
	paymentRepo, _, gateway, service := fixtures()
	paymentRepo.payments[1] = domain.Payment{ID: 1, OrderID: 20, Method: domain.MethodVnpay, Amount: 5_000_000, Status: domain.PaymentStatusPending}
	result := verifiedCallback(1, 5_000_000)
	result.Verified = false
	gateway.result = result

	_, err := service.HandleCallback(context.Background(), url.Values{})
	require.Error(t, err)
	assert.Equal(t, domain.KindGatewayRejected, domain.KindOf(err))
	assert.Zero(t, paymentRepo.markPaidCalls)
}

func TestHandleCallbackAmountMismatchRejected(t *testing.T) {
	paymentRepo, _, gateway, service := fixtures()
	paymentRepo.payments[1] = domain.Payment{ID: 1, OrderID: 20, Method: domain.MethodVnpay, Amount: 5_000_000, Status: domain.PaymentStatusPending}
	gateway.result = verifiedCallback(1, 4_999_999)

	_, err := service.HandleCallback(context.Background(), url.Values{})
	require.Error(t, err)
	assert.Equal(t, domain.KindGatewayRejected, domain.KindOf(err))
	assert.Zero(t, paymentRepo.markPaidCalls)
}

func TestHandleCallbackMarksPaid(t *testing.T) {
	paymentRepo, _, gateway, service := fixtures()
	paymentRepo.payments[1] = domain.Payment{ID: 1, OrderID: 20, Method: domain.MethodVnpay, Amount: 5_000_000, Status: domain.PaymentStatusPending}
	gateway.result = verifiedCallback(1, 5_000_000)

	payment, err := service.HandleCallback(context.Background(), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, payment.Status)
	assert.Equal(t, 1, paymentRepo.markPaidCalls)
	require.NotNil(t, paymentRepo.lastRef)
	assert.Equal(t, "14668349", *paymentRepo.lastRef)
	require.NotNil(t, paymentRepo.lastGateway)
	assert.Equal(t, "VNPAY", *paymentRepo.lastGateway)
}

func TestHandleCallbackReplayIsNoOp(t *testing.T) {
	paymentRepo, _, gateway, service := fixtures()
	ref := "14668349"
	paidAt := time.Now()
	paymentRepo.payments[1] = domain.Payment{
		ID: 1, OrderID: 20, Method: domain.MethodVnpay, Amount: 5_000_000,
		Status: domain.PaymentStatusPaid, TransactionRef: &ref, PaidAt: &paidAt,
	}
	gateway.result = verifiedCallback(1, 5_000_000)

	payment, err := service.HandleCallback(context.Background(), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, payment.Status)
	assert.Zero(t, paymentRepo.markPaidCalls)
}

func TestHandleCallbackUnknownPayment(t *testing.T) {
	_, _, gateway, service := fixtures()
	gateway.result = verifiedCallback(42, 5_000_000)

	_, err := service.HandleCallback(context.Background(), url.Values{})
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestConfirmPaymentSettlesCOD(t *testing.T) {
	paymentRepo, _, _, service := fixtures()
	paymentRepo.payments[1] = domain.Payment{ID: 1, OrderID: 20, Method: domain.MethodCOD, Amount: 5_000_000, Status: domain.PaymentStatusUnpaid}

	payment, err := service.ConfirmPayment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, payment.Status)
}

func TestConfirmPaymentRejectsGatewayAndSettled(t *testing.T) {
	paymentRepo, _, _, service := fixtures()
	paymentRepo.payments[1] = domain.Payment{ID: 1, OrderID: 20, Method: domain.MethodVnpay, Status: domain.PaymentStatusPending}
	paymentRepo.payments[2] = domain.Payment{ID: 2, OrderID: 21, Method: domain.MethodCOD, Status: domain.PaymentStatusPaid}

	_, err := service.ConfirmPayment(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = service.ConfirmPayment(context.Background(), 2)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}
