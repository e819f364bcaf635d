package payments

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"techshop/domain"
	"techshop/internal/repository/vnpay"
	"techshop/pkg/logger"
	"techshop/pkg/metrics"
)

type PaymentsRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, paymentID uint) (domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID uint) (domain.Payment, error)
	FindByAccount(ctx context.Context, accountID uint) ([]domain.Payment, error)
	MarkPaid(ctx context.Context, paymentID uint, transactionRef *string, gateway *string, paidAt time.Time) error
}

type OrdersRepository interface {
	FindByID(ctx context.Context, orderID uint) (domain.Order, error)
	FindOwned(ctx context.Context, orderID, accountID uint) (domain.Order, error)
}

type Gateway interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
	ParseCallback(values url.Values) (vnpay.CallbackResult, error)
}

const gatewayName = "VNPAY"

type PaymentsService struct {
	paymentRepo PaymentsRepository
	orderRepo   OrdersRepository
	gateway     Gateway
}

func NewPaymentsService(paymentRepo PaymentsRepository, orderRepo OrdersRepository, gateway Gateway) *PaymentsService {
	return &PaymentsService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
	}
}

// BuildIntent constructs the payment row for a freshly placed order. COD
// starts Unpaid with no reference; everything else starts Pending. Bank
// transfer and e-wallet rows get a synthetic reference when persisted, a
// gateway row gets its reference from the callback.
func BuildIntent(method domain.PaymentMethod, amount int64) domain.Payment {
	payment := domain.Payment{
		Method: method,
		Amount: amount,
		Status: domain.PaymentStatusPending,
	}

	switch method {
	case domain.MethodCOD:
		payment.Status = domain.PaymentStatusUnpaid
	case domain.MethodVnpay:
		name := gatewayName
		payment.Gateway = &name
	}

	return payment
}

// CreatePayment attaches a payment to an order that does not have one yet.
// Retrying a pending gateway payment rebuilds the redirect URL instead of
// inserting a second row.
func (s *PaymentsService) CreatePayment(ctx context.Context, accountID, orderID uint, rawMethod, clientIP string) (domain.PaymentWithURL, error) {
	method, err := domain.ParsePaymentMethod(rawMethod)
	if err != nil {
		return domain.PaymentWithURL{}, err
	}

	order, err := s.orderRepo.FindOwned(ctx, orderID, accountID)
	if err != nil {
		return domain.PaymentWithURL{}, err
	}

	existing, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		if existing.Status == domain.PaymentStatusPaid {
			return domain.PaymentWithURL{}, domain.NewError(domain.KindConflict, "order is already paid")
		}
		if method == domain.MethodVnpay && existing.Method == domain.MethodVnpay {
			return s.withRedirectURL(order, existing, clientIP)
		}
		return domain.PaymentWithURL{}, domain.NewError(domain.KindConflict, "order already has a payment")
	case domain.KindOf(err) != domain.KindNotFound:
		return domain.PaymentWithURL{}, err
	}

	payment := BuildIntent(method, order.Total)
	payment.OrderID = orderID
	if payment.NeedsSyntheticRef() {
		ref := domain.TransactionRef(orderID, time.Now())
		payment.TransactionRef = &ref
	}

	if err := s.paymentRepo.Create(ctx, &payment); err != nil {
		return domain.PaymentWithURL{}, err
	}

	if method == domain.MethodVnpay {
		return s.withRedirectURL(order, payment, clientIP)
	}

	return domain.PaymentWithURL{Payment: payment}, nil
}

func (s *PaymentsService) withRedirectURL(order domain.Order, payment domain.Payment, clientIP string) (domain.PaymentWithURL, error) {
	redirect, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		PaymentID:   payment.ID,
		Amount:      payment.Amount,
		Description: fmt.Sprintf("Payment for order #%d", order.ID),
		IPAddress:   clientIP,
	})
	if err != nil {
		return domain.PaymentWithURL{}, err
	}

	return domain.PaymentWithURL{Payment: payment, URL: redirect}, nil
}

// HandleCallback processes the gateway's redirect-back parameters. Only a
// verified callback whose amount matches the stored payment marks it paid;
// a replayed callback for an already paid payment is a no-op success.
func (s *PaymentsService) HandleCallback(ctx context.Context, params url.Values) (domain.Payment, error) {
	result, err := s.gateway.ParseCallback(params)
	if err != nil {
		metrics.GatewayCallbacks.WithLabelValues("malformed").Inc()
		return domain.Payment{}, err
	}

	if !result.Verified {
		metrics.GatewayCallbacks.WithLabelValues("rejected").Inc()
		logger.Warn("gateway callback rejected",
			"payment_id", result.PaymentID,
			"response_code", result.ResponseCode,
			"transaction_status", result.TransactionStatus)
		return domain.Payment{}, domain.NewError(domain.KindGatewayRejected, "payment was not confirmed by the gateway")
	}

	payment, err := s.paymentRepo.FindByID(ctx, result.PaymentID)
	if err != nil {
		metrics.GatewayCallbacks.WithLabelValues("unknown_payment").Inc()
		return domain.Payment{}, err
	}

	if result.Amount != payment.Amount {
		metrics.GatewayCallbacks.WithLabelValues("amount_mismatch").Inc()
		logger.Warn("gateway callback amount mismatch",
			"payment_id", payment.ID,
			"expected", payment.Amount,
			"got", result.Amount)
		return domain.Payment{}, domain.NewError(domain.KindGatewayRejected, "callback amount does not match the payment")
	}

	if payment.Status == domain.PaymentStatusPaid {
		metrics.GatewayCallbacks.WithLabelValues("replay").Inc()
		return payment, nil
	}

	name := gatewayName
	if err := s.paymentRepo.MarkPaid(ctx, payment.ID, &result.TransactionID, &name, result.PaidAt); err != nil {
		return domain.Payment{}, err
	}
	metrics.GatewayCallbacks.WithLabelValues("paid").Inc()
	metrics.PaymentsPaid.Inc()

	return s.paymentRepo.FindByID(ctx, payment.ID)
}

// ConfirmPayment is the back-office path for settling COD and bank transfer
// payments once the money has actually arrived.
func (s *PaymentsService) ConfirmPayment(ctx context.Context, paymentID uint) (domain.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, err
	}

	if payment.Status == domain.PaymentStatusPaid {
		return domain.Payment{}, domain.NewError(domain.KindConflict, "payment is already settled")
	}
	if payment.Method == domain.MethodVnpay {
		return domain.Payment{}, domain.NewError(domain.KindConflict, "gateway payments settle through the callback")
	}

	if err := s.paymentRepo.MarkPaid(ctx, paymentID, nil, nil, time.Now()); err != nil {
		return domain.Payment{}, err
	}
	metrics.PaymentsPaid.Inc()

	return s.paymentRepo.FindByID(ctx, paymentID)
}

func (s *PaymentsService) GetOrderPayment(ctx context.Context, accountID, orderID uint) (domain.Payment, error) {
	if _, err := s.orderRepo.FindOwned(ctx, orderID, accountID); err != nil {
		return domain.Payment{}, err
	}

	return s.paymentRepo.FindByOrderID(ctx, orderID)
}

func (s *PaymentsService) ListPayments(ctx context.Context, accountID uint) ([]domain.Payment, error) {
	return s.paymentRepo.FindByAccount(ctx, accountID)
}
