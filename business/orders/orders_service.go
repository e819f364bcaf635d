package orders

import (
	"context"
	"fmt"
	"time"

	"techshop/business/payments"
	"techshop/domain"
	"techshop/internal/repository/vnpay"
	"techshop/pkg/logger"
)

type OrdersRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order, cartID uint, payment *domain.Payment) error
	CancelOrder(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID uint) (domain.Order, error)
	FindOwned(ctx context.Context, orderID, accountID uint) (domain.Order, error)
	FindByAccount(ctx context.Context, accountID uint, page, pageSize int) ([]domain.Order, int64, error)
	FindAll(ctx context.Context, page, pageSize int, status string) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID uint, status string) error
}

type AccountRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Account, error)
}

type CartRepository interface {
	FindWithItems(ctx context.Context, accountID uint) (domain.Cart, error)
}

type PaymentGateway interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
}

type OrdersService struct {
	orderRepo   OrdersRepository
	accountRepo AccountRepository
	cartRepo    CartRepository
	gateway     PaymentGateway
}

func NewOrdersService(orderRepo OrdersRepository, accountRepo AccountRepository, cartRepo CartRepository, gateway PaymentGateway) *OrdersService {
	return &OrdersService{
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
		cartRepo:    cartRepo,
		gateway:     gateway,
	}
}

// CheckInventory validates every cart line before any mutation is attempted:
// the product must resolve, be listed, and cover the requested quantity. No
// side effects; one bad line rejects the whole cart.
func CheckInventory(items []domain.CartItem) error {
	for _, item := range items {
		if item.Product == nil {
			return domain.NewError(domain.KindNotFound,
				fmt.Sprintf("product %d does not exist", item.ProductID))
		}
		if !item.Product.IsListed {
			return domain.NewError(domain.KindInvalidInput,
				fmt.Sprintf("product %q is no longer for sale", item.Product.Name))
		}
		if item.Quantity > item.Product.Stock {
			return domain.NewError(domain.KindInsufficientStock,
				fmt.Sprintf("product %q has insufficient stock", item.Product.Name))
		}
	}

	return nil
}

// OrderTotal is the stored total: unit price times quantity summed over the
// lines, plus the shipping fee captured at creation.
func OrderTotal(items []domain.OrderItem, shippingFee int64) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}

	return total + shippingFee
}

type CreateOrderInput struct {
	AccountID        uint
	RecipientName    string
	RecipientAddress string
	RecipientPhone   string
	ShippingFee      int64
	PaymentMethod    string // optional, empty means no payment yet
	ClientIP         string
}

type CreateOrderResult struct {
	Order      domain.Order    `json:"order"`
	Payment    *domain.Payment `json:"payment,omitempty"`
	PaymentURL string          `json:"payment_url,omitempty"`
}

// CreateOrder turns the account's cart into an order. Validation runs up
// front; the writes (order, items with frozen prices, stock decrement, cart
// clear, optional payment) happen in a single transaction in the repository.
func (s *OrdersService) CreateOrder(ctx context.Context, input CreateOrderInput) (CreateOrderResult, error) {
	account, err := s.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if !account.IsActive {
		return CreateOrderResult{}, domain.NewError(domain.KindUnauthorized, "account is disabled")
	}

	cart, err := s.cartRepo.FindWithItems(ctx, input.AccountID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if len(cart.Items) == 0 {
		return CreateOrderResult{}, domain.NewError(domain.KindInvalidInput, "cart is empty")
	}

	if err := CheckInventory(cart.Items); err != nil {
		return CreateOrderResult{}, err
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
	}

	order := domain.Order{
		AccountID:        input.AccountID,
		PlacedAt:         time.Now(),
		Total:            OrderTotal(items, input.ShippingFee),
		ShippingFee:      input.ShippingFee,
		Status:           domain.OrderStatusPending,
		RecipientName:    input.RecipientName,
		RecipientAddress: input.RecipientAddress,
		RecipientPhone:   input.RecipientPhone,
		Items:            items,
	}

	var payment *domain.Payment
	if input.PaymentMethod != "" {
		method, err := domain.ParsePaymentMethod(input.PaymentMethod)
		if err != nil {
			return CreateOrderResult{}, err
		}

		intent := payments.BuildIntent(method, order.Total)
		payment = &intent
	}

	if err := s.orderRepo.CreateOrder(ctx, &order, cart.ID, payment); err != nil {
		return CreateOrderResult{}, err
	}

	result := CreateOrderResult{Order: order, Payment: payment}

	if payment != nil && payment.Method == domain.MethodVnpay {
		url, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
			PaymentID:   payment.ID,
			Amount:      order.Total,
			Description: fmt.Sprintf("Payment for order #%d", order.ID),
			IPAddress:   input.ClientIP,
		})
		if err != nil {
			// The order is committed; the client can retry payment later.
			logger.Error("failed to build gateway payment url", err)
			return result, err
		}
		result.PaymentURL = url
	}

	return result, nil
}

// CancelOrder restores stock and removes the order with its items and
// payments. Orders in a terminal state cannot be cancelled.
func (s *OrdersService) CancelOrder(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if order.IsTerminal() {
		return domain.NewError(domain.KindConflict, "completed orders cannot be cancelled")
	}

	return s.orderRepo.CancelOrder(ctx, order)
}

func (s *OrdersService) GetOrder(ctx context.Context, orderID, accountID uint) (domain.Order, error) {
	return s.orderRepo.FindOwned(ctx, orderID, accountID)
}

func (s *OrdersService) ListOrders(ctx context.Context, accountID uint, page, pageSize int) ([]domain.Order, int64, error) {
	return s.orderRepo.FindByAccount(ctx, accountID, page, pageSize)
}

// ConfirmOrder moves a Pending order to Confirmed.
func (s *OrdersService) ConfirmOrder(ctx context.Context, orderID, accountID uint) error {
	order, err := s.orderRepo.FindOwned(ctx, orderID, accountID)
	if err != nil {
		return err
	}

	if order.Status != domain.OrderStatusPending {
		return domain.NewError(domain.KindConflict, "order cannot be confirmed")
	}

	return s.orderRepo.UpdateStatus(ctx, orderID, domain.OrderStatusConfirmed)
}

// Admin surface.

func (s *OrdersService) ListAllOrders(ctx context.Context, page, pageSize int, status string) ([]domain.Order, int64, error) {
	return s.orderRepo.FindAll(ctx, page, pageSize, status)
}

var allowedStatuses = map[string]bool{
	domain.OrderStatusPending:   true,
	domain.OrderStatusConfirmed: true,
	domain.OrderStatusPaid:      true,
	domain.OrderStatusShipped:   true,
	domain.OrderStatusDelivered: true,
	domain.OrderStatusCompleted: true,
}

func (s *OrdersService) UpdateOrderStatus(ctx context.Context, orderID uint, status string) error {
	if !allowedStatuses[status] {
		return domain.NewError(domain.KindInvalidInput, "invalid order status: "+status)
	}

	return s.orderRepo.UpdateStatus(ctx, orderID, status)
}
