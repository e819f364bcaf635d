package cart

import (
	"context"

	"techshop/domain"
)

type CartRepository interface {
	FindOrCreate(ctx context.Context, accountID uint) (domain.Cart, error)
	FindWithItems(ctx context.Context, accountID uint) (domain.Cart, error)
	FindItem(ctx context.Context, cartID, productID uint) (domain.CartItem, error)
	FindItemByID(ctx context.Context, itemID uint) (domain.CartItem, error)
	CreateItem(ctx context.Context, item *domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error
	DeleteItem(ctx context.Context, itemID uint) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Product, error)
}

type CartService struct {
	cartRepo    CartRepository
	productRepo ProductRepository
}

func NewCartService(cartRepo CartRepository, productRepo ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CartView is the cart with its lines priced at current product prices. The
// subtotal is advisory; the binding total is computed at order placement.
type CartView struct {
	Cart     domain.Cart `json:"cart"`
	Lines    []CartLine  `json:"lines"`
	Subtotal int64       `json:"subtotal"`
}

type CartLine struct {
	domain.CartItem
	LineTotal int64 `json:"line_total"`
}

func (s *CartService) GetCart(ctx context.Context, accountID uint) (CartView, error) {
	cart, err := s.cartRepo.FindWithItems(ctx, accountID)
	if err != nil {
		return CartView{}, err
	}

	view := CartView{Cart: cart, Lines: make([]CartLine, 0, len(cart.Items))}
	for _, item := range cart.Items {
		var lineTotal int64
		if item.Product != nil {
			lineTotal = item.Product.Price * int64(item.Quantity)
		}
		view.Lines = append(view.Lines, CartLine{CartItem: item, LineTotal: lineTotal})
		view.Subtotal += lineTotal
	}

	return view, nil
}

// AddItem merges with an existing line for the same product. The combined
// quantity is checked against stock now for early feedback; the binding check
// happens again at order placement.
func (s *CartService) AddItem(ctx context.Context, accountID, productID uint, quantity int) error {
	if quantity <= 0 {
		return domain.NewError(domain.KindInvalidInput, "quantity must be positive")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsListed {
		return domain.NewError(domain.KindInvalidInput, "product is no longer for sale")
	}

	cart, err := s.cartRepo.FindOrCreate(ctx, accountID)
	if err != nil {
		return err
	}

	existing, err := s.cartRepo.FindItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		merged := existing.Quantity + quantity
		if merged > product.Stock {
			return domain.NewError(domain.KindInsufficientStock, "requested quantity exceeds available stock")
		}
		return s.cartRepo.UpdateItemQuantity(ctx, existing.ID, merged)
	case domain.KindOf(err) != domain.KindNotFound:
		return err
	}

	if quantity > product.Stock {
		return domain.NewError(domain.KindInsufficientStock, "requested quantity exceeds available stock")
	}

	return s.cartRepo.CreateItem(ctx, &domain.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func (s *CartService) UpdateItem(ctx context.Context, accountID, itemID uint, quantity int) error {
	if quantity <= 0 {
		return domain.NewError(domain.KindInvalidInput, "quantity must be positive")
	}

	item, err := s.ownedItem(ctx, accountID, itemID)
	if err != nil {
		return err
	}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if quantity > product.Stock {
		return domain.NewError(domain.KindInsufficientStock, "requested quantity exceeds available stock")
	}

	return s.cartRepo.UpdateItemQuantity(ctx, itemID, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, accountID, itemID uint) error {
	item, err := s.ownedItem(ctx, accountID, itemID)
	if err != nil {
		return err
	}

	return s.cartRepo.DeleteItem(ctx, item.ID)
}

// ownedItem resolves the line and confirms it belongs to the account's cart;
// a foreign line is reported as not found rather than forbidden.
func (s *CartService) ownedItem(ctx context.Context, accountID, itemID uint) (domain.CartItem, error) {
	item, err := s.cartRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return domain.CartItem{}, err
	}

	cart, err := s.cartRepo.FindOrCreate(ctx, accountID)
	if err != nil {
		return domain.CartItem{}, err
	}

	if item.CartID != cart.ID {
		return domain.CartItem{}, domain.NewError(domain.KindNotFound, "cart item not found")
	}

	return item, nil
}
