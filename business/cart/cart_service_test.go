package cart_test

import (
	"context"
	"testing"

	"techshop/business/cart"
	"techshop/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCartRepo struct {
	carts    map[uint]domain.Cart // by account
	items    map[uint]domain.CartItem
	products map[uint]domain.Product
	nextID   uint
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[uint]domain.Cart{}, items: map[uint]domain.CartItem{}, nextID: 1}
}

func (f *fakeCartRepo) FindOrCreate(_ context.Context, accountID uint) (domain.Cart, error) {
	if c, ok := f.carts[accountID]; ok {
		return c, nil
	}
	c := domain.Cart{ID: accountID + 100, AccountID: accountID}
	f.carts[accountID] = c
	return c, nil
}

func (f *fakeCartRepo) FindWithItems(ctx context.Context, accountID uint) (domain.Cart, error) {
	c, err := f.FindOrCreate(ctx, accountID)
	if err != nil {
		return domain.Cart{}, err
	}
	c.Items = nil
	for _, item := range f.items {
		if item.CartID == c.ID {
			if p, ok := f.products[item.ProductID]; ok {
				item.Product = &p
			}
			c.Items = append(c.Items, item)
		}
	}
	return c, nil
}

func (f *fakeCartRepo) FindItem(_ context.Context, cartID, productID uint) (domain.CartItem, error) {
	for _, item := range f.items {
		if item.CartID == cartID && item.ProductID == productID {
			return item, nil
		}
	}
	return domain.CartItem{}, domain.NewError(domain.KindNotFound, "cart item not found")
}

func (f *fakeCartRepo) FindItemByID(_ context.Context, itemID uint) (domain.CartItem, error) {
	item, ok := f.items[itemID]
	if !ok {
		return domain.CartItem{}, domain.NewError(domain.KindNotFound, "cart item not found")
	}
	return item, nil
}

func (f *fakeCartRepo) CreateItem(_ context.Context, item *domain.CartItem) error {
	item.ID = f.nextID
	f.nextID++
	f.items[item.ID] = *item
	return nil
}

func (f *fakeCartRepo) UpdateItemQuantity(_ context.Context, itemID uint, quantity int) error {
	item, ok := f.items[itemID]
	if !ok {
		return domain.NewError(domain.KindNotFound, "cart item not found")
	}
	item.Quantity = quantity
	f.items[itemID] = item
	return nil
}

func (f *fakeCartRepo) DeleteItem(_ context.Context, itemID uint) error {
	if _, ok := f.items[itemID]; !ok {
		return domain.NewError(domain.KindNotFound, "cart item not found")
	}
	delete(f.items, itemID)
	return nil
}

type fakeProductRepo struct {
	products map[uint]domain.Product
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uint) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, domain.NewError(domain.KindNotFound, "product not found")
	}
	return p, nil
}

func fixtures() (*fakeCartRepo, *fakeProductRepo, *cart.CartService) {
	cartRepo := newFakeCartRepo()
	productRepo := &fakeProductRepo{products: map[uint]domain.Product{
		10: {ID: 10, Name: "phone", Price: 11_000_000, Stock: 5, IsListed: true},
		11: {ID: 11, Name: "discontinued", Price: 250_000, Stock: 3, IsListed: false},
	}}
	cartRepo.products = productRepo.products
	return cartRepo, productRepo, cart.NewCartService(cartRepo, productRepo)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	cartRepo, _, service := fixtures()

	require.NoError(t, service.AddItem(context.Background(), 7, 10, 2))
	require.NoError(t, service.AddItem(context.Background(), 7, 10, 1))

	require.Len(t, cartRepo.items, 1)
	for _, item := range cartRepo.items {
		assert.Equal(t, 3, item.Quantity)
	}
}

func TestAddItemRejectsOverStock(t *testing.T) {
	_, _, service := fixtures()

	require.NoError(t, service.AddItem(context.Background(), 7, 10, 4))

	// Merging 4 + 2 would exceed the stock of 5.
	err := service.AddItem(context.Background(), 7, 10, 2)
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientStock, domain.KindOf(err))

	err = service.AddItem(context.Background(), 8, 10, 6)
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientStock, domain.KindOf(err))
}

func TestAddItemRejectsUnlistedAndBadQuantity(t *testing.T) {
	_, _, service := fixtures()

	err := service.AddItem(context.Background(), 7, 11, 1)
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	err = service.AddItem(context.Background(), 7, 10, 0)
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	err = service.AddItem(context.Background(), 7, 99, 1)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestUpdateItemForeignLineNotFound(t *testing.T) {
	cartRepo, _, service := fixtures()
	require.NoError(t, service.AddItem(context.Background(), 7, 10, 1))

	var itemID uint
	for id := range cartRepo.items {
		itemID = id
	}

	err := service.UpdateItem(context.Background(), 8, itemID, 2)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	require.NoError(t, service.UpdateItem(context.Background(), 7, itemID, 2))
	assert.Equal(t, 2, cartRepo.items[itemID].Quantity)
}

func TestRemoveItem(t *testing.T) {
	cartRepo, _, service := fixtures()
	require.NoError(t, service.AddItem(context.Background(), 7, 10, 1))

	var itemID uint
	for id := range cartRepo.items {
		itemID = id
	}

	require.NoError(t, service.RemoveItem(context.Background(), 7, itemID))
	assert.Empty(t, cartRepo.items)
}

func TestGetCartSubtotal(t *testing.T) {
	_, _, service := fixtures()
	require.NoError(t, service.AddItem(context.Background(), 7, 10, 2))

	view, err := service.GetCart(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(22_000_000), view.Lines[0].LineTotal)
	assert.Equal(t, int64(22_000_000), view.Subtotal)
}
