package product

import (
	"context"
	"io"

	"techshop/domain"
	"techshop/internal/repository/postgres"
	"techshop/pkg/logger"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uint) (domain.Product, error)
	FindNewest(ctx context.Context, limit int) ([]domain.Product, error)
	FindByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error)
	SearchByName(ctx context.Context, name string) ([]domain.Product, error)
	Filter(ctx context.Context, filter postgres.ProductFilter) ([]domain.Product, int64, error)
	FindRelated(ctx context.Context, product domain.Product, limit int) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	SetListed(ctx context.Context, id uint, listed bool) error
	IsOrdered(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
}

type CategoryRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Category, error)
}

type MediaRepository interface {
	Upload(data io.Reader, filename string) (string, error)
	Delete(publicURL string) error
}

const (
	newestLimit  = 10
	relatedLimit = 4
)

type ProductService struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	media        MediaRepository
}

func NewProductService(productRepo ProductRepository, categoryRepo CategoryRepository, media MediaRepository) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		media:        media,
	}
}

// ProductDetail bundles the product with its related items for the detail
// page.
type ProductDetail struct {
	Product domain.Product   `json:"product"`
	Related []domain.Product `json:"related"`
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (ProductDetail, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}

	related, err := s.productRepo.FindRelated(ctx, product, relatedLimit)
	if err != nil {
		// Related items are decoration; the detail page still works.
		logger.Warn("failed to load related products", "product_id", id, "error", err)
		related = nil
	}

	return ProductDetail{Product: product, Related: related}, nil
}

func (s *ProductService) GetNewest(ctx context.Context) ([]domain.Product, error) {
	return s.productRepo.FindNewest(ctx, newestLimit)
}

func (s *ProductService) GetByCategory(ctx context.Context, categoryID uint) ([]domain.Product, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}

	return s.productRepo.FindByCategory(ctx, categoryID)
}

func (s *ProductService) Search(ctx context.Context, name string) ([]domain.Product, error) {
	if name == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "search term is required")
	}

	return s.productRepo.SearchByName(ctx, name)
}

// Browse applies the storefront filter. Customers only ever see listed
// products; the flag is forced here rather than trusted from the request.
func (s *ProductService) Browse(ctx context.Context, filter postgres.ProductFilter) ([]domain.Product, int64, error) {
	if filter.PriceMin != nil && filter.PriceMax != nil && *filter.PriceMin > *filter.PriceMax {
		return nil, 0, domain.NewError(domain.KindInvalidInput, "minimum price is above maximum price")
	}

	listed := true
	filter.Listed = &listed

	return s.productRepo.Filter(ctx, filter)
}

type UpsertProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	CategoryID  *uint
	Brand       string
	Promo       string
	IsListed    bool
}

func (s *ProductService) CreateProduct(ctx context.Context, input UpsertProductInput) (domain.Product, error) {
	if err := s.validate(ctx, input); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		Brand:       input.Brand,
		Promo:       input.Promo,
		IsListed:    input.IsListed,
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input UpsertProductInput) (domain.Product, error) {
	if err := s.validate(ctx, input); err != nil {
		return domain.Product{}, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	product.CategoryID = input.CategoryID
	product.Brand = input.Brand
	product.Promo = input.Promo
	product.IsListed = input.IsListed

	if err := s.productRepo.Update(ctx, &product); err != nil {
		return domain.Product{}, err
	}

	return s.productRepo.FindByID(ctx, id)
}

func (s *ProductService) validate(ctx context.Context, input UpsertProductInput) error {
	if input.Price <= 0 {
		return domain.NewError(domain.KindInvalidInput, "price must be positive")
	}
	if input.Stock < 0 {
		return domain.NewError(domain.KindInvalidInput, "stock cannot be negative")
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return err
		}
	}

	return nil
}

// UpdateImage uploads the new product image and swaps the stored URL; the
// previous image is removed best-effort.
func (s *ProductService) UpdateImage(ctx context.Context, id uint, data io.Reader, filename string) (domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	url, err := s.media.Upload(data, filename)
	if err != nil {
		return domain.Product{}, err
	}

	previous := product.ImageURL
	product.ImageURL = url
	if err := s.productRepo.Update(ctx, &product); err != nil {
		return domain.Product{}, err
	}

	if previous != "" {
		if err := s.media.Delete(previous); err != nil {
			logger.Warn("failed to delete previous product image", "product_id", id, "error", err)
		}
	}

	return product, nil
}

func (s *ProductService) SetListed(ctx context.Context, id uint, listed bool) error {
	return s.productRepo.SetListed(ctx, id, listed)
}

// DeleteProduct removes a product nothing was ordered from; one with order
// history is delisted instead so past order lines keep resolving.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	ordered, err := s.productRepo.IsOrdered(ctx, id)
	if err != nil {
		return err
	}

	if ordered {
		return s.productRepo.SetListed(ctx, id, false)
	}

	return s.productRepo.Delete(ctx, id)
}
