package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

// CreateProductInput is the DTO for creating a product.
type CreateProductInput struct {
	Name       string  `json:"product_name"`
	Brand      *string `json:"brand"`
	CategoryID int64   `json:"category_id"`
}

// UpdateProductInput is the DTO for updating a product. Nil fields are left
// unchanged; an empty brand clears it.
type UpdateProductInput struct {
	Name       *string `json:"product_name"`
	Brand      *string `json:"brand"`
	CategoryID *int64  `json:"category_id"`
}

// ProductService defines the product management contract. Every call is
// scoped to the products the user owns.
type ProductService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*domain.Product, error)
	GetByID(ctx context.Context, userID uuid.UUID, productID int64) (*domain.Product, error)
	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Product, int, error)
	Update(ctx context.Context, userID uuid.UUID, productID int64, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, userID uuid.UUID, productID int64) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type productService struct {
	productRepo  port.ProductRepository
	categoryRepo port.CategoryRepository
	fileRepo     port.ReviewFileRepository
	storage      port.ObjectStorage
}

// NewProductService creates a new ProductService implementation.
func NewProductService(
	productRepo port.ProductRepository,
	categoryRepo port.CategoryRepository,
	fileRepo port.ReviewFileRepository,
	storage port.ObjectStorage,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		fileRepo:     fileRepo,
		storage:      storage,
	}
}

func (s *productService) Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrProductNameRequired
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:       name,
		Brand:      normalizeBrand(input.Brand),
		CategoryID: input.CategoryID,
		UserID:     userID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	log.Printf("productService.Create: product %d created by %s", product.ID, userID)
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, userID uuid.UUID, productID int64) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, userID, productID)
}

func (s *productService) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Product, int, error) {
	return s.productRepo.ListByUser(ctx, userID, offset, limit)
}

func (s *productService) Update(ctx context.Context, userID uuid.UUID, productID int64, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrProductNameRequired
		}
		product.Name = name
	}
	if input.Brand != nil {
		product.Brand = normalizeBrand(input.Brand)
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *input.CategoryID
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product and, best effort, its stored review files.
func (s *productService) Delete(ctx context.Context, userID uuid.UUID, productID int64) error {
	if _, err := s.productRepo.GetByID(ctx, userID, productID); err != nil {
		return err
	}

	files, err := s.fileRepo.ListByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("productService.Delete: listing files: %w", err)
	}
	if err := s.productRepo.Delete(ctx, userID, productID); err != nil {
		return err
	}
	for i := range files {
		if err := s.storage.Delete(ctx, files[i].S3Bucket, files[i].S3Key); err != nil {
			log.Printf("productService.Delete: removing %s: %v", files[i].S3Key, err)
		}
	}
	return nil
}

func (s *productService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *productService) checkCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return domain.ErrInvalidCategory
	}
	ok, err := s.categoryRepo.Exists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("productService: checking category: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCategory
	}
	return nil
}

func normalizeBrand(brand *string) *string {
	if brand == nil {
		return nil
	}
	b := strings.TrimSpace(*brand)
	if b == "" {
		return nil
	}
	return &b
}
