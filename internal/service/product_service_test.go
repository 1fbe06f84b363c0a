package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/domain"
	"reviewhub/internal/service"
	"reviewhub/mocks"
)

type productDeps struct {
	productRepo  *mocks.MockProductRepo
	categoryRepo *mocks.MockCategoryRepo
	fileRepo     *mocks.MockReviewFileRepo
	storage      *mocks.MockObjectStorage
	svc          service.ProductService
}

func newProductDeps() *productDeps {
	d := &productDeps{
		productRepo:  new(mocks.MockProductRepo),
		categoryRepo: new(mocks.MockCategoryRepo),
		fileRepo:     new(mocks.MockReviewFileRepo),
		storage:      new(mocks.MockObjectStorage),
	}
	d.svc = service.NewProductService(d.productRepo, d.categoryRepo, d.fileRepo, d.storage)
	return d
}

func strPtr(s string) *string { return &s }

func TestProductService_Create_Success(t *testing.T) {
	d := newProductDeps()
	userID := uuid.New()

	d.categoryRepo.On("Exists", mock.Anything, int64(2)).Return(true, nil)
	d.productRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Name == "Trail Shoe" && p.Brand != nil && *p.Brand == "Acme" && p.UserID == userID
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Product).ID = 11
	}).Return(nil)

	product, err := d.svc.Create(context.Background(), userID, service.CreateProductInput{
		Name:       "  Trail Shoe ",
		Brand:      strPtr(" Acme "),
		CategoryID: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), product.ID)
	d.productRepo.AssertExpectations(t)
}

func TestProductService_Create_BlankBrandIsNull(t *testing.T) {
	d := newProductDeps()
	d.categoryRepo.On("Exists", mock.Anything, int64(2)).Return(true, nil)
	d.productRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Brand == nil
	})).Return(nil)

	_, err := d.svc.Create(context.Background(), uuid.New(), service.CreateProductInput{
		Name: "Trail Shoe", Brand: strPtr("   "), CategoryID: 2,
	})

	require.NoError(t, err)
	d.productRepo.AssertExpectations(t)
}

func TestProductService_Create_Validation(t *testing.T) {
	cases := []struct {
		name     string
		input    service.CreateProductInput
		category bool
		want     error
	}{
		{"blank name", service.CreateProductInput{Name: "  ", CategoryID: 2}, true, domain.ErrProductNameRequired},
		{"zero category", service.CreateProductInput{Name: "x", CategoryID: 0}, true, domain.ErrInvalidCategory},
		{"negative category", service.CreateProductInput{Name: "x", CategoryID: -1}, true, domain.ErrInvalidCategory},
		{"unknown category", service.CreateProductInput{Name: "x", CategoryID: 99}, false, domain.ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newProductDeps()
			d.categoryRepo.On("Exists", mock.Anything, mock.Anything).Return(tc.category, nil)

			_, err := d.svc.Create(context.Background(), uuid.New(), tc.input)

			assert.ErrorIs(t, err, tc.want)
			d.productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_Update_PartialFields(t *testing.T) {
	d := newProductDeps()
	userID := uuid.New()
	existing := &domain.Product{ID: 5, Name: "Old", Brand: strPtr("Acme"), CategoryID: 1, UserID: userID}

	d.productRepo.On("GetByID", mock.Anything, userID, int64(5)).Return(existing, nil)
	d.productRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	product, err := d.svc.Update(context.Background(), userID, 5, service.UpdateProductInput{
		Name:  strPtr("New"),
		Brand: strPtr(""),
	})

	require.NoError(t, err)
	assert.Equal(t, "New", product.Name)
	assert.Nil(t, product.Brand)
	assert.Equal(t, int64(1), product.CategoryID)
	d.categoryRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestProductService_Update_NotOwned(t *testing.T) {
	d := newProductDeps()
	userID := uuid.New()
	d.productRepo.On("GetByID", mock.Anything, userID, int64(5)).Return(nil, domain.ErrProductNotFound)

	_, err := d.svc.Update(context.Background(), userID, 5, service.UpdateProductInput{Name: strPtr("New")})

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductService_Delete_RemovesStoredFiles(t *testing.T) {
	d := newProductDeps()
	userID := uuid.New()
	files := []domain.ReviewFile{
		{ID: uuid.New(), S3Bucket: "b", S3Key: "reviews/5/a.csv"},
		{ID: uuid.New(), S3Bucket: "b", S3Key: "reviews/5/b.csv"},
	}

	d.productRepo.On("GetByID", mock.Anything, userID, int64(5)).Return(&domain.Product{ID: 5}, nil)
	d.fileRepo.On("ListByProduct", mock.Anything, int64(5)).Return(files, nil)
	d.productRepo.On("Delete", mock.Anything, userID, int64(5)).Return(nil)
	d.storage.On("Delete", mock.Anything, "b", "reviews/5/a.csv").Return(errors.New("s3 unavailable"))
	d.storage.On("Delete", mock.Anything, "b", "reviews/5/b.csv").Return(nil)

	err := d.svc.Delete(context.Background(), userID, 5)

	require.NoError(t, err)
	d.storage.AssertExpectations(t)
}

func TestProductService_Delete_NotOwned(t *testing.T) {
	d := newProductDeps()
	userID := uuid.New()
	d.productRepo.On("GetByID", mock.Anything, userID, int64(5)).Return(nil, domain.ErrProductNotFound)

	err := d.svc.Delete(context.Background(), userID, 5)

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	d.productRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
