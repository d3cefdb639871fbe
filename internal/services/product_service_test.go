// internal/services/product_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
)

type productFixture struct {
	db       *gorm.DB
	products *ProductService
	agent    *models.User
	customer *models.User
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()

	db := newTestDB(t)
	cfg := testConfig()
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	products := NewProductService(db, permissions, audit, NewRevalidateService(cfg))

	return &productFixture{
		db:       db,
		products: products,
		agent:    createUser(t, db, models.RoleAgent, true),
		customer: createUser(t, db, models.RoleCustomer, true),
	}
}

func TestCreateProductByAgent(t *testing.T) {
	f := newProductFixture(t)

	product, err := f.products.CreateProduct(f.agent.ID, &CreateProductRequest{
		Name:          "Radiance Serum",
		Category:      "skincare",
		Price:         29.99,
		StockQuantity: 50,
	})
	require.NoError(t, err)

	assert.True(t, product.IsActive)
	assert.Equal(t, 29.99, product.Price)

	var count int64
	require.NoError(t, f.db.Model(&models.AdminActivityLog{}).
		Where("action = ?", "product_created").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateProductDeniedForCustomer(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.products.CreateProduct(f.customer.ID, &CreateProductRequest{
		Name:  "Radiance Serum",
		Price: 29.99,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateProductRejectsInvalidPayload(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.products.CreateProduct(f.agent.ID, &CreateProductRequest{
		Name:  "Free Serum",
		Price: 0,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateProductRecordsChanges(t *testing.T) {
	f := newProductFixture(t)
	serum := createProduct(t, f.db, "Radiance Serum", 25.00, 10)

	newPrice := 27.50
	updated, err := f.products.UpdateProduct(f.agent.ID, serum.ID, &UpdateProductRequest{
		Price: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, 27.50, updated.Price)

	var entry models.AdminActivityLog
	require.NoError(t, f.db.Where("action = ?", "product_updated").First(&entry).Error)
	assert.Equal(t, "product", entry.ResourceType)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, serum.ID, *entry.ResourceID)
}

func TestUpdateProductRejectsNegativeStock(t *testing.T) {
	f := newProductFixture(t)
	serum := createProduct(t, f.db, "Radiance Serum", 25.00, 10)

	badStock := -1
	_, err := f.products.UpdateProduct(f.agent.ID, serum.ID, &UpdateProductRequest{
		StockQuantity: &badStock,
	})
	assert.ErrorIs(t, err, ErrInvalid)

	badPrice := 0.0
	_, err = f.products.UpdateProduct(f.agent.ID, serum.ID, &UpdateProductRequest{
		Price: &badPrice,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSetProductActiveHidesFromPublicListing(t *testing.T) {
	f := newProductFixture(t)
	serum := createProduct(t, f.db, "Radiance Serum", 25.00, 10)

	require.NoError(t, f.products.SetProductActive(f.agent.ID, serum.ID, false))

	listed, total, err := f.products.GetProducts(ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, listed)

	// The admin listing still sees it.
	listed, total, err = f.products.GetProducts(ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, listed, 1)
}

func TestGetProductsFilters(t *testing.T) {
	f := newProductFixture(t)
	createProduct(t, f.db, "Radiance Serum", 25.00, 10)
	soldOut := createProduct(t, f.db, "Sold Out Mask", 18.00, 0)

	listed, total, err := f.products.GetProducts(ProductFilter{InStock: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, listed, 1)
	assert.NotEqual(t, soldOut.ID, listed[0].ID)
}

func TestDeleteProduct(t *testing.T) {
	f := newProductFixture(t)
	serum := createProduct(t, f.db, "Radiance Serum", 25.00, 10)

	require.NoError(t, f.products.DeleteProduct(f.agent.ID, serum.ID))

	_, err := f.products.GetProduct(serum.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
