// internal/services/helpers_test.go
package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jradiance/jradiance-backend/internal/config"
	"github.com/jradiance/jradiance-backend/internal/models"
)

// newTestDB opens a fresh in-memory database per test with the same schema
// the migrations produce.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.AdminActivityLog{},
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 1,
		},
		Checkout: config.CheckoutConfig{
			TaxRate:               0.08,
			FlatShippingCost:      7.50,
			FreeShippingThreshold: 100,
		},
		Payment: config.PaymentConfig{
			CallbackSecret: "callback-secret",
			Currency:       "usd",
		},
	}
}

func createUser(t *testing.T, db *gorm.DB, role models.Role, active bool) *models.User {
	t.Helper()

	user := &models.User{
		Email:       fmt.Sprintf("%s-%d@example.com", role, userSeq()),
		DisplayName: "Test " + string(role),
		Role:        role,
		IsActive:    active,
	}
	require.NoError(t, user.SetPassword("Sup3rSecret!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:          name,
		Category:      "skincare",
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

var seq int

func userSeq() int {
	seq++
	return seq
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

// newOrderFixture builds the full service stack around one database and
// inserts an order in the given state.
type orderFixture struct {
	db       *gorm.DB
	cfg      *config.Config
	orders   *OrderService
	audit    *AuditService
	customer *models.User
	admin    *models.User
	product  *models.Product
	order    *models.Order
}

func newOrderFixture(t *testing.T, status models.OrderStatus, paymentStatus models.PaymentStatus) *orderFixture {
	t.Helper()

	db := newTestDB(t)
	cfg := testConfig()
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	revalidate := NewRevalidateService(cfg)
	orders := NewOrderService(db, cfg, permissions, audit, revalidate)

	customer := createUser(t, db, models.RoleCustomer, true)
	admin := createUser(t, db, models.RoleAdmin, true)
	product := createProduct(t, db, "Radiance Serum", 25.00, 10)

	item, err := models.NewOrderItem(product, 2)
	require.NoError(t, err)
	order, err := models.NewOrder(customer.ID, "JR-20260829-TEST01", []models.OrderItem{item}, 4.00, 7.50, models.JSONB{"city": "Lyon"}, nil)
	require.NoError(t, err)
	order.Status = status
	order.PaymentStatus = paymentStatus
	require.NoError(t, db.Create(order).Error)

	// The fixture order was written directly, so mirror the stock the
	// checkout path would have reserved.
	require.NoError(t, db.Model(product).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity)).Error)
	require.NoError(t, db.First(product, "id = ?", product.ID).Error)

	return &orderFixture{
		db:       db,
		cfg:      cfg,
		orders:   orders,
		audit:    audit,
		customer: customer,
		admin:    admin,
		product:  product,
		order:    order,
	}
}

func (f *orderFixture) reloadOrder(t *testing.T) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.Preload("Items").First(&order, "id = ?", f.order.ID).Error)
	return &order
}

func (f *orderFixture) reloadProduct(t *testing.T) *models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", f.product.ID).Error)
	return &product
}

func (f *orderFixture) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.AdminActivityLog{}).
		Where("action = ?", action).Count(&count).Error)
	return count
}
