// internal/services/audit_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
)

func TestGetLogsVisibleToAllStaff(t *testing.T) {
	db := newTestDB(t)
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)

	agent := createUser(t, db, models.RoleAgent, true)
	customer := createUser(t, db, models.RoleCustomer, true)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return audit.Record(tx, &agent.ID, "product_created", "product", nil,
			models.JSONB{"name": "Serum"})
	}))

	logs, total, err := audit.GetLogs(agent.ID, AuditLogFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "product_created", logs[0].Action)

	_, _, err = audit.GetLogs(customer.ID, AuditLogFilter{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGetLogsFilterByActorAndAction(t *testing.T) {
	db := newTestDB(t)
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)

	agent := createUser(t, db, models.RoleAgent, true)
	admin := createUser(t, db, models.RoleAdmin, true)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := audit.Record(tx, &agent.ID, "product_created", "product", nil, nil); err != nil {
			return err
		}
		return audit.Record(tx, &admin.ID, "order_cancelled", "order", nil, nil)
	}))

	logs, total, err := audit.GetLogs(admin.ID, AuditLogFilter{ActorID: &agent.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "product_created", logs[0].Action)

	logs, total, err = audit.GetLogs(admin.ID, AuditLogFilter{Action: "order_cancelled"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "order_cancelled", logs[0].Action)
}

func TestRecordAccessWritesAsynchronously(t *testing.T) {
	db := newTestDB(t)
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	agent := createUser(t, db, models.RoleAgent, true)

	audit.RecordAccess(&agent.ID, "GET", "/v1/admin/orders", "127.0.0.1", "test-agent")

	// The write happens off the request path; poll briefly for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var count int64
		require.NoError(t, db.Model(&models.AdminActivityLog{}).
			Where("action = ?", "page_access").Count(&count).Error)
		if count == 1 {
			var entry models.AdminActivityLog
			require.NoError(t, db.Where("action = ?", "page_access").First(&entry).Error)
			assert.Equal(t, "route", entry.ResourceType)
			assert.Equal(t, "127.0.0.1", entry.IPAddress)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("page access entry never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRecordFailureAbortsTransaction(t *testing.T) {
	db := newTestDB(t)
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	agent := createUser(t, db, models.RoleAgent, true)

	// Dropping the audit table makes Record fail, which must roll back the
	// business write sharing the transaction.
	require.NoError(t, db.Migrator().DropTable(&models.AdminActivityLog{}))

	product := &models.Product{Name: "Serum", Price: 10, StockQuantity: 1, IsActive: true}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		return audit.Record(tx, &agent.ID, "product_created", "product", &product.ID, nil)
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}
