// internal/services/report_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
)

// ReportService computes the dashboard and sales-log aggregates. Pure reads.
type ReportService struct {
	db          *gorm.DB
	permissions *PermissionService
}

type OrderStatistics struct {
	Period         string                       `json:"period"`
	TotalOrders    int64                        `json:"total_orders"`
	ByStatus       map[models.OrderStatus]int64 `json:"by_status"`
	TotalRevenue   float64                      `json:"total_revenue"`
	PendingRevenue float64                      `json:"pending_revenue"`
}

type DailySales struct {
	Day     string  `json:"day"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type TopProduct struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitsSold   int64     `json:"units_sold"`
	Revenue     float64   `json:"revenue"`
}

type SalesReport struct {
	Days        []DailySales `json:"days"`
	TopProducts []TopProduct `json:"top_products"`
}

func NewReportService(db *gorm.DB, permissions *PermissionService) *ReportService {
	return &ReportService{db: db, permissions: permissions}
}

// periodStart maps a reporting period to the start of its rolling window.
// Returns the zero time for "all", meaning no filter.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "day":
		return now.AddDate(0, 0, -1), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	case "all":
		return time.Time{}, nil
	default:
		return time.Time{}, invalidf("unknown reporting period %q", period)
	}
}

// GetOrderStatistics summarizes the order collection over a rolling window.
// The status breakdown always carries all six states, zero-filled, and the
// two revenue sums partition completed and pending payments: an order
// contributes to at most one of them.
func (s *ReportService) GetOrderStatistics(actorID uuid.UUID, period string) (*OrderStatistics, error) {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return nil, err
	}
	if !perms.ViewSalesLogs {
		return nil, ErrPermissionDenied
	}

	since, err := periodStart(period, time.Now())
	if err != nil {
		return nil, err
	}

	windowed := func() *gorm.DB {
		q := s.db.Model(&models.Order{})
		if !since.IsZero() {
			q = q.Where("created_at >= ?", since)
		}
		return q
	}

	stats := &OrderStatistics{
		Period:   period,
		ByStatus: make(map[models.OrderStatus]int64, len(models.AllOrderStatuses)),
	}
	for _, status := range models.AllOrderStatuses {
		stats.ByStatus[status] = 0
	}

	if err := windowed().Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := windowed().Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}

	if err := windowed().
		Where("payment_status = ?", models.PaymentStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	if err := windowed().
		Where("payment_status = ?", models.PaymentStatusPending).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.PendingRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum pending revenue: %w", err)
	}

	return stats, nil
}

// GetSalesReport returns per-day revenue and the best-selling products over
// the last `days` days, counting only orders whose payment completed.
func (s *ReportService) GetSalesReport(actorID uuid.UUID, days int) (*SalesReport, error) {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return nil, err
	}
	if !perms.ViewSalesLogs {
		return nil, ErrPermissionDenied
	}

	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	report := &SalesReport{}

	if err := s.db.Model(&models.Order{}).
		Select("DATE(created_at) as day, COUNT(*) as orders, COALESCE(SUM(total_amount), 0) as revenue").
		Where("payment_status = ? AND created_at >= ?", models.PaymentStatusCompleted, since).
		Group("DATE(created_at)").
		Order("day").
		Scan(&report.Days).Error; err != nil {
		return nil, fmt.Errorf("failed to build daily sales: %w", err)
	}

	if err := s.db.Model(&models.OrderItem{}).
		Select("order_items.product_id, order_items.product_name, SUM(order_items.quantity) as units_sold, COALESCE(SUM(order_items.total_price), 0) as revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_status = ? AND orders.created_at >= ?", models.PaymentStatusCompleted, since).
		Group("order_items.product_id, order_items.product_name").
		Order("revenue DESC").
		Limit(10).
		Scan(&report.TopProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to build top products: %w", err)
	}

	return report, nil
}
