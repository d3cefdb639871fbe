// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

type ProductService struct {
	db          *gorm.DB
	permissions *PermissionService
	audit       *AuditService
	revalidate  *RevalidateService
}

// ProductFilter is the closed set of catalog filters. Every supported
// filter is a named field; there is no pass-through of arbitrary criteria.
type ProductFilter struct {
	utils.PaginationParams
	Category   string `json:"category,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
	InStock    bool   `json:"in_stock,omitempty"`
}

type CreateProductRequest struct {
	Name           string                 `json:"name" validate:"required,max=255"`
	Description    string                 `json:"description,omitempty"`
	Category       string                 `json:"category,omitempty"`
	Price          float64                `json:"price" validate:"required,min=0.01"`
	StockQuantity  int                    `json:"stock_quantity" validate:"min=0"`
	Images         []string               `json:"images,omitempty"`
	Specifications map[string]interface{} `json:"specifications,omitempty"`
}

type UpdateProductRequest struct {
	Name           *string                `json:"name,omitempty"`
	Description    *string                `json:"description,omitempty"`
	Category       *string                `json:"category,omitempty"`
	Price          *float64               `json:"price,omitempty"`
	StockQuantity  *int                   `json:"stock_quantity,omitempty"`
	Images         []string               `json:"images,omitempty"`
	Specifications map[string]interface{} `json:"specifications,omitempty"`
}

func NewProductService(db *gorm.DB, permissions *PermissionService, audit *AuditService, revalidate *RevalidateService) *ProductService {
	return &ProductService{
		db:          db,
		permissions: permissions,
		audit:       audit,
		revalidate:  revalidate,
	}
}

// GetProducts lists the catalog. The shop passes ActiveOnly; the admin
// screens list everything.
func (s *ProductService) GetProducts(filter ProductFilter) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.InStock {
		query = query.Where("stock_quantity > 0")
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "stock_quantity"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) GetProduct(productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) CreateProduct(actorID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return nil, err
	}
	if !perms.ManageProducts {
		return nil, ErrPermissionDenied
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidf("validation failed: %v", err)
	}

	product := &models.Product{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		Price:          req.Price,
		StockQuantity:  req.StockQuantity,
		IsActive:       true,
		Images:         pq.StringArray(req.Images),
		Specifications: models.JSONB(req.Specifications),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		return s.audit.Record(tx, &actorID, "product_created", "product", &product.ID,
			models.JSONB{"name": product.Name, "price": product.Price, "stock_quantity": product.StockQuantity})
	})
	if err != nil {
		return nil, err
	}

	s.revalidate.Paths("/", "/products", "/admin/products")
	return product, nil
}

func (s *ProductService) UpdateProduct(actorID, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return nil, err
	}
	if !perms.ManageProducts {
		return nil, ErrPermissionDenied
	}

	var product models.Product
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		changes := models.JSONB{}

		if req.Name != nil && *req.Name != product.Name {
			changes["name"] = models.JSONB{"old": product.Name, "new": *req.Name}
			updates["name"] = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Category != nil {
			updates["category"] = *req.Category
		}
		if req.Price != nil && *req.Price != product.Price {
			if *req.Price <= 0 {
				return invalidf("price must be positive")
			}
			changes["price"] = models.JSONB{"old": product.Price, "new": *req.Price}
			updates["price"] = *req.Price
		}
		if req.StockQuantity != nil && *req.StockQuantity != product.StockQuantity {
			if *req.StockQuantity < 0 {
				return invalidf("stock quantity cannot be negative")
			}
			changes["stock_quantity"] = models.JSONB{"old": product.StockQuantity, "new": *req.StockQuantity}
			updates["stock_quantity"] = *req.StockQuantity
		}
		if req.Images != nil {
			updates["images"] = pq.StringArray(req.Images)
		}
		if req.Specifications != nil {
			updates["specifications"] = models.JSONB(req.Specifications)
		}

		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		return s.audit.Record(tx, &actorID, "product_updated", "product", &productID, changes)
	})
	if err != nil {
		return nil, err
	}

	s.revalidate.Paths("/", "/products", "/products/"+productID.String(), "/admin/products")
	return &product, nil
}

// SetProductActive publishes or hides a catalog entry.
func (s *ProductService) SetProductActive(actorID, productID uuid.UUID, active bool) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageProducts {
		return ErrPermissionDenied
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if product.IsActive == active {
			return nil
		}

		if err := tx.Model(&product).Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to update active flag: %w", err)
		}

		return s.audit.Record(tx, &actorID, "product_status_updated", "product", &productID,
			models.JSONB{"old_active": product.IsActive, "new_active": active})
	})
	if err != nil {
		return err
	}

	s.revalidate.Paths("/", "/products", "/admin/products")
	return nil
}

// DeleteProduct soft-deletes a catalog entry. Order items keep their frozen
// snapshot of the product, so history survives the deletion.
func (s *ProductService) DeleteProduct(actorID, productID uuid.UUID) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageProducts {
		return ErrPermissionDenied
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		return s.audit.Record(tx, &actorID, "product_deleted", "product", &productID,
			models.JSONB{"name": product.Name})
	})
	if err != nil {
		return err
	}

	s.revalidate.Paths("/", "/products", "/admin/products")
	return nil
}
