package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bistrogest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

const batchSize = 100

// Store exposes the collection primitives the POS core needs: add/put one record,
// bulk add, clear/replace a collection, ordered listing and keyed metadata.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a store bound to one database transaction.
// Any error returned by fn rolls every write back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ---- products ----

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return models.Product{}, notFound(err)
	}
	return p, nil
}

func (s *Store) PutProduct(ctx context.Context, p models.Product) error {
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return fmt.Errorf("put product %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) BulkAddProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&products, batchSize).Error; err != nil {
		return fmt.Errorf("bulk add products: %w", err)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceProducts clears the collection and inserts the given records.
func (s *Store) ReplaceProducts(ctx context.Context, products []models.Product) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.clear(ctx, &models.Product{}); err != nil {
			return err
		}
		return tx.BulkAddProducts(ctx, products)
	})
}

// DecrementStock lowers a product's stock only if enough is on hand.
// It reports false, without writing, when stock < qty or the product is unknown.
func (s *Store) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("decrement stock %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ---- sales ----

func (s *Store) AddSale(ctx context.Context, sale models.Sale) error {
	if err := s.db.WithContext(ctx).Create(&sale).Error; err != nil {
		return fmt.Errorf("add sale %s: %w", sale.OrderNumber, err)
	}
	return nil
}

// ListSales returns sales newest first.
func (s *Store) ListSales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	if err := s.db.WithContext(ctx).Order("timestamp desc").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

func (s *Store) CountSales(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Sale{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}

func (s *Store) ReplaceSales(ctx context.Context, sales []models.Sale) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.clear(ctx, &models.Sale{}); err != nil {
			return err
		}
		if len(sales) == 0 {
			return nil
		}
		return tx.db.WithContext(ctx).CreateInBatches(&sales, batchSize).Error
	})
}

// ---- pending orders ----

func (s *Store) AddPendingOrder(ctx context.Context, order models.PendingOrder) error {
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return fmt.Errorf("add pending order: %w", err)
	}
	return nil
}

// ListPendingOrders returns the queue oldest first.
func (s *Store) ListPendingOrders(ctx context.Context) ([]models.PendingOrder, error) {
	var orders []models.PendingOrder
	if err := s.db.WithContext(ctx).Order("timestamp asc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	return orders, nil
}

func (s *Store) DeletePendingOrder(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.PendingOrder{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete pending order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ReplacePendingOrders(ctx context.Context, orders []models.PendingOrder) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.clear(ctx, &models.PendingOrder{}); err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}
		return tx.db.WithContext(ctx).CreateInBatches(&orders, batchSize).Error
	})
}

// ---- staff ----

func (s *Store) ListStaff(ctx context.Context) ([]models.StaffMember, error) {
	var staff []models.StaffMember
	if err := s.db.WithContext(ctx).Order("name asc").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// FindStaffByUsername matches the username case-insensitively.
func (s *Store) FindStaffByUsername(ctx context.Context, username string) (models.StaffMember, error) {
	var m models.StaffMember
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&m).Error
	if err != nil {
		return models.StaffMember{}, notFound(err)
	}
	return m, nil
}

func (s *Store) PutStaff(ctx context.Context, m models.StaffMember) error {
	if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("put staff %s: %w", m.Username, err)
	}
	return nil
}

func (s *Store) ReplaceStaff(ctx context.Context, staff []models.StaffMember) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.clear(ctx, &models.StaffMember{}); err != nil {
			return err
		}
		if len(staff) == 0 {
			return nil
		}
		return tx.db.WithContext(ctx).CreateInBatches(&staff, batchSize).Error
	})
}

// ---- metadata ----

// GetMetadata decodes the value stored under key into out.
func (s *Store) GetMetadata(ctx context.Context, key string, out any) error {
	var m models.Metadata
	if err := s.db.WithContext(ctx).Where(&models.Metadata{Key: key}).First(&m).Error; err != nil {
		return notFound(err)
	}
	if err := json.Unmarshal(m.Value, out); err != nil {
		return fmt.Errorf("decode metadata %s: %w", key, err)
	}
	return nil
}

func (s *Store) PutMetadata(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", key, err)
	}
	if err := s.db.WithContext(ctx).Save(&models.Metadata{Key: key, Value: b}).Error; err != nil {
		return fmt.Errorf("put metadata %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListMetadata(ctx context.Context) ([]models.Metadata, error) {
	var entries []models.Metadata
	order := clause.OrderByColumn{Column: clause.Column{Name: "key"}}
	if err := s.db.WithContext(ctx).Order(order).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	return entries, nil
}

func (s *Store) ReplaceMetadata(ctx context.Context, entries []models.Metadata) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.clear(ctx, &models.Metadata{}); err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.db.WithContext(ctx).CreateInBatches(&entries, batchSize).Error
	})
}

// Dataset is every collection the backup bundle carries.
type Dataset struct {
	Products      []models.Product      `json:"products"`
	Sales         []models.Sale         `json:"sales"`
	Staff         []models.StaffMember  `json:"staff"`
	PendingOrders []models.PendingOrder `json:"pendingOrders"`
	Metadata      []models.Metadata     `json:"metadata"`
}

// LoadAll reads every collection.
func (s *Store) LoadAll(ctx context.Context) (Dataset, error) {
	var d Dataset
	var err error
	if d.Products, err = s.ListProducts(ctx); err != nil {
		return d, err
	}
	if d.Sales, err = s.ListSales(ctx); err != nil {
		return d, err
	}
	if d.Staff, err = s.ListStaff(ctx); err != nil {
		return d, err
	}
	if d.PendingOrders, err = s.ListPendingOrders(ctx); err != nil {
		return d, err
	}
	if d.Metadata, err = s.ListMetadata(ctx); err != nil {
		return d, err
	}
	return d, nil
}

// ReplaceAll swaps every collection and the metadata table at once. Nothing is kept on error.
func (s *Store) ReplaceAll(ctx context.Context, d Dataset) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.ReplaceProducts(ctx, d.Products); err != nil {
			return err
		}
		if err := tx.ReplaceSales(ctx, d.Sales); err != nil {
			return err
		}
		if err := tx.ReplaceStaff(ctx, d.Staff); err != nil {
			return err
		}
		if err := tx.ReplacePendingOrders(ctx, d.PendingOrders); err != nil {
			return err
		}
		return tx.ReplaceMetadata(ctx, d.Metadata)
	})
}

// ---- stock movements ----

func (s *Store) AddStockMovement(ctx context.Context, m models.StockMovement) error {
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("add stock movement: %w", err)
	}
	return nil
}

// ListStockMovements returns movements newest first, optionally for one product.
func (s *Store) ListStockMovements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if productID != "" {
		q = q.Where("product_id = ?", productID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var movements []models.StockMovement
	if err := q.Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return movements, nil
}

func (s *Store) clear(ctx context.Context, model any) error {
	if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
		return fmt.Errorf("clear %T: %w", model, err)
	}
	return nil
}
