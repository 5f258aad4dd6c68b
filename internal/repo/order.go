package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/orbitdine/internal/models"
)

type orderRow struct {
	models.Order
	TableNumber int
}

// CreateOrder inserts the order, its items and marks the table occupied in one transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, tableID uint, customerName string, total int64, items []models.NewItem) (uint, error) {
	var orderID uint
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.Select("id").First(&table, tableID).Error; err != nil {
			return fmt.Errorf("table %d: %w", tableID, notFound(err))
		}

		order := models.Order{
			TableID:      tableID,
			CustomerName: customerName,
			Status:       models.StatusNew,
			TotalAmount:  total,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if order.ID == 0 {
			return ErrNoID
		}

		if len(items) > 0 {
			rows := make([]models.OrderItem, 0, len(items))
			for _, it := range items {
				rows = append(rows, models.OrderItem{
					OrderID:    order.ID,
					MenuItemID: it.MenuItemID,
					Quantity:   it.Quantity,
					Notes:      it.Notes,
					Price:      it.Price,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert order items: %w", err)
			}
		}

		if err := tx.Model(&models.Table{}).Where("id = ?", tableID).
			Update("status", models.TableOccupied).Error; err != nil {
			return fmt.Errorf("occupy table: %w", err)
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *GormRepo) FindOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.OrderDetail, error) {
	var rows []orderRow
	if err := r.orderQuery(ctx).Where("orders.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	details, err := r.attachItems(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ListActiveOrders returns every non-completed order, newest first.
func (r *GormRepo) ListActiveOrders(ctx context.Context) ([]models.OrderDetail, error) {
	var rows []orderRow
	if err := r.orderQuery(ctx).
		Where("orders.status <> ?", models.StatusCompleted).
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return r.attachItems(ctx, rows)
}

func (r *GormRepo) orderQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("orders").
		Select("orders.*, COALESCE(tables.number, 0) AS table_number").
		Joins("LEFT JOIN tables ON tables.id = orders.table_id")
}

// attachItems loads the items of all rows with a single query.
func (r *GormRepo) attachItems(ctx context.Context, rows []orderRow) ([]models.OrderDetail, error) {
	out := make([]models.OrderDetail, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var items []models.OrderItemDetail
	if err := r.DB.WithContext(ctx).
		Table("order_items").
		Select("order_items.*, COALESCE(menu_items.name, '') AS name").
		Joins("LEFT JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("order_items.order_id IN ?", ids).
		Order("order_items.id").
		Scan(&items).Error; err != nil {
		return nil, err
	}

	byOrder := make(map[uint][]models.OrderItemDetail, len(rows))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	for _, row := range rows {
		its := byOrder[row.ID]
		if its == nil {
			its = []models.OrderItemDetail{}
		}
		out = append(out, models.OrderDetail{
			Order:       row.Order,
			TableNumber: row.TableNumber,
			Items:       its,
		})
	}
	return out, nil
}

func (r *GormRepo) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteOrder marks the order completed and frees its table when nothing else is active there.
func (r *GormRepo) CompleteOrder(ctx context.Context, id uint) (released bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Select("id", "table_id").First(&o, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", id).
			Update("status", models.StatusCompleted).Error; err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status <> ?", o.TableID, models.StatusCompleted).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return nil
		}

		res := tx.Model(&models.Table{}).
			Where("id = ? AND status = ?", o.TableID, models.TableOccupied).
			Update("status", models.TableAvailable)
		if res.Error != nil {
			return res.Error
		}
		released = res.RowsAffected > 0
		return nil
	})
	return released, err
}

func (r *GormRepo) CountActiveOrdersForTable(ctx context.Context, tableID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("table_id = ? AND status <> ?", tableID, models.StatusCompleted).
		Count(&n).Error
	return n, err
}
