package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/orbitdine/internal/models"
)

func (r *GormRepo) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var t models.Table
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *GormRepo) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := r.DB.WithContext(ctx).Order("number").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *GormRepo) SetTableStatus(ctx context.Context, id uint, status models.TableStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Table{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ListMenu(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&cats).Error
	if err != nil {
		return nil, err
	}
	return cats, nil
}
