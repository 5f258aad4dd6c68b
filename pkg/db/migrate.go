package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/orbitdine/internal/models"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const seedTables = 10

type seedItem struct {
	category    string
	name        string
	description string
	price       int64
	imageURL    string
	topQuest    bool
	spicy       bool
}

var seedCategories = []models.Category{
	{Name: "Starters", Description: "Light bites to begin the journey", Icon: "utensils"},
	{Name: "Main Course", Description: "Hearty meals for the hungry traveller", Icon: "drumstick"},
	{Name: "Desserts", Description: "Sweet endings", Icon: "cake"},
	{Name: "Beverages", Description: "Drinks and refreshers", Icon: "glass"},
}

var seedItems = []seedItem{
	{"Starters", "Spicy Chicken Wings", "Crispy wings tossed in house hot sauce", 299, "/images/wings.jpg", false, true},
	{"Main Course", "Legendary Burger", "Double patty, cheddar, smoked onion jam", 349, "/images/burger.jpg", true, false},
	{"Main Course", "Orbit Pizza", "Wood-fired pizza with six toppings", 499, "/images/pizza.jpg", true, false},
	{"Desserts", "Galaxy Cake", "Layered chocolate cake with berry glaze", 199, "/images/cake.jpg", false, false},
	{"Beverages", "Nebula Mojito", "Mint, lime and butterfly pea", 149, "/images/mojito.jpg", false, false},
}

// Seed fills the catalog and tables 1..10 when they are empty.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Category{}).Count(&n).Error; err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if n == 0 {
			ids := make(map[string]uint, len(seedCategories))
			for _, c := range seedCategories {
				c := c
				if err := tx.Create(&c).Error; err != nil {
					return fmt.Errorf("seed category %s: %w", c.Name, err)
				}
				ids[c.Name] = c.ID
			}
			for _, it := range seedItems {
				mi := models.MenuItem{
					CategoryID:  ids[it.category],
					Name:        it.name,
					Description: it.description,
					Price:       it.price,
					ImageURL:    it.imageURL,
					IsTopQuest:  it.topQuest,
					IsSpicy:     it.spicy,
				}
				if err := tx.Create(&mi).Error; err != nil {
					return fmt.Errorf("seed item %s: %w", it.name, err)
				}
			}
		}

		if err := tx.Model(&models.Table{}).Count(&n).Error; err != nil {
			return fmt.Errorf("count tables: %w", err)
		}
		if n == 0 {
			tables := make([]models.Table, 0, seedTables)
			for i := 1; i <= seedTables; i++ {
				tables = append(tables, models.Table{
					Number: i,
					Status: models.TableAvailable,
					QRCode: fmt.Sprintf("table-%d", i),
				})
			}
			if err := tx.Create(&tables).Error; err != nil {
				return fmt.Errorf("seed tables: %w", err)
			}
		}
		return nil
	})
}
