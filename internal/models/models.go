package models

import "time"

type TableStatus string

const (
	TableAvailable     TableStatus = "available"
	TableOccupied      TableStatus = "occupied"
	TableBillRequested TableStatus = "bill_requested"
)

type Role string

const (
	RoleManager Role = "manager"
	RoleOwner   Role = "owner"
)

var StaffRoles = []string{string(RoleManager), string(RoleOwner)}

func (r Role) Valid() bool {
	return r == RoleManager || r == RoleOwner
}

type Category struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name        string     `gorm:"not null"                   json:"name"`
	Description string     `                                  json:"description"`
	Icon        string     `                                  json:"icon"`
	Items       []MenuItem `gorm:"foreignKey:CategoryID"      json:"items"`
}

type MenuItem struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"   json:"id"`
	CategoryID  uint   `gorm:"index"                      json:"category_id"`
	Name        string `gorm:"not null"                   json:"name"`
	Description string `                                  json:"description"`
	Price       int64  `gorm:"not null"                   json:"price"`
	ImageURL    string `                                  json:"image_url"`
	IsTopQuest  bool   `gorm:"default:false"              json:"is_top_quest"`
	IsSpicy     bool   `gorm:"default:false"              json:"is_spicy"`
}

type Table struct {
	ID     uint        `gorm:"primaryKey;autoIncrement"   json:"id"`
	Number int         `gorm:"uniqueIndex;not null"       json:"number"`
	Status TableStatus `gorm:"not null;default:available" json:"status"`
	QRCode string      `                                  json:"qr_code"`
}

type Order struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	TableID      uint        `gorm:"index;not null"           json:"table_id"`
	CustomerName string      `gorm:"not null"                 json:"customer_name"`
	Status       OrderStatus `gorm:"index;not null"           json:"status"`
	TotalAmount  int64       `gorm:"not null"                 json:"total_amount"`
	CreatedAt    time.Time   `gorm:"autoCreateTime"           json:"created_at"`
}

// OrderItem keeps the unit price the customer saw when ordering.
type OrderItem struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"   json:"id"`
	OrderID    uint   `gorm:"index;not null"             json:"order_id"`
	MenuItemID uint   `gorm:"not null"                   json:"menu_item_id"`
	Quantity   int    `gorm:"not null;check:quantity>0"  json:"quantity"`
	Notes      string `                                  json:"notes"`
	Price      int64  `gorm:"not null"                   json:"price"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         Role   `gorm:"not null"                 json:"role"`
}

// OrderDetail is an order joined with its table number and line items.
type OrderDetail struct {
	Order
	TableNumber int               `json:"table_number"`
	Items       []OrderItemDetail `json:"items"`
}

type OrderItemDetail struct {
	OrderItem
	Name string `json:"name"`
}

// NewItem is one line of an order being placed.
type NewItem struct {
	MenuItemID uint
	Quantity   int
	Notes      string
	Price      int64
}
