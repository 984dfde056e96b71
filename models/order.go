package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses. Transitions are one-way: pending -> served.
const (
	OrderStatusPending = "pending"
	OrderStatusServed  = "served"
)

// Order represents a placed order (a "token") in the queue.
// TokenNumber and SessionID are stamped at creation from the session counter
// and never change afterwards, even when the admin resets the counter.
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	StudentID   uint           `gorm:"not null;index" json:"student_id"` // foreign key to users table
	Student     User           `gorm:"foreignKey:StudentID" json:"student"`
	TokenNumber int            `gorm:"not null" json:"token_number"`
	SessionID   string         `gorm:"not null;index" json:"session_id"`
	Status      string         `gorm:"not null;default:'pending'" json:"status"` // pending, served
	Items       []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Total returns the order total in rupees.
func (o *Order) Total() int {
	total := 0
	for _, item := range o.Items {
		total += item.Price * item.Qty
	}
	return total
}

// OrderItem is a single line of an order. Name and price are copied from the
// menu at ordering time so later menu edits don't rewrite order history.
type OrderItem struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OrderID uint   `gorm:"not null;index" json:"order_id"`
	Name    string `gorm:"not null" json:"name"`
	Qty     int    `gorm:"not null;check:qty > 0" json:"qty"`
	Price   int    `gorm:"not null;check:price >= 0" json:"price"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
