package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCOD
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// TrackingSteps is the forward path an order moves along.
var TrackingSteps = []OrderStatus{OrderPending, OrderConfirmed, OrderShipped, OrderDelivered}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Step returns the index of s in TrackingSteps, or -1 for cancelled orders.
func (s OrderStatus) Step() int {
	for i, step := range TrackingSteps {
		if step == s {
			return i
		}
	}
	return -1
}

type ShippingAddress struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

// Order totals are computed once at creation and never re-derived from Items.
type Order struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Items            []LineItem      `json:"items"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	OrderStatus      OrderStatus     `json:"order_status"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	Total            decimal.Decimal `json:"total"`
	GatewayOrderID   string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type LineItem struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

/*
Mysql Table

CREATE TABLE orders (
	id CHAR(36) PRIMARY KEY,
	user_id CHAR(36) NOT NULL,
	shipping_address JSON NOT NULL,
	payment_method VARCHAR(10) NOT NULL,
	payment_status VARCHAR(10) NOT NULL,
	order_status VARCHAR(20) NOT NULL,
	subtotal DECIMAL(12,2) NOT NULL,
	shipping_cost DECIMAL(12,2) NOT NULL,
	total DECIMAL(12,2) NOT NULL,
	gateway_order_id VARCHAR(64) NOT NULL DEFAULT '',
	gateway_payment_id VARCHAR(64) NOT NULL DEFAULT '',
	...
);

CREATE TABLE order_items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id CHAR(36) NOT NULL REFERENCES orders(id),
	product_id CHAR(36) NOT NULL,
	product_name VARCHAR(255) NOT NULL,
	product_image VARCHAR(1024) NOT NULL,
	price DECIMAL(12,2) NOT NULL,
	quantity INT NOT NULL
);

*/
