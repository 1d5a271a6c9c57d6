package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further order-status transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return true
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "PICKUP"
	DeliveryDelivery DeliveryMethod = "DELIVERY"
	DeliveryDineIn   DeliveryMethod = "DINE_IN"
)

func (m DeliveryMethod) String() string {
	return string(m)
}

func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryPickup, DeliveryDelivery, DeliveryDineIn:
		return true
	}
	return false
}

// Item is one order line. Exactly one of ProductID/ComboID is set. UnitPrice
// and Name are snapshots taken from the catalog at creation time; later catalog
// changes never touch them.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID *int64          `json:"product_id,omitempty"`
	ComboID   *int64          `json:"combo_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is one customer transaction. Total always equals the sum of item
// subtotals. CashShiftID is the shift that was open at creation and is never
// updated afterwards. Orders are never deleted; cancellation is a terminal
// status.
type Order struct {
	ID             int64           `json:"id"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	CustomerName   *string         `json:"customer_name,omitempty"`
	OrderStatus    Status          `json:"order_status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method"`
	AddressID      *int64          `json:"address_id,omitempty"`
	ManualAddress  *string         `json:"manual_address,omitempty"`
	Note           *string         `json:"note,omitempty"`
	Items          []Item          `json:"items"`
	Total          decimal.Decimal `json:"total"`
	CashShiftID    int64           `json:"cash_shift_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SumItems recomputes the order total from its items without rounding
// intermediate values.
func SumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}
