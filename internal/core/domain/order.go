package domain

import "time"

// OrderItemRequest is a single line of an incoming order.
type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

// OrderItem is a persisted order line. UnitPrice is the product's price
// frozen at the moment the order was placed; later price changes never
// affect it.
type OrderItem struct {
	ProductID int64
	Quantity  int
	UnitPrice int64
}

type Order struct {
	ID        string
	Total     int64 // minor currency units, equals the sum of item subtotals
	Items     []OrderItem
	CreatedAt time.Time
}

// OrderReceipt is what a successful placement returns to the caller.
type OrderReceipt struct {
	ID    string
	Total int64
}
