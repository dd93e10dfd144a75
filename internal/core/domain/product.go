package domain

import "time"

type Product struct {
	ID          int64
	Name        string
	Description string
	UnitPrice   int64 // minor currency units (cents)
	Stock       int
	CreatedAt   time.Time
}

// ProductPatch carries a partial update. Nil fields keep their current value.
type ProductPatch struct {
	Name        *string
	Description *string
	UnitPrice   *int64
	Stock       *int
}
