package domain

import "time"

type CartItem struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	UnitPrice int64  `bson:"unit_price" json:"unit_price"`
	Photo     string `bson:"photo,omitempty" json:"photo,omitempty"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	Variant   string `bson:"variant,omitempty" json:"variant,omitempty"`
	Surcharge int64  `bson:"surcharge,omitempty" json:"surcharge,omitempty"`
	Note      string `bson:"note,omitempty" json:"note,omitempty"`
	Subtotal  int64  `bson:"subtotal" json:"subtotal"`
}

// ItemKey identifies a cart line. A cart holds at most one line per key.
type ItemKey struct {
	ProductID string
	Variant   string
}

func (i CartItem) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, Variant: i.Variant}
}

// FinalPrice is the unit price including the variant surcharge.
func (i CartItem) FinalPrice() int64 {
	return i.UnitPrice + i.Surcharge
}

// Recompute derives Subtotal from price, surcharge and quantity.
func (i *CartItem) Recompute() {
	i.Subtotal = i.FinalPrice() * int64(i.Quantity)
}

type Cart struct {
	SessionID string     `bson:"session_id" json:"session_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy, so callers can mutate without touching the original.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
