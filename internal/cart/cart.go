package cart

import "github.com/pesansayur/storefront/internal/domain"

// AddItem merges item into c. A line with the same product and variant keeps its
// own price, surcharge and note and only grows by item.Quantity.
func AddItem(c *domain.Cart, item domain.CartItem) {
	for i := range c.Items {
		if c.Items[i].Key() == item.Key() {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].Recompute()
			return
		}
	}
	item.Recompute()
	c.Items = append(c.Items, item)
}

// RemoveItem deletes the line for key. Missing lines are ignored.
func RemoveItem(c *domain.Cart, key domain.ItemKey) {
	items := c.Items[:0]
	for _, it := range c.Items {
		if it.Key() != key {
			items = append(items, it)
		}
	}
	c.Items = items
}

// UpdateQuantity sets the quantity of the line for key and reports whether the
// line exists.
func UpdateQuantity(c *domain.Cart, key domain.ItemKey, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			c.Items[i].Quantity = quantity
			c.Items[i].Recompute()
			return true
		}
	}
	return false
}

// Reorder replaces the lines with a copy of items. Subtotals are derived again
// and never taken from the input.
func Reorder(c *domain.Cart, items []domain.CartItem) {
	c.Items = make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		it.Recompute()
		c.Items = append(c.Items, it)
	}
}

func Clear(c *domain.Cart) {
	c.Items = nil
}
