package game

import "strings"

// Item is a stack of identical objects in a player's inventory
type Item struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// Inventory is the ordered sequence of items a player carries.
// Mutations are append and remove only; order is insertion order.
type Inventory []Item

// Add merges quantity into an existing stack (matched case-insensitively)
// or appends a new item at the end.
func (inv Inventory) Add(item Item) Inventory {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	for i := range inv {
		if strings.EqualFold(inv[i].Name, item.Name) {
			inv[i].Quantity += item.Quantity
			if item.Description != "" {
				inv[i].Description = item.Description
			}
			return inv
		}
	}
	return append(inv, item)
}

// Remove takes quantity from the named stack, dropping the stack when it
// empties. Removing more than is held clears the stack; removing an item
// that is not held is a no-op.
func (inv Inventory) Remove(name string, quantity int) Inventory {
	if quantity <= 0 {
		quantity = 1
	}
	for i := range inv {
		if strings.EqualFold(inv[i].Name, name) {
			inv[i].Quantity -= quantity
			if inv[i].Quantity <= 0 {
				return append(inv[:i:i], inv[i+1:]...)
			}
			return inv
		}
	}
	return inv
}
