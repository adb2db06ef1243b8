// Package cart holds the in-memory item collection of one shopping session.
//
// Readers never lock: every mutation builds a new immutable snapshot and
// publishes it with a single atomic store. Writers are serialised so that
// concurrent resolutions for different items cannot lose each other's update.
package cart

import (
	"strings"
	"sync"
	"sync/atomic"

	"recibo/internal/model"
)

// snapshot is an immutable view of the cart in insertion order.
type snapshot struct {
	items []model.Item
}

// Cart is an ordered collection of items keyed by a monotonic id.
type Cart struct {
	mu     sync.Mutex
	state  atomic.Pointer[snapshot]
	nextID int64
}

// New creates an empty cart.
func New() *Cart {
	c := &Cart{}
	c.state.Store(&snapshot{})
	return c
}

// AddScanned inserts a placeholder for an item whose identification is still
// in flight and returns its id. Name and icon default to the placeholder
// values; the price is ignored until the item is resolved.
func (c *Cart) AddScanned(partial model.Item) int64 {
	item := model.Item{
		Name:         strings.TrimSpace(partial.Name),
		Price:        model.ZeroMoney,
		Icon:         strings.TrimSpace(partial.Icon),
		IsProcessing: true,
	}
	if item.Name == "" {
		item.Name = model.PlaceholderName
	}
	if item.Icon == "" {
		item.Icon = model.PlaceholderIcon
	}
	return c.insert(item)
}

// AddManual inserts a fully specified item and returns its id.
func (c *Cart) AddManual(name string, price model.Money) int64 {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.ManualName
	}
	return c.insert(model.Item{
		Name:  name,
		Price: model.NewMoney(price.Decimal),
		Icon:  model.ManualIcon,
	})
}

// Resolve replaces the fields of item id with the identification result and
// clears its processing flag. Resolving an id that no longer exists is a
// no-op and reports false.
func (c *Cart) Resolve(id int64, result model.Identification) bool {
	result = result.Normalize()
	return c.update(id, func(item *model.Item) {
		item.Name = result.Name
		item.Price = result.Price
		item.Icon = result.Icon
		item.IsProcessing = false
	})
}

// Edit changes the name and price of an existing item.
func (c *Cart) Edit(id int64, name string, price model.Money) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		name = model.ManualName
	}
	return c.update(id, func(item *model.Item) {
		item.Name = name
		item.Price = model.NewMoney(price.Decimal)
	})
}

// Remove deletes an item. It reports false when the id is unknown.
func (c *Cart) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state.Load().items
	next := make([]model.Item, 0, len(current))
	found := false
	for _, item := range current {
		if item.ID == id {
			found = true
			continue
		}
		next = append(next, item)
	}
	if !found {
		return false
	}

	c.state.Store(&snapshot{items: next})
	return true
}

// Reset empties the cart. Ids keep increasing so that late resolutions for
// items of the previous run can never land on a new item.
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Store(&snapshot{})
}

// Get returns a copy of the item with the given id.
func (c *Cart) Get(id int64) (model.Item, bool) {
	for _, item := range c.state.Load().items {
		if item.ID == id {
			return item, true
		}
	}
	return model.Item{}, false
}

// Items returns the items in display order, most recently added first.
func (c *Cart) Items() []model.Item {
	current := c.state.Load().items
	out := make([]model.Item, len(current))
	for i, item := range current {
		out[len(current)-1-i] = item
	}
	return out
}

// Snapshot returns the items in insertion order.
func (c *Cart) Snapshot() []model.Item {
	current := c.state.Load().items
	out := make([]model.Item, len(current))
	copy(out, current)
	return out
}

// Total sums the price of every item that is not awaiting identification.
func (c *Cart) Total() model.Money {
	return Total(c.state.Load().items)
}

// Count returns the number of items in the cart.
func (c *Cart) Count() int {
	return len(c.state.Load().items)
}

// Pending returns the number of items still awaiting identification.
func (c *Cart) Pending() int {
	n := 0
	for _, item := range c.state.Load().items {
		if item.IsProcessing {
			n++
		}
	}
	return n
}

// Total sums the price of the settled items in items.
func Total(items []model.Item) model.Money {
	total := model.ZeroMoney
	for _, item := range items {
		if item.IsProcessing {
			continue
		}
		total = total.Add(item.Price)
	}
	return total
}

func (c *Cart) insert(item model.Item) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	item.ID = c.nextID

	current := c.state.Load().items
	next := make([]model.Item, len(current), len(current)+1)
	copy(next, current)
	next = append(next, item)

	c.state.Store(&snapshot{items: next})
	return item.ID
}

func (c *Cart) update(id int64, mutate func(*model.Item)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state.Load().items
	for i := range current {
		if current[i].ID != id {
			continue
		}
		next := make([]model.Item, len(current))
		copy(next, current)
		mutate(&next[i])
		c.state.Store(&snapshot{items: next})
		return true
	}
	return false
}
