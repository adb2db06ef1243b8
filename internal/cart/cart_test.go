package cart

import (
	"math/rand"
	"sync"
	"testing"

	"recibo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedTotal recomputes the cart total from scratch.
func expectedTotal(items []model.Item) model.Money {
	total := model.ZeroMoney
	for _, item := range items {
		if !item.IsProcessing {
			total = total.Add(item.Price)
		}
	}
	return total
}

func TestCart_AddScanned(t *testing.T) {
	c := New()

	id := c.AddScanned(model.Item{Price: model.ParseMoney("9.99")})

	item, ok := c.Get(id)
	require.True(t, ok)
	assert.True(t, item.IsProcessing)
	assert.Equal(t, model.PlaceholderName, item.Name)
	assert.Equal(t, model.PlaceholderIcon, item.Icon)
	assert.True(t, c.Total().Equal(model.ZeroMoney), "pending items contribute nothing")
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, 1, c.Pending())
}

func TestCart_Resolve(t *testing.T) {
	c := New()
	id := c.AddScanned(model.Item{})

	ok := c.Resolve(id, model.Identification{Name: "Milk", Price: model.ParseMoney("3.00"), Icon: "fa-bottle"})

	require.True(t, ok)
	item, _ := c.Get(id)
	assert.False(t, item.IsProcessing)
	assert.Equal(t, "Milk", item.Name)
	assert.Equal(t, "fa-bottle", item.Icon)
	assert.True(t, c.Total().Equal(model.ParseMoney("3.00")))
	assert.Equal(t, 0, c.Pending())
}

func TestCart_Resolve_LastWriteWins(t *testing.T) {
	c := New()
	id := c.AddScanned(model.Item{})

	require.True(t, c.Resolve(id, model.Identification{Name: "First", Price: model.ParseMoney("1.00")}))
	require.True(t, c.Resolve(id, model.Identification{Name: "Second", Price: model.ParseMoney("2.00")}))

	item, _ := c.Get(id)
	assert.Equal(t, "Second", item.Name)
	assert.True(t, item.Price.Equal(model.ParseMoney("2.00")))
	assert.Equal(t, 1, c.Count())
}

func TestCart_Resolve_UnknownIDIsNoop(t *testing.T) {
	c := New()
	c.AddManual("Bread", model.ParseMoney("2.50"))
	before := c.Snapshot()

	assert.False(t, c.Resolve(999, model.Identification{Name: "Ghost"}))
	assert.Equal(t, before, c.Snapshot())
}

func TestCart_Resolve_Fallback(t *testing.T) {
	c := New()
	id := c.AddScanned(model.Item{})

	c.Resolve(id, model.FallbackIdentification())

	item, _ := c.Get(id)
	assert.False(t, item.IsProcessing)
	assert.Equal(t, model.FallbackName, item.Name)
	assert.True(t, item.Price.Equal(model.ZeroMoney))
}

func TestCart_AddManual(t *testing.T) {
	tests := []struct {
		name         string
		inputName    string
		inputPrice   model.Money
		expectedName string
		expectedCost string
	}{
		{name: "Named item", inputName: "Eggs", inputPrice: model.ParseMoney("4.20"), expectedName: "Eggs", expectedCost: "4.20"},
		{name: "Blank name defaults", inputName: "  ", inputPrice: model.ParseMoney("1"), expectedName: model.ManualName, expectedCost: "1.00"},
		{name: "Non-numeric price coerces to zero", inputName: "Gum", inputPrice: model.ParseMoney("n/a"), expectedName: "Gum", expectedCost: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			id := c.AddManual(tt.inputName, tt.inputPrice)

			item, ok := c.Get(id)
			require.True(t, ok)
			assert.Equal(t, tt.expectedName, item.Name)
			assert.Equal(t, tt.expectedCost, item.Price.String())
			assert.Equal(t, model.ManualIcon, item.Icon)
			assert.False(t, item.IsProcessing)
		})
	}
}

func TestCart_EditAndRemove(t *testing.T) {
	c := New()
	id := c.AddManual("Apples", model.ParseMoney("1.00"))

	assert.True(t, c.Edit(id, "Green Apples", model.ParseMoney("1.50")))
	item, _ := c.Get(id)
	assert.Equal(t, "Green Apples", item.Name)
	assert.Equal(t, "1.50", c.Total().String())

	assert.False(t, c.Edit(42, "Nope", model.ZeroMoney))

	assert.True(t, c.Remove(id))
	assert.False(t, c.Remove(id))
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, "0.00", c.Total().String())
}

func TestCart_DisplayOrder(t *testing.T) {
	c := New()
	first := c.AddManual("First", model.ZeroMoney)
	second := c.AddScanned(model.Item{})
	third := c.AddManual("Third", model.ZeroMoney)

	assert.Less(t, first, second)
	assert.Less(t, second, third)

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, third, items[0].ID)
	assert.Equal(t, second, items[1].ID)
	assert.Equal(t, first, items[2].ID)

	snapshot := c.Snapshot()
	assert.Equal(t, first, snapshot[0].ID)
}

func TestCart_ResetKeepsIDsMonotonic(t *testing.T) {
	c := New()
	stale := c.AddScanned(model.Item{})

	c.Reset()
	assert.Equal(t, 0, c.Count())

	fresh := c.AddScanned(model.Item{})
	assert.Greater(t, fresh, stale)

	// A late result for the item of the previous run is dropped.
	assert.False(t, c.Resolve(stale, model.Identification{Name: "Late"}))
	item, _ := c.Get(fresh)
	assert.True(t, item.IsProcessing)
}

func TestCart_TotalInvariant_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := New()
	var ids []int64

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(5); op {
		case 0:
			ids = append(ids, c.AddScanned(model.Item{}))
		case 1:
			ids = append(ids, c.AddManual("Manual", model.MoneyFromFloat(float64(rng.Intn(1000))/100)))
		case 2:
			if len(ids) > 0 {
				c.Resolve(ids[rng.Intn(len(ids))], model.Identification{Name: "Resolved", Price: model.MoneyFromFloat(float64(rng.Intn(500)) / 100)})
			}
		case 3:
			if len(ids) > 0 {
				c.Edit(ids[rng.Intn(len(ids))], "Edited", model.MoneyFromFloat(float64(rng.Intn(800))/100))
			}
		case 4:
			if len(ids) > 0 {
				c.Remove(ids[rng.Intn(len(ids))])
			}
		}

		snapshot := c.Snapshot()
		require.True(t, expectedTotal(snapshot).Equal(c.Total()), "total invariant broken at step %d", step)
		require.Equal(t, len(snapshot), c.Count())
	}
}

func TestCart_ConcurrentResolutions(t *testing.T) {
	c := New()

	const n = 50
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = c.AddScanned(model.Item{})
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c.Resolve(id, model.Identification{Name: "Item", Price: model.ParseMoney("1.00")})
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, n, c.Count())
	assert.Equal(t, "50.00", c.Total().String())
}
