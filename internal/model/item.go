package model

import "strings"

// Placeholder and fallback presentation values for cart items.
const (
	PlaceholderName = "Reading Label..."
	PlaceholderIcon = "fa-spinner fa-spin"

	ManualName = "Item"
	ManualIcon = "fa-pen"

	UnknownName = "Unknown Item"
	DefaultIcon = "fa-box"

	FallbackName = "Manual Check Required"
	FallbackIcon = "fa-pen-to-square"

	UnreadableName = "Couldn't Read Text"
)

// Item is a single line in a shopper's cart.
type Item struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Price        Money  `json:"price"`
	Icon         string `json:"icon"`
	IsProcessing bool   `json:"isProcessing"`
}

// Identification is the result of identifying a scanned product.
type Identification struct {
	Name  string `json:"name"`
	Price Money  `json:"price"`
	Icon  string `json:"icon"`
}

// Normalize fills in display defaults so the identification can be shown as is.
func (i Identification) Normalize() Identification {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		i.Name = UnknownName
	}
	i.Icon = strings.TrimSpace(i.Icon)
	if i.Icon == "" {
		i.Icon = DefaultIcon
	}
	i.Price = NewMoney(i.Price.Decimal)
	return i
}

// FallbackIdentification is returned whenever identification cannot complete.
func FallbackIdentification() Identification {
	return Identification{
		Name:  FallbackName,
		Price: ZeroMoney,
		Icon:  FallbackIcon,
	}
}

// MockIdentification is returned when no oracle credential is configured.
func MockIdentification() Identification {
	return Identification{
		Name:  "Mock Item (No Key)",
		Price: MoneyFromFloat(5.99),
		Icon:  DefaultIcon,
	}
}
