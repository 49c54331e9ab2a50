package courier

import (
	"math"
)

// DefaultWeightGrams is the floor applied when items sum to a non-positive
// weight, and the substitute weight for products with no recorded weight.
const DefaultWeightGrams = 1000

// EffectiveWeightGrams resolves the chargeable weight of a quote or booking.
// The override, when positive, wins over the item sum and is floored at
// DefaultWeightGrams; an item sum with no positive weights falls back to
// DefaultWeightGrams. Both quoting and booking go through this function so
// the two paths cannot diverge.
func EffectiveWeightGrams(items []ShippingItem, overrideKg float64) int {
	if overrideKg > 0 {
		grams := int(math.Ceil(overrideKg * 1000))
		if grams < DefaultWeightGrams {
			return DefaultWeightGrams
		}
		return grams
	}
	total := 0
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if item.WeightGrams > 0 {
			total += item.WeightGrams * qty
		}
	}
	if total <= 0 {
		return DefaultWeightGrams
	}
	return total
}

// WeightKg converts integral grams to kilograms for display and persistence.
func WeightKg(grams int) float64 {
	return float64(grams) / 1000
}

// TotalDeclaredValue sums the declared value of all items.
func TotalDeclaredValue(items []ShippingItem) int64 {
	var total int64
	for _, item := range items {
		qty := int64(item.Quantity)
		if qty <= 0 {
			qty = 1
		}
		total += item.ValueMinorUnits * qty
	}
	return total
}
