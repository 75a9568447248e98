package products

import "strings"

// MaxSizesPerProduct caps how many distinct size labels a product may carry.
const MaxSizesPerProduct = 7

// SizeInput is a size entry as submitted by the client.
type SizeInput struct {
	Label    string
	Quantity int
}

// CombineSizes normalizes the size list for product creation. Labels are
// trimmed and must be non-empty, quantities must not be negative. Entries
// that repeat a label have their quantities summed into a single size. The
// returned total is the sum over all sizes.
func CombineSizes(inputs []SizeInput) ([]Size, int, error) {
	combined := make([]Size, 0, len(inputs))
	index := make(map[string]int, len(inputs))
	total := 0
	for _, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, 0, ErrEmptySizeLabel
		}
		if in.Quantity < 0 {
			return nil, 0, ErrNegativeSizeQuantity
		}
		if pos, ok := index[label]; ok {
			combined[pos].Quantity += in.Quantity
		} else {
			index[label] = len(combined)
			combined = append(combined, Size{Label: label, Quantity: in.Quantity})
		}
		total += in.Quantity
	}
	if len(combined) > MaxSizesPerProduct {
		return nil, 0, ErrTooManySizes
	}
	return combined, total, nil
}

// MergeSizes applies an update payload over the existing size list. Inputs
// whose label matches an existing size overwrite that size's quantity;
// unmatched inputs become new sizes. Existing sizes the payload omits are
// kept untouched. Unlike CombineSizes, a label repeated in the payload is
// not summed: the last entry wins. The returned total covers the merged set.
func MergeSizes(existing []Size, inputs []SizeInput) ([]Size, int, error) {
	merged := make([]Size, len(existing))
	copy(merged, existing)
	index := make(map[string]int, len(merged))
	for i, s := range merged {
		index[s.Label] = i
	}

	for _, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, 0, ErrEmptySizeLabel
		}
		if in.Quantity < 0 {
			return nil, 0, ErrNegativeSizeQuantity
		}
		if pos, ok := index[label]; ok {
			merged[pos].Quantity = in.Quantity
		} else {
			index[label] = len(merged)
			merged = append(merged, Size{Label: label, Quantity: in.Quantity})
		}
	}
	if len(merged) > MaxSizesPerProduct {
		return nil, 0, ErrTooManySizes
	}

	total := 0
	for _, s := range merged {
		total += s.Quantity
	}
	return merged, total, nil
}
