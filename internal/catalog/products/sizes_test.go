package products_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitrine-pos/vitrine-pos/internal/catalog/products"
	_ "github.com/vitrine-pos/vitrine-pos/testing"
)

func TestCombineSizesSumsDuplicateLabels(t *testing.T) {
	sizes, total, err := products.CombineSizes([]products.SizeInput{
		{Label: "P", Quantity: 3},
		{Label: "M", Quantity: 2},
		{Label: " P ", Quantity: 4},
	})
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	require.Equal(t, "P", sizes[0].Label)
	require.Equal(t, 7, sizes[0].Quantity)
	require.Equal(t, "M", sizes[1].Label)
	require.Equal(t, 2, sizes[1].Quantity)
	require.Equal(t, 9, total)
}

func TestCombineSizesRejectsEmptyLabel(t *testing.T) {
	_, _, err := products.CombineSizes([]products.SizeInput{{Label: "   ", Quantity: 1}})
	require.ErrorIs(t, err, products.ErrEmptySizeLabel)
}

func TestCombineSizesRejectsNegativeQuantity(t *testing.T) {
	_, _, err := products.CombineSizes([]products.SizeInput{{Label: "P", Quantity: -1}})
	require.ErrorIs(t, err, products.ErrNegativeSizeQuantity)
}

func TestCombineSizesCapsDistinctLabels(t *testing.T) {
	inputs := []products.SizeInput{
		{Label: "PP", Quantity: 1}, {Label: "P", Quantity: 1}, {Label: "M", Quantity: 1},
		{Label: "G", Quantity: 1}, {Label: "GG", Quantity: 1}, {Label: "XG", Quantity: 1},
		{Label: "XXG", Quantity: 1}, {Label: "U", Quantity: 1},
	}
	_, _, err := products.CombineSizes(inputs)
	require.ErrorIs(t, err, products.ErrTooManySizes)
}

func TestCombineSizesAllowsExactlySevenLabels(t *testing.T) {
	inputs := []products.SizeInput{
		{Label: "PP", Quantity: 1}, {Label: "P", Quantity: 1}, {Label: "M", Quantity: 1},
		{Label: "G", Quantity: 1}, {Label: "GG", Quantity: 1}, {Label: "XG", Quantity: 1},
		{Label: "XXG", Quantity: 1},
	}
	sizes, total, err := products.CombineSizes(inputs)
	require.NoError(t, err)
	require.Len(t, sizes, 7)
	require.Equal(t, 7, total)
}

func TestCombineSizesAllowsZeroQuantity(t *testing.T) {
	sizes, total, err := products.CombineSizes([]products.SizeInput{{Label: "P", Quantity: 0}})
	require.NoError(t, err)
	require.Len(t, sizes, 1)
	require.Zero(t, total)
}

func TestMergeSizesOverwritesMatchedLabels(t *testing.T) {
	existing := []products.Size{
		{ID: "s1", Label: "P", Quantity: 5},
		{ID: "s2", Label: "M", Quantity: 3},
	}
	merged, total, err := products.MergeSizes(existing, []products.SizeInput{
		{Label: "P", Quantity: 10},
		{Label: "G", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, merged, 3)
	require.Equal(t, 10, merged[0].Quantity)
	require.Equal(t, "s1", merged[0].ID)
	require.Equal(t, 3, merged[1].Quantity)
	require.Equal(t, "G", merged[2].Label)
	require.Equal(t, 15, total)
}

func TestMergeSizesKeepsOmittedSizes(t *testing.T) {
	existing := []products.Size{{ID: "s1", Label: "P", Quantity: 5}}
	merged, total, err := products.MergeSizes(existing, nil)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Equal(t, 5, total)
}

func TestMergeSizesLastDuplicateWins(t *testing.T) {
	merged, total, err := products.MergeSizes(nil, []products.SizeInput{
		{Label: "P", Quantity: 3},
		{Label: "P", Quantity: 8},
	})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Equal(t, 8, merged[0].Quantity)
	require.Equal(t, 8, total)
}

func TestMergeSizesAllowsUnionOfExactlySeven(t *testing.T) {
	existing := []products.Size{
		{Label: "PP", Quantity: 1}, {Label: "P", Quantity: 1}, {Label: "M", Quantity: 1},
		{Label: "G", Quantity: 1}, {Label: "GG", Quantity: 1}, {Label: "XG", Quantity: 1},
	}
	merged, total, err := products.MergeSizes(existing, []products.SizeInput{{Label: "U", Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, merged, 7)
	require.Equal(t, 8, total)
}

func TestMergeSizesCapsUnion(t *testing.T) {
	existing := []products.Size{
		{Label: "PP", Quantity: 1}, {Label: "P", Quantity: 1}, {Label: "M", Quantity: 1},
		{Label: "G", Quantity: 1}, {Label: "GG", Quantity: 1}, {Label: "XG", Quantity: 1},
		{Label: "XXG", Quantity: 1},
	}
	_, _, err := products.MergeSizes(existing, []products.SizeInput{{Label: "U", Quantity: 1}})
	require.ErrorIs(t, err, products.ErrTooManySizes)
}
