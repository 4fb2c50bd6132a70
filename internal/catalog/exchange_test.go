package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simplepos/simplepos/internal/catalog"
	_ "github.com/simplepos/simplepos/testing"
)

func TestCatalogCSVRoundTrip(t *testing.T) {
	products := []catalog.Product{
		{ID: "p1", Name: `Espresso "doppio"`, Category: "Coffee", Description: "Short, strong", Price: 2.5},
		{ID: "p2", Name: "Green Tea", Category: "Tea", Description: "", Price: 2},
	}

	out := catalog.ToCSV(products)
	require.True(t, strings.HasPrefix(out, "id,name,category,price,description\r\n"))
	require.Contains(t, out, `"Espresso ""doppio"""`)
	require.Contains(t, out, ",2.5,")

	parsed, err := catalog.FromCSV(out)
	require.NoError(t, err)
	require.Equal(t, products, parsed)
	require.Equal(t, out, catalog.ToCSV(parsed))
}

func TestCatalogCSVUnparsablePriceDefaultsZero(t *testing.T) {
	data := "id,name,category,price,description\r\n" +
		"\"p1\",\"Espresso\",\"Coffee\",abc,\"\"\r\n"

	parsed, err := catalog.FromCSV(data)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Zero(t, parsed[0].Price)
}

func TestCatalogCSVMissingHeader(t *testing.T) {
	_, err := catalog.FromCSV("")
	require.Error(t, err)
}

func TestCatalogJSONRoundTrip(t *testing.T) {
	products := []catalog.Product{
		{ID: "p1", Name: "Espresso", Category: "Coffee", Price: 2.5},
	}

	data, err := catalog.ToJSON(products)
	require.NoError(t, err)

	parsed, err := catalog.FromJSON(data)
	require.NoError(t, err)
	require.Equal(t, products, parsed)
}

func TestCatalogImportSkipsIncompleteRecords(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	summary := svc.Import(ctx, nil, []catalog.Product{
		{ID: "p1", Name: "Espresso", Price: 2.5},
		{ID: "", Name: "No ID"},
		{ID: "p3", Name: "", Price: 1},
		{ID: "p4", Name: "Discounted", Price: -3},
	})
	require.Equal(t, 2, summary.Imported)
	require.Equal(t, 2, summary.Skipped)

	// Negative price clamps to zero on import.
	p, err := svc.Get(ctx, "p4")
	require.NoError(t, err)
	require.Zero(t, p.Price)
}
