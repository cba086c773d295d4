package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const productsHeader = "product_id,name,brand,category,sub_category,supplier_country,hs_code,base_price,is_tariffed,stock_level,rating,tariff_start_date,tariff_end_date,tariff_rate,delta_cat,pred_price_after\n"

func TestLoadProducts(t *testing.T) {
	csv := productsHeader +
		"P001,Blender,Acme,Kitchenware,Appliances,CN,8509.40,100,true,4500,4.2,2024-01-01,2025-01-01,20,0.05,126\n" +
		"P002,Kettle,Bolt,Kitchenware,Appliances,US,8516.71,40,false,9000,4.8,,,,,\n"

	loader := NewLoader(zerolog.Nop())
	products, err := loader.LoadProducts(writeTempCSV(t, "products.csv", csv))

	require.NoError(t, err)
	require.Len(t, products, 2)

	p := products[0]
	assert.Equal(t, "P001", p.ProductID)
	assert.Equal(t, "CN", p.SupplierCountry)
	assert.True(t, p.IsTariffed)
	assert.Equal(t, 4500, p.StockLevel)
	require.NotNil(t, p.TariffRate)
	assert.Equal(t, 20.0, *p.TariffRate)
	require.NotNil(t, p.DeltaCat)
	assert.Equal(t, 0.05, *p.DeltaCat)

	// Nullable columns stay nil when empty.
	p2 := products[1]
	assert.False(t, p2.IsTariffed)
	assert.Nil(t, p2.TariffRate)
	assert.Nil(t, p2.DeltaCat)
	assert.Nil(t, p2.PredPriceAfter)
}

func TestLoadProducts_DropsMalformedRows(t *testing.T) {
	csv := productsHeader +
		"P001,Blender,Acme,Kitchenware,Appliances,CN,8509.40,not-a-price,true,4500,4.2,,,20,0.05,126\n" + // bad base_price
		",Nameless,Acme,Kitchenware,Appliances,CN,8509.40,100,true,4500,4.2,,,20,0.05,126\n" + // missing product_id
		"P003,Mixer,Acme,Kitchenware,Appliances,CN,8509.40,100,true,4500,9.9,,,20,0.05,126\n" + // rating out of range
		"P004,Toaster,Acme,Kitchenware,Appliances,CN,8516.72,60,true,2200,4.0,,,15,,\n"

	loader := NewLoader(zerolog.Nop())
	products, err := loader.LoadProducts(writeTempCSV(t, "products.csv", csv))

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "P004", products[0].ProductID)
}

func TestLoadProducts_MissingFile(t *testing.T) {
	loader := NewLoader(zerolog.Nop())
	products, err := loader.LoadProducts(filepath.Join(t.TempDir(), "nope.csv"))

	assert.Error(t, err)
	assert.Empty(t, products)
}

func TestLoadReplacements(t *testing.T) {
	csv := "original_product_id,replacement_id,name,brand,category,stock_level,reason_code,price,brand_popularity\n" +
		"P001,R001,Blender Pro,Bolt,Kitchenware,3000,quality,90,8\n" +
		"P001,R002,Blender Lite,Acme,Kitchenware,1500,cost,70,6\n" +
		"P001,R003,Broken,,Kitchenware,1500,cost,not-a-price,6\n"

	loader := NewLoader(zerolog.Nop())
	replacements, err := loader.LoadReplacements(writeTempCSV(t, "replacements.csv", csv))

	require.NoError(t, err)
	require.Len(t, replacements, 2)
	assert.Equal(t, "R001", replacements[0].ReplacementID)
	assert.Equal(t, "P001", replacements[0].OriginalProductID)
	assert.Equal(t, 8.0, replacements[0].BrandPopularity)
	// Input order preserved.
	assert.Equal(t, "R002", replacements[1].ReplacementID)
}

func TestLoadTariffs(t *testing.T) {
	csv := "category,hs_code,supplier_country,tariff_rate,effective_date,product_id\n" +
		"Kitchenware,8509.40,CN,20,2024-03-01,P001\n" +
		"Electronics,8517.12,CN,25,2024-04-15,P009\n"

	loader := NewLoader(zerolog.Nop())
	tariffs, err := loader.LoadTariffs(writeTempCSV(t, "tariff.csv", csv))

	require.NoError(t, err)
	require.Len(t, tariffs, 2)
	assert.Equal(t, 20.0, tariffs[0].TariffRate)
	assert.Equal(t, "2024-03-01", tariffs[0].EffectiveDate)
}

func TestStoreLoadAndSnapshots(t *testing.T) {
	products := productsHeader +
		"P001,Blender,Acme,Kitchenware,Appliances,CN,8509.40,100,true,4500,4.2,,,20,0.05,126\n"
	replacements := "original_product_id,replacement_id,name,brand,category,stock_level,reason_code,price,brand_popularity\n" +
		"P001,R001,Blender Pro,Bolt,Kitchenware,3000,quality,90,8\n"

	paths := Paths{
		Products:     writeTempCSV(t, "products.csv", products),
		Replacements: writeTempCSV(t, "replacements.csv", replacements),
		Tariffs:      filepath.Join(t.TempDir(), "missing.csv"),
	}

	store := NewStore(NewLoader(zerolog.Nop()), paths, zerolog.Nop())
	err := store.Load()

	// The missing tariff feed reports an error but the other feeds load.
	assert.Error(t, err)

	p, r, tr := store.Counts()
	assert.Equal(t, 1, p)
	assert.Equal(t, 1, r)
	assert.Equal(t, 0, tr)

	// Snapshots are copies; mutating one does not affect the store.
	snap := store.Products()
	snap[0].Name = "mutated"
	assert.Equal(t, "Blender", store.Products()[0].Name)
}
