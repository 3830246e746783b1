package export

import (
	"bytes"
	"testing"

	"go-inventory-ledger/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestInventoryWorkbook(t *testing.T) {
	product := &model.Product{SKU: "WID-1", Name: "Widget", UnitCost: decimal.RequireFromString("2.50"), ReorderPoint: 5}
	rows := []model.Inventory{
		{Product: product, Location: &model.Location{Name: "Main"}, QuantityOnHand: 10, ReservedQuantity: 4},
		{Product: product, Location: &model.Location{Name: "Store"}, QuantityOnHand: 2},
	}

	data, err := InventoryWorkbook(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "SKU", got[0][0])
	assert.Equal(t, "Value", got[0][8])
	assert.Equal(t, []string{"WID-1", "Widget", "Main", "10", "4", "6", "5", "2.5", "25"}, got[1])
	assert.Equal(t, "Store", got[2][2])
	assert.Equal(t, "Total", got[3][7])
	assert.Equal(t, "30", got[3][8])
}

func TestInventoryWorkbook_Empty(t *testing.T) {
	data, err := InventoryWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
