package export

import (
	"bytes"
	"fmt"

	"go-inventory-ledger/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Inventory"

var header = []interface{}{
	"SKU", "Product", "Location", "On Hand", "Reserved", "Available",
	"Reorder Point", "Unit Cost", "Value",
}

// InventoryWorkbook renders ledger rows as an XLSX document. Rows without a
// loaded product or location are written with empty names.
func InventoryWorkbook(rows []model.Inventory) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: bold}); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i, inv := range rows {
		var sku, product, location string
		unitCost := decimal.Zero
		reorderPoint := 0
		if inv.Product != nil {
			sku = inv.Product.SKU
			product = inv.Product.Name
			unitCost = inv.Product.UnitCost
			reorderPoint = inv.Product.ReorderPoint
		}
		if inv.Location != nil {
			location = inv.Location.Name
		}
		value := unitCost.Mul(decimal.NewFromInt(int64(inv.QuantityOnHand)))
		total = total.Add(value)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		err := sw.SetRow(cell, []interface{}{
			sku, product, location,
			inv.QuantityOnHand, inv.ReservedQuantity, inv.Available(),
			reorderPoint, unitCost.InexactFloat64(), value.InexactFloat64(),
		})
		if err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cell, _ := excelize.CoordinatesToCellName(8, len(rows)+2)
	if err := sw.SetRow(cell, []interface{}{"Total", total.InexactFloat64()}, excelize.RowOpts{StyleID: bold}); err != nil {
		return nil, err
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
