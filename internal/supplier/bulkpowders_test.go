package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwnshop/invoice-extractor/internal/models"
)

func TestBulkPowdersParseWithHeader(t *testing.T) {
	lines := []models.TextLine{
		makeLine(20, tk{40, "BULK"}, tk{90, "POWDERS"}, tk{160, "LTD"}),
		makeLine(50, tk{40, "ITEM"}, tk{100, "DESCRIPTION"}, tk{300, "QTY"}, tk{360, "UNIT"}, tk{400, "PRICE"}, tk{450, "AMOUNT"}),
		makeLine(70, tk{40, "BP1001"}, tk{100, "Pure"}, tk{140, "Whey"}, tk{180, "Isolate"}, tk{300, "2"}, tk{360, "12,99"}, tk{450, "25,98"}),
		makeLine(90, tk{100, "Shipping"}, tk{160, "&"}, tk{190, "handling"}, tk{420, "€"}, tk{450, "6,00"}),
		makeLine(110, tk{40, "Subtotal"}, tk{450, "25,98"}),
		makeLine(130, tk{40, "Total"}, tk{450, "31,98"}),
	}

	result := NewBulkPowdersStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, result.Data.LineItems, 1, "shipping row must not become a line item")

	item := result.Data.LineItems[0]
	assert.Equal(t, "BP1001", item.SupplierSKU)
	assert.Equal(t, "Pure Whey Isolate", item.Description)
	assert.InDelta(t, 2.0, item.Quantity, 0.001)
	assert.InDelta(t, 12.99, item.UnitPrice, 0.001)
	assert.InDelta(t, 25.98, item.Total, 0.001)

	meta := result.Data.InvoiceMetadata
	assert.InDelta(t, 6.00, meta.ShippingFee, 0.001)
	assert.InDelta(t, 25.98, meta.Subtotal, 0.001)
	assert.InDelta(t, 31.98, meta.Total, 0.001)
}

func TestBulkPowdersInferredThresholds(t *testing.T) {
	// 贷项通知单模板不打印表头行：列位置从数据行统计推断
	lines := []models.TextLine{
		makeLine(50, tk{100, "WPC80"}, tk{180, "Whey"}, tk{230, "Concentrate"}, tk{300, "3"}, tk{360, "9,99"}, tk{450, "29,97"}),
		makeLine(70, tk{100, "CRE500"}, tk{180, "Creatine"}, tk{300, "2"}, tk{360, "7,50"}, tk{450, "15,00"}),
	}

	result := NewBulkPowdersStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, result.Data.LineItems, 2)

	assert.Equal(t, "WPC80", result.Data.LineItems[0].SupplierSKU)
	assert.InDelta(t, 29.97, result.Data.LineItems[0].Total, 0.001)
	assert.Equal(t, "CRE500", result.Data.LineItems[1].SupplierSKU)

	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "inferred statistically")
}

func TestBulkPowdersNothingToInfer(t *testing.T) {
	lines := []models.TextLine{
		makeLine(50, tk{40, "just"}, tk{100, "words"}),
	}
	result := NewBulkPowdersStrategy(DefaultConfig()).Parse(lines)
	assert.False(t, result.Success)
}
