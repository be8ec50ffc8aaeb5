package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwnshop/invoice-extractor/internal/models"
	"github.com/fwnshop/invoice-extractor/internal/priceutil"
)

func myproteinLines() []models.TextLine {
	return []models.TextLine{
		makeLine(20, tk{40, "Invoice"}, tk{120, "MP-881234"}),
		makeLine(50, tk{100, "PRODUCT"}, tk{300, "QTY"}, tk{360, "UNIT"}, tk{400, "PRICE"}, tk{450, "TOTAL"}),
		makeLine(70, tk{100, "Impact"}, tk{145, "Whey"}, tk{185, "Protein"}, tk{300, "1"}, tk{360, "19,99"}, tk{450, "19,99"}),
		makeLine(90, tk{100, "Creatine"}, tk{155, "Monohydrate"}, tk{300, "2"}, tk{360, "9,99"}, tk{450, "19,98"}),
		makeLine(120, tk{40, "TOTAL"}, tk{450, "£39,97"}),
	}
}

func TestMyproteinParse(t *testing.T) {
	result := NewMyproteinStrategy(DefaultConfig()).Parse(myproteinLines())
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, result.Data.LineItems, 2)

	first := result.Data.LineItems[0]
	assert.Equal(t, "Impact Whey Protein", first.Description)
	assert.InDelta(t, 1.0, first.Quantity, 0.001)
	assert.InDelta(t, 19.99, first.Total, 0.001)

	// 无SKU列：编码由描述确定性合成
	assert.True(t, priceutil.IsGeneratedSKU(first.SupplierSKU))
	assert.Equal(t, priceutil.PseudoSKU("Impact Whey Protein"), first.SupplierSKU)

	// 重复解析同一发票得到相同编码
	again := NewMyproteinStrategy(DefaultConfig()).Parse(myproteinLines())
	assert.Equal(t, first.SupplierSKU, again.Data.LineItems[0].SupplierSKU)
}

func TestMyproteinCurrencyAndTotals(t *testing.T) {
	result := NewMyproteinStrategy(DefaultConfig()).Parse(myproteinLines())
	require.True(t, result.Success)

	meta := result.Data.InvoiceMetadata
	assert.Equal(t, "GBP", meta.Currency, "pound symbol in the document wins over the default")
	assert.Equal(t, "MP-881234", meta.InvoiceNumber)
	assert.InDelta(t, 39.97, meta.Total, 0.001)
}

func TestMyproteinMissingHeader(t *testing.T) {
	lines := []models.TextLine{
		makeLine(70, tk{100, "Impact"}, tk{145, "Whey"}, tk{300, "1"}, tk{360, "19,99"}, tk{450, "19,99"}),
	}
	result := NewMyproteinStrategy(DefaultConfig()).Parse(lines)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "header")
}
