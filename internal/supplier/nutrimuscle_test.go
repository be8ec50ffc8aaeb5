package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwnshop/invoice-extractor/internal/models"
	"github.com/fwnshop/invoice-extractor/internal/priceutil"
)

func TestNutrimuscleHeaderPass(t *testing.T) {
	lines := []models.TextLine{
		makeLine(50, tk{40, "RÉF"}, tk{100, "DÉSIGNATION"}, tk{300, "QUANTITÉ"}, tk{380, "PU"}, tk{450, "MONTANT"}),
		makeLine(70, tk{40, "NM2040"}, tk{100, "Whey"}, tk{150, "native"}, tk{300, "3"}, tk{380, "25,95"}, tk{450, "77,85"}),
		makeLine(120, tk{40, "TOTAL"}, tk{450, "77,85"}),
	}
	result := NewNutrimuscleStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, result.Data.LineItems, 1)
	assert.Equal(t, "NM2040", result.Data.LineItems[0].SupplierSKU)
	assert.InDelta(t, 77.85, result.Data.LineItems[0].Total, 0.001)
}

func TestNutrimuscleHyphenPass(t *testing.T) {
	// 旧模板：无表头，商品行以连字符开头
	lines := []models.TextLine{
		makeLine(20, tk{40, "Facture"}, tk{120, "NM-2023-77"}, tk{250, "du"}, tk{290, "12/06/2023"}),
		makeLine(40, tk{40, "-"}, tk{60, "Whey"}, tk{110, "native"}, tk{170, "chocolat"}, tk{300, "3"}, tk{360, "25,95"}, tk{450, "77,85"}),
		makeLine(60, tk{40, "-"}, tk{60, "BCAA"}, tk{110, "poudre"}, tk{300, "2"}, tk{360, "15,00"}, tk{450, "30,00"}),
		makeLine(80, tk{40, "TOTAL"}, tk{450, "107,85"}),
	}
	result := NewNutrimuscleStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, result.Data.LineItems, 2)

	first := result.Data.LineItems[0]
	assert.Equal(t, "Whey native chocolat", first.Description)
	assert.InDelta(t, 3.0, first.Quantity, 0.001)
	assert.InDelta(t, 25.95, first.UnitPrice, 0.001)
	assert.InDelta(t, 77.85, first.Total, 0.001)
	assert.True(t, priceutil.IsGeneratedSKU(first.SupplierSKU))

	assert.Equal(t, "NM-2023-77", result.Data.InvoiceMetadata.InvoiceNumber)
	assert.Equal(t, "2023-06-12", result.Data.InvoiceMetadata.InvoiceDate)
}

func TestNutrimuscleTripletPass(t *testing.T) {
	// 无表头也无连字符：只接受合计能对上的数值三元组行
	lines := []models.TextLine{
		makeLine(40, tk{60, "Whey"}, tk{110, "native"}, tk{300, "3"}, tk{360, "25,95"}, tk{450, "77,85"}),
		makeLine(60, tk{60, "Page"}, tk{300, "1"}, tk{340, "2"}),
		makeLine(70, tk{60, "Random"}, tk{300, "2"}, tk{360, "10,00"}, tk{450, "99,99"}),
		makeLine(90, tk{40, "TOTAL"}, tk{450, "77,85"}),
	}
	result := NewNutrimuscleStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, result.Data.LineItems, 1, "inconsistent triplets and short numeric runs are rejected")
	assert.Equal(t, "Whey native", result.Data.LineItems[0].Description)
}

func TestNutrimuscleNoItems(t *testing.T) {
	lines := []models.TextLine{
		makeLine(20, tk{40, "Facture"}, tk{120, "NM-2023-78"}),
	}
	result := NewNutrimuscleStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success)
	assert.Empty(t, result.Data.LineItems)
	assert.NotEmpty(t, result.Warnings)
}
