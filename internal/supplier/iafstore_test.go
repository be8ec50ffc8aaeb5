package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwnshop/invoice-extractor/internal/models"
)

func iafstoreLines() []models.TextLine {
	return []models.TextLine{
		makeLine(20, tk{40, "IAFSTORE"}, tk{140, "Srl"}),
		makeLine(35, tk{40, "Fattura"}, tk{120, "2023/0815"}, tk{250, "del"}, tk{290, "15/03/2023"}),
		makeLine(60, tk{40, "Codice"}, tk{120, "Descrizione"}, tk{400, "UM"}, tk{440, "Q.tà"}, tk{490, "Prezzo"}, tk{540, "Importo"}),
		makeLine(80,
			tk{40, "IAF00068182"},
			tk{130, "YAMAMOTO"}, tk{200, "NUTRITION"}, tk{270, "Glutamine"}, tk{330, "POWDER"},
			tk{390, "600"}, tk{415, "grammes"}, tk{460, "-"},
			tk{480, "PZ"},
			tk{510, "15,00"}, tk{550, "17,09"}, tk{590, "256,35"}, tk{630, "NI41"}),
		makeLine(100,
			tk{40, "FITT003"},
			tk{130, "Sconto"}, tk{190, "extra"},
			tk{480, "PZ"},
			tk{510, "1,00"}, tk{550, "-0,31"}, tk{590, "-0,31"}, tk{630, "ESC15"}),
		makeLine(120, tk{40, "Spedizione"}, tk{130, "DHL"}, tk{590, "6,00"}),
		makeLine(140, tk{40, "TOTALE"}, tk{590, "262,04"}),
	}
}

func TestIafstoreParse(t *testing.T) {
	result := NewIafstoreStrategy(DefaultConfig()).Parse(iafstoreLines())
	require.True(t, result.Success, "error: %s", result.Error)
	require.NotNil(t, result.Data)
	require.Len(t, result.Data.LineItems, 2)

	first := result.Data.LineItems[0]
	assert.Equal(t, "IAF00068182", first.SupplierSKU)
	assert.Equal(t, "YAMAMOTO NUTRITION Glutamine POWDER 600 grammes", first.Description)
	assert.InDelta(t, 15.0, first.Quantity, 0.001)
	assert.InDelta(t, 17.09, first.UnitPrice, 0.001)
	assert.InDelta(t, 256.35, first.Total, 0.001)

	// 负数金额（折扣行）原样保留
	discount := result.Data.LineItems[1]
	assert.Equal(t, "FITT003", discount.SupplierSKU)
	assert.Equal(t, "Sconto extra", discount.Description)
	assert.InDelta(t, 1.0, discount.Quantity, 0.001)
	assert.InDelta(t, -0.31, discount.UnitPrice, 0.001)
	assert.InDelta(t, -0.31, discount.Total, 0.001)
	assert.Empty(t, result.Warnings, "consistent totals must not produce warnings")
}

func TestIafstoreMetadata(t *testing.T) {
	result := NewIafstoreStrategy(DefaultConfig()).Parse(iafstoreLines())
	require.True(t, result.Success)

	meta := result.Data.InvoiceMetadata
	assert.Equal(t, "2023/0815", meta.InvoiceNumber)
	assert.Equal(t, "2023-03-15", meta.InvoiceDate)
	assert.InDelta(t, 6.00, meta.ShippingFee, 0.001)
	assert.InDelta(t, 262.04, meta.Total, 0.001)
}

func TestIafstoreComputedTotalWarning(t *testing.T) {
	// 打印合计与数量×单价不一致：采用推导值并报警告
	lines := []models.TextLine{
		makeLine(80,
			tk{40, "IAF00012345"},
			tk{130, "Creatine"},
			tk{480, "PZ"},
			tk{510, "2,00"}, tk{550, "10,00"}, tk{590, "25,00"}),
	}
	result := NewIafstoreStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success)
	require.Len(t, result.Data.LineItems, 1)

	item := result.Data.LineItems[0]
	assert.InDelta(t, 20.00, item.Total, 0.001, "computed total wins over printed total")
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "using computed value")
}

func TestIafstoreNoItems(t *testing.T) {
	lines := []models.TextLine{
		makeLine(20, tk{40, "Fattura"}, tk{120, "2023/0001"}),
	}
	result := NewIafstoreStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success, "empty invoice is a soft outcome, not a failure")
	assert.Empty(t, result.Data.LineItems)
	assert.NotEmpty(t, result.Warnings)
}
