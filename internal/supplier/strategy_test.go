package supplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwnshop/invoice-extractor/internal/models"
)

func TestSelect(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		supplier string
		want     string
	}{
		{"IAFSTORE Srl", "iafstore"},
		{"IAF Store", "iafstore"},
		{"Addict Sport Nutrition", "addict"},
		{"NUTRIMUSCLE", "nutrimuscle"},
		{"Bulk Powders Ltd", "bulkpowders"},
		{"BULKPOWDERS", "bulkpowders"},
		{"Myprotein", "myprotein"},
		{"My Protein Ltd", "myprotein"},
		{"Unknown Corp", "generic"},
		{"", "generic"},
	}
	for _, tt := range tests {
		got := Select(tt.supplier, cfg)
		assert.Equal(t, tt.want, got.Name(), "supplier %q", tt.supplier)
	}
}

func TestPinnedToTables(t *testing.T) {
	assert.True(t, PinnedToTables("FitnessBoutique SAS"))
	assert.True(t, PinnedToTables("Fitness Boutique"))
	assert.False(t, PinnedToTables("Myprotein"))
	assert.False(t, PinnedToTables(""))
}

func TestGenericStrategy(t *testing.T) {
	lines := []models.TextLine{
		makeLine(20, tk{40, "Invoice"}, tk{120, "XY-9981"}),
		makeLine(40, tk{40, "Some"}, tk{100, "unknown"}, tk{180, "layout"}),
	}

	result := NewGenericStrategy(DefaultConfig()).Parse(lines)
	require.True(t, result.Success)
	require.NotNil(t, result.Data)
	assert.Empty(t, result.Data.LineItems)
	assert.Len(t, result.Data.RawText, 2)
	assert.NotEmpty(t, result.Warnings, "generic result must carry a manual review warning")
	assert.Equal(t, "XY-9981", result.Data.InvoiceMetadata.InvoiceNumber)
}
