package priceutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"15/03/2023", "2023-03-15", true},
		{"2023-03-15", "2023-03-15", true},
		{"31.12.2024", "2024-12-31", true},
		{"01-02-2023", "2023-02-01", true},
		{"notadate", "", false},
		{"MP-12345", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestFindDate(t *testing.T) {
	iso, ok := FindDate("Facture du 15/03/2023 à Paris")
	assert.True(t, ok)
	assert.Equal(t, "2023-03-15", iso)

	_, ok = FindDate("no date in this text 12345")
	assert.False(t, ok)
}

func TestDetectCurrency(t *testing.T) {
	assert.Equal(t, "GBP", DetectCurrency("Total £19,99", "EUR"))
	assert.Equal(t, "USD", DetectCurrency("Total $19.99", "EUR"))
	assert.Equal(t, "EUR", DetectCurrency("Totale € 256,35", "EUR"))
	assert.Equal(t, "EUR", DetectCurrency("no symbols here", "EUR"))
}
