package pdftext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createInvoicePDF 生成一个带定位文本的测试发票PDF
func createInvoicePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.pdf")

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)
	pdf.Text(40, 60, "INVOICE 2023/0042")
	pdf.Text(40, 120, "IAF00068182")
	pdf.Text(160, 120, "Glutamine POWDER")
	pdf.Text(360, 120, "15,00")
	pdf.Text(420, 120, "17,09")
	pdf.Text(480, 120, "256,35")
	pdf.Text(40, 180, "TOTALE 256,35")

	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func TestExtractPositionedText(t *testing.T) {
	path := createInvoicePDF(t)

	tokens, err := Extract(path)
	require.NoError(t, err)
	require.NotEmpty(t, tokens)

	var texts []string
	for _, tk := range tokens {
		assert.Equal(t, 1, tk.Page)
		texts = append(texts, tk.Text)
	}
	joined := strings.Join(texts, " ")
	assert.Contains(t, joined, "IAF00068182")
	assert.Contains(t, joined, "256,35")
}

func TestExtractReadingOrder(t *testing.T) {
	path := createInvoicePDF(t)

	tokens, err := Extract(path)
	require.NoError(t, err)

	lines := AssembleLines(tokens)
	require.NotEmpty(t, lines)

	headerIdx, itemIdx, footerIdx := -1, -1, -1
	for i, line := range lines {
		switch {
		case strings.Contains(line.Text, "INVOICE"):
			headerIdx = i
		case strings.Contains(line.Text, "IAF00068182"):
			itemIdx = i
		case strings.Contains(line.Text, "TOTALE"):
			footerIdx = i
		}
	}
	require.GreaterOrEqual(t, headerIdx, 0)
	require.Greater(t, itemIdx, headerIdx, "item line must follow the header")
	require.Greater(t, footerIdx, itemIdx, "footer must follow the item line")
}

func TestExtractRowTokensSorted(t *testing.T) {
	path := createInvoicePDF(t)

	tokens, err := Extract(path)
	require.NoError(t, err)
	lines := AssembleLines(tokens)

	for _, line := range lines {
		if !strings.Contains(line.Text, "IAF00068182") {
			continue
		}
		// 行内token必须按x升序，SKU在最左
		assert.Equal(t, "IAF00068182", line.Items[0].Text)
		for i := 1; i < len(line.Items); i++ {
			assert.GreaterOrEqual(t, line.Items[i].X, line.Items[i-1].X)
		}
		return
	}
	t.Fatal("item line not found")
}

func TestExtractCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 garbage not a real pdf"), 0o644))

	_, err := Extract(path)
	assert.Error(t, err)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}
