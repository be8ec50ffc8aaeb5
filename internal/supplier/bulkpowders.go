package supplier

import (
	"github.com/fwnshop/invoice-extractor/internal/models"
)

// Bulk Powders发票的英语表头标签
var bulkPowdersHeaderSpec = headerSpec{
	models.ColumnSKU:         {"ITEM", "SKU", "CODE"},
	models.ColumnDescription: {"DESCRIPTION"},
	models.ColumnQuantity:    {"QTY", "QUANTITY"},
	models.ColumnUnitPrice:   {"UNIT PRICE", "PRICE"},
	models.ColumnTotal:       {"AMOUNT", "TOTAL"},
}

// BulkPowdersStrategy 英语列对齐版式
// 表头通常存在，但部分模板（贷项通知单）不打印表头行，
// 此时退回到对数据行本身做统计推断得出列阈值。
type BulkPowdersStrategy struct {
	cfg Config
}

// NewBulkPowdersStrategy 创建Bulk Powders解析策略
func NewBulkPowdersStrategy(cfg Config) *BulkPowdersStrategy {
	return &BulkPowdersStrategy{cfg: cfg}
}

// Name 策略名称
func (s *BulkPowdersStrategy) Name() string {
	return "bulkpowders"
}

// Parse 表头定位（缺失时统计推断）+列阈值行解析
func (s *BulkPowdersStrategy) Parse(lines []models.TextLine) *models.PdfExtractionResult {
	meta, info := scanMetadata(lines, s.cfg.DefaultCurrency)

	var warnings []string
	thr, headerIdx := detectHeader(lines, bulkPowdersHeaderSpec, 3)
	if headerIdx < 0 {
		thr = inferThresholds(lines)
		if thr == nil {
			return models.NewFailureResult(
				"no column header found and column positions could not be inferred from data rows")
		}
		headerIdx = -1 // 从首行开始扫描
		warnings = append(warnings,
			"no column header found, thresholds inferred statistically from data rows")
	}

	items, ws := extractColumnItems(lines, headerIdx, thr, s.cfg, 2, 2, &meta)
	warnings = append(warnings, ws...)
	scanTotals(lines, &meta)

	data := &models.ParsedInvoiceData{
		SupplierInfo:    info,
		InvoiceMetadata: meta,
		LineItems:       items,
	}
	if len(items) == 0 {
		return models.NewSuccessResult(data,
			append(warnings, "no line items found, manual review recommended")...)
	}
	return models.NewSuccessResult(data, warnings...)
}
