package supplier

import (
	"github.com/fwnshop/invoice-extractor/internal/models"
)

// Myprotein发票的英语表头标签——没有商品编码列
var myproteinHeaderSpec = headerSpec{
	models.ColumnDescription: {"PRODUCT", "DESCRIPTION"},
	models.ColumnQuantity:    {"QTY", "QUANTITY"},
	models.ColumnUnitPrice:   {"UNIT PRICE", "PRICE"},
	models.ColumnTotal:       {"TOTAL", "AMOUNT"},
}

// MyproteinStrategy 英语列对齐版式，无商品编码列
// 供应商不打印SKU，行项目编码由描述确定性合成（伪SKU），
// 重复解析同一张发票必然得到相同编码。英镑发票常见。
type MyproteinStrategy struct {
	cfg Config
}

// NewMyproteinStrategy 创建Myprotein解析策略
func NewMyproteinStrategy(cfg Config) *MyproteinStrategy {
	return &MyproteinStrategy{cfg: cfg}
}

// Name 策略名称
func (s *MyproteinStrategy) Name() string {
	return "myprotein"
}

// Parse 表头定位+列阈值行解析，SKU由描述合成
func (s *MyproteinStrategy) Parse(lines []models.TextLine) *models.PdfExtractionResult {
	meta, info := scanMetadata(lines, s.cfg.DefaultCurrency)

	thr, headerIdx := detectHeader(lines, myproteinHeaderSpec, 3)
	if headerIdx < 0 {
		return models.NewFailureResult(
			"no recognizable column header (PRODUCT/QTY/PRICE/TOTAL) found in document")
	}

	// 该版式的有效行判定依赖两个价格列（没有SKU可用）
	items, warnings := extractColumnItems(lines, headerIdx, thr, s.cfg, 2, 2, &meta)
	scanTotals(lines, &meta)

	data := &models.ParsedInvoiceData{
		SupplierInfo:    info,
		InvoiceMetadata: meta,
		LineItems:       items,
	}
	if len(items) == 0 {
		return models.NewSuccessResult(data,
			append(warnings, "header found but no line items extracted, manual review recommended")...)
	}
	return models.NewSuccessResult(data, warnings...)
}
