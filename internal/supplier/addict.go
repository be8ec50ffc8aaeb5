package supplier

import (
	"github.com/fwnshop/invoice-extractor/internal/models"
)

// Addict发票的法语表头标签
var addictHeaderSpec = headerSpec{
	models.ColumnSKU:         {"RÉF", "REF", "CODE"},
	models.ColumnDescription: {"LIBELLÉ", "LIBELLE", "DÉSIGNATION", "DESIGNATION"},
	models.ColumnQuantity:    {"QUANTITÉ", "QUANTITE", "QTÉ", "QTE"},
	models.ColumnUnitPrice:   {"PU", "PRIX UNITAIRE"},
	models.ColumnTotal:       {"MONTANT HT", "PRIX HT", "TOTAL HT"},
	models.ColumnVAT:         {"TVA"},
}

// AddictStrategy 法语列对齐版式
// 行严格按列对齐但SKU不自描述，必须先定位表头行得出列阈值；
// 没有表头就无从下手，按结构性失败处理。
// 该供应商的单价精确到百分之一分（4位小数）。
type AddictStrategy struct {
	cfg Config
}

// NewAddictStrategy 创建Addict解析策略
func NewAddictStrategy(cfg Config) *AddictStrategy {
	return &AddictStrategy{cfg: cfg}
}

// Name 策略名称
func (s *AddictStrategy) Name() string {
	return "addict"
}

// Parse 表头定位+列阈值行解析
func (s *AddictStrategy) Parse(lines []models.TextLine) *models.PdfExtractionResult {
	meta, info := scanMetadata(lines, s.cfg.DefaultCurrency)

	thr, headerIdx := detectHeader(lines, addictHeaderSpec, 3)
	if headerIdx < 0 {
		return models.NewFailureResult(
			"no recognizable column header (RÉF/LIBELLÉ/QUANTITÉ/PU) found in document")
	}

	items, warnings := extractColumnItems(lines, headerIdx, thr, s.cfg, 4, 4, &meta)
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
