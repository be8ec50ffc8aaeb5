package supplier

import (
	"github.com/fwnshop/invoice-extractor/internal/models"
)

// GenericStrategy 未知供应商的兜底策略
// 只做尽力而为的元数据提取，并把所有行文本原样返回
// 供人工复核，不尝试重建行项目。
type GenericStrategy struct {
	cfg Config
}

// NewGenericStrategy 创建通用兜底策略
func NewGenericStrategy(cfg Config) *GenericStrategy {
	return &GenericStrategy{cfg: cfg}
}

// Name 策略名称
func (s *GenericStrategy) Name() string {
	return "generic"
}

// Parse 提取日期等元数据并返回原始行文本
func (s *GenericStrategy) Parse(lines []models.TextLine) *models.PdfExtractionResult {
	meta, info := scanMetadata(lines, s.cfg.DefaultCurrency)
	scanTotals(lines, &meta)

	raw := make([]string, 0, len(lines))
	for _, line := range lines {
		raw = append(raw, line.Text)
	}

	data := &models.ParsedInvoiceData{
		SupplierInfo:    info,
		InvoiceMetadata: meta,
		LineItems:       []models.LineItem{},
		RawText:         raw,
	}
	return models.NewSuccessResult(data,
		"unrecognized supplier layout: no line items extracted, manual review required")
}
