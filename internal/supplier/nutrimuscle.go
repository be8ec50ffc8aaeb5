package supplier

import (
	"strings"

	"github.com/fwnshop/invoice-extractor/internal/models"
	"github.com/fwnshop/invoice-extractor/internal/priceutil"
)

// Nutrimuscle发票的法语表头标签
var nutrimuscleHeaderSpec = headerSpec{
	models.ColumnSKU:         {"RÉF", "REF", "CODE"},
	models.ColumnDescription: {"DÉSIGNATION", "DESIGNATION", "LIBELLÉ", "LIBELLE", "ARTICLE"},
	models.ColumnQuantity:    {"QUANTITÉ", "QUANTITE", "QTÉ", "QTE"},
	models.ColumnUnitPrice:   {"PU", "PRIX UNITAIRE"},
	models.ColumnTotal:       {"MONTANT", "TOTAL"},
}

// extractPass 一次候选提取尝试
// 返回空结果表示未命中，由上层尝试下一个pass
type extractPass func(lines []models.TextLine, meta *models.InvoiceMetadata) ([]models.LineItem, []string)

// NutrimuscleStrategy 法语版式，模板在不同年份间变动较大
// 采用显式的有序提取pass级联：表头列解析 → 连字符行扫描 →
// 全局数值三元组扫描，前一pass产出为空才尝试下一个。
type NutrimuscleStrategy struct {
	cfg Config
}

// NewNutrimuscleStrategy 创建Nutrimuscle解析策略
func NewNutrimuscleStrategy(cfg Config) *NutrimuscleStrategy {
	return &NutrimuscleStrategy{cfg: cfg}
}

// Name 策略名称
func (s *NutrimuscleStrategy) Name() string {
	return "nutrimuscle"
}

// Parse 依次尝试各提取pass
func (s *NutrimuscleStrategy) Parse(lines []models.TextLine) *models.PdfExtractionResult {
	meta, info := scanMetadata(lines, s.cfg.DefaultCurrency)
	scanTotals(lines, &meta)

	passes := []extractPass{
		s.parseWithHeader,
		s.parseHyphenRows,
		s.parseNumericTriplets,
	}

	var items []models.LineItem
	var warnings []string
	for _, pass := range passes {
		items, warnings = pass(lines, &meta)
		if len(items) > 0 {
			break
		}
	}

	data := &models.ParsedInvoiceData{
		SupplierInfo:    info,
		InvoiceMetadata: meta,
		LineItems:       items,
	}
	if len(items) == 0 {
		return models.NewSuccessResult(data,
			append(warnings, "no line items found by any extraction pass, manual review recommended")...)
	}
	return models.NewSuccessResult(data, warnings...)
}

// parseWithHeader 第一pass：常规表头列解析
func (s *NutrimuscleStrategy) parseWithHeader(lines []models.TextLine, meta *models.InvoiceMetadata) ([]models.LineItem, []string) {
	thr, headerIdx := detectHeader(lines, nutrimuscleHeaderSpec, 3)
	if headerIdx < 0 {
		return nil, nil
	}
	return extractColumnItems(lines, headerIdx, thr, s.cfg, 2, 2, meta)
}

// parseHyphenRows 第二pass：旧模板以连字符开头列出商品行
// 形如 "- Whey native chocolat 3 25,95 77,85"
func (s *NutrimuscleStrategy) parseHyphenRows(lines []models.TextLine, meta *models.InvoiceMetadata) ([]models.LineItem, []string) {
	var items []models.LineItem
	var warnings []string

	for _, line := range lines {
		if isFooterLine(line.Text) {
			break
		}
		if !strings.HasPrefix(strings.TrimSpace(line.Text), "-") {
			continue
		}
		if isShippingLine(line.Text) {
			if fee, ok := shippingFeeFromLine(line); ok {
				meta.ShippingFee = fee
			}
			continue
		}

		item, ws, ok := s.itemFromTrailingNumerics(line, false)
		if !ok {
			continue
		}
		warnings = append(warnings, ws...)
		items = append(items, item)
	}
	return items, warnings
}

// parseNumericTriplets 第三pass：全局扫描
// 任何以数量/单价/合计三元组结尾、且合计能对上的行都算行项目
func (s *NutrimuscleStrategy) parseNumericTriplets(lines []models.TextLine, meta *models.InvoiceMetadata) ([]models.LineItem, []string) {
	var items []models.LineItem
	var warnings []string

	for _, line := range lines {
		if isFooterLine(line.Text) {
			break
		}
		if isShippingLine(line.Text) {
			if fee, ok := shippingFeeFromLine(line); ok {
				meta.ShippingFee = fee
			}
			continue
		}

		item, ws, ok := s.itemFromTrailingNumerics(line, true)
		if !ok {
			continue
		}
		warnings = append(warnings, ws...)
		items = append(items, item)
	}
	return items, warnings
}

// itemFromTrailingNumerics 从行尾的数值token序列还原行项目
// requireConsistent为真时要求数量×单价与合计在容差内吻合，
// 用于没有其他行结构佐证的全局扫描pass。
func (s *NutrimuscleStrategy) itemFromTrailingNumerics(line models.TextLine, requireConsistent bool) (item models.LineItem, warnings []string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()

	tokens := coalesceNumericFragments(line.Items)

	// 从行尾往回收集连续的数值token
	end := len(tokens)
	start := end
	for start > 0 {
		t := strings.TrimSpace(tokens[start-1].Text)
		if !priceutil.IsNumericShaped(t) {
			break
		}
		start--
	}
	numerics := tokens[start:end]
	if len(numerics) < 2 {
		return item, nil, false
	}
	if len(numerics) > 3 {
		numerics = numerics[len(numerics)-3:]
	}

	var vals []float64
	for _, t := range numerics {
		v, err := priceutil.ParseAmount(strings.TrimSpace(t.Text))
		if err != nil {
			return item, nil, false
		}
		vals = append(vals, v)
	}

	prow := parsedRow{}
	if len(vals) == 3 {
		prow.qty, prow.hasQty = vals[0], true
		prow.unit, prow.hasUnit = vals[1], true
		prow.total, prow.hasTotal = vals[2], true
		if requireConsistent && !totalsAgree(vals[0], vals[1], vals[2]) {
			return item, nil, false
		}
	} else {
		// 只有两个数值时缺乏合计佐证，全局扫描pass不接受
		if requireConsistent {
			return item, nil, false
		}
		prow.qty, prow.hasQty = vals[0], true
		prow.unit, prow.hasUnit = vals[1], true
	}

	// 数值之前的token构成SKU与描述
	var descParts []string
	for _, t := range tokens[:start] {
		text := strings.TrimSpace(t.Text)
		if text == "" || text == "-" {
			continue
		}
		if prow.sku == "" && priceutil.IsSKUShaped(text) {
			prow.sku = text
			continue
		}
		descParts = append(descParts, text)
	}
	if len(descParts) == 0 && prow.sku == "" {
		return item, nil, false
	}
	prow.desc = descParts

	item, warnings = prow.toItem(2)
	return item, warnings, true
}

// totalsAgree 数量×单价与合计是否在容差内一致
func totalsAgree(qty, unit, total float64) bool {
	diff := priceutil.Mul(qty, unit) - priceutil.Round2(total)
	return diff <= totalTolerance && diff >= -totalTolerance
}
